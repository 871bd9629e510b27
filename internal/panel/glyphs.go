package panel

// Glyphs is the pair of strings drawn for a lit and a dark lamp.
type Glyphs struct {
	Name string
	On   string
	Off  string
}

var (
	GlyphsBlock  = Glyphs{Name: "block", On: "█", Off: "·"}
	GlyphsCircle = Glyphs{Name: "circle", On: "●", Off: "○"}
	GlyphsSquare = Glyphs{Name: "square", On: "■", Off: "□"}
	GlyphsASCII  = Glyphs{Name: "ascii", On: "#", Off: "."}
	GlyphsHole   = Glyphs{Name: "hole", On: "▮", Off: "▯"}
	GlyphsDot    = Glyphs{Name: "dot", On: "•", Off: " "}

	GlyphSets = []Glyphs{
		GlyphsBlock,
		GlyphsCircle,
		GlyphsSquare,
		GlyphsASCII,
		GlyphsHole,
		GlyphsDot,
	}
)

// GetGlyphs returns a set by name, defaulting to block.
func GetGlyphs(name string) Glyphs {
	for _, g := range GlyphSets {
		if g.Name == name {
			return g
		}
	}
	return GlyphsBlock
}

func GlyphNames() []string {
	names := make([]string, len(GlyphSets))
	for i, g := range GlyphSets {
		names[i] = g.Name
	}
	return names
}

func glyphIndex(name string) int {
	for i, g := range GlyphSets {
		if g.Name == name {
			return i
		}
	}
	return 0
}
