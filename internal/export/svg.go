package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/punchcard/internal/grid"
	"github.com/san-kum/punchcard/internal/hollerith"
)

// CardToSVG draws a lamp matrix as a punch card: a buff card with a
// rectangular hole for every lit cell and faint printed digits elsewhere.
func CardToSVG(m grid.Matrix, text string, scale float64) string {
	if m.Rows() == 0 || m.Cols() == 0 {
		return ""
	}
	if scale <= 0 {
		scale = 10
	}

	cellW, cellH := scale, scale*2.5
	margin := scale * 2
	width := float64(m.Cols())*cellW + 2*margin
	height := float64(m.Rows())*cellH + 3*margin

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<path d="M%.1f,0 H%.0f V%.0f H0 V%.1f Z" fill="#f3e5ab" stroke="#8b7d5a"/>
`, width, height, width, height, margin, width, height, margin))

	// printed text along the top edge
	if text != "" {
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" font-family="monospace" font-size="%.1f" fill="#333">`,
			margin, margin*1.2, scale))
		sb.WriteString(escape(text))
		sb.WriteString("</text>\n")
	}

	sb.WriteString(`<g font-family="monospace" fill="#b8a878" text-anchor="middle">` + "\n")
	labelled := m.Rows() == hollerith.Rows
	for r := 0; r < m.Rows(); r++ {
		if !labelled || len(hollerith.RowLabels[r]) != 1 {
			continue
		}
		for c := 0; c < m.Cols(); c++ {
			if m[r][c] {
				continue
			}
			x := margin + float64(c)*cellW + cellW/2
			y := 2*margin + float64(r)*cellH + cellH*0.7
			sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" font-size="%.1f">%s</text>
`, x, y, scale*0.8, hollerith.RowLabels[r]))
		}
	}
	sb.WriteString("</g>\n")

	sb.WriteString(`<g fill="#1a1a1a">` + "\n")
	for r := 0; r < m.Rows(); r++ {
		for c := 0; c < m.Cols(); c++ {
			if !m[r][c] {
				continue
			}
			x := margin + float64(c)*cellW + cellW*0.2
			y := 2*margin + float64(r)*cellH + cellH*0.15
			sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f"/>
`, x, y, cellW*0.6, cellH*0.7))
		}
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

func escape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
