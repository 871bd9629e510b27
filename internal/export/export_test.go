package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/punchcard/internal/grid"
	"github.com/san-kum/punchcard/internal/history"
)

func TestCardToSVG(t *testing.T) {
	m := grid.NewMatrix(12, 4)
	m[0][0] = true
	m[3][0] = true

	svg := CardToSVG(m, "A<", 10)
	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatal("expected a complete svg document")
	}
	if n := strings.Count(svg, "<rect"); n != 2 {
		t.Errorf("expected 2 holes, got %d", n)
	}
	if !strings.Contains(svg, "A&lt;") {
		t.Error("expected escaped card text")
	}
	// ten digit rows, four columns, minus the punched 1
	if n := strings.Count(svg, "font-size=\"8.0\""); n != 39 {
		t.Errorf("expected 39 printed digits, got %d", n)
	}
}

func TestCardToSVGEmpty(t *testing.T) {
	if CardToSVG(nil, "", 1) != "" {
		t.Error("expected empty output for an empty matrix")
	}
}

func TestHistoryJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	msgs := []history.Message{
		{Seq: 1, Content: "ONE", DisplayCount: 2},
		{Seq: 2, Content: "TWO", DisplayCount: 1},
	}
	if err := HistoryJSON(path, msgs); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got HistoryData
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatal(err)
	}
	if got.Count != 2 || got.Shown != 3 {
		t.Errorf("unexpected summary: count=%d shown=%d", got.Count, got.Shown)
	}
	if got.Messages[1].Content != "TWO" {
		t.Errorf("unexpected message: %+v", got.Messages[1])
	}
}
