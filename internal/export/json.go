package export

import (
	"encoding/json"
	"os"
	"time"

	"github.com/san-kum/punchcard/internal/history"
)

type HistoryData struct {
	Exported time.Time         `json:"exported"`
	Count    int               `json:"count"`
	Shown    int               `json:"shown"`
	Messages []history.Message `json:"messages"`
}

// HistoryJSON writes msgs with a small summary to path.
func HistoryJSON(path string, msgs []history.Message) error {
	data := HistoryData{
		Exported: time.Now(),
		Count:    len(msgs),
		Messages: msgs,
	}
	for _, m := range msgs {
		data.Shown += m.DisplayCount
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
