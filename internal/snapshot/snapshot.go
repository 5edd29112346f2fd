// Package snapshot assembles per-cycle overlay state and fans it out to
// subscribers.
package snapshot

import (
	"time"

	"github.com/GriffinCanCode/lingolens/internal/ocr"
	"github.com/GriffinCanCode/lingolens/internal/translate"
)

// Item is one positioned text block ready for overlay rendering.
type Item struct {
	ID         string  `json:"id"`
	Source     string  `json:"source"`
	Translated string  `json:"translated,omitempty"`
	State      string  `json:"state"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	W          int     `json:"w"`
	H          int     `json:"h"`
	Conf       float64 `json:"conf"`
	WordCount  int     `json:"wordCount"`
}

// Word is a word-level detail record, included only in debug mode so the
// overlay can draw per-word confidence rectangles.
type Word struct {
	Text    string  `json:"text"`
	X       int     `json:"x"`
	Y       int     `json:"y"`
	W       int     `json:"w"`
	H       int     `json:"h"`
	Conf    float64 `json:"conf"`
	ParConf float64 `json:"parConf"`
}

// Snapshot is the complete overlay state for one capture cycle. Suppressed
// snapshots carry data the renderer should not display (pipeline paused).
type Snapshot struct {
	Seq        uint64    `json:"seq"`
	Captured   time.Time `json:"captured"`
	Generated  time.Time `json:"generated"`
	Reused     bool      `json:"reused"`
	Suppressed bool      `json:"suppressed,omitempty"`
	Items      []Item    `json:"items"`
	Words      []Word    `json:"words,omitempty"`
}

// Aggregate merges recognized paragraphs with their translation results.
// Paragraph order is preserved; paragraphs whose translation is still in
// flight or cooling down carry a state marker instead of translated text.
func Aggregate(seq uint64, captured time.Time, paragraphs []ocr.Paragraph, results map[string]translate.Result) Snapshot {
	snap := Snapshot{
		Seq:       seq,
		Captured:  captured,
		Generated: time.Now(),
		Items:     make([]Item, 0, len(paragraphs)),
	}
	for _, p := range paragraphs {
		item := Item{
			ID:        p.ID,
			Source:    p.Text,
			X:         p.X,
			Y:         p.Y,
			W:         p.W,
			H:         p.H,
			Conf:      p.Conf,
			WordCount: p.WordCount,
		}
		r, ok := results[p.Text]
		if !ok {
			r = translate.Pending()
		}
		item.State = r.State.String()
		if r.State == translate.StateDone {
			item.Translated = r.Text
		}
		snap.Items = append(snap.Items, item)
	}
	return snap
}

// Reuse carries the previous snapshot's items forward for an unchanged
// frame, under a fresh sequence number.
func Reuse(prev Snapshot, seq uint64, captured time.Time) Snapshot {
	items := make([]Item, len(prev.Items))
	copy(items, prev.Items)
	return Snapshot{
		Seq:        seq,
		Captured:   captured,
		Generated:  time.Now(),
		Reused:     true,
		Suppressed: prev.Suppressed,
		Items:      items,
	}
}

// WordsFromRegions converts filtered word regions into debug records.
func WordsFromRegions(regions []ocr.Region) []Word {
	if len(regions) == 0 {
		return nil
	}
	words := make([]Word, len(regions))
	for i, r := range regions {
		words[i] = Word{
			Text:    r.Text,
			X:       r.X,
			Y:       r.Y,
			W:       r.W,
			H:       r.H,
			Conf:    r.Conf,
			ParConf: r.ParConf,
		}
	}
	return words
}
