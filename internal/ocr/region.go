// Package ocr wraps the Tesseract engine and models recognized text regions
package ocr

import (
	"fmt"
	"sort"
)

// Region is one recognized word with geometry and confidence. Immutable after
// creation; paragraph confidence is attached by the adapter, not the engine.
type Region struct {
	Text string

	// Bounding box in screen pixels
	X, Y, W, H int

	// Word-level confidence, 0-100
	Conf float64

	// Position within the page layout
	Page, Block, Par, Line, Word int

	// Mean confidence of all words in the parent paragraph
	ParConf float64
}

// ParagraphID identifies the parent paragraph of a region.
func (r Region) ParagraphID() string {
	return fmt.Sprintf("%d_%d_%d", r.Page, r.Block, r.Par)
}

// Paragraph is a group of word regions merged into one translation unit.
type Paragraph struct {
	ID   string
	Text string

	// Union bounding box of member words
	X, Y, W, H int

	// Mean word confidence
	Conf float64

	WordCount int
}

// AttachParagraphConfidence computes each paragraph's mean word confidence and
// writes it onto every member region. The engine's own aggregate, if any, is
// ignored.
func AttachParagraphConfidence(regions []Region) {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range regions {
		id := r.ParagraphID()
		sums[id] += r.Conf
		counts[id]++
	}
	for i := range regions {
		id := regions[i].ParagraphID()
		regions[i].ParConf = sums[id] / float64(counts[id])
	}
}

// MergeParagraphs groups word regions into paragraphs: union bounding box,
// text joined in reading order, mean confidence. Paragraphs appear in the
// order their first word appears in the input.
func MergeParagraphs(regions []Region) []Paragraph {
	if len(regions) == 0 {
		return nil
	}

	groups := make(map[string][]Region)
	var order []string
	for _, r := range regions {
		id := r.ParagraphID()
		if _, ok := groups[id]; !ok {
			order = append(order, id)
		}
		groups[id] = append(groups[id], r)
	}

	paragraphs := make([]Paragraph, 0, len(order))
	for _, id := range order {
		words := groups[id]
		sort.SliceStable(words, func(i, j int) bool {
			if words[i].Line != words[j].Line {
				return words[i].Line < words[j].Line
			}
			return words[i].Word < words[j].Word
		})

		p := Paragraph{
			ID:        id,
			X:         words[0].X,
			Y:         words[0].Y,
			WordCount: len(words),
		}
		right, bottom := words[0].X+words[0].W, words[0].Y+words[0].H
		var confSum float64
		for i, w := range words {
			if i > 0 {
				p.Text += " "
			}
			p.Text += w.Text
			if w.X < p.X {
				p.X = w.X
			}
			if w.Y < p.Y {
				p.Y = w.Y
			}
			if w.X+w.W > right {
				right = w.X + w.W
			}
			if w.Y+w.H > bottom {
				bottom = w.Y + w.H
			}
			confSum += w.Conf
		}
		p.W = right - p.X
		p.H = bottom - p.Y
		p.Conf = confSum / float64(len(words))
		paragraphs = append(paragraphs, p)
	}
	return paragraphs
}
