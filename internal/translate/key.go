// Package translate provides the caching, deduplicating translation layer
package translate

import "strings"

// Key addresses one translation: normalized source text plus the language
// pair. Equality is value-based so identical on-screen text from different
// cycles maps to the same cache slot.
type Key struct {
	Text   string
	Source string
	Target string
}

// NewKey normalizes text and builds a cache key.
func NewKey(text, source, target string) Key {
	return Key{Text: Normalize(text), Source: source, Target: target}
}

// String renders the key for use with singleflight and external stores.
func (k Key) String() string {
	return k.Text + "|" + k.Source + "|" + k.Target
}

// Normalize lower-cases and collapses all runs of whitespace to single
// spaces. OCR output for the same screen text jitters in spacing between
// frames; normalization keeps those hits on one cache entry.
func Normalize(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}
