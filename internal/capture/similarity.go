package capture

import (
	"bytes"
	"image"
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder
	"log/slog"
	"sync"

	"github.com/corona10/goimagehash"
	"github.com/nfnt/resize"
)

// Hashing thresholds. Perception hash Hamming distance <= MaxHashDistance
// means the frames are visually the same and OCR can be skipped.
const (
	MaxHashDistance = 3
	hashWidth       = 256
)

// Differ tracks perceptual hashes of consecutive frames so callers can skip
// OCR when the screen content has not meaningfully changed.
type Differ struct {
	mu       sync.Mutex
	lastHash *goimagehash.ImageHash
}

// NewDiffer creates a frame differ.
func NewDiffer() *Differ {
	return &Differ{}
}

// Changed reports whether the frame differs visually from the previous one.
// Decode or hash failures are treated as changed so OCR still runs.
func (d *Differ) Changed(frame Frame) bool {
	img, _, err := image.Decode(bytes.NewReader(frame.Data))
	if err != nil {
		return true
	}

	// Downscale before hashing; pHash only needs coarse structure
	small := resize.Thumbnail(hashWidth, hashWidth, img, resize.NearestNeighbor)

	hash, err := goimagehash.PerceptionHash(small)
	if err != nil {
		return true
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.lastHash == nil {
		d.lastHash = hash
		return true
	}

	dist, err := d.lastHash.Distance(hash)
	if err != nil {
		d.lastHash = hash
		return true
	}

	if dist <= MaxHashDistance {
		slog.Debug("frame visually unchanged", "distance", dist, "seq", frame.Seq)
		return false
	}

	d.lastHash = hash
	return true
}

// Reset clears the stored hash so the next frame is always treated as changed.
func (d *Differ) Reset() {
	d.mu.Lock()
	d.lastHash = nil
	d.mu.Unlock()
}
