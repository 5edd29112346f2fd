// Package capture provides platform-agnostic screen frame capture
package capture

import (
	"crypto/md5"
	"os"
	"time"
)

// Frame is one captured screen image. Immutable once returned; the sequence
// number is monotonic across the life of the capturer.
type Frame struct {
	Data     []byte
	Seq      uint64
	Captured time.Time
}

// Source captures screen frames with change detection
type Source interface {
	// Capture returns the next frame. The bool is false when the screen has
	// not changed since the previous frame (or capture failed); the returned
	// frame still carries valid Data when available so callers can reuse it.
	Capture() (Frame, bool)
	CaptureAlways() Frame
	Close()
}

// backend implements platform-specific raw capture
type backend interface {
	captureRaw() []byte
	cleanup()
}

// baseSource provides shared hash-based change detection and sequencing
type baseSource struct {
	backend
	lastHash [16]byte
	seq      uint64
	tempDir  string
}

func newBase(b backend, tempDir string) *baseSource {
	return &baseSource{backend: b, tempDir: tempDir}
}

func (c *baseSource) Capture() (Frame, bool) {
	data := c.captureRaw()
	if data == nil {
		return Frame{}, false
	}
	c.seq++
	frame := Frame{Data: data, Seq: c.seq, Captured: time.Now()}

	hash := md5.Sum(data[:min(len(data), 4096)]) // Hash first 4KB for speed
	if hash == c.lastHash {
		return frame, false
	}
	c.lastHash = hash
	return frame, true
}

func (c *baseSource) CaptureAlways() Frame {
	data := c.captureRaw()
	if data == nil {
		return Frame{}
	}
	c.seq++
	c.lastHash = md5.Sum(data[:min(len(data), 4096)])
	return Frame{Data: data, Seq: c.seq, Captured: time.Now()}
}

func (c *baseSource) Close() {
	c.cleanup()
	if c.tempDir != "" {
		os.RemoveAll(c.tempDir)
	}
}
