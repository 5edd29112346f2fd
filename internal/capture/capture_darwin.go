//go:build darwin

package capture

import (
	"bytes"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
)

type darwinBackend struct{ tempDir string }

func (d *darwinBackend) captureRaw() []byte {
	tmpFile := filepath.Join(d.tempDir, "frame.jpg")
	cmd := exec.Command("screencapture", "-x", "-t", "jpg", "-m", tmpFile)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		slog.Error("screencapture failed", "error", err, "stderr", stderr.String())
		return nil
	}
	data, err := os.ReadFile(tmpFile)
	if err != nil {
		slog.Error("failed to read frame", "error", err)
		return nil
	}
	os.Remove(tmpFile)
	return data
}

func (d *darwinBackend) cleanup() {}

// New creates a platform-specific frame source
func New() Source {
	tmpDir, err := os.MkdirTemp("", "lingolens-frames-*")
	if err != nil {
		slog.Error("failed to create temp dir", "error", err)
		// Fall back to the shared temp dir for writes; Close only
		// removes directories this source created.
		return newBase(&darwinBackend{tempDir: os.TempDir()}, "")
	}
	return newBase(&darwinBackend{tempDir: tmpDir}, tmpDir)
}
