//go:build linux

package capture

import (
	"bytes"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
)

type linuxBackend struct{ tempDir string }

func (l *linuxBackend) captureRaw() []byte {
	tmpFile := filepath.Join(l.tempDir, "frame.jpg")
	// Try gnome-screenshot first, fall back to scrot
	var cmd *exec.Cmd
	if _, err := exec.LookPath("gnome-screenshot"); err == nil {
		cmd = exec.Command("gnome-screenshot", "-f", tmpFile)
	} else if _, err := exec.LookPath("scrot"); err == nil {
		cmd = exec.Command("scrot", "-o", tmpFile)
	} else {
		slog.Error("no screenshot tool found (install gnome-screenshot or scrot)")
		return nil
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		slog.Error("screenshot failed", "error", err, "stderr", stderr.String())
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

func (l *linuxBackend) cleanup() {}

// New creates a platform-specific frame source
func New() Source {
	tmpDir, err := os.MkdirTemp("", "lingolens-frames-*")
	if err != nil {
		slog.Error("failed to create temp dir", "error", err)
		// Fall back to the shared temp dir for writes; Close only
		// removes directories this source created.
		return newBase(&linuxBackend{tempDir: os.TempDir()}, "")
	}
	return newBase(&linuxBackend{tempDir: tmpDir}, tmpDir)
}
