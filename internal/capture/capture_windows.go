//go:build windows

package capture

import (
	"bytes"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
)

type windowsBackend struct{ tempDir string }

func (w *windowsBackend) captureRaw() []byte {
	tmpFile := filepath.Join(w.tempDir, "frame.png")
	// PowerShell + System.Drawing covers stock Windows without extra tools
	script := `Add-Type -AssemblyName System.Windows.Forms,System.Drawing;` +
		`$b = [System.Windows.Forms.SystemInformation]::VirtualScreen;` +
		`$bmp = New-Object System.Drawing.Bitmap $b.Width, $b.Height;` +
		`$g = [System.Drawing.Graphics]::FromImage($bmp);` +
		`$g.CopyFromScreen($b.Left, $b.Top, 0, 0, $bmp.Size);` +
		`$bmp.Save('` + tmpFile + `');`
	cmd := exec.Command("powershell", "-NoProfile", "-Command", script)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		slog.Error("screen capture failed", "error", err, "stderr", stderr.String())
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

func (w *windowsBackend) cleanup() {}

// New creates a platform-specific frame source
func New() Source {
	tmpDir, err := os.MkdirTemp("", "lingolens-frames-*")
	if err != nil {
		slog.Error("failed to create temp dir", "error", err)
		// Fall back to the shared temp dir for writes; Close only
		// removes directories this source created.
		return newBase(&windowsBackend{tempDir: os.TempDir()}, "")
	}
	return newBase(&windowsBackend{tempDir: tmpDir}, tmpDir)
}
