//go:build !cgo

package ocr

import (
	"context"

	apperrors "github.com/GriffinCanCode/lingolens/internal/errors"
)

// EmbeddedEngine requires cgo (libtesseract via gosseract); this stub keeps
// non-cgo builds compiling and reports the engine as unavailable at startup.
type EmbeddedEngine struct{}

// NewEmbeddedEngine fails: the embedded backend is unavailable without cgo.
func NewEmbeddedEngine(language string) (*EmbeddedEngine, error) {
	return nil, apperrors.New(apperrors.CodeOCRInitFailed, "embedded OCR engine requires a cgo-enabled build")
}

// Recognize is unreachable: NewEmbeddedEngine never returns an engine.
func (e *EmbeddedEngine) Recognize(ctx context.Context, image []byte) ([]Region, error) {
	return nil, apperrors.New(apperrors.CodeOCRInitFailed, "embedded OCR engine requires a cgo-enabled build")
}

// Close is unreachable: NewEmbeddedEngine never returns an engine.
func (e *EmbeddedEngine) Close() error { return nil }
