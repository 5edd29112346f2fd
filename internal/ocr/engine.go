package ocr

import (
	"context"

	"github.com/GriffinCanCode/lingolens/internal/config"
	apperrors "github.com/GriffinCanCode/lingolens/internal/errors"
)

// Engine recognizes text regions in a captured frame image.
type Engine interface {
	Recognize(ctx context.Context, image []byte) ([]Region, error)
	Close() error
}

// NewEngine builds the configured engine. Engine construction probes the
// backend; a probe failure is a startup error, not a per-frame one.
func NewEngine(cfg *config.Config) (Engine, error) {
	switch cfg.OCREngine {
	case "exec", "":
		return NewExecEngine(cfg.TesseractCmd, cfg.OCRLanguage)
	case "embedded":
		return NewEmbeddedEngine(cfg.OCRLanguage)
	default:
		return nil, apperrors.Newf(apperrors.CodeConfigInvalid, "unknown OCR_ENGINE %q", cfg.OCREngine)
	}
}
