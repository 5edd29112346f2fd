//go:build cgo

package ocr

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	apperrors "github.com/GriffinCanCode/lingolens/internal/errors"
)

// EmbeddedEngine uses libtesseract in-process via gosseract. Avoids the
// per-frame process spawn of ExecEngine at the cost of a cgo dependency.
type EmbeddedEngine struct {
	mu     sync.Mutex // gosseract clients are not safe for concurrent use
	client *gosseract.Client
}

// NewEmbeddedEngine initializes a libtesseract client for the given
// language(s). Languages use tesseract's "eng+chi_sim" notation.
func NewEmbeddedEngine(language string) (*EmbeddedEngine, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage(strings.Split(language, "+")...); err != nil {
		client.Close()
		return nil, apperrors.Wrapf(err, apperrors.CodeOCRInitFailed, "libtesseract rejected language %q", language)
	}
	slog.Info("ocr engine ready", "backend", "embedded", "language", language)
	return &EmbeddedEngine{client: client}, nil
}

// Recognize extracts word regions via the verbose bounding-box API.
func (e *EmbeddedEngine) Recognize(ctx context.Context, image []byte) ([]Region, error) {
	if len(image) == 0 {
		return nil, apperrors.New(apperrors.CodeOCRInvalidImage, "empty frame image")
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeCancelled, "recognition cancelled")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.client.SetImageFromBytes(image); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeOCRInvalidImage, "libtesseract rejected frame image")
	}

	boxes, err := e.client.GetBoundingBoxesVerbose()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeOCRFailed, "libtesseract recognition failed")
	}

	regions := make([]Region, 0, len(boxes))
	for _, b := range boxes {
		word := strings.TrimSpace(b.Word)
		if word == "" {
			continue
		}
		regions = append(regions, Region{
			Text:  word,
			Page:  1,
			Block: b.BlockNum,
			Par:   b.ParNum,
			Line:  b.LineNum,
			Word:  b.WordNum,
			X:     b.Box.Min.X,
			Y:     b.Box.Min.Y,
			W:     b.Box.Dx(),
			H:     b.Box.Dy(),
			Conf:  b.Confidence,
		})
	}
	AttachParagraphConfidence(regions)
	return regions, nil
}

// Close releases the libtesseract client.
func (e *EmbeddedEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.client.Close()
}
