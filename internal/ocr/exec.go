package ocr

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	apperrors "github.com/GriffinCanCode/lingolens/internal/errors"
)

// ExecEngine shells out to the tesseract executable in TSV mode. The image is
// piped over stdin so no temp files are involved.
type ExecEngine struct {
	cmd      string
	language string
}

// NewExecEngine probes the tesseract binary and returns the engine.
func NewExecEngine(cmd, language string) (*ExecEngine, error) {
	out, err := exec.Command(cmd, "--version").CombinedOutput()
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.CodeOCRInitFailed, "tesseract not available at %q", cmd)
	}
	slog.Info("ocr engine ready", "cmd", cmd, "version", firstLine(out), "language", language)
	return &ExecEngine{cmd: cmd, language: language}, nil
}

// Recognize runs tesseract on the frame image and parses word regions from
// its TSV output. Context cancellation kills the process.
func (e *ExecEngine) Recognize(ctx context.Context, image []byte) ([]Region, error) {
	if len(image) == 0 {
		return nil, apperrors.New(apperrors.CodeOCRInvalidImage, "empty frame image")
	}

	cmd := exec.CommandContext(ctx, e.cmd, "stdin", "stdout", "-l", e.language, "--oem", "1", "tsv")
	cmd.Stdin = bytes.NewReader(image)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, apperrors.Wrap(err, apperrors.CodeTimeout, "ocr invocation timed out")
		}
		return nil, apperrors.Wrapf(err, apperrors.CodeOCRFailed, "tesseract failed: %s", strings.TrimSpace(stderr.String()))
	}

	regions, err := ParseTSV(stdout.Bytes())
	if err != nil {
		return nil, err
	}
	AttachParagraphConfidence(regions)
	return regions, nil
}

// Close is a no-op for the exec engine.
func (e *ExecEngine) Close() error { return nil }

// TSV column indexes as emitted by tesseract's tsv config.
const (
	colLevel = iota
	colPageNum
	colBlockNum
	colParNum
	colLineNum
	colWordNum
	colLeft
	colTop
	colWidth
	colHeight
	colConf
	colText
	tsvColumns = colText + 1

	wordLevel = 5
)

// ParseTSV extracts word-level regions from tesseract TSV output. Non-word
// rows (page/block/par/line aggregates) and empty words are dropped.
func ParseTSV(data []byte) ([]Region, error) {
	lines := strings.Split(string(data), "\n")
	if len(lines) == 0 {
		return nil, nil
	}

	var regions []Region
	for i, line := range lines {
		if i == 0 || strings.TrimSpace(line) == "" { // skip header and blanks
			continue
		}
		cols := strings.Split(line, "\t")
		if len(cols) < tsvColumns {
			continue
		}

		level, err := strconv.Atoi(cols[colLevel])
		if err != nil || level != wordLevel {
			continue
		}
		text := strings.TrimSpace(cols[colText])
		if text == "" {
			continue
		}

		conf, err := strconv.ParseFloat(cols[colConf], 64)
		if err != nil || conf < 0 {
			continue
		}

		nums := make([]int, colConf-colPageNum)
		bad := false
		for j := range nums {
			nums[j], err = strconv.Atoi(cols[colPageNum+j])
			if err != nil {
				bad = true
				break
			}
		}
		if bad {
			continue
		}

		regions = append(regions, Region{
			Text:  text,
			Page:  nums[colPageNum-colPageNum],
			Block: nums[colBlockNum-colPageNum],
			Par:   nums[colParNum-colPageNum],
			Line:  nums[colLineNum-colPageNum],
			Word:  nums[colWordNum-colPageNum],
			X:     nums[colLeft-colPageNum],
			Y:     nums[colTop-colPageNum],
			W:     nums[colWidth-colPageNum],
			H:     nums[colHeight-colPageNum],
			Conf:  conf,
		})
	}
	return regions, nil
}

func firstLine(out []byte) string {
	s := strings.TrimSpace(string(out))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
