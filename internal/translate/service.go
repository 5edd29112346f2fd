package translate

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	apperrors "github.com/GriffinCanCode/lingolens/internal/errors"
	"github.com/GriffinCanCode/lingolens/internal/resilience"
)

// Translator performs one translation request against an external service.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

type translateRequest struct {
	Text   string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error,omitempty"`
}

// HTTPClient speaks the LibreTranslate-compatible JSON API. A circuit
// breaker sits in front so a dead service fails fast instead of holding
// the worker pool on timeouts.
type HTTPClient struct {
	http    *resty.Client
	url     string
	breaker *resilience.Breaker
}

// NewHTTPClient builds a client for the given endpoint URL.
func NewHTTPClient(url string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		http:    resty.New().SetTimeout(timeout),
		url:     url,
		breaker: resilience.New(resilience.DefaultConfig()),
	}
}

// Translate sends one request and classifies failures by retryability.
func (c *HTTPClient) Translate(ctx context.Context, text, source, target string) (string, error) {
	if err := c.breaker.Allow(); err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeUnavailable, "translation service circuit open")
	}

	var body translateResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(translateRequest{Text: text, Source: source, Target: target, Format: "text"}).
		SetResult(&body).
		SetError(&body).
		Post(c.url)

	if err != nil {
		c.breaker.Failure()
		if errors.Is(err, context.DeadlineExceeded) {
			return "", apperrors.Wrap(err, apperrors.CodeTimeout, "translation request timed out")
		}
		return "", apperrors.Wrap(err, apperrors.CodeUnavailable, "translation request failed")
	}

	if resp.IsError() {
		code := resp.StatusCode()
		switch {
		case code == http.StatusTooManyRequests:
			c.breaker.Failure()
			return "", apperrors.Newf(apperrors.CodeTranslateRateLimited, "translation service rate limited: %s", body.Error)
		case code >= http.StatusInternalServerError:
			c.breaker.Failure()
			return "", apperrors.Newf(apperrors.CodeUnavailable, "translation service error %d: %s", code, body.Error)
		default:
			// A request the service rejects is our bug, not its outage.
			c.breaker.Success()
			return "", apperrors.Newf(apperrors.CodeTranslateBadRequest, "translation request rejected %d: %s", code, body.Error)
		}
	}

	c.breaker.Success()
	if body.TranslatedText == "" {
		return "", apperrors.New(apperrors.CodeTranslateFailed, "translation service returned empty text")
	}
	return body.TranslatedText, nil
}
