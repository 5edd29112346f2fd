package translate

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/GriffinCanCode/lingolens/internal/resilience"
)

// Worker resolves batches of source texts against the cache and schedules
// misses for asynchronous fetching. Resolve never blocks on the network:
// a miss comes back as Pending and completes into the cache for a later
// cycle to pick up.
type Worker struct {
	cache   Cache
	service Translator
	retry   resilience.RetryConfig
	log     *slog.Logger

	source string
	target string

	group singleflight.Group
	wg    sync.WaitGroup
}

// NewWorker wires a worker to its cache and service client.
func NewWorker(cache Cache, service Translator, retry resilience.RetryConfig, source, target string, log *slog.Logger) *Worker {
	return &Worker{
		cache:   cache,
		service: service,
		retry:   retry,
		log:     log,
		source:  source,
		target:  target,
	}
}

// Resolve maps each distinct input text to its current Result. Texts in
// cool-down report Failed without touching the service; cache misses are
// dispatched at most once per key regardless of how many cycles ask
// before the fetch completes.
func (w *Worker) Resolve(ctx context.Context, texts []string) map[string]Result {
	return w.resolve(ctx, texts, true)
}

// ResolveCached answers from the cache alone, never dispatching fetches.
// Used while the pipeline is paused: existing translations still render
// on resume, but no service traffic is generated.
func (w *Worker) ResolveCached(texts []string) map[string]Result {
	return w.resolve(context.Background(), texts, false)
}

func (w *Worker) resolve(ctx context.Context, texts []string, dispatch bool) map[string]Result {
	results := make(map[string]Result, len(texts))
	for _, text := range texts {
		if _, seen := results[text]; seen {
			continue
		}
		key := NewKey(text, w.source, w.target)
		if key.Text == "" {
			results[text] = Done(text)
			continue
		}
		if translated, ok := w.cache.Lookup(key); ok {
			results[text] = Done(translated)
			continue
		}
		if w.cache.InCooldown(key) {
			results[text] = Failed()
			continue
		}
		if dispatch && ctx.Err() == nil {
			w.dispatch(key)
		}
		results[text] = Pending()
	}
	return results
}

// Wait blocks until all in-flight fetches have completed. Called during
// shutdown so finished translations still land in a shared cache.
func (w *Worker) Wait() {
	w.wg.Wait()
}

// dispatch starts a background fetch for key. singleflight collapses
// concurrent dispatches of the same key into one service call.
func (w *Worker) dispatch(key Key) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		_, _, _ = w.group.Do(key.String(), func() (interface{}, error) {
			return nil, w.fetch(key)
		})
	}()
}

// fetch runs the retry loop for one key. It deliberately uses a fresh
// context: stopping the pipeline must not abort fetches that are about
// to populate the cache.
func (w *Worker) fetch(key Key) error {
	cfg := w.retry
	cfg.OnRetry = func(attempt int, err error) {
		count := w.cache.RecordFailure(key)
		w.log.Debug("translation attempt failed",
			"text", key.Text, "attempt", attempt, "failures", count, "error", err)
	}

	var translated string
	err := resilience.Retry(context.Background(), cfg, func() error {
		var err error
		translated, err = w.service.Translate(context.Background(), key.Text, key.Source, key.Target)
		return err
	})
	if err != nil {
		w.cache.RecordFailure(key)
		w.cache.StartCooldown(key)
		w.log.Warn("translation failed, cooling down",
			"text", key.Text, "source", key.Source, "target", key.Target, "error", err)
		return err
	}

	w.cache.Insert(key, translated)
	w.log.Debug("translation cached", "text", key.Text, "target", key.Target)
	return nil
}
