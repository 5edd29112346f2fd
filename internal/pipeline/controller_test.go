package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/GriffinCanCode/lingolens/internal/capture"
	"github.com/GriffinCanCode/lingolens/internal/config"
	apperrors "github.com/GriffinCanCode/lingolens/internal/errors"
	"github.com/GriffinCanCode/lingolens/internal/ocr"
	"github.com/GriffinCanCode/lingolens/internal/resilience"
	"github.com/GriffinCanCode/lingolens/internal/snapshot"
	"github.com/GriffinCanCode/lingolens/internal/translate"
)

// stubSource serves scripted frames, repeating the last one.
type stubSource struct {
	mu     sync.Mutex
	data   []byte
	change bool
	seq    uint64
	closed bool
}

func (s *stubSource) Capture() (capture.Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return capture.Frame{Data: s.data, Seq: s.seq, Captured: time.Now()}, s.change
}

func (s *stubSource) CaptureAlways() capture.Frame {
	f, _ := s.Capture()
	return f
}

func (s *stubSource) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *stubSource) setChanged(v bool) {
	s.mu.Lock()
	s.change = v
	s.mu.Unlock()
}

func (s *stubSource) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// stubEngine returns fixed regions and counts calls.
type stubEngine struct {
	mu      sync.Mutex
	regions []ocr.Region
	calls   int
	closed  bool
}

func (e *stubEngine) Recognize(ctx context.Context, image []byte) ([]ocr.Region, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	out := make([]ocr.Region, len(e.regions))
	copy(out, e.regions)
	return out, nil
}

func (e *stubEngine) Close() error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	return nil
}

func (e *stubEngine) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// failEngine errors on every frame.
type failEngine struct{}

func (failEngine) Recognize(ctx context.Context, image []byte) ([]ocr.Region, error) {
	return nil, apperrors.New(apperrors.CodeOCRFailed, "recognition broke")
}

func (failEngine) Close() error { return nil }

type echoTranslator struct{}

func (echoTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	return "<" + text + ">", nil
}

func testController(t *testing.T, src capture.Source, eng ocr.Engine) (*Controller, *snapshot.Store) {
	t.Helper()
	cfg := config.Load()
	cfg.OCRFPS = 100
	cfg.ConfThreshold = 50
	cfg.ParConfThreshold = 50

	cache := translate.NewMemoryCache(time.Hour, 100, time.Minute)
	retry := resilience.RetryConfig{MaxRetries: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, JitterFactor: 0.01}
	worker := translate.NewWorker(cache, echoTranslator{}, retry, "en", "zh-CN", slog.Default())
	store := snapshot.NewStore(64)

	return New(cfg, src, eng, worker, store), store
}

func waitForDone(t *testing.T, store *snapshot.Store) snapshot.Snapshot {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap := <-store.Events():
			if len(snap.Items) > 0 && snap.Items[0].State == "done" {
				return snap
			}
		case <-deadline:
			t.Fatal("timed out waiting for a settled snapshot")
		}
	}
}

func TestControllerPublishesTranslatedSnapshot(t *testing.T) {
	src := &stubSource{data: []byte("frame"), change: true}
	eng := &stubEngine{regions: []ocr.Region{
		{Text: "hello", Page: 1, Block: 1, Par: 1, Line: 1, Word: 1, X: 10, Y: 20, W: 50, H: 15, Conf: 90},
		{Text: "world", Page: 1, Block: 1, Par: 1, Line: 1, Word: 2, X: 70, Y: 20, W: 60, H: 15, Conf: 88},
	}}
	c, store := testController(t, src, eng)

	c.Start(context.Background())
	defer func() { c.Stop(); <-c.Done() }()

	snap := waitForDone(t, store)
	if len(snap.Items) != 1 {
		t.Fatalf("items = %d, want 1 merged paragraph", len(snap.Items))
	}
	it := snap.Items[0]
	if it.Source != "hello world" || it.Translated != "<hello world>" {
		t.Errorf("item = %+v", it)
	}
}

func TestControllerFiltersLowConfidence(t *testing.T) {
	src := &stubSource{data: []byte("frame"), change: true}
	eng := &stubEngine{regions: []ocr.Region{
		{Text: "good", Page: 1, Block: 1, Par: 1, Line: 1, Word: 1, Conf: 90},
		{Text: "junk", Page: 1, Block: 2, Par: 1, Line: 1, Word: 1, Conf: 10},
	}}
	c, store := testController(t, src, eng)

	c.Start(context.Background())
	defer func() { c.Stop(); <-c.Done() }()

	snap := waitForDone(t, store)
	for _, it := range snap.Items {
		if it.Source == "junk" {
			t.Error("low-confidence region leaked into snapshot")
		}
	}
}

func TestControllerSkipsOCRWhenUnchanged(t *testing.T) {
	src := &stubSource{data: []byte("frame"), change: true}
	eng := &stubEngine{regions: []ocr.Region{
		{Text: "static", Page: 1, Block: 1, Par: 1, Line: 1, Word: 1, Conf: 90},
	}}
	c, store := testController(t, src, eng)

	c.Start(context.Background())
	defer func() { c.Stop(); <-c.Done() }()

	waitForDone(t, store)
	src.setChanged(false)
	calls := eng.callCount()

	// Unchanged frames keep publishing reused snapshots without OCR
	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap := <-store.Events():
			if snap.Reused {
				if got := eng.callCount(); got > calls+1 {
					t.Errorf("ocr ran %d more times on unchanged frames", got-calls)
				}
				return
			}
		case <-deadline:
			t.Fatal("no reused snapshot observed")
		}
	}
}

func TestControllerPublishesDegradedSnapshotOnOCRFailure(t *testing.T) {
	src := &stubSource{data: []byte("frame"), change: true}
	c, store := testController(t, src, failEngine{})

	c.Start(context.Background())
	defer func() { c.Stop(); <-c.Done() }()

	// Failed recognition still publishes, with no regions, so the overlay
	// clears instead of holding stale state
	snap := waitForSnapshot(t, store, func(s snapshot.Snapshot) bool { return !s.Reused })
	if len(snap.Items) != 0 {
		t.Errorf("degraded snapshot has %d items, want 0", len(snap.Items))
	}
	if snap.Seq == 0 {
		t.Error("degraded snapshot should carry the frame sequence")
	}

	// Sequence keeps advancing across failing cycles
	next := waitForSnapshot(t, store, func(s snapshot.Snapshot) bool { return s.Seq > snap.Seq })
	if len(next.Items) != 0 {
		t.Errorf("later degraded snapshot has %d items, want 0", len(next.Items))
	}
}

func TestControllerToggle(t *testing.T) {
	src := &stubSource{data: []byte("frame"), change: true}
	eng := &stubEngine{regions: []ocr.Region{
		{Text: "text", Page: 1, Block: 1, Par: 1, Line: 1, Word: 1, Conf: 90},
	}}
	c, store := testController(t, src, eng)

	c.Start(context.Background())
	defer func() { c.Stop(); <-c.Done() }()
	waitForDone(t, store)

	c.Toggle()
	waitForPhase(t, c, "paused")

	// Paused cycles keep publishing, but suppressed and served from cache
	waitForSnapshot(t, store, func(s snapshot.Snapshot) bool { return s.Suppressed })

	c.Toggle()
	waitForPhase(t, c, "running")
	waitForSnapshot(t, store, func(s snapshot.Snapshot) bool { return !s.Suppressed })
}

func TestControllerPausedMakesNoServiceCalls(t *testing.T) {
	src := &stubSource{data: []byte("frame"), change: true}
	eng := &stubEngine{regions: []ocr.Region{
		{Text: "cached", Page: 1, Block: 1, Par: 1, Line: 1, Word: 1, Conf: 90},
	}}
	c, store := testController(t, src, eng)

	c.Start(context.Background())
	defer func() { c.Stop(); <-c.Done() }()
	waitForDone(t, store)

	c.Toggle()
	waitForPhase(t, c, "paused")

	// Swap in text the cache has never seen; paused resolution must leave
	// it pending rather than calling the translator
	eng.mu.Lock()
	eng.regions = []ocr.Region{{Text: "fresh", Page: 1, Block: 1, Par: 1, Line: 1, Word: 1, Conf: 90}}
	eng.mu.Unlock()

	snap := waitForSnapshot(t, store, func(s snapshot.Snapshot) bool {
		return s.Suppressed && len(s.Items) == 1 && s.Items[0].Source == "fresh"
	})
	if snap.Items[0].State != "pending" {
		t.Errorf("paused item state = %q, want pending", snap.Items[0].State)
	}
}

func TestControllerStop(t *testing.T) {
	src := &stubSource{data: []byte("frame"), change: true}
	eng := &stubEngine{regions: []ocr.Region{
		{Text: "bye", Page: 1, Block: 1, Par: 1, Line: 1, Word: 1, Conf: 90},
	}}
	c, _ := testController(t, src, eng)

	c.Start(context.Background())
	c.Stop()
	c.Stop() // idempotent

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("controller did not stop")
	}

	if !src.isClosed() {
		t.Error("source not closed on stop")
	}
	if c.Status().Phase != "stopped" {
		t.Errorf("phase = %s, want stopped", c.Status().Phase)
	}
}

func TestControllerStatus(t *testing.T) {
	src := &stubSource{data: []byte("frame"), change: true}
	eng := &stubEngine{}
	c, _ := testController(t, src, eng)

	st := c.Status()
	if st.SessionID == "" {
		t.Error("missing session id")
	}
	if st.Phase != "stopped" {
		t.Errorf("phase before start = %s, want stopped", st.Phase)
	}
}

func waitForPhase(t *testing.T, c *Controller, phase string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.Status().Phase == phase {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("phase never reached %s, at %s", phase, c.Status().Phase)
}

func waitForSnapshot(t *testing.T, store *snapshot.Store, match func(snapshot.Snapshot) bool) snapshot.Snapshot {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap := <-store.Events():
			if match(snap) {
				return snap
			}
		case <-deadline:
			t.Fatal("timed out waiting for matching snapshot")
			return snapshot.Snapshot{}
		}
	}
}
