package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/GriffinCanCode/lingolens/internal/capture"
	"github.com/GriffinCanCode/lingolens/internal/config"
	"github.com/GriffinCanCode/lingolens/internal/ocr"
	"github.com/GriffinCanCode/lingolens/internal/pipeline"
	"github.com/GriffinCanCode/lingolens/internal/resilience"
	"github.com/GriffinCanCode/lingolens/internal/snapshot"
	"github.com/GriffinCanCode/lingolens/internal/translate"
)

type nopSource struct{}

func (nopSource) Capture() (capture.Frame, bool) { return capture.Frame{}, false }
func (nopSource) CaptureAlways() capture.Frame   { return capture.Frame{} }
func (nopSource) Close()                         {}

type nopEngine struct{}

func (nopEngine) Recognize(ctx context.Context, image []byte) ([]ocr.Region, error) {
	return nil, nil
}
func (nopEngine) Close() error { return nil }

type nopTranslator struct{}

func (nopTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	return text, nil
}

func testServer(t *testing.T) (*Server, *snapshot.Store, *translate.MemoryCache) {
	t.Helper()
	cfg := config.Load()
	cfg.UIUpdateInterval = 10 * time.Millisecond

	cache := translate.NewMemoryCache(time.Hour, 100, time.Minute)
	worker := translate.NewWorker(cache, nopTranslator{}, resilience.DefaultRetryConfig(), "en", "zh-CN", slog.Default())
	store := snapshot.NewStore(16)
	ctrl := pipeline.New(cfg, nopSource{}, nopEngine{}, worker, store)

	return New(ctrl, store, cache, cfg), store, cache
}

func TestCORSMiddleware(t *testing.T) {
	handler := corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("OPTIONS", "/test", http.NoBody)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("OPTIONS status = %d, want %d", rec.Code, http.StatusOK)
	}
	if v := rec.Header().Get("Access-Control-Allow-Origin"); v != "*" {
		t.Errorf("CORS origin = %q, want %q", v, "*")
	}
}

func TestHandleSnapshot(t *testing.T) {
	srv, store, _ := testServer(t)
	store.Publish(snapshot.Snapshot{
		Seq:   5,
		Items: []snapshot.Item{{ID: "1_1_1", Source: "hello", Translated: "你好", State: "done"}},
	})

	req := httptest.NewRequest("GET", "/api/snapshot", http.NoBody)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var snap snapshot.Snapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Seq != 5 || len(snap.Items) != 1 || snap.Items[0].Translated != "你好" {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestHandleStatus(t *testing.T) {
	srv, _, _ := testServer(t)

	req := httptest.NewRequest("GET", "/api/status", http.NoBody)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var st pipeline.Status
	if err := json.NewDecoder(rec.Body).Decode(&st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.SessionID == "" || st.Phase != "stopped" {
		t.Errorf("status = %+v", st)
	}
}

func TestHandleCacheStats(t *testing.T) {
	srv, _, cache := testServer(t)
	cache.Insert(translate.NewKey("hello", "en", "zh-CN"), "你好")
	cache.Lookup(translate.NewKey("hello", "en", "zh-CN"))
	cache.Lookup(translate.NewKey("missing", "en", "zh-CN"))

	req := httptest.NewRequest("GET", "/api/cache/stats", http.NoBody)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var stats translate.Stats
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.Entries != 1 || stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestHandleToggleReturnsStatus(t *testing.T) {
	srv, _, _ := testServer(t)

	req := httptest.NewRequest("POST", "/api/pipeline/toggle", http.NoBody)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var msg StatusMessage
	if err := json.NewDecoder(rec.Body).Decode(&msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Type != "status" || msg.Status.SessionID == "" {
		t.Errorf("message = %+v", msg)
	}
}

func TestMethodRouting(t *testing.T) {
	srv, _, _ := testServer(t)

	// Control endpoints are POST-only
	req := httptest.NewRequest("GET", "/api/pipeline/toggle", http.NoBody)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET toggle status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestWebSocketFeed(t *testing.T) {
	srv, store, _ := testServer(t)
	store.Publish(snapshot.Snapshot{Seq: 1, Items: []snapshot.Item{{ID: "a", Source: "hi", State: "pending"}}})

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	// Initial snapshot arrives immediately
	var msg SnapshotMessage
	if err := wsjson.Read(ctx, conn, &msg); err != nil {
		t.Fatalf("read initial: %v", err)
	}
	if msg.Type != "snapshot" || msg.Snapshot.Seq != 1 {
		t.Errorf("initial message = %+v", msg)
	}

	// Updates are pushed on the UI interval
	store.Publish(snapshot.Snapshot{Seq: 2, Items: []snapshot.Item{{ID: "a", Source: "hi", Translated: "hi", State: "done"}}})
	if err := wsjson.Read(ctx, conn, &msg); err != nil {
		t.Fatalf("read update: %v", err)
	}
	if msg.Snapshot.Seq != 2 || msg.Snapshot.Items[0].State != "done" {
		t.Errorf("update message = %+v", msg)
	}
}
