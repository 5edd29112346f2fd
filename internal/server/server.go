// Package server provides HTTP and WebSocket handlers for the overlay feed
package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/GriffinCanCode/lingolens/internal/config"
	"github.com/GriffinCanCode/lingolens/internal/pipeline"
	"github.com/GriffinCanCode/lingolens/internal/snapshot"
	"github.com/GriffinCanCode/lingolens/internal/trace"
	"github.com/GriffinCanCode/lingolens/internal/translate"
)

// SnapshotMessage wraps a snapshot for the WebSocket feed.
type SnapshotMessage struct {
	Type     string            `json:"type"`
	Snapshot snapshot.Snapshot `json:"snapshot"`
}

// StatusMessage reports controller state changes.
type StatusMessage struct {
	Type   string          `json:"type"`
	Status pipeline.Status `json:"status"`
}

// Server handles the overlay renderer boundary: REST for one-shot reads
// and control, WebSocket for the continuous snapshot feed.
type Server struct {
	ctrl  *pipeline.Controller
	store *snapshot.Store
	cache translate.Cache
	cfg   *config.Config

	mu    sync.RWMutex
	conns map[*websocket.Conn]struct{}
}

// New creates a server over the given pipeline.
func New(ctrl *pipeline.Controller, store *snapshot.Store, cache translate.Cache, cfg *config.Config) *Server {
	return &Server{
		ctrl:  ctrl,
		store: store,
		cache: cache,
		cfg:   cfg,
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/ws", s.handleWebSocket)

	mux.HandleFunc("GET /api/snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/cache/stats", s.handleCacheStats)
	mux.HandleFunc("POST /api/pipeline/toggle", s.handleToggle)
	mux.HandleFunc("POST /api/pipeline/stop", s.handleStop)

	return corsMiddleware(trace.Middleware(mux))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		trace.Logger(r.Context()).Error("websocket accept error", "error", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()

	ctx := r.Context()
	log := trace.Logger(ctx)
	log.Info("overlay client connected", "remote", r.RemoteAddr)

	// Initial state so the overlay renders before the first tick
	if err := wsjson.Write(ctx, conn, SnapshotMessage{Type: "snapshot", Snapshot: s.store.Current()}); err != nil {
		log.Debug("initial snapshot write failed", "error", err)
		return
	}

	// Reader only detects close; the feed is one-directional
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	// Push the latest snapshot at the UI refresh interval. The loop
	// coalesces: a renderer only ever sees the newest state, never a
	// backlog of intermediate frames.
	ticker := time.NewTicker(s.cfg.UIUpdateInterval)
	defer ticker.Stop()

	lastSeq := s.store.Current().Seq
	for {
		select {
		case <-ctx.Done():
			return
		case <-readerDone:
			log.Info("overlay client disconnected", "remote", r.RemoteAddr)
			return
		case <-ticker.C:
			snap := s.store.Current()
			if snap.Seq == lastSeq {
				continue
			}
			lastSeq = snap.Seq
			if err := wsjson.Write(ctx, conn, SnapshotMessage{Type: "snapshot", Snapshot: snap}); err != nil {
				log.Debug("snapshot write failed", "error", err)
				return
			}
		}
	}
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.store.Current())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.ctrl.Status())
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.cache.Stats())
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Toggle()
	trace.Logger(r.Context()).Info("pipeline toggle requested")
	writeJSON(w, StatusMessage{Type: "status", Status: s.ctrl.Status()})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Stop()
	trace.Logger(r.Context()).Info("pipeline stop requested")
	writeJSON(w, StatusMessage{Type: "status", Status: s.ctrl.Status()})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
