// Package pipeline coordinates capture, recognition, and translation into
// a periodic overlay refresh loop.
package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/GriffinCanCode/lingolens/internal/capture"
	"github.com/GriffinCanCode/lingolens/internal/config"
	"github.com/GriffinCanCode/lingolens/internal/ocr"
	"github.com/GriffinCanCode/lingolens/internal/snapshot"
	"github.com/GriffinCanCode/lingolens/internal/syncx"
	"github.com/GriffinCanCode/lingolens/internal/trace"
	"github.com/GriffinCanCode/lingolens/internal/translate"
)

// Phase is the controller state.
type Phase int

const (
	Stopped Phase = iota
	Running
	Paused
)

func (p Phase) String() string {
	return [...]string{"stopped", "running", "paused"}[p]
}

type command int

const (
	cmdToggle command = iota
	cmdStop
)

const commandBuffer = 8

// Status is the controller view exposed on the API.
type Status struct {
	SessionID string `json:"sessionId"`
	Phase     string `json:"phase"`
	Cycles    uint64 `json:"cycles"`
	LastSeq   uint64 `json:"lastSeq"`
}

// Controller drives the capture loop: one tick captures a frame, skips
// work when the screen is visually unchanged, and otherwise runs OCR,
// filtering, paragraph merge, translation resolution, and publish.
type Controller struct {
	cfg    *config.Config
	source capture.Source
	differ *capture.Differ
	engine ocr.Engine
	worker *translate.Worker
	store  *snapshot.Store

	sessionID  string
	phase      *syncx.RWGuard[Phase]
	paragraphs *syncx.RWGuard[[]ocr.Paragraph]
	cycles     atomic.Uint64

	cmdCh    chan command
	stopOnce sync.Once
	doneCh   chan struct{}
}

// New wires a controller. Run must be called to start the loop.
func New(cfg *config.Config, source capture.Source, engine ocr.Engine, worker *translate.Worker, store *snapshot.Store) *Controller {
	return &Controller{
		cfg:        cfg,
		source:     source,
		differ:     capture.NewDiffer(),
		engine:     engine,
		worker:     worker,
		store:      store,
		sessionID:  uuid.NewString(),
		phase:      syncx.NewGuard(Stopped),
		paragraphs: syncx.NewGuard[[]ocr.Paragraph](nil),
		cmdCh:      make(chan command, commandBuffer),
		doneCh:     make(chan struct{}),
	}
}

// Start launches the capture loop in its own goroutine.
func (c *Controller) Start(ctx context.Context) {
	c.phase.Set(Running)
	go c.run(ctx)
	trace.Logger(ctx).Info("pipeline started",
		"session", c.sessionID, "fps", c.cfg.OCRFPS, "engine", c.cfg.OCREngine)
}

// Stop shuts the loop down. Safe to call more than once. In-flight
// translations are allowed to finish so their results still land in a
// shared cache.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() {
		select {
		case c.cmdCh <- cmdStop:
		case <-c.doneCh:
		}
	})
}

// Toggle flips between Running and Paused. The transition is applied by
// the loop goroutine; a full command buffer drops the request.
func (c *Controller) Toggle() {
	select {
	case c.cmdCh <- cmdToggle:
	default:
		trace.Logger(context.Background()).Warn("pipeline command buffer full, toggle dropped")
	}
}

// Done closes once the loop has fully shut down.
func (c *Controller) Done() <-chan struct{} {
	return c.doneCh
}

// Status reports the current controller state.
func (c *Controller) Status() Status {
	return Status{
		SessionID: c.sessionID,
		Phase:     c.phase.Get().String(),
		Cycles:    c.cycles.Load(),
		LastSeq:   c.store.Current().Seq,
	}
}

func (c *Controller) run(ctx context.Context) {
	defer close(c.doneCh)
	defer c.shutdown(ctx)

	fps := c.cfg.OCRFPS
	if fps <= 0 {
		fps = 1
	}
	ticker := time.NewTicker(time.Duration(float64(time.Second) / fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-c.cmdCh:
			if cmd == cmdStop {
				return
			}
			c.toggle(ctx)
		case <-ticker.C:
			// Paused cycles still capture and recognize; they publish
			// suppressed snapshots and make no translation calls.
			c.cycle(ctx)
		}
	}
}

func (c *Controller) toggle(ctx context.Context) {
	log := trace.Logger(ctx)
	switch c.phase.Get() {
	case Running:
		c.phase.Set(Paused)
		log.Info("pipeline paused", "session", c.sessionID)
	case Paused:
		c.phase.Set(Running)
		// Force a full re-recognition on the first frame after resume
		c.differ.Reset()
		log.Info("pipeline resumed", "session", c.sessionID)
	}
}

func (c *Controller) shutdown(ctx context.Context) {
	c.phase.Set(Stopped)
	c.worker.Wait()
	c.source.Close()
	if err := c.engine.Close(); err != nil {
		trace.Logger(ctx).Warn("ocr engine close failed", "error", err)
	}
	trace.Logger(ctx).Info("pipeline stopped", "session", c.sessionID, "cycles", c.cycles.Load())
}

// cycle runs one capture-to-publish pass.
func (c *Controller) cycle(ctx context.Context) {
	ctx, span := trace.StartSpan(ctx, "pipeline_cycle")
	defer span.End()
	log := trace.Logger(ctx)
	c.cycles.Add(1)
	paused := c.phase.Get() == Paused

	frame, changed := c.source.Capture()
	if frame.Data == nil {
		log.Debug("frame capture failed, skipping cycle")
		return
	}
	span.SetAttr("seq", frame.Seq)

	if !changed || !c.differ.Changed(frame) {
		c.republish(ctx, frame, paused)
		return
	}

	recCtx, cancel := context.WithTimeout(ctx, c.cfg.OCRTimeout)
	regions, err := c.engine.Recognize(recCtx, frame.Data)
	cancel()
	if err != nil {
		// Transient recognition failure degrades to an empty result; the
		// cycle still publishes so the overlay never shows stale regions.
		log.Warn("ocr failed, publishing degraded snapshot", "seq", frame.Seq, "error", err)
		regions = nil
	}

	ocr.AttachParagraphConfidence(regions)
	kept := ocr.Filter(regions, c.cfg.ConfThreshold, c.cfg.ParConfThreshold)
	paragraphs := ocr.MergeParagraphs(kept)
	c.paragraphs.Set(paragraphs)

	results := c.resolve(ctx, paragraphTexts(paragraphs), paused)
	snap := snapshot.Aggregate(frame.Seq, frame.Captured, paragraphs, results)
	snap.Suppressed = paused
	if c.cfg.DebugMode {
		snap.Words = snapshot.WordsFromRegions(kept)
		log.Debug("cycle published",
			"seq", frame.Seq, "words", len(regions), "kept", len(kept), "paragraphs", len(paragraphs))
	}
	c.store.Publish(snap)
}

// republish handles a visually unchanged frame: the previous paragraphs
// stand, but translations may have completed since, so resolve again
// unless the last snapshot was already fully settled.
func (c *Controller) republish(ctx context.Context, frame capture.Frame, paused bool) {
	prev := c.store.Current()
	if settled(prev) && prev.Suppressed == paused {
		c.store.Publish(snapshot.Reuse(prev, frame.Seq, frame.Captured))
		return
	}

	paragraphs := c.paragraphs.Get()
	results := c.resolve(ctx, paragraphTexts(paragraphs), paused)
	snap := snapshot.Aggregate(frame.Seq, frame.Captured, paragraphs, results)
	snap.Reused = true
	snap.Suppressed = paused
	c.store.Publish(snap)
}

func (c *Controller) resolve(ctx context.Context, texts []string, paused bool) map[string]translate.Result {
	if paused {
		return c.worker.ResolveCached(texts)
	}
	return c.worker.Resolve(ctx, texts)
}

// settled reports whether every item has reached a terminal state.
func settled(snap snapshot.Snapshot) bool {
	for _, item := range snap.Items {
		if item.State == translate.StatePending.String() {
			return false
		}
	}
	return true
}

func paragraphTexts(paragraphs []ocr.Paragraph) []string {
	texts := make([]string, len(paragraphs))
	for i, p := range paragraphs {
		texts[i] = p.Text
	}
	return texts
}
