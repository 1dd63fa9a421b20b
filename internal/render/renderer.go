package render

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/san-kum/fraczoom/internal/frame"
	"github.com/san-kum/fraczoom/internal/metrics"
	"github.com/san-kum/fraczoom/internal/viewport"
)

// Sink receives completed frames. It is called from a worker goroutine.
type Sink func(*frame.Frame)

// Renderer runs repaint requests in the background. A new request cancels
// the one in flight; only completed, uncancelled frames reach the sink.
type Renderer[T any] struct {
	escape  *Escape
	sink    Sink
	logger  *slog.Logger
	metrics *metrics.Recorder

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRenderer[T any](escape *Escape, sink Sink, logger *slog.Logger, rec *metrics.Recorder) *Renderer[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer[T]{escape: escape, sink: sink, logger: logger, metrics: rec}
}

// SetSink replaces the frame destination for later requests.
func (r *Renderer[T]) SetSink(s Sink) {
	r.mu.Lock()
	r.sink = s
	r.mu.Unlock()
}

// Repaint starts computing req and returns immediately.
func (r *Renderer[T]) Repaint(req frame.Request[T]) {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	sink := r.sink
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()

		f, err := r.Render(ctx, req)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				r.logger.Warn("repaint failed", "seq", req.Seq, "error", err)
			}
			return
		}
		if sink != nil {
			sink(f)
		}
	}()
}

// Render computes req synchronously.
func (r *Renderer[T]) Render(ctx context.Context, req frame.Request[T]) (*frame.Frame, error) {
	g, err := viewport.GridOf(req.Canvas, req.Viewport)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	f, err := r.escape.Compute(ctx, req.Seq, req.Canvas, g)
	if err != nil {
		return nil, err
	}
	r.metrics.ObserveRender(time.Since(start))
	r.logger.Debug("frame computed", "seq", req.Seq, "rows", f.Rows, "cols", f.Cols, "elapsed", time.Since(start))
	return f, nil
}

// Stop cancels the request in flight and waits for workers to exit.
func (r *Renderer[T]) Stop() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.mu.Unlock()
	r.wg.Wait()
}
