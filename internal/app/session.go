// Package app assembles a navigation session from configuration: it picks
// the coordinate precision, wires the renderer to the controller and
// connects the session store.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"path/filepath"
	"sync"

	"github.com/san-kum/fraczoom/internal/config"
	"github.com/san-kum/fraczoom/internal/export"
	"github.com/san-kum/fraczoom/internal/frame"
	"github.com/san-kum/fraczoom/internal/metrics"
	"github.com/san-kum/fraczoom/internal/nav"
	"github.com/san-kum/fraczoom/internal/precision"
	"github.com/san-kum/fraczoom/internal/render"
	"github.com/san-kum/fraczoom/internal/storage"
	"github.com/san-kum/fraczoom/internal/viewport"
)

// Session is one explorer: a controller, its renderer and a session store.
type Session struct {
	Nav     nav.Navigator
	Escape  *render.Escape
	Store   *storage.Store
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *metrics.Recorder

	renderNow func(ctx context.Context) (*frame.Frame, error)
	stop      func()

	mu      sync.Mutex
	onFrame func(*frame.Frame)
}

type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.Recorder
	// Exporter overrides the binfile exporter built from cfg.Export.
	Exporter *export.FrameExporter
}

// New builds a session for cfg. Nothing is rendered until Repaint.
func New(cfg *config.Config, opts Options) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	exporter := export.Custom(export.BinfileHandler(cfg.Export.Compress), cfg.Export.Extensions...)
	if opts.Exporter != nil {
		exporter = *opts.Exporter
	}

	s := &Session{
		Escape:  render.NewEscape(cfg.Render.MaxIter, cfg.Render.Workers),
		Store:   storage.New(filepath.Join(cfg.Export.Dir, "sessions")),
		Config:  cfg,
		Logger:  logger,
		Metrics: opts.Metrics,
	}

	navOpts := nav.Options{
		ZoomSpeed:    cfg.Zoom.Speed,
		Anchor:       nav.AnchorMode(cfg.Zoom.Anchor),
		HistoryLimit: cfg.History.MaxDepth,
		ExportDir:    cfg.Export.Dir,
		ImageScale:   cfg.Canvas.Scale,
		Exporter:     exporter,
		Logger:       logger,
		Metrics:      opts.Metrics,
	}

	var err error
	switch cfg.Precision.Kind {
	case "bigfloat":
		err = wire[*big.Float](s, precision.NewBigFloat(cfg.Precision.Bits), navOpts)
	default:
		err = wire[float64](s, precision.Float64{}, navOpts)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func wire[T any](s *Session, num precision.Number[T], opts nav.Options) error {
	cfg := s.Config
	initial, err := nav.ParseDecimal(num, cfg.View.CenterX, cfg.View.CenterY, cfg.View.HalfSpanX, cfg.View.HalfSpanY)
	if err != nil {
		return fmt.Errorf("initial view: %w", err)
	}
	canvas := viewport.Canvas{Width: cfg.Canvas.Width, Height: cfg.Canvas.Height}

	renderer := render.NewRenderer[T](s.Escape, nil, s.Logger, s.Metrics)
	ctrl, err := nav.New(initial, canvas, renderer, opts)
	if err != nil {
		return err
	}
	renderer.SetSink(func(f *frame.Frame) {
		if ctrl.FrameReady(f) {
			s.notify(f)
		}
	})

	s.Nav = ctrl
	s.stop = renderer.Stop
	s.renderNow = func(ctx context.Context) (*frame.Frame, error) {
		f, err := renderer.Render(ctx, ctrl.Request())
		if err != nil {
			return nil, err
		}
		if !ctrl.FrameReady(f) {
			return nil, fmt.Errorf("frame %d superseded before it was stored", f.Seq)
		}
		return f, nil
	}
	return nil
}

// OnFrame registers the callback run after each accepted frame. It runs on
// a render goroutine.
func (s *Session) OnFrame(fn func(*frame.Frame)) {
	s.mu.Lock()
	s.onFrame = fn
	s.mu.Unlock()
}

func (s *Session) notify(f *frame.Frame) {
	s.mu.Lock()
	fn := s.onFrame
	s.mu.Unlock()
	if fn != nil {
		fn(f)
	}
}

// RenderNow computes the committed viewport synchronously and stores the
// frame in the controller.
func (s *Session) RenderNow(ctx context.Context) (*frame.Frame, error) {
	return s.renderNow(ctx)
}

// SaveSession journals the history into the session store.
func (s *Session) SaveSession(label string) (string, error) {
	c := s.Nav.Canvas()
	id, err := s.Store.Save(storage.SessionMetadata{
		Label:     label,
		Precision: s.Nav.Precision(),
		Width:     c.Width,
		Height:    c.Height,
		MaxIter:   s.Escape.MaxIter,
	}, s.Nav.Journal())
	if err != nil {
		return "", err
	}
	s.Logger.Info("session saved", "id", id, "depth", s.Nav.Depth())
	return id, nil
}

// ResumeSession restores a saved history; "latest" picks the newest.
func (s *Session) ResumeSession(id string) error {
	if id == "latest" {
		latest, err := s.Store.Latest()
		if err != nil {
			return err
		}
		id = latest
	}
	meta, err := s.Store.Load(id)
	if err != nil {
		return err
	}
	if meta.Precision != s.Nav.Precision() {
		return fmt.Errorf("session %s uses %s coordinates, this session uses %s", id, meta.Precision, s.Nav.Precision())
	}
	rows, err := s.Store.LoadHistory(id)
	if err != nil {
		return err
	}
	return s.Nav.Restore(rows)
}

// Close stops in-flight rendering.
func (s *Session) Close() {
	if s.stop != nil {
		s.stop()
	}
}
