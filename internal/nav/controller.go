// Package nav turns user intents into viewport commits. The Controller owns
// the zoom history, validates every text input before touching state and
// signals the renderer after each successful mutation.
package nav

import (
	"fmt"
	"image"
	"log/slog"
	"math"
	"path/filepath"
	"sync"

	"github.com/san-kum/fraczoom/internal/codec"
	"github.com/san-kum/fraczoom/internal/export"
	"github.com/san-kum/fraczoom/internal/frame"
	"github.com/san-kum/fraczoom/internal/history"
	"github.com/san-kum/fraczoom/internal/metrics"
	"github.com/san-kum/fraczoom/internal/precision"
	"github.com/san-kum/fraczoom/internal/viewport"
)

// DefaultZoomSpeed is the span multiplier applied per scroll tick.
const DefaultZoomSpeed = 2.0

// Repainter is the external recompute collaborator. Repaint must not block;
// the controller never waits for the result.
type Repainter[T any] interface {
	Repaint(req frame.Request[T])
}

type RepaintFunc[T any] func(req frame.Request[T])

func (f RepaintFunc[T]) Repaint(req frame.Request[T]) { f(req) }

// AnchorMode selects how a zoom treats the pixel under the cursor.
type AnchorMode string

const (
	// AnchorFixed keeps the anchor's world point under the same pixel.
	AnchorFixed AnchorMode = "fixed"
	// AnchorRecenter moves the anchor's world point to the center.
	AnchorRecenter AnchorMode = "recenter"
)

func ParseAnchorMode(s string) (AnchorMode, error) {
	switch AnchorMode(s) {
	case "", AnchorFixed:
		return AnchorFixed, nil
	case AnchorRecenter:
		return AnchorRecenter, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAnchor, s)
}

type Gesture int

const (
	Idle Gesture = iota
	Panning
)

func (g Gesture) String() string {
	if g == Panning {
		return "panning"
	}
	return "idle"
}

// Options carries the settings that would otherwise be process globals.
type Options struct {
	// ZoomSpeed > 1 is the factor per scroll tick; 0 selects DefaultZoomSpeed.
	ZoomSpeed    float64
	Anchor       AnchorMode
	HistoryLimit int
	ExportDir    string
	ImageScale   int
	Exporter     export.FrameExporter
	Logger       *slog.Logger
	Metrics      *metrics.Recorder
}

// Controller is safe for use from several goroutines; every mutation is
// applied under one lock and repaint requests are issued after it is
// released, in ticket order.
type Controller[T any] struct {
	mu sync.Mutex

	// dispatchMu orders repaint delivery; dispatched is the newest ticket
	// handed to the repainter.
	dispatchMu sync.Mutex
	dispatched uint64

	num       precision.Number[T]
	bin       viewport.CenterBinary[T]
	codec     *codec.Codec[viewport.Point[T]]
	history   *history.History[T]
	canvas    viewport.Canvas
	repainter Repainter[T]

	speed      float64
	anchor     AnchorMode
	exportDir  string
	imageScale int
	exporter   export.FrameExporter
	logger     *slog.Logger
	metrics    *metrics.Recorder

	ticket    uint64
	gesture   Gesture
	dragStart image.Point
	dragDelta image.Point
	pointer   *image.Point
	frame     *frame.Frame
	notice    string
}

func New[T any](initial viewport.Viewport[T], canvas viewport.Canvas, repainter Repainter[T], opts Options) (*Controller[T], error) {
	if err := canvas.Validate(); err != nil {
		return nil, err
	}
	speed := opts.ZoomSpeed
	if speed == 0 {
		speed = DefaultZoomSpeed
	}
	if !validSpeed(speed) {
		return nil, &FactorError{Factor: speed}
	}
	anchor, err := ParseAnchorMode(string(opts.Anchor))
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	num := initial.Number()
	bin := viewport.CenterBinary[T]{Num: num}
	c := &Controller[T]{
		num:        num,
		bin:        bin,
		codec:      codec.New[viewport.Point[T]](bin),
		history:    history.New(initial, opts.HistoryLimit),
		canvas:     canvas,
		repainter:  repainter,
		speed:      speed,
		anchor:     anchor,
		exportDir:  opts.ExportDir,
		imageScale: opts.ImageScale,
		exporter:   opts.Exporter,
		logger:     logger.With("precision", num.Name()),
		metrics:    opts.Metrics,
	}
	c.metrics.HistoryDepth(c.history.Len())
	return c, nil
}

func validSpeed(s float64) bool {
	return s > 1 && !math.IsInf(s, 0) && !math.IsNaN(s)
}

func validFactor(f float64) bool {
	return f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}

// Viewport returns the committed viewport, the top of the history.
func (c *Controller[T]) Viewport() viewport.Viewport[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.Top().Viewport
}

func (c *Controller[T]) Entries() []history.Entry[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.Entries()
}

func (c *Controller[T]) Precision() string { return c.num.Name() }

func (c *Controller[T]) Canvas() viewport.Canvas {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canvas
}

// Resize adopts a new canvas and repaints. The viewport is unchanged.
func (c *Controller[T]) Resize(canvas viewport.Canvas) error {
	c.mu.Lock()
	if err := canvas.Validate(); err != nil {
		err = c.failLocked("resize", err)
		c.mu.Unlock()
		return err
	}
	c.canvas = canvas
	req := c.requestLocked()
	c.mu.Unlock()

	c.fire(req)
	return nil
}

func (c *Controller[T]) ZoomSpeed() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speed
}

func (c *Controller[T]) SetZoomSpeed(s float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !validSpeed(s) {
		return c.failLocked("speed", &FactorError{Factor: s})
	}
	c.speed = s
	return nil
}

// Zoom multiplies both half-spans by factor: factor > 1 zooms out and
// factor < 1 zooms in. In AnchorFixed mode the world point under anchor
// stays under anchor; in AnchorRecenter mode it becomes the new center.
func (c *Controller[T]) Zoom(factor float64, anchor image.Point) error {
	c.mu.Lock()
	if c.gesture == Panning {
		err := c.failLocked("zoom", ErrGestureActive)
		c.mu.Unlock()
		return err
	}
	if !validFactor(factor) {
		err := c.failLocked("zoom", &FactorError{Factor: factor})
		c.mu.Unlock()
		return err
	}

	next, err := c.zoomed(c.history.Top().Viewport, factor, anchor)
	if err != nil {
		err = c.failLocked("zoom", err)
		c.mu.Unlock()
		return err
	}
	req := c.commitLocked("zoom", next)
	c.mu.Unlock()

	c.fire(req)
	return nil
}

func (c *Controller[T]) zoomed(old viewport.Viewport[T], factor float64, anchor image.Point) (viewport.Viewport[T], error) {
	world, err := viewport.PixelToWorld(anchor.X, anchor.Y, c.canvas, old)
	if err != nil {
		return old, err
	}
	scaled, err := old.Scale(factor)
	if err != nil {
		return old, err
	}
	if c.anchor == AnchorRecenter {
		return scaled.Recenter(world)
	}

	// world = center - half + (a/size)*2*half, solved for center
	n := c.num
	half := scaled.HalfSpan()
	fx := 2*float64(anchor.X)/float64(c.canvas.Width) - 1
	fy := 2*float64(anchor.Y)/float64(c.canvas.Height) - 1
	center := viewport.Point[T]{
		X: n.Sub(world.X, n.MulFloat(half.X, fx)),
		Y: n.Sub(world.Y, n.MulFloat(half.Y, fy)),
	}
	return scaled.Recenter(center)
}

// Scroll applies one zoom per wheel tick. Positive ticks (wheel up) zoom
// in by the zoom speed, negative ticks zoom out.
func (c *Controller[T]) Scroll(ticks int, anchor image.Point) error {
	if ticks == 0 {
		return nil
	}
	return c.Zoom(math.Pow(c.ZoomSpeed(), -float64(ticks)), anchor)
}

// Pan moves the content by delta pixels, so the center moves the opposite
// way. A zero delta commits nothing.
func (c *Controller[T]) Pan(delta image.Point) error {
	c.mu.Lock()
	req, ok, err := c.panLocked(delta)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	if ok {
		c.fire(req)
	}
	return nil
}

func (c *Controller[T]) panLocked(delta image.Point) (frame.Request[T], bool, error) {
	if delta == (image.Point{}) {
		return frame.Request[T]{}, false, nil
	}
	old := c.history.Top().Viewport
	shift, err := viewport.PixelDelta(delta.X, delta.Y, c.canvas, old)
	if err != nil {
		return frame.Request[T]{}, false, c.failLocked("pan", err)
	}
	center := old.Center()
	next, err := old.Recenter(viewport.Point[T]{
		X: c.num.Sub(center.X, shift.X),
		Y: c.num.Sub(center.Y, shift.Y),
	})
	if err != nil {
		return frame.Request[T]{}, false, c.failLocked("pan", err)
	}
	return c.commitLocked("pan", next), true, nil
}

func (c *Controller[T]) BeginPan(p image.Point) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gesture == Panning {
		return c.failLocked("pan", ErrGestureActive)
	}
	c.gesture = Panning
	c.dragStart = p
	c.dragDelta = image.Point{}
	c.trackLocked(p)
	return nil
}

// DragTo records the uncommitted displacement of the current drag and
// returns it. Outside a drag it only tracks the mouse.
func (c *Controller[T]) DragTo(p image.Point) image.Point {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trackLocked(p)
	if c.gesture != Panning {
		return image.Point{}
	}
	c.dragDelta = p.Sub(c.dragStart)
	return c.dragDelta
}

// EndPan commits the drag from BeginPan to p as a single pan.
func (c *Controller[T]) EndPan(p image.Point) error {
	c.mu.Lock()
	if c.gesture != Panning {
		err := c.failLocked("pan", ErrNoGesture)
		c.mu.Unlock()
		return err
	}
	c.gesture = Idle
	delta := p.Sub(c.dragStart)
	c.dragDelta = image.Point{}
	req, ok, err := c.panLocked(delta)
	if err == nil {
		c.trackLocked(p)
	}
	c.mu.Unlock()

	if err != nil {
		return err
	}
	if ok {
		c.fire(req)
	}
	return nil
}

func (c *Controller[T]) CancelPan() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gesture = Idle
	c.dragDelta = image.Point{}
}

func (c *Controller[T]) Gesture() Gesture {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gesture
}

// DragDelta is the uncommitted displacement, for previews.
func (c *Controller[T]) DragDelta() image.Point {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dragDelta
}

// MouseMove updates the pointer pixel behind the status line's mouse
// coordinate.
func (c *Controller[T]) MouseMove(p image.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trackLocked(p)
}

// Mouse is the world point under the last pointer pixel, projected through
// the committed viewport so it follows every pan, zoom and revert.
func (c *Controller[T]) Mouse() (viewport.Point[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mouseLocked()
}

func (c *Controller[T]) mouseLocked() (viewport.Point[T], bool) {
	if c.pointer == nil {
		return viewport.Point[T]{}, false
	}
	w, err := viewport.PixelToWorld(c.pointer.X, c.pointer.Y, c.canvas, c.history.Top().Viewport)
	if err != nil {
		return viewport.Point[T]{}, false
	}
	return w, true
}

func (c *Controller[T]) trackLocked(p image.Point) {
	c.pointer = &p
}

// CommitText applies the three text fields atomically: the center hex and
// both spans must all parse before anything changes. Committing the current
// values again pushes nothing but still repaints.
func (c *Controller[T]) CommitText(centerHex, spanX, spanY string) error {
	next, err := c.parseFields(centerHex, spanX, spanY)

	c.mu.Lock()
	if err != nil {
		err = c.failLocked("commit", err)
		c.mu.Unlock()
		return err
	}
	req := c.commitLocked("commit", next)
	c.mu.Unlock()

	c.fire(req)
	return nil
}

func (c *Controller[T]) parseFields(centerHex, spanX, spanY string) (viewport.Viewport[T], error) {
	center, err := c.codec.Decode(centerHex)
	if err != nil {
		return viewport.Viewport[T]{}, err
	}
	half, err := viewport.ParseSpanText(c.num, spanX, spanY)
	if err != nil {
		return viewport.Viewport[T]{}, err
	}
	return viewport.FromCenterSpan(c.num, center, half)
}

// CommitDecimal is CommitText with a decimal center, as used by presets
// and the configuration file.
func (c *Controller[T]) CommitDecimal(centerX, centerY, spanX, spanY string) error {
	next, err := ParseDecimal(c.num, centerX, centerY, spanX, spanY)

	c.mu.Lock()
	if err != nil {
		err = c.failLocked("commit", err)
		c.mu.Unlock()
		return err
	}
	req := c.commitLocked("commit", next)
	c.mu.Unlock()

	c.fire(req)
	return nil
}

// ParseDecimal builds a viewport from four decimal strings.
func ParseDecimal[T any](num precision.Number[T], centerX, centerY, spanX, spanY string) (viewport.Viewport[T], error) {
	cx, err := num.Parse(centerX)
	if err != nil {
		return viewport.Viewport[T]{}, fmt.Errorf("center x %q: %w", centerX, err)
	}
	cy, err := num.Parse(centerY)
	if err != nil {
		return viewport.Viewport[T]{}, fmt.Errorf("center y %q: %w", centerY, err)
	}
	half, err := viewport.ParseSpanText(num, spanX, spanY)
	if err != nil {
		return viewport.Viewport[T]{}, err
	}
	return viewport.FromCenterSpan(num, viewport.Point[T]{X: cx, Y: cy}, half)
}

// Revert returns to the previous committed viewport. With only the initial
// view left it reports ErrHistoryEmpty and changes nothing.
func (c *Controller[T]) Revert() error {
	c.mu.Lock()
	if c.gesture == Panning {
		err := c.failLocked("revert", ErrGestureActive)
		c.mu.Unlock()
		return err
	}
	top, err := c.history.Pop()
	if err != nil {
		c.notice = "already at the initial view"
		c.logger.Warn("revert rejected", "error", err)
		c.metrics.Error("revert")
		c.mu.Unlock()
		return err
	}
	c.metrics.Operation("revert")
	c.metrics.HistoryDepth(c.history.Len())
	c.notice = ""
	c.logger.Debug("reverted", "seq", top.Seq, "viewport", top.Viewport.String())
	req := c.requestLocked()
	c.mu.Unlock()

	c.fire(req)
	return nil
}

// Reset discards the history and starts over from v.
func (c *Controller[T]) Reset(v viewport.Viewport[T]) {
	c.mu.Lock()
	c.history.Reset(v)
	c.gesture = Idle
	c.metrics.Operation("reset")
	c.metrics.HistoryDepth(c.history.Len())
	req := c.requestLocked()
	c.mu.Unlock()

	c.fire(req)
}

// Request issues a ticket for the committed viewport without sending it to
// the repainter, for callers that compute the frame themselves and hand it
// back through FrameReady.
func (c *Controller[T]) Request() frame.Request[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requestLocked()
}

// Repaint asks for the committed viewport to be recomputed.
func (c *Controller[T]) Repaint() {
	c.mu.Lock()
	req := c.requestLocked()
	c.mu.Unlock()
	c.fire(req)
}

// FrameReady stores a completed frame. Frames from requests older than the
// newest stored one are dropped and false is returned.
func (c *Controller[T]) FrameReady(f *frame.Frame) bool {
	if f == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frame != nil && f.Seq < c.frame.Seq {
		c.logger.Debug("stale frame dropped", "seq", f.Seq, "current", c.frame.Seq)
		return false
	}
	c.frame = f
	return true
}

func (c *Controller[T]) Frame() *frame.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame
}

// Current reports whether the stored frame answers the latest repaint.
func (c *Controller[T]) Current() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame != nil && c.frame.Seq == c.ticket
}

func (c *Controller[T]) CanExportFrame() bool { return c.exporter.Supported() }

func (c *Controller[T]) CanSaveImage() bool { return c.Frame().HasImage() }

// ExportFrame hands the latest frame to the custom exporter and returns the
// path written. An empty path picks one in the export directory.
func (c *Controller[T]) ExportFrame(path string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.exporter.Supported() {
		return "", c.failLocked("export", &export.UnsupportedError{})
	}
	if c.frame == nil {
		return "", c.failLocked("export", export.ErrNoDataToExport)
	}
	if path == "" {
		path = c.exporter.DefaultPath(c.exportDir, fmt.Sprintf("fraczoom-%d", c.frame.Seq))
	}
	if err := c.exporter.Export(c.exportRequestLocked(path)); err != nil {
		return path, c.failLocked("export", err)
	}
	c.metrics.Operation("export")
	c.notice = "exported frame to " + path
	c.logger.Info("frame exported", "path", path)
	return path, nil
}

// SaveImage writes the latest raster and returns the path written.
func (c *Controller[T]) SaveImage(path string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.frame.HasImage() {
		return "", c.failLocked("save_image", export.ErrNoDataToExport)
	}
	if path == "" {
		path = filepath.Join(c.exportDir, fmt.Sprintf("fraczoom-%d.png", c.frame.Seq))
	}
	if err := export.SaveImage(c.exportRequestLocked(path), c.imageScale); err != nil {
		return path, c.failLocked("save_image", err)
	}
	c.metrics.Operation("save_image")
	c.notice = "saved image to " + path
	c.logger.Info("image saved", "path", path)
	return path, nil
}

func (c *Controller[T]) exportRequestLocked(path string) export.Request {
	return export.Request{Path: path, Frame: c.frame, Meta: c.metaLocked()}
}

// Meta describes the committed viewport in precision-free form.
func (c *Controller[T]) Meta() export.Meta {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.metaLocked()
}

func (c *Controller[T]) metaLocked() export.Meta {
	v := c.history.Top().Viewport
	raw := make([]byte, c.bin.Width())
	c.bin.Marshal(raw, v.Center())
	half := v.HalfSpan()
	return export.Meta{
		Precision: c.num.Name(),
		CenterHex: c.codec.Encode(v.Center()),
		Center:    raw,
		HalfSpanX: c.num.Format(half.X),
		HalfSpanY: c.num.Format(half.Y),
	}
}

// commitLocked pushes next unless it equals the top, and returns the
// repaint request for the committed viewport.
func (c *Controller[T]) commitLocked(op string, next viewport.Viewport[T]) frame.Request[T] {
	top := c.history.Top()
	if !next.Equal(top.Viewport) {
		e := c.history.Push(next)
		c.metrics.Operation(op)
		c.metrics.HistoryDepth(c.history.Len())
		c.logger.Debug("viewport committed", "op", op, "seq", e.Seq, "viewport", next.String())
	}
	c.notice = ""
	return c.requestLocked()
}

func (c *Controller[T]) requestLocked() frame.Request[T] {
	c.ticket++
	top := c.history.Top()
	return frame.Request[T]{Seq: c.ticket, Entry: top.Seq, Viewport: top.Viewport, Canvas: c.canvas}
}

// fire hands req to the repainter unless a newer ticket already went out;
// the newer request carries the newer viewport.
func (c *Controller[T]) fire(req frame.Request[T]) {
	if c.repainter == nil {
		return
	}
	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()
	if req.Seq <= c.dispatched {
		c.logger.Debug("superseded repaint skipped", "seq", req.Seq, "dispatched", c.dispatched)
		return
	}
	c.dispatched = req.Seq
	c.metrics.Operation("repaint")
	c.repainter.Repaint(req)
}

// failLocked records a recovered error for the status line and returns it.
func (c *Controller[T]) failLocked(op string, err error) error {
	c.notice = err.Error()
	c.metrics.Error(op)
	c.logger.Warn("operation rejected", "op", op, "error", err)
	return err
}

// Notice is the last error or confirmation, for display.
func (c *Controller[T]) Notice() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notice
}
