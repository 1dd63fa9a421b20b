package nav

import (
	"image"
	"math/big"

	"github.com/san-kum/fraczoom/internal/export"
	"github.com/san-kum/fraczoom/internal/frame"
	"github.com/san-kum/fraczoom/internal/viewport"
)

// Navigator is the precision-independent face of a Controller that the
// front ends drive.
type Navigator interface {
	Precision() string
	Canvas() viewport.Canvas
	Resize(c viewport.Canvas) error

	Zoom(factor float64, anchor image.Point) error
	Scroll(ticks int, anchor image.Point) error
	ZoomSpeed() float64
	SetZoomSpeed(s float64) error

	Pan(delta image.Point) error
	BeginPan(p image.Point) error
	DragTo(p image.Point) image.Point
	DragDelta() image.Point
	EndPan(p image.Point) error
	CancelPan()
	Gesture() Gesture
	MouseMove(p image.Point)

	CommitText(centerHex, spanX, spanY string) error
	CommitDecimal(centerX, centerY, spanX, spanY string) error
	Revert() error
	Repaint()

	FrameReady(f *frame.Frame) bool
	Frame() *frame.Frame
	Current() bool
	CanExportFrame() bool
	CanSaveImage() bool
	ExportFrame(path string) (string, error)
	SaveImage(path string) (string, error)
	Meta() export.Meta

	Status() Status
	Fields() Fields
	Notice() string
	Depth() int
	Journal() []JournalEntry
	Restore(rows []JournalEntry) error
}

var (
	_ Navigator = (*Controller[float64])(nil)
	_ Navigator = (*Controller[*big.Float])(nil)
)
