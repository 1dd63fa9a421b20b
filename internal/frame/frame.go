// Package frame defines the data exchanged between the navigation core and
// the external recompute collaborator.
package frame

import (
	"encoding/binary"
	"image"

	"github.com/san-kum/fraczoom/internal/viewport"
)

// Request asks a collaborator to recompute the given viewport. Seq is a
// ticket that grows with every repaint trigger and is copied into the
// resulting Frame; Entry is the history sequence id of the viewport.
type Request[T any] struct {
	Seq      uint64
	Entry    uint64
	Viewport viewport.Viewport[T]
	Canvas   viewport.Canvas
}

// Frame is a computed map plus its rendered raster. Data holds
// Rows*Cols*ElementBytes bytes in row-major order.
type Frame struct {
	Seq          uint64
	Rows, Cols   int
	ElementBytes int
	Data         []byte
	Image        *image.RGBA
}

func New(seq uint64, rows, cols, elementBytes int) *Frame {
	return &Frame{
		Seq:          seq,
		Rows:         rows,
		Cols:         cols,
		ElementBytes: elementBytes,
		Data:         make([]byte, rows*cols*elementBytes),
		Image:        image.NewRGBA(image.Rect(0, 0, cols, rows)),
	}
}

// Uint16At reads a little-endian 2-byte element.
func (f *Frame) Uint16At(row, col int) uint16 {
	off := (row*f.Cols + col) * f.ElementBytes
	return binary.LittleEndian.Uint16(f.Data[off:])
}

func (f *Frame) SetUint16(row, col int, v uint16) {
	off := (row*f.Cols + col) * f.ElementBytes
	binary.LittleEndian.PutUint16(f.Data[off:], v)
}

func (f *Frame) HasImage() bool { return f != nil && f.Image != nil }
