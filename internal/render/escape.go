package render

import (
	"context"
	"image/color"
	"math"

	"github.com/san-kum/fraczoom/internal/frame"
	"github.com/san-kum/fraczoom/internal/viewport"
)

// ElementBytes is the size of one escape count in a computed frame.
const ElementBytes = 2

// Escape computes Mandelbrot escape counts over a float64 grid. It is the
// sample collaborator shipped with the explorer; beyond float64 resolution
// the picture degrades but navigation keeps full precision.
type Escape struct {
	MaxIter int
	Workers int
	Palette []color.RGBA
}

func NewEscape(maxIter, workers int) *Escape {
	if maxIter <= 0 {
		maxIter = 256
	}
	if maxIter > math.MaxUint16 {
		maxIter = math.MaxUint16
	}
	return &Escape{MaxIter: maxIter, Workers: workers, Palette: DefaultPalette(64)}
}

// Compute fills a new frame for the grid. Rows are split across workers
// and each row checks ctx before it starts.
func (e *Escape) Compute(ctx context.Context, seq uint64, c viewport.Canvas, g viewport.Grid) (*frame.Frame, error) {
	f := frame.New(seq, c.Height, c.Width, ElementBytes)

	ParallelFor(c.Height, 8, e.Workers, func(start, end int) {
		for row := start; row < end; row++ {
			if ctx.Err() != nil {
				return
			}
			ci := g.Y0 + float64(row)*g.DY
			for col := 0; col < c.Width; col++ {
				cr := g.X0 + float64(col)*g.DX
				n := e.iterate(cr, ci)
				f.SetUint16(row, col, uint16(n))
				f.Image.SetRGBA(col, row, e.colorOf(n))
			}
		}
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f, nil
}

func (e *Escape) iterate(cr, ci float64) int {
	var zr, zi float64
	for n := 0; n < e.MaxIter; n++ {
		zr2, zi2 := zr*zr, zi*zi
		if zr2+zi2 > 4 {
			return n
		}
		zi = 2*zr*zi + ci
		zr = zr2 - zi2 + cr
	}
	return e.MaxIter
}

func (e *Escape) colorOf(n int) color.RGBA {
	if n >= e.MaxIter || len(e.Palette) == 0 {
		return color.RGBA{A: 255}
	}
	return e.Palette[n%len(e.Palette)]
}

// Inside reports whether a frame element reached the iteration cap.
func (e *Escape) Inside(v uint16) bool { return int(v) >= e.MaxIter }

// DefaultPalette is a smooth cyclic gradient of n colours.
func DefaultPalette(n int) []color.RGBA {
	p := make([]color.RGBA, n)
	for i := range p {
		t := float64(i) / float64(n)
		p[i] = color.RGBA{
			R: uint8(127.5 * (1 + math.Sin(2*math.Pi*t))),
			G: uint8(127.5 * (1 + math.Sin(2*math.Pi*t+2.094))),
			B: uint8(127.5 * (1 + math.Sin(2*math.Pi*t+4.188))),
			A: 255,
		}
	}
	return p
}
