package gui

import (
	"image"
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"
)

var fieldNames = [3]string{"center", "span x", "span y"}

// fieldEditor holds the three text fields while they are being edited.
type fieldEditor struct {
	active bool
	fields [3]string
	field  int
}

func (e *fieldEditor) open(center, spanX, spanY string) {
	e.active = true
	e.fields = [3]string{center, spanX, spanY}
	e.field = 0
}

func (e *fieldEditor) next() { e.field = (e.field + 1) % len(e.fields) }

func (e *fieldEditor) insert(r rune) {
	if r < 0x20 || r == 0x7f {
		return
	}
	e.fields[e.field] += string(r)
}

func (e *fieldEditor) backspace() {
	if f := e.fields[e.field]; len(f) > 0 {
		e.fields[e.field] = f[:len(f)-1]
	}
}

// toPixel maps a window position to a canvas pixel.
func toPixel(v rl.Vector2, scale int) image.Point {
	if scale < 1 {
		scale = 1
	}
	return image.Pt(int(v.X)/scale, int(v.Y)/scale)
}

// wheelTicks turns a wheel movement into whole ticks, rounding away from
// zero so touchpads still register.
func wheelTicks(move float32) int {
	switch {
	case move > 0 && move < 1:
		return 1
	case move < 0 && move > -1:
		return -1
	}
	return int(move)
}

func pixels(img *image.RGBA) []color.RGBA {
	b := img.Bounds()
	out := make([]color.RGBA, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out = append(out, img.RGBAAt(x, y))
		}
	}
	return out
}
