package viewport

import "image"

// Canvas is the pixel size of the rendering surface.
type Canvas struct {
	Width, Height int
}

func (c Canvas) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return &CanvasError{Width: c.Width, Height: c.Height}
	}
	return nil
}

func (c Canvas) Center() image.Point {
	return image.Pt(c.Width/2, c.Height/2)
}

// PixelToWorld maps pixel (px, py) to min + (p/size) * 2*half on each axis.
// Pixels outside the canvas are allowed and land outside the viewport.
func PixelToWorld[T any](px, py int, c Canvas, v Viewport[T]) (Point[T], error) {
	return PixelToWorldF(float64(px), float64(py), c, v)
}

// PixelToWorldF is PixelToWorld for sub-pixel positions.
func PixelToWorldF[T any](px, py float64, c Canvas, v Viewport[T]) (Point[T], error) {
	if err := c.Validate(); err != nil {
		return Point[T]{}, err
	}
	n := v.num
	min, _ := v.Corners()
	fullX := n.MulFloat(v.half.X, 2)
	fullY := n.MulFloat(v.half.Y, 2)
	return Point[T]{
		X: n.Add(min.X, n.MulFloat(fullX, px/float64(c.Width))),
		Y: n.Add(min.Y, n.MulFloat(fullY, py/float64(c.Height))),
	}, nil
}

// WorldToPixel is the inverse of PixelToWorldF. The integer part of each
// result is the pixel index; nothing is clamped to the canvas.
func WorldToPixel[T any](p Point[T], c Canvas, v Viewport[T]) (float64, float64, error) {
	if err := c.Validate(); err != nil {
		return 0, 0, err
	}
	n := v.num
	min, _ := v.Corners()
	fullX := n.MulFloat(v.half.X, 2)
	fullY := n.MulFloat(v.half.Y, 2)
	fx := n.Ratio(n.Sub(p.X, min.X), fullX) * float64(c.Width)
	fy := n.Ratio(n.Sub(p.Y, min.Y), fullY) * float64(c.Height)
	return fx, fy, nil
}

// PixelDelta converts a pixel displacement into a world displacement at the
// viewport's current scale.
func PixelDelta[T any](dx, dy int, c Canvas, v Viewport[T]) (Point[T], error) {
	if err := c.Validate(); err != nil {
		return Point[T]{}, err
	}
	n := v.num
	return Point[T]{
		X: n.MulFloat(v.half.X, 2*float64(dx)/float64(c.Width)),
		Y: n.MulFloat(v.half.Y, 2*float64(dy)/float64(c.Height)),
	}, nil
}

// Grid is a float64 projection of the pixel mapping for renderers that
// iterate every pixel: pixel (px, py) sits at (X0 + px*DX, Y0 + py*DY).
type Grid struct {
	X0, Y0 float64
	DX, DY float64
}

func GridOf[T any](c Canvas, v Viewport[T]) (Grid, error) {
	if err := c.Validate(); err != nil {
		return Grid{}, err
	}
	n := v.num
	min, _ := v.Corners()
	return Grid{
		X0: n.Float64(min.X),
		Y0: n.Float64(min.Y),
		DX: 2 * n.Float64(v.half.X) / float64(c.Width),
		DY: 2 * n.Float64(v.half.Y) / float64(c.Height),
	}, nil
}
