package viewport

import (
	"fmt"

	"github.com/san-kum/fraczoom/internal/precision"
)

type Point[T any] struct {
	X, Y T
}

// Viewport is an immutable window into fractal space: a center and a
// strictly positive half-span per axis. Mutations return new values.
type Viewport[T any] struct {
	num    precision.Number[T]
	center Point[T]
	half   Point[T]
}

// FromCenterSpan validates both half-spans and the center before building
// the viewport.
func FromCenterSpan[T any](num precision.Number[T], center, half Point[T]) (Viewport[T], error) {
	if !num.IsFinite(half.X) || precision.Sign(num, half.X) <= 0 {
		return Viewport[T]{}, &SpanError{Axis: AxisX, Value: num.Format(half.X)}
	}
	if !num.IsFinite(half.Y) || precision.Sign(num, half.Y) <= 0 {
		return Viewport[T]{}, &SpanError{Axis: AxisY, Value: num.Format(half.Y)}
	}
	if !num.IsFinite(center.X) {
		return Viewport[T]{}, &CenterError{Axis: AxisX, Value: num.Format(center.X)}
	}
	if !num.IsFinite(center.Y) {
		return Viewport[T]{}, &CenterError{Axis: AxisY, Value: num.Format(center.Y)}
	}
	return Viewport[T]{num: num, center: center, half: half}, nil
}

// ParseSpanText parses both axes; a failure names only the failing axis.
func ParseSpanText[T any](num precision.Number[T], xText, yText string) (Point[T], error) {
	x, err := num.Parse(xText)
	if err != nil {
		return Point[T]{}, &SpanParseError{Axis: AxisX, RawText: xText, Wrapped: err}
	}
	y, err := num.Parse(yText)
	if err != nil {
		return Point[T]{}, &SpanParseError{Axis: AxisY, RawText: yText, Wrapped: err}
	}
	return Point[T]{X: x, Y: y}, nil
}

func (v Viewport[T]) Number() precision.Number[T] { return v.num }
func (v Viewport[T]) Center() Point[T]            { return v.center }
func (v Viewport[T]) HalfSpan() Point[T]          { return v.half }

// Corners returns center - half_span and center + half_span.
func (v Viewport[T]) Corners() (min, max Point[T]) {
	n := v.num
	min = Point[T]{X: n.Sub(v.center.X, v.half.X), Y: n.Sub(v.center.Y, v.half.Y)}
	max = Point[T]{X: n.Add(v.center.X, v.half.X), Y: n.Add(v.center.Y, v.half.Y)}
	return min, max
}

// Recenter keeps the half-spans; a non-finite center is rejected.
func (v Viewport[T]) Recenter(center Point[T]) (Viewport[T], error) {
	return FromCenterSpan(v.num, center, v.half)
}

// Scale multiplies both half-spans by factor, which must be positive.
func (v Viewport[T]) Scale(factor float64) (Viewport[T], error) {
	half := Point[T]{X: v.num.MulFloat(v.half.X, factor), Y: v.num.MulFloat(v.half.Y, factor)}
	return FromCenterSpan(v.num, v.center, half)
}

func (v Viewport[T]) Equal(o Viewport[T]) bool {
	n := v.num
	return n.Cmp(v.center.X, o.center.X) == 0 &&
		n.Cmp(v.center.Y, o.center.Y) == 0 &&
		n.Cmp(v.half.X, o.half.X) == 0 &&
		n.Cmp(v.half.Y, o.half.Y) == 0
}

// FormatPoint renders a point the way the status lines show it.
func FormatPoint[T any](num precision.Number[T], p Point[T]) string {
	return fmt.Sprintf("(%s, %s)", num.Format(p.X), num.Format(p.Y))
}

func (v Viewport[T]) String() string {
	return fmt.Sprintf("center=%s half=%s", FormatPoint(v.num, v.center), FormatPoint(v.num, v.half))
}
