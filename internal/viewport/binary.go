package viewport

import (
	"fmt"

	"github.com/san-kum/fraczoom/internal/precision"
)

// CenterBinary lays a point out as x followed by y, each in the precision's
// own binary form. It satisfies codec.Binary[Point[T]].
type CenterBinary[T any] struct {
	Num precision.Number[T]
}

func (b CenterBinary[T]) Width() int { return 2 * b.Num.Width() }

func (b CenterBinary[T]) Marshal(dst []byte, p Point[T]) {
	w := b.Num.Width()
	b.Num.PutBinary(dst[:w], p.X)
	b.Num.PutBinary(dst[w:2*w], p.Y)
}

func (b CenterBinary[T]) Unmarshal(src []byte) (Point[T], error) {
	w := b.Num.Width()
	x, err := b.Num.ReadBinary(src[:w])
	if err != nil {
		return Point[T]{}, fmt.Errorf("center x: %w", err)
	}
	y, err := b.Num.ReadBinary(src[w : 2*w])
	if err != nil {
		return Point[T]{}, fmt.Errorf("center y: %w", err)
	}
	return Point[T]{X: x, Y: y}, nil
}
