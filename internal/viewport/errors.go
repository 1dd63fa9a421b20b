package viewport

import (
	"errors"
	"fmt"
)

// Domain errors for viewport operations.
var (
	// ErrInvalidSpan indicates a half-span that is zero, negative or overflowed.
	ErrInvalidSpan = errors.New("viewport: half-span must be positive and finite")

	// ErrInvalidCenter indicates a center coordinate that overflowed.
	ErrInvalidCenter = errors.New("viewport: center must be finite")

	// ErrSpanParse indicates span text that is not a decimal number.
	ErrSpanParse = errors.New("viewport: cannot parse span")

	// ErrInvalidCanvas indicates a canvas with a non-positive dimension.
	ErrInvalidCanvas = errors.New("viewport: canvas dimensions must be positive")
)

type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
)

// SpanError reports the axis whose half-span was rejected.
type SpanError struct {
	Axis  Axis
	Value string
}

func (e *SpanError) Error() string {
	return fmt.Sprintf("%s half-span %s must be positive and finite", e.Axis, e.Value)
}

func (e *SpanError) Is(target error) bool { return target == ErrInvalidSpan }

// SpanParseError carries only the offending axis and its raw text.
type SpanParseError struct {
	Axis    Axis
	RawText string
	Wrapped error
}

func (e *SpanParseError) Error() string {
	return fmt.Sprintf("cannot parse %s span %q", e.Axis, e.RawText)
}

func (e *SpanParseError) Unwrap() error { return e.Wrapped }

func (e *SpanParseError) Is(target error) bool { return target == ErrSpanParse }

type CanvasError struct {
	Width, Height int
}

func (e *CanvasError) Error() string {
	return fmt.Sprintf("invalid canvas %dx%d: dimensions must be positive", e.Width, e.Height)
}

func (e *CanvasError) Is(target error) bool { return target == ErrInvalidCanvas }

// CenterError reports the axis whose center coordinate was rejected.
type CenterError struct {
	Axis  Axis
	Value string
}

func (e *CenterError) Error() string {
	return fmt.Sprintf("%v: axis %s is %s", ErrInvalidCenter, e.Axis, e.Value)
}

func (e *CenterError) Is(target error) bool { return target == ErrInvalidCenter }
