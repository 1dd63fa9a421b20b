package nav

import (
	"errors"
	"fmt"

	"github.com/san-kum/fraczoom/internal/history"
)

var (
	// ErrInvalidFactor rejects zoom factors and speeds that are not finite
	// and positive.
	ErrInvalidFactor = errors.New("nav: invalid zoom factor")

	// ErrGestureActive rejects operations that cannot run mid-drag.
	ErrGestureActive = errors.New("nav: a drag gesture is in progress")

	// ErrNoGesture is returned by EndPan without a matching BeginPan.
	ErrNoGesture = errors.New("nav: no drag gesture in progress")

	// ErrHistoryEmpty is returned by Revert when only the initial view is left.
	ErrHistoryEmpty = history.ErrEmpty

	// ErrInvalidAnchor rejects unknown anchor mode names.
	ErrInvalidAnchor = errors.New("nav: unknown anchor mode")
)

type FactorError struct {
	Factor float64
}

func (e *FactorError) Error() string {
	return fmt.Sprintf("zoom factor %v must be finite and positive", e.Factor)
}

func (e *FactorError) Is(target error) bool { return target == ErrInvalidFactor }

// RestoreError names the journal row that could not be decoded.
type RestoreError struct {
	Row     int
	Wrapped error
}

func (e *RestoreError) Error() string {
	return fmt.Sprintf("journal row %d: %v", e.Row, e.Wrapped)
}

func (e *RestoreError) Unwrap() error { return e.Wrapped }
