package precision

import "errors"

var (
	// ErrNotFinite indicates text that parsed to NaN or an infinity.
	ErrNotFinite = errors.New("precision: value is not finite")

	// ErrSyntax indicates text that is not a decimal floating-point number.
	ErrSyntax = errors.New("precision: invalid number syntax")

	// ErrBinary indicates a binary payload that does not describe a value.
	ErrBinary = errors.New("precision: malformed binary value")
)

// Number is the arithmetic strategy for one coordinate representation.
// Implementations never mutate their operands; every operation returns a
// fresh value so snapshots holding T stay immutable.
type Number[T any] interface {
	Name() string

	// Width is the size in bytes of one value in binary form.
	Width() int

	FromFloat64(f float64) T
	Float64(x T) float64

	Add(a, b T) T
	Sub(a, b T) T
	MulFloat(a T, f float64) T

	// Ratio returns a/b rounded to float64.
	Ratio(a, b T) float64

	Cmp(a, b T) int

	// IsFinite reports false for infinities and NaN, which arithmetic can
	// reach on overflow.
	IsFinite(x T) bool

	Parse(s string) (T, error)
	Format(x T) string

	// PutBinary writes x into dst, which must be exactly Width bytes.
	PutBinary(dst []byte, x T)
	ReadBinary(src []byte) (T, error)
}

// Sign reports -1, 0 or +1 for x.
func Sign[T any](num Number[T], x T) int {
	return num.Cmp(x, num.FromFloat64(0))
}
