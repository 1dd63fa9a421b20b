package precision

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Float64 is the ordinary double precision representation.
type Float64 struct{}

func (Float64) Name() string { return "float64" }
func (Float64) Width() int   { return 8 }

func (Float64) FromFloat64(f float64) float64 { return f }
func (Float64) Float64(x float64) float64     { return x }

func (Float64) Add(a, b float64) float64             { return a + b }
func (Float64) Sub(a, b float64) float64             { return a - b }
func (Float64) MulFloat(a float64, f float64) float64 { return a * f }
func (Float64) Ratio(a, b float64) float64           { return a / b }

func (Float64) Cmp(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (Float64) IsFinite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }

func (Float64) Parse(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrSyntax, s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrNotFinite, s)
	}
	return v, nil
}

func (Float64) Format(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}

func (Float64) PutBinary(dst []byte, x float64) {
	binary.BigEndian.PutUint64(dst, math.Float64bits(x))
}

func (Float64) ReadBinary(src []byte) (float64, error) {
	if len(src) != 8 {
		return 0, fmt.Errorf("%w: float64 needs 8 bytes, got %d", ErrBinary, len(src))
	}
	v := math.Float64frombits(binary.BigEndian.Uint64(src))
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %v", ErrNotFinite, v)
	}
	return v, nil
}
