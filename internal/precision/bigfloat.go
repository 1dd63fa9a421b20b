package precision

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"strings"
)

const (
	formZero   byte = 0
	formFinite byte = 1
	signBit    byte = 0x80
)

// MinBigFloatBits is the smallest mantissa precision accepted by NewBigFloat.
const MinBigFloatBits = 53

// BigFloat stores coordinates as *big.Float with a fixed mantissa precision,
// so deep zooms keep resolving after float64 runs out of bits.
//
// Binary layout, Width() bytes:
//
//	[form|sign : 1][exponent int32 BE : 4][mantissa BE : ceil(bits/8)]
type BigFloat struct {
	bits uint
}

// NewBigFloat returns a strategy with the given mantissa precision. Values
// below MinBigFloatBits are raised to it.
func NewBigFloat(bits uint) BigFloat {
	if bits < MinBigFloatBits {
		bits = MinBigFloatBits
	}
	return BigFloat{bits: bits}
}

func (b BigFloat) Bits() uint { return b.bits }

func (b BigFloat) Name() string { return fmt.Sprintf("bigfloat%d", b.bits) }

func (b BigFloat) mantBytes() int { return int(b.bits+7) / 8 }

func (b BigFloat) Width() int { return 1 + 4 + b.mantBytes() }

func (b BigFloat) newFloat() *big.Float {
	return new(big.Float).SetPrec(b.bits).SetMode(big.ToNearestEven)
}

func (b BigFloat) FromFloat64(f float64) *big.Float {
	return b.newFloat().SetFloat64(f)
}

func (b BigFloat) Float64(x *big.Float) float64 {
	f, _ := x.Float64()
	return f
}

func (b BigFloat) Add(x, y *big.Float) *big.Float { return b.newFloat().Add(x, y) }
func (b BigFloat) Sub(x, y *big.Float) *big.Float { return b.newFloat().Sub(x, y) }

func (b BigFloat) MulFloat(x *big.Float, f float64) *big.Float {
	return b.newFloat().Mul(x, b.FromFloat64(f))
}

func (b BigFloat) Ratio(x, y *big.Float) float64 {
	if y.Sign() == 0 {
		return math.Inf(x.Sign())
	}
	return b.Float64(b.newFloat().Quo(x, y))
}

func (b BigFloat) Cmp(x, y *big.Float) int { return x.Cmp(y) }

// IsFinite is false only for infinities; big.Float has no NaN.
func (b BigFloat) IsFinite(x *big.Float) bool { return x != nil && !x.IsInf() }

func (b BigFloat) Parse(s string) (*big.Float, error) {
	f, _, err := b.newFloat().Parse(strings.TrimSpace(s), 10)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrSyntax, s)
	}
	if f.IsInf() {
		return nil, fmt.Errorf("%w: %q", ErrNotFinite, s)
	}
	return f, nil
}

// Format prints enough decimal digits to distinguish values at this precision.
func (b BigFloat) Format(x *big.Float) string {
	digits := int(math.Ceil(float64(b.bits)*math.Log10(2))) + 1
	return x.Text('g', digits)
}

func (b BigFloat) PutBinary(dst []byte, x *big.Float) {
	for i := range dst {
		dst[i] = 0
	}
	if x.Sign() == 0 {
		dst[0] = formZero
		return
	}

	// round first so the mantissa never carries more than b.bits bits
	rounded := b.newFloat().Set(x)
	mant := new(big.Float)
	exp := rounded.MantExp(mant)
	mant.SetMantExp(mant, int(b.bits))

	bits, _ := mant.Int(nil)
	bits.Abs(bits)

	form := formFinite
	if x.Signbit() {
		form |= signBit
	}
	dst[0] = form
	binary.BigEndian.PutUint32(dst[1:5], uint32(int32(exp)))
	bits.FillBytes(dst[5:])
}

func (b BigFloat) ReadBinary(src []byte) (*big.Float, error) {
	if len(src) != b.Width() {
		return nil, fmt.Errorf("%w: %s needs %d bytes, got %d", ErrBinary, b.Name(), b.Width(), len(src))
	}

	switch src[0] &^ signBit {
	case formZero:
		return b.newFloat(), nil
	case formFinite:
	default:
		return nil, fmt.Errorf("%w: unknown form byte 0x%02x", ErrBinary, src[0])
	}

	exp := int(int32(binary.BigEndian.Uint32(src[1:5])))
	bits := new(big.Int).SetBytes(src[5:])
	if bits.Sign() == 0 {
		return nil, fmt.Errorf("%w: finite value with empty mantissa", ErrBinary)
	}

	f := b.newFloat().SetInt(bits)
	f.SetMantExp(f, exp-int(b.bits))
	if src[0]&signBit != 0 {
		f.Neg(f)
	}
	return f, nil
}
