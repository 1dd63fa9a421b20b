// Package codec converts fixed-width binary values to and from the
// hexadecimal text shown in the center field.
package codec

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidHexFormat = errors.New("codec: invalid hex format")
	ErrLengthMismatch   = errors.New("codec: binary length mismatch")
)

// FormatError reports text that is not an even-length run of hex digits.
type FormatError struct {
	Text string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid hex string %q: not an even-length run of hex digits", e.Text)
}

func (e *FormatError) Is(target error) bool { return target == ErrInvalidHexFormat }

// LengthError reports well-formed hex whose byte count differs from the
// width the active precision requires.
type LengthError struct {
	Text     string
	Expected int
	Actual   int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("hex string %q decodes to %d bytes, expected %d", e.Text, e.Actual, e.Expected)
}

func (e *LengthError) Is(target error) bool { return target == ErrLengthMismatch }

// Binary is the precision-specific primitive a Codec is built from.
type Binary[V any] interface {
	Width() int
	Marshal(dst []byte, v V)
	Unmarshal(src []byte) (V, error)
}

type Codec[V any] struct {
	bin Binary[V]
}

func New[V any](bin Binary[V]) *Codec[V] {
	return &Codec[V]{bin: bin}
}

// Width is W, the number of bytes one value occupies.
func (c *Codec[V]) Width() int { return c.bin.Width() }

// Encode returns exactly 2*W uppercase hex digits.
func (c *Codec[V]) Encode(v V) string {
	buf := make([]byte, c.bin.Width())
	c.bin.Marshal(buf, v)
	return strings.ToUpper(hex.EncodeToString(buf))
}

// Decode accepts either letter case and an optional 0x prefix.
func (c *Codec[V]) Decode(text string) (V, error) {
	var zero V

	raw, err := Bytes(text)
	if err != nil {
		return zero, err
	}
	if len(raw) != c.bin.Width() {
		return zero, &LengthError{Text: text, Expected: c.bin.Width(), Actual: len(raw)}
	}

	v, err := c.bin.Unmarshal(raw)
	if err != nil {
		return zero, fmt.Errorf("decode %q: %w", text, err)
	}
	return v, nil
}

// Bytes parses hex text without any width check.
func Bytes(text string) ([]byte, error) {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
	}
	if len(s)%2 != 0 {
		return nil, &FormatError{Text: text}
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, &FormatError{Text: text}
	}
	return raw, nil
}
