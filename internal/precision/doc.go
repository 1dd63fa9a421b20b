// Package precision provides the pluggable coordinate arithmetic used by the
// navigation core.
//
// A [Number] strategy is chosen once at construction time and threaded through
// every viewport, codec and controller instance:
//
//   - [Float64]: plain IEEE-754 doubles, 8 bytes per value
//   - [BigFloat]: math/big floats at a configurable mantissa precision
//
// # Example
//
//	num := precision.NewBigFloat(256)
//	x, _ := num.Parse("-0.743643887037158704752191506114774")
//	half := num.MulFloat(num.FromFloat64(1.5), 1e-30)
//
// Strategies are stateless values and safe for concurrent use.
package precision
