// Package viewport holds the navigation state of the explorer and the
// mapping between screen pixels and fractal space.
//
// The package defines:
//
//   - [Viewport]: center plus positive half-span, in any [precision.Number]
//   - [Canvas]: the pixel size of the rendering surface
//   - [PixelToWorld] / [WorldToPixel]: the affine pixel mapping
//   - [CenterBinary]: the fixed-width binary form of a center point
//
// Pixel (px, py) maps to min + (p/size) * 2*half_span on each axis, so the
// pixel row grows with world y.
//
// # Example
//
//	num := precision.Float64{}
//	v, _ := viewport.FromCenterSpan(num,
//		viewport.Point[float64]{X: -0.5, Y: 0},
//		viewport.Point[float64]{X: 1.5, Y: 1.2})
//	p, _ := viewport.PixelToWorld(160, 120, viewport.Canvas{Width: 320, Height: 240}, v)
package viewport
