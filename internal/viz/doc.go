// Package viz is the terminal front end: a Bubble Tea program that draws
// the current frame on a braille canvas and turns keys and mouse events
// into navigation commands.
//
//   - [Explorer]: the interactive model for one session
//   - [Canvas]: braille canvas, 2x4 sub-pixels per cell
//   - Themes for the status chrome
//
// # Key Bindings
//
//	wheel   - Zoom at the cursor
//	+/-     - Zoom at the centre
//	drag    - Pan
//	arrows  - Pan an eighth of the canvas
//	r       - Revert to the previous view
//	e       - Edit centre and spans
//	p       - Jump to a preset
//	s/x/w   - Save image, export frame, write session
//	t       - Cycle themes
//	?       - Show help overlay
package viz
