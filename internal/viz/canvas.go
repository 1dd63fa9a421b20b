package viz

import (
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/fraczoom/internal/frame"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const (
	cellW = 2
	cellH = 4
	blank = rune(0x2800)
)

// Canvas is a grid of braille cells, each covering 2x4 sub-pixels, with
// one colour per cell.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
	Colors        [][]color.RGBA
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
		Colors: make([][]color.RGBA, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		c.Colors[i] = make([]color.RGBA, w)
	}
	c.Clear()
	return c
}

// CellsFor returns the canvas size in cells for a pixel size.
func CellsFor(px, py int) (int, int) {
	return (px + cellW - 1) / cellW, (py + cellH - 1) / cellH
}

// PixelSize is the canvas size in sub-pixels.
func (c *Canvas) PixelSize() (int, int) {
	return c.Width * cellW, c.Height * cellH
}

// CellToPixel maps a cell to the sub-pixel at its middle.
func CellToPixel(col, row int) image.Point {
	return image.Pt(col*cellW+cellW/2, row*cellH+cellH/2)
}

// Set sets a pixel at (x, y) where x,y are in "sub-pixel" coordinates.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/cellW, y/cellH
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%cellH][x%cellW])
}

func (c *Canvas) Unset(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/cellW, y/cellH
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] &= ^rune(pixelMap[y%cellH][x%cellW])
	if c.Grid[row][col] < blank {
		c.Grid[row][col] = blank
	}
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
			c.Colors[i][j] = color.RGBA{}
		}
	}
}

// DrawFrame plots f shifted by offset sub-pixels. A dot is lit where the
// orbit escaped; each cell takes the mean colour of its escaped pixels.
func (c *Canvas) DrawFrame(f *frame.Frame, inside func(uint16) bool, offset image.Point) {
	c.Clear()
	if f == nil {
		return
	}
	pw, ph := c.PixelSize()
	sums := make([][4]int, c.Width*c.Height)

	for y := 0; y < ph; y++ {
		sy := y - offset.Y
		if sy < 0 || sy >= f.Rows {
			continue
		}
		for x := 0; x < pw; x++ {
			sx := x - offset.X
			if sx < 0 || sx >= f.Cols {
				continue
			}
			if inside(f.Uint16At(sy, sx)) {
				continue
			}
			c.Set(x, y)
			if f.HasImage() {
				px := f.Image.RGBAAt(sx, sy)
				s := &sums[(y/cellH)*c.Width+x/cellW]
				s[0] += int(px.R)
				s[1] += int(px.G)
				s[2] += int(px.B)
				s[3]++
			}
		}
	}

	for i, s := range sums {
		if s[3] == 0 {
			continue
		}
		c.Colors[i/c.Width][i%c.Width] = color.RGBA{
			R: uint8(s[0] / s[3]), G: uint8(s[1] / s[3]), B: uint8(s[2] / s[3]), A: 255,
		}
	}
}

// DrawCross marks a small cross centred on sub-pixel p.
func (c *Canvas) DrawCross(p image.Point, size int) {
	c.DrawLine(p.X-size, p.Y, p.X+size, p.Y)
	c.DrawLine(p.X, p.Y-size, p.X, p.Y+size)
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Render paints each cell in its colour with r.
func (c *Canvas) Render(r *lipgloss.Renderer) string {
	var b strings.Builder
	for i, row := range c.Grid {
		for j, ch := range row {
			col := c.Colors[i][j]
			if ch == blank || col.A == 0 {
				b.WriteRune(ch)
				continue
			}
			b.WriteString(r.NewStyle().Foreground(lipgloss.Color(hexColor(int(col.R), int(col.G), int(col.B)))).Render(string(ch)))
		}
		if i < len(c.Grid)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
