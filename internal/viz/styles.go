package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// styles are bound to one renderer so each SSH session gets colours that
// match its own terminal.
type styles struct {
	r *lipgloss.Renderer

	title   lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	key     lipgloss.Style
	hint    lipgloss.Style
	notice  lipgloss.Style
	fail    lipgloss.Style
	cursor  lipgloss.Style
	editing lipgloss.Style
}

func newStyles(r *lipgloss.Renderer, t Theme) styles {
	return styles{
		r:       r,
		title:   r.NewStyle().Bold(true).Foreground(t.Secondary),
		label:   r.NewStyle().Foreground(t.Muted),
		value:   r.NewStyle().Foreground(t.Text),
		key:     r.NewStyle().Bold(true).Foreground(t.Secondary),
		hint:    r.NewStyle().Foreground(t.Muted),
		notice:  r.NewStyle().Foreground(t.Success),
		fail:    r.NewStyle().Bold(true).Foreground(t.Error),
		cursor:  r.NewStyle().Bold(true).Foreground(t.Primary),
		editing: r.NewStyle().Bold(true).Foreground(t.Accent),
	}
}

// GradientText creates a gradient effect on text using color interpolation
func GradientText(r *lipgloss.Renderer, text string, startColor, endColor lipgloss.Color) string {
	if len(text) == 0 {
		return ""
	}

	sr, sg, sb := parseHex(string(startColor))
	er, eg, eb := parseHex(string(endColor))

	var result strings.Builder
	n := len(text)

	for i, c := range text {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		red := int(float64(sr) + t*float64(er-sr))
		green := int(float64(sg) + t*float64(eg-sg))
		blue := int(float64(sb) + t*float64(eb-sb))

		result.WriteString(r.NewStyle().Foreground(lipgloss.Color(hexColor(red, green, blue))).Render(string(c)))
	}

	return result.String()
}

// hints renders "key action" pairs.
func (s styles) hints(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(s.key.Render(pairs[i]) + s.hint.Render(" "+pairs[i+1]))
	}
	return b.String()
}

func parseHex(hex string) (r, g, b int) {
	if len(hex) != 7 || hex[0] != '#' {
		return 255, 255, 255
	}
	r = parseHexByte(hex[1:3])
	g = parseHexByte(hex[3:5])
	b = parseHexByte(hex[5:7])
	return
}

func parseHexByte(s string) int {
	var val int
	for _, c := range s {
		val *= 16
		if c >= '0' && c <= '9' {
			val += int(c - '0')
		} else if c >= 'a' && c <= 'f' {
			val += int(c - 'a' + 10)
		} else if c >= 'A' && c <= 'F' {
			val += int(c - 'A' + 10)
		}
	}
	return val
}

func hexColor(r, g, b int) string {
	return "#" + hexByte(r) + hexByte(g) + hexByte(b)
}

func hexByte(v int) string {
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	const hex = "0123456789abcdef"
	return string(hex[v/16]) + string(hex[v%16])
}
