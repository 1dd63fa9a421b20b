package config

import (
	"fmt"
	"sort"
	"strconv"
)

// Preset is a named location. The y half-span follows from the canvas
// aspect ratio when applied.
type Preset struct {
	Description string
	CenterX     string
	CenterY     string
	HalfSpanX   string
	MaxIter     int
}

var Presets = map[string]*Preset{
	"home": {
		Description: "the whole set",
		CenterX:     "-0.5", CenterY: "0", HalfSpanX: "1.6",
	},
	"seahorse": {
		Description: "seahorse valley",
		CenterX:     "-0.743643887037151", CenterY: "0.13182590420533", HalfSpanX: "0.00015", MaxIter: 2048,
	},
	"elephant": {
		Description: "elephant valley",
		CenterX:     "0.2925", CenterY: "0.0149", HalfSpanX: "0.01", MaxIter: 1024,
	},
	"spiral": {
		Description: "double spiral near the main antenna",
		CenterX:     "-0.761574", CenterY: "-0.0847596", HalfSpanX: "0.0005", MaxIter: 2048,
	},
	"minibrot": {
		Description: "period-3 minibrot on the real axis",
		CenterX:     "-1.7548776662466927", CenterY: "0", HalfSpanX: "0.02", MaxIter: 1024,
	},
}

func GetPreset(name string) *Preset {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	return p
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HalfSpanY scales the x half-span by the canvas aspect ratio.
func (p *Preset) HalfSpanY(width, height int) string {
	hx, err := strconv.ParseFloat(p.HalfSpanX, 64)
	if err != nil || width <= 0 {
		return p.HalfSpanX
	}
	return strconv.FormatFloat(hx*float64(height)/float64(width), 'g', -1, 64)
}

// Apply copies the preset's view and iteration count into c.
func (c *Config) Apply(name string) error {
	p := GetPreset(name)
	if p == nil {
		return fmt.Errorf("unknown preset %q", name)
	}
	c.View = ViewConfig{
		CenterX:   p.CenterX,
		CenterY:   p.CenterY,
		HalfSpanX: p.HalfSpanX,
		HalfSpanY: p.HalfSpanY(c.Canvas.Width, c.Canvas.Height),
	}
	if p.MaxIter > 0 {
		c.Render.MaxIter = p.MaxIter
	}
	return nil
}
