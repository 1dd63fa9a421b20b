// Package automation replays scripted navigation against a session:
// YAML tours of individual commands and zoom dives that save a frame per
// step.
package automation

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/fraczoom/internal/app"
	"github.com/san-kum/fraczoom/internal/config"
)

// Scenario defines a scripted navigation sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one command. Op selects which fields apply:
//
//	zoom     factor, x, y
//	scroll   ticks, x, y
//	pan      dx, dy
//	text     center, span_x, span_y
//	decimal  center_x, center_y, span_x, span_y
//	preset   preset
//	revert
//	render   save_as (image), export_as (frame)
type ScenarioStep struct {
	Op       string  `yaml:"op"`
	Factor   float64 `yaml:"factor,omitempty"`
	Ticks    int     `yaml:"ticks,omitempty"`
	X        *int    `yaml:"x,omitempty"`
	Y        *int    `yaml:"y,omitempty"`
	DX       int     `yaml:"dx,omitempty"`
	DY       int     `yaml:"dy,omitempty"`
	Center   string  `yaml:"center,omitempty"`
	CenterX  string  `yaml:"center_x,omitempty"`
	CenterY  string  `yaml:"center_y,omitempty"`
	SpanX    string  `yaml:"span_x,omitempty"`
	SpanY    string  `yaml:"span_y,omitempty"`
	Preset   string  `yaml:"preset,omitempty"`
	SaveAs   string  `yaml:"save_as,omitempty"`
	ExportAs string  `yaml:"export_as,omitempty"`
}

// StepResult records the committed view after a step.
type StepResult struct {
	Step   int
	Op     string
	Depth  int
	Center string
	Files  []string
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}

	return &scenario, nil
}

// RunScenario executes all steps in a scenario, stopping at the first
// failure.
func RunScenario(ctx context.Context, scenario *Scenario, s *app.Session, logger *slog.Logger) ([]StepResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		logger.Info("running step", "step", i+1, "of", len(scenario.Steps), "op", step.Op)

		files, err := runStep(ctx, step, s)
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i+1, step.Op, err)
		}
		results = append(results, StepResult{
			Step:   i + 1,
			Op:     step.Op,
			Depth:  s.Nav.Depth(),
			Center: s.Nav.Status().Center,
			Files:  files,
		})
	}

	return results, nil
}

func runStep(ctx context.Context, step ScenarioStep, s *app.Session) ([]string, error) {
	n := s.Nav
	c := n.Canvas()
	anchor := c.Center()
	if step.X != nil {
		anchor.X = *step.X
	}
	if step.Y != nil {
		anchor.Y = *step.Y
	}

	switch step.Op {
	case "zoom":
		return nil, n.Zoom(step.Factor, anchor)
	case "scroll":
		return nil, n.Scroll(step.Ticks, anchor)
	case "pan":
		return nil, n.Pan(image.Pt(step.DX, step.DY))
	case "text":
		return nil, n.CommitText(step.Center, step.SpanX, step.SpanY)
	case "decimal":
		return nil, n.CommitDecimal(step.CenterX, step.CenterY, step.SpanX, step.SpanY)
	case "preset":
		p := config.GetPreset(step.Preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset %q", step.Preset)
		}
		return nil, n.CommitDecimal(p.CenterX, p.CenterY, p.HalfSpanX, p.HalfSpanY(c.Width, c.Height))
	case "revert":
		return nil, n.Revert()
	case "render":
		return renderStep(ctx, s, step.SaveAs, step.ExportAs)
	}
	return nil, fmt.Errorf("unknown op %q", step.Op)
}

func renderStep(ctx context.Context, s *app.Session, imagePath, framePath string) ([]string, error) {
	if _, err := s.RenderNow(ctx); err != nil {
		return nil, err
	}
	var files []string
	if imagePath != "" {
		p, err := s.Nav.SaveImage(imagePath)
		if err != nil {
			return files, err
		}
		files = append(files, p)
	}
	if framePath != "" {
		p, err := s.Nav.ExportFrame(framePath)
		if err != nil {
			return files, err
		}
		files = append(files, p)
	}
	return files, nil
}

// Dive zooms repeatedly about one pixel and saves a frame per step
type Dive struct {
	Steps  int
	Factor float64
	Anchor image.Point
	Dir    string
	// Ext is the image extension, ".png" by default.
	Ext string
}

// DiveResult holds one rendered step of a dive
type DiveResult struct {
	Step     int
	HalfSpan string
	Path     string
}

// RunDive renders the current view, then zooms and renders Steps times.
func RunDive(ctx context.Context, dive *Dive, s *app.Session, logger *slog.Logger) ([]DiveResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dive.Steps < 1 {
		return nil, fmt.Errorf("dive needs at least one step, got %d", dive.Steps)
	}
	ext := dive.Ext
	if ext == "" {
		ext = ".png"
	}
	if err := os.MkdirAll(dive.Dir, 0755); err != nil {
		return nil, err
	}

	results := make([]DiveResult, 0, dive.Steps+1)
	for i := 0; i <= dive.Steps; i++ {
		if i > 0 {
			if err := s.Nav.Zoom(dive.Factor, dive.Anchor); err != nil {
				return results, fmt.Errorf("dive step %d: %w", i, err)
			}
		}
		path := filepath.Join(dive.Dir, fmt.Sprintf("dive-%04d%s", i, ext))
		if _, err := renderStep(ctx, s, path, ""); err != nil {
			return results, fmt.Errorf("dive step %d: %w", i, err)
		}
		results = append(results, DiveResult{Step: i, HalfSpan: s.Nav.Fields().SpanX, Path: path})

		if (i+1)%10 == 0 {
			logger.Info("dive progress", "done", i+1, "total", dive.Steps+1)
		}
	}

	return results, nil
}
