package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	DefaultWidth     = 160
	DefaultHeight    = 96
	DefaultScale     = 4
	DefaultKind      = "float64"
	DefaultBits      = 128
	DefaultZoomSpeed = 2.0
	DefaultAnchor    = "fixed"
	DefaultMaxIter   = 512
	DefaultExportDir = "exports"
	DefaultHostKey   = "fraczoom_host_key"
	MinBigFloatBits  = 53
	EnvPrefix        = "FRACZOOM"
)

type Config struct {
	Canvas    CanvasConfig    `yaml:"canvas" mapstructure:"canvas"`
	Precision PrecisionConfig `yaml:"precision" mapstructure:"precision"`
	View      ViewConfig      `yaml:"view" mapstructure:"view"`
	Zoom      ZoomConfig      `yaml:"zoom" mapstructure:"zoom"`
	History   HistoryConfig   `yaml:"history" mapstructure:"history"`
	Render    RenderConfig    `yaml:"render" mapstructure:"render"`
	Export    ExportConfig    `yaml:"export" mapstructure:"export"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Metrics   MetricsConfig   `yaml:"metrics" mapstructure:"metrics"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
}

// CanvasConfig is the computed frame size in pixels. Scale enlarges saved
// images and the desktop window.
type CanvasConfig struct {
	Width  int `yaml:"width" mapstructure:"width"`
	Height int `yaml:"height" mapstructure:"height"`
	Scale  int `yaml:"scale" mapstructure:"scale"`
}

type PrecisionConfig struct {
	Kind string `yaml:"kind" mapstructure:"kind"`
	Bits uint   `yaml:"bits" mapstructure:"bits"`
}

// ViewConfig holds decimal text so values beyond float64 survive a save.
type ViewConfig struct {
	CenterX   string `yaml:"center_x" mapstructure:"center_x"`
	CenterY   string `yaml:"center_y" mapstructure:"center_y"`
	HalfSpanX string `yaml:"half_span_x" mapstructure:"half_span_x"`
	HalfSpanY string `yaml:"half_span_y" mapstructure:"half_span_y"`
}

type ZoomConfig struct {
	Speed  float64 `yaml:"speed" mapstructure:"speed"`
	Anchor string  `yaml:"anchor" mapstructure:"anchor"`
}

type HistoryConfig struct {
	MaxDepth int `yaml:"max_depth" mapstructure:"max_depth"`
}

type RenderConfig struct {
	MaxIter int `yaml:"max_iter" mapstructure:"max_iter"`
	Workers int `yaml:"workers" mapstructure:"workers"`
}

type ExportConfig struct {
	Dir        string   `yaml:"dir" mapstructure:"dir"`
	Compress   bool     `yaml:"compress" mapstructure:"compress"`
	Extensions []string `yaml:"extensions" mapstructure:"extensions"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	File   string `yaml:"file" mapstructure:"file"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

type ServerConfig struct {
	Addr    string `yaml:"addr" mapstructure:"addr"`
	HostKey string `yaml:"host_key" mapstructure:"host_key"`
}

func DefaultConfig() *Config {
	cfg := &Config{
		Canvas:    CanvasConfig{Width: DefaultWidth, Height: DefaultHeight, Scale: DefaultScale},
		Precision: PrecisionConfig{Kind: DefaultKind, Bits: DefaultBits},
		Zoom:      ZoomConfig{Speed: DefaultZoomSpeed, Anchor: DefaultAnchor},
		Render:    RenderConfig{MaxIter: DefaultMaxIter},
		Export:    ExportConfig{Dir: DefaultExportDir, Extensions: []string{".bin"}},
		Log:       LogConfig{Level: "info", Format: "text"},
		Server:    ServerConfig{Addr: ":2323", HostKey: DefaultHostKey},
	}
	_ = cfg.Apply("home")
	return cfg
}

// Load builds a config from defaults, an optional YAML file and FRACZOOM_*
// environment variables (FRACZOOM_ZOOM_SPEED overrides zoom.speed). An
// empty path searches ./fraczoom.yaml and the user config directory.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("fraczoom")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "fraczoom"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("canvas.width", d.Canvas.Width)
	v.SetDefault("canvas.height", d.Canvas.Height)
	v.SetDefault("canvas.scale", d.Canvas.Scale)
	v.SetDefault("precision.kind", d.Precision.Kind)
	v.SetDefault("precision.bits", d.Precision.Bits)
	v.SetDefault("view.center_x", d.View.CenterX)
	v.SetDefault("view.center_y", d.View.CenterY)
	v.SetDefault("view.half_span_x", d.View.HalfSpanX)
	v.SetDefault("view.half_span_y", d.View.HalfSpanY)
	v.SetDefault("zoom.speed", d.Zoom.Speed)
	v.SetDefault("zoom.anchor", d.Zoom.Anchor)
	v.SetDefault("history.max_depth", d.History.MaxDepth)
	v.SetDefault("render.max_iter", d.Render.MaxIter)
	v.SetDefault("render.workers", d.Render.Workers)
	v.SetDefault("export.dir", d.Export.Dir)
	v.SetDefault("export.compress", d.Export.Compress)
	v.SetDefault("export.extensions", d.Export.Extensions)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.host_key", d.Server.HostKey)
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		errs = append(errs, fmt.Sprintf("canvas must be positive, got %dx%d", c.Canvas.Width, c.Canvas.Height))
	}
	if c.Canvas.Scale < 1 {
		errs = append(errs, fmt.Sprintf("canvas.scale must be at least 1, got %d", c.Canvas.Scale))
	}

	switch c.Precision.Kind {
	case "float64":
	case "bigfloat":
		if c.Precision.Bits < MinBigFloatBits {
			errs = append(errs, fmt.Sprintf("precision.bits must be at least %d, got %d", MinBigFloatBits, c.Precision.Bits))
		}
	default:
		errs = append(errs, fmt.Sprintf("precision.kind must be float64 or bigfloat, got %q", c.Precision.Kind))
	}

	for _, f := range []struct {
		key, val string
		positive bool
	}{
		{"view.center_x", c.View.CenterX, false},
		{"view.center_y", c.View.CenterY, false},
		{"view.half_span_x", c.View.HalfSpanX, true},
		{"view.half_span_y", c.View.HalfSpanY, true},
	} {
		x, err := strconv.ParseFloat(strings.TrimSpace(f.val), 64)
		switch {
		case err != nil:
			errs = append(errs, fmt.Sprintf("%s is not a decimal number: %q", f.key, f.val))
		case f.positive && x <= 0:
			errs = append(errs, fmt.Sprintf("%s must be positive, got %q", f.key, f.val))
		}
	}

	if c.Zoom.Speed <= 1 {
		errs = append(errs, fmt.Sprintf("zoom.speed must be greater than 1, got %v", c.Zoom.Speed))
	}
	if c.Zoom.Anchor != "fixed" && c.Zoom.Anchor != "recenter" {
		errs = append(errs, fmt.Sprintf("zoom.anchor must be fixed or recenter, got %q", c.Zoom.Anchor))
	}
	if c.History.MaxDepth < 0 || c.History.MaxDepth == 1 {
		errs = append(errs, fmt.Sprintf("history.max_depth must be 0 (unlimited) or at least 2, got %d", c.History.MaxDepth))
	}
	if c.Render.MaxIter <= 0 || c.Render.MaxIter > 65535 {
		errs = append(errs, fmt.Sprintf("render.max_iter must be 1-65535, got %d", c.Render.MaxIter))
	}
	if c.Render.Workers < 0 {
		errs = append(errs, fmt.Sprintf("render.workers must not be negative, got %d", c.Render.Workers))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	if f := strings.ToLower(c.Log.Format); f != "json" && f != "text" {
		errs = append(errs, fmt.Sprintf("log.format must be json or text, got %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
