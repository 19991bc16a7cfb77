package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Config holds every startup parameter of the viewer.
type Config struct {
	ModelPath string

	// Window
	Width      int
	Height     int
	Title      string
	VSync      bool
	Fullscreen bool
	Samples    int

	// Camera
	FOV           float32 // vertical, degrees
	Near          float32
	Far           float32
	StartPosition [3]float32

	// Movement
	WalkSpeed    float32 // units per second
	PointerSpeed float32
	GateMovement bool // only walk while the pointer is locked

	// Scene
	ModelScale       float32
	Background       uint32
	AmbientColor     uint32
	AmbientIntensity float32
	SunColor         uint32
	SunIntensity     float32
	SunPosition      [3]float32

	LogLevel  string
	LogFormat string
}

// Default returns the stock walkthrough setup: eye height 1.6 a few units
// back from the origin, light grey background, model scaled 100x.
func Default() Config {
	return Config{
		ModelPath: "assets/models/eye/room.glb",

		Width:   1280,
		Height:  720,
		Title:   "roomwalk",
		VSync:   true,
		Samples: 4,

		FOV:           75,
		Near:          0.1,
		Far:           1000,
		StartPosition: [3]float32{0, 1.6, 3},

		WalkSpeed:    3.0,
		PointerSpeed: 0.5,

		ModelScale:       100,
		Background:       0xeeeeee,
		AmbientColor:     0x404040,
		AmbientIntensity: 2,
		SunColor:         0xffffff,
		SunIntensity:     1,
		SunPosition:      [3]float32{1, 1, 1},

		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load layers defaults, environment and command-line flags, in that order.
// A single positional argument overrides the model path.
func Load(args []string, getenv func(string) string) (Config, error) {
	cfg := Default()

	if v := getenv("ROOMWALK_MODEL"); v != "" {
		cfg.ModelPath = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := getenv("LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	fs := newFlagSet(&cfg)
	if err := fs.Parse(args); err != nil {
		return cfg, fmt.Errorf("parse flags: %w", err)
	}
	switch fs.NArg() {
	case 0:
	case 1:
		cfg.ModelPath = fs.Arg(0)
	default:
		return cfg, fmt.Errorf("expected at most one model path, got %d arguments", fs.NArg())
	}

	return cfg, cfg.Validate()
}

func newFlagSet(cfg *Config) *flag.FlagSet {
	fs := flag.NewFlagSet("roomwalk", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	background := hexValue{&cfg.Background}
	fs.StringVar(&cfg.ModelPath, "model", cfg.ModelPath, "path to the .glb/.gltf model")
	fs.IntVar(&cfg.Width, "width", cfg.Width, "window width")
	fs.IntVar(&cfg.Height, "height", cfg.Height, "window height")
	fs.BoolVar(&cfg.Fullscreen, "fullscreen", cfg.Fullscreen, "open fullscreen on the primary monitor")
	fs.BoolVar(&cfg.VSync, "vsync", cfg.VSync, "sync buffer swaps to the display refresh")
	fs.IntVar(&cfg.Samples, "samples", cfg.Samples, "MSAA samples (0 disables)")
	fs.Var(float32Value{&cfg.WalkSpeed}, "speed", "walking speed in units per second")
	fs.Var(float32Value{&cfg.PointerSpeed}, "sensitivity", "mouse-look sensitivity multiplier")
	fs.Var(float32Value{&cfg.ModelScale}, "scale", "uniform scale applied to the loaded model")
	fs.Var(float32Value{&cfg.FOV}, "fov", "vertical field of view in degrees")
	fs.Var(background, "background", "background colour as RRGGBB hex")
	fs.BoolVar(&cfg.GateMovement, "gate-movement", cfg.GateMovement, "ignore WASD until the pointer is locked")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: text or json")

	return fs
}

// PrintUsage writes the flag reference to w.
func PrintUsage(w io.Writer) {
	cfg := Default()
	fs := newFlagSet(&cfg)
	fmt.Fprintf(w, "usage: roomwalk [flags] [model.glb]\n\n")
	fs.SetOutput(w)
	fs.PrintDefaults()
}

// Validate reports the first setting that cannot produce a working viewer.
func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.ModelPath) == "":
		return errors.New("model path is empty")
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("invalid window size %dx%d", c.Width, c.Height)
	case c.FOV <= 0 || c.FOV >= 180:
		return fmt.Errorf("fov must be in (0, 180), got %v", c.FOV)
	case c.Near <= 0:
		return fmt.Errorf("near plane must be positive, got %v", c.Near)
	case c.Far <= c.Near:
		return fmt.Errorf("far plane %v must be beyond near plane %v", c.Far, c.Near)
	case c.WalkSpeed < 0:
		return fmt.Errorf("walk speed must not be negative, got %v", c.WalkSpeed)
	case c.PointerSpeed < 0:
		return fmt.Errorf("pointer speed must not be negative, got %v", c.PointerSpeed)
	case c.ModelScale == 0:
		return errors.New("model scale must not be zero")
	case c.Samples < 0:
		return fmt.Errorf("samples must not be negative, got %d", c.Samples)
	}
	return nil
}

// AspectRatio is the initial width/height ratio of the window.
func (c Config) AspectRatio() float32 {
	return float32(c.Width) / float32(c.Height)
}

type float32Value struct{ p *float32 }

func (v float32Value) String() string {
	if v.p == nil {
		return ""
	}
	return strconv.FormatFloat(float64(*v.p), 'g', -1, 32)
}

func (v float32Value) Set(s string) error {
	f, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return err
	}
	*v.p = float32(f)
	return nil
}

type hexValue struct{ p *uint32 }

func (v hexValue) String() string {
	if v.p == nil {
		return ""
	}
	return fmt.Sprintf("%06x", *v.p)
}

func (v hexValue) Set(s string) error {
	n, err := ParseHexColor(s)
	if err != nil {
		return err
	}
	*v.p = n
	return nil
}

// ParseHexColor accepts "eeeeee", "#eeeeee" and "0xeeeeee".
func ParseHexColor(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "#"), "0x")
	if len(s) != 6 {
		return 0, fmt.Errorf("colour %q: want 6 hex digits", s)
	}
	n, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("colour %q: %w", s, err)
	}
	return uint32(n), nil
}
