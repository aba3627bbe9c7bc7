package session

import (
	"log/slog"

	"github.com/starford/komaokuri/internal/frametime"
	"github.com/starford/komaokuri/internal/keymap"
	"github.com/starford/komaokuri/internal/layer"
	"github.com/starford/komaokuri/internal/settings"
)

// Speeds are the playback-rate presets reachable from the keyboard.
type Speeds struct {
	Slow   float64 `yaml:"slow"`
	Normal float64 `yaml:"normal"`
	Fast   float64 `yaml:"fast"`
}

// Config holds the review defaults a controller starts every video with.
type Config struct {
	DefaultRates     []float64
	DefaultLayerRate float64
	StartOffset      float64
	Tolerance        float64
	BookmarkPolicy   layer.BookmarkPolicy
	Speeds           Speeds
	SkipSeconds      float64
	Shortcuts        keymap.Bindings
	Palette          settings.ColorPalette
}

// DefaultConfig returns the stock review defaults.
func DefaultConfig() Config {
	return Config{
		DefaultRates:     []float64{23.99, 24, 30},
		DefaultLayerRate: layer.DefaultFrameRate,
		StartOffset:      frametime.DefaultStartOffset,
		Tolerance:        frametime.DefaultTolerance,
		BookmarkPolicy:   layer.PolicyRemap,
		Speeds:           Speeds{Slow: 0.25, Normal: 1, Fast: 2},
		SkipSeconds:      5,
		Shortcuts:        keymap.DefaultBindings(),
		Palette:          settings.DefaultPalette(),
	}
}

// Listener is notified after a successful state change. kind names what
// changed: "video", "duration", "position", "layers", "bookmarks", "offset",
// "playback" or "settings".
type Listener func(kind string)

// Option configures a Controller.
type Option func(*Controller)

// WithFrameExporter sets the collaborator that saves displayed frames.
func WithFrameExporter(e FrameExporter) Option {
	return func(c *Controller) {
		c.exporter = e
	}
}

// WithSettingsSink sets the collaborator that stores exported documents.
func WithSettingsSink(s SettingsSink) Option {
	return func(c *Controller) {
		c.sink = s
	}
}

// WithLogger sets the controller's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// WithListener registers a change listener.
func WithListener(fn Listener) Option {
	return func(c *Controller) {
		c.listener = fn
	}
}
