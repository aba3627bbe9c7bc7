package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/komaokuri/internal/frametime"
	"github.com/starford/komaokuri/internal/keymap"
	"github.com/starford/komaokuri/internal/layer"
	"github.com/starford/komaokuri/internal/session"
	"github.com/starford/komaokuri/internal/settings"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig     `yaml:"app"`
	Review    ReviewConfig          `yaml:"review"`
	Settings  SettingsConfig        `yaml:"settings"`
	Export    ExportConfig          `yaml:"export"`
	Auth      AuthConfig            `yaml:"auth"`
	Shortcuts keymap.Bindings       `yaml:"shortcuts"`
	Palette   settings.ColorPalette `yaml:"palette"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Review.Validate(); err != nil {
		return fmt.Errorf("review: %w", err)
	}
	if err := c.Settings.Validate(); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	if err := c.Export.Validate(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Shortcuts.Validate(); err != nil {
		return fmt.Errorf("shortcuts: %w", err)
	}
	if err := c.Palette.Validate(); err != nil {
		return fmt.Errorf("palette: %w", err)
	}
	return nil
}

// SessionConfig returns the review defaults handed to the session controller.
func (c *Config) SessionConfig() session.Config {
	return session.Config{
		DefaultRates:     append([]float64(nil), c.Review.DefaultRates...),
		DefaultLayerRate: c.Review.DefaultLayerRate,
		StartOffset:      c.Review.StartOffset,
		Tolerance:        c.Review.BoundaryTolerance,
		BookmarkPolicy:   layer.BookmarkPolicy(c.Review.BookmarkPolicy),
		Speeds:           c.Review.Speeds,
		SkipSeconds:      c.Review.SkipSeconds,
		Shortcuts:        c.Shortcuts,
		Palette:          c.Palette,
	}
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// ReviewConfig holds the defaults every loaded video starts with.
type ReviewConfig struct {
	DefaultRates      []float64      `yaml:"default_rates"`
	DefaultLayerRate  float64        `yaml:"default_layer_rate"`
	StartOffset       float64        `yaml:"start_offset"`
	BoundaryTolerance float64        `yaml:"boundary_tolerance"`
	BookmarkPolicy    string         `yaml:"bookmark_policy"`
	Speeds            session.Speeds `yaml:"speeds"`
	SkipSeconds       float64        `yaml:"skip_seconds"`
}

// Validate validates the review configuration.
func (c *ReviewConfig) Validate() error {
	rate := []validation.Rule{validation.Required, validation.Min(0.0).Exclusive(), validation.Max(1000.0)}
	speed := []validation.Rule{validation.Required, validation.Min(0.0).Exclusive(), validation.Max(16.0)}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.DefaultRates, validation.Required, validation.Each(rate...)),
		validation.Field(&c.DefaultLayerRate, rate...),
		validation.Field(&c.StartOffset, validation.Min(0.0)),
		validation.Field(&c.BoundaryTolerance, validation.Required, validation.Min(0.0).Exclusive(), validation.Max(1.0)),
		validation.Field(&c.BookmarkPolicy, validation.Required, validation.In(
			string(layer.PolicyRemap), string(layer.PolicyKeep), string(layer.PolicyClear))),
		validation.Field(&c.SkipSeconds, validation.Required, validation.Min(0.0).Exclusive()),
	); err != nil {
		return err
	}
	return validation.ValidateStruct(&c.Speeds,
		validation.Field(&c.Speeds.Slow, speed...),
		validation.Field(&c.Speeds.Normal, speed...),
		validation.Field(&c.Speeds.Fast, speed...),
	)
}

// SettingsConfig locates the settings document written by "save data".
// With Watch set, edits to the file are imported into the running session.
type SettingsConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// Validate validates the settings configuration.
func (c *SettingsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// ExportConfig holds the saved-frame destination.
type ExportConfig struct {
	Dir      string `yaml:"dir"`
	MaxWidth int    `yaml:"max_width"`
}

// Validate validates the export configuration.
func (c *ExportConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.MaxWidth, validation.Min(0)),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Review: ReviewConfig{
			DefaultRates:      []float64{23.99, 24, 30},
			DefaultLayerRate:  layer.DefaultFrameRate,
			StartOffset:       frametime.DefaultStartOffset,
			BoundaryTolerance: frametime.DefaultTolerance,
			BookmarkPolicy:    string(layer.PolicyRemap),
			Speeds:            session.Speeds{Slow: 0.25, Normal: 1, Fast: 2},
			SkipSeconds:       5,
		},
		Settings: SettingsConfig{
			Path: "./review-settings.json",
		},
		Export: ExportConfig{
			Dir: "./frames",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Shortcuts: keymap.DefaultBindings(),
		Palette:   settings.DefaultPalette(),
	}
}
