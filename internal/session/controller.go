// Package session implements the review session controller: the state
// machine that tracks the loaded video, owns the layer collection and turns
// player signals, key presses and API calls into navigation and seeks.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/google/uuid"

	"github.com/starford/komaokuri/internal/apperr"
	"github.com/starford/komaokuri/internal/frametime"
	"github.com/starford/komaokuri/internal/keymap"
	"github.com/starford/komaokuri/internal/layer"
	"github.com/starford/komaokuri/internal/navigate"
	"github.com/starford/komaokuri/internal/settings"
)

// State is the lifecycle state of a session.
type State int

// Session states.
const (
	NoVideo State = iota
	MetadataPending
	Ready
)

func (s State) String() string {
	switch s {
	case MetadataPending:
		return "metadata_pending"
	case Ready:
		return "ready"
	default:
		return "no_video"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Controller is a single review session.
//
// Every exported method runs under one mutex, so concurrent callers (HTTP
// handlers, the player socket, MCP tools) are applied one event at a time.
// Listener callbacks and frame/settings exports run after the lock is
// released.
type Controller struct {
	cfg      Config
	player   Player
	exporter FrameExporter
	sink     SettingsSink
	logger   *slog.Logger
	listener Listener

	mu          sync.Mutex
	engine      navigate.Engine
	keys        *keymap.Keymap
	bindings    keymap.Bindings
	palette     settings.ColorPalette
	state       State
	sessionID   string
	videoName   string
	duration    float64
	currentTime float64
	startOffset float64
	speed       float64
	overlay     bool
	layers      *layer.Collection
	pending     *settings.Document
}

// New creates a controller in the NoVideo state. player is required.
func New(cfg Config, player Player, opts ...Option) (*Controller, error) {
	if player == nil {
		return nil, errors.New("session: player is required")
	}
	if len(cfg.DefaultRates) == 0 {
		return nil, errors.New("session: at least one default frame rate is required")
	}
	for _, r := range cfg.DefaultRates {
		if err := checkRate(r); err != nil {
			return nil, fmt.Errorf("session: default rates: %w", err)
		}
	}
	keys, err := keymap.New(cfg.Shortcuts)
	if err != nil {
		return nil, fmt.Errorf("session: shortcuts: %w", err)
	}

	c := &Controller{
		cfg:         cfg,
		player:      player,
		logger:      slog.Default(),
		engine:      navigate.NewEngine(frametime.NewCalculator(cfg.Tolerance)),
		keys:        keys,
		bindings:    cfg.Shortcuts,
		palette:     cfg.Palette,
		startOffset: cfg.StartOffset,
		speed:       cfg.Speeds.Normal,
		layers:      layer.NewCollection(cfg.DefaultRates, cfg.DefaultLayerRate, 0, cfg.StartOffset),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// update runs fn under the session lock and notifies the listener when it
// succeeds.
func (c *Controller) update(kind string, fn func() error) error {
	c.mu.Lock()
	err := fn()
	c.mu.Unlock()
	if err == nil && kind != "" && c.listener != nil {
		c.listener(kind)
	}
	return err
}

// LoadVideo starts a new session for the named video. All layers, bookmarks,
// the start offset and the playback position return to their defaults.
func (c *Controller) LoadVideo(name string) error {
	return c.update("video", func() error {
		if name == "" {
			name = "untitled"
		}
		c.state = MetadataPending
		c.sessionID = uuid.NewString()
		c.videoName = name
		c.duration = 0
		c.currentTime = 0
		c.startOffset = c.cfg.StartOffset
		c.speed = c.cfg.Speeds.Normal
		c.overlay = false
		c.pending = nil
		c.layers.Reset(c.cfg.DefaultRates, 0, c.startOffset)

		c.logger.Info("video loaded",
			slog.String("session_id", c.sessionID),
			slog.String("video", name))
		return nil
	})
}

// DurationKnown records the video duration reported by the player, derives
// every layer's frame times and seeks to the first frame.
func (c *Controller) DurationKnown(d float64) error {
	return c.update("duration", func() error {
		if c.state == NoVideo {
			return apperr.ErrNoVideo
		}
		if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
			return fmt.Errorf("%w: duration must be a non-negative number", apperr.ErrInvalidInput)
		}
		c.duration = d
		c.layers.RebuildAll(d, c.startOffset)
		c.state = Ready

		if c.pending != nil {
			doc := *c.pending
			c.pending = nil
			if err := c.applyDocument(doc); err != nil {
				c.logger.Warn("pending settings discarded",
					slog.String("session_id", c.sessionID),
					slog.String("error", err.Error()))
			}
		}

		c.logger.Info("duration known",
			slog.String("session_id", c.sessionID),
			slog.Float64("duration", d),
			slog.Int("layers", c.layers.Len()))
		return c.seek(c.startOffset)
	})
}

// TimeUpdate mirrors the player's playback position.
func (c *Controller) TimeUpdate(t float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == NoVideo {
		return apperr.ErrNoVideo
	}
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return fmt.Errorf("%w: time must be a number", apperr.ErrInvalidInput)
	}
	c.currentTime = t
	return nil
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetStartOffset changes the timestamp of frame 0 for every layer.
func (c *Controller) SetStartOffset(offset float64) error {
	return c.update("offset", func() error {
		if c.state == NoVideo {
			return apperr.ErrNoVideo
		}
		if math.IsNaN(offset) || math.IsInf(offset, 0) || offset < 0 {
			return fmt.Errorf("%w: start offset must be a non-negative number", apperr.ErrInvalidInput)
		}
		if c.state == Ready && offset > c.duration {
			return fmt.Errorf("%w: start offset %.3f exceeds duration %.3f", apperr.ErrInvalidInput, offset, c.duration)
		}
		c.startOffset = offset
		c.layers.RebuildAll(c.duration, offset)
		return nil
	})
}

func (c *Controller) requireReady() error {
	switch c.state {
	case NoVideo:
		return apperr.ErrNoVideo
	case MetadataPending:
		return apperr.ErrNotReady
	}
	return nil
}

// seek commands the player and mirrors the new position.
func (c *Controller) seek(t float64) error {
	if err := c.player.Seek(t); err != nil {
		return fmt.Errorf("seek to %.3f: %w", t, err)
	}
	c.currentTime = t
	return nil
}

const maxFrameRate = 1000

func checkRate(rate float64) error {
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= 0 || rate > maxFrameRate {
		return fmt.Errorf("%w: frame rate must be in (0, %d], got %v", apperr.ErrInvalidInput, maxFrameRate, rate)
	}
	return nil
}
