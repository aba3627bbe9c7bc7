// Package testutil provides shared test helpers for setting up review sessions.
package testutil

import (
	"io"
	"log/slog"
	"testing"

	"github.com/starford/komaokuri/internal/session"
)

// NopPlayer accepts every player command.
type NopPlayer struct{}

func (NopPlayer) Seek(float64) error            { return nil }
func (NopPlayer) SetPlaybackRate(float64) error { return nil }
func (NopPlayer) TogglePlay() error             { return nil }

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Config returns review defaults with a single 24fps layer and frame 0 at
// time zero, so frame i starts at i/24.
func Config() session.Config {
	cfg := session.DefaultConfig()
	cfg.DefaultRates = []float64{24}
	cfg.StartOffset = 0
	return cfg
}

// Controller creates a session over NopPlayer with Config and a quiet logger.
// opts are applied after the logger, so they may replace it.
func Controller(t *testing.T, opts ...session.Option) *session.Controller {
	t.Helper()
	opts = append([]session.Option{session.WithLogger(Logger())}, opts...)
	ctrl, err := session.New(Config(), NopPlayer{}, opts...)
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	return ctrl
}

// ReadyController is Controller with clip.mp4 loaded and its duration known.
func ReadyController(t *testing.T, duration float64, opts ...session.Option) *session.Controller {
	t.Helper()
	ctrl := Controller(t, opts...)
	if err := ctrl.LoadVideo("clip.mp4"); err != nil {
		t.Fatal(err)
	}
	if err := ctrl.DurationKnown(duration); err != nil {
		t.Fatal(err)
	}
	return ctrl
}
