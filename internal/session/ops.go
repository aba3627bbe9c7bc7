package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/starford/komaokuri/internal/apperr"
	"github.com/starford/komaokuri/internal/layer"
	"github.com/starford/komaokuri/internal/navigate"
)

// Move is the outcome of a navigation command. Moved is false when the
// target was outside the layer and no seek was issued; Time is then the
// unchanged current time.
type Move struct {
	Moved bool    `json:"moved"`
	Time  float64 `json:"time"`
}

func (c *Controller) navigate(kind string, target func(*layer.Layer) (float64, bool)) (Move, error) {
	var m Move
	err := c.update(kind, func() error {
		if err := c.requireReady(); err != nil {
			return err
		}
		t, ok := target(c.layers.Selected())
		if !ok {
			m = Move{Time: c.currentTime}
			return nil
		}
		if err := c.seek(t); err != nil {
			return err
		}
		m = Move{Moved: true, Time: t}
		return nil
	})
	return m, err
}

// StepFrame seeks to the adjacent frame of the selected layer.
func (c *Controller) StepFrame(dir navigate.Direction) (Move, error) {
	return c.navigate("position", func(l *layer.Layer) (float64, bool) {
		return c.engine.NextFrameTime(l, c.currentTime, c.startOffset, dir)
	})
}

// StepBookmark seeks to the nearest bookmark of the selected layer.
func (c *Controller) StepBookmark(dir navigate.Direction) (Move, error) {
	return c.navigate("position", func(l *layer.Layer) (float64, bool) {
		return c.engine.NextBookmarkTime(l, c.currentTime, c.startOffset, dir)
	})
}

// SeekClick seeks to the frame under a click at fraction (0..1) of the
// timeline row of layer index.
func (c *Controller) SeekClick(index int, fraction float64) (Move, error) {
	var m Move
	err := c.update("position", func() error {
		if err := c.requireReady(); err != nil {
			return err
		}
		if math.IsNaN(fraction) || math.IsInf(fraction, 0) {
			return fmt.Errorf("%w: click position must be a number", apperr.ErrInvalidInput)
		}
		l, err := c.layers.At(index)
		if err != nil {
			return err
		}
		t := navigate.TimeFromClickPosition(l, c.duration, fraction)
		if err := c.seek(t); err != nil {
			return err
		}
		m = Move{Moved: true, Time: t}
		return nil
	})
	return m, err
}

// Skip seeks by seconds relative to the current time, clamped to the video.
func (c *Controller) Skip(seconds float64) (Move, error) {
	var m Move
	err := c.update("position", func() error {
		if err := c.requireReady(); err != nil {
			return err
		}
		if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
			return fmt.Errorf("%w: skip must be a number", apperr.ErrInvalidInput)
		}
		t := min(max(c.currentTime+seconds, 0), c.duration)
		if err := c.seek(t); err != nil {
			return err
		}
		m = Move{Moved: true, Time: t}
		return nil
	})
	return m, err
}

// BookmarkResult reports a bookmark toggle.
type BookmarkResult struct {
	Layer      int  `json:"layer"`
	Frame      int  `json:"frame"`
	Bookmarked bool `json:"bookmarked"`
}

// ToggleBookmark toggles the bookmark on the selected layer's current frame.
// It is a no-op while the playback position is outside the layer.
func (c *Controller) ToggleBookmark() (BookmarkResult, error) {
	var res BookmarkResult
	err := c.update("bookmarks", func() error {
		if err := c.requireReady(); err != nil {
			return err
		}
		l := c.layers.Selected()
		idx := c.engine.FrameIndex(l, c.currentTime, c.startOffset)
		res = BookmarkResult{Layer: c.layers.SelectedIndex(), Frame: idx}
		if idx < 0 || idx >= l.Len() {
			return nil
		}
		l.Toggle(idx)
		res.Bookmarked = l.Bookmarked(idx)
		c.logger.Debug("bookmark toggled",
			slog.Int("layer", res.Layer),
			slog.Int("frame", idx),
			slog.Bool("bookmarked", res.Bookmarked))
		return nil
	})
	return res, err
}

// AddLayer appends a layer and returns its index.
func (c *Controller) AddLayer() (int, error) {
	var idx int
	err := c.update("layers", func() error {
		if err := c.requireReady(); err != nil {
			return err
		}
		idx = c.layers.Add(c.duration, c.startOffset)
		return nil
	})
	return idx, err
}

// RemoveLayer deletes the layer at index.
func (c *Controller) RemoveLayer(index int) error {
	return c.update("layers", func() error {
		if err := c.requireReady(); err != nil {
			return err
		}
		return c.layers.Remove(index)
	})
}

// MoveLayer swaps the layer at index with its neighbour.
func (c *Controller) MoveLayer(index int, dir layer.Direction) error {
	return c.update("layers", func() error {
		if err := c.requireReady(); err != nil {
			return err
		}
		return c.layers.Move(index, dir)
	})
}

// SelectLayer makes index the navigation target.
func (c *Controller) SelectLayer(index int) error {
	return c.update("layers", func() error {
		if err := c.requireReady(); err != nil {
			return err
		}
		return c.layers.Select(index)
	})
}

// SelectRelative moves the selection by delta, wrapping around.
func (c *Controller) SelectRelative(delta int) error {
	return c.update("layers", func() error {
		if err := c.requireReady(); err != nil {
			return err
		}
		c.layers.SelectRelative(delta)
		return nil
	})
}

// SetFrameRate changes the frame rate of layer index, applying the
// configured bookmark policy.
func (c *Controller) SetFrameRate(index int, rate float64) error {
	return c.update("layers", func() error {
		if err := c.requireReady(); err != nil {
			return err
		}
		if err := checkRate(rate); err != nil {
			return err
		}
		l, err := c.layers.At(index)
		if err != nil {
			return err
		}
		l.SetFrameRate(rate, c.duration, c.startOffset, c.cfg.BookmarkPolicy)
		return nil
	})
}

// TogglePlay toggles playback.
func (c *Controller) TogglePlay() error {
	return c.update("playback", func() error {
		if err := c.requireReady(); err != nil {
			return err
		}
		return c.player.TogglePlay()
	})
}

// SetSpeed sets the playback rate.
func (c *Controller) SetSpeed(rate float64) error {
	return c.update("playback", func() error {
		if err := c.requireReady(); err != nil {
			return err
		}
		if math.IsNaN(rate) || rate <= 0 || rate > 16 {
			return fmt.Errorf("%w: playback rate must be in (0, 16], got %v", apperr.ErrInvalidInput, rate)
		}
		if err := c.player.SetPlaybackRate(rate); err != nil {
			return fmt.Errorf("set playback rate: %w", err)
		}
		c.speed = rate
		return nil
	})
}

// SetOverlay turns the exported-frame overlay on or off.
func (c *Controller) SetOverlay(on bool) error {
	return c.update("settings", func() error {
		c.overlay = on
		return nil
	})
}

// SaveFrame asks the frame exporter to save the displayed frame.
func (c *Controller) SaveFrame(ctx context.Context) (FrameRequest, error) {
	if c.exporter == nil {
		return FrameRequest{}, errors.New("frame export is not configured")
	}
	c.mu.Lock()
	if err := c.requireReady(); err != nil {
		c.mu.Unlock()
		return FrameRequest{}, err
	}
	req := FrameRequest{
		SessionID:    c.sessionID,
		Time:         c.currentTime,
		FileName:     FrameFileName(c.currentTime),
		Overlay:      c.overlay,
		OverlayColor: c.palette.Overlay,
		Label:        c.frameLabelLocked(),
	}
	c.mu.Unlock()

	if err := c.exporter.ExportFrame(ctx, req); err != nil {
		return req, fmt.Errorf("export frame: %w", err)
	}
	return req, nil
}

// frameLabelLocked describes the current position on the selected layer.
func (c *Controller) frameLabelLocked() string {
	l := c.layers.Selected()
	return fmt.Sprintf("%.3fs  %gfps #%s", c.currentTime, l.FrameRate(),
		formatFrame(c.currentTime, l.FrameRate(), c.startOffset))
}
