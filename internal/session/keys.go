package session

import (
	"context"

	"github.com/starford/komaokuri/internal/keymap"
	"github.com/starford/komaokuri/internal/layer"
	"github.com/starford/komaokuri/internal/navigate"
)

// HandleKey resolves a raw key from the player and runs the bound command.
// Unbound keys report ok=false and do nothing.
func (c *Controller) HandleKey(ctx context.Context, key string) (cmd keymap.Command, ok bool, err error) {
	c.mu.Lock()
	keys := c.keys
	c.mu.Unlock()

	cmd, ok = keys.Resolve(key)
	if !ok {
		return cmd, false, nil
	}
	return cmd, true, c.dispatch(ctx, cmd)
}

func (c *Controller) dispatch(ctx context.Context, cmd keymap.Command) error {
	var err error
	switch cmd.Action {
	case keymap.PlayPause:
		err = c.TogglePlay()
	case keymap.FrameForward:
		_, err = c.StepFrame(navigate.Forward)
	case keymap.FrameBackward:
		_, err = c.StepFrame(navigate.Backward)
	case keymap.BookmarkToggle:
		_, err = c.ToggleBookmark()
	case keymap.BookmarkForward:
		_, err = c.StepBookmark(navigate.Forward)
	case keymap.BookmarkBackward:
		_, err = c.StepBookmark(navigate.Backward)
	case keymap.LayerNext:
		err = c.SelectRelative(1)
	case keymap.LayerPrev:
		err = c.SelectRelative(-1)
	case keymap.LayerMoveUp:
		err = c.moveSelected(layer.Up)
	case keymap.LayerMoveDown:
		err = c.moveSelected(layer.Down)
	case keymap.SaveFrame:
		_, err = c.SaveFrame(ctx)
	case keymap.SaveData:
		_, err = c.SaveData(ctx)
	case keymap.SpeedSlow:
		err = c.SetSpeed(c.cfg.Speeds.Slow)
	case keymap.SpeedNormal:
		err = c.SetSpeed(c.cfg.Speeds.Normal)
	case keymap.SpeedFast:
		err = c.SetSpeed(c.cfg.Speeds.Fast)
	case keymap.SkipForward:
		_, err = c.Skip(c.cfg.SkipSeconds)
	case keymap.SkipBackward:
		_, err = c.Skip(-c.cfg.SkipSeconds)
	case keymap.SelectLayer:
		err = c.selectIfPresent(cmd.Layer)
	}
	return err
}

func (c *Controller) moveSelected(dir layer.Direction) error {
	return c.update("layers", func() error {
		if err := c.requireReady(); err != nil {
			return err
		}
		return c.layers.Move(c.layers.SelectedIndex(), dir)
	})
}

// selectIfPresent ignores digit keys beyond the last layer.
func (c *Controller) selectIfPresent(index int) error {
	return c.update("layers", func() error {
		if err := c.requireReady(); err != nil {
			return err
		}
		if index < 0 || index >= c.layers.Len() {
			return nil
		}
		return c.layers.Select(index)
	})
}
