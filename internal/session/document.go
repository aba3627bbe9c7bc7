package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/komaokuri/internal/apperr"
	"github.com/starford/komaokuri/internal/keymap"
	"github.com/starford/komaokuri/internal/settings"
)

// Export returns the portable settings of the session.
func (c *Controller) Export() settings.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exportLocked()
}

func (c *Controller) exportLocked() settings.Document {
	doc := settings.Document{
		Layers:       make([]settings.Layer, 0, c.layers.Len()),
		StartOffset:  c.startOffset,
		ColorPalette: c.palette,
		Shortcuts:    c.bindings,
	}
	for _, l := range c.layers.All() {
		doc.Layers = append(doc.Layers, settings.Layer{
			FrameRate:        l.FrameRate(),
			BookmarkedFrames: l.Bookmarks(),
		})
	}
	return doc
}

// Import replaces layers, bookmarks, start offset, palette and shortcuts
// with doc. Before the duration is known the layer part is held and applied
// by DurationKnown; palette and shortcuts take effect immediately.
func (c *Controller) Import(doc settings.Document) error {
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrMalformedSettings, err)
	}
	return c.update("settings", func() error {
		switch c.state {
		case NoVideo:
			return apperr.ErrNoVideo
		case MetadataPending:
			if err := c.applyAppearance(doc); err != nil {
				return err
			}
			c.pending = &doc
			c.logger.Info("settings held until duration is known",
				slog.String("session_id", c.sessionID))
			return nil
		}
		if err := c.applyDocument(doc); err != nil {
			return err
		}
		c.logger.Info("settings imported",
			slog.String("session_id", c.sessionID),
			slog.Int("layers", c.layers.Len()))
		return nil
	})
}

// SaveData hands the exported document to the settings sink.
func (c *Controller) SaveData(ctx context.Context) (settings.Document, error) {
	if c.sink == nil {
		return settings.Document{}, errors.New("settings sink is not configured")
	}
	c.mu.Lock()
	if c.state == NoVideo {
		c.mu.Unlock()
		return settings.Document{}, apperr.ErrNoVideo
	}
	doc := c.exportLocked()
	c.mu.Unlock()

	if err := c.sink.SaveSettings(ctx, doc); err != nil {
		return doc, fmt.Errorf("save settings: %w", err)
	}
	return doc, nil
}

// applyDocument installs a validated document. Requires the duration.
func (c *Controller) applyDocument(doc settings.Document) error {
	if doc.StartOffset > c.duration {
		return fmt.Errorf("%w: start offset %.3f exceeds duration %.3f",
			apperr.ErrInvalidInput, doc.StartOffset, c.duration)
	}
	if err := c.applyAppearance(doc); err != nil {
		return err
	}
	rates := make([]float64, len(doc.Layers))
	for i, l := range doc.Layers {
		rates[i] = l.FrameRate
	}
	c.startOffset = doc.StartOffset
	c.layers.Reset(rates, c.duration, c.startOffset)
	for i, l := range c.layers.All() {
		l.SetBookmarks(doc.Layers[i].BookmarkedFrames)
	}
	return nil
}

func (c *Controller) applyAppearance(doc settings.Document) error {
	keys, err := keymap.New(doc.Shortcuts)
	if err != nil {
		return fmt.Errorf("%w: shortcuts: %v", apperr.ErrMalformedSettings, err)
	}
	c.keys = keys
	c.bindings = doc.Shortcuts
	c.palette = doc.ColorPalette
	return nil
}
