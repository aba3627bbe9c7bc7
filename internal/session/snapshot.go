package session

import (
	"fmt"

	"github.com/starford/komaokuri/internal/apperr"
	"github.com/starford/komaokuri/internal/frametime"
	"github.com/starford/komaokuri/internal/keymap"
	"github.com/starford/komaokuri/internal/settings"
)

// LayerView is the read-only view of one layer.
type LayerView struct {
	Index        int     `json:"index"`
	FrameRate    float64 `json:"frameRate"`
	FrameCount   int     `json:"frameCount"`
	Bookmarks    []int   `json:"bookmarks"`
	CurrentFrame int     `json:"currentFrame"`
	FrameLabel   string  `json:"frameLabel"`
	Bookmarked   bool    `json:"bookmarked"`
	Selected     bool    `json:"selected"`
}

// Snapshot is the read-only view of a session.
type Snapshot struct {
	State       State                 `json:"state"`
	SessionID   string                `json:"sessionId,omitempty"`
	VideoName   string                `json:"videoName,omitempty"`
	Duration    float64               `json:"duration"`
	CurrentTime float64               `json:"currentTime"`
	StartOffset float64               `json:"startOffset"`
	Selected    int                   `json:"selected"`
	Speed       float64               `json:"speed"`
	Overlay     bool                  `json:"overlay"`
	Palette     settings.ColorPalette `json:"palette"`
	Shortcuts   keymap.Bindings       `json:"shortcuts"`
	Layers      []LayerView           `json:"layers"`
}

// Snapshot returns a copy of the session state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		State:       c.state,
		SessionID:   c.sessionID,
		VideoName:   c.videoName,
		Duration:    c.duration,
		CurrentTime: c.currentTime,
		StartOffset: c.startOffset,
		Selected:    c.layers.SelectedIndex(),
		Speed:       c.speed,
		Overlay:     c.overlay,
		Palette:     c.palette,
		Shortcuts:   c.bindings,
		Layers:      make([]LayerView, 0, c.layers.Len()),
	}
	for i, l := range c.layers.All() {
		v := LayerView{
			Index:        i,
			FrameRate:    l.FrameRate(),
			FrameCount:   l.Len(),
			Bookmarks:    l.Bookmarks(),
			CurrentFrame: -1,
			Selected:     i == s.Selected,
		}
		if c.state == Ready {
			v.CurrentFrame = c.engine.FrameIndex(l, c.currentTime, c.startOffset)
			v.FrameLabel = formatFrame(c.currentTime, l.FrameRate(), c.startOffset)
			v.Bookmarked = l.Bookmarked(v.CurrentFrame)
		}
		s.Layers = append(s.Layers, v)
	}
	return s
}

// Tick is one frame mark on a timeline row.
type Tick struct {
	Frame      int     `json:"frame"`
	Time       float64 `json:"time"`
	Position   float64 `json:"position"`
	Bookmarked bool    `json:"bookmarked"`
}

// TimelineView describes how to draw one layer row. Positions are percent
// of the row width.
type TimelineView struct {
	Layer     int                   `json:"layer"`
	FrameRate float64               `json:"frameRate"`
	Ticks     []Tick                `json:"ticks"`
	Indicator float64               `json:"indicator"`
	Palette   settings.ColorPalette `json:"palette"`
}

// Timeline returns the tick layout of layer index.
func (c *Controller) Timeline(index int) (TimelineView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireReady(); err != nil {
		return TimelineView{}, err
	}
	l, err := c.layers.At(index)
	if err != nil {
		return TimelineView{}, err
	}
	times := l.Times()
	v := TimelineView{
		Layer:     index,
		FrameRate: l.FrameRate(),
		Ticks:     make([]Tick, len(times)),
		Indicator: frametime.TickPosition(c.currentTime, c.duration),
		Palette:   c.palette,
	}
	for i, t := range times {
		v.Ticks[i] = Tick{
			Frame:      i,
			Time:       t,
			Position:   frametime.TickPosition(t, c.duration),
			Bookmarked: l.Bookmarked(i),
		}
	}
	return v, nil
}

// FrameTimes returns up to limit frame times of layer index starting at
// frame from. A non-positive limit returns the rest of the sequence.
func (c *Controller) FrameTimes(index, from, limit int) ([]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireReady(); err != nil {
		return nil, err
	}
	l, err := c.layers.At(index)
	if err != nil {
		return nil, err
	}
	times := l.Times()
	if from < 0 {
		return nil, fmt.Errorf("%w: from must be non-negative", apperr.ErrInvalidInput)
	}
	if from >= len(times) {
		return []float64{}, nil
	}
	end := len(times)
	if limit > 0 {
		end = min(end, from+limit)
	}
	out := make([]float64, end-from)
	copy(out, times[from:end])
	return out, nil
}

func formatFrame(t, rate, offset float64) string {
	return frametime.FormatFrameNumber(t, rate, offset)
}
