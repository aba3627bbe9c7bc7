package layer

import (
	"fmt"

	"github.com/starford/komaokuri/internal/apperr"
)

// Direction is a reorder direction within a Collection.
type Direction int

// Reorder directions.
const (
	Up Direction = iota
	Down
)

// ParseDirection parses "up" or "down".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	}
	return 0, fmt.Errorf("%w: direction must be up or down, got %q", apperr.ErrInvalidInput, s)
}

func (d Direction) String() string {
	if d == Up {
		return "up"
	}
	return "down"
}

// Collection is the ordered, user-reorderable list of layers plus the index
// of the layer that navigation commands target.
type Collection struct {
	layers      []*Layer
	selected    int
	defaultRate float64
}

// NewCollection creates a collection with one layer per rate. defaultRate is
// used by Add when the collection is empty; zero means DefaultFrameRate.
func NewCollection(rates []float64, defaultRate, duration, startOffset float64) *Collection {
	if defaultRate <= 0 {
		defaultRate = DefaultFrameRate
	}
	c := &Collection{defaultRate: defaultRate}
	c.Reset(rates, duration, startOffset)
	return c
}

// Reset replaces every layer with fresh layers for rates and selects the first.
func (c *Collection) Reset(rates []float64, duration, startOffset float64) {
	c.layers = make([]*Layer, 0, len(rates))
	for _, r := range rates {
		c.layers = append(c.layers, New(r, duration, startOffset))
	}
	c.selected = 0
}

// Len returns the number of layers.
func (c *Collection) Len() int { return len(c.layers) }

// All returns the layers in display order. The slice must not be modified.
func (c *Collection) All() []*Layer { return c.layers }

// At returns the layer at index.
func (c *Collection) At(index int) (*Layer, error) {
	if err := c.checkIndex(index); err != nil {
		return nil, err
	}
	return c.layers[index], nil
}

// SelectedIndex returns the index of the selected layer.
func (c *Collection) SelectedIndex() int { return c.selected }

// Selected returns the selected layer, or nil for an empty collection.
func (c *Collection) Selected() *Layer {
	if len(c.layers) == 0 {
		return nil
	}
	return c.layers[c.selected]
}

// Select makes index the navigation target.
func (c *Collection) Select(index int) error {
	if err := c.checkIndex(index); err != nil {
		return err
	}
	c.selected = index
	return nil
}

// SelectRelative moves the selection by delta, wrapping around the ends.
func (c *Collection) SelectRelative(delta int) {
	n := len(c.layers)
	if n == 0 {
		return
	}
	c.selected = ((c.selected+delta)%n + n) % n
}

// Add appends a layer cloning the last layer's frame rate, or the default
// rate when the collection is empty. It returns the new layer's index.
func (c *Collection) Add(duration, startOffset float64) int {
	rate := c.defaultRate
	if n := len(c.layers); n > 0 {
		rate = c.layers[n-1].FrameRate()
	}
	c.layers = append(c.layers, New(rate, duration, startOffset))
	return len(c.layers) - 1
}

// Remove deletes the layer at index. The only remaining layer cannot be
// removed. The selection keeps pointing at the same layer when possible and
// is clamped to the new length otherwise.
func (c *Collection) Remove(index int) error {
	if err := c.checkIndex(index); err != nil {
		return err
	}
	if len(c.layers) == 1 {
		return fmt.Errorf("%w: cannot remove the only layer", apperr.ErrConflict)
	}
	c.layers = append(c.layers[:index], c.layers[index+1:]...)
	if index < c.selected {
		c.selected--
	}
	if c.selected >= len(c.layers) {
		c.selected = len(c.layers) - 1
	}
	return nil
}

// Move swaps the layer at index with its neighbour in direction dir and
// selects it at its new position. Moving past either end is a no-op.
func (c *Collection) Move(index int, dir Direction) error {
	if err := c.checkIndex(index); err != nil {
		return err
	}
	target := index - 1
	if dir == Down {
		target = index + 1
	}
	if target < 0 || target >= len(c.layers) {
		return nil
	}
	c.layers[index], c.layers[target] = c.layers[target], c.layers[index]
	c.selected = target
	return nil
}

// RebuildAll recomputes every layer's frame times.
func (c *Collection) RebuildAll(duration, startOffset float64) {
	for _, l := range c.layers {
		l.Rebuild(duration, startOffset)
	}
}

// Rates returns the frame rate of every layer in order.
func (c *Collection) Rates() []float64 {
	rates := make([]float64, len(c.layers))
	for i, l := range c.layers {
		rates[i] = l.FrameRate()
	}
	return rates
}

func (c *Collection) checkIndex(index int) error {
	if index < 0 || index >= len(c.layers) {
		return fmt.Errorf("%w: layer %d (have %d)", apperr.ErrNotFound, index, len(c.layers))
	}
	return nil
}
