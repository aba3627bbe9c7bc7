// Package navigate computes frame and bookmark navigation targets.
//
// Nothing here mutates a layer or seeks a player: each function returns the
// time to seek to and the caller decides what to do with it.
package navigate

import (
	"fmt"
	"sort"

	"github.com/starford/komaokuri/internal/apperr"
	"github.com/starford/komaokuri/internal/frametime"
	"github.com/starford/komaokuri/internal/layer"
)

// Direction is a navigation direction along the time axis.
type Direction int

// Navigation directions.
const (
	Forward Direction = iota
	Backward
)

// ParseDirection accepts "forward"/"next" and "backward"/"prev".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "forward", "next":
		return Forward, nil
	case "backward", "prev", "previous":
		return Backward, nil
	}
	return 0, fmt.Errorf("%w: direction must be forward or backward, got %q", apperr.ErrInvalidInput, s)
}

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

func (d Direction) step() int {
	if d == Backward {
		return -1
	}
	return 1
}

// Engine performs navigation with a specific frame-index calculator.
type Engine struct {
	calc frametime.Calculator
}

// NewEngine creates an Engine using calc to map times to frame indices.
func NewEngine(calc frametime.Calculator) Engine {
	return Engine{calc: calc}
}

// Calculator returns the engine's frame-index calculator.
func (e Engine) Calculator() frametime.Calculator { return e.calc }

// FrameIndex returns the index of the frame showing at currentTime on l.
func (e Engine) FrameIndex(l *layer.Layer, currentTime, startOffset float64) int {
	return e.calc.Index(currentTime, l.FrameRate(), startOffset)
}

// NextFrameTime returns the time of the frame adjacent to the one showing at
// currentTime. ok is false when that frame is outside the layer.
func (e Engine) NextFrameTime(l *layer.Layer, currentTime, startOffset float64, dir Direction) (t float64, ok bool) {
	idx := e.FrameIndex(l, currentTime, startOffset) + dir.step()
	return l.Times().At(idx)
}

// NextBookmarkTime returns the time of the nearest bookmark strictly after
// (Forward) or before (Backward) the frame showing at currentTime.
func (e Engine) NextBookmarkTime(l *layer.Layer, currentTime, startOffset float64, dir Direction) (t float64, ok bool) {
	marks := l.Bookmarks()
	if len(marks) == 0 {
		return 0, false
	}
	cur := e.FrameIndex(l, currentTime, startOffset)

	var target int
	if dir == Forward {
		i := sort.SearchInts(marks, cur+1)
		if i == len(marks) {
			return 0, false
		}
		target = marks[i]
	} else {
		i := sort.SearchInts(marks, cur) - 1
		if i < 0 {
			return 0, false
		}
		target = marks[i]
	}
	return l.Times().At(target)
}

// TimeFromClickPosition maps a click at fraction of the timeline width to the
// start of the frame under it, or to the raw click time when no frame starts
// at or before it.
func TimeFromClickPosition(l *layer.Layer, duration, fraction float64) float64 {
	fraction = min(max(fraction, 0), 1)
	clickTime := fraction * duration
	times := l.Times()
	i := sort.Search(len(times), func(i int) bool { return times[i] > clickTime })
	if i == 0 {
		return clickTime
	}
	return times[i-1]
}

var defaultEngine = NewEngine(frametime.NewCalculator(frametime.DefaultTolerance))

// NextFrameTime is Engine.NextFrameTime with the default tolerance.
func NextFrameTime(l *layer.Layer, currentTime, startOffset float64, dir Direction) (float64, bool) {
	return defaultEngine.NextFrameTime(l, currentTime, startOffset, dir)
}

// NextBookmarkTime is Engine.NextBookmarkTime with the default tolerance.
func NextBookmarkTime(l *layer.Layer, currentTime, startOffset float64, dir Direction) (float64, bool) {
	return defaultEngine.NextBookmarkTime(l, currentTime, startOffset, dir)
}
