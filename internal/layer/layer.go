// Package layer implements frame-rate layers and their bookmark sets.
//
// A Layer binds a frame rate to its derived frame-time sequence. The sequence
// is only ever recomputed as a whole through New, Rebuild or SetFrameRate, so
// it cannot drift from the parameters it was derived from.
package layer

import (
	"fmt"
	"slices"

	"github.com/starford/komaokuri/internal/frametime"
)

// DefaultFrameRate is used for new layers when nothing can be cloned.
const DefaultFrameRate = 24.0

// BookmarkPolicy decides what happens to bookmarks when a layer's frame rate
// changes.
type BookmarkPolicy string

// Bookmark policies.
const (
	// PolicyRemap moves each bookmark to the frame that contains the instant it
	// marked under the old rate.
	PolicyRemap BookmarkPolicy = "remap"
	// PolicyKeep keeps the stored indices as they are.
	PolicyKeep BookmarkPolicy = "keep"
	// PolicyClear drops every bookmark.
	PolicyClear BookmarkPolicy = "clear"
)

// Policies lists every valid bookmark policy.
var Policies = []BookmarkPolicy{PolicyRemap, PolicyKeep, PolicyClear}

// Layer is one frame-rate track with its own bookmarks.
type Layer struct {
	frameRate float64
	times     frametime.Sequence
	bookmarks []int
}

// New creates a layer with an empty bookmark set.
func New(frameRate, duration, startOffset float64) *Layer {
	return &Layer{
		frameRate: frameRate,
		times:     frametime.Times(frameRate, duration, startOffset),
		bookmarks: []int{},
	}
}

// FrameRate returns the layer's frame rate.
func (l *Layer) FrameRate() float64 { return l.frameRate }

// Times returns the derived frame timestamps. The slice must not be modified.
func (l *Layer) Times() frametime.Sequence { return l.times }

// Len returns the number of frames in the layer.
func (l *Layer) Len() int { return len(l.times) }

// Bookmarks returns a copy of the sorted bookmark indices.
func (l *Layer) Bookmarks() []int { return slices.Clone(l.bookmarks) }

// Bookmarked reports whether frameIndex is bookmarked.
func (l *Layer) Bookmarked(frameIndex int) bool {
	_, found := slices.BinarySearch(l.bookmarks, frameIndex)
	return found
}

// Rebuild recomputes the frame times for a new duration or start offset.
// Bookmarks that no longer point inside the sequence are dropped.
func (l *Layer) Rebuild(duration, startOffset float64) {
	l.times = frametime.Times(l.frameRate, duration, startOffset)
	l.dropOutOfRange()
}

// SetFrameRate changes the frame rate, recomputes the frame times and applies
// policy to the existing bookmarks.
func (l *Layer) SetFrameRate(frameRate, duration, startOffset float64, policy BookmarkPolicy) {
	old := l.times
	l.frameRate = frameRate
	l.times = frametime.Times(frameRate, duration, startOffset)

	switch policy {
	case PolicyClear:
		l.bookmarks = []int{}
	case PolicyKeep:
	default:
		remapped := make([]int, 0, len(l.bookmarks))
		for _, b := range l.bookmarks {
			t, ok := old.At(b)
			if !ok {
				continue
			}
			remapped = append(remapped, frametime.Index(t, frameRate, startOffset))
		}
		slices.Sort(remapped)
		l.bookmarks = slices.Compact(remapped)
	}
	l.dropOutOfRange()
}

// Toggle adds frameIndex to the bookmarks, or removes it when present.
// Negative indices are ignored.
func (l *Layer) Toggle(frameIndex int) {
	if frameIndex < 0 {
		return
	}
	i, found := slices.BinarySearch(l.bookmarks, frameIndex)
	if found {
		l.bookmarks = slices.Delete(l.bookmarks, i, i+1)
		return
	}
	l.bookmarks = slices.Insert(l.bookmarks, i, frameIndex)
}

// SetBookmarks replaces the bookmark set. Indices are sorted, deduplicated and
// range-checked against the current sequence.
func (l *Layer) SetBookmarks(frames []int) {
	b := slices.Clone(frames)
	slices.Sort(b)
	l.bookmarks = slices.Compact(b)
	if l.bookmarks == nil {
		l.bookmarks = []int{}
	}
	l.dropOutOfRange()
}

// Clone returns an independent copy of the layer.
func (l *Layer) Clone() *Layer {
	return &Layer{
		frameRate: l.frameRate,
		times:     slices.Clone(l.times),
		bookmarks: slices.Clone(l.bookmarks),
	}
}

func (l *Layer) String() string {
	return fmt.Sprintf("layer(%gfps, %d frames, %d bookmarks)", l.frameRate, len(l.times), len(l.bookmarks))
}

func (l *Layer) dropOutOfRange() {
	n := len(l.times)
	l.bookmarks = slices.DeleteFunc(l.bookmarks, func(b int) bool {
		return b < 0 || b >= n
	})
}
