package layer

import (
	"errors"
	"slices"
	"testing"

	"github.com/starford/komaokuri/internal/apperr"
)

func TestNew(t *testing.T) {
	l := New(24, 1.0, 0.001)
	if l.Len() != 24 {
		t.Errorf("len = %d, want 24", l.Len())
	}
	if len(l.Bookmarks()) != 0 {
		t.Errorf("new layer has bookmarks: %v", l.Bookmarks())
	}
}

func TestToggle_SortedAndSelfInverse(t *testing.T) {
	l := New(24, 10, 0.001)
	for _, i := range []int{5, 1, 9, 3} {
		l.Toggle(i)
	}
	if got := l.Bookmarks(); !slices.Equal(got, []int{1, 3, 5, 9}) {
		t.Fatalf("bookmarks = %v, want [1 3 5 9]", got)
	}

	before := l.Bookmarks()
	l.Toggle(7)
	l.Toggle(7)
	if got := l.Bookmarks(); !slices.Equal(got, before) {
		t.Errorf("double toggle = %v, want %v", got, before)
	}

	l.Toggle(3)
	if l.Bookmarked(3) {
		t.Error("3 should be removed")
	}
	l.Toggle(-1)
	if got := l.Bookmarks(); !slices.Equal(got, []int{1, 5, 9}) {
		t.Errorf("negative toggle changed bookmarks: %v", got)
	}
}

func TestRebuild_DropsOutOfRange(t *testing.T) {
	l := New(24, 10, 0.001)
	l.Toggle(10)
	l.Toggle(200)
	l.Rebuild(5, 0.001)
	if got := l.Bookmarks(); !slices.Equal(got, []int{10}) {
		t.Errorf("bookmarks = %v, want [10]", got)
	}
	if l.Len() != 120 {
		t.Errorf("len = %d, want 120", l.Len())
	}
}

func TestSetFrameRate_Policies(t *testing.T) {
	build := func() *Layer {
		l := New(24, 10, 0.001)
		l.Toggle(24)  // t = 1.001
		l.Toggle(48)  // t = 2.001
		l.Toggle(239) // last frame
		return l
	}

	l := build()
	l.SetFrameRate(30, 10, 0.001, PolicyRemap)
	if got := l.Bookmarks(); !slices.Equal(got, []int{30, 60, 298}) {
		t.Errorf("remap = %v, want [30 60 298]", got)
	}
	if l.FrameRate() != 30 || l.Len() != 300 {
		t.Errorf("rate/len = %v/%d", l.FrameRate(), l.Len())
	}

	l = build()
	l.SetFrameRate(12, 10, 0.001, PolicyKeep)
	if got := l.Bookmarks(); !slices.Equal(got, []int{24, 48}) {
		t.Errorf("keep = %v, want [24 48]", got)
	}

	l = build()
	l.SetFrameRate(30, 10, 0.001, PolicyClear)
	if got := l.Bookmarks(); len(got) != 0 {
		t.Errorf("clear = %v, want empty", got)
	}
}

func TestSetBookmarks(t *testing.T) {
	l := New(24, 1, 0.001)
	l.SetBookmarks([]int{5, 2, 5, 99, -3})
	if got := l.Bookmarks(); !slices.Equal(got, []int{2, 5}) {
		t.Errorf("bookmarks = %v, want [2 5]", got)
	}
}

func TestClone_Independent(t *testing.T) {
	l := New(24, 1, 0.001)
	l.Toggle(2)
	c := l.Clone()
	c.Toggle(3)
	if l.Bookmarked(3) {
		t.Error("clone shares bookmark storage")
	}
}

func TestCollection_MoveUpSelectsMovedLayer(t *testing.T) {
	c := NewCollection([]float64{10, 20, 30}, 0, 1, 0)
	if err := c.Move(1, Up); err != nil {
		t.Fatal(err)
	}
	if got := c.Rates(); !slices.Equal(got, []float64{20, 10, 30}) {
		t.Errorf("rates = %v, want [20 10 30]", got)
	}
	if c.SelectedIndex() != 0 {
		t.Errorf("selected = %d, want 0", c.SelectedIndex())
	}
}

func TestCollection_MoveBoundariesAreNoOps(t *testing.T) {
	c := NewCollection([]float64{10, 20, 30}, 0, 1, 0)
	_ = c.Select(1)
	_ = c.Move(0, Up)
	_ = c.Move(2, Down)
	if got := c.Rates(); !slices.Equal(got, []float64{10, 20, 30}) {
		t.Errorf("rates = %v, want unchanged", got)
	}
	if c.SelectedIndex() != 1 {
		t.Errorf("selected = %d, want 1", c.SelectedIndex())
	}
	if err := c.Move(5, Down); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("out-of-range move err = %v", err)
	}
}

func TestCollection_RemoveClampsSelection(t *testing.T) {
	c := NewCollection([]float64{10, 20, 30}, 0, 1, 0)
	_ = c.Select(2)
	if err := c.Remove(2); err != nil {
		t.Fatal(err)
	}
	if c.SelectedIndex() != 1 {
		t.Errorf("selected = %d, want 1", c.SelectedIndex())
	}
}

func TestCollection_RemoveBelowSelectionKeepsTarget(t *testing.T) {
	c := NewCollection([]float64{10, 20, 30}, 0, 1, 0)
	_ = c.Select(2)
	_ = c.Remove(0)
	if c.Selected().FrameRate() != 30 {
		t.Errorf("selected rate = %v, want 30", c.Selected().FrameRate())
	}
}

func TestCollection_RemoveOnlyLayer(t *testing.T) {
	c := NewCollection([]float64{24}, 0, 1, 0)
	if err := c.Remove(0); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}

func TestCollection_AddClonesLastRate(t *testing.T) {
	c := NewCollection([]float64{23.99, 30}, 0, 1, 0.001)
	idx := c.Add(1, 0.001)
	l, _ := c.At(idx)
	if idx != 2 || l.FrameRate() != 30 {
		t.Errorf("added %d at %vfps, want index 2 at 30fps", idx, l.FrameRate())
	}

	empty := NewCollection(nil, 25, 1, 0)
	idx = empty.Add(1, 0)
	l, _ = empty.At(idx)
	if l.FrameRate() != 25 {
		t.Errorf("default rate = %v, want 25", l.FrameRate())
	}
}

func TestCollection_SelectRelativeWraps(t *testing.T) {
	c := NewCollection([]float64{10, 20, 30}, 0, 1, 0)
	c.SelectRelative(-1)
	if c.SelectedIndex() != 2 {
		t.Errorf("selected = %d, want 2", c.SelectedIndex())
	}
	c.SelectRelative(1)
	if c.SelectedIndex() != 0 {
		t.Errorf("selected = %d, want 0", c.SelectedIndex())
	}
}
