// Package frametime maps between playback time and discrete frame indices.
//
// Every function here is pure. Callers validate user input at the boundary
// (see Validate); Times panics on a non-positive frame rate because that is a
// programming error rather than a runtime condition.
package frametime

import (
	"fmt"
	"math"
	"strconv"
)

// DefaultStartOffset is the timestamp of frame 0 unless configured otherwise.
// It keeps the first frame clear of the exact-zero edge at video start.
const DefaultStartOffset = 0.001

// DefaultTolerance is the fractional remainder above which a time is treated
// as already being on the next frame.
const DefaultTolerance = 0.99

// Sequence is the ordered list of frame timestamps for one frame rate.
type Sequence []float64

// Len returns the number of frames.
func (s Sequence) Len() int { return len(s) }

// At returns the timestamp of frame i and whether i is in range.
func (s Sequence) At(i int) (float64, bool) {
	if i < 0 || i >= len(s) {
		return 0, false
	}
	return s[i], true
}

// Times returns every frame timestamp startOffset + i/frameRate that does not
// exceed duration. The result is empty when startOffset > duration.
func Times(frameRate, duration, startOffset float64) Sequence {
	if !(frameRate > 0) || math.IsInf(frameRate, 0) {
		panic(fmt.Sprintf("frametime: invalid frame rate %v", frameRate))
	}
	if startOffset > duration {
		return Sequence{}
	}

	n := int(math.Floor((duration-startOffset)*frameRate)) + 1
	seq := make(Sequence, 0, n+1)
	for i := 0; ; i++ {
		t := startOffset + float64(i)/frameRate
		if t > duration {
			break
		}
		seq = append(seq, t)
	}
	return seq
}

// Calculator converts times to frame indices with a configurable boundary
// tolerance. The zero value is not usable; use NewCalculator.
type Calculator struct {
	tolerance float64
}

// NewCalculator returns a Calculator using the given tolerance. Values outside
// (0, 1] fall back to DefaultTolerance.
func NewCalculator(tolerance float64) Calculator {
	if !(tolerance > 0 && tolerance <= 1) {
		tolerance = DefaultTolerance
	}
	return Calculator{tolerance: tolerance}
}

// Tolerance returns the calculator's boundary tolerance.
func (c Calculator) Tolerance() float64 { return c.tolerance }

// Index returns the frame index that time falls on. A remainder above the
// tolerance rounds up to the next frame so decoder jitter just below a frame
// boundary does not report the previous frame. Negative results mean the time
// is before the first frame.
func (c Calculator) Index(time, frameRate, startOffset float64) int {
	raw := (time - startOffset) * frameRate
	base := math.Floor(raw)
	if raw-base > c.tolerance {
		return int(base) + 1
	}
	return int(base)
}

var defaultCalculator = NewCalculator(DefaultTolerance)

// Index is Calculator.Index with DefaultTolerance.
func Index(time, frameRate, startOffset float64) int {
	return defaultCalculator.Index(time, frameRate, startOffset)
}

// FrameNumber returns the 1-based fractional frame number shown to reviewers.
func FrameNumber(time, frameRate, startOffset float64) float64 {
	return (time-startOffset)*frameRate + 1
}

// FormatFrameNumber renders FrameNumber with three decimals.
func FormatFrameNumber(time, frameRate, startOffset float64) string {
	return strconv.FormatFloat(FrameNumber(time, frameRate, startOffset), 'f', 3, 64)
}

// TickPosition returns where time sits on a timeline of the given duration,
// as a percentage.
func TickPosition(time, duration float64) float64 {
	if duration <= 0 {
		return 0
	}
	return time / duration * 100
}

// Validate checks the preconditions of Times.
func Validate(frameRate, duration, startOffset float64) error {
	switch {
	case math.IsNaN(frameRate) || math.IsInf(frameRate, 0) || frameRate <= 0:
		return fmt.Errorf("frame rate must be a positive number, got %v", frameRate)
	case math.IsNaN(duration) || math.IsInf(duration, 0) || duration < 0:
		return fmt.Errorf("duration must be a non-negative number, got %v", duration)
	case math.IsNaN(startOffset) || math.IsInf(startOffset, 0) || startOffset < 0:
		return fmt.Errorf("start offset must be a non-negative number, got %v", startOffset)
	}
	return nil
}
