package frametime

import (
	"math"
	"testing"
)

func TestTimes_24fpsOneSecond(t *testing.T) {
	seq := Times(24, 1.0, 0.001)
	if seq.Len() != 24 {
		t.Fatalf("len = %d, want 24", seq.Len())
	}
	if seq[0] != 0.001 {
		t.Errorf("first = %v, want 0.001", seq[0])
	}
	if math.Abs(seq[1]-0.042666666) > 1e-6 {
		t.Errorf("second = %v, want ~0.04267", seq[1])
	}
	if math.Abs(seq[2]-0.084333333) > 1e-6 {
		t.Errorf("third = %v, want ~0.08433", seq[2])
	}
	if seq[23] > 1.0 {
		t.Errorf("last = %v exceeds duration", seq[23])
	}
}

func TestTimes_Properties(t *testing.T) {
	cases := []struct {
		rate, duration, offset float64
	}{
		{24, 1, 0.001},
		{23.99, 12.345, 0.001},
		{30, 60, 0},
		{29.97, 3.2, 0.5},
		{1, 10, 10},
		{59.94, 0.2, 0.0001},
		{120, 7.77, 0.033},
	}
	for _, tc := range cases {
		seq := Times(tc.rate, tc.duration, tc.offset)
		if len(seq) == 0 {
			t.Fatalf("Times(%v, %v, %v) is empty", tc.rate, tc.duration, tc.offset)
		}
		if seq[0] != tc.offset {
			t.Errorf("rate %v: first = %v, want %v", tc.rate, seq[0], tc.offset)
		}
		last := seq[len(seq)-1]
		if last > tc.duration {
			t.Errorf("rate %v: last %v > duration %v", tc.rate, last, tc.duration)
		}
		if last <= tc.duration-1/tc.rate {
			t.Errorf("rate %v: last %v <= duration-1/rate %v", tc.rate, last, tc.duration-1/tc.rate)
		}
		for i := 1; i < len(seq); i++ {
			if seq[i] <= seq[i-1] {
				t.Fatalf("rate %v: not strictly increasing at %d", tc.rate, i)
			}
		}
		for i, ts := range seq {
			if want := tc.offset + float64(i)/tc.rate; math.Abs(ts-want) > 1e-9 {
				t.Fatalf("rate %v: seq[%d] = %v, want %v", tc.rate, i, ts, want)
			}
			if got := Index(ts, tc.rate, tc.offset); got != i {
				t.Fatalf("rate %v: Index(seq[%d]) = %d", tc.rate, i, got)
			}
		}
	}
}

func TestTimes_OffsetBeyondDuration(t *testing.T) {
	if seq := Times(24, 0, 0.001); len(seq) != 0 {
		t.Errorf("len = %d, want 0", len(seq))
	}
	if seq := Times(24, 1, 2); len(seq) != 0 {
		t.Errorf("len = %d, want 0", len(seq))
	}
}

func TestTimes_PanicsOnInvalidRate(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for zero frame rate")
		}
	}()
	Times(0, 1, 0)
}

func TestIndex(t *testing.T) {
	if got := Index(0.5, 24, 0.001); got != 11 {
		t.Errorf("Index(0.5, 24, 0.001) = %d, want 11", got)
	}
	// 0.995 of the way into frame 11 counts as frame 12.
	if got := Index(0.001+11.995/24, 24, 0.001); got != 12 {
		t.Errorf("near-boundary index = %d, want 12", got)
	}
	if got := Index(0, 24, 0.5); got >= 0 {
		t.Errorf("time before offset = %d, want negative", got)
	}
}

func TestCalculator_Tolerance(t *testing.T) {
	c := NewCalculator(0.5)
	if got := c.Index(0.001+11.6/24, 24, 0.001); got != 12 {
		t.Errorf("tolerance 0.5: index = %d, want 12", got)
	}
	if got := Index(0.001+11.6/24, 24, 0.001); got != 11 {
		t.Errorf("default tolerance: index = %d, want 11", got)
	}
	if NewCalculator(0).Tolerance() != DefaultTolerance {
		t.Error("zero tolerance should fall back to default")
	}
	if NewCalculator(1.5).Tolerance() != DefaultTolerance {
		t.Error("tolerance above 1 should fall back to default")
	}
}

func TestFrameNumber(t *testing.T) {
	if got := FormatFrameNumber(0.001, 24, 0.001); got != "1.000" {
		t.Errorf("first frame label = %q, want 1.000", got)
	}
	if got := FormatFrameNumber(0.5, 24, 0.001); got != "12.976" {
		t.Errorf("label = %q, want 12.976", got)
	}
}

func TestTickPosition(t *testing.T) {
	if got := TickPosition(5, 10); got != 50 {
		t.Errorf("TickPosition(5, 10) = %v, want 50", got)
	}
	if got := TickPosition(5, 0); got != 0 {
		t.Errorf("TickPosition with zero duration = %v, want 0", got)
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(24, 10, 0.001); err != nil {
		t.Errorf("valid input rejected: %v", err)
	}
	bad := [][3]float64{
		{0, 10, 0},
		{-1, 10, 0},
		{math.NaN(), 10, 0},
		{24, -1, 0},
		{24, 10, -0.1},
		{24, math.Inf(1), 0},
	}
	for _, b := range bad {
		if err := Validate(b[0], b[1], b[2]); err == nil {
			t.Errorf("Validate(%v) should fail", b)
		}
	}
}
