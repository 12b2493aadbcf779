package resample

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/mixdesk/internal/testutil"
)

func TestNewValidates(t *testing.T) {
	for _, rates := range [][2]float64{{0, 48000}, {44100, -1}, {math.NaN(), 48000}, {44100, math.Inf(1)}} {
		if _, err := New(rates[0], rates[1]); !errors.Is(err, ErrInvalidRate) {
			t.Errorf("New(%v, %v) err = %v", rates[0], rates[1], err)
		}
	}
}

func TestRatio(t *testing.T) {
	tests := []struct {
		in, out  float64
		up, down int
	}{
		{44100, 48000, 160, 147},
		{48000, 44100, 147, 160},
		{48000, 96000, 2, 1},
		{22050, 22050, 1, 1},
	}

	for _, tt := range tests {
		c, err := New(tt.in, tt.out)
		if err != nil {
			t.Fatal(err)
		}

		if up, down := c.Ratio(); up != tt.up || down != tt.down {
			t.Errorf("%v->%v: ratio %d/%d, want %d/%d", tt.in, tt.out, up, down, tt.up, tt.down)
		}
	}
}

func TestConvertLength(t *testing.T) {
	c, err := New(44100, 48000)
	if err != nil {
		t.Fatal(err)
	}

	if got := len(c.Convert(make([]float64, 44100))); got != 48000 {
		t.Fatalf("len = %d, want 48000", got)
	}

	if got := c.OutputLen(0); got != 0 {
		t.Fatalf("OutputLen(0) = %d", got)
	}
}

func TestConvertEqualRatesCopies(t *testing.T) {
	c, err := New(48000, 48000)
	if err != nil {
		t.Fatal(err)
	}

	x := testutil.DeterministicNoise(1, 1, 100)
	testutil.RequireSliceNearlyEqual(t, c.Convert(x), x, 0)
}

func TestConvertPreservesTone(t *testing.T) {
	tests := []struct{ in, out float64 }{
		{44100, 48000},
		{48000, 44100},
		{32000, 48000},
	}

	for _, tt := range tests {
		c, err := New(tt.in, tt.out)
		if err != nil {
			t.Fatal(err)
		}

		x := testutil.DeterministicSine(1000, tt.in, 0.5, int(tt.in/2))
		y := c.Convert(x)
		want := testutil.DeterministicSine(1000, tt.out, 0.5, len(y))

		// Compare away from the edges, where the filter sees zeros.
		mid := y[len(y)/4 : 3*len(y)/4]
		ref := want[len(y)/4 : 3*len(y)/4]

		if d := testutil.MaxAbsDiff(mid, ref); d > 1e-3 {
			t.Errorf("%v->%v: max deviation %v", tt.in, tt.out, d)
		}
	}
}

func TestApproximateRatio(t *testing.T) {
	num, den := approximateRatio(48000.0/44100.0, MaxDenominator)
	if num != 160 || den != 147 {
		t.Fatalf("ratio = %d/%d", num, den)
	}

	if num, den := approximateRatio(math.NaN(), MaxDenominator); num != 1 || den != 1 {
		t.Fatalf("NaN ratio = %d/%d", num, den)
	}
}
