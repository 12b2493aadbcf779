package dynamics

import (
	"math"
	"testing"

	"github.com/cwbudde/mixdesk/internal/testutil"
)

func TestMakeupGainLinear(t *testing.T) {
	tests := []struct {
		db   float64
		want float64
	}{
		{db: 0, want: 1},
		{db: 6, want: 1.9952623149688795},
		{db: -12, want: 0.25118864315095796},
		{db: math.Inf(-1), want: 0},
	}

	for _, smoothing := range []float64{0, 0.005} {
		for _, tt := range tests {
			b, err := NewBank(3, sr)
			if err != nil {
				t.Fatal(err)
			}

			b.SetMakeupGainDB(1, tt.db, 0, smoothing)

			// Run long enough for a smoothed change to settle.
			taps := make([][][]float64, 3)
			for q := int64(0); q < 40; q++ {
				for i := range taps {
					taps[i] = [][]float64{make([]float64, 128)}
				}

				b.Process(taps, q*128)
			}

			got := b.Makeup(1).Gain().Value()
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("smoothing=%v makeup %v dB: linear %v, want %v", smoothing, tt.db, got, tt.want)
			}
		}
	}
}

func TestBankSumsBands(t *testing.T) {
	b, err := NewBank(3, sr)
	if err != nil {
		t.Fatal(err)
	}

	for i := range 3 {
		if err := b.Compressor(i).SetRatio(1); err != nil {
			t.Fatal(err)
		}
	}

	b.SetMakeupGainDB(2, math.Inf(-1), 0, 0)

	a := testutil.DeterministicNoise(1, 0.5, 256)
	c := testutil.DeterministicNoise(2, 0.5, 256)
	d := testutil.DeterministicNoise(3, 0.5, 256)

	taps := [][][]float64{
		{append([]float64(nil), a...)},
		{append([]float64(nil), c...)},
		{append([]float64(nil), d...)},
	}

	sum := b.Process(taps, 0)

	// The third band is muted by -Inf makeup gain.
	testutil.RequireSliceNearlyEqual(t, sum[0], testutil.Mix(a, c), 1e-15)
}

func TestBankReductionPerBand(t *testing.T) {
	b, err := NewBank(3, sr)
	if err != nil {
		t.Fatal(err)
	}

	loud := testutil.DeterministicSine(100, sr, 1, 4800)
	silent := make([]float64, 4800)
	taps := [][][]float64{{loud}, {append([]float64(nil), silent...)}, {silent}}

	b.Process(taps, 0)

	if b.ReductionDB(0) >= -1 {
		t.Fatalf("loud band reduction = %v", b.ReductionDB(0))
	}

	if b.ReductionDB(1) != 0 || b.ReductionDB(2) != 0 {
		t.Fatalf("silent bands reduced: %v %v", b.ReductionDB(1), b.ReductionDB(2))
	}
}

func TestNewBankValidates(t *testing.T) {
	if _, err := NewBank(0, sr); err == nil {
		t.Fatal("expected error for zero bands")
	}

	if _, err := NewBank(3, 0); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
}

func TestMakeupGainLastChangeWins(t *testing.T) {
	b, err := NewBank(3, sr)
	if err != nil {
		t.Fatal(err)
	}

	b.SetMakeupGainDB(0, 6, 0.25, 0.005)
	b.SetMakeupGainDB(0, -6, 0.25, 0.005)

	p := b.Makeup(0).Gain()
	testutil.RequireNearlyEqual(t, "final makeup", p.Final(), 0.5011872336272722, 1e-12)

	b.SetMakeupGainDB(0, 0, 0.25, 0.005)
	if p.Pending() {
		t.Fatal("restoring the current makeup left an event scheduled")
	}
}
