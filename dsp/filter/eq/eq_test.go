package eq

import (
	"math"
	"testing"

	"github.com/cwbudde/mixdesk/dsp/filter/design"
	"github.com/cwbudde/mixdesk/internal/testutil"
)

const sr = 48000.0

func neutralBands() []Settings {
	return []Settings{
		{Kind: design.KindLowShelf, FrequencyHz: 100, Q: 1},
		{Kind: design.KindPeaking, FrequencyHz: 1000, Q: 1},
		{Kind: design.KindHighShelf, FrequencyHz: 8000, Q: 1},
	}
}

func TestNeutralStageIsIdentity(t *testing.T) {
	s := NewStage(neutralBands(), sr, 2)
	sig := testutil.DeterministicNoise(7, 0.8, 1024)
	block := testutil.Planar(sig, 2)

	s.Process(block, 0)

	testutil.RequireSliceNearlyEqual(t, block[0], sig, 0)
	testutil.RequireSliceNearlyEqual(t, block[1], sig, 0)
}

func TestFrequencyResponseSumsNodes(t *testing.T) {
	bands := neutralBands()
	bands[0].GainDB = 6
	bands[1].GainDB = -3
	s := NewStage(bands, sr, 1)

	freqs := []float64{50, 1000, 15000}
	got := s.FrequencyResponseDB(freqs)

	for i, f := range freqs {
		want := 0.0
		for _, b := range bands {
			c := design.ForKind(b.Kind, b.FrequencyHz, b.Q, b.GainDB, sr)
			want += c.MagnitudeDB(f, sr)
		}

		testutil.RequireNearlyEqual(t, "response", got[i], want, 1e-9)
	}
}

func TestResponseUsesTargetWhileSmoothing(t *testing.T) {
	s := NewStage(neutralBands(), sr, 1)
	s.SetBand(1, Settings{Kind: design.KindPeaking, FrequencyHz: 1000, Q: 1, GainDB: 12}, 0, 0.01)

	got := s.FrequencyResponseDB([]float64{1000})[0]
	testutil.RequireNearlyEqual(t, "response at 1 kHz", got, 12, 0.05)
}

func TestSmoothedGainChangeHasNoStep(t *testing.T) {
	n := NewNode(Settings{Kind: design.KindPeaking, FrequencyHz: 1000, Q: 1}, sr, 1)

	const frames = 4800
	sig := testutil.DeterministicSine(1000, sr, 0.5, frames)
	block := [][]float64{append([]float64(nil), sig...)}

	n.Apply(Settings{Kind: design.KindPeaking, FrequencyHz: 1000, Q: 1, GainDB: 12}, 0, 0.01)

	for off := 0; off < frames; off += 128 {
		n.Process([][]float64{block[0][off:min(off+128, frames)]}, int64(off))
	}

	// A sine at the center frequency grows smoothly; the largest
	// sample-to-sample difference stays near the unfiltered slope times the
	// final gain.
	maxStep := 0.0
	for i := 1; i < frames; i++ {
		maxStep = math.Max(maxStep, math.Abs(block[0][i]-block[0][i-1]))
	}

	slope := 0.5 * 2 * math.Pi * 1000 / sr * math.Pow(10, 12.0/20)
	if maxStep > slope*1.1 {
		t.Fatalf("max step %v exceeds smooth bound %v", maxStep, slope*1.1)
	}

	if got := n.Gain().Value(); math.Abs(got-12) > 1e-3 {
		t.Fatalf("gain after 100 ms = %v, want ~12", got)
	}
}

func TestQPersistsAcrossKindChanges(t *testing.T) {
	n := NewNode(Settings{Kind: design.KindPeaking, FrequencyHz: 1000, Q: 4, GainDB: 6}, sr, 1)
	peaking := n.Coefficients()

	n.SetKind(design.KindLowShelf)
	if n.Q().Value() != 4 {
		t.Fatalf("Q = %v after switching to a shelf", n.Q().Value())
	}

	n.SetKind(design.KindPeaking)
	if n.Coefficients() != peaking {
		t.Fatal("switching back did not restore the Q-dependent response")
	}
}

func TestApplyLeavesUnchangedParams(t *testing.T) {
	n := NewNode(Settings{Kind: design.KindPeaking, FrequencyHz: 1000, Q: 2, GainDB: 3}, sr, 1)
	n.Apply(Settings{Kind: design.KindPeaking, FrequencyHz: 1000, Q: 2, GainDB: 3}, 0, 0.01)

	if n.Frequency().Pending() || n.Q().Pending() || n.Gain().Pending() {
		t.Fatal("re-applying identical settings scheduled events")
	}
}

func TestLaterApplyReplacesPending(t *testing.T) {
	n := NewNode(Settings{Kind: design.KindPeaking, FrequencyHz: 1000, Q: 1}, sr, 1)

	n.Apply(Settings{Kind: design.KindPeaking, FrequencyHz: 1000, Q: 1, GainDB: 6}, 0.5, 0.01)
	n.Apply(Settings{Kind: design.KindPeaking, FrequencyHz: 2000, Q: 1}, 0.5, 0.01)

	if n.Gain().Pending() {
		t.Fatal("gain change reverted in the same quantum is still scheduled")
	}

	if n.Gain().Final() != 0 || n.Frequency().Final() != 2000 {
		t.Fatalf("final gain=%v freq=%v", n.Gain().Final(), n.Frequency().Final())
	}
}

func TestNodeGrowsChannels(t *testing.T) {
	n := NewNode(Settings{Kind: design.KindLowpass, FrequencyHz: 500, Q: 1}, sr, 1)
	block := [][]float64{testutil.DeterministicNoise(1, 1, 64), testutil.DeterministicNoise(1, 1, 64)}
	n.Process(block, 0)

	testutil.RequireSliceNearlyEqual(t, block[0], block[1], 0)
}
