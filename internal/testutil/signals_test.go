package testutil

import (
	"math"
	"testing"
)

func TestDeterministicSineReproducible(t *testing.T) {
	a := DeterministicSine(440, 44100, 0.5, 100)
	b := DeterministicSine(440, 44100, 0.5, 100)

	RequireSliceNearlyEqual(t, a, b, 0)

	if math.Abs(a[0]) > 1e-15 {
		t.Fatalf("a[0] = %v, want 0", a[0])
	}
}

func TestToneEnergyDB(t *testing.T) {
	const sr = 48000.0

	sig := Mix(DeterministicSine(100, sr, 1, 48000), DeterministicSine(1000, sr, 0.1, 48000))

	// A unit sine correlates to amplitude/2, i.e. -6.02 dB.
	RequireNearlyEqual(t, "100 Hz", ToneEnergyDB(sig, 100, sr), -6.0206, 0.01)
	RequireNearlyEqual(t, "1 kHz", ToneEnergyDB(sig, 1000, sr), -26.0206, 0.01)

	if e := ToneEnergyDB(sig, 5000, sr); e > -80 {
		t.Fatalf("absent tone measured %v dB", e)
	}
}

func TestPlanarCopies(t *testing.T) {
	src := []float64{1, 2}
	p := Planar(src, 2)
	p[1][0] = 9

	if p[0][0] != 1 || src[0] != 1 {
		t.Fatal("Planar channels alias each other or the source")
	}
}
