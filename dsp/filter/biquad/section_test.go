package biquad

import (
	"math"
	"math/cmplx"
	"testing"
)

const eps = 1e-12

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func traced() Coefficients {
	return Coefficients{B0: 0.25, B1: 0.5, B2: 0.25, A1: -0.2, A2: 0.04}
}

func TestProcessSample_DFIIT(t *testing.T) {
	// Hand-traced impulse response for B0=0.25, B1=0.5, B2=0.25, A1=-0.2, A2=0.04.
	s := NewSection(traced())

	want := []float64{0.25, 0.55, 0.35, 0.048, -0.0044}
	for i, w := range want {
		var x float64
		if i == 0 {
			x = 1
		}

		if y := s.ProcessSample(x); !almostEqual(y, w, eps) {
			t.Fatalf("y[%d] = %v, want %v", i, y, w)
		}
	}
}

func TestProcessBlockMatchesSampleLoop(t *testing.T) {
	for _, n := range []int{1, 2, 7, 128} {
		a := NewSection(traced())
		b := NewSection(traced())

		buf := make([]float64, n)
		for i := range buf {
			buf[i] = math.Sin(float64(i) * 0.3)
		}

		want := make([]float64, n)
		for i, x := range buf {
			want[i] = a.ProcessSample(x)
		}

		b.ProcessBlock(buf)

		for i := range buf {
			if !almostEqual(buf[i], want[i], eps) {
				t.Fatalf("n=%d sample %d: block=%v sample=%v", n, i, buf[i], want[i])
			}
		}

		if a.State() != b.State() {
			t.Fatalf("n=%d: state mismatch %v vs %v", n, a.State(), b.State())
		}
	}
}

func TestSetCoefficientsKeepsState(t *testing.T) {
	s := NewSection(traced())
	s.ProcessSample(1)
	before := s.State()

	s.SetCoefficients(Identity())
	if s.State() != before {
		t.Fatal("SetCoefficients cleared the delay line")
	}
}

func TestImpulseResponseRestoresState(t *testing.T) {
	s := NewSection(traced())
	s.ProcessSample(0.5)
	saved := s.State()

	ir := s.ImpulseResponse(3)
	if !almostEqual(ir[1], 0.55, eps) {
		t.Fatalf("ir = %v", ir)
	}

	if s.State() != saved {
		t.Fatal("ImpulseResponse modified the section state")
	}
}

func TestMagnitudeSquaredMatchesResponse(t *testing.T) {
	c := traced()
	sr := 48000.0

	for _, freq := range []float64{100, 1000, 5000, 20000} {
		h := c.Response(freq, sr)
		fromResponse := real(h)*real(h) + imag(h)*imag(h)

		if got := c.MagnitudeSquared(freq, sr); !almostEqual(got, fromResponse, 1e-10) {
			t.Errorf("freq=%v: MagnitudeSquared=%v, |Response|^2=%v", freq, got, fromResponse)
		}

		if got := c.Phase(freq, sr); !almostEqual(got, cmplx.Phase(h), 1e-10) {
			t.Errorf("freq=%v: Phase=%v", freq, got)
		}
	}
}

func TestIdentityIsFlat(t *testing.T) {
	c := Identity()
	for _, freq := range []float64{20, 1000, 20000} {
		if db := c.MagnitudeDB(freq, 48000); !almostEqual(db, 0, eps) {
			t.Fatalf("identity at %v Hz = %v dB", freq, db)
		}
	}
}
