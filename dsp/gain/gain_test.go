package gain

import (
	"math"
	"testing"

	"github.com/cwbudde/mixdesk/dsp/core"
	"github.com/cwbudde/mixdesk/dsp/param"
)

func TestConstantGain(t *testing.T) {
	n := New(core.DBToLinear(6))
	block := [][]float64{{1, -1, 0.5}, {0.25, 0, -0.5}}

	n.Process(block, 0, 48000)

	want := 1.9952623149688795
	if math.Abs(block[0][0]-want) > 1e-12 || math.Abs(block[1][2]+0.5*want) > 1e-12 {
		t.Fatalf("block = %v", block)
	}
}

func TestUnityLeavesBlockUntouched(t *testing.T) {
	n := New(1)
	block := [][]float64{{0.1, 0.2}}
	n.Process(block, 0, 48000)

	if block[0][0] != 0.1 || block[0][1] != 0.2 {
		t.Fatalf("unity gain changed samples: %v", block)
	}
}

func TestScheduledStepIsSampleAccurate(t *testing.T) {
	const rate = 1000.0

	n := New(0)
	n.Gain().SetValueAtTime(1, param.FrameTime(133, rate))

	quantum := 128
	var out []float64

	for frame := int64(0); frame < 256; frame += int64(quantum) {
		block := [][]float64{make([]float64, quantum)}
		for i := range block[0] {
			block[0][i] = 1
		}

		n.Process(block, frame, rate)
		out = append(out, block[0]...)
	}

	for i, v := range out {
		want := 0.0
		if i >= 133 {
			want = 1
		}

		if v != want {
			t.Fatalf("frame %d = %v, want %v", i, v, want)
		}
	}
}

func TestSilent(t *testing.T) {
	n := New(0)
	if !n.Silent() {
		t.Fatal("zero gain node should be silent")
	}

	n.Gain().SetValueAtTime(1, 1)
	if n.Silent() {
		t.Fatal("node with a pending change is not silent")
	}
}
