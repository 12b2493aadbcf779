package param

import (
	"math"
	"testing"
)

const testRate = 1000.0

func TestSetValueAtTimeLandsOnFrame(t *testing.T) {
	p := New(0, 0, 1)
	p.SetValueAtTime(1, FrameTime(37, testRate))

	buf := make([]float64, 64)
	if p.Fill(buf, 0, testRate) {
		t.Fatal("Fill reported constant block across a scheduled step")
	}

	for i, v := range buf {
		want := 0.0
		if i >= 37 {
			want = 1
		}

		if v != want {
			t.Fatalf("frame %d = %v, want %v", i, v, want)
		}
	}

	if p.Pending() {
		t.Fatal("step event not consumed")
	}
}

func TestFillConstantFastPath(t *testing.T) {
	p := New(0.5, 0, 1)
	p.SetValueAtTime(1, FrameTime(500, testRate))

	buf := make([]float64, 128)
	if !p.Fill(buf, 0, testRate) {
		t.Fatal("block before the event should be constant")
	}

	if buf[127] != 0.5 {
		t.Fatalf("value = %v, want 0.5", buf[127])
	}
}

func TestLinearRamp(t *testing.T) {
	p := Unbounded(0)
	p.SetValueAtTime(0, 0)
	p.LinearRampToValueAtTime(10, 1)

	tests := []struct {
		at   float64
		want float64
	}{
		{at: 0, want: 0},
		{at: 0.25, want: 2.5},
		{at: 0.5, want: 5},
		{at: 1, want: 10},
		{at: 2, want: 10},
	}

	for _, tt := range tests {
		if got := p.ValueAt(tt.at); math.Abs(got-tt.want) > 1e-9 {
			t.Fatalf("ValueAt(%v) = %v, want %v", tt.at, got, tt.want)
		}
	}
}

func TestSetTargetApproachesAndSettles(t *testing.T) {
	p := Unbounded(0)
	p.SetTargetAtTime(1, 0, 0.01)

	if got := p.ValueAt(0.01); math.Abs(got-(1-math.Exp(-1))) > 1e-9 {
		t.Fatalf("value after one time constant = %v", got)
	}

	if got := p.ValueAt(1); got != 1 {
		t.Fatalf("value after settling = %v, want 1", got)
	}

	if p.Pending() {
		t.Fatal("settled target should complete")
	}
}

func TestTargetEndedByLaterEvent(t *testing.T) {
	p := Unbounded(0)
	p.SetTargetAtTime(1, 0, 10)
	p.SetValueAtTime(-1, 0.5)

	if got := p.ValueAt(0.6); got != -1 {
		t.Fatalf("value = %v, want -1", got)
	}
}

func TestCancelScheduledValues(t *testing.T) {
	p := Unbounded(2)
	p.SetValueAtTime(3, 1)
	p.SetValueAtTime(4, 2)
	p.CancelScheduledValues(1.5)

	if got := p.Final(); got != 3 {
		t.Fatalf("Final() = %v, want 3", got)
	}

	p.ValueAt(5)
	if got := p.Value(); got != 3 {
		t.Fatalf("Value() = %v, want 3", got)
	}
}

func TestEventsAtEqualTimesKeepOrder(t *testing.T) {
	p := Unbounded(0)
	p.SetValueAtTime(1, 1)
	p.SetValueAtTime(2, 1)

	if got := p.ValueAt(1); got != 2 {
		t.Fatalf("value = %v, want the later-issued 2", got)
	}
}

func TestClampToRange(t *testing.T) {
	p := New(5, 0, 1)
	if p.Value() != 1 {
		t.Fatalf("initial value = %v, want clamped 1", p.Value())
	}

	p.SetValue(-3)
	if p.Value() != 0 {
		t.Fatalf("value = %v, want clamped 0", p.Value())
	}
}

func TestSetValueIsIdempotent(t *testing.T) {
	a, b := Unbounded(0), Unbounded(0)
	a.SetValue(0.7)
	b.SetValue(0.7)
	b.SetValue(0.7)

	if a.Value() != b.Value() || a.Pending() != b.Pending() {
		t.Fatal("repeating SetValue changed the resulting state")
	}
}
