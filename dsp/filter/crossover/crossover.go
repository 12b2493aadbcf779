package crossover

import (
	"fmt"

	"github.com/cwbudde/mixdesk/dsp/core"
	"github.com/cwbudde/mixdesk/dsp/filter/design"
	"github.com/cwbudde/mixdesk/dsp/filter/eq"
)

// Tap indexes the splitter outputs.
type Tap int

const (
	TapLow Tap = iota
	TapMid
	TapHigh
	NumTaps
)

// Splitter divides one input into three taps using second-order
// Butterworth lowpass/highpass nodes.
type Splitter struct {
	lowLP  *eq.Node
	midHP  *eq.Node
	highHP *eq.Node

	taps [NumTaps][][]float64
}

// New returns a splitter at the given crossover frequencies.
func New(lowMidHz, midHighHz, sampleRate float64, channels int) (*Splitter, error) {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return nil, fmt.Errorf("crossover: sample rate must be positive: %f", sampleRate)
	}

	if channels <= 0 {
		return nil, fmt.Errorf("crossover: channel count must be positive: %d", channels)
	}

	return &Splitter{
		lowLP:  eq.NewNode(pass(design.KindLowpass, lowMidHz), sampleRate, channels),
		midHP:  eq.NewNode(pass(design.KindHighpass, lowMidHz), sampleRate, channels),
		highHP: eq.NewNode(pass(design.KindHighpass, midHighHz), sampleRate, channels),
	}, nil
}

// SetCrossover schedules both crossover frequencies. The low tap's lowpass
// and the mid tap's highpass receive identical events, so they stay in
// lockstep at every frame. See [eq.Node.Apply] for at and smoothing.
func (s *Splitter) SetCrossover(lowMidHz, midHighHz, at, smoothing float64) {
	s.lowLP.Apply(pass(design.KindLowpass, lowMidHz), at, smoothing)
	s.midHP.Apply(pass(design.KindHighpass, lowMidHz), at, smoothing)
	s.highHP.Apply(pass(design.KindHighpass, midHighHz), at, smoothing)
}

// LowTapUpperEdge returns the settled cutoff of the low tap's lowpass.
func (s *Splitter) LowTapUpperEdge() float64 { return s.lowLP.Frequency().Final() }

// MidTapLowerEdge returns the settled cutoff of the mid tap's highpass.
func (s *Splitter) MidTapLowerEdge() float64 { return s.midHP.Frequency().Final() }

// HighTapLowerEdge returns the settled cutoff of the high tap's highpass.
func (s *Splitter) HighTapLowerEdge() float64 { return s.highHP.Frequency().Final() }

// Process splits input into the three taps and returns them. The returned
// blocks are owned by the splitter and valid until the next call. input is
// not modified.
func (s *Splitter) Process(input [][]float64, frame int64) (low, mid, high [][]float64) {
	channels, frames := len(input), core.Frames(input)
	for i := range s.taps {
		s.taps[i] = core.EnsurePlanar(s.taps[i], channels, frames)
	}

	low, mid, high = s.taps[TapLow], s.taps[TapMid], s.taps[TapHigh]

	core.CopyPlanar(low, input)
	s.lowLP.Process(low, frame)

	core.CopyPlanar(mid, input)
	s.midHP.Process(mid, frame)

	core.CopyPlanar(high, mid)
	s.highHP.Process(high, frame)

	return low, mid, high
}

// Reset clears every filter state.
func (s *Splitter) Reset() {
	s.lowLP.Reset()
	s.midHP.Reset()
	s.highHP.Reset()
}

func pass(kind design.Kind, freq float64) eq.Settings {
	return eq.Settings{Kind: kind, FrequencyHz: freq, Q: design.ButterworthQ}
}
