// Package eq provides parameter-automated biquad filter nodes and the
// series filter stage built from them.
package eq

import (
	"github.com/cwbudde/mixdesk/dsp/core"
	"github.com/cwbudde/mixdesk/dsp/filter/biquad"
	"github.com/cwbudde/mixdesk/dsp/filter/design"
	"github.com/cwbudde/mixdesk/dsp/param"
)

// coefficientInterval is the number of frames between coefficient updates
// while a parameter is moving.
const coefficientInterval = 16

// Parameter ranges of a node.
const (
	MinQ    = 1e-4
	MaxQ    = 1000
	MaxGain = 60
)

// Settings describes the static configuration of one filter node.
type Settings struct {
	Kind        design.Kind
	FrequencyHz float64
	Q           float64
	GainDB      float64
}

// Node is a multi-channel biquad whose frequency, Q and gain are
// automatable. Coefficients are shared by all channels; each channel keeps
// its own delay line.
type Node struct {
	kind       design.Kind
	frequency  *param.Param
	q          *param.Param
	gain       *param.Param
	sampleRate float64

	sections []biquad.Section
	coeffs   biquad.Coefficients
	designed [3]float64
}

// NewNode returns a node for channels channels at sampleRate.
func NewNode(s Settings, sampleRate float64, channels int) *Node {
	n := &Node{
		kind:       s.Kind,
		frequency:  param.New(s.FrequencyHz, 0, sampleRate/2),
		q:          param.New(s.Q, MinQ, MaxQ),
		gain:       param.New(s.GainDB, -MaxGain, MaxGain),
		sampleRate: sampleRate,
		sections:   make([]biquad.Section, max(channels, 1)),
	}
	n.redesign(n.frequency.Value(), n.q.Value(), n.gain.Value())

	return n
}

// Kind returns the current filter kind.
func (n *Node) Kind() design.Kind { return n.kind }

// Frequency exposes the cutoff/center frequency parameter (Hz).
func (n *Node) Frequency() *param.Param { return n.frequency }

// Q exposes the quality factor parameter.
func (n *Node) Q() *param.Param { return n.q }

// Gain exposes the gain parameter (dB).
func (n *Node) Gain() *param.Param { return n.gain }

// Coefficients returns the coefficients currently in use.
func (n *Node) Coefficients() biquad.Coefficients { return n.coeffs }

// SetKind switches the filter kind. Coefficients change immediately while
// the delay lines are kept.
func (n *Node) SetKind(kind design.Kind) {
	if kind == n.kind {
		return
	}

	n.kind = kind
	n.redesign(n.frequency.Value(), n.q.Value(), n.gain.Value())
}

// Apply schedules s on the node. Parameters equal to their settled value
// are left alone. With smoothing > 0 each change approaches its target with
// that time constant (seconds) starting at audio time at; otherwise values
// are set immediately.
func (n *Node) Apply(s Settings, at, smoothing float64) {
	n.SetKind(s.Kind)
	schedule(n.frequency, s.FrequencyHz, at, smoothing)
	schedule(n.q, s.Q, at, smoothing)
	schedule(n.gain, s.GainDB, at, smoothing)
}

// Process filters block in place. frame is the audio clock frame index of
// block[0][0].
func (n *Node) Process(block [][]float64, frame int64) {
	frames := core.Frames(block)
	if frames == 0 {
		return
	}

	n.ensureChannels(len(block))

	if !n.frequency.Pending() && !n.q.Pending() && !n.gain.Pending() {
		n.refresh(n.frequency.Value(), n.q.Value(), n.gain.Value())

		for ch := range block {
			n.sections[ch].ProcessBlock(block[ch])
		}

		return
	}

	for off := 0; off < frames; off += coefficientInterval {
		end := min(off+coefficientInterval, frames)
		t := param.FrameTime(frame+int64(off), n.sampleRate)
		n.refresh(n.frequency.ValueAt(t), n.q.ValueAt(t), n.gain.ValueAt(t))

		for ch := range block {
			n.sections[ch].ProcessBlock(block[ch][off:end])
		}
	}
}

// MagnitudeDB returns the node's response in dB at freqHz for the settled
// parameter values.
func (n *Node) MagnitudeDB(freqHz float64) float64 {
	c := design.ForKind(n.kind, n.frequency.Final(), n.q.Final(), n.gain.Final(), n.sampleRate)
	f := core.Clamp(freqHz, 1, 0.4999*n.sampleRate)

	return c.MagnitudeDB(f, n.sampleRate)
}

// Reset clears all delay lines.
func (n *Node) Reset() {
	for i := range n.sections {
		n.sections[i].Reset()
	}
}

func (n *Node) refresh(freq, q, gainDB float64) {
	if n.designed == [3]float64{freq, q, gainDB} {
		return
	}

	n.redesign(freq, q, gainDB)
}

func (n *Node) redesign(freq, q, gainDB float64) {
	n.designed = [3]float64{freq, q, gainDB}
	n.coeffs = design.ForKind(n.kind, freq, q, gainDB, n.sampleRate)

	for i := range n.sections {
		n.sections[i].SetCoefficients(n.coeffs)
	}
}

func (n *Node) ensureChannels(channels int) {
	for len(n.sections) < channels {
		n.sections = append(n.sections, *biquad.NewSection(n.coeffs))
	}
}

// schedule replaces anything already scheduled from at onwards with v.
func schedule(p *param.Param, v, at, smoothing float64) {
	p.CancelScheduledValues(at)

	if v == p.Final() {
		return
	}

	if smoothing > 0 {
		p.SetTargetAtTime(v, at, smoothing)
		return
	}

	p.SetValue(v)
}
