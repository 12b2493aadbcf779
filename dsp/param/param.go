// Package param provides audio-rate parameter automation.
//
// A [Param] holds a value plus a time-ordered list of scheduled events
// (set-at-time, linear ramp, exponential approach to a target). Processing
// nodes evaluate the timeline per sample or per sub-block against the
// audio clock of their rendering context, so changes land on exact frames
// and smoothing is independent of how often a host issues updates.
//
// Times are in seconds on the audio clock; evaluation time must not move
// backwards.
package param

import (
	"math"
	"sort"

	"github.com/cwbudde/mixdesk/dsp/core"
)

type eventKind int

const (
	eventSet eventKind = iota
	eventRamp
	eventTarget
)

// settleEpsilon is the relative distance at which an exponential approach
// snaps onto its target and the event completes.
const settleEpsilon = 1e-6

type event struct {
	kind  eventKind
	time  float64
	value float64
	tau   float64
}

// Param is one automatable parameter. It is not safe for concurrent use;
// the owning graph serialises access.
type Param struct {
	value    float64
	min, max float64
	events   []event

	// anchor is the end point of the last completed event; ramps start there.
	anchorTime  float64
	anchorValue float64

	targetActive bool
	targetStart  float64
}

// New returns a Param at value whose computed value is clamped to [min, max].
func New(value, min, max float64) *Param {
	if min > max {
		min, max = max, min
	}

	v := core.Clamp(value, min, max)

	return &Param{
		value:       v,
		min:         min,
		max:         max,
		anchorValue: v,
	}
}

// Unbounded returns a Param without a nominal range.
func Unbounded(value float64) *Param {
	return New(value, -math.MaxFloat64, math.MaxFloat64)
}

// Value returns the most recently computed value.
func (p *Param) Value() float64 { return p.value }

// Range returns the nominal range.
func (p *Param) Range() (min, max float64) { return p.min, p.max }

// Pending reports whether scheduled events remain.
func (p *Param) Pending() bool { return len(p.events) > 0 }

// Final returns the value the parameter settles at once every scheduled
// event has completed.
func (p *Param) Final() float64 {
	if len(p.events) == 0 {
		return p.value
	}

	return p.clamp(p.events[len(p.events)-1].value)
}

// SetValue cancels all scheduled events and sets the value immediately.
func (p *Param) SetValue(v float64) {
	p.events = p.events[:0]
	p.targetActive = false
	p.value = p.clamp(v)
	p.anchorValue = p.value
}

// SetValueAtTime schedules a step to v at time t.
func (p *Param) SetValueAtTime(v, t float64) {
	p.insert(event{kind: eventSet, time: t, value: v})
}

// LinearRampToValueAtTime schedules a linear ramp that starts at the end of
// the previous event and reaches v at time t.
func (p *Param) LinearRampToValueAtTime(v, t float64) {
	p.insert(event{kind: eventRamp, time: t, value: v})
}

// SetTargetAtTime starts an exponential approach towards v at time start
// with time constant tau (seconds). A non-positive tau is a step.
func (p *Param) SetTargetAtTime(v, start, tau float64) {
	if tau <= 0 || !core.IsFinite(tau) {
		p.SetValueAtTime(v, start)
		return
	}

	p.insert(event{kind: eventTarget, time: start, value: v, tau: tau})
}

// CancelScheduledValues removes every event scheduled at or after t.
func (p *Param) CancelScheduledValues(t float64) {
	keep := p.events[:0]
	for _, e := range p.events {
		if e.time < t {
			keep = append(keep, e)
		}
	}

	p.events = keep
	if len(keep) == 0 || keep[0].kind != eventTarget {
		p.targetActive = false
	}
}

// ValueAt evaluates the timeline at time t and consumes completed events.
func (p *Param) ValueAt(t float64) float64 {
	for len(p.events) > 0 {
		e := p.events[0]

		switch e.kind {
		case eventSet:
			if t < e.time {
				return p.value
			}

			p.complete(e.time, e.value)

		case eventRamp:
			if t >= e.time {
				p.complete(e.time, e.value)
				continue
			}

			span := e.time - p.anchorTime
			if span <= 0 {
				p.complete(e.time, e.value)
				continue
			}

			frac := math.Max(0, (t-p.anchorTime)/span)
			p.value = p.clamp(p.anchorValue + (e.value-p.anchorValue)*frac)

			return p.value

		case eventTarget:
			if t < e.time {
				return p.value
			}

			if !p.targetActive {
				p.targetActive = true
				p.targetStart = p.value
			}

			// A later event ends the approach at its own start time.
			if len(p.events) > 1 && p.events[1].time <= t {
				end := p.events[1].time
				p.complete(end, p.approach(e, end))

				continue
			}

			v := p.approach(e, t)
			if math.Abs(v-e.value) <= settleEpsilon*math.Max(1, math.Abs(e.value)) {
				p.complete(t, e.value)
				continue
			}

			p.value = p.clamp(v)

			return p.value
		}
	}

	return p.value
}

// Fill writes the parameter value for each of len(dst) frames starting at
// frame index frame into dst. Frame k is evaluated at time k/sampleRate, so
// an event scheduled at exactly that time lands on frame k. Fill reports
// whether the value is constant over the block, in which case every element
// equals dst[0].
func (p *Param) Fill(dst []float64, frame int64, sampleRate float64) bool {
	if len(dst) == 0 {
		return true
	}

	if p.constantOver(FrameTime(frame+int64(len(dst)-1), sampleRate)) {
		v := p.value
		for i := range dst {
			dst[i] = v
		}

		return true
	}

	for i := range dst {
		dst[i] = p.ValueAt(FrameTime(frame+int64(i), sampleRate))
	}

	return false
}

// FrameTime returns the audio clock time of frame index frame.
func FrameTime(frame int64, sampleRate float64) float64 {
	return float64(frame) / sampleRate
}

// constantOver reports whether the value cannot change before time end.
func (p *Param) constantOver(end float64) bool {
	if len(p.events) == 0 {
		return true
	}

	next := p.events[0]

	return next.kind != eventRamp && next.time > end && !p.targetActive
}

func (p *Param) approach(e event, t float64) float64 {
	return e.value + (p.targetStart-e.value)*math.Exp(-(t-e.time)/e.tau)
}

func (p *Param) complete(t, v float64) {
	p.value = p.clamp(v)
	p.anchorTime = t
	p.anchorValue = p.value
	p.targetActive = false
	p.events = p.events[1:]
}

func (p *Param) insert(e event) {
	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].time > e.time })
	p.events = append(p.events, event{})
	copy(p.events[i+1:], p.events[i:])
	p.events[i] = e
}

func (p *Param) clamp(v float64) float64 {
	return core.Clamp(v, p.min, p.max)
}
