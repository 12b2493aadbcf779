package graph

import (
	"fmt"

	"github.com/cwbudde/mixdesk/dsp/core"
	"github.com/cwbudde/mixdesk/dsp/param"
)

// Context is the rendering context a graph is built against. It carries
// the format and the audio clock: the frame index of the next block.
//
// The two implementations are [RealtimeContext] and [OfflineContext].
type Context interface {
	SampleRate() float64
	Channels() int
	Quantum() int
	Realtime() bool
	CurrentFrame() int64
	CurrentTime() float64

	advance(frames int)
}

type clock struct {
	cfg   core.RenderConfig
	frame int64
}

func newClock(opts []core.RenderOption) (clock, error) {
	cfg := core.ApplyRenderOptions(opts...)
	if err := cfg.Validate(); err != nil {
		return clock{}, fmt.Errorf("graph: %w", err)
	}

	return clock{cfg: cfg}, nil
}

// SampleRate returns the rendering sample rate in Hz.
func (c *clock) SampleRate() float64 { return c.cfg.SampleRate }

// Channels returns the channel count.
func (c *clock) Channels() int { return c.cfg.Channels }

// Quantum returns the render quantum in frames.
func (c *clock) Quantum() int { return c.cfg.Quantum }

// CurrentFrame returns the frame index of the next block to render.
func (c *clock) CurrentFrame() int64 { return c.frame }

// CurrentTime returns CurrentFrame in seconds.
func (c *clock) CurrentTime() float64 { return param.FrameTime(c.frame, c.cfg.SampleRate) }

func (c *clock) advance(frames int) { c.frame += int64(frames) }

// RealtimeContext drives a live graph. Parameter changes are smoothed and
// the bypass is built as two parallel gain paths.
type RealtimeContext struct {
	clock
}

// NewRealtimeContext returns a context at frame 0.
func NewRealtimeContext(opts ...core.RenderOption) (*RealtimeContext, error) {
	c, err := newClock(opts)
	if err != nil {
		return nil, err
	}

	return &RealtimeContext{clock: c}, nil
}

// Realtime reports true.
func (*RealtimeContext) Realtime() bool { return true }

// OfflineContext renders a fixed number of frames as fast as possible.
// Parameters are applied immediately and only one of the dry and wet
// paths is built.
type OfflineContext struct {
	clock
	length int
}

// NewOfflineContext returns a context that renders length frames.
func NewOfflineContext(length int, opts ...core.RenderOption) (*OfflineContext, error) {
	if length < 0 {
		return nil, fmt.Errorf("graph: offline length must not be negative: %d", length)
	}

	c, err := newClock(opts)
	if err != nil {
		return nil, err
	}

	return &OfflineContext{clock: c, length: length}, nil
}

// Realtime reports false.
func (*OfflineContext) Realtime() bool { return false }

// Length returns the total number of frames to render.
func (c *OfflineContext) Length() int { return c.length }

// Remaining returns the number of frames not yet rendered.
func (c *OfflineContext) Remaining() int {
	return max(c.length-int(c.frame), 0)
}
