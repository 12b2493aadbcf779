// Package render runs a decoded buffer through the processing graph
// offline, as fast as possible, for export.
package render

import (
	"errors"
	"fmt"

	"github.com/cwbudde/mixdesk/audio"
	"github.com/cwbudde/mixdesk/dsp/core"
	"github.com/cwbudde/mixdesk/dsp/graph"
	"github.com/cwbudde/mixdesk/mix"
)

// ErrNoAudio is returned when there is no buffer to render.
var ErrNoAudio = errors.New("render: no audio loaded")

// Result is the outcome of [RenderAsync].
type Result struct {
	Buffer *audio.Buffer
	Err    error
}

// Render processes buf with the settings s and returns a new buffer of
// the same length, channel count and sample rate.
//
// The graph is built against an offline context, so only the dry or the
// wet path exists and every parameter is at its target from the first
// frame. The output is deterministic for a given input and settings.
func Render(buf *audio.Buffer, s mix.Settings) (*audio.Buffer, error) {
	if buf == nil {
		return nil, ErrNoAudio
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	channels, length := buf.NumChannels(), buf.Len()

	ctx, err := graph.NewOfflineContext(length,
		core.WithSampleRate(buf.SampleRate()),
		core.WithChannels(channels),
	)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	g, err := graph.Build(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	defer g.Close()

	out := core.EnsurePlanar(nil, channels, length)
	quantum := ctx.Quantum()

	in := core.EnsurePlanar(nil, channels, quantum)
	dst := make([][]float64, channels)

	for ctx.Remaining() > 0 {
		start := int(ctx.CurrentFrame())
		n := min(quantum, ctx.Remaining())

		block := in
		if n < quantum {
			block = core.EnsurePlanar(nil, channels, n)
		}

		buf.CopyTo(block, start)

		for ch := range dst {
			dst[ch] = out[ch][start : start+n]
		}

		g.Process(block, dst)
	}

	return audio.NewBuffer(buf.SampleRate(), out)
}

// RenderAsync runs [Render] on its own goroutine and delivers exactly one
// result on the returned channel. A started render is not cancelled.
func RenderAsync(buf *audio.Buffer, s mix.Settings) <-chan Result {
	ch := make(chan Result, 1)

	go func() {
		out, err := Render(buf, s)
		ch <- Result{Buffer: out, Err: err}
	}()

	return ch
}
