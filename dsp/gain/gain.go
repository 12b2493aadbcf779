// Package gain provides a parameter-driven gain node for planar audio blocks.
package gain

import (
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/mixdesk/dsp/core"
	"github.com/cwbudde/mixdesk/dsp/param"
)

// Node multiplies every channel of a block by an automatable linear gain.
type Node struct {
	gain *param.Param
	ramp []float64
}

// New returns a gain node at the given linear gain.
func New(linear float64) *Node {
	return &Node{gain: param.Unbounded(linear)}
}

// Gain exposes the linear gain parameter for scheduling.
func (n *Node) Gain() *param.Param { return n.gain }

// Process applies the gain in place to block, whose first frame is frame
// index frame on the audio clock.
func (n *Node) Process(block [][]float64, frame int64, sampleRate float64) {
	frames := core.Frames(block)
	if frames == 0 {
		return
	}

	n.ramp = core.EnsureLen(n.ramp, frames)
	if n.gain.Fill(n.ramp, frame, sampleRate) {
		g := n.ramp[0]
		if g == 1 {
			return
		}

		for _, ch := range block {
			vecmath.ScaleBlockInPlace(ch, g)
		}

		return
	}

	for _, ch := range block {
		vecmath.MulBlockInPlace(ch, n.ramp)
	}
}

// Silent reports whether the node currently outputs silence and no change
// is scheduled.
func (n *Node) Silent() bool {
	return n.gain.Value() == 0 && !n.gain.Pending()
}
