package dynamics

import (
	"fmt"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/mixdesk/dsp/core"
	"github.com/cwbudde/mixdesk/dsp/gain"
)

// Bank runs one compressor per input tap, applies a makeup gain after each
// and sums the results into one bus. The sum is a plain mix.
//
// Signal flow:
//
//	tap 0 → [compressor 0] → [makeup 0] → ╲
//	tap 1 → [compressor 1] → [makeup 1] →  + → output
//	tap N → [compressor N] → [makeup N] → ╱
type Bank struct {
	compressors []*Compressor
	makeup      []*gain.Node
	sampleRate  float64

	sum [][]float64
}

// NewBank creates a bank of bands compressors with default parameters and
// unity makeup gain.
func NewBank(bands int, sampleRate float64) (*Bank, error) {
	if bands <= 0 {
		return nil, fmt.Errorf("compressor bank: band count must be positive: %d", bands)
	}

	b := &Bank{
		compressors: make([]*Compressor, bands),
		makeup:      make([]*gain.Node, bands),
		sampleRate:  sampleRate,
	}

	for i := range b.compressors {
		c, err := NewCompressor(sampleRate)
		if err != nil {
			return nil, fmt.Errorf("compressor bank: band %d: %w", i, err)
		}

		b.compressors[i] = c
		b.makeup[i] = gain.New(1)
	}

	return b, nil
}

// NumBands returns the number of bands.
func (b *Bank) NumBands() int { return len(b.compressors) }

// Compressor returns the compressor of band i.
func (b *Bank) Compressor(i int) *Compressor { return b.compressors[i] }

// Makeup returns the makeup gain node of band i.
func (b *Bank) Makeup(i int) *gain.Node { return b.makeup[i] }

// SetMakeupGainDB schedules the makeup gain of band i to 10^(dB/20).
// -Inf dB mutes the band. With smoothing > 0 the gain approaches the new
// value with that time constant from audio time at.
func (b *Bank) SetMakeupGainDB(i int, dB, at, smoothing float64) {
	p := b.makeup[i].Gain()
	p.CancelScheduledValues(at)

	linear := core.DBToLinear(dB)

	if linear == p.Final() {
		return
	}

	if smoothing > 0 {
		p.SetTargetAtTime(linear, at, smoothing)
		return
	}

	p.SetValue(linear)
}

// ReductionDB returns the current gain reduction of band i (<= 0 dB).
func (b *Bank) ReductionDB(i int) float64 {
	return b.compressors[i].ReductionDB()
}

// Process compresses each tap in place, applies makeup gain and returns the
// summed bus. taps must have one planar block per band, all of equal shape.
// The returned block is owned by the bank and valid until the next call.
func (b *Bank) Process(taps [][][]float64, frame int64) [][]float64 {
	if len(taps) != len(b.compressors) || len(taps) == 0 {
		return nil
	}

	channels, frames := len(taps[0]), core.Frames(taps[0])
	b.sum = core.EnsurePlanar(b.sum, channels, frames)
	core.ZeroPlanar(b.sum)

	for i, tap := range taps {
		b.compressors[i].Process(tap)
		b.makeup[i].Process(tap, frame, b.sampleRate)

		for ch := range tap {
			vecmath.AddBlockInPlace(b.sum[ch], tap[ch])
		}
	}

	return b.sum
}

// Reset clears every compressor's detector state.
func (b *Bank) Reset() {
	for _, c := range b.compressors {
		c.Reset()
	}
}
