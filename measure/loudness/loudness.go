// Package loudness measures the level of a whole buffer: ITU-R BS.1770
// gated integrated loudness, sample peak and RMS.
package loudness

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/mixdesk/dsp/core"
	"github.com/cwbudde/mixdesk/dsp/filter/biquad"
	"github.com/cwbudde/mixdesk/dsp/filter/design"
)

const (
	// K-weighting stages.
	shelfFreqHz    = 1500.0
	shelfGainDB    = 4.0
	highpassFreqHz = 38.0

	blockSec = 0.4
	hopSec   = 0.1

	absoluteGateLUFS = -70.0
	relativeGateLU   = -10.0

	// FloorDB is reported for silence.
	FloorDB = -120.0
)

// Report holds the levels of one buffer.
type Report struct {
	// IntegratedLUFS is -Inf when the buffer is shorter than one 400 ms
	// block or every block is gated.
	IntegratedLUFS float64
	PeakDBFS       float64
	RMSDBFS        float64
}

// Measure computes the report for planar channels at sampleRate. All
// channels are weighted equally.
func Measure(channels [][]float64, sampleRate float64) (Report, error) {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return Report{}, fmt.Errorf("loudness: sample rate must be positive and finite: %f", sampleRate)
	}

	if len(channels) == 0 {
		return Report{}, errors.New("loudness: no channels")
	}

	frames := core.Frames(channels)

	var (
		peak, sumSq float64
		// energy[i] is the K-weighted energy of frames [0, i) summed over
		// channels.
		energy = make([]float64, frames+1)
	)

	shelf := design.HighShelf(shelfFreqHz, shelfGainDB, design.ButterworthQ, sampleRate)
	highpass := design.Highpass(highpassFreqHz, design.ButterworthQ, sampleRate)

	for ch, x := range channels {
		if len(x) != frames {
			return Report{}, fmt.Errorf("loudness: channel %d has %d frames, want %d", ch, len(x), frames)
		}

		peak = math.Max(peak, vecmath.MaxAbs(x))

		s1, s2 := biquad.NewSection(shelf), biquad.NewSection(highpass)

		for i, v := range x {
			sumSq += v * v

			k := s2.ProcessSample(s1.ProcessSample(v))
			energy[i+1] += k * k
		}
	}

	for i := 1; i <= frames; i++ {
		energy[i] += energy[i-1]
	}

	rms := 0.0
	if frames > 0 {
		rms = math.Sqrt(sumSq / float64(frames*len(channels)))
	}

	block := int(math.Round(blockSec * sampleRate))
	hop := max(int(math.Round(hopSec*sampleRate)), 1)

	return Report{
		IntegratedLUFS: integrated(energy, block, hop),
		PeakDBFS:       levelDB(peak),
		RMSDBFS:        levelDB(rms),
	}, nil
}

// integrated gates 400 ms blocks overlapping by 75 %: blocks below -70
// LUFS are dropped, then blocks more than 10 LU below the mean of the
// rest.
func integrated(energy []float64, block, hop int) float64 {
	frames := len(energy) - 1
	if block < 1 || frames < block {
		return math.Inf(-1)
	}

	var kept []float64

	for start := 0; start+block <= frames; start += hop {
		z := (energy[start+block] - energy[start]) / float64(block)
		if toLUFS(z) > absoluteGateLUFS {
			kept = append(kept, z)
		}
	}

	if len(kept) == 0 {
		return math.Inf(-1)
	}

	gate := toLUFS(mean(kept)) + relativeGateLU

	var sum float64

	n := 0

	for _, z := range kept {
		if toLUFS(z) > gate {
			sum += z
			n++
		}
	}

	if n == 0 {
		return math.Inf(-1)
	}

	return toLUFS(sum / float64(n))
}

func mean(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x
	}

	return s / float64(len(v))
}

func toLUFS(meanSquare float64) float64 {
	if meanSquare <= 0 {
		return math.Inf(-1)
	}

	return -0.691 + 10*math.Log10(meanSquare)
}

func levelDB(linear float64) float64 {
	if linear <= 0 {
		return FloorDB
	}

	return math.Max(20*math.Log10(linear), FloorDB)
}
