// Package oggopus decodes Ogg Opus streams into planar float samples at
// 48 kHz.
package oggopus

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/thesyncim/gopus"
	"github.com/thesyncim/gopus/container/ogg"
)

// SampleRate is the rate of every decoded stream.
const SampleRate = 48000

// Decode reads a complete Ogg Opus stream. Pre-skip samples are removed,
// the stream is trimmed to its final granule position and the header
// output gain is applied. Only mono and stereo streams (mapping family 0)
// are supported.
func Decode(r io.Reader) ([][]float64, error) {
	or, err := ogg.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("ogg opus: %w", err)
	}

	channels := int(or.Channels())
	if channels < 1 || channels > 2 {
		return nil, fmt.Errorf("ogg opus: unsupported channel count %d", channels)
	}

	dec, err := gopus.NewDecoder(SampleRate, channels)
	if err != nil {
		return nil, fmt.Errorf("ogg opus: %w", err)
	}

	out := make([][]float64, channels)

	var lastGranule uint64

	for {
		packet, granule, err := or.ReadPacket()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("ogg opus: read packet: %w", err)
		}

		if len(packet) == 0 {
			continue
		}

		pcm, err := dec.DecodeFloat32(packet)
		if err != nil {
			return nil, fmt.Errorf("ogg opus: decode packet: %w", err)
		}

		for i, x := range pcm {
			out[i%channels] = append(out[i%channels], float64(x))
		}

		if granule > 0 {
			lastGranule = granule
		}
	}

	skip := int(or.PreSkip())
	frames := len(out[0])

	end := frames
	if lastGranule > uint64(skip) && int(lastGranule) < frames {
		end = int(lastGranule)
	}

	if skip >= end {
		return nil, fmt.Errorf("ogg opus: stream holds no audio after pre-skip")
	}

	gain := 1.0
	if or.Header != nil && or.Header.OutputGain != 0 {
		gain = math.Pow(10, float64(or.Header.OutputGain)/256/20)
	}

	for ch := range out {
		out[ch] = out[ch][skip:end]

		if gain != 1 {
			for i := range out[ch] {
				out[ch][i] *= gain
			}
		}
	}

	return out, nil
}
