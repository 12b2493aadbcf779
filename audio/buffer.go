// Package audio holds decoded audio buffers and decodes WAVE and Ogg Opus
// streams into them.
package audio

import (
	"errors"
	"fmt"
	"io"

	"github.com/cwbudde/mixdesk/audio/wav"
	"github.com/cwbudde/mixdesk/dsp/core"
	"github.com/cwbudde/mixdesk/dsp/resample"
)

// Buffer is immutable decoded audio: planar float channels at one sample
// rate. It is safe to share between goroutines.
type Buffer struct {
	sampleRate float64
	channels   [][]float64
}

// NewBuffer returns a buffer holding copies of channels. All channels must
// have the same length.
func NewBuffer(sampleRate float64, channels [][]float64) (*Buffer, error) {
	b, err := wrap(sampleRate, channels)
	if err != nil {
		return nil, err
	}

	for ch := range b.channels {
		b.channels[ch] = append([]float64(nil), b.channels[ch]...)
	}

	return b, nil
}

// wrap takes ownership of channels without copying.
func wrap(sampleRate float64, channels [][]float64) (*Buffer, error) {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return nil, fmt.Errorf("audio: sample rate must be positive and finite: %f", sampleRate)
	}

	if len(channels) == 0 {
		return nil, errors.New("audio: buffer needs at least one channel")
	}

	frames := len(channels[0])
	for ch, c := range channels {
		if len(c) != frames {
			return nil, fmt.Errorf("audio: channel %d has %d frames, want %d", ch, len(c), frames)
		}
	}

	return &Buffer{sampleRate: sampleRate, channels: append([][]float64(nil), channels...)}, nil
}

// SampleRate returns the sample rate in Hz.
func (b *Buffer) SampleRate() float64 { return b.sampleRate }

// NumChannels returns the channel count.
func (b *Buffer) NumChannels() int { return len(b.channels) }

// Len returns the number of frames.
func (b *Buffer) Len() int { return len(b.channels[0]) }

// Duration returns the length in seconds.
func (b *Buffer) Duration() float64 { return float64(b.Len()) / b.sampleRate }

// Channel returns a copy of channel ch.
func (b *Buffer) Channel(ch int) []float64 {
	return append([]float64(nil), b.channels[ch]...)
}

// CopyTo copies frames starting at offset into dst, one slice per
// channel, and returns the number of frames copied. dst may have fewer
// channels than the buffer.
func (b *Buffer) CopyTo(dst [][]float64, offset int) int {
	if offset < 0 || offset >= b.Len() {
		return 0
	}

	n := 0
	for ch := range min(len(dst), len(b.channels)) {
		n = copy(dst[ch], b.channels[ch][offset:])
	}

	return n
}

// Slice returns the frames [start, end) as a new buffer sharing storage.
func (b *Buffer) Slice(start, end int) *Buffer {
	start = max(0, min(start, b.Len()))
	end = max(start, min(end, b.Len()))

	channels := make([][]float64, len(b.channels))
	for ch, c := range b.channels {
		channels[ch] = c[start:end:end]
	}

	return &Buffer{sampleRate: b.sampleRate, channels: channels}
}

// TruncateSeconds is the length [Truncate] keeps.
const TruncateSeconds = 45.0

// Truncate returns the first 45 seconds of b, or b itself when it is not
// longer.
func Truncate(b *Buffer) *Buffer {
	limit := int(TruncateSeconds * b.sampleRate)
	if b.Len() <= limit {
		return b
	}

	return b.Slice(0, limit)
}

// EncodeWAV writes b as a 16-bit PCM WAVE file.
func EncodeWAV(w io.Writer, b *Buffer) error {
	return wav.Encode16(w, int(b.sampleRate+0.5), b.channels)
}

// Resample returns b converted to sampleRate, or b itself when the rates
// already match.
func Resample(b *Buffer, sampleRate float64) (*Buffer, error) {
	if b.sampleRate == sampleRate {
		return b, nil
	}

	c, err := resample.New(b.sampleRate, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("audio: %w", err)
	}

	channels := make([][]float64, len(b.channels))
	for ch, x := range b.channels {
		channels[ch] = c.Convert(x)
	}

	return wrap(sampleRate, channels)
}
