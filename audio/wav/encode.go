package wav

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// EncodedSize returns the byte length of a 16-bit file with frames frames
// of channels channels.
func EncodedSize(frames, channels int) int64 {
	return HeaderSize + int64(frames)*int64(channels)*2
}

// Encode16 writes planar samples as a 16-bit PCM WAVE file:
//
//	0  "RIFF"   4  size-8     8  "WAVE"
//	12 "fmt "   16 16         20 1 (PCM)    22 channels
//	24 rate     28 byte rate  32 block align 34 16 (bits)
//	36 "data"   40 data size  44 interleaved little-endian int16
//
// Samples are clamped to [-1, 1]; negative values scale by 32768, others
// by 32767, rounded to nearest.
func Encode16(w io.Writer, sampleRate int, channels [][]float64) error {
	if len(channels) == 0 || len(channels) > math.MaxUint16 {
		return fmt.Errorf("wav: invalid channel count %d", len(channels))
	}

	if sampleRate < 1 {
		return fmt.Errorf("wav: invalid sample rate %d", sampleRate)
	}

	frames := len(channels[0])
	for ch, c := range channels {
		if len(c) != frames {
			return fmt.Errorf("wav: channel %d has %d frames, want %d", ch, len(c), frames)
		}
	}

	numCh := len(channels)
	dataSize := int64(frames) * int64(numCh) * 2

	if HeaderSize-8+dataSize > math.MaxUint32 {
		return fmt.Errorf("wav: %d frames do not fit a RIFF file", frames)
	}

	bw := bufio.NewWriter(w)

	var header [HeaderSize]byte

	le := binary.LittleEndian
	copy(header[0:4], "RIFF")
	le.PutUint32(header[4:8], uint32(HeaderSize-8+dataSize))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	le.PutUint32(header[16:20], 16)
	le.PutUint16(header[20:22], formatPCM)
	le.PutUint16(header[22:24], uint16(numCh))
	le.PutUint32(header[24:28], uint32(sampleRate))
	le.PutUint32(header[28:32], uint32(sampleRate*numCh*2))
	le.PutUint16(header[32:34], uint16(numCh*2))
	le.PutUint16(header[34:36], 16)
	copy(header[36:40], "data")
	le.PutUint32(header[40:44], uint32(dataSize))

	if _, err := bw.Write(header[:]); err != nil {
		return fmt.Errorf("wav: write header: %w", err)
	}

	var sample [2]byte

	for i := range frames {
		for _, c := range channels {
			le.PutUint16(sample[:], uint16(Quantize16(c[i])))

			if _, err := bw.Write(sample[:]); err != nil {
				return fmt.Errorf("wav: write samples: %w", err)
			}
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("wav: write samples: %w", err)
	}

	return nil
}

// Quantize16 converts one sample to int16 the way [Encode16] does. NaN
// becomes 0.
func Quantize16(x float64) int16 {
	switch {
	case math.IsNaN(x):
		return 0
	case x < -1:
		x = -1
	case x > 1:
		x = 1
	}

	if x < 0 {
		return int16(math.Round(x * 32768))
	}

	return int16(math.Round(x * 32767))
}
