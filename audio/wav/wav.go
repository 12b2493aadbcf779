// Package wav reads RIFF/WAVE files and writes 16-bit PCM WAVE files with
// the canonical 44-byte header.
package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// ErrFormat is returned for streams that are not RIFF/WAVE or use an
// unsupported encoding.
var ErrFormat = errors.New("wav: unsupported format")

const (
	formatPCM        = 0x0001
	formatIEEEFloat  = 0x0003
	formatExtensible = 0xFFFE
)

// HeaderSize is the size of the header written by [Encode16].
const HeaderSize = 44

// Format describes the fmt chunk of a decoded file.
type Format struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
	Float         bool
}

// Decode reads a complete WAVE stream into planar samples in [-1, 1).
// Supported encodings are integer PCM with 8, 16, 24 or 32 bits and IEEE
// float with 32 or 64 bits, plain or WAVE_FORMAT_EXTENSIBLE.
func Decode(r io.Reader) ([][]float64, Format, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, Format{}, fmt.Errorf("wav: read: %w", err)
	}

	if len(data) < 12 || !bytes.Equal(data[0:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		return nil, Format{}, fmt.Errorf("%w: missing RIFF/WAVE header", ErrFormat)
	}

	var (
		format  Format
		haveFmt bool
		samples []byte
		found   bool
	)

	for pos := 12; pos+8 <= len(data); {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := data[pos+8:]

		if size > len(body) {
			size = len(body)
		}

		body = body[:size]

		switch id {
		case "fmt ":
			format, err = parseFormat(body)
			if err != nil {
				return nil, Format{}, err
			}

			haveFmt = true
		case "data":
			samples = body
			found = true
		}

		pos += 8 + size + size&1
	}

	if !haveFmt {
		return nil, Format{}, fmt.Errorf("%w: missing fmt chunk", ErrFormat)
	}

	if !found {
		return nil, Format{}, fmt.Errorf("%w: missing data chunk", ErrFormat)
	}

	return decodeSamples(samples, format), format, nil
}

func parseFormat(body []byte) (Format, error) {
	if len(body) < 16 {
		return Format{}, fmt.Errorf("%w: fmt chunk too short: %d bytes", ErrFormat, len(body))
	}

	tag := binary.LittleEndian.Uint16(body[0:2])
	f := Format{
		Channels:      int(binary.LittleEndian.Uint16(body[2:4])),
		SampleRate:    int(binary.LittleEndian.Uint32(body[4:8])),
		BitsPerSample: int(binary.LittleEndian.Uint16(body[14:16])),
	}

	if tag == formatExtensible {
		if len(body) < 40 {
			return Format{}, fmt.Errorf("%w: extensible fmt chunk too short", ErrFormat)
		}

		// The sub-format GUID starts with the plain format tag.
		tag = binary.LittleEndian.Uint16(body[24:26])
	}

	switch tag {
	case formatPCM:
		switch f.BitsPerSample {
		case 8, 16, 24, 32:
		default:
			return Format{}, fmt.Errorf("%w: %d-bit PCM", ErrFormat, f.BitsPerSample)
		}
	case formatIEEEFloat:
		if f.BitsPerSample != 32 && f.BitsPerSample != 64 {
			return Format{}, fmt.Errorf("%w: %d-bit float", ErrFormat, f.BitsPerSample)
		}

		f.Float = true
	default:
		return Format{}, fmt.Errorf("%w: format tag 0x%04x", ErrFormat, tag)
	}

	if f.Channels < 1 {
		return Format{}, fmt.Errorf("%w: %d channels", ErrFormat, f.Channels)
	}

	if f.SampleRate < 1 {
		return Format{}, fmt.Errorf("%w: sample rate %d", ErrFormat, f.SampleRate)
	}

	return f, nil
}

func decodeSamples(data []byte, f Format) [][]float64 {
	width := f.BitsPerSample / 8
	frames := len(data) / (width * f.Channels)

	out := make([][]float64, f.Channels)
	for ch := range out {
		out[ch] = make([]float64, frames)
	}

	for i := range frames {
		for ch := range f.Channels {
			b := data[(i*f.Channels+ch)*width:]
			out[ch][i] = sampleAt(b, width, f.Float)
		}
	}

	return out
}

func sampleAt(b []byte, width int, float bool) float64 {
	le := binary.LittleEndian

	if float {
		if width == 4 {
			return float64(math.Float32frombits(le.Uint32(b)))
		}

		return math.Float64frombits(le.Uint64(b))
	}

	switch width {
	case 1:
		return (float64(b[0]) - 128) / 128
	case 2:
		return float64(int16(le.Uint16(b))) / 32768
	case 3:
		v := int32(uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16)
		if v&0x800000 != 0 {
			v -= 1 << 24
		}

		return float64(v) / 8388608
	default:
		return float64(int32(le.Uint32(b))) / 2147483648
	}
}
