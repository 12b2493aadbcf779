package audio

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cwbudde/mixdesk/audio/oggopus"
	"github.com/cwbudde/mixdesk/audio/wav"
)

// ErrDecode wraps every decoding failure.
var ErrDecode = errors.New("audio: decode failed")

// Decode sniffs the container of r and decodes it: RIFF/WAVE or Ogg Opus.
func Decode(r io.Reader) (*Buffer, error) {
	br := bufio.NewReader(r)

	magic, err := br.Peek(4)
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrDecode, err)
	}

	var (
		channels [][]float64
		rate     float64
	)

	switch {
	case bytes.Equal(magic, []byte("RIFF")):
		var f wav.Format

		channels, f, err = wav.Decode(br)
		rate = float64(f.SampleRate)
	case bytes.Equal(magic, []byte("OggS")):
		channels, err = oggopus.Decode(br)
		rate = oggopus.SampleRate
	default:
		return nil, fmt.Errorf("%w: unrecognised container %q", ErrDecode, magic)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	b, err := wrap(rate, channels)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	if b.Len() == 0 {
		return nil, fmt.Errorf("%w: no audio frames", ErrDecode)
	}

	return b, nil
}

// DecodeFile opens and decodes path.
func DecodeFile(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	defer f.Close()

	b, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return b, nil
}
