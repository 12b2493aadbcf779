package audio

import (
	"bytes"
	"errors"
	"testing"

	"github.com/cwbudde/mixdesk/audio/wav"
	"github.com/cwbudde/mixdesk/internal/testutil"
)

func TestNewBuffer(t *testing.T) {
	src := [][]float64{{1, 2, 3}, {4, 5, 6}}

	b, err := NewBuffer(8000, src)
	if err != nil {
		t.Fatal(err)
	}

	src[0][0] = 99

	if b.Channel(0)[0] != 1 {
		t.Fatal("buffer shares caller storage")
	}

	ch := b.Channel(1)
	ch[0] = 99

	if b.Channel(1)[0] != 4 {
		t.Fatal("Channel exposes internal storage")
	}

	if b.NumChannels() != 2 || b.Len() != 3 || b.SampleRate() != 8000 {
		t.Fatalf("shape = %d×%d @ %v", b.NumChannels(), b.Len(), b.SampleRate())
	}

	testutil.RequireNearlyEqual(t, "duration", b.Duration(), 3.0/8000, 1e-15)

	for name, bad := range map[string]func() error{
		"zero rate": func() error { _, err := NewBuffer(0, src); return err },
		"no chans":  func() error { _, err := NewBuffer(8000, nil); return err },
		"ragged":    func() error { _, err := NewBuffer(8000, [][]float64{{1}, {1, 2}}); return err },
	} {
		if bad() == nil {
			t.Errorf("%s: accepted", name)
		}
	}
}

func TestCopyTo(t *testing.T) {
	b, err := NewBuffer(8000, [][]float64{{1, 2, 3, 4}, {5, 6, 7, 8}})
	if err != nil {
		t.Fatal(err)
	}

	dst := [][]float64{make([]float64, 3), make([]float64, 3)}

	if n := b.CopyTo(dst, 2); n != 2 {
		t.Fatalf("copied %d frames, want 2", n)
	}

	testutil.RequirePlanarNearlyEqual(t, dst, [][]float64{{3, 4, 0}, {7, 8, 0}}, 0)

	if n := b.CopyTo(dst, 4); n != 0 {
		t.Fatalf("copied %d frames past the end", n)
	}
}

func TestTruncate(t *testing.T) {
	long, err := NewBuffer(100, [][]float64{make([]float64, 100*60)})
	if err != nil {
		t.Fatal(err)
	}

	short := Truncate(long)
	if short.Len() != 4500 || short.Duration() != 45 {
		t.Fatalf("truncated to %d frames", short.Len())
	}

	exact, err := NewBuffer(100, [][]float64{make([]float64, 4500)})
	if err != nil {
		t.Fatal(err)
	}

	if Truncate(exact) != exact {
		t.Fatal("buffer within the limit was copied")
	}
}

func TestResample(t *testing.T) {
	b, err := NewBuffer(44100, [][]float64{
		testutil.DeterministicSine(440, 44100, 0.5, 4410),
		testutil.DeterministicSine(880, 44100, 0.5, 4410),
	})
	if err != nil {
		t.Fatal(err)
	}

	same, err := Resample(b, 44100)
	if err != nil || same != b {
		t.Fatalf("same rate: %v, %v", same, err)
	}

	up, err := Resample(b, 48000)
	if err != nil {
		t.Fatal(err)
	}

	if up.SampleRate() != 48000 || up.Len() != 4800 || up.NumChannels() != 2 {
		t.Fatalf("resampled to %v Hz, %d frames, %d channels", up.SampleRate(), up.Len(), up.NumChannels())
	}

	if _, err := Resample(b, 0); err == nil {
		t.Fatal("expected error for zero rate")
	}
}

func TestDecodeWAV(t *testing.T) {
	src, err := NewBuffer(44100, [][]float64{testutil.DeterministicSine(440, 44100, 0.5, 441)})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := EncodeWAV(&buf, src); err != nil {
		t.Fatal(err)
	}

	b, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}

	if b.SampleRate() != 44100 || b.Len() != 441 || b.NumChannels() != 1 {
		t.Fatalf("decoded %d×%d @ %v", b.NumChannels(), b.Len(), b.SampleRate())
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := map[string][]byte{
		"empty":   nil,
		"mp3":     []byte("ID3\x04\x00\x00\x00\x00"),
		"bad wav": []byte("RIFF\x00\x00\x00\x00WAVE"),
		"bad ogg": []byte("OggS\x00\x02garbage"),
	}

	for name, data := range tests {
		if _, err := Decode(bytes.NewReader(data)); !errors.Is(err, ErrDecode) {
			t.Errorf("%s: Decode() = %v, want ErrDecode", name, err)
		}
	}

	_, err := Decode(bytes.NewReader([]byte("RIFF\x00\x00\x00\x00WAVE")))
	if !errors.Is(err, wav.ErrFormat) {
		t.Errorf("wav cause not wrapped: %v", err)
	}
}

func TestMIMEType(t *testing.T) {
	tests := map[string]string{
		"mix.wav":        "audio/wav",
		"MIX.WAV":        "audio/wav",
		"song.flac":      "audio/flac",
		"track.mp3":      "audio/mpeg",
		"voice.opus":     "audio/ogg",
		"notes.txt":      "application/octet-stream",
		"no-extension":   "application/octet-stream",
		"archive.tar.gz": "application/octet-stream",
	}

	for name, want := range tests {
		if got := MIMEType(name); got != want {
			t.Errorf("MIMEType(%q) = %q, want %q", name, got, want)
		}
	}
}
