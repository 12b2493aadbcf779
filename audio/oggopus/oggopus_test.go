package oggopus

import (
	"bytes"
	"math"
	"testing"

	"github.com/thesyncim/gopus"
	"github.com/thesyncim/gopus/container/ogg"
)

func encode(t *testing.T, channels, packets int) []byte {
	t.Helper()

	var buf bytes.Buffer

	w, err := ogg.NewWriter(&buf, SampleRate, uint8(channels))
	if err != nil {
		t.Fatal(err)
	}

	enc, err := gopus.NewEncoder(SampleRate, channels, gopus.ApplicationAudio)
	if err != nil {
		t.Fatal(err)
	}

	const frame = 960

	for p := range packets {
		pcm := make([]float32, frame*channels)
		for i := range frame {
			v := float32(0.5 * math.Sin(2*math.Pi*440*float64(p*frame+i)/SampleRate))
			for ch := range channels {
				pcm[i*channels+ch] = v
			}
		}

		packet, err := enc.EncodeFloat32(pcm)
		if err != nil {
			t.Fatal(err)
		}

		if err := w.WritePacket(packet, frame); err != nil {
			t.Fatal(err)
		}
	}

	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	for _, channels := range []int{1, 2} {
		data := encode(t, channels, 25)

		out, err := Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("%d channels: %v", channels, err)
		}

		if len(out) != channels {
			t.Fatalf("channels = %d, want %d", len(out), channels)
		}

		total := 25 * 960
		if n := len(out[0]); n > total || n < total-960 {
			t.Fatalf("%d channels: %d frames, want about %d", channels, n, total)
		}
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode(bytes.NewReader([]byte("OggS not really a stream"))); err == nil {
		t.Fatal("expected error")
	}
}
