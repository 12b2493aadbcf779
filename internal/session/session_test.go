package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/mixdesk/audio"
	"github.com/cwbudde/mixdesk/audio/wav"
	"github.com/cwbudde/mixdesk/dsp/filter/design"
	"github.com/cwbudde/mixdesk/internal/testutil"
	"github.com/cwbudde/mixdesk/mix"
	"github.com/cwbudde/mixdesk/render"
	"github.com/cwbudde/mixdesk/transport"
)

const sr = 48000.0

func newSession(t *testing.T, opts ...Option) (*Session, *transport.ManualScheduler) {
	t.Helper()

	sched := &transport.ManualScheduler{}

	s, err := New(sr, append([]Option{WithScheduler(sched), WithChannels(1)}, opts...)...)
	if err != nil {
		t.Fatal(err)
	}

	return s, sched
}

func load(t *testing.T, s *Session, rate float64, samples []float64) {
	t.Helper()

	buf, err := audio.NewBuffer(rate, [][]float64{samples})
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Load(buf); err != nil {
		t.Fatal(err)
	}
}

func TestNewValidates(t *testing.T) {
	bad := mix.Defaults()
	bad.Crossover.LowMidHz = 9000

	if _, err := New(sr, WithSettings(bad)); !errors.Is(err, mix.ErrInvalidParameter) {
		t.Fatalf("err = %v", err)
	}

	for _, rate := range []float64{0, -44100, math.NaN(), math.Inf(1)} {
		if _, err := New(rate); err == nil {
			t.Fatalf("expected error for sample rate %v", rate)
		}
	}

	if _, err := New(sr, WithChannels(0)); err == nil {
		t.Fatal("expected error for zero channels")
	}
}

func TestApplyValidatesImmediately(t *testing.T) {
	s, _ := newSession(t)

	err := s.Apply(mix.FilterChange{Band: mix.Low, Field: mix.FieldFrequency, Value: 5})

	var pe *mix.ParamError
	if !errors.As(err, &pe) || pe.Field != "eq.low.frequencyHz" {
		t.Fatalf("err = %v", err)
	}

	if s.Settings() != mix.Defaults() {
		t.Fatal("rejected change altered settings")
	}
}

func TestChangesApplyAtQuantumStart(t *testing.T) {
	s, _ := newSession(t)
	freqs := []float64{1000}

	if err := s.Apply(mix.FilterChange{Band: mix.Mid, Field: mix.FieldGain, Value: 6}); err != nil {
		t.Fatal(err)
	}

	if s.Settings().EQ[mix.Mid].GainDB != 6 {
		t.Fatal("settings do not include the queued change")
	}

	if got := s.FrequencyResponseDB(freqs)[0]; math.Abs(got) > 1e-9 {
		t.Fatalf("response moved before rendering: %v", got)
	}

	s.Render(make([]float32, 1))

	testutil.RequireNearlyEqual(t, "response", s.FrequencyResponseDB(freqs)[0], 6, 1e-6)
}

func TestApplyClamped(t *testing.T) {
	s, _ := newSession(t)

	if err := s.ApplyClamped(mix.FilterChange{Band: mix.High, Field: mix.FieldFrequency, Value: 1e6}); err != nil {
		t.Fatal(err)
	}

	if got := s.Settings().EQ[mix.High].FrequencyHz; got != mix.MaxFrequencyHz {
		t.Fatalf("frequency = %v", got)
	}
}

func TestBypassSwitchesAtQuantumBoundary(t *testing.T) {
	settings := mix.Defaults()
	for _, b := range mix.Bands() {
		settings.Compressors[b].MakeupGainDB = math.Inf(-1)
	}

	s, _ := newSession(t, WithSettings(settings))
	load(t, s, sr, testutil.DC(0.5, 1024))
	s.Play()

	out := make([]float32, 300)
	s.Render(out[:100])

	// Queued mid-quantum; it lands on frame 128.
	if err := s.Apply(mix.BypassChange{Enabled: true}); err != nil {
		t.Fatal(err)
	}

	s.Render(out[100:])

	for i, v := range out {
		want := float32(0.5)
		if i >= 128 {
			want = 0
		}

		if v != want {
			t.Fatalf("frame %d = %v, want %v", i, v, want)
		}
	}
}

func TestTransportThroughSession(t *testing.T) {
	s, sched := newSession(t)

	s.Play()

	if s.State() != transport.Stopped {
		t.Fatal("play without a file changed state")
	}

	load(t, s, sr, testutil.DeterministicNoise(1, 0.5, 4800))
	s.Toggle()

	if s.State() != transport.Playing {
		t.Fatalf("state = %v", s.State())
	}

	// The clock advances by whole quanta as they are rendered.
	s.Render(make([]float32, 1000))
	testutil.RequireNearlyEqual(t, "progress", s.Progress(), 1024.0/4800, 1e-9)

	s.Scrub(0.5)
	s.Render(make([]float32, 480))
	testutil.RequireNearlyEqual(t, "scrubbed progress", s.Progress(), 0.5, 1e-9)

	sched.Advance(transport.ResumeDelay)

	if s.State() != transport.Playing {
		t.Fatalf("state after resume = %v", s.State())
	}

	// Load replaces the file and stops.
	load(t, s, sr, testutil.DeterministicNoise(2, 0.5, 100))

	if st := s.Status(); st.State != transport.Stopped || !st.Loaded || st.Progress != 0 {
		t.Fatalf("status after load = %+v", st)
	}
}

func TestLoadResamples(t *testing.T) {
	s, _ := newSession(t)
	load(t, s, 44100, make([]float64, 44100))

	st := s.Status()
	testutil.RequireNearlyEqual(t, "duration", st.DurationS, 1, 1e-9)

	if s.Source().SampleRate() != 44100 {
		t.Fatal("source not kept at its own rate")
	}
}

func TestLoadReaderRejectsGarbage(t *testing.T) {
	s, _ := newSession(t)

	if err := s.LoadReader(bytes.NewReader([]byte("not audio at all"))); !errors.Is(err, audio.ErrDecode) {
		t.Fatalf("err = %v", err)
	}

	if err := <-s.LoadAsync(t.Context(), bytes.NewReader(nil)); err == nil {
		t.Fatal("expected error for empty input")
	}

	if s.Status().Loaded {
		t.Fatal("failed load left a file loaded")
	}
}

func TestLoadAsync(t *testing.T) {
	var file bytes.Buffer
	if err := wav.Encode16(&file, 48000, [][]float64{make([]float64, 480)}); err != nil {
		t.Fatal(err)
	}

	s, _ := newSession(t)

	if err := <-s.LoadAsync(t.Context(), &file); err != nil {
		t.Fatal(err)
	}

	if s.Source().Len() != 480 {
		t.Fatalf("loaded %d frames", s.Source().Len())
	}
}

func TestMeterFloor(t *testing.T) {
	settings := mix.Defaults()
	settings.CompressorEnabled = true

	for _, b := range mix.Bands() {
		settings.Compressors[b].ThresholdDB = mix.MinThresholdDB
		settings.Compressors[b].Ratio = mix.MaxRatio
		settings.Compressors[b].KneeDB = 0
	}

	s, _ := newSession(t, WithSettings(settings))
	load(t, s, sr, testutil.DeterministicSine(100, sr, 0.9, 9600))
	s.Play()
	s.Render(make([]float32, 9600))

	if got := s.ReductionDB(mix.Low); got >= MeterFloorDB {
		t.Fatalf("reduction = %v, want below the floor", got)
	}

	if got := s.MeterDB(mix.Low); got != MeterFloorDB {
		t.Fatalf("meter = %v, want %v", got, MeterFloorDB)
	}
}

func TestRead(t *testing.T) {
	s, err := New(sr, WithChannels(2))
	if err != nil {
		t.Fatal(err)
	}

	load(t, s, sr, testutil.DC(0.25, 256))
	s.Play()

	// 10 bytes hold one stereo float32 frame.
	p := make([]byte, 10)

	n, err := s.Read(p)
	if err != nil || n != 8 {
		t.Fatalf("Read = %d, %v", n, err)
	}

	for ch := range 2 {
		if v := math.Float32frombits(binary.LittleEndian.Uint32(p[4*ch:])); v != 0.25 {
			t.Fatalf("channel %d = %v", ch, v)
		}
	}
}

func TestSetSettings(t *testing.T) {
	s, _ := newSession(t)

	next := mix.Defaults()
	next.EQ[mix.Low].Type = design.KindPeaking
	next.EQ[mix.Low].GainDB = 3
	next.Crossover = mix.CrossoverConfig{LowMidHz: 300, MidHighHz: 5000}

	if err := s.SetSettings(next); err != nil {
		t.Fatal(err)
	}

	s.Render(make([]float32, 1))

	if s.Settings() != next {
		t.Fatalf("settings = %+v", s.Settings())
	}

	testutil.RequireNearlyEqual(t, "low response", s.FrequencyResponseDB([]float64{100})[0], 3, 0.05)
}

func TestExport(t *testing.T) {
	s, _ := newSession(t)

	if err := s.Export(&bytes.Buffer{}); !errors.Is(err, render.ErrNoAudio) {
		t.Fatalf("export without audio: %v", err)
	}

	load(t, s, 44100, testutil.DeterministicNoise(3, 0.5, 1000))

	var out bytes.Buffer
	if err := s.Export(&out); err != nil {
		t.Fatal(err)
	}

	if out.Len() != wav.HeaderSize+1000*2 {
		t.Fatalf("exported %d bytes", out.Len())
	}

	if got := binary.LittleEndian.Uint32(out.Bytes()[24:]); got != 44100 {
		t.Fatalf("exported sample rate %d", got)
	}
}

func TestExportAsync(t *testing.T) {
	s, _ := newSession(t)

	if err := <-s.ExportAsync(&bytes.Buffer{}); !errors.Is(err, render.ErrNoAudio) {
		t.Fatalf("async export without audio: %v", err)
	}

	load(t, s, 44100, testutil.DeterministicNoise(4, 0.5, 1000))

	var want bytes.Buffer
	if err := s.Export(&want); err != nil {
		t.Fatal(err)
	}

	var got bytes.Buffer
	done := s.ExportAsync(&got)

	// The session keeps serving the live path while the export renders,
	// and changes made now do not reach it.
	if err := s.Apply(mix.FilterChange{Band: mix.Low, Field: mix.FieldGain, Value: 12}); err != nil {
		t.Fatal(err)
	}

	s.Play()
	s.Render(make([]float32, 512))

	if err := <-done; err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(got.Bytes(), want.Bytes()) {
		t.Fatalf("async export differs: %d bytes vs %d", got.Len(), want.Len())
	}

	if _, ok := <-done; ok {
		t.Fatal("result channel not closed")
	}
}

func TestAnalysers(t *testing.T) {
	s, _ := newSession(t)
	load(t, s, sr, testutil.DeterministicSine(1000, sr, 0.5, 4096))
	s.Play()
	s.Render(make([]float32, 4096))

	bins := make([]float64, 1024)
	s.Spectrum(bins)

	peak := 0
	for i, v := range bins {
		if v > bins[peak] {
			peak = i
		}
	}

	// 1 kHz lands in bin 1000 / (48000 / 2048) ≈ 42.7.
	if peak < 42 || peak > 43 {
		t.Fatalf("spectrum peak at bin %d", peak)
	}

	column := make([]byte, 256)
	s.Spectrogram(column)

	wave := make([]float64, 2048)
	s.Waveform(wave)
	testutil.RequireFinite(t, wave)

	waveBytes := make([]byte, 2048)
	s.WaveformBytes(waveBytes)

	var lo, hi byte = 255, 0
	for _, v := range waveBytes {
		lo, hi = min(lo, v), max(hi, v)
	}

	// A 0.5 amplitude sine spans 64..192 around the 128 midpoint.
	if lo < 63 || lo > 68 || hi < 188 || hi > 192 {
		t.Fatalf("waveform bytes span %d..%d", lo, hi)
	}
}

func TestStatusReportsLiveCrossover(t *testing.T) {
	s, _ := newSession(t)
	def := mix.Defaults().Crossover

	if err := s.Apply(mix.CrossoverChange{LowMidHz: 300, MidHighHz: 5000}); err != nil {
		t.Fatal(err)
	}

	if got := s.Status().CrossoverHz; got != [2]float64{def.LowMidHz, def.MidHighHz} {
		t.Fatalf("crossover before the next quantum = %v", got)
	}

	s.Render(make([]float32, 128))

	if got := s.Status().CrossoverHz; got != [2]float64{300, 5000} {
		t.Fatalf("crossover = %v", got)
	}
}
