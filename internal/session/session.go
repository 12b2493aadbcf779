// Package session is the live mixing engine behind the browser page and the
// terminal preview: one loaded file, its transport and the live graph.
//
// Host calls are serialised by a mutex. Parameter changes are validated
// when they are made, queued, and applied at the start of the next render
// quantum, scheduled at that quantum's audio time.
package session

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/mixdesk/audio"
	"github.com/cwbudde/mixdesk/dsp/core"
	"github.com/cwbudde/mixdesk/dsp/graph"
	"github.com/cwbudde/mixdesk/mix"
	"github.com/cwbudde/mixdesk/render"
	"github.com/cwbudde/mixdesk/transport"
)

// MeterFloorDB is the lowest level [Session.MeterDB] reports.
const MeterFloorDB = -30.0

// Option configures a [Session].
type Option func(*config)

type config struct {
	logger    *slog.Logger
	scheduler transport.Scheduler
	settings  mix.Settings
	channels  int
}

// WithLogger sets the logger for loads, exports and dropped changes.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithScheduler sets the scheduler of the scrub resume timer.
func WithScheduler(s transport.Scheduler) Option {
	return func(c *config) { c.scheduler = s }
}

// WithSettings sets the initial mix. Invalid settings make [New] fail.
func WithSettings(s mix.Settings) Option {
	return func(c *config) { c.settings = s }
}

// WithChannels sets the output channel count (default 2).
func WithChannels(n int) Option {
	return func(c *config) { c.channels = n }
}

// Status is a snapshot of the session for display.
type Status struct {
	Loaded    bool
	State     transport.State
	Progress  float64
	ElapsedS  float64
	DurationS float64
	Reduction [mix.NumBands]float64
	// CrossoverHz holds the split frequencies the live graph is moving to.
	CrossoverHz [2]float64
	Settings    mix.Settings
}

// Session owns the live graph. It is safe for concurrent use.
type Session struct {
	mu sync.Mutex

	log        *slog.Logger
	sampleRate float64
	channels   int

	settings mix.Settings
	queue    []mix.Change

	ctx       *graph.RealtimeContext
	graph     *graph.Graph
	transport *transport.Controller
	source    *audio.Buffer

	// now mirrors the audio clock for the transport, which reads it from
	// timer goroutines.
	now atomic.Uint64

	in, out [][]float64
	pos     int
}

// New returns a session rendering at sampleRate with no file loaded.
func New(sampleRate float64, opts ...Option) (*Session, error) {
	cfg := config{
		logger:   slog.New(slog.DiscardHandler),
		settings: mix.Defaults(),
		channels: 2,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.settings.Validate(); err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return nil, fmt.Errorf("session: sample rate must be positive and finite: %f", sampleRate)
	}

	if cfg.channels < 1 {
		return nil, fmt.Errorf("session: channel count must be positive: %d", cfg.channels)
	}

	ctx, err := graph.NewRealtimeContext(core.WithSampleRate(sampleRate), core.WithChannels(cfg.channels))
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	s := &Session{
		log:        cfg.logger,
		sampleRate: sampleRate,
		channels:   cfg.channels,
		settings:   cfg.settings,
		ctx:        ctx,
		in:         core.EnsurePlanar(nil, cfg.channels, ctx.Quantum()),
		out:        core.EnsurePlanar(nil, cfg.channels, ctx.Quantum()),
	}

	s.pos = ctx.Quantum()
	s.transport = transport.New(transport.ClockFunc(s.clock), cfg.scheduler)

	if s.graph, err = graph.Build(ctx, s.settings); err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	return s, nil
}

func (s *Session) clock() float64 {
	return math.Float64frombits(s.now.Load())
}

// SampleRate returns the output sample rate.
func (s *Session) SampleRate() float64 { return s.sampleRate }

// Channels returns the output channel count.
func (s *Session) Channels() int { return s.channels }

// Load replaces the loaded file. The old transport stops, a pending scrub
// resume is cancelled and a fresh graph is built from the current
// settings. buf is resampled to the session rate when it differs.
func (s *Session) Load(buf *audio.Buffer) error {
	if buf == nil {
		return render.ErrNoAudio
	}

	live, err := audio.Resample(buf, s.sampleRate)
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := graph.Build(s.ctx, s.settings)
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}

	s.graph.Close()
	s.graph = g
	s.queue = s.queue[:0]
	s.source = buf
	s.transport.Load(live)

	s.log.Debug("loaded audio",
		"frames", buf.Len(), "channels", buf.NumChannels(),
		"sample_rate", buf.SampleRate(), "duration_s", buf.Duration())

	return nil
}

// LoadReader decodes r and loads it. A decode failure leaves the current
// file in place.
func (s *Session) LoadReader(r io.Reader) error {
	buf, err := audio.Decode(r)
	if err != nil {
		return err
	}

	return s.Load(buf)
}

// LoadAsync decodes r and loads it on its own goroutine. The returned
// channel receives the result and is closed.
func (s *Session) LoadAsync(ctx context.Context, r io.Reader) <-chan error {
	done := make(chan error, 1)

	go func() {
		defer close(done)

		buf, err := audio.Decode(r)
		if err == nil {
			err = ctx.Err()
		}

		if err == nil {
			err = s.Load(buf)
		}

		if err != nil {
			s.log.Warn("load failed", "err", err)
		}

		done <- err
	}()

	return done
}

// Close stops playback and detaches the graph.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transport.Close()
	s.graph.Close()
	s.source = nil
}

// Source returns the loaded buffer at its own sample rate, or nil.
func (s *Session) Source() *audio.Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.source
}

// Settings returns the settings including queued changes.
func (s *Session) Settings() mix.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.settings
}

// Apply validates change against the current settings and queues it for
// the next render quantum.
func (s *Session) Apply(change mix.Change) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.applyLocked(change)
}

// ApplyClamped clamps change to the control ranges before applying it,
// as a UI control would.
func (s *Session) ApplyClamped(change mix.Change) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.applyLocked(s.settings.Clamp(change))
}

func (s *Session) applyLocked(change mix.Change) error {
	if err := s.settings.Apply(change); err != nil {
		return err
	}

	s.queue = append(s.queue, change)

	return nil
}

// SetSettings queues the changes that turn the current settings into next.
func (s *Session) SetSettings(next mix.Settings) error {
	if err := next.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error

	for _, c := range s.settings.Diff(next) {
		errs = append(errs, s.applyLocked(c))
	}

	return errors.Join(errs...)
}

// Play starts playback. It does nothing without a file or while playing.
func (s *Session) Play() { s.transport.Play() }

// Pause pauses playback.
func (s *Session) Pause() { s.transport.Pause() }

// Toggle plays when paused or stopped and pauses while playing.
func (s *Session) Toggle() {
	if s.transport.State() == transport.Playing {
		s.transport.Pause()
		return
	}

	s.transport.Play()
}

// Scrub seeks to ratio of the duration and resumes after the resume delay.
func (s *Session) Scrub(ratio float64) { s.transport.Scrub(ratio) }

// Progress returns the playback position as a fraction of the duration.
func (s *Session) Progress() float64 { return s.transport.Progress() }

// State returns the transport state.
func (s *Session) State() transport.State { return s.transport.State() }

// Render fills dst with interleaved output samples. len(dst) should be a
// multiple of the channel count; a trailing partial frame is zeroed.
func (s *Session) Render(dst []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	frames := len(dst) / s.channels
	quantum := s.ctx.Quantum()

	for i := 0; i < frames; {
		if s.pos == quantum {
			s.renderQuantum()
		}

		n := min(frames-i, quantum-s.pos)
		for f := range n {
			for ch := range s.channels {
				dst[(i+f)*s.channels+ch] = float32(s.out[ch][s.pos+f])
			}
		}

		i += n
		s.pos += n
	}

	clear(dst[frames*s.channels:])
}

// renderQuantum drains queued changes at the quantum start and renders the
// next quantum into s.out.
func (s *Session) renderQuantum() {
	at := s.ctx.CurrentTime()

	for _, c := range s.queue {
		if err := s.graph.Apply(c, at); err != nil {
			s.log.Warn("dropped graph change", "change", c.String(), "err", err)
		}
	}

	s.queue = s.queue[:0]

	s.transport.Pull(s.in)
	s.graph.Process(s.in, s.out)
	s.pos = 0

	s.now.Store(math.Float64bits(s.ctx.CurrentTime()))
}

// Read renders float32 little-endian interleaved PCM into p for audio
// sinks that pull from an io.Reader. It never returns an error and always
// fills whole frames.
func (s *Session) Read(p []byte) (int, error) {
	frameBytes := 4 * s.channels

	frames := len(p) / frameBytes
	if frames == 0 {
		return 0, nil
	}

	pcm := make([]float32, frames*s.channels)
	s.Render(pcm)

	for i, v := range pcm {
		binary.LittleEndian.PutUint32(p[4*i:], math.Float32bits(v))
	}

	return frames * frameBytes, nil
}

// ReductionDB returns the live gain reduction of band (<= 0 dB).
func (s *Session) ReductionDB(band mix.Band) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.graph.ReductionDB(band)
}

// MeterDB returns ReductionDB clamped to [MeterFloorDB, 0] for display.
func (s *Session) MeterDB(band mix.Band) float64 {
	return math.Max(s.ReductionDB(band), MeterFloorDB)
}

// FrequencyResponseDB returns the combined EQ response in dB at freqs.
func (s *Session) FrequencyResponseDB(freqs []float64) []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.graph.FrequencyResponseDB(freqs)
}

// Spectrum fills dst with the output spectrum in dB, one value per bin up
// to half the analyser size.
func (s *Session) Spectrum(dst []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.graph.Spectrum().FloatFrequencyData(dst)
}

// SpectrumBytes fills dst with the output spectrum scaled to 0..255.
func (s *Session) SpectrumBytes(dst []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.graph.Spectrum().ByteFrequencyData(dst)
}

// Spectrogram fills dst with one spectrogram column scaled to 0..255.
func (s *Session) Spectrogram(dst []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.graph.Spectrogram().ByteFrequencyData(dst)
}

// Waveform fills dst with the most recent output samples.
func (s *Session) Waveform(dst []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.graph.Spectrum().FloatTimeDomainData(dst)
}

// WaveformBytes fills dst with the most recent output samples mapped to
// 0..255 with 128 as silence.
func (s *Session) WaveformBytes(dst []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.graph.Spectrum().ByteTimeDomainData(dst)
}

// Status returns a snapshot for display.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Loaded:    s.source != nil,
		State:     s.transport.State(),
		Progress:  s.transport.Progress(),
		ElapsedS:  s.transport.Elapsed(),
		DurationS: s.transport.Duration(),
		Settings:  s.settings,
	}

	for _, b := range mix.Bands() {
		st.Reduction[b] = s.graph.ReductionDB(b)
	}

	st.CrossoverHz[0], st.CrossoverHz[1] = s.graph.CrossoverEdges()

	return st
}

// Export renders the loaded file offline at its own sample rate with the
// current settings and writes it to w as 16-bit WAVE.
func (s *Session) Export(w io.Writer) error {
	buf, settings := s.exportSnapshot()

	out, err := render.Render(buf, settings)
	if err != nil {
		return err
	}

	return s.writeExport(w, out)
}

// ExportAsync is [Session.Export] on its own goroutine. The file and
// settings are captured before it returns, so later changes do not reach
// the export, and every other call stays responsive while it renders. The
// returned channel receives the result and is closed.
func (s *Session) ExportAsync(w io.Writer) <-chan error {
	buf, settings := s.exportSnapshot()
	rendered := render.RenderAsync(buf, settings)

	done := make(chan error, 1)

	go func() {
		defer close(done)

		res := <-rendered

		err := res.Err
		if err == nil {
			err = s.writeExport(w, res.Buffer)
		}

		if err != nil {
			s.log.Warn("export failed", "err", err)
		}

		done <- err
	}()

	return done
}

func (s *Session) exportSnapshot() (*audio.Buffer, mix.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.source, s.settings
}

func (s *Session) writeExport(w io.Writer, out *audio.Buffer) error {
	if err := audio.EncodeWAV(w, out); err != nil {
		return fmt.Errorf("session: export: %w", err)
	}

	s.log.Debug("exported", "frames", out.Len(), "sample_rate", out.SampleRate())

	return nil
}
