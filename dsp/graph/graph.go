package graph

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/mixdesk/dsp/core"
	"github.com/cwbudde/mixdesk/dsp/effects/dynamics"
	"github.com/cwbudde/mixdesk/dsp/filter/crossover"
	"github.com/cwbudde/mixdesk/dsp/filter/eq"
	"github.com/cwbudde/mixdesk/dsp/gain"
	"github.com/cwbudde/mixdesk/dsp/param"
	"github.com/cwbudde/mixdesk/dsp/spectrum"
	"github.com/cwbudde/mixdesk/mix"
)

// DefaultSmoothing is the time constant, in seconds, with which a live
// graph glides filter and makeup parameters to new values.
const DefaultSmoothing = 0.01

// Analyser tap sizes of a live graph.
const (
	SpectrumFFTSize    = 2048
	SpectrogramFFTSize = 512
	SpectrumMinDB      = -90.0
	SpectrumMaxDB      = -10.0
)

// ErrClosed is returned by Apply on a graph after Close.
var ErrClosed = errors.New("graph: closed")

// Option configures [Build].
type Option func(*options)

type options struct {
	smoothing float64
}

// WithSmoothing overrides the live parameter smoothing time constant.
// 0 applies changes immediately. Offline graphs never smooth.
func WithSmoothing(seconds float64) Option {
	return func(o *options) {
		if seconds >= 0 && core.IsFinite(seconds) {
			o.smoothing = seconds
		}
	}
}

// Graph owns every node of one processing graph. It is built once per
// loaded file and reconfigured only through [Graph.Apply].
//
// Not safe for concurrent use.
type Graph struct {
	ctx        Context
	sampleRate float64
	channels   int
	smoothing  float64
	settings   mix.Settings
	closed     bool

	// Live bypass gains; nil offline.
	dry *gain.Node
	wet *gain.Node

	// Offline path selection.
	wetPath bool

	splitter *crossover.Splitter
	bank     *dynamics.Bank
	stage    *eq.Stage

	spectrum    *spectrum.Analyser
	spectrogram *spectrum.Analyser

	dryBuf [][]float64
	taps   [][][]float64
}

// Build constructs the graph for s against ctx. Live graphs get both
// paths, bypass gains and analyser taps; offline graphs get only the path
// selected by s.CompressorEnabled. Every parameter is set to its value in
// s before the first block.
func Build(ctx Context, s mix.Settings, opts ...Option) (*Graph, error) {
	if ctx == nil {
		return nil, errors.New("graph: nil context")
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("graph: %w", err)
	}

	o := options{smoothing: DefaultSmoothing}
	for _, opt := range opts {
		opt(&o)
	}

	g := &Graph{
		ctx:        ctx,
		sampleRate: ctx.SampleRate(),
		channels:   ctx.Channels(),
		settings:   s,
		taps:       make([][][]float64, crossover.NumTaps),
	}

	if ctx.Realtime() {
		g.smoothing = o.smoothing
	}

	bands := make([]eq.Settings, mix.NumBands)
	for i, f := range s.EQ {
		bands[i] = eqSettings(f)
	}

	g.stage = eq.NewStage(bands, g.sampleRate, g.channels)

	if !ctx.Realtime() {
		g.wetPath = s.CompressorEnabled
		if g.wetPath {
			if err := g.buildWet(); err != nil {
				return nil, err
			}
		}

		return g, nil
	}

	if err := g.buildWet(); err != nil {
		return nil, err
	}

	wet, dry := bypassGains(s.CompressorEnabled)
	g.wet = gain.New(wet)
	g.dry = gain.New(dry)

	var err error

	g.spectrum, err = spectrum.New(SpectrumFFTSize, spectrum.WithDecibelRange(SpectrumMinDB, SpectrumMaxDB))
	if err != nil {
		return nil, fmt.Errorf("graph: spectrum tap: %w", err)
	}

	g.spectrogram, err = spectrum.New(SpectrogramFFTSize)
	if err != nil {
		return nil, fmt.Errorf("graph: spectrogram tap: %w", err)
	}

	return g, nil
}

func (g *Graph) buildWet() error {
	s := g.settings

	splitter, err := crossover.New(s.Crossover.LowMidHz, s.Crossover.MidHighHz, g.sampleRate, g.channels)
	if err != nil {
		return fmt.Errorf("graph: %w", err)
	}

	bank, err := dynamics.NewBank(mix.NumBands, g.sampleRate)
	if err != nil {
		return fmt.Errorf("graph: %w", err)
	}

	for i, c := range s.Compressors {
		if err := configureCompressor(bank.Compressor(i), c); err != nil {
			return fmt.Errorf("graph: compressor %s: %w", mix.Band(i), err)
		}

		bank.SetMakeupGainDB(i, c.MakeupGainDB, 0, 0)
	}

	g.splitter = splitter
	g.bank = bank

	return nil
}

// Context returns the context the graph was built against.
func (g *Graph) Context() Context { return g.ctx }

// Realtime reports whether the graph is live.
func (g *Graph) Realtime() bool { return g.ctx.Realtime() }

// Settings returns the settings the graph is configured with.
func (g *Graph) Settings() mix.Settings { return g.settings }

// Stage returns the EQ stage.
func (g *Graph) Stage() *eq.Stage { return g.stage }

// Splitter returns the crossover, or nil on an offline dry graph.
func (g *Graph) Splitter() *crossover.Splitter { return g.splitter }

// Bank returns the compressor bank, or nil on an offline dry graph.
func (g *Graph) Bank() *dynamics.Bank { return g.bank }

// WetGain returns the wet bypass gain node, nil offline.
func (g *Graph) WetGain() *gain.Node { return g.wet }

// DryGain returns the dry bypass gain node, nil offline.
func (g *Graph) DryGain() *gain.Node { return g.dry }

// Spectrum returns the 2048-point analyser tap, nil offline.
func (g *Graph) Spectrum() *spectrum.Analyser { return g.spectrum }

// Spectrogram returns the 512-point analyser tap, nil offline.
func (g *Graph) Spectrogram() *spectrum.Analyser { return g.spectrogram }

// Apply validates change against the current settings and schedules it on
// the nodes at audio time at (seconds). Live graphs glide filter and makeup
// changes with the smoothing time constant; the bypass switch is a step
// at exactly at. Offline graphs apply everything immediately.
func (g *Graph) Apply(change mix.Change, at float64) error {
	if g.closed {
		return ErrClosed
	}

	next := g.settings
	if err := next.Apply(change); err != nil {
		return err
	}

	switch c := change.(type) {
	case mix.FilterChange:
		g.stage.SetBand(int(c.Band), eqSettings(next.EQ[c.Band]), at, g.smoothing)
	case mix.FilterTypeChange:
		g.stage.SetBand(int(c.Band), eqSettings(next.EQ[c.Band]), at, g.smoothing)
	case mix.CrossoverChange:
		if g.splitter != nil {
			g.splitter.SetCrossover(c.LowMidHz, c.MidHighHz, at, g.smoothing)
		}
	case mix.CompressorChange:
		if g.bank != nil {
			if err := g.applyCompressor(c, at); err != nil {
				return err
			}
		}
	case mix.BypassChange:
		g.settings = next
		return g.SetCompressorEnabled(c.Enabled, at)
	}

	g.settings = next

	return nil
}

func (g *Graph) applyCompressor(c mix.CompressorChange, at float64) error {
	comp := g.bank.Compressor(int(c.Band))

	var err error

	switch c.Field {
	case mix.FieldThreshold:
		err = comp.SetThreshold(c.Value)
	case mix.FieldKnee:
		err = comp.SetKnee(c.Value)
	case mix.FieldRatio:
		err = comp.SetRatio(c.Value)
	case mix.FieldAttack:
		err = comp.SetAttack(c.Value)
	case mix.FieldRelease:
		err = comp.SetRelease(c.Value)
	case mix.FieldMakeup:
		g.bank.SetMakeupGainDB(int(c.Band), c.Value, at, g.smoothing)
	}

	if err != nil {
		return fmt.Errorf("graph: compressor %s: %w", c.Band, err)
	}

	return nil
}

// SetCompressorEnabled switches between the wet and dry paths at audio
// time at. On a live graph both gains step on the frame containing at, so
// exactly one of them is 1. On an offline graph the path is reconnected
// immediately.
func (g *Graph) SetCompressorEnabled(enabled bool, at float64) error {
	if g.closed {
		return ErrClosed
	}

	g.settings.CompressorEnabled = enabled

	if !g.Realtime() {
		if enabled && g.splitter == nil {
			if err := g.buildWet(); err != nil {
				return err
			}
		}

		g.wetPath = enabled

		return nil
	}

	// A later switch in the same quantum replaces an earlier one.
	wet, dry := bypassGains(enabled)
	for _, p := range []*param.Param{g.wet.Gain(), g.dry.Gain()} {
		p.CancelScheduledValues(at)
	}

	g.wet.Gain().SetValueAtTime(wet, at)
	g.dry.Gain().SetValueAtTime(dry, at)

	return nil
}

// Process renders one block. in holds the source samples and is not
// modified; out receives the EQ output. Both must be planar with the
// context's channel count and equal lengths, otherwise out is silenced.
// The context clock advances by the block length.
func (g *Graph) Process(in, out [][]float64) {
	frames := core.Frames(out)
	if len(in) != g.channels || len(out) != g.channels || core.Frames(in) != frames || g.closed {
		core.ZeroPlanar(out)
		return
	}

	frame := g.ctx.CurrentFrame()

	switch {
	case g.Realtime():
		g.dryBuf = core.EnsurePlanar(g.dryBuf, g.channels, frames)
		if g.dry.Silent() {
			core.ZeroPlanar(g.dryBuf)
		} else {
			core.CopyPlanar(g.dryBuf, in)
			g.dry.Process(g.dryBuf, frame, g.sampleRate)
		}

		sum := g.processWet(in, frame)
		g.wet.Process(sum, frame, g.sampleRate)

		for ch := range out {
			vecmath.AddBlock(out[ch], g.dryBuf[ch], sum[ch])
		}
	case g.wetPath:
		core.CopyPlanar(out, g.processWet(in, frame))
	default:
		core.CopyPlanar(out, in)
	}

	g.stage.Process(out, frame)

	if g.spectrum != nil {
		g.spectrum.Push(out)
		g.spectrogram.Push(out)
	}

	g.ctx.advance(frames)
}

func (g *Graph) processWet(in [][]float64, frame int64) [][]float64 {
	low, mid, high := g.splitter.Process(in, frame)
	g.taps[crossover.TapLow] = low
	g.taps[crossover.TapMid] = mid
	g.taps[crossover.TapHigh] = high

	return g.bank.Process(g.taps, frame)
}

// CrossoverEdges returns the settled split frequencies of the crossover,
// or the configured ones on a graph without a wet path.
func (g *Graph) CrossoverEdges() (lowMidHz, midHighHz float64) {
	if g.splitter == nil {
		return g.settings.Crossover.LowMidHz, g.settings.Crossover.MidHighHz
	}

	return g.splitter.LowTapUpperEdge(), g.splitter.HighTapLowerEdge()
}

// ReductionDB returns the current gain reduction of band (<= 0 dB). It is 0
// on a graph without a wet path.
func (g *Graph) ReductionDB(band mix.Band) float64 {
	if g.bank == nil || !band.Valid() {
		return 0
	}

	return g.bank.ReductionDB(int(band))
}

// FrequencyResponseDB returns the combined EQ response at freqs.
func (g *Graph) FrequencyResponseDB(freqs []float64) []float64 {
	return g.stage.FrequencyResponseDB(freqs)
}

// Close detaches the graph. Later blocks render silence and Apply fails.
func (g *Graph) Close() {
	g.closed = true
}

func bypassGains(enabled bool) (wet, dry float64) {
	if enabled {
		return 1, 0
	}

	return 0, 1
}

func eqSettings(f mix.FilterBandConfig) eq.Settings {
	return eq.Settings{Kind: f.Type, FrequencyHz: f.FrequencyHz, Q: f.Q, GainDB: f.GainDB}
}

func configureCompressor(c *dynamics.Compressor, cfg mix.BandCompressorConfig) error {
	return errors.Join(
		c.SetThreshold(cfg.ThresholdDB),
		c.SetKnee(cfg.KneeDB),
		c.SetRatio(cfg.Ratio),
		c.SetAttack(cfg.AttackSec),
		c.SetRelease(cfg.ReleaseSec),
	)
}
