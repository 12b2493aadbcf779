package spectrum

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/mixdesk/dsp/core"
)

const (
	// DefaultSmoothing is the default smoothing time constant.
	DefaultSmoothing = 0.8
	// DefaultMinDB and DefaultMaxDB bound the byte frequency scale.
	DefaultMinDB = -100.0
	DefaultMaxDB = -30.0

	MinFFTSize = 32
	MaxFFTSize = 32768
)

// Option configures an [Analyser].
type Option func(*config)

type config struct {
	smoothing    float64
	minDB, maxDB float64
}

// WithSmoothing sets the smoothing time constant in [0, 1). 0 disables
// averaging between analyses.
func WithSmoothing(tau float64) Option {
	return func(c *config) { c.smoothing = tau }
}

// WithDecibelRange sets the levels mapped to byte 0 and byte 255.
func WithDecibelRange(minDB, maxDB float64) Option {
	return func(c *config) {
		c.minDB = minDB
		c.maxDB = maxDB
	}
}

// Analyser is a real-time FFT analyser tap. Push feeds it audio; the data
// methods analyse the most recent fftSize samples. An analysis runs at most
// once per pushed block, so reading float and byte data for the same block
// smooths only once.
//
// Not safe for concurrent use.
type Analyser struct {
	fftSize   int
	smoothing float64
	minDB     float64
	maxDB     float64

	plan   *algofft.Plan[complex128]
	window []float64

	ring  []float64
	write int

	frame    []float64
	fftIn    []complex128
	fftOut   []complex128
	re, im   []float64
	mag      []float64
	smoothed []float64
	mono     []float64

	fresh bool
}

// New creates an analyser for fftSize, a power of two in [32, 32768].
func New(fftSize int, opts ...Option) (*Analyser, error) {
	if fftSize < MinFFTSize || fftSize > MaxFFTSize || fftSize&(fftSize-1) != 0 {
		return nil, fmt.Errorf("analyser fft size must be a power of two in [%d, %d]: %d",
			MinFFTSize, MaxFFTSize, fftSize)
	}

	cfg := config{smoothing: DefaultSmoothing, minDB: DefaultMinDB, maxDB: DefaultMaxDB}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.smoothing < 0 || cfg.smoothing >= 1 || math.IsNaN(cfg.smoothing) {
		return nil, fmt.Errorf("analyser smoothing must be in [0, 1): %f", cfg.smoothing)
	}

	if !(cfg.minDB < cfg.maxDB) || !core.IsFinite(cfg.minDB) || !core.IsFinite(cfg.maxDB) {
		return nil, fmt.Errorf("analyser decibel range is invalid: [%f, %f]", cfg.minDB, cfg.maxDB)
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("analyser fft plan: %w", err)
	}

	bins := fftSize / 2

	return &Analyser{
		fftSize:   fftSize,
		smoothing: cfg.smoothing,
		minDB:     cfg.minDB,
		maxDB:     cfg.maxDB,
		plan:      plan,
		window:    blackman(fftSize),
		ring:      make([]float64, fftSize),
		frame:     make([]float64, fftSize),
		fftIn:     make([]complex128, fftSize),
		fftOut:    make([]complex128, fftSize),
		re:        make([]float64, bins),
		im:        make([]float64, bins),
		mag:       make([]float64, bins),
		smoothed:  make([]float64, bins),
	}, nil
}

// FFTSize returns the analysis length.
func (a *Analyser) FFTSize() int { return a.fftSize }

// FrequencyBinCount returns fftSize/2.
func (a *Analyser) FrequencyBinCount() int { return a.fftSize / 2 }

// DecibelRange returns the byte scale bounds.
func (a *Analyser) DecibelRange() (minDB, maxDB float64) { return a.minDB, a.maxDB }

// Smoothing returns the smoothing time constant.
func (a *Analyser) Smoothing() float64 { return a.smoothing }

// Push appends a planar block, down-mixed to mono.
func (a *Analyser) Push(block [][]float64) {
	if len(block) == 0 {
		return
	}

	frames := core.Frames(block)
	a.mono = core.EnsureLen(a.mono, frames)
	copy(a.mono, block[0])

	for _, ch := range block[1:] {
		vecmath.AddBlockInPlace(a.mono, ch[:frames])
	}

	if len(block) > 1 {
		vecmath.ScaleBlockInPlace(a.mono, 1/float64(len(block)))
	}

	src := a.mono
	if len(src) > a.fftSize {
		src = src[len(src)-a.fftSize:]
	}

	for len(src) > 0 {
		n := copy(a.ring[a.write:], src)
		src = src[n:]
		a.write = (a.write + n) % a.fftSize
	}

	a.fresh = true
}

// FloatFrequencyData writes the smoothed magnitude of each bin in dB into
// dst, up to min(len(dst), FrequencyBinCount()) values. Silent bins read
// -Inf.
func (a *Analyser) FloatFrequencyData(dst []float64) {
	a.analyse()

	n := min(len(dst), len(a.smoothed))
	for i := range n {
		dst[i] = core.LinearToDB(a.smoothed[i])
	}
}

// ByteFrequencyData writes the smoothed bin levels scaled so that minDB
// maps to 0 and maxDB to 255, clamped.
func (a *Analyser) ByteFrequencyData(dst []byte) {
	a.analyse()

	scale := 255 / (a.maxDB - a.minDB)

	n := min(len(dst), len(a.smoothed))
	for i := range n {
		db := core.LinearToDB(a.smoothed[i])
		dst[i] = byte(core.Clamp(math.Floor(scale*(db-a.minDB)), 0, 255))
	}
}

// FloatTimeDomainData writes the most recent samples, oldest first.
func (a *Analyser) FloatTimeDomainData(dst []float64) {
	a.unroll()

	copy(dst, a.frame)
}

// ByteTimeDomainData writes the most recent samples mapped from [-1, 1]
// to [0, 255] with 128 as zero.
func (a *Analyser) ByteTimeDomainData(dst []byte) {
	a.unroll()

	n := min(len(dst), len(a.frame))
	for i := range n {
		dst[i] = byte(core.Clamp(math.Floor(128*(1+a.frame[i])), 0, 255))
	}
}

// Reset clears the sample history and the smoothing state.
func (a *Analyser) Reset() {
	clear(a.ring)
	clear(a.smoothed)
	a.write = 0
	a.fresh = false
}

// unroll copies the ring into frame in chronological order.
func (a *Analyser) unroll() {
	n := copy(a.frame, a.ring[a.write:])
	copy(a.frame[n:], a.ring[:a.write])
}

func (a *Analyser) analyse() {
	if !a.fresh {
		return
	}

	a.fresh = false
	a.unroll()
	vecmath.MulBlockInPlace(a.frame, a.window)

	for i, x := range a.frame {
		a.fftIn[i] = complex(x, 0)
	}

	if err := a.plan.Forward(a.fftOut, a.fftIn); err != nil {
		// Buffers are sized to the plan, so this only happens on a
		// programming error; keep the previous analysis.
		return
	}

	for i := range a.re {
		a.re[i] = real(a.fftOut[i])
		a.im[i] = imag(a.fftOut[i])
	}

	vecmath.Magnitude(a.mag, a.re, a.im)
	vecmath.ScaleBlockInPlace(a.mag, 1/float64(a.fftSize))

	tau := a.smoothing
	for i, m := range a.mag {
		s := tau*a.smoothed[i] + (1-tau)*m
		if !core.IsFinite(s) {
			s = 0
		}

		a.smoothed[i] = s
	}
}

// blackman returns the periodic Blackman window (alpha 0.16) of length n.
func blackman(n int) []float64 {
	const (
		a0 = 0.42
		a1 = 0.5
		a2 = 0.08
	)

	w := make([]float64, n)
	for i := range w {
		x := 2 * math.Pi * float64(i) / float64(n)
		w[i] = a0 - a1*math.Cos(x) + a2*math.Cos(2*x)
	}

	return w
}
