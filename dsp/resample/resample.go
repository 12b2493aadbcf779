package resample

import (
	"errors"
	"math"
)

// ErrInvalidRate indicates a sample rate that is not positive and finite.
var ErrInvalidRate = errors.New("resample: invalid sample rate")

const (
	// MaxDenominator bounds the reduced rate ratio.
	MaxDenominator = 4096

	tapsPerPhase = 32
	cutoffScale  = 0.92
	kaiserBeta   = 7.5
)

// Converter converts channels from one sample rate to another. It holds
// only the designed filter and is safe for concurrent use.
type Converter struct {
	up, down int
	taps     []float64
}

// New designs a converter from inRate to outRate.
func New(inRate, outRate float64) (*Converter, error) {
	if !validRate(inRate) || !validRate(outRate) {
		return nil, ErrInvalidRate
	}

	up, down := approximateRatio(outRate/inRate, MaxDenominator)
	c := &Converter{up: up, down: down}

	if up != down {
		c.taps = lowpass(up, down, tapsPerPhase, cutoffScale, kaiserBeta)
	}

	return c, nil
}

// Ratio returns the reduced conversion ratio.
func (c *Converter) Ratio() (up, down int) { return c.up, c.down }

// OutputLen returns the number of frames Convert produces for n input
// frames: ceil(n*up/down).
func (c *Converter) OutputLen(n int) int {
	if n <= 0 {
		return 0
	}

	return (n*c.up + c.down - 1) / c.down
}

// Convert returns x at the output rate. With equal rates it returns a copy.
func (c *Converter) Convert(x []float64) []float64 {
	out := make([]float64, c.OutputLen(len(x)))
	if c.taps == nil {
		copy(out, x)
		return out
	}

	n := len(c.taps)
	delay := (n - 1) / 2

	for j := range out {
		// Position of the output sample on the upsampled grid, shifted by
		// the filter's group delay.
		m := j*c.down + delay

		first := max(0, ceilDiv(m-n+1, c.up))
		last := min(len(x)-1, m/c.up)

		var y float64
		for i := first; i <= last; i++ {
			y += c.taps[m-i*c.up] * x[i]
		}

		out[j] = y
	}

	return out
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return -((-a) / b)
	}

	return (a + b - 1) / b
}

func validRate(r float64) bool {
	return r > 0 && !math.IsNaN(r) && !math.IsInf(r, 0)
}
