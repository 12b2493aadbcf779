package dynamics

import (
	"fmt"
	"math"
)

const (
	// Default compressor parameters
	DefaultThresholdDB = -24.0
	DefaultKneeDB      = 30.0
	DefaultRatio       = 12.0
	DefaultAttack      = 0.003
	DefaultRelease     = 0.25

	// Parameter validation ranges
	MinThresholdDB = -100.0
	MaxThresholdDB = 0.0
	MinKneeDB      = 0.0
	MaxKneeDB      = 40.0
	MinRatio       = 1.0
	MaxRatio       = 20.0
	MaxAttack      = 1.0
	MaxRelease     = 1.0

	// log2Of10Div20 is the conversion factor for dB to log2: log2(10) / 20
	log2Of10Div20 = 0.166096404744
)

// Metrics holds metering information since the last reset.
type Metrics struct {
	InputPeak     float64 // Maximum detector level
	OutputPeak    float64 // Maximum output level
	GainReduction float64 // Minimum gain (maximum reduction)
}

// Compressor is a soft-knee downward compressor with log2-domain gain
// calculation.
//
// The knee is centered on the threshold: compression starts kneeDB/2 below
// it and reaches the full ratio kneeDB/2 above it. The detector is a peak
// envelope follower; [Compressor.Process] links all channels of a block so
// one gain is applied to every channel of a frame.
//
// Not safe for concurrent use.
type Compressor struct {
	thresholdDB float64
	kneeDB      float64
	ratio       float64
	attack      float64
	release     float64

	sampleRate float64

	// Envelope follower state
	envelope float64
	gain     float64

	// Computed coefficients (cached for performance)
	attackCoeff      float64
	releaseCoeff     float64
	thresholdLog2    float64
	kneeWidthLog2    float64
	invKneeWidthLog2 float64
	slope            float64 // 1 - 1/ratio

	metrics Metrics
}

// NewCompressor creates a compressor with the mixer defaults:
//   - Threshold: -24 dB
//   - Knee: 30 dB
//   - Ratio: 12:1
//   - Attack: 3 ms
//   - Release: 250 ms
//
// Sample rate must be positive and finite.
func NewCompressor(sampleRate float64) (*Compressor, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("compressor sample rate must be positive and finite: %f", sampleRate)
	}

	c := &Compressor{
		thresholdDB: DefaultThresholdDB,
		kneeDB:      DefaultKneeDB,
		ratio:       DefaultRatio,
		attack:      DefaultAttack,
		release:     DefaultRelease,
		sampleRate:  sampleRate,
		gain:        1,
	}

	c.updateCoefficients()
	c.ResetMetrics()

	return c, nil
}

// SetThreshold sets the compression threshold in dB, in [-100, 0].
func (c *Compressor) SetThreshold(dB float64) error {
	if dB < MinThresholdDB || dB > MaxThresholdDB || math.IsNaN(dB) {
		return fmt.Errorf("compressor threshold must be in [%g, %g]: %f", MinThresholdDB, MaxThresholdDB, dB)
	}

	c.thresholdDB = dB
	c.updateCoefficients()

	return nil
}

// SetKnee sets the soft-knee width in dB, in [0, 40]. 0 is a hard knee.
func (c *Compressor) SetKnee(kneeDB float64) error {
	if kneeDB < MinKneeDB || kneeDB > MaxKneeDB || math.IsNaN(kneeDB) {
		return fmt.Errorf("compressor knee must be in [%g, %g]: %f", MinKneeDB, MaxKneeDB, kneeDB)
	}

	c.kneeDB = kneeDB
	c.updateCoefficients()

	return nil
}

// SetRatio sets the compression ratio, in [1, 20]. 1 disables compression.
func (c *Compressor) SetRatio(ratio float64) error {
	if ratio < MinRatio || ratio > MaxRatio || math.IsNaN(ratio) {
		return fmt.Errorf("compressor ratio must be in [%g, %g]: %f", MinRatio, MaxRatio, ratio)
	}

	c.ratio = ratio
	c.updateCoefficients()

	return nil
}

// SetAttack sets the attack time in seconds, in (0, 1].
func (c *Compressor) SetAttack(seconds float64) error {
	if seconds <= 0 || seconds > MaxAttack || math.IsNaN(seconds) {
		return fmt.Errorf("compressor attack must be in (0, %g] s: %f", MaxAttack, seconds)
	}

	c.attack = seconds
	c.updateTimeConstants()

	return nil
}

// SetRelease sets the release time in seconds, in (0, 1].
func (c *Compressor) SetRelease(seconds float64) error {
	if seconds <= 0 || seconds > MaxRelease || math.IsNaN(seconds) {
		return fmt.Errorf("compressor release must be in (0, %g] s: %f", MaxRelease, seconds)
	}

	c.release = seconds
	c.updateTimeConstants()

	return nil
}

// Threshold returns the current threshold in dB.
func (c *Compressor) Threshold() float64 { return c.thresholdDB }

// Knee returns the current knee width in dB.
func (c *Compressor) Knee() float64 { return c.kneeDB }

// Ratio returns the current compression ratio.
func (c *Compressor) Ratio() float64 { return c.ratio }

// Attack returns the current attack time in seconds.
func (c *Compressor) Attack() float64 { return c.attack }

// Release returns the current release time in seconds.
func (c *Compressor) Release() float64 { return c.release }

// SampleRate returns the sample rate in Hz.
func (c *Compressor) SampleRate() float64 { return c.sampleRate }

// ReductionDB returns the gain reduction applied to the most recent frame
// in dB. It is always <= 0.
func (c *Compressor) ReductionDB() float64 {
	if c.gain >= 1 {
		return 0
	}

	return 20 * math.Log10(c.gain)
}

// ProcessSample compresses one mono sample.
func (c *Compressor) ProcessSample(input float64) float64 {
	level := math.Abs(input)
	gain := c.detect(level)
	output := input * gain
	c.updateMetrics(level, math.Abs(output), gain)

	return output
}

// Process compresses a planar block in place. The detector follows the
// largest absolute sample across channels of each frame.
func (c *Compressor) Process(block [][]float64) {
	if len(block) == 0 {
		return
	}

	frames := len(block[0])
	for i := 0; i < frames; i++ {
		level := 0.0
		for _, ch := range block {
			level = math.Max(level, math.Abs(ch[i]))
		}

		gain := c.detect(level)

		outLevel := 0.0
		for _, ch := range block {
			ch[i] *= gain
			outLevel = math.Max(outLevel, math.Abs(ch[i]))
		}

		c.updateMetrics(level, outLevel, gain)
	}
}

// CalculateOutputLevel computes the steady-state output level for a given
// input magnitude, for drawing the transfer curve.
func (c *Compressor) CalculateOutputLevel(inputMagnitude float64) float64 {
	inputMagnitude = math.Abs(inputMagnitude)
	return inputMagnitude * c.calculateGain(inputMagnitude)
}

// Reset clears the envelope follower and metrics.
func (c *Compressor) Reset() {
	c.envelope = 0
	c.gain = 1
	c.ResetMetrics()
}

// Metrics returns current metering values.
func (c *Compressor) Metrics() Metrics {
	return c.metrics
}

// ResetMetrics clears metering state.
func (c *Compressor) ResetMetrics() {
	c.metrics = Metrics{GainReduction: 1}
}

func (c *Compressor) detect(level float64) float64 {
	if level > c.envelope {
		c.envelope += (level - c.envelope) * c.attackCoeff
	} else {
		c.envelope = level + (c.envelope-level)*c.releaseCoeff
	}

	if c.envelope < 1e-30 {
		c.envelope = 0
	}

	c.gain = c.calculateGain(c.envelope)

	return c.gain
}

// updateCoefficients recalculates all internal cached values.
func (c *Compressor) updateCoefficients() {
	c.thresholdLog2 = c.thresholdDB * log2Of10Div20
	c.kneeWidthLog2 = c.kneeDB * log2Of10Div20

	if c.kneeDB > 0 {
		c.invKneeWidthLog2 = 1.0 / c.kneeWidthLog2
	} else {
		c.invKneeWidthLog2 = 0
	}

	c.slope = 1.0 - 1.0/c.ratio

	c.updateTimeConstants()
}

// updateTimeConstants recalculates attack and release coefficients.
func (c *Compressor) updateTimeConstants() {
	// Attack: 1 - exp(-ln2 / (attack_sec * sample_rate))
	c.attackCoeff = 1.0 - math.Exp(-math.Ln2/(c.attack*c.sampleRate))

	// Release: exp(-ln2 / (release_sec * sample_rate))
	c.releaseCoeff = math.Exp(-math.Ln2 / (c.release * c.sampleRate))
}

// calculateGain computes the gain multiplier using the log2-domain
// soft-knee formula: quadratic smoothing of the overshoot inside the knee.
func (c *Compressor) calculateGain(level float64) float64 {
	if level <= 0 || c.slope == 0 {
		return 1.0
	}

	overshoot := mathLog2(level) - c.thresholdLog2

	if c.kneeDB <= 0 {
		if overshoot <= 0 {
			return 1.0
		}

		return mathPower2(-overshoot * c.slope)
	}

	halfWidth := c.kneeWidthLog2 * 0.5

	var effectiveOvershoot float64

	switch {
	case overshoot < -halfWidth:
		return 1.0
	case overshoot > halfWidth:
		effectiveOvershoot = overshoot
	default:
		// (overshoot + w/2)^2 / (2*w)
		scratch := overshoot + halfWidth
		effectiveOvershoot = scratch * scratch * 0.5 * c.invKneeWidthLog2
	}

	gain := mathPower2(-effectiveOvershoot * c.slope)
	if gain > 1 {
		return 1
	}

	return gain
}

func (c *Compressor) updateMetrics(inputLevel, outputLevel, gain float64) {
	c.metrics.InputPeak = math.Max(c.metrics.InputPeak, inputLevel)
	c.metrics.OutputPeak = math.Max(c.metrics.OutputPeak, outputLevel)
	c.metrics.GainReduction = math.Min(c.metrics.GainReduction, gain)
}
