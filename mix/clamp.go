package mix

import (
	"math"

	"github.com/cwbudde/mixdesk/dsp/core"
)

// MinQ is the smallest Q [Settings.Clamp] produces.
const MinQ = 1e-4

// CrossoverGapHz is the separation [Settings.Clamp] keeps between the two
// crossover frequencies.
const CrossoverGapHz = 1.0

// Clamp moves the values of c to the nearest accepted bound, the way a
// slider would. NaN keeps the current value of the field. For a
// [CrossoverChange] the edge that moved relative to s is kept and the other
// one is pushed to preserve the order. The result always passes
// [Settings.Apply] for a valid s.
func (s Settings) Clamp(c Change) Change {
	switch c := c.(type) {
	case FilterChange:
		if !c.Band.Valid() {
			return c
		}

		f := s.EQ[c.Band]

		switch c.Field {
		case FieldFrequency:
			c.Value = clampOr(c.Value, f.FrequencyHz, MinFrequencyHz, MaxFrequencyHz)
		case FieldQ:
			c.Value = clampOr(c.Value, f.Q, MinQ, MaxQ)
		case FieldGain:
			c.Value = clampOr(c.Value, f.GainDB, -MaxGainDB, MaxGainDB)
		}

		return c
	case CrossoverChange:
		return s.clampCrossover(c)
	case CompressorChange:
		if !c.Band.Valid() {
			return c
		}

		comp := s.Compressors[c.Band]

		switch c.Field {
		case FieldThreshold:
			c.Value = clampOr(c.Value, comp.ThresholdDB, MinThresholdDB, MaxThresholdDB)
		case FieldKnee:
			c.Value = clampOr(c.Value, comp.KneeDB, MinKneeDB, MaxKneeDB)
		case FieldRatio:
			c.Value = clampOr(c.Value, comp.Ratio, MinRatio, MaxRatio)
		case FieldAttack:
			c.Value = clampOr(c.Value, comp.AttackSec, minTimeSec, MaxAttackSec)
		case FieldRelease:
			c.Value = clampOr(c.Value, comp.ReleaseSec, minTimeSec, MaxReleaseSec)
		case FieldMakeup:
			if !math.IsInf(c.Value, -1) {
				c.Value = clampOr(c.Value, comp.MakeupGainDB, -MaxMakeupDB, MaxMakeupDB)
			}
		}

		return c
	}

	return c
}

// minTimeSec is one sample at 48 kHz.
const minTimeSec = 1.0 / 48000

func (s Settings) clampCrossover(c CrossoverChange) CrossoverChange {
	lo := clampOr(c.LowMidHz, s.Crossover.LowMidHz, MinFrequencyHz, MaxFrequencyHz-CrossoverGapHz)
	hi := clampOr(c.MidHighHz, s.Crossover.MidHighHz, MinFrequencyHz+CrossoverGapHz, MaxFrequencyHz)

	if lo+CrossoverGapHz > hi {
		if lo != s.Crossover.LowMidHz {
			hi = lo + CrossoverGapHz
		} else {
			lo = hi - CrossoverGapHz
		}
	}

	return CrossoverChange{LowMidHz: lo, MidHighHz: hi}
}

func clampOr(v, current, lo, hi float64) float64 {
	if math.IsNaN(v) {
		v = current
	}

	return core.Clamp(v, lo, hi)
}
