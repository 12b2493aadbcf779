// Package mix is the control model of the mixer: per-band EQ and
// compressor settings, the crossover, the bypass switch, validation, the
// [Change] messages hosts send, and TOML presets.
//
// Values here are plain data; the processing graph in dsp/graph consumes
// them.
package mix

import (
	"math"

	"github.com/cwbudde/mixdesk/dsp/effects/dynamics"
	"github.com/cwbudde/mixdesk/dsp/filter/design"
)

// Control ranges accepted by [Settings.Validate].
const (
	MinFrequencyHz = 20.0
	MaxFrequencyHz = 20000.0
	MaxQ           = 1000.0
	MaxGainDB      = 40.0

	MinThresholdDB = dynamics.MinThresholdDB
	MaxThresholdDB = dynamics.MaxThresholdDB
	MinKneeDB      = dynamics.MinKneeDB
	MaxKneeDB      = dynamics.MaxKneeDB
	MinRatio       = dynamics.MinRatio
	MaxRatio       = dynamics.MaxRatio
	MaxAttackSec   = dynamics.MaxAttack
	MaxReleaseSec  = dynamics.MaxRelease
	MaxMakeupDB    = 24.0
)

// FilterBandConfig configures one EQ filter. Q only affects peaking,
// bandpass and notch filters; it is kept for the other kinds so that
// switching back restores it.
type FilterBandConfig struct {
	Band        Band        `toml:"band" json:"band"`
	Type        design.Kind `toml:"type" json:"type"`
	FrequencyHz float64     `toml:"frequency_hz" json:"frequencyHz"`
	Q           float64     `toml:"q" json:"q"`
	GainDB      float64     `toml:"gain_db" json:"gainDb"`
}

// CrossoverConfig holds the two split frequencies.
type CrossoverConfig struct {
	LowMidHz  float64 `toml:"low_mid_hz" json:"lowMidHz"`
	MidHighHz float64 `toml:"mid_high_hz" json:"midHighHz"`
}

// BandCompressorConfig configures the compressor and makeup gain of one
// band. MakeupGainDB may be -Inf to mute the band.
type BandCompressorConfig struct {
	Band         Band    `toml:"band" json:"band"`
	ThresholdDB  float64 `toml:"threshold_db" json:"thresholdDb"`
	KneeDB       float64 `toml:"knee_db" json:"kneeDb"`
	Ratio        float64 `toml:"ratio" json:"ratio"`
	AttackSec    float64 `toml:"attack_sec" json:"attackSec"`
	ReleaseSec   float64 `toml:"release_sec" json:"releaseSec"`
	MakeupGainDB float64 `toml:"makeup_gain_db" json:"makeupGainDb"`
}

// Settings is the complete mixer configuration. CompressorEnabled selects
// the wet path (EQ, crossover, compressors) over the dry one.
type Settings struct {
	EQ                [NumBands]FilterBandConfig     `toml:"eq" json:"eq"`
	Crossover         CrossoverConfig                `toml:"crossover" json:"crossover"`
	Compressors       [NumBands]BandCompressorConfig `toml:"compressor" json:"compressors"`
	CompressorEnabled bool                           `toml:"compressor_enabled" json:"compressorEnabled"`
}

// Defaults returns the initial mixer settings: a flat EQ, 250 Hz / 4 kHz
// crossover, default compressors and the bypass engaged.
func Defaults() Settings {
	var s Settings

	s.EQ = [NumBands]FilterBandConfig{
		{Band: Low, Type: design.KindLowShelf, FrequencyHz: 100, Q: 1},
		{Band: Mid, Type: design.KindPeaking, FrequencyHz: 1000, Q: 1},
		{Band: High, Type: design.KindHighShelf, FrequencyHz: 8000, Q: 1},
	}

	s.Crossover = CrossoverConfig{LowMidHz: 250, MidHighHz: 4000}

	for _, b := range Bands() {
		s.Compressors[b] = BandCompressorConfig{
			Band:         b,
			ThresholdDB:  dynamics.DefaultThresholdDB,
			KneeDB:       dynamics.DefaultKneeDB,
			Ratio:        dynamics.DefaultRatio,
			AttackSec:    dynamics.DefaultAttack,
			ReleaseSec:   dynamics.DefaultRelease,
			MakeupGainDB: 0,
		}
	}

	return s
}

// Validate checks every field against the control ranges and returns the
// first violation as a *[ParamError].
func (s Settings) Validate() error {
	for i, f := range s.EQ {
		if f.Band != Band(i) {
			return invalid("eq."+Band(i).String()+".band", float64(f.Band), "band does not match its slot")
		}

		if err := f.validate(); err != nil {
			return err
		}
	}

	if err := s.Crossover.validate(); err != nil {
		return err
	}

	for i, c := range s.Compressors {
		if c.Band != Band(i) {
			return invalid("compressor."+Band(i).String()+".band", float64(c.Band), "band does not match its slot")
		}

		if err := c.validate(); err != nil {
			return err
		}
	}

	return nil
}

func (f FilterBandConfig) validate() error {
	prefix := "eq." + f.Band.String() + "."

	if !f.Type.Valid() {
		return invalid(prefix+"type", float64(f.Type), "unknown filter type")
	}

	if err := checkFrequency(prefix+"frequencyHz", f.FrequencyHz); err != nil {
		return err
	}

	if err := checkQ(prefix+"q", f.Q); err != nil {
		return err
	}

	return checkGain(prefix+"gainDb", f.GainDB)
}

func (c CrossoverConfig) validate() error {
	if err := checkFrequency("crossover.lowMidHz", c.LowMidHz); err != nil {
		return err
	}

	if err := checkFrequency("crossover.midHighHz", c.MidHighHz); err != nil {
		return err
	}

	if c.LowMidHz >= c.MidHighHz {
		return invalid("crossover.lowMidHz", c.LowMidHz, "must be below midHighHz %g", c.MidHighHz)
	}

	return nil
}

func (c BandCompressorConfig) validate() error {
	p := "compressor." + c.Band.String() + "."

	checks := []struct {
		field    string
		value    float64
		min, max float64
		openMin  bool
	}{
		{"thresholdDb", c.ThresholdDB, MinThresholdDB, MaxThresholdDB, false},
		{"kneeDb", c.KneeDB, MinKneeDB, MaxKneeDB, false},
		{"ratio", c.Ratio, MinRatio, MaxRatio, false},
		{"attackSec", c.AttackSec, 0, MaxAttackSec, true},
		{"releaseSec", c.ReleaseSec, 0, MaxReleaseSec, true},
	}

	for _, ck := range checks {
		if err := checkRange(p+ck.field, ck.value, ck.min, ck.max, ck.openMin); err != nil {
			return err
		}
	}

	return checkMakeup(p+"makeupGainDb", c.MakeupGainDB)
}

func checkRange(field string, v, lo, hi float64, openMin bool) error {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return invalid(field, v, "must be finite")
	case openMin && v <= lo:
		return invalid(field, v, "must be in (%g, %g]", lo, hi)
	case v < lo || v > hi:
		return invalid(field, v, "must be in [%g, %g]", lo, hi)
	}

	return nil
}

func checkFrequency(field string, hz float64) error {
	return checkRange(field, hz, MinFrequencyHz, MaxFrequencyHz, false)
}

func checkQ(field string, q float64) error {
	return checkRange(field, q, 0, MaxQ, true)
}

func checkGain(field string, dB float64) error {
	return checkRange(field, dB, -MaxGainDB, MaxGainDB, false)
}

func checkMakeup(field string, dB float64) error {
	if math.IsInf(dB, -1) {
		return nil
	}

	if math.IsNaN(dB) || math.IsInf(dB, 1) {
		return invalid(field, dB, "must be finite or -Inf")
	}

	if dB > MaxMakeupDB {
		return invalid(field, dB, "must be at most %g", MaxMakeupDB)
	}

	return nil
}
