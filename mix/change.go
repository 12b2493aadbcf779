package mix

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cwbudde/mixdesk/dsp/filter/design"
)

// Change is one parameter edit sent by a host: a [FilterChange],
// [FilterTypeChange], [CrossoverChange], [CompressorChange] or
// [BypassChange]. String returns the text form accepted by [ParseChange].
type Change interface {
	fmt.Stringer
	change()
}

// FilterField names a numeric field of a [FilterBandConfig].
type FilterField int

const (
	FieldFrequency FilterField = iota
	FieldQ
	FieldGain
)

var filterFieldNames = [...]string{"frequency", "q", "gain"}

func (f FilterField) String() string {
	if f < 0 || int(f) >= len(filterFieldNames) {
		return fmt.Sprintf("FilterField(%d)", int(f))
	}

	return filterFieldNames[f]
}

// CompressorField names a numeric field of a [BandCompressorConfig].
type CompressorField int

const (
	FieldThreshold CompressorField = iota
	FieldKnee
	FieldRatio
	FieldAttack
	FieldRelease
	FieldMakeup
)

var compressorFieldNames = [...]string{"threshold", "knee", "ratio", "attack", "release", "makeup"}

func (f CompressorField) String() string {
	if f < 0 || int(f) >= len(compressorFieldNames) {
		return fmt.Sprintf("CompressorField(%d)", int(f))
	}

	return compressorFieldNames[f]
}

func parseFilterField(s string) (FilterField, error) {
	for i, name := range filterFieldNames {
		if name == s {
			return FilterField(i), nil
		}
	}

	return 0, fmt.Errorf("mix: unknown filter field %q", s)
}

func parseCompressorField(s string) (CompressorField, error) {
	for i, name := range compressorFieldNames {
		if name == s {
			return CompressorField(i), nil
		}
	}

	return 0, fmt.Errorf("mix: unknown compressor field %q", s)
}

// FilterChange sets a numeric field of one EQ band.
type FilterChange struct {
	Band  Band
	Field FilterField
	Value float64
}

// FilterTypeChange switches the response shape of one EQ band.
type FilterTypeChange struct {
	Band Band
	Type design.Kind
}

// CrossoverChange moves both split frequencies together.
type CrossoverChange struct {
	LowMidHz  float64
	MidHighHz float64
}

// CompressorChange sets a numeric field of one band compressor.
type CompressorChange struct {
	Band  Band
	Field CompressorField
	Value float64
}

// BypassChange selects the wet (true) or dry (false) path.
type BypassChange struct {
	Enabled bool
}

func (FilterChange) change()     {}
func (FilterTypeChange) change() {}
func (CrossoverChange) change()  {}
func (CompressorChange) change() {}
func (BypassChange) change()     {}

func (c FilterChange) String() string {
	return fmt.Sprintf("%s.%s=%s", c.Band, c.Field, formatValue(c.Value))
}

func (c FilterTypeChange) String() string {
	return fmt.Sprintf("%s.type=%s", c.Band, c.Type)
}

func (c CrossoverChange) String() string {
	return fmt.Sprintf("crossover=%s,%s", formatValue(c.LowMidHz), formatValue(c.MidHighHz))
}

func (c CompressorChange) String() string {
	return fmt.Sprintf("comp.%s.%s=%s", c.Band, c.Field, formatValue(c.Value))
}

func (c BypassChange) String() string {
	if c.Enabled {
		return "compressor=on"
	}

	return "compressor=off"
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Apply applies change to s. Only the named field changes, and applying
// the same change twice gives the same result. The edited
// section is validated; an invalid value returns a *[ParamError] and
// leaves s untouched.
func (s *Settings) Apply(change Change) error {
	next := *s

	switch c := change.(type) {
	case FilterChange:
		if !c.Band.Valid() {
			return invalid("eq.band", float64(c.Band), "unknown band")
		}

		f := &next.EQ[c.Band]

		switch c.Field {
		case FieldFrequency:
			f.FrequencyHz = c.Value
		case FieldQ:
			f.Q = c.Value
		case FieldGain:
			f.GainDB = c.Value
		default:
			return invalid("eq."+c.Band.String()+".field", float64(c.Field), "unknown field")
		}

		if err := f.validate(); err != nil {
			return err
		}
	case FilterTypeChange:
		if !c.Band.Valid() {
			return invalid("eq.band", float64(c.Band), "unknown band")
		}

		next.EQ[c.Band].Type = c.Type

		if err := next.EQ[c.Band].validate(); err != nil {
			return err
		}
	case CrossoverChange:
		next.Crossover = CrossoverConfig(c)

		if err := next.Crossover.validate(); err != nil {
			return err
		}
	case CompressorChange:
		if !c.Band.Valid() {
			return invalid("compressor.band", float64(c.Band), "unknown band")
		}

		comp := &next.Compressors[c.Band]

		switch c.Field {
		case FieldThreshold:
			comp.ThresholdDB = c.Value
		case FieldKnee:
			comp.KneeDB = c.Value
		case FieldRatio:
			comp.Ratio = c.Value
		case FieldAttack:
			comp.AttackSec = c.Value
		case FieldRelease:
			comp.ReleaseSec = c.Value
		case FieldMakeup:
			comp.MakeupGainDB = c.Value
		default:
			return invalid("compressor."+c.Band.String()+".field", float64(c.Field), "unknown field")
		}

		if err := comp.validate(); err != nil {
			return err
		}
	case BypassChange:
		next.CompressorEnabled = c.Enabled
	case nil:
		return fmt.Errorf("mix: nil change")
	default:
		return fmt.Errorf("mix: unsupported change %T", change)
	}

	*s = next

	return nil
}

// ParseChange parses the text form of a change:
//
//	low.gain=6
//	mid.q=2.5
//	high.type=peaking
//	crossover=250,4000
//	comp.mid.ratio=4
//	comp.low.makeup=-inf
//	compressor=on
//
// "compressor." is accepted in place of "comp.".
func ParseChange(text string) (Change, error) {
	key, value, ok := strings.Cut(strings.TrimSpace(text), "=")
	if !ok {
		return nil, fmt.Errorf("mix: change %q: missing '='", text)
	}

	key = strings.ToLower(strings.TrimSpace(key))
	value = strings.TrimSpace(value)

	switch key {
	case "crossover":
		lo, hi, ok := strings.Cut(value, ",")
		if !ok {
			return nil, fmt.Errorf("mix: change %q: crossover needs two frequencies", text)
		}

		lowMid, err := parseNumber(lo)
		if err != nil {
			return nil, fmt.Errorf("mix: change %q: %w", text, err)
		}

		midHigh, err := parseNumber(hi)
		if err != nil {
			return nil, fmt.Errorf("mix: change %q: %w", text, err)
		}

		return CrossoverChange{LowMidHz: lowMid, MidHighHz: midHigh}, nil
	case "compressor", "bypass":
		enabled, err := parseSwitch(value)
		if err != nil {
			return nil, fmt.Errorf("mix: change %q: %w", text, err)
		}

		return BypassChange{Enabled: enabled}, nil
	}

	parts := strings.Split(key, ".")

	switch {
	case len(parts) == 3 && (parts[0] == "comp" || parts[0] == "compressor"):
		band, err := ParseBand(parts[1])
		if err != nil {
			return nil, fmt.Errorf("mix: change %q: %w", text, err)
		}

		field, err := parseCompressorField(parts[2])
		if err != nil {
			return nil, fmt.Errorf("mix: change %q: %w", text, err)
		}

		v, err := parseNumber(value)
		if err != nil {
			return nil, fmt.Errorf("mix: change %q: %w", text, err)
		}

		return CompressorChange{Band: band, Field: field, Value: v}, nil
	case len(parts) == 2:
		band, err := ParseBand(parts[0])
		if err != nil {
			return nil, fmt.Errorf("mix: change %q: %w", text, err)
		}

		if parts[1] == "type" {
			kind, err := design.ParseKind(strings.ToLower(value))
			if err != nil {
				return nil, fmt.Errorf("mix: change %q: %w", text, err)
			}

			return FilterTypeChange{Band: band, Type: kind}, nil
		}

		field, err := parseFilterField(parts[1])
		if err != nil {
			return nil, fmt.Errorf("mix: change %q: %w", text, err)
		}

		v, err := parseNumber(value)
		if err != nil {
			return nil, fmt.Errorf("mix: change %q: %w", text, err)
		}

		return FilterChange{Band: band, Field: field, Value: v}, nil
	}

	return nil, fmt.Errorf("mix: change %q: unknown key %q", text, key)
}

func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}

	return v, nil
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "1", "wet":
		return true, nil
	case "off", "false", "0", "dry":
		return false, nil
	}

	return false, fmt.Errorf("invalid switch %q", s)
}
