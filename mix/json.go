package mix

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/cwbudde/mixdesk/dsp/filter/design"
)

// wireChange is the JSON form of every change kind:
//
//	{"kind":"filter","band":"low","field":"gain","value":6}
//	{"kind":"filterType","band":"mid","type":"notch"}
//	{"kind":"crossover","lowMidHz":250,"midHighHz":4000}
//	{"kind":"compressor","band":"high","field":"makeup","value":"-Infinity"}
//	{"kind":"bypass","enabled":true}
type wireChange struct {
	Kind      string       `json:"kind"`
	Band      *Band        `json:"band,omitempty"`
	Field     string       `json:"field,omitempty"`
	Value     *wireFloat   `json:"value,omitempty"`
	Type      *design.Kind `json:"type,omitempty"`
	LowMidHz  *wireFloat   `json:"lowMidHz,omitempty"`
	MidHighHz *wireFloat   `json:"midHighHz,omitempty"`
	Enabled   *bool        `json:"enabled,omitempty"`
}

// wireFloat is a float64 that carries infinities as the strings
// "Infinity" and "-Infinity", which JSON numbers cannot express.
type wireFloat float64

func (f wireFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)

	switch {
	case math.IsInf(v, 1):
		return []byte(`"Infinity"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Infinity"`), nil
	case math.IsNaN(v):
		return nil, fmt.Errorf("mix: NaN has no JSON form")
	}

	return json.Marshal(v)
}

func (f *wireFloat) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch s {
		case "Infinity", "+Infinity", "inf", "+inf":
			*f = wireFloat(math.Inf(1))
		case "-Infinity", "-inf":
			*f = wireFloat(math.Inf(-1))
		default:
			return fmt.Errorf("mix: invalid number %q", s)
		}

		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	*f = wireFloat(v)

	return nil
}

func ptr[T any](v T) *T { return &v }

// MarshalChange returns the JSON form of c.
func MarshalChange(c Change) ([]byte, error) {
	var w wireChange

	switch c := c.(type) {
	case FilterChange:
		w = wireChange{Kind: "filter", Band: ptr(c.Band), Field: c.Field.String(), Value: ptr(wireFloat(c.Value))}
	case FilterTypeChange:
		w = wireChange{Kind: "filterType", Band: ptr(c.Band), Type: ptr(c.Type)}
	case CrossoverChange:
		w = wireChange{Kind: "crossover", LowMidHz: ptr(wireFloat(c.LowMidHz)), MidHighHz: ptr(wireFloat(c.MidHighHz))}
	case CompressorChange:
		w = wireChange{Kind: "compressor", Band: ptr(c.Band), Field: c.Field.String(), Value: ptr(wireFloat(c.Value))}
	case BypassChange:
		w = wireChange{Kind: "bypass", Enabled: ptr(c.Enabled)}
	default:
		return nil, fmt.Errorf("mix: unsupported change %T", c)
	}

	return json.Marshal(w)
}

// UnmarshalChange parses the JSON form of a change.
func UnmarshalChange(data []byte) (Change, error) {
	var w wireChange
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("mix: decode change: %w", err)
	}

	missing := func(name string) error {
		return fmt.Errorf("mix: %s change: missing %q", w.Kind, name)
	}

	switch w.Kind {
	case "filter":
		if w.Band == nil {
			return nil, missing("band")
		}

		if w.Value == nil {
			return nil, missing("value")
		}

		field, err := parseFilterField(w.Field)
		if err != nil {
			return nil, err
		}

		return FilterChange{Band: *w.Band, Field: field, Value: float64(*w.Value)}, nil
	case "filterType":
		if w.Band == nil {
			return nil, missing("band")
		}

		if w.Type == nil {
			return nil, missing("type")
		}

		return FilterTypeChange{Band: *w.Band, Type: *w.Type}, nil
	case "crossover":
		if w.LowMidHz == nil {
			return nil, missing("lowMidHz")
		}

		if w.MidHighHz == nil {
			return nil, missing("midHighHz")
		}

		return CrossoverChange{LowMidHz: float64(*w.LowMidHz), MidHighHz: float64(*w.MidHighHz)}, nil
	case "compressor":
		if w.Band == nil {
			return nil, missing("band")
		}

		if w.Value == nil {
			return nil, missing("value")
		}

		field, err := parseCompressorField(w.Field)
		if err != nil {
			return nil, err
		}

		return CompressorChange{Band: *w.Band, Field: field, Value: float64(*w.Value)}, nil
	case "bypass":
		if w.Enabled == nil {
			return nil, missing("enabled")
		}

		return BypassChange{Enabled: *w.Enabled}, nil
	case "":
		return nil, fmt.Errorf("mix: change without kind")
	}

	return nil, fmt.Errorf("mix: unknown change kind %q", w.Kind)
}
