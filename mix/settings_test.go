package mix

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/mixdesk/dsp/filter/design"
)

func TestDefaults(t *testing.T) {
	s := Defaults()

	if err := s.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}

	if s.CompressorEnabled {
		t.Fatal("compressor enabled by default")
	}

	wantEQ := [NumBands]struct {
		kind design.Kind
		freq float64
	}{
		{design.KindLowShelf, 100},
		{design.KindPeaking, 1000},
		{design.KindHighShelf, 8000},
	}

	for i, f := range s.EQ {
		if f.Type != wantEQ[i].kind || f.FrequencyHz != wantEQ[i].freq || f.GainDB != 0 || f.Q != 1 {
			t.Errorf("eq[%d] = %+v", i, f)
		}
	}

	if s.Crossover != (CrossoverConfig{LowMidHz: 250, MidHighHz: 4000}) {
		t.Errorf("crossover = %+v", s.Crossover)
	}

	for i, c := range s.Compressors {
		want := BandCompressorConfig{
			Band: Band(i), ThresholdDB: -24, KneeDB: 30, Ratio: 12,
			AttackSec: 0.003, ReleaseSec: 0.25,
		}
		if c != want {
			t.Errorf("compressor[%d] = %+v, want %+v", i, c, want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Settings)
		field string
	}{
		{"frequency low", func(s *Settings) { s.EQ[Low].FrequencyHz = 10 }, "eq.low.frequencyHz"},
		{"frequency NaN", func(s *Settings) { s.EQ[Mid].FrequencyHz = math.NaN() }, "eq.mid.frequencyHz"},
		{"q zero", func(s *Settings) { s.EQ[High].Q = 0 }, "eq.high.q"},
		{"gain huge", func(s *Settings) { s.EQ[Low].GainDB = 41 }, "eq.low.gainDb"},
		{"type unknown", func(s *Settings) { s.EQ[Low].Type = design.Kind(99) }, "eq.low.type"},
		{"band slot", func(s *Settings) { s.EQ[Low].Band = High }, "eq.low.band"},
		{"crossover order", func(s *Settings) { s.Crossover = CrossoverConfig{4000, 250} }, "crossover.lowMidHz"},
		{"crossover equal", func(s *Settings) { s.Crossover = CrossoverConfig{1000, 1000} }, "crossover.lowMidHz"},
		{"crossover high", func(s *Settings) { s.Crossover.MidHighHz = 30000 }, "crossover.midHighHz"},
		{"threshold positive", func(s *Settings) { s.Compressors[Low].ThresholdDB = 3 }, "compressor.low.thresholdDb"},
		{"knee", func(s *Settings) { s.Compressors[Mid].KneeDB = -1 }, "compressor.mid.kneeDb"},
		{"ratio", func(s *Settings) { s.Compressors[High].Ratio = 0.5 }, "compressor.high.ratio"},
		{"attack zero", func(s *Settings) { s.Compressors[Low].AttackSec = 0 }, "compressor.low.attackSec"},
		{"release long", func(s *Settings) { s.Compressors[Low].ReleaseSec = 2 }, "compressor.low.releaseSec"},
		{"makeup +Inf", func(s *Settings) { s.Compressors[Mid].MakeupGainDB = math.Inf(1) }, "compressor.mid.makeupGainDb"},
		{"makeup NaN", func(s *Settings) { s.Compressors[Mid].MakeupGainDB = math.NaN() }, "compressor.mid.makeupGainDb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Defaults()
			tt.edit(&s)

			err := s.Validate()
			if !errors.Is(err, ErrInvalidParameter) {
				t.Fatalf("Validate() = %v, want ErrInvalidParameter", err)
			}

			var pe *ParamError
			if !errors.As(err, &pe) || pe.Field != tt.field {
				t.Fatalf("field = %v, want %s", err, tt.field)
			}
		})
	}
}

func TestValidateAcceptsMutedMakeup(t *testing.T) {
	s := Defaults()
	s.Compressors[Low].MakeupGainDB = math.Inf(-1)

	if err := s.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
}

func TestBandText(t *testing.T) {
	for _, b := range Bands() {
		text, err := b.MarshalText()
		if err != nil {
			t.Fatal(err)
		}

		var got Band
		if err := got.UnmarshalText(text); err != nil || got != b {
			t.Fatalf("round trip %v: got %v, %v", b, got, err)
		}
	}

	if _, err := ParseBand("treble"); err == nil {
		t.Fatal("expected error for unknown band")
	}

	if Band(7).Valid() {
		t.Fatal("Band(7) valid")
	}
}

func TestFormatFrequency(t *testing.T) {
	tests := []struct {
		hz   float64
		want string
	}{
		{20, "20 Hz"},
		{849.6, "850 Hz"},
		{999.4, "999 Hz"},
		{1000, "1.0 kHz"},
		{1234, "1.2 kHz"},
		{20000, "20.0 kHz"},
	}

	for _, tt := range tests {
		if got := FormatFrequency(tt.hz); got != tt.want {
			t.Errorf("FormatFrequency(%v) = %q, want %q", tt.hz, got, tt.want)
		}
	}
}
