package mix

// Diff returns the changes that turn s into next, in apply order: filter
// types before filter fields, then the crossover, the compressors and the
// bypass. Applying them to s in order yields next when next is valid.
func (s Settings) Diff(next Settings) []Change {
	var out []Change

	for _, b := range Bands() {
		cur, want := s.EQ[b], next.EQ[b]

		if cur.Type != want.Type {
			out = append(out, FilterTypeChange{Band: b, Type: want.Type})
		}

		out = appendIfChanged(out, cur.FrequencyHz, want.FrequencyHz, FilterChange{Band: b, Field: FieldFrequency, Value: want.FrequencyHz})
		out = appendIfChanged(out, cur.Q, want.Q, FilterChange{Band: b, Field: FieldQ, Value: want.Q})
		out = appendIfChanged(out, cur.GainDB, want.GainDB, FilterChange{Band: b, Field: FieldGain, Value: want.GainDB})
	}

	if s.Crossover != next.Crossover {
		out = append(out, CrossoverChange(next.Crossover))
	}

	for _, b := range Bands() {
		cur, want := s.Compressors[b], next.Compressors[b]

		fields := [...]struct {
			field     CompressorField
			cur, want float64
		}{
			{FieldThreshold, cur.ThresholdDB, want.ThresholdDB},
			{FieldKnee, cur.KneeDB, want.KneeDB},
			{FieldRatio, cur.Ratio, want.Ratio},
			{FieldAttack, cur.AttackSec, want.AttackSec},
			{FieldRelease, cur.ReleaseSec, want.ReleaseSec},
			{FieldMakeup, cur.MakeupGainDB, want.MakeupGainDB},
		}

		for _, f := range fields {
			out = appendIfChanged(out, f.cur, f.want, CompressorChange{Band: b, Field: f.field, Value: f.want})
		}
	}

	if s.CompressorEnabled != next.CompressorEnabled {
		out = append(out, BypassChange{Enabled: next.CompressorEnabled})
	}

	return out
}

func appendIfChanged(out []Change, cur, want float64, c Change) []Change {
	if cur == want {
		return out
	}

	return append(out, c)
}
