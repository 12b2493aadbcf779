package main

import (
	"fmt"

	"github.com/cwbudde/mixdesk/mix"
)

// MixFlags select the settings a command runs with: an optional preset and
// changes applied on top in order.
type MixFlags struct {
	Preset string   `short:"p" type:"existingfile" env:"MIXDESK_PRESET" help:"TOML preset file."`
	Set    []string `short:"s" placeholder:"KEY=VALUE" help:"Change applied after the preset, e.g. low.gain=6, crossover=250,4000, comp.mid.ratio=4, compressor=on."`
}

// Settings loads the preset (or the defaults) and applies every --set.
func (f MixFlags) Settings() (mix.Settings, error) {
	s := mix.Defaults()

	if f.Preset != "" {
		var err error
		if s, err = mix.LoadPreset(f.Preset); err != nil {
			return mix.Settings{}, err
		}
	}

	for _, text := range f.Set {
		c, err := mix.ParseChange(text)
		if err != nil {
			return mix.Settings{}, err
		}

		if err := s.Apply(c); err != nil {
			return mix.Settings{}, fmt.Errorf("--set %s: %w", text, err)
		}
	}

	return s, nil
}
