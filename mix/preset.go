package mix

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// DecodePreset reads TOML settings from r. Keys absent from the document
// keep their [Defaults] value; unknown keys are an error. The result is
// validated.
//
//	compressor_enabled = true
//
//	[crossover]
//	low_mid_hz = 250.0
//	mid_high_hz = 4000.0
//
//	[[eq]]
//	band = "low"
//	type = "lowshelf"
//	...
func DecodePreset(r io.Reader) (Settings, error) {
	s := Defaults()

	md, err := toml.NewDecoder(r).Decode(&s)
	if err != nil {
		return Settings{}, fmt.Errorf("mix: decode preset: %w", err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}

		return Settings{}, fmt.Errorf("mix: decode preset: unknown keys %s", strings.Join(keys, ", "))
	}

	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("mix: decode preset: %w", err)
	}

	return s, nil
}

// LoadPreset reads a TOML preset file.
func LoadPreset(path string) (Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		return Settings{}, fmt.Errorf("mix: load preset: %w", err)
	}
	defer f.Close()

	s, err := DecodePreset(f)
	if err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}

	return s, nil
}

// EncodePreset writes s to w as TOML.
func EncodePreset(w io.Writer, s Settings) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("mix: encode preset: %w", err)
	}

	if err := toml.NewEncoder(w).Encode(s); err != nil {
		return fmt.Errorf("mix: encode preset: %w", err)
	}

	return nil
}
