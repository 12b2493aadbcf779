package mix

import "fmt"

// Band is one of the three frequency partitions. The EQ stage and the
// compressor bank are configured per band independently.
type Band int

const (
	Low Band = iota
	Mid
	High
)

// NumBands is the number of bands.
const NumBands = 3

var bandNames = [NumBands]string{"low", "mid", "high"}

// Bands returns Low, Mid and High.
func Bands() [NumBands]Band { return [NumBands]Band{Low, Mid, High} }

// ParseBand parses "low", "mid" or "high".
func ParseBand(s string) (Band, error) {
	for i, name := range bandNames {
		if name == s {
			return Band(i), nil
		}
	}

	return 0, fmt.Errorf("mix: unknown band %q", s)
}

// Valid reports whether b is Low, Mid or High.
func (b Band) Valid() bool { return b >= Low && b <= High }

func (b Band) String() string {
	if !b.Valid() {
		return fmt.Sprintf("Band(%d)", int(b))
	}

	return bandNames[b]
}

// MarshalText implements encoding.TextMarshaler.
func (b Band) MarshalText() ([]byte, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("mix: invalid band %d", int(b))
	}

	return []byte(bandNames[b]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Band) UnmarshalText(text []byte) error {
	parsed, err := ParseBand(string(text))
	if err != nil {
		return err
	}

	*b = parsed

	return nil
}
