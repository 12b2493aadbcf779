package design

import "fmt"

// Kind selects the response shape of a single biquad.
type Kind int

const (
	KindLowShelf Kind = iota
	KindHighShelf
	KindPeaking
	KindLowpass
	KindHighpass
	KindBandpass
	KindNotch
	KindAllpass
)

var kindNames = [...]string{
	KindLowShelf:  "lowshelf",
	KindHighShelf: "highshelf",
	KindPeaking:   "peaking",
	KindLowpass:   "lowpass",
	KindHighpass:  "highpass",
	KindBandpass:  "bandpass",
	KindNotch:     "notch",
	KindAllpass:   "allpass",
}

// Kinds returns every kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, len(kindNames))
	for i := range kindNames {
		out[i] = Kind(i)
	}

	return out
}

// ParseKind parses the lower-case kind name.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}

	return 0, fmt.Errorf("design: unknown filter kind %q", s)
}

// Valid reports whether k is a declared kind.
func (k Kind) Valid() bool {
	return k >= 0 && int(k) < len(kindNames)
}

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}

	return kindNames[k]
}

// UsesQ reports whether the quality factor shapes this kind's response.
// Shelves use a fixed slope and the pass/allpass kinds a Butterworth Q.
func (k Kind) UsesQ() bool {
	switch k {
	case KindPeaking, KindBandpass, KindNotch:
		return true
	default:
		return false
	}
}

// UsesGain reports whether the gain parameter shapes this kind's response.
func (k Kind) UsesGain() bool {
	switch k {
	case KindLowShelf, KindHighShelf, KindPeaking:
		return true
	default:
		return false
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("design: invalid filter kind %d", int(k))
	}

	return []byte(kindNames[k]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}

	*k = parsed

	return nil
}
