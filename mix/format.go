package mix

import (
	"math"
	"strconv"
)

// FormatFrequency formats a frequency label: whole hertz below 1 kHz
// ("850 Hz"), kilohertz with one decimal from there ("1.2 kHz").
func FormatFrequency(hz float64) string {
	if hz >= 1000 {
		return strconv.FormatFloat(hz/1000, 'f', 1, 64) + " kHz"
	}

	return strconv.FormatFloat(math.Floor(hz+0.5), 'f', 0, 64) + " Hz"
}
