package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)

	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}

	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)

	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}

	return out
}

// Mix sums equally long signals sample by sample.
func Mix(signals ...[]float64) []float64 {
	if len(signals) == 0 {
		return nil
	}

	out := make([]float64, len(signals[0]))
	for _, s := range signals {
		for i := range out {
			out[i] += s[i]
		}
	}

	return out
}

// DC generates a constant-valued signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}

	return out
}

// Planar copies signal into channels identical channels.
func Planar(signal []float64, channels int) [][]float64 {
	out := make([][]float64, channels)
	for ch := range out {
		out[ch] = append([]float64(nil), signal...)
	}

	return out
}

// ToneEnergyDB returns the energy of signal at freqHz in dB, measured by
// correlating with a quadrature pair over the whole signal.
func ToneEnergyDB(signal []float64, freqHz, sampleRate float64) float64 {
	var re, im float64

	step := 2 * math.Pi * freqHz / sampleRate
	for i, x := range signal {
		re += x * math.Cos(step*float64(i))
		im -= x * math.Sin(step*float64(i))
	}

	p := (re*re + im*im) / float64(len(signal)*len(signal))
	if p <= 0 {
		return -300
	}

	return 10 * math.Log10(p)
}
