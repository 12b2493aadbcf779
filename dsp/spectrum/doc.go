// Package spectrum implements the analyser tap that hosts read to draw a
// live spectrum or spectrogram of the mixer output.
//
// An [Analyser] keeps the most recent fftSize mono samples. On request it
// applies a Blackman window, takes an FFT, smooths the bin magnitudes over
// time and converts them to decibels or to bytes scaled between a minimum
// and maximum level.
package spectrum
