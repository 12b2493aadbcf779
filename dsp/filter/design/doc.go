// Package design provides RBJ-cookbook biquad coefficient designers.
//
// The functions in this package produce coefficients consumable by
// dsp/filter/biquad. [ForKind] dispatches on a [Kind] and applies the EQ
// conventions used by the mixer: shelves have slope S = 1, lowpass,
// highpass and allpass use a Butterworth Q, and only peaking, bandpass and
// notch read the caller's Q.
package design
