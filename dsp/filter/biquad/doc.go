// Package biquad provides biquad (second-order IIR) filter runtime primitives.
//
// A [Section] implements Direct Form II Transposed processing for a single
// second-order section defined by [Coefficients]. Coefficients can be swapped
// while the delay line is kept, which is how the EQ nodes glide between
// settings without clicks.
//
// This package provides the processing runtime only. Coefficient design
// lives in dsp/filter/design.
package biquad
