// Package crossover splits a signal into low, mid and high taps for
// per-band dynamics.
//
// The [Splitter] reproduces the mixer's three-tap topology:
//
//	low  = lowpass(lowMid)
//	mid  = highpass(lowMid)
//	high = highpass(midHigh) applied to the mid tap
//
// The mid tap is not band-limited on the top end before it reaches its
// compressor; the upper crossover filter only sits on the path towards the
// high tap. Both filters referencing lowMid are always scheduled together.
package crossover
