// Package resample converts whole channels between sample rates with a
// Kaiser-windowed sinc FIR evaluated polyphase.
//
// The rate ratio is approximated by a reduced fraction up/down. Output is
// delay compensated, so sample j of the result lines up with input time
// j*down/up.
package resample
