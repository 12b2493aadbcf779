// Package dynamics provides the band compressors of the mixer.
//
//   - Compressor: stereo-linked soft-knee compressor with log2-domain gain
//     computation and a peak envelope follower. Times are in seconds.
//   - Bank: one compressor per crossover tap, each followed by a makeup gain
//     stage, summed into one bus.
//
// Build with -tags fastmath to use approximate log/exp in the gain computer.
package dynamics
