package core

// EnsureLen returns a slice with the requested length, reusing buf capacity if possible.
func EnsureLen(buf []float64, n int) []float64 {
	if n <= 0 {
		return buf[:0]
	}

	if cap(buf) >= n {
		return buf[:n]
	}

	return make([]float64, n)
}

// EnsurePlanar returns planar storage of channels x n frames, reusing the
// existing channel slices where their capacity allows.
func EnsurePlanar(buf [][]float64, channels, n int) [][]float64 {
	if cap(buf) >= channels {
		buf = buf[:channels]
	} else {
		grown := make([][]float64, channels)
		copy(grown, buf)
		buf = grown
	}

	for ch := range buf {
		buf[ch] = EnsureLen(buf[ch], n)
	}

	return buf
}

// ZeroPlanar sets every sample of a planar block to 0.
func ZeroPlanar(block [][]float64) {
	for _, ch := range block {
		clear(ch)
	}
}

// CopyPlanar copies src into dst channel by channel. Channel and frame
// counts are truncated to the shorter of the two.
func CopyPlanar(dst, src [][]float64) {
	n := min(len(dst), len(src))
	for ch := 0; ch < n; ch++ {
		copy(dst[ch], src[ch])
	}
}

// Frames returns the frame count of a planar block (0 for no channels).
func Frames(block [][]float64) int {
	if len(block) == 0 {
		return 0
	}

	return len(block[0])
}
