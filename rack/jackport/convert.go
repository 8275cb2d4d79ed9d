package jackport

// widen converts a JACK sample buffer into rack samples.
func widen[S ~float32](dst []float64, src []S) int {
	n := min(len(dst), len(src))
	for i := range n {
		dst[i] = float64(src[i])
	}

	return n
}

// narrow converts rack samples into a JACK sample buffer.
func narrow[S ~float32](dst []S, src []float64) int {
	n := min(len(dst), len(src))
	for i := range n {
		dst[i] = S(src[i])
	}

	return n
}
