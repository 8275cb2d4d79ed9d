package rack

import vecmath "github.com/cwbudde/algo-vecmath"

// blend mixes the dry signal into the wet buffer in place:
// wet = dry*(1-w) + wet*w. The end points are exact: w <= 0 yields dry and
// w >= 1 leaves wet untouched. scratch must be at least len(wet) long.
func blend(wet, dry, scratch []float64, w float64) {
	switch {
	case w >= 1:
		return
	case w <= 0:
		copy(wet, dry)
		return
	}

	n := len(wet)
	tmp := scratch[:n]

	vecmath.ScaleBlock(tmp, dry[:n], 1-w)
	vecmath.ScaleBlockInPlace(wet, w)
	vecmath.AddBlockInPlace(wet, tmp)
}
