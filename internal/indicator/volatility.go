package indicator

import "math"

// TrueRange for each bar: the largest of high-low, |high-prevClose| and
// |low-prevClose|. The first bar has no previous close and stays NaN.
func TrueRange(highs, lows, closes []float64) []float64 {
	out := nanSlice(len(highs))
	for i := 1; i < len(highs); i++ {
		hl := highs[i] - lows[i]
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		out[i] = math.Max(hl, math.Max(hc, lc))
	}
	return out
}

// ATR is Wilder's smoothed average of the true range.
func ATR(highs, lows, closes []float64, p int) []float64 {
	return WilderRMA(TrueRange(highs, lows, closes), p)
}
