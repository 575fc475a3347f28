package indicator

import "math"

// Defined reports whether an indicator value is usable at a given bar.
// Warmup bars carry NaN.
func Defined(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func firstDefined(x []float64) int {
	for i, v := range x {
		if !math.IsNaN(v) {
			return i
		}
	}
	return -1
}

// SMA over the last p points; returns a slice aligned to the input length
// with NaNs for warmup.
func SMA(x []float64, p int) []float64 {
	if p <= 0 {
		return nil
	}
	out := make([]float64, len(x))
	var sum float64
	for i := range x {
		sum += x[i]
		if i < p-1 {
			out[i] = math.NaN()
			continue
		}
		if i >= p {
			sum -= x[i-p]
		}
		out[i] = sum / float64(p)
	}
	return out
}

// EMA with standard smoothing 2/(p+1), seeded with the SMA of the first p
// defined points. Leading NaNs in the input shift the seed window right, so
// EMA can run over the output of another warmup-carrying indicator.
func EMA(x []float64, p int) []float64 {
	if p <= 0 {
		return nil
	}
	out := nanSlice(len(x))
	start := firstDefined(x)
	if start < 0 || len(x)-start < p {
		return out
	}

	k := 2.0 / float64(p+1)
	var seed float64
	for i := start; i < start+p; i++ {
		seed += x[i]
	}
	seed /= float64(p)

	out[start+p-1] = seed
	for i := start + p; i < len(x); i++ {
		out[i] = (x[i]-out[i-1])*k + out[i-1]
	}
	return out
}

// WilderRMA is the smoothed moving average with alpha 1/p used by RSI, ATR
// and ADX, seeded with the plain average of the first p defined points.
func WilderRMA(x []float64, p int) []float64 {
	if p <= 0 {
		return nil
	}
	out := nanSlice(len(x))
	start := firstDefined(x)
	if start < 0 || len(x)-start < p {
		return out
	}

	var seed float64
	for i := start; i < start+p; i++ {
		seed += x[i]
	}
	seed /= float64(p)

	out[start+p-1] = seed
	for i := start + p; i < len(x); i++ {
		out[i] = (out[i-1]*float64(p-1) + x[i]) / float64(p)
	}
	return out
}
