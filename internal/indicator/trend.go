package indicator

import "math"

// ADX computes Wilder's directional movement system, returning the ADX line
// together with +DI and -DI. When +DI and -DI sum to zero the DX for that
// bar is zero rather than undefined.
func ADX(highs, lows, closes []float64, p int) (adx, plusDI, minusDI []float64) {
	n := len(highs)
	adx = nanSlice(n)
	plusDI = nanSlice(n)
	minusDI = nanSlice(n)
	if p <= 0 || n < 2 {
		return adx, plusDI, minusDI
	}

	plusDM := nanSlice(n)
	minusDM := nanSlice(n)
	for i := 1; i < n; i++ {
		upMove := highs[i] - highs[i-1]
		downMove := lows[i-1] - lows[i]

		plusDM[i], minusDM[i] = 0, 0
		if upMove > downMove && upMove > 0 {
			plusDM[i] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i] = downMove
		}
	}

	atr := WilderRMA(TrueRange(highs, lows, closes), p)
	smoothPlus := WilderRMA(plusDM, p)
	smoothMinus := WilderRMA(minusDM, p)

	dx := nanSlice(n)
	for i := 0; i < n; i++ {
		if math.IsNaN(atr[i]) || math.IsNaN(smoothPlus[i]) || math.IsNaN(smoothMinus[i]) || atr[i] == 0 {
			continue
		}
		plusDI[i] = 100.0 * smoothPlus[i] / atr[i]
		minusDI[i] = 100.0 * smoothMinus[i] / atr[i]

		sum := plusDI[i] + minusDI[i]
		if sum == 0 {
			dx[i] = 0
			continue
		}
		dx[i] = 100.0 * math.Abs(plusDI[i]-minusDI[i]) / sum
	}

	adx = WilderRMA(dx, p)
	return adx, plusDI, minusDI
}
