package indicator

import "math"

// RSI is Wilder's relative strength index over closes. When the average loss
// is zero the value saturates at 100.
func RSI(closes []float64, p int) []float64 {
	out := nanSlice(len(closes))
	if p <= 0 || len(closes) <= p {
		return out
	}

	var gainSum, lossSum float64
	for i := 1; i <= p; i++ {
		change := closes[i] - closes[i-1]
		if change >= 0 {
			gainSum += change
		} else {
			lossSum += -change
		}
	}

	avgGain := gainSum / float64(p)
	avgLoss := lossSum / float64(p)
	out[p] = rsiValue(avgGain, avgLoss)

	for i := p + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		var gain, loss float64
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}

		avgGain = (avgGain*float64(p-1) + gain) / float64(p)
		avgLoss = (avgLoss*float64(p-1) + loss) / float64(p)
		out[i] = rsiValue(avgGain, avgLoss)
	}

	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}

// MACD returns the MACD line (fast EMA minus slow EMA), its signal line
// (EMA of the MACD line) and the histogram, all aligned to the input.
func MACD(closes []float64, fast, slow, signal int) (line, signalLine, hist []float64) {
	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)

	line = nanSlice(len(closes))
	for i := range closes {
		if !math.IsNaN(emaFast[i]) && !math.IsNaN(emaSlow[i]) {
			line[i] = emaFast[i] - emaSlow[i]
		}
	}

	signalLine = EMA(line, signal)

	hist = nanSlice(len(closes))
	for i := range closes {
		if !math.IsNaN(line[i]) && !math.IsNaN(signalLine[i]) {
			hist[i] = line[i] - signalLine[i]
		}
	}
	return line, signalLine, hist
}

// AroonOsc is Aroon Up minus Aroon Down over a window of p+1 bars. Ties go
// to the most recent extreme.
func AroonOsc(highs, lows []float64, p int) []float64 {
	out := nanSlice(len(highs))
	if p <= 0 {
		return out
	}

	for i := p; i < len(highs); i++ {
		hiIdx, loIdx := i-p, i-p
		for j := i - p; j <= i; j++ {
			if highs[j] >= highs[hiIdx] {
				hiIdx = j
			}
			if lows[j] <= lows[loIdx] {
				loIdx = j
			}
		}
		up := 100.0 * float64(p-(i-hiIdx)) / float64(p)
		down := 100.0 * float64(p-(i-loIdx)) / float64(p)
		out[i] = up - down
	}
	return out
}
