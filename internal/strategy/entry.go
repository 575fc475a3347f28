package strategy

import (
	"github.com/UGZ6/in-shadow-trader/internal/dto"
	"github.com/UGZ6/in-shadow-trader/internal/indicator"
)

// Entry condition names, in evaluation order.
const (
	CondEMAAlignment  = "ema_alignment"
	CondMACDBullish   = "macd_bullish"
	CondRSIOk         = "rsi_below_overbought"
	CondADXStrong     = "adx_strong"
	CondFiboSupport   = "fibonacci_support"
	CondLowVolatility = "low_volatility"
	CondAroonUptrend  = "aroon_uptrend"
)

// entryCondition is one scored predicate over the latest bar of the window.
type entryCondition struct {
	name   string
	weight int
	met    func(win []dto.Bar, p Params) bool
}

func entryConditions() []entryCondition {
	return []entryCondition{
		{name: CondEMAAlignment, weight: 2, met: func(win []dto.Bar, _ Params) bool {
			last := win[len(win)-1]
			return last.EMAFast > last.EMAMid && last.EMAMid > last.EMASlow
		}},
		{name: CondMACDBullish, weight: 1, met: func(win []dto.Bar, _ Params) bool {
			last := win[len(win)-1]
			return last.MACDLine > last.MACDSignal
		}},
		{name: CondRSIOk, weight: 1, met: func(win []dto.Bar, p Params) bool {
			return win[len(win)-1].RSI < p.RSIOverbought
		}},
		{name: CondADXStrong, weight: 1, met: func(win []dto.Bar, p Params) bool {
			return win[len(win)-1].ADX > p.ADXTrendThreshold
		}},
		{name: CondFiboSupport, weight: 2, met: fiboSupport},
		{name: CondLowVolatility, weight: 1, met: func(win []dto.Bar, _ Params) bool {
			mean, ok := meanATR(win)
			return ok && win[len(win)-1].ATR < mean
		}},
		{name: CondAroonUptrend, weight: 1, met: func(win []dto.Bar, _ Params) bool {
			return win[len(win)-1].AroonOsc > 0
		}},
	}
}

// EvaluateEntry scores the latest bar against the buy conditions and reports
// whether the total clears BuyScoreThreshold. It fails closed (false, 0)
// when the window has fewer than two bars or any required indicator on the
// latest bar is undefined. Callers invoke it only while flat.
func EvaluateEntry(win []dto.Bar, p Params) (bool, int) {
	if !entryReady(win) {
		return false, 0
	}

	score := 0
	for _, cond := range entryConditions() {
		if cond.met(win, p) {
			score += cond.weight
		}
	}
	return score >= p.BuyScoreThreshold, score
}

// EntryBreakdown reports every entry condition for the latest bar. A window
// that is not ready reports all conditions unmet, mirroring the fail-closed
// result of EvaluateEntry.
func EntryBreakdown(win []dto.Bar, p Params) []dto.ConditionResult {
	ready := entryReady(win)
	conds := entryConditions()
	results := make([]dto.ConditionResult, 0, len(conds))
	for _, cond := range conds {
		results = append(results, dto.ConditionResult{
			Name:   cond.name,
			Weight: cond.weight,
			Met:    ready && cond.met(win, p),
		})
	}
	return results
}

func entryReady(win []dto.Bar) bool {
	if len(win) < 2 {
		return false
	}
	last := win[len(win)-1]
	required := []float64{
		last.EMAFast, last.EMAMid, last.EMASlow,
		last.MACDLine, last.MACDSignal,
		last.RSI, last.ADX, last.ATR, last.AroonOsc,
		last.Close,
	}
	for _, v := range required {
		if !indicator.Defined(v) {
			return false
		}
	}
	return true
}

// fiboSupport holds when the close sits inside the golden-pocket band
// between the 61.8% and 50% retracements of the recent swing, bounds
// inclusive. A degenerate swing range disables the contribution.
func fiboSupport(win []dto.Bar, p Params) bool {
	high, low, ok := RecentSwingRange(win, p.FiboLookbackPeriod)
	if !ok {
		return false
	}

	priceRange := high - low
	upper := high - priceRange*0.5
	lower := high - priceRange*0.618
	closePrice := win[len(win)-1].Close
	return closePrice >= lower && closePrice <= upper
}

// meanATR averages the defined ATR values across the window.
func meanATR(win []dto.Bar) (float64, bool) {
	var sum float64
	var n int
	for _, b := range win {
		if indicator.Defined(b.ATR) {
			sum += b.ATR
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
