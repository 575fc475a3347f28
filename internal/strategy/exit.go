package strategy

import (
	"github.com/UGZ6/in-shadow-trader/internal/dto"
	"github.com/UGZ6/in-shadow-trader/internal/indicator"
)

// Exit condition names, with stop loss first: it has exit priority.
const (
	ExitStopLoss       = "stop_loss"
	ExitTrendReversal  = "trend_reversal"
	ExitMomentumLoss   = "momentum_loss"
	ExitHighVolatility = "high_volatility"
	ExitAroonDowntrend = "aroon_downtrend"
)

// StopLossBreached is a pure price comparison, independent of indicator
// warmup: true when close has fallen to or below the stop level derived from
// the entry price. A non-positive entry price never triggers.
func StopLossBreached(closePrice, entryPrice, stopLossPercent float64) bool {
	if entryPrice <= 0 {
		return false
	}
	return closePrice <= entryPrice*(1-stopLossPercent)
}

// EvaluateExit reports whether any exit condition holds on the latest bar
// for a position opened at entryPrice. It fails closed when entryPrice is
// non-positive, the window is empty, or required values are undefined.
// Callers invoke it only while long.
func EvaluateExit(win []dto.Bar, entryPrice float64, p Params) bool {
	return len(ExitReasons(win, entryPrice, p)) > 0
}

// ExitReasons lists every exit condition holding on the latest bar, stop
// loss first.
func ExitReasons(win []dto.Bar, entryPrice float64, p Params) []string {
	if !exitReady(win, entryPrice) {
		return nil
	}

	last := win[len(win)-1]
	var reasons []string
	if StopLossBreached(last.Close, entryPrice, p.StopLossPercent) {
		reasons = append(reasons, ExitStopLoss)
	}
	if last.EMAFast < last.EMAMid {
		reasons = append(reasons, ExitTrendReversal)
	}
	if last.MACDLine < last.MACDSignal {
		reasons = append(reasons, ExitMomentumLoss)
	}
	if mean, ok := meanATR(win); ok && last.ATR > mean {
		reasons = append(reasons, ExitHighVolatility)
	}
	if last.AroonOsc < 0 {
		reasons = append(reasons, ExitAroonDowntrend)
	}
	return reasons
}

func exitReady(win []dto.Bar, entryPrice float64) bool {
	if len(win) == 0 || entryPrice <= 0 {
		return false
	}
	last := win[len(win)-1]
	required := []float64{
		last.EMAFast, last.EMAMid,
		last.MACDLine, last.MACDSignal,
		last.ATR, last.AroonOsc,
		last.Close,
	}
	for _, v := range required {
		if !indicator.Defined(v) {
			return false
		}
	}
	return true
}
