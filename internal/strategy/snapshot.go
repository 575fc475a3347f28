package strategy

import (
	"errors"

	"github.com/UGZ6/in-shadow-trader/internal/dto"
	"github.com/UGZ6/in-shadow-trader/internal/indicator"
)

// BuildSnapshot summarizes the strategy's read of the latest bar: the entry
// score with its per-condition breakdown, the exit reasons that would fire
// for a position hypothetically opened at the latest close, the defined
// indicator values, and the Fibonacci ladder when the swing range allows it.
func BuildSnapshot(symbol, timeframe string, win []dto.Bar, p Params) (*dto.StrategySnapshot, error) {
	if len(win) == 0 {
		return nil, errors.New("cannot snapshot an empty window")
	}

	last := win[len(win)-1]
	decision, score := EvaluateEntry(win, p)

	snap := &dto.StrategySnapshot{
		Symbol:            symbol,
		Timeframe:         timeframe,
		Timestamp:         last.Timestamp,
		Close:             last.Close,
		Score:             score,
		BuyScoreThreshold: p.BuyScoreThreshold,
		EntrySignal:       decision,
		Conditions:        EntryBreakdown(win, p),
		ExitSignals:       ExitReasons(win, last.Close, p),
		Indicators:        definedIndicators(last),
		HypotheticalStop:  last.Close * (1 - p.StopLossPercent),
		DataPoints:        len(win),
	}

	if high, low, ok := RecentSwingRange(win, p.FiboLookbackPeriod); ok {
		if levels, err := FibonacciLevels(high, low); err == nil {
			snap.FibonacciLevels = levels
		}
	}

	return snap, nil
}

// definedIndicators maps only the indicator values that are defined at the
// bar, so warmup NaNs never leak into a JSON payload.
func definedIndicators(b dto.Bar) map[string]float64 {
	values := map[string]float64{
		"ema_fast":         b.EMAFast,
		"ema_mid":          b.EMAMid,
		"ema_slow":         b.EMASlow,
		"macd":             b.MACDLine,
		"macd_signal":      b.MACDSignal,
		"macd_histogram":   b.MACDHist,
		"rsi":              b.RSI,
		"adx":              b.ADX,
		"di_plus":          b.PlusDI,
		"di_minus":         b.MinusDI,
		"atr":              b.ATR,
		"aroon_oscillator": b.AroonOsc,
		"volume_sma":       b.VolumeSMA,
		"volume_ratio":     b.VolumeRatio,
	}

	defined := make(map[string]float64, len(values))
	for name, v := range values {
		if indicator.Defined(v) {
			defined[name] = v
		}
	}
	return defined
}
