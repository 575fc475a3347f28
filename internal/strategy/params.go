// Package strategy implements the scored buy condition and the multi-reason
// sell condition evaluated once per bar, plus the swing-range and Fibonacci
// helpers they rely on. Every evaluator is pure: it reads a window of
// enriched bars and fails closed when required values are undefined.
package strategy

import "fmt"

// Params are the tunable strategy knobs, immutable for a run.
type Params struct {
	FiboLookbackPeriod int     `json:"fibo_lookback_period"`
	RSIOverbought      float64 `json:"rsi_overbought"`
	ADXTrendThreshold  float64 `json:"adx_trend_threshold"`
	BuyScoreThreshold  int     `json:"buy_score_threshold"`
	StopLossPercent    float64 `json:"stop_loss_percent"`
}

// DefaultParams returns the stock parameter set used when a run does not
// override anything.
func DefaultParams() Params {
	return Params{
		FiboLookbackPeriod: 50,
		RSIOverbought:      70,
		ADXTrendThreshold:  25,
		BuyScoreThreshold:  5,
		StopLossPercent:    0.03,
	}
}

func (p Params) Validate() error {
	if p.FiboLookbackPeriod <= 0 {
		return fmt.Errorf("fibo lookback period must be positive, got %d", p.FiboLookbackPeriod)
	}
	if p.RSIOverbought < 0 || p.RSIOverbought > 100 {
		return fmt.Errorf("rsi overbought must be within [0,100], got %v", p.RSIOverbought)
	}
	if p.ADXTrendThreshold < 0 {
		return fmt.Errorf("adx trend threshold must be non-negative, got %v", p.ADXTrendThreshold)
	}
	if p.BuyScoreThreshold <= 0 {
		return fmt.Errorf("buy score threshold must be positive, got %d", p.BuyScoreThreshold)
	}
	if p.StopLossPercent <= 0 || p.StopLossPercent >= 1 {
		return fmt.Errorf("stop loss percent must be within (0,1), got %v", p.StopLossPercent)
	}
	return nil
}
