package strategy

import (
	"errors"
	"fmt"

	"github.com/UGZ6/in-shadow-trader/internal/dto"
	"github.com/UGZ6/in-shadow-trader/internal/indicator"
)

// ErrDegenerateRange marks a swing range whose high does not exceed its low,
// which makes retracement levels meaningless.
var ErrDegenerateRange = errors.New("swing high must exceed swing low")

// RecentSwingRange returns the highest high and lowest low over the last
// min(lookback, available) bars. ok is false when the window is empty, an
// extreme is undefined, or the range is degenerate.
func RecentSwingRange(win []dto.Bar, lookback int) (high, low float64, ok bool) {
	if len(win) == 0 || lookback <= 0 {
		return 0, 0, false
	}

	start := 0
	if len(win) > lookback {
		start = len(win) - lookback
	}

	high, low = win[start].High, win[start].Low
	for _, b := range win[start+1:] {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}

	if !indicator.Defined(high) || !indicator.Defined(low) || high <= low {
		return 0, 0, false
	}
	return high, low, true
}

// FibonacciLevels computes the standard retracement ladder between a swing
// high and low. Keys are the ratio labels exposed in snapshot payloads.
func FibonacciLevels(high, low float64) (map[string]float64, error) {
	if high <= low {
		return nil, fmt.Errorf("%w: high %v, low %v", ErrDegenerateRange, high, low)
	}
	if high <= 0 || low <= 0 {
		return nil, fmt.Errorf("swing levels must be positive: high %v, low %v", high, low)
	}

	priceRange := high - low
	return map[string]float64{
		"0.0":   high,
		"0.236": high - priceRange*0.236,
		"0.382": high - priceRange*0.382,
		"0.5":   high - priceRange*0.5,
		"0.618": high - priceRange*0.618,
		"0.786": high - priceRange*0.786,
		"1.0":   low,
	}, nil
}
