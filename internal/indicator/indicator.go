// Package indicator computes the technical indicators the strategy reads
// from candle series. All series functions return slices aligned to their
// input, carrying NaN until the indicator has enough history to be defined.
package indicator

import (
	"math"

	"github.com/UGZ6/in-shadow-trader/internal/dto"
)

// Config holds the periods for every computed indicator.
type Config struct {
	EMAFastPeriod    int
	EMAMidPeriod     int
	EMASlowPeriod    int
	MACDFastPeriod   int
	MACDSlowPeriod   int
	MACDSignalPeriod int
	RSIPeriod        int
	ADXPeriod        int
	ATRPeriod        int
	AroonPeriod      int
	VolumeSMAPeriod  int
}

// DefaultConfig returns the standard period set: EMA 12/26/50, MACD 12/26/9
// and 14 for the oscillators.
func DefaultConfig() Config {
	return Config{
		EMAFastPeriod:    12,
		EMAMidPeriod:     26,
		EMASlowPeriod:    50,
		MACDFastPeriod:   12,
		MACDSlowPeriod:   26,
		MACDSignalPeriod: 9,
		RSIPeriod:        14,
		ADXPeriod:        14,
		ATRPeriod:        14,
		AroonPeriod:      14,
		VolumeSMAPeriod:  20,
	}
}

// Enrich computes every configured indicator over the candle series and
// returns bars carrying the per-bar values. Bars before an indicator's
// warmup keep NaN in that field.
func Enrich(candles []dto.Candle, cfg Config) []dto.Bar {
	n := len(candles)
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	volumes := make([]float64, n)
	for i, c := range candles {
		highs[i] = c.High
		lows[i] = c.Low
		closes[i] = c.Close
		volumes[i] = c.Volume
	}

	emaFast := EMA(closes, cfg.EMAFastPeriod)
	emaMid := EMA(closes, cfg.EMAMidPeriod)
	emaSlow := EMA(closes, cfg.EMASlowPeriod)
	macdLine, macdSignal, macdHist := MACD(closes, cfg.MACDFastPeriod, cfg.MACDSlowPeriod, cfg.MACDSignalPeriod)
	rsi := RSI(closes, cfg.RSIPeriod)
	adx, plusDI, minusDI := ADX(highs, lows, closes, cfg.ADXPeriod)
	atr := ATR(highs, lows, closes, cfg.ATRPeriod)
	aroon := AroonOsc(highs, lows, cfg.AroonPeriod)
	volumeSMA := SMA(volumes, cfg.VolumeSMAPeriod)

	bars := make([]dto.Bar, n)
	for i := range candles {
		volumeRatio := math.NaN()
		if Defined(volumeSMA[i]) && volumeSMA[i] != 0 {
			volumeRatio = volumes[i] / volumeSMA[i]
		}

		bars[i] = dto.Bar{
			Candle:      candles[i],
			EMAFast:     emaFast[i],
			EMAMid:      emaMid[i],
			EMASlow:     emaSlow[i],
			MACDLine:    macdLine[i],
			MACDSignal:  macdSignal[i],
			MACDHist:    macdHist[i],
			RSI:         rsi[i],
			ADX:         adx[i],
			PlusDI:      plusDI[i],
			MinusDI:     minusDI[i],
			ATR:         atr[i],
			AroonOsc:    aroon[i],
			VolumeSMA:   volumeSMA[i],
			VolumeRatio: volumeRatio,
		}
	}
	return bars
}
