package dto

import "time"

// Candle is one OHLCV bar of market data.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Bar is a candle enriched with the indicator values the strategy reads.
// A NaN field means the indicator is not yet defined at that bar.
type Bar struct {
	Candle
	EMAFast     float64
	EMAMid      float64
	EMASlow     float64
	MACDLine    float64
	MACDSignal  float64
	MACDHist    float64
	RSI         float64
	ADX         float64
	PlusDI      float64
	MinusDI     float64
	ATR         float64
	AroonOsc    float64
	VolumeSMA   float64
	VolumeRatio float64
}

// CandleRequest describes which slice of market data to load and from
// which supply.
type CandleRequest struct {
	Symbol    string    `json:"symbol" validate:"required"`
	Timeframe string    `json:"timeframe" validate:"required"`
	Source    string    `json:"source" validate:"omitempty,oneof=binance csv db"`
	Limit     int       `json:"limit" validate:"omitempty,gt=1"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	CSVPath   string    `json:"csv_path"`
}
