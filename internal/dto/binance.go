package dto

import "time"

// BinanceKlines represents a single kline/candlestick from Binance.
type BinanceKlines struct {
	OpenTime                 int64   `json:"openTime"`
	Open                     float64 `json:"open"`
	High                     float64 `json:"high"`
	Low                      float64 `json:"low"`
	Close                    float64 `json:"close"`
	Volume                   float64 `json:"volume"`
	CloseTime                int64   `json:"closeTime"`
	QuoteAssetVolume         float64 `json:"quoteAssetVolume"`
	NumberOfTrades           int64   `json:"numberOfTrades"`
	TakerBuyBaseAssetVolume  float64 `json:"takerBuyBaseAssetVolume"`
	TakerBuyQuoteAssetVolume float64 `json:"takerBuyQuoteAssetVolume"`
}

// ToCandle converts a kline to the internal candle shape, keyed by open time.
func (k BinanceKlines) ToCandle() Candle {
	return Candle{
		Timestamp: time.UnixMilli(k.OpenTime).UTC(),
		Open:      k.Open,
		High:      k.High,
		Low:       k.Low,
		Close:     k.Close,
		Volume:    k.Volume,
	}
}

// BinancePrice represents the price of a symbol.
type BinancePrice struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}
