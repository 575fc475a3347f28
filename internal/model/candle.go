package model

import "time"

// Candle is one cached OHLCV row. Downloaded klines are upserted here so
// later runs can replay the same window from the db source without touching
// the exchange again.
type Candle struct {
	ID        uint      `gorm:"primarykey"`
	Symbol    string    `gorm:"not null;uniqueIndex:idx_candles_series,priority:1"`
	Timeframe string    `gorm:"not null;uniqueIndex:idx_candles_series,priority:2"`
	Timestamp time.Time `gorm:"not null;uniqueIndex:idx_candles_series,priority:3"`
	Open      float64   `gorm:"not null"`
	High      float64   `gorm:"not null"`
	Low       float64   `gorm:"not null"`
	Close     float64   `gorm:"not null"`
	Volume    float64   `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Candle) TableName() string {
	return "candles"
}
