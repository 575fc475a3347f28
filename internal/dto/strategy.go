package dto

import "time"

// SnapshotRequest asks for the current strategy read on a symbol.
type SnapshotRequest struct {
	Symbol    string `query:"symbol" validate:"required"`
	Timeframe string `query:"timeframe" validate:"required"`
	Source    string `query:"source" validate:"omitempty,oneof=binance csv db"`
	Limit     int    `query:"limit" validate:"omitempty,gt=1"`
	CSVPath   string `query:"csv_path"`
}

// ConditionResult reports one scored entry condition.
type ConditionResult struct {
	Name   string `json:"name"`
	Weight int    `json:"weight"`
	Met    bool   `json:"met"`
}

// StrategySnapshot is the strategy's read of the most recent bar: the entry
// score with its per-condition breakdown, the exit conditions that would fire
// for a hypothetical open position, and the defined indicator values.
type StrategySnapshot struct {
	Symbol            string             `json:"symbol"`
	Timeframe         string             `json:"timeframe"`
	Timestamp         time.Time          `json:"timestamp"`
	Close             float64            `json:"close"`
	MarketPrice       float64            `json:"market_price,omitempty"`
	Score             int                `json:"score"`
	BuyScoreThreshold int                `json:"buy_score_threshold"`
	EntrySignal       bool               `json:"entry_signal"`
	Conditions        []ConditionResult  `json:"conditions"`
	ExitSignals       []string           `json:"exit_signals,omitempty"`
	Indicators        map[string]float64 `json:"indicators"`
	FibonacciLevels   map[string]float64 `json:"fibonacci_levels,omitempty"`
	HypotheticalStop  float64            `json:"hypothetical_stop"`
	DataPoints        int                `json:"data_points"`
}
