package model

import (
	"time"

	"gorm.io/datatypes"
)

// BacktestRun is one persisted backtest: headline numbers as plain columns
// for listing and filtering, the full payloads as jsonb.
type BacktestRun struct {
	ID                 uint      `gorm:"primarykey" json:"id"`
	Symbol             string    `gorm:"not null;index:idx_backtest_runs_symbol" json:"symbol"`
	Timeframe          string    `gorm:"not null" json:"timeframe"`
	Source             string    `gorm:"not null" json:"source"`
	StartDate          time.Time `json:"start_date"`
	EndDate            time.Time `json:"end_date"`
	InitialCapital     float64   `gorm:"not null" json:"initial_capital"`
	FinalCapital       float64   `gorm:"not null" json:"final_capital"`
	TotalReturnPercent float64   `json:"total_return_percent"`
	MaxDrawdownPercent float64   `json:"max_drawdown_percent"`
	WinRatePercent     float64   `json:"win_rate_percent"`
	SharpeRatio        float64   `json:"sharpe_ratio"`
	TotalTrades        int       `json:"total_trades"`
	DataPoints         int       `json:"data_points"`

	Summary   datatypes.JSON `gorm:"type:jsonb" json:"summary"`
	Params    datatypes.JSON `gorm:"type:jsonb" json:"params"`
	Trades    datatypes.JSON `gorm:"type:jsonb" json:"trades,omitempty"`
	Narrative string         `gorm:"type:text" json:"narrative,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (BacktestRun) TableName() string {
	return "backtest_runs"
}

// GetBacktestRunParam filters persisted runs.
type GetBacktestRunParam struct {
	Symbol    string `query:"symbol"`
	Timeframe string `query:"timeframe"`
	Source    string `query:"source"`
	Limit     int    `query:"limit" validate:"omitempty,gt=0,lte=500"`
}
