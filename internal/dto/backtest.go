package dto

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Exit reasons recorded on completed trades.
const (
	ExitReasonSignalSell       = "SIGNAL_SELL"
	ExitReasonStopLoss         = "STOP_LOSS"
	ExitReasonForcedCloseAtEnd = "FORCED_CLOSE_AT_END"
)

// BacktestRequest defines the parameters to run one backtest.
type BacktestRequest struct {
	Symbol         string   `json:"symbol" validate:"required"`
	Timeframe      string   `json:"timeframe" validate:"required"`
	Source         string   `json:"source" validate:"omitempty,oneof=binance csv db"`
	Limit          int      `json:"limit" validate:"omitempty,gt=1"`
	StartDate      string   `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate        string   `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	CSVPath        string   `json:"csv_path"`
	InitialCapital *float64 `json:"initial_capital" validate:"omitempty,gt=0"`
	CommissionRate *float64 `json:"commission_rate" validate:"omitempty,gte=0,lt=1"`
	Notify         bool     `json:"notify"`
	Narrative      bool     `json:"narrative"`
}

// CompletedTrade records one round trip from entry to exit.
type CompletedTrade struct {
	EntryTime  time.Time `json:"entry_time"`
	ExitTime   time.Time `json:"exit_time"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	Size       float64   `json:"size"`
	NetPnL     float64   `json:"net_pnl"`
	PnLPercent float64   `json:"pnl_percent"`
	Commission float64   `json:"commission"`
	ExitReason string    `json:"exit_reason"`
}

// Winner reports whether the trade closed with a positive net result.
func (t CompletedTrade) Winner() bool {
	return t.NetPnL > 0
}

// PortfolioSample is one mark-to-market observation of total equity.
type PortfolioSample struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
	Price     float64   `json:"price"`
}

// JSONFloat marshals non-finite values as the strings "Infinity",
// "-Infinity" and "NaN" instead of failing, since a profit factor with no
// losing trades is legitimately infinite.
type JSONFloat float64

func (f JSONFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsInf(v, 1):
		return []byte(`"Infinity"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Infinity"`), nil
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	default:
		return json.Marshal(v)
	}
}

func (f *JSONFloat) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch s {
		case "Infinity":
			*f = JSONFloat(math.Inf(1))
		case "-Infinity":
			*f = JSONFloat(math.Inf(-1))
		case "NaN":
			*f = JSONFloat(math.NaN())
		default:
			return fmt.Errorf("unsupported float string %q", s)
		}
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = JSONFloat(v)
	return nil
}

// SummaryMetrics aggregates the performance of one finished run.
type SummaryMetrics struct {
	Symbol                 string    `json:"symbol"`
	Timeframe              string    `json:"timeframe"`
	StartDate              time.Time `json:"start_date"`
	EndDate                time.Time `json:"end_date"`
	InitialCapital         float64   `json:"initial_capital"`
	FinalCapital           float64   `json:"final_capital"`
	TotalReturnPercent     float64   `json:"total_return_percent"`
	TotalReturnAbsolute    float64   `json:"total_return_absolute"`
	MaxDrawdownPercent     float64   `json:"max_drawdown_percent"`
	TotalTrades            int       `json:"total_trades"`
	WinningTrades          int       `json:"winning_trades"`
	LosingTrades           int       `json:"losing_trades"`
	WinRatePercent         float64   `json:"win_rate_percent"`
	AvgWin                 float64   `json:"avg_win"`
	AvgLoss                float64   `json:"avg_loss"`
	ProfitFactor           JSONFloat `json:"profit_factor"`
	SharpeRatio            float64   `json:"sharpe_ratio"`
	CommissionRatePercent  float64   `json:"commission_rate_percent"`
}

// RunResult is the full output of one backtest run.
type RunResult struct {
	Summary         SummaryMetrics    `json:"summary"`
	Trades          []CompletedTrade  `json:"trades"`
	PortfolioValues []PortfolioSample `json:"portfolio_values"`
	DataPoints      int               `json:"data_points"`
	Narrative       string            `json:"narrative,omitempty"`
	RunID           uint              `json:"run_id,omitempty"`
}
