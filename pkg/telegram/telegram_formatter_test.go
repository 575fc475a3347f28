package telegram

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/UGZ6/in-shadow-trader/internal/dto"
)

func sampleRunResult() *dto.RunResult {
	return &dto.RunResult{
		Summary: dto.SummaryMetrics{
			Symbol:              "BTCUSDT",
			Timeframe:           "1h",
			StartDate:           time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDate:             time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			InitialCapital:      10000,
			FinalCapital:        10850.5,
			TotalReturnPercent:  8.5,
			TotalReturnAbsolute: 850.5,
			MaxDrawdownPercent:  4.2,
			TotalTrades:         12,
			WinningTrades:       7,
			LosingTrades:        5,
			WinRatePercent:      58.3,
			ProfitFactor:        dto.JSONFloat(1.85),
			SharpeRatio:         0.42,
		},
		DataPoints: 1440,
	}
}

func TestFormatBacktestReport(t *testing.T) {
	msg := FormatBacktestReport(sampleRunResult())

	assert.True(t, strings.HasPrefix(msg, "📈 *BTCUSDT 1h backtest*"))
	assert.Contains(t, msg, "2024\\-01\\-01 → 2024\\-03\\-01")
	assert.Contains(t, msg, "10850\\.50")
	assert.Contains(t, msg, "\\+8\\.5%")
	assert.Contains(t, msg, "12 \\(7W/5L, win rate 58\\.3%\\)")
	assert.NotContains(t, msg, "🤖")
}

func TestFormatBacktestReportNegativeRun(t *testing.T) {
	result := sampleRunResult()
	result.Summary.TotalReturnAbsolute = -120
	result.Summary.TotalReturnPercent = -1.2

	msg := FormatBacktestReport(result)
	assert.True(t, strings.HasPrefix(msg, "📉"))
	assert.Contains(t, msg, "\\-1\\.2%")
}

func TestFormatBacktestReportInfiniteProfitFactor(t *testing.T) {
	result := sampleRunResult()
	result.Summary.ProfitFactor = dto.JSONFloat(math.Inf(1))

	msg := FormatBacktestReport(result)
	assert.Contains(t, msg, "Profit factor ∞")
}

func TestFormatBacktestReportIncludesNarrative(t *testing.T) {
	result := sampleRunResult()
	result.Narrative = "Steady trend following with shallow drawdowns."

	msg := FormatBacktestReport(result)
	assert.Contains(t, msg, "🤖 Steady trend following with shallow drawdowns\\.")
}

func TestFormatErrorAlertEscapesReason(t *testing.T) {
	at := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	msg := FormatErrorAlert(at, "btc-hourly", assert.AnError)

	assert.True(t, strings.HasPrefix(msg, "📛 *Scheduled backtest failed*"))
	assert.Contains(t, msg, "btc\\-hourly")
	assert.Contains(t, msg, "01 Jun 2024")
}
