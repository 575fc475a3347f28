package engine

import (
	"math"
	"time"

	"github.com/UGZ6/in-shadow-trader/internal/dto"
)

const minutesPerDay = 1440.0

// summarize reduces the finished run's trade and sample logs to the summary
// metrics. Pure with respect to the logs: calling it twice on the same run
// yields identical values.
func (b *Backtest) summarize() dto.SummaryMetrics {
	var totalWin, totalLoss float64
	var winners, losers int
	for _, t := range b.trades {
		if t.Winner() {
			winners++
			totalWin += t.NetPnL
		} else {
			losers++
			totalLoss += -t.NetPnL
		}
	}

	winRate := 0.0
	if len(b.trades) > 0 {
		winRate = float64(winners) / float64(len(b.trades)) * 100
	}

	avgWin := 0.0
	if winners > 0 {
		avgWin = totalWin / float64(winners)
	}
	avgLoss := 0.0
	if losers > 0 {
		avgLoss = totalLoss / float64(losers)
	}

	// With losses the factor is the plain win/loss ratio; a run that never
	// lost but did trade is legitimately infinite.
	profitFactor := 0.0
	switch {
	case totalLoss > 0:
		profitFactor = totalWin / totalLoss
	case len(b.trades) > 0:
		profitFactor = math.Inf(1)
	}

	finalCapital := b.ledger.capital
	initial := b.cfg.InitialCapital

	var startDate, endDate time.Time
	if len(b.samples) > 0 {
		startDate = b.samples[0].Timestamp
		endDate = b.samples[len(b.samples)-1].Timestamp
	}

	return dto.SummaryMetrics{
		Symbol:                b.cfg.Symbol,
		Timeframe:             b.cfg.Timeframe,
		StartDate:             startDate,
		EndDate:               endDate,
		InitialCapital:        initial,
		FinalCapital:          finalCapital,
		TotalReturnPercent:    (finalCapital - initial) / initial * 100,
		TotalReturnAbsolute:   finalCapital - initial,
		MaxDrawdownPercent:    b.maxDrawdown * 100,
		TotalTrades:           len(b.trades),
		WinningTrades:         winners,
		LosingTrades:          losers,
		WinRatePercent:        winRate,
		AvgWin:                avgWin,
		AvgLoss:               avgLoss,
		ProfitFactor:          dto.JSONFloat(profitFactor),
		SharpeRatio:           sharpeRatio(b.samples, b.cfg.TimeframeMinutes),
		CommissionRatePercent: b.cfg.CommissionRate * 100,
	}
}

// sharpeRatio computes mean/stddev of the per-sample percentage returns,
// annualized by the number of bars in a year for the run's timeframe.
// Degenerate inputs (fewer than two returns, zero variance) yield 0.
func sharpeRatio(samples []dto.PortfolioSample, timeframeMinutes int) float64 {
	if len(samples) < 3 || timeframeMinutes <= 0 {
		return 0
	}

	returns := make([]float64, 0, len(samples)-1)
	for i := 1; i < len(samples); i++ {
		prev := samples[i-1].Value
		returns = append(returns, (samples[i].Value-prev)/prev)
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	// Sample standard deviation: one degree of freedom removed.
	var sq float64
	for _, r := range returns {
		d := r - mean
		sq += d * d
	}
	std := math.Sqrt(sq / float64(len(returns)-1))
	if std <= 0 || math.IsNaN(std) {
		return 0
	}

	annualization := (minutesPerDay / float64(timeframeMinutes)) * 365
	return mean / std * math.Sqrt(annualization)
}
