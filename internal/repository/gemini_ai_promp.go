package repository

import (
	"fmt"
	"strings"

	"github.com/UGZ6/in-shadow-trader/internal/dto"
)

const maxTradesInPrompt = 10

// promptReviewBacktest embeds the run's headline metrics and most recent
// trades into a compact review request. The model is asked for prose, not
// structured output, so the reply can be stored and relayed as-is.
func promptReviewBacktest(result *dto.RunResult) string {
	var sb strings.Builder
	s := result.Summary

	sb.WriteString(fmt.Sprintf(
		"You are a quantitative trading analyst. Review this backtest of a long-only scored-entry strategy on %s (%s bars).\n\n",
		s.Symbol, s.Timeframe,
	))

	sb.WriteString("### Summary\n")
	sb.WriteString(fmt.Sprintf("- Period: %s to %s (%d bars)\n",
		s.StartDate.Format("2006-01-02"), s.EndDate.Format("2006-01-02"), result.DataPoints))
	sb.WriteString(fmt.Sprintf("- Capital: %.2f -> %.2f (%+.2f%%)\n",
		s.InitialCapital, s.FinalCapital, s.TotalReturnPercent))
	sb.WriteString(fmt.Sprintf("- Max drawdown: %.2f%%\n", s.MaxDrawdownPercent))
	sb.WriteString(fmt.Sprintf("- Trades: %d (%d wins, %d losses, win rate %.1f%%)\n",
		s.TotalTrades, s.WinningTrades, s.LosingTrades, s.WinRatePercent))
	sb.WriteString(fmt.Sprintf("- Profit factor: %v, Sharpe ratio: %.2f\n",
		s.ProfitFactor, s.SharpeRatio))
	sb.WriteString(fmt.Sprintf("- Avg win: %.2f, avg loss: %.2f, commission rate: %.3f%%\n\n",
		s.AvgWin, s.AvgLoss, s.CommissionRatePercent))

	trades := result.Trades
	if len(trades) > maxTradesInPrompt {
		trades = trades[len(trades)-maxTradesInPrompt:]
	}
	if len(trades) > 0 {
		sb.WriteString("### Most recent trades (entry -> exit, net pnl, exit reason)\n")
		for _, t := range trades {
			sb.WriteString(fmt.Sprintf("- %s %.4f -> %s %.4f, pnl %+.2f (%+.2f%%), %s\n",
				t.EntryTime.Format("2006-01-02 15:04"), t.EntryPrice,
				t.ExitTime.Format("2006-01-02 15:04"), t.ExitPrice,
				t.NetPnL, t.PnLPercent, t.ExitReason))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(`### Task
Write a review of at most 120 words, plain text, no markdown:
1. One sentence on overall performance versus the drawdown taken.
2. One sentence on what the exit-reason mix says about the strategy (stop-loss heavy, signal-driven, or cut off at the end).
3. One concrete parameter or behavior worth investigating next.
Do not invent numbers that are not present above.`)

	return sb.String()
}
