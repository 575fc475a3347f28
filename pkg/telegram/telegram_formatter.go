package telegram

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/UGZ6/in-shadow-trader/internal/dto"
	"github.com/UGZ6/in-shadow-trader/pkg/utils"
)

const reportDateLayout = "2006-01-02"

// FormatBacktestReport renders one finished run as a MarkdownV2 message.
// Dynamic values pass through the escape helper so dates, percentages and
// narrative text cannot break the markup.
func FormatBacktestReport(result *dto.RunResult) string {
	s := result.Summary

	trend := "📈"
	if s.TotalReturnAbsolute < 0 {
		trend = "📉"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s *%s*\n", trend,
		utils.EscapeMarkdownV2(fmt.Sprintf("%s %s backtest", s.Symbol, s.Timeframe))))
	writeReportLine(&b, "🗓", fmt.Sprintf("%s → %s (%d bars)",
		s.StartDate.Format(reportDateLayout), s.EndDate.Format(reportDateLayout), result.DataPoints))
	writeReportLine(&b, "💰", fmt.Sprintf("Capital %s → %s (%s)",
		utils.FormatMoney(s.InitialCapital), utils.FormatMoney(s.FinalCapital),
		utils.FormatPercentage(s.TotalReturnPercent)))
	writeReportLine(&b, "📉", fmt.Sprintf("Max drawdown %.1f%%", s.MaxDrawdownPercent))
	writeReportLine(&b, "🔁", fmt.Sprintf("Trades %d (%dW/%dL, win rate %.1f%%)",
		s.TotalTrades, s.WinningTrades, s.LosingTrades, s.WinRatePercent))
	writeReportLine(&b, "⚖️", fmt.Sprintf("Profit factor %s, Sharpe %.2f",
		formatProfitFactor(float64(s.ProfitFactor)), s.SharpeRatio))

	if result.Narrative != "" {
		b.WriteString("\n")
		writeReportLine(&b, "🤖", result.Narrative)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatErrorAlert renders a failed scheduled run for the alert chat.
func FormatErrorAlert(at time.Time, jobName string, err error) string {
	var b strings.Builder
	b.WriteString("📛 *Scheduled backtest failed*\n")
	writeReportLine(&b, "🕒", utils.PrettyDate(at))
	writeReportLine(&b, "🔧", jobName)
	writeReportLine(&b, "⚠️", err.Error())
	return strings.TrimRight(b.String(), "\n")
}

func writeReportLine(b *strings.Builder, emoji, text string) {
	b.WriteString(emoji)
	b.WriteString(" ")
	b.WriteString(utils.EscapeMarkdownV2(text))
	b.WriteString("\n")
}

func formatProfitFactor(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "∞"
	case math.IsNaN(v):
		return "n/a"
	default:
		return fmt.Sprintf("%.2f", v)
	}
}
