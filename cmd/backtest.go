package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/UGZ6/in-shadow-trader/internal/dto"
	"github.com/UGZ6/in-shadow-trader/internal/repository"
	"github.com/UGZ6/in-shadow-trader/internal/service"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const recentTradesShown = 10

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run a single backtest and print the results",
	Run:   RunBacktest,
}

var (
	backtestSymbol     string
	backtestTimeframe  string
	backtestSource     string
	backtestLimit      int
	backtestCSVPath    string
	backtestStartDate  string
	backtestEndDate    string
	backtestCapital    float64
	backtestCommission float64
	backtestOutput     string
	backtestNotify     bool
	backtestNarrative  bool
)

func init() {
	backtestCmd.Flags().StringVar(&backtestSymbol, "symbol", "", "symbol to backtest, e.g. BTCUSDT")
	backtestCmd.Flags().StringVar(&backtestTimeframe, "timeframe", "1h", "candle timeframe")
	backtestCmd.Flags().StringVar(&backtestSource, "source", "binance", "candle source: binance, csv or db")
	backtestCmd.Flags().IntVar(&backtestLimit, "limit", 0, "maximum number of candles to load")
	backtestCmd.Flags().StringVar(&backtestCSVPath, "csv", "", "path to a candle CSV file, used with --source csv")
	backtestCmd.Flags().StringVar(&backtestStartDate, "start", "", "start date YYYY-MM-DD")
	backtestCmd.Flags().StringVar(&backtestEndDate, "end", "", "end date YYYY-MM-DD, inclusive")
	backtestCmd.Flags().Float64Var(&backtestCapital, "capital", 0, "initial capital override")
	backtestCmd.Flags().Float64Var(&backtestCommission, "commission", -1, "commission rate override, e.g. 0.001 for 0.1%")
	backtestCmd.Flags().StringVar(&backtestOutput, "output", "", "write the full result as JSON to this file")
	backtestCmd.Flags().BoolVar(&backtestNotify, "notify", false, "send the report to telegram when configured")
	backtestCmd.Flags().BoolVar(&backtestNarrative, "narrative", false, "attach an AI narrative when configured")
	backtestCmd.MarkFlagRequired("symbol")
}

func RunBacktest(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appDep, err := NewAppDependency()
	if err != nil {
		log.Fatalf("Failed to create app dependency: %v", err)
	}
	defer appDep.Close()

	repo, err := repository.NewRepository(appDep.cfg, appDep.cache, appDep.gormDB(), appDep.log)
	if err != nil {
		log.Fatalf("Failed to create repository: %v", err)
	}

	services := service.NewService(appDep.cfg, appDep.log, repo, appDep.cache, appDep.notifier)

	req := dto.BacktestRequest{
		Symbol:    backtestSymbol,
		Timeframe: backtestTimeframe,
		Source:    backtestSource,
		Limit:     backtestLimit,
		StartDate: backtestStartDate,
		EndDate:   backtestEndDate,
		CSVPath:   backtestCSVPath,
		Notify:    backtestNotify,
		Narrative: backtestNarrative,
	}
	if backtestCapital > 0 {
		req.InitialCapital = &backtestCapital
	}
	if backtestCommission >= 0 {
		req.CommissionRate = &backtestCommission
	}

	result, err := services.BacktestService.Run(ctx, req)
	if err != nil {
		fmt.Printf("❌ Backtest failed: %v\n", err)
		os.Exit(1)
	}

	printRunResult(result)

	if backtestOutput != "" {
		if err := writeResultFile(backtestOutput, result); err != nil {
			log.Fatalf("Failed to write result file: %v", err)
		}
		fmt.Printf("Detailed results saved to %s\n", backtestOutput)
	}
}

func printRunResult(result *dto.RunResult) {
	s := result.Summary
	p := message.NewPrinter(language.English)

	heavy := strings.Repeat("=", 80)
	light := strings.Repeat("-", 80)

	fmt.Println()
	fmt.Println(heavy)
	fmt.Println("                    BACKTEST RESULTS")
	fmt.Println(heavy)
	fmt.Printf("Symbol: %s | Timeframe: %s\n", s.Symbol, s.Timeframe)
	fmt.Printf("Period: %s to %s\n", s.StartDate.Format("2006-01-02"), s.EndDate.Format("2006-01-02"))
	fmt.Printf("Data Points: %d\n", result.DataPoints)
	fmt.Println(light)
	fmt.Println("PERFORMANCE METRICS:")
	fmt.Println(light)
	p.Printf("Initial Capital:     $%.2f\n", s.InitialCapital)
	p.Printf("Final Capital:       $%.2f\n", s.FinalCapital)
	p.Printf("Total Return:        %+.2f%% ($%+.2f)\n", s.TotalReturnPercent, s.TotalReturnAbsolute)
	fmt.Printf("Max Drawdown:        %.2f%%\n", s.MaxDrawdownPercent)
	fmt.Printf("Sharpe Ratio:        %.2f\n", s.SharpeRatio)
	fmt.Println(light)
	fmt.Println("TRADING STATISTICS:")
	fmt.Println(light)
	fmt.Printf("Total Trades:        %d\n", s.TotalTrades)
	fmt.Printf("Winning Trades:      %d\n", s.WinningTrades)
	fmt.Printf("Losing Trades:       %d\n", s.LosingTrades)
	fmt.Printf("Win Rate:            %.1f%%\n", s.WinRatePercent)
	p.Printf("Average Win:         $%.2f\n", s.AvgWin)
	p.Printf("Average Loss:        $%.2f\n", s.AvgLoss)
	fmt.Printf("Profit Factor:       %s\n", formatProfitFactorPlain(float64(s.ProfitFactor)))
	fmt.Printf("Commission Rate:     %.1f%%\n", s.CommissionRatePercent)
	fmt.Println(heavy)

	printRecentTrades(result.Trades)

	if result.Narrative != "" {
		fmt.Println(light)
		fmt.Println("NARRATIVE:")
		fmt.Println(light)
		fmt.Println(result.Narrative)
		fmt.Println(heavy)
	}
}

func printRecentTrades(trades []dto.CompletedTrade) {
	if len(trades) == 0 {
		return
	}

	recent := trades
	if len(recent) > recentTradesShown {
		recent = recent[len(recent)-recentTradesShown:]
	}

	fmt.Printf("RECENT TRADES (last %d of %d):\n", len(recent), len(trades))
	fmt.Println(strings.Repeat("-", 80))
	fmt.Printf("%-17s %-17s %10s %10s %11s %8s  %s\n",
		"ENTRY", "EXIT", "ENTRY $", "EXIT $", "NET PNL", "PNL %", "REASON")
	for _, t := range recent {
		fmt.Printf("%-17s %-17s %10.2f %10.2f %+11.2f %+7.2f%%  %s\n",
			t.EntryTime.UTC().Format("2006-01-02 15:04"),
			t.ExitTime.UTC().Format("2006-01-02 15:04"),
			t.EntryPrice, t.ExitPrice, t.NetPnL, t.PnLPercent, t.ExitReason)
	}
	fmt.Println(strings.Repeat("=", 80))
}

func formatProfitFactorPlain(pf float64) string {
	switch {
	case math.IsInf(pf, 1):
		return "Inf"
	case math.IsNaN(pf):
		return "N/A"
	default:
		return fmt.Sprintf("%.2f", pf)
	}
}

func writeResultFile(path string, result *dto.RunResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
