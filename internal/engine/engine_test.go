package engine

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UGZ6/in-shadow-trader/internal/dto"
	"github.com/UGZ6/in-shadow-trader/internal/strategy"
)

var seriesStart = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

// scoringBar builds a fully-defined bar that scores exactly six entry
// points at a flat price: the EMA stack, MACD, RSI, ADX and Aroon
// conditions hold, while equal highs and lows keep the Fibonacci band
// disabled and a constant ATR keeps the volatility point unawarded.
func scoringBar(offset int, closePrice float64) dto.Bar {
	return dto.Bar{
		Candle: dto.Candle{
			Timestamp: seriesStart.Add(time.Duration(offset) * time.Hour),
			Open:      closePrice,
			High:      closePrice,
			Low:       closePrice,
			Close:     closePrice,
			Volume:    100,
		},
		EMAFast:     102,
		EMAMid:      101,
		EMASlow:     100,
		MACDLine:    1,
		MACDSignal:  0.5,
		MACDHist:    0.5,
		RSI:         50,
		ADX:         30,
		PlusDI:      25,
		MinusDI:     10,
		ATR:         1,
		AroonOsc:    50,
		VolumeSMA:   100,
		VolumeRatio: 1,
	}
}

// holdBar is a scoringBar pushed below the entry threshold via RSI, so a
// flat engine stays flat on it.
func holdBar(offset int, closePrice float64) dto.Bar {
	bar := scoringBar(offset, closePrice)
	bar.RSI = 80
	return bar
}

// reversalBar flips the EMA stack so a long position exits on signal.
func reversalBar(offset int, closePrice float64) dto.Bar {
	bar := scoringBar(offset, closePrice)
	bar.EMAFast = 95
	bar.RSI = 80
	return bar
}

func testConfig() Config {
	params := strategy.DefaultParams()
	params.BuyScoreThreshold = 6
	return Config{
		Symbol:         "BTCUSDT",
		Timeframe:      "1h",
		InitialCapital: 10000,
		CommissionRate: 0.001,
		Strategy:       params,
	}
}

func mustRun(t *testing.T, cfg Config, bars []dto.Bar) *dto.RunResult {
	t.Helper()
	bt, err := New(cfg, nil)
	require.NoError(t, err)
	result, err := bt.Run(bars)
	require.NoError(t, err)
	return result
}

func TestRunFlatSeriesChargesOnlyCommission(t *testing.T) {
	bars := []dto.Bar{
		scoringBar(0, 100),
		scoringBar(1, 100),
		scoringBar(2, 100),
	}

	result := mustRun(t, testConfig(), bars)

	require.Len(t, result.Trades, 1)
	trade := result.Trades[0]

	// Entry fires on the second bar, the first with two bars of history.
	assert.Equal(t, bars[1].Timestamp, trade.EntryTime)
	assert.Equal(t, bars[2].Timestamp, trade.ExitTime)
	assert.Equal(t, dto.ExitReasonForcedCloseAtEnd, trade.ExitReason)
	assert.InDelta(t, 100.0, trade.EntryPrice, 1e-9)
	assert.InDelta(t, 100.0, trade.ExitPrice, 1e-9)
	assert.InDelta(t, 99.0, trade.Size, 1e-9)

	// Zero price movement leaves exactly the two commissions as the loss.
	assert.InDelta(t, -19.8, trade.NetPnL, 1e-9)
	assert.InDelta(t, 19.8, trade.Commission, 1e-9)
	assert.InDelta(t, 9980.2, result.Summary.FinalCapital, 1e-9)

	require.Len(t, result.PortfolioValues, 3)
	assert.InDelta(t, 10000.0, result.PortfolioValues[0].Value, 1e-9)
	assert.InDelta(t, 10000.0, result.PortfolioValues[1].Value, 1e-9)
	assert.InDelta(t, 9990.1, result.PortfolioValues[2].Value, 1e-9)

	assert.Equal(t, 3, result.DataPoints)
	assert.Equal(t, 1, result.Summary.TotalTrades)
	assert.Equal(t, 0, result.Summary.WinningTrades)
	assert.Equal(t, 1, result.Summary.LosingTrades)
	assert.InDelta(t, 0.0, result.Summary.WinRatePercent, 1e-9)
}

func TestRunStopLossWinsOverSignalExit(t *testing.T) {
	breachBar := reversalBar(2, 97)

	bars := []dto.Bar{
		scoringBar(0, 100),
		scoringBar(1, 100),
		breachBar,
	}

	result := mustRun(t, testConfig(), bars)

	require.Len(t, result.Trades, 1)
	trade := result.Trades[0]
	assert.Equal(t, dto.ExitReasonStopLoss, trade.ExitReason)
	assert.InDelta(t, 97.0, trade.ExitPrice, 1e-9)
	assert.Equal(t, bars[2].Timestamp, trade.ExitTime)
}

func TestRunStopLossBoundaryIsInclusive(t *testing.T) {
	t.Run("close exactly at the stop level exits", func(t *testing.T) {
		bars := []dto.Bar{
			scoringBar(0, 100),
			scoringBar(1, 100),
			scoringBar(2, 97),
		}
		result := mustRun(t, testConfig(), bars)

		require.Len(t, result.Trades, 1)
		assert.Equal(t, dto.ExitReasonStopLoss, result.Trades[0].ExitReason)
	})

	t.Run("close just above the stop level holds", func(t *testing.T) {
		bars := []dto.Bar{
			scoringBar(0, 100),
			scoringBar(1, 100),
			scoringBar(2, 97.01),
		}
		result := mustRun(t, testConfig(), bars)

		require.Len(t, result.Trades, 1)
		assert.Equal(t, dto.ExitReasonForcedCloseAtEnd, result.Trades[0].ExitReason)
	})
}

func TestRunStopLossFiresWithUndefinedIndicators(t *testing.T) {
	// The stop is a pure price comparison: it must fire even when the bar's
	// indicators are still warming up and the signal evaluator fails closed.
	nan := math.NaN()
	warmup := dto.Bar{
		Candle: dto.Candle{
			Timestamp: seriesStart.Add(2 * time.Hour),
			Open:      90,
			High:      90,
			Low:       90,
			Close:     90,
			Volume:    100,
		},
		EMAFast:     nan,
		EMAMid:      nan,
		EMASlow:     nan,
		MACDLine:    nan,
		MACDSignal:  nan,
		MACDHist:    nan,
		RSI:         nan,
		ADX:         nan,
		PlusDI:      nan,
		MinusDI:     nan,
		ATR:         nan,
		AroonOsc:    nan,
		VolumeSMA:   nan,
		VolumeRatio: nan,
	}

	bars := []dto.Bar{
		scoringBar(0, 100),
		scoringBar(1, 100),
		warmup,
	}

	result := mustRun(t, testConfig(), bars)

	require.Len(t, result.Trades, 1)
	assert.Equal(t, dto.ExitReasonStopLoss, result.Trades[0].ExitReason)
	assert.InDelta(t, 90.0, result.Trades[0].ExitPrice, 1e-9)
}

func TestRunSignalExitClosesPosition(t *testing.T) {
	bars := []dto.Bar{
		holdBar(0, 100),
		scoringBar(1, 100),
		reversalBar(2, 99),
		holdBar(3, 99),
	}

	result := mustRun(t, testConfig(), bars)

	require.Len(t, result.Trades, 1)
	trade := result.Trades[0]
	assert.Equal(t, dto.ExitReasonSignalSell, trade.ExitReason)
	assert.Equal(t, bars[1].Timestamp, trade.EntryTime)
	assert.Equal(t, bars[2].Timestamp, trade.ExitTime)
	assert.InDelta(t, 99.0, trade.ExitPrice, 1e-9)
}

func TestRunIdempotence(t *testing.T) {
	bars := []dto.Bar{
		holdBar(0, 100),
		scoringBar(1, 100),
		reversalBar(2, 99),
		scoringBar(3, 100),
		scoringBar(4, 96),
		holdBar(5, 98),
	}

	bt, err := New(testConfig(), nil)
	require.NoError(t, err)

	first, err := bt.Run(bars)
	require.NoError(t, err)
	second, err := bt.Run(bars)
	require.NoError(t, err)

	assert.Equal(t, first, second, "repeated runs must be bit-identical")
}

func TestRunSettlesToInitialPlusNetPnL(t *testing.T) {
	bars := []dto.Bar{
		holdBar(0, 100),
		scoringBar(1, 100),
		reversalBar(2, 99),
		scoringBar(3, 100),
		scoringBar(4, 96),
		scoringBar(5, 98),
	}

	cfg := testConfig()
	result := mustRun(t, cfg, bars)

	require.NotEmpty(t, result.Trades)
	var netSum float64
	for _, trade := range result.Trades {
		netSum += trade.NetPnL
	}
	assert.InDelta(t, cfg.InitialCapital+netSum, result.Summary.FinalCapital, 1e-9,
		"every run must settle fully in cash")
}

func TestRunStreamMatchesRun(t *testing.T) {
	bars := []dto.Bar{
		holdBar(0, 100),
		scoringBar(1, 100),
		reversalBar(2, 99),
		scoringBar(3, 100),
		scoringBar(4, 96),
		holdBar(5, 98),
	}

	fromSlice := mustRun(t, testConfig(), bars)

	bt, err := New(testConfig(), nil)
	require.NoError(t, err)
	fromStream, err := bt.RunStream(NewSliceStream(bars))
	require.NoError(t, err)

	assert.Equal(t, fromSlice, fromStream)
}

func TestRunFatalPreconditions(t *testing.T) {
	bt, err := New(testConfig(), nil)
	require.NoError(t, err)

	t.Run("empty slice", func(t *testing.T) {
		_, err := bt.Run(nil)
		assert.ErrorIs(t, err, ErrEmptySeries)
	})

	t.Run("empty stream", func(t *testing.T) {
		_, err := bt.RunStream(NewSliceStream(nil))
		assert.ErrorIs(t, err, ErrEmptySeries)
	})

	t.Run("duplicate timestamp", func(t *testing.T) {
		dup := scoringBar(0, 100)
		_, err := bt.Run([]dto.Bar{scoringBar(0, 100), dup})
		assert.ErrorIs(t, err, ErrNonMonotonicSeries)
	})

	t.Run("backwards timestamp", func(t *testing.T) {
		_, err := bt.Run([]dto.Bar{scoringBar(1, 100), scoringBar(0, 100)})
		assert.ErrorIs(t, err, ErrNonMonotonicSeries)
	})

	t.Run("stream enforces ordering as bars arrive", func(t *testing.T) {
		_, err := bt.RunStream(NewSliceStream([]dto.Bar{scoringBar(1, 100), scoringBar(0, 100)}))
		assert.ErrorIs(t, err, ErrNonMonotonicSeries)
	})
}

func TestRunShortSeriesYieldsNoTrades(t *testing.T) {
	result := mustRun(t, testConfig(), []dto.Bar{scoringBar(0, 100)})

	assert.Empty(t, result.Trades)
	assert.Equal(t, 1, result.DataPoints)
	assert.Len(t, result.PortfolioValues, 1)
	assert.InDelta(t, 0.0, result.Summary.TotalReturnPercent, 1e-9)
	assert.InDelta(t, 0.0, result.Summary.MaxDrawdownPercent, 1e-9)
	assert.InDelta(t, 0.0, result.Summary.SharpeRatio, 1e-9)
	assert.InDelta(t, 0.0, float64(result.Summary.ProfitFactor), 1e-9)
}

func TestRunMaxDrawdownStaysWithinBounds(t *testing.T) {
	bars := []dto.Bar{
		holdBar(0, 100),
		scoringBar(1, 100),
		holdBar(2, 50),
		holdBar(3, 10),
	}

	result := mustRun(t, testConfig(), bars)

	assert.GreaterOrEqual(t, result.Summary.MaxDrawdownPercent, 0.0)
	assert.LessOrEqual(t, result.Summary.MaxDrawdownPercent, 100.0)
	assert.Greater(t, result.Summary.MaxDrawdownPercent, 0.0, "a crash after entry must register drawdown")
}

func TestRunTrimsTrailingWindow(t *testing.T) {
	cfg := testConfig()
	cfg.Strategy.BuyScoreThreshold = 20 // never fires; exercises the buffer only

	total := 5 * retainSize(cfg.Strategy.FiboLookbackPeriod)
	bars := make([]dto.Bar, 0, total)
	for i := 0; i < total; i++ {
		bars = append(bars, holdBar(i, 100+float64(i%7)))
	}

	bt, err := New(cfg, nil)
	require.NoError(t, err)
	result, err := bt.Run(bars)
	require.NoError(t, err)

	assert.Equal(t, total, result.DataPoints)
	assert.Len(t, result.PortfolioValues, total)
	assert.LessOrEqual(t, len(bt.window), retainSize(cfg.Strategy.FiboLookbackPeriod))
	assert.Empty(t, result.Trades)
}

func TestNewRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "zero initial capital", mutate: func(c *Config) { c.InitialCapital = 0 }},
		{name: "negative commission", mutate: func(c *Config) { c.CommissionRate = -0.1 }},
		{name: "commission of one", mutate: func(c *Config) { c.CommissionRate = 1 }},
		{name: "entry fraction above one", mutate: func(c *Config) { c.EntryFraction = 1.5 }},
		{name: "zero buy score threshold", mutate: func(c *Config) { c.Strategy.BuyScoreThreshold = 0 }},
		{name: "stop loss of one", mutate: func(c *Config) { c.Strategy.StopLossPercent = 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			_, err := New(cfg, nil)
			assert.Error(t, err)
		})
	}
}
