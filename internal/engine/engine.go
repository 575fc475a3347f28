// Package engine runs the single-asset, long-only backtest simulation: a
// FLAT/LONG state machine stepped once per bar, with exact cash accounting,
// drawdown tracking and a metrics reduction over the finished run. One
// Backtest instance owns all mutable state for a run; decisions at a bar
// only ever read the trailing window up to and including that bar.
package engine

import (
	"fmt"
	"time"

	"github.com/UGZ6/in-shadow-trader/internal/dto"
	"github.com/UGZ6/in-shadow-trader/internal/strategy"
	"github.com/UGZ6/in-shadow-trader/pkg/logger"
)

const (
	// minWarmupBars is the smallest window the entry evaluator accepts;
	// earlier bars are sampled but never traded.
	minWarmupBars = 2

	// Trailing-window sizing: the buffer keeps
	// max(fibo_lookback_period, retainFloor) * retainSafetyFactor bars, so
	// the swing lookback and the ATR mean always have their history while
	// unbounded streams stay in constant memory.
	retainFloor        = 50
	retainSafetyFactor = 2
)

// Config describes one run. TimeframeMinutes and EntryFraction are optional:
// zero values fall back to the timeframe lookup and 0.99 respectively.
type Config struct {
	Symbol           string
	Timeframe        string
	TimeframeMinutes int
	InitialCapital   float64
	CommissionRate   float64
	EntryFraction    float64
	Strategy         strategy.Params
}

// Backtest is a single-run simulation instance. It is not safe for
// concurrent use; create one per run.
type Backtest struct {
	cfg Config
	log *logger.Logger

	window []dto.Bar
	retain int

	ledger      ledger
	peak        float64
	maxDrawdown float64
	trades      []dto.CompletedTrade
	samples     []dto.PortfolioSample
	processed   int
}

// New validates the configuration and prepares a run instance.
func New(cfg Config, log *logger.Logger) (*Backtest, error) {
	if cfg.InitialCapital <= 0 {
		return nil, fmt.Errorf("initial capital must be positive, got %v", cfg.InitialCapital)
	}
	if cfg.CommissionRate < 0 || cfg.CommissionRate >= 1 {
		return nil, fmt.Errorf("commission rate must be within [0,1), got %v", cfg.CommissionRate)
	}
	if cfg.EntryFraction == 0 {
		cfg.EntryFraction = 0.99
	}
	if cfg.EntryFraction < 0 || cfg.EntryFraction > 1 {
		return nil, fmt.Errorf("entry fraction must be within (0,1], got %v", cfg.EntryFraction)
	}
	if cfg.TimeframeMinutes == 0 {
		cfg.TimeframeMinutes = dto.TimeframeMinutes(cfg.Timeframe)
	}
	if err := cfg.Strategy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid strategy parameters: %w", err)
	}
	if log == nil {
		log = logger.NewNop()
	}

	return &Backtest{
		cfg:    cfg,
		log:    log,
		retain: retainSize(cfg.Strategy.FiboLookbackPeriod),
	}, nil
}

func retainSize(lookback int) int {
	if lookback < retainFloor {
		lookback = retainFloor
	}
	return lookback * retainSafetyFactor
}

// Run simulates the full bar slice and returns the settled result. The
// series is validated before the loop starts; repeated calls with identical
// input produce identical results.
func (b *Backtest) Run(bars []dto.Bar) (*dto.RunResult, error) {
	if err := validateBars(bars); err != nil {
		return nil, err
	}

	b.reset()
	for _, bar := range bars {
		b.step(bar)
	}
	return b.finish(), nil
}

// RunStream simulates bars pulled from src until exhaustion, holding only
// the trailing window in memory. Ordering is enforced as bars arrive; an
// empty stream is rejected like an empty slice.
func (b *Backtest) RunStream(src BarStream) (*dto.RunResult, error) {
	b.reset()

	var lastSeen dto.Bar
	for {
		bar, ok, err := src.Next()
		if err != nil {
			return nil, fmt.Errorf("bar stream failed: %w", err)
		}
		if !ok {
			break
		}
		if b.processed > 0 && !bar.Timestamp.After(lastSeen.Timestamp) {
			return nil, fmt.Errorf("%w: bar at %s does not advance past %s",
				ErrNonMonotonicSeries, bar.Timestamp, lastSeen.Timestamp)
		}
		lastSeen = bar
		b.step(bar)
	}

	if b.processed == 0 {
		return nil, ErrEmptySeries
	}
	return b.finish(), nil
}

func validateBars(bars []dto.Bar) error {
	if len(bars) == 0 {
		return ErrEmptySeries
	}
	for i := 1; i < len(bars); i++ {
		if !bars[i].Timestamp.After(bars[i-1].Timestamp) {
			return fmt.Errorf("%w: bar %d at %s does not advance past %s",
				ErrNonMonotonicSeries, i, bars[i].Timestamp, bars[i-1].Timestamp)
		}
	}
	return nil
}

func (b *Backtest) reset() {
	b.window = b.window[:0]
	b.ledger = newLedger(b.cfg.InitialCapital, b.cfg.CommissionRate, b.cfg.EntryFraction)
	b.peak = b.cfg.InitialCapital
	b.maxDrawdown = 0
	b.trades = make([]dto.CompletedTrade, 0)
	b.samples = make([]dto.PortfolioSample, 0)
	b.processed = 0
}

// step advances the state machine by one bar: sample, update drawdown, then
// decide. Warm-up bars record only the portfolio sample.
func (b *Backtest) step(bar dto.Bar) {
	b.processed++
	b.window = append(b.window, bar)
	if overflow := len(b.window) - b.retain; overflow > 0 {
		copy(b.window, b.window[overflow:])
		b.window = b.window[:b.retain]
	}

	value := b.ledger.markToMarket(bar.Close)
	b.samples = append(b.samples, dto.PortfolioSample{
		Timestamp: bar.Timestamp,
		Value:     value,
		Price:     bar.Close,
	})

	if len(b.window) < minWarmupBars {
		return
	}

	if value > b.peak {
		b.peak = value
	}
	if drawdown := (b.peak - value) / b.peak; drawdown > b.maxDrawdown {
		b.maxDrawdown = drawdown
	}

	if !b.ledger.long() {
		b.maybeEnter(bar)
		return
	}
	b.maybeExit(bar)
}

func (b *Backtest) maybeEnter(bar dto.Bar) {
	fire, score := strategy.EvaluateEntry(b.window, b.cfg.Strategy)
	if !fire {
		return
	}

	b.ledger.openLong(bar.Close, bar.Timestamp)
	b.log.Debug("Opened long position",
		logger.StringField("symbol", b.cfg.Symbol),
		logger.TimeField("timestamp", bar.Timestamp),
		logger.Float64Field("price", bar.Close),
		logger.Float64Field("size", b.ledger.size),
		logger.IntField("score", score),
	)
}

// maybeExit checks the stop loss before anything else: it is a pure price
// comparison that fires even while indicators are still undefined, and it
// wins over a signal exit on the same bar.
func (b *Backtest) maybeExit(bar dto.Bar) {
	if strategy.StopLossBreached(bar.Close, b.ledger.entryPrice, b.cfg.Strategy.StopLossPercent) {
		b.closePosition(bar.Close, bar.Timestamp, dto.ExitReasonStopLoss)
		return
	}
	if strategy.EvaluateExit(b.window, b.ledger.entryPrice, b.cfg.Strategy) {
		b.closePosition(bar.Close, bar.Timestamp, dto.ExitReasonSignalSell)
	}
}

func (b *Backtest) closePosition(price float64, ts time.Time, reason string) {
	trade := b.ledger.close(price, ts, reason)
	b.trades = append(b.trades, trade)
	b.log.Debug("Closed position",
		logger.StringField("symbol", b.cfg.Symbol),
		logger.StringField("exit_reason", reason),
		logger.Float64Field("exit_price", price),
		logger.Float64Field("net_pnl", trade.NetPnL),
	)
}

// finish force-closes any open position at the last seen close, so every
// run settles fully in cash, then reduces the logs to summary metrics.
func (b *Backtest) finish() *dto.RunResult {
	if b.ledger.long() && len(b.window) > 0 {
		last := b.window[len(b.window)-1]
		b.closePosition(last.Close, last.Timestamp, dto.ExitReasonForcedCloseAtEnd)
	}

	return &dto.RunResult{
		Summary:         b.summarize(),
		Trades:          b.trades,
		PortfolioValues: b.samples,
		DataPoints:      b.processed,
	}
}
