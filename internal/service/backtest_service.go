package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/UGZ6/in-shadow-trader/config"
	"github.com/UGZ6/in-shadow-trader/internal/dto"
	"github.com/UGZ6/in-shadow-trader/internal/engine"
	"github.com/UGZ6/in-shadow-trader/internal/indicator"
	"github.com/UGZ6/in-shadow-trader/internal/model"
	"github.com/UGZ6/in-shadow-trader/internal/repository"
	"github.com/UGZ6/in-shadow-trader/internal/strategy"
	"github.com/UGZ6/in-shadow-trader/pkg/cache"
	"github.com/UGZ6/in-shadow-trader/pkg/common"
	"github.com/UGZ6/in-shadow-trader/pkg/logger"
	"github.com/UGZ6/in-shadow-trader/pkg/telegram"
	"github.com/UGZ6/in-shadow-trader/pkg/utils"
)

// ErrPersistenceDisabled is returned by run lookups when no database is
// configured.
var ErrPersistenceDisabled = errors.New("run persistence requires a configured database")

const (
	snapshotCacheTTL     = 30 * time.Second
	defaultSnapshotLimit = 200
)

// BacktestService runs simulations and serves their persisted results.
type BacktestService interface {
	Run(ctx context.Context, req dto.BacktestRequest) (*dto.RunResult, error)
	Snapshot(ctx context.Context, req dto.SnapshotRequest) (*dto.StrategySnapshot, error)
	GetRun(ctx context.Context, id uint) (*model.BacktestRun, error)
	ListRuns(ctx context.Context, param model.GetBacktestRunParam) ([]model.BacktestRun, error)
}

type backtestService struct {
	cfg      *config.Config
	log      *logger.Logger
	repo     *repository.Repository
	cache    cache.Cache
	notifier *telegram.Notifier
}

func NewBacktestService(
	cfg *config.Config,
	log *logger.Logger,
	repo *repository.Repository,
	inmemoryCache cache.Cache,
	notifier *telegram.Notifier,
) BacktestService {
	return &backtestService{
		cfg:      cfg,
		log:      log,
		repo:     repo,
		cache:    inmemoryCache,
		notifier: notifier,
	}
}

// Run loads the requested series, validates it, simulates the strategy over
// it and handles the optional narrative, persistence and notification steps.
func (s *backtestService) Run(ctx context.Context, req dto.BacktestRequest) (*dto.RunResult, error) {
	candleReq, err := s.buildCandleRequest(req)
	if err != nil {
		return nil, err
	}

	candles, err := s.repo.CandleRepo.GetCandles(ctx, candleReq)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to load candles",
			logger.ErrorField(err),
			logger.StringField("symbol", req.Symbol),
			logger.StringField("source", candleReq.Source),
		)
		return nil, fmt.Errorf("failed to load candles: %w", err)
	}

	step := time.Duration(dto.TimeframeMinutes(req.Timeframe)) * time.Minute
	report := indicator.ValidateSeries(candles, step)
	if fatal := report.Fatal(); len(fatal) > 0 {
		return nil, fmt.Errorf("candle series rejected: %s", fatal[0].Message)
	}
	if len(report.Issues) > 0 {
		s.log.WarnContext(ctx, "Candle series has quality warnings",
			logger.StringField("symbol", req.Symbol),
			logger.IntField("warnings", len(report.Issues)),
		)
	}

	s.storeCandles(ctx, candleReq, candles)

	engineCfg := engine.Config{
		Symbol:         req.Symbol,
		Timeframe:      req.Timeframe,
		InitialCapital: s.cfg.Backtest.InitialCapital,
		CommissionRate: s.cfg.Backtest.CommissionRate,
		EntryFraction:  s.cfg.Backtest.EntryFraction,
		Strategy:       s.strategyParams(),
	}
	if req.InitialCapital != nil {
		engineCfg.InitialCapital = *req.InitialCapital
	}
	if req.CommissionRate != nil {
		engineCfg.CommissionRate = *req.CommissionRate
	}

	backtest, err := engine.New(engineCfg, s.log)
	if err != nil {
		return nil, err
	}

	bars := indicator.Enrich(candles, indicator.DefaultConfig())
	result, err := backtest.Run(bars)
	if err != nil {
		s.log.ErrorContext(ctx, "Backtest run failed",
			logger.ErrorField(err),
			logger.StringField("symbol", req.Symbol),
		)
		return nil, err
	}

	if req.Narrative {
		s.attachNarrative(ctx, result)
	}
	s.persistRun(ctx, req, engineCfg, result, candleReq.Source)
	if req.Notify {
		s.notify(ctx, result)
	}

	s.log.InfoContext(ctx, "Backtest run completed",
		logger.StringField("symbol", req.Symbol),
		logger.StringField("timeframe", req.Timeframe),
		logger.IntField("data_points", result.DataPoints),
		logger.IntField("trades", result.Summary.TotalTrades),
		logger.Float64Field("return_pct", result.Summary.TotalReturnPercent),
	)
	return result, nil
}

// Snapshot evaluates the strategy on the latest window and reports what it
// sees. Results are cached briefly since the window only changes when a bar
// closes.
func (s *backtestService) Snapshot(ctx context.Context, req dto.SnapshotRequest) (*dto.StrategySnapshot, error) {
	source := req.Source
	if source == "" {
		source = common.SOURCE_BINANCE
	}

	cacheKey := fmt.Sprintf(common.KEY_SNAPSHOT, req.Symbol, req.Timeframe, source)
	if snapshot, ok := cache.GetTyped[*dto.StrategySnapshot](s.cache, cacheKey); ok {
		return snapshot, nil
	}

	limit := req.Limit
	if limit == 0 {
		limit = defaultSnapshotLimit
	}

	candles, err := s.repo.CandleRepo.GetCandles(ctx, dto.CandleRequest{
		Symbol:    req.Symbol,
		Timeframe: req.Timeframe,
		Source:    source,
		Limit:     limit,
		CSVPath:   req.CSVPath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load candles: %w", err)
	}

	step := time.Duration(dto.TimeframeMinutes(req.Timeframe)) * time.Minute
	if fatal := indicator.ValidateSeries(candles, step).Fatal(); len(fatal) > 0 {
		return nil, fmt.Errorf("candle series rejected: %s", fatal[0].Message)
	}

	bars := indicator.Enrich(candles, indicator.DefaultConfig())
	snapshot, err := strategy.BuildSnapshot(req.Symbol, req.Timeframe, bars, s.strategyParams())
	if err != nil {
		return nil, err
	}

	if source == common.SOURCE_BINANCE {
		if price, err := s.repo.BinanceRepo.GetLastPrice(ctx, req.Symbol); err != nil {
			s.log.WarnContext(ctx, "Failed to fetch market price for snapshot", logger.ErrorField(err))
		} else {
			snapshot.MarketPrice = price.Price
		}
	}

	if s.cache != nil {
		s.cache.Set(cacheKey, snapshot, snapshotCacheTTL)
	}
	return snapshot, nil
}

func (s *backtestService) GetRun(ctx context.Context, id uint) (*model.BacktestRun, error) {
	if s.repo.BacktestRunRepo == nil {
		return nil, ErrPersistenceDisabled
	}
	return s.repo.BacktestRunRepo.FindByID(ctx, id)
}

func (s *backtestService) ListRuns(ctx context.Context, param model.GetBacktestRunParam) ([]model.BacktestRun, error) {
	if s.repo.BacktestRunRepo == nil {
		return nil, ErrPersistenceDisabled
	}
	return s.repo.BacktestRunRepo.FindAll(ctx, param)
}

func (s *backtestService) buildCandleRequest(req dto.BacktestRequest) (dto.CandleRequest, error) {
	source := req.Source
	if source == "" {
		source = common.SOURCE_BINANCE
	}

	candleReq := dto.CandleRequest{
		Symbol:    req.Symbol,
		Timeframe: req.Timeframe,
		Source:    source,
		Limit:     req.Limit,
		CSVPath:   req.CSVPath,
	}

	if req.StartDate != "" {
		start, err := utils.ParseDate(req.StartDate)
		if err != nil {
			return dto.CandleRequest{}, fmt.Errorf("invalid start date: %w", err)
		}
		candleReq.StartTime = start
	}
	if req.EndDate != "" {
		end, err := utils.ParseDate(req.EndDate)
		if err != nil {
			return dto.CandleRequest{}, fmt.Errorf("invalid end date: %w", err)
		}
		// The whole end day is part of the range.
		candleReq.EndTime = end.AddDate(0, 0, 1).Add(-time.Millisecond)
	}
	if !candleReq.StartTime.IsZero() && !candleReq.EndTime.IsZero() && candleReq.EndTime.Before(candleReq.StartTime) {
		return dto.CandleRequest{}, fmt.Errorf("end date %s precedes start date %s", req.EndDate, req.StartDate)
	}

	return candleReq, nil
}

func (s *backtestService) strategyParams() strategy.Params {
	params := strategy.Params{
		FiboLookbackPeriod: s.cfg.Backtest.Strategy.FiboLookbackPeriod,
		RSIOverbought:      s.cfg.Backtest.Strategy.RSIOverbought,
		ADXTrendThreshold:  s.cfg.Backtest.Strategy.ADXTrendThreshold,
		BuyScoreThreshold:  s.cfg.Backtest.Strategy.BuyScoreThreshold,
		StopLossPercent:    s.cfg.Backtest.Strategy.StopLossPercent,
	}
	if params == (strategy.Params{}) {
		return strategy.DefaultParams()
	}
	return params
}

// storeCandles mirrors exchange-fetched series into the candle store so a
// later db-sourced run can replay the same window offline.
func (s *backtestService) storeCandles(ctx context.Context, req dto.CandleRequest, candles []dto.Candle) {
	if s.repo.CandleStoreRepo == nil || req.Source != common.SOURCE_BINANCE {
		return
	}
	if err := s.repo.CandleStoreRepo.SaveCandles(ctx, req.Symbol, req.Timeframe, candles); err != nil {
		s.log.WarnContext(ctx, "Failed to mirror candles into store",
			logger.ErrorField(err),
			logger.StringField("symbol", req.Symbol),
		)
	}
}

func (s *backtestService) attachNarrative(ctx context.Context, result *dto.RunResult) {
	if s.repo.GeminiAIRepo == nil {
		s.log.WarnContext(ctx, "Narrative requested but no AI key is configured")
		return
	}
	narrative, err := s.repo.GeminiAIRepo.ReviewBacktest(ctx, result)
	if err != nil {
		s.log.WarnContext(ctx, "Failed to generate run narrative", logger.ErrorField(err))
		return
	}
	result.Narrative = narrative
}

// runParams records the effective inputs of a persisted run.
type runParams struct {
	Source         string          `json:"source"`
	Limit          int             `json:"limit,omitempty"`
	StartDate      string          `json:"start_date,omitempty"`
	EndDate        string          `json:"end_date,omitempty"`
	InitialCapital float64         `json:"initial_capital"`
	CommissionRate float64         `json:"commission_rate"`
	EntryFraction  float64         `json:"entry_fraction"`
	Strategy       strategy.Params `json:"strategy"`
}

// persistRun stores the finished run when a database is wired in. Failures
// are logged, not returned: the simulation result is already in hand.
func (s *backtestService) persistRun(ctx context.Context, req dto.BacktestRequest, engineCfg engine.Config, result *dto.RunResult, source string) {
	if s.repo.BacktestRunRepo == nil {
		return
	}

	summaryJSON, err := json.Marshal(result.Summary)
	if err != nil {
		s.log.WarnContext(ctx, "Failed to marshal run summary", logger.ErrorField(err))
		return
	}
	tradesJSON, err := json.Marshal(result.Trades)
	if err != nil {
		s.log.WarnContext(ctx, "Failed to marshal run trades", logger.ErrorField(err))
		return
	}
	paramsJSON, err := json.Marshal(runParams{
		Source:         source,
		Limit:          req.Limit,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		InitialCapital: engineCfg.InitialCapital,
		CommissionRate: engineCfg.CommissionRate,
		EntryFraction:  engineCfg.EntryFraction,
		Strategy:       engineCfg.Strategy,
	})
	if err != nil {
		s.log.WarnContext(ctx, "Failed to marshal run parameters", logger.ErrorField(err))
		return
	}

	run := &model.BacktestRun{
		Symbol:             result.Summary.Symbol,
		Timeframe:          result.Summary.Timeframe,
		Source:             source,
		StartDate:          result.Summary.StartDate,
		EndDate:            result.Summary.EndDate,
		InitialCapital:     result.Summary.InitialCapital,
		FinalCapital:       result.Summary.FinalCapital,
		TotalReturnPercent: result.Summary.TotalReturnPercent,
		MaxDrawdownPercent: result.Summary.MaxDrawdownPercent,
		WinRatePercent:     result.Summary.WinRatePercent,
		SharpeRatio:        result.Summary.SharpeRatio,
		TotalTrades:        result.Summary.TotalTrades,
		DataPoints:         result.DataPoints,
		Summary:            datatypes.JSON(summaryJSON),
		Params:             datatypes.JSON(paramsJSON),
		Trades:             datatypes.JSON(tradesJSON),
		Narrative:          result.Narrative,
	}

	if err := s.repo.BacktestRunRepo.Create(ctx, run); err != nil {
		s.log.WarnContext(ctx, "Failed to persist backtest run", logger.ErrorField(err))
		return
	}
	result.RunID = run.ID
}

func (s *backtestService) notify(ctx context.Context, result *dto.RunResult) {
	if !s.notifier.Enabled() {
		s.log.WarnContext(ctx, "Notification requested but telegram is not configured")
		return
	}
	if err := s.notifier.SendBacktestReport(ctx, result); err != nil {
		s.log.WarnContext(ctx, "Failed to send telegram report", logger.ErrorField(err))
	}
}
