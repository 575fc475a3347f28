package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/UGZ6/in-shadow-trader/config"
	"github.com/UGZ6/in-shadow-trader/internal/dto"
	"github.com/UGZ6/in-shadow-trader/pkg/logger"
	"github.com/UGZ6/in-shadow-trader/pkg/telegram"
	"github.com/UGZ6/in-shadow-trader/pkg/utils"
)

const defaultRunTimeout = 5 * time.Minute

// SchedulerService runs the configured recurring backtests.
type SchedulerService interface {
	Run(ctx context.Context)
	Execute(ctx context.Context) error
}

type scheduledEntry struct {
	entry    config.SchedulerEntry
	schedule cron.Schedule
	nextRun  time.Time
}

type schedulerService struct {
	cfg        *config.Config
	log        *logger.Logger
	backtest   BacktestService
	notifier   *telegram.Notifier
	cronParser cron.Parser
	entries    []*scheduledEntry
	semaphore  chan struct{}
	wg         sync.WaitGroup
}

func NewSchedulerService(
	cfg *config.Config,
	log *logger.Logger,
	backtest BacktestService,
	notifier *telegram.Notifier,
) *schedulerService {
	maxConcurrency := cfg.Scheduler.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}

	return &schedulerService{
		cfg:        cfg,
		log:        log,
		backtest:   backtest,
		notifier:   notifier,
		cronParser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		semaphore:  make(chan struct{}, maxConcurrency),
	}
}

// Run blocks until ctx is done, dispatching entries as their cron schedules
// come due. Jobs launched near shutdown finish on their own timeout; Run
// waits for them before returning.
func (s *schedulerService) Run(ctx context.Context) {
	s.entries = s.loadEntries(time.Now())
	if len(s.entries) == 0 {
		s.log.Warn("Scheduler enabled but no valid entries are configured")
		return
	}

	s.log.Info("Scheduler started",
		logger.IntField("entries", len(s.entries)),
		logger.IntField("max_concurrency", cap(s.semaphore)),
	)

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Scheduler stopping, waiting for running jobs")
			s.wg.Wait()
			s.log.Info("Scheduler stopped")
			return
		case now := <-ticker.C:
			s.dispatchDue(ctx, now)
		}
	}
}

// Execute runs every configured entry once, bounded by the same concurrency
// limit as the ticker loop.
func (s *schedulerService) Execute(ctx context.Context) error {
	entries := s.cfg.Scheduler.Entries
	if len(entries) == 0 {
		return fmt.Errorf("no scheduler entries configured")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cap(s.semaphore))

	for _, entry := range entries {
		entry := entry
		g.Go(func() error {
			return s.runEntry(gctx, entry)
		})
	}
	return g.Wait()
}

func (s *schedulerService) loadEntries(now time.Time) []*scheduledEntry {
	var entries []*scheduledEntry
	for _, entry := range s.cfg.Scheduler.Entries {
		schedule, err := s.cronParser.Parse(entry.CronExpression)
		if err != nil {
			s.log.Error("Invalid cron expression, entry skipped",
				logger.ErrorField(err),
				logger.StringField("entry", entry.Name),
				logger.StringField("cron", entry.CronExpression),
			)
			continue
		}
		entries = append(entries, &scheduledEntry{
			entry:    entry,
			schedule: schedule,
			nextRun:  schedule.Next(now),
		})
	}
	return entries
}

func (s *schedulerService) dispatchDue(ctx context.Context, now time.Time) {
	for _, scheduled := range s.entries {
		if !utils.ShouldContinue(ctx, s.log) {
			return
		}
		if now.Before(scheduled.nextRun) {
			continue
		}
		scheduled.nextRun = scheduled.schedule.Next(now)
		s.launch(scheduled.entry)
	}
}

// launch runs one entry detached from the ticker loop so a slow exchange
// fetch cannot hold back other due entries.
func (s *schedulerService) launch(entry config.SchedulerEntry) {
	s.semaphore <- struct{}{}
	s.wg.Add(1)
	utils.GoSafe(func() {
		defer func() {
			<-s.semaphore
			s.wg.Done()
		}()

		runCtx, cancel := context.WithTimeout(context.Background(), s.runTimeout())
		defer cancel()

		if err := s.runEntry(runCtx, entry); err != nil {
			s.log.ErrorContext(runCtx, "Scheduled backtest failed",
				logger.ErrorField(err),
				logger.StringField("entry", entry.Name),
			)
			s.alert(runCtx, entry.Name, err)
		}
	})
}

func (s *schedulerService) runEntry(ctx context.Context, entry config.SchedulerEntry) error {
	s.log.InfoContext(ctx, "Running scheduled backtest",
		logger.StringField("entry", entry.Name),
		logger.StringField("symbol", entry.Symbol),
		logger.StringField("timeframe", entry.Timeframe),
	)

	result, err := s.backtest.Run(ctx, dto.BacktestRequest{
		Symbol:    entry.Symbol,
		Timeframe: entry.Timeframe,
		Source:    entry.Source,
		Limit:     entry.Limit,
		Notify:    s.notifier.Enabled(),
	})
	if err != nil {
		return fmt.Errorf("entry %s: %w", entry.Name, err)
	}

	s.log.InfoContext(ctx, "Scheduled backtest completed",
		logger.StringField("entry", entry.Name),
		logger.IntField("trades", result.Summary.TotalTrades),
		logger.Float64Field("return_pct", result.Summary.TotalReturnPercent),
	)
	return nil
}

func (s *schedulerService) runTimeout() time.Duration {
	if s.cfg.Scheduler.TimeoutDuration > 0 {
		return s.cfg.Scheduler.TimeoutDuration
	}
	return defaultRunTimeout
}

func (s *schedulerService) alert(ctx context.Context, name string, cause error) {
	if !s.notifier.Enabled() {
		return
	}
	if err := s.notifier.SendErrorAlert(ctx, time.Now().UTC(), name, cause); err != nil {
		s.log.WarnContext(ctx, "Failed to send failure alert", logger.ErrorField(err))
	}
}
