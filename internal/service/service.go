package service

import (
	"github.com/UGZ6/in-shadow-trader/config"
	"github.com/UGZ6/in-shadow-trader/internal/repository"
	"github.com/UGZ6/in-shadow-trader/pkg/cache"
	"github.com/UGZ6/in-shadow-trader/pkg/logger"
	"github.com/UGZ6/in-shadow-trader/pkg/telegram"
)

type Service struct {
	BacktestService  BacktestService
	SchedulerService SchedulerService
}

func NewService(
	cfg *config.Config,
	log *logger.Logger,
	repo *repository.Repository,
	inmemoryCache cache.Cache,
	notifier *telegram.Notifier,
) *Service {
	backtestService := NewBacktestService(cfg, log, repo, inmemoryCache, notifier)
	schedulerService := NewSchedulerService(cfg, log, backtestService, notifier)

	return &Service{
		BacktestService:  backtestService,
		SchedulerService: schedulerService,
	}
}
