package cmd

import (
	nethttp "net/http"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gopkg.in/telebot.v3"
	"gorm.io/gorm"

	"github.com/UGZ6/in-shadow-trader/config"
	"github.com/UGZ6/in-shadow-trader/pkg/cache"
	"github.com/UGZ6/in-shadow-trader/pkg/logger"
	"github.com/UGZ6/in-shadow-trader/pkg/postgres"
	"github.com/UGZ6/in-shadow-trader/pkg/telegram"
)

type AppDependency struct {
	db        *postgres.DB
	cfg       *config.Config
	log       *logger.Logger
	validator *goValidator.Validate
	echo      *echo.Echo
	cache     cache.Cache
	notifier  *telegram.Notifier
}

func NewAppDependency() (*AppDependency, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		return nil, err
	}

	// The database and the telegram bot are both optional: without them the
	// engine still backtests, it just skips persistence and notifications.
	var db *postgres.DB
	if cfg.DB.Host == "" {
		log.Info("No database configured, run persistence is disabled")
	} else if db, err = postgres.NewDB(cfg.DB, log); err != nil {
		log.Warn("Database unreachable, continuing without persistence", zap.Error(err))
		db = nil
	}

	var notifier *telegram.Notifier
	if cfg.Telegram.BotToken == "" {
		log.Info("No telegram bot token configured, notifications are disabled")
	} else {
		pref := telebot.Settings{
			Token:  cfg.Telegram.BotToken,
			Client: &nethttp.Client{Timeout: cfg.Telegram.TimeoutDuration},
			OnError: func(err error, c telebot.Context) {
				log.Error("Telegram bot error", zap.Error(err))
			},
		}
		bot, err := telebot.NewBot(pref)
		if err != nil {
			log.Error("Failed to create telegram bot", zap.Error(err))
			return nil, err
		}
		notifier, err = telegram.NewNotifier(&cfg.Telegram, log, bot)
		if err != nil {
			return nil, err
		}
	}

	return &AppDependency{
		cfg:       cfg,
		log:       log,
		validator: goValidator.New(),
		db:        db,
		echo:      echo.New(),
		cache:     cache.NewCache(cfg.Cache.DefaultExpiration, cfg.Cache.CleanupInterval),
		notifier:  notifier,
	}, nil
}

// gormDB returns the raw gorm handle, nil when no database is configured.
func (d *AppDependency) gormDB() *gorm.DB {
	if d.db == nil {
		return nil
	}
	return d.db.DB
}

func (d *AppDependency) Close() error {
	d.log.Info("Closing app dependency")
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}
