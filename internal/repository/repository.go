package repository

import (
	"gorm.io/gorm"

	"github.com/UGZ6/in-shadow-trader/config"
	"github.com/UGZ6/in-shadow-trader/pkg/cache"
	"github.com/UGZ6/in-shadow-trader/pkg/logger"
)

// Repository bundles every data supply the services consume. The db-backed
// repositories stay nil when no database is configured; callers treat them
// as optional persistence.
type Repository struct {
	CandleRepo      CandleRepository
	BinanceRepo     BinanceRepository
	CSVRepo         CSVRepository
	CandleStoreRepo CandleStoreRepository
	BacktestRunRepo BacktestRunRepository
	GeminiAIRepo    AIRepository
}

func NewRepository(cfg *config.Config, inmemoryCache cache.Cache, db *gorm.DB, log *logger.Logger) (*Repository, error) {
	binanceRepo := NewBinanceRepository(cfg, inmemoryCache, log)
	csvRepo := NewCSVRepository(log)

	var candleStore CandleStoreRepository
	var runRepo BacktestRunRepository
	if db != nil {
		candleStore = NewCandleStoreRepository(db)
		runRepo = NewBacktestRunRepository(db)
	}

	var aiRepo AIRepository
	if cfg.Gemini.APIKey != "" {
		var err error
		aiRepo, err = NewGeminiAIRepository(cfg, log)
		if err != nil {
			return nil, err
		}
	}

	return &Repository{
		CandleRepo:      NewCandleRepository(binanceRepo, csvRepo, candleStore),
		BinanceRepo:     binanceRepo,
		CSVRepo:         csvRepo,
		CandleStoreRepo: candleStore,
		BacktestRunRepo: runRepo,
		GeminiAIRepo:    aiRepo,
	}, nil
}
