package repository

import (
	"context"
	"fmt"

	"github.com/UGZ6/in-shadow-trader/internal/dto"
	"github.com/UGZ6/in-shadow-trader/pkg/common"
)

// CandleRepository is the single ordered-bar supply: every source yields a
// slice with strictly increasing unique timestamps, routed by req.Source.
type CandleRepository interface {
	GetCandles(ctx context.Context, req dto.CandleRequest) ([]dto.Candle, error)
}

type candleRepository struct {
	binanceRepo BinanceRepository
	csvRepo     CSVRepository
	candleStore CandleStoreRepository
}

func NewCandleRepository(binanceRepo BinanceRepository, csvRepo CSVRepository, candleStore CandleStoreRepository) CandleRepository {
	return &candleRepository{
		binanceRepo: binanceRepo,
		csvRepo:     csvRepo,
		candleStore: candleStore,
	}
}

func (r *candleRepository) GetCandles(ctx context.Context, req dto.CandleRequest) ([]dto.Candle, error) {
	switch req.Source {
	case common.SOURCE_CSV:
		return r.csvRepo.GetCandles(ctx, req)
	case common.SOURCE_DB:
		if r.candleStore == nil {
			return nil, fmt.Errorf("db source requires a configured database")
		}
		return r.candleStore.GetCandles(ctx, req)
	case common.SOURCE_BINANCE, "":
		return r.binanceRepo.GetCandles(ctx, req)
	default:
		return nil, fmt.Errorf("unknown candle source %q", req.Source)
	}
}
