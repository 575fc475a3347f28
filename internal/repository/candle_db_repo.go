package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/UGZ6/in-shadow-trader/internal/dto"
	"github.com/UGZ6/in-shadow-trader/internal/model"
)

// CandleStoreRepository is the database-backed candle supply: downloaded
// klines are upserted so later runs can replay them via the db source.
type CandleStoreRepository interface {
	SaveCandles(ctx context.Context, symbol, timeframe string, candles []dto.Candle) error
	GetCandles(ctx context.Context, req dto.CandleRequest) ([]dto.Candle, error)
}

type candleStoreRepository struct {
	db *gorm.DB
}

func NewCandleStoreRepository(db *gorm.DB) CandleStoreRepository {
	return &candleStoreRepository{db: db}
}

func (r *candleStoreRepository) SaveCandles(ctx context.Context, symbol, timeframe string, candles []dto.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	rows := make([]model.Candle, 0, len(candles))
	for _, c := range candles {
		rows = append(rows, model.Candle{
			Symbol:    symbol,
			Timeframe: timeframe,
			Timestamp: c.Timestamp,
			Open:      c.Open,
			High:      c.High,
			Low:       c.Low,
			Close:     c.Close,
			Volume:    c.Volume,
		})
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "symbol"}, {Name: "timeframe"}, {Name: "timestamp"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"open", "high", "low", "close", "volume",
		}),
	}).CreateInBatches(rows, 500).Error
}

func (r *candleStoreRepository) GetCandles(ctx context.Context, req dto.CandleRequest) ([]dto.Candle, error) {
	query := r.db.WithContext(ctx).Model(&model.Candle{}).
		Where("symbol = ? AND timeframe = ?", req.Symbol, req.Timeframe)

	if !req.StartTime.IsZero() {
		query = query.Where("timestamp >= ?", req.StartTime)
	}
	if !req.EndTime.IsZero() {
		query = query.Where("timestamp <= ?", req.EndTime)
	}

	var rows []model.Candle
	if req.Limit > 0 {
		// Most recent first to honor the limit, flipped back below.
		query = query.Order("timestamp DESC").Limit(req.Limit)
	} else {
		query = query.Order("timestamp ASC")
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load candles from store: %w", err)
	}
	if req.Limit > 0 {
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("no stored candles for %s %s", req.Symbol, req.Timeframe)
	}

	candles := make([]dto.Candle, 0, len(rows))
	for _, row := range rows {
		candles = append(candles, dto.Candle{
			Timestamp: row.Timestamp.UTC(),
			Open:      row.Open,
			High:      row.High,
			Low:       row.Low,
			Close:     row.Close,
			Volume:    row.Volume,
		})
	}
	return candles, nil
}
