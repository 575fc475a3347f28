package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/UGZ6/in-shadow-trader/internal/model"
	"github.com/UGZ6/in-shadow-trader/pkg/utils"
)

const defaultRunListLimit = 20

var ErrRunNotFound = errors.New("backtest run not found")

type BacktestRunRepository interface {
	Create(ctx context.Context, run *model.BacktestRun) error
	FindByID(ctx context.Context, id uint) (*model.BacktestRun, error)
	FindAll(ctx context.Context, param model.GetBacktestRunParam) ([]model.BacktestRun, error)
}

type backtestRunRepository struct {
	db *gorm.DB
}

func NewBacktestRunRepository(db *gorm.DB) BacktestRunRepository {
	return &backtestRunRepository{db: db}
}

func (r *backtestRunRepository) Create(ctx context.Context, run *model.BacktestRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *backtestRunRepository) FindByID(ctx context.Context, id uint) (*model.BacktestRun, error) {
	var run model.BacktestRun
	err := r.db.WithContext(ctx).First(&run, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: id %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *backtestRunRepository) FindAll(ctx context.Context, param model.GetBacktestRunParam) ([]model.BacktestRun, error) {
	opts := []utils.DBOption{
		utils.WithOrder("created_at DESC"),
	}
	if param.Symbol != "" {
		opts = append(opts, utils.WithWhere("symbol = ?", param.Symbol))
	}
	if param.Timeframe != "" {
		opts = append(opts, utils.WithWhere("timeframe = ?", param.Timeframe))
	}
	if param.Source != "" {
		opts = append(opts, utils.WithWhere("source = ?", param.Source))
	}

	limit := param.Limit
	if limit <= 0 {
		limit = defaultRunListLimit
	}
	opts = append(opts, utils.WithLimit(limit))

	var runs []model.BacktestRun
	query := utils.ApplyOptions(r.db.WithContext(ctx).Model(&model.BacktestRun{}), opts...)
	// The trade log can dominate row size; listings only need the headline
	// columns and summary.
	if err := query.Omit("trades").Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
