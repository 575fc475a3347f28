package repository

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/UGZ6/in-shadow-trader/internal/dto"
	"github.com/UGZ6/in-shadow-trader/pkg/logger"
)

// CSVRepository reads candle series from files with
// timestamp,open,high,low,close,volume rows. A header row is tolerated;
// timestamps may be RFC3339 or unix milliseconds.
type CSVRepository interface {
	GetCandles(ctx context.Context, req dto.CandleRequest) ([]dto.Candle, error)
}

type csvRepository struct {
	log *logger.Logger
}

func NewCSVRepository(log *logger.Logger) CSVRepository {
	return &csvRepository{log: log}
}

func (r *csvRepository) GetCandles(ctx context.Context, req dto.CandleRequest) ([]dto.Candle, error) {
	if req.CSVPath == "" {
		return nil, fmt.Errorf("csv source requires a file path")
	}

	file, err := os.Open(req.CSVPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open candle file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	var candles []dto.Candle
	line := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", req.CSVPath, err)
		}
		line++

		candle, err := parseCandleRecord(record)
		if err != nil {
			if line == 1 {
				// Header row.
				continue
			}
			return nil, fmt.Errorf("%s line %d: %w", req.CSVPath, line, err)
		}

		if len(candles) > 0 && !candle.Timestamp.After(candles[len(candles)-1].Timestamp) {
			return nil, fmt.Errorf("%s line %d: timestamp %s does not advance past %s",
				req.CSVPath, line, candle.Timestamp.Format(time.RFC3339),
				candles[len(candles)-1].Timestamp.Format(time.RFC3339))
		}
		candles = append(candles, candle)
	}

	candles = filterCandleRange(candles, req.StartTime, req.EndTime)
	if req.Limit > 0 && len(candles) > req.Limit {
		candles = candles[len(candles)-req.Limit:]
	}

	if len(candles) == 0 {
		return nil, fmt.Errorf("no candles in %s for the requested range", req.CSVPath)
	}

	r.log.DebugContext(ctx, "Loaded candles from file",
		logger.StringField("path", req.CSVPath),
		logger.IntField("candles", len(candles)),
	)
	return candles, nil
}

func parseCandleRecord(record []string) (dto.Candle, error) {
	if len(record) < 6 {
		return dto.Candle{}, fmt.Errorf("expected 6 columns, got %d", len(record))
	}

	ts, err := parseCandleTimestamp(record[0])
	if err != nil {
		return dto.Candle{}, err
	}

	values := make([]float64, 5)
	for i, raw := range record[1:6] {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return dto.Candle{}, fmt.Errorf("invalid number %q: %w", raw, err)
		}
		values[i] = v
	}

	return dto.Candle{
		Timestamp: ts,
		Open:      values[0],
		High:      values[1],
		Low:       values[2],
		Close:     values[3],
		Volume:    values[4],
	}, nil
}

func parseCandleTimestamp(raw string) (time.Time, error) {
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q: want RFC3339 or unix milliseconds", raw)
}

func filterCandleRange(candles []dto.Candle, start, end time.Time) []dto.Candle {
	if start.IsZero() && end.IsZero() {
		return candles
	}
	filtered := candles[:0:0]
	for _, c := range candles {
		if !start.IsZero() && c.Timestamp.Before(start) {
			continue
		}
		if !end.IsZero() && c.Timestamp.After(end) {
			continue
		}
		filtered = append(filtered, c)
	}
	return filtered
}
