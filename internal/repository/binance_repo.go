package repository

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/UGZ6/in-shadow-trader/config"
	"github.com/UGZ6/in-shadow-trader/internal/dto"
	"github.com/UGZ6/in-shadow-trader/pkg/cache"
	"github.com/UGZ6/in-shadow-trader/pkg/common"
	"github.com/UGZ6/in-shadow-trader/pkg/httpclient"
	"github.com/UGZ6/in-shadow-trader/pkg/logger"
)

const (
	defaultKlineLimit = 500
	maxKlinesPerChunk = 1000
	lastPriceCacheTTL = 5 * time.Second
)

type BinanceRepository interface {
	GetCandles(ctx context.Context, req dto.CandleRequest) ([]dto.Candle, error)
	GetKlines(ctx context.Context, symbol, interval string, limit int, startTime, endTime int64) ([]dto.BinanceKlines, error)
	GetLastPrice(ctx context.Context, symbol string) (*dto.BinancePrice, error)
}

type binanceRepository struct {
	httpClient     httpclient.Client
	cfg            *config.Config
	logger         *logger.Logger
	cache          cache.Cache
	requestLimiter *rate.Limiter
}

func NewBinanceRepository(cfg *config.Config, inmemoryCache cache.Cache, log *logger.Logger) BinanceRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.Binance.MaxRequestPerMinute)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)

	return &binanceRepository{
		httpClient:     httpclient.New(cfg.Binance.BaseURL, cfg.Binance.Timeout),
		cfg:            cfg,
		logger:         log,
		cache:          inmemoryCache,
		requestLimiter: requestLimiter,
	}
}

// GetCandles assembles an ordered candle series from the klines endpoint,
// paginating by open-time cursor so ranges longer than one request allows
// arrive as a single strictly increasing slice. Assembled series are cached
// per symbol/timeframe/range.
func (r *binanceRepository) GetCandles(ctx context.Context, req dto.CandleRequest) ([]dto.Candle, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultKlineLimit
	}

	step := time.Duration(dto.TimeframeMinutes(req.Timeframe)) * time.Minute
	end := req.EndTime
	if end.IsZero() {
		end = time.Now().UTC()
	}
	start := req.StartTime
	if start.IsZero() {
		start = end.Add(-time.Duration(limit) * step)
	} else if req.Limit <= 0 {
		// An explicit range without a limit means the whole range.
		limit = 0
	}

	key := fmt.Sprintf(common.KEY_KLINES, req.Symbol, req.Timeframe, limit, start.UnixMilli(), end.UnixMilli())
	if cached, found := cache.GetTyped[[]dto.Candle](r.cache, key); found {
		return cached, nil
	}

	chunk := r.cfg.Binance.MaxKlinesPerRequest
	if chunk <= 0 || chunk > maxKlinesPerChunk {
		chunk = maxKlinesPerChunk
	}

	var candles []dto.Candle
	cursor := start
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		batch := chunk
		if limit > 0 {
			if remaining := limit - len(candles); remaining < batch {
				batch = remaining
			}
		}
		if batch <= 0 {
			break
		}

		klines, err := r.GetKlines(ctx, req.Symbol, req.Timeframe, batch, cursor.UnixMilli(), end.UnixMilli())
		if err != nil {
			return nil, err
		}
		if len(klines) == 0 {
			break
		}

		for _, k := range klines {
			candle := k.ToCandle()
			if len(candles) > 0 && !candle.Timestamp.After(candles[len(candles)-1].Timestamp) {
				continue
			}
			candles = append(candles, candle)
		}

		if len(klines) < batch {
			break
		}
		cursor = klines[len(klines)-1].ToCandle().Timestamp.Add(step)
		if !cursor.Before(end) {
			break
		}
	}

	if len(candles) == 0 {
		return nil, fmt.Errorf("binance returned no klines for %s %s", req.Symbol, req.Timeframe)
	}
	if limit > 0 && len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}

	r.logger.DebugContext(ctx, "Fetched klines from binance",
		logger.StringField("symbol", req.Symbol),
		logger.StringField("timeframe", req.Timeframe),
		logger.IntField("candles", len(candles)),
	)

	if r.cache != nil {
		r.cache.Set(key, candles, r.cfg.Binance.CacheTTL)
	}
	return candles, nil
}

// GetKlines performs one /api/v3/klines call. Binance serves each kline as a
// positional array with numeric strings for the prices.
func (r *binanceRepository) GetKlines(ctx context.Context, symbol, interval string, limit int, startTime, endTime int64) ([]dto.BinanceKlines, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := "/api/v3/klines"
	queryParams := map[string]string{
		"symbol":    symbol,
		"interval":  interval,
		"limit":     strconv.Itoa(limit),
		"startTime": strconv.FormatInt(startTime, 10),
		"endTime":   strconv.FormatInt(endTime, 10),
	}

	var klines [][]interface{}
	resp, err := r.httpClient.Get(ctx, endpoint, queryParams, &klines)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch klines from binance: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		r.logger.Error("Binance API returned Non-OK status for klines",
			logger.IntField("status_code", resp.StatusCode),
			logger.StringField("body", string(resp.Body)))
		return nil, fmt.Errorf("binance api returned status: %d", resp.StatusCode)
	}

	var result []dto.BinanceKlines
	for _, k := range klines {
		if len(k) < 11 {
			continue
		}
		openTime, _ := k[0].(float64)
		open, _ := parseKlineFloat(k[1])
		high, _ := parseKlineFloat(k[2])
		low, _ := parseKlineFloat(k[3])
		closePrice, _ := parseKlineFloat(k[4])
		volume, _ := parseKlineFloat(k[5])
		closeTime, _ := k[6].(float64)
		quoteAssetVolume, _ := parseKlineFloat(k[7])
		trades, _ := k[8].(float64)
		takerBuyBaseAssetVolume, _ := parseKlineFloat(k[9])
		takerBuyQuoteAssetVolume, _ := parseKlineFloat(k[10])

		result = append(result, dto.BinanceKlines{
			OpenTime:                 int64(openTime),
			Open:                     open,
			High:                     high,
			Low:                      low,
			Close:                    closePrice,
			Volume:                   volume,
			CloseTime:                int64(closeTime),
			QuoteAssetVolume:         quoteAssetVolume,
			NumberOfTrades:           int64(trades),
			TakerBuyBaseAssetVolume:  takerBuyBaseAssetVolume,
			TakerBuyQuoteAssetVolume: takerBuyQuoteAssetVolume,
		})
	}

	return result, nil
}

func parseKlineFloat(v interface{}) (float64, error) {
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("kline field is not a string: %T", v)
	}
	return strconv.ParseFloat(s, 64)
}

func (r *binanceRepository) GetLastPrice(ctx context.Context, symbol string) (*dto.BinancePrice, error) {
	key := fmt.Sprintf(common.KEY_LAST_PRICE, symbol)
	if cached, found := cache.GetTyped[*dto.BinancePrice](r.cache, key); found {
		return cached, nil
	}

	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := "/api/v3/ticker/price"
	queryParams := map[string]string{
		"symbol": symbol,
	}

	var respData map[string]string
	resp, err := r.httpClient.Get(ctx, endpoint, queryParams, &respData)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch last price from binance: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		r.logger.Error("Binance API returned Non-OK status for price",
			logger.IntField("status_code", resp.StatusCode),
			logger.StringField("body", string(resp.Body)))
		return nil, fmt.Errorf("binance api returned status: %d", resp.StatusCode)
	}

	price, err := strconv.ParseFloat(respData["price"], 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse price from binance: %w", err)
	}

	binancePrice := &dto.BinancePrice{
		Symbol: symbol,
		Price:  price,
	}
	if r.cache != nil {
		r.cache.Set(key, binancePrice, lastPriceCacheTTL)
	}
	return binancePrice, nil
}
