package repository

import (
	"context"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UGZ6/in-shadow-trader/config"
	"github.com/UGZ6/in-shadow-trader/internal/dto"
	"github.com/UGZ6/in-shadow-trader/pkg/cache"
	"github.com/UGZ6/in-shadow-trader/pkg/httpclient"
	"github.com/UGZ6/in-shadow-trader/pkg/logger"
)

// stubBinanceClient scripts responses for the klines and ticker endpoints so
// pagination can be exercised without hitting the network.
type stubBinanceClient struct {
	status  int
	klines  func(call int, query map[string]string) [][]interface{}
	price   string
	queries []map[string]string
}

func (s *stubBinanceClient) Get(_ context.Context, _ string, query map[string]string, result interface{}) (*httpclient.Response, error) {
	s.queries = append(s.queries, query)

	status := s.status
	if status == 0 {
		status = http.StatusOK
	}
	resp := &httpclient.Response{StatusCode: status, Body: []byte(`{"code":-1003,"msg":"Too many requests."}`)}
	if status != http.StatusOK {
		return resp, nil
	}

	switch out := result.(type) {
	case *[][]interface{}:
		*out = s.klines(len(s.queries)-1, query)
	case *map[string]string:
		*out = map[string]string{"price": s.price}
	}
	return resp, nil
}

func (s *stubBinanceClient) Post(_ context.Context, _ string, _ interface{}, _ interface{}) (*httpclient.Response, error) {
	return &httpclient.Response{StatusCode: http.StatusOK}, nil
}

// rawKline mirrors the positional array binance serves, with prices as
// numeric strings and timestamps as float64 the way encoding/json decodes.
func rawKline(openTime time.Time, closePrice float64) []interface{} {
	return []interface{}{
		float64(openTime.UnixMilli()),
		"100", "105", "99",
		strconv.FormatFloat(closePrice, 'f', -1, 64),
		"1200",
		float64(openTime.Add(time.Hour).UnixMilli() - 1),
		"126000", float64(42), "600", "63000", "0",
	}
}

func klinesFromCursor(_ int, query map[string]string) [][]interface{} {
	startMs, _ := strconv.ParseInt(query["startTime"], 10, 64)
	count, _ := strconv.Atoi(query["limit"])

	rows := make([][]interface{}, 0, count)
	for i := 0; i < count; i++ {
		openTime := time.UnixMilli(startMs).UTC().Add(time.Duration(i) * time.Hour)
		rows = append(rows, rawKline(openTime, 100+float64(i)))
	}
	return rows
}

func newBinanceRepoForTest(t *testing.T, stub *stubBinanceClient, chunk int) *binanceRepository {
	t.Helper()

	cfg := &config.Config{}
	cfg.Binance.MaxRequestPerMinute = 100000
	cfg.Binance.MaxKlinesPerRequest = chunk
	cfg.Binance.CacheTTL = time.Minute

	repo := NewBinanceRepository(cfg, cache.NewCache(time.Minute, time.Minute), logger.NewNop()).(*binanceRepository)
	repo.httpClient = stub
	return repo
}

func TestBinanceRepositoryPaginatesKlines(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	stub := &stubBinanceClient{klines: klinesFromCursor}
	repo := newBinanceRepoForTest(t, stub, 2)

	candles, err := repo.GetCandles(context.Background(), dto.CandleRequest{
		Symbol:    "BTCUSDT",
		Timeframe: "1h",
		Limit:     4,
		StartTime: base,
		EndTime:   base.Add(4 * time.Hour),
	})
	require.NoError(t, err)

	// Two chunks of two, with the cursor advancing past the last open time.
	require.Len(t, stub.queries, 2)
	assert.Equal(t, "BTCUSDT", stub.queries[0]["symbol"])
	assert.Equal(t, "1h", stub.queries[0]["interval"])
	assert.Equal(t, strconv.FormatInt(base.UnixMilli(), 10), stub.queries[0]["startTime"])
	assert.Equal(t, strconv.FormatInt(base.Add(2*time.Hour).UnixMilli(), 10), stub.queries[1]["startTime"])

	require.Len(t, candles, 4)
	for i, c := range candles {
		assert.Equal(t, base.Add(time.Duration(i)*time.Hour), c.Timestamp)
	}
}

func TestBinanceRepositorySkipsOverlappingKlines(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	stub := &stubBinanceClient{
		klines: func(call int, _ map[string]string) [][]interface{} {
			if call == 0 {
				return [][]interface{}{rawKline(base, 100), rawKline(base.Add(time.Hour), 101)}
			}
			// Second chunk repeats the previous open time.
			return [][]interface{}{rawKline(base.Add(time.Hour), 101), rawKline(base.Add(2*time.Hour), 102)}
		},
	}
	repo := newBinanceRepoForTest(t, stub, 2)

	candles, err := repo.GetCandles(context.Background(), dto.CandleRequest{
		Symbol:    "BTCUSDT",
		Timeframe: "1h",
		StartTime: base,
		EndTime:   base.Add(3 * time.Hour),
	})
	require.NoError(t, err)

	require.Len(t, candles, 3)
	for i := 1; i < len(candles); i++ {
		assert.True(t, candles[i].Timestamp.After(candles[i-1].Timestamp))
	}
}

func TestBinanceRepositoryCachesAssembledSeries(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	stub := &stubBinanceClient{klines: klinesFromCursor}
	repo := newBinanceRepoForTest(t, stub, 10)

	req := dto.CandleRequest{
		Symbol:    "BTCUSDT",
		Timeframe: "1h",
		Limit:     3,
		StartTime: base,
		EndTime:   base.Add(3 * time.Hour),
	}

	first, err := repo.GetCandles(context.Background(), req)
	require.NoError(t, err)
	fetched := len(stub.queries)

	second, err := repo.GetCandles(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, fetched, len(stub.queries), "second lookup should hit the cache")
	assert.Equal(t, first, second)
}

func TestBinanceRepositoryReturnsErrorOnNonOKStatus(t *testing.T) {
	stub := &stubBinanceClient{status: http.StatusTooManyRequests}
	repo := newBinanceRepoForTest(t, stub, 10)

	_, err := repo.GetCandles(context.Background(), dto.CandleRequest{Symbol: "BTCUSDT", Timeframe: "1h", Limit: 3})
	assert.ErrorContains(t, err, "status: 429")
}

func TestBinanceRepositoryErrorsOnEmptyResponse(t *testing.T) {
	stub := &stubBinanceClient{klines: func(int, map[string]string) [][]interface{} { return nil }}
	repo := newBinanceRepoForTest(t, stub, 10)

	_, err := repo.GetCandles(context.Background(), dto.CandleRequest{Symbol: "BTCUSDT", Timeframe: "1h", Limit: 3})
	assert.ErrorContains(t, err, "no klines")
}

func TestBinanceRepositoryLastPriceUsesCache(t *testing.T) {
	stub := &stubBinanceClient{price: "65123.45"}
	repo := newBinanceRepoForTest(t, stub, 10)

	price, err := repo.GetLastPrice(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", price.Symbol)
	assert.Equal(t, 65123.45, price.Price)

	_, err = repo.GetLastPrice(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Len(t, stub.queries, 1, "second lookup should hit the cache")
}
