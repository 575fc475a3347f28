package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UGZ6/in-shadow-trader/config"
	"github.com/UGZ6/in-shadow-trader/internal/dto"
	"github.com/UGZ6/in-shadow-trader/internal/model"
	"github.com/UGZ6/in-shadow-trader/internal/repository"
	"github.com/UGZ6/in-shadow-trader/internal/service"
)

type fakeBacktestService struct {
	runErr  error
	getErr  error
	listErr error
	lastReq *dto.BacktestRequest
}

func (f *fakeBacktestService) Run(_ context.Context, req dto.BacktestRequest) (*dto.RunResult, error) {
	f.lastReq = &req
	if f.runErr != nil {
		return nil, f.runErr
	}
	return &dto.RunResult{
		Summary:    dto.SummaryMetrics{Symbol: req.Symbol, Timeframe: req.Timeframe},
		DataPoints: 10,
	}, nil
}

func (f *fakeBacktestService) Snapshot(_ context.Context, req dto.SnapshotRequest) (*dto.StrategySnapshot, error) {
	return &dto.StrategySnapshot{Symbol: req.Symbol, Timeframe: req.Timeframe}, nil
}

func (f *fakeBacktestService) GetRun(_ context.Context, id uint) (*model.BacktestRun, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &model.BacktestRun{ID: id, Symbol: "BTCUSDT"}, nil
}

func (f *fakeBacktestService) ListRuns(_ context.Context, _ model.GetBacktestRunParam) ([]model.BacktestRun, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return []model.BacktestRun{{ID: 1, Symbol: "BTCUSDT"}}, nil
}

type fakeSchedulerService struct {
	execErr error
}

func (f *fakeSchedulerService) Run(_ context.Context) {}

func (f *fakeSchedulerService) Execute(_ context.Context) error {
	return f.execErr
}

func newTestServer(backtest service.BacktestService, scheduler service.SchedulerService) *echo.Echo {
	e := echo.New()
	cfg := &config.Config{
		API: config.API{
			RateLimitPerSecond: 100,
			RateLimitBurst:     100,
			RateLimitExpiresIn: time.Minute,
		},
	}
	handler := NewHttpAPIHandler(e, goValidator.New(), cfg, &service.Service{
		BacktestService:  backtest,
		SchedulerService: scheduler,
	})
	handler.SetupRoutes()
	return e
}

func doRequest(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) (dto.BaseResponse, json.RawMessage) {
	t.Helper()
	var envelope struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return dto.BaseResponse{Code: envelope.Code, Message: envelope.Message}, envelope.Data
}

func TestHealthEndpoint(t *testing.T) {
	e := newTestServer(&fakeBacktestService{}, &fakeSchedulerService{})
	rec := doRequest(e, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRunBacktestEndpoint(t *testing.T) {
	fake := &fakeBacktestService{}
	e := newTestServer(fake, &fakeSchedulerService{})

	t.Run("accepts a valid request", func(t *testing.T) {
		rec := doRequest(e, http.MethodPost, "/api/backtest",
			`{"symbol":"BTCUSDT","timeframe":"1h","limit":500}`)
		require.Equal(t, http.StatusOK, rec.Code)

		_, data := decodeEnvelope(t, rec)
		var result dto.RunResult
		require.NoError(t, json.Unmarshal(data, &result))
		assert.Equal(t, "BTCUSDT", result.Summary.Symbol)
		assert.Equal(t, 500, fake.lastReq.Limit)
	})

	t.Run("rejects a missing symbol", func(t *testing.T) {
		rec := doRequest(e, http.MethodPost, "/api/backtest", `{"timeframe":"1h"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects an unknown source", func(t *testing.T) {
		rec := doRequest(e, http.MethodPost, "/api/backtest",
			`{"symbol":"BTCUSDT","timeframe":"1h","source":"ftp"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("maps run failures to 500", func(t *testing.T) {
		failing := &fakeBacktestService{runErr: assert.AnError}
		e := newTestServer(failing, &fakeSchedulerService{})
		rec := doRequest(e, http.MethodPost, "/api/backtest",
			`{"symbol":"BTCUSDT","timeframe":"1h"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestGetBacktestRunEndpoint(t *testing.T) {
	t.Run("returns a stored run", func(t *testing.T) {
		e := newTestServer(&fakeBacktestService{}, &fakeSchedulerService{})
		rec := doRequest(e, http.MethodGet, "/api/backtest/7", "")
		require.Equal(t, http.StatusOK, rec.Code)

		_, data := decodeEnvelope(t, rec)
		var run model.BacktestRun
		require.NoError(t, json.Unmarshal(data, &run))
		assert.Equal(t, uint(7), run.ID)
	})

	t.Run("rejects a non-numeric id", func(t *testing.T) {
		e := newTestServer(&fakeBacktestService{}, &fakeSchedulerService{})
		rec := doRequest(e, http.MethodGet, "/api/backtest/abc", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("maps a missing run to 404", func(t *testing.T) {
		e := newTestServer(&fakeBacktestService{getErr: repository.ErrRunNotFound}, &fakeSchedulerService{})
		rec := doRequest(e, http.MethodGet, "/api/backtest/7", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("maps disabled persistence to 503", func(t *testing.T) {
		e := newTestServer(&fakeBacktestService{getErr: service.ErrPersistenceDisabled}, &fakeSchedulerService{})
		rec := doRequest(e, http.MethodGet, "/api/backtest/7", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestListBacktestRunsEndpoint(t *testing.T) {
	t.Run("lists stored runs", func(t *testing.T) {
		e := newTestServer(&fakeBacktestService{}, &fakeSchedulerService{})
		rec := doRequest(e, http.MethodGet, "/api/backtest?symbol=BTCUSDT&limit=10", "")
		require.Equal(t, http.StatusOK, rec.Code)

		_, data := decodeEnvelope(t, rec)
		var runs []model.BacktestRun
		require.NoError(t, json.Unmarshal(data, &runs))
		assert.Len(t, runs, 1)
	})

	t.Run("maps disabled persistence to 503", func(t *testing.T) {
		e := newTestServer(&fakeBacktestService{listErr: service.ErrPersistenceDisabled}, &fakeSchedulerService{})
		rec := doRequest(e, http.MethodGet, "/api/backtest", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestStrategySnapshotEndpoint(t *testing.T) {
	e := newTestServer(&fakeBacktestService{}, &fakeSchedulerService{})

	t.Run("returns the snapshot", func(t *testing.T) {
		rec := doRequest(e, http.MethodGet, "/api/strategy/snapshot?symbol=BTCUSDT&timeframe=1h", "")
		require.Equal(t, http.StatusOK, rec.Code)

		_, data := decodeEnvelope(t, rec)
		var snapshot dto.StrategySnapshot
		require.NoError(t, json.Unmarshal(data, &snapshot))
		assert.Equal(t, "BTCUSDT", snapshot.Symbol)
	})

	t.Run("requires symbol and timeframe", func(t *testing.T) {
		rec := doRequest(e, http.MethodGet, "/api/strategy/snapshot", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRunJobsEndpoint(t *testing.T) {
	t.Run("runs the configured entries", func(t *testing.T) {
		e := newTestServer(&fakeBacktestService{}, &fakeSchedulerService{})
		rec := doRequest(e, http.MethodPost, "/api/v1/jobs/run", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("propagates execution failures", func(t *testing.T) {
		e := newTestServer(&fakeBacktestService{}, &fakeSchedulerService{execErr: assert.AnError})
		rec := doRequest(e, http.MethodPost, "/api/v1/jobs/run", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
