package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/UGZ6/in-shadow-trader/internal/dto"
	"github.com/UGZ6/in-shadow-trader/internal/model"
	"github.com/UGZ6/in-shadow-trader/internal/repository"
	"github.com/UGZ6/in-shadow-trader/internal/service"
)

func (h *HttpAPIHandler) SetupBacktest(base *echo.Group) {
	backtestGroup := base.Group("/backtest")
	backtestGroup.POST("", h.runBacktest)
	backtestGroup.GET("", h.listBacktestRuns)
	backtestGroup.GET("/:id", h.getBacktestRun)
}

func (h *HttpAPIHandler) runBacktest(c echo.Context) error {
	ctx := c.Request().Context()

	req := new(dto.BacktestRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid request body"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}

	result, err := h.service.BacktestService.Run(ctx, *req)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.NewInternalServerErrorResponse(err.Error()))
	}

	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Backtest completed", result))
}

func (h *HttpAPIHandler) listBacktestRuns(c echo.Context) error {
	ctx := c.Request().Context()

	param := new(model.GetBacktestRunParam)
	if err := c.Bind(param); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid query parameters"))
	}
	if err := h.validator.Struct(param); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}

	runs, err := h.service.BacktestService.ListRuns(ctx, *param)
	if err != nil {
		if errors.Is(err, service.ErrPersistenceDisabled) {
			return c.JSON(http.StatusServiceUnavailable, dto.NewBaseResponse(http.StatusServiceUnavailable, err.Error(), nil))
		}
		return c.JSON(http.StatusInternalServerError, dto.NewInternalServerErrorResponse(err.Error()))
	}

	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Backtest runs", runs))
}

func (h *HttpAPIHandler) getBacktestRun(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid run id"))
	}

	run, err := h.service.BacktestService.GetRun(ctx, uint(id))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRunNotFound):
			return c.JSON(http.StatusNotFound, dto.NewNotFoundResponse("backtest run not found"))
		case errors.Is(err, service.ErrPersistenceDisabled):
			return c.JSON(http.StatusServiceUnavailable, dto.NewBaseResponse(http.StatusServiceUnavailable, err.Error(), nil))
		default:
			return c.JSON(http.StatusInternalServerError, dto.NewInternalServerErrorResponse(err.Error()))
		}
	}

	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Backtest run", run))
}
