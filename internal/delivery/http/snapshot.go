package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/UGZ6/in-shadow-trader/internal/dto"
)

func (h *HttpAPIHandler) SetupSnapshot(base *echo.Group) {
	strategyGroup := base.Group("/strategy")
	strategyGroup.GET("/snapshot", h.getStrategySnapshot)
}

func (h *HttpAPIHandler) getStrategySnapshot(c echo.Context) error {
	ctx := c.Request().Context()

	req := new(dto.SnapshotRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid query parameters"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}

	snapshot, err := h.service.BacktestService.Snapshot(ctx, *req)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.NewInternalServerErrorResponse(err.Error()))
	}

	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Strategy snapshot", snapshot))
}
