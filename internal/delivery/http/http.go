package http

import (
	"net/http"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/UGZ6/in-shadow-trader/config"
	"github.com/UGZ6/in-shadow-trader/internal/dto"
	"github.com/UGZ6/in-shadow-trader/internal/service"
	"github.com/UGZ6/in-shadow-trader/pkg/middleware"
)

type HttpAPIHandler struct {
	echo      *echo.Echo
	validator *goValidator.Validate
	cfg       *config.Config
	service   *service.Service
}

func NewHttpAPIHandler(echo *echo.Echo, validator *goValidator.Validate, cfg *config.Config, service *service.Service) *HttpAPIHandler {
	return &HttpAPIHandler{
		echo:      echo,
		validator: validator,
		cfg:       cfg,
		service:   service,
	}
}

func (h *HttpAPIHandler) SetupRoutes() {
	h.echo.Use(middleware.NewRateLimiterMiddleware(&h.cfg.API))

	base := h.echo.Group("/api")
	base.GET("/health", h.health)
	h.SetupBacktest(base)
	h.SetupSnapshot(base)
	h.SetupJobs(base)
}

func (h *HttpAPIHandler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("ok", nil))
}
