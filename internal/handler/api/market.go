package api

import (
	"context"
	"errors"

	"github.com/labstack/echo/v4"

	"NepsePulse/internal/domain/models"
	"NepsePulse/internal/domain/repository"
	xhttp "NepsePulse/pkg/http"
	applogger "NepsePulse/pkg/logger"
	"NepsePulse/pkg/util"
)

// MarketHandler exposes the market data service over HTTP.
type MarketHandler struct {
	logger *applogger.Logger
	svc    repository.MarketData
}

func NewMarketHandler(logger *applogger.Logger, svc repository.MarketData) *MarketHandler {
	return &MarketHandler{logger: logger, svc: svc}
}

func (h *MarketHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/market/live", h.Live)
	g.GET("/market/summary", h.Summary)
	g.GET("/market/top-gainers", h.TopGainers)
	g.GET("/market/top-losers", h.TopLosers)
	g.GET("/stock/:symbol", h.StockDetail)
}

func (h *MarketHandler) Live(c echo.Context) error {
	res, err := h.svc.Live(c.Request().Context())
	if err != nil {
		h.logger.Error("live request failed", applogger.Error(err))
		return xhttp.AppErrorResponse(c, asAppError(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=5")
	return xhttp.SuccessResponse(c, res)
}

func (h *MarketHandler) Summary(c echo.Context) error {
	res, err := h.svc.Summary(c.Request().Context())
	if err != nil {
		h.logger.Error("summary request failed", applogger.Error(err))
		return xhttp.AppErrorResponse(c, asAppError(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=30")
	return xhttp.SuccessResponse(c, res)
}

func (h *MarketHandler) StockDetail(c echo.Context) error {
	symbol := util.NormalizeSymbol(c.Param("symbol"))
	if !util.ValidSymbol(symbol) {
		return xhttp.AppErrorResponse(c,
			xhttp.BadRequestError("symbol must be 2 to 6 uppercase letters").WithParam("symbol", c.Param("symbol")))
	}

	res, err := h.svc.StockDetail(c.Request().Context(), symbol)
	if err != nil {
		if !errors.Is(err, models.ErrSymbolNotFound) {
			h.logger.Error("stock detail request failed",
				applogger.String("symbol", symbol), applogger.Error(err))
		}
		return xhttp.AppErrorResponse(c, asAppError(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=60")
	return xhttp.SuccessResponse(c, res)
}

func (h *MarketHandler) TopGainers(c echo.Context) error {
	return h.ranked(c, "gainers", h.svc.TopGainers)
}

func (h *MarketHandler) TopLosers(c echo.Context) error {
	return h.ranked(c, "losers", h.svc.TopLosers)
}

func (h *MarketHandler) ranked(c echo.Context, name string, list func(ctx context.Context, limit int) (models.RankedResult, error)) error {
	req := &models.RankedRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := list(c.Request().Context(), req.Limit)
	if err != nil {
		h.logger.Error("ranked request failed", applogger.String("list", name), applogger.Error(err))
		return xhttp.AppErrorResponse(c, asAppError(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=5")
	return xhttp.SuccessResponse(c, res)
}

func asAppError(err error) *xhttp.AppError {
	switch {
	case errors.Is(err, models.ErrSymbolNotFound):
		return xhttp.NotFoundError("symbol not found").WithError(err)
	case errors.Is(err, models.ErrUpstreamTimeout):
		return xhttp.GatewayTimeoutError("upstream timed out").WithError(err)
	case errors.Is(err, models.ErrUpstreamUnavailable),
		errors.Is(err, models.ErrUpstreamMalformed),
		errors.Is(err, models.ErrNormalization):
		return xhttp.BadGatewayError("market data unavailable").WithError(err)
	default:
		return xhttp.InternalError("unexpected error").WithError(err)
	}
}
