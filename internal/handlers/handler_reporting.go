package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/points_ledger/internal/core/ports/services"
	"github.com/SscSPs/points_ledger/internal/dto"
	"github.com/SscSPs/points_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

type reportingHandler struct {
	reportingService portssvc.ReportingService
}

func newReportingHandler(rs portssvc.ReportingService) *reportingHandler {
	return &reportingHandler{reportingService: rs}
}

// registerReportingRoutes registers the market aggregates.
func registerReportingRoutes(rg *gin.RouterGroup, reportingService portssvc.ReportingService) {
	if reportingService == nil {
		return
	}
	h := newReportingHandler(reportingService)

	rg.GET("/markets/:marketID/trading-volume", h.getTradingVolume)
	rg.GET("/reports/market-capitalization", h.listMarketCapitalizations)
}

// getTradingVolume godoc
// @Summary Get the trading volume of a market
// @Description Sums the points traded in a market. start is inclusive, end exclusive; omit both for the total.
// @Tags reports
// @Produce  json
// @Param   marketID path int true "Market ID"
// @Param   start query string false "Window start (RFC 3339, inclusive)"
// @Param   end query string false "Window end (RFC 3339, exclusive)"
// @Success 200 {object} dto.TradingVolumeResponse
// @Failure 400 {object} map[string]string "Invalid market ID or window"
// @Failure 500 {object} map[string]string "Failed to compute trading volume"
// @Router /markets/{marketID}/trading-volume [get]
func (h *reportingHandler) getTradingVolume(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	marketID, ok := parseIDParam(c, "marketID")
	if !ok {
		return
	}

	var params dto.TradingVolumeParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query parameters for trading volume", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: start and end must be RFC 3339 timestamps"})
		return
	}

	volume, err := h.reportingService.TradingVolume(c.Request.Context(), marketID, params.Start, params.End)
	if err != nil {
		respondError(c, logger.With(slog.Int64("market_id", marketID)), err, "compute trading volume")
		return
	}
	c.JSON(http.StatusOK, dto.ToTradingVolumeResponse(volume))
}

// listMarketCapitalizations godoc
// @Summary Rank markets by capitalization
// @Description Lists every market points account with its current balance, highest first
// @Tags reports
// @Produce  json
// @Success 200 {object} dto.ListMarketCapitalizationsResponse
// @Failure 500 {object} map[string]string "Failed to list capitalizations"
// @Router /reports/market-capitalization [get]
func (h *reportingHandler) listMarketCapitalizations(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	caps, err := h.reportingService.MarketCapitalizations(c.Request.Context())
	if err != nil {
		respondError(c, logger, err, "list market capitalizations")
		return
	}
	c.JSON(http.StatusOK, dto.ToListMarketCapitalizationsResponse(caps))
}
