package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/points_ledger/internal/core/ports/services"
	"github.com/SscSPs/points_ledger/internal/dto"
	"github.com/SscSPs/points_ledger/internal/middleware"
	"github.com/SscSPs/points_ledger/internal/utils/pagination"
	"github.com/gin-gonic/gin"
)

type balanceHandler struct {
	balanceService portssvc.BalanceSvcFacade
}

func newBalanceHandler(bs portssvc.BalanceSvcFacade) *balanceHandler {
	return &balanceHandler{balanceService: bs}
}

// registerBalanceRoutes registers the read side of an account: balance, history and audit.
func registerBalanceRoutes(rg *gin.RouterGroup, balanceService portssvc.BalanceSvcFacade) {
	h := newBalanceHandler(balanceService)

	accounts := rg.Group("/accounts/:id")
	{
		accounts.GET("/balance", h.getBalance)
		accounts.GET("/history", h.getHistory)
		accounts.GET("/audit", h.auditAccount)
	}
}

// getBalance godoc
// @Summary Get the current balance of an account
// @Tags balances
// @Produce  json
// @Param   id path int true "Account ID"
// @Success 200 {object} dto.AccountBalanceResponse
// @Failure 400 {object} map[string]string "Invalid account ID"
// @Failure 404 {object} map[string]string "Account not found"
// @Router /accounts/{id}/balance [get]
func (h *balanceHandler) getBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	bal, err := h.balanceService.CurrentBalance(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, logger.With(slog.Int64("account_id", accountID)), err, "retrieve balance")
		return
	}
	c.JSON(http.StatusOK, dto.AccountBalanceResponse{AccountID: accountID, Balance: bal})
}

// getHistory godoc
// @Summary List the history of an account
// @Description Returns one page of the account history in mutation order. Pass the returned nextToken to fetch the following page.
// @Tags balances
// @Produce  json
// @Param   id path int true "Account ID"
// @Param   limit query int false "Page size (1-1000)" default(100)
// @Param   nextToken query string false "Cursor from the previous page"
// @Success 200 {object} dto.HistoryResponse
// @Failure 400 {object} map[string]string "Invalid account ID, limit or token"
// @Failure 404 {object} map[string]string "Account not found"
// @Router /accounts/{id}/history [get]
func (h *balanceHandler) getHistory(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var params dto.ListHistoryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query parameters for history", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}
	after, err := pagination.DecodeToken(params.NextToken)
	if err != nil {
		logger.Warn("Invalid history token", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid nextToken"})
		return
	}

	page, err := h.balanceService.HistoryPage(c.Request.Context(), accountID, after, params.Limit)
	if err != nil {
		respondError(c, logger.With(slog.Int64("account_id", accountID)), err, "retrieve history")
		return
	}
	c.JSON(http.StatusOK, dto.ToHistoryResponse(accountID, page))
}

// auditAccount godoc
// @Summary Verify an account history
// @Description Replays the account history and compares it with the stored balance snapshots
// @Tags balances
// @Produce  json
// @Param   id path int true "Account ID"
// @Success 200 {object} dto.AuditResponse
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 500 {object} map[string]string "History diverges from snapshots"
// @Router /accounts/{id}/audit [get]
func (h *balanceHandler) auditAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	report, err := h.balanceService.VerifyAccount(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, logger.With(slog.Int64("account_id", accountID)), err, "verify account")
		return
	}
	logger.Info("Account verified", slog.Int64("account_id", accountID), slog.Int("entries", report.Entries))
	c.JSON(http.StatusOK, dto.ToAuditResponse(report))
}
