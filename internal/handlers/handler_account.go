package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/points_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/points_ledger/internal/core/ports/services"
	"github.com/SscSPs/points_ledger/internal/dto"
	"github.com/SscSPs/points_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// accountHandler handles HTTP requests related to accounts.
type accountHandler struct {
	accountService portssvc.AccountSvcFacade
}

// newAccountHandler creates a new accountHandler.
func newAccountHandler(as portssvc.AccountSvcFacade) *accountHandler {
	return &accountHandler{
		accountService: as,
	}
}

// registerAccountRoutes registers routes related to accounts.
func registerAccountRoutes(rg *gin.RouterGroup, accountService portssvc.AccountSvcFacade) {
	h := newAccountHandler(accountService)

	accounts := rg.Group("/accounts")
	{
		accounts.POST("/ensure", h.ensureAccount)
		accounts.POST("/expect", h.expectAccount)
		accounts.GET("/:id", h.getAccount)
	}
	rg.GET("/users/:userID/accounts", h.listUserAccounts)
	rg.GET("/markets/:marketID/accounts", h.listMarketAccounts)
}

func bindOwnerRequest(c *gin.Context, logger *slog.Logger) (domain.Owner, domain.Currency, bool) {
	var req dto.EnsureAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for account owner", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return domain.Owner{}, "", false
	}
	currency := req.Currency
	if currency == "" {
		currency = domain.CurrencyPoints
	}
	return req.ToOwner(), currency, true
}

// ensureAccount godoc
// @Summary Ensure an account
// @Description Finds the account of an owner, creating it on first use. Repeated calls return the same account.
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   account body dto.EnsureAccountRequest true "Owner and currency"
// @Success 200 {object} dto.AccountResponse
// @Failure 400 {object} map[string]string "Invalid input format or owner"
// @Failure 500 {object} map[string]string "Failed to ensure account"
// @Router /accounts/ensure [post]
func (h *accountHandler) ensureAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	owner, currency, ok := bindOwnerRequest(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("owner", owner.String()))
	acc, err := h.accountService.EnsureAccount(c.Request.Context(), owner, currency)
	if err != nil {
		respondError(c, logger, err, "ensure account")
		return
	}

	logger.Info("Account ensured", slog.Int64("account_id", acc.AccountID))
	c.JSON(http.StatusOK, dto.ToAccountResponse(acc))
}

// expectAccount godoc
// @Summary Find an existing account
// @Description Returns the account of an owner without creating it
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   account body dto.EnsureAccountRequest true "Owner and currency"
// @Success 200 {object} dto.AccountResponse
// @Failure 400 {object} map[string]string "Invalid input format or owner"
// @Failure 404 {object} map[string]string "Account not found"
// @Router /accounts/expect [post]
func (h *accountHandler) expectAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	owner, currency, ok := bindOwnerRequest(c, logger)
	if !ok {
		return
	}

	acc, err := h.accountService.ExpectAccount(c.Request.Context(), owner, currency)
	if err != nil {
		respondError(c, logger.With(slog.String("owner", owner.String())), err, "find account")
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponse(acc))
}

// getAccount godoc
// @Summary Get an account by ID
// @Tags accounts
// @Produce  json
// @Param   id path int true "Account ID"
// @Success 200 {object} dto.AccountResponse
// @Failure 400 {object} map[string]string "Invalid account ID"
// @Failure 404 {object} map[string]string "Account not found"
// @Router /accounts/{id} [get]
func (h *accountHandler) getAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	acc, err := h.accountService.GetAccountByID(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, logger.With(slog.Int64("account_id", accountID)), err, "retrieve account")
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponse(acc))
}

// listUserAccounts godoc
// @Summary List the accounts of a user
// @Tags accounts
// @Produce  json
// @Param   userID path int true "User ID"
// @Success 200 {object} dto.ListAccountsResponse
// @Failure 400 {object} map[string]string "Invalid user ID"
// @Router /users/{userID}/accounts [get]
func (h *accountHandler) listUserAccounts(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := parseIDParam(c, "userID")
	if !ok {
		return
	}

	accounts, err := h.accountService.ListAccountsForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, logger.With(slog.Int64("user_id", userID)), err, "list accounts")
		return
	}
	c.JSON(http.StatusOK, dto.ListAccountsResponse{Accounts: dto.ToListAccountResponse(accounts)})
}

// listMarketAccounts godoc
// @Summary List the accounts of a market
// @Description Returns the market points account and its outcome pool accounts
// @Tags accounts
// @Produce  json
// @Param   marketID path int true "Market ID"
// @Success 200 {object} dto.ListAccountsResponse
// @Failure 400 {object} map[string]string "Invalid market ID"
// @Router /markets/{marketID}/accounts [get]
func (h *accountHandler) listMarketAccounts(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	marketID, ok := parseIDParam(c, "marketID")
	if !ok {
		return
	}

	accounts, err := h.accountService.ListAccountsForMarket(c.Request.Context(), marketID)
	if err != nil {
		respondError(c, logger.With(slog.Int64("market_id", marketID)), err, "list accounts")
		return
	}
	c.JSON(http.StatusOK, dto.ListAccountsResponse{Accounts: dto.ToListAccountResponse(accounts)})
}
