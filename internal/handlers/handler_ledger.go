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

type ledgerHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

func newLedgerHandler(ls portssvc.LedgerSvcFacade) *ledgerHandler {
	return &ledgerHandler{ledgerService: ls}
}

func registerLedgerRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := newLedgerHandler(ledgerService)

	txs := rg.Group("/transactions")
	{
		txs.POST("", h.commitTransaction)
		txs.POST("/income", h.createIncome)
		txs.POST("/transfer", h.transfer)
		txs.POST("/fund-market", h.fundMarket)
		txs.GET("/:id", h.getTransaction)
	}
}

func bindJSON(c *gin.Context, logger *slog.Logger, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		logger.Warn("Failed to bind JSON", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return false
	}
	return true
}

func (h *ledgerHandler) committed(c *gin.Context, logger *slog.Logger, tx *domain.Transaction) {
	logger.Info("Transaction committed",
		slog.Int64("transaction_id", tx.TransactionID),
		slog.String("type", string(tx.Type)),
		slog.Int("mutations", len(tx.Mutations)))
	c.JSON(http.StatusCreated, dto.ToTransactionResponse(tx))
}

// commitTransaction godoc
// @Summary Commit a transaction
// @Description Commits a set of mutations of one type atomically
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   transaction body dto.CommitTransactionRequest true "Type and mutations"
// @Success 201 {object} dto.TransactionResponse
// @Failure 400 {object} map[string]string "Invalid input, unknown type or conservation violation"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 422 {object} map[string]string "Insufficient balance"
// @Failure 503 {object} map[string]string "Ledger is busy, please retry"
// @Router /transactions [post]
func (h *ledgerHandler) commitTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CommitTransactionRequest
	if !bindJSON(c, logger, &req) {
		return
	}

	tx, err := h.ledgerService.CommitTransaction(c.Request.Context(), req.Type, req.ToDomainMutations())
	if err != nil {
		respondError(c, logger.With(slog.String("type", string(req.Type))), err, "commit transaction")
		return
	}
	h.committed(c, logger, tx)
}

// createIncome godoc
// @Summary Credit income to an owner
// @Description Ensures the owner's points account and credits it
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   income body dto.IncomeRequest true "Owner and positive amount"
// @Success 201 {object} dto.TransactionResponse
// @Failure 400 {object} map[string]string "Invalid input format or amount"
// @Failure 503 {object} map[string]string "Ledger is busy, please retry"
// @Router /transactions/income [post]
func (h *ledgerHandler) createIncome(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.IncomeRequest
	if !bindJSON(c, logger, &req) {
		return
	}

	owner := req.Owner.ToOwner()
	tx, err := h.ledgerService.CreateTransactionIncome(c.Request.Context(), owner, req.Amount)
	if err != nil {
		respondError(c, logger.With(slog.String("owner", owner.String())), err, "create income")
		return
	}
	h.committed(c, logger, tx)
}

// transfer godoc
// @Summary Transfer points between accounts
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   transfer body dto.TransferRequest true "Source, destination and amount"
// @Success 201 {object} dto.TransactionResponse
// @Failure 400 {object} map[string]string "Invalid input format or amount"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 422 {object} map[string]string "Insufficient balance"
// @Router /transactions/transfer [post]
func (h *ledgerHandler) transfer(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.TransferRequest
	if !bindJSON(c, logger, &req) {
		return
	}

	tx, err := h.ledgerService.Transfer(c.Request.Context(), req.FromAccountID, req.ToAccountID, req.Amount)
	if err != nil {
		respondError(c, logger.With(
			slog.Int64("from_account_id", req.FromAccountID),
			slog.Int64("to_account_id", req.ToAccountID)), err, "transfer")
		return
	}
	h.committed(c, logger, tx)
}

// fundMarket godoc
// @Summary Fund a market
// @Description Debits the user's points account and credits the market's
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   funding body dto.FundMarketRequest true "User, market and amount"
// @Success 201 {object} dto.TransactionResponse
// @Failure 400 {object} map[string]string "Invalid input format or amount"
// @Failure 422 {object} map[string]string "Insufficient balance"
// @Router /transactions/fund-market [post]
func (h *ledgerHandler) fundMarket(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.FundMarketRequest
	if !bindJSON(c, logger, &req) {
		return
	}

	tx, err := h.ledgerService.FundMarket(c.Request.Context(), req.UserID, req.MarketID, req.Amount)
	if err != nil {
		respondError(c, logger.With(slog.Int64("user_id", req.UserID), slog.Int64("market_id", req.MarketID)), err, "fund market")
		return
	}
	h.committed(c, logger, tx)
}

// getTransaction godoc
// @Summary Get a transaction by ID
// @Tags transactions
// @Produce  json
// @Param   id path int true "Transaction ID"
// @Success 200 {object} dto.TransactionResponse
// @Failure 400 {object} map[string]string "Invalid transaction ID"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Router /transactions/{id} [get]
func (h *ledgerHandler) getTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	tx, err := h.ledgerService.GetTransaction(c.Request.Context(), transactionID)
	if err != nil {
		respondError(c, logger.With(slog.Int64("transaction_id", transactionID)), err, "retrieve transaction")
		return
	}
	c.JSON(http.StatusOK, dto.ToTransactionResponse(tx))
}
