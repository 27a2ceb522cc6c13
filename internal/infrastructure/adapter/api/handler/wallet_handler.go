package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	domainerr "github.com/amoria-global/faxon-sub002/internal/domain/error"
	coreport "github.com/amoria-global/faxon-sub002/internal/domain/port/core"
	walletUseCase "github.com/amoria-global/faxon-sub002/internal/domain/usecase/wallet"
	"github.com/amoria-global/faxon-sub002/internal/infrastructure/adapter/api/dto"
)

// WalletHandler handles wallet-related HTTP requests
type WalletHandler struct {
	walletService   *walletUseCase.Service
	defaultCurrency string
	logger          coreport.Logger
}

// NewWalletHandler creates a new wallet handler instance
func NewWalletHandler(walletService *walletUseCase.Service, defaultCurrency string, logger coreport.Logger) *WalletHandler {
	return &WalletHandler{
		walletService:   walletService,
		defaultCurrency: defaultCurrency,
		logger:          logger,
	}
}

// GetBalance handles the GET /wallets/:partyId/balance endpoint
func (h *WalletHandler) GetBalance(c *gin.Context) {
	partyID := c.Param("partyId")
	currency := strings.ToUpper(c.DefaultQuery("currency", h.defaultCurrency))

	balance, err := h.walletService.Balance(c.Request.Context(), partyID, currency)
	if err != nil {
		if domainerr.ErrorCode(err) == domainerr.CodeInvalidCurrency {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Code:    domainerr.ErrorCode(err),
				Message: err.Error(),
			})
			return
		}
		h.logger.Error("Balance lookup failed", map[string]any{
			"party_id": partyID,
			"currency": currency,
			"error":    err.Error(),
		})
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(err),
			Message: "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, dto.BalanceResponse{
		PartyID:  partyID,
		Balance:  balance.String(),
		Currency: balance.Currency,
	})
}

// GetStatement handles the GET /wallets/:partyId/statement endpoint
func (h *WalletHandler) GetStatement(c *gin.Context) {
	partyID := c.Param("partyId")

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.CodeInvalidAmount,
			Message: "Invalid limit parameter",
		})
		return
	}

	entries, err := h.walletService.Statement(c.Request.Context(), partyID, limit)
	if err != nil {
		h.logger.Error("Statement lookup failed", map[string]any{
			"party_id": partyID,
			"error":    err.Error(),
		})
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(err),
			Message: "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, dto.FromLedgerEntries(partyID, entries))
}
