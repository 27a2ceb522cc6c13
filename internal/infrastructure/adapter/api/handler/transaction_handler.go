package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domainerr "github.com/amoria-global/faxon-sub002/internal/domain/error"
	coreport "github.com/amoria-global/faxon-sub002/internal/domain/port/core"
	"github.com/amoria-global/faxon-sub002/internal/domain/usecase/distribution"
	transactionUseCase "github.com/amoria-global/faxon-sub002/internal/domain/usecase/transaction"
	"github.com/amoria-global/faxon-sub002/internal/infrastructure/adapter/api/dto"
)

// TransactionHandler handles transaction-related HTTP requests
type TransactionHandler struct {
	transactionService *transactionUseCase.Service
	distributionEngine *distribution.Engine
	logger             coreport.Logger
}

// NewTransactionHandler creates a new transaction handler instance
func NewTransactionHandler(
	transactionService *transactionUseCase.Service,
	distributionEngine *distribution.Engine,
	logger coreport.Logger,
) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		distributionEngine: distributionEngine,
		logger:             logger,
	}
}

// Create handles the POST /transactions endpoint
func (h *TransactionHandler) Create(c *gin.Context) {
	var req dto.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.CodeInvalidAmount,
			Message: "Invalid request format: " + err.Error(),
		})
		return
	}

	txn, err := h.transactionService.Create(c.Request.Context(), transactionUseCase.CreateRequest{
		Provider:     req.Provider,
		Amount:       req.Amount,
		Currency:     req.Currency,
		Reference:    req.Reference,
		BookingID:    req.BookingID,
		PayerID:      req.PayerID,
		RecipientID:  req.RecipientID,
		AgentID:      req.AgentID,
		PayerDetails: req.PayerDetails,
	})

	switch {
	case err == nil:
		c.JSON(http.StatusCreated, dto.FromTransaction(txn))
	case domainerr.IsValidationError(err):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(err),
			Message: err.Error(),
		})
	case domainerr.IsDuplicateReferenceError(err):
		c.JSON(http.StatusConflict, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(err),
			Message: err.Error(),
		})
	case domainerr.IsSubmitError(err):
		// Definite provider rejection: the transaction stays CREATED and the
		// payer may retry with a fresh request
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{
			Code:    domainerr.CodeProviderSubmit,
			Message: err.Error(),
		})
	default:
		h.logger.Error("Transaction creation failed", map[string]any{
			"error": err.Error(),
		})
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(err),
			Message: "Internal server error",
		})
	}
}

// GetByReference handles the GET /transactions/:reference endpoint
func (h *TransactionHandler) GetByReference(c *gin.Context) {
	reference := c.Param("reference")

	txn, err := h.transactionService.GetByReference(c.Request.Context(), reference)
	if err != nil {
		if domainerr.IsNotFoundError(err) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{
				Code:    domainerr.ErrorCode(err),
				Message: "Transaction not found",
			})
			return
		}
		h.logger.Error("Transaction lookup failed", map[string]any{
			"reference": reference,
			"error":     err.Error(),
		})
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(err),
			Message: "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, dto.FromTransaction(txn))
}

// Refund handles the POST /transactions/:reference/refund endpoint
func (h *TransactionHandler) Refund(c *gin.Context) {
	reference := c.Param("reference")

	reversal, err := h.distributionEngine.Refund(c.Request.Context(), reference)
	if err != nil {
		switch {
		case domainerr.IsNotFoundError(err):
			c.JSON(http.StatusNotFound, dto.ErrorResponse{
				Code:    domainerr.ErrorCode(err),
				Message: "Transaction not found",
			})
		case domainerr.ErrorCode(err) == domainerr.CodeAlreadyRefunded:
			c.JSON(http.StatusConflict, dto.ErrorResponse{
				Code:    domainerr.ErrorCode(err),
				Message: err.Error(),
			})
		default:
			h.logger.Error("Refund failed", map[string]any{
				"reference": reference,
				"error":     err.Error(),
			})
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
				Code:    domainerr.ErrorCode(err),
				Message: "Internal server error",
			})
		}
		return
	}

	c.JSON(http.StatusCreated, dto.FromTransaction(reversal))
}
