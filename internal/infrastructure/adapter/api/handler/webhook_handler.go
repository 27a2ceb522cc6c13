package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amoria-global/faxon-sub002/internal/domain/entity"
	domainerr "github.com/amoria-global/faxon-sub002/internal/domain/error"
	coreport "github.com/amoria-global/faxon-sub002/internal/domain/port/core"
	pport "github.com/amoria-global/faxon-sub002/internal/domain/port/provider"
	transactionUseCase "github.com/amoria-global/faxon-sub002/internal/domain/usecase/transaction"
	"github.com/amoria-global/faxon-sub002/internal/infrastructure/adapter/api/dto"
)

// signatureHeader carries the provider's hex-encoded HMAC-SHA256 of the body
const signatureHeader = "X-Signature"

// reconcileTimeout bounds the asynchronous reconciliation of one callback
const reconcileTimeout = 30 * time.Second

// StatusApplier funnels verified callbacks into reconciliation
type StatusApplier interface {
	ApplyProviderStatus(ctx context.Context, reference string, update transactionUseCase.StatusUpdate) error
}

// WebhookHandler receives provider callbacks. It verifies the payload
// signature, acks fast, and hands the normalized event to reconciliation
// asynchronously so a slow settlement never stalls the provider's retry loop.
type WebhookHandler struct {
	registry   *pport.Registry
	reconciler StatusApplier
	logger     coreport.Logger
}

// NewWebhookHandler creates a new webhook handler instance
func NewWebhookHandler(
	registry *pport.Registry,
	reconciler StatusApplier,
	logger coreport.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		registry:   registry,
		reconciler: reconciler,
		logger:     logger,
	}
}

// HandleCallback handles the POST /webhooks/:provider endpoint
func (h *WebhookHandler) HandleCallback(c *gin.Context) {
	providerName := c.Param("provider")
	adapter, err := h.registry.Resolve(entity.Provider(providerName))
	if err != nil {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(err),
			Message: "Unknown provider",
		})
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.CodeInternalServer,
			Message: "Unable to read request body",
		})
		return
	}

	if !adapter.VerifySignature(body, c.GetHeader(signatureHeader)) {
		h.logger.Warn("Webhook signature verification failed", map[string]any{
			"provider":  providerName,
			"client_ip": c.ClientIP(),
		})
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrInvalidSignature),
			Message: domainerr.ErrInvalidSignature.Error(),
		})
		return
	}

	event, err := adapter.ParseCallback(body)
	if err != nil {
		h.logger.Warn("Webhook payload rejected", map[string]any{
			"provider": providerName,
			"error":    err.Error(),
		})
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.CodeInternalServer,
			Message: "Malformed callback payload",
		})
		return
	}

	// Ack before reconciling. Reconciliation is idempotent, so a provider
	// retry caused by anything after this point is a logged no-op.
	c.JSON(http.StatusAccepted, gin.H{"reference": event.Reference, "received": true})

	go h.reconcile(providerName, event)
}

func (h *WebhookHandler) reconcile(providerName string, event *pport.CallbackEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
	defer cancel()

	err := h.reconciler.ApplyProviderStatus(ctx, event.Reference, transactionUseCase.StatusUpdate{
		Status:        event.Status,
		ProviderRef:   event.ProviderRef,
		SettledAmount: event.SettledAmount,
		FailureCode:   event.FailureCode,
		FailureReason: event.FailureReason,
	})
	if err != nil {
		h.logger.Error("Webhook reconciliation failed", map[string]any{
			"provider":  providerName,
			"reference": event.Reference,
			"status":    string(event.Status),
			"error":     err.Error(),
		})
	}
}
