package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/amoria-global/faxon-sub002/internal/domain/entity"
	errs "github.com/amoria-global/faxon-sub002/internal/domain/error"
	coreport "github.com/amoria-global/faxon-sub002/internal/domain/port/core"
	pport "github.com/amoria-global/faxon-sub002/internal/domain/port/provider"
	"github.com/amoria-global/faxon-sub002/internal/infrastructure/config"
)

// CardAdapter talks to the card acquirer API. Charges are created against a
// tokenized card and usually resolve synchronously, but 3DS flows leave the
// charge processing until the payer completes the challenge.
type CardAdapter struct {
	http   *httpClient
	logger coreport.Logger
}

// NewCardAdapter creates a card rail adapter
func NewCardAdapter(conf config.ProviderConfig, logger coreport.Logger) *CardAdapter {
	return &CardAdapter{
		http:   newHTTPClient(conf, logger),
		logger: logger,
	}
}

// Name returns the rail this adapter serves
func (a *CardAdapter) Name() entity.Provider {
	return entity.ProviderCard
}

type cardChargeRequest struct {
	Reference   string `json:"reference"`
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
	CardToken   string `json:"card_token"`
}

type cardChargeResponse struct {
	ChargeID string `json:"charge_id"`
	Status   string `json:"status"`
}

// Submit creates a charge against the payer's tokenized card
func (a *CardAdapter) Submit(ctx context.Context, req pport.SubmitRequest) (*pport.SubmitResult, error) {
	token := req.PayerDetails["card_token"]
	if token == "" {
		return nil, errs.NewSubmitError(string(entity.ProviderCard), req.Reference,
			"INVALID_CARD", "card token is required", nil)
	}

	body := cardChargeRequest{
		Reference:   req.Reference,
		AmountMinor: req.Amount.MinorUnits,
		Currency:    req.Amount.Currency,
		CardToken:   token,
	}

	var resp cardChargeResponse
	if err := a.http.doJSON(ctx, http.MethodPost, "/v1/charges", body, &resp); err != nil {
		return nil, a.mapSubmitError(req.Reference, err)
	}

	a.logger.Info("Card charge submitted", map[string]any{
		"reference": req.Reference,
		"charge_id": resp.ChargeID,
		"status":    resp.Status,
	})

	return &pport.SubmitResult{
		ProviderRef:   resp.ChargeID,
		InitialStatus: a.normalizeStatus(resp.Status),
	}, nil
}

type cardStatusResponse struct {
	ChargeID      string `json:"charge_id"`
	Status        string `json:"status"`
	AmountMinor   int64  `json:"amount_minor"`
	Currency      string `json:"currency"`
	DeclineCode   string `json:"decline_code"`
	DeclineReason string `json:"decline_reason"`
}

// QueryStatus fetches the current status of a charge
func (a *CardAdapter) QueryStatus(ctx context.Context, providerRef string) (*pport.StatusResult, error) {
	var resp cardStatusResponse
	path := fmt.Sprintf("/v1/charges/%s", providerRef)
	if err := a.http.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	result := &pport.StatusResult{Status: a.normalizeStatus(resp.Status)}
	if result.Status == pport.StatusFailed {
		result.FailureCode = a.normalizeDeclineCode(resp.DeclineCode)
		result.FailureReason = resp.DeclineReason
	}
	if result.Status == pport.StatusSucceeded {
		result.SettledAmount = settledFromMinor(resp.AmountMinor, resp.Currency)
	}
	return result, nil
}

// VerifySignature checks a webhook payload against the shared secret
func (a *CardAdapter) VerifySignature(body []byte, signature string) bool {
	return a.http.verifySignature(body, signature)
}

type cardCallbackPayload struct {
	Reference     string `json:"reference"`
	ChargeID      string `json:"charge_id"`
	Status        string `json:"status"`
	AmountMinor   int64  `json:"amount_minor"`
	Currency      string `json:"currency"`
	DeclineCode   string `json:"decline_code"`
	DeclineReason string `json:"decline_reason"`
}

// ParseCallback normalizes a verified webhook payload
func (a *CardAdapter) ParseCallback(body []byte) (*pport.CallbackEvent, error) {
	var payload cardCallbackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode card callback: %w", err)
	}
	if payload.Reference == "" {
		return nil, errors.New("card callback missing reference")
	}

	event := &pport.CallbackEvent{
		Reference:   payload.Reference,
		ProviderRef: payload.ChargeID,
		Status:      a.normalizeStatus(payload.Status),
	}
	if event.Status == pport.StatusFailed {
		event.FailureCode = a.normalizeDeclineCode(payload.DeclineCode)
		event.FailureReason = payload.DeclineReason
	}
	if event.Status == pport.StatusSucceeded {
		event.SettledAmount = settledFromMinor(payload.AmountMinor, payload.Currency)
	}
	return event, nil
}

func (a *CardAdapter) mapSubmitError(reference string, err error) error {
	var apiErr *apiError
	if errors.As(err, &apiErr) && apiErr.isDefiniteRejection() {
		return errs.NewSubmitError(string(entity.ProviderCard), reference,
			a.normalizeDeclineCode(apiErr.Code), apiErr.Message, apiErr)
	}
	return errs.NewAmbiguousSubmitError(string(entity.ProviderCard), reference, err)
}

func (a *CardAdapter) normalizeStatus(status string) pport.Status {
	switch status {
	case "succeeded":
		return pport.StatusSucceeded
	case "failed", "declined":
		return pport.StatusFailed
	case "processing", "requires_action":
		return pport.StatusInProgress
	default:
		return pport.StatusUnknown
	}
}

func (a *CardAdapter) normalizeDeclineCode(code string) string {
	switch code {
	case "insufficient_funds":
		return "INSUFFICIENT_FUNDS"
	case "card_declined", "do_not_honor":
		return "PAYER_DECLINED"
	case "expired_card", "incorrect_number", "invalid_card":
		return "INVALID_CARD"
	case "duplicate_charge":
		return "DUPLICATE_REFERENCE"
	default:
		return "PROVIDER_ERROR"
	}
}

func settledFromMinor(minor int64, currency string) *entity.Amount {
	if minor <= 0 || currency == "" {
		return nil
	}
	amount, err := entity.NewAmount(minor, currency)
	if err != nil {
		return nil
	}
	return &amount
}
