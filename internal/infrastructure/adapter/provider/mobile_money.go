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

// MobileMoneyAdapter talks to the mobile-money aggregator API. Collections are
// requested against a subscriber MSISDN and resolve asynchronously; the
// aggregator reports native statuses which this adapter normalizes.
type MobileMoneyAdapter struct {
	http   *httpClient
	logger coreport.Logger
}

// NewMobileMoneyAdapter creates a mobile-money rail adapter
func NewMobileMoneyAdapter(conf config.ProviderConfig, logger coreport.Logger) *MobileMoneyAdapter {
	return &MobileMoneyAdapter{
		http:   newHTTPClient(conf, logger),
		logger: logger,
	}
}

// Name returns the rail this adapter serves
func (a *MobileMoneyAdapter) Name() entity.Provider {
	return entity.ProviderMobileMoney
}

type momoCollectionRequest struct {
	ExternalID string `json:"externalId"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
	Msisdn     string `json:"msisdn"`
}

type momoCollectionResponse struct {
	CollectionID string `json:"collectionId"`
	Status       string `json:"status"`
}

// Submit requests a collection from the payer's mobile wallet
func (a *MobileMoneyAdapter) Submit(ctx context.Context, req pport.SubmitRequest) (*pport.SubmitResult, error) {
	msisdn := req.PayerDetails["msisdn"]
	if msisdn == "" {
		return nil, errs.NewSubmitError(string(entity.ProviderMobileMoney), req.Reference,
			"INVALID_MSISDN", "payer msisdn is required", nil)
	}

	body := momoCollectionRequest{
		ExternalID: req.Reference,
		Amount:     req.Amount.String(),
		Currency:   req.Amount.Currency,
		Msisdn:     msisdn,
	}

	var resp momoCollectionResponse
	if err := a.http.doJSON(ctx, http.MethodPost, "/v1/collections", body, &resp); err != nil {
		return nil, a.mapSubmitError(req.Reference, err)
	}

	a.logger.Info("Mobile money collection submitted", map[string]any{
		"reference":     req.Reference,
		"collection_id": resp.CollectionID,
		"status":        resp.Status,
	})

	return &pport.SubmitResult{
		ProviderRef:   resp.CollectionID,
		InitialStatus: a.normalizeStatus(resp.Status),
	}, nil
}

type momoStatusResponse struct {
	CollectionID string `json:"collectionId"`
	Status       string `json:"status"`
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
	ReasonCode   string `json:"reasonCode"`
	Reason       string `json:"reason"`
}

// QueryStatus fetches the current status for a collection
func (a *MobileMoneyAdapter) QueryStatus(ctx context.Context, providerRef string) (*pport.StatusResult, error) {
	var resp momoStatusResponse
	path := fmt.Sprintf("/v1/collections/%s", providerRef)
	if err := a.http.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	result := &pport.StatusResult{Status: a.normalizeStatus(resp.Status)}
	if result.Status == pport.StatusFailed {
		result.FailureCode = a.normalizeFailureCode(resp.ReasonCode)
		result.FailureReason = resp.Reason
	}
	if result.Status == pport.StatusSucceeded {
		result.SettledAmount = parseSettledAmount(resp.Amount, resp.Currency)
	}
	return result, nil
}

// VerifySignature checks a webhook payload against the shared secret
func (a *MobileMoneyAdapter) VerifySignature(body []byte, signature string) bool {
	return a.http.verifySignature(body, signature)
}

type momoCallbackPayload struct {
	ExternalID   string `json:"externalId"`
	CollectionID string `json:"collectionId"`
	Status       string `json:"status"`
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
	ReasonCode   string `json:"reasonCode"`
	Reason       string `json:"reason"`
}

// ParseCallback normalizes a verified webhook payload
func (a *MobileMoneyAdapter) ParseCallback(body []byte) (*pport.CallbackEvent, error) {
	var payload momoCallbackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode mobile money callback: %w", err)
	}
	if payload.ExternalID == "" {
		return nil, errors.New("mobile money callback missing externalId")
	}

	event := &pport.CallbackEvent{
		Reference:   payload.ExternalID,
		ProviderRef: payload.CollectionID,
		Status:      a.normalizeStatus(payload.Status),
	}
	if event.Status == pport.StatusFailed {
		event.FailureCode = a.normalizeFailureCode(payload.ReasonCode)
		event.FailureReason = payload.Reason
	}
	if event.Status == pport.StatusSucceeded {
		event.SettledAmount = parseSettledAmount(payload.Amount, payload.Currency)
	}
	return event, nil
}

func (a *MobileMoneyAdapter) mapSubmitError(reference string, err error) error {
	var apiErr *apiError
	if errors.As(err, &apiErr) && apiErr.isDefiniteRejection() {
		return errs.NewSubmitError(string(entity.ProviderMobileMoney), reference,
			a.normalizeFailureCode(apiErr.Code), apiErr.Message, apiErr)
	}
	return errs.NewAmbiguousSubmitError(string(entity.ProviderMobileMoney), reference, err)
}

func (a *MobileMoneyAdapter) normalizeStatus(status string) pport.Status {
	switch status {
	case "SUCCESSFUL":
		return pport.StatusSucceeded
	case "FAILED", "REJECTED", "TIMEOUT":
		return pport.StatusFailed
	case "PENDING", "ONGOING":
		return pport.StatusInProgress
	default:
		return pport.StatusUnknown
	}
}

func (a *MobileMoneyAdapter) normalizeFailureCode(code string) string {
	switch code {
	case "PAYER_NOT_FOUND", "INVALID_MSISDN":
		return "INVALID_MSISDN"
	case "NOT_ENOUGH_FUNDS", "PAYER_LIMIT_REACHED":
		return "INSUFFICIENT_FUNDS"
	case "APPROVAL_REJECTED", "EXPIRED_APPROVAL":
		return "PAYER_DECLINED"
	case "RESOURCE_ALREADY_EXIST":
		return "DUPLICATE_REFERENCE"
	case "":
		return "PROVIDER_ERROR"
	default:
		return "PROVIDER_ERROR"
	}
}

// parseSettledAmount builds the optional settlement amount from a payload.
// Malformed or absent values yield nil; the reconciler falls back to the
// requested amount.
func parseSettledAmount(amount, currency string) *entity.Amount {
	if amount == "" || currency == "" {
		return nil
	}
	parsed, err := entity.ParseAmount(amount, currency)
	if err != nil {
		return nil
	}
	return &parsed
}
