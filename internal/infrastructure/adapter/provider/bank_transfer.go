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

// BankTransferAdapter talks to the bank transfer network. Transfers clear
// through interbank settlement and can stay in transit for hours; a returned
// transfer is the network's terminal failure.
type BankTransferAdapter struct {
	http   *httpClient
	logger coreport.Logger
}

// NewBankTransferAdapter creates a bank transfer rail adapter
func NewBankTransferAdapter(conf config.ProviderConfig, logger coreport.Logger) *BankTransferAdapter {
	return &BankTransferAdapter{
		http:   newHTTPClient(conf, logger),
		logger: logger,
	}
}

// Name returns the rail this adapter serves
func (a *BankTransferAdapter) Name() entity.Provider {
	return entity.ProviderBankTransfer
}

type bankTransferRequest struct {
	EndToEndID    string `json:"endToEndId"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	AccountNumber string `json:"accountNumber"`
	BankCode      string `json:"bankCode"`
}

type bankTransferResponse struct {
	TransferID string `json:"transferId"`
	State      string `json:"state"`
}

// Submit initiates a debit transfer from the payer's bank account
func (a *BankTransferAdapter) Submit(ctx context.Context, req pport.SubmitRequest) (*pport.SubmitResult, error) {
	account := req.PayerDetails["account_number"]
	bankCode := req.PayerDetails["bank_code"]
	if account == "" || bankCode == "" {
		return nil, errs.NewSubmitError(string(entity.ProviderBankTransfer), req.Reference,
			"INVALID_ACCOUNT", "payer account number and bank code are required", nil)
	}

	body := bankTransferRequest{
		EndToEndID:    req.Reference,
		Amount:        req.Amount.String(),
		Currency:      req.Amount.Currency,
		AccountNumber: account,
		BankCode:      bankCode,
	}

	var resp bankTransferResponse
	if err := a.http.doJSON(ctx, http.MethodPost, "/v1/transfers", body, &resp); err != nil {
		return nil, a.mapSubmitError(req.Reference, err)
	}

	a.logger.Info("Bank transfer submitted", map[string]any{
		"reference":   req.Reference,
		"transfer_id": resp.TransferID,
		"state":       resp.State,
	})

	return &pport.SubmitResult{
		ProviderRef:   resp.TransferID,
		InitialStatus: a.normalizeState(resp.State),
	}, nil
}

type bankStatusResponse struct {
	TransferID   string `json:"transferId"`
	State        string `json:"state"`
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
	ReturnCode   string `json:"returnCode"`
	ReturnReason string `json:"returnReason"`
}

// QueryStatus fetches the current state of a transfer
func (a *BankTransferAdapter) QueryStatus(ctx context.Context, providerRef string) (*pport.StatusResult, error) {
	var resp bankStatusResponse
	path := fmt.Sprintf("/v1/transfers/%s", providerRef)
	if err := a.http.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	result := &pport.StatusResult{Status: a.normalizeState(resp.State)}
	if result.Status == pport.StatusFailed {
		result.FailureCode = a.normalizeReturnCode(resp.ReturnCode)
		result.FailureReason = resp.ReturnReason
	}
	if result.Status == pport.StatusSucceeded {
		result.SettledAmount = parseSettledAmount(resp.Amount, resp.Currency)
	}
	return result, nil
}

// VerifySignature checks a webhook payload against the shared secret
func (a *BankTransferAdapter) VerifySignature(body []byte, signature string) bool {
	return a.http.verifySignature(body, signature)
}

type bankCallbackPayload struct {
	EndToEndID   string `json:"endToEndId"`
	TransferID   string `json:"transferId"`
	State        string `json:"state"`
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
	ReturnCode   string `json:"returnCode"`
	ReturnReason string `json:"returnReason"`
}

// ParseCallback normalizes a verified webhook payload
func (a *BankTransferAdapter) ParseCallback(body []byte) (*pport.CallbackEvent, error) {
	var payload bankCallbackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode bank transfer callback: %w", err)
	}
	if payload.EndToEndID == "" {
		return nil, errors.New("bank transfer callback missing endToEndId")
	}

	event := &pport.CallbackEvent{
		Reference:   payload.EndToEndID,
		ProviderRef: payload.TransferID,
		Status:      a.normalizeState(payload.State),
	}
	if event.Status == pport.StatusFailed {
		event.FailureCode = a.normalizeReturnCode(payload.ReturnCode)
		event.FailureReason = payload.ReturnReason
	}
	if event.Status == pport.StatusSucceeded {
		event.SettledAmount = parseSettledAmount(payload.Amount, payload.Currency)
	}
	return event, nil
}

func (a *BankTransferAdapter) mapSubmitError(reference string, err error) error {
	var apiErr *apiError
	if errors.As(err, &apiErr) && apiErr.isDefiniteRejection() {
		return errs.NewSubmitError(string(entity.ProviderBankTransfer), reference,
			a.normalizeReturnCode(apiErr.Code), apiErr.Message, apiErr)
	}
	return errs.NewAmbiguousSubmitError(string(entity.ProviderBankTransfer), reference, err)
}

func (a *BankTransferAdapter) normalizeState(state string) pport.Status {
	switch state {
	case "SETTLED", "COMPLETED":
		return pport.StatusSucceeded
	case "RETURNED", "REJECTED":
		return pport.StatusFailed
	case "ACCEPTED", "IN_TRANSIT":
		return pport.StatusInProgress
	default:
		return pport.StatusUnknown
	}
}

func (a *BankTransferAdapter) normalizeReturnCode(code string) string {
	switch code {
	case "AC01", "AC04", "INVALID_ACCOUNT":
		return "INVALID_ACCOUNT"
	case "AM04", "INSUFFICIENT_FUNDS":
		return "INSUFFICIENT_FUNDS"
	case "CUST", "CUSTOMER_REFUSED":
		return "PAYER_DECLINED"
	case "DUPL":
		return "DUPLICATE_REFERENCE"
	default:
		return "PROVIDER_ERROR"
	}
}
