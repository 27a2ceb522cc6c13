package provider

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amoria-global/faxon-sub002/internal/domain/entity"
	errs "github.com/amoria-global/faxon-sub002/internal/domain/error"
	coreport "github.com/amoria-global/faxon-sub002/internal/domain/port/core"
	pport "github.com/amoria-global/faxon-sub002/internal/domain/port/provider"
	"github.com/amoria-global/faxon-sub002/internal/infrastructure/config"
)

type noopLogger struct{}

func (noopLogger) SetLevel(coreport.LogLevel)         {}
func (noopLogger) Debug(string, map[string]any)       {}
func (noopLogger) Info(string, map[string]any)        {}
func (noopLogger) Warn(string, map[string]any)        {}
func (noopLogger) Error(string, map[string]any)       {}
func (noopLogger) Flush() error                       { return nil }

func testLogger() coreport.Logger { return noopLogger{} }

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func momoAdapter(t *testing.T, baseURL string) *MobileMoneyAdapter {
	t.Helper()
	return NewMobileMoneyAdapter(config.ProviderConfig{
		BaseURL:       baseURL,
		APIKey:        "test-key",
		WebhookSecret: "momo-secret",
		Timeout:       2 * time.Second,
	}, testLogger())
}

func mustAmount(t *testing.T, minor int64, currency string) entity.Amount {
	t.Helper()
	amount, err := entity.NewAmount(minor, currency)
	require.NoError(t, err)
	return amount
}

func TestMobileMoneySubmit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/collections", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"collectionId": "momo-001", "status": "PENDING"}`))
	}))
	defer server.Close()

	adapter := momoAdapter(t, server.URL)
	result, err := adapter.Submit(context.Background(), pport.SubmitRequest{
		Reference:    "TXN-1",
		Amount:       mustAmount(t, 15000, "RWF"),
		PayerID:      "payer-1",
		PayerDetails: map[string]string{"msisdn": "250780000001"},
	})

	require.NoError(t, err)
	assert.Equal(t, "momo-001", result.ProviderRef)
	assert.Equal(t, pport.StatusInProgress, result.InitialStatus)
}

func TestMobileMoneySubmitWithoutMsisdnRejected(t *testing.T) {
	adapter := momoAdapter(t, "http://unused")

	_, err := adapter.Submit(context.Background(), pport.SubmitRequest{
		Reference: "TXN-1",
		Amount:    mustAmount(t, 15000, "RWF"),
		PayerID:   "payer-1",
	})

	require.Error(t, err)
	assert.True(t, errs.IsSubmitError(err))
}

func TestMobileMoneySubmitDefiniteRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"code": "NOT_ENOUGH_FUNDS", "message": "payer balance too low"}`))
	}))
	defer server.Close()

	adapter := momoAdapter(t, server.URL)
	_, err := adapter.Submit(context.Background(), pport.SubmitRequest{
		Reference:    "TXN-1",
		Amount:       mustAmount(t, 15000, "RWF"),
		PayerID:      "payer-1",
		PayerDetails: map[string]string{"msisdn": "250780000001"},
	})

	require.Error(t, err)
	require.True(t, errs.IsSubmitError(err))
	var submitErr *errs.SubmitError
	require.ErrorAs(t, err, &submitErr)
	assert.Equal(t, "INSUFFICIENT_FUNDS", submitErr.Code)
}

func TestMobileMoneySubmitServerErrorIsAmbiguous(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	adapter := momoAdapter(t, server.URL)
	_, err := adapter.Submit(context.Background(), pport.SubmitRequest{
		Reference:    "TXN-1",
		Amount:       mustAmount(t, 15000, "RWF"),
		PayerID:      "payer-1",
		PayerDetails: map[string]string{"msisdn": "250780000001"},
	})

	require.Error(t, err)
	assert.True(t, errs.IsAmbiguousSubmitError(err))
	assert.False(t, errs.IsSubmitError(err))
}

func TestMobileMoneySubmitNetworkErrorIsAmbiguous(t *testing.T) {
	adapter := momoAdapter(t, "http://127.0.0.1:1")

	_, err := adapter.Submit(context.Background(), pport.SubmitRequest{
		Reference:    "TXN-1",
		Amount:       mustAmount(t, 15000, "RWF"),
		PayerID:      "payer-1",
		PayerDetails: map[string]string{"msisdn": "250780000001"},
	})

	require.Error(t, err)
	assert.True(t, errs.IsAmbiguousSubmitError(err))
}

func TestMobileMoneyQueryStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/collections/momo-001", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"collectionId": "momo-001", "status": "SUCCESSFUL", "amount": "15000", "currency": "RWF"}`))
	}))
	defer server.Close()

	adapter := momoAdapter(t, server.URL)
	result, err := adapter.QueryStatus(context.Background(), "momo-001")

	require.NoError(t, err)
	assert.Equal(t, pport.StatusSucceeded, result.Status)
	require.NotNil(t, result.SettledAmount)
	assert.Equal(t, int64(15000), result.SettledAmount.MinorUnits)
	assert.Equal(t, "RWF", result.SettledAmount.Currency)
}

func TestMobileMoneyQueryStatusFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"collectionId": "momo-001", "status": "REJECTED", "reasonCode": "APPROVAL_REJECTED", "reason": "payer declined the prompt"}`))
	}))
	defer server.Close()

	adapter := momoAdapter(t, server.URL)
	result, err := adapter.QueryStatus(context.Background(), "momo-001")

	require.NoError(t, err)
	assert.Equal(t, pport.StatusFailed, result.Status)
	assert.Equal(t, "PAYER_DECLINED", result.FailureCode)
	assert.Equal(t, "payer declined the prompt", result.FailureReason)
	assert.Nil(t, result.SettledAmount)
}

func TestMobileMoneyVerifySignature(t *testing.T) {
	adapter := momoAdapter(t, "http://unused")
	body := []byte(`{"externalId": "TXN-1", "status": "SUCCESSFUL"}`)

	assert.True(t, adapter.VerifySignature(body, sign("momo-secret", body)))
	assert.False(t, adapter.VerifySignature(body, sign("wrong-secret", body)))
	assert.False(t, adapter.VerifySignature(body, ""))
	assert.False(t, adapter.VerifySignature(append(body, '!'), sign("momo-secret", body)))
}

func TestMobileMoneyParseCallback(t *testing.T) {
	adapter := momoAdapter(t, "http://unused")

	event, err := adapter.ParseCallback([]byte(`{
		"externalId": "TXN-1",
		"collectionId": "momo-001",
		"status": "SUCCESSFUL",
		"amount": "15000",
		"currency": "RWF"
	}`))

	require.NoError(t, err)
	assert.Equal(t, "TXN-1", event.Reference)
	assert.Equal(t, "momo-001", event.ProviderRef)
	assert.Equal(t, pport.StatusSucceeded, event.Status)
	require.NotNil(t, event.SettledAmount)
	assert.Equal(t, int64(15000), event.SettledAmount.MinorUnits)
}

func TestMobileMoneyParseCallbackRejectsBadPayloads(t *testing.T) {
	adapter := momoAdapter(t, "http://unused")

	_, err := adapter.ParseCallback([]byte(`not json`))
	assert.Error(t, err)

	_, err = adapter.ParseCallback([]byte(`{"status": "SUCCESSFUL"}`))
	assert.Error(t, err)
}

func TestMobileMoneyUnknownStatusNormalized(t *testing.T) {
	adapter := momoAdapter(t, "http://unused")

	event, err := adapter.ParseCallback([]byte(`{"externalId": "TXN-1", "status": "SOMETHING_NEW"}`))
	require.NoError(t, err)
	assert.Equal(t, pport.StatusUnknown, event.Status)
}
