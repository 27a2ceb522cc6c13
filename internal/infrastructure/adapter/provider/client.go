package provider

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	coreport "github.com/amoria-global/faxon-sub002/internal/domain/port/core"
	"github.com/amoria-global/faxon-sub002/internal/infrastructure/config"
)

const maxResponseBytes = 1 << 20

// httpClient wraps the shared mechanics of talking to a payment network's
// REST API: authenticated JSON requests, bounded response reading, and
// HMAC verification of inbound webhooks.
type httpClient struct {
	baseURL       string
	apiKey        string
	webhookSecret string
	client        *http.Client
	logger        coreport.Logger
}

func newHTTPClient(conf config.ProviderConfig, logger coreport.Logger) *httpClient {
	timeout := conf.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &httpClient{
		baseURL:       conf.BaseURL,
		apiKey:        conf.APIKey,
		webhookSecret: conf.WebhookSecret,
		client:        &http.Client{Timeout: timeout},
		logger:        logger,
	}
}

// doJSON issues an authenticated request and decodes the JSON response into
// out. Non-2xx responses are returned as *apiError carrying the decoded body.
func (c *httpClient) doJSON(ctx context.Context, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &apiError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(raw, apiErr); err != nil {
			apiErr.Message = string(raw)
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// verifySignature checks an inbound webhook body against the hex-encoded
// HMAC-SHA256 signature the provider computed with the shared secret.
func (c *httpClient) verifySignature(body []byte, signature string) bool {
	if c.webhookSecret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// apiError is a non-2xx answer from a provider API. Code and Message follow
// the common {"code": ..., "message": ...} error envelope.
type apiError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *apiError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("provider api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("provider api error %d: %s", e.StatusCode, e.Message)
}

// isDefiniteRejection reports whether the provider definitively refused the
// request. 4xx answers mean the request was understood and rejected; anything
// else leaves the outcome ambiguous.
func (e *apiError) isDefiniteRejection() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}
