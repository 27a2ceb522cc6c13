package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	coreport "github.com/amoria-global/faxon-sub002/internal/domain/port/core"
	notif "github.com/amoria-global/faxon-sub002/internal/domain/port/notification"
	"github.com/amoria-global/faxon-sub002/internal/infrastructure/config"
)

// HTTPPublisher delivers notification events to the notification service over
// HTTP. Delivery guarantees beyond a single attempt are the service's concern;
// callers treat publish failures as non-fatal.
type HTTPPublisher struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  coreport.Logger
}

// NewHTTPPublisher creates a publisher for the configured notification service
func NewHTTPPublisher(conf config.NotificationConfig, logger coreport.Logger) *HTTPPublisher {
	timeout := conf.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPPublisher{
		baseURL: conf.BaseURL,
		apiKey:  conf.APIKey,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Publish sends one event to the notification service
func (p *HTTPPublisher) Publish(ctx context.Context, event notif.Event) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode notification event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/events", bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Warn("Notification delivery failed", map[string]any{
			"type":           string(event.Type),
			"transaction_id": event.TransactionID,
			"error":          err.Error(),
		})
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<14))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		p.logger.Warn("Notification service rejected event", map[string]any{
			"type":           string(event.Type),
			"transaction_id": event.TransactionID,
			"status_code":    resp.StatusCode,
		})
		return fmt.Errorf("notification service returned %d", resp.StatusCode)
	}

	p.logger.Debug("Notification event published", map[string]any{
		"type":           string(event.Type),
		"transaction_id": event.TransactionID,
		"recipient_id":   event.RecipientID,
	})
	return nil
}
