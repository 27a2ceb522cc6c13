package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	coreport "github.com/amoria-global/faxon-sub002/internal/domain/port/core"
	ratesport "github.com/amoria-global/faxon-sub002/internal/domain/port/rates"
	"github.com/amoria-global/faxon-sub002/internal/infrastructure/config"
)

// HTTPRateSource fetches exchange rates from the external rate feed.
// It implements the narrow RateSource port; caching and staleness policy
// belong to the converter.
type HTTPRateSource struct {
	baseURL      string
	apiKey       string
	client       *http.Client
	logger       coreport.Logger
	timeProvider coreport.TimeProvider
}

// NewHTTPRateSource creates a rate source backed by the configured feed
func NewHTTPRateSource(conf config.RatesConfig, logger coreport.Logger, timeProvider coreport.TimeProvider) *HTTPRateSource {
	timeout := conf.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPRateSource{
		baseURL:      conf.BaseURL,
		apiKey:       conf.APIKey,
		client:       &http.Client{Timeout: timeout},
		logger:       logger,
		timeProvider: timeProvider,
	}
}

type rateResponse struct {
	Base   string `json:"base"`
	Target string `json:"target"`
	Rate   string `json:"rate"`
	AsOf   string `json:"asOf"`
}

// GetRate fetches the current base->target rate
func (s *HTTPRateSource) GetRate(ctx context.Context, base, target string) (*ratesport.Rate, error) {
	endpoint := fmt.Sprintf("%s/v1/rates?base=%s&target=%s",
		s.baseURL, url.QueryEscape(base), url.QueryEscape(target))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build rate request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rate %s/%s: %w", base, target, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return nil, fmt.Errorf("read rate response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate feed returned %d for %s/%s", resp.StatusCode, base, target)
	}

	var body rateResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("decode rate response: %w", err)
	}

	rate, err := decimal.NewFromString(body.Rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate %q from feed: %w", body.Rate, err)
	}
	if rate.IsZero() || rate.IsNegative() {
		return nil, fmt.Errorf("non-positive rate %s from feed for %s/%s", body.Rate, base, target)
	}

	asOf := s.timeProvider.Now()
	if body.AsOf != "" {
		if parsed, err := time.Parse(time.RFC3339, body.AsOf); err == nil {
			asOf = parsed
		}
	}

	s.logger.Debug("Fetched exchange rate", map[string]any{
		"base":   base,
		"target": target,
		"rate":   rate.String(),
	})

	return &ratesport.Rate{
		Base:   base,
		Target: target,
		Rate:   rate,
		AsOf:   asOf,
	}, nil
}
