package currency

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/amoria-global/faxon-sub002/internal/domain/entity"
	errs "github.com/amoria-global/faxon-sub002/internal/domain/error"
	coreport "github.com/amoria-global/faxon-sub002/internal/domain/port/core"
	"github.com/amoria-global/faxon-sub002/internal/domain/port/rates"
)

// Direction selects which side of the spread a conversion lands on
type Direction string

// Conversion directions. Deposits are marked up, payouts are marked down: the
// platform absorbs conversion risk instead of the party withdrawing.
const (
	DirectionDeposit Direction = "DEPOSIT"
	DirectionPayout  Direction = "PAYOUT"
)

// ConvertedAmount is the result of a conversion with the rate that produced it
type ConvertedAmount struct {
	Amount entity.Amount
	Rate   decimal.Decimal
	AsOf   time.Time
}

// Config holds converter settings
type Config struct {
	SpreadBps int64
	CacheTTL  time.Duration
}

// cachedRate is one rate held under the staleness window
type cachedRate struct {
	rate      decimal.Decimal
	asOf      time.Time
	fetchedAt time.Time
}

// Converter applies exchange rates with a configured spread. Rates are cached
// for a bounded window; past it the converter fails closed rather than using a
// stale or default rate.
type Converter struct {
	source       rates.RateSource
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
	spreadBps    int64
	cacheTTL     time.Duration

	mu    sync.RWMutex
	cache map[string]cachedRate
}

// NewConverter creates a converter backed by the given rate source
func NewConverter(
	source rates.RateSource,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
	cfg Config,
) *Converter {
	return &Converter{
		source:       source,
		timeProvider: timeProvider,
		logger:       logger,
		spreadBps:    cfg.SpreadBps,
		cacheTTL:     cfg.CacheTTL,
		cache:        make(map[string]cachedRate),
	}
}

// Convert converts an amount between currencies, applying the spread for the
// given direction and rounding per the target currency's policy.
func (c *Converter) Convert(
	ctx context.Context,
	amount entity.Amount,
	toCurrency string,
	direction Direction,
) (*ConvertedAmount, error) {
	toCurrency = strings.ToUpper(toCurrency)
	if !entity.IsSupportedCurrency(toCurrency) {
		return nil, fmt.Errorf("%w: %s", errs.ErrInvalidCurrency, toCurrency)
	}

	// Same-currency settlement carries no conversion and no spread
	if amount.Currency == toCurrency {
		return &ConvertedAmount{
			Amount: amount,
			Rate:   decimal.NewFromInt(1),
			AsOf:   c.timeProvider.Now(),
		}, nil
	}

	base, asOf, err := c.lookupRate(ctx, amount.Currency, toCurrency)
	if err != nil {
		return nil, err
	}

	effective := c.applySpread(base, direction)
	converted, err := entity.AmountFromDecimal(amount.Decimal().Mul(effective), toCurrency)
	if err != nil {
		return nil, err
	}

	return &ConvertedAmount{
		Amount: converted,
		Rate:   effective,
		AsOf:   asOf,
	}, nil
}

// EffectiveRate exposes the spread-adjusted rate without converting an amount
func (c *Converter) EffectiveRate(ctx context.Context, from, to string, direction Direction) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	base, _, err := c.lookupRate(ctx, from, to)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return c.applySpread(base, direction), nil
}

// applySpread marks the base rate up for deposits and down for payouts
func (c *Converter) applySpread(base decimal.Decimal, direction Direction) decimal.Decimal {
	spread := decimal.New(c.spreadBps, -4) // bps -> fraction
	switch direction {
	case DirectionPayout:
		return base.Mul(decimal.NewFromInt(1).Sub(spread))
	default:
		return base.Mul(decimal.NewFromInt(1).Add(spread))
	}
}

// lookupRate serves from cache inside the TTL and otherwise queries the source.
// A source failure with no fresh cached rate rejects the operation.
func (c *Converter) lookupRate(ctx context.Context, from, to string) (decimal.Decimal, time.Time, error) {
	key := from + "/" + to
	now := c.timeProvider.Now()

	c.mu.RLock()
	cached, ok := c.cache[key]
	c.mu.RUnlock()

	if ok && now.Sub(cached.fetchedAt) < c.cacheTTL {
		return cached.rate, cached.asOf, nil
	}

	rate, err := c.source.GetRate(ctx, from, to)
	if err != nil {
		c.logger.Warn("Rate lookup failed, failing closed", map[string]any{
			"base":   from,
			"target": to,
			"error":  err.Error(),
		})
		return decimal.Decimal{}, time.Time{}, fmt.Errorf("%w: %s->%s", errs.ErrRateUnavailable, from, to)
	}
	if rate.Rate.Sign() <= 0 {
		return decimal.Decimal{}, time.Time{}, fmt.Errorf("%w: non-positive rate for %s->%s",
			errs.ErrRateUnavailable, from, to)
	}

	c.mu.Lock()
	c.cache[key] = cachedRate{rate: rate.Rate, asOf: rate.AsOf, fetchedAt: now}
	c.mu.Unlock()

	return rate.Rate, rate.AsOf, nil
}

// SpreadBps returns the configured spread, recorded on completed transactions
func (c *Converter) SpreadBps() int64 {
	return c.spreadBps
}
