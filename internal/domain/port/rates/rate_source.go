package rates

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Rate is a base->target exchange rate with its observation time
type Rate struct {
	Base   string
	Target string
	Rate   decimal.Decimal
	AsOf   time.Time
}

// RateSource exposes the external currency rate service through a narrow
// interface. Caching and staleness policy live in the converter, not here.
type RateSource interface {
	// GetRate fetches the current base->target rate
	GetRate(ctx context.Context, base, target string) (*Rate, error)
}
