package currency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/amoria-global/faxon-sub002/internal/domain/entity"
	errs "github.com/amoria-global/faxon-sub002/internal/domain/error"
	coreport "github.com/amoria-global/faxon-sub002/internal/domain/port/core"
	"github.com/amoria-global/faxon-sub002/internal/domain/port/rates"
)

// mockRateSource is a testify mock for the RateSource port
type mockRateSource struct {
	mock.Mock
}

func (m *mockRateSource) GetRate(ctx context.Context, base, target string) (*rates.Rate, error) {
	args := m.Called(ctx, base, target)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rates.Rate), args.Error(1)
}

// stubTime is a controllable TimeProvider
type stubTime struct {
	now time.Time
}

func (s *stubTime) Now() time.Time                  { return s.now }
func (s *stubTime) Since(t time.Time) time.Duration { return s.now.Sub(t) }
func (s *stubTime) Sleep(time.Duration)             {}
func (s *stubTime) WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d)
}

// noopLogger satisfies the Logger port without output
type noopLogger struct{}

func (noopLogger) SetLevel(coreport.LogLevel)   {}
func (noopLogger) Debug(string, map[string]any) {}
func (noopLogger) Info(string, map[string]any)  {}
func (noopLogger) Warn(string, map[string]any)  {}
func (noopLogger) Error(string, map[string]any) {}
func (noopLogger) Flush() error                 { return nil }

func testLogger() coreport.Logger { return noopLogger{} }

func newTestConverter(t *testing.T, spreadBps int64) (*Converter, *mockRateSource, *stubTime) {
	t.Helper()
	source := &mockRateSource{}
	tp := &stubTime{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	conv := NewConverter(source, tp, testLogger(), Config{
		SpreadBps: spreadBps,
		CacheTTL:  time.Hour,
	})
	return conv, source, tp
}

func usd(minor int64) entity.Amount {
	return entity.Amount{MinorUnits: minor, Currency: "USD"}
}

func TestConvertSameCurrency(t *testing.T) {
	conv, source, _ := newTestConverter(t, 150)

	result, err := conv.Convert(context.Background(), usd(10000), "USD", DirectionDeposit)

	require.NoError(t, err)
	assert.Equal(t, int64(10000), result.Amount.MinorUnits)
	assert.True(t, result.Rate.Equal(decimal.NewFromInt(1)))
	source.AssertNotCalled(t, "GetRate")
}

func TestConvertAppliesSpread(t *testing.T) {
	// 150 bps spread, base rate 1400 RWF per USD
	conv, source, tp := newTestConverter(t, 150)
	source.On("GetRate", mock.Anything, "USD", "RWF").Return(&rates.Rate{
		Base:   "USD",
		Target: "RWF",
		Rate:   decimal.NewFromInt(1400),
		AsOf:   tp.now,
	}, nil)

	t.Run("Deposit marks the rate up", func(t *testing.T) {
		result, err := conv.Convert(context.Background(), usd(10000), "RWF", DirectionDeposit)
		require.NoError(t, err)

		// 100.00 * 1400 * 1.015 = 142100 RWF
		assert.Equal(t, int64(142100), result.Amount.MinorUnits)
		assert.Equal(t, "RWF", result.Amount.Currency)
	})

	t.Run("Payout marks the rate down", func(t *testing.T) {
		result, err := conv.Convert(context.Background(), usd(10000), "RWF", DirectionPayout)
		require.NoError(t, err)

		// 100.00 * 1400 * 0.985 = 137900 RWF
		assert.Equal(t, int64(137900), result.Amount.MinorUnits)
	})

	t.Run("Monotonic: deposit rate >= base >= payout rate", func(t *testing.T) {
		depositRate, err := conv.EffectiveRate(context.Background(), "USD", "RWF", DirectionDeposit)
		require.NoError(t, err)
		payoutRate, err := conv.EffectiveRate(context.Background(), "USD", "RWF", DirectionPayout)
		require.NoError(t, err)

		base := decimal.NewFromInt(1400)
		assert.True(t, depositRate.GreaterThanOrEqual(base))
		assert.True(t, base.GreaterThanOrEqual(payoutRate))
	})
}

func TestConvertRoundsPerTargetCurrency(t *testing.T) {
	conv, source, tp := newTestConverter(t, 0)
	source.On("GetRate", mock.Anything, "USD", "RWF").Return(&rates.Rate{
		Base: "USD", Target: "RWF",
		Rate: decimal.RequireFromString("1400.557"),
		AsOf: tp.now,
	}, nil)

	// 1.01 * 1400.557 = 1414.56257 -> rounds half-up to 1415 whole francs
	result, err := conv.Convert(context.Background(), usd(101), "RWF", DirectionDeposit)
	require.NoError(t, err)
	assert.Equal(t, int64(1415), result.Amount.MinorUnits)
}

func TestConvertCaching(t *testing.T) {
	conv, source, tp := newTestConverter(t, 100)
	source.On("GetRate", mock.Anything, "USD", "EUR").Return(&rates.Rate{
		Base: "USD", Target: "EUR",
		Rate: decimal.RequireFromString("0.92"),
		AsOf: tp.now,
	}, nil).Once()

	_, err := conv.Convert(context.Background(), usd(1000), "EUR", DirectionDeposit)
	require.NoError(t, err)

	// Second call inside the TTL must come from cache
	_, err = conv.Convert(context.Background(), usd(2000), "EUR", DirectionDeposit)
	require.NoError(t, err)
	source.AssertNumberOfCalls(t, "GetRate", 1)

	// Past the TTL the source is queried again
	source.On("GetRate", mock.Anything, "USD", "EUR").Return(&rates.Rate{
		Base: "USD", Target: "EUR",
		Rate: decimal.RequireFromString("0.93"),
		AsOf: tp.now,
	}, nil).Once()
	tp.now = tp.now.Add(2 * time.Hour)

	_, err = conv.Convert(context.Background(), usd(1000), "EUR", DirectionDeposit)
	require.NoError(t, err)
	source.AssertNumberOfCalls(t, "GetRate", 2)
}

func TestConvertFailsClosed(t *testing.T) {
	t.Run("Source error with cold cache rejects", func(t *testing.T) {
		conv, source, _ := newTestConverter(t, 100)
		source.On("GetRate", mock.Anything, "USD", "RWF").
			Return(nil, errors.New("rate service down"))

		_, err := conv.Convert(context.Background(), usd(1000), "RWF", DirectionDeposit)
		assert.ErrorIs(t, err, errs.ErrRateUnavailable)
	})

	t.Run("Stale cache past TTL does not mask a source failure", func(t *testing.T) {
		conv, source, tp := newTestConverter(t, 100)
		source.On("GetRate", mock.Anything, "USD", "RWF").Return(&rates.Rate{
			Base: "USD", Target: "RWF",
			Rate: decimal.NewFromInt(1400),
			AsOf: tp.now,
		}, nil).Once()

		_, err := conv.Convert(context.Background(), usd(1000), "RWF", DirectionDeposit)
		require.NoError(t, err)

		tp.now = tp.now.Add(90 * time.Minute)
		source.On("GetRate", mock.Anything, "USD", "RWF").
			Return(nil, errors.New("rate service down")).Once()

		_, err = conv.Convert(context.Background(), usd(1000), "RWF", DirectionDeposit)
		assert.ErrorIs(t, err, errs.ErrRateUnavailable)
	})

	t.Run("Non-positive rate rejected", func(t *testing.T) {
		conv, source, tp := newTestConverter(t, 100)
		source.On("GetRate", mock.Anything, "USD", "RWF").Return(&rates.Rate{
			Base: "USD", Target: "RWF",
			Rate: decimal.Zero,
			AsOf: tp.now,
		}, nil)

		_, err := conv.Convert(context.Background(), usd(1000), "RWF", DirectionDeposit)
		assert.ErrorIs(t, err, errs.ErrRateUnavailable)
	})
}

func TestConvertUnsupportedTarget(t *testing.T) {
	conv, _, _ := newTestConverter(t, 100)
	_, err := conv.Convert(context.Background(), usd(1000), "XYZ", DirectionDeposit)
	assert.ErrorIs(t, err, errs.ErrInvalidCurrency)
}
