package entity

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	errs "github.com/amoria-global/faxon-sub002/internal/domain/error"
)

func TestParseAmount(t *testing.T) {
	t.Run("Valid amounts", func(t *testing.T) {
		testCases := []struct {
			input    string
			currency string
			expected int64
		}{
			{"100.00", "USD", 10000},
			{"0.01", "USD", 1},
			{"1.5", "USD", 150},
			{"1234567.89", "USD", 123456789},
			{"2500", "RWF", 2500},
			{"1", "USD", 100},
		}

		for _, tc := range testCases {
			t.Run(tc.input+" "+tc.currency, func(t *testing.T) {
				amount, err := ParseAmount(tc.input, tc.currency)
				assert.NoError(t, err)
				assert.Equal(t, tc.expected, amount.MinorUnits)
				assert.Equal(t, tc.currency, amount.Currency)
			})
		}
	})

	t.Run("Invalid amounts", func(t *testing.T) {
		testCases := []struct {
			description string
			input       string
			currency    string
			errorType   error
		}{
			{"Empty string", "", "USD", errs.ErrInvalidAmount},
			{"Whitespace only", "   ", "USD", errs.ErrInvalidAmount},
			{"Negative", "-1.00", "USD", errs.ErrNegativeAmount},
			{"Zero", "0.00", "USD", errs.ErrNegativeAmount},
			{"Too many decimals for USD", "1.234", "USD", errs.ErrInvalidAmount},
			{"Decimals on zero-decimal currency", "100.50", "RWF", errs.ErrInvalidAmount},
			{"Non-numeric", "abc", "USD", errs.ErrInvalidAmount},
			{"Unknown currency", "10.00", "XYZ", errs.ErrInvalidCurrency},
		}

		for _, tc := range testCases {
			t.Run(tc.description, func(t *testing.T) {
				_, err := ParseAmount(tc.input, tc.currency)
				assert.Error(t, err)
				assert.ErrorIs(t, err, tc.errorType)
			})
		}
	})
}

func TestAmountString(t *testing.T) {
	testCases := []struct {
		minorUnits int64
		currency   string
		expected   string
	}{
		{10000, "USD", "100.00"},
		{1, "USD", "0.01"},
		{150, "USD", "1.50"},
		{2500, "RWF", "2500"},
		{-438, "USD", "-4.38"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			a := Amount{MinorUnits: tc.minorUnits, Currency: tc.currency}
			assert.Equal(t, tc.expected, a.String())
		})
	}
}

func TestAmountFromDecimal(t *testing.T) {
	t.Run("Two-decimal currency rounds to the cent", func(t *testing.T) {
		d := decimal.RequireFromString("78.954")
		a, err := AmountFromDecimal(d, "USD")
		assert.NoError(t, err)
		assert.Equal(t, int64(7895), a.MinorUnits)
	})

	t.Run("Zero-decimal currency rounds half-up to the unit", func(t *testing.T) {
		d := decimal.RequireFromString("1250.5")
		a, err := AmountFromDecimal(d, "RWF")
		assert.NoError(t, err)
		assert.Equal(t, int64(1251), a.MinorUnits)
	})

	t.Run("Unknown currency rejected", func(t *testing.T) {
		_, err := AmountFromDecimal(decimal.NewFromInt(10), "XYZ")
		assert.ErrorIs(t, err, errs.ErrInvalidCurrency)
	})
}

func TestAmountNegate(t *testing.T) {
	a := Amount{MinorUnits: 7895, Currency: "USD"}
	n := a.Negate()
	assert.Equal(t, int64(-7895), n.MinorUnits)
	assert.Equal(t, "USD", n.Currency)
	assert.Equal(t, a.MinorUnits, n.Negate().MinorUnits)
}
