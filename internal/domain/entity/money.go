package entity

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	errs "github.com/amoria-global/faxon-sub002/internal/domain/error"
)

// currencyDecimals maps supported currency codes to the number of decimal places
// carried on the wire and in storage. The regional base currency (RWF) has none.
var currencyDecimals = map[string]int32{
	"RWF": 0,
	"USD": 2,
	"EUR": 2,
	"GBP": 2,
	"KES": 2,
	"UGX": 0,
}

// IsSupportedCurrency reports whether the currency code is one the engine handles
func IsSupportedCurrency(code string) bool {
	_, ok := currencyDecimals[strings.ToUpper(code)]
	return ok
}

// CurrencyDecimals returns the number of decimal places for a supported currency
func CurrencyDecimals(code string) (int32, error) {
	d, ok := currencyDecimals[strings.ToUpper(code)]
	if !ok {
		return 0, fmt.Errorf("%w: %s", errs.ErrInvalidCurrency, code)
	}
	return d, nil
}

// Amount is a fixed-point monetary value: an integer count of the currency's
// minor units (cents for USD, whole francs for RWF). Arithmetic on minor units
// keeps split and settlement math exact.
type Amount struct {
	MinorUnits int64
	Currency   string
}

// NewAmount creates an Amount from minor units
func NewAmount(minorUnits int64, currency string) (Amount, error) {
	currency = strings.ToUpper(currency)
	if !IsSupportedCurrency(currency) {
		return Amount{}, fmt.Errorf("%w: %s", errs.ErrInvalidCurrency, currency)
	}
	return Amount{MinorUnits: minorUnits, Currency: currency}, nil
}

// ParseAmount validates and converts a user-facing decimal string ("100.00",
// "2500") into an Amount in the currency's minor units. Values with more decimal
// places than the currency carries are rejected rather than rounded.
func ParseAmount(value, currency string) (Amount, error) {
	currency = strings.ToUpper(currency)
	decimals, err := CurrencyDecimals(currency)
	if err != nil {
		return Amount{}, err
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return Amount{}, fmt.Errorf("%w: empty value", errs.ErrInvalidAmount)
	}

	d, err := decimal.NewFromString(value)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %s", errs.ErrInvalidAmount, value)
	}
	if d.Sign() <= 0 {
		return Amount{}, errs.ErrNegativeAmount
	}
	if d.Exponent() < -decimals {
		return Amount{}, fmt.Errorf("%w: %s carries at most %d decimal places",
			errs.ErrInvalidAmount, currency, decimals)
	}

	minor := d.Shift(decimals)
	if !minor.IsInteger() {
		return Amount{}, fmt.Errorf("%w: %s", errs.ErrInvalidAmount, value)
	}

	return Amount{MinorUnits: minor.IntPart(), Currency: currency}, nil
}

// String formats the amount as a decimal string with the currency's decimal places
func (a Amount) String() string {
	decimals, err := CurrencyDecimals(a.Currency)
	if err != nil {
		decimals = 2
	}
	return decimal.New(a.MinorUnits, -decimals).StringFixed(decimals)
}

// IsZero reports whether the amount is zero
func (a Amount) IsZero() bool {
	return a.MinorUnits == 0
}

// Negate returns the amount with its sign flipped, used for refund ledger entries
func (a Amount) Negate() Amount {
	return Amount{MinorUnits: -a.MinorUnits, Currency: a.Currency}
}

// Decimal returns the amount as a decimal in major units (e.g. 10000 cents -> 100.00)
func (a Amount) Decimal() decimal.Decimal {
	decimals, err := CurrencyDecimals(a.Currency)
	if err != nil {
		decimals = 2
	}
	return decimal.New(a.MinorUnits, -decimals)
}

// AmountFromDecimal converts a major-unit decimal value into an Amount, rounding
// half-up to the target currency's minor unit. Zero-decimal currencies round to
// the nearest whole unit.
func AmountFromDecimal(d decimal.Decimal, currency string) (Amount, error) {
	currency = strings.ToUpper(currency)
	decimals, err := CurrencyDecimals(currency)
	if err != nil {
		return Amount{}, err
	}
	minor := d.Shift(decimals).Round(0)
	return Amount{MinorUnits: minor.IntPart(), Currency: currency}, nil
}
