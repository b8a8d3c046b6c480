package money

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrInvalidCurrency  = errors.New("money: invalid currency code")
	ErrCurrencyMismatch = errors.New("money: currency mismatch")
	ErrInvalidAmount    = errors.New("money: invalid decimal amount")
	ErrOverflow         = errors.New("money: amount out of range")
)

// DefaultCurrency is used when a listing does not specify one.
const DefaultCurrency = "ETB"

// Money keeps amounts in integer minor units (cents) to avoid floating point issues.
type Money struct {
	Amount   int64
	Currency string
}

// New constructs a Money value validating minimal invariants.
func New(amount int64, currency string) (Money, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if len(currency) != 3 {
		return Money{}, ErrInvalidCurrency
	}
	return Money{Amount: amount, Currency: currency}, nil
}

// Must creates Money and panics if validation fails; useful in tests and fixtures.
func Must(amount int64, currency string) Money {
	m, err := New(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Parse reads a decimal string with at most two fractional digits ("100",
// "99.5", "12.34"). Only a single leading '-' is accepted as a sign.
func Parse(value, currency string) (Money, error) {
	raw := strings.TrimSpace(value)
	negative := strings.HasPrefix(raw, "-")
	raw = strings.TrimPrefix(raw, "-")
	whole, frac, hasFrac := strings.Cut(raw, ".")
	if !digitsOnly(whole) || (hasFrac && (len(frac) > 2 || !digitsOnly(frac))) {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}
	var units int64
	for _, d := range whole {
		if units > (math.MaxInt64-9)/10 {
			return Money{}, fmt.Errorf("%w: %q", ErrOverflow, value)
		}
		units = units*10 + int64(d-'0')
	}
	if units > (math.MaxInt64-99)/100 {
		return Money{}, fmt.Errorf("%w: %q", ErrOverflow, value)
	}
	cents := int64(0)
	for i := 0; i < 2; i++ {
		cents *= 10
		if i < len(frac) {
			cents += int64(frac[i] - '0')
		}
	}
	amount := units*100 + cents
	if negative {
		amount = -amount
	}
	return New(amount, currency)
}

func digitsOnly(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Add adds two money values ensuring currencies match.
func (m Money) Add(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	sum := m.Amount + other.Amount
	if (other.Amount > 0 && sum < m.Amount) || (other.Amount < 0 && sum > m.Amount) {
		return Money{}, ErrOverflow
	}
	return Money{Amount: sum, Currency: m.Currency}, nil
}

// Multiply scales the amount by a non-negative factor. ErrOverflow is
// returned when the product does not fit in int64 minor units.
func (m Money) Multiply(times int64) (Money, error) {
	if times < 0 {
		return Money{}, fmt.Errorf("%w: negative factor %d", ErrInvalidAmount, times)
	}
	if times != 0 && (m.Amount > math.MaxInt64/times || m.Amount < math.MinInt64/times) {
		return Money{}, fmt.Errorf("%w: %s x %d", ErrOverflow, m, times)
	}
	return Money{Amount: m.Amount * times, Currency: m.Currency}, nil
}

func (m Money) IsZero() bool {
	return m.Amount == 0
}

func (m Money) IsPositive() bool {
	return m.Amount > 0
}

// Decimal renders the amount as a plain decimal string with two fractional digits.
func (m Money) Decimal() string {
	amount := m.Amount
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d", sign, amount/100, amount%100)
}

func (m Money) String() string {
	return m.Decimal() + " " + m.Currency
}

func (m Money) ensureSameCurrency(other Money) error {
	if m.Currency == "" || other.Currency == "" {
		return ErrInvalidCurrency
	}
	if m.Currency != other.Currency {
		return ErrCurrencyMismatch
	}
	return nil
}
