package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Money is an amount in integer minor units (grosze, cents) and an ISO currency code.
type Money struct {
	Amount   int64
	Currency string
}

func NewMoney(amount int64, currency string) (Money, error) {
	if amount < 0 {
		return Money{}, errors.New("amount cannot be negative")
	}
	if len(currency) != 3 {
		return Money{}, errors.New("currency must be a 3 letter ISO code")
	}
	return Money{Amount: amount, Currency: strings.ToUpper(currency)}, nil
}

// PaymentMethod is how the customer settles the order.
type PaymentMethod string

const (
	MethodCash           PaymentMethod = "CASH"
	MethodOnSiteTerminal PaymentMethod = "ON_SITE_TERMINAL"
	MethodOnline         PaymentMethod = "ONLINE"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodOnSiteTerminal, MethodOnline:
		return true
	}
	return false
}

// ParseMinorUnits coerces a gateway-supplied amount into minor units.
// Gateways send amounts as JSON numbers, numeric strings or form values;
// anything with a fractional part is rejected rather than rounded.
func ParseMinorUnits(v any) (int64, error) {
	switch n := v.(type) {
	case nil:
		return 0, NewMissingRequiredFieldError("amount")
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%w: %v is not an integer amount", ErrInvalidAmount, n)
		}
	case string:
		return parseDecimalAmount(n)
	}

	amount, err := cast.ToInt64E(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if amount < 0 {
		return 0, NewInvalidAmountError(amount)
	}
	return amount, nil
}

// parseDecimalAmount reads a base-10 amount. A zero fraction ("4250.00") is
// accepted, anything else after the point is not.
func parseDecimalAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, NewMissingRequiredFieldError("amount")
	}
	if whole, frac, ok := strings.Cut(s, "."); ok && strings.Trim(frac, "0") == "" {
		s = whole
	}

	amount, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if amount < 0 {
		return 0, NewInvalidAmountError(amount)
	}
	return amount, nil
}
