package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount = errors.New("price must be a positive amount")
	ErrOrderNotFound = errors.New("gateway order not found")
)

// Note keys written on every order so verification can recover the purchase.
const (
	NoteUserID       = "userId"
	NotePlanID       = "planId"
	NotePlanTitle    = "planTitle"
	NotePlanDuration = "planDuration"
	NotePlanPrice    = "planPrice"
)

// OrderRequest describes an order to create. Amount is in minor units.
type OrderRequest struct {
	Amount   int64
	Currency string
	Receipt  string
	Notes    map[string]string
}

// Order is the gateway's view of an order.
type Order struct {
	ID       string
	Amount   int64
	Currency string
	Receipt  string
	Status   string
	Notes    map[string]string
}

// Gateway is the payment provider capability used by the payment service.
type Gateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	FetchOrder(ctx context.Context, orderID string) (*Order, error)
}

var hundred = decimal.NewFromInt(100)

// ToMinorUnits converts a decimal price such as "499.00" into paise.
func ToMinorUnits(price string) (int64, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(price), ",", "")
	if clean == "" {
		return 0, ErrInvalidAmount
	}
	amount, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, price)
	}
	if !amount.IsPositive() {
		return 0, ErrInvalidAmount
	}
	minor := amount.Mul(hundred).Round(0)
	if !minor.IsPositive() || !minor.BigInt().IsInt64() {
		return 0, ErrInvalidAmount
	}
	return minor.IntPart(), nil
}

// FromMinorUnits renders a minor unit amount as a decimal string, e.g. 49900 -> "499.00".
func FromMinorUnits(amount int64) string {
	return decimal.New(amount, -2).StringFixed(2)
}
