package gateway

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	razorpay "github.com/razorpay/razorpay-go"
)

// RazorpayGateway creates and fetches orders through the Razorpay SDK.
type RazorpayGateway struct {
	client *razorpay.Client
}

func NewRazorpayGateway(keyID, keySecret string) *RazorpayGateway {
	return &RazorpayGateway{client: razorpay.NewClient(keyID, keySecret)}
}

func (g *RazorpayGateway) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	notes := make(map[string]interface{}, len(req.Notes))
	for k, v := range req.Notes {
		notes[k] = v
	}
	data := map[string]interface{}{
		"amount":          req.Amount,
		"currency":        req.Currency,
		"receipt":         req.Receipt,
		"payment_capture": 1,
		"notes":           notes,
	}

	body, err := g.client.Order.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay order create failed: %w", err)
	}
	return orderFromMap(body), nil
}

func (g *RazorpayGateway) FetchOrder(ctx context.Context, orderID string) (*Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, err := g.client.Order.Fetch(orderID, nil, nil)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "does not exist") {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("razorpay order fetch failed: %w", err)
	}
	return orderFromMap(body), nil
}

func orderFromMap(body map[string]interface{}) *Order {
	order := &Order{
		ID:       stringValue(body["id"]),
		Amount:   int64Value(body["amount"]),
		Currency: stringValue(body["currency"]),
		Receipt:  stringValue(body["receipt"]),
		Status:   stringValue(body["status"]),
		Notes:    map[string]string{},
	}
	// Razorpay returns an empty JSON array rather than an object when notes are empty.
	if notes, ok := body["notes"].(map[string]interface{}); ok {
		for k, v := range notes {
			order.Notes[k] = stringValue(v)
		}
	}
	return order
}

func stringValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func int64Value(v interface{}) int64 {
	switch t := v.(type) {
	case float64:
		return int64(t)
	case int64:
		return t
	case int:
		return int64(t)
	case string:
		n, _ := strconv.ParseInt(t, 10, 64)
		return n
	default:
		return 0
	}
}
