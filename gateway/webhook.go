package gateway

import (
	"encoding/json"
	"fmt"
)

const EventPaymentCaptured = "payment.captured"

// WebhookEvent is the subset of a provider webhook the service reads.
type WebhookEvent struct {
	Event     string `json:"event"`
	AccountID string `json:"account_id"`
	CreatedAt int64  `json:"created_at"`
	Payload   struct {
		Payment struct {
			Entity PaymentEntity `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

type PaymentEntity struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
	Method   string `json:"method"`
}

// ParseWebhookEvent decodes a verified webhook body.
func ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("invalid webhook payload: %w", err)
	}
	return &event, nil
}

// Payment returns the payment entity carried by the event.
func (e *WebhookEvent) Payment() PaymentEntity {
	return e.Payload.Payment.Entity
}
