package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Routing keys published on the events exchange.
const (
	BookingCreated   = "booking.created"
	BookingUpdated   = "booking.updated"
	BookingCancelled = "booking.cancelled"
	BookingAssigned  = "booking.assigned"
	BookingCompleted = "booking.completed"
	PlanActivated    = "plan.activated"
	PlanExpired      = "plan.expired"
	PaymentRecorded  = "payment.recorded"
)

// Publisher delivers domain events. Publishing is best-effort: callers log
// failures and carry on.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, data interface{}) error
	Close()
}

// Envelope wraps every published payload.
type Envelope struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurredAt"`
	Data       interface{} `json:"data"`
}

func NewEnvelope(routingKey string, data interface{}) Envelope {
	return Envelope{
		ID:         uuid.NewString(),
		Type:       routingKey,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}
