package events

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogPublisher logs events instead of sending them. It is used when no broker
// is configured or the broker is unreachable at startup.
type LogPublisher struct {
	logger *logrus.Entry
}

func NewLogPublisher(logger *logrus.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.WithField("component", "events")}
}

func (p *LogPublisher) Publish(ctx context.Context, routingKey string, data interface{}) error {
	envelope := NewEnvelope(routingKey, data)
	p.logger.WithFields(logrus.Fields{
		"event_id":    envelope.ID,
		"routing_key": routingKey,
	}).Debug("Event published to log")
	return nil
}

func (p *LogPublisher) Close() {}
