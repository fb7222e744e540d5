package services

import (
	"context"
	"time"

	"agrispray/events"
	"agrispray/models"
	"agrispray/repository"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const operationTimeout = 10 * time.Second

// Dependencies are shared by every service.
type Dependencies struct {
	Accounts  repository.AccountStore
	Bookings  repository.BookingStore
	Publisher events.Publisher
	Logger    *logrus.Logger
	Clock     func() time.Time
}

// BaseService provides store access, event publishing and logging for all services
type BaseService struct {
	accounts  repository.AccountStore
	bookings  repository.BookingStore
	publisher events.Publisher
	logger    *logrus.Entry
	now       func() time.Time
}

// NewBaseService creates a new base service instance
func NewBaseService(deps Dependencies, component string) *BaseService {
	logger := deps.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.NewLogPublisher(logger)
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &BaseService{
		accounts:  deps.Accounts,
		bookings:  deps.Bookings,
		publisher: publisher,
		logger:    logger.WithField("service", component),
		now:       clock,
	}
}

func (bs *BaseService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, operationTimeout)
}

func (bs *BaseService) loadAccount(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	account, err := bs.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, fromStore(err, ErrAccountNotFound)
	}
	return account, nil
}

func (bs *BaseService) loadBooking(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	booking, err := bs.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, fromStore(err, ErrBookingNotFound)
	}
	return booking, nil
}

// mutateAccount applies fn as a single versioned write.
func (bs *BaseService) mutateAccount(ctx context.Context, id primitive.ObjectID, fn func(*models.Account) error) (*models.Account, error) {
	account, err := repository.MutateAccount(ctx, bs.accounts, id, fn)
	if err != nil {
		return nil, fromStore(err, ErrAccountNotFound)
	}
	return account, nil
}

// compensateAccount is mutateAccount with the larger retry budget used for
// writes that undo an earlier change.
func (bs *BaseService) compensateAccount(ctx context.Context, id primitive.ObjectID, fn func(*models.Account) error) (*models.Account, error) {
	account, err := repository.MutateAccountAttempts(ctx, bs.accounts, id, repository.CompensationAttempts, fn)
	if err != nil {
		return nil, fromStore(err, ErrAccountNotFound)
	}
	return account, nil
}

// publish sends an event without affecting the caller's outcome.
func (bs *BaseService) publish(ctx context.Context, routingKey string, data interface{}) {
	if err := bs.publisher.Publish(ctx, routingKey, data); err != nil {
		bs.logger.WithError(err).WithField("routing_key", routingKey).Warn("Failed to publish event")
	}
}
