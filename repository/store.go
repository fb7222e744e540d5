package repository

import (
	"context"
	"errors"

	"agrispray/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrVersionConflict = errors.New("record was modified concurrently")
	ErrDuplicate       = errors.New("duplicate record")
	ErrSlotTaken       = errors.New("schedule slot already taken")
	ErrOpenBooking     = errors.New("account already has an open booking")
)

// AccountFilter narrows List results. Zero values match everything.
// Skip and Limit page the sorted result; Count ignores them.
type AccountFilter struct {
	Role               string
	PlanActive         *bool
	HasPendingPayments bool
	Skip               int64
	Limit              int64
}

// AccountStore persists accounts. Update is conditional on the account's
// Version and bumps it on success.
type AccountStore interface {
	Create(ctx context.Context, account *models.Account) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	List(ctx context.Context, filter AccountFilter) ([]*models.Account, error)
	Count(ctx context.Context, filter AccountFilter) (int64, error)
	Update(ctx context.Context, account *models.Account) error
	Ping(ctx context.Context) error
}

// BookingStore persists bookings. Create and Update reject a second open
// booking for the same account (ErrOpenBooking) and a second open booking on
// the same schedule slot (ErrSlotTaken).
type BookingStore interface {
	Create(ctx context.Context, booking *models.Booking) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error)
	Update(ctx context.Context, booking *models.Booking) error
	FindOpenByAccount(ctx context.Context, userID primitive.ObjectID) (*models.Booking, error)
	ListByAccount(ctx context.Context, userID primitive.ObjectID) ([]*models.Booking, error)
	ListByStatuses(ctx context.Context, statuses ...string) ([]*models.Booking, error)
}
