package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"agrispray/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newAccount(email, role string) *models.Account {
	return &models.Account{
		ID:        primitive.NewObjectID(),
		Name:      "Test",
		Email:     email,
		Type:      role,
		CreatedAt: time.Now(),
	}
}

func TestMemoryAccountStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryAccountStore()

	farmer := newAccount("farmer@example.com", models.RoleFarmer)
	require.NoError(t, store.Create(ctx, farmer))
	assert.ErrorIs(t, store.Create(ctx, newAccount("FARMER@example.com", models.RoleFarmer)), ErrDuplicate)

	found, err := store.FindByEmail(ctx, "Farmer@Example.com")
	require.NoError(t, err)
	assert.Equal(t, farmer.ID, found.ID)

	// Returned values are copies.
	found.Name = "changed"
	again, err := store.FindByID(ctx, farmer.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test", again.Name)

	_, err = store.FindByID(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryAccountStoreVersioning(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryAccountStore()
	account := newAccount("v@example.com", models.RoleFarmer)
	require.NoError(t, store.Create(ctx, account))

	first, err := store.FindByID(ctx, account.ID)
	require.NoError(t, err)
	second, err := store.FindByID(ctx, account.ID)
	require.NoError(t, err)

	first.Name = "first"
	require.NoError(t, store.Update(ctx, first))
	assert.Equal(t, int64(1), first.Version)

	second.Name = "second"
	assert.ErrorIs(t, store.Update(ctx, second), ErrVersionConflict)

	stored, err := store.FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", stored.Name)
}

func TestMemoryAccountStoreList(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryAccountStore()

	farmer := newAccount("a@example.com", models.RoleFarmer)
	farmer.PlanActive = true
	sprayer := newAccount("b@example.com", models.RoleSprayer)
	sprayer.CreatedAt = farmer.CreatedAt.Add(time.Second)
	sprayer.PendingPayments = []models.PendingPayment{{OrderID: "order_1"}}
	require.NoError(t, store.Create(ctx, farmer))
	require.NoError(t, store.Create(ctx, sprayer))

	all, err := store.List(ctx, AccountFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, farmer.ID, all[0].ID)

	active := true
	withPlan, err := store.List(ctx, AccountFilter{PlanActive: &active})
	require.NoError(t, err)
	require.Len(t, withPlan, 1)
	assert.Equal(t, farmer.ID, withPlan[0].ID)

	pending, err := store.List(ctx, AccountFilter{HasPendingPayments: true})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, sprayer.ID, pending[0].ID)

	sprayers, err := store.List(ctx, AccountFilter{Role: models.RoleSprayer})
	require.NoError(t, err)
	assert.Len(t, sprayers, 1)

	second, err := store.List(ctx, AccountFilter{Skip: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, sprayer.ID, second[0].ID)

	beyond, err := store.List(ctx, AccountFilter{Skip: 5})
	require.NoError(t, err)
	assert.Empty(t, beyond)

	total, err := store.Count(ctx, AccountFilter{Skip: 1, Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	farmers, err := store.Count(ctx, AccountFilter{Role: models.RoleFarmer})
	require.NoError(t, err)
	assert.EqualValues(t, 1, farmers)
}

func newBooking(owner primitive.ObjectID) *models.Booking {
	return &models.Booking{
		ID:          primitive.NewObjectID(),
		UserID:      owner,
		SpraysCount: 1,
		Status:      models.BookingStatusPending,
		CreatedAt:   time.Now(),
	}
}

func TestMemoryBookingStoreOpenBooking(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryBookingStore()
	owner := primitive.NewObjectID()

	first := newBooking(owner)
	require.NoError(t, store.Create(ctx, first))
	assert.ErrorIs(t, store.Create(ctx, newBooking(owner)), ErrOpenBooking)

	open, err := store.FindOpenByAccount(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, first.ID, open.ID)

	first.Status = models.BookingStatusCancelled
	require.NoError(t, store.Update(ctx, first))
	_, err = store.FindOpenByAccount(ctx, owner)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Create(ctx, newBooking(owner)))
	listed, err := store.ListByAccount(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}

func TestMemoryBookingStoreActiveSlot(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryBookingStore()
	sprayer := primitive.NewObjectID()
	slot := time.Date(2026, 5, 1, 6, 30, 0, 0, time.UTC)

	a := newBooking(primitive.NewObjectID())
	b := newBooking(primitive.NewObjectID())
	require.NoError(t, store.Create(ctx, a))
	require.NoError(t, store.Create(ctx, b))

	schedule := func(booking *models.Booking, at time.Time) {
		booking.ScheduleDate = &at
		booking.AssignedSprayer = &sprayer
		booking.Status = models.BookingStatusInProgress
	}

	schedule(a, slot)
	require.NoError(t, store.Update(ctx, a))

	schedule(b, slot.In(time.FixedZone("IST", 5*3600+1800)))
	assert.ErrorIs(t, store.Update(ctx, b), ErrSlotTaken)

	stored, err := store.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, stored.Status)

	a.Status = models.BookingStatusCompleted
	require.NoError(t, store.Update(ctx, a))

	// b still carries the version it was read at.
	require.NoError(t, store.Update(ctx, b))

	inProgress, err := store.ListByStatuses(ctx, models.BookingStatusInProgress)
	require.NoError(t, err)
	require.Len(t, inProgress, 1)
	assert.Equal(t, b.ID, inProgress[0].ID)
}

// conflictingStore fails the first n updates with a version conflict.
type conflictingStore struct {
	*MemoryAccountStore
	conflicts int
	updates   int
}

func (s *conflictingStore) Update(ctx context.Context, account *models.Account) error {
	s.updates++
	if s.conflicts > 0 {
		s.conflicts--
		return ErrVersionConflict
	}
	return s.MemoryAccountStore.Update(ctx, account)
}

func TestMutateAccountRetries(t *testing.T) {
	ctx := context.Background()
	store := &conflictingStore{MemoryAccountStore: NewMemoryAccountStore(), conflicts: 2}
	account := newAccount("m@example.com", models.RoleFarmer)
	require.NoError(t, store.Create(ctx, account))

	calls := 0
	updated, err := MutateAccount(ctx, store, account.ID, func(a *models.Account) error {
		calls++
		a.Phone = "12345"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, "12345", updated.Phone)

	store.conflicts = 5
	_, err = MutateAccount(ctx, store, account.ID, func(a *models.Account) error { return nil })
	assert.ErrorIs(t, err, ErrVersionConflict)
}

func TestMutateAccountAttempts(t *testing.T) {
	ctx := context.Background()
	store := &conflictingStore{MemoryAccountStore: NewMemoryAccountStore(), conflicts: 5}
	account := newAccount("c@example.com", models.RoleFarmer)
	require.NoError(t, store.Create(ctx, account))

	updated, err := MutateAccountAttempts(ctx, store, account.ID, CompensationAttempts, func(a *models.Account) error {
		a.Phone = "555"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "555", updated.Phone)
	assert.Equal(t, 6, store.updates)

	store.conflicts = 5
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = MutateAccountAttempts(cancelled, store, account.ID, CompensationAttempts, func(a *models.Account) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMutateAccountSkipAndAbort(t *testing.T) {
	ctx := context.Background()
	store := &conflictingStore{MemoryAccountStore: NewMemoryAccountStore()}
	account := newAccount("s@example.com", models.RoleFarmer)
	require.NoError(t, store.Create(ctx, account))

	_, err := MutateAccount(ctx, store, account.ID, func(a *models.Account) error { return ErrSkipWrite })
	require.NoError(t, err)
	assert.Zero(t, store.updates)

	boom := errors.New("boom")
	_, err = MutateAccount(ctx, store, account.ID, func(a *models.Account) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, store.updates)

	_, err = MutateAccount(ctx, store, primitive.NewObjectID(), func(a *models.Account) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}
