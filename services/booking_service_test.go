package services

import (
	"context"
	"testing"
	"time"

	"agrispray/events"
	"agrispray/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestBookingScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	farmer := env.createAccount(t, models.RoleFarmer)

	_, err := env.booking.CreateBooking(ctx, farmer.ID, bookReq(1))
	require.ErrorIs(t, err, ErrNoActivePlan)
	assert.Equal(t, 400, AsAppError(err).Kind.HTTPStatus())

	_, err = env.plans.PurchasePlan(ctx, farmer.ID, models.PurchasePlanRequest{PlanID: "starter", Title: "Starter Plan", Price: "499", Duration: "1"})
	require.NoError(t, err)
	assert.Equal(t, 2, activePlanOf(t, env.account(t, farmer.ID), env.clock.Now()).SpraysAllowed)

	first, err := env.booking.CreateBooking(ctx, farmer.ID, bookReq(1))
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, first.Status)
	assert.Equal(t, "Starter Plan", first.ServiceTitle)
	assert.Equal(t, models.DefaultOrchid, first.Orchid)

	_, err = env.booking.CreateBooking(ctx, farmer.ID, bookReq(1))
	require.ErrorIs(t, err, ErrConflictingBooking)
	assert.Equal(t, 1, activePlanOf(t, env.account(t, farmer.ID), env.clock.Now()).SpraysUsed)

	_, err = env.booking.CancelBooking(ctx, farmer.ID, first.ID)
	require.NoError(t, err)
	stored := env.account(t, farmer.ID)
	assert.Equal(t, 0, activePlanOf(t, stored, env.clock.Now()).SpraysUsed)
	assert.NotContains(t, stored.BookedServices, first.ID)

	second, err := env.booking.CreateBooking(ctx, farmer.ID, bookReq(1))
	require.NoError(t, err)
	assert.Contains(t, env.account(t, farmer.ID).BookedServices, second.ID)
}

func TestCreateBookingQuotaMessage(t *testing.T) {
	env := newTestEnv(t)
	farmer := env.farmerWithPlan(t, "Starter Plan")

	_, err := env.booking.CreateBooking(context.Background(), farmer.ID, bookReq(3))
	require.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Equal(t, "Only 2 sprays remaining on your plan", err.Error())
	assert.Equal(t, 0, activePlanOf(t, env.account(t, farmer.ID), env.clock.Now()).SpraysUsed)
}

func TestCreateBookingRejectsNonFarmers(t *testing.T) {
	env := newTestEnv(t)
	sprayer := env.createAccount(t, models.RoleSprayer)

	_, err := env.booking.CreateBooking(context.Background(), sprayer.ID, bookReq(1))
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCreateThenCancelRestoresQuota(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	farmer := env.farmerWithPlan(t, "Premium Plan")

	booking, err := env.booking.CreateBooking(ctx, farmer.ID, bookReq(3))
	require.NoError(t, err)
	assert.Equal(t, 3, activePlanOf(t, env.account(t, farmer.ID), env.clock.Now()).SpraysUsed)

	_, err = env.booking.CancelBooking(ctx, farmer.ID, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, activePlanOf(t, env.account(t, farmer.ID), env.clock.Now()).SpraysUsed)

	_, err = env.booking.CancelBooking(ctx, farmer.ID, booking.ID)
	assert.ErrorIs(t, err, ErrNotCancellable)
}

func TestCancelSucceedsWithoutActivePlan(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	farmer := env.farmerWithPlan(t, "Starter Plan")

	booking, err := env.booking.CreateBooking(ctx, farmer.ID, bookReq(1))
	require.NoError(t, err)

	env.clock.Advance(40 * 24 * time.Hour)
	cancelled, err := env.booking.CancelBooking(ctx, farmer.ID, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)
}

func TestEditBookingQuota(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	farmer := env.farmerWithPlan(t, "Pro Plan")

	booking, err := env.booking.CreateBooking(ctx, farmer.ID, bookReq(1))
	require.NoError(t, err)

	three := 3
	field := "South plot"
	edited, err := env.booking.EditBooking(ctx, farmer.ID, booking.ID, models.EditBookingRequest{SpraysCount: &three, Field: &field})
	require.NoError(t, err)
	assert.Equal(t, 3, edited.SpraysCount)
	assert.Equal(t, "South plot", edited.Field)
	assert.Equal(t, 3, activePlanOf(t, env.account(t, farmer.ID), env.clock.Now()).SpraysUsed)

	// A shortfall aborts the whole edit.
	four := 4
	other := "East plot"
	_, err = env.booking.EditBooking(ctx, farmer.ID, booking.ID, models.EditBookingRequest{SpraysCount: &four, Field: &other})
	require.ErrorIs(t, err, ErrQuotaExceeded)
	stored, err := env.bookings.FindByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.SpraysCount)
	assert.Equal(t, "South plot", stored.Field)
	assert.Equal(t, 3, activePlanOf(t, env.account(t, farmer.ID), env.clock.Now()).SpraysUsed)

	one := 1
	_, err = env.booking.EditBooking(ctx, farmer.ID, booking.ID, models.EditBookingRequest{SpraysCount: &one})
	require.NoError(t, err)
	assert.Equal(t, 1, activePlanOf(t, env.account(t, farmer.ID), env.clock.Now()).SpraysUsed)
}

func TestEditBookingGuards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	farmer := env.farmerWithPlan(t, "Pro Plan")
	sprayer := env.createAccount(t, models.RoleSprayer)

	booking, err := env.booking.CreateBooking(ctx, farmer.ID, bookReq(1))
	require.NoError(t, err)

	stranger := env.createAccount(t, models.RoleFarmer)
	_, err = env.booking.EditBooking(ctx, stranger.ID, booking.ID, models.EditBookingRequest{})
	assert.ErrorIs(t, err, ErrBookingNotFound)

	_, err = env.booking.AcceptService(ctx, booking.ID, sprayer.ID)
	require.NoError(t, err)

	notes := "call first"
	_, err = env.booking.EditBooking(ctx, farmer.ID, booking.ID, models.EditBookingRequest{Notes: &notes})
	assert.ErrorIs(t, err, ErrNotEditable)

	_, err = env.booking.CancelBooking(ctx, farmer.ID, booking.ID)
	assert.ErrorIs(t, err, ErrNotCancellable)
}

func TestAssignSlot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sprayer := env.createAccount(t, models.RoleSprayer)
	farmerA := env.farmerWithPlan(t, "Starter Plan")
	farmerB := env.farmerWithPlan(t, "Starter Plan")

	bookingA, err := env.booking.CreateBooking(ctx, farmerA.ID, bookReq(1))
	require.NoError(t, err)
	bookingB, err := env.booking.CreateBooking(ctx, farmerB.ID, bookReq(1))
	require.NoError(t, err)

	slot := time.Date(2026, 3, 12, 7, 0, 0, 0, time.UTC)
	assigned, err := env.booking.AssignSlot(ctx, bookingA.ID, sprayer.ID, slot)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusInProgress, assigned.Status)
	assert.Equal(t, sprayer.ID, *assigned.AssignedSprayer)

	_, err = env.booking.AssignSlot(ctx, bookingB.ID, sprayer.ID, slot)
	require.ErrorIs(t, err, ErrSlotTaken)

	original, err := env.bookings.FindByID(ctx, bookingA.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusInProgress, original.Status)
	pendingB, err := env.bookings.FindByID(ctx, bookingB.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, pendingB.Status)

	mirror := env.account(t, sprayer.ID).AssignedServices
	require.Len(t, mirror, 1)
	assert.Equal(t, bookingA.ID, mirror[0].ServiceID)
	assert.Equal(t, farmerA.ID, mirror[0].FarmerID)

	_, err = env.booking.AssignSlot(ctx, bookingA.ID, sprayer.ID, slot.Add(time.Hour))
	assert.ErrorIs(t, err, ErrNotPending)

	_, err = env.booking.AssignSlot(ctx, bookingB.ID, farmerA.ID, slot.Add(time.Hour))
	assert.ErrorIs(t, err, ErrSprayerNotFound)

	// Completing the first booking frees the slot.
	_, err = env.booking.CompleteService(ctx, bookingA.ID, sprayer.ID)
	require.NoError(t, err)
	_, err = env.booking.AssignSlot(ctx, bookingB.ID, sprayer.ID, slot)
	assert.NoError(t, err)
}

func TestAcceptAndCompleteService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	farmer := env.farmerWithPlan(t, "Starter Plan")
	sprayer := env.createAccount(t, models.RoleSprayer)
	other := env.createAccount(t, models.RoleSprayer)

	booking, err := env.booking.CreateBooking(ctx, farmer.ID, bookReq(1))
	require.NoError(t, err)

	_, err = env.booking.CompleteService(ctx, booking.ID, sprayer.ID)
	assert.ErrorIs(t, err, ErrNotAssigned)

	accepted, err := env.booking.AcceptService(ctx, booking.ID, sprayer.ID)
	require.NoError(t, err)
	assert.Equal(t, env.clock.Now(), *accepted.ScheduleDate)

	_, err = env.booking.AcceptService(ctx, booking.ID, other.ID)
	assert.ErrorIs(t, err, ErrNotPending)

	_, err = env.booking.CompleteService(ctx, booking.ID, other.ID)
	assert.ErrorIs(t, err, ErrNotAssigned)
	assert.Equal(t, 403, AsAppError(err).Kind.HTTPStatus())

	env.clock.Advance(3 * time.Hour)
	completed, err := env.booking.CompleteService(ctx, booking.ID, sprayer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCompleted, completed.Status)
	assert.Equal(t, env.clock.Now(), *completed.CompletedAt)

	mirror := env.account(t, sprayer.ID).AssignedServices
	require.Len(t, mirror, 1)
	assert.Equal(t, models.BookingStatusCompleted, mirror[0].Status)

	_, err = env.booking.CompleteService(ctx, booking.ID, sprayer.ID)
	assert.ErrorIs(t, err, ErrNotInProgress)

	assert.Subset(t, env.publisher.Keys(), []string{events.BookingCreated, events.BookingAssigned, events.BookingCompleted})

	// A completed booking no longer blocks a new one.
	_, err = env.booking.CreateBooking(ctx, farmer.ID, bookReq(1))
	assert.NoError(t, err)
}

func TestListServices(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	farmer := env.farmerWithPlan(t, "Starter Plan")
	sprayer := env.createAccount(t, models.RoleSprayer)

	booking, err := env.booking.CreateBooking(ctx, farmer.ID, bookReq(1))
	require.NoError(t, err)

	listings, err := env.booking.ListServices(ctx, "")
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, farmer.Name, listings[0].UserName)
	assert.Equal(t, farmer.Phone, listings[0].UserPhone)

	_, err = env.booking.AcceptService(ctx, booking.ID, sprayer.ID)
	require.NoError(t, err)

	pending, err := env.booking.ListServices(ctx, models.BookingStatusPending)
	require.NoError(t, err)
	assert.Empty(t, pending)

	inProgress, err := env.booking.ListServices(ctx, models.BookingStatusInProgress)
	require.NoError(t, err)
	assert.Len(t, inProgress, 1)

	_, err = env.booking.ListServices(ctx, "Unknown")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAddFeedback(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	farmer := env.farmerWithPlan(t, "Starter Plan")
	sprayer := env.createAccount(t, models.RoleSprayer)

	booking, err := env.booking.CreateBooking(ctx, farmer.ID, bookReq(1))
	require.NoError(t, err)

	_, err = env.booking.AddFeedback(ctx, farmer.ID, booking.ID, models.FeedbackRequest{Rating: 5})
	assert.ErrorIs(t, err, ErrNotCompleted)

	_, err = env.booking.AcceptService(ctx, booking.ID, sprayer.ID)
	require.NoError(t, err)
	_, err = env.booking.CompleteService(ctx, booking.ID, sprayer.ID)
	require.NoError(t, err)

	updated, err := env.booking.AddFeedback(ctx, farmer.ID, booking.ID, models.FeedbackRequest{Rating: 4, Comment: " tidy work "})
	require.NoError(t, err)
	require.Len(t, updated.Feedback, 1)
	assert.Equal(t, 4, updated.Feedback[0].Rating)
	assert.Equal(t, "tidy work", updated.Feedback[0].Comment)

	_, err = env.booking.AddFeedback(ctx, primitive.NewObjectID(), booking.ID, models.FeedbackRequest{Rating: 4})
	assert.ErrorIs(t, err, ErrBookingNotFound)
}
