package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"agrispray/events"
	"agrispray/models"
	"agrispray/repository"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BookingEvent is published for every booking state change.
type BookingEvent struct {
	BookingID    string     `json:"bookingId"`
	UserID       string     `json:"userId"`
	Status       string     `json:"status"`
	SpraysCount  int        `json:"spraysCount"`
	SprayerID    string     `json:"sprayerId,omitempty"`
	ScheduleDate *time.Time `json:"scheduleDate,omitempty"`
}

func bookingEvent(b *models.Booking) BookingEvent {
	e := BookingEvent{
		BookingID:    b.ID.Hex(),
		UserID:       b.UserID.Hex(),
		Status:       b.Status,
		SpraysCount:  b.SpraysCount,
		ScheduleDate: b.ScheduleDate,
	}
	if b.AssignedSprayer != nil {
		e.SprayerID = b.AssignedSprayer.Hex()
	}
	return e
}

type BookingService struct {
	*BaseService
}

func NewBookingService(deps Dependencies) *BookingService {
	return &BookingService{BaseService: NewBaseService(deps, "bookings")}
}

// CreateBooking books a spray service against the farmer's active plan.
func (bs *BookingService) CreateBooking(ctx context.Context, userID primitive.ObjectID, req models.BookServiceRequest) (*models.Booking, error) {
	ctx, cancel := bs.withTimeout(ctx)
	defer cancel()

	account, err := bs.loadAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	if account.Type != models.RoleFarmer {
		return nil, ErrForbidden.WithMessage("Only farmers can book services")
	}

	count := req.SpraysCount
	if count <= 0 {
		count = 1
	}

	plan := FindUsableActivePlan(account, bs.now())
	if plan == nil {
		return nil, ErrNoActivePlan
	}
	if plan.Remaining() < count {
		return nil, ErrQuotaExceeded.WithMessage(fmt.Sprintf("Only %d sprays remaining on your plan", plan.Remaining()))
	}
	if _, err := bs.bookings.FindOpenByAccount(ctx, userID); err == nil {
		return nil, ErrConflictingBooking
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, internalError(err)
	}

	now := bs.now()
	booking := &models.Booking{
		ID:           primitive.NewObjectID(),
		UserID:       userID,
		PlanID:       plan.PlanID,
		ServiceTitle: firstNonEmpty(req.ServiceTitle, plan.Title, models.DefaultServiceTitle),
		Field:        strings.TrimSpace(req.Field),
		Orchid:       firstNonEmpty(req.Orchid, models.DefaultOrchid),
		SpraysCount:  count,
		Address:      strings.TrimSpace(req.Address),
		Pincode:      strings.TrimSpace(req.Pincode),
		Notes:        strings.TrimSpace(req.Notes),
		Status:       models.BookingStatusPending,
		Feedback:     []models.Feedback{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// Quota first, then the booking; the quota is handed back if the booking write fails.
	_, err = bs.mutateAccount(ctx, userID, func(account *models.Account) error {
		active := FindUsableActivePlan(account, bs.now())
		if active == nil {
			return ErrNoActivePlan
		}
		if err := adjustQuota(active, count); err != nil {
			return err
		}
		booking.PlanID = active.PlanID
		account.BookedServices = append(account.BookedServices, booking.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := bs.bookings.Create(ctx, booking); err != nil {
		bs.refund(ctx, userID, booking.ID, count, true)
		return nil, fromStore(err, ErrBookingNotFound)
	}

	bs.logger.WithFields(logrus.Fields{
		"user_id":    userID.Hex(),
		"booking_id": booking.ID.Hex(),
		"sprays":     count,
	}).Info("Service booked")
	bs.publish(ctx, events.BookingCreated, bookingEvent(booking))
	return booking, nil
}

// EditBooking updates a pending booking. A change to spraysCount is applied to
// the quota before any field is written.
func (bs *BookingService) EditBooking(ctx context.Context, userID, bookingID primitive.ObjectID, req models.EditBookingRequest) (*models.Booking, error) {
	ctx, cancel := bs.withTimeout(ctx)
	defer cancel()

	booking, err := bs.ownedBooking(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusPending {
		return nil, ErrNotEditable
	}

	delta := 0
	if req.SpraysCount != nil {
		if *req.SpraysCount < 1 {
			return nil, ErrValidation.WithMessage("spraysCount must be at least 1")
		}
		delta = *req.SpraysCount - booking.SpraysCount
	}

	if delta != 0 {
		_, err := bs.mutateAccount(ctx, userID, func(account *models.Account) error {
			active := FindUsableActivePlan(account, bs.now())
			if active == nil {
				if delta > 0 {
					return ErrNoActivePlan
				}
				return repository.ErrSkipWrite
			}
			return adjustQuota(active, delta)
		})
		if err != nil {
			return nil, err
		}
	}

	applyBookingChanges(booking, req)

	if err := bs.bookings.Update(ctx, booking); err != nil {
		if delta != 0 {
			bs.adjustBestEffort(ctx, userID, -delta)
		}
		return nil, fromStore(err, ErrBookingNotFound)
	}

	bs.publish(ctx, events.BookingUpdated, bookingEvent(booking))
	return booking, nil
}

func applyBookingChanges(booking *models.Booking, req models.EditBookingRequest) {
	if req.ServiceTitle != nil {
		booking.ServiceTitle = firstNonEmpty(*req.ServiceTitle, booking.ServiceTitle)
	}
	if req.Field != nil {
		booking.Field = strings.TrimSpace(*req.Field)
	}
	if req.Orchid != nil {
		booking.Orchid = firstNonEmpty(*req.Orchid, models.DefaultOrchid)
	}
	if req.SpraysCount != nil {
		booking.SpraysCount = *req.SpraysCount
	}
	if req.Address != nil {
		booking.Address = strings.TrimSpace(*req.Address)
	}
	if req.Pincode != nil {
		booking.Pincode = strings.TrimSpace(*req.Pincode)
	}
	if req.Notes != nil {
		booking.Notes = strings.TrimSpace(*req.Notes)
	}
}

// CancelBooking cancels a pending booking and refunds its sprays when the
// farmer still has a usable plan.
func (bs *BookingService) CancelBooking(ctx context.Context, userID, bookingID primitive.ObjectID) (*models.Booking, error) {
	ctx, cancel := bs.withTimeout(ctx)
	defer cancel()

	booking, err := bs.ownedBooking(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusPending {
		return nil, ErrNotCancellable
	}

	booking.Status = models.BookingStatusCancelled
	if err := bs.bookings.Update(ctx, booking); err != nil {
		return nil, fromStore(err, ErrBookingNotFound)
	}

	bs.refund(ctx, userID, booking.ID, booking.SpraysCount, true)
	bs.publish(ctx, events.BookingCancelled, bookingEvent(booking))
	return booking, nil
}

// AssignSlot schedules a pending booking with a sprayer.
func (bs *BookingService) AssignSlot(ctx context.Context, bookingID, sprayerID primitive.ObjectID, scheduleDate time.Time) (*models.Booking, error) {
	ctx, cancel := bs.withTimeout(ctx)
	defer cancel()

	if scheduleDate.IsZero() {
		return nil, ErrValidation.WithMessage("scheduleDate is required")
	}
	return bs.startService(ctx, bookingID, sprayerID, scheduleDate)
}

// AcceptService lets a sprayer take a pending booking immediately.
func (bs *BookingService) AcceptService(ctx context.Context, bookingID, sprayerID primitive.ObjectID) (*models.Booking, error) {
	ctx, cancel := bs.withTimeout(ctx)
	defer cancel()

	return bs.startService(ctx, bookingID, sprayerID, bs.now())
}

func (bs *BookingService) startService(ctx context.Context, bookingID, sprayerID primitive.ObjectID, scheduleDate time.Time) (*models.Booking, error) {
	sprayer, err := bs.accounts.FindByID(ctx, sprayerID)
	if err != nil {
		return nil, fromStore(err, ErrSprayerNotFound)
	}
	if sprayer.Type != models.RoleSprayer {
		return nil, ErrSprayerNotFound
	}

	booking, err := bs.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusPending {
		return nil, ErrNotPending
	}

	scheduled := scheduleDate.UTC()
	booking.ScheduleDate = &scheduled
	booking.AssignedSprayer = &sprayerID
	booking.Status = models.BookingStatusInProgress

	if err := bs.bookings.Update(ctx, booking); err != nil {
		return nil, fromStore(err, ErrBookingNotFound)
	}

	// The sprayer's mirror is a second write and may lag the booking.
	assignment := models.Assignment{
		ID:           primitive.NewObjectID(),
		FarmerID:     booking.UserID,
		ServiceID:    booking.ID,
		ScheduleDate: scheduled,
		Status:       models.BookingStatusInProgress,
		CreatedAt:    bs.now(),
	}
	_, err = bs.mutateAccount(ctx, sprayerID, func(account *models.Account) error {
		for _, existing := range account.AssignedServices {
			if existing.ServiceID == booking.ID {
				return repository.ErrSkipWrite
			}
		}
		account.AssignedServices = append(account.AssignedServices, assignment)
		return nil
	})
	if err != nil {
		bs.logger.WithError(err).WithFields(logrus.Fields{
			"booking_id": booking.ID.Hex(),
			"sprayer_id": sprayerID.Hex(),
		}).Warn("Failed to mirror assignment on sprayer")
	}

	bs.publish(ctx, events.BookingAssigned, bookingEvent(booking))
	return booking, nil
}

// CompleteService marks an in-progress booking done by its assigned sprayer.
func (bs *BookingService) CompleteService(ctx context.Context, bookingID, sprayerID primitive.ObjectID) (*models.Booking, error) {
	ctx, cancel := bs.withTimeout(ctx)
	defer cancel()

	booking, err := bs.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.AssignedSprayer == nil || *booking.AssignedSprayer != sprayerID {
		return nil, ErrNotAssigned
	}
	if booking.Status != models.BookingStatusInProgress {
		return nil, ErrNotInProgress
	}

	completedAt := bs.now()
	booking.Status = models.BookingStatusCompleted
	booking.CompletedAt = &completedAt
	if err := bs.bookings.Update(ctx, booking); err != nil {
		return nil, fromStore(err, ErrBookingNotFound)
	}

	_, err = bs.mutateAccount(ctx, sprayerID, func(account *models.Account) error {
		for i := range account.AssignedServices {
			if account.AssignedServices[i].ServiceID == booking.ID {
				account.AssignedServices[i].Status = models.BookingStatusCompleted
				return nil
			}
		}
		return repository.ErrSkipWrite
	})
	if err != nil {
		bs.logger.WithError(err).WithField("booking_id", booking.ID.Hex()).Warn("Failed to update sprayer assignment")
	}

	bs.publish(ctx, events.BookingCompleted, bookingEvent(booking))
	return booking, nil
}

// ListServices returns bookings for sprayer dashboards joined with the farmer's
// contact details. An empty status lists open bookings.
func (bs *BookingService) ListServices(ctx context.Context, status string) ([]models.ServiceListing, error) {
	ctx, cancel := bs.withTimeout(ctx)
	defer cancel()

	statuses := []string{models.BookingStatusPending, models.BookingStatusInProgress}
	if status != "" {
		switch status {
		case models.BookingStatusPending, models.BookingStatusInProgress, models.BookingStatusCompleted, models.BookingStatusCancelled:
			statuses = []string{status}
		default:
			return nil, ErrValidation.WithMessage(fmt.Sprintf("unknown status %q", status))
		}
	}

	bookings, err := bs.bookings.ListByStatuses(ctx, statuses...)
	if err != nil {
		return nil, internalError(err)
	}

	farmers := make(map[primitive.ObjectID]*models.Account)
	listings := make([]models.ServiceListing, 0, len(bookings))
	for _, booking := range bookings {
		farmer, ok := farmers[booking.UserID]
		if !ok {
			farmer, err = bs.accounts.FindByID(ctx, booking.UserID)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return nil, internalError(err)
			}
			farmers[booking.UserID] = farmer
		}
		listing := models.ServiceListing{Booking: booking}
		if farmer != nil {
			listing.UserName = farmer.Name
			listing.UserPhone = farmer.Phone
		}
		listings = append(listings, listing)
	}
	return listings, nil
}

// AddFeedback records the farmer's rating of a completed booking.
func (bs *BookingService) AddFeedback(ctx context.Context, userID, bookingID primitive.ObjectID, req models.FeedbackRequest) (*models.Booking, error) {
	ctx, cancel := bs.withTimeout(ctx)
	defer cancel()

	booking, err := bs.ownedBooking(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusCompleted {
		return nil, ErrNotCompleted
	}

	booking.Feedback = append(booking.Feedback, models.Feedback{
		ID:        primitive.NewObjectID(),
		Rating:    req.Rating,
		Comment:   strings.TrimSpace(req.Comment),
		ByUser:    userID,
		CreatedAt: bs.now(),
	})
	if err := bs.bookings.Update(ctx, booking); err != nil {
		return nil, fromStore(err, ErrBookingNotFound)
	}
	return booking, nil
}

func (bs *BookingService) ownedBooking(ctx context.Context, userID, bookingID primitive.ObjectID) (*models.Booking, error) {
	booking, err := bs.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, ErrBookingNotFound
	}
	return booking, nil
}

// refund hands sprays back to the usable plan and optionally drops the booking
// reference. Failures are logged; the primary operation has already succeeded.
func (bs *BookingService) refund(ctx context.Context, userID, bookingID primitive.ObjectID, sprays int, dropRef bool) {
	_, err := bs.compensateAccount(ctx, userID, func(account *models.Account) error {
		if active := FindUsableActivePlan(account, bs.now()); active != nil {
			_ = adjustQuota(active, -sprays)
		} else {
			bs.logger.WithField("user_id", userID.Hex()).Info("No usable plan, skipping quota refund")
		}
		if dropRef {
			account.RemoveBookingRef(bookingID)
		}
		return nil
	})
	if err != nil {
		bs.logger.WithError(err).WithFields(logrus.Fields{
			"user_id":    userID.Hex(),
			"booking_id": bookingID.Hex(),
		}).Warn("Failed to refund quota")
	}
}

func (bs *BookingService) adjustBestEffort(ctx context.Context, userID primitive.ObjectID, delta int) {
	_, err := bs.compensateAccount(ctx, userID, func(account *models.Account) error {
		active := FindUsableActivePlan(account, bs.now())
		if active == nil {
			return repository.ErrSkipWrite
		}
		return adjustQuota(active, delta)
	})
	if err != nil {
		bs.logger.WithError(err).WithField("user_id", userID.Hex()).Warn("Failed to restore quota after edit")
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
