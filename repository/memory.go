package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"agrispray/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryAccountStore is an in-process AccountStore used by the memory driver
// and tests. Values are copied on the way in and out.
type MemoryAccountStore struct {
	mu       sync.RWMutex
	accounts map[primitive.ObjectID]*models.Account
}

func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{accounts: make(map[primitive.ObjectID]*models.Account)}
}

func (s *MemoryAccountStore) Create(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.accounts {
		if strings.EqualFold(existing.Email, account.Email) {
			return ErrDuplicate
		}
	}
	if account.ID.IsZero() {
		account.ID = primitive.NewObjectID()
	}
	account.Version = 0
	s.accounts[account.ID] = account.Clone()
	return nil
}

func (s *MemoryAccountStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return account.Clone(), nil
}

func (s *MemoryAccountStore) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, account := range s.accounts {
		if strings.EqualFold(account.Email, email) {
			return account.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (f AccountFilter) matches(account *models.Account) bool {
	if f.Role != "" && account.Type != f.Role {
		return false
	}
	if f.PlanActive != nil && account.PlanActive != *f.PlanActive {
		return false
	}
	if f.HasPendingPayments && len(account.PendingPayments) == 0 {
		return false
	}
	return true
}

func (s *MemoryAccountStore) List(ctx context.Context, filter AccountFilter) ([]*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*models.Account{}
	for _, account := range s.accounts {
		if filter.matches(account) {
			result = append(result, account.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	if filter.Skip > 0 {
		if filter.Skip >= int64(len(result)) {
			return []*models.Account{}, nil
		}
		result = result[filter.Skip:]
	}
	if filter.Limit > 0 && filter.Limit < int64(len(result)) {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (s *MemoryAccountStore) Count(ctx context.Context, filter AccountFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, account := range s.accounts {
		if filter.matches(account) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryAccountStore) Update(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.accounts[account.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Version != account.Version {
		return ErrVersionConflict
	}
	for id, other := range s.accounts {
		if id != account.ID && strings.EqualFold(other.Email, account.Email) {
			return ErrDuplicate
		}
	}

	account.Version++
	account.UpdatedAt = time.Now()
	s.accounts[account.ID] = account.Clone()
	return nil
}

func (s *MemoryAccountStore) Ping(ctx context.Context) error {
	return nil
}

// MemoryBookingStore is an in-process BookingStore.
type MemoryBookingStore struct {
	mu       sync.RWMutex
	bookings map[primitive.ObjectID]*models.Booking
}

func NewMemoryBookingStore() *MemoryBookingStore {
	return &MemoryBookingStore{bookings: make(map[primitive.ObjectID]*models.Booking)}
}

// checkKeys enforces the same uniqueness the Mongo sparse indexes do.
func (s *MemoryBookingStore) checkKeys(booking *models.Booking) error {
	for id, other := range s.bookings {
		if id == booking.ID {
			continue
		}
		if booking.OpenFor != nil && other.OpenFor != nil && *booking.OpenFor == *other.OpenFor {
			return ErrOpenBooking
		}
		if booking.ActiveSlot != nil && other.ActiveSlot != nil && booking.ActiveSlot.Equal(*other.ActiveSlot) {
			return ErrSlotTaken
		}
	}
	return nil
}

func (s *MemoryBookingStore) Create(ctx context.Context, booking *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if booking.ID.IsZero() {
		booking.ID = primitive.NewObjectID()
	}
	booking.SyncKeys()
	if err := s.checkKeys(booking); err != nil {
		return err
	}
	booking.Version = 0
	s.bookings[booking.ID] = booking.Clone()
	return nil
}

func (s *MemoryBookingStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	booking, ok := s.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return booking.Clone(), nil
}

func (s *MemoryBookingStore) Update(ctx context.Context, booking *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.bookings[booking.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Version != booking.Version {
		return ErrVersionConflict
	}
	booking.SyncKeys()
	if err := s.checkKeys(booking); err != nil {
		return err
	}

	booking.Version++
	booking.UpdatedAt = time.Now()
	s.bookings[booking.ID] = booking.Clone()
	return nil
}

func (s *MemoryBookingStore) FindOpenByAccount(ctx context.Context, userID primitive.ObjectID) (*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, booking := range s.bookings {
		if booking.UserID == userID && booking.IsOpen() {
			return booking.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryBookingStore) ListByAccount(ctx context.Context, userID primitive.ObjectID) ([]*models.Booking, error) {
	return s.list(func(b *models.Booking) bool { return b.UserID == userID }), nil
}

func (s *MemoryBookingStore) ListByStatuses(ctx context.Context, statuses ...string) ([]*models.Booking, error) {
	return s.list(func(b *models.Booking) bool {
		if len(statuses) == 0 {
			return true
		}
		for _, status := range statuses {
			if b.Status == status {
				return true
			}
		}
		return false
	}), nil
}

func (s *MemoryBookingStore) list(match func(*models.Booking) bool) []*models.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*models.Booking{}
	for _, booking := range s.bookings {
		if match(booking) {
			result = append(result, booking.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}
