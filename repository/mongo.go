package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"agrispray/database"
	"agrispray/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoAccountStore stores accounts in the users collection.
type MongoAccountStore struct {
	collection *mongo.Collection
	manager    *database.Manager
}

func NewMongoAccountStore(collections *database.Collections) *MongoAccountStore {
	return &MongoAccountStore{
		collection: collections.Users(),
		manager:    collections.Manager(),
	}
}

func (s *MongoAccountStore) Create(ctx context.Context, account *models.Account) error {
	if account.ID.IsZero() {
		account.ID = primitive.NewObjectID()
	}
	account.Version = 0
	if _, err := s.collection.InsertOne(ctx, account); err != nil {
		return translateWriteError(err)
	}
	return nil
}

func (s *MongoAccountStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *MongoAccountStore) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (s *MongoAccountStore) findOne(ctx context.Context, filter bson.M) (*models.Account, error) {
	var account models.Account
	if err := s.collection.FindOne(ctx, filter).Decode(&account); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (f AccountFilter) query() bson.M {
	query := bson.M{}
	if f.Role != "" {
		query["type"] = f.Role
	}
	if f.PlanActive != nil {
		query["planActive"] = *f.PlanActive
	}
	if f.HasPendingPayments {
		query["pendingPayments.0"] = bson.M{"$exists": true}
	}
	return query
}

func (s *MongoAccountStore) List(ctx context.Context, filter AccountFilter) ([]*models.Account, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	if filter.Skip > 0 {
		opts.SetSkip(filter.Skip)
	}
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}

	cursor, err := s.collection.Find(ctx, filter.query(), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	accounts := []*models.Account{}
	if err := cursor.All(ctx, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (s *MongoAccountStore) Count(ctx context.Context, filter AccountFilter) (int64, error) {
	return s.collection.CountDocuments(ctx, filter.query())
}

func (s *MongoAccountStore) Update(ctx context.Context, account *models.Account) error {
	expected := account.Version
	account.Version = expected + 1
	account.UpdatedAt = time.Now()

	result, err := s.collection.ReplaceOne(ctx, bson.M{"_id": account.ID, "version": expected}, account)
	if err != nil {
		account.Version = expected
		return translateWriteError(err)
	}
	if result.MatchedCount == 0 {
		account.Version = expected
		return s.missOrConflict(ctx, account.ID)
	}
	return nil
}

func (s *MongoAccountStore) missOrConflict(ctx context.Context, id primitive.ObjectID) error {
	count, err := s.collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrVersionConflict
}

func (s *MongoAccountStore) Ping(ctx context.Context) error {
	return s.manager.HealthCheck(ctx)
}

// MongoBookingStore stores bookings in the services collection.
type MongoBookingStore struct {
	collection *mongo.Collection
}

func NewMongoBookingStore(collections *database.Collections) *MongoBookingStore {
	return &MongoBookingStore{collection: collections.Services()}
}

func (s *MongoBookingStore) Create(ctx context.Context, booking *models.Booking) error {
	if booking.ID.IsZero() {
		booking.ID = primitive.NewObjectID()
	}
	booking.Version = 0
	booking.SyncKeys()
	if _, err := s.collection.InsertOne(ctx, booking); err != nil {
		return translateWriteError(err)
	}
	return nil
}

func (s *MongoBookingStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	var booking models.Booking
	if err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (s *MongoBookingStore) Update(ctx context.Context, booking *models.Booking) error {
	expected := booking.Version
	booking.Version = expected + 1
	booking.UpdatedAt = time.Now()
	booking.SyncKeys()

	result, err := s.collection.ReplaceOne(ctx, bson.M{"_id": booking.ID, "version": expected}, booking)
	if err != nil {
		booking.Version = expected
		return translateWriteError(err)
	}
	if result.MatchedCount == 0 {
		booking.Version = expected
		count, err := s.collection.CountDocuments(ctx, bson.M{"_id": booking.ID})
		if err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrVersionConflict
	}
	return nil
}

func (s *MongoBookingStore) FindOpenByAccount(ctx context.Context, userID primitive.ObjectID) (*models.Booking, error) {
	filter := bson.M{
		"user":   userID,
		"status": bson.M{"$in": []string{models.BookingStatusPending, models.BookingStatusInProgress}},
	}
	var booking models.Booking
	if err := s.collection.FindOne(ctx, filter).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (s *MongoBookingStore) ListByAccount(ctx context.Context, userID primitive.ObjectID) ([]*models.Booking, error) {
	return s.find(ctx, bson.M{"user": userID})
}

func (s *MongoBookingStore) ListByStatuses(ctx context.Context, statuses ...string) ([]*models.Booking, error) {
	filter := bson.M{}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statuses}
	}
	return s.find(ctx, filter)
}

func (s *MongoBookingStore) find(ctx context.Context, filter bson.M) ([]*models.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	bookings := []*models.Booking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// translateWriteError maps unique index violations to store sentinels by index name.
func translateWriteError(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return err
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, database.ActiveSlotIndex):
		return ErrSlotTaken
	case strings.Contains(msg, database.OpenBookingIndex):
		return ErrOpenBooking
	default:
		return ErrDuplicate
	}
}
