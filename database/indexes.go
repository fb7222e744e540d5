package database

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateIndexes creates the indexes the stores rely on for uniqueness.
func CreateIndexes(ctx context.Context, collections *Collections) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	logrus.Info("Creating database indexes")

	userIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(EmailIndex),
		},
		{
			Keys: bson.D{{Key: "type", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "planActive", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "payments.razorpayPaymentId", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}
	if _, err := collections.Users().Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	serviceIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "assignedSprayer", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "openFor", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName(OpenBookingIndex),
		},
		{
			Keys:    bson.D{{Key: "activeSlot", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName(ActiveSlotIndex),
		},
	}
	if _, err := collections.Services().Indexes().CreateMany(ctx, serviceIndexes); err != nil {
		return fmt.Errorf("failed to create service indexes: %w", err)
	}

	logrus.Info("Database indexes created")
	return nil
}
