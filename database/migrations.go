package database

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// migration backfills a field on documents written before it existed.
type migration struct {
	name       string
	collection func(*Collections) *mongo.Collection
	field      string
	value      interface{}
}

var migrations = []migration{
	{"users.version", (*Collections).Users, "version", int64(0)},
	{"users.purchasedPlans", (*Collections).Users, "purchasedPlans", bson.A{}},
	{"users.bookedServices", (*Collections).Users, "bookedServices", bson.A{}},
	{"users.assignedServices", (*Collections).Users, "assignedServices", bson.A{}},
	{"users.pendingPayments", (*Collections).Users, "pendingPayments", bson.A{}},
	{"users.payments", (*Collections).Users, "payments", bson.A{}},
	{"users.planActive", (*Collections).Users, "planActive", false},
	{"services.version", (*Collections).Services, "version", int64(0)},
	{"services.feedback", (*Collections).Services, "feedback", bson.A{}},
}

// RunMigrations applies every backfill. Each one is idempotent.
func RunMigrations(ctx context.Context, collections *Collections) error {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	logrus.Info("Running database migrations")

	for _, m := range migrations {
		filter := bson.M{
			"$or": bson.A{
				bson.M{m.field: bson.M{"$exists": false}},
				bson.M{m.field: nil},
			},
		}
		update := bson.M{"$set": bson.M{m.field: m.value}}

		result, err := m.collection(collections).UpdateMany(ctx, filter, update)
		if err != nil {
			return fmt.Errorf("migration %s failed: %w", m.name, err)
		}
		if result.ModifiedCount > 0 {
			logrus.WithFields(logrus.Fields{
				"migration": m.name,
				"modified":  result.ModifiedCount,
			}).Info("Backfilled documents")
		}
	}

	logrus.Info("Database migrations completed")
	return nil
}
