package database

import "go.mongodb.org/mongo-driver/mongo"

const (
	UsersCollection    = "users"
	ServicesCollection = "services"
)

// Index names are referenced when translating duplicate key errors.
const (
	EmailIndex       = "email_unique"
	OpenBookingIndex = "open_booking_unique"
	ActiveSlotIndex  = "active_slot_unique"
)

// Collections provides typed access to the collections this service uses
type Collections struct {
	manager *Manager
}

func NewCollections(manager *Manager) *Collections {
	return &Collections{manager: manager}
}

func (c *Collections) Manager() *Manager {
	return c.manager
}

func (c *Collections) Users() *mongo.Collection {
	return c.manager.GetCollection(UsersCollection)
}

// Services holds farmer bookings.
func (c *Collections) Services() *mongo.Collection {
	return c.manager.GetCollection(ServicesCollection)
}
