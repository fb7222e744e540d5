package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	BookingStatusPending    = "Pending"
	BookingStatusInProgress = "In Progress"
	BookingStatusCompleted  = "Completed"
	BookingStatusCancelled  = "Cancelled"
)

const (
	DefaultServiceTitle = "Fertilizer Spray"
	DefaultOrchid       = "Orchid A"
)

// Booking is a farmer's spray service request.
type Booking struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID  `bson:"user" json:"userId"`
	PlanID          string              `bson:"planId" json:"planId"`
	ServiceTitle    string              `bson:"serviceTitle" json:"serviceTitle"`
	Field           string              `bson:"field" json:"field"`
	Orchid          string              `bson:"orchid" json:"orchid"`
	SpraysCount     int                 `bson:"spraysCount" json:"spraysCount"`
	ScheduleDate    *time.Time          `bson:"scheduleDate,omitempty" json:"scheduleDate,omitempty"`
	AssignedSprayer *primitive.ObjectID `bson:"assignedSprayer,omitempty" json:"assignedSprayer,omitempty"`
	Address         string              `bson:"address" json:"address"`
	Pincode         string              `bson:"pincode" json:"pincode"`
	Status          string              `bson:"status" json:"status"`
	Notes           string              `bson:"notes,omitempty" json:"notes,omitempty"`
	Feedback        []Feedback          `bson:"feedback" json:"feedback"`
	Version         int64               `bson:"version" json:"-"`
	CreatedAt       time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time           `bson:"updatedAt" json:"updatedAt"`
	CompletedAt     *time.Time          `bson:"completedAt,omitempty" json:"completedAt,omitempty"`

	// Unique sparse keys maintained by SyncKeys.
	OpenFor    *primitive.ObjectID `bson:"openFor,omitempty" json:"-"`
	ActiveSlot *time.Time          `bson:"activeSlot,omitempty" json:"-"`
}

// Feedback is a farmer's rating of a completed service.
type Feedback struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Rating    int                `bson:"rating" json:"rating"`
	Comment   string             `bson:"comment,omitempty" json:"comment,omitempty"`
	ByUser    primitive.ObjectID `bson:"byUser" json:"byUser"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// IsOpen reports whether the booking still occupies the account's single open slot.
func (b *Booking) IsOpen() bool {
	return b.Status == BookingStatusPending || b.Status == BookingStatusInProgress
}

// SyncKeys derives the uniqueness keys from the booking state: an open booking
// holds its owner's single open slot, and an open scheduled booking holds its
// schedule date.
func (b *Booking) SyncKeys() {
	b.OpenFor = nil
	b.ActiveSlot = nil
	if !b.IsOpen() {
		return
	}
	owner := b.UserID
	b.OpenFor = &owner
	if b.ScheduleDate != nil && b.AssignedSprayer != nil {
		slot := b.ScheduleDate.UTC().Truncate(time.Millisecond)
		b.ActiveSlot = &slot
	}
}

func (b *Booking) Clone() *Booking {
	c := *b
	if b.ScheduleDate != nil {
		d := *b.ScheduleDate
		c.ScheduleDate = &d
	}
	if b.AssignedSprayer != nil {
		s := *b.AssignedSprayer
		c.AssignedSprayer = &s
	}
	if b.CompletedAt != nil {
		d := *b.CompletedAt
		c.CompletedAt = &d
	}
	if b.OpenFor != nil {
		o := *b.OpenFor
		c.OpenFor = &o
	}
	if b.ActiveSlot != nil {
		d := *b.ActiveSlot
		c.ActiveSlot = &d
	}
	c.Feedback = append([]Feedback(nil), b.Feedback...)
	return &c
}

// ServiceListing is a booking joined with its farmer for sprayer dashboards.
type ServiceListing struct {
	*Booking
	UserName  string `json:"userName"`
	UserPhone string `json:"userPhone"`
}
