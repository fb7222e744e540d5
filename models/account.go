package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleFarmer  = "farmer"
	RoleSprayer = "sprayer"
	RoleAdmin   = "admin"
)

// Account is the single persisted record for farmers, sprayers and admins.
// Plans, bookings and payments are only meaningful for farmers; Assignments
// only for sprayers.
type Account struct {
	ID               primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name             string               `bson:"name" json:"name"`
	Email            string               `bson:"email" json:"email"`
	Phone            string               `bson:"phone" json:"phone"`
	Password         string               `bson:"password" json:"-"`
	Type             string               `bson:"type" json:"type"`
	PlanActive       bool                 `bson:"planActive" json:"planActive"`
	PurchasedPlans   []Plan               `bson:"purchasedPlans" json:"purchasedPlans"`
	BookedServices   []primitive.ObjectID `bson:"bookedServices" json:"bookedServices"`
	AssignedServices []Assignment         `bson:"assignedServices" json:"assignedServices"`
	PendingPayments  []PendingPayment     `bson:"pendingPayments" json:"pendingPayments"`
	Payments         []PaymentRecord      `bson:"payments" json:"payments"`
	Version          int64                `bson:"version" json:"-"`
	CreatedAt        time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// Assignment mirrors a booking on the sprayer's account.
type Assignment struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	FarmerID     primitive.ObjectID `bson:"farmerId" json:"farmerId"`
	ServiceID    primitive.ObjectID `bson:"serviceId" json:"serviceId"`
	ScheduleDate time.Time          `bson:"scheduleDate" json:"scheduleDate"`
	Status       string             `bson:"status" json:"status"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}

// PendingPayment is a gateway order that has not been verified yet.
type PendingPayment struct {
	OrderID   string    `bson:"orderId" json:"orderId"`
	PlanID    string    `bson:"planId" json:"planId"`
	Amount    int64     `bson:"amount" json:"amount"`
	Currency  string    `bson:"currency" json:"currency"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// PaymentRecord is an append-only record of a captured payment.
type PaymentRecord struct {
	OrderID   string            `bson:"razorpayOrderId" json:"razorpayOrderId"`
	PaymentID string            `bson:"razorpayPaymentId" json:"razorpayPaymentId"`
	Amount    int64             `bson:"amount" json:"amount"`
	Currency  string            `bson:"currency" json:"currency"`
	Source    string            `bson:"source" json:"source"`
	CreatedAt time.Time         `bson:"createdAt" json:"createdAt"`
	Notes     map[string]string `bson:"notes,omitempty" json:"notes,omitempty"`
}

// HasPayment reports whether a record for the gateway payment id already exists.
func (a *Account) HasPayment(paymentID string) bool {
	for _, p := range a.Payments {
		if p.PaymentID == paymentID {
			return true
		}
	}
	return false
}

// RemovePendingPayment drops every pending entry for orderID.
func (a *Account) RemovePendingPayment(orderID string) bool {
	kept := a.PendingPayments[:0]
	removed := false
	for _, pp := range a.PendingPayments {
		if pp.OrderID == orderID {
			removed = true
			continue
		}
		kept = append(kept, pp)
	}
	a.PendingPayments = kept
	return removed
}

// RemoveBookingRef drops a booking id from the account's booking list.
func (a *Account) RemoveBookingRef(id primitive.ObjectID) {
	kept := a.BookedServices[:0]
	for _, ref := range a.BookedServices {
		if ref != id {
			kept = append(kept, ref)
		}
	}
	a.BookedServices = kept
}

// RefreshPlanActive recomputes the denormalized planActive flag.
func (a *Account) RefreshPlanActive(now time.Time) {
	a.PlanActive = false
	for i := range a.PurchasedPlans {
		if a.PurchasedPlans[i].IsUsable(now) {
			a.PlanActive = true
			return
		}
	}
}

// Clone returns a deep copy so callers can mutate without aliasing.
func (a *Account) Clone() *Account {
	c := *a
	c.PurchasedPlans = make([]Plan, len(a.PurchasedPlans))
	for i, p := range a.PurchasedPlans {
		if p.EndDate != nil {
			end := *p.EndDate
			p.EndDate = &end
		}
		c.PurchasedPlans[i] = p
	}
	c.BookedServices = append([]primitive.ObjectID(nil), a.BookedServices...)
	c.AssignedServices = append([]Assignment(nil), a.AssignedServices...)
	c.PendingPayments = append([]PendingPayment(nil), a.PendingPayments...)
	c.Payments = make([]PaymentRecord, len(a.Payments))
	for i, p := range a.Payments {
		if p.Notes != nil {
			notes := make(map[string]string, len(p.Notes))
			for k, v := range p.Notes {
				notes[k] = v
			}
			p.Notes = notes
		}
		c.Payments[i] = p
	}
	return &c
}

// PublicUser is the account shape returned by register/login/update.
type PublicUser struct {
	ID        primitive.ObjectID `json:"id"`
	Name      string             `json:"name"`
	FirstName string             `json:"first_name"`
	LastName  string             `json:"last_name"`
	Email     string             `json:"email"`
	Mobile    string             `json:"mobile"`
	Type      string             `json:"type"`
}

// UserSummary is the projection used by account listings.
type UserSummary struct {
	ID    primitive.ObjectID `json:"id"`
	Name  string             `json:"name"`
	Email string             `json:"email"`
	Phone string             `json:"phone"`
	Type  string             `json:"type"`
}

func (a *Account) Public() PublicUser {
	first, last := SplitName(a.Name)
	return PublicUser{
		ID:        a.ID,
		Name:      a.Name,
		FirstName: first,
		LastName:  last,
		Email:     a.Email,
		Mobile:    a.Phone,
		Type:      a.Type,
	}
}

func (a *Account) Summary() UserSummary {
	return UserSummary{ID: a.ID, Name: a.Name, Email: a.Email, Phone: a.Phone, Type: a.Type}
}

// SplitName splits a full name into first name and the remainder.
func SplitName(full string) (string, string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
