package models

import (
	"time"
)

const (
	PlanStatusActive  = "Active"
	PlanStatusExpired = "Expired"
)

// Plan is a purchased subscription embedded in an Account.
type Plan struct {
	PlanID        string     `bson:"planId" json:"planId"`
	Title         string     `bson:"title" json:"title"`
	Price         string     `bson:"price" json:"price"`
	Duration      string     `bson:"duration" json:"duration"`
	Months        int        `bson:"months" json:"months"`
	StartDate     time.Time  `bson:"startDate" json:"startDate"`
	EndDate       *time.Time `bson:"endDate,omitempty" json:"endDate,omitempty"`
	Status        string     `bson:"status" json:"status"`
	SpraysAllowed int        `bson:"spraysAllowed" json:"spraysAllowed"`
	SpraysUsed    int        `bson:"spraysUsed" json:"spraysUsed"`
	OrderID       string     `bson:"orderId,omitempty" json:"orderId,omitempty"`
}

// IsUsable reports whether the plan is Active and has not reached its end date.
func (p *Plan) IsUsable(now time.Time) bool {
	if p.Status != PlanStatusActive {
		return false
	}
	return p.EndDate == nil || p.EndDate.After(now)
}

// Remaining returns the unconsumed quota.
func (p *Plan) Remaining() int {
	if r := p.SpraysAllowed - p.SpraysUsed; r > 0 {
		return r
	}
	return 0
}
