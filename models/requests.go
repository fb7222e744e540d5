package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// PriceValue accepts a price sent either as a JSON number or a string.
type PriceValue string

func (p *PriceValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = PriceValue(s)
		return nil
	}
	if string(data) == "null" {
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*p = PriceValue(n.String())
	return nil
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,min=7,max=15"`
	Password string `json:"password" validate:"required,min=6"`
	Type     string `json:"type" validate:"omitempty,account_role"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type UpdateUserRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=2,max=100"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Phone    *string `json:"phone" validate:"omitempty,min=7,max=15"`
	Password *string `json:"password" validate:"omitempty,min=6"`
}

type PurchasePlanRequest struct {
	PlanID   string     `json:"planId" validate:"required"`
	Title    string     `json:"title" validate:"required"`
	Price    PriceValue `json:"price"`
	Duration string     `json:"duration"`
}

type BookServiceRequest struct {
	ServiceTitle string `json:"serviceTitle" validate:"omitempty,max=100"`
	Field        string `json:"field" validate:"required"`
	Orchid       string `json:"orchid" validate:"omitempty,max=100"`
	SpraysCount  int    `json:"spraysCount" validate:"omitempty,min=1"`
	Address      string `json:"address" validate:"required"`
	Pincode      string `json:"pincode" validate:"required,pincode"`
	Notes        string `json:"notes" validate:"omitempty,max=500"`
}

type EditBookingRequest struct {
	ServiceTitle *string `json:"serviceTitle" validate:"omitempty,max=100"`
	Field        *string `json:"field" validate:"omitempty,min=1"`
	Orchid       *string `json:"orchid" validate:"omitempty,max=100"`
	SpraysCount  *int    `json:"spraysCount" validate:"omitempty,min=1"`
	Address      *string `json:"address" validate:"omitempty,min=1"`
	Pincode      *string `json:"pincode" validate:"omitempty,pincode"`
	Notes        *string `json:"notes" validate:"omitempty,max=500"`
}

// AssignSlotRequest schedules a booking. SprayerID defaults to the caller.
type AssignSlotRequest struct {
	ServiceID    string    `json:"serviceId" validate:"required"`
	SprayerID    string    `json:"sprayerId"`
	ScheduleDate time.Time `json:"scheduleDate" validate:"required"`
}

// ServiceActionRequest drives accept/complete; admins may act for a sprayer.
type ServiceActionRequest struct {
	ServiceID string `json:"serviceId" validate:"required"`
	SprayerID string `json:"sprayerId"`
}

type FeedbackRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"omitempty,max=1000"`
}

type CreateOrderRequest struct {
	UserID   string     `json:"userId" validate:"required"`
	PlanID   string     `json:"planId" validate:"required"`
	Title    string     `json:"title" validate:"required"`
	Price    PriceValue `json:"price" validate:"required"`
	Duration string     `json:"duration"`
}

type VerifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id" validate:"required"`
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature string `json:"razorpay_signature" validate:"required"`
}
