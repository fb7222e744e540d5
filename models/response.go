package models

import "time"

type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Meta      *Meta       `json:"meta,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

type Meta struct {
	Page       int `json:"page,omitempty"`
	Limit      int `json:"limit,omitempty"`
	Total      int `json:"total,omitempty"`
	TotalPages int `json:"total_pages,omitempty"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	User         PublicUser `json:"user"`
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	ExpiresIn    int64      `json:"expires_in"`
}

// UserDetail is the single-account view with booking details expanded.
type UserDetail struct {
	*Account
	Bookings []BookingView `json:"bookings"`
}

// BookingView is a booking with its assigned sprayer summarised.
type BookingView struct {
	*Booking
	Sprayer *UserSummary `json:"sprayer,omitempty"`
}

// PurchasesResponse lists an account's plans, payments and bookings.
type PurchasesResponse struct {
	Plans           []Plan           `json:"plans"`
	ActivePlan      *Plan            `json:"activePlan"`
	PlanActive      bool             `json:"planActive"`
	PendingPayments []PendingPayment `json:"pendingPayments"`
	Payments        []PaymentRecord  `json:"payments"`
	Bookings        []Booking        `json:"bookings"`
}

// OrderResponse is returned to the client after a gateway order is created.
type OrderResponse struct {
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	KeyID    string `json:"keyId"`
}

type HealthStatus struct {
	Status   string            `json:"status"`
	Version  string            `json:"version"`
	Services map[string]string `json:"services"`
}
