package services

import (
	"errors"
	"net/http"

	"agrispray/repository"
)

// ErrorKind classifies failures for the HTTP boundary.
type ErrorKind int

const (
	KindValidation ErrorKind = iota
	KindNotFound
	KindUnauthorized
	KindForbidden
	KindConflict
	KindQuota
	KindSignature
	KindInternal
)

// HTTPStatus maps a kind to its response status.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// AppError is the error type returned by every service method. Two AppErrors
// match under errors.Is when their codes are equal, so a sentinel still
// matches after its message is specialised.
type AppError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil && e.Kind == KindInternal {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// WithMessage returns a copy of the sentinel carrying a specific message.
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{Kind: e.Kind, Code: e.Code, Message: message, Err: e.Err}
}

func newError(kind ErrorKind, code, message string) *AppError {
	return &AppError{Kind: kind, Code: code, Message: message}
}

var (
	ErrValidation          = newError(KindValidation, "VALIDATION_FAILED", "Invalid request")
	ErrInvalidPrice        = newError(KindValidation, "INVALID_PRICE", "Price must be a positive amount")
	ErrInvalidDuration     = newError(KindValidation, "INVALID_DURATION", "Duration must be at most 120 months")
	ErrNoActivePlan        = newError(KindValidation, "NO_ACTIVE_PLAN", "No active plan found. Please purchase a plan first")
	ErrQuotaExceeded       = newError(KindQuota, "QUOTA_EXCEEDED", "Not enough sprays remaining on your plan")
	ErrConflictingBooking  = newError(KindConflict, "CONFLICTING_BOOKING", "You already have a booking in progress. Complete or cancel it before booking again")
	ErrNotEditable         = newError(KindConflict, "NOT_EDITABLE", "Only pending bookings can be edited")
	ErrNotCancellable      = newError(KindConflict, "NOT_CANCELLABLE", "Only pending bookings can be cancelled")
	ErrSlotTaken           = newError(KindConflict, "SLOT_TAKEN", "Another service is already scheduled for this slot")
	ErrNotPending          = newError(KindConflict, "NOT_PENDING", "Service is not pending")
	ErrNotAssigned         = newError(KindForbidden, "NOT_ASSIGNED", "Service is not assigned to this sprayer")
	ErrNotInProgress       = newError(KindConflict, "NOT_IN_PROGRESS", "Service is not in progress")
	ErrNotCompleted        = newError(KindConflict, "NOT_COMPLETED", "Feedback can only be left on completed services")
	ErrActiveAlreadyExists = newError(KindConflict, "ACTIVE_PLAN_EXISTS", "An active plan already exists for this account")
	ErrInvalidSignature    = newError(KindSignature, "INVALID_SIGNATURE", "Invalid payment signature")
	ErrInvalidOrderNotes   = newError(KindValidation, "INVALID_ORDER_NOTES", "Order is not linked to a valid user")
	ErrOrderNotFound       = newError(KindNotFound, "ORDER_NOT_FOUND", "Payment order not found")
	ErrAccountNotFound     = newError(KindNotFound, "ACCOUNT_NOT_FOUND", "User not found")
	ErrSprayerNotFound     = newError(KindNotFound, "SPRAYER_NOT_FOUND", "Sprayer not found")
	ErrBookingNotFound     = newError(KindNotFound, "BOOKING_NOT_FOUND", "Service not found")
	ErrInvalidCredentials  = newError(KindUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
	ErrInvalidToken        = newError(KindUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
	ErrEmailTaken          = newError(KindConflict, "EMAIL_TAKEN", "User already exists")
	ErrForbidden           = newError(KindForbidden, "FORBIDDEN", "Access forbidden")
	ErrConcurrentUpdate    = newError(KindConflict, "CONCURRENT_UPDATE", "The record was modified by another request, please retry")
	ErrGateway             = newError(KindInternal, "GATEWAY_ERROR", "Payment gateway request failed")
	ErrInternal            = newError(KindInternal, "INTERNAL", "Internal server error")
)

// internalError wraps an unexpected failure.
func internalError(err error) *AppError {
	return &AppError{Kind: KindInternal, Code: ErrInternal.Code, Message: ErrInternal.Message, Err: err}
}

// AsAppError converts any error into an AppError, treating unknown errors as internal.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return internalError(err)
}

// fromStore translates repository sentinels. notFound is used for ErrNotFound.
func fromStore(err error, notFound *AppError) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return notFound
	case errors.Is(err, repository.ErrVersionConflict):
		return ErrConcurrentUpdate
	case errors.Is(err, repository.ErrSlotTaken):
		return ErrSlotTaken
	case errors.Is(err, repository.ErrOpenBooking):
		return ErrConflictingBooking
	case errors.Is(err, repository.ErrDuplicate):
		return ErrEmailTaken
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return internalError(err)
}
