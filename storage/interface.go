package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Archive stores raw payloads that must be kept for later reconciliation.
type Archive interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	HealthCheck(ctx context.Context) error
	Name() string
}

// StorageError represents archive-specific errors
type StorageError struct {
	Provider string `json:"provider"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Key      string `json:"key,omitempty"`
}

func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Provider, e.Message, e.Key)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// NewStorageError creates a new storage error
func NewStorageError(provider, code, message, key string) *StorageError {
	return &StorageError{
		Provider: provider,
		Code:     code,
		Message:  message,
		Key:      key,
	}
}

// ArchiveKey builds a date partitioned key such as
// "webhooks/2026/10/17/payment.captured-<uuid>.json".
func ArchiveKey(prefix, name string, at time.Time) string {
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ' ' {
			return '_'
		}
		return r
	}, name)
	if name == "" {
		name = "payload"
	}
	at = at.UTC()
	return path.Join(prefix, at.Format("2006/01/02"), fmt.Sprintf("%s-%s.json", name, uuid.NewString()))
}
