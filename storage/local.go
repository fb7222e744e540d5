package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalArchive writes payloads below a base directory.
type LocalArchive struct {
	basePath string
}

// NewLocalArchive creates the base directory if needed.
func NewLocalArchive(basePath string) (*LocalArchive, error) {
	if basePath == "" {
		basePath = "./data/webhooks"
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, err
	}
	return &LocalArchive{basePath: abs}, nil
}

func (la *LocalArchive) Name() string {
	return "local"
}

// resolve keeps every key inside the base directory.
func (la *LocalArchive) resolve(key string) (string, error) {
	fullPath := filepath.Join(la.basePath, filepath.FromSlash(key))
	if fullPath != la.basePath && !strings.HasPrefix(fullPath, la.basePath+string(filepath.Separator)) {
		return "", NewStorageError("local", "INVALID_KEY", "key escapes archive root", key)
	}
	return fullPath, nil
}

func (la *LocalArchive) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath, err := la.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return NewStorageError("local", "UPLOAD_FAILED", err.Error(), key)
	}
	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return NewStorageError("local", "UPLOAD_FAILED", err.Error(), key)
	}
	return nil
}

func (la *LocalArchive) Get(ctx context.Context, key string) ([]byte, error) {
	fullPath, err := la.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, NewStorageError("local", "NOT_FOUND", "object not found", key)
		}
		return nil, NewStorageError("local", "DOWNLOAD_FAILED", err.Error(), key)
	}
	return data, nil
}

func (la *LocalArchive) Exists(ctx context.Context, key string) (bool, error) {
	fullPath, err := la.resolve(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(fullPath)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// HealthCheck verifies the base directory is writable
func (la *LocalArchive) HealthCheck(ctx context.Context) error {
	probe := filepath.Join(la.basePath, ".health")
	if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
		return fmt.Errorf("archive directory not writable: %w", err)
	}
	return os.Remove(probe)
}

// NopArchive discards payloads.
type NopArchive struct{}

func (NopArchive) Name() string { return "none" }

func (NopArchive) Put(ctx context.Context, key string, data []byte, contentType string) error {
	return nil
}

func (NopArchive) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, NewStorageError("none", "NOT_FOUND", "archive disabled", key)
}

func (NopArchive) Exists(ctx context.Context, key string) (bool, error) { return false, nil }

func (NopArchive) HealthCheck(ctx context.Context) error { return nil }
