package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"agrispray/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalArchive(t *testing.T) {
	ctx := context.Background()
	archive, err := NewLocalArchive(t.TempDir())
	require.NoError(t, err)

	key := "webhooks/2026/10/17/payment.captured-1.json"
	require.NoError(t, archive.Put(ctx, key, []byte(`{"ok":true}`), "application/json"))

	exists, err := archive.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	data, err := archive.Get(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(data))

	_, err = archive.Get(ctx, "missing.json")
	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "NOT_FOUND", storageErr.Code)

	assert.NoError(t, archive.HealthCheck(ctx))
}

func TestLocalArchiveRejectsEscapingKeys(t *testing.T) {
	archive, err := NewLocalArchive(t.TempDir())
	require.NoError(t, err)

	err = archive.Put(context.Background(), "../outside.json", []byte("x"), "")
	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "INVALID_KEY", storageErr.Code)
}

func TestArchiveKey(t *testing.T) {
	at := time.Date(2026, 10, 17, 23, 30, 0, 0, time.UTC)
	key := ArchiveKey("webhooks", "payment.captured", at)

	assert.True(t, strings.HasPrefix(key, "webhooks/2026/10/17/payment.captured-"), key)
	assert.True(t, strings.HasSuffix(key, ".json"))
	assert.NotEqual(t, key, ArchiveKey("webhooks", "payment.captured", at))
	assert.NotContains(t, ArchiveKey("webhooks", "a/b", at), "a/b-")
}

func TestNewArchive(t *testing.T) {
	archive, err := NewArchive(&config.Config{ArchiveDriver: "none"})
	require.NoError(t, err)
	assert.Equal(t, "none", archive.Name())

	archive, err = NewArchive(&config.Config{ArchiveDriver: "local", ArchivePath: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, "local", archive.Name())

	_, err = NewArchive(&config.Config{ArchiveDriver: "s3"})
	assert.Error(t, err)

	_, err = NewArchive(&config.Config{ArchiveDriver: "ftp"})
	assert.Error(t, err)
}
