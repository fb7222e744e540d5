package storage

import (
	"fmt"

	"agrispray/config"
)

// NewArchive builds the archive selected by ARCHIVE_DRIVER.
func NewArchive(cfg *config.Config) (Archive, error) {
	switch cfg.ArchiveDriver {
	case "local", "":
		return NewLocalArchive(cfg.ArchivePath)
	case "s3":
		return NewS3Archive(S3Config{
			Bucket:    cfg.ArchiveBucket,
			Region:    cfg.AWSRegion,
			Endpoint:  cfg.ArchiveEndpoint,
			AccessKey: cfg.AWSAccessKeyID,
			SecretKey: cfg.AWSSecretAccessKey,
		})
	case "none":
		return NopArchive{}, nil
	default:
		return nil, fmt.Errorf("unsupported archive driver: %s", cfg.ArchiveDriver)
	}
}
