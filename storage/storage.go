package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// BlobStorage defines the interface for storing and retrieving binary data.
type BlobStorage interface {
	// Upload stores data from the reader at the specified path.
	Upload(ctx context.Context, path string, reader io.Reader) error

	// Download retrieves data from the specified path.
	Download(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes the data at the specified path.
	Delete(ctx context.Context, path string) error

	// Exists checks if data exists at the specified path.
	Exists(ctx context.Context, path string) (bool, error)

	// GetURL returns a URL for accessing the data at the specified path.
	// It does not check that the data exists.
	GetURL(ctx context.Context, path string) (string, error)
}

// Config selects and configures a BlobStorage implementation.
type Config struct {
	// Type is "local" or "s3".
	Type string

	// BaseDir is the root directory of local storage.
	BaseDir string
	// BaseURL prefixes the URLs handed out by local storage.
	BaseURL string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	// PresignExpiry bounds the lifetime of S3 URLs. Zero keeps the default.
	PresignExpiry time.Duration
}

// NewBlobStorage creates a BlobStorage implementation based on configuration.
func NewBlobStorage(cfg Config) (BlobStorage, error) {
	switch strings.ToLower(cfg.Type) {
	case "local":
		if cfg.BaseDir == "" {
			return nil, fmt.Errorf("base_dir is required for local storage")
		}
		return NewLocalStorage(cfg.BaseDir, cfg.BaseURL)

	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("bucket is required for S3 storage")
		}
		if cfg.S3Region == "" {
			return nil, fmt.Errorf("region is required for S3 storage")
		}

		var opts []S3Option
		if cfg.S3Endpoint != "" {
			opts = append(opts, WithEndpoint(cfg.S3Endpoint))
		}
		if cfg.S3AccessKey != "" {
			opts = append(opts, WithStaticCredentials(cfg.S3AccessKey, cfg.S3SecretKey))
		}
		if cfg.PresignExpiry > 0 {
			opts = append(opts, WithPresignExpiry(cfg.PresignExpiry))
		}

		s3Storage, err := NewS3Storage(cfg.S3Bucket, cfg.S3Region, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 storage: %w", err)
		}
		return s3Storage, nil

	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// Copy streams the blob at srcPath in src to dstPath in dst.
func Copy(ctx context.Context, src BlobStorage, srcPath string, dst BlobStorage, dstPath string) error {
	reader, err := src.Download(ctx, srcPath)
	if err != nil {
		return err
	}
	defer reader.Close()

	return dst.Upload(ctx, dstPath, reader)
}
