// Package storage persists review artifacts: uploaded contract files,
// extracted contract text, and generated reports. Artifacts are addressed
// by flat keys; the backends are interchangeable.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"
)

// ErrNotFound signals that no artifact exists under the requested key.
var ErrNotFound = errors.New("artifact not found")

// Store is the artifact persistence interface.
type Store interface {
	// Save writes an artifact under key, overwriting any previous one.
	Save(ctx context.Context, key string, data io.Reader) error

	// Open returns a reader for the artifact. ErrNotFound when absent.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the artifact. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns the keys under the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// BackendType selects the storage backend.
type BackendType string

const (
	BackendLocal BackendType = "local"
	BackendS3    BackendType = "s3"
)

// BackendConfig holds backend selection and its settings.
type BackendConfig struct {
	Type         BackendType
	LocalPath    string
	S3Bucket     string
	S3Region     string
	AWSAccessKey string
	AWSSecretKey string
}

// New creates a store from explicit configuration.
func New(cfg BackendConfig) (Store, error) {
	switch cfg.Type {
	case BackendLocal:
		return NewLocalStore(cfg.LocalPath)
	case BackendS3:
		return NewS3Store(cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Type)
	}
}

// NewFromEnv creates a store from environment variables, defaulting to
// local storage for development.
func NewFromEnv() (Store, error) {
	backend := os.Getenv("STORAGE_TYPE")
	if backend == "" {
		backend = string(BackendLocal)
	}

	cfg := BackendConfig{Type: BackendType(backend)}

	switch cfg.Type {
	case BackendLocal:
		cfg.LocalPath = os.Getenv("STORAGE_LOCAL_PATH")
		if cfg.LocalPath == "" {
			cfg.LocalPath = "./data"
		}
		return NewLocalStore(cfg.LocalPath)

	case BackendS3:
		cfg.S3Bucket = os.Getenv("AWS_S3_BUCKET")
		cfg.S3Region = os.Getenv("AWS_REGION")
		if cfg.S3Region == "" {
			cfg.S3Region = "us-east-1"
		}
		cfg.AWSAccessKey = os.Getenv("AWS_ACCESS_KEY_ID")
		cfg.AWSSecretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
		if cfg.S3Bucket == "" {
			return nil, errors.New("AWS_S3_BUCKET is required for S3 storage")
		}
		return NewS3Store(cfg)

	default:
		return nil, fmt.Errorf("unknown storage backend: %s", backend)
	}
}

// UploadKey names an uploaded contract file: the upload timestamp prefixed
// to the sanitized original filename, so uploads never collide and the
// original name stays recognizable.
func UploadKey(now time.Time, originalName string) string {
	return path.Join("uploads", fmt.Sprintf("%d_%s", now.Unix(), sanitizeName(originalName)))
}

// ContractKey names the extracted contract text artifact for one review run.
func ContractKey(now time.Time) string {
	return path.Join("contracts", fmt.Sprintf("contract-%d.txt", now.Unix()))
}

// ReportKey names the plain-text report artifact for one review run.
func ReportKey(now time.Time) string {
	return path.Join("reports", fmt.Sprintf("report-%d.txt", now.Unix()))
}

func sanitizeName(name string) string {
	name = path.Base(name)
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	return name
}
