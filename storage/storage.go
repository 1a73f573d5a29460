// Package storage provides the statute corpus source consumed by ingestion:
// plain-text statute files held in a local directory or an S3 bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Store is the document source for statute corpora. Ingestion lists and
// reads; Put and Delete exist for corpus maintenance tooling.
type Store interface {
	// List returns the names of corpus files whose name starts with prefix,
	// sorted ascending.
	List(ctx context.Context, prefix string) ([]string, error)

	// Get opens a corpus file by name.
	Get(ctx context.Context, name string) (io.ReadCloser, error)

	// Put stores a corpus file, replacing any previous version.
	Put(ctx context.Context, name string, data io.Reader) error

	// Delete removes a corpus file.
	Delete(ctx context.Context, name string) error
}

// ErrNotFound is returned when a named corpus file does not exist.
var ErrNotFound = errors.New("corpus file not found")

// StoreType represents the storage backend type
type StoreType string

const (
	StoreTypeLocal StoreType = "local"
	StoreTypeS3    StoreType = "s3"
)

// StoreConfig holds configuration for the corpus store
type StoreConfig struct {
	Type         StoreType
	LocalPath    string // For local storage
	S3Bucket     string // For S3 storage
	S3Region     string // For S3 storage
	AWSAccessKey string
	AWSSecretKey string
}

// NewStore creates a corpus store based on configuration
func NewStore(cfg StoreConfig) (Store, error) {
	switch cfg.Type {
	case StoreTypeLocal:
		return NewLocalStore(cfg.LocalPath)
	case StoreTypeS3:
		return NewS3Store(cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// NewStoreFromEnv creates a corpus store from environment variables
func NewStoreFromEnv() (Store, error) {
	storeType := os.Getenv("STORAGE_TYPE")
	if storeType == "" {
		storeType = "local" // Default to local for development
	}

	cfg := StoreConfig{
		Type: StoreType(storeType),
	}

	switch StoreType(storeType) {
	case StoreTypeLocal:
		localPath := os.Getenv("STORAGE_LOCAL_PATH")
		if localPath == "" {
			localPath = "./corpus" // Default local corpus path
		}
		cfg.LocalPath = localPath
		return NewLocalStore(cfg.LocalPath)

	case StoreTypeS3:
		cfg.S3Bucket = os.Getenv("AWS_S3_BUCKET")
		cfg.S3Region = os.Getenv("AWS_REGION")
		if cfg.S3Region == "" {
			cfg.S3Region = "us-east-1" // Default region
		}
		cfg.AWSAccessKey = os.Getenv("AWS_ACCESS_KEY_ID")
		cfg.AWSSecretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")

		if cfg.S3Bucket == "" {
			return nil, errors.New("AWS_S3_BUCKET environment variable is required for S3 storage")
		}

		return NewS3Store(cfg)

	default:
		return nil, fmt.Errorf("unknown storage type: %s", storeType)
	}
}

// sanitizeName keeps corpus names usable as both object keys and file paths
func sanitizeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimPrefix(name, "/")
	for strings.Contains(name, "..") {
		name = strings.ReplaceAll(name, "..", "")
	}
	return name
}
