package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"casillero-backend/models"
)

// ErrNotFound is returned when a key does not exist in the store
var ErrNotFound = errors.New("object not found")

// Storage interface for object store operations
type Storage interface {
	// Upload stores data under key, replacing any previous object
	Upload(ctx context.Context, key string, data io.Reader) error

	// Download retrieves an object by key
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// List returns every object whose key starts with prefix
	List(ctx context.Context, prefix string) ([]models.StoredObject, error)
}

// StorageType represents the storage backend type
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
)

// StorageConfig holds configuration for storage
type StorageConfig struct {
	Type         StorageType
	LocalPath    string // For local storage
	S3Bucket     string // For S3 storage
	S3Region     string // For S3 storage
	S3Endpoint   string // Optional, for S3 compatible stores
	AWSAccessKey string
	AWSSecretKey string
}

// NewStorage creates a new storage instance based on configuration
func NewStorage(cfg StorageConfig) (Storage, error) {
	switch cfg.Type {
	case StorageTypeLocal, "":
		if cfg.LocalPath == "" {
			cfg.LocalPath = "./storage/files"
		}
		return NewLocalStorage(cfg.LocalPath)
	case StorageTypeS3:
		if cfg.S3Bucket == "" {
			return nil, errors.New("AWS_S3_BUCKET is required for S3 storage")
		}
		return NewS3Storage(cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// getContentType determines content type from the key extension
func getContentType(key string) string {
	switch filepath.Ext(key) {
	case ".pdf":
		return "application/pdf"
	case ".json":
		return "application/json"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
