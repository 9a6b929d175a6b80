// Package storage persists small named objects (the geocode cache and the
// chart series) in memory, on the local filesystem or in Azure Blob Storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrNotFound is returned by Get when no object is stored under the key.
var ErrNotFound = errors.New("storage: object not found")

// Store reads and writes whole objects by key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// Backend names accepted by New.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendAzure  = "azure"
)

// Options selects and configures a Store backend.
type Options struct {
	Backend     string
	Dir         string
	AccountName string
	AccountKey  string
	Container   string
}

// New builds the Store named by opts.Backend.
func New(opts Options, logger *slog.Logger) (Store, error) {
	switch opts.Backend {
	case BackendMemory:
		logger.Info("using in-memory storage")
		return NewMemoryStore(), nil
	case BackendFile, "":
		logger.Info("using file storage", "dir", opts.Dir)
		return NewFileStore(opts.Dir), nil
	case BackendAzure:
		logger.Info("using azure blob storage", "account", opts.AccountName, "container", opts.Container)
		return NewBlobStore(opts.AccountName, opts.AccountKey, opts.Container)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}
