// Package storage persists profile reports and exports crawl corpora.
package storage

import (
	"log/slog"
	"path/filepath"

	"github.com/IshaanNene/sitebrief/internal/config"
	"github.com/IshaanNene/sitebrief/internal/profile"
)

// Storage is the interface for all report storage backends.
type Storage interface {
	// Store persists a batch of reports.
	Store(reports []*profile.Report) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}

// New creates the backend selected by cfg.Type.
func New(cfg config.StorageConfig, logger *slog.Logger) (Storage, error) {
	if cfg.Type == "mongodb" {
		return NewMongoStorage(cfg.MongoURI, cfg.Database, cfg.Collection, logger)
	}
	return NewFileStorage(cfg.Type, cfg.OutputPath, logger)
}

// NewFileStorage creates the appropriate file-based storage by type.
func NewFileStorage(storageType, outputDir string, logger *slog.Logger) (Storage, error) {
	switch storageType {
	case "json":
		return NewJSONStorage(filepath.Join(outputDir, "profiles.json"), logger)
	case "jsonl":
		return NewJSONLStorage(filepath.Join(outputDir, "profiles.jsonl"), logger)
	case "csv":
		return NewCSVStorage(filepath.Join(outputDir, "profiles.csv"), logger)
	case "markdown":
		return NewMarkdownStorage(filepath.Join(outputDir, "profiles.md"), logger)
	default:
		return nil, storageErr(storageType, errUnsupported(storageType))
	}
}
