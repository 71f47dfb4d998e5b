package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/mbedbridge/internal/models"
)

// ErrExtractionNotFound is returned when no extraction record matches
var ErrExtractionNotFound = errors.New("extraction not found")

// ExtractionStorage persists extraction records
type ExtractionStorage interface {
	SaveExtraction(ctx context.Context, record *models.ExtractionRecord) error
	GetExtraction(ctx context.Context, id string) (*models.ExtractionRecord, error)

	// GetLatestForTarget returns the most recent record for a target
	GetLatestForTarget(ctx context.Context, target string) (*models.ExtractionRecord, error)

	// ListExtractions returns all records ordered by CreatedAt DESC
	ListExtractions(ctx context.Context) ([]*models.ExtractionRecord, error)
	DeleteAll(ctx context.Context) error
}

// StorageManager owns the database behind the storages
type StorageManager interface {
	ExtractionStorage() ExtractionStorage
	Close() error
}
