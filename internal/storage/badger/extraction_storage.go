package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/mbedbridge/internal/common"
	"github.com/ternarybob/mbedbridge/internal/interfaces"
	"github.com/ternarybob/mbedbridge/internal/models"
)

// ExtractionStorage implements interfaces.ExtractionStorage for Badger
type ExtractionStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewExtractionStorage creates a new ExtractionStorage instance
func NewExtractionStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ExtractionStorage {
	return &ExtractionStorage{
		db:     db,
		logger: logger,
	}
}

// SaveExtraction inserts or replaces a record. A missing ID or CreatedAt is
// filled in.
func (s *ExtractionStorage) SaveExtraction(ctx context.Context, record *models.ExtractionRecord) error {
	if record == nil {
		return fmt.Errorf("extraction record is nil")
	}
	if record.ID == "" {
		record.ID = common.NewExtractionID()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	if err := s.db.Store().Upsert(record.ID, record); err != nil {
		return fmt.Errorf("failed to save extraction %s: %w", record.ID, err)
	}

	s.logger.Debug().
		Str("id", record.ID).
		Str("target", record.Target).
		Msg("Extraction saved")
	return nil
}

func (s *ExtractionStorage) GetExtraction(ctx context.Context, id string) (*models.ExtractionRecord, error) {
	var record models.ExtractionRecord
	if err := s.db.Store().Get(id, &record); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, interfaces.ErrExtractionNotFound
		}
		return nil, fmt.Errorf("failed to get extraction %s: %w", id, err)
	}
	return &record, nil
}

func (s *ExtractionStorage) GetLatestForTarget(ctx context.Context, target string) (*models.ExtractionRecord, error) {
	var records []models.ExtractionRecord
	query := badgerhold.Where("Target").Eq(target).SortBy("CreatedAt").Reverse().Limit(1)
	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to find extractions for target %s: %w", target, err)
	}
	if len(records) == 0 {
		return nil, interfaces.ErrExtractionNotFound
	}
	return &records[0], nil
}

func (s *ExtractionStorage) ListExtractions(ctx context.Context) ([]*models.ExtractionRecord, error) {
	var records []models.ExtractionRecord
	if err := s.db.Store().Find(&records, badgerhold.Where("ID").Ne("").SortBy("CreatedAt").Reverse()); err != nil {
		return nil, fmt.Errorf("failed to list extractions: %w", err)
	}

	result := make([]*models.ExtractionRecord, len(records))
	for i := range records {
		result[i] = &records[i]
	}
	return result, nil
}

func (s *ExtractionStorage) DeleteAll(ctx context.Context) error {
	if err := s.db.Store().DeleteMatching(&models.ExtractionRecord{}, nil); err != nil {
		return fmt.Errorf("failed to delete extractions: %w", err)
	}
	return nil
}
