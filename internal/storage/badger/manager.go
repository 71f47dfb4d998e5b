package badger

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mbedbridge/internal/common"
	"github.com/ternarybob/mbedbridge/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db         *BadgerDB
	extraction interfaces.ExtractionStorage
	logger     arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:         db,
		extraction: NewExtractionStorage(db, logger),
		logger:     logger,
	}

	logger.Debug().Str("path", config.Path).Msg("Badger storage manager initialized")

	return manager, nil
}

// ExtractionStorage returns the extraction record storage
func (m *Manager) ExtractionStorage() interfaces.ExtractionStorage {
	return m.extraction
}

// Close closes the database connection
func (m *Manager) Close() error {
	return m.db.Close()
}
