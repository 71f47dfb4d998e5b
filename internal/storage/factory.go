package storage

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mbedbridge/internal/common"
	"github.com/ternarybob/mbedbridge/internal/interfaces"
	"github.com/ternarybob/mbedbridge/internal/storage/badger"
)

// NewStorageManager creates the extraction storage manager. Callers check
// config.Storage.Enabled first.
func NewStorageManager(logger arbor.ILogger, config *common.Config) (interfaces.StorageManager, error) {
	if config.Storage.Badger.Path == "" {
		return nil, fmt.Errorf("storage enabled but storage.badger.path is empty")
	}
	return badger.NewManager(logger, &config.Storage.Badger)
}
