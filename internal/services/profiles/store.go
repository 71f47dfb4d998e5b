package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mbedbridge/internal/common"
	"github.com/ternarybob/mbedbridge/internal/interfaces"
	"github.com/ternarybob/mbedbridge/internal/models"
)

// Store loads build profiles from <framework>/tools/profiles/<name>.json
type Store struct {
	logger arbor.ILogger
}

var _ interfaces.ProfileStore = (*Store)(nil)

// NewStore creates a new build-profile store
func NewStore(logger arbor.ILogger) *Store {
	return &Store{logger: logger}
}

// ProfilePath returns the location of a named profile under a framework root
func ProfilePath(frameworkPath, profile string) string {
	return filepath.Join(frameworkPath, "tools", "profiles", profile+".json")
}

// Load reads the named profile. A missing file is a *common.ConfigurationError.
func (s *Store) Load(ctx context.Context, frameworkPath string, profile string) ([]models.Profile, error) {
	path := ProfilePath(frameworkPath, profile)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, common.NewProfileNotFoundError(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read build profile %s: %w", path, err)
	}

	var doc models.Profile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse build profile %s: %w", path, err)
	}

	s.logger.Debug().Str("profile", profile).Int("toolchains", len(doc)).Msg("Loaded build profile")
	return []models.Profile{doc}, nil
}
