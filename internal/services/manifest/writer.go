// Package manifest renders extracted project info for the build-description
// layer.
package manifest

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/ternarybob/mbedbridge/internal/models"
)

// Supported output formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// Formats lists every supported output format
var Formats = []string{FormatJSON, FormatYAML, FormatTOML}

// Marshal renders info in the given format. An empty format means JSON.
func Marshal(info *models.ProjectInfo, format string) ([]byte, error) {
	if info == nil {
		return nil, fmt.Errorf("no project info to render")
	}
	out := *info
	out.BuildFlags = info.BuildFlags.Clone()
	info = &out

	switch strings.ToLower(format) {
	case "", FormatJSON:
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal project info to json: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML, "yml":
		data, err := yaml.Marshal(info)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal project info to yaml: %w", err)
		}
		return data, nil
	case FormatTOML:
		data, err := toml.Marshal(info)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal project info to toml: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported manifest format %q (supported: %s)", format, strings.Join(Formats, ", "))
	}
}

// Write renders info to w
func Write(w io.Writer, info *models.ProjectInfo, format string) error {
	data, err := Marshal(info, format)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// WriteFile renders info to path, creating parent directories
func WriteFile(path string, info *models.ProjectInfo, format string) error {
	data, err := Marshal(info, format)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create manifest directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", path, err)
	}
	return nil
}
