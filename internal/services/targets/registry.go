package targets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mbedbridge/internal/interfaces"
	"github.com/ternarybob/mbedbridge/internal/models"
)

const defaultCacheSize = 64

// targetEntry is one raw targets.json entry. A list set directly replaces
// the inherited list; *_add and *_remove adjust it.
type targetEntry struct {
	Core                *string         `json:"core"`
	Inherits            []string        `json:"inherits"`
	ExtraLabels         []string        `json:"extra_labels"`
	ExtraLabelsAdd      []string        `json:"extra_labels_add"`
	ExtraLabelsRemove   []string        `json:"extra_labels_remove"`
	Macros              []string        `json:"macros"`
	MacrosAdd           []string        `json:"macros_add"`
	MacrosRemove        []string        `json:"macros_remove"`
	DeviceHas           []string        `json:"device_has"`
	DeviceHasAdd        []string        `json:"device_has_add"`
	DeviceHasRemove     []string        `json:"device_has_remove"`
	Features            []string        `json:"features"`
	FeaturesAdd         []string        `json:"features_add"`
	FeaturesRemove      []string        `json:"features_remove"`
	SupportedToolchains []string        `json:"supported_toolchains"`
	Regions             []models.Region `json:"regions"`
}

// Registry is a file-backed target registry over <framework>/targets/targets.json
type Registry struct {
	path   string
	logger arbor.ILogger
	cache  *lru.Cache[string, *models.TargetConfig]

	mu      sync.Mutex
	loaded  bool
	entries map[string]targetEntry
}

var _ interfaces.TargetRegistry = (*Registry)(nil)

// RegistryPath returns the targets.json location under a framework root
func RegistryPath(frameworkPath string) string {
	return filepath.Join(frameworkPath, "targets", "targets.json")
}

// NewRegistry creates a registry reading the framework's targets.json
func NewRegistry(frameworkPath string, logger arbor.ILogger) (*Registry, error) {
	cache, err := lru.New[string, *models.TargetConfig](defaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create target cache: %w", err)
	}
	return &Registry{
		path:   RegistryPath(frameworkPath),
		logger: logger,
		cache:  cache,
	}, nil
}

// Lookup resolves a target and its inheritance chain. A missing registry
// file reports the target as absent. The returned config is shared and
// must not be modified.
func (r *Registry) Lookup(ctx context.Context, name string) (*models.TargetConfig, bool, error) {
	if cfg, ok := r.cache.Get(name); ok {
		return cfg, true, nil
	}

	entries, err := r.load()
	if err != nil {
		return nil, false, err
	}
	if _, ok := entries[name]; !ok {
		r.logger.Debug().Str("target", name).Str("path", r.path).Msg("Target not found in registry")
		return nil, false, nil
	}

	res, err := resolve(entries, name, nil)
	if err != nil {
		return nil, false, err
	}
	cfg := res.cfg
	r.cache.Add(name, cfg)

	r.logger.Debug().
		Str("target", name).
		Strs("ancestors", cfg.Ancestors).
		Int("regions", len(cfg.Regions)).
		Msg("Resolved target")
	return cfg, true, nil
}

func (r *Registry) load() (map[string]targetEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loaded {
		return r.entries, nil
	}

	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		r.logger.Warn().Str("path", r.path).Msg("Target registry file not found")
		r.entries = map[string]targetEntry{}
		r.loaded = true
		return r.entries, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read target registry %s: %w", r.path, err)
	}

	entries := map[string]targetEntry{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse target registry %s: %w", r.path, err)
	}

	r.entries = entries
	r.loaded = true
	r.logger.Debug().Str("path", r.path).Int("targets", len(entries)).Msg("Loaded target registry")
	return entries, nil
}

// Target attributes tracked for inheritance
const (
	attrCore        = "core"
	attrExtraLabels = "extra_labels"
	attrMacros      = "macros"
	attrDeviceHas   = "device_has"
	attrFeatures    = "features"
	attrToolchains  = "supported_toolchains"
	attrRegions     = "regions"
)

// resolved is a target with the attributes its chain actually declares
type resolved struct {
	cfg     *models.TargetConfig
	defined map[string]bool
}

func resolve(entries map[string]targetEntry, name string, visiting []string) (*resolved, error) {
	if slices.Contains(visiting, name) {
		return nil, fmt.Errorf("target %s: inheritance cycle through %v", name, visiting)
	}
	entry, ok := entries[name]
	if !ok {
		return nil, fmt.Errorf("target %s: unknown parent target", name)
	}
	visiting = append(slices.Clone(visiting), name)

	parents := make([]*resolved, len(entry.Inherits))
	for i, p := range entry.Inherits {
		parent, err := resolve(entries, p, visiting)
		if err != nil {
			return nil, err
		}
		parents[i] = parent
	}

	r := &resolved{cfg: &models.TargetConfig{}, defined: map[string]bool{}}
	inherit(r, parents)

	var ancestors []string
	for _, parent := range parents {
		ancestors = appendUnique(ancestors, parent.cfg.Name)
		ancestors = appendUnique(ancestors, parent.cfg.Ancestors...)
	}

	cfg := r.cfg
	cfg.Name = name
	cfg.Inherits = slices.Clone(entry.Inherits)
	cfg.Ancestors = ancestors
	if entry.Core != nil {
		cfg.Core = *entry.Core
		r.defined[attrCore] = true
	}
	r.adjust(attrExtraLabels, &cfg.ExtraLabels, entry.ExtraLabels, entry.ExtraLabelsAdd, entry.ExtraLabelsRemove)
	r.adjust(attrMacros, &cfg.Macros, entry.Macros, entry.MacrosAdd, entry.MacrosRemove)
	r.adjust(attrDeviceHas, &cfg.DeviceHas, entry.DeviceHas, entry.DeviceHasAdd, entry.DeviceHasRemove)
	r.adjust(attrFeatures, &cfg.Features, entry.Features, entry.FeaturesAdd, entry.FeaturesRemove)
	if entry.SupportedToolchains != nil {
		cfg.SupportedToolchains = slices.Clone(entry.SupportedToolchains)
		r.defined[attrToolchains] = true
	}
	if entry.Regions != nil {
		cfg.Regions = slices.Clone(entry.Regions)
		r.defined[attrRegions] = true
	}
	return r, nil
}

// inherit takes each attribute from the first parent whose chain declares it
func inherit(dst *resolved, parents []*resolved) {
	from := func(attr string) *models.TargetConfig {
		for _, p := range parents {
			if p.defined[attr] {
				dst.defined[attr] = true
				return p.cfg
			}
		}
		return nil
	}

	cfg := dst.cfg
	if p := from(attrCore); p != nil {
		cfg.Core = p.Core
	}
	if p := from(attrExtraLabels); p != nil {
		cfg.ExtraLabels = slices.Clone(p.ExtraLabels)
	}
	if p := from(attrMacros); p != nil {
		cfg.Macros = slices.Clone(p.Macros)
	}
	if p := from(attrDeviceHas); p != nil {
		cfg.DeviceHas = slices.Clone(p.DeviceHas)
	}
	if p := from(attrFeatures); p != nil {
		cfg.Features = slices.Clone(p.Features)
	}
	if p := from(attrToolchains); p != nil {
		cfg.SupportedToolchains = slices.Clone(p.SupportedToolchains)
	}
	if p := from(attrRegions); p != nil {
		cfg.Regions = slices.Clone(p.Regions)
	}
}

func (r *resolved) adjust(attr string, list *[]string, override, add, remove []string) {
	if override != nil || add != nil || remove != nil {
		r.defined[attr] = true
	}
	*list = adjust(*list, override, add, remove)
}

func adjust(inherited, override, add, remove []string) []string {
	out := inherited
	if override != nil {
		out = slices.Clone(override)
	}
	out = appendUnique(out, add...)
	if len(remove) > 0 {
		out = slices.DeleteFunc(out, func(s string) bool { return slices.Contains(remove, s) })
	}
	return out
}

func appendUnique(list []string, items ...string) []string {
	for _, item := range items {
		if !slices.Contains(list, item) {
			list = append(list, item)
		}
	}
	return list
}
