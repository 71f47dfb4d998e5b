// -----------------------------------------------------------------------
// Boundary collaborators of the project-information extractor
// -----------------------------------------------------------------------

package interfaces

import (
	"context"

	"github.com/ternarybob/mbedbridge/internal/models"
)

// FileRef is anything that exposes a raw, framework-rooted path
type FileRef interface {
	Path() string
}

// Notifier is the progress interface the toolchain reports through
type Notifier interface {
	Info(message string)
	Debug(message string)
	Warning(message string)
	Progress(action string, file string, percent float64)
	ToolchainCommand(command string)
}

// TargetRegistry resolves target identifiers to their configuration
type TargetRegistry interface {
	// Lookup returns ok=false when the target is absent
	Lookup(ctx context.Context, name string) (*models.TargetConfig, bool, error)
}

// ProfileStore loads build-profile documents from a framework root
type ProfileStore interface {
	Load(ctx context.Context, frameworkPath string, profile string) ([]models.Profile, error)
}

// PrepareRequest carries every parameter of toolchain preparation
type PrepareRequest struct {
	SrcPaths      []string
	BuildPath     string
	Target        *models.TargetConfig
	ToolchainName string
	Macros        []string // nil: no override
	Clean         bool
	Jobs          int
	Notifier      Notifier
	AppConfig     string
	Profiles      []models.Profile
	Ignore        []string
}

// Toolchain is a prepared toolchain handle
type Toolchain interface {
	Name() string
	Target() *models.TargetConfig
	Flags() models.BuildFlags
	SysLibs() []string
	// Symbols returns the raw preprocessor definitions, unsorted
	Symbols() []string
	// Labels returns active label names keyed by kind: TARGET, TOOLCHAIN, FEATURE
	Labels() map[string][]string
	// GenerateConfigHeader writes the configuration header and returns its path
	GenerateConfigHeader(ctx context.Context) (string, error)
	Regions() []models.Region
}

// ToolchainPreparer prepares a toolchain for a set of source roots
type ToolchainPreparer interface {
	Prepare(ctx context.Context, req PrepareRequest) (Toolchain, error)
}

// ScanRequest carries every parameter of a resource scan
type ScanRequest struct {
	SrcPaths          []string
	Toolchain         Toolchain
	DependenciesPaths []string // nil: none
	IncDirs           []string // nil: none
}

// ResourceScanner discovers and categorizes project files
type ResourceScanner interface {
	Scan(ctx context.Context, req ScanRequest) (*models.Resources, error)
}

// RegionMerger merges region images into one firmware image
type RegionMerger interface {
	Merge(ctx context.Context, regions []models.Region, destination string, notify Notifier) error
}
