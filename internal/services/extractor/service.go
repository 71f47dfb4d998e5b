// -----------------------------------------------------------------------
// Project information extraction
// -----------------------------------------------------------------------

package extractor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mbedbridge/internal/common"
	"github.com/ternarybob/mbedbridge/internal/interfaces"
	"github.com/ternarybob/mbedbridge/internal/models"
	"github.com/ternarybob/mbedbridge/internal/services/notify"
	"github.com/ternarybob/mbedbridge/internal/services/paths"
	"github.com/ternarybob/mbedbridge/internal/services/symbols"
)

// jobs keeps toolchain preparation sequential from the adapter's side
const jobs = 1

// Dependencies are the external collaborators of one extraction
type Dependencies struct {
	Registry interfaces.TargetRegistry
	Profiles interfaces.ProfileStore
	Preparer interfaces.ToolchainPreparer
	Scanner  interfaces.ResourceScanner
	Merger   interfaces.RegionMerger // Optional, only needed by MergeApps
	Notifier interfaces.Notifier     // Defaults to a no-op notifier
}

// Service extracts project information for one project spec
type Service struct {
	spec   models.ProjectSpec
	deps   Dependencies
	logger arbor.ILogger
	getwd  func() (string, error)
}

// NewService creates a new extractor. Empty toolchain and build profile
// fall back to the defaults.
func NewService(spec models.ProjectSpec, deps Dependencies, logger arbor.ILogger) *Service {
	if spec.Toolchain == "" {
		spec.Toolchain = common.DefaultToolchain
	}
	if spec.BuildProfile == "" {
		spec.BuildProfile = common.DefaultBuildProfile
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.NewNoop()
	}
	return &Service{
		spec:   spec,
		deps:   deps,
		logger: logger,
		getwd:  os.Getwd,
	}
}

// Spec returns the spec with defaults applied
func (s *Service) Spec() models.ProjectSpec {
	return s.spec
}

// ExtractProjectInfo runs one extraction and returns only the project info
func (s *Service) ExtractProjectInfo(ctx context.Context, generateConfig bool) (*models.ProjectInfo, error) {
	extraction, err := s.Extract(ctx, generateConfig)
	if err != nil {
		return nil, err
	}
	return extraction.Info, nil
}

// Extract runs one extraction. An unresolved target or a missing build
// profile is a *common.ConfigurationError; faults from the toolchain and
// the scanner are returned wrapped but otherwise unchanged.
func (s *Service) Extract(ctx context.Context, generateConfig bool) (*Extraction, error) {
	if err := s.spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid project spec: %w", err)
	}

	target, err := s.targetConfig(ctx)
	if err != nil {
		return nil, err
	}

	profiles, err := s.deps.Profiles.Load(ctx, s.spec.FrameworkPath, s.spec.BuildProfile)
	if err != nil {
		return nil, err
	}

	srcPaths, err := s.relativeSrcPaths()
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("target", target.Name).
		Str("toolchain", s.spec.Toolchain).
		Str("profile", s.spec.BuildProfile).
		Strs("src_paths", srcPaths).
		Msg("Extracting project info")

	toolchain, err := s.deps.Preparer.Prepare(ctx, interfaces.PrepareRequest{
		SrcPaths:      srcPaths,
		BuildPath:     s.spec.BuildPath,
		Target:        target,
		ToolchainName: s.spec.Toolchain,
		Macros:        nil,
		Clean:         false,
		Jobs:          jobs,
		Notifier:      s.deps.Notifier,
		AppConfig:     s.spec.AppConfig,
		Profiles:      profiles,
		Ignore:        s.spec.IgnoreDirs,
	})
	if err != nil {
		return nil, fmt.Errorf("prepare toolchain: %w", err)
	}

	res, err := s.deps.Scanner.Scan(ctx, interfaces.ScanRequest{
		SrcPaths:          srcPaths,
		Toolchain:         toolchain,
		DependenciesPaths: nil,
		IncDirs:           nil,
	})
	if err != nil {
		return nil, fmt.Errorf("scan resources: %w", err)
	}

	if generateConfig {
		header, err := toolchain.GenerateConfigHeader(ctx)
		if err != nil {
			return nil, fmt.Errorf("generate config header: %w", err)
		}
		s.logger.Debug().Str("path", header).Msg("Generated configuration header")
	}

	info := buildInfo(res, toolchain)

	s.logger.Info().
		Int("src_files", len(info.SrcFiles)).
		Int("inc_dirs", len(info.IncDirs)).
		Int("build_symbols", len(info.BuildSymbols)).
		Msg("Project info extracted")

	return &Extraction{
		Info:      info,
		Toolchain: toolchain,
		buildPath: s.spec.BuildPath,
		merger:    s.deps.Merger,
		notify:    s.deps.Notifier,
		logger:    s.logger,
	}, nil
}

func (s *Service) targetConfig(ctx context.Context) (*models.TargetConfig, error) {
	target, ok, err := s.deps.Registry.Lookup(ctx, s.spec.Target)
	if err != nil {
		return nil, fmt.Errorf("lookup target %s: %w", s.spec.Target, err)
	}
	if !ok || target == nil {
		return nil, common.NewTargetNotFoundError(s.spec.Target)
	}
	return target, nil
}

// relativeSrcPaths converts every source root to a path relative to the
// working directory; roots on another volume are kept as they are
func (s *Service) relativeSrcPaths() ([]string, error) {
	wd, err := s.getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	out := make([]string, 0, len(s.spec.SrcPaths))
	for _, p := range s.spec.SrcPaths {
		abs := p
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(wd, abs)
		}
		rel, err := filepath.Rel(wd, abs)
		if err != nil {
			rel = p
		}
		out = append(out, rel)
	}
	return out, nil
}

func buildInfo(res *models.Resources, toolchain interfaces.Toolchain) *models.ProjectInfo {
	srcFiles := make([]models.FileRef, 0, len(res.ASMSources)+len(res.CSources)+len(res.CPPSources))
	srcFiles = append(srcFiles, res.ASMSources...)
	srcFiles = append(srcFiles, res.CSources...)
	srcFiles = append(srcFiles, res.CPPSources...)

	var ldscripts []models.FileRef
	if res.LinkerScript != nil {
		ldscripts = append(ldscripts, *res.LinkerScript)
	}

	sysLibs := slices.Clone(toolchain.SysLibs())
	if sysLibs == nil {
		sysLibs = []string{}
	}

	return &models.ProjectInfo{
		SrcFiles:     paths.NormalizeRefs(srcFiles),
		IncDirs:      paths.NormalizeRefs(res.IncDirs),
		LDScript:     paths.NormalizeRefs(ldscripts),
		Objs:         paths.NormalizeRefs(res.Objects),
		BuildFlags:   toolchain.Flags().Clone(),
		Libs:         paths.NormalizeRefs(res.Libraries),
		LibPaths:     paths.NormalizeRefs(res.LibDirs),
		SysLibs:      sysLibs,
		BuildSymbols: symbols.Sanitize(toolchain.Symbols()),
		Hex:          paths.NormalizeRefs(res.HexFiles),
		Bin:          paths.NormalizeRefs(res.BinFiles),
	}
}
