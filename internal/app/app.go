package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mbedbridge/internal/common"
	"github.com/ternarybob/mbedbridge/internal/interfaces"
	"github.com/ternarybob/mbedbridge/internal/models"
	"github.com/ternarybob/mbedbridge/internal/services/extractor"
	"github.com/ternarybob/mbedbridge/internal/services/profiles"
	"github.com/ternarybob/mbedbridge/internal/services/resources"
	"github.com/ternarybob/mbedbridge/internal/services/symbols"
	"github.com/ternarybob/mbedbridge/internal/services/targets"
	"github.com/ternarybob/mbedbridge/internal/services/toolchain"
	"github.com/ternarybob/mbedbridge/internal/storage"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// StorageManager is nil when storage is disabled
	StorageManager interfaces.StorageManager

	Profiles interfaces.ProfileStore
	Preparer interfaces.ToolchainPreparer

	// Merger is nil unless the caller wires one; extractions then report
	// extractor.ErrNoMerger for targets with regions
	Merger interfaces.RegionMerger

	mu         sync.Mutex
	registries map[string]interfaces.TargetRegistry
}

// New initializes the application with its services
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config:     cfg,
		Logger:     logger,
		Profiles:   profiles.NewStore(logger),
		Preparer:   toolchain.NewPreparer(logger),
		registries: make(map[string]interfaces.TargetRegistry),
	}

	if cfg.Storage.Enabled {
		if err := app.initDatabase(); err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
	}

	logger.Debug().
		Bool("storage_enabled", cfg.Storage.Enabled).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	storageManager, err := storage.NewStorageManager(a.Logger, a.Config)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}

	a.StorageManager = storageManager
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")
	return nil
}

// ProjectSpec builds the extraction input from the [project] config section
func (a *App) ProjectSpec() models.ProjectSpec {
	p := a.Config.Project
	return models.ProjectSpec{
		SrcPaths:      p.SrcPaths,
		BuildPath:     p.BuildPath,
		Target:        p.Target,
		FrameworkPath: p.FrameworkPath,
		AppConfig:     p.AppConfig,
		IgnoreDirs:    p.IgnoreDirs,
		Toolchain:     p.Toolchain,
		BuildProfile:  p.BuildProfile,
	}
}

// Extract runs one extraction for spec and records it when storage is
// enabled. A failure to record is logged, not returned.
func (a *App) Extract(ctx context.Context, spec models.ProjectSpec, generateConfig bool) (*extractor.Extraction, error) {
	registry, err := a.registry(spec.FrameworkPath)
	if err != nil {
		return nil, err
	}

	svc := extractor.NewService(spec, extractor.Dependencies{
		Registry: registry,
		Profiles: a.Profiles,
		Preparer: a.Preparer,
		Scanner:  resources.NewScanner(a.Logger, spec.IgnoreDirs),
		Merger:   a.Merger,
	}, a.Logger)

	extraction, err := svc.Extract(ctx, generateConfig)
	if err != nil {
		return nil, err
	}

	if a.StorageManager != nil {
		record := &models.ExtractionRecord{
			ID:         common.NewExtractionID(),
			Target:     svc.Spec().Target,
			Toolchain:  svc.Spec().Toolchain,
			SymbolsKey: symbols.Key(extraction.Info.BuildSymbols),
			Info:       *extraction.Info,
		}
		if err := a.StorageManager.ExtractionStorage().SaveExtraction(ctx, record); err != nil {
			a.Logger.Warn().Err(err).Str("target", record.Target).Msg("Failed to record extraction")
		} else {
			a.Logger.Debug().Str("id", record.ID).Str("symbols_key", record.SymbolsKey).Msg("Extraction recorded")
		}
	}

	return extraction, nil
}

// registry returns the target registry for a framework root, one per root
func (a *App) registry(frameworkPath string) (interfaces.TargetRegistry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if r, ok := a.registries[frameworkPath]; ok {
		return r, nil
	}
	r, err := targets.NewRegistry(frameworkPath, a.Logger)
	if err != nil {
		return nil, err
	}
	a.registries[frameworkPath] = r
	return r, nil
}

// Close closes all application resources
func (a *App) Close() error {
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Debug().Msg("Storage closed")
	}
	return nil
}
