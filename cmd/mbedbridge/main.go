package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mbedbridge/internal/app"
	"github.com/ternarybob/mbedbridge/internal/common"
	"github.com/ternarybob/mbedbridge/internal/services/manifest"
)

// stringList is a flag that may be given more than once
type stringList []string

func (s *stringList) String() string {
	return fmt.Sprintf("%v", *s)
}

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

var (
	configFiles stringList // Multiple -config flags supported
	srcPaths    stringList
	ignoreDirs  stringList

	frameworkPath  = flag.String("framework", "", "Framework package root (overrides config)")
	target         = flag.String("target", "", "Target name (overrides config)")
	buildProfile   = flag.String("profile", "", "Build profile: debug, develop or release (overrides config)")
	buildPath      = flag.String("build", "", "Build directory (overrides config)")
	appConfig      = flag.String("app-config", "", "Application config file (overrides config)")
	generateConfig = flag.Bool("generate-config", false, "Write mbed_config.h into the build directory")
	outputFormat   = flag.String("format", "", "Manifest format: json, yaml or toml (overrides config)")
	outputPath     = flag.String("out", "", "Manifest file, stdout when empty (overrides config)")
	logLevel       = flag.String("log-level", "", "Log level (overrides config)")
	showVersion    = flag.Bool("version", false, "Print version information")
	showVersionV   = flag.Bool("v", false, "Print version information (shorthand)")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
	flag.Var(&srcPaths, "src", "Source root (can be specified multiple times, overrides config)")
	flag.Var(&ignoreDirs, "ignore", "Directory name to skip (can be specified multiple times, overrides config)")
}

func main() {
	defer common.RecoverWithCrashFile()

	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("mbedbridge version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	if len(configFiles) == 0 {
		if _, err := os.Stat("mbedbridge.toml"); err == nil {
			configFiles = append(configFiles, "mbedbridge.toml")
		}
	}

	// 1. defaults -> file1 -> file2 -> ... -> .env -> env
	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		arbor.NewLogger().Error().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration files")
		os.Exit(1)
	}

	// 2. CLI overrides
	common.ApplyFlagOverrides(config, common.FlagOverrides{
		FrameworkPath:  *frameworkPath,
		Target:         *target,
		BuildProfile:   *buildProfile,
		BuildPath:      *buildPath,
		SrcPaths:       srcPaths,
		AppConfig:      *appConfig,
		IgnoreDirs:     ignoreDirs,
		GenerateConfig: *generateConfig,
		OutputFormat:   *outputFormat,
		OutputPath:     *outputPath,
		LogLevel:       *logLevel,
	})

	// 3. Logger with the final configuration
	logger := common.InitLogger(config)

	// The manifest owns stdout unless it goes to a file
	if config.Output.Path != "" {
		common.PrintBanner(common.GetVersion())
	}

	logger.Debug().
		Strs("config_files", configFiles).
		Str("framework", config.Project.FrameworkPath).
		Str("target", config.Project.Target).
		Str("profile", config.Project.BuildProfile).
		Bool("storage_enabled", config.Storage.Enabled).
		Msg("Resolved configuration")

	os.Exit(run(config, logger))
}

// run performs one extraction and returns the process exit code
func run(config *common.Config, logger arbor.ILogger) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(config, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize application")
		return 1
	}
	defer application.Close()

	extraction, err := application.Extract(ctx, application.ProjectSpec(), config.Project.GenerateConfig)
	if err != nil {
		if common.IsConfigurationError(err) {
			fmt.Fprintln(os.Stderr, err.Error())
			return 1
		}
		logger.Error().Err(err).Str("target", config.Project.Target).Msg("Extraction failed")
		return 1
	}

	if extraction.NeedsMerging() {
		logger.Info().
			Int("regions", len(extraction.Toolchain.Regions())).
			Msg("Target declares flash regions, merge after linking")
	}

	if config.Output.Path == "" {
		err = manifest.Write(os.Stdout, extraction.Info, config.Output.Format)
	} else {
		err = manifest.WriteFile(config.Output.Path, extraction.Info, config.Output.Format)
	}
	if err != nil {
		logger.Error().Err(err).Msg("Failed to write manifest")
		return 1
	}

	if config.Output.Path != "" {
		logger.Info().Str("path", config.Output.Path).Str("format", config.Output.Format).Msg("Manifest written")
	}
	return 0
}
