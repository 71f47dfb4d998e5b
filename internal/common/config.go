package common

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const (
	// DefaultToolchain is the only toolchain the orchestrator drives
	DefaultToolchain = "GCC_ARM"
	// DefaultBuildProfile is one of debug, develop, release
	DefaultBuildProfile = "release"
)

// Config represents the application configuration
type Config struct {
	Project ProjectConfig `toml:"project"`
	Output  OutputConfig  `toml:"output"`
	Storage StorageConfig `toml:"storage"`
	Logging LoggingConfig `toml:"logging"`
}

// ProjectConfig describes the single project extracted per invocation
type ProjectConfig struct {
	FrameworkPath  string   `toml:"framework_path"`  // Root folder of the framework package
	Target         string   `toml:"target"`          // Target name in targets.json
	Toolchain      string   `toml:"toolchain"`       // Toolchain key in build profiles (default: GCC_ARM)
	BuildProfile   string   `toml:"build_profile"`   // tools/profiles/<name>.json (default: release)
	BuildPath      string   `toml:"build_path"`      // Where mbed_config.h is written
	SrcPaths       []string `toml:"src_paths"`       // Source roots, two leading components are framework-internal
	AppConfig      string   `toml:"app_config"`      // Optional mbed_app.json
	IgnoreDirs     []string `toml:"ignore_dirs"`     // Directory names skipped by the scanner
	GenerateConfig bool     `toml:"generate_config"` // Emit mbed_config.h during extraction
}

type OutputConfig struct {
	Format string `toml:"format"` // "json", "yaml" or "toml"
	Path   string `toml:"path"`   // Empty writes to stdout
}

type StorageConfig struct {
	Enabled bool         `toml:"enabled"`
	Badger  BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Project: ProjectConfig{
			Toolchain:    DefaultToolchain,
			BuildProfile: DefaultBuildProfile,
			BuildPath:    ".pio/build",
		},
		Output: OutputConfig{
			Format: "json",
		},
		Storage: StorageConfig{
			Enabled: false,
			Badger: BadgerConfig{
				Path: "./data/extractions",
			},
		},
		Logging: LoggingConfig{
			Level:  "warn", // manifest goes to stdout unless output.path is set
			Output: []string{"stdout"},
		},
	}
}

// LoadFromFiles loads configuration with priority: default -> file1 -> file2 -> ... -> .env -> env
// Later files override earlier files. CLI flags are applied by the caller afterwards.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	// .env never overrides variables already set in the process environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("MBEDBRIDGE_FRAMEWORK_PATH"); v != "" {
		config.Project.FrameworkPath = v
	}
	if v := os.Getenv("MBEDBRIDGE_TARGET"); v != "" {
		config.Project.Target = v
	}
	if v := os.Getenv("MBEDBRIDGE_TOOLCHAIN"); v != "" {
		config.Project.Toolchain = v
	}
	if v := os.Getenv("MBEDBRIDGE_BUILD_PROFILE"); v != "" {
		config.Project.BuildProfile = v
	}
	if v := os.Getenv("MBEDBRIDGE_BUILD_PATH"); v != "" {
		config.Project.BuildPath = v
	}
	if v := os.Getenv("MBEDBRIDGE_SRC_PATHS"); v != "" {
		config.Project.SrcPaths = splitString(v, ",")
	}
	if v := os.Getenv("MBEDBRIDGE_APP_CONFIG"); v != "" {
		config.Project.AppConfig = v
	}
	if v := os.Getenv("MBEDBRIDGE_IGNORE_DIRS"); v != "" {
		config.Project.IgnoreDirs = splitString(v, ",")
	}
	if v := os.Getenv("MBEDBRIDGE_GENERATE_CONFIG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Project.GenerateConfig = b
		}
	}

	if v := os.Getenv("MBEDBRIDGE_OUTPUT_FORMAT"); v != "" {
		config.Output.Format = v
	}
	if v := os.Getenv("MBEDBRIDGE_OUTPUT_PATH"); v != "" {
		config.Output.Path = v
	}

	if v := os.Getenv("MBEDBRIDGE_STORAGE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Storage.Enabled = b
		}
	}
	if v := os.Getenv("MBEDBRIDGE_BADGER_PATH"); v != "" {
		config.Storage.Badger.Path = v
	}

	if v := os.Getenv("MBEDBRIDGE_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("MBEDBRIDGE_LOG_OUTPUT"); v != "" {
		config.Logging.Output = splitString(v, ",")
	}
}

// FlagOverrides carries command-line values; zero values leave config untouched
type FlagOverrides struct {
	FrameworkPath  string
	Target         string
	Toolchain      string
	BuildProfile   string
	BuildPath      string
	SrcPaths       []string
	AppConfig      string
	IgnoreDirs     []string
	GenerateConfig bool
	OutputFormat   string
	OutputPath     string
	LogLevel       string
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, flags FlagOverrides) {
	if flags.FrameworkPath != "" {
		config.Project.FrameworkPath = flags.FrameworkPath
	}
	if flags.Target != "" {
		config.Project.Target = flags.Target
	}
	if flags.Toolchain != "" {
		config.Project.Toolchain = flags.Toolchain
	}
	if flags.BuildProfile != "" {
		config.Project.BuildProfile = flags.BuildProfile
	}
	if flags.BuildPath != "" {
		config.Project.BuildPath = flags.BuildPath
	}
	if len(flags.SrcPaths) > 0 {
		config.Project.SrcPaths = append([]string(nil), flags.SrcPaths...)
	}
	if flags.AppConfig != "" {
		config.Project.AppConfig = flags.AppConfig
	}
	if len(flags.IgnoreDirs) > 0 {
		config.Project.IgnoreDirs = append([]string(nil), flags.IgnoreDirs...)
	}
	if flags.GenerateConfig {
		config.Project.GenerateConfig = true
	}
	if flags.OutputFormat != "" {
		config.Output.Format = flags.OutputFormat
	}
	if flags.OutputPath != "" {
		config.Output.Path = flags.OutputPath
	}
	if flags.LogLevel != "" {
		config.Logging.Level = flags.LogLevel
	}
}

func splitString(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
