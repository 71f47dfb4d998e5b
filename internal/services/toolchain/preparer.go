// Package toolchain prepares a GCC_ARM toolchain handle from what the target
// and build-profile documents already declare. It does not drive a compiler.
package toolchain

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mbedbridge/internal/interfaces"
	"github.com/ternarybob/mbedbridge/internal/models"
	"github.com/ternarybob/mbedbridge/internal/services/symbols"
)

// ConfigHeaderName is the configuration header written into the build path
const ConfigHeaderName = "mbed_config.h"

// GCCARMSysLibs are linked by every GCC_ARM build
var GCCARMSysLibs = []string{"stdc++", "supc++", "m", "c", "gcc", "nosys"}

// coreMacros maps a target core to the CMSIS macros the toolchain defines
var coreMacros = map[string][]string{
	"Cortex-M0":  {"__CORTEX_M0", "ARM_MATH_CM0", "__CMSIS_RTOS", "__MBED_CMSIS_RTOS_CM"},
	"Cortex-M0+": {"__CORTEX_M0PLUS", "ARM_MATH_CM0PLUS", "__CMSIS_RTOS", "__MBED_CMSIS_RTOS_CM"},
	"Cortex-M3":  {"__CORTEX_M3", "ARM_MATH_CM3", "__CMSIS_RTOS", "__MBED_CMSIS_RTOS_CM"},
	"Cortex-M4":  {"__CORTEX_M4", "ARM_MATH_CM4", "__CMSIS_RTOS", "__MBED_CMSIS_RTOS_CM"},
	"Cortex-M4F": {"__CORTEX_M4", "ARM_MATH_CM4", "__FPU_PRESENT=1", "__CMSIS_RTOS", "__MBED_CMSIS_RTOS_CM"},
	"Cortex-M7":  {"__CORTEX_M7", "ARM_MATH_CM7", "__CMSIS_RTOS", "__MBED_CMSIS_RTOS_CM"},
	"Cortex-M7F": {"__CORTEX_M7", "ARM_MATH_CM7", "__FPU_PRESENT=1", "__CMSIS_RTOS", "__MBED_CMSIS_RTOS_CM"},
	"Cortex-M33": {"__CORTEX_M33", "ARM_MATH_ARMV8MML", "__CMSIS_RTOS", "__MBED_CMSIS_RTOS_CM"},
}

// Preparer is the reference interfaces.ToolchainPreparer
type Preparer struct {
	logger arbor.ILogger
	now    func() time.Time
}

var _ interfaces.ToolchainPreparer = (*Preparer)(nil)

// NewPreparer creates a new toolchain preparer
func NewPreparer(logger arbor.ILogger) *Preparer {
	return &Preparer{logger: logger, now: time.Now}
}

// Prepare builds a toolchain handle for one extraction
func (p *Preparer) Prepare(ctx context.Context, req interfaces.PrepareRequest) (interfaces.Toolchain, error) {
	if req.Target == nil {
		return nil, fmt.Errorf("prepare toolchain: no target configuration")
	}
	if len(req.Target.SupportedToolchains) > 0 && !slices.Contains(req.Target.SupportedToolchains, req.ToolchainName) {
		return nil, fmt.Errorf("target %s does not support toolchain %s", req.Target.Name, req.ToolchainName)
	}

	tc := &Toolchain{
		name:      req.ToolchainName,
		target:    req.Target,
		buildPath: req.BuildPath,
		notify:    req.Notifier,
		sysLibs:   slices.Clone(GCCARMSysLibs),
		flags:     models.BuildFlags{}.Clone(),
	}

	declared := false
	for _, profile := range req.Profiles {
		if flags, ok := profile[req.ToolchainName]; ok {
			declared = true
			tc.flags = tc.flags.Merge(flags)
		}
	}
	if len(req.Profiles) > 0 && !declared {
		return nil, fmt.Errorf("build profile declares no flags for toolchain %s", req.ToolchainName)
	}

	features := slices.Clone(req.Target.Features)
	deviceHas := slices.Clone(req.Target.DeviceHas)
	macros := slices.Clone(req.Target.Macros)
	var appMacros, configParams []string

	if req.AppConfig != "" {
		app, err := loadAppConfig(req.AppConfig)
		if err != nil {
			return nil, err
		}
		settings, err := app.apply(req.Target)
		if err != nil {
			return nil, fmt.Errorf("app config %s: %w", req.AppConfig, err)
		}
		features = appendMissing(features, settings.featuresAdd...)
		deviceHas = appendMissing(deviceHas, settings.deviceHasAdd...)
		macros = append(macros, settings.macrosAdd...)
		appMacros = settings.macros
		configParams = settings.configParams
	}
	macros = append(macros, req.Macros...)

	tc.labels = map[string][]string{
		"TARGET":    req.Target.Labels(),
		"TOOLCHAIN": toolchainLabels(req.ToolchainName),
		"FEATURE":   features,
	}

	var syms []string
	syms = append(syms, macros...)
	syms = append(syms, coreMacros[req.Target.Core]...)
	for _, l := range tc.labels["TARGET"] {
		syms = append(syms, "TARGET_"+l)
	}
	for _, l := range tc.labels["TOOLCHAIN"] {
		syms = append(syms, "TOOLCHAIN_"+l)
	}
	for _, d := range deviceHas {
		syms = append(syms, "DEVICE_"+d+"=1")
	}
	for _, f := range features {
		syms = append(syms, "FEATURE_"+f+"=1")
	}
	syms = append(syms, "__MBED__=1")
	syms = append(syms, symbols.TimestampMarker+"="+strconv.FormatInt(p.now().Unix(), 10))

	tc.configSymbols = append(slices.Clone(appMacros), configParams...)
	tc.symbols = append(syms, tc.configSymbols...)
	if len(req.Target.Regions) > 0 {
		tc.regions = slices.Clone(req.Target.Regions)
	}

	p.logger.Debug().
		Str("target", req.Target.Name).
		Str("toolchain", req.ToolchainName).
		Int("symbols", len(tc.symbols)).
		Int("jobs", req.Jobs).
		Bool("clean", req.Clean).
		Msg("Prepared toolchain")

	return tc, nil
}

func toolchainLabels(name string) []string {
	if strings.HasPrefix(name, "GCC") && name != "GCC" {
		return []string{name, "GCC"}
	}
	return []string{name}
}

func appendMissing(list []string, items ...string) []string {
	for _, item := range items {
		if !slices.Contains(list, item) {
			list = append(list, item)
		}
	}
	return list
}

// Toolchain is a prepared toolchain handle
type Toolchain struct {
	name          string
	target        *models.TargetConfig
	buildPath     string
	notify        interfaces.Notifier
	flags         models.BuildFlags
	sysLibs       []string
	symbols       []string
	configSymbols []string
	labels        map[string][]string
	regions       []models.Region
}

var _ interfaces.Toolchain = (*Toolchain)(nil)

func (t *Toolchain) Name() string                 { return t.name }
func (t *Toolchain) Target() *models.TargetConfig { return t.target }
func (t *Toolchain) Flags() models.BuildFlags     { return t.flags }
func (t *Toolchain) SysLibs() []string            { return slices.Clone(t.sysLibs) }
func (t *Toolchain) Symbols() []string            { return slices.Clone(t.symbols) }
func (t *Toolchain) Labels() map[string][]string  { return t.labels }
func (t *Toolchain) Regions() []models.Region     { return t.regions }

// GenerateConfigHeader writes mbed_config.h with the configuration
// parameters and app macros as #define lines
func (t *Toolchain) GenerateConfigHeader(ctx context.Context) (string, error) {
	if err := os.MkdirAll(t.buildPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create build directory %s: %w", t.buildPath, err)
	}

	var b strings.Builder
	b.WriteString("// Automatically generated configuration file.\n")
	b.WriteString("// DO NOT EDIT, content will be overwritten.\n\n")
	b.WriteString("#ifndef __MBED_CONFIG_DATA__\n#define __MBED_CONFIG_DATA__\n\n")
	for _, s := range t.configSymbols {
		d := symbols.ParseDefine(s)
		if d.HasValue {
			fmt.Fprintf(&b, "#define %s %s\n", d.Name, d.Value)
		} else {
			fmt.Fprintf(&b, "#define %s\n", d.Name)
		}
	}
	b.WriteString("\n#endif\n")

	path := filepath.Join(t.buildPath, ConfigHeaderName)
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if t.notify != nil {
		t.notify.Info("Generated " + path)
	}
	return path, nil
}
