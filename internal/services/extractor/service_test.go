package extractor

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mbedbridge/internal/common"
	"github.com/ternarybob/mbedbridge/internal/interfaces"
	"github.com/ternarybob/mbedbridge/internal/models"
	"github.com/ternarybob/mbedbridge/internal/services/notify"
)

type fakeRegistry struct {
	targets map[string]*models.TargetConfig
	err     error
}

func (f *fakeRegistry) Lookup(ctx context.Context, name string) (*models.TargetConfig, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	t, ok := f.targets[name]
	return t, ok, nil
}

type fakeProfiles struct {
	calls int
	err   error
}

func (f *fakeProfiles) Load(ctx context.Context, frameworkPath, profile string) ([]models.Profile, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []models.Profile{{"GCC_ARM": {Common: []string{"-Os"}}}}, nil
}

type fakeToolchain struct {
	flags      models.BuildFlags
	sysLibs    []string
	symbols    []string
	regions    []models.Region
	headerPath string
	headers    int
}

func (f *fakeToolchain) Name() string                 { return "GCC_ARM" }
func (f *fakeToolchain) Target() *models.TargetConfig { return nil }
func (f *fakeToolchain) Flags() models.BuildFlags     { return f.flags }
func (f *fakeToolchain) SysLibs() []string            { return f.sysLibs }
func (f *fakeToolchain) Symbols() []string            { return f.symbols }
func (f *fakeToolchain) Labels() map[string][]string  { return nil }
func (f *fakeToolchain) Regions() []models.Region     { return f.regions }

func (f *fakeToolchain) GenerateConfigHeader(ctx context.Context) (string, error) {
	f.headers++
	return f.headerPath, nil
}

type fakePreparer struct {
	toolchain *fakeToolchain
	requests  []interfaces.PrepareRequest
	err       error
}

func (f *fakePreparer) Prepare(ctx context.Context, req interfaces.PrepareRequest) (interfaces.Toolchain, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.toolchain, nil
}

type fakeScanner struct {
	resources *models.Resources
	requests  []interfaces.ScanRequest
	err       error
}

func (f *fakeScanner) Scan(ctx context.Context, req interfaces.ScanRequest) (*models.Resources, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.resources, nil
}

func ref(location string) models.FileRef {
	return models.FileRef{Name: filepath.Base(location), Location: location}
}

type fixture struct {
	registry  *fakeRegistry
	profiles  *fakeProfiles
	preparer  *fakePreparer
	scanner   *fakeScanner
	toolchain *fakeToolchain
}

func newFixture() *fixture {
	tc := &fakeToolchain{
		flags:   models.BuildFlags{Common: []string{"-Os"}, LD: []string{"-Wl,--gc-sections"}},
		sysLibs: []string{"stdc++", "m"},
		symbols: []string{
			"MBED_BUILD_TIMESTAMP=12345",
			"FOO",
			"BAR=1",
			`CMSIS_VECTAB_VIRTUAL_HEADER_FILE="cmsis_nvic.h"`,
		},
		headerPath: "build/mbed_config.h",
	}
	return &fixture{
		registry: &fakeRegistry{targets: map[string]*models.TargetConfig{
			"K64F": {Name: "K64F", SupportedToolchains: []string{"GCC_ARM"}},
		}},
		profiles:  &fakeProfiles{},
		preparer:  &fakePreparer{toolchain: tc},
		toolchain: tc,
		scanner: &fakeScanner{resources: &models.Resources{
			ASMSources:   []models.FileRef{ref("fw_root/internal/startup/startup.S")},
			CSources:     []models.FileRef{ref("fw_root/internal/drivers/uart.c")},
			CPPSources:   []models.FileRef{ref("fw_root/internal/main.cpp")},
			IncDirs:      []models.FileRef{ref("fw_root/internal"), ref("fw_root/internal/drivers")},
			LinkerScript: &models.FileRef{Name: "MK64FN1M0xxx12.ld", Location: "fw_root/internal/device/MK64FN1M0xxx12.ld"},
			Libraries:    []models.FileRef{ref("fw_root/internal/lib/libcrypto.a")},
			LibDirs:      []models.FileRef{ref("fw_root/internal/lib")},
		}},
	}
}

func (f *fixture) service(spec models.ProjectSpec) *Service {
	svc := NewService(spec, Dependencies{
		Registry: f.registry,
		Profiles: f.profiles,
		Preparer: f.preparer,
		Scanner:  f.scanner,
	}, arbor.NewLogger())
	svc.getwd = func() (string, error) { return "/work", nil }
	return svc
}

func testSpec() models.ProjectSpec {
	return models.ProjectSpec{
		SrcPaths:      []string{"/work/fw_root/internal", "src"},
		BuildPath:     "build",
		Target:        "K64F",
		FrameworkPath: "/frameworks/mbed",
		IgnoreDirs:    []string{"tests"},
	}
}

func TestExtractProjectInfo(t *testing.T) {
	f := newFixture()

	info, err := f.service(testSpec()).ExtractProjectInfo(context.Background(), false)
	require.NoError(t, err)

	sep := string(filepath.Separator)
	assert.Equal(t, []string{"startup" + sep + "startup.S", "drivers" + sep + "uart.c", "main.cpp"}, info.SrcFiles)
	assert.Equal(t, []string{"drivers"}, info.IncDirs)
	assert.Equal(t, []string{"device" + sep + "MK64FN1M0xxx12.ld"}, info.LDScript)
	assert.Equal(t, []string{"lib" + sep + "libcrypto.a"}, info.Libs)
	assert.Equal(t, []string{"lib"}, info.LibPaths)
	assert.Equal(t, []string{
		"BAR=1",
		`CMSIS_VECTAB_VIRTUAL_HEADER_FILE=\"cmsis_nvic.h\"`,
		"FOO",
	}, info.BuildSymbols)
	assert.Equal(t, []string{"-Os"}, info.BuildFlags.Common)
	assert.Equal(t, []string{"-Wl,--gc-sections"}, info.BuildFlags.LD)
	assert.NotNil(t, info.BuildFlags.ASM)
	assert.Empty(t, info.BuildFlags.ASM)
	assert.Equal(t, []string{"stdc++", "m"}, info.SysLibs)
	assert.Equal(t, 0, f.toolchain.headers)
}

func TestExtractProjectInfo_PrepareAndScanArguments(t *testing.T) {
	f := newFixture()

	_, err := f.service(testSpec()).ExtractProjectInfo(context.Background(), false)
	require.NoError(t, err)

	require.Len(t, f.preparer.requests, 1)
	req := f.preparer.requests[0]
	assert.Equal(t, []string{filepath.Join("fw_root", "internal"), "src"}, req.SrcPaths)
	assert.Equal(t, "build", req.BuildPath)
	assert.Equal(t, "K64F", req.Target.Name)
	assert.Equal(t, common.DefaultToolchain, req.ToolchainName)
	assert.Nil(t, req.Macros)
	assert.False(t, req.Clean)
	assert.Equal(t, 1, req.Jobs)
	assert.IsType(t, notify.Noop{}, req.Notifier)
	assert.Equal(t, []string{"tests"}, req.Ignore)
	require.Len(t, req.Profiles, 1)

	require.Len(t, f.scanner.requests, 1)
	scan := f.scanner.requests[0]
	assert.Equal(t, req.SrcPaths, scan.SrcPaths)
	assert.Same(t, f.toolchain, scan.Toolchain)
	assert.Nil(t, scan.DependenciesPaths)
	assert.Nil(t, scan.IncDirs)
}

func TestExtractProjectInfo_GenerateConfig(t *testing.T) {
	f := newFixture()

	_, err := f.service(testSpec()).ExtractProjectInfo(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 1, f.toolchain.headers)
}

func TestExtractProjectInfo_UnknownTarget(t *testing.T) {
	f := newFixture()
	spec := testSpec()
	spec.Target = "NOPE"

	info, err := f.service(spec).ExtractProjectInfo(context.Background(), false)
	require.Error(t, err)
	assert.Nil(t, info)

	var cfgErr *common.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "NOPE", cfgErr.Name)
	assert.Equal(t, "failed to extract info for NOPE target", err.Error())

	assert.Empty(t, f.preparer.requests)
	assert.Empty(t, f.scanner.requests)
	assert.Zero(t, f.profiles.calls)
}

func TestExtractProjectInfo_MissingProfile(t *testing.T) {
	f := newFixture()
	f.profiles.err = common.NewProfileNotFoundError("/frameworks/mbed/tools/profiles/release.json")

	_, err := f.service(testSpec()).ExtractProjectInfo(context.Background(), false)
	require.Error(t, err)
	assert.True(t, common.IsConfigurationError(err))
	assert.Empty(t, f.preparer.requests)
}

func TestExtractProjectInfo_ExternalFaultsPropagate(t *testing.T) {
	boom := errors.New("boom")

	t.Run("registry", func(t *testing.T) {
		f := newFixture()
		f.registry.err = boom
		_, err := f.service(testSpec()).ExtractProjectInfo(context.Background(), false)
		assert.ErrorIs(t, err, boom)
		assert.False(t, common.IsConfigurationError(err))
	})

	t.Run("preparer", func(t *testing.T) {
		f := newFixture()
		f.preparer.err = boom
		_, err := f.service(testSpec()).ExtractProjectInfo(context.Background(), false)
		assert.ErrorIs(t, err, boom)
		assert.Empty(t, f.scanner.requests)
	})

	t.Run("scanner", func(t *testing.T) {
		f := newFixture()
		f.scanner.err = boom
		info, err := f.service(testSpec()).ExtractProjectInfo(context.Background(), false)
		assert.ErrorIs(t, err, boom)
		assert.Nil(t, info)
	})
}

func TestExtractProjectInfo_InvalidSpec(t *testing.T) {
	f := newFixture()
	spec := testSpec()
	spec.SrcPaths = nil

	_, err := f.service(spec).ExtractProjectInfo(context.Background(), false)
	require.Error(t, err)
	assert.Empty(t, f.preparer.requests)
}

func TestExtractProjectInfo_EmptyResourcesGiveEmptyLists(t *testing.T) {
	f := newFixture()
	f.scanner.resources = &models.Resources{}
	f.toolchain.sysLibs = nil
	f.toolchain.symbols = nil
	f.toolchain.flags = models.BuildFlags{}

	info, err := f.service(testSpec()).ExtractProjectInfo(context.Background(), false)
	require.NoError(t, err)

	for name, list := range map[string][]string{
		"src_files":     info.SrcFiles,
		"inc_dirs":      info.IncDirs,
		"ldscript":      info.LDScript,
		"objs":          info.Objs,
		"libs":          info.Libs,
		"lib_paths":     info.LibPaths,
		"syslibs":       info.SysLibs,
		"build_symbols": info.BuildSymbols,
		"hex":           info.Hex,
		"bin":           info.Bin,
		"common":        info.BuildFlags.Common,
		"asm":           info.BuildFlags.ASM,
		"c":             info.BuildFlags.C,
		"cxx":           info.BuildFlags.CXX,
		"ld":            info.BuildFlags.LD,
	} {
		assert.NotNil(t, list, name)
		assert.Empty(t, list, name)
	}
}

func TestNewService_Defaults(t *testing.T) {
	svc := NewService(models.ProjectSpec{}, Dependencies{}, arbor.NewLogger())
	assert.Equal(t, common.DefaultToolchain, svc.Spec().Toolchain)
	assert.Equal(t, common.DefaultBuildProfile, svc.Spec().BuildProfile)
}
