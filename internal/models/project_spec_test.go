package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProjectSpec_Validate(t *testing.T) {
	valid := func() ProjectSpec {
		return ProjectSpec{
			SrcPaths:      []string{"fw/mbed"},
			BuildPath:     ".pio/build/k64f",
			Target:        "K64F",
			FrameworkPath: "/opt/framework-mbed",
			Toolchain:     "GCC_ARM",
			BuildProfile:  "release",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*ProjectSpec)
		wantErr bool
	}{
		{"valid", func(*ProjectSpec) {}, false},
		{"optional fields empty", func(s *ProjectSpec) { s.AppConfig = ""; s.IgnoreDirs = nil }, false},
		{"no src paths", func(s *ProjectSpec) { s.SrcPaths = nil }, true},
		{"empty src path", func(s *ProjectSpec) { s.SrcPaths = []string{"fw/mbed", ""} }, true},
		{"no target", func(s *ProjectSpec) { s.Target = "" }, true},
		{"no build path", func(s *ProjectSpec) { s.BuildPath = "" }, true},
		{"no framework", func(s *ProjectSpec) { s.FrameworkPath = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := valid()
			tt.mutate(&spec)
			err := spec.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTargetConfig_Labels(t *testing.T) {
	cfg := TargetConfig{
		Name:        "K64F",
		Ancestors:   []string{"MCU_K64F", "Target"},
		ExtraLabels: []string{"Freescale", "K64F"},
	}
	assert.Equal(t, []string{"K64F", "MCU_K64F", "Target", "Freescale"}, cfg.Labels())
	assert.False(t, cfg.HasRegions())
}

func TestBuildFlags_Merge(t *testing.T) {
	a := BuildFlags{Common: []string{"-Os"}}
	merged := a.Merge(BuildFlags{Common: []string{"-g"}, LD: []string{"-lm"}})

	assert.Equal(t, []string{"-Os", "-g"}, merged.Common)
	assert.Equal(t, []string{"-lm"}, merged.LD)
	assert.Equal(t, []string{"-Os"}, a.Common)
}
