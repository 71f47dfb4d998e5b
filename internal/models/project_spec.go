package models

import (
	"github.com/go-playground/validator/v10"
)

// ProjectSpec is the input of one project-information extraction.
type ProjectSpec struct {
	SrcPaths      []string `json:"src_paths" validate:"required,min=1,dive,required"`
	BuildPath     string   `json:"build_path" validate:"required"`
	Target        string   `json:"target" validate:"required"`
	FrameworkPath string   `json:"framework_path" validate:"required"`
	AppConfig     string   `json:"app_config,omitempty"`
	IgnoreDirs    []string `json:"ignore_dirs,omitempty"`
	Toolchain     string   `json:"toolchain" validate:"required"`
	BuildProfile  string   `json:"build_profile" validate:"required"`
}

// Validate validates the spec using go-playground/validator.
func (s *ProjectSpec) Validate() error {
	validate := validator.New()
	return validate.Struct(s)
}
