package common

import (
	"errors"
	"fmt"
)

// ConfigurationError reports a resource the build cannot proceed without:
// an unresolved target or a missing build profile. It is never retried.
type ConfigurationError struct {
	Resource string // "target" or "build profile"
	Name     string // target identifier or profile file path
}

func (e *ConfigurationError) Error() string {
	switch e.Resource {
	case "target":
		return fmt.Sprintf("failed to extract info for %s target", e.Name)
	case "build profile":
		return fmt.Sprintf("could not find the file with build profiles: %s", e.Name)
	}
	return fmt.Sprintf("missing %s: %s", e.Resource, e.Name)
}

// NewTargetNotFoundError creates the error for a target absent from the registry
func NewTargetNotFoundError(target string) *ConfigurationError {
	return &ConfigurationError{Resource: "target", Name: target}
}

// NewProfileNotFoundError creates the error for a missing build-profile file
func NewProfileNotFoundError(path string) *ConfigurationError {
	return &ConfigurationError{Resource: "build profile", Name: path}
}

// IsConfigurationError reports whether err wraps a *ConfigurationError
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}
