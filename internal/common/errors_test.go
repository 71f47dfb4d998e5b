package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigurationError_Messages(t *testing.T) {
	assert.Equal(t, "failed to extract info for K64F target", NewTargetNotFoundError("K64F").Error())
	assert.Equal(t,
		"could not find the file with build profiles: /fw/tools/profiles/release.json",
		NewProfileNotFoundError("/fw/tools/profiles/release.json").Error())
	assert.Equal(t, "missing app config: mbed_app.json",
		(&ConfigurationError{Resource: "app config", Name: "mbed_app.json"}).Error())
}

func TestIsConfigurationError(t *testing.T) {
	wrapped := fmt.Errorf("extract: %w", NewTargetNotFoundError("K64F"))
	assert.True(t, IsConfigurationError(wrapped))

	var cfgErr *ConfigurationError
	require.ErrorAs(t, wrapped, &cfgErr)
	assert.Equal(t, "target", cfgErr.Resource)

	assert.False(t, IsConfigurationError(errors.New("boom")))
	assert.False(t, IsConfigurationError(nil))
}
