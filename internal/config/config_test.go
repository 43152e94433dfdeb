//
//  Copyright © Manetu Inc. All rights reserved.
//

package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/manetu/polix/internal/config"
)

func TestInitConfig(t *testing.T) {
	config.ResetConfig()
	assert.NotNil(t, config.VConfig)
}

func TestConfigDefaults(t *testing.T) {
	config.ResetConfig()
	assert.Equal(t, 128, config.CacheCapacityValue())
	assert.Equal(t, "auto", config.DefaultTierValue())
	assert.Empty(t, config.DeniedOperators())
}

func TestConfigEnvOverride(t *testing.T) {
	config.ResetConfig()
	require := assert.New(t)

	_ = os.Setenv("POLIX_CACHE_CAPACITY", "512")
	_ = os.Setenv("POLIX_OPERATORS_DENYLIST", "matches, not-matches")
	defer func() {
		_ = os.Unsetenv("POLIX_CACHE_CAPACITY")
		_ = os.Unsetenv("POLIX_OPERATORS_DENYLIST")
	}()
	config.ResetConfig()

	require.Equal(512, config.CacheCapacityValue())
	denied := config.DeniedOperators()
	require.True(denied["matches"])
	require.True(denied["not-matches"])
}

func TestDeniedOperatorsEmptyByDefault(t *testing.T) {
	config.ResetConfig()
	denied := config.DeniedOperators()
	assert.NotNil(t, denied)
	assert.Len(t, denied, 0)
}
