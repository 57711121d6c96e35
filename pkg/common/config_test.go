package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fngate/fngate/pkg/types"
)

func TestConfigManagerLoadsDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("CONFIG_JSON", "")

	cm, err := NewConfigManager[types.AppConfig]()
	require.NoError(t, err)

	config := cm.GetConfig()

	assert.Equal(t, 8080, config.Gateway.HTTP.Port)
	assert.Equal(t, "fngate-fn", config.Scaling.DefaultNamespace)
	assert.Equal(t, 100, config.Scaling.MaxPollCount)
	assert.Equal(t, 100*time.Millisecond, config.Scaling.PollInterval)
	assert.False(t, config.Scaling.GateAsync)
	assert.True(t, config.Queue.Enabled)
	assert.Equal(t, types.RedisModeSingle, config.Database.Redis.Mode)
}

func TestConfigManagerAppliesJSONOverrides(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("CONFIG_JSON", `{"gateway": {"http": {"port": 9999}}, "scaling": {"gateAsync": true}}`)

	cm, err := NewConfigManager[types.AppConfig]()
	require.NoError(t, err)

	config := cm.GetConfig()

	assert.Equal(t, 9999, config.Gateway.HTTP.Port)
	assert.True(t, config.Scaling.GateAsync)

	// Untouched defaults survive the overlay
	assert.Equal(t, "fngate-fn", config.Scaling.DefaultNamespace)
}
