package lightspeedbridge

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("LIGHTSPEED_BASE_URL", "https://staging.example.test/API/")
	t.Setenv("LIGHTSPEED_ACCOUNT_ID", "42")
	t.Setenv("LIGHTSPEED_REFRESH_TOKEN", "refresh")
	t.Setenv("LIGHTSPEED_CLIENT_ID", "client")
	t.Setenv("LIGHTSPEED_MAX_THROTTLE_RETRIES", "5")
	t.Setenv("LIGHTSPEED_MAX_THROTTLE_WAIT", "2m")
	t.Setenv("LIGHTSPEED_VERBOSE", "true")

	v := viper.New()
	BindEnv(v)
	settings, err := LoadConfig(v)
	require.NoError(t, err)

	assert.Equal(t, "https://staging.example.test/API", settings.Config.BaseURL)
	assert.Equal(t, DefaultTimeout, settings.Config.Timeout)
	assert.Equal(t, 5, settings.Config.MaxThrottleRetries)
	assert.Equal(t, 2*time.Minute, settings.Config.MaxThrottleWait)
	assert.True(t, settings.Config.Verbose)
	assert.Equal(t, "42", settings.AccountID)
	assert.Equal(t, "refresh", settings.RefreshToken)
	assert.Equal(t, "client", settings.ClientID)
	assert.Empty(t, settings.AccessToken)
}

func TestLoadConfigDefaults(t *testing.T) {
	v := viper.New()
	BindEnv(v)
	settings, err := LoadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, settings.Config.BaseURL)
	assert.Zero(t, settings.Config.MaxThrottleRetries)
	assert.Zero(t, settings.Config.MaxThrottleWait)
	assert.False(t, settings.Config.Verbose)
}

func TestLoadConfigRejectsNegativeLimits(t *testing.T) {
	v := viper.New()
	v.Set("max_throttle_retries", -1)
	_, err := LoadConfig(v)
	assert.Error(t, err)
}

func TestSleepContext(t *testing.T) {
	require.NoError(t, sleepContext(context.Background(), 0))
	require.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}
