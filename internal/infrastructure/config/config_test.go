package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, "http://localhost:8080", cfg.Issuer)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenDuration)
	assert.Equal(t, 30*24*time.Hour, cfg.RefreshTokenDuration)
	assert.Equal(t, 10*time.Minute, cfg.CodeDuration)
	assert.Equal(t, 5, cfg.DeviceCodeInterval)
	assert.Equal(t, 2048, cfg.RSAKeySize)
	assert.Equal(t, 8080, cfg.ServerPort)
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("ISSUER", "https://auth.flowforge.test")
	t.Setenv("ACCESS_TOKEN_DURATION", "5m")
	t.Setenv("DEVICE_CODE_INTERVAL", "10")
	t.Setenv("PORT", "9090")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://auth.flowforge.test", cfg.Issuer)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenDuration)
	assert.Equal(t, 10, cfg.DeviceCodeInterval)
	assert.Equal(t, 9090, cfg.ServerPort)
}

func TestLoadConfigInvalidDuration(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_DURATION", "not-a-duration")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestSecurityView(t *testing.T) {
	cfg := NewConfig()
	sec := cfg.Security()

	assert.Equal(t, cfg.AccessTokenDuration, sec.AccessTokenLifetime)
	assert.Equal(t, cfg.CodeDuration, sec.CodeLifetime)
	assert.Equal(t, cfg.DeviceCodeInterval, sec.DeviceCodeInterval)
}
