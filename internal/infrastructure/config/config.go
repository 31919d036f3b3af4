package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// Issuer identity
	Issuer string

	// Token lifetimes
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
	IDTokenDuration      time.Duration

	// Authorization code / device code settings
	CodeDuration       time.Duration
	DeviceCodeDuration time.Duration
	DeviceCodeInterval int // seconds between device polls

	// Session settings
	SessionDuration time.Duration

	// Signing configuration
	RSAKeySize int

	// Background cleanup
	CleanupInterval time.Duration

	// Server configuration
	ServerPort int
}

// SecurityConfig is the read-only view of the security-relevant settings
// handed out by the provider registry.
type SecurityConfig struct {
	AccessTokenLifetime  time.Duration `json:"access_token_lifetime"`
	RefreshTokenLifetime time.Duration `json:"refresh_token_lifetime"`
	IDTokenLifetime      time.Duration `json:"id_token_lifetime"`
	CodeLifetime         time.Duration `json:"code_lifetime"`
	SessionLifetime      time.Duration `json:"session_lifetime"`
	DeviceCodeLifetime   time.Duration `json:"device_code_lifetime"`
	DeviceCodeInterval   int           `json:"device_code_interval"`
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		Issuer:               "http://localhost:8080",
		AccessTokenDuration:  15 * time.Minute,
		RefreshTokenDuration: 30 * 24 * time.Hour,
		IDTokenDuration:      15 * time.Minute,
		CodeDuration:         10 * time.Minute,
		DeviceCodeDuration:   10 * time.Minute,
		DeviceCodeInterval:   5,
		SessionDuration:      24 * time.Hour,
		RSAKeySize:           2048,
		CleanupInterval:      5 * time.Minute,
		ServerPort:           8080,
	}
}

// Security returns the security configuration view.
func (c *Config) Security() SecurityConfig {
	return SecurityConfig{
		AccessTokenLifetime:  c.AccessTokenDuration,
		RefreshTokenLifetime: c.RefreshTokenDuration,
		IDTokenLifetime:      c.IDTokenDuration,
		CodeLifetime:         c.CodeDuration,
		SessionLifetime:      c.SessionDuration,
		DeviceCodeLifetime:   c.DeviceCodeDuration,
		DeviceCodeInterval:   c.DeviceCodeInterval,
	}
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env from project root
	_ = godotenv.Load()

	accessDuration, err := time.ParseDuration(getEnv("ACCESS_TOKEN_DURATION", "15m"))
	if err != nil {
		return nil, err
	}

	refreshDuration, err := time.ParseDuration(getEnv("REFRESH_TOKEN_DURATION", "720h"))
	if err != nil {
		return nil, err
	}

	idTokenDuration, err := time.ParseDuration(getEnv("ID_TOKEN_DURATION", "15m"))
	if err != nil {
		return nil, err
	}

	codeDuration, err := time.ParseDuration(getEnv("AUTHORIZATION_CODE_DURATION", "10m"))
	if err != nil {
		return nil, err
	}

	deviceCodeDuration, err := time.ParseDuration(getEnv("DEVICE_CODE_DURATION", "10m"))
	if err != nil {
		return nil, err
	}

	sessionDuration, err := time.ParseDuration(getEnv("SESSION_DURATION", "24h"))
	if err != nil {
		return nil, err
	}

	cleanupInterval, err := time.ParseDuration(getEnv("CLEANUP_INTERVAL", "5m"))
	if err != nil {
		return nil, err
	}

	return &Config{
		Issuer:               getEnv("ISSUER", "http://localhost:8080"),
		AccessTokenDuration:  accessDuration,
		RefreshTokenDuration: refreshDuration,
		IDTokenDuration:      idTokenDuration,
		CodeDuration:         codeDuration,
		DeviceCodeDuration:   deviceCodeDuration,
		DeviceCodeInterval:   getEnvInt("DEVICE_CODE_INTERVAL", 5),
		SessionDuration:      sessionDuration,
		RSAKeySize:           getEnvInt("RSA_KEY_SIZE", 2048),
		CleanupInterval:      cleanupInterval,
		ServerPort:           getEnvInt("PORT", 8080),
	}, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as an integer or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.Atoi(value)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}
