package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the portal session engine and
// the bundled development gateway.
type Config struct {
	App     AppConfig
	Gateway GatewayConfig
	Auth    AuthConfig
	Server  ServerConfig
	Logger  LoggerConfig
}

// AppConfig identifies the running process.
type AppConfig struct {
	Name    string
	Env     string
	Version string
}

// GatewayConfig points the engine at its auth gateway.
type GatewayConfig struct {
	BaseURL        string
	TimeoutSeconds int
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	PasswordMinLength int
	JWTSecret         string
	TokenTTLMinutes   int
	BcryptCost        int
	CookieName        string
}

// ServerConfig holds bind values for the development gateway.
type ServerConfig struct {
	Host string
	Port string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	minLength := getEnvAsInt("AUTH_PASSWORD_MIN_LENGTH", 6)
	if minLength < 1 {
		return nil, fmt.Errorf("invalid AUTH_PASSWORD_MIN_LENGTH: %d", minLength)
	}

	cfg := &Config{
		App: AppConfig{
			Name:    getEnv("APP_NAME", "portal-core"),
			Env:     getEnv("APP_ENV", "development"),
			Version: getEnv("APP_VERSION", "dev"),
		},
		Gateway: GatewayConfig{
			BaseURL:        getEnv("GATEWAY_BASE_URL", "http://127.0.0.1:8080"),
			TimeoutSeconds: getEnvAsInt("GATEWAY_TIMEOUT_SECONDS", 15),
		},
		Auth: AuthConfig{
			PasswordMinLength: minLength,
			JWTSecret:         getEnv("AUTH_JWT_SECRET", "dev-secret"),
			TokenTTLMinutes:   getEnvAsInt("AUTH_TOKEN_TTL_MINUTES", 60),
			BcryptCost:        getEnvAsInt("AUTH_BCRYPT_COST", 12),
			CookieName:        getEnv("AUTH_COOKIE_NAME", "portal_session"),
		},
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	return cfg, nil
}

// Addr returns the dev gateway bind address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

// Timeout returns the configured gateway request timeout.
func (g GatewayConfig) Timeout() time.Duration {
	if g.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// TokenTTL returns the session token lifetime.
func (a AuthConfig) TokenTTL() time.Duration {
	if a.TokenTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(a.TokenTTLMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}
