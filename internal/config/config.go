package config

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Redis     RedisConfig     `json:"redis"`
	NATS      NATSConfig      `json:"nats"`
	Auth      AuthConfig      `json:"auth"`
	Auction   AuctionConfig   `json:"auction"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	Log       LogConfig       `json:"log"`
}

// ServerConfig contains server related configurations
type ServerConfig struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Port        int      `json:"port"`
	CORSOrigins []string `json:"cors_origins"`
}

// DatabaseConfig contains database related configurations.
// Driver is "postgres" or "sqlite"; Path is the SQLite data source.
type DatabaseConfig struct {
	Driver   string `json:"driver"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Path     string `json:"path"`
}

// RedisConfig contains the rate limiter's Redis connection. An empty Addr
// disables rate limiting.
type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// NATSConfig contains the event publisher connection. An empty URL
// disables event publishing.
type NATSConfig struct {
	URL           string `json:"url"`
	SubjectPrefix string `json:"subject_prefix"`
}

// AuthConfig contains authentication related configurations
type AuthConfig struct {
	JWTSecret         string `json:"jwt_secret"`
	JWTExpiration     int    `json:"jwt_expiration"`     // in minutes
	RefreshExpiration int    `json:"refresh_expiration"` // in days
}

// AuctionConfig contains auction lifecycle settings
type AuctionConfig struct {
	DurationHours int `json:"duration_hours"`
}

// RateLimitConfig contains the per-client request budget
type RateLimitConfig struct {
	Requests      int `json:"requests"`
	WindowSeconds int `json:"window_seconds"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"` // "text" or "json"
}

// AuctionDuration returns the configured auction length
func (c AuctionConfig) AuctionDuration() time.Duration {
	return time.Duration(c.DurationHours) * time.Hour
}

// Window returns the rate limit window
func (c RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

// TokenTTL returns the access token lifetime
func (c AuthConfig) TokenTTL() time.Duration {
	return time.Duration(c.JWTExpiration) * time.Minute
}

// RefreshTTL returns the refresh token lifetime
func (c AuthConfig) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshExpiration) * 24 * time.Hour
}

// DSN builds the driver-specific data source name
func (c DatabaseConfig) DSN() string {
	if c.Driver == "sqlite" {
		return c.Path
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Name,
	)
}

// SlogLevel parses the configured log level, defaulting to info
func (c LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Name:        "auction-api",
			Version:     "1.0.0",
			Port:        8080,
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Database: DatabaseConfig{
			Driver: "postgres",
			Host:   "localhost",
			Port:   5432,
			Name:   "auction",
			Path:   "file:auction.db",
		},
		NATS: NATSConfig{
			SubjectPrefix: "auction.events",
		},
		Auth: AuthConfig{
			JWTExpiration:     30,
			RefreshExpiration: 14,
		},
		Auction: AuctionConfig{
			DurationHours: 72,
		},
		RateLimit: RateLimitConfig{
			Requests:      60,
			WindowSeconds: 60,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads the configuration from file and environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env file", "error", err)
	}

	cfg := Default()

	// Look for config file
	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = filepath.Join("configs", "config.json")
	}

	if _, err := os.Stat(configFile); err == nil {
		file, err := os.Open(configFile)
		if err != nil {
			return nil, err
		}
		defer file.Close()

		if err := json.NewDecoder(file).Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", configFile, err)
		}
	}

	applyEnv(cfg)

	if cfg.Auth.JWTSecret == "" {
		// Generate a random JWT secret if not provided
		randomBytes := make([]byte, 32)
		if _, err := rand.Read(randomBytes); err != nil {
			return nil, err
		}
		cfg.Auth.JWTSecret = base64.StdEncoding.EncodeToString(randomBytes)
		slog.Warn("JWT_SECRET not set, generated a random secret; tokens will not survive a restart")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects configurations the server cannot run with
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server port must be positive")
	}
	if c.Auction.DurationHours <= 0 {
		return fmt.Errorf("auction duration must be positive")
	}
	if c.Auth.JWTExpiration <= 0 || c.Auth.RefreshExpiration <= 0 {
		return fmt.Errorf("jwt expirations must be positive")
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.WindowSeconds <= 0 {
		return fmt.Errorf("rate limit requests and window must be positive")
	}
	return nil
}

func applyEnv(cfg *Config) {
	setInt("SERVER_PORT", &cfg.Server.Port)
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.Server.CORSOrigins = splitList(origins)
	}
	setString("APP_VERSION", &cfg.Server.Version)

	setString("DB_DRIVER", &cfg.Database.Driver)
	setString("DB_HOST", &cfg.Database.Host)
	setInt("DB_PORT", &cfg.Database.Port)
	setString("DB_USER", &cfg.Database.User)
	setString("DB_PASSWORD", &cfg.Database.Password)
	setString("DB_NAME", &cfg.Database.Name)
	setString("DB_PATH", &cfg.Database.Path)

	setString("REDIS_ADDR", &cfg.Redis.Addr)
	setString("REDIS_PASSWORD", &cfg.Redis.Password)
	setInt("REDIS_DB", &cfg.Redis.DB)

	setString("NATS_URL", &cfg.NATS.URL)
	setString("NATS_SUBJECT_PREFIX", &cfg.NATS.SubjectPrefix)

	setString("JWT_SECRET", &cfg.Auth.JWTSecret)
	setInt("JWT_EXPIRATION_MINUTES", &cfg.Auth.JWTExpiration)
	setInt("JWT_REFRESH_EXPIRATION_DAYS", &cfg.Auth.RefreshExpiration)

	setInt("AUCTION_DURATION_HOURS", &cfg.Auction.DurationHours)

	setInt("RATE_LIMIT_REQUESTS", &cfg.RateLimit.Requests)
	setInt("RATE_LIMIT_WINDOW_SECONDS", &cfg.RateLimit.WindowSeconds)

	setString("LOG_LEVEL", &cfg.Log.Level)
	setString("LOG_FORMAT", &cfg.Log.Format)
}

func setString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(key string, dst *int) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
		*dst = n
	} else {
		slog.Warn("ignoring non-numeric environment value", "key", key, "value", v)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
