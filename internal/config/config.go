package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

type CacheType string

const (
	CacheTypeMemory CacheType = "memory"
	CacheTypeRedis  CacheType = "redis"
)

// Config holds the configuration for the CodeVault server.
type Config struct {
	// Listen is the address the CodeVault server will listen on.
	Listen string `yaml:"listen" mapstructure:"listen"`
	// ServerURL is the public base URL of the server. Download commands are built from it.
	ServerURL string `yaml:"server_url" mapstructure:"server_url"`
	// SessionKey is the key used to sign the web frontend session cookie.
	SessionKey string `yaml:"session_key" mapstructure:"session_key"`
	// SessionMaxAge is the maximum age of a web session in seconds.
	SessionMaxAge int `yaml:"session_max_age" mapstructure:"session_max_age"`
	// DownloadsDir is the directory the project archives are served from.
	DownloadsDir string `yaml:"downloads_dir" mapstructure:"downloads_dir"`
	// Database holds the database configuration.
	Database *DatabaseConfig `yaml:"database" mapstructure:"database"`
	// Auth holds the bearer token configuration.
	Auth *AuthConfig `yaml:"auth" mapstructure:"auth"`
	// Cache holds the token cache configuration.
	Cache *CacheConfig `yaml:"cache" mapstructure:"cache"`
	// AI holds the configuration for the study guide generator.
	AI *AIConfig `yaml:"ai" mapstructure:"ai"`
	// Gravatar holds the configuration for student profile pictures.
	Gravatar *GravatarConfig `yaml:"gravatar" mapstructure:"gravatar"`
}

// DatabaseConfig holds the database configuration.
type DatabaseConfig struct {
	// Path is the path to the database file.
	Path string `yaml:"path" mapstructure:"path"`
}

// AuthConfig holds the bearer token configuration.
type AuthConfig struct {
	// TokenTTL is how long an issued token stays valid. Zero means tokens live until revoked.
	TokenTTL time.Duration `yaml:"token_ttl" mapstructure:"token_ttl"`
	// PruneSchedule is the cron schedule of the expired token cleanup job.
	PruneSchedule string `yaml:"prune_schedule" mapstructure:"prune_schedule"`
}

// CacheConfig holds the configuration for the token cache.
type CacheConfig struct {
	// Type is the type of cache engine to use (e.g., "memory", "redis").
	Type CacheType `yaml:"type" mapstructure:"type"`
	// RedisURL is the address of the Redis server if using Redis.
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`
	// TTL is how long a validated token is cached.
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// AIConfig holds the configuration for the generative AI service.
type AIConfig struct {
	// APIKey is the Gemini API key. The advisory features fall back to static text without it.
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
	// Model is the model used for all generation requests.
	Model string `yaml:"model" mapstructure:"model"`
	// Timeout bounds a single generation request.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// BaseURL overrides the Gemini API endpoint.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// GravatarConfig holds the configuration for Gravatar profile pictures.
type GravatarConfig struct {
	// Enabled indicates whether Gravatar support is enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// DefaultImage is the default image to use when no Gravatar is found.
	// Valid values: "404", "mp", "identicon", "monsterid", "wavatar", "retro", "robohash", "blank"
	DefaultImage string `yaml:"default_image" mapstructure:"default_image"`
	// Rating is the maximum rating for Gravatar images.
	// Valid values: "g", "pg", "r", "x"
	Rating string `yaml:"rating" mapstructure:"rating"`
	// Size is the size of the Gravatar image in pixels (1-2048).
	Size int `yaml:"size" mapstructure:"size"`
}

// Enabled reports whether a generation backend is configured.
func (c *AIConfig) Enabled() bool {
	return c != nil && c.APIKey != ""
}

// Load reads the configuration from the specified path and returns a Config struct.
// If path is empty, it will use default search paths for config files.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix("CODEVAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var configFileFound bool
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.codevault")
		v.AddConfigPath("/etc/codevault")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		configFileFound = true
	}

	if configFileFound {
		log.Debug("Using config file", "file", v.ConfigFileUsed())
		log.Debug("Environment variables with the CODEVAULT_ prefix override config file values")
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	sanitizeConfig(&c)

	if err := validateConfig(&c); err != nil {
		return nil, err
	}

	return &c, nil
}

// setDefaults sets default values for the configuration.
func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", "0.0.0.0:8080")
	v.SetDefault("server_url", "http://localhost:8080")
	v.SetDefault("session_key", "")
	v.SetDefault("session_max_age", 172800) // 48 hours
	v.SetDefault("downloads_dir", "./data/downloads")

	v.SetDefault("database.path", "./data/codevault.db")

	v.SetDefault("auth.token_ttl", 0)
	v.SetDefault("auth.prune_schedule", "0 * * * *")

	v.SetDefault("cache.type", CacheTypeMemory)
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", 5*time.Minute)

	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.model", "gemini-2.5-flash")
	v.SetDefault("ai.timeout", 20*time.Second)
	v.SetDefault("ai.base_url", "")

	v.SetDefault("gravatar.enabled", false)
	v.SetDefault("gravatar.default_image", "identicon")
	v.SetDefault("gravatar.rating", "g")
	v.SetDefault("gravatar.size", 64)
}

// validateConfig validates the configuration.
func validateConfig(c *Config) error {
	if c == nil {
		return fmt.Errorf("missing codevault config")
	}

	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}

	if c.SessionKey == "" {
		return fmt.Errorf("session key is required")
	}

	if c.Database == nil || c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if c.Auth == nil {
		c.Auth = &AuthConfig{}
	}
	if c.Auth.TokenTTL < 0 {
		return fmt.Errorf("token ttl must not be negative")
	}
	if c.Auth.TokenTTL > 0 && len(strings.Fields(c.Auth.PruneSchedule)) != 5 {
		return fmt.Errorf("prune schedule must be a valid cron expression with 5 fields (minute hour day month weekday)")
	}

	if c.Cache != nil {
		if c.Cache.Type == "" {
			return fmt.Errorf("cache type is required when cache is enabled")
		}
		if c.Cache.Type != CacheTypeMemory && c.Cache.Type != CacheTypeRedis {
			return fmt.Errorf("unknown cache type %q", c.Cache.Type)
		}
		if c.Cache.Type == CacheTypeRedis && c.Cache.RedisURL == "" {
			return fmt.Errorf("Redis URL is required when Redis cache is enabled") //nolint:staticcheck
		}
	} else {
		c.Cache = &CacheConfig{
			Type: CacheTypeMemory,
			TTL:  5 * time.Minute,
		}
	}

	if c.AI == nil {
		c.AI = &AIConfig{}
	}
	if c.AI.Enabled() && c.AI.Model == "" {
		return fmt.Errorf("ai model is required when an ai api key is set")
	}
	if c.AI.Timeout < 0 {
		return fmt.Errorf("ai timeout must not be negative")
	}

	if c.Gravatar == nil {
		c.Gravatar = &GravatarConfig{}
	}

	return nil
}

// sanitizeConfig sanitizes the configuration values.
func sanitizeConfig(c *Config) {
	if c == nil {
		return
	}

	c.Listen = urlSanitize(c.Listen)

	if c.ServerURL != "" {
		c.ServerURL = urlSanitize(c.ServerURL)
	}

	if c.AI != nil {
		c.AI.BaseURL = urlSanitize(c.AI.BaseURL)
		c.AI.APIKey = strings.TrimSpace(c.AI.APIKey)
	}
}

func urlSanitize(url string) string {
	return strings.TrimSuffix(strings.TrimSpace(url), "/")
}
