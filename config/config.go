package config

import (
	"os"
	"strconv"
	"time"

	"github.com/fenilmodi00/vnmarket/shared"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	ServerPort      string
	LogLevel        string
	LogFormat       string
	Variant         string
	Seed            string
	NewsLimit       string
	MaxAlerts       string
	PolicyFile      string
	CacheTTLSeconds string
	CacheMaxSize    string
}

// SimplifiedCacheConfig holds simplified cache configuration
type SimplifiedCacheConfig struct {
	DefaultTTL time.Duration `json:"default_ttl"`
	MaxSize    int           `json:"max_size"`
}

// DefaultCacheConfig returns default cache configuration
func DefaultCacheConfig() *SimplifiedCacheConfig {
	return &SimplifiedCacheConfig{
		DefaultTTL: 30 * time.Second, // dashboards poll faster than this
		MaxSize:    1000,
	}
}

// GetCacheConfig returns the snapshot cache configuration from environment or defaults
func (c *Config) GetCacheConfig() *SimplifiedCacheConfig {
	cacheConfig := DefaultCacheConfig()
	if seconds, ok := parsePositiveInt("CACHE_TTL_SECONDS", c.CacheTTLSeconds); ok {
		cacheConfig.DefaultTTL = time.Duration(seconds) * time.Second
	}
	if size, ok := parsePositiveInt("CACHE_MAX_SIZE", c.CacheMaxSize); ok {
		cacheConfig.MaxSize = size
	}
	return cacheConfig
}

// GetSeed returns the configured random seed, or the current time when unset or invalid
func (c *Config) GetSeed() (int64, bool) {
	if c.Seed == "" {
		return time.Now().UnixNano(), false
	}

	seed, err := strconv.ParseInt(c.Seed, 10, 64)
	if err != nil {
		logrus.Warnf("Invalid SNAPSHOT_SEED value: %s, using a time-based seed", c.Seed)
		return time.Now().UnixNano(), false
	}
	return seed, true
}

// GetNewsLimit returns the news alert limit from environment or default
func (c *Config) GetNewsLimit() int {
	return getIntOrDefault("NEWS_LIMIT", c.NewsLimit, 5)
}

// GetMaxAlerts returns the alert cap from environment or default
func (c *Config) GetMaxAlerts() int {
	return getIntOrDefault("MAX_ALERTS", c.MaxAlerts, 10)
}

// LoggingConfig returns the logging section for shared.SetupLogging
func (c *Config) LoggingConfig() shared.LoggingConfig {
	return shared.LoggingConfig{
		Level:       c.LogLevel,
		Format:      c.LogFormat,
		ServiceName: "vnmarket",
	}
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		logrus.Debug("No .env file loaded, using system environment variables")
	}

	return &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "warn"),
		LogFormat:       getEnv("LOG_FORMAT", "text"),
		Variant:         getEnv("SNAPSHOT_VARIANT", "standard"),
		Seed:            getEnv("SNAPSHOT_SEED", ""),
		NewsLimit:       getEnv("NEWS_LIMIT", "5"),
		MaxAlerts:       getEnv("MAX_ALERTS", "10"),
		PolicyFile:      getEnv("POLICY_FILE", ""),
		CacheTTLSeconds: getEnv("CACHE_TTL_SECONDS", "30"),
		CacheMaxSize:    getEnv("CACHE_MAX_SIZE", "1000"),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getIntOrDefault(key, value string, fallback int) int {
	if value == "" {
		return fallback
	}

	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		logrus.Warnf("Invalid %s value: %s, using default %d", key, value, fallback)
		return fallback
	}
	return n
}

func parsePositiveInt(key, value string) (int, bool) {
	if value == "" {
		return 0, false
	}

	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		logrus.Warnf("Invalid %s value: %s, using default", key, value)
		return 0, false
	}
	return n, true
}
