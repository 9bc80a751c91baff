package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration. Values here are process-level
// defaults; user-editable API settings are persisted in the store and only
// seeded from this config on first run.
type Config struct {
	// Store configuration
	Store struct {
		Path string
	}

	// API defaults (seed values for the persisted settings record)
	API struct {
		Key         string
		Model       string
		Temperature float64
		BaseURL     string
		Timeout     time.Duration
	}

	// Scheduler configuration for background tasks
	Scheduler struct {
		ProactiveTick        time.Duration
		ProactiveOdds        float64
		ProactiveQuietWindow time.Duration
		AutoMomentTick       time.Duration
		AutoMomentSpacing    time.Duration
		AutoMomentOdds       float64
	}

	// Logging configuration
	Logging struct {
		Level  string
		Format string
	}

	// Feature flags
	Features struct {
		EnableProactiveChat bool
		EnableAutoMoments   bool
		MaxMomentComments   int
	}

	// Cache settings
	Cache struct {
		Enabled     bool
		TTL         time.Duration
		MaxSize     int
		PurgeWindow time.Duration
	}
}

var (
	instance *Config
	once     sync.Once
)

// New creates a new Config instance with values from environment variables.
// Uses singleton pattern to ensure only one instance exists
func New() *Config {
	once.Do(func() {
		// Load .env file if exists
		godotenv.Load()

		instance = &Config{}

		// Store config
		instance.Store.Path = getEnvString("STORE_PATH", defaultStorePath())

		// API defaults
		instance.API.Key = getEnvString("API_KEY", "")
		instance.API.Model = getEnvString("API_MODEL", "gemini-3-flash-preview")
		instance.API.Temperature = getEnvFloat("API_TEMP", 0.8)
		instance.API.BaseURL = getEnvString("API_URL", "")
		instance.API.Timeout = getEnvDuration("API_TIMEOUT", 60*time.Second)

		// Scheduler config
		instance.Scheduler.ProactiveTick = getEnvDuration("PROACTIVE_TICK", time.Second)
		instance.Scheduler.ProactiveOdds = getEnvFloat("PROACTIVE_ODDS", 1.0/900)
		instance.Scheduler.ProactiveQuietWindow = getEnvDuration("PROACTIVE_QUIET_WINDOW", 30*time.Minute)
		instance.Scheduler.AutoMomentTick = getEnvDuration("AUTO_MOMENT_TICK", time.Hour)
		instance.Scheduler.AutoMomentSpacing = getEnvDuration("AUTO_MOMENT_SPACING", 2*time.Hour)
		instance.Scheduler.AutoMomentOdds = getEnvFloat("AUTO_MOMENT_ODDS", 0.25)

		// Logging config
		instance.Logging.Level = getEnvString("LOG_LEVEL", "info")
		instance.Logging.Format = getEnvString("LOG_FORMAT", "text")

		// Feature flags
		instance.Features.EnableProactiveChat = getEnvBool("ENABLE_PROACTIVE_CHAT", true)
		instance.Features.EnableAutoMoments = getEnvBool("ENABLE_AUTO_MOMENTS", true)
		instance.Features.MaxMomentComments = getEnvInt("MAX_MOMENT_COMMENTS", 8)

		// Cache settings
		instance.Cache.Enabled = getEnvBool("CACHE_ENABLED", true)
		instance.Cache.TTL = getEnvDuration("CACHE_TTL", 5*time.Minute)
		instance.Cache.MaxSize = getEnvInt("CACHE_MAX_SIZE", 1000)
		instance.Cache.PurgeWindow = getEnvDuration("CACHE_PURGE_WINDOW", 10*time.Minute)
	})

	return instance
}

// Get returns the singleton Config instance
func Get() *Config {
	if instance == nil {
		return New()
	}
	return instance
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".strawberryphone"
	}
	return home + string(os.PathSeparator) + ".strawberryphone"
}

// Helper functions to read environment variables with default values

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
