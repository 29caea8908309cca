// Package config provides configuration loading from environment variables.
package config

import (
	"os"
	"strconv"

	"github.com/usestring/har-extractor/internal/cache"
)

// DefaultLoadWorkersValue bounds how many input files are read at once.
const DefaultLoadWorkersValue = 4

// Config holds all configuration for the extractor.
// Command-line flags override the values loaded here.
type Config struct {
	OutputDir         string // HAR_OUTPUT_DIR, default "" (flag required)
	Verbose           bool   // HAR_VERBOSE, default false
	DryRun            bool   // HAR_DRY_RUN, default false
	RemoveQueryString bool   // HAR_REMOVE_QUERY_STRING, default false
	Validate          bool   // HAR_VALIDATE, default true
	LoadWorkers       int    // LOAD_WORKERS, default 4
	DirCacheMaxItems  int    // DIR_CACHE_MAX_ITEMS, default 512

	// Logging configuration
	LogLevel      string // LOG_LEVEL, default "info"
	LogFormat     string // LOG_FORMAT, "text" or "json", default "text"
	LogFile       string // LOG_FILE, default "" (stderr only)
	LogMaxSizeMB  int    // LOG_MAX_SIZE_MB, default 10
	LogMaxBackups int    // LOG_MAX_BACKUPS, default 3
	LogMaxAgeDays int    // LOG_MAX_AGE_DAYS, default 28
	LogCompress   bool   // LOG_COMPRESS, default true
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		OutputDir:         getEnvString("HAR_OUTPUT_DIR", ""),
		Verbose:           getEnvBool("HAR_VERBOSE", false),
		DryRun:            getEnvBool("HAR_DRY_RUN", false),
		RemoveQueryString: getEnvBool("HAR_REMOVE_QUERY_STRING", false),
		Validate:          getEnvBool("HAR_VALIDATE", true),
		LoadWorkers:       getEnvInt("LOAD_WORKERS", DefaultLoadWorkersValue),
		DirCacheMaxItems:  getEnvInt("DIR_CACHE_MAX_ITEMS", cache.DefaultDirCacheSize),

		LogLevel:      getEnvString("LOG_LEVEL", "info"),
		LogFormat:     getEnvString("LOG_FORMAT", "text"),
		LogFile:       getEnvString("LOG_FILE", ""),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 10),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 28),
		LogCompress:   getEnvBool("LOG_COMPRESS", true),
	}
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		switch v {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultVal
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
