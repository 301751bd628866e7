package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string // postgres DSN; empty selects the embedded bolt store
	BoltPath    string
	JWKSURL     string
	CORSOrigins string
	// Persistence coalescing
	FlushQuiet   time.Duration // debounce: flush after this much inactivity
	FlushMaxWait time.Duration // bounded staleness: flush at least this often while dirty
	// Debug flags
	Debug bool
}

// fileConfig mirrors the optional config.yaml overrides. Environment
// variables win over the file; the file wins over built-in defaults.
type fileConfig struct {
	Port         string `yaml:"port"`
	DatabaseURL  string `yaml:"database_url"`
	BoltPath     string `yaml:"bolt_path"`
	JWKSURL      string `yaml:"jwks_url"`
	CORSOrigins  string `yaml:"cors_origins"`
	FlushQuietMS int    `yaml:"flush_quiet_ms"`
	FlushMaxMS   int    `yaml:"flush_max_ms"`
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	file := loadFile(getEnv("CONFIG_FILE", "config.yaml"))

	return &Config{
		Port:         getEnv("PORT", orDefault(file.Port, "8080")),
		Environment:  env,
		DatabaseURL:  getEnv("DATABASE_URL", file.DatabaseURL),
		BoltPath:     getEnv("BOLT_PATH", orDefault(file.BoltPath, "inkwell.db")),
		JWKSURL:      getEnv("JWKS_URL", file.JWKSURL),
		CORSOrigins:  getEnv("CORS_ORIGINS", orDefault(file.CORSOrigins, "http://localhost:3000")),
		FlushQuiet:   getDurationMS("FLUSH_QUIET_MS", file.FlushQuietMS, DefaultFlushQuiet),
		FlushMaxWait: getDurationMS("FLUSH_MAX_MS", file.FlushMaxMS, DefaultFlushMaxWait),
		Debug:        getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// loadFile reads the optional YAML config; a missing file is not an error.
func loadFile(path string) fileConfig {
	var fc fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return fc
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		fmt.Fprintf(os.Stderr, "warning: ignoring malformed %s: %v\n", path, err)
		return fileConfig{}
	}
	return fc
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationMS(key string, fileMS int, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if ms, err := strconv.Atoi(value); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	if fileMS > 0 {
		return time.Duration(fileMS) * time.Millisecond
	}
	return defaultValue
}

func orDefault(value, defaultValue string) string {
	if value != "" {
		return value
	}
	return defaultValue
}
