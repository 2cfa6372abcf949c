// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Document store backends.
const (
	BackendHTTP   = "http"
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
	BackendS3     = "s3"
)

// Credential schemes.
const (
	SchemePlaintext = "plaintext"
	SchemeArgon2id  = "argon2id"
)

// Config holds the application configuration.
type Config struct {
	App         AppConfig
	Logger      LoggerConfig
	Request     RequestConfig
	OpenLibrary OpenLibraryConfig
	DocStore    DocStoreConfig
	Users       UsersConfig
	Local       LocalConfig
	Server      ServerConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// RequestConfig holds outbound HTTP settings.
type RequestConfig struct {
	Timeout   time.Duration // per-call timeout (default: 30s)
	UserAgent string
}

// OpenLibraryConfig holds bibliographic search API settings.
type OpenLibraryConfig struct {
	BaseURL   string
	CoversURL string
	Language  string  // language filter for random suggestions (default: eng)
	RPS       float64 // outbound requests per second per host, 0 disables
	Burst     int
}

// DocStoreConfig selects and configures the user document store.
type DocStoreConfig struct {
	Backend string // http, sqlite, badger or s3

	// http backend
	URL    string
	APIKey string

	// sqlite and badger backends
	Path string

	// s3 backend
	S3Bucket    string
	S3Region    string
	S3Endpoint  string // optional, for S3-compatible services
	S3AccessKey string
	S3SecretKey string
	S3Prefix    string
}

// UsersConfig holds user repository settings.
type UsersConfig struct {
	ScanConcurrency  int    // parallel document reads during a scan (default: 8)
	CredentialScheme string // plaintext or argon2id
}

// LocalConfig holds the on-device key-value store location.
type LocalConfig struct {
	Path string
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port           string        // Server port (default: 8080)
	ReadTimeout    time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout   time.Duration // HTTP write timeout (default: 45s)
	IdleTimeout    time.Duration // HTTP idle timeout (default: 60s)
	AllowedOrigins []string
}

// LoadConfig loads configuration from the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("shelfwise", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")

	requestTimeout := fs.String("request-timeout", "", "Per-call HTTP timeout (default: 30s)")

	openLibraryURL := fs.String("openlibrary-url", "", "Open Library base URL")
	openLibraryLanguage := fs.String("openlibrary-language", "", "Language for random suggestions (default: eng)")

	docStoreBackend := fs.String("docstore-backend", "", "Document store backend (http, sqlite, badger, s3)")
	docStoreURL := fs.String("docstore-url", "", "Document store base URL (http backend)")
	docStorePath := fs.String("docstore-path", "", "Document store path (sqlite, badger backends)")

	scanConcurrency := fs.String("scan-concurrency", "", "Parallel reads during user scans (default: 8)")
	credentialScheme := fs.String("credential-scheme", "", "Password scheme (plaintext, argon2id)")

	localPath := fs.String("local-state-path", "", "Path for on-device state")

	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 45s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Request: RequestConfig{
			UserAgent: getConfigValue("", "REQUEST_USER_AGENT", "Shelfwise/1.0"),
		},
		OpenLibrary: OpenLibraryConfig{
			BaseURL:   strings.TrimRight(getConfigValue(*openLibraryURL, "OPENLIBRARY_URL", "https://openlibrary.org"), "/"),
			CoversURL: getConfigValue("", "OPENLIBRARY_COVERS_URL", "https://covers.openlibrary.org/"),
			Language:  getConfigValue(*openLibraryLanguage, "OPENLIBRARY_LANGUAGE", "eng"),
			RPS:       getFloatConfigValue("", "OPENLIBRARY_RPS", 0),
			Burst:     getIntConfigValue("", "OPENLIBRARY_BURST", 5),
		},
		DocStore: DocStoreConfig{
			Backend:     strings.ToLower(getConfigValue(*docStoreBackend, "DOCSTORE_BACKEND", BackendHTTP)),
			URL:         strings.TrimRight(getConfigValue(*docStoreURL, "DOCSTORE_URL", ""), "/"),
			APIKey:      getConfigValue("", "DOCSTORE_API_KEY", ""),
			Path:        getConfigValue(*docStorePath, "DOCSTORE_PATH", ""),
			S3Bucket:    getConfigValue("", "DOCSTORE_S3_BUCKET", ""),
			S3Region:    getConfigValue("", "DOCSTORE_S3_REGION", "us-east-1"),
			S3Endpoint:  getConfigValue("", "DOCSTORE_S3_ENDPOINT", ""),
			S3AccessKey: getConfigValue("", "DOCSTORE_S3_ACCESS_KEY", ""),
			S3SecretKey: getConfigValue("", "DOCSTORE_S3_SECRET_KEY", ""),
			S3Prefix:    getConfigValue("", "DOCSTORE_S3_PREFIX", "users/"),
		},
		Users: UsersConfig{
			ScanConcurrency:  getIntConfigValue(*scanConcurrency, "SCAN_CONCURRENCY", 8),
			CredentialScheme: strings.ToLower(getConfigValue(*credentialScheme, "CREDENTIAL_SCHEME", SchemePlaintext)),
		},
		Local: LocalConfig{
			Path: getConfigValue(*localPath, "LOCAL_STATE_PATH", ""),
		},
		Server: ServerConfig{
			Port:           getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			AllowedOrigins: getListConfigValue("", "SERVER_ALLOWED_ORIGINS", []string{"*"}),
		},
	}

	var err error
	if cfg.Request.Timeout, err = getDurationConfigValue(*requestTimeout, "REQUEST_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	if cfg.Server.ReadTimeout, err = getDurationConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = getDurationConfigValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "45s"); err != nil {
		return nil, err
	}
	if cfg.Server.IdleTimeout, err = getDurationConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, err
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Request.Timeout <= 0 {
		return errors.New("REQUEST_TIMEOUT must be positive")
	}

	if _, err := url.ParseRequestURI(c.OpenLibrary.BaseURL); err != nil {
		return fmt.Errorf("invalid OPENLIBRARY_URL %q: %w", c.OpenLibrary.BaseURL, err)
	}
	if c.OpenLibrary.RPS < 0 {
		return errors.New("OPENLIBRARY_RPS cannot be negative")
	}

	switch c.DocStore.Backend {
	case BackendHTTP:
		if c.DocStore.URL == "" {
			return errors.New("DOCSTORE_URL is required for the http backend")
		}
		if c.DocStore.APIKey == "" {
			return errors.New("DOCSTORE_API_KEY is required for the http backend")
		}
	case BackendSQLite, BackendBadger:
		if c.DocStore.Path == "" {
			return fmt.Errorf("DOCSTORE_PATH is required for the %s backend", c.DocStore.Backend)
		}
	case BackendS3:
		if c.DocStore.S3Bucket == "" {
			return errors.New("DOCSTORE_S3_BUCKET is required for the s3 backend")
		}
	default:
		return fmt.Errorf("invalid docstore backend: %s (must be http, sqlite, badger, or s3)", c.DocStore.Backend)
	}

	if c.Users.ScanConcurrency < 1 {
		return errors.New("SCAN_CONCURRENCY must be at least 1")
	}

	switch c.Users.CredentialScheme {
	case SchemePlaintext, SchemeArgon2id:
	default:
		return fmt.Errorf("invalid credential scheme: %s (must be plaintext or argon2id)", c.Users.CredentialScheme)
	}

	if c.Local.Path == "" {
		return errors.New("local state path cannot be empty after expansion")
	}

	return nil
}

// expandPaths expands ~ and makes configured paths absolute.
func (c *Config) expandPaths() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	local, err := expandPath(c.Local.Path, filepath.Join(homeDir, ".shelfwise", "state"))
	if err != nil {
		return fmt.Errorf("invalid local state path: %w", err)
	}
	c.Local.Path = local

	docs, err := expandPath(c.DocStore.Path, "")
	if err != nil {
		return fmt.Errorf("invalid docstore path: %w", err)
	}
	c.DocStore.Path = docs

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return result
}

// getFloatConfigValue returns a float from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.ParseFloat(strValue, 64)
	if err != nil {
		return defaultValue
	}
	return result
}

// getDurationConfigValue parses a duration from flag, env var, or default.
func getDurationConfigValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	strValue := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(strValue)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", strings.ToLower(envKey), strValue, err)
	}
	return d, nil
}

// getListConfigValue splits a comma-separated value.
func getListConfigValue(flagValue, envKey string, defaultValue []string) []string {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var out []string
	for part := range strings.SplitSeq(strValue, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
