package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// ErrConfiguration marks a startup condition the process cannot serve requests with.
var ErrConfiguration = errors.New("configuration error")

type Config struct {
	TikTok TikTokConfig
	Server ServerConfig

	PostgresURL        string
	PostgresSecretPath string

	LogLevel        log.Level
	LogFormat       LogFormat
	TestModeEnabled bool
}

type TikTokConfig struct {
	ApiURL         url.URL
	Credentials    Credentials
	SecretPath     string
	RequestTimeout time.Duration
	MaxAttempts    int
	RetryBaseDelay time.Duration
	StatusInterval time.Duration
}

type ServerConfig struct {
	Port int
}

type LogFormat string

const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

const (
	DefaultTikTokAPI      = "https://open.tiktokapis.com/v2"
	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxAttempts    = 3
	DefaultRetryBaseDelay = 1 * time.Second
	DefaultStatusInterval = 60 * time.Second
	DefaultServerPort     = 8080
)

type EnvfileKey string

const (
	// TikTok API key, sent as the bearer token and X-API-Key header
	EnvfileKeyTikTokAPIKey = "TIKTOK_API_KEY"
	// TikTok API secret, sent in request bodies
	EnvfileKeyTikTokAPISecret = "SOCIAL_MEDIA_TOKEN"
	// AWS Secrets Manager path where TikTok credentials can be found
	// NOTE: only consulted when the two keys above are not set
	EnvfileKeyTikTokSecretPath = "TIKTOK_SECRETS_PATH"
	// Base URL of the TikTok open API, including the version segment
	EnvfileKeyTikTokAPI = "TIKTOK_API"
	// Timeout for a single call to the TikTok API, in seconds
	EnvfileKeyTikTokRequestTimeout = "TIKTOK_REQUEST_TIMEOUT"
	// Maximum number of attempts for a rate-limited operation
	EnvfileKeyTikTokMaxAttempts = "TIKTOK_MAX_ATTEMPTS"
	// First backoff delay after a rate limit, in seconds; doubles per attempt
	EnvfileKeyTikTokRetryBaseDelay = "TIKTOK_RETRY_BASE_DELAY"
	// Interval between publish status checks, in seconds
	EnvfileKeyTikTokStatusInterval = "TIKTOK_STATUS_INTERVAL"

	// Port the HTTP API listens on
	EnvfileKeyServerPort = "SERVER_PORT"

	// Postgres connection string for the publish log (optional)
	EnvfileKeyPostgresURL = "POSTGRES_URL"
	// AWS Secrets Manager path where Postgres connection string can be found
	EnvfileKeyPostgresSecretsPath = "POSTGRES_SECRETS_PATH"

	// Log level (e.g. "debug", "info", "warn", "error")
	EnvfileKeyLogLevel = "LOG_LEVEL"
	// Log output format (e.g. "text", "json")
	EnvfileKeyLogFormat = "LOG_FORMAT"
	// Enables "test mode" (server simulates posting)
	EnvfileKeyTestMode = "TEST_MODE"
)

// FromEnvfile loads the configuration and exits the process if it is unusable.
func FromEnvfile() Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("error reading config: %v", err)
	}
	return cfg
}

// Load reads configuration from the environment, falling back to a .env file
// in the working directory.
func Load() (Config, error) {
	viper.AddConfigPath(".")
	viper.SetConfigName(".env")
	viper.SetConfigType("dotenv")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("%w: reading .env: %v", ErrConfiguration, err)
		}
		log.Debug("no .env file found, using environment only")
	}

	apiURL := getConfigString(EnvfileKeyTikTokAPI)
	if apiURL == "" {
		apiURL = DefaultTikTokAPI
	}
	tiktokURL, err := url.Parse(apiURL)
	if err != nil || tiktokURL.Scheme == "" || tiktokURL.Host == "" {
		return Config{}, fmt.Errorf("%w: invalid %s %q", ErrConfiguration, EnvfileKeyTikTokAPI, apiURL)
	}

	credentials := Credentials{
		APIKey:    getConfigString(EnvfileKeyTikTokAPIKey),
		APISecret: getConfigString(EnvfileKeyTikTokAPISecret),
	}
	secretPath := getConfigString(EnvfileKeyTikTokSecretPath)
	if secretPath == "" {
		// Without a secrets path the environment is the only source
		if err := credentials.Validate(); err != nil {
			return Config{}, err
		}
	}

	maxAttempts := getConfigInt(EnvfileKeyTikTokMaxAttempts)
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	port := getConfigInt(EnvfileKeyServerPort)
	if port == 0 {
		port = DefaultServerPort
	}

	logLevel, err := log.ParseLevel(getConfigString(EnvfileKeyLogLevel))
	if err != nil {
		// Default to info level but log a warning
		log.Warnf("unable to parse log level: %v", err)
		logLevel = log.InfoLevel
	}

	logFormat, err := parseLogFormat(getConfigString(EnvfileKeyLogFormat))
	if err != nil {
		// Default to text formatter but log a warning
		log.Warnf("unable to parse log format: %v", err)
		logFormat = LogFormatText
	}

	return Config{
		TikTok: TikTokConfig{
			ApiURL:         *tiktokURL,
			Credentials:    credentials,
			SecretPath:     secretPath,
			RequestTimeout: getConfigSeconds(EnvfileKeyTikTokRequestTimeout, DefaultRequestTimeout),
			MaxAttempts:    maxAttempts,
			RetryBaseDelay: getConfigSeconds(EnvfileKeyTikTokRetryBaseDelay, DefaultRetryBaseDelay),
			StatusInterval: getConfigSeconds(EnvfileKeyTikTokStatusInterval, DefaultStatusInterval),
		},
		Server: ServerConfig{
			Port: port,
		},
		PostgresURL:        getConfigString(EnvfileKeyPostgresURL),
		PostgresSecretPath: getConfigString(EnvfileKeyPostgresSecretsPath),
		LogLevel:           logLevel,
		LogFormat:          logFormat,
		TestModeEnabled:    getConfigBool(EnvfileKeyTestMode),
	}, nil
}

// PublishLogEnabled reports whether a Postgres publish log was configured.
func (c Config) PublishLogEnabled() bool {
	return c.PostgresURL != "" || c.PostgresSecretPath != ""
}

// NeedsSecretsManager reports whether any value must be read from AWS Secrets Manager.
func (c Config) NeedsSecretsManager() bool {
	return c.TikTok.SecretPath != "" || (c.PostgresURL == "" && c.PostgresSecretPath != "")
}

func parseLogFormat(raw string) (LogFormat, error) {
	switch strings.ToLower(raw) {
	case LogFormatJSON:
		return LogFormatJSON, nil
	case LogFormatText:
		return LogFormatText, nil
	default:
		return "", fmt.Errorf("unidentified log format: %s", raw)
	}
}

// Gets a config value as a string from env vars or a .env file
func getConfigString(key string) string {
	value := os.Getenv(key)
	if value == "" {
		value = viper.GetString(key)
	}
	return value
}

// Gets a config value as an int from env vars or a .env file
func getConfigInt(key string) int {
	envVarValue := os.Getenv(key)
	if envVarValue == "" {
		return viper.GetInt(key)
	}
	value, err := strconv.Atoi(envVarValue)
	if err != nil {
		return 0
	}
	return value
}

func getConfigBool(key string) bool {
	envVarValue := os.Getenv(key)
	if envVarValue == "" {
		return viper.GetBool(key)
	}
	value, err := strconv.ParseBool(envVarValue)
	if err != nil {
		return false
	}
	return value
}

// Gets a whole number of seconds, using fallback when unset or not positive
func getConfigSeconds(key string, fallback time.Duration) time.Duration {
	seconds := getConfigInt(key)
	if seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}
