package config

import (
	"fmt"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setCredentials(t *testing.T) {
	t.Setenv(EnvfileKeyTikTokAPIKey, "key-123")
	t.Setenv(EnvfileKeyTikTokAPISecret, "secret-456")
}

func TestLoad(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		setCredentials(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, DefaultTikTokAPI, cfg.TikTok.ApiURL.String())
		assert.Equal(t, "key-123", cfg.TikTok.Credentials.APIKey)
		assert.Equal(t, "secret-456", cfg.TikTok.Credentials.APISecret)
		assert.Equal(t, 30*time.Second, cfg.TikTok.RequestTimeout)
		assert.Equal(t, 3, cfg.TikTok.MaxAttempts)
		assert.Equal(t, time.Second, cfg.TikTok.RetryBaseDelay)
		assert.Equal(t, 60*time.Second, cfg.TikTok.StatusInterval)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, log.InfoLevel, cfg.LogLevel)
		assert.Equal(t, LogFormat(LogFormatText), cfg.LogFormat)
		assert.False(t, cfg.TestModeEnabled)
		assert.False(t, cfg.PublishLogEnabled())
	})

	t.Run("reads custom values", func(t *testing.T) {
		setCredentials(t)
		t.Setenv(EnvfileKeyTikTokAPI, "http://localhost:9000/v2")
		t.Setenv(EnvfileKeyTikTokRequestTimeout, "5")
		t.Setenv(EnvfileKeyTikTokMaxAttempts, "5")
		t.Setenv(EnvfileKeyTikTokRetryBaseDelay, "2")
		t.Setenv(EnvfileKeyServerPort, "9090")
		t.Setenv(EnvfileKeyPostgresURL, "postgres://localhost/tiktok")
		t.Setenv(EnvfileKeyLogLevel, "debug")
		t.Setenv(EnvfileKeyLogFormat, "JSON")
		t.Setenv(EnvfileKeyTestMode, "true")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "http://localhost:9000/v2", cfg.TikTok.ApiURL.String())
		assert.Equal(t, 5*time.Second, cfg.TikTok.RequestTimeout)
		assert.Equal(t, 5, cfg.TikTok.MaxAttempts)
		assert.Equal(t, 2*time.Second, cfg.TikTok.RetryBaseDelay)
		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, log.DebugLevel, cfg.LogLevel)
		assert.Equal(t, LogFormat(LogFormatJSON), cfg.LogFormat)
		assert.True(t, cfg.TestModeEnabled)
		assert.True(t, cfg.PublishLogEnabled())
	})

	t.Run("missing credentials are a configuration error", func(t *testing.T) {
		t.Setenv(EnvfileKeyTikTokAPIKey, "")
		t.Setenv(EnvfileKeyTikTokAPISecret, "")
		t.Setenv(EnvfileKeyTikTokSecretPath, "")

		_, err := Load()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConfiguration)
		assert.Contains(t, err.Error(), "SOCIAL_MEDIA_TOKEN, TIKTOK_API_KEY")
	})

	t.Run("credentials may come from a secrets path instead", func(t *testing.T) {
		t.Setenv(EnvfileKeyTikTokAPIKey, "")
		t.Setenv(EnvfileKeyTikTokAPISecret, "")
		t.Setenv(EnvfileKeyTikTokSecretPath, "prod/tiktok")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "prod/tiktok", cfg.TikTok.SecretPath)
		assert.True(t, cfg.NeedsSecretsManager())
	})

	t.Run("rejects a base URL without a host", func(t *testing.T) {
		setCredentials(t)
		t.Setenv(EnvfileKeyTikTokAPI, "not a url")

		_, err := Load()
		assert.ErrorIs(t, err, ErrConfiguration)
	})
}

func TestParseLogFormat(t *testing.T) {
	testCases := []struct {
		description string
		raw         string
		expected    LogFormat
		wantErr     bool
	}{
		{"json is accepted", "json", LogFormatJSON, false},
		{"text is accepted", "text", LogFormatText, false},
		{"case is ignored", "Text", LogFormatText, false},
		{"anything else is rejected", "xml", "", true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			format, err := parseLogFormat(testCase.raw)
			if testCase.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, testCase.expected, format)
		})
	}
}

func TestCredentials(t *testing.T) {
	t.Run("valid credentials pass", func(t *testing.T) {
		assert.NoError(t, Credentials{APIKey: "k", APISecret: "s"}.Validate())
	})

	t.Run("whitespace counts as missing", func(t *testing.T) {
		err := Credentials{APIKey: "k", APISecret: "  "}.Validate()
		assert.ErrorIs(t, err, ErrConfiguration)
		assert.Contains(t, err.Error(), EnvfileKeyTikTokAPISecret)
		assert.NotContains(t, err.Error(), EnvfileKeyTikTokAPIKey)
	})

	t.Run("formatting never exposes values", func(t *testing.T) {
		creds := Credentials{APIKey: "super-secret-key", APISecret: "super-secret-token"}
		for _, rendered := range []string{fmt.Sprint(creds), fmt.Sprintf("%+v", creds), fmt.Sprintf("%#v", creds)} {
			assert.NotContains(t, rendered, "super-secret")
			assert.Contains(t, rendered, "<redacted>")
		}
	})
}
