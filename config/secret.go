package config

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/exp/maps"
)

type TikTokSecretData struct {
	ApiKey    string `json:"apiKey"`
	ApiSecret string `json:"apiSecret"`
}

type PostgresSecretData struct {
	ConnectionString string `json:"connectionString"`
}

// Credentials authenticate every call to the TikTok API. They are read once at
// startup and never change afterwards.
type Credentials struct {
	APIKey    string
	APISecret string
}

// Validate returns an ErrConfiguration naming every missing value.
func (c Credentials) Validate() error {
	values := map[string]string{
		EnvfileKeyTikTokAPIKey:    c.APIKey,
		EnvfileKeyTikTokAPISecret: c.APISecret,
	}
	missing := map[string]bool{}
	for key, value := range values {
		if strings.TrimSpace(value) == "" {
			missing[key] = true
		}
	}
	if len(missing) == 0 {
		return nil
	}
	keys := maps.Keys(missing)
	sort.Strings(keys)
	return fmt.Errorf("%w: missing TikTok credentials: %s", ErrConfiguration, strings.Join(keys, ", "))
}

// String keeps credentials out of logs and error messages.
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{APIKey:%s APISecret:%s}", redact(c.APIKey), redact(c.APISecret))
}

func (c Credentials) GoString() string {
	return c.String()
}

func redact(value string) string {
	if value == "" {
		return "<unset>"
	}
	return "<redacted>"
}
