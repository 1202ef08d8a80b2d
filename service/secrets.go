package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/truemediaorg/tiktokpost/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretGetter is the part of the Secrets Manager client used here.
type SecretGetter interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// ResolveCredentials prefers credentials from the environment and falls back to
// the secret at cfg.SecretPath.
func ResolveCredentials(ctx context.Context, cfg config.TikTokConfig, secrets SecretGetter) (config.Credentials, error) {
	if err := cfg.Credentials.Validate(); err == nil {
		return cfg.Credentials, nil
	} else if cfg.SecretPath == "" {
		return config.Credentials{}, err
	}

	var tiktokSecrets config.TikTokSecretData
	if err := readSecret(ctx, secrets, cfg.SecretPath, &tiktokSecrets); err != nil {
		return config.Credentials{}, err
	}
	credentials := config.Credentials{
		APIKey:    tiktokSecrets.ApiKey,
		APISecret: tiktokSecrets.ApiSecret,
	}
	if err := credentials.Validate(); err != nil {
		return config.Credentials{}, fmt.Errorf("secret %s: %w", cfg.SecretPath, err)
	}
	return credentials, nil
}

// ResolvePostgresURL returns the publish log connection string, or "" when the
// publish log is not configured.
func ResolvePostgresURL(ctx context.Context, cfg config.Config, secrets SecretGetter) (string, error) {
	if cfg.PostgresURL != "" || cfg.PostgresSecretPath == "" {
		return cfg.PostgresURL, nil
	}
	var pgSecrets config.PostgresSecretData
	if err := readSecret(ctx, secrets, cfg.PostgresSecretPath, &pgSecrets); err != nil {
		return "", err
	}
	if pgSecrets.ConnectionString == "" {
		return "", fmt.Errorf("%w: secret %s has no connectionString", config.ErrConfiguration, cfg.PostgresSecretPath)
	}
	return pgSecrets.ConnectionString, nil
}

func readSecret(ctx context.Context, secrets SecretGetter, path string, out interface{}) error {
	if secrets == nil {
		return fmt.Errorf("%w: no secrets manager client to read %s", config.ErrConfiguration, path)
	}
	result, err := secrets.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: aws.String(path)})
	if err != nil {
		return fmt.Errorf("%w: reading secret %s: %v", config.ErrConfiguration, path, err)
	}
	if result.SecretString == nil {
		return fmt.Errorf("%w: secret %s has no string value", config.ErrConfiguration, path)
	}
	if err := json.Unmarshal([]byte(*result.SecretString), out); err != nil {
		return fmt.Errorf("%w: secret %s is not valid JSON: %v", config.ErrConfiguration, path, err)
	}
	return nil
}
