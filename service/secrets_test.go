package service

import (
	"context"
	"errors"
	"testing"

	"github.com/truemediaorg/tiktokpost/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func secretWithID(id string) interface{} {
	return mock.MatchedBy(func(input *secretsmanager.GetSecretValueInput) bool {
		return aws.ToString(input.SecretId) == id
	})
}

func TestResolveCredentials(t *testing.T) {
	t.Run("uses credentials from the environment", func(t *testing.T) {
		secrets := new(MockSecretGetter)
		cfg := config.TikTokConfig{
			Credentials: config.Credentials{APIKey: "key", APISecret: "secret"},
			SecretPath:  "tiktok/creds",
		}

		credentials, err := ResolveCredentials(context.TODO(), cfg, secrets)
		require.NoError(t, err)
		assert.Equal(t, "key", credentials.APIKey)
		secrets.AssertNotCalled(t, "GetSecretValue", mock.Anything, mock.Anything)
	})

	t.Run("reads credentials from Secrets Manager", func(t *testing.T) {
		secrets := new(MockSecretGetter)
		secrets.On("GetSecretValue", mock.Anything, secretWithID("tiktok/creds")).Return(&secretsmanager.GetSecretValueOutput{
			SecretString: aws.String(`{"apiKey":"sm-key","apiSecret":"sm-secret"}`),
		}, nil)

		credentials, err := ResolveCredentials(context.TODO(), config.TikTokConfig{SecretPath: "tiktok/creds"}, secrets)
		require.NoError(t, err)
		assert.Equal(t, "sm-key", credentials.APIKey)
		assert.Equal(t, "sm-secret", credentials.APISecret)
	})

	testCases := []struct {
		description string
		output      *secretsmanager.GetSecretValueOutput
		err         error
	}{
		{"secret lookup fails", nil, errors.New("access denied")},
		{"secret has no string", &secretsmanager.GetSecretValueOutput{}, nil},
		{"secret is not JSON", &secretsmanager.GetSecretValueOutput{SecretString: aws.String("key=value")}, nil},
		{"secret lacks the API secret", &secretsmanager.GetSecretValueOutput{SecretString: aws.String(`{"apiKey":"sm-key"}`)}, nil},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			secrets := new(MockSecretGetter)
			secrets.On("GetSecretValue", mock.Anything, mock.Anything).Return(testCase.output, testCase.err)

			_, err := ResolveCredentials(context.TODO(), config.TikTokConfig{SecretPath: "tiktok/creds"}, secrets)
			assert.ErrorIs(t, err, config.ErrConfiguration)
		})
	}

	t.Run("fails without any source", func(t *testing.T) {
		_, err := ResolveCredentials(context.TODO(), config.TikTokConfig{}, nil)
		assert.ErrorIs(t, err, config.ErrConfiguration)
	})

	t.Run("fails when a secret is needed but there is no client", func(t *testing.T) {
		_, err := ResolveCredentials(context.TODO(), config.TikTokConfig{SecretPath: "tiktok/creds"}, nil)
		assert.ErrorIs(t, err, config.ErrConfiguration)
	})
}

func TestResolvePostgresURL(t *testing.T) {
	t.Run("prefers the configured URL", func(t *testing.T) {
		url, err := ResolvePostgresURL(context.TODO(), config.Config{PostgresURL: "postgres://localhost/posts", PostgresSecretPath: "pg"}, nil)
		require.NoError(t, err)
		assert.Equal(t, "postgres://localhost/posts", url)
	})

	t.Run("is empty when the publish log is off", func(t *testing.T) {
		url, err := ResolvePostgresURL(context.TODO(), config.Config{}, nil)
		require.NoError(t, err)
		assert.Empty(t, url)
	})

	t.Run("reads the connection string from Secrets Manager", func(t *testing.T) {
		secrets := new(MockSecretGetter)
		secrets.On("GetSecretValue", mock.Anything, secretWithID("pg")).Return(&secretsmanager.GetSecretValueOutput{
			SecretString: aws.String(`{"connectionString":"postgres://db/posts"}`),
		}, nil)

		url, err := ResolvePostgresURL(context.TODO(), config.Config{PostgresSecretPath: "pg"}, secrets)
		require.NoError(t, err)
		assert.Equal(t, "postgres://db/posts", url)
	})
}
