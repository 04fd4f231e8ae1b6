package backend

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAWSConfig_StaticCredentials(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AccessKey = "AKIAEXAMPLE"
	cfg.SecretKey = "secret"

	awsConfig, err := NewAWSConfig(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg.Region, awsConfig.Region)

	creds, err := awsConfig.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKIAEXAMPLE", creds.AccessKeyID)
}

func TestClientConstructors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AccessKey = "AKIAEXAMPLE"
	cfg.SecretKey = "secret"
	cfg.S3Endpoint = "http://localhost:9000"
	cfg.S3UsePathStyle = true
	cfg.CognitoEndpoint = "http://localhost:9229"

	awsConfig, err := NewAWSConfig(context.Background(), cfg)
	require.NoError(t, err)

	assert.NotNil(t, NewIdentityProviderClient(awsConfig, cfg))

	storage := NewStorageClient(awsConfig, cfg)
	require.NotNil(t, storage)
	assert.True(t, storage.Options().UsePathStyle)
	assert.Equal(t, "http://localhost:9000", *storage.Options().BaseEndpoint)
}

func TestProbeClientFactory(t *testing.T) {
	cfg := DefaultConfig()
	cfg.S3Endpoint = "https://s3.example.com"

	awsConfig, err := NewAWSConfig(context.Background(), cfg)
	require.NoError(t, err)
	factory := NewProbeClientFactory(awsConfig, cfg)

	t.Run("UsesProbeCredentials", func(t *testing.T) {
		client, err := factory("AKIAPROBE", "probe-secret")
		require.NoError(t, err)

		s3Client, ok := client.(*s3.Client)
		require.True(t, ok)
		opts := s3Client.Options()
		assert.Equal(t, 1, opts.RetryMaxAttempts)
		assert.Equal(t, "https://s3.example.com", *opts.BaseEndpoint)

		creds, err := opts.Credentials.Retrieve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "AKIAPROBE", creds.AccessKeyID)
		assert.Equal(t, "probe-secret", creds.SecretAccessKey)
	})

	t.Run("EmptyKeys", func(t *testing.T) {
		_, err := factory("", "secret")
		assert.Error(t, err)
		_, err = factory("AKIA", "")
		assert.Error(t, err)
	})
}
