package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validMinioConfig() MinioConfig {
	return MinioConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "access",
		SecretKey: "secret",
		Region:    "us-east-1",
	}
}

func TestNewMinioCredentialsValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*MinioConfig)
	}{
		{"missing endpoint", func(c *MinioConfig) { c.Endpoint = "" }},
		{"missing access key", func(c *MinioConfig) { c.AccessKey = "" }},
		{"missing secret key", func(c *MinioConfig) { c.SecretKey = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validMinioConfig()
			tc.mutate(&cfg)
			_, err := NewMinioCredentials(cfg)
			assert.Error(t, err)
		})
	}
}

func TestNewMinioCredentialsStripsScheme(t *testing.T) {
	cfg := validMinioConfig()
	cfg.Endpoint = "https://storage.example.com:9000"

	creds, err := NewMinioCredentials(cfg)
	require.NoError(t, err)
	assert.NotNil(t, creds)
}

func TestMinioScopedClientValidation(t *testing.T) {
	ctx := context.Background()
	creds, err := NewMinioCredentials(validMinioConfig())
	require.NoError(t, err)

	_, err = creds.BlobClient(ctx, "", "key")
	assert.Error(t, err)

	_, err = creds.BlobClient(ctx, "container", "")
	assert.Error(t, err)

	_, err = creds.ContainerClient(ctx, "")
	assert.Error(t, err)
}

func TestMinioContainerClientCloseReleasesCursor(t *testing.T) {
	ctx := context.Background()
	creds, err := NewMinioCredentials(validMinioConfig())
	require.NoError(t, err)

	client, err := creds.ContainerClient(ctx, "container")
	require.NoError(t, err)

	mc, ok := client.(*minioContainerClient)
	require.True(t, ok)

	require.NoError(t, client.Close())
	assert.ErrorIs(t, mc.cursorCtx.Err(), context.Canceled)
}
