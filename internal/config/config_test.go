package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "us-east-1", cfg.Region)
	assert.Empty(t, cfg.Endpoint)
	assert.Empty(t, cfg.Bucket)
	assert.False(t, cfg.PathStyle)
	assert.False(t, cfg.LegacyList)
	assert.Zero(t, cfg.ChunkSize)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("S3_ENDPOINT", "https://minio.internal:9000")
	t.Setenv("S3_BUCKET", "artifacts")
	t.Setenv("S3_REGION", "eu-west-1")
	t.Setenv("S3_ACCESS_KEY_ID", "AKID")
	t.Setenv("S3_SECRET_ACCESS_KEY", "secret")
	t.Setenv("S3_PATH_STYLE", "true")
	t.Setenv("S3_CHUNK_SIZE", "16777216")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://minio.internal:9000", cfg.Endpoint)
	assert.Equal(t, "artifacts", cfg.Bucket)
	assert.Equal(t, "eu-west-1", cfg.Region)
	assert.Equal(t, "AKID", cfg.AccessKeyID)
	assert.Equal(t, "secret", cfg.SecretAccessKey)
	assert.True(t, cfg.PathStyle)
	assert.Equal(t, 16777216, cfg.ChunkSize)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stratus.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
endpoint: https://store.example.com
bucket: data
region: ap-southeast-2
path_style: true
legacy_list: true
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://store.example.com", cfg.Endpoint)
	assert.Equal(t, "data", cfg.Bucket)
	assert.Equal(t, "ap-southeast-2", cfg.Region)
	assert.True(t, cfg.PathStyle)
	assert.True(t, cfg.LegacyList)
}

func TestEnvironmentWinsOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stratus.yaml")
	require.NoError(t, os.WriteFile(path, []byte("endpoint: https://from-file.example.com\nbucket: file-bucket\n"), 0o600))

	t.Setenv("S3_ENDPOINT", "https://from-env.example.com")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://from-env.example.com", cfg.Endpoint)
	assert.Equal(t, "file-bucket", cfg.Bucket)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantField string
	}{
		{
			name: "valid with credentials",
			cfg: Config{
				Endpoint: "https://e", Bucket: "b",
				AccessKeyID: "k", SecretAccessKey: "s",
			},
		},
		{
			name: "valid anonymous",
			cfg:  Config{Endpoint: "https://e", Bucket: "b"},
		},
		{
			name:      "missing endpoint",
			cfg:       Config{Bucket: "b"},
			wantField: "endpoint",
		},
		{
			name:      "missing bucket",
			cfg:       Config{Endpoint: "https://e"},
			wantField: "bucket",
		},
		{
			name:      "key without secret",
			cfg:       Config{Endpoint: "https://e", Bucket: "b", AccessKeyID: "k"},
			wantField: "access_key_id/secret_access_key",
		},
		{
			name:      "secret without key",
			cfg:       Config{Endpoint: "https://e", Bucket: "b", SecretAccessKey: "s"},
			wantField: "access_key_id/secret_access_key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var cerr *Error
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tt.wantField, cerr.Field)
		})
	}
}
