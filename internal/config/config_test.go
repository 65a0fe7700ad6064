package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "env: dev\n"))
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, StorageSQLite, cfg.Storage.Driver)
	assert.Equal(t, BlobLocal, cfg.Blob.Driver)
	assert.Equal(t, 4*time.Second, cfg.HTTPServer.Timeout)
	assert.Equal(t, 15*time.Minute, cfg.Blob.URLTTL)
	assert.Equal(t, int64(10<<20), cfg.Uploads.MaxImageSize)
	assert.Equal(t, 8, cfg.Messages.ResolveConcurrency)
	assert.False(t, cfg.Messages.EnforceGroupExists)
	assert.False(t, cfg.Uploads.CompensateOrphans)
}

func TestLoad_FileAndEnv(t *testing.T) {
	t.Setenv("HTTP_ADDRESS", "0.0.0.0:9000")

	cfg, err := Load(writeConfig(t, `
env: prod
storage:
  driver: postgres
  dsn: postgres://localhost/groups
blob:
  driver: s3
  s3:
    bucket: media
messages:
  enforce_group_exists: true
uploads:
  max_image_size: 1024
  compensate_orphans: true
`))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.HTTPServer.Address)
	assert.Equal(t, StoragePostgres, cfg.Storage.Driver)
	assert.Equal(t, "media", cfg.Blob.S3.Bucket)
	assert.True(t, cfg.Messages.EnforceGroupExists)
	assert.Equal(t, int64(1024), cfg.Uploads.MaxImageSize)
	assert.True(t, cfg.Uploads.CompensateOrphans)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "unknown storage", body: "storage:\n  driver: mysql\n"},
		{name: "unknown blob", body: "blob:\n  driver: ftp\n"},
		{name: "s3 without bucket", body: "blob:\n  driver: s3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
