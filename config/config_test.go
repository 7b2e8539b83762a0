package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pramitgaha21/upload-file/internal/adapters/checksum"
	"github.com/pramitgaha21/upload-file/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()

	assert.Equal(t, ":8080", c.Server.Address)
	assert.Equal(t, "http://localhost:8080", c.Server.PublicURL)
	assert.Equal(t, 15*time.Second, c.Server.ReadTimeout)
	assert.Equal(t, Size(2*1024*1024), c.Storage.MaxChunkSize)
	assert.Equal(t, Size(4*1024*1024*1024), c.Storage.MaxStorage)
	assert.Equal(t, 10*time.Hour, c.Storage.ChunkExpiry)
	assert.Equal(t, 10*time.Minute, c.Storage.SweepInterval)
	assert.Equal(t, "crc32-ieee", c.Checksum.Algorithm)
	assert.True(t, c.Checksum.VerifyOnRead)
	assert.True(t, c.Compression.Enable)
	assert.Equal(t, uint8(2), c.Compression.Level)
	assert.Equal(t, "info", c.Logging.Level)
	require.NoError(t, c.Validate())
}

func TestParseKeepsDefaultsForMissingKeys(t *testing.T) {
	c, err := Parse([]byte(`
server:
  address: ":9000"
storage:
  max_chunk_size: 512KB
  chunk_expiry: 2h
checksum:
  algorithm: crc32-castagnoli
  verify_on_read: false
compression:
  enable: false
logging:
  level: debug
`))
	require.NoError(t, err)

	assert.Equal(t, ":9000", c.Server.Address)
	assert.Equal(t, 60*time.Second, c.Server.WriteTimeout)
	assert.Equal(t, Size(512*1024), c.Storage.MaxChunkSize)
	assert.Equal(t, Size(4*1024*1024*1024), c.Storage.MaxStorage)
	assert.Equal(t, 2*time.Hour, c.Storage.ChunkExpiry)
	assert.False(t, c.Checksum.VerifyOnRead)
	assert.False(t, c.Compression.Enable)
	assert.Equal(t, "debug", c.Logging.Level)

	opts := c.StoreOptions()
	assert.Equal(t, uint64(512*1024), opts.MaxChunkSize)
	assert.Equal(t, 2*time.Hour, opts.ChunkExpiry)
	assert.Equal(t, checksum.CRC32Castagnoli, opts.ChecksumOptions.Algorithm)
	assert.False(t, opts.ChecksumOptions.VerifyOnRead)
	assert.False(t, opts.CompressionOptions.Enable)
	assert.Equal(t, "http://localhost:8080", opts.PublicURL)
}

func TestParsePlainByteCount(t *testing.T) {
	c, err := Parse([]byte("storage:\n  max_chunk_size: 1024\n  max_storage: 1MB\n"))
	require.NoError(t, err)
	assert.Equal(t, Size(1024), c.Storage.MaxChunkSize)
	assert.Equal(t, Size(1024*1024), c.Storage.MaxStorage)
}

func TestParseRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{name: "empty address", yaml: "server:\n  address: \" \"\n", field: "server.address"},
		{name: "negative timeout", yaml: "server:\n  read_timeout: -1s\n", field: "server.read_timeout"},
		{name: "chunk larger than storage", yaml: "storage:\n  max_chunk_size: 2GB\n  max_storage: 1GB\n", field: "storage.max_chunk_size"},
		{name: "zero chunk size", yaml: "storage:\n  max_chunk_size: 0\n", field: "storage.max_chunk_size"},
		{name: "zero expiry", yaml: "storage:\n  chunk_expiry: 0s\n", field: "storage.chunk_expiry"},
		{name: "unknown algorithm", yaml: "checksum:\n  algorithm: md5\n", field: "checksum.algorithm"},
		{name: "compression level", yaml: "compression:\n  level: 7\n", field: "compression.level"},
		{name: "log level", yaml: "logging:\n  level: loud\n", field: "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)

			ve := errors.AsValidationError(err)
			require.NotNil(t, ve, "got %v", err)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestParseRejectsBadSize(t *testing.T) {
	_, err := Parse([]byte("storage:\n  max_storage: lots\n"))
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upload.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  public_url: https://files.example.com\n"), 0o600))

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://files.example.com", c.Server.PublicURL)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSizeString(t *testing.T) {
	assert.Equal(t, "2.00MB", Size(2*1024*1024).String())
}
