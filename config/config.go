package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/inhies/go-bytesize"
	"github.com/pramitgaha21/upload-file/internal/adapters/checksum"
	"github.com/pramitgaha21/upload-file/internal/adapters/compression"
	"github.com/pramitgaha21/upload-file/internal/core/domain"
	validation "github.com/pramitgaha21/upload-file/pkg/errors"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Storage     StorageConfig     `yaml:"storage"`
	Checksum    ChecksumConfig    `yaml:"checksum"`
	Compression CompressionConfig `yaml:"compression"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// Holds HTTP listener configuration
type ServerConfig struct {
	Address         string        `yaml:"address" default:":8080"`                     // Listen address
	PublicURL       string        `yaml:"public_url" default:"http://localhost:8080"` // Base of asset URLs
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"60s"` // Covers streaming a whole asset
	IdleTimeout     time.Duration `yaml:"idle_timeout" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
}

// Holds chunk and asset storage limits
type StorageConfig struct {
	MaxChunkSize  Size          `yaml:"max_chunk_size" default:"2MB"`
	MaxStorage    Size          `yaml:"max_storage" default:"4GB"`
	ChunkExpiry   time.Duration `yaml:"chunk_expiry" default:"10h"`   // Age at which uncommitted chunks are dropped
	SweepInterval time.Duration `yaml:"sweep_interval" default:"10m"` // 0 disables the background sweep
}

type ChecksumConfig struct {
	Algorithm    string `yaml:"algorithm" default:"crc32-ieee"`
	VerifyOnRead bool   `yaml:"verify_on_read" default:"true"`
}

type CompressionConfig struct {
	Enable bool  `yaml:"enable" default:"true"`
	Level  uint8 `yaml:"level" default:"2"` // zstd encoder level (1-4)
}

type LoggingConfig struct {
	Level       string `yaml:"level" default:"info"`
	Development bool   `yaml:"development" default:"false"`
}

// Size is a byte count written either as a plain number or with a unit,
// such as "512KB" or "4GB".
type Size uint64

func (s *Size) UnmarshalText(text []byte) error {
	str := strings.TrimSpace(string(text))

	if n, err := strconv.ParseUint(str, 10, 64); err == nil {
		*s = Size(n)
		return nil
	}

	b, err := bytesize.Parse(str)
	if err != nil {
		return fmt.Errorf("invalid size %q: %w", str, err)
	}

	*s = Size(b)
	return nil
}

func (s Size) String() string {
	return bytesize.New(float64(s)).String()
}

// Returns a Config struct with the values from the default tags.
func DefaultConfig() *Config {
	var config Config
	defaults.MustSet(&config)
	return &config
}

// Loads configuration from a YAML file. Keys missing from the file keep
// their default values.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration on top of the defaults and validates it.
func Parse(data []byte) (*Config, error) {
	config := DefaultConfig()

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Address) == "" {
		return validation.NewValidationError("server.address", c.Server.Address, fmt.Errorf("address is required"))
	}

	for field, d := range map[string]time.Duration{
		"server.read_timeout":     c.Server.ReadTimeout,
		"server.write_timeout":    c.Server.WriteTimeout,
		"server.idle_timeout":     c.Server.IdleTimeout,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
		"storage.sweep_interval":  c.Storage.SweepInterval,
	} {
		if d < 0 {
			return validation.NewValidationError(field, d, fmt.Errorf("must not be negative"))
		}
	}

	if c.Storage.MaxChunkSize == 0 {
		return validation.NewValidationError("storage.max_chunk_size", c.Storage.MaxChunkSize, fmt.Errorf("must be greater than 0"))
	}

	if c.Storage.MaxChunkSize > c.Storage.MaxStorage {
		return validation.NewValidationError(
			"storage.max_chunk_size",
			c.Storage.MaxChunkSize,
			fmt.Errorf("must not exceed max_storage (%s)", c.Storage.MaxStorage),
		)
	}

	if c.Storage.ChunkExpiry <= 0 {
		return validation.NewValidationError("storage.chunk_expiry", c.Storage.ChunkExpiry, fmt.Errorf("must be greater than 0"))
	}

	if err := checksum.Validate(&domain.ChecksumOptions{Algorithm: domain.ChecksumAlgorithm(c.Checksum.Algorithm)}); err != nil {
		return validation.NewValidationError("checksum.algorithm", c.Checksum.Algorithm, err)
	}

	if c.Compression.Enable {
		if err := compression.Validate(&domain.CompressionOptions{Level: c.Compression.Level}); err != nil {
			return validation.NewValidationError("compression.level", c.Compression.Level, err)
		}
	}

	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return validation.NewValidationError("logging.level", c.Logging.Level, err)
	}

	return nil
}

// StoreOptions converts the storage, checksum and compression sections into
// options for the store service.
func (c *Config) StoreOptions() *domain.StoreOptions {
	compressionOpts := compression.DefaultOptions()
	compressionOpts.Enable = c.Compression.Enable
	compressionOpts.Level = c.Compression.Level

	return &domain.StoreOptions{
		MaxChunkSize:  uint64(c.Storage.MaxChunkSize),
		MaxStorage:    uint64(c.Storage.MaxStorage),
		ChunkExpiry:   c.Storage.ChunkExpiry,
		SweepInterval: c.Storage.SweepInterval,
		PublicURL:     c.Server.PublicURL,
		ChecksumOptions: &domain.ChecksumOptions{
			Algorithm:    domain.ChecksumAlgorithm(c.Checksum.Algorithm),
			VerifyOnRead: c.Checksum.VerifyOnRead,
		},
		CompressionOptions: compressionOpts,
	}
}
