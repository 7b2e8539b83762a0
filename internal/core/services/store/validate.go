package store

import (
	"fmt"
	"net/url"

	"github.com/pramitgaha21/upload-file/internal/adapters/checksum"
	"github.com/pramitgaha21/upload-file/internal/adapters/compression"
	"github.com/pramitgaha21/upload-file/internal/core/domain"
	validation "github.com/pramitgaha21/upload-file/pkg/errors"
)

// Validate checks options that already went through prepareDefaults.
func Validate(opts *domain.StoreOptions) error {
	if opts.MaxChunkSize > opts.MaxStorage {
		return validation.NewValidationError(
			"maxChunkSize",
			opts.MaxChunkSize,
			fmt.Errorf("maxChunkSize (%d) must not exceed maxStorage (%d)", opts.MaxChunkSize, opts.MaxStorage),
		)
	}

	if opts.ChunkExpiry < 0 {
		return validation.NewValidationError(
			"chunkExpiry", opts.ChunkExpiry, fmt.Errorf("chunk expiry must not be negative, got %s", opts.ChunkExpiry),
		)
	}

	if opts.SweepInterval < 0 {
		return validation.NewValidationError(
			"sweepInterval", opts.SweepInterval, fmt.Errorf("sweep interval must not be negative, got %s", opts.SweepInterval),
		)
	}

	if u, err := url.Parse(opts.PublicURL); err != nil || u.Scheme == "" || u.Host == "" {
		return validation.NewValidationError(
			"publicURL", opts.PublicURL, fmt.Errorf("public url must be absolute, got %q", opts.PublicURL),
		)
	}

	if err := checksum.Validate(opts.ChecksumOptions); err != nil {
		return validation.NewValidationError("checksumOptions", opts.ChecksumOptions.Algorithm, err)
	}

	if opts.CompressionOptions.Enable {
		if err := compression.Validate(opts.CompressionOptions); err != nil {
			return validation.NewValidationError("compressionOptions", opts.CompressionOptions.Level, err)
		}
	}

	return nil
}
