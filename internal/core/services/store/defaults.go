package store

import (
	"strings"
	"time"

	"github.com/pramitgaha21/upload-file/internal/adapters/checksum"
	"github.com/pramitgaha21/upload-file/internal/adapters/compression"
	"github.com/pramitgaha21/upload-file/internal/core/domain"
)

const (
	DefaultMaxChunkSize = 2 * 1024 * 1024        // 2MB
	DefaultMaxStorage   = 4 * 1024 * 1024 * 1024 // 4GB
	DefaultPublicURL    = "http://localhost:8080"

	DefaultChunkExpiry   = time.Duration(time.Hour * 10)   // 10h
	DefaultSweepInterval = time.Duration(time.Minute * 10) // 10m
)

// AnonymousPrincipal is the textual form of the anonymous caller. Requests
// without a principal are treated the same way.
const AnonymousPrincipal = "2vxsx-fae"

// IsAnonymous reports whether owner identifies nobody.
func IsAnonymous(owner string) bool {
	owner = strings.TrimSpace(owner)
	return owner == "" || owner == AnonymousPrincipal
}

// DefaultOptions returns StoreOptions with recommended defaults.
func DefaultOptions() *domain.StoreOptions {
	return prepareDefaults(&domain.StoreOptions{})
}

// prepareDefaults returns a copy of opts with zero fields filled in. The
// caller's options, including the nested checksum and compression options,
// are left as they were.
func prepareDefaults(opts *domain.StoreOptions) *domain.StoreOptions {
	o := *opts

	if o.MaxChunkSize == 0 {
		o.MaxChunkSize = DefaultMaxChunkSize
	}

	if o.MaxStorage == 0 {
		o.MaxStorage = DefaultMaxStorage
	}

	if o.ChunkExpiry == 0 {
		o.ChunkExpiry = DefaultChunkExpiry
	}

	if strings.TrimSpace(o.PublicURL) == "" {
		o.PublicURL = DefaultPublicURL
	}
	o.PublicURL = strings.TrimRight(o.PublicURL, "/")

	if opts.ChecksumOptions == nil {
		o.ChecksumOptions = checksum.DefaultOptions()
	} else {
		sum := *opts.ChecksumOptions
		if sum.Algorithm == "" {
			sum.Algorithm = checksum.CRC32IEEE
		}
		o.ChecksumOptions = &sum
	}

	if opts.CompressionOptions == nil {
		o.CompressionOptions = compression.DefaultOptions()
	} else {
		comp := *opts.CompressionOptions
		if comp.Enable && comp.Level == 0 {
			comp.Level = compression.DefaultLevel
		}
		o.CompressionOptions = &comp
	}

	if o.Now == nil {
		o.Now = time.Now
	}

	return &o
}
