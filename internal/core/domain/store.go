// Package domain defines the core types and configurations for the upload store.
package domain

import (
	"time"
)

// StoreOptions defines the configuration parameters of the upload store.
type StoreOptions struct {
	// MaxChunkSize is the largest chunk payload accepted, in bytes.
	//
	// Default: 2MB
	MaxChunkSize uint64

	// MaxStorage is the capacity of the store in bytes, counted over the
	// encoded size of chunks and assets. Uploads are refused once reached.
	//
	// Default: 4GB
	MaxStorage uint64

	// ChunkExpiry is how long an uploaded chunk may wait for a commit before
	// the sweep removes it.
	//
	// Default: 10 hours
	ChunkExpiry time.Duration

	// SweepInterval defines how often expired chunks are removed in the
	// background. Zero disables the background sweep.
	//
	// Default: 10 minutes
	SweepInterval time.Duration

	// PublicURL is the base URL assets are served from. Asset URLs are
	// PublicURL + "/asset/" + id.
	//
	// Default: "http://localhost:8080"
	PublicURL string

	// ChecksumOptions configures chunk checksums.
	ChecksumOptions *ChecksumOptions

	// CompressionOptions configures compression of stored payloads.
	CompressionOptions *CompressionOptions

	// Now returns the current time. Tests replace it to drive expiry.
	Now func() time.Time
}
