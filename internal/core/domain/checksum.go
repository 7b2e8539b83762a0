package domain

import (
	"github.com/pramitgaha21/upload-file/internal/core/ports"
)

// ChecksumAlgorithm represents supported checksum algorithms
type ChecksumAlgorithm string

// ChecksumOptions defines how chunk checksums are computed and checked.
type ChecksumOptions struct {
	// Algorithm specifies which checksum algorithm to use for chunk checksums.
	// Clients must compute the per-chunk values they commit with the same one.
	// Defaults to CRC32IEEE if not specified.
	Algorithm ChecksumAlgorithm

	// Custom allows using a custom ChecksumPort implementation.
	// If provided, it takes precedence over Algorithm.
	Custom ports.ChecksumPort

	// VerifyOnRead determines if chunk checksums are recomputed whenever an
	// asset chunk is served. A mismatch is reported as corruption.
	// Default: true
	VerifyOnRead bool
}
