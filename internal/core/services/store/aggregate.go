package store

import "github.com/pramitgaha21/upload-file/internal/core/domain"

// AggregateChecksum folds per-chunk checksums into the value a commit must
// present: their sum modulo domain.CommitChecksumModulus. The sum is exact,
// it never wraps at 32 or 64 bits.
func AggregateChecksum(checksums ...uint64) uint64 {
	var sum uint64
	for _, c := range checksums {
		sum = (sum + c%domain.CommitChecksumModulus) % domain.CommitChecksumModulus
	}
	return sum
}
