// Package checksum computes unsigned CRC-32 (IEEE) checksums over chunks of
// binary data. The accumulator is passed the way zlib and hash/crc32 take
// it, so feeding chunk B with the result of chunk A yields the checksum of
// A followed by B.
package checksum

import (
	"errors"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
	"math"

	validation "github.com/pramitgaha21/upload-file/pkg/errors"
)

// The size of a CRC-32 checksum in bytes.
const Size = crc32.Size

// UpdateChecksum returns the CRC-32 of chunk folded into checksum.
// An empty chunk returns checksum unchanged.
func UpdateChecksum(chunk []byte, checksum uint32) uint32 {
	return crc32.Update(checksum, crc32.IEEETable, chunk)
}

// Verify reports whether chunk, folded into checksum, produces expected.
func Verify(chunk []byte, checksum, expected uint32) bool {
	return UpdateChecksum(chunk, checksum) == expected
}

// FromSigned reinterprets a signed 32-bit checksum, as produced by CRC
// libraries in languages without unsigned integers, as its unsigned bit
// pattern.
func FromSigned(v int32) uint32 {
	return uint32(v)
}

// Seed converts an accumulator of arbitrary integer width to the 32-bit
// value UpdateChecksum expects. Negative values down to math.MinInt32 are
// treated as signed representations; anything that does not fit in 32 bits
// is rejected.
func Seed(v int64) (uint32, error) {
	switch {
	case v < math.MinInt32 || v > math.MaxUint32:
		return 0, validation.NewValidationError(
			"checksum", v, fmt.Errorf("checksum %d does not fit in 32 bits", v),
		)
	case v < 0:
		return FromSigned(int32(v)), nil
	default:
		return uint32(v), nil
	}
}

// UpdateFrom folds everything read from r into checksum.
func UpdateFrom(r io.Reader, checksum uint32) (uint32, error) {
	if r == nil {
		return 0, validation.NewValidationError("chunk", nil, errors.New("chunk reader is required"))
	}

	h := New(checksum)
	if _, err := io.Copy(h, r); err != nil {
		return 0, fmt.Errorf("error reading chunk: %w", err)
	}
	return h.Sum32(), nil
}

type digest struct {
	crc uint32
}

// New creates a hash.Hash32 computing the IEEE CRC-32 starting from prev.
// Reset returns the digest to zero, not to prev.
func New(prev uint32) hash.Hash32 { return &digest{crc: prev} }

func (d *digest) Size() int { return Size }

func (d *digest) BlockSize() int { return 1 }

func (d *digest) Reset() { d.crc = 0 }

func (d *digest) Write(p []byte) (n int, err error) {
	d.crc = UpdateChecksum(p, d.crc)
	return len(p), nil
}

func (d *digest) Sum32() uint32 { return d.crc }

func (d *digest) Sum(in []byte) []byte {
	s := d.Sum32()
	return append(in, byte(s>>24), byte(s>>16), byte(s>>8), byte(s))
}
