package checksum

import (
	"fmt"

	"github.com/pramitgaha21/upload-file/internal/core/domain"
	"github.com/pramitgaha21/upload-file/internal/core/ports"
)

const (
	// CRC32IEEE uses the IEEE polynomial for CRC32 checksums
	CRC32IEEE domain.ChecksumAlgorithm = "crc32-ieee"

	// CRC32Castagnoli uses the Castagnoli polynomial for CRC32 checksums
	CRC32Castagnoli domain.ChecksumAlgorithm = "crc32-castagnoli"

	// CRC64ISO uses the ISO polynomial for CRC64 checksums
	CRC64ISO domain.ChecksumAlgorithm = "crc64-iso"

	// CRC64ECMA uses the ECMA polynomial for CRC64 checksums
	CRC64ECMA domain.ChecksumAlgorithm = "crc64-ecma"
)

// Returns recommended checksum settings.
func DefaultOptions() *domain.ChecksumOptions {
	return &domain.ChecksumOptions{
		VerifyOnRead: true,
		Algorithm:    CRC32IEEE,
	}
}

func Validate(input *domain.ChecksumOptions) error {
	if input.Custom == nil {
		switch input.Algorithm {
		case CRC32IEEE, CRC32Castagnoli, CRC64ISO, CRC64ECMA:
		default:
			return fmt.Errorf("unsupported checksum algorithm: %s", input.Algorithm)
		}
	}
	return nil
}

// New returns the ChecksumPort selected by opts. A Custom implementation
// wins over Algorithm; nil options select CRC32IEEE.
func New(opts *domain.ChecksumOptions) (ports.ChecksumPort, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	if opts.Custom != nil {
		return opts.Custom, nil
	}

	switch opts.Algorithm {
	case CRC32IEEE, "":
		return NewCRC32IEEE(), nil
	case CRC32Castagnoli:
		return NewCRC32Castagnoli(), nil
	case CRC64ISO:
		return NewCRC64ISO(), nil
	case CRC64ECMA:
		return NewCRC64ECMA(), nil
	default:
		return nil, fmt.Errorf("unsupported checksum algorithm: %s", opts.Algorithm)
	}
}
