package checksum

import (
	"github.com/pramitgaha21/upload-file/pkg/checksum"
)

type crc32IEEE struct {
	name string
}

func NewCRC32IEEE() *crc32IEEE {
	return &crc32IEEE{name: string(CRC32IEEE)}
}

func (c *crc32IEEE) Calculate(data []byte) uint64 {
	return uint64(checksum.UpdateChecksum(data, 0))
}

// Only the low 32 bits of prev are used as the accumulator.
func (c *crc32IEEE) Update(prev uint64, data []byte) uint64 {
	return uint64(checksum.UpdateChecksum(data, uint32(prev)))
}

func (c *crc32IEEE) Verify(data []byte, expected uint64) bool {
	return c.Calculate(data) == expected
}

func (c *crc32IEEE) Size() uint8 {
	return checksum.Size
}

func (c *crc32IEEE) Name() string {
	return c.name
}
