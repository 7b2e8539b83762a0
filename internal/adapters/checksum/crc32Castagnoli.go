package checksum

import (
	"github.com/klauspost/crc32"
)

type crc32Castagnoli struct {
	name  string
	table *crc32.Table
}

func NewCRC32Castagnoli() *crc32Castagnoli {
	return &crc32Castagnoli{
		name:  string(CRC32Castagnoli),
		table: crc32.MakeTable(crc32.Castagnoli),
	}
}

func (c *crc32Castagnoli) Calculate(data []byte) uint64 {
	return uint64(crc32.Checksum(data, c.table))
}

func (c *crc32Castagnoli) Update(prev uint64, data []byte) uint64 {
	return uint64(crc32.Update(uint32(prev), c.table, data))
}

func (c *crc32Castagnoli) Verify(data []byte, expected uint64) bool {
	return c.Calculate(data) == expected
}

func (c *crc32Castagnoli) Size() uint8 {
	return crc32.Size
}

func (c *crc32Castagnoli) Name() string {
	return c.name
}
