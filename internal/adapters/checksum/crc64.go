package checksum

import (
	"hash/crc64"
)

type crc64Checksum struct {
	name  string
	table *crc64.Table
}

func NewCRC64ISO() *crc64Checksum {
	return &crc64Checksum{
		name:  string(CRC64ISO),
		table: crc64.MakeTable(crc64.ISO),
	}
}

func NewCRC64ECMA() *crc64Checksum {
	return &crc64Checksum{
		name:  string(CRC64ECMA),
		table: crc64.MakeTable(crc64.ECMA),
	}
}

func (c *crc64Checksum) Calculate(data []byte) uint64 {
	return crc64.Checksum(data, c.table)
}

func (c *crc64Checksum) Update(prev uint64, data []byte) uint64 {
	return crc64.Update(prev, c.table, data)
}

func (c *crc64Checksum) Verify(data []byte, expected uint64) bool {
	return c.Calculate(data) == expected
}

func (c *crc64Checksum) Size() uint8 {
	return crc64.Size
}

func (c *crc64Checksum) Name() string {
	return c.name
}
