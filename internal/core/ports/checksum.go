package ports

// Defines an interface for calculating and verifying data checksums.
type ChecksumPort interface {
	// Calculates the checksum of data starting from a zero accumulator.
	Calculate(data []byte) uint64

	// Folds data into a previously calculated checksum. Update(Calculate(a), b)
	// equals Calculate of a followed by b.
	Update(prev uint64, data []byte) uint64

	// Validates whether the provided data matches the expected checksum.
	Verify(data []byte, expected uint64) bool

	// Size of the checksum in bytes.
	Size() uint8

	// Name of the algorithm.
	Name() string
}
