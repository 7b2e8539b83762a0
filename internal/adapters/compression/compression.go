package compression

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/pramitgaha21/upload-file/internal/core/domain"
	"github.com/pramitgaha21/upload-file/internal/core/ports"
)

// Every stored payload starts with one of these markers.
const (
	flagRaw  byte = 0
	flagZstd byte = 1
)

var (
	// ErrEmptyPayload is returned when decompressing data without a marker byte.
	ErrEmptyPayload = errors.New("payload is empty")

	// ErrClosed is returned by a compressor used after Close.
	ErrClosed = errors.New("compressor is closed")
)

// Returns CompressionOptions struct initialized with
// recommended default values that provide a good balance between compression ratio
// and performance for most use cases.
func DefaultOptions() *domain.CompressionOptions {
	return &domain.CompressionOptions{
		Enable:             true,
		Level:              DefaultLevel,
		EncoderConcurrency: uint8(runtime.NumCPU()),
		DecoderConcurrency: uint8(runtime.NumCPU()),
	}
}

// Checks if the compression options are valid and returns an error if any option
// is outside acceptable bounds.
func Validate(input *domain.CompressionOptions) error {
	if input.Level < FastestLevel || input.Level > BestLevel {
		return fmt.Errorf("compression level must be between %d and %d, got %d", FastestLevel, BestLevel, input.Level)
	}

	if input.EncoderConcurrency > uint8(runtime.NumCPU()) {
		return fmt.Errorf(
			"encoder concurrency must be between 0 and %d, got %d", runtime.NumCPU(), input.EncoderConcurrency,
		)
	}

	if input.DecoderConcurrency > uint8(runtime.NumCPU()) {
		return fmt.Errorf(
			"decoder concurrency must be between 0 and %d, got %d", runtime.NumCPU(), input.DecoderConcurrency,
		)
	}

	return nil
}

// New returns the compressor described by opts. Disabled compression
// yields a pass-through implementation that still writes the marker byte.
func New(opts *domain.CompressionOptions) (ports.CompressionPort, error) {
	if opts == nil || !opts.Enable {
		return NewNone(), nil
	}

	return NewZstdCompression(Options{
		Level:              opts.Level,
		EncoderConcurrency: opts.EncoderConcurrency,
		DecoderConcurrency: opts.DecoderConcurrency,
	})
}

type none struct{}

// NewNone returns a compressor that stores payloads unchanged.
func NewNone() *none {
	return &none{}
}

func (n *none) Compress(data []byte) ([]byte, error) {
	return frame(flagRaw, data), nil
}

func (n *none) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}
	if data[0] != flagRaw {
		return nil, fmt.Errorf("payload is compressed (marker %d) but compression is disabled", data[0])
	}
	return data[1:], nil
}

func (n *none) Close() error { return nil }

func (n *none) Level() uint8 { return 0 }

func frame(flag byte, payload []byte) []byte {
	out := make([]byte, 0, len(payload)+1)
	out = append(out, flag)
	return append(out, payload...)
}
