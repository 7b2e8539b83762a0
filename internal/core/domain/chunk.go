package domain

import "time"

// Chunk is one uploaded piece of a file that has not been committed into an
// asset yet.
type Chunk struct {
	// ChunkId is assigned by the store, starting at 0.
	ChunkId uint64

	// Order is the position of the chunk inside the file being uploaded.
	// Chunks are committed in ascending Order regardless of upload order.
	Order uint32

	// Content is the raw chunk payload.
	Content []byte

	// Checksum of Content, computed with the store's checksum algorithm.
	Checksum uint64

	// OwnedBy is the principal that uploaded the chunk.
	OwnedBy string

	// UploadedAt is used to expire chunks that are never committed.
	UploadedAt time.Time
}

// ChunkArgs carries the caller supplied part of a chunk upload.
// A nil Content is rejected; an empty, non-nil Content is a valid chunk.
type ChunkArgs struct {
	Order   uint32
	Content []byte
}
