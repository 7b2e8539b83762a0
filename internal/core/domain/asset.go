package domain

import "time"

// Asset is a committed file made of ordered chunk payloads.
type Asset struct {
	AssetId    uint64
	FileName   string
	FileType   string
	Chunks     [][]byte
	Checksums  []uint64
	URL        string
	OwnedBy    string
	UploadedAt time.Time
}

// AssetInfo is the metadata view of an asset returned by queries.
// It never carries the payload.
type AssetInfo struct {
	AssetId    uint64    `json:"asset_id"`
	FileName   string    `json:"file_name"`
	FileType   string    `json:"file_type"`
	URL        string    `json:"url"`
	OwnedBy    string    `json:"owned_by"`
	UploadedAt time.Time `json:"uploaded_at"`
	ChunkCount int       `json:"chunk_count"`
	Size       int64     `json:"size"`
}

// CommitBatchArgs asks the store to turn uploaded chunks into an asset.
// Checksum must equal the sum of the chunks' checksums modulo
// CommitChecksumModulus.
type CommitBatchArgs struct {
	ChunkIds []uint64
	Checksum uint64
	FileName string
	FileType string
}

// CommitChecksumModulus bounds the aggregate checksum of a commit.
const CommitChecksumModulus = 400_000_000
