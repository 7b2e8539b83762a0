// Package codec encodes store records in the protobuf wire format.
// Records are written field by field with protowire; there is no generated
// message type, the field numbers below are the schema.
package codec

import (
	"bytes"
	"fmt"
	"time"

	"github.com/pramitgaha21/upload-file/internal/core/domain"
	"github.com/pramitgaha21/upload-file/pkg/errors"
	"github.com/pramitgaha21/upload-file/pkg/pool"
	"google.golang.org/protobuf/encoding/protowire"
)

// Chunk fields.
const (
	chunkIdField    protowire.Number = 1
	chunkOrderField protowire.Number = 2
	chunkContent    protowire.Number = 3
	chunkChecksum   protowire.Number = 4
	chunkOwner      protowire.Number = 5
	chunkUploadedAt protowire.Number = 6
)

// Asset fields.
const (
	assetIdField    protowire.Number = 1
	assetFileName   protowire.Number = 2
	assetFileType   protowire.Number = 3
	assetChunk      protowire.Number = 4
	assetChecksum   protowire.Number = 5
	assetURL        protowire.Number = 6
	assetOwner      protowire.Number = 7
	assetUploadedAt protowire.Number = 8
)

// Room for everything but the payload in a pooled scratch buffer.
const recordOverhead = 256

// Codec implements the record encoding used by the store.
// It is safe for concurrent use.
type Codec struct {
	scratch *pool.ScratchPool
}

// New returns a codec whose scratch buffers fit chunks of up to
// maxPayload bytes without growing.
func New(maxPayload int) *Codec {
	return &Codec{scratch: pool.NewScratchPool(maxPayload + recordOverhead)}
}

func (c *Codec) EncodeChunk(chunk *domain.Chunk) ([]byte, error) {
	if chunk == nil {
		return nil, errors.New(errors.ErrorCodec, "encode chunk", fmt.Errorf("chunk is nil"))
	}

	scratch := c.scratch.Get(len(chunk.Content) + len(chunk.OwnedBy) + recordOverhead)
	defer c.scratch.Put(scratch)

	b := appendVarint(*scratch, chunkIdField, chunk.ChunkId)
	b = appendVarint(b, chunkOrderField, uint64(chunk.Order))
	b = appendBytes(b, chunkContent, chunk.Content)
	b = appendVarint(b, chunkChecksum, chunk.Checksum)
	b = appendBytes(b, chunkOwner, []byte(chunk.OwnedBy))
	b = appendVarint(b, chunkUploadedAt, uint64(chunk.UploadedAt.UnixNano()))
	*scratch = b

	return bytes.Clone(b), nil
}

func (c *Codec) DecodeChunk(data []byte) (*domain.Chunk, error) {
	chunk := domain.Chunk{Content: []byte{}}

	err := walk(data, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch {
		case num == chunkIdField && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			chunk.ChunkId = v
			return n
		case num == chunkOrderField && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			chunk.Order = uint32(v)
			return n
		case num == chunkContent && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			chunk.Content = bytes.Clone(v)
			if chunk.Content == nil {
				chunk.Content = []byte{}
			}
			return n
		case num == chunkChecksum && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			chunk.Checksum = v
			return n
		case num == chunkOwner && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			chunk.OwnedBy = string(v)
			return n
		case num == chunkUploadedAt && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			chunk.UploadedAt = time.Unix(0, int64(v))
			return n
		}
		return protowire.ConsumeFieldValue(num, typ, b)
	})
	if err != nil {
		return nil, errors.New(errors.ErrorCodec, "decode chunk", err)
	}

	return &chunk, nil
}

func (c *Codec) EncodeAsset(asset *domain.Asset) ([]byte, error) {
	if asset == nil {
		return nil, errors.New(errors.ErrorCodec, "encode asset", fmt.Errorf("asset is nil"))
	}
	if len(asset.Checksums) != len(asset.Chunks) {
		return nil, errors.New(
			errors.ErrorCodec,
			"encode asset",
			fmt.Errorf("asset has %d chunks but %d checksums", len(asset.Chunks), len(asset.Checksums)),
		)
	}

	var b []byte
	b = appendVarint(b, assetIdField, asset.AssetId)
	b = appendBytes(b, assetFileName, []byte(asset.FileName))
	b = appendBytes(b, assetFileType, []byte(asset.FileType))
	for i, chunk := range asset.Chunks {
		b = appendBytes(b, assetChunk, chunk)
		b = appendVarint(b, assetChecksum, asset.Checksums[i])
	}
	b = appendBytes(b, assetURL, []byte(asset.URL))
	b = appendBytes(b, assetOwner, []byte(asset.OwnedBy))
	b = appendVarint(b, assetUploadedAt, uint64(asset.UploadedAt.UnixNano()))

	return b, nil
}

func (c *Codec) DecodeAsset(data []byte) (*domain.Asset, error) {
	var asset domain.Asset

	err := walk(data, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch {
		case num == assetIdField && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			asset.AssetId = v
			return n
		case num == assetFileName && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			asset.FileName = string(v)
			return n
		case num == assetFileType && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			asset.FileType = string(v)
			return n
		case num == assetChunk && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n >= 0 {
				chunk := bytes.Clone(v)
				if chunk == nil {
					chunk = []byte{}
				}
				asset.Chunks = append(asset.Chunks, chunk)
			}
			return n
		case num == assetChecksum && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n >= 0 {
				asset.Checksums = append(asset.Checksums, v)
			}
			return n
		case num == assetURL && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			asset.URL = string(v)
			return n
		case num == assetOwner && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			asset.OwnedBy = string(v)
			return n
		case num == assetUploadedAt && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			asset.UploadedAt = time.Unix(0, int64(v))
			return n
		}
		return protowire.ConsumeFieldValue(num, typ, b)
	})
	if err != nil {
		return nil, errors.New(errors.ErrorCodec, "decode asset", err)
	}

	if len(asset.Checksums) != len(asset.Chunks) {
		return nil, errors.New(
			errors.ErrorCodec,
			"decode asset",
			fmt.Errorf("asset has %d chunks but %d checksums", len(asset.Chunks), len(asset.Checksums)),
		)
	}

	return &asset, nil
}

// AssetChunk returns payload index of an encoded asset and its checksum.
// Other payloads are skipped, not copied.
func (c *Codec) AssetChunk(data []byte, index int) ([]byte, uint64, error) {
	var (
		payload      []byte
		sum          uint64
		chunks, sums int
		found        bool
		foundSum     bool
	)

	err := walk(data, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch {
		case num == assetChunk && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n >= 0 && chunks == index {
				payload = bytes.Clone(v)
				if payload == nil {
					payload = []byte{}
				}
				found = true
			}
			chunks++
			return n
		case num == assetChecksum && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n >= 0 && sums == index {
				sum = v
				foundSum = true
			}
			sums++
			return n
		}
		return protowire.ConsumeFieldValue(num, typ, b)
	})
	if err != nil {
		return nil, 0, errors.New(errors.ErrorCodec, "read asset chunk", err)
	}

	if !found || !foundSum {
		return nil, 0, errors.New(
			errors.ErrorCodec,
			"read asset chunk",
			fmt.Errorf("record has %d chunks and %d checksums, want index %d", chunks, sums, index),
		)
	}

	return payload, sum, nil
}

// walk calls field for every field in data. field consumes the value and
// returns how many bytes it used, negative on malformed input.
func walk(data []byte, field func(protowire.Number, protowire.Type, []byte) int) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]

		m := field(num, typ, data)
		if m < 0 {
			return fmt.Errorf("field %d: %w", num, protowire.ParseError(m))
		}
		data = data[m:]
	}
	return nil
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}
