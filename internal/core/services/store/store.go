package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pramitgaha21/upload-file/internal/adapters/checksum"
	"github.com/pramitgaha21/upload-file/internal/adapters/codec"
	"github.com/pramitgaha21/upload-file/internal/adapters/compression"
	"github.com/pramitgaha21/upload-file/internal/core/domain"
	"github.com/pramitgaha21/upload-file/internal/core/ports"
	apperrors "github.com/pramitgaha21/upload-file/pkg/errors"
	"github.com/pramitgaha21/upload-file/pkg/system"
	"go.uber.org/zap"
)

var (
	// ErrAnonymousCaller is returned when an anonymous principal tries to
	// upload, commit or delete.
	ErrAnonymousCaller = errors.New("anonymous caller")

	// ErrStoreClosed indicates an operation on a closed store.
	ErrStoreClosed = errors.New("store is closed")
)

// recordCodec turns chunk and asset records into bytes and back.
type recordCodec interface {
	EncodeChunk(chunk *domain.Chunk) ([]byte, error)
	DecodeChunk(data []byte) (*domain.Chunk, error)
	EncodeAsset(asset *domain.Asset) ([]byte, error)
	AssetChunk(data []byte, index int) ([]byte, uint64, error)
}

// chunkEntry keeps the fields needed for validation and expiry next to the
// encoded, compressed record.
type chunkEntry struct {
	order      uint32
	owner      string
	checksum   uint64
	uploadedAt time.Time
	data       []byte
}

// assetEntry keeps the query view next to the encoded record. The record's
// chunk payloads are individually compressed and read one at a time.
type assetEntry struct {
	info domain.AssetInfo
	data []byte
}

// Stats is a point-in-time summary of the store.
type Stats struct {
	Chunks      int    `json:"chunks"`
	Assets      int    `json:"assets"`
	UsedStorage uint64 `json:"used_storage"`
	MaxStorage  uint64 `json:"max_storage"`
}

// Store holds uploaded chunks until they are committed into assets, and the
// assets themselves. All methods are safe for concurrent use.
type Store struct {
	// Configuration options controlling limits, expiry and encoding.
	opts *domain.StoreOptions
	log  *zap.SugaredLogger

	// Interfaces for data integrity, compression and record encoding.
	checksum   ports.ChecksumPort
	compressor ports.CompressionPort
	codec      recordCodec

	// Record state, guarded by mu.
	mu          sync.RWMutex
	closed      bool
	nextChunkId uint64
	nextAssetId uint64
	usedStorage uint64
	chunks      map[uint64]*chunkEntry
	assets      map[uint64]*assetEntry

	// Background expiry sweep.
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// New validates opts, fills in defaults and starts the background sweep.
// A nil opts uses DefaultOptions.
func New(opts *domain.StoreOptions, log *zap.SugaredLogger) (*Store, error) {
	if opts == nil {
		opts = &domain.StoreOptions{}
	}
	opts = prepareDefaults(opts)

	if err := Validate(opts); err != nil {
		return nil, err
	}

	if log == nil {
		log = zap.NewNop().Sugar()
	}

	sum, err := checksum.New(opts.ChecksumOptions)
	if err != nil {
		return nil, err
	}

	compressor, err := compression.New(opts.CompressionOptions)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := Store{
		opts:       opts,
		log:        log,
		checksum:   sum,
		compressor: compressor,
		codec:      codec.New(int(opts.MaxChunkSize)),
		chunks:     make(map[uint64]*chunkEntry),
		assets:     make(map[uint64]*assetEntry),
		ctx:        ctx,
		cancel:     cancel,
	}

	if opts.SweepInterval > 0 {
		s.wg.Add(1)
		go s.sweepInBackground(opts.SweepInterval)
	}

	log.Infow(
		"store ready",
		"checksum", sum.Name(),
		"compressionLevel", compressor.Level(),
		"maxChunkSize", opts.MaxChunkSize,
		"maxStorage", opts.MaxStorage,
		"chunkExpiry", opts.ChunkExpiry,
	)

	return &s, nil
}

// Checksum returns the algorithm chunk checksums are computed with.
func (s *Store) Checksum() ports.ChecksumPort {
	return s.checksum
}

// UploadChunk stores one chunk for owner and returns its id.
//
// Returns an error if:
//   - owner is anonymous
//   - args.Content is nil or larger than MaxChunkSize
//   - the store has no room left for the encoded chunk
func (s *Store) UploadChunk(ctx context.Context, owner string, args domain.ChunkArgs) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if IsAnonymous(owner) {
		return 0, apperrors.New(apperrors.ErrorUnauthorized, "upload chunk", ErrAnonymousCaller)
	}

	if args.Content == nil {
		return 0, apperrors.NewValidationError("content", nil, errors.New("chunk content is required"))
	}

	if uint64(len(args.Content)) > s.opts.MaxChunkSize {
		return 0, apperrors.NewValidationError(
			"content",
			len(args.Content),
			fmt.Errorf("chunk of %d bytes exceeds the %d byte limit", len(args.Content), s.opts.MaxChunkSize),
		)
	}

	chunk := domain.Chunk{
		Order:      args.Order,
		Content:    args.Content,
		Checksum:   s.checksum.Calculate(args.Content),
		OwnedBy:    owner,
		UploadedAt: s.opts.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	chunk.ChunkId = s.nextChunkId
	data, err := s.encodeChunk(&chunk)
	if err != nil {
		return 0, err
	}

	if s.usedStorage+uint64(len(data)) > s.opts.MaxStorage {
		return 0, apperrors.New(
			apperrors.ErrorStorage,
			"upload chunk",
			fmt.Errorf("store is full: %d of %d bytes used", s.usedStorage, s.opts.MaxStorage),
		)
	}

	s.nextChunkId++
	s.usedStorage += uint64(len(data))
	s.chunks[chunk.ChunkId] = &chunkEntry{
		order:      chunk.Order,
		owner:      owner,
		checksum:   chunk.Checksum,
		uploadedAt: chunk.UploadedAt,
		data:       data,
	}

	s.log.Debugw(
		"chunk uploaded",
		"chunkId", chunk.ChunkId, "order", chunk.Order, "size", len(chunk.Content), "checksum", chunk.Checksum,
	)
	return chunk.ChunkId, nil
}

// CommitBatch moves owner's chunks into a new asset and returns its id.
// Chunks are ordered by their Order field, and args.Checksum must equal
// AggregateChecksum over their checksums. Nothing is modified when any
// check fails.
func (s *Store) CommitBatch(ctx context.Context, owner string, args domain.CommitBatchArgs) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if len(args.ChunkIds) == 0 {
		return 0, apperrors.NewValidationError("chunkIds", args.ChunkIds, errors.New("no chunk ids provided"))
	}

	if IsAnonymous(owner) {
		return 0, apperrors.New(apperrors.ErrorUnauthorized, "commit batch", ErrAnonymousCaller)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	type candidate struct {
		id    uint64
		entry *chunkEntry
	}

	seen := make(map[uint64]struct{}, len(args.ChunkIds))
	toCommit := make([]candidate, 0, len(args.ChunkIds))
	var notFound, notOwned []uint64

	for _, id := range args.ChunkIds {
		if _, dup := seen[id]; dup {
			return 0, apperrors.NewValidationError("chunkIds", id, fmt.Errorf("chunk %d listed more than once", id))
		}
		seen[id] = struct{}{}

		entry, ok := s.chunks[id]
		switch {
		case !ok:
			notFound = append(notFound, id)
		case entry.owner != owner:
			notOwned = append(notOwned, id)
		default:
			toCommit = append(toCommit, candidate{id: id, entry: entry})
		}
	}

	if len(notFound) > 0 {
		return 0, apperrors.New(apperrors.ErrorNotFound, "commit batch", fmt.Errorf("chunks not found: %v", notFound))
	}

	if len(notOwned) > 0 {
		return 0, apperrors.New(apperrors.ErrorUnauthorized, "commit batch", fmt.Errorf("chunks not owned: %v", notOwned))
	}

	sort.SliceStable(toCommit, func(i, j int) bool {
		if toCommit[i].entry.order != toCommit[j].entry.order {
			return toCommit[i].entry.order < toCommit[j].entry.order
		}
		return toCommit[i].id < toCommit[j].id
	})

	checksums := make([]uint64, len(toCommit))
	for i, c := range toCommit {
		checksums[i] = c.entry.checksum
	}

	if sum := AggregateChecksum(checksums...); sum != args.Checksum {
		return 0, apperrors.New(
			apperrors.ErrorChecksum, "commit batch", fmt.Errorf("checksum mismatch: %d != %d", args.Checksum, sum),
		)
	}

	asset := domain.Asset{
		AssetId:    s.nextAssetId,
		FileName:   args.FileName,
		FileType:   args.FileType,
		Chunks:     make([][]byte, len(toCommit)),
		Checksums:  checksums,
		URL:        AssetURL(s.opts.PublicURL, s.nextAssetId),
		OwnedBy:    owner,
		UploadedAt: s.opts.Now(),
	}

	var size int64
	var freed uint64
	for i, c := range toCommit {
		chunk, err := s.decodeChunk(c.entry.data)
		if err != nil {
			return 0, err
		}

		if !s.checksum.Verify(chunk.Content, c.entry.checksum) {
			return 0, apperrors.New(
				apperrors.ErrorChecksum, "commit batch", fmt.Errorf("chunk %d is corrupted", c.id),
			)
		}

		payload, err := s.compressor.Compress(chunk.Content)
		if err != nil {
			return 0, apperrors.New(apperrors.ErrorCompression, "commit batch", err)
		}

		asset.Chunks[i] = payload
		size += int64(len(chunk.Content))
		freed += uint64(len(c.entry.data))
	}

	data, err := s.codec.EncodeAsset(&asset)
	if err != nil {
		return 0, err
	}

	info := domain.AssetInfo{
		AssetId:    asset.AssetId,
		FileName:   asset.FileName,
		FileType:   asset.FileType,
		URL:        asset.URL,
		OwnedBy:    asset.OwnedBy,
		UploadedAt: asset.UploadedAt,
		ChunkCount: len(asset.Chunks),
		Size:       size,
	}

	for _, c := range toCommit {
		delete(s.chunks, c.id)
	}
	s.assets[asset.AssetId] = &assetEntry{info: info, data: data}
	s.nextAssetId++
	s.usedStorage = s.usedStorage - freed + uint64(len(data))

	s.log.Infow(
		"asset committed",
		"assetId", asset.AssetId, "owner", owner, "chunks", len(toCommit), "size", size, "checksum", args.Checksum,
	)
	return asset.AssetId, nil
}

// DeleteAsset removes an asset owned by owner.
func (s *Store) DeleteAsset(ctx context.Context, owner string, assetId uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if IsAnonymous(owner) {
		return apperrors.New(apperrors.ErrorUnauthorized, "delete asset", ErrAnonymousCaller)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	entry, ok := s.assets[assetId]
	if !ok {
		return apperrors.New(apperrors.ErrorNotFound, "delete asset", fmt.Errorf("invalid asset id %d", assetId))
	}

	if entry.info.OwnedBy != owner {
		return apperrors.New(apperrors.ErrorUnauthorized, "delete asset", fmt.Errorf("asset %d is not owned by caller", assetId))
	}

	delete(s.assets, assetId)
	s.usedStorage -= uint64(len(entry.data))

	s.log.Infow("asset deleted", "assetId", assetId, "owner", owner)
	return nil
}

// QueryAsset returns the metadata of an asset.
func (s *Store) QueryAsset(assetId uint64) (domain.AssetInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.assets[assetId]
	if !ok {
		return domain.AssetInfo{}, false
	}
	return entry.info, true
}

// AssetsOf returns the metadata of every asset owned by owner, keyed by id.
func (s *Store) AssetsOf(owner string) map[uint64]domain.AssetInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	assets := make(map[uint64]domain.AssetInfo)
	for id, entry := range s.assets {
		if entry.info.OwnedBy == owner {
			assets[id] = entry.info
		}
	}
	return assets
}

// AssetList returns the metadata of every asset, keyed by id.
func (s *Store) AssetList() map[uint64]domain.AssetInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	assets := make(map[uint64]domain.AssetInfo, len(s.assets))
	for id, entry := range s.assets {
		assets[id] = entry.info
	}
	return assets
}

// AssetChunk returns the content of chunk index of an asset together with
// the asset's chunk count.
func (s *Store) AssetChunk(ctx context.Context, assetId uint64, index int) ([]byte, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	entry, err := s.lookupAsset(assetId)
	if err != nil {
		return nil, 0, err
	}

	total := entry.info.ChunkCount
	if index < 0 || index >= total {
		return nil, total, apperrors.New(
			apperrors.ErrorNotFound, "read asset", fmt.Errorf("asset %d has no chunk %d", assetId, index),
		)
	}

	content, err := s.readChunk(entry, index)
	if err != nil {
		return nil, total, err
	}
	return content, total, nil
}

// ReadAsset calls fn with the content of each chunk of an asset, in order.
// fn receives the chunk index and the chunk count; returning an error stops
// the walk and is passed through.
func (s *Store) ReadAsset(ctx context.Context, assetId uint64, fn func(index, total int, chunk []byte) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entry, err := s.lookupAsset(assetId)
	if err != nil {
		return err
	}

	total := entry.info.ChunkCount
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		content, err := s.readChunk(entry, i)
		if err != nil {
			return err
		}

		if err := fn(i, total, content); err != nil {
			return err
		}
	}

	return nil
}

// lookupAsset returns the entry of an asset. Entries are never modified
// after a commit, so the result can be read without holding mu.
func (s *Store) lookupAsset(assetId uint64) (*assetEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	entry, ok := s.assets[assetId]
	if !ok {
		return nil, apperrors.New(apperrors.ErrorNotFound, "read asset", fmt.Errorf("asset %d not found", assetId))
	}
	return entry, nil
}

// readChunk decodes and decompresses chunk i of an asset and, when
// VerifyOnRead is set, checks it against its stored checksum.
func (s *Store) readChunk(entry *assetEntry, i int) ([]byte, error) {
	payload, sum, err := s.codec.AssetChunk(entry.data, i)
	if err != nil {
		return nil, err
	}

	content, err := s.compressor.Decompress(payload)
	if errors.Is(err, compression.ErrClosed) {
		return nil, ErrStoreClosed
	}
	if err != nil {
		return nil, apperrors.New(apperrors.ErrorCompression, "read asset", err)
	}

	assetId := entry.info.AssetId
	if s.opts.ChecksumOptions.VerifyOnRead && !s.checksum.Verify(content, sum) {
		s.log.Errorw("asset chunk failed verification", "assetId", assetId, "index", i)
		return nil, apperrors.New(
			apperrors.ErrorChecksum, "read asset", fmt.Errorf("chunk %d of asset %d is corrupted", i, assetId),
		)
	}

	return content, nil
}

// DeleteExpiredChunks removes chunks that waited longer than ChunkExpiry
// for a commit and returns how many were removed.
func (s *Store) DeleteExpiredChunks(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	now := s.opts.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int
	for id, entry := range s.chunks {
		if now.Sub(entry.uploadedAt) > s.opts.ChunkExpiry {
			delete(s.chunks, id)
			s.usedStorage -= uint64(len(entry.data))
			deleted++
		}
	}

	if deleted > 0 {
		s.log.Infow("expired chunks deleted", "count", deleted, "usedStorage", s.usedStorage)
	}
	return deleted, nil
}

// ChunkIdsCheck returns the ids that do not refer to a stored chunk.
// An empty result means every id is valid.
func (s *Store) ChunkIdsCheck(ids []uint64) []uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	invalid := []uint64{}
	for _, id := range ids {
		if _, ok := s.chunks[id]; !ok {
			invalid = append(invalid, id)
		}
	}
	return invalid
}

// UsedStorage returns the bytes held by encoded chunks and assets.
func (s *Store) UsedStorage() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usedStorage
}

// IsFull reports whether the store has reached MaxStorage.
func (s *Store) IsFull() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usedStorage >= s.opts.MaxStorage
}

// Stats returns counts and storage usage.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Stats{
		Chunks:      len(s.chunks),
		Assets:      len(s.assets),
		UsedStorage: s.usedStorage,
		MaxStorage:  s.opts.MaxStorage,
	}
}

// Close stops the background sweep and releases the compressor. Uploads,
// commits, deletes and asset reads fail with ErrStoreClosed afterwards;
// metadata queries keep working.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	return system.RunWithContext(ctx, func(context.Context) error {
		s.wg.Wait()
		return s.compressor.Close()
	})
}

func (s *Store) sweepInBackground(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.DeleteExpiredChunks(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.log.Warnw("expiry sweep failed", "error", err)
			}
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Store) encodeChunk(chunk *domain.Chunk) ([]byte, error) {
	record, err := s.codec.EncodeChunk(chunk)
	if err != nil {
		return nil, err
	}

	data, err := s.compressor.Compress(record)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrorCompression, "encode chunk", err)
	}
	return data, nil
}

func (s *Store) decodeChunk(data []byte) (*domain.Chunk, error) {
	record, err := s.compressor.Decompress(data)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrorCompression, "decode chunk", err)
	}
	return s.codec.DecodeChunk(record)
}
