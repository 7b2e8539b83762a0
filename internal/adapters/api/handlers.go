package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pramitgaha21/upload-file/internal/core/domain"
	"github.com/pramitgaha21/upload-file/internal/core/services/store"
	"github.com/pramitgaha21/upload-file/pkg/checksum"
	apperrors "github.com/pramitgaha21/upload-file/pkg/errors"
)

// UploadChunkRequest is the request body for uploading a chunk. Content is
// base64 in JSON.
type UploadChunkRequest struct {
	Order   uint32 `json:"order"`
	Content []byte `json:"content"`
}

type UploadChunkResponse struct {
	ChunkId uint64 `json:"chunk_id"`
}

// CheckChunksRequest is the request body for validating chunk ids.
type CheckChunksRequest struct {
	Ids []uint64 `json:"ids"`
}

type CheckChunksResponse struct {
	Valid   bool     `json:"valid"`
	Missing []uint64 `json:"missing"`
}

// CommitBatchRequest is the request body for committing chunks into an
// asset. Checksum may be sent as a signed 32-bit value.
type CommitBatchRequest struct {
	ChunkIds []uint64 `json:"chunk_ids"`
	Checksum int64    `json:"checksum"`
	FileName string   `json:"file_name"`
	FileType string   `json:"file_type"`
}

type CommitBatchResponse struct {
	AssetId uint64 `json:"asset_id"`
	URL     string `json:"url"`
}

// Health handles GET /health
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Stats handles GET /stats
func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Stats())
}

// UploadChunk handles POST /chunks
func (s *Server) UploadChunk(w http.ResponseWriter, r *http.Request) {
	var req UploadChunkRequest
	if !s.decode(w, r, &req) {
		return
	}

	id, err := s.store.UploadChunk(r.Context(), principal(r), domain.ChunkArgs{Order: req.Order, Content: req.Content})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, UploadChunkResponse{ChunkId: id})
}

// CheckChunks handles POST /chunks/check
func (s *Server) CheckChunks(w http.ResponseWriter, r *http.Request) {
	var req CheckChunksRequest
	if !s.decode(w, r, &req) {
		return
	}

	missing := s.store.ChunkIdsCheck(req.Ids)
	writeJSON(w, http.StatusOK, CheckChunksResponse{Valid: len(missing) == 0, Missing: missing})
}

// DeleteExpiredChunks handles DELETE /chunks/expired
func (s *Server) DeleteExpiredChunks(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.store.DeleteExpiredChunks(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}

// CommitBatch handles POST /assets
func (s *Server) CommitBatch(w http.ResponseWriter, r *http.Request) {
	var req CommitBatchRequest
	if !s.decode(w, r, &req) {
		return
	}

	sum, err := checksum.Seed(req.Checksum)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	id, err := s.store.CommitBatch(r.Context(), principal(r), domain.CommitBatchArgs{
		ChunkIds: req.ChunkIds,
		Checksum: uint64(sum),
		FileName: req.FileName,
		FileType: req.FileType,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	info, _ := s.store.QueryAsset(id)
	writeJSON(w, http.StatusCreated, CommitBatchResponse{AssetId: id, URL: info.URL})
}

// ListAssets handles GET /assets
// Supports query param ?owner= to list one owner's assets.
func (s *Server) ListAssets(w http.ResponseWriter, r *http.Request) {
	var assets map[uint64]domain.AssetInfo
	if owner, ok := r.URL.Query()["owner"]; ok {
		assets = s.store.AssetsOf(owner[0])
	} else {
		assets = s.store.AssetList()
	}

	list := make([]domain.AssetInfo, 0, len(assets))
	for _, info := range assets {
		list = append(list, info)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].AssetId < list[j].AssetId })

	writeJSON(w, http.StatusOK, map[string]any{"assets": list, "count": len(list)})
}

// GetAsset handles GET /assets/{id}
func (s *Server) GetAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUint(w, r, "id")
	if !ok {
		return
	}

	info, found := s.store.QueryAsset(id)
	if !found {
		s.writeError(w, r, notFound(id))
		return
	}

	writeJSON(w, http.StatusOK, info)
}

// DeleteAsset handles DELETE /assets/{id}
func (s *Server) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUint(w, r, "id")
	if !ok {
		return
	}

	if err := s.store.DeleteAsset(r.Context(), principal(r), id); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// StreamAsset handles GET /asset/{id}
// The whole asset is written chunk by chunk, flushing after each one.
func (s *Server) StreamAsset(w http.ResponseWriter, r *http.Request) {
	id, err := store.AssetIDFromURL(r.URL.Path)
	if err != nil {
		s.writeError(w, r, apperrors.NewValidationError("id", r.URL.Path, err))
		return
	}

	info, found := s.store.QueryAsset(id)
	if !found {
		s.writeError(w, r, notFound(id))
		return
	}

	setAssetHeaders(w, info)
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))

	flusher, _ := w.(http.Flusher)
	started := false

	err = s.store.ReadAsset(r.Context(), id, func(index, total int, chunk []byte) error {
		if !started {
			w.WriteHeader(http.StatusOK)
			started = true
		}
		if _, err := w.Write(chunk); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	})
	if err == nil {
		if !started {
			w.WriteHeader(http.StatusOK)
		}
		return
	}

	if !started {
		w.Header().Del("Content-Length")
		w.Header().Del("Content-Disposition")
		s.writeError(w, r, err)
		return
	}
	s.log.Errorw("asset stream aborted", "assetId", id, "error", err)
}

// GetAssetChunk handles GET /asset/{id}/chunks/{index}
// X-Next-Chunk names the following index while more chunks remain.
func (s *Server) GetAssetChunk(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUint(w, r, "id")
	if !ok {
		return
	}

	index, ok := s.pathUint(w, r, "index")
	if !ok {
		return
	}

	info, found := s.store.QueryAsset(id)
	if !found {
		s.writeError(w, r, notFound(id))
		return
	}

	chunk, total, err := s.store.AssetChunk(r.Context(), id, int(index))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	setAssetHeaders(w, info)
	w.Header().Set("Content-Length", strconv.Itoa(len(chunk)))
	w.Header().Set("X-Chunk-Count", strconv.Itoa(total))
	if next := int(index) + 1; next < total {
		w.Header().Set("X-Next-Chunk", strconv.Itoa(next))
	}

	w.WriteHeader(http.StatusOK)
	w.Write(chunk)
}

func setAssetHeaders(w http.ResponseWriter, info domain.AssetInfo) {
	contentType := info.FileType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Accept-Ranges", "bytes")
	h.Set("Cache-Control", "private, max-age=0")
	h.Set("Last-Modified", info.UploadedAt.UTC().Format(http.TimeFormat))
	if info.FileName != "" {
		h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": info.FileName}))
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, r, apperrors.NewValidationError("body", nil, err))
		return false
	}
	return true
}

func (s *Server) pathUint(w http.ResponseWriter, r *http.Request, name string) (uint64, bool) {
	raw := chi.URLParam(r, name)
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		s.writeError(w, r, apperrors.NewValidationError(name, raw, errors.New("must be a non-negative integer")))
		return 0, false
	}
	return v, true
}

func notFound(id uint64) error {
	return apperrors.New(apperrors.ErrorNotFound, "query asset", fmt.Errorf("asset %d not found", id))
}
