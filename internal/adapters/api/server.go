// Package api exposes the chunk and asset store over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pramitgaha21/upload-file/internal/core/domain"
	"github.com/pramitgaha21/upload-file/internal/core/services/store"
	"go.uber.org/zap"
)

// PrincipalHeader carries the caller identity. A missing header is the
// anonymous caller.
const PrincipalHeader = "X-Principal"

// AssetStore is the part of the store the handlers use.
type AssetStore interface {
	UploadChunk(ctx context.Context, owner string, args domain.ChunkArgs) (uint64, error)
	CommitBatch(ctx context.Context, owner string, args domain.CommitBatchArgs) (uint64, error)
	DeleteAsset(ctx context.Context, owner string, assetId uint64) error
	QueryAsset(assetId uint64) (domain.AssetInfo, bool)
	AssetsOf(owner string) map[uint64]domain.AssetInfo
	AssetList() map[uint64]domain.AssetInfo
	AssetChunk(ctx context.Context, assetId uint64, index int) ([]byte, int, error)
	ReadAsset(ctx context.Context, assetId uint64, fn func(index, total int, chunk []byte) error) error
	DeleteExpiredChunks(ctx context.Context) (int, error)
	ChunkIdsCheck(ids []uint64) []uint64
	Stats() store.Stats
}

// Server holds the HTTP handler dependencies.
type Server struct {
	store AssetStore
	log   *zap.SugaredLogger
}

// New creates a new API server.
func New(store AssetStore, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Server{store: store, log: log}
}

// Routes returns the router serving every endpoint.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/health", s.Health)
	r.Get("/stats", s.Stats)

	r.Route("/chunks", func(r chi.Router) {
		r.Post("/", s.UploadChunk)
		r.Post("/check", s.CheckChunks)
		r.Delete("/expired", s.DeleteExpiredChunks)
	})

	r.Route("/assets", func(r chi.Router) {
		r.Post("/", s.CommitBatch)
		r.Get("/", s.ListAssets)
		r.Get("/{id}", s.GetAsset)
		r.Delete("/{id}", s.DeleteAsset)
	})

	r.Get("/asset/{id}", s.StreamAsset)
	r.Get("/asset/{id}/chunks/{index}", s.GetAssetChunk)

	return r
}

func principal(r *http.Request) string {
	return r.Header.Get(PrincipalHeader)
}
