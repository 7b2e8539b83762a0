package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pramitgaha21/upload-file/internal/core/domain"
	"github.com/pramitgaha21/upload-file/internal/core/services/store"
	"github.com/pramitgaha21/upload-file/pkg/checksum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()

	s, err := store.New(&domain.StoreOptions{
		MaxChunkSize: 1024,
		MaxStorage:   1024 * 1024,
		PublicURL:    "http://files.test",
	}, nil)
	require.NoError(t, err)

	ts := httptest.NewServer(New(s, nil).Routes())
	t.Cleanup(func() {
		ts.Close()
		_ = s.Close(context.Background())
	})

	return ts, s
}

func do(t *testing.T, ts *httptest.Server, method, path, owner string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	if owner != "" {
		req.Header.Set(PrincipalHeader, owner)
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func uploadParts(t *testing.T, ts *httptest.Server, owner string, parts ...[]byte) ([]uint64, int64) {
	t.Helper()

	ids := make([]uint64, 0, len(parts))
	var sum uint64
	for i, part := range parts {
		resp := do(t, ts, http.MethodPost, "/chunks", owner, UploadChunkRequest{Order: uint32(i), Content: part})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var out UploadChunkResponse
		decodeBody(t, resp, &out)
		ids = append(ids, out.ChunkId)

		sum = (sum + uint64(checksum.UpdateChecksum(part, 0))) % domain.CommitChecksumModulus
	}
	return ids, int64(sum)
}

func TestHealthCheck(t *testing.T) {
	ts, _ := setupTestServer(t)

	resp := do(t, ts, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	var out map[string]string
	decodeBody(t, resp, &out)
	assert.Equal(t, "ok", out["status"])
}

func TestRequestIDIsEchoed(t *testing.T) {
	ts, _ := setupTestServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "trace-me")

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "trace-me", resp.Header.Get(RequestIDHeader))
}

func TestUploadCommitAndStream(t *testing.T) {
	ts, _ := setupTestServer(t)

	parts := [][]byte{[]byte("hello, "), bytes.Repeat([]byte("w"), 900), []byte("!")}
	ids, sum := uploadParts(t, ts, "alice", parts...)

	resp := do(t, ts, http.MethodPost, "/chunks/check", "", CheckChunksRequest{Ids: append(ids, 77)})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var check CheckChunksResponse
	decodeBody(t, resp, &check)
	assert.False(t, check.Valid)
	assert.Equal(t, []uint64{77}, check.Missing)

	resp = do(t, ts, http.MethodPost, "/assets", "alice", CommitBatchRequest{
		ChunkIds: ids,
		Checksum: sum,
		FileName: "greeting.txt",
		FileType: "text/plain",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var commit CommitBatchResponse
	decodeBody(t, resp, &commit)
	assert.Equal(t, "http://files.test/asset/0", commit.URL)

	resp = do(t, ts, http.MethodGet, "/asset/0", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/plain", resp.Header.Get("Content-Type"))
	assert.Equal(t, "bytes", resp.Header.Get("Accept-Ranges"))
	assert.Equal(t, "private, max-age=0", resp.Header.Get("Cache-Control"))
	assert.Equal(t, "attachment; filename=greeting.txt", resp.Header.Get("Content-Disposition"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, bytes.Join(parts, nil), body)

	resp = do(t, ts, http.MethodGet, "/asset/0/chunks/1", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "2", resp.Header.Get("X-Next-Chunk"))
	assert.Equal(t, "3", resp.Header.Get("X-Chunk-Count"))
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, parts[1], body)

	resp = do(t, ts, http.MethodGet, "/asset/0/chunks/2", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("X-Next-Chunk"))

	resp = do(t, ts, http.MethodGet, "/asset/0/chunks/3", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCommitAcceptsSignedChecksum(t *testing.T) {
	ts, _ := setupTestServer(t)

	ids, sum := uploadParts(t, ts, "alice", []byte("abc"))
	require.Equal(t, int64(891568578%domain.CommitChecksumModulus), sum)

	// -1 is read as 0xFFFFFFFF, a well-formed but wrong checksum.
	resp := do(t, ts, http.MethodPost, "/assets", "alice", CommitBatchRequest{ChunkIds: ids, Checksum: -1})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = do(t, ts, http.MethodPost, "/assets", "alice", CommitBatchRequest{ChunkIds: ids, Checksum: 1 << 40})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var out errorResponse
	decodeBody(t, resp, &out)
	assert.Equal(t, "checksum", out.Field)

	resp = do(t, ts, http.MethodPost, "/assets", "alice", CommitBatchRequest{ChunkIds: ids, Checksum: sum})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestErrorStatuses(t *testing.T) {
	ts, _ := setupTestServer(t)

	ids, sum := uploadParts(t, ts, "alice", []byte("mine"))

	tests := []struct {
		name   string
		method string
		path   string
		owner  string
		body   any
		status int
	}{
		{name: "anonymous upload", method: http.MethodPost, path: "/chunks", body: UploadChunkRequest{Content: []byte("x")}, status: http.StatusUnauthorized},
		{name: "anonymous principal", method: http.MethodPost, path: "/chunks", owner: store.AnonymousPrincipal, body: UploadChunkRequest{Content: []byte("x")}, status: http.StatusUnauthorized},
		{name: "missing content", method: http.MethodPost, path: "/chunks", owner: "alice", body: map[string]int{"order": 1}, status: http.StatusBadRequest},
		{name: "oversized chunk", method: http.MethodPost, path: "/chunks", owner: "alice", body: UploadChunkRequest{Content: make([]byte, 2048)}, status: http.StatusBadRequest},
		{name: "foreign chunks", method: http.MethodPost, path: "/assets", owner: "bob", body: CommitBatchRequest{ChunkIds: ids, Checksum: sum}, status: http.StatusForbidden},
		{name: "unknown chunks", method: http.MethodPost, path: "/assets", owner: "alice", body: CommitBatchRequest{ChunkIds: []uint64{99}}, status: http.StatusNotFound},
		{name: "empty commit", method: http.MethodPost, path: "/assets", owner: "alice", body: CommitBatchRequest{}, status: http.StatusBadRequest},
		{name: "unknown asset", method: http.MethodGet, path: "/assets/5", status: http.StatusNotFound},
		{name: "bad asset id", method: http.MethodGet, path: "/assets/five", status: http.StatusBadRequest},
		{name: "stream unknown asset", method: http.MethodGet, path: "/asset/5", status: http.StatusNotFound},
		{name: "delete unknown asset", method: http.MethodDelete, path: "/assets/5", owner: "alice", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, ts, tt.method, tt.path, tt.owner, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		})
	}
}

func TestMalformedBody(t *testing.T) {
	ts, _ := setupTestServer(t)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/chunks", strings.NewReader("{invalid"))
	require.NoError(t, err)
	req.Header.Set(PrincipalHeader, "alice")

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListAndDeleteAssets(t *testing.T) {
	ts, _ := setupTestServer(t)

	for _, owner := range []string{"alice", "bob", "alice"} {
		ids, sum := uploadParts(t, ts, owner, []byte(owner))
		resp := do(t, ts, http.MethodPost, "/assets", owner, CommitBatchRequest{ChunkIds: ids, Checksum: sum, FileName: owner})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	type listing struct {
		Assets []domain.AssetInfo `json:"assets"`
		Count  int                `json:"count"`
	}

	var all listing
	decodeBody(t, do(t, ts, http.MethodGet, "/assets", "", nil), &all)
	assert.Equal(t, 3, all.Count)
	assert.Equal(t, uint64(0), all.Assets[0].AssetId)
	assert.Equal(t, uint64(2), all.Assets[2].AssetId)

	var mine listing
	decodeBody(t, do(t, ts, http.MethodGet, "/assets?owner=alice", "", nil), &mine)
	require.Equal(t, 2, mine.Count)
	assert.Equal(t, "alice", mine.Assets[0].OwnedBy)

	var info domain.AssetInfo
	decodeBody(t, do(t, ts, http.MethodGet, "/assets/1", "", nil), &info)
	assert.Equal(t, "bob", info.FileName)
	assert.Equal(t, 1, info.ChunkCount)
	assert.Equal(t, int64(3), info.Size)

	resp := do(t, ts, http.MethodDelete, "/assets/1", "alice", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = do(t, ts, http.MethodDelete, "/assets/1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, ts, http.MethodDelete, "/assets/1", "bob", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, ts, http.MethodGet, "/assets/1", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestClosedStoreReturnsUnavailable(t *testing.T) {
	ts, s := setupTestServer(t)

	ids, sum := uploadParts(t, ts, "alice", []byte("kept"), []byte("around"))
	resp := do(t, ts, http.MethodPost, "/assets", "alice", CommitBatchRequest{ChunkIds: ids, Checksum: sum})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	require.NoError(t, s.Close(context.Background()))

	tests := []struct {
		name   string
		method string
		path   string
		owner  string
		status int
	}{
		{name: "chunk download", method: http.MethodGet, path: "/asset/0/chunks/0", status: http.StatusServiceUnavailable},
		{name: "stream", method: http.MethodGet, path: "/asset/0", status: http.StatusServiceUnavailable},
		{name: "delete", method: http.MethodDelete, path: "/assets/0", owner: "alice", status: http.StatusServiceUnavailable},
		{name: "metadata", method: http.MethodGet, path: "/assets/0", status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, ts, tt.method, tt.path, tt.owner, nil)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}

	_, found := s.QueryAsset(0)
	assert.True(t, found)
}

func TestDeleteExpiredAndStats(t *testing.T) {
	base := time.Unix(1700000000, 0)
	var elapsed atomic.Int64
	s, err := store.New(&domain.StoreOptions{
		MaxChunkSize: 1024,
		MaxStorage:   1024 * 1024,
		ChunkExpiry:  time.Minute,
		Now:          func() time.Time { return base.Add(time.Duration(elapsed.Load())) },
	}, nil)
	require.NoError(t, err)
	defer s.Close(context.Background())

	_, err = s.UploadChunk(context.Background(), "alice", domain.ChunkArgs{Content: []byte("stale")})
	require.NoError(t, err)

	ts := httptest.NewServer(New(s, nil).Routes())
	defer ts.Close()

	var stats store.Stats
	decodeBody(t, do(t, ts, http.MethodGet, "/stats", "", nil), &stats)
	assert.Equal(t, 1, stats.Chunks)
	assert.Equal(t, uint64(1024*1024), stats.MaxStorage)

	elapsed.Store(int64(2 * time.Minute))

	var out map[string]int
	decodeBody(t, do(t, ts, http.MethodDelete, "/chunks/expired", "", nil), &out)
	assert.Equal(t, 1, out["deleted"])

	decodeBody(t, do(t, ts, http.MethodGet, "/stats", "", nil), &stats)
	assert.Equal(t, 0, stats.Chunks)
	assert.Equal(t, uint64(0), stats.UsedStorage)
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, statusOf(store.ErrStoreClosed))
	assert.Equal(t, http.StatusServiceUnavailable, statusOf(context.Canceled))
	assert.Equal(t, http.StatusInternalServerError, statusOf(io.ErrUnexpectedEOF))
}
