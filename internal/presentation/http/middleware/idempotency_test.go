package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/quickbill-api/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryIdempotencyRepo keeps records in a map guarded by a mutex, matching the unique (key, user_id) index
type memoryIdempotencyRepo struct {
	mu      sync.Mutex
	records map[string]entity.IdempotencyKey
}

func newMemoryIdempotencyRepo() *memoryIdempotencyRepo {
	return &memoryIdempotencyRepo{records: map[string]entity.IdempotencyKey{}}
}

func recordID(key string, userID uuid.UUID) string {
	return userID.String() + "/" + key
}

func (r *memoryIdempotencyRepo) GetLive(_ context.Context, key string, userID uuid.UUID, now time.Time) (*entity.IdempotencyKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[recordID(key, userID)]
	if !ok || !rec.ExpiresAt.After(now) {
		return nil, nil
	}
	return &rec, nil
}

func (r *memoryIdempotencyRepo) Reserve(_ context.Context, ikey *entity.IdempotencyKey, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := recordID(ikey.Key, ikey.UserID)
	if rec, ok := r.records[id]; ok && rec.ExpiresAt.After(now) {
		return false, nil
	}
	r.records[id] = *ikey
	return true, nil
}

func (r *memoryIdempotencyRepo) Release(_ context.Context, key string, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := recordID(key, userID)
	if rec, ok := r.records[id]; ok && rec.Pending() {
		delete(r.records, id)
	}
	return nil
}

func (r *memoryIdempotencyRepo) Save(_ context.Context, ikey *entity.IdempotencyKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[recordID(ikey.Key, ikey.UserID)] = *ikey
	return nil
}

func (r *memoryIdempotencyRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, rec := range r.records {
		if !rec.ExpiresAt.After(now) {
			delete(r.records, id)
			n++
		}
	}
	return n, nil
}

func idempotentRouter(repo *memoryIdempotencyRepo, userID uuid.UUID, handler gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.POST("/invoices/:id/send", func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	}, Idempotency(IdempotencyConfig{Repo: repo}), handler)
	return router
}

func postWithKey(router *gin.Engine, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/invoices/1/send", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(IdempotencyKeyHeader, key)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestIdempotency_ConcurrentDuplicateIsRejected(t *testing.T) {
	repo := newMemoryIdempotencyRepo()
	entered := make(chan struct{})
	proceed := make(chan struct{})
	var calls atomic.Int32

	router := idempotentRouter(repo, uuid.New(), func(c *gin.Context) {
		if calls.Add(1) == 1 {
			close(entered)
			<-proceed
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() { first <- postWithKey(router, "send-1", `{}`) }()
	<-entered

	dup := postWithKey(router, "send-1", `{}`)
	assert.Equal(t, http.StatusConflict, dup.Code)
	assert.Contains(t, dup.Body.String(), "still in progress")

	close(proceed)
	rec := <-first
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Idempotency-Replayed"))

	replay := postWithKey(router, "send-1", `{}`)
	assert.Equal(t, http.StatusOK, replay.Code)
	assert.Equal(t, "true", replay.Header().Get("X-Idempotency-Replayed"))
	assert.JSONEq(t, rec.Body.String(), replay.Body.String())

	assert.Equal(t, int32(1), calls.Load(), "the handler ran once")
}

func TestIdempotency_ServerErrorReleasesKey(t *testing.T) {
	repo := newMemoryIdempotencyRepo()
	var calls atomic.Int32

	router := idempotentRouter(repo, uuid.New(), func(c *gin.Context) {
		if calls.Add(1) == 1 {
			c.JSON(http.StatusBadGateway, gin.H{"success": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	assert.Equal(t, http.StatusBadGateway, postWithKey(router, "send-2", `{}`).Code)

	retry := postWithKey(router, "send-2", `{}`)
	assert.Equal(t, http.StatusOK, retry.Code)
	assert.Empty(t, retry.Header().Get("X-Idempotency-Replayed"))
	assert.Equal(t, int32(2), calls.Load())
}

func TestIdempotency_DifferentBodyConflicts(t *testing.T) {
	repo := newMemoryIdempotencyRepo()
	router := idempotentRouter(repo, uuid.New(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	require.Equal(t, http.StatusOK, postWithKey(router, "send-3", `{"a":1}`).Code)

	rec := postWithKey(router, "send-3", `{"a":2}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "different request")
}
