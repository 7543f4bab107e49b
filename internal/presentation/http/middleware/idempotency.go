package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/quickbill-api/internal/domain/entity"
	"github.com/sangkips/quickbill-api/internal/domain/repository"
	"github.com/sangkips/quickbill-api/internal/presentation/http/dto/response"
	"github.com/sangkips/quickbill-api/pkg/apperror"
)

const (
	// IdempotencyKeyHeader is the HTTP header for idempotency keys
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyKeyTTL is how long keys are valid
	IdempotencyKeyTTL = 24 * time.Hour
	// idempotencyPendingTTL bounds how long a crashed request keeps its key reserved
	idempotencyPendingTTL = 2 * time.Minute

	maxIdempotencyKeyLength = 255
)

// IdempotencyConfig holds configuration for the idempotency middleware
type IdempotencyConfig struct {
	Repo repository.IdempotencyRepository
	// Now defaults to time.Now
	Now func() time.Time
}

// responseWriter wraps gin.ResponseWriter to capture the response body
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the stored response when a POST is retried with the same key and body.
// The key is reserved before the handler runs, so a concurrent duplicate gets a 409 instead of a second execution.
// 5xx outcomes, including 502 dispatch failures, release the key so the client can retry for real.
func Idempotency(config IdempotencyConfig) gin.HandlerFunc {
	now := config.Now
	if now == nil {
		now = time.Now
	}

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		idempotencyKey := c.GetHeader(IdempotencyKeyHeader)
		if idempotencyKey == "" {
			c.Next()
			return
		}
		if len(idempotencyKey) > maxIdempotencyKeyLength {
			response.Error(c, apperror.NewFieldError(IdempotencyKeyHeader, "must be at most 255 characters"))
			c.Abort()
			return
		}

		userID, ok := c.Get("user_id")
		if !ok {
			c.Next()
			return
		}
		owner, ok := userID.(uuid.UUID)
		if !ok {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			response.BadRequest(c, "Failed to read request body")
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		sum := sha256.Sum256(body)
		requestHash := hex.EncodeToString(sum[:])
		endpoint := c.Request.Method + " " + c.Request.URL.Path

		existing, err := config.Repo.GetLive(c.Request.Context(), idempotencyKey, owner, now())
		if err != nil {
			log.Printf("idempotency lookup failed for %s: %v", endpoint, err)
			c.Next()
			return
		}
		if existing != nil {
			replayOrReject(c, existing, endpoint, requestHash)
			return
		}

		reserved, err := config.Repo.Reserve(c.Request.Context(), &entity.IdempotencyKey{
			Key:         idempotencyKey,
			UserID:      owner,
			Endpoint:    endpoint,
			RequestHash: requestHash,
			ExpiresAt:   now().Add(idempotencyPendingTTL),
		}, now())
		if err != nil {
			log.Printf("idempotency reserve failed for %s: %v", endpoint, err)
			c.Next()
			return
		}
		if !reserved {
			// another request took the key between the lookup and the insert
			existing, err = config.Repo.GetLive(c.Request.Context(), idempotencyKey, owner, now())
			if err != nil || existing == nil {
				response.Error(c, apperror.NewConflictError("A request with this Idempotency-Key is still in progress"))
				c.Abort()
				return
			}
			replayOrReject(c, existing, endpoint, requestHash)
			return
		}

		blw := &responseWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		status := c.Writer.Status()
		if status >= http.StatusInternalServerError {
			if err := config.Repo.Release(c.Request.Context(), idempotencyKey, owner); err != nil {
				log.Printf("idempotency release failed for %s: %v", endpoint, err)
			}
			return
		}

		record := &entity.IdempotencyKey{
			Key:          idempotencyKey,
			UserID:       owner,
			Endpoint:     endpoint,
			RequestHash:  requestHash,
			ResponseCode: status,
			ResponseBody: blw.body.String(),
			ExpiresAt:    now().Add(IdempotencyKeyTTL),
		}
		if err := config.Repo.Save(c.Request.Context(), record); err != nil {
			log.Printf("idempotency store failed for %s: %v", endpoint, err)
		}
	}
}

// replayOrReject answers a retry from a stored record
func replayOrReject(c *gin.Context, existing *entity.IdempotencyKey, endpoint, requestHash string) {
	defer c.Abort()

	if !existing.Matches(endpoint, requestHash) {
		response.Error(c, apperror.NewConflictError("Idempotency-Key was already used for a different request"))
		return
	}
	if existing.Pending() {
		response.Error(c, apperror.NewConflictError("A request with this Idempotency-Key is still in progress"))
		return
	}
	c.Header("X-Idempotency-Replayed", "true")
	c.Data(existing.ResponseCode, "application/json; charset=utf-8", []byte(existing.ResponseBody))
}
