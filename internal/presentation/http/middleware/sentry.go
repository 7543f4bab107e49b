package middleware

import (
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SentryMiddleware attaches a Sentry hub to each request and recovers panics
func SentryMiddleware() gin.HandlerFunc {
	return sentrygin.New(sentrygin.Options{
		Repanic:         true,
		WaitForDelivery: false,
		Timeout:         5 * time.Second,
	})
}

// SentryErrors reports requests that ended in a 5xx with an error attached to the context
func SentryErrors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Status() < http.StatusInternalServerError {
			return
		}
		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		if hub := sentrygin.GetHubFromContext(c); hub != nil {
			hub.WithScope(func(scope *sentry.Scope) {
				scope.SetLevel(sentry.LevelError)
				scope.SetTag("route", c.FullPath())
				scope.SetTag("request_id", c.GetString("request_id"))
				if v, ok := c.Get("user_id"); ok {
					if id, ok := v.(uuid.UUID); ok {
						scope.SetUser(sentry.User{ID: id.String()})
					}
				}
				hub.CaptureException(lastErr.Err)
			})
		}
	}
}
