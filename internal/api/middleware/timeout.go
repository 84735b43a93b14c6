package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bassista/jobsync/internal/api/controller"
	"github.com/bassista/jobsync/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const timeoutMessage = "Request timed out."

// RequestTimeout puts a deadline on every API request. Handlers that give up
// on ctx.Done() without answering get a 504 in the usual failure envelope.
func RequestTimeout(d time.Duration) gin.HandlerFunc {
	if d <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	log := logger.WithComponent("timeout")
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if !errors.Is(ctx.Err(), context.DeadlineExceeded) || c.Writer.Written() {
			return
		}
		log.WithFields(logrus.Fields{
			"route":      routeOf(c),
			"method":     c.Request.Method,
			"request_id": c.GetHeader("X-Request-ID"),
		}).Warnf("no answer within %v", d)
		controller.Fail(c, http.StatusGatewayTimeout, timeoutMessage)
	}
}
