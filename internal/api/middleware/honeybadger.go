package middleware

import (
	"fmt"
	"net/http"
	"os"
	"runtime/debug"

	"github.com/bassista/jobsync/internal/api/controller"
	"github.com/bassista/jobsync/internal/logger"
	"github.com/gin-gonic/gin"
	honeybadger "github.com/honeybadger-io/honeybadger-go"
)

// HoneybadgerMiddleware sends error/warning notifications to Honeybadger.
// On panic, it notifies Honeybadger and re-panics to allow gin.Recovery to handle the response.
func HoneybadgerMiddleware() gin.HandlerFunc {
	log := logger.WithComponent("honeybadger")
	apiKey := os.Getenv("HONEYBADGER_API_KEY")
	if apiKey == "" {
		log.Info("Honeybadger is not active. To enable error reporting, set the HONEYBADGER_API_KEY environment variable.")
		return func(c *gin.Context) {
			c.Next()
		}
	}

	honeybadger.Configure(honeybadger.Configuration{
		APIKey: apiKey,
		Env:    os.Getenv("GO_ENV"),
	})

	log.Info("Honeybadger error reporting is enabled.")

	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				honeybadger.Notify(fmt.Sprintf("Panic: %s %s", c.Request.Method, routeOf(c)),
					c.Request, requestContext(c), honeybadger.Context{"stack": string(debug.Stack())},
					honeybadger.Tags{"panic", "http"})
				log.Error("Recovered from panic, notified Honeybadger: ", rec)
				panic(rec)
			}
		}()

		c.Next()

		status := c.Writer.Status()
		if !shouldReport(status) {
			return
		}
		if status >= 500 {
			honeybadger.Notify(fmt.Sprintf("Error: HTTP %d: %s %s", status, c.Request.Method, routeOf(c)),
				c.Request, requestContext(c), honeybadger.Tags{"5XX", "http"})
		} else {
			honeybadger.Notify(fmt.Sprintf("Warning: HTTP %d: %s %s", status, c.Request.Method, routeOf(c)),
				requestContext(c), honeybadger.Tags{"4XX", "http"})
		}
		log.Warnf("Honeybadger reported HTTP %d for %s %s", status, c.Request.Method, routeOf(c))
	}
}

// shouldReport skips the statuses clients produce in normal operation:
// 401 drives the token refresh cycle, 404 and 409 are user-facing outcomes.
func shouldReport(status int) bool {
	switch status {
	case http.StatusUnauthorized, http.StatusNotFound, http.StatusConflict:
		return false
	}
	return status >= 400
}

func routeOf(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return c.Request.URL.Path
}

func requestContext(c *gin.Context) honeybadger.Context {
	ctx := honeybadger.Context{"route": routeOf(c)}
	if id := c.GetHeader("X-Request-ID"); id != "" {
		ctx["request_id"] = id
	}
	if u, ok := c.Get(controller.UserKey); ok {
		ctx["user"] = u
	}
	return ctx
}
