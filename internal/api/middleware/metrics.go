package middleware

import (
	"strconv"

	"github.com/bassista/jobsync/internal/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics counts served requests by method, route pattern and status code.
// Unmatched routes are grouped under "unmatched" to keep label cardinality bounded.
func Metrics(m *metrics.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()))
	}
}
