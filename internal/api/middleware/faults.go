package middleware

import (
	"net/http"

	"github.com/bassista/jobsync/internal/api/controller"
	"github.com/bassista/jobsync/internal/api/dataset"
	"github.com/bassista/jobsync/internal/logger"
	"github.com/gin-gonic/gin"
)

// Faults answers with an injected failure status when one is armed for the
// matched route, before any handler runs.
func Faults(f *dataset.Faults) gin.HandlerFunc {
	return func(c *gin.Context) {
		if f == nil {
			c.Next()
			return
		}
		status, ok := f.Take(c.Request.Method, c.FullPath())
		if !ok {
			c.Next()
			return
		}
		logger.WithComponent("faults").Infof("injecting %d for %s %s", status, c.Request.Method, c.FullPath())
		controller.Fail(c, status, http.StatusText(status)+".")
	}
}
