package route

import (
	"net/http"

	"github.com/bassista/jobsync/internal/api/dataset"
	"github.com/bassista/jobsync/internal/api/middleware"
	"github.com/bassista/jobsync/internal/config"
	"github.com/bassista/jobsync/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// APIPrefix is where the job-board API is mounted.
const APIPrefix = "/api/v1"

type Deps struct {
	Data     *dataset.Dataset
	Server   config.ServerConfig
	Metrics  *metrics.Client
	Gatherer prometheus.Gatherer
}

func SetupRoutes(r *gin.Engine, deps Deps) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "UP",
		})
	})
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group(APIPrefix)
	api.Use(
		middleware.Metrics(deps.Metrics),
		middleware.RequestTimeout(deps.Server.RequestTimeout),
		middleware.Faults(deps.Data.Faults()),
	)

	NewAuthRouter(api, deps.Data)
	NewJobRouter(api, deps.Data)
	NewCompanyRouter(api, deps.Data)

	private := api.Group("", middleware.RequireAuth(deps.Data))
	NewApplicationRouter(private, deps.Data)
	NewAdminRouter(private, deps.Data)
	NewReferralRouter(private, deps.Data)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Route not found."})
	})
}
