package route

import (
	"github.com/bassista/jobsync/internal/api/controller"
	"github.com/bassista/jobsync/internal/api/dataset"
	"github.com/bassista/jobsync/internal/api/middleware"
	"github.com/bassista/jobsync/internal/model"
	"github.com/gin-gonic/gin"
)

// NewApplicationRouter expects group to be authenticated already.
func NewApplicationRouter(group *gin.RouterGroup, data *dataset.Dataset) {
	students := group.Group("applications", middleware.RequireRole(model.RoleStudent))

	ac := controller.NewApplicationController(data)

	students.GET("my", ac.MyApplications)
	students.POST(":jobId", ac.Apply)
}
