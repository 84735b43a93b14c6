package route

import (
	"github.com/bassista/jobsync/internal/api/controller"
	"github.com/bassista/jobsync/internal/api/dataset"
	"github.com/bassista/jobsync/internal/api/middleware"
	"github.com/bassista/jobsync/internal/model"
	"github.com/gin-gonic/gin"
)

// NewAdminRouter expects group to be authenticated already.
func NewAdminRouter(group *gin.RouterGroup, data *dataset.Dataset) {
	admins := group.Group("admin", middleware.RequireRole(model.RoleAdmin, model.RoleRecruiter))

	ac := controller.NewAdminController(data)

	admins.GET("jobs", ac.Jobs)
	admins.DELETE("jobs/:id", ac.DeleteJob)
}
