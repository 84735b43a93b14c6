package route

import (
	"github.com/bassista/jobsync/internal/api/controller"
	"github.com/bassista/jobsync/internal/api/dataset"
	"github.com/gin-gonic/gin"
)

func NewAuthRouter(group *gin.RouterGroup, data *dataset.Dataset) {
	ac := controller.NewAuthController(data)

	group.POST("auth/login", ac.Login)
	group.POST("auth/refresh-token", ac.Refresh)
	group.POST("auth/logout", ac.Logout)
}
