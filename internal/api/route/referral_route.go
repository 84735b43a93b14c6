package route

import (
	"github.com/bassista/jobsync/internal/api/controller"
	"github.com/bassista/jobsync/internal/api/dataset"
	"github.com/bassista/jobsync/internal/api/middleware"
	"github.com/bassista/jobsync/internal/model"
	"github.com/gin-gonic/gin"
)

// NewReferralRouter expects group to be authenticated already.
func NewReferralRouter(group *gin.RouterGroup, data *dataset.Dataset) {
	freelancers := group.Group("freelancer", middleware.RequireRole(model.RoleFreelancer))

	rc := controller.NewReferralController(data)

	freelancers.GET("referrals", rc.MyReferrals)
}
