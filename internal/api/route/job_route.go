package route

import (
	"github.com/bassista/jobsync/internal/api/controller"
	"github.com/bassista/jobsync/internal/api/dataset"
	"github.com/gin-gonic/gin"
)

func NewJobRouter(group *gin.RouterGroup, data *dataset.Dataset) {
	jc := controller.NewJobController(data)

	group.GET("jobs", jc.AllJobs)
}
