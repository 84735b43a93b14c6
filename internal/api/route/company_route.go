package route

import (
	"github.com/bassista/jobsync/internal/api/controller"
	"github.com/bassista/jobsync/internal/api/dataset"
	"github.com/gin-gonic/gin"
)

func NewCompanyRouter(group *gin.RouterGroup, data *dataset.Dataset) {
	cc := controller.NewCompanyController(data)

	group.GET("companies", cc.AllCompanies)
	group.GET("companies/:id", cc.CompanyByID)
}
