package controller

import (
	"net/http"

	"github.com/bassista/jobsync/internal/api/dataset"
	"github.com/bassista/jobsync/internal/logger"
	"github.com/bassista/jobsync/internal/model"
	"github.com/gin-gonic/gin"
)

type CompanyController struct {
	data *dataset.Dataset
	all  *ListController[model.Company]
}

func NewCompanyController(data *dataset.Dataset) *CompanyController {
	return &CompanyController{
		data: data,
		all: &ListController[model.Company]{
			Component: "company-controller",
			Field:     "companies",
			List:      func(*gin.Context) ([]model.Company, error) { return data.Companies(), nil },
		},
	}
}

// AllCompanies handles GET /companies.
func (cc *CompanyController) AllCompanies(c *gin.Context) {
	logger.WithComponent("company-controller").Debugf("GET /companies handler called")
	cc.all.GetAll(c)
}

// CompanyByID handles GET /companies/:id.
func (cc *CompanyController) CompanyByID(c *gin.Context) {
	id := c.Param("id")
	logger.WithComponent("company-controller").Debugf("GET /companies/%s handler called", id)
	company, err := cc.data.Company(id)
	if err != nil {
		RespondError(c, "company-controller", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "company": company})
}
