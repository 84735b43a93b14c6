package controller

import (
	"net/http"

	"github.com/bassista/jobsync/internal/api/dataset"
	"github.com/bassista/jobsync/internal/logger"
	"github.com/bassista/jobsync/internal/model"
	"github.com/gin-gonic/gin"
)

// ApplicationController lets a student list and submit applications.
type ApplicationController struct {
	data *dataset.Dataset
	mine *ListController[model.Application]
}

func NewApplicationController(data *dataset.Dataset) *ApplicationController {
	return &ApplicationController{
		data: data,
		mine: &ListController[model.Application]{
			Component: "application-controller",
			Field:     "applications",
			List: func(c *gin.Context) ([]model.Application, error) {
				u, _ := CurrentUser(c)
				return data.ApplicationsOf(u.ID), nil
			},
		},
	}
}

// MyApplications handles GET /applications/my.
func (ac *ApplicationController) MyApplications(c *gin.Context) {
	logger.WithComponent("application-controller").Debugf("GET /applications/my handler called")
	ac.mine.GetAll(c)
}

// Apply handles POST /applications/:jobId.
func (ac *ApplicationController) Apply(c *gin.Context) {
	jobID := c.Param("jobId")
	logger.WithComponent("application-controller").Debugf("POST /applications/%s handler called", jobID)
	u, _ := CurrentUser(c)

	app, err := ac.data.Apply(u.ID, jobID)
	if err != nil {
		RespondError(c, "application-controller", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Job applied successfully.", "application": app})
}
