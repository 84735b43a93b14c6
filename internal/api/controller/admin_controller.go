package controller

import (
	"net/http"

	"github.com/bassista/jobsync/internal/api/dataset"
	"github.com/bassista/jobsync/internal/logger"
	"github.com/bassista/jobsync/internal/model"
	"github.com/gin-gonic/gin"
)

// AdminController handles job management for recruiters and admins.
type AdminController struct {
	data *dataset.Dataset
	jobs *ListController[model.Job]
}

func NewAdminController(data *dataset.Dataset) *AdminController {
	return &AdminController{
		data: data,
		jobs: &ListController[model.Job]{
			Component: "admin-controller",
			Field:     "jobs",
			List: func(c *gin.Context) ([]model.Job, error) {
				u, _ := CurrentUser(c)
				return data.JobsManagedBy(u), nil
			},
		},
	}
}

// Jobs handles GET /admin/jobs.
func (ac *AdminController) Jobs(c *gin.Context) {
	logger.WithComponent("admin-controller").Debugf("GET /admin/jobs handler called")
	ac.jobs.GetAll(c)
}

// DeleteJob handles DELETE /admin/jobs/:id.
func (ac *AdminController) DeleteJob(c *gin.Context) {
	id := c.Param("id")
	logger.WithComponent("admin-controller").Debugf("DELETE /admin/jobs/%s handler called", id)
	u, _ := CurrentUser(c)

	if err := ac.data.DeleteJob(u, id); err != nil {
		RespondError(c, "admin-controller", err)
		return
	}
	logger.WithComponent("admin-controller").Debugf("job %s deleted by %s", id, u.ID)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Job deleted successfully."})
}
