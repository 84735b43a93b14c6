package controller

import (
	"strconv"

	"github.com/bassista/jobsync/internal/api/dataset"
	"github.com/bassista/jobsync/internal/logger"
	"github.com/bassista/jobsync/internal/model"
	"github.com/gin-gonic/gin"
)

// JobController serves the public job search.
type JobController struct {
	list *ListController[model.Job]
}

func NewJobController(data *dataset.Dataset) *JobController {
	return &JobController{list: &ListController[model.Job]{
		Component: "job-controller",
		Field:     "data",
		List: func(c *gin.Context) ([]model.Job, error) {
			filter := dataset.JobFilter{
				Keyword:  c.Query("keyword"),
				Location: c.Query("location"),
				JobType:  c.Query("jobType"),
			}
			return data.Jobs(filter, queryInt(c, "page"), queryInt(c, "limit")), nil
		},
	}}
}

// AllJobs handles GET /jobs?keyword&location&jobType&page&limit.
func (jc *JobController) AllJobs(c *gin.Context) {
	logger.WithComponent("job-controller").Debugf("GET /jobs handler called (%s)", c.Request.URL.RawQuery)
	jc.list.GetAll(c)
}

// queryInt reads a non-negative integer query parameter; anything else is 0.
func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
