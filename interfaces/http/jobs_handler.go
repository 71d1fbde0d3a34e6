package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// IJobRunner triggers background jobs by name
type IJobRunner interface {
	Run(ctx context.Context, name string) error
	Names() []string
}

type IJobsHandler interface {
	List(c *gin.Context)
	Run(c *gin.Context)
}

type JobsHandler struct {
	runner IJobRunner
}

func NewJobsHandler(runner IJobRunner) IJobsHandler {
	return &JobsHandler{runner: runner}
}

func (h *JobsHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"jobs": h.runner.Names()})
}

// Run executes the job synchronously; a job already in progress answers 409
func (h *JobsHandler) Run(c *gin.Context) {
	name := c.Param("name")
	if err := h.runner.Run(c.Request.Context(), name); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"job": name, "status": "completed"})
}
