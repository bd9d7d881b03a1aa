package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ragbot/src/log"
)

// GetJob godoc
// @Summary Report the status of a background job
// @Tags jobs
// @Produce json
// @Param id path int true "Job ID"
// @Success 200 {object} job.Job
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /jobs/{id} [get]
func (h *Handler) GetJob(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		sendError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid job id")
		return
	}

	found, err := h.jobs.GetJob(c.Request.Context(), id)
	if err != nil {
		log.Error(err, "failed to get job", "jobID", id)
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", genericErrorMessage)
		return
	}
	if found == nil {
		sendError(c, http.StatusNotFound, "NOT_FOUND", "job not found")
		return
	}

	sendJSON(c, http.StatusOK, found)
}
