package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ragbot/src/core/agent"
	"ragbot/src/log"
	"ragbot/src/storage/postgres/exchangectrl"
)

type chatRequest struct {
	Question string `json:"question" binding:"required"`
}

type chatResponse struct {
	Answer string `json:"answer"`
}

// Chat godoc
// @Summary Ask the agent a question
// @Tags chat
// @Accept json
// @Produce json
// @Param body body chatRequest true "Question to answer"
// @Success 200 {object} chatResponse
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /chat [post]
func (h *Handler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "INVALID_REQUEST", "question is required")
		return
	}

	answer, err := h.engine.Run(c.Request.Context(), req.Question)
	h.recordExchange(c, req.Question, answer, err)

	switch {
	case err == nil:
		sendJSON(c, http.StatusOK, chatResponse{Answer: answer})
	case errors.Is(err, agent.ErrEmptyQuestion):
		sendError(c, http.StatusBadRequest, "INVALID_REQUEST", "question is required")
	case errors.Is(err, agent.ErrStepLimit):
		sendError(c, http.StatusUnprocessableEntity, "QUESTION_TOO_COMPLEX", tooComplexMessage)
	default:
		log.Error(err, "agent run failed", "question", req.Question)
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", genericErrorMessage)
	}
}

// recordExchange is best effort: a storage failure must not mask the answer.
func (h *Handler) recordExchange(c *gin.Context, question, answer string, runErr error) {
	if h.exchanges == nil {
		return
	}

	status := exchangectrl.StatusAnswered
	switch {
	case errors.Is(runErr, agent.ErrStepLimit):
		status = exchangectrl.StatusTooComplex
	case runErr != nil:
		status = exchangectrl.StatusFailed
	}

	if _, err := h.exchanges.Create(c.Request.Context(), "http", c.ClientIP(), question, answer, status); err != nil {
		log.Error(err, "failed to record exchange", "platform", "http")
	}
}
