package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ragbot/src/log"
)

// ListExchanges godoc
// @Summary List recorded question/answer exchanges
// @Tags exchanges
// @Produce json
// @Param limit query int false "Maximum number of exchanges"
// @Param offset query int false "Number of exchanges to skip"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /exchanges [get]
func (h *Handler) ListExchanges(c *gin.Context) {
	limit, offset, err := parsePagination(c)
	if err != nil {
		sendError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	exchanges, err := h.exchanges.List(c.Request.Context(), limit, offset)
	if err != nil {
		log.Error(err, "failed to list exchanges")
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", genericErrorMessage)
		return
	}

	sendJSON(c, http.StatusOK, gin.H{
		"exchanges": exchanges,
		"pagination": gin.H{
			"limit":  limit,
			"offset": offset,
		},
	})
}
