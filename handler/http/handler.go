// Package http exposes the question answering agent and the document
// ingestion pipeline over a JSON API.
package http

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"ragbot/src/core/system"
	"ragbot/src/infrastructure/job"
	"ragbot/src/storage/minioctrl"
	"ragbot/src/storage/postgres/documentctrl"
	"ragbot/src/storage/postgres/exchangectrl"
)

const (
	tooComplexMessage   = "Your question is too complex. Please refine or simplify it."
	genericErrorMessage = "An unexpected error occurred. Please try again later."
)

// AgentRunner answers a single question.
type AgentRunner interface {
	Run(ctx context.Context, question string) (string, error)
}

// ExchangeStore records and lists question/answer exchanges.
type ExchangeStore interface {
	Create(ctx context.Context, platform, userID, question, answer, status string) (*exchangectrl.Exchange, error)
	List(ctx context.Context, limit, offset int) ([]exchangectrl.Exchange, error)
}

type Handler struct {
	engine    AgentRunner
	exchanges ExchangeStore
	documents *documentctrl.DocumentService
	jobs      *job.JobService
	objects   *minioctrl.MinioService
	bucket    string
	system    *system.Service
}

func NewHandler(
	engine AgentRunner,
	exchanges ExchangeStore,
	documents *documentctrl.DocumentService,
	jobs *job.JobService,
	objects *minioctrl.MinioService,
	bucket string,
	sysService *system.Service,
) (*Handler, error) {
	if engine == nil {
		return nil, fmt.Errorf("agent runner is required")
	}

	return &Handler{
		engine:    engine,
		exchanges: exchanges,
		documents: documents,
		jobs:      jobs,
		objects:   objects,
		bucket:    bucket,
		system:    sysService,
	}, nil
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	v1 := r.Group("/api/v1")

	// Chat routes
	v1.POST("/chat", h.Chat)

	// Document routes
	v1.POST("/documents", h.UploadDocument)
	v1.GET("/documents", h.ListDocuments)

	// Job routes
	v1.GET("/jobs/:id", h.GetJob)

	// Exchange routes
	v1.GET("/exchanges", h.ListExchanges)

	// System routes
	v1.GET("/health", h.CheckHealth)
}

// Common error response structure
type ErrorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func sendError(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func sendJSON(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

func parsePagination(c *gin.Context) (int, int, error) {
	limit := 10 // default limit
	offset := 0 // default offset

	if limitParam := c.Query("limit"); limitParam != "" {
		if _, err := fmt.Sscanf(limitParam, "%d", &limit); err != nil {
			return 0, 0, fmt.Errorf("invalid limit parameter")
		}
	}

	if offsetParam := c.Query("offset"); offsetParam != "" {
		if _, err := fmt.Sscanf(offsetParam, "%d", &offset); err != nil {
			return 0, 0, fmt.Errorf("invalid offset parameter")
		}
	}

	return limit, offset, nil
}
