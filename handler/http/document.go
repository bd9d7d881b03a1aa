package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ragbot/src/infrastructure/job"
	"ragbot/src/log"
)

var allowedExtensions = map[string]bool{
	".pdf": true,
	".txt": true,
	".md":  true,
}

// UploadDocument godoc
// @Summary Upload a document and queue it for ingestion
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document to ingest"
// @Success 202 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /documents [post]
func (h *Handler) UploadDocument(c *gin.Context) {
	// Get file from request
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		sendError(c, http.StatusBadRequest, "INVALID_REQUEST", "no file uploaded")
		return
	}
	defer file.Close()

	// Validate file type
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		sendError(c, http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", fmt.Sprintf("unsupported file type: %s", ext))
		return
	}

	// Read file into buffer
	fileBytes, err := io.ReadAll(file)
	if err != nil {
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to read file")
		return
	}

	ctx := c.Request.Context()

	if err := h.objects.EnsureBucketExists(ctx, h.bucket); err != nil {
		log.Error(err, "failed to ensure bucket exists", "bucket", h.bucket)
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", genericErrorMessage)
		return
	}

	// Generate unique object name
	objectName := fmt.Sprintf("%s%s", uuid.New().String(), ext)

	// Upload to MinIO
	if err := h.objects.PutObject(ctx, h.bucket, objectName, fileBytes); err != nil {
		log.Error(err, "failed to store document", "filename", header.Filename)
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", genericErrorMessage)
		return
	}

	// Create document record
	doc, err := h.documents.Create(ctx, header.Filename, fmt.Sprintf("%s/%s", h.bucket, objectName))
	if err != nil {
		log.Error(err, "failed to record document", "filename", header.Filename)
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", genericErrorMessage)
		return
	}

	// Queue background ingestion
	payload, err := json.Marshal(job.IngestPayload{DocumentID: doc.ID})
	if err != nil {
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", genericErrorMessage)
		return
	}
	queued, err := h.jobs.EnqueueJob(ctx, job.TaskTypeIngest, payload)
	if err != nil {
		log.Error(err, "failed to enqueue ingest job", "documentID", doc.ID)
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", genericErrorMessage)
		return
	}

	sendJSON(c, http.StatusAccepted, gin.H{
		"jobId":      queued.ID,
		"documentId": doc.ID,
		"filename":   doc.Filename,
		"status":     "accepted",
	})
}

// ListDocuments godoc
// @Summary List ingested documents
// @Tags documents
// @Produce json
// @Param limit query int false "Maximum number of documents"
// @Param offset query int false "Number of documents to skip"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /documents [get]
func (h *Handler) ListDocuments(c *gin.Context) {
	limit, offset, err := parsePagination(c)
	if err != nil {
		sendError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	documents, err := h.documents.List(c.Request.Context(), limit, offset)
	if err != nil {
		log.Error(err, "failed to list documents")
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", genericErrorMessage)
		return
	}

	sendJSON(c, http.StatusOK, gin.H{
		"documents": documents,
		"pagination": gin.H{
			"limit":  limit,
			"offset": offset,
		},
	})
}
