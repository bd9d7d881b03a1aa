package job

import (
	"context"
	"encoding/json"
	"fmt"

	"ragbot/src/core/ingest"
	"ragbot/src/log"
)

const TaskTypeIngest = "ingest"

type IngestPayload struct {
	DocumentID int64 `json:"document_id"`
}

// DocumentIngester processes a stored document into indexed chunks.
type DocumentIngester interface {
	IngestDocument(ctx context.Context, documentID int64) (*ingest.Summary, error)
}

type IngestTask struct {
	ingestService DocumentIngester
}

func NewIngestTask(ingestService DocumentIngester) *IngestTask {
	return &IngestTask{
		ingestService: ingestService,
	}
}

func (task *IngestTask) HandleIngestTask(ctx context.Context, payload json.RawMessage) error {
	var ingestPayload IngestPayload
	if err := json.Unmarshal(payload, &ingestPayload); err != nil {
		return fmt.Errorf("failed to unmarshal ingest payload: %w", err)
	}
	if ingestPayload.DocumentID == 0 {
		return fmt.Errorf("ingest payload has no document ID")
	}

	summary, err := task.ingestService.IngestDocument(ctx, ingestPayload.DocumentID)
	if err != nil {
		return fmt.Errorf("failed to ingest document %d: %w", ingestPayload.DocumentID, err)
	}

	log.Info("ingest job finished",
		"documentID", summary.Document.ID,
		"filename", summary.Document.Filename,
		"chunks", summary.ChunkCount,
	)
	return nil
}
