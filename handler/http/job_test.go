package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/gin-gonic/gin"

	handler "ragbot/handler/http"
	"ragbot/src/infrastructure/job"
)

type staticJobRepo struct {
	jobs map[int]*job.Job
}

func (r *staticJobRepo) Create(ctx context.Context, taskType string, payload json.RawMessage) (*job.Job, error) {
	return nil, nil
}

func (r *staticJobRepo) Get(ctx context.Context, id int) (*job.Job, error) {
	return r.jobs[id], nil
}

func (r *staticJobRepo) UpdateStatus(ctx context.Context, id int, status job.JobStatus, errStr *string) error {
	return nil
}

func newJobRouter(t *testing.T, repo job.JobRepository) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jobs := job.NewJobService(nil, repo, watermill.NopLogger{})
	h, err := handler.NewHandler(&fakeRunner{}, nil, nil, jobs, nil, "documents", nil)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}

	router := gin.New()
	h.RegisterRoutes(router)
	return router
}

func getJob(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetJobReturnsStatus(t *testing.T) {
	repo := &staticJobRepo{jobs: map[int]*job.Job{
		7: {ID: 7, TaskType: job.TaskTypeIngest, Status: job.JobStatusCompleted},
	}}
	router := newJobRouter(t, repo)

	w := getJob(router, "/api/v1/jobs/7")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var got job.Job
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.ID != 7 {
		t.Errorf("job id = %d, want 7", got.ID)
	}
	if got.Status != job.JobStatusCompleted {
		t.Errorf("job status = %q, want %q", got.Status, job.JobStatusCompleted)
	}
}

func TestGetJobNotFound(t *testing.T) {
	router := newJobRouter(t, &staticJobRepo{jobs: map[int]*job.Job{}})

	w := getJob(router, "/api/v1/jobs/99")

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestGetJobRejectsBadID(t *testing.T) {
	router := newJobRouter(t, &staticJobRepo{jobs: map[int]*job.Job{}})

	w := getJob(router, "/api/v1/jobs/abc")

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
