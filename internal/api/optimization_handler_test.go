package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"folioforge/internal/content"
	"folioforge/internal/database"
)

type fakeTextGenerator struct {
	text    string
	prompts []string
}

func (g *fakeTextGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.text, nil
}

func TestCreateOptimization_EnqueuesPendingJob(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	enqueuer := &fakeEnqueuer{}
	h := NewOptimizationHandler(db, enqueuer, &fakeTextGenerator{}, nil)
	seedParsedResume(t, db, 1)

	payload, _ := json.Marshal(map[string]any{
		"resume_id":       1,
		"job_title":       "Senior Backend Engineer",
		"job_description": "Go, Postgres, Redis.",
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/optimizations", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set("userID", uint(1))

	h.CreateOptimization(c)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202 got %d body=%s", w.Code, w.Body.String())
	}
	var job database.JobOptimization
	if err := db.First(&job).Error; err != nil {
		t.Fatalf("load job: %v", err)
	}
	if job.Status != database.OptimizationPending {
		t.Fatalf("expected pending status, got %q", job.Status)
	}
	if len(enqueuer.tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(enqueuer.tasks))
	}
}

func TestCreateOptimization_UnparsedResumeConflicts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	h := NewOptimizationHandler(db, &fakeEnqueuer{}, &fakeTextGenerator{}, nil)

	resume := database.Resume{UserID: 1, FileName: "raw.pdf"}
	if err := db.Create(&resume).Error; err != nil {
		t.Fatalf("seed resume: %v", err)
	}

	payload, _ := json.Marshal(map[string]any{
		"resume_id":       1,
		"job_title":       "Engineer",
		"job_description": "desc",
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/optimizations", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set("userID", uint(1))

	h.CreateOptimization(c)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestExportOptimization_RendersAttachment(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	gen := &fakeTextGenerator{text: "JANE DOE\nBackend Engineer"}
	h := NewOptimizationHandler(db, &fakeEnqueuer{}, gen, nil)

	result := content.OptimizationResult{
		Score: 88,
		OptimizedContent: content.ResumeData{
			PersonalInfo: content.PersonalInfo{Name: "Jane Doe"},
			Summary:      "Optimized summary.",
		},
		Improvements:     []string{},
		KeywordsAdded:    []string{},
		SectionsEnhanced: []string{},
	}
	blob, _ := json.Marshal(result)
	job := database.JobOptimization{
		UserID:            1,
		ResumeID:          1,
		JobTitle:          "Senior Backend Engineer!",
		OptimizationNotes: datatypes.JSON(blob),
		Status:            database.OptimizationCompleted,
	}
	if err := db.Create(&job).Error; err != nil {
		t.Fatalf("seed job: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/optimizations/1/export", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	c.Set("userID", uint(1))

	h.ExportOptimization(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	disposition := w.Header().Get("Content-Disposition")
	want := `attachment; filename="optimized-resume-senior-backend-engin.txt"`
	if disposition != want {
		t.Fatalf("unexpected disposition %q, want %q", disposition, want)
	}
	if w.Body.String() != "JANE DOE\nBackend Engineer" {
		t.Fatalf("unexpected body %q", w.Body.String())
	}
	if len(gen.prompts) != 1 {
		t.Fatalf("expected one generation call, got %d", len(gen.prompts))
	}
}

func TestExportOptimization_RequiresCompletedStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	h := NewOptimizationHandler(db, &fakeEnqueuer{}, &fakeTextGenerator{}, nil)

	job := database.JobOptimization{
		UserID:   1,
		ResumeID: 1,
		JobTitle: "Engineer",
		Status:   database.OptimizationAnalyzed,
	}
	if err := db.Create(&job).Error; err != nil {
		t.Fatalf("seed job: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/optimizations/1/export", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	c.Set("userID", uint(1))

	h.ExportOptimization(c)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d body=%s", w.Code, w.Body.String())
	}
}
