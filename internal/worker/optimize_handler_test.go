package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"folioforge/internal/content"
	"folioforge/internal/database"
	"folioforge/internal/tasks"
)

func seedOptimizationJob(t *testing.T, db *gorm.DB) database.JobOptimization {
	t.Helper()

	parsed := content.ResumeData{
		PersonalInfo: content.PersonalInfo{Name: "Jane Doe"},
		Summary:      "Backend engineer.",
		Skills:       []string{"Go"},
	}
	blob, err := json.Marshal(parsed)
	if err != nil {
		t.Fatalf("marshal parsed data: %v", err)
	}
	resume := database.Resume{
		UserID:     1,
		FileName:   "jane.pdf",
		ParsedData: datatypes.JSON(blob),
	}
	if err := db.Create(&resume).Error; err != nil {
		t.Fatalf("seed resume: %v", err)
	}

	job := database.JobOptimization{
		UserID:         1,
		ResumeID:       resume.ID,
		JobTitle:       "Senior Backend Engineer",
		JobDescription: "Go, Postgres, Redis.",
		Status:         database.OptimizationPending,
	}
	if err := db.Create(&job).Error; err != nil {
		t.Fatalf("seed job: %v", err)
	}
	return job
}

func runOptimizeTask(t *testing.T, h *OptimizeTaskHandler, jobID uint) error {
	t.Helper()
	task, err := tasks.NewOptimizeRunTask(tasks.OptimizeRunPayload{
		OptimizationID: jobID,
		CorrelationID:  "corr-opt",
	})
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	return h.ProcessTask(context.Background(), task)
}

func scoreOf(v float64) *float64 { return &v }

func TestOptimizeTask_CompletesWithVerbatimScore(t *testing.T) {
	db := newTestDB(t)
	job := seedOptimizationJob(t, db)

	aiSvc := &fakeAI{objects: []any{
		content.AnalysisResult{
			Score:         scoreOf(42),
			Improvements:  []string{"quantify results"},
			KeywordsToAdd: []string{"redis"},
		},
		content.ResumeData{
			PersonalInfo: content.PersonalInfo{Name: "Jane Doe"},
			Summary:      "Optimized summary.",
			Skills:       []string{"Go", "Redis"},
		},
	}}
	h := NewOptimizeTaskHandler(db, aiSvc, newTestRedis(t), slog.Default())

	if err := runOptimizeTask(t, h, job.ID); err != nil {
		t.Fatalf("process task: %v", err)
	}

	var reloaded database.JobOptimization
	if err := db.First(&reloaded, job.ID).Error; err != nil {
		t.Fatalf("reload job: %v", err)
	}
	if reloaded.Status != database.OptimizationCompleted {
		t.Fatalf("expected completed, got %q", reloaded.Status)
	}

	var result content.OptimizationResult
	if err := json.Unmarshal(reloaded.OptimizationNotes, &result); err != nil {
		t.Fatalf("decode notes: %v", err)
	}
	if result.Score != 42 {
		t.Fatalf("score must be carried verbatim, got %v", result.Score)
	}
	if result.OptimizedContent.Summary != "Optimized summary." {
		t.Fatalf("missing rewritten content: %+v", result.OptimizedContent)
	}
	if len(result.KeywordsAdded) != 1 || result.KeywordsAdded[0] != "redis" {
		t.Fatalf("analysis keywords not carried: %v", result.KeywordsAdded)
	}
	if aiSvc.calls != 2 {
		t.Fatalf("expected two AI phases, got %d", aiSvc.calls)
	}
}

func TestOptimizeTask_DefaultsScoreOnlyWhenAbsent(t *testing.T) {
	db := newTestDB(t)
	job := seedOptimizationJob(t, db)

	aiSvc := &fakeAI{objects: []any{
		content.AnalysisResult{},
		content.ResumeData{Summary: "Rewritten."},
	}}
	h := NewOptimizeTaskHandler(db, aiSvc, newTestRedis(t), slog.Default())

	if err := runOptimizeTask(t, h, job.ID); err != nil {
		t.Fatalf("process task: %v", err)
	}

	var reloaded database.JobOptimization
	if err := db.First(&reloaded, job.ID).Error; err != nil {
		t.Fatalf("reload job: %v", err)
	}
	var result content.OptimizationResult
	if err := json.Unmarshal(reloaded.OptimizationNotes, &result); err != nil {
		t.Fatalf("decode notes: %v", err)
	}
	if result.Score != 75 {
		t.Fatalf("expected default 75 for absent score, got %v", result.Score)
	}
}

func TestOptimizeTask_RewriteFailureKeepsAnalysis(t *testing.T) {
	db := newTestDB(t)
	job := seedOptimizationJob(t, db)

	aiSvc := &fakeAI{
		objects:    []any{content.AnalysisResult{Score: scoreOf(63), Improvements: []string{"tighten summary"}}, nil},
		objectErrs: []error{nil, errors.New("rewrite unavailable")},
	}
	h := NewOptimizeTaskHandler(db, aiSvc, newTestRedis(t), slog.Default())

	if err := runOptimizeTask(t, h, job.ID); err == nil {
		t.Fatalf("expected error")
	}

	var reloaded database.JobOptimization
	if err := db.First(&reloaded, job.ID).Error; err != nil {
		t.Fatalf("reload job: %v", err)
	}
	if reloaded.Status != database.OptimizationFailedRewrite {
		t.Fatalf("expected failed_rewrite, got %q", reloaded.Status)
	}

	// 阶段一的分析结果仍然保留。
	var analysis content.AnalysisResult
	if err := json.Unmarshal(reloaded.OptimizationNotes, &analysis); err != nil {
		t.Fatalf("decode notes: %v", err)
	}
	if analysis.Score == nil || *analysis.Score != 63 {
		t.Fatalf("analysis lost: %+v", analysis)
	}
}

func TestOptimizeTask_AnalysisFailureMarksFailed(t *testing.T) {
	db := newTestDB(t)
	job := seedOptimizationJob(t, db)

	aiSvc := &fakeAI{
		objects:    []any{nil},
		objectErrs: []error{errors.New("analysis unavailable")},
	}
	h := NewOptimizeTaskHandler(db, aiSvc, newTestRedis(t), slog.Default())

	if err := runOptimizeTask(t, h, job.ID); err == nil {
		t.Fatalf("expected error")
	}

	var reloaded database.JobOptimization
	if err := db.First(&reloaded, job.ID).Error; err != nil {
		t.Fatalf("reload job: %v", err)
	}
	if reloaded.Status != database.OptimizationFailed {
		t.Fatalf("expected failed, got %q", reloaded.Status)
	}
}
