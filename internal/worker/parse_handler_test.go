package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"folioforge/internal/content"
	"folioforge/internal/database"
	"folioforge/internal/tasks"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// 指向不可达地址：通知发布是尽力而为，不应左右任务结果。
func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	return redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
}

type fakePresigner struct {
	url string
	err error
}

func (p *fakePresigner) GeneratePresignedURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	if p.url != "" {
		return p.url, nil
	}
	return "https://example.invalid/" + objectKey, nil
}

// fakeAI 按调用顺序吐出预置响应，nil 表示该次调用报错。
type fakeAI struct {
	extractText string
	extractErr  error
	objects     []any
	objectErrs  []error
	calls       int
	prompts     []string
}

func (a *fakeAI) ExtractFromURL(_ context.Context, _ string) (string, error) {
	if a.extractErr != nil {
		return "", a.extractErr
	}
	return a.extractText, nil
}

func (a *fakeAI) GenerateObject(_ context.Context, prompt string, _ map[string]any, out any) error {
	idx := a.calls
	a.calls++
	a.prompts = append(a.prompts, prompt)
	if idx < len(a.objectErrs) && a.objectErrs[idx] != nil {
		return a.objectErrs[idx]
	}
	if idx >= len(a.objects) {
		return errors.New("no response configured")
	}
	blob, err := json.Marshal(a.objects[idx])
	if err != nil {
		return err
	}
	return json.Unmarshal(blob, out)
}

func (a *fakeAI) GenerateText(_ context.Context, _ string) (string, error) {
	return "", errors.New("not used")
}

func TestParseTask_CreatesRecordOnSuccess(t *testing.T) {
	db := newTestDB(t)
	aiSvc := &fakeAI{
		extractText: "Jane Doe, Backend Engineer at Acme since 2020.",
		objects: []any{content.ResumeData{
			PersonalInfo: content.PersonalInfo{Name: "Jane Doe", Email: "jane@example.com"},
			Summary:      "Backend engineer.",
			Skills:       []string{"Go"},
		}},
	}
	h := NewParseTaskHandler(db, &fakePresigner{}, aiSvc, newTestRedis(t), slog.Default())

	task, err := tasks.NewResumeParseTask(tasks.ResumeParsePayload{
		UserID:        1,
		FileName:      "jane.pdf",
		ObjectKey:     "resumes/1/jane.pdf",
		FileSize:      1234,
		CorrelationID: "corr-1",
	})
	if err != nil {
		t.Fatalf("build task: %v", err)
	}

	if err := h.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("process task: %v", err)
	}

	var resume database.Resume
	if err := db.First(&resume).Error; err != nil {
		t.Fatalf("load resume: %v", err)
	}
	if resume.UserID != 1 || resume.FileName != "jane.pdf" || resume.FileURL != "resumes/1/jane.pdf" {
		t.Fatalf("unexpected record: %+v", resume)
	}
	if !resume.IsActive.Bool() {
		t.Fatalf("expected resume active")
	}
	parsed, err := content.DecodeResumeData(resume.ParsedData)
	if err != nil {
		t.Fatalf("decode parsed data: %v", err)
	}
	if parsed.PersonalInfo.Name != "Jane Doe" {
		t.Fatalf("unexpected parsed data: %+v", parsed)
	}
}

func TestParseTask_NoRecordOnExtractionFailure(t *testing.T) {
	db := newTestDB(t)
	aiSvc := &fakeAI{extractErr: errors.New("collaborator unavailable")}
	h := NewParseTaskHandler(db, &fakePresigner{}, aiSvc, newTestRedis(t), slog.Default())

	task, err := tasks.NewResumeParseTask(tasks.ResumeParsePayload{
		UserID:    1,
		FileName:  "jane.pdf",
		ObjectKey: "resumes/1/jane.pdf",
	})
	if err != nil {
		t.Fatalf("build task: %v", err)
	}

	if err := h.ProcessTask(context.Background(), task); err == nil {
		t.Fatalf("expected error")
	}

	var count int64
	db.Model(&database.Resume{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no resume record, got %d", count)
	}
}

func TestParseTask_NoRecordOnStructuringFailure(t *testing.T) {
	db := newTestDB(t)
	aiSvc := &fakeAI{
		extractText: "some text",
		objectErrs:  []error{errors.New("schema mismatch")},
		objects:     []any{nil},
	}
	h := NewParseTaskHandler(db, &fakePresigner{}, aiSvc, newTestRedis(t), slog.Default())

	task, err := tasks.NewResumeParseTask(tasks.ResumeParsePayload{
		UserID:    1,
		FileName:  "jane.pdf",
		ObjectKey: "resumes/1/jane.pdf",
	})
	if err != nil {
		t.Fatalf("build task: %v", err)
	}

	if err := h.ProcessTask(context.Background(), task); err == nil {
		t.Fatalf("expected error")
	}

	var count int64
	db.Model(&database.Resume{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no resume record, got %d", count)
	}
}
