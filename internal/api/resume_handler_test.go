package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"folioforge/internal/database"
)

type fakeStorage struct {
	uploaded map[string][]byte
	deleted  []string
	failOn   map[string]error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{uploaded: map[string][]byte{}}
}

func (s *fakeStorage) UploadFile(_ context.Context, objectName string, reader io.Reader, _ int64, _ string, onProgress func(int)) (*minio.UploadInfo, error) {
	if err, ok := s.failOn[objectName]; ok {
		return nil, err
	}
	b, _ := io.ReadAll(reader)
	s.uploaded[objectName] = b
	if onProgress != nil {
		onProgress(100)
	}
	return &minio.UploadInfo{}, nil
}

func (s *fakeStorage) DeleteObject(_ context.Context, objectKey string) error {
	s.deleted = append(s.deleted, objectKey)
	delete(s.uploaded, objectKey)
	return nil
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
}

func (e *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	e.tasks = append(e.tasks, task)
	return &asynq.TaskInfo{ID: "task-" + task.Type()}, nil
}

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

// 指向不存在的地址：通知发布是尽力而为，失败不应影响请求路径。
func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	return redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
}

func newResumeTestHandler(t *testing.T, db *gorm.DB) (*ResumeHandler, *fakeStorage, *fakeEnqueuer) {
	t.Helper()
	storage := newFakeStorage()
	enqueuer := &fakeEnqueuer{}
	h := &ResumeHandler{
		db:           db,
		asynqClient:  enqueuer,
		storage:      storage,
		redis:        newTestRedis(t),
		maxFileBytes: 10 * 1024 * 1024,
	}
	return h, storage, enqueuer
}

type uploadPart struct {
	fileName    string
	contentType string
	content     []byte
}

func newResumeUpload(t *testing.T, parts []uploadPart) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, p := range parts {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="files"; filename="`+p.fileName+`"`)
		header.Set("Content-Type", p.contentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write(p.content); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func doUpload(t *testing.T, h *ResumeHandler, parts []uploadPart) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	body, contentType := newResumeUpload(t, parts)
	req := httptest.NewRequest(http.MethodPost, "/v1/resumes/upload", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set("userID", uint(1))

	h.UploadResumes(c)
	return w
}

func TestUploadResumes_RejectsWholeBatchOnBadType(t *testing.T) {
	db := newTestDB(t)
	h, storage, enqueuer := newResumeTestHandler(t, db)

	w := doUpload(t, h, []uploadPart{
		{fileName: "good.pdf", contentType: "application/pdf", content: []byte("%PDF-1.4")},
		{fileName: "bad.png", contentType: "image/png", content: []byte("\x89PNG")},
	})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
	if len(storage.uploaded) != 0 {
		t.Fatalf("expected no uploads, got %d", len(storage.uploaded))
	}
	if len(enqueuer.tasks) != 0 {
		t.Fatalf("expected no tasks, got %d", len(enqueuer.tasks))
	}
}

func TestUploadResumes_RejectsWholeBatchOnOversizeFile(t *testing.T) {
	db := newTestDB(t)
	h, storage, _ := newResumeTestHandler(t, db)
	h.maxFileBytes = 16

	w := doUpload(t, h, []uploadPart{
		{fileName: "small.pdf", contentType: "application/pdf", content: []byte("tiny")},
		{fileName: "big.pdf", contentType: "application/pdf", content: bytes.Repeat([]byte("a"), 64)},
	})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
	if len(storage.uploaded) != 0 {
		t.Fatalf("expected no uploads, got %d", len(storage.uploaded))
	}
}

func TestUploadResumes_AcceptsBatchAndEnqueues(t *testing.T) {
	db := newTestDB(t)
	h, storage, enqueuer := newResumeTestHandler(t, db)

	w := doUpload(t, h, []uploadPart{
		{fileName: "one.pdf", contentType: "application/pdf", content: []byte("%PDF-1.4 one")},
		{fileName: "two.docx", contentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document", content: []byte("docx bytes")},
	})

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202 got %d body=%s", w.Code, w.Body.String())
	}
	if len(storage.uploaded) != 2 {
		t.Fatalf("expected 2 uploads, got %d", len(storage.uploaded))
	}
	if _, ok := storage.uploaded["resumes/1/one.pdf"]; !ok {
		t.Fatalf("missing object key, uploaded=%v", storage.uploaded)
	}
	if len(enqueuer.tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(enqueuer.tasks))
	}
}

// 校验通过后一个文件上传失败，不能拖垮同批其余文件。
func TestUploadResumes_MidBatchFailureSkipsOnlyThatFile(t *testing.T) {
	db := newTestDB(t)
	h, storage, enqueuer := newResumeTestHandler(t, db)
	storage.failOn = map[string]error{"resumes/1/two.pdf": errors.New("bucket unavailable")}

	w := doUpload(t, h, []uploadPart{
		{fileName: "one.pdf", contentType: "application/pdf", content: []byte("%PDF-1.4 one")},
		{fileName: "two.pdf", contentType: "application/pdf", content: []byte("%PDF-1.4 two")},
		{fileName: "three.pdf", contentType: "application/pdf", content: []byte("%PDF-1.4 three")},
	})

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202 got %d body=%s", w.Code, w.Body.String())
	}
	if len(storage.uploaded) != 2 {
		t.Fatalf("expected 2 uploads, got %v", storage.uploaded)
	}
	if _, ok := storage.uploaded["resumes/1/three.pdf"]; !ok {
		t.Fatalf("file after the failed one was not processed, uploaded=%v", storage.uploaded)
	}
	if len(enqueuer.tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(enqueuer.tasks))
	}

	var resp struct {
		Tasks []struct {
			FileName string `json:"file_name"`
			TaskID   string `json:"task_id"`
			Error    string `json:"error"`
		} `json:"tasks"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(resp.Tasks) != 3 {
		t.Fatalf("expected 3 items, got %v", resp.Tasks)
	}
	if resp.Tasks[0].TaskID == "" || resp.Tasks[0].Error != "" {
		t.Errorf("first file should carry a task id: %+v", resp.Tasks[0])
	}
	if resp.Tasks[1].Error == "" || resp.Tasks[1].TaskID != "" {
		t.Errorf("failed file should carry an error, not a task id: %+v", resp.Tasks[1])
	}
	if resp.Tasks[2].TaskID == "" {
		t.Errorf("third file should carry a task id: %+v", resp.Tasks[2])
	}
}

func TestDeleteResume_RemovesRecordAndBlob(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	h, storage, _ := newResumeTestHandler(t, db)

	resume := database.Resume{UserID: 1, FileName: "cv.pdf", FileURL: "resumes/1/cv.pdf"}
	if err := db.Create(&resume).Error; err != nil {
		t.Fatalf("seed resume: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/v1/resumes/1", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	c.Set("userID", uint(1))

	h.DeleteResume(c)
	// gin defers writing a body-less status until the engine flushes it;
	// with a bare test context we must flush explicitly.
	c.Writer.WriteHeaderNow()

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d body=%s", w.Code, w.Body.String())
	}
	var count int64
	db.Model(&database.Resume{}).Where("id = ?", resume.ID).Count(&count)
	if count != 0 {
		t.Fatalf("expected record deleted, count=%d", count)
	}
	if len(storage.deleted) != 1 || storage.deleted[0] != "resumes/1/cv.pdf" {
		t.Fatalf("expected blob delete, got %v", storage.deleted)
	}
}

func TestDeleteResume_OtherUsersResumeIsHidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	h, _, _ := newResumeTestHandler(t, db)

	resume := database.Resume{UserID: 2, FileName: "cv.pdf", FileURL: "resumes/2/cv.pdf"}
	if err := db.Create(&resume).Error; err != nil {
		t.Fatalf("seed resume: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/v1/resumes/1", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	c.Set("userID", uint(1))

	h.DeleteResume(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d body=%s", w.Code, w.Body.String())
	}
}
