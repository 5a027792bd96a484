package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/dutchcoders/go-clamd"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"folioforge/internal/api/middleware"
	"folioforge/internal/database"
	"folioforge/internal/storage"
	"folioforge/internal/tasks"
	"folioforge/internal/worker"
)

// 接受的简历文件类型。
var allowedResumeMIMETypes = map[string]struct{}{
	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
}

type objectStore interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string, onProgress func(percent int)) (*minio.UploadInfo, error)
	DeleteObject(ctx context.Context, objectKey string) error
}

type taskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type virusScanner interface {
	ScanStream(r io.Reader, abort chan bool) (chan *clamd.ScanResult, error)
}

// ResumeHandler 负责简历上传、查询与删除。
type ResumeHandler struct {
	db           *gorm.DB
	asynqClient  taskEnqueuer
	storage      objectStore
	scanner      virusScanner
	redis        redis.UniversalClient
	logger       *slog.Logger
	maxFileBytes int64
}

// NewResumeHandler 构造 ResumeHandler。
func NewResumeHandler(db *gorm.DB, asynqClient taskEnqueuer, storageClient objectStore, redisClient redis.UniversalClient, logger *slog.Logger, clamdAddr string, maxFileBytes int64) *ResumeHandler {
	var scanner virusScanner
	if clamdAddr != "" {
		scanner = clamd.NewClamd(clamdAddr)
	}
	return &ResumeHandler{
		db:           db,
		asynqClient:  asynqClient,
		storage:      storageClient,
		scanner:      scanner,
		redis:        redisClient,
		logger:       logger,
		maxFileBytes: maxFileBytes,
	}
}

var errInvalidResumeID = errors.New("invalid resume id")

type uploadTaskItem struct {
	FileName string `json:"file_name"`
	TaskID   string `json:"task_id,omitempty"`
	Error    string `json:"error,omitempty"`
}

// UploadResumes 接收一批简历文件。批次校验是全有或全无：任何一个文件
// 类型或大小不合法，整批拒绝，不落任何字节。校验之后每个文件各自成败：
// 单个文件失败只记在它自己的条目上，其余文件继续处理。
func (h *ResumeHandler) UploadResumes(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		BadRequest(c, "invalid multipart form")
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		BadRequest(c, "no files provided")
		return
	}

	// 先整批校验，再处理任何文件。
	for _, file := range files {
		contentType := file.Header.Get("Content-Type")
		if _, ok := allowedResumeMIMETypes[contentType]; !ok {
			BadRequest(c, fmt.Sprintf("%s is not a PDF or Word document", file.Filename))
			return
		}
		if file.Size > h.maxFileBytes {
			BadRequest(c, fmt.Sprintf("%s exceeds the maximum file size", file.Filename))
			return
		}
	}

	ctx := c.Request.Context()
	correlationID := middleware.GetCorrelationID(c)
	logger := h.loggerFromContext(c).With(
		slog.Uint64("user_id", uint64(userID)),
		slog.String("correlation_id", correlationID),
	)

	items := make([]uploadTaskItem, 0, len(files))
	for _, file := range files {
		items = append(items, h.processUploadFile(ctx, logger, userID, correlationID, file))
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "resume parsing started",
		"tasks":   items,
	})
}

// processUploadFile 扫描、上传并入队单个文件。失败写入条目的 error 字段，
// 不中断批次。
func (h *ResumeHandler) processUploadFile(ctx context.Context, logger *slog.Logger, userID uint, correlationID string, file *multipart.FileHeader) uploadTaskItem {
	item := uploadTaskItem{FileName: file.Filename}

	if err := h.scanFile(file); err != nil {
		if errors.Is(err, errMaliciousFile) {
			logger.Info("malicious file rejected", slog.String("file_name", file.Filename))
			item.Error = "failed the malware scan"
			return item
		}
		logger.Error("scan file failed", slog.String("file_name", file.Filename), slog.Any("error", err))
		item.Error = "failed to scan file"
		return item
	}

	reader, err := file.Open()
	if err != nil {
		logger.Error("open file failed", slog.String("file_name", file.Filename), slog.Any("error", err))
		item.Error = "failed to read file"
		return item
	}

	objectKey := storage.ResumeObjectKey(userID, file.Filename)
	contentType := file.Header.Get("Content-Type")
	fileName := file.Filename
	onProgress := func(percent int) {
		_ = worker.PublishNotify(ctx, h.redis, userID, worker.NotifyMessage{
			Type:          worker.EventUploadProgress,
			CorrelationID: correlationID,
			FileName:      fileName,
			Percent:       percent,
		})
	}
	_, err = h.storage.UploadFile(ctx, objectKey, reader, file.Size, contentType, onProgress)
	reader.Close()
	if err != nil {
		logger.Error("upload file failed", slog.String("file_name", fileName), slog.Any("error", err))
		item.Error = "failed to upload file"
		return item
	}

	task, err := tasks.NewResumeParseTask(tasks.ResumeParsePayload{
		UserID:        userID,
		FileName:      fileName,
		ObjectKey:     objectKey,
		FileSize:      file.Size,
		CorrelationID: correlationID,
	})
	if err != nil {
		logger.Error("create parse task failed", slog.String("file_name", fileName), slog.Any("error", err))
		item.Error = "failed to schedule parsing"
		return item
	}

	info, err := h.asynqClient.EnqueueContext(ctx, task, asynq.MaxRetry(0))
	if err != nil {
		logger.Error("enqueue parse task failed", slog.String("file_name", fileName), slog.Any("error", err))
		item.Error = "failed to schedule parsing"
		return item
	}

	logger.Info("resume upload accepted", slog.String("file_name", fileName), slog.String("task_id", info.ID))
	item.TaskID = info.ID
	return item
}

var errMaliciousFile = errors.New("malicious file detected")

func (h *ResumeHandler) scanFile(file *multipart.FileHeader) error {
	if h.scanner == nil {
		return nil
	}

	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("open file for scan: %w", err)
	}

	abortChan := make(chan bool)
	scanChan, err := h.scanner.ScanStream(reader, abortChan)
	reader.Close()
	if err != nil {
		return fmt.Errorf("scan stream: %w", err)
	}
	defer close(abortChan)

	for result := range scanChan {
		if result.Status != clamd.RES_OK {
			return errMaliciousFile
		}
	}
	return nil
}

type resumeListItem struct {
	ID        uint      `json:"id"`
	FileName  string    `json:"file_name"`
	FileSize  int64     `json:"file_size"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type resumeResponse struct {
	ID         uint           `json:"id"`
	FileName   string         `json:"file_name"`
	FileSize   int64          `json:"file_size"`
	ParsedData datatypes.JSON `json:"parsed_data"`
	IsActive   bool           `json:"is_active"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func newResumeResponse(r database.Resume) resumeResponse {
	return resumeResponse{
		ID:         r.ID,
		FileName:   r.FileName,
		FileSize:   r.FileSize,
		ParsedData: r.ParsedData,
		IsActive:   r.IsActive.Bool(),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// ListResumes 列出用户全部简历，最新在前。
func (h *ResumeHandler) ListResumes(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var resumes []database.Resume
	if err := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&resumes).Error; err != nil {
		Internal(c, "failed to list resumes")
		return
	}

	items := make([]resumeListItem, 0, len(resumes))
	for _, r := range resumes {
		items = append(items, resumeListItem{
			ID:        r.ID,
			FileName:  r.FileName,
			FileSize:  r.FileSize,
			IsActive:  r.IsActive.Bool(),
			CreatedAt: r.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, items)
}

// GetResume 返回指定 ID 的简历。
func (h *ResumeHandler) GetResume(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	resume, err := h.getResumeForUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		switch {
		case errors.Is(err, errInvalidResumeID):
			BadRequest(c, "invalid resume id")
		case errors.Is(err, gorm.ErrRecordNotFound):
			NotFound(c, "resume not found")
		default:
			Internal(c, "failed to query resume")
		}
		return
	}

	c.JSON(http.StatusOK, newResumeResponse(*resume))
}

// DeleteResume 删除记录，随后尽力删除对象存储中的文件。
func (h *ResumeHandler) DeleteResume(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	resume, err := h.getResumeForUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		switch {
		case errors.Is(err, errInvalidResumeID):
			BadRequest(c, "invalid resume id")
		case errors.Is(err, gorm.ErrRecordNotFound):
			NotFound(c, "resume not found")
		default:
			Internal(c, "failed to query resume")
		}
		return
	}

	ctx := c.Request.Context()
	if err := h.db.WithContext(ctx).Delete(&database.Resume{}, resume.ID).Error; err != nil {
		Internal(c, "failed to delete resume")
		return
	}

	if resume.FileURL != "" {
		if err := h.storage.DeleteObject(ctx, resume.FileURL); err != nil {
			h.loggerFromContext(c).Warn("delete resume blob failed",
				slog.String("object_key", resume.FileURL),
				slog.Any("error", err),
			)
		}
	}

	c.Status(http.StatusNoContent)
}

func (h *ResumeHandler) getResumeForUser(ctx context.Context, idParam string, userID uint) (*database.Resume, error) {
	resumeID, err := strconv.ParseUint(idParam, 10, 64)
	if err != nil {
		return nil, errInvalidResumeID
	}

	var resume database.Resume
	if err := h.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", uint(resumeID), userID).
		First(&resume).Error; err != nil {
		return nil, err
	}

	return &resume, nil
}

func (h *ResumeHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}

func userIDFromContext(c *gin.Context) (uint, bool) {
	value, exists := c.Get("userID")
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	case uint64:
		return uint(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	default:
		return 0, false
	}
}
