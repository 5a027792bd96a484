package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"folioforge/internal/ai"
	"folioforge/internal/content"
	"folioforge/internal/database"
	"folioforge/internal/errcode"
	"folioforge/internal/tasks"
)

// extractLinkTTL bounds how long the AI collaborator can read the uploaded
// blob through its presigned link.
const extractLinkTTL = 10 * time.Minute

type objectPresigner interface {
	GeneratePresignedURL(ctx context.Context, objectKey string, duration time.Duration) (string, error)
}

type aiParser interface {
	ExtractFromURL(ctx context.Context, url string) (string, error)
	GenerateObject(ctx context.Context, prompt string, schema map[string]any, out any) error
}

// ParseTaskHandler consumes resume parse tasks. The Resume record is written
// only after extraction and structuring both succeed; a failed parse leaves
// the uploaded blob behind but never a partial record.
type ParseTaskHandler struct {
	db      *gorm.DB
	storage objectPresigner
	aiSvc   aiParser
	redis   redis.UniversalClient
	logger  *slog.Logger
}

// NewParseTaskHandler 创建任务处理器。
func NewParseTaskHandler(db *gorm.DB, storage objectPresigner, aiSvc aiParser, redisClient redis.UniversalClient, logger *slog.Logger) *ParseTaskHandler {
	return &ParseTaskHandler{
		db:      db,
		storage: storage,
		aiSvc:   aiSvc,
		redis:   redisClient,
		logger:  logger,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *ParseTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	log := h.logger

	var payload tasks.ResumeParsePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal task payload failed", slog.Any("error", err))
		return err
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Uint64("user_id", uint64(payload.UserID)),
		slog.String("file_name", payload.FileName),
	)
	log.Info("starting resume parse task")

	defer func() {
		if retErr == nil {
			return
		}
		if !isFinalAsynqAttempt(ctx) {
			return
		}
		notify := NotifyMessage{
			Type:          EventResumeFailed,
			CorrelationID: payload.CorrelationID,
			FileName:      payload.FileName,
			ErrorCode:     errcode.UnparsableFile,
			ErrorMessage:  strings.TrimSpace(retErr.Error()),
		}
		if err := PublishNotify(ctx, h.redis, payload.UserID, notify); err != nil {
			log.Error("publish parse error notification failed", slog.Any("error", err))
		}
	}()

	if err := PublishNotify(ctx, h.redis, payload.UserID, NotifyMessage{
		Type:          EventResumeParsing,
		CorrelationID: payload.CorrelationID,
		FileName:      payload.FileName,
	}); err != nil {
		log.Warn("publish parsing notification failed", slog.Any("error", err))
	}

	fileURL, err := h.storage.GeneratePresignedURL(ctx, payload.ObjectKey, extractLinkTTL)
	if err != nil {
		log.Error("presign uploaded object failed", slog.Any("error", err))
		return err
	}

	extracted, err := h.aiSvc.ExtractFromURL(ctx, fileURL)
	if err != nil {
		log.Error("extract resume text failed", slog.Any("error", err))
		return err
	}

	var parsed content.ResumeData
	if err := h.aiSvc.GenerateObject(ctx, ai.ParsePrompt(extracted), ai.ResumeParseSchema(), &parsed); err != nil {
		log.Error("structure resume text failed", slog.Any("error", err))
		return err
	}

	parsedBlob, err := json.Marshal(parsed)
	if err != nil {
		log.Error("marshal parsed resume failed", slog.Any("error", err))
		return err
	}

	resume := database.Resume{
		UserID:     payload.UserID,
		FileName:   payload.FileName,
		FileURL:    payload.ObjectKey,
		FileSize:   payload.FileSize,
		ParsedData: datatypes.JSON(parsedBlob),
		IsActive:   true,
	}
	if err := h.db.WithContext(ctx).Create(&resume).Error; err != nil {
		log.Error("create resume record failed", slog.Any("error", err))
		return err
	}

	// 通知尽力而为，数据库才是事实来源。
	if err := PublishNotify(ctx, h.redis, payload.UserID, NotifyMessage{
		Type:          EventResumeReady,
		CorrelationID: payload.CorrelationID,
		FileName:      payload.FileName,
		ResumeID:      resume.ID,
		ErrorCode:     errcode.OK,
	}); err != nil {
		log.Warn("publish resume ready notification failed", slog.Any("error", err))
	}

	log.Info("resume parse task completed", slog.Uint64("resume_id", uint64(resume.ID)))
	return nil
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}
