package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

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

type aiOptimizer interface {
	GenerateObject(ctx context.Context, prompt string, schema map[string]any, out any) error
}

// OptimizeTaskHandler runs the two-phase optimization saga. Phase one scores
// the resume against the job posting and is persisted before phase two runs,
// so a rewrite failure never loses the analysis.
type OptimizeTaskHandler struct {
	db     *gorm.DB
	aiSvc  aiOptimizer
	redis  redis.UniversalClient
	logger *slog.Logger
}

// NewOptimizeTaskHandler 创建任务处理器。
func NewOptimizeTaskHandler(db *gorm.DB, aiSvc aiOptimizer, redisClient redis.UniversalClient, logger *slog.Logger) *OptimizeTaskHandler {
	return &OptimizeTaskHandler{
		db:     db,
		aiSvc:  aiSvc,
		redis:  redisClient,
		logger: logger,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *OptimizeTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload tasks.OptimizeRunPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Error("unmarshal task payload failed", slog.Any("error", err))
		return err
	}

	log := h.logger.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Uint64("optimization_id", uint64(payload.OptimizationID)),
	)
	log.Info("starting optimization task")

	var job database.JobOptimization
	if err := h.db.WithContext(ctx).First(&job, payload.OptimizationID).Error; err != nil {
		log.Error("load optimization record failed", slog.Any("error", err))
		return err
	}
	log = log.With(slog.Uint64("user_id", uint64(job.UserID)))

	var resume database.Resume
	if err := h.db.WithContext(ctx).
		Where("user_id = ?", job.UserID).
		First(&resume, job.ResumeID).Error; err != nil {
		log.Error("load source resume failed", slog.Any("error", err))
		return h.fail(ctx, log, &job, payload.CorrelationID, database.OptimizationFailed, err)
	}

	resumeData, err := content.DecodeResumeData(resume.ParsedData)
	if err != nil {
		log.Error("decode parsed resume failed", slog.Any("error", err))
		return h.fail(ctx, log, &job, payload.CorrelationID, database.OptimizationFailed, err)
	}

	// Phase 1: analysis.
	var analysis content.AnalysisResult
	prompt := ai.AnalysisPrompt(resumeData, job.JobDescription, job.JobTitle)
	if err := h.aiSvc.GenerateObject(ctx, prompt, ai.AnalysisSchema(), &analysis); err != nil {
		log.Error("analysis phase failed", slog.Any("error", err))
		return h.fail(ctx, log, &job, payload.CorrelationID, database.OptimizationFailed, err)
	}

	analysisBlob, err := json.Marshal(analysis)
	if err != nil {
		return h.fail(ctx, log, &job, payload.CorrelationID, database.OptimizationFailed, err)
	}
	if err := h.db.WithContext(ctx).Model(&job).Updates(map[string]any{
		"optimization_notes": datatypes.JSON(analysisBlob),
		"status":             database.OptimizationAnalyzed,
	}).Error; err != nil {
		log.Error("persist analysis failed", slog.Any("error", err))
		return err
	}
	log.Info("analysis phase persisted")

	if err := PublishNotify(ctx, h.redis, job.UserID, NotifyMessage{
		Type:           EventOptimizationAnalyzed,
		CorrelationID:  payload.CorrelationID,
		OptimizationID: job.ID,
	}); err != nil {
		log.Warn("publish analysis notification failed", slog.Any("error", err))
	}

	// Phase 2: rewrite, fed by phase 1's output.
	var rewritten content.ResumeData
	rewritePrompt := ai.RewritePrompt(resumeData, analysis, job.JobDescription)
	if err := h.aiSvc.GenerateObject(ctx, rewritePrompt, ai.RewriteSchema(), &rewritten); err != nil {
		log.Error("rewrite phase failed", slog.Any("error", err))
		return h.fail(ctx, log, &job, payload.CorrelationID, database.OptimizationFailedRewrite, err)
	}

	result := content.CombineOptimization(&analysis, &rewritten)
	resultBlob, err := json.Marshal(result)
	if err != nil {
		return h.fail(ctx, log, &job, payload.CorrelationID, database.OptimizationFailedRewrite, err)
	}

	if err := h.db.WithContext(ctx).Model(&job).Updates(map[string]any{
		"optimization_notes": datatypes.JSON(resultBlob),
		"status":             database.OptimizationCompleted,
	}).Error; err != nil {
		log.Error("persist optimization result failed", slog.Any("error", err))
		return err
	}

	// 通知尽力而为，数据库才是事实来源。
	if err := PublishNotify(ctx, h.redis, job.UserID, NotifyMessage{
		Type:           EventOptimizationDone,
		CorrelationID:  payload.CorrelationID,
		OptimizationID: job.ID,
		ErrorCode:      errcode.OK,
	}); err != nil {
		log.Warn("publish completion notification failed", slog.Any("error", err))
	}

	log.Info("optimization task completed", slog.Float64("score", result.Score))
	return nil
}

// fail moves the record to a terminal failure status and notifies the user.
// The returned error is the cause wrapped with the status transition.
func (h *OptimizeTaskHandler) fail(ctx context.Context, log *slog.Logger, job *database.JobOptimization, correlationID, status string, cause error) error {
	if err := h.db.WithContext(ctx).Model(job).Update("status", status).Error; err != nil {
		log.Error("mark optimization failed", slog.Any("error", err), slog.String("status", status))
	}
	if !isFinalAsynqAttempt(ctx) {
		return cause
	}
	notify := NotifyMessage{
		Type:           EventOptimizationFailed,
		CorrelationID:  correlationID,
		OptimizationID: job.ID,
		ErrorCode:      errcode.SystemError,
		ErrorMessage:   strings.TrimSpace(cause.Error()),
	}
	if err := PublishNotify(ctx, h.redis, job.UserID, notify); err != nil {
		log.Error("publish failure notification failed", slog.Any("error", err))
	}
	return fmt.Errorf("optimization %s: %w", status, cause)
}

var _ asynq.Handler = (*OptimizeTaskHandler)(nil)
var _ asynq.Handler = (*ParseTaskHandler)(nil)
