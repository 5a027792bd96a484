package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"folioforge/internal/ai"
	"folioforge/internal/api/middleware"
	"folioforge/internal/content"
	"folioforge/internal/database"
	"folioforge/internal/slug"
	"folioforge/internal/tasks"
)

type textGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// OptimizationHandler 负责发起针对岗位的简历优化并导出结果。
type OptimizationHandler struct {
	db          *gorm.DB
	asynqClient taskEnqueuer
	aiSvc       textGenerator
	logger      *slog.Logger
}

// NewOptimizationHandler 构造 OptimizationHandler。
func NewOptimizationHandler(db *gorm.DB, asynqClient taskEnqueuer, aiSvc textGenerator, logger *slog.Logger) *OptimizationHandler {
	return &OptimizationHandler{
		db:          db,
		asynqClient: asynqClient,
		aiSvc:       aiSvc,
		logger:      logger,
	}
}

var errInvalidOptimizationID = errors.New("invalid optimization id")

type createOptimizationRequest struct {
	ResumeID       uint   `json:"resume_id" binding:"required"`
	JobTitle       string `json:"job_title" binding:"required,max=255"`
	JobDescription string `json:"job_description" binding:"required"`
}

type optimizationResponse struct {
	ID                uint           `json:"id"`
	ResumeID          uint           `json:"resume_id"`
	JobTitle          string         `json:"job_title"`
	JobDescription    string         `json:"job_description"`
	OptimizationNotes datatypes.JSON `json:"optimization_notes,omitempty"`
	Status            string         `json:"status"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

func newOptimizationResponse(job database.JobOptimization) optimizationResponse {
	return optimizationResponse{
		ID:                job.ID,
		ResumeID:          job.ResumeID,
		JobTitle:          job.JobTitle,
		JobDescription:    job.JobDescription,
		OptimizationNotes: job.OptimizationNotes,
		Status:            job.Status,
		CreatedAt:         job.CreatedAt,
		UpdatedAt:         job.UpdatedAt,
	}
}

// CreateOptimization 建立 pending 记录并入队两阶段优化任务。
func (h *OptimizationHandler) CreateOptimization(c *gin.Context) {
	var req createOptimizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()

	var resume database.Resume
	if err := h.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", req.ResumeID, userID).
		First(&resume).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "resume not found")
			return
		}
		Internal(c, "failed to query resume")
		return
	}

	if _, err := content.DecodeResumeData(resume.ParsedData); err != nil {
		if errors.Is(err, content.ErrNoParsedData) {
			Conflict(c, "resume has not been parsed yet")
			return
		}
		Internal(c, "failed to decode resume")
		return
	}

	job := database.JobOptimization{
		UserID:         userID,
		ResumeID:       resume.ID,
		JobTitle:       req.JobTitle,
		JobDescription: req.JobDescription,
		Status:         database.OptimizationPending,
	}
	if err := h.db.WithContext(ctx).Create(&job).Error; err != nil {
		Internal(c, "failed to create optimization")
		return
	}

	correlationID := middleware.GetCorrelationID(c)
	task, err := tasks.NewOptimizeRunTask(tasks.OptimizeRunPayload{
		OptimizationID: job.ID,
		CorrelationID:  correlationID,
	})
	if err != nil {
		Internal(c, "failed to create task")
		return
	}

	info, err := h.asynqClient.EnqueueContext(ctx, task, asynq.MaxRetry(0))
	if err != nil {
		h.loggerFromContext(c).Error("enqueue optimization task failed", slog.Any("error", err))
		Internal(c, "failed to enqueue optimization")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"id":      job.ID,
		"status":  job.Status,
		"task_id": info.ID,
	})
}

type optimizationListItem struct {
	ID        uint      `json:"id"`
	ResumeID  uint      `json:"resume_id"`
	JobTitle  string    `json:"job_title"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ListOptimizations 列出用户全部优化记录。
func (h *OptimizationHandler) ListOptimizations(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var jobs []database.JobOptimization
	if err := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&jobs).Error; err != nil {
		Internal(c, "failed to list optimizations")
		return
	}

	items := make([]optimizationListItem, 0, len(jobs))
	for _, job := range jobs {
		items = append(items, optimizationListItem{
			ID:        job.ID,
			ResumeID:  job.ResumeID,
			JobTitle:  job.JobTitle,
			Status:    job.Status,
			CreatedAt: job.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, items)
}

// GetOptimization 返回指定优化记录，含阶段性结果。
func (h *OptimizationHandler) GetOptimization(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	job, err := h.getOptimizationForUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		switch {
		case errors.Is(err, errInvalidOptimizationID):
			BadRequest(c, "invalid optimization id")
		case errors.Is(err, gorm.ErrRecordNotFound):
			NotFound(c, "optimization not found")
		default:
			Internal(c, "failed to query optimization")
		}
		return
	}

	c.JSON(http.StatusOK, newOptimizationResponse(*job))
}

// ExportOptimization 即时渲染优化结果为纯文本附件。每次调用都重新生成，
// 服务端不保存产物。
func (h *OptimizationHandler) ExportOptimization(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	job, err := h.getOptimizationForUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		switch {
		case errors.Is(err, errInvalidOptimizationID):
			BadRequest(c, "invalid optimization id")
		case errors.Is(err, gorm.ErrRecordNotFound):
			NotFound(c, "optimization not found")
		default:
			Internal(c, "failed to query optimization")
		}
		return
	}

	if job.Status != database.OptimizationCompleted {
		Conflict(c, "optimization is not completed")
		return
	}

	var result content.OptimizationResult
	if err := json.Unmarshal(job.OptimizationNotes, &result); err != nil {
		Internal(c, "failed to decode optimization result")
		return
	}

	text, err := h.aiSvc.GenerateText(c.Request.Context(), ai.ExportPrompt(result.OptimizedContent))
	if err != nil {
		h.loggerFromContext(c).Error("render optimized resume failed", slog.Any("error", err))
		Internal(c, "failed to render optimized resume")
		return
	}

	fileName := fmt.Sprintf("optimized-resume-%s.txt", slug.Make(job.JobTitle))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}

func (h *OptimizationHandler) getOptimizationForUser(ctx context.Context, idParam string, userID uint) (*database.JobOptimization, error) {
	jobID, err := strconv.ParseUint(idParam, 10, 64)
	if err != nil {
		return nil, errInvalidOptimizationID
	}

	var job database.JobOptimization
	if err := h.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", uint(jobID), userID).
		First(&job).Error; err != nil {
		return nil, err
	}

	return &job, nil
}

func (h *OptimizationHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}
