package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"folioforge/internal/database"
)

// DashboardHandler 汇总用户的资源计数。
type DashboardHandler struct {
	db *gorm.DB
}

// NewDashboardHandler 构造 DashboardHandler。
func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{db: db}
}

type dashboardStats struct {
	Resumes       int64 `json:"resumes"`
	Portfolios    int64 `json:"portfolios"`
	Optimizations int64 `json:"optimizations"`
}

// GetStats 返回当前用户的简历、作品集与优化任务数量。
func (h *DashboardHandler) GetStats(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	var stats dashboardStats

	if err := h.db.WithContext(ctx).Model(&database.Resume{}).
		Where("user_id = ?", userID).Count(&stats.Resumes).Error; err != nil {
		Internal(c, "failed to count resumes")
		return
	}
	if err := h.db.WithContext(ctx).Model(&database.Portfolio{}).
		Where("user_id = ?", userID).Count(&stats.Portfolios).Error; err != nil {
		Internal(c, "failed to count portfolios")
		return
	}
	if err := h.db.WithContext(ctx).Model(&database.JobOptimization{}).
		Where("user_id = ?", userID).Count(&stats.Optimizations).Error; err != nil {
		Internal(c, "failed to count optimizations")
		return
	}

	c.JSON(http.StatusOK, stats)
}
