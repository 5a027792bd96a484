package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"folioforge/internal/content"
	"folioforge/internal/database"
	"folioforge/internal/slug"
)

// PortfolioHandler 覆盖作品集向导的服务端：草稿预填、保存与管理。
type PortfolioHandler struct {
	db *gorm.DB
}

// NewPortfolioHandler 构造 PortfolioHandler。
func NewPortfolioHandler(db *gorm.DB) *PortfolioHandler {
	return &PortfolioHandler{db: db}
}

var errInvalidPortfolioID = errors.New("invalid portfolio id")

// GetDraft 根据已解析的简历预填作品集草稿。简历未解析时返回 409。
func (h *PortfolioHandler) GetDraft(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	resumeID, err := strconv.ParseUint(c.Query("resume_id"), 10, 64)
	if err != nil {
		BadRequest(c, "invalid resume_id")
		return
	}

	ctx := c.Request.Context()
	var resume database.Resume
	if err := h.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", uint(resumeID), userID).
		First(&resume).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "resume not found")
			return
		}
		Internal(c, "failed to query resume")
		return
	}

	data, err := content.DecodeResumeData(resume.ParsedData)
	if err != nil {
		if errors.Is(err, content.ErrNoParsedData) {
			Conflict(c, "resume has not been parsed yet")
			return
		}
		Internal(c, "failed to decode resume")
		return
	}

	c.JSON(http.StatusOK, content.SeedDraft(data))
}

type savePortfolioRequest struct {
	TemplateID uint `json:"template_id" binding:"required"`
	content.PortfolioDraft
}

type portfolioResponse struct {
	ID          uint           `json:"id"`
	Title       string         `json:"title"`
	Subdomain   string         `json:"subdomain"`
	TemplateID  uint           `json:"template_id"`
	ThemeConfig datatypes.JSON `json:"theme_config"`
	ContentData datatypes.JSON `json:"content_data"`
	IsPublished bool           `json:"is_published"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func newPortfolioResponse(p database.Portfolio) portfolioResponse {
	return portfolioResponse{
		ID:          p.ID,
		Title:       p.Title,
		Subdomain:   p.Subdomain,
		TemplateID:  p.TemplateID,
		ThemeConfig: p.ThemeConfig,
		ContentData: p.ContentData,
		IsPublished: p.IsPublished.Bool(),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// CreatePortfolio 保存向导产出。主题配置从模板原样复制，保存即发布；
// 子域名冲突返回 409，由调用方换一个再试。
func (h *PortfolioHandler) CreatePortfolio(c *gin.Context) {
	var req savePortfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	title := strings.TrimSpace(req.Title)
	subdomain := strings.ToLower(strings.TrimSpace(req.Subdomain))
	if title == "" {
		BadRequest(c, "title is required")
		return
	}
	if subdomain == "" {
		BadRequest(c, "subdomain is required")
		return
	}
	if !slug.IsValid(subdomain) {
		BadRequest(c, "subdomain may only contain lowercase letters, digits and hyphens")
		return
	}

	ctx := c.Request.Context()

	var template database.Template
	if err := h.db.WithContext(ctx).First(&template, req.TemplateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			BadRequest(c, "unknown template")
			return
		}
		Internal(c, "failed to query template")
		return
	}

	var existing database.Portfolio
	if err := h.db.WithContext(ctx).Where("subdomain = ?", subdomain).First(&existing).Error; err == nil {
		Conflict(c, "subdomain already taken")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		Internal(c, "failed to query portfolios")
		return
	}

	draft := req.PortfolioDraft
	draft.Title = title
	draft.Subdomain = subdomain
	contentData, err := json.Marshal(draft)
	if err != nil {
		Internal(c, "failed to serialize portfolio content")
		return
	}

	portfolio := database.Portfolio{
		UserID:      userID,
		Title:       title,
		Subdomain:   subdomain,
		TemplateID:  template.ID,
		ThemeConfig: template.TemplateConfig,
		ContentData: datatypes.JSON(contentData),
		IsPublished: true,
	}

	if err := h.db.WithContext(ctx).Create(&portfolio).Error; err != nil {
		// 预检和写入之间的并发冲突仍会触发唯一索引。
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			Conflict(c, "subdomain already taken")
			return
		}
		Internal(c, "failed to create portfolio")
		return
	}

	c.JSON(http.StatusCreated, newPortfolioResponse(portfolio))
}

type portfolioListItem struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Subdomain   string    `json:"subdomain"`
	TemplateID  uint      `json:"template_id"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListPortfolios 列出用户全部作品集。
func (h *PortfolioHandler) ListPortfolios(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var portfolios []database.Portfolio
	if err := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&portfolios).Error; err != nil {
		Internal(c, "failed to list portfolios")
		return
	}

	items := make([]portfolioListItem, 0, len(portfolios))
	for _, p := range portfolios {
		items = append(items, portfolioListItem{
			ID:          p.ID,
			Title:       p.Title,
			Subdomain:   p.Subdomain,
			TemplateID:  p.TemplateID,
			IsPublished: p.IsPublished.Bool(),
			CreatedAt:   p.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, items)
}

// GetPortfolio 返回指定作品集。
func (h *PortfolioHandler) GetPortfolio(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	portfolio, err := h.getPortfolioForUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		switch {
		case errors.Is(err, errInvalidPortfolioID):
			BadRequest(c, "invalid portfolio id")
		case errors.Is(err, gorm.ErrRecordNotFound):
			NotFound(c, "portfolio not found")
		default:
			Internal(c, "failed to query portfolio")
		}
		return
	}

	c.JSON(http.StatusOK, newPortfolioResponse(*portfolio))
}

// DeletePortfolio 删除指定作品集。
func (h *PortfolioHandler) DeletePortfolio(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	portfolio, err := h.getPortfolioForUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		switch {
		case errors.Is(err, errInvalidPortfolioID):
			BadRequest(c, "invalid portfolio id")
		case errors.Is(err, gorm.ErrRecordNotFound):
			NotFound(c, "portfolio not found")
		default:
			Internal(c, "failed to query portfolio")
		}
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Delete(&database.Portfolio{}, portfolio.ID).Error; err != nil {
		Internal(c, "failed to delete portfolio")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *PortfolioHandler) getPortfolioForUser(ctx context.Context, idParam string, userID uint) (*database.Portfolio, error) {
	portfolioID, err := strconv.ParseUint(idParam, 10, 64)
	if err != nil {
		return nil, errInvalidPortfolioID
	}

	var portfolio database.Portfolio
	if err := h.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", uint(portfolioID), userID).
		First(&portfolio).Error; err != nil {
		return nil, err
	}

	return &portfolio, nil
}
