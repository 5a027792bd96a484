package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"folioforge/internal/database"
)

// TemplateHandler 提供公开的模板目录，只读。
type TemplateHandler struct {
	db *gorm.DB
}

// NewTemplateHandler 构造 TemplateHandler。
func NewTemplateHandler(db *gorm.DB) *TemplateHandler {
	return &TemplateHandler{db: db}
}

type templateResponse struct {
	ID             uint           `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	Category       string         `json:"category"`
	IsPremium      bool           `json:"is_premium"`
	TemplateConfig datatypes.JSON `json:"template_config"`
	CreatedAt      time.Time      `json:"created_at"`
}

func newTemplateResponse(t database.Template) templateResponse {
	return templateResponse{
		ID:             t.ID,
		Name:           t.Name,
		Description:    t.Description,
		Category:       t.Category,
		IsPremium:      t.IsPremium.Bool(),
		TemplateConfig: t.TemplateConfig,
		CreatedAt:      t.CreatedAt,
	}
}

// ListTemplates 返回完整模板目录。
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	var templates []database.Template
	if err := h.db.WithContext(c.Request.Context()).
		Order("id ASC").
		Find(&templates).Error; err != nil {
		Internal(c, "failed to list templates")
		return
	}

	items := make([]templateResponse, 0, len(templates))
	for _, t := range templates {
		items = append(items, newTemplateResponse(t))
	}

	c.JSON(http.StatusOK, items)
}

// GetTemplate 返回指定模板。
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	templateID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, "invalid template id")
		return
	}

	var template database.Template
	if err := h.db.WithContext(c.Request.Context()).First(&template, uint(templateID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "template not found")
			return
		}
		Internal(c, "failed to query template")
		return
	}

	c.JSON(http.StatusOK, newTemplateResponse(template))
}
