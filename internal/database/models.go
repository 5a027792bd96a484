package database

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User 表示系统中的账号信息。
type User struct {
	gorm.Model
	Email        string `gorm:"uniqueIndex;size:255"`
	PasswordHash string `gorm:"size:255"`
	Resumes      []Resume
	Portfolios   []Portfolio
}

// Resume is an uploaded source document plus its extracted structure.
// The record is created by the parse worker only after extraction and
// AI structuring both succeed, so ParsedData is never half-written.
type Resume struct {
	gorm.Model
	UserID     uint           `gorm:"index"`
	User       User           `gorm:"constraint:OnDelete:CASCADE"`
	FileName   string         `gorm:"size:255"`
	FileURL    string         `gorm:"size:512"` // object key in the resume bucket
	FileSize   int64
	ParsedData datatypes.JSON `gorm:"type:jsonb"`
	IsActive   BoolInt        `gorm:"default:1"`
}

// Template is one entry of the read-only visual catalog. The API never
// writes this table; seeding happens through cmd/admin.
type Template struct {
	gorm.Model
	Name           string         `gorm:"size:255"`
	Description    string         `gorm:"size:1024"`
	Category       string         `gorm:"size:64;index"`
	IsPremium      BoolInt        `gorm:"default:0"`
	TemplateConfig datatypes.JSON `gorm:"type:jsonb"`
}

// Portfolio is a published combination of resume content and a template.
// ContentData is the creation-time snapshot of the wizard draft; later
// resume edits do not propagate into it.
type Portfolio struct {
	gorm.Model
	UserID      uint           `gorm:"index"`
	User        User           `gorm:"constraint:OnDelete:CASCADE"`
	Title       string         `gorm:"size:255"`
	Subdomain   string         `gorm:"uniqueIndex;size:64"`
	TemplateID  uint           `gorm:"index"`
	ThemeConfig datatypes.JSON `gorm:"type:jsonb"`
	ContentData datatypes.JSON `gorm:"type:jsonb"`
	IsPublished BoolInt        `gorm:"default:1"`
}

// JobOptimization statuses. The two AI phases persist independently so a
// rewrite failure never discards a finished analysis.
const (
	OptimizationPending       = "pending"
	OptimizationAnalyzed      = "analyzed"
	OptimizationCompleted     = "completed"
	OptimizationFailed        = "failed"
	OptimizationFailedRewrite = "failed_rewrite"
)

// JobOptimization records one resume-to-job-description analysis run.
type JobOptimization struct {
	gorm.Model
	UserID             uint           `gorm:"index"`
	User               User           `gorm:"constraint:OnDelete:CASCADE"`
	ResumeID           uint           `gorm:"index"`
	JobTitle           string         `gorm:"size:255"`
	JobDescription     string         `gorm:"type:text"`
	OptimizedResumeURL string         `gorm:"size:512"` // always empty: exports are generated on demand
	OptimizationNotes  datatypes.JSON `gorm:"type:jsonb"`
	Status             string         `gorm:"size:32;index"`
}
