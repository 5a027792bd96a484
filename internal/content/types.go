// Package content gives typed shape to the JSON blobs that cross the AI and
// storage boundaries: parsed resume data, portfolio drafts and optimization
// results. Validation happens here, once, instead of being scattered through
// the handlers.
package content

import (
	"encoding/json"
	"fmt"
)

// PersonalInfo 表示简历解析出的联系人信息。
type PersonalInfo struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
}

// Experience is one work history entry. Achievements is only populated on
// AI-rewritten content; parsed resumes leave it empty.
type Experience struct {
	Title        string   `json:"title"`
	Company      string   `json:"company"`
	Duration     string   `json:"duration"`
	Description  string   `json:"description"`
	Achievements []string `json:"achievements,omitempty"`
}

// Education is one education entry.
type Education struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Year        string `json:"year"`
}

// ResumeData is the structured representation the AI extracts from an
// uploaded resume, stored in resumes.parsed_data.
type ResumeData struct {
	PersonalInfo PersonalInfo `json:"personal_info"`
	Summary      string       `json:"summary"`
	Experience   []Experience `json:"experience"`
	Education    []Education  `json:"education"`
	Skills       []string     `json:"skills"`
}

// DecodeResumeData validates a parsed_data blob at the boundary. A nil or
// empty blob returns ErrNoParsedData so callers can distinguish "never
// parsed" from "malformed".
func DecodeResumeData(blob []byte) (*ResumeData, error) {
	if len(blob) == 0 {
		return nil, ErrNoParsedData
	}
	var data ResumeData
	if err := json.Unmarshal(blob, &data); err != nil {
		return nil, fmt.Errorf("decode parsed resume data: %w", err)
	}
	return &data, nil
}

// AnalysisResult is the phase-1 output of the optimization pipeline. Score
// is a pointer so an absent field is distinguishable from an explicit zero:
// the combined result substitutes 75 only when the field is missing, and
// never clamps out-of-range values.
type AnalysisResult struct {
	Score                  *float64                `json:"score,omitempty"`
	Improvements           []string                `json:"improvements"`
	KeywordsMissing        []string                `json:"keywords_missing"`
	KeywordsToAdd          []string                `json:"keywords_to_add"`
	SectionsToEnhance      []string                `json:"sections_to_enhance"`
	OptimizedSummary       string                  `json:"optimized_summary"`
	SkillRecommendations   []string                `json:"skill_recommendations"`
	ExperienceEnhancements []ExperienceEnhancement `json:"experience_enhancements"`
}

// ExperienceEnhancement suggests how to strengthen one position.
type ExperienceEnhancement struct {
	Position    string `json:"position"`
	Enhancement string `json:"enhancement"`
}

// OptimizationResult combines both phases into the shape persisted in
// job_optimizations.optimization_notes.
type OptimizationResult struct {
	Score            float64    `json:"score"`
	Improvements     []string   `json:"improvements"`
	OptimizedContent ResumeData `json:"optimized_content"`
	KeywordsAdded    []string   `json:"keywords_added"`
	SectionsEnhanced []string   `json:"sections_enhanced"`
}

const defaultScore = 75

// CombineOptimization assembles the persisted result from the two phase
// outputs. The score is carried verbatim from the analysis; 75 is used only
// when the analysis omitted the field entirely.
func CombineOptimization(analysis *AnalysisResult, rewritten *ResumeData) OptimizationResult {
	result := OptimizationResult{
		Score:            defaultScore,
		Improvements:     emptyIfNil(analysis.Improvements),
		KeywordsAdded:    emptyIfNil(analysis.KeywordsToAdd),
		SectionsEnhanced: emptyIfNil(analysis.SectionsToEnhance),
	}
	if analysis.Score != nil {
		result.Score = *analysis.Score
	}
	if rewritten != nil {
		result.OptimizedContent = *rewritten
	}
	return result
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
