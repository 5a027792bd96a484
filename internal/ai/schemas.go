package ai

// JSON schemas sent alongside generate-object prompts. Kept as plain maps:
// the collaborator forwards them to the model verbatim and nothing here
// validates against them.

func stringArray(description string) map[string]any {
	s := map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string"},
	}
	if description != "" {
		s["description"] = description
	}
	return s
}

var personalInfoSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"name":     map[string]any{"type": "string"},
		"email":    map[string]any{"type": "string"},
		"phone":    map[string]any{"type": "string"},
		"location": map[string]any{"type": "string"},
	},
}

// ResumeParseSchema shapes the structured extraction of an uploaded resume.
func ResumeParseSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"personal_info": personalInfoSchema,
			"summary":       map[string]any{"type": "string"},
			"experience": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title":       map[string]any{"type": "string"},
						"company":     map[string]any{"type": "string"},
						"duration":    map[string]any{"type": "string"},
						"description": map[string]any{"type": "string"},
					},
				},
			},
			"skills": stringArray(""),
		},
	}
}

// AnalysisSchema shapes phase 1 of the optimization pipeline.
func AnalysisSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"score": map[string]any{
				"type":        "number",
				"description": "Match score out of 100",
			},
			"improvements":        stringArray("Specific improvement suggestions"),
			"keywords_missing":    stringArray("Important keywords missing from resume"),
			"keywords_to_add":     stringArray("Keywords that should be added"),
			"sections_to_enhance": stringArray("Resume sections that need enhancement"),
			"optimized_summary": map[string]any{
				"type":        "string",
				"description": "Optimized professional summary",
			},
			"skill_recommendations": stringArray("Skills to highlight or add"),
			"experience_enhancements": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"position":    map[string]any{"type": "string"},
						"enhancement": map[string]any{"type": "string"},
					},
				},
				"description": "Ways to enhance experience descriptions",
			},
		},
	}
}

// RewriteSchema shapes phase 2: the full alternate resume.
func RewriteSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"personal_info": personalInfoSchema,
			"summary":       map[string]any{"type": "string"},
			"experience": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title":        map[string]any{"type": "string"},
						"company":      map[string]any{"type": "string"},
						"duration":     map[string]any{"type": "string"},
						"description":  map[string]any{"type": "string"},
						"achievements": stringArray(""),
					},
				},
			},
			"skills": stringArray(""),
			"education": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"degree":      map[string]any{"type": "string"},
						"institution": map[string]any{"type": "string"},
						"year":        map[string]any{"type": "string"},
					},
				},
			},
		},
	}
}
