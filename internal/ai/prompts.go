package ai

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// extractCap bounds how much raw resume text goes into the parse prompt,
// counted in characters rather than bytes so multibyte text is never split
// mid-rune.
const extractCap = 4000

// ParsePrompt embeds up to the first 4000 characters of extracted text.
func ParsePrompt(extractedText string) string {
	if utf8.RuneCountInString(extractedText) > extractCap {
		runes := []rune(extractedText)
		extractedText = string(runes[:extractCap])
	}
	return "Parse this resume text and extract structured information: " + extractedText
}

// AnalysisPrompt builds the phase-1 prompt from the parsed resume and the
// target job.
func AnalysisPrompt(parsedResume any, jobDescription, jobTitle string) string {
	return fmt.Sprintf(`Analyze this resume against the job description and provide optimization recommendations:

RESUME DATA:
%s

JOB DESCRIPTION:
%s

JOB TITLE: %s

Please analyze the resume and provide specific recommendations for optimization.`,
		indentJSON(parsedResume), jobDescription, jobTitle)
}

// RewritePrompt builds the phase-2 prompt from the original resume, the
// phase-1 analysis and the job description.
func RewritePrompt(parsedResume, analysis any, jobDescription string) string {
	return fmt.Sprintf(`Based on the analysis, create an optimized version of the resume content:

ORIGINAL RESUME:
%s

OPTIMIZATION ANALYSIS:
%s

JOB DESCRIPTION:
%s

Create an optimized version that incorporates the recommendations.`,
		indentJSON(parsedResume), indentJSON(analysis), jobDescription)
}

// ExportPrompt asks for a plain-text rendering of optimized content.
func ExportPrompt(optimizedContent any) string {
	return fmt.Sprintf(`Create a professionally formatted plain text resume based on this optimized content:

%s

Format it as a clean, professional resume that can be easily copied and pasted.
Use proper spacing and formatting for readability.`,
		indentJSON(optimizedContent))
}

func indentJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
