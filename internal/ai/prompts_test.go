package ai

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestParsePromptTruncatesOnCharacterBoundary(t *testing.T) {
	text := strings.Repeat("简", 4100)
	prompt := ParsePrompt(text)

	if !utf8.ValidString(prompt) {
		t.Fatal("prompt contains invalid UTF-8")
	}
	if got := strings.Count(prompt, "简"); got != 4000 {
		t.Errorf("embedded %d characters, want 4000", got)
	}
}

func TestParsePromptShortTextUnchanged(t *testing.T) {
	prompt := ParsePrompt("short resume text")
	if !strings.Contains(prompt, "short resume text") {
		t.Errorf("prompt = %q", prompt)
	}
}
