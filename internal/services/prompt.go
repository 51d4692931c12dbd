package services

import (
	"fmt"
	"strings"
)

// maxEntityPromptChars bounds the résumé excerpt sent for name recognition.
// Names sit near the top of a résumé.
const maxEntityPromptChars = 4000

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildPersonEntityPrompt asks for the first PERSON entity in a résumé excerpt.
func (pb *PromptBuilder) BuildPersonEntityPrompt(text string) string {
	return fmt.Sprintf(`You are a named-entity recognizer. Read the resume text below and find the
first entity that is the name of a person, scanning from the top of the text.

Rules:
- Return the name exactly as written in the text, without titles or extra words.
- Ignore company, university, product and place names.
- If there is no person name, return an empty string.

Return your response in the following JSON format:
{
  "person": "<name or empty string>"
}

RESUME TEXT:
%s`, truncateRunes(text, maxEntityPromptChars))
}

func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

// extractJSON pulls the JSON object out of a model response that may be wrapped in markdown
func extractJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		return text[start : end+1]
	}

	return strings.TrimSpace(text)
}
