package services

import (
	"strings"
	"unicode"
)

// SentenceSegmenter splits text into sentences.
type SentenceSegmenter interface {
	Sentences(text string) []string
}

type ruleSentenceSegmenter struct{}

// NewRuleSentenceSegmenter splits on line breaks and on '.', '!' or '?' when
// followed by whitespace, so "B.Tech" and "3.8" stay whole.
func NewRuleSentenceSegmenter() SentenceSegmenter {
	return &ruleSentenceSegmenter{}
}

// Sentences implements SentenceSegmenter.
func (s *ruleSentenceSegmenter) Sentences(text string) []string {
	var result []string
	for _, line := range strings.Split(text, "\n") {
		result = append(result, splitIntoSentences(line)...)
	}
	return result
}

func splitIntoSentences(text string) []string {
	runes := []rune(text)

	var result []string
	start := 0
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			result = append(result, s)
		}
		start = i + 1
	}

	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		result = append(result, s)
	}
	return result
}
