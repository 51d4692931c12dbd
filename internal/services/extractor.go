package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"alfredoptarigan/resume-ranker/internal/config"
	"alfredoptarigan/resume-ranker/internal/models"
	"alfredoptarigan/resume-ranker/internal/pkg/logger"
)

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	// Ten bare digits only. International prefixes, separators and
	// extensions are not recognised.
	phonePattern = regexp.MustCompile(`\b\d{10}\b`)
)

// EntityRecognizer finds named entities in text.
type EntityRecognizer interface {
	// FirstPerson returns the first person name in text, or "" when there is none.
	FirstPerson(ctx context.Context, text string) (string, error)
}

// FieldExtractor turns plain résumé text into a Candidate. It never fails;
// fields it cannot determine hold models.NotFound.
type FieldExtractor interface {
	Extract(ctx context.Context, text string) models.Candidate
}

type ExtractorOptions struct {
	NameStrategy    string
	SectionStrategy string
	Vocabulary      config.Vocabulary
}

type fieldExtractor struct {
	opts       ExtractorOptions
	recognizer EntityRecognizer
	segmenter  SentenceSegmenter
	logger     logger.ILogger
}

func NewFieldExtractor(
	opts ExtractorOptions,
	recognizer EntityRecognizer,
	segmenter SentenceSegmenter,
	log logger.ILogger,
) (FieldExtractor, error) {
	switch opts.NameStrategy {
	case config.NameStrategyFirstLine:
	case config.NameStrategyEntityRecognition:
		if recognizer == nil {
			return nil, fmt.Errorf("entity recognition name strategy requires an entity recognizer")
		}
	default:
		return nil, fmt.Errorf("unknown name strategy: %s", opts.NameStrategy)
	}

	switch opts.SectionStrategy {
	case config.SectionStrategyLine:
	case config.SectionStrategySentence:
		if segmenter == nil {
			segmenter = NewRuleSentenceSegmenter()
		}
	default:
		return nil, fmt.Errorf("unknown section strategy: %s", opts.SectionStrategy)
	}

	return &fieldExtractor{
		opts:       opts,
		recognizer: recognizer,
		segmenter:  segmenter,
		logger:     log,
	}, nil
}

// Extract implements FieldExtractor.
func (e *fieldExtractor) Extract(ctx context.Context, text string) models.Candidate {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	vocab := e.opts.Vocabulary

	var segments []string
	var match func(segment string, keywords []string) bool
	if e.opts.SectionStrategy == config.SectionStrategySentence {
		segments = e.segmenter.Sentences(text)
		match = sentenceHasKeyword
	} else {
		segments = nonEmptyLines(text)
		match = lineHasKeyword
	}

	section := func(keywords []string, minWords int) string {
		var selected []string
		for _, segment := range segments {
			if minWords > 0 && len(strings.Fields(segment)) < minWords {
				continue
			}
			if match(segment, keywords) {
				selected = append(selected, segment)
			}
		}
		return strings.Join(selected, models.SectionDelimiter)
	}

	candidate := models.Candidate{
		Name:           e.extractName(ctx, text),
		Email:          emailPattern.FindString(text),
		Phone:          phonePattern.FindString(text),
		Skills:         extractSkills(text, vocab.Skills),
		Experience:     section(vocab.Experience, vocab.ExperienceMinWords),
		Education:      section(vocab.Education, 0),
		University:     section(vocab.University, 0),
		CGPA:           section(vocab.CGPA, 0),
		Certifications: section(vocab.Certifications, 0),
		FullText:       text,
	}

	return candidate.Normalize()
}

func (e *fieldExtractor) extractName(ctx context.Context, text string) string {
	if e.opts.NameStrategy == config.NameStrategyEntityRecognition {
		name, err := e.recognizer.FirstPerson(ctx, text)
		if err != nil {
			e.logger.Warn("extractor", "Entity recognition failed, name not extracted", map[string]interface{}{
				"error": err.Error(),
			})
			return models.NotFound
		}
		if name = strings.TrimSpace(name); name == "" {
			e.logger.Warn("extractor", "No person entity found, name not extracted", nil)
			return models.NotFound
		}
		return name
	}

	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return models.NotFound
}

// extractSkills keeps vocabulary entries that occur verbatim in text, in
// vocabulary order.
func extractSkills(text string, vocabulary []string) string {
	seen := make(map[string]bool, len(vocabulary))
	var skills []string
	for _, skill := range vocabulary {
		if skill == "" || seen[skill] {
			continue
		}
		if strings.Contains(text, skill) {
			seen[skill] = true
			skills = append(skills, skill)
		}
	}
	return strings.Join(skills, models.SkillsDelimiter)
}

func nonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func lineHasKeyword(line string, keywords []string) bool {
	lower := strings.ToLower(line)
	for _, keyword := range keywords {
		if keyword != "" && strings.Contains(lower, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

// sentenceHasKeyword matches single-word keywords against the sentence's
// token set and multi-word keywords as phrases.
func sentenceHasKeyword(sentence string, keywords []string) bool {
	lower := strings.ToLower(sentence)
	tokens := make(map[string]bool)
	for _, field := range strings.Fields(lower) {
		tokens[strings.TrimFunc(field, isEdgePunct)] = true
	}

	for _, keyword := range keywords {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword == "" {
			continue
		}
		if strings.Contains(keyword, " ") {
			if strings.Contains(lower, keyword) {
				return true
			}
			continue
		}
		if tokens[keyword] {
			return true
		}
	}
	return false
}

func isEdgePunct(r rune) bool {
	return unicode.IsPunct(r) && r != '+' && r != '#'
}
