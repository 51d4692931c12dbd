package models

import (
	"fmt"
	"strings"
	"time"
)

// NotFound marks a field the extractor could not determine.
const NotFound = "Not Found"

// Delimiters used when joining extracted snippets. Ranking splits on the same values.
const (
	SkillsDelimiter  = ", "
	SectionDelimiter = " | "
)

// CandidateHeader is the schema contract of the candidate store, in column order.
var CandidateHeader = []string{
	"Name",
	"Email",
	"Phone",
	"Skills",
	"Experience",
	"Education",
	"University",
	"CGPA",
	"Certifications",
	"FullText",
}

type Candidate struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Skills         string `json:"skills"`
	Experience     string `json:"experience"`
	Education      string `json:"education"`
	University     string `json:"university"`
	CGPA           string `json:"cgpa"`
	Certifications string `json:"certifications"`
	FullText       string `json:"full_text,omitempty"`
}

// Normalize trims leading and trailing whitespace from every field, flattens
// line breaks to spaces and fills fields left empty with NotFound.
func (c Candidate) Normalize() Candidate {
	fields := c.fields()
	for _, f := range fields {
		*f = FlattenNewlines(strings.TrimSpace(*f))
		if *f == "" {
			*f = NotFound
		}
	}
	return c
}

// Row returns the candidate in CandidateHeader order.
func (c Candidate) Row() []string {
	fields := c.fields()
	row := make([]string, len(fields))
	for i, f := range fields {
		row[i] = *f
	}
	return row
}

// CandidateFromRow is the inverse of Row.
func CandidateFromRow(row []string) (Candidate, error) {
	if len(row) != len(CandidateHeader) {
		return Candidate{}, fmt.Errorf("expected %d columns, got %d", len(CandidateHeader), len(row))
	}

	var c Candidate
	for i, f := range c.fields() {
		*f = row[i]
	}
	return c, nil
}

// WithoutFullText drops the document text, used for list responses.
func (c Candidate) WithoutFullText() Candidate {
	c.FullText = ""
	return c
}

func (c *Candidate) fields() []*string {
	return []*string{
		&c.Name,
		&c.Email,
		&c.Phone,
		&c.Skills,
		&c.Experience,
		&c.Education,
		&c.University,
		&c.CGPA,
		&c.Certifications,
		&c.FullText,
	}
}

// FlattenNewlines replaces CR and LF with single spaces.
func FlattenNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	return strings.NewReplacer("\n", " ", "\r", " ").Replace(s)
}

// SplitSnippets splits a joined field back into its snippets. The sentinel
// and empty values come back as a single-element list holding NotFound.
func SplitSnippets(value, delimiter string) []string {
	if value == "" || value == NotFound {
		return []string{NotFound}
	}
	return strings.Split(value, delimiter)
}

// CandidateRecord is the postgres row for a Candidate.
type CandidateRecord struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string    `gorm:"type:text;not null" json:"name"`
	Email          string    `gorm:"type:text;not null" json:"email"`
	Phone          string    `gorm:"type:text;not null" json:"phone"`
	Skills         string    `gorm:"type:text;not null" json:"skills"`
	Experience     string    `gorm:"type:text;not null" json:"experience"`
	Education      string    `gorm:"type:text;not null" json:"education"`
	University     string    `gorm:"type:text;not null" json:"university"`
	CGPA           string    `gorm:"column:cgpa;type:text;not null" json:"cgpa"`
	Certifications string    `gorm:"type:text;not null" json:"certifications"`
	FullText       string    `gorm:"type:text;not null" json:"full_text"`
	CreatedAt      time.Time `gorm:"type:timestamp;default:now()" json:"created_at"`
}

func (CandidateRecord) TableName() string {
	return "candidates"
}

func NewCandidateRecord(c Candidate) *CandidateRecord {
	return &CandidateRecord{
		Name:           c.Name,
		Email:          c.Email,
		Phone:          c.Phone,
		Skills:         c.Skills,
		Experience:     c.Experience,
		Education:      c.Education,
		University:     c.University,
		CGPA:           c.CGPA,
		Certifications: c.Certifications,
		FullText:       c.FullText,
	}
}

func (r CandidateRecord) Candidate() Candidate {
	return Candidate{
		Name:           r.Name,
		Email:          r.Email,
		Phone:          r.Phone,
		Skills:         r.Skills,
		Experience:     r.Experience,
		Education:      r.Education,
		University:     r.University,
		CGPA:           r.CGPA,
		Certifications: r.Certifications,
		FullText:       r.FullText,
	}
}
