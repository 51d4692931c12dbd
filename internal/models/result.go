package models

// MatchedInfo surfaces the extracted snippets behind a score.
type MatchedInfo struct {
	TechnicalSkills []string `json:"Technical Skills"`
	Certifications  []string `json:"Certifications"`
	Projects        []string `json:"Projects"`
}

// ScoredCandidate is a read-only projection of a Candidate for one ranking call.
type ScoredCandidate struct {
	Name        string             `json:"name"`
	Email       string             `json:"email"`
	Phone       string             `json:"phone"`
	Score       float64            `json:"score"`
	FieldScores map[string]float64 `json:"field_scores"`
	MatchedInfo MatchedInfo        `json:"matched_info"`

	rawScore float64
}

func NewScoredCandidate(c Candidate, rawScore, rounded float64, fieldScores map[string]float64) ScoredCandidate {
	return ScoredCandidate{
		Name:        c.Name,
		Email:       c.Email,
		Phone:       c.Phone,
		Score:       rounded,
		FieldScores: fieldScores,
		MatchedInfo: MatchedInfo{
			TechnicalSkills: SplitSnippets(c.Skills, SkillsDelimiter),
			Certifications:  SplitSnippets(c.Certifications, SectionDelimiter),
			Projects:        SplitSnippets(c.Experience, SectionDelimiter),
		},
		rawScore: rawScore,
	}
}

// RawScore is the aggregate before rounding.
func (s ScoredCandidate) RawScore() float64 {
	return s.rawScore
}

type UploadResponse struct {
	Message string    `json:"message"`
	Details Candidate `json:"details"`
}

type MatchRequest struct {
	JobDescription string `json:"job_description"`
}

type MatchResponse struct {
	Message    string            `json:"message"`
	Tier       string            `json:"tier"`
	Degraded   bool              `json:"degraded"`
	Excluded   int               `json:"excluded"`
	Candidates []ScoredCandidate `json:"candidates"`
}

type CandidateListResponse struct {
	Count      int         `json:"count"`
	Candidates []Candidate `json:"candidates"`
}
