package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// Vocabulary holds the keyword lists used by field extraction. It is read once
// at startup and treated as read-only afterwards.
type Vocabulary struct {
	Skills             []string `yaml:"skills"`
	Education          []string `yaml:"education"`
	Experience         []string `yaml:"experience"`
	ExperienceMinWords int      `yaml:"experience_min_words"`
	Certifications     []string `yaml:"certifications"`
	University         []string `yaml:"university"`
	CGPA               []string `yaml:"cgpa"`
}

func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Skills: []string{
			"Python", "Java", "SQL", "HTML", "CSS", "Cloud Computing", "Machine Learning",
			"Deep Learning", "C++", "Verilog", "Xilinx", "Digital Circuit Design",
			"Analog Circuit Design",
		},
		Education:      []string{"Bachelor", "Master", "B.Tech", "M.Tech", "BSc", "MSc", "PhD", "university", "college"},
		Experience:     []string{"experience", "worked at", "internship", "years", "projects"},
		Certifications: []string{"certification", "certified", "course", "diploma", "Udemy", "NPTEL", "WIPRO"},
		University:     []string{"university", "college", "institute"},
		CGPA:           []string{"cgpa", "gpa", "percentage"},
	}
}

// LoadVocabulary reads a YAML vocabulary file. Lists missing from the file keep
// their default values.
func LoadVocabulary(path string) (Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("failed to read vocabulary file: %w", err)
	}

	vocab := DefaultVocabulary()
	if err := yaml.Unmarshal(data, &vocab); err != nil {
		return Vocabulary{}, fmt.Errorf("failed to parse vocabulary file: %w", err)
	}

	if vocab.ExperienceMinWords < 0 {
		return Vocabulary{}, fmt.Errorf("experience_min_words must not be negative")
	}

	return vocab, nil
}
