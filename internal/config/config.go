package config

import (
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Store      StoreConfig
	Database   DatabaseConfig
	Qdrant     QdrantConfig
	Gemini     GeminiConfig
	Storage    StorageConfig
	Extraction ExtractionConfig
	Ranking    RankingConfig
	Worker     WorkerConfig
	Log        LogConfig
	Vocabulary Vocabulary

	vocabularyErr error
}

type ServerConfig struct {
	Port string
	Env  string
}

type StoreConfig struct {
	Backend string
	Path    string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
}

type GeminiConfig struct {
	APIKey              string
	Model               string
	EmbeddingModel      string
	EmbeddingDimensions uint64
	EmbedBatchSize      int
	EmbedCacheTTL       time.Duration
}

type StorageConfig struct {
	UploadPath  string
	MaxFileSize int64
}

type ExtractionConfig struct {
	NameStrategy    string
	SectionStrategy string
}

type RankingConfig struct {
	Tier        string
	Weights     Weights
	Concurrency int
}

// Weights for the aggregate score. Education, University and CGPA default to
// zero and are only scored when given a non-zero weight.
type Weights struct {
	Skills         float64
	Experience     float64
	Certifications float64
	Education      float64
	University     float64
	CGPA           float64
}

type WorkerConfig struct {
	Concurrency      int
	RetryMaxAttempts int
}

type LogConfig struct {
	File string
}

const (
	StoreBackendCSV      = "csv"
	StoreBackendPostgres = "postgres"

	NameStrategyFirstLine         = "first_line"
	NameStrategyEntityRecognition = "entity_recognition"

	SectionStrategyLine     = "line"
	SectionStrategySentence = "sentence"

	TierLexical  = "lexical"
	TierSemantic = "semantic"
)

func DefaultWeights() Weights {
	return Weights{
		Skills:         0.5,
		Experience:     0.3,
		Certifications: 0.2,
	}
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using default values.")
	}

	defaults := DefaultWeights()
	nameStrategy := getEnv("NAME_STRATEGY", NameStrategyFirstLine)

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "5000"),
			Env:  getEnv("ENV", "development"),
		},
		Store: StoreConfig{
			Backend: getEnv("STORE_BACKEND", StoreBackendCSV),
			Path:    getEnv("STORE_PATH", "./database/candidates.csv"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "resume_ranker"),
		},
		Qdrant: QdrantConfig{
			URL:        getEnv("QDRANT_URL", ""),
			APIKey:     getEnv("QDRANT_API_KEY", ""),
			Collection: getEnv("QDRANT_COLLECTION", "resume_ranker_embeddings"),
		},
		Gemini: GeminiConfig{
			APIKey:              getEnv("GEMINI_API_KEY", ""),
			Model:               getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			EmbeddingModel:      getEnv("EMBEDDING_MODEL", "text-embedding-004"),
			EmbeddingDimensions: uint64(getEnvAsInt64("EMBEDDING_DIMENSIONS", 768)),
			EmbedBatchSize:      getEnvAsInt("EMBED_BATCH_SIZE", 50),
			EmbedCacheTTL:       getEnvAsDuration("EMBED_CACHE_TTL", "1h"),
		},
		Storage: StorageConfig{
			UploadPath:  getEnv("UPLOAD_PATH", "./uploads"),
			MaxFileSize: getEnvAsInt64("MAX_FILE_SIZE", 10485760),
		},
		Extraction: ExtractionConfig{
			NameStrategy:    nameStrategy,
			SectionStrategy: getEnv("SECTION_STRATEGY", defaultSectionStrategy(nameStrategy)),
		},
		Ranking: RankingConfig{
			Tier: getEnv("SCORING_TIER", TierLexical),
			Weights: Weights{
				Skills:         getEnvAsFloat("WEIGHT_SKILLS", defaults.Skills),
				Experience:     getEnvAsFloat("WEIGHT_EXPERIENCE", defaults.Experience),
				Certifications: getEnvAsFloat("WEIGHT_CERTIFICATIONS", defaults.Certifications),
				Education:      getEnvAsFloat("WEIGHT_EDUCATION", defaults.Education),
				University:     getEnvAsFloat("WEIGHT_UNIVERSITY", defaults.University),
				CGPA:           getEnvAsFloat("WEIGHT_CGPA", defaults.CGPA),
			},
			Concurrency: getEnvAsInt("RANK_CONCURRENCY", 4),
		},
		Worker: WorkerConfig{
			Concurrency:      getEnvAsInt("WORKER_CONCURRENCY", 3),
			RetryMaxAttempts: getEnvAsInt("RETRY_MAX_ATTEMPTS", 3),
		},
		Log: LogConfig{
			File: getEnv("LOG_FILE", "./logs/resume-ranker.log"),
		},
		Vocabulary: DefaultVocabulary(),
	}

	if path := getEnv("VOCABULARY_FILE", ""); path != "" {
		vocab, err := LoadVocabulary(path)
		if err != nil {
			cfg.vocabularyErr = fmt.Errorf("VOCABULARY_FILE %s: %w", path, err)
		} else {
			cfg.Vocabulary = vocab
		}
	}

	return cfg
}

// Validate rejects settings the services cannot run with.
func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Backend {
	case StoreBackendCSV, StoreBackendPostgres:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend))
	}

	switch c.Extraction.NameStrategy {
	case NameStrategyFirstLine, NameStrategyEntityRecognition:
	default:
		errs = append(errs, fmt.Errorf("unknown NAME_STRATEGY %q", c.Extraction.NameStrategy))
	}

	switch c.Extraction.SectionStrategy {
	case SectionStrategyLine, SectionStrategySentence:
	default:
		errs = append(errs, fmt.Errorf("unknown SECTION_STRATEGY %q", c.Extraction.SectionStrategy))
	}

	switch c.Ranking.Tier {
	case TierLexical, TierSemantic:
	default:
		errs = append(errs, fmt.Errorf("unknown SCORING_TIER %q", c.Ranking.Tier))
	}

	if err := c.Ranking.Weights.Validate(); err != nil {
		errs = append(errs, err)
	}

	needsGemini := c.Ranking.Tier == TierSemantic || c.Extraction.NameStrategy == NameStrategyEntityRecognition
	if needsGemini && c.Gemini.APIKey == "" {
		errs = append(errs, errors.New("GEMINI_API_KEY is required for the semantic tier and entity recognition"))
	}

	if c.vocabularyErr != nil {
		errs = append(errs, c.vocabularyErr)
	}

	return errors.Join(errs...)
}

// Validate rejects negative and non-finite weights.
func (w Weights) Validate() error {
	named := map[string]float64{
		"WEIGHT_SKILLS":         w.Skills,
		"WEIGHT_EXPERIENCE":     w.Experience,
		"WEIGHT_CERTIFICATIONS": w.Certifications,
		"WEIGHT_EDUCATION":      w.Education,
		"WEIGHT_UNIVERSITY":     w.University,
		"WEIGHT_CGPA":           w.CGPA,
	}

	var negative, nonFinite []string
	total := 0.0
	for name, v := range named {
		switch {
		case math.IsNaN(v) || math.IsInf(v, 0):
			nonFinite = append(nonFinite, name)
		case v < 0:
			negative = append(negative, name)
		default:
			total += v
		}
	}
	sort.Strings(negative)
	sort.Strings(nonFinite)

	var errs []error
	if len(nonFinite) > 0 {
		errs = append(errs, fmt.Errorf("weights must be finite numbers: %s", strings.Join(nonFinite, ", ")))
	}
	if len(negative) > 0 {
		errs = append(errs, fmt.Errorf("weights must not be negative: %s", strings.Join(negative, ", ")))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if total == 0 {
		return errors.New("at least one ranking weight must be positive")
	}
	return nil
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

func defaultSectionStrategy(nameStrategy string) string {
	if nameStrategy == NameStrategyEntityRecognition {
		return SectionStrategySentence
	}
	return SectionStrategyLine
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
