// Package config loads tutorchat configuration from an optional YAML
// file, a .env file and TUTORCHAT_* environment variables, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/tutorchat/internal/llm"
)

// Config is the complete application configuration.
type Config struct {
	LLM        llm.Config       `yaml:"-"`
	Provider   ProviderConfig   `yaml:"llm"`
	Curriculum CurriculumConfig `yaml:"curriculum"`
	Lessons    LessonsConfig    `yaml:"lessons"`
	Assessment AssessmentConfig `yaml:"assessment"`
	Store      StoreConfig      `yaml:"store"`
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
}

// ProviderConfig selects the LLM provider and model from the config
// file. API keys are only read from the environment.
type ProviderConfig struct {
	Name  string `yaml:"provider"`
	Model string `yaml:"model"`
}

// CurriculumConfig is the curriculum shape and generation budget.
type CurriculumConfig struct {
	Topics     int  `yaml:"topics"`
	Subtopics  int  `yaml:"subtopics"`
	MaxTokens  int  `yaml:"max_tokens"`
	Structured bool `yaml:"structured"`
}

// Total is the number of subtopics in a curriculum of this shape.
func (c CurriculumConfig) Total() int { return c.Topics * c.Subtopics }

// LessonsConfig controls lesson generation and the typing animation.
type LessonsConfig struct {
	MaxTokens   int           `yaml:"max_tokens"`
	TypingDelay time.Duration `yaml:"typing_delay"`
}

// AssessmentConfig holds the trigger thresholds and generation budgets.
// An empty ProjectAt means the curriculum midpoint and its final subtopic.
type AssessmentConfig struct {
	QuizAt           []int `yaml:"quiz_at"`
	ExerciseAt       []int `yaml:"exercise_at"`
	ProjectAt        []int `yaml:"project_at"`
	MaxTokens        int   `yaml:"max_tokens"`
	GradingMaxTokens int   `yaml:"grading_max_tokens"`
	Structured       bool  `yaml:"structured"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Path           string `yaml:"path"`
	RedisURL       string `yaml:"redis_url"`
	RedisNamespace string `yaml:"redis_namespace"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	JWTSecret    string        `yaml:"jwt_secret"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
	AllowOrigins []string      `yaml:"allow_origins"`
	RatePerSec   float64       `yaml:"rate_per_sec"`
	RateBurst    int           `yaml:"rate_burst"`
}

// LogConfig configures the application log.
type LogConfig struct {
	Mode       string `yaml:"mode"`
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		LLM: llm.DefaultConfig(),
		Curriculum: CurriculumConfig{
			Topics:     8,
			Subtopics:  4,
			MaxTokens:  3000,
			Structured: true,
		},
		Lessons: LessonsConfig{
			MaxTokens:   3000,
			TypingDelay: 30 * time.Millisecond,
		},
		Assessment: AssessmentConfig{
			QuizAt:           []int{4, 12, 20, 28},
			ExerciseAt:       []int{8, 16, 24},
			MaxTokens:        2000,
			GradingMaxTokens: 2000,
			Structured:       true,
		},
		Server: ServerConfig{
			Addr:         ":8000",
			TokenTTL:     24 * time.Hour,
			AllowOrigins: []string{"*"},
			RatePerSec:   5,
			RateBurst:    20,
		},
		Log: LogConfig{
			Mode:       "development",
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load builds the configuration. path may be empty, in which case
// $TUTORCHAT_CONFIG is consulted; a missing file at an explicit path is
// an error.
func Load(path string) (*Config, error) {
	// .env is optional.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv("TUTORCHAT_CONFIG")
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.LLM = resolveLLM(cfg.Provider)
	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolveLLM layers TUTORCHAT_* variables over the config file's
// provider choice and falls back to probing the conventional key
// variables when the selection has no key.
func resolveLLM(p ProviderConfig) llm.Config {
	c := llm.ConfigFromEnv()
	if os.Getenv("TUTORCHAT_LLM_PROVIDER") == "" && p.Name != "" {
		c.Provider = p.Name
	}
	if p.Model != "" {
		setModel(&c, p.Model)
	}
	if c.Validate() == nil {
		return c
	}
	if discovered, ok := llm.DiscoverConfig(); ok {
		if p.Model != "" {
			setModel(&discovered, p.Model)
		}
		return discovered
	}
	return c
}

func setModel(c *llm.Config, model string) {
	switch c.Provider {
	case "anthropic":
		c.Anthropic.Model = model
	case "openai":
		c.OpenAI.Model = model
	case "gemini":
		c.Gemini.Model = model
	case "openrouter":
		c.OpenRouter.Model = model
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TUTORCHAT_DB"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("TUTORCHAT_REDIS_URL"); v != "" {
		cfg.Store.RedisURL = v
	}
	if v := os.Getenv("TUTORCHAT_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("TUTORCHAT_JWT_SECRET"); v != "" {
		cfg.Server.JWTSecret = v
	}
	if v := os.Getenv("TUTORCHAT_ALLOW_ORIGINS"); v != "" {
		cfg.Server.AllowOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("TUTORCHAT_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("TUTORCHAT_LOG_MODE"); v != "" {
		cfg.Log.Mode = v
	}
	if v := os.Getenv("TUTORCHAT_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := os.Getenv("TUTORCHAT_STRUCTURED_OUTPUT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Curriculum.Structured = b
			cfg.Assessment.Structured = b
		}
	}
}

// Validate rejects shapes and thresholds that cannot drive a curriculum.
func (c Config) Validate() error {
	if c.Curriculum.Topics <= 0 || c.Curriculum.Subtopics <= 0 {
		return fmt.Errorf("curriculum shape must be positive, got %dx%d",
			c.Curriculum.Topics, c.Curriculum.Subtopics)
	}
	total := c.Curriculum.Total()
	for name, ns := range map[string][]int{
		"quiz_at":     c.Assessment.QuizAt,
		"exercise_at": c.Assessment.ExerciseAt,
		"project_at":  c.Assessment.ProjectAt,
	} {
		for _, n := range ns {
			if n < 1 || n > total {
				return fmt.Errorf("assessment.%s: %d is outside 1..%d", name, n, total)
			}
		}
	}
	if c.Curriculum.MaxTokens <= 0 || c.Lessons.MaxTokens <= 0 ||
		c.Assessment.MaxTokens <= 0 || c.Assessment.GradingMaxTokens <= 0 {
		return fmt.Errorf("token budgets must be positive")
	}
	return nil
}
