package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"TUTORCHAT_CONFIG", "TUTORCHAT_LLM_PROVIDER", "TUTORCHAT_DB", "TUTORCHAT_REDIS_URL",
		"TUTORCHAT_ANTHROPIC_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY",
		"ANTHROPIC_API_KEY", "OPENROUTER_API_KEY", "TUTORCHAT_STRUCTURED_OUTPUT",
	} {
		t.Setenv(k, "")
	}
	// Keep a stray .env in the working directory out of the test.
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Curriculum.Topics)
	assert.Equal(t, 4, cfg.Curriculum.Subtopics)
	assert.Equal(t, 32, cfg.Curriculum.Total())
	assert.Equal(t, []int{4, 12, 20, 28}, cfg.Assessment.QuizAt)
	assert.Equal(t, []int{8, 16, 24}, cfg.Assessment.ExerciseAt)
	assert.Empty(t, cfg.Assessment.ProjectAt)
	assert.Equal(t, 3000, cfg.Curriculum.MaxTokens)
	assert.Equal(t, 2000, cfg.Assessment.GradingMaxTokens)
}

func TestLoad_YAMLAndEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "tutorchat.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  provider: mock
curriculum:
  topics: 2
  subtopics: 2
assessment:
  quiz_at: [2]
  exercise_at: [3]
  project_at: [4]
lessons:
  typing_delay: 5ms
server:
  addr: ":9999"
`), 0o644))
	t.Setenv("TUTORCHAT_DB", "/tmp/x.db")
	t.Setenv("TUTORCHAT_STRUCTURED_OUTPUT", "false")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mock", cfg.LLM.Provider)
	assert.Equal(t, 4, cfg.Curriculum.Total())
	assert.Equal(t, []int{4}, cfg.Assessment.ProjectAt)
	assert.Equal(t, 5*time.Millisecond, cfg.Lessons.TypingDelay)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "/tmp/x.db", cfg.Store.Path)
	assert.False(t, cfg.Curriculum.Structured)
	assert.False(t, cfg.Assessment.Structured)
}

func TestLoad_DiscoversProviderKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.OpenAI.APIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero topics", func(c *Config) { c.Curriculum.Topics = 0 }},
		{"negative subtopics", func(c *Config) { c.Curriculum.Subtopics = -1 }},
		{"quiz beyond curriculum", func(c *Config) { c.Assessment.QuizAt = []int{33} }},
		{"project at zero", func(c *Config) { c.Assessment.ProjectAt = []int{0} }},
		{"zero token budget", func(c *Config) { c.Lessons.MaxTokens = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, Default().Validate())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
