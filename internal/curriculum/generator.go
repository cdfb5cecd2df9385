package curriculum

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/abhisek/tutorchat/internal/llm"
)

// Config shapes generated curricula.
type Config struct {
	Topics     int
	Subtopics  int
	MaxTokens  int
	Structured bool // request schema output before the text outline
}

// DefaultConfig is the 8×4 shape.
func DefaultConfig() Config {
	return Config{Topics: 8, Subtopics: 4, MaxTokens: 3000, Structured: true}
}

// Generator turns a subject into a Curriculum via the LLM.
type Generator struct {
	provider llm.Provider
	cfg      Config
	logger   *zap.Logger
}

// NewGenerator creates a Generator. logger may be nil.
func NewGenerator(provider llm.Provider, cfg Config, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{provider: provider, cfg: cfg, logger: logger.Named("curriculum")}
}

// Generate builds an unstarted curriculum for subject. The structured
// request is tried first when enabled; any failure other than an auth
// error falls back to the text outline and the line parser.
func (g *Generator) Generate(ctx context.Context, subject string) (*Curriculum, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, fmt.Errorf("empty subject")
	}
	ctx = llm.WithPurpose(ctx, "curriculum")

	if g.cfg.Structured {
		c, err := g.generateStructured(ctx, subject)
		if err == nil {
			return c, nil
		}
		if llm.IsAuth(err) || ctx.Err() != nil {
			return nil, err
		}
		g.logger.Debug("structured curriculum failed, using outline", zap.Error(err))
	}

	text, err := llm.Complete(ctx, g.provider, buildPrompt(subject, g.cfg.Topics, g.cfg.Subtopics), g.cfg.MaxTokens)
	if err != nil {
		return nil, fmt.Errorf("curriculum generation: %w", err)
	}

	topics, subtopics, err := Parse(text)
	if err != nil {
		// Some models answer the outline prompt with JSON anyway.
		var jerr error
		if topics, subtopics, jerr = ParseJSON(text); jerr != nil {
			return nil, err
		}
	}
	c := New(subject, topics, subtopics)
	c.Content = text
	return c, nil
}

func (g *Generator) generateStructured(ctx context.Context, subject string) (*Curriculum, error) {
	resp, err := g.provider.Generate(ctx, llm.Request{
		System: curriculumSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildStructuredPrompt(subject, g.cfg.Topics, g.cfg.Subtopics)},
		},
		Schema:    CurriculumSchema,
		MaxTokens: g.cfg.MaxTokens,
	})
	if err != nil {
		return nil, err
	}
	topics, subtopics, err := ParseJSON(string(resp.Content))
	if err != nil {
		return nil, err
	}
	c := New(subject, topics, subtopics)
	c.Content = Outline(c)
	return c, nil
}

// IsParseError reports whether err is a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
