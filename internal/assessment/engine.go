package assessment

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/tutorchat/internal/llm"
)

// Config bounds generation and grading requests.
type Config struct {
	MaxTokens        int
	GradingMaxTokens int
	Structured       bool
}

// DefaultConfig uses 2000 tokens for generation and grading.
func DefaultConfig() Config {
	return Config{MaxTokens: 2000, GradingMaxTokens: 2000, Structured: true}
}

// Engine generates assessment content and grades attempts.
type Engine struct {
	provider llm.Provider
	cfg      Config
	logger   *zap.Logger
}

// NewEngine creates an Engine. logger may be nil.
func NewEngine(provider llm.Provider, cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{provider: provider, cfg: cfg, logger: logger.Named("assessment")}
}

// Generate produces content of typ covering the given topics and
// subtopics. Parsing never fails: content the parsers cannot read yields
// an Assessment for which Empty reports true. Errors are oracle errors.
func (e *Engine) Generate(ctx context.Context, typ Type, topics, subtopics []string) (*Assessment, error) {
	a := &Assessment{
		Type:      typ,
		Topics:    append([]string(nil), topics...),
		Subtopics: append([]string(nil), subtopics...),
		CreatedAt: time.Now().UTC(),
	}
	ctx = llm.WithPurpose(ctx, string(typ))

	if e.cfg.Structured {
		resp, err := e.provider.Generate(ctx, llm.Request{
			System:    assessmentSystemPrompt,
			Messages:  []llm.Message{{Role: llm.RoleUser, Content: buildStructuredPrompt(typ, topics, subtopics)}},
			Schema:    schemaFor(typ),
			MaxTokens: e.cfg.MaxTokens,
		})
		switch {
		case err == nil:
			fill(a, string(resp.Content))
			if !a.Empty() {
				return a, nil
			}
			e.logger.Debug("structured assessment empty, using text prompt", zap.String("type", string(typ)))
		case llm.IsAuth(err) || ctx.Err() != nil:
			return nil, err
		default:
			e.logger.Debug("structured assessment failed, using text prompt",
				zap.String("type", string(typ)), zap.Error(err))
		}
	}

	var prompt string
	switch typ {
	case TypeQuiz:
		prompt = buildQuizPrompt(subtopics)
	case TypeExercise:
		prompt = buildExercisePrompt(topics)
	case TypeProject:
		prompt = buildProjectPrompt(topics)
	default:
		return nil, fmt.Errorf("unknown assessment type %q", typ)
	}
	text, err := llm.Complete(ctx, e.provider, prompt, e.cfg.MaxTokens)
	if err != nil {
		return nil, fmt.Errorf("generate %s: %w", typ, err)
	}
	fill(a, text)
	return a, nil
}

func fill(a *Assessment, text string) {
	switch a.Type {
	case TypeQuiz:
		a.Questions = ParseQuiz(text)
	case TypeExercise:
		a.Exercises = ParseExercises(text)
	case TypeProject:
		a.Project = ParseProject(text)
	}
}

// Grade asks the oracle to evaluate solution for a single exercise or
// project and returns its feedback verbatim. Quizzes are scored locally.
func (e *Engine) Grade(ctx context.Context, typ Type, item any, solution string) (string, error) {
	var prompt string
	switch typ {
	case TypeExercise:
		ex, ok := item.(Exercise)
		if p, isPtr := item.(*Exercise); isPtr && p != nil {
			ex, ok = *p, true
		}
		if !ok {
			return "", fmt.Errorf("grade exercise: unexpected item %T", item)
		}
		prompt = buildExerciseGradingPrompt(ex, solution)
	case TypeProject:
		pr, ok := item.(Project)
		if p, isPtr := item.(*Project); isPtr && p != nil {
			pr, ok = *p, true
		}
		if !ok {
			return "", fmt.Errorf("grade project: unexpected item %T", item)
		}
		prompt = buildProjectGradingPrompt(pr, solution)
	default:
		return "", fmt.Errorf("%s attempts are not graded by the oracle", typ)
	}

	resp, err := e.provider.Generate(llm.WithPurpose(ctx, "grading"), llm.Request{
		System:    gradingSystemPrompt,
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		MaxTokens: e.cfg.GradingMaxTokens,
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// Submit grades at and locks it. Submitting an already submitted attempt
// is a no-op. A failed item records GradingFailed as its feedback; an
// auth error aborts and leaves the attempt unsubmitted.
func (e *Engine) Submit(ctx context.Context, at *Attempt) error {
	if at.Submitted {
		return nil
	}
	a := at.Assessment
	if a == nil {
		return fmt.Errorf("attempt has no assessment")
	}

	switch a.Type {
	case TypeQuiz:
		at.scoreQuiz()

	case TypeExercise:
		feedback := make([]string, len(a.Exercises))
		g, gctx := errgroup.WithContext(ctx)
		for i, ex := range a.Exercises {
			g.Go(func() error {
				text, err := e.Grade(gctx, TypeExercise, ex, at.Solutions[i])
				if err != nil {
					if llm.IsAuth(err) {
						return err
					}
					e.logger.Warn("exercise grading failed", zap.Int("exercise", i), zap.Error(err))
					text = GradingFailed
				}
				feedback[i] = text
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		if at.Feedback == nil {
			at.Feedback = map[int]string{}
		}
		for i, f := range feedback {
			at.Feedback[i] = f
		}

	case TypeProject:
		if a.Project == nil {
			return fmt.Errorf("attempt has no project")
		}
		text, err := e.Grade(ctx, TypeProject, a.Project, at.ProjectSolution)
		if err != nil {
			if llm.IsAuth(err) {
				return err
			}
			e.logger.Warn("project grading failed", zap.Error(err))
			text = GradingFailed
		}
		at.ProjectFeedback = text
	}

	at.Submitted = true
	return nil
}

// Retry discards at and generates fresh content from the same coverage.
func (e *Engine) Retry(ctx context.Context, at *Attempt) (*Attempt, error) {
	old := at.Assessment
	a, err := e.Generate(ctx, old.Type, old.Topics, old.Subtopics)
	if err != nil {
		return nil, err
	}
	a.N = old.N
	return NewAttempt(a), nil
}
