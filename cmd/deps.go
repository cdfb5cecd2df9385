package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/tutorchat/internal/assessment"
	"github.com/abhisek/tutorchat/internal/chat"
	"github.com/abhisek/tutorchat/internal/config"
	"github.com/abhisek/tutorchat/internal/curriculum"
	"github.com/abhisek/tutorchat/internal/lessons"
	"github.com/abhisek/tutorchat/internal/llm"
	"github.com/abhisek/tutorchat/internal/logging"
	"github.com/abhisek/tutorchat/internal/store"
	"github.com/abhisek/tutorchat/internal/tutor"
)

// deps is what every command opens: configuration, the log, the
// SQLite store and the chat KV, which is Redis when configured.
type deps struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.Store
	kv     store.KV
	closer []io.Closer
}

// openRuntime loads configuration and opens the stores. stderr tees the
// log to standard error.
func openRuntime(cmd *cobra.Command, stderr bool) (*deps, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Options{
		Mode:       cfg.Log.Mode,
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Stderr:     stderr,
	})
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	dbPath, err := resolveDBPath(cmd, cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	rt := &deps{cfg: cfg, logger: logger, store: st, kv: st.KV(), closer: []io.Closer{st}}

	if cfg.Store.RedisURL != "" {
		rkv, err := store.NewRedisKV(cmd.Context(), cfg.Store.RedisURL, cfg.Store.RedisNamespace)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("open redis: %w", err)
		}
		rt.kv = rkv
		rt.closer = append(rt.closer, rkv)
	}
	logger.Debug("runtime opened", zap.String("db", dbPath), zap.Bool("redis", cfg.Store.RedisURL != ""))
	return rt, nil
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the configured path (TUTORCHAT_DB or store.path), then the default XDG path.
func resolveDBPath(cmd *cobra.Command, cfg *config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg.Store.Path != "" {
		return cfg.Store.Path, store.EnsureDir(cfg.Store.Path)
	}
	return store.DefaultDBPath()
}

func (r *deps) Close() {
	for i := len(r.closer) - 1; i >= 0; i-- {
		_ = r.closer[i].Close()
	}
	_ = r.logger.Sync()
}

// provider builds the configured LLM provider with event logging into
// the SQLite store.
func (r *deps) provider(ctx context.Context) (llm.Provider, error) {
	if err := r.cfg.LLM.Validate(); err != nil {
		return nil, err
	}
	return llm.NewProvider(ctx, r.cfg.LLM, r.store.EventRepo(), r.logger)
}

// tutorFactory returns a constructor for tutors sharing provider, each
// over its own KV.
func (r *deps) tutorFactory(provider llm.Provider) func(ctx context.Context, kv store.KV) (*tutor.Tutor, error) {
	cfg := r.cfg
	return func(ctx context.Context, kv store.KV) (*tutor.Tutor, error) {
		chats := chat.NewStore(kv, r.logger)
		if err := chats.Load(ctx); err != nil {
			return nil, fmt.Errorf("load chats: %w", err)
		}
		gen := curriculum.NewGenerator(provider, curriculum.Config{
			Topics:     cfg.Curriculum.Topics,
			Subtopics:  cfg.Curriculum.Subtopics,
			MaxTokens:  cfg.Curriculum.MaxTokens,
			Structured: cfg.Curriculum.Structured,
		}, r.logger)
		ls := lessons.NewService(provider, lessons.Config{MaxTokens: cfg.Lessons.MaxTokens})
		engine := assessment.NewEngine(provider, assessment.Config{
			MaxTokens:        cfg.Assessment.MaxTokens,
			GradingMaxTokens: cfg.Assessment.GradingMaxTokens,
			Structured:       cfg.Assessment.Structured,
		}, r.logger)
		return tutor.New(chats, gen, ls, engine, tutor.Config{
			QuizAt:     cfg.Assessment.QuizAt,
			ExerciseAt: cfg.Assessment.ExerciseAt,
			ProjectAt:  cfg.Assessment.ProjectAt,
		}, r.logger), nil
	}
}

// chats opens the chat store of the terminal learner.
func (r *deps) chats(ctx context.Context) (*chat.Store, error) {
	chats := chat.NewStore(r.kv, r.logger)
	if err := chats.Load(ctx); err != nil {
		return nil, fmt.Errorf("load chats: %w", err)
	}
	return chats, nil
}
