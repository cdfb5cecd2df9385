// Package server exposes the tutor over HTTP: account and token
// endpoints, a per-user chat API and a websocket typing stream.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/abhisek/tutorchat/internal/assessment"
	"github.com/abhisek/tutorchat/internal/store"
	"github.com/abhisek/tutorchat/internal/tutor"
)

// Config configures the HTTP API.
type Config struct {
	Addr         string
	JWTSecret    string
	TokenTTL     time.Duration
	AllowOrigins []string
	RatePerSec   float64
	RateBurst    int
	// DefaultTotal is the curriculum length assumed by the requirements
	// check for threads without a curriculum.
	DefaultTotal int
	TypingDelay  time.Duration
}

// TutorFactory builds a tutor whose state lives in kv.
type TutorFactory func(ctx context.Context, kv store.KV) (*tutor.Tutor, error)

// Server is the HTTP API.
type Server struct {
	cfg     Config
	users   store.UserRepo
	kv      store.KV
	factory TutorFactory
	logger  *zap.Logger
	engine  *gin.Engine

	// tutorsMu is held while a tutor is built, which reads the store.
	tutorsMu sync.Mutex
	tutors   map[int64]*tutor.Tutor

	mu       sync.Mutex
	attempts map[string]*assessment.Attempt
	limiters map[string]*rate.Limiter
}

// New creates a Server. Each user's chats are stored in kv under
// "user:{id}:". logger may be nil.
func New(cfg Config, users store.UserRepo, kv store.KV, factory TutorFactory, logger *zap.Logger) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("server: JWT secret is required")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:      cfg,
		users:    users,
		kv:       kv,
		factory:  factory,
		logger:   logger.Named("server"),
		tutors:   make(map[int64]*tutor.Tutor),
		attempts: make(map[string]*assessment.Attempt),
		limiters: make(map[string]*rate.Limiter),
	}
	s.engine = s.routes()
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), s.rateLimit())

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(s.cfg.AllowOrigins) == 0 || slices.Contains(s.cfg.AllowOrigins, "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.cfg.AllowOrigins
		corsCfg.AllowCredentials = true
	}
	r.Use(cors.New(corsCfg))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.POST("/register", s.handleRegister)
	r.POST("/token", s.handleToken)

	api := r.Group("/api", s.authRequired())
	{
		api.GET("/check-requirements/:count", s.handleCheckRequirements)

		api.GET("/chats", s.handleListChats)
		api.POST("/chats", s.handleCreateChat)
		api.POST("/chats/:id/switch", s.handleSwitchChat)
		api.DELETE("/chats/:id", s.handleDeleteChat)
		api.GET("/chats/:id/messages", s.handleMessages)
		api.POST("/chats/:id/messages", s.handleSend)
		api.POST("/chats/:id/next", s.handleNext)
		api.POST("/chats/:id/redo", s.handleRedo)
		api.GET("/chats/:id/curriculum", s.handleCurriculum)
		api.POST("/chats/:id/assessment", s.handleStartAssessment)
		api.POST("/chats/:id/assessment/submit", s.handleSubmitAssessment)
		api.POST("/chats/:id/assessment/retry", s.handleRetryAssessment)
		api.POST("/chats/:id/assessment/later", s.handleDeferAssessment)
		api.GET("/chats/:id/stream", s.handleStream)
	}
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", zap.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// tutorFor returns the user's tutor, building it on first use.
func (s *Server) tutorFor(ctx context.Context, userID int64) (*tutor.Tutor, error) {
	s.tutorsMu.Lock()
	defer s.tutorsMu.Unlock()
	if t, ok := s.tutors[userID]; ok {
		return t, nil
	}
	t, err := s.factory(ctx, store.Prefixed(s.kv, fmt.Sprintf("user:%d:", userID)))
	if err != nil {
		return nil, err
	}
	s.tutors[userID] = t
	return t, nil
}

func attemptKey(userID int64, threadID string) string {
	return fmt.Sprintf("%d:%s", userID, threadID)
}

func (s *Server) attempt(userID int64, threadID string) *assessment.Attempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts[attemptKey(userID, threadID)]
}

func (s *Server) setAttempt(userID int64, threadID string, at *assessment.Attempt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if at == nil {
		delete(s.attempts, attemptKey(userID, threadID))
		return
	}
	s.attempts[attemptKey(userID, threadID)] = at
}
