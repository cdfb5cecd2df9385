// Package chat persists chat threads, their transcripts and the per-thread
// learning state in a store.KV.
package chat

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/tutorchat/internal/assessment"
	"github.com/abhisek/tutorchat/internal/curriculum"
	"github.com/abhisek/tutorchat/internal/greeting"
	"github.com/abhisek/tutorchat/internal/store"
)

// ErrUnknownThread is returned for a thread ID missing from the history.
var ErrUnknownThread = errors.New("chat: unknown thread")

// DefaultTitle names a thread until the learner says something that is
// not a greeting.
const DefaultTitle = "New Chat"

const titleRunes = 30

// Role is the sender of a message.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Message is one transcript entry.
type Message struct {
	ID           string    `json:"id"`
	Role         Role      `json:"type"`
	Content      string    `json:"content"`
	ShowControls bool      `json:"showControls,omitempty"`
	Streaming    bool      `json:"isStreaming,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NewMessage creates a message with a fresh ID.
func NewMessage(role Role, content string) Message {
	return Message{ID: uuid.NewString(), Role: role, Content: content, CreatedAt: time.Now().UTC()}
}

// Thread is a chat history entry.
type Thread struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"timestamp"`
}

// Store holds the thread list and the current thread, and reads and
// writes per-thread state. Every mutation is written through to the KV.
type Store struct {
	kv     store.KV
	logger *zap.Logger

	mu      sync.Mutex
	threads []Thread
	current string
}

// NewStore creates a Store over kv. Call Load before use. logger may be nil.
func NewStore(kv store.KV, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{kv: kv, logger: logger.Named("chat")}
}

// Load reads the thread history and current thread. An empty history
// gets a fresh thread; a current ID not in the history falls back to the
// newest thread.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var threads []Thread
	found, err := s.loadJSON(ctx, store.ChatHistoryKey, &threads)
	if err != nil {
		return err
	}
	s.threads = nil
	if found {
		s.threads = threads
	}

	raw, err := s.kv.Get(ctx, store.CurrentChatKey)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return fmt.Errorf("load current chat: %w", err)
	default:
		s.current = string(raw)
	}

	if len(s.threads) == 0 {
		_, err := s.create(ctx)
		return err
	}
	if s.indexOf(s.current) < 0 {
		s.current = s.threads[0].ID
		return s.saveCurrent(ctx)
	}
	return nil
}

// Create starts a new thread seeded with the tutor introduction and makes
// it current.
func (s *Store) Create(ctx context.Context) (Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.create(ctx)
}

func (s *Store) create(ctx context.Context) (Thread, error) {
	th := Thread{ID: "chat-" + uuid.NewString(), Title: DefaultTitle, CreatedAt: time.Now().UTC()}
	intro := NewMessage(RoleBot, greeting.Intro)
	intro.ID = "initial"
	if err := store.SaveJSON(ctx, s.kv, store.MessagesKey(th.ID), []Message{intro}); err != nil {
		return Thread{}, err
	}
	s.threads = append([]Thread{th}, s.threads...)
	s.current = th.ID
	if err := s.saveHistory(ctx); err != nil {
		return Thread{}, err
	}
	return th, s.saveCurrent(ctx)
}

// Switch makes id the current thread.
func (s *Store) Switch(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(id) < 0 {
		return ErrUnknownThread
	}
	s.current = id
	return s.saveCurrent(ctx)
}

// Delete removes a thread and all of its state. Deleting the current
// thread creates and switches to a new one.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return ErrUnknownThread
	}
	s.threads = slices.Delete(s.threads, i, i+1)
	for _, key := range []string{store.MessagesKey(id), store.CurriculumKey(id), store.TakenKey(id), store.PendingKey(id)} {
		if err := s.kv.Remove(ctx, key); err != nil {
			return err
		}
	}
	if err := s.saveHistory(ctx); err != nil {
		return err
	}
	if s.current == id {
		_, err := s.create(ctx)
		return err
	}
	return nil
}

// Current returns the current thread ID.
func (s *Store) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// IsCurrent reports whether id is the current thread.
func (s *Store) IsCurrent(id string) bool {
	return s.Current() == id
}

// Threads returns the history, newest first.
func (s *Store) Threads() []Thread {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.threads)
}

// Thread returns the history entry for id.
func (s *Store) Thread(id string) (Thread, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.threads[i], true
	}
	return Thread{}, false
}

// Messages returns the transcript of a thread. A missing or corrupt
// transcript reads as empty.
func (s *Store) Messages(ctx context.Context, id string) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messages(ctx, id)
}

func (s *Store) messages(ctx context.Context, id string) ([]Message, error) {
	var msgs []Message
	found, err := s.loadJSON(ctx, store.MessagesKey(id), &msgs)
	if err != nil || !found {
		return nil, err
	}
	return msgs, nil
}

// Append adds messages to a thread's transcript.
func (s *Store) Append(ctx context.Context, id string, msgs ...Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, err := s.messages(ctx, id)
	if err != nil {
		return err
	}
	return store.SaveJSON(ctx, s.kv, store.MessagesKey(id), append(existing, msgs...))
}

// RefreshTitle recomputes a thread's title from its transcript.
func (s *Store) RefreshTitle(ctx context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return "", ErrUnknownThread
	}
	msgs, err := s.messages(ctx, id)
	if err != nil {
		return "", err
	}
	title := DeriveTitle(msgs)
	if s.threads[i].Title == title {
		return title, nil
	}
	s.threads[i].Title = title
	return title, s.saveHistory(ctx)
}

// Curriculum returns a thread's curriculum, or nil when it has none. A
// stored curriculum that is corrupt or fails validation reads as nil.
func (s *Store) Curriculum(ctx context.Context, id string) (*curriculum.Curriculum, error) {
	var c curriculum.Curriculum
	found, err := s.loadJSON(ctx, store.CurriculumKey(id), &c)
	if err != nil || !found {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		s.logger.Warn("discarding invalid curriculum", zap.String("chat", id), zap.Error(err))
		return nil, nil
	}
	return &c, nil
}

// SaveCurriculum stores a thread's curriculum.
func (s *Store) SaveCurriculum(ctx context.Context, id string, c *curriculum.Curriculum) error {
	return store.SaveJSON(ctx, s.kv, store.CurriculumKey(id), c)
}

// Taken returns a thread's assessment taken-log, never nil.
func (s *Store) Taken(ctx context.Context, id string) (assessment.TakenLog, error) {
	var taken assessment.TakenLog
	found, err := s.loadJSON(ctx, store.TakenKey(id), &taken)
	if err != nil {
		return nil, err
	}
	if !found || taken == nil {
		taken = assessment.TakenLog{}
	}
	return taken, nil
}

// SaveTaken stores a thread's taken-log.
func (s *Store) SaveTaken(ctx context.Context, id string, taken assessment.TakenLog) error {
	return store.SaveJSON(ctx, s.kv, store.TakenKey(id), taken)
}

// Pending returns the assessment a thread is blocked on, or nil.
func (s *Store) Pending(ctx context.Context, id string) (*assessment.Trigger, error) {
	var tr assessment.Trigger
	found, err := s.loadJSON(ctx, store.PendingKey(id), &tr)
	if err != nil || !found {
		return nil, err
	}
	return &tr, nil
}

// SavePending records the assessment a thread is blocked on. nil clears it.
func (s *Store) SavePending(ctx context.Context, id string, tr *assessment.Trigger) error {
	if tr == nil {
		return s.kv.Remove(ctx, store.PendingKey(id))
	}
	return store.SaveJSON(ctx, s.kv, store.PendingKey(id), tr)
}

// loadJSON reads key into v. Corrupt values are logged and read as missing.
func (s *Store) loadJSON(ctx context.Context, key string, v any) (bool, error) {
	found, err := store.LoadJSON(ctx, s.kv, key, v)
	var corrupt *store.CorruptError
	if errors.As(err, &corrupt) {
		s.logger.Warn("discarding corrupt value", zap.String("key", key), zap.Error(corrupt.Err))
		return false, nil
	}
	return found, err
}

func (s *Store) saveHistory(ctx context.Context) error {
	return store.SaveJSON(ctx, s.kv, store.ChatHistoryKey, s.threads)
}

func (s *Store) saveCurrent(ctx context.Context) error {
	return s.kv.Set(ctx, store.CurrentChatKey, []byte(s.current))
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.threads, func(t Thread) bool { return t.ID == id })
}

// DeriveTitle is the first user message that is not a greeting, cut to
// 30 runes with "..." appended when longer, or DefaultTitle.
func DeriveTitle(msgs []Message) string {
	for _, m := range msgs {
		if m.Role != RoleUser || greeting.Is(m.Content) {
			continue
		}
		if utf8.RuneCountInString(m.Content) <= titleRunes {
			return m.Content
		}
		return string([]rune(m.Content)[:titleRunes]) + "..."
	}
	return DefaultTitle
}
