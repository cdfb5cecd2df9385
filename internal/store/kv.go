package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/abhisek/tutorchat/ent"
	"github.com/abhisek/tutorchat/ent/kventry"
)

// Persisted key layout. Per-thread keys embed the chat ID.
const (
	ChatHistoryKey = "chatHistory"
	CurrentChatKey = "currentChatId"
)

// MessagesKey is the key of a thread's message log.
func MessagesKey(chatID string) string { return "messages-" + chatID }

// CurriculumKey is the key of a thread's serialized curriculum.
func CurriculumKey(chatID string) string { return "curriculum-" + chatID }

// TakenKey is the key of a thread's assessment taken-log.
func TakenKey(chatID string) string { return "taken-" + chatID }

// PendingKey is the key of a thread's pending (due, unresolved) assessment.
func PendingKey(chatID string) string { return "pending-" + chatID }

// CorruptError reports a persisted value that could not be decoded.
type CorruptError struct {
	Key string
	Err error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("corrupt value at %q: %v", e.Key, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

// LoadJSON decodes the JSON value at key into v. It reports found=false
// when the key is missing. A value that fails to decode yields
// found=false and a *CorruptError so the caller can reinitialize.
func LoadJSON(ctx context.Context, kv KV, key string, v any) (bool, error) {
	raw, err := kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, &CorruptError{Key: key, Err: err}
	}
	return true, nil
}

// SaveJSON encodes v as JSON and stores it at key.
func SaveJSON(ctx context.Context, kv KV, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %q: %w", key, err)
	}
	return kv.Set(ctx, key, raw)
}

// sqliteKV implements KV on the kv table. Every write takes a fresh
// revision from the global sequence.
type sqliteKV struct {
	client *ent.Client
	seq    *sequenceCounter
}

func (s *sqliteKV) Get(ctx context.Context, key string) ([]byte, error) {
	e, err := s.client.KVEntry.Query().
		Where(kventry.Key(key)).
		Only(ctx)
	if ent.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	return e.Data, nil
}

func (s *sqliteKV) Set(ctx context.Context, key string, value []byte) error {
	rev, err := s.seq.Next(ctx)
	if err != nil {
		return err
	}
	err = s.client.KVEntry.Create().
		SetKey(key).
		SetData(value).
		SetRevision(rev).
		SetUpdatedAt(time.Now().UTC()).
		OnConflictColumns(kventry.FieldKey).
		UpdateNewValues().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (s *sqliteKV) Remove(ctx context.Context, key string) error {
	if _, err := s.client.KVEntry.Delete().Where(kventry.Key(key)).Exec(ctx); err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	return nil
}

func (s *sqliteKV) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys, err := s.client.KVEntry.Query().
		Where(kventry.KeyHasPrefix(prefix)).
		Order(ent.Asc(kventry.FieldKey)).
		Select(kventry.FieldKey).
		Strings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	// SQLite LIKE ignores ASCII case.
	out := keys[:0]
	for _, k := range keys {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out, nil
}

// MemoryKV is an in-process KV used by tests and the mock provider mode.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryKV creates an empty MemoryKV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryKV) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryKV) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryKV) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// prefixedKV namespaces every key under a fixed prefix.
type prefixedKV struct {
	inner  KV
	prefix string
}

// Prefixed returns a KV that stores every key under prefix in inner.
// Keys returned by Keys have the prefix stripped.
func Prefixed(inner KV, prefix string) KV {
	return &prefixedKV{inner: inner, prefix: prefix}
}

func (p *prefixedKV) Get(ctx context.Context, key string) ([]byte, error) {
	return p.inner.Get(ctx, p.prefix+key)
}

func (p *prefixedKV) Set(ctx context.Context, key string, value []byte) error {
	return p.inner.Set(ctx, p.prefix+key, value)
}

func (p *prefixedKV) Remove(ctx context.Context, key string) error {
	return p.inner.Remove(ctx, p.prefix+key)
}

func (p *prefixedKV) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys, err := p.inner.Keys(ctx, p.prefix+prefix)
	if err != nil {
		return nil, err
	}
	for i, k := range keys {
		keys[i] = strings.TrimPrefix(k, p.prefix)
	}
	return keys, nil
}
