package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)
	for _, table := range []string{"kv", "llm_request_events", "users", "global_sequence"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s: %v", table, err)
		}
	}
}

func TestSequenceCounter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sc, err := newSequenceCounter(s.DB())
	if err != nil {
		t.Fatalf("new sequence counter: %v", err)
	}

	for i := 0; i < 5; i++ {
		seq, err := sc.Next(ctx)
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		if want := int64(i + 1); seq != want {
			t.Errorf("seq[%d] = %d, want %d", i, seq, want)
		}
	}
}

func TestSQLiteKV(t *testing.T) {
	s := openTestStore(t)
	testKV(t, s.KV())
}

func TestSQLiteKV_RevisionAdvancesOnWrite(t *testing.T) {
	s := openTestStore(t)
	kv := s.KV()
	ctx := context.Background()

	revision := func(key string) int64 {
		var rev int64
		if err := s.DB().QueryRow(`SELECT revision FROM kv WHERE key = ?`, key).Scan(&rev); err != nil {
			t.Fatalf("revision of %s: %v", key, err)
		}
		return rev
	}

	if err := kv.Set(ctx, MessagesKey("a"), []byte(`[]`)); err != nil {
		t.Fatal(err)
	}
	if err := kv.Set(ctx, CurriculumKey("a"), []byte(`{}`)); err != nil {
		t.Fatal(err)
	}
	if revision(CurriculumKey("a")) <= revision(MessagesKey("a")) {
		t.Fatal("later write must carry a higher revision")
	}
}

func TestMemoryKV(t *testing.T) {
	testKV(t, NewMemoryKV())
}

func TestPrefixedKV_IsolatesNamespaces(t *testing.T) {
	ctx := context.Background()
	base := NewMemoryKV()
	alice := Prefixed(base, "user:1:")
	bob := Prefixed(base, "user:2:")

	if err := alice.Set(ctx, ChatHistoryKey, []byte(`["a"]`)); err != nil {
		t.Fatal(err)
	}
	if _, err := bob.Get(ctx, ChatHistoryKey); !errors.Is(err, ErrNotFound) {
		t.Fatalf("bob sees alice's key: %v", err)
	}
	keys, err := alice.Keys(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 1 || keys[0] != ChatHistoryKey {
		t.Fatalf("unexpected keys %v", keys)
	}
	if _, err := base.Get(ctx, "user:1:"+ChatHistoryKey); err != nil {
		t.Fatalf("expected namespaced key in base store: %v", err)
	}
}

// testKV exercises the KV contract shared by every implementation.
func testKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	if _, err := kv.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) = %v, want ErrNotFound", err)
	}

	if err := kv.Set(ctx, "messages-1", []byte("one")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := kv.Set(ctx, "messages-1", []byte("two")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if err := kv.Set(ctx, "messages-2", []byte("x")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := kv.Set(ctx, "curriculum-1", []byte("y")); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := kv.Get(ctx, "messages-1")
	if err != nil || string(got) != "two" {
		t.Fatalf("Get = %q, %v; want two", got, err)
	}

	keys, err := kv.Keys(ctx, "messages-")
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(keys) != 2 || keys[0] != "messages-1" || keys[1] != "messages-2" {
		t.Fatalf("Keys = %v", keys)
	}

	if err := kv.Remove(ctx, "messages-1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := kv.Remove(ctx, "messages-1"); err != nil {
		t.Fatalf("remove twice: %v", err)
	}
	if _, err := kv.Get(ctx, "messages-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after remove = %v", err)
	}
}

func TestLoadJSON_MissingAndCorrupt(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()

	var v map[string]int
	found, err := LoadJSON(ctx, kv, "k", &v)
	if found || err != nil {
		t.Fatalf("missing: found=%v err=%v", found, err)
	}

	if err := SaveJSON(ctx, kv, "k", map[string]int{"a": 1}); err != nil {
		t.Fatal(err)
	}
	found, err = LoadJSON(ctx, kv, "k", &v)
	if !found || err != nil || v["a"] != 1 {
		t.Fatalf("roundtrip: found=%v err=%v v=%v", found, err, v)
	}

	kv.Set(ctx, "k", []byte("{not json"))
	found, err = LoadJSON(ctx, kv, "k", &v)
	var corrupt *CorruptError
	if found || !errors.As(err, &corrupt) || corrupt.Key != "k" {
		t.Fatalf("corrupt: found=%v err=%v", found, err)
	}
}

func TestEventRepo_AppendQueryUsage(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	events := []LLMRequestEventData{
		{Provider: "mock", Model: "m1", Purpose: "curriculum", InputTokens: 10, OutputTokens: 100, LatencyMs: 20, Success: true},
		{Provider: "mock", Model: "m1", Purpose: "lesson", InputTokens: 5, OutputTokens: 50, LatencyMs: 10, Success: true},
		{Provider: "mock", Model: "m2", Purpose: "lesson", InputTokens: 7, OutputTokens: 0, LatencyMs: 30, Success: false, ErrorMessage: "boom"},
	}
	for _, e := range events {
		if err := repo.AppendLLMRequest(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	all, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d events, want 3", len(all))
	}
	if all[0].Sequence <= all[1].Sequence {
		t.Error("events must be newest first")
	}
	if all[0].ErrorMessage != "boom" || all[0].Success {
		t.Errorf("unexpected newest event %+v", all[0])
	}

	limited, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 1})
	if err != nil || len(limited) != 1 {
		t.Fatalf("limit: %v %d", err, len(limited))
	}

	one, err := repo.GetLLMEvent(ctx, all[2].ID)
	if err != nil || one == nil || one.Purpose != "curriculum" {
		t.Fatalf("get: %v %+v", err, one)
	}
	missing, err := repo.GetLLMEvent(ctx, 9999)
	if err != nil || missing != nil {
		t.Fatalf("get missing: %v %+v", err, missing)
	}

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("usage: %v", err)
	}
	if len(byPurpose) != 2 || byPurpose[1].Purpose != "lesson" || byPurpose[1].Calls != 2 || byPurpose[1].InputTokens != 12 {
		t.Fatalf("unexpected usage %+v", byPurpose)
	}

	byModel, err := repo.LLMUsageByModel(ctx)
	if err != nil || len(byModel) != 2 || byModel[0].Model != "m1" {
		t.Fatalf("unexpected model usage %+v (%v)", byModel, err)
	}
}

func TestUserRepo(t *testing.T) {
	s := openTestStore(t)
	repo := s.UserRepo()
	ctx := context.Background()

	u, err := repo.CreateUser(ctx, "ada", "hash")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if _, err := repo.CreateUser(ctx, "ada", "other"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("duplicate: %v", err)
	}

	got, err := repo.UserByName(ctx, "ada")
	if err != nil || got == nil || got.PasswordHash != "hash" {
		t.Fatalf("lookup: %v %+v", err, got)
	}
	none, err := repo.UserByName(ctx, "grace")
	if err != nil || none != nil {
		t.Fatalf("lookup missing: %v %+v", err, none)
	}
}

func TestSQLiteKV_OverwriteKeepsOneRow(t *testing.T) {
	s := openTestStore(t)
	kv := s.KV()
	ctx := context.Background()

	for _, v := range []string{`1`, `2`, `3`} {
		if err := kv.Set(ctx, PendingKey("a"), []byte(v)); err != nil {
			t.Fatal(err)
		}
	}
	n, err := s.Client().KVEntry.Query().Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("rows = %d, want 1", n)
	}
	got, err := kv.Get(ctx, PendingKey("a"))
	if err != nil || string(got) != `3` {
		t.Fatalf("get = %q, %v", got, err)
	}
}

func TestSQLiteKV_KeysMatchPrefixExactly(t *testing.T) {
	s := openTestStore(t)
	kv := s.KV()
	ctx := context.Background()

	for _, k := range []string{"user:1:chatHistory", "user:1:CHATHISTORY", "user:1_x", "user:10:chatHistory"} {
		if err := kv.Set(ctx, k, []byte(`{}`)); err != nil {
			t.Fatal(err)
		}
	}
	keys, err := kv.Keys(ctx, "user:1:chat")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 1 || keys[0] != "user:1:chatHistory" {
		t.Fatalf("keys = %v", keys)
	}
	keys, err = kv.Keys(ctx, "user:1_")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 1 || keys[0] != "user:1_x" {
		t.Fatalf("underscore is literal, keys = %v", keys)
	}
}

func TestEventsAndKVShareSequence(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.KV().Set(ctx, MessagesKey("a"), []byte(`[]`)); err != nil {
		t.Fatal(err)
	}
	if err := s.EventRepo().AppendLLMRequest(ctx, LLMRequestEventData{Provider: "mock", Model: "m", Purpose: "lesson", Success: true}); err != nil {
		t.Fatal(err)
	}
	if err := s.KV().Set(ctx, CurriculumKey("a"), []byte(`{}`)); err != nil {
		t.Fatal(err)
	}

	events, err := s.EventRepo().QueryLLMEvents(ctx, QueryOpts{})
	if err != nil || len(events) != 1 {
		t.Fatalf("events: %v %d", err, len(events))
	}
	if events[0].Sequence != 2 {
		t.Errorf("event sequence = %d, want 2", events[0].Sequence)
	}
}
