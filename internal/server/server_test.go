package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/tutorchat/internal/assessment"
	"github.com/abhisek/tutorchat/internal/chat"
	"github.com/abhisek/tutorchat/internal/curriculum"
	"github.com/abhisek/tutorchat/internal/lessons"
	"github.com/abhisek/tutorchat/internal/llm"
	"github.com/abhisek/tutorchat/internal/store"
	"github.com/abhisek/tutorchat/internal/tutor"
)

func init() { gin.SetMode(gin.TestMode) }

const outline = "1. Alpha\na. A1\nb. A2\n2. Beta\na. B1\nb. B2"

type harness struct {
	srv  *Server
	mock *llm.MockProvider
	http *httptest.Server
}

// harnessSchedule fires a quiz after 2 subtopics and a project after 4.
var harnessSchedule = tutor.Config{QuizAt: []int{2}, ProjectAt: []int{4}}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	return newScheduledHarness(t, cfg, harnessSchedule)
}

func newScheduledHarness(t *testing.T, cfg Config, schedule tutor.Config) *harness {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	mock := llm.NewMockProvider()
	mock.Handler = func(req llm.Request) llm.MockResponse {
		p := req.Messages[len(req.Messages)-1].Content
		switch {
		case strings.HasPrefix(p, "Generate a comprehensive curriculum"):
			return llm.TextResponse(outline)
		case strings.HasPrefix(p, "Create a multiple choice quiz"):
			return llm.TextResponse("Q1. Pick a\na) a (correct)\nb) b")
		}
		return llm.TextResponse("First paragraph.\n\nSecond paragraph.")
	}
	factory := func(ctx context.Context, kv store.KV) (*tutor.Tutor, error) {
		chats := chat.NewStore(kv, nil)
		if err := chats.Load(ctx); err != nil {
			return nil, err
		}
		gen := curriculum.NewGenerator(mock, curriculum.Config{Topics: 2, Subtopics: 2, MaxTokens: 100}, nil)
		engine := assessment.NewEngine(mock, assessment.Config{MaxTokens: 100, GradingMaxTokens: 100}, nil)
		return tutor.New(chats, gen, lessons.NewService(mock, lessons.DefaultConfig()), engine, schedule, nil), nil
	}

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "test-secret"
	}
	if cfg.DefaultTotal == 0 {
		cfg.DefaultTotal = 32
	}
	srv, err := New(cfg, st.UserRepo(), st.KV(), factory, nil)
	require.NoError(t, err)
	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(hs.Close)
	return &harness{srv: srv, mock: mock, http: hs}
}

func (h *harness) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, h.http.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func (h *harness) login(t *testing.T, user string) string {
	t.Helper()
	status, _ := h.do(t, http.MethodPost, "/register", "", map[string]string{"username": user, "password": "secret123"})
	require.Equal(t, http.StatusCreated, status)
	status, body := h.do(t, http.MethodPost, "/token", "", map[string]string{"username": user, "password": "secret123"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "bearer", body["token_type"])
	return body["access_token"].(string)
}

func TestAuth_RegisterAndToken(t *testing.T) {
	h := newHarness(t, Config{})
	h.login(t, "ada")

	status, _ := h.do(t, http.MethodPost, "/register", "", map[string]string{"username": "ada", "password": "secret123"})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = h.do(t, http.MethodPost, "/token", "", map[string]string{"username": "ada", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, status)

	// OAuth2 password form.
	resp, err := http.PostForm(h.http.URL+"/token", url.Values{"username": {"ada"}, "password": {"secret123"}})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuth_RequiredOnAPI(t *testing.T) {
	h := newHarness(t, Config{})
	status, _ := h.do(t, http.MethodGet, "/api/check-requirements/4", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = h.do(t, http.MethodGet, "/api/check-requirements/4", "not.a.jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAuth_ExpiredToken(t *testing.T) {
	h := newHarness(t, Config{TokenTTL: time.Nanosecond})
	token := h.login(t, "ada")
	time.Sleep(1100 * time.Millisecond)
	status, _ := h.do(t, http.MethodGet, "/api/chats", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestCheckRequirements(t *testing.T) {
	h := newHarness(t, Config{})
	token := h.login(t, "ada")

	// The harness schedule: quiz after 2 subtopics, project after 4.
	status, body := h.do(t, http.MethodGet, "/api/check-requirements/2", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"quiz": true, "exercise": false, "project": false}, body)

	status, body = h.do(t, http.MethodGet, "/api/check-requirements/4", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"quiz": false, "exercise": false, "project": true}, body)

	status, body = h.do(t, http.MethodGet, "/api/check-requirements/nonsense", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["quiz"])
}

func TestChatFlow(t *testing.T) {
	h := newHarness(t, Config{})
	token := h.login(t, "ada")

	status, body := h.do(t, http.MethodGet, "/api/chats", token, nil)
	require.Equal(t, http.StatusOK, status)
	id := body["current"].(string)
	base := "/api/chats/" + id

	status, body = h.do(t, http.MethodPost, base+"/messages", token, map[string]string{"content": "Go"})
	require.Equal(t, http.StatusOK, status)
	assert.NotNil(t, body["curriculum"])

	status, _ = h.do(t, http.MethodPost, base+"/next", token, nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = h.do(t, http.MethodPost, base+"/next", token, nil)
	require.Equal(t, http.StatusOK, status)

	status, body = h.do(t, http.MethodPost, base+"/next", token, nil)
	require.Equal(t, http.StatusOK, status)
	pending := body["pending"].(map[string]any)
	assert.Equal(t, "quiz", pending["type"])

	status, body = h.do(t, http.MethodPost, base+"/assessment", token, nil)
	require.Equal(t, http.StatusOK, status)
	questions := body["assessment"].(map[string]any)["questions"].([]any)
	require.Len(t, questions, 1)
	assert.Empty(t, questions[0].(map[string]any)["correct"], "answer key hidden before submission")

	status, body = h.do(t, http.MethodPost, base+"/assessment/submit", token, map[string]any{"answers": map[string]string{"0": "a"}})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 100.0, body["attempt"].(map[string]any)["score"])

	status, body = h.do(t, http.MethodGet, base+"/curriculum", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2.0, body["count"])
	assert.Nil(t, body["pending"])

	status, body = h.do(t, http.MethodGet, base+"/messages", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["messages"])
}

func TestChats_PerUserIsolation(t *testing.T) {
	h := newHarness(t, Config{})
	ada := h.login(t, "ada")
	bob := h.login(t, "bob")

	_, body := h.do(t, http.MethodGet, "/api/chats", ada, nil)
	adaChat := body["current"].(string)

	status, _ := h.do(t, http.MethodGet, "/api/chats/"+adaChat+"/messages", bob, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = h.do(t, http.MethodPost, "/api/chats", bob, nil)
	assert.Equal(t, http.StatusCreated, status)
	_, body = h.do(t, http.MethodGet, "/api/chats", ada, nil)
	assert.Len(t, body["threads"], 1)
}

func TestChat_ControlsWithoutCurriculum(t *testing.T) {
	h := newHarness(t, Config{})
	token := h.login(t, "ada")
	_, body := h.do(t, http.MethodGet, "/api/chats", token, nil)
	id := body["current"].(string)

	status, _ := h.do(t, http.MethodPost, "/api/chats/"+id+"/next", token, nil)
	assert.Equal(t, http.StatusConflict, status)
	status, _ = h.do(t, http.MethodPost, "/api/chats/"+id+"/assessment/later", token, nil)
	assert.Equal(t, http.StatusConflict, status)
	status, _ = h.do(t, http.MethodGet, "/api/chats/"+id+"/curriculum", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestChat_OracleAuthErrorIs401(t *testing.T) {
	h := newHarness(t, Config{})
	token := h.login(t, "ada")
	h.mock.Handler = func(llm.Request) llm.MockResponse {
		return llm.MockResponse{Err: &llm.ErrAuth{StatusCode: 401, Err: errors.New("bad key")}}
	}
	_, body := h.do(t, http.MethodGet, "/api/chats", token, nil)
	id := body["current"].(string)

	status, body := h.do(t, http.MethodPost, "/api/chats/"+id+"/messages", token, map[string]string{"content": "Go"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, true, body["reauth"])
}

func TestRateLimit(t *testing.T) {
	h := newHarness(t, Config{RatePerSec: 0.001, RateBurst: 2})
	for i := 0; i < 2; i++ {
		status, _ := h.do(t, http.MethodGet, "/healthz", "", nil)
		require.Equal(t, http.StatusOK, status, fmt.Sprint("request ", i))
	}
	status, _ := h.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, status)
}

func TestStream_TypesLastBotMessage(t *testing.T) {
	h := newHarness(t, Config{})
	token := h.login(t, "ada")
	_, body := h.do(t, http.MethodGet, "/api/chats", token, nil)
	id := body["current"].(string)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	wsURL := "ws" + strings.TrimPrefix(h.http.URL, "http") + "/api/chats/" + id + "/stream?token=" + url.QueryEscape(token)
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	var frames []streamFrame
	for {
		_, raw, err := conn.Read(ctx)
		if err != nil {
			break
		}
		var f streamFrame
		require.NoError(t, json.Unmarshal(raw, &f))
		frames = append(frames, f)
		if f.Done {
			break
		}
	}
	require.NotEmpty(t, frames)
	last := frames[len(frames)-1]
	assert.True(t, last.Done)
	assert.Equal(t, "initial", last.MessageID)
	assert.Equal(t, "Hi! I'm your AI tutor. What would you like to learn today?", last.Content)
}

// dueAssessment walks the user's current chat until its first assessment
// is due, starts it and returns the chat's API base path.
func (h *harness) dueAssessment(t *testing.T, token string) string {
	t.Helper()
	_, body := h.do(t, http.MethodGet, "/api/chats", token, nil)
	base := "/api/chats/" + body["current"].(string)

	status, _ := h.do(t, http.MethodPost, base+"/messages", token, map[string]string{"content": "Go"})
	require.Equal(t, http.StatusOK, status)
	for i := 0; i < 3; i++ {
		status, body = h.do(t, http.MethodPost, base+"/next", token, nil)
		require.Equal(t, http.StatusOK, status)
	}
	require.NotNil(t, body["pending"])
	status, _ = h.do(t, http.MethodPost, base+"/assessment", token, nil)
	require.Equal(t, http.StatusOK, status)
	return base
}

func TestSubmitAssessment_EmptyContentIsConflict(t *testing.T) {
	h := newHarness(t, Config{})
	token := h.login(t, "ada")
	answer := h.mock.Handler
	h.mock.Handler = func(req llm.Request) llm.MockResponse {
		if strings.HasPrefix(req.Messages[len(req.Messages)-1].Content, "Create a multiple choice quiz") {
			return llm.TextResponse("Sorry, I cannot produce a quiz right now.")
		}
		return answer(req)
	}
	base := h.dueAssessment(t, token)

	status, body := h.do(t, http.MethodPost, base+"/assessment/submit", token, map[string]any{})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "No questions available, please try again.", body["error"])

	status, body = h.do(t, http.MethodGet, base+"/curriculum", token, nil)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, body["pending"])
	assert.Equal(t, "quiz", body["pending"].(map[string]any)["type"])

	status, body = h.do(t, http.MethodGet, "/api/check-requirements/2", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["quiz"], "the quiz is still owed")
}

func TestSubmitAssessment_UnknownItemIsBadRequest(t *testing.T) {
	h := newHarness(t, Config{})
	token := h.login(t, "ada")
	base := h.dueAssessment(t, token)

	status, _ := h.do(t, http.MethodPost, base+"/assessment/submit", token, map[string]any{"answers": map[string]string{"9": "a"}})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := h.do(t, http.MethodPost, base+"/assessment/submit", token, map[string]any{"answers": map[string]string{"0": "a"}})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 100.0, body["attempt"].(map[string]any)["score"])
}

func TestSubmitAssessment_ConcurrentSubmitKeepsGradedWork(t *testing.T) {
	h := newScheduledHarness(t, Config{}, tutor.Config{ProjectAt: []int{2}})
	token := h.login(t, "ada")

	entered := make(chan struct{})
	proceed := make(chan struct{})
	answer := h.mock.Handler
	h.mock.Handler = func(req llm.Request) llm.MockResponse {
		p := req.Messages[len(req.Messages)-1].Content
		switch {
		case strings.HasPrefix(p, "Create a real world problem-practical project"):
			return llm.TextResponse("Title: Todo API\nDescription: Build a todo service\nRequirements:\n- CRUD")
		case strings.HasPrefix(p, "Evaluate the following project solution."):
			close(entered)
			select {
			case <-proceed:
			case <-time.After(5 * time.Second):
			}
			return llm.TextResponse("Solid work. 80/100")
		}
		return answer(req)
	}
	base := h.dueAssessment(t, token)

	type result struct {
		status int
		body   map[string]any
	}
	first := make(chan result, 1)
	go func() {
		status, body := h.do(t, http.MethodPost, base+"/assessment/submit", token, map[string]string{"projectSolution": "first"})
		first <- result{status, body}
	}()
	<-entered

	status, _ := h.do(t, http.MethodPost, base+"/assessment/submit", token, map[string]string{"projectSolution": "second"})
	assert.Equal(t, http.StatusConflict, status)
	status, _ = h.do(t, http.MethodPost, base+"/assessment/later", token, nil)
	assert.Equal(t, http.StatusConflict, status)

	close(proceed)
	r := <-first
	require.Equal(t, http.StatusOK, r.status)
	graded := r.body["attempt"].(map[string]any)
	assert.Equal(t, "first", graded["projectSolution"])
	assert.Equal(t, "Solid work. 80/100", graded["projectFeedback"])

	status, body := h.do(t, http.MethodPost, base+"/assessment/submit", token, map[string]string{"projectSolution": "third"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "first", body["attempt"].(map[string]any)["projectSolution"])

	status, body = h.do(t, http.MethodGet, base+"/curriculum", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, body["pending"])
}

func TestTutorFor_BuildDoesNotBlockOtherState(t *testing.T) {
	entered := make(chan struct{})
	proceed := make(chan struct{})
	factory := func(ctx context.Context, kv store.KV) (*tutor.Tutor, error) {
		close(entered)
		<-proceed
		return nil, errors.New("not needed")
	}
	srv, err := New(Config{JWTSecret: "test-secret", RatePerSec: 1, RateBurst: 1}, nil, store.NewMemoryKV(), factory, nil)
	require.NoError(t, err)

	built := make(chan error, 1)
	go func() {
		_, err := srv.tutorFor(context.Background(), 1)
		built <- err
	}()
	<-entered

	free := make(chan struct{})
	go func() {
		srv.limiter("10.0.0.1")
		srv.setAttempt(2, "chat", nil)
		_ = srv.attempt(2, "chat")
		close(free)
	}()
	select {
	case <-free:
	case <-time.After(2 * time.Second):
		t.Fatal("limiter and attempts blocked while a tutor was being built")
	}

	close(proceed)
	assert.Error(t, <-built)
}
