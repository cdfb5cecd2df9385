package lessons

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/abhisek/tutorchat/internal/llm"
)

func TestLesson_FormatsHeader(t *testing.T) {
	mock := llm.NewMockProvider(llm.TextResponse("  Goroutines are cheap threads.  "))
	svc := NewService(mock, DefaultConfig())

	got, err := svc.Lesson(context.Background(), "Concurrency", "Goroutines")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "Topic: Concurrency\nSubtopic: Goroutines\n\nGoroutines are cheap threads."; got != want {
		t.Fatalf("got %q", got)
	}
	prompt := mock.LastPrompt()
	for _, part := range []string{`For the topic "Concurrency" specifically about "Goroutines"`, "Clear definitions", "Common pitfalls", "summary of key takeaways"} {
		if !strings.Contains(prompt, part) {
			t.Errorf("prompt missing %q", part)
		}
	}
	if mock.Calls[0].MaxTokens != 3000 {
		t.Errorf("max tokens = %d", mock.Calls[0].MaxTokens)
	}
}

func TestLesson_EmptySubtopicIsOverview(t *testing.T) {
	mock := llm.NewMockProvider(llm.TextResponse("text"))
	got, err := NewService(mock, DefaultConfig()).Lesson(context.Background(), "Intro", "")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(got, "Topic: Intro\nSubtopic: Overview\n\n") {
		t.Fatalf("got %q", got)
	}
}

func TestReview_Format(t *testing.T) {
	mock := llm.NewMockProvider(llm.TextResponse("Another angle."))
	got, err := NewService(mock, DefaultConfig()).Review(context.Background(), "Concurrency", "Channels")
	if err != nil {
		t.Fatal(err)
	}
	if want := "Subtopic: Channels\n(Topic: Concurrency)\n\nLet's review with different examples:\n\nAnother angle."; got != want {
		t.Fatalf("got %q", got)
	}
}

func TestAnswer_UsesContextPrompt(t *testing.T) {
	mock := llm.NewMockProvider(llm.TextResponse("Because of the scheduler."))
	got, err := NewService(mock, DefaultConfig()).Answer(context.Background(), "Concurrency", "Goroutines", "Why are they cheap?")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Because of the scheduler." {
		t.Fatalf("got %q", got)
	}
	if want := "Context: We are discussing Concurrency, specifically Goroutines.\n\nQuestion: Why are they cheap?"; !strings.HasPrefix(mock.LastPrompt(), want) {
		t.Fatalf("prompt %q", mock.LastPrompt())
	}
}

func TestLesson_PropagatesTypedErrors(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrAuth{StatusCode: 401, Err: errors.New("expired")}})
	_, err := NewService(mock, DefaultConfig()).Lesson(context.Background(), "T", "S")
	if !llm.IsAuth(err) {
		t.Fatalf("expected auth error through wrapping, got %v", err)
	}
}
