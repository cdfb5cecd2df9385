package curriculum

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/abhisek/tutorchat/internal/llm"
)

const outline = "1. Topic A\na. Sub A1\nb. Sub A2\n2. Topic B\na. Sub B1"

func TestGenerator_TextOutline(t *testing.T) {
	mock := llm.NewMockProvider(llm.TextResponse(outline))
	g := NewGenerator(mock, Config{Topics: 2, Subtopics: 2, MaxTokens: 3000}, nil)

	c, err := g.Generate(context.Background(), "  Rust  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Subject != "Rust" || len(c.Topics) != 2 || c.State() != NotStarted || c.TopicIndex != 0 || c.SubtopicIndex != 0 {
		t.Fatalf("unexpected curriculum %+v", c)
	}
	prompt := mock.LastPrompt()
	if !strings.HasPrefix(prompt, "Generate a comprehensive curriculum for Rust with:") ||
		!strings.Contains(prompt, "- 2 main topics") || !strings.Contains(prompt, "- 2 subtopics for each main topic") {
		t.Fatalf("unexpected prompt %q", prompt)
	}
	if mock.Calls[0].MaxTokens != 3000 {
		t.Fatalf("max tokens = %d", mock.Calls[0].MaxTokens)
	}
}

func TestGenerator_StructuredFirst(t *testing.T) {
	doc := `{"topics":[{"name":"Intro","subtopics":[{"title":"Why","content":"c"}]}]}`
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(doc)})
	g := NewGenerator(mock, Config{Topics: 1, Subtopics: 1, MaxTokens: 100, Structured: true}, nil)

	c, err := g.Generate(context.Background(), "Go")
	if err != nil {
		t.Fatal(err)
	}
	if mock.CallCount() != 1 || mock.Calls[0].Schema != CurriculumSchema {
		t.Fatalf("expected one structured call, got %d", mock.CallCount())
	}
	if c.Topics[0] != "Intro" || c.Content != "1. Intro\n   a. Why" {
		t.Fatalf("unexpected curriculum %+v", c)
	}
}

func TestGenerator_StructuredFailureFallsBack(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Err: &llm.ErrRejected{StatusCode: 400, Err: errors.New("no schema support")}},
		llm.TextResponse(outline),
	)
	g := NewGenerator(mock, DefaultConfig(), nil)

	c, err := g.Generate(context.Background(), "Go")
	if err != nil {
		t.Fatal(err)
	}
	if mock.CallCount() != 2 || mock.Calls[1].Schema != nil || len(c.Topics) != 2 {
		t.Fatalf("fallback not used: calls=%d", mock.CallCount())
	}
}

func TestGenerator_AuthErrorDoesNotFallBack(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrAuth{StatusCode: 401, Err: errors.New("bad key")}})
	g := NewGenerator(mock, DefaultConfig(), nil)

	_, err := g.Generate(context.Background(), "Go")
	if !llm.IsAuth(err) || mock.CallCount() != 1 {
		t.Fatalf("err=%v calls=%d", err, mock.CallCount())
	}
}

func TestGenerator_UnparseableReply(t *testing.T) {
	mock := llm.NewMockProvider(llm.TextResponse("I'd rather not."))
	g := NewGenerator(mock, Config{Topics: 8, Subtopics: 4, MaxTokens: 10}, nil)

	_, err := g.Generate(context.Background(), "Go")
	if !IsParseError(err) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}
