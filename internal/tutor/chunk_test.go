package tutor

import (
	"context"
	"strings"
	"testing"
)

func TestChunks_LessonStaysWhole(t *testing.T) {
	text := "Topic: A\nSubtopic: B\n\nPara one.\n\nPara two."
	if got := Chunks(text); len(got) != 1 || got[0] != text {
		t.Fatalf("Chunks = %q", got)
	}
}

func TestChunks_Paragraphs(t *testing.T) {
	got := Chunks("one\n\n\n\ntwo\n\n   \n\nthree")
	want := []string{"one", "two", "three"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("Chunks = %q, want %q", got, want)
	}
}

func TestChunks_LongParagraphGroupsSentences(t *testing.T) {
	sentence := strings.Repeat("word ", 39) + "end." // 199 runes
	para := strings.Join([]string{sentence, sentence, sentence, sentence}, " ")

	got := Chunks(para)
	if len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %q", len(got), got)
	}
	for _, c := range got {
		if len([]rune(c)) >= 500 {
			t.Fatalf("chunk too long: %d", len([]rune(c)))
		}
	}
	if got[0] != sentence+" "+sentence {
		t.Fatalf("unexpected first chunk %q", got[0])
	}
}

func TestSentences(t *testing.T) {
	got := sentences("Hi there. How are you?  Fine!Done")
	want := []string{"Hi there.", "How are you?", "Fine!Done"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("sentences = %q", got)
	}
}

func TestStream_EndsWithDisplayText(t *testing.T) {
	text := "Hello world.\n\nSecond paragraph here."
	var calls []string
	if err := Stream(context.Background(), text, 0, func(s string) { calls = append(calls, s) }); err != nil {
		t.Fatal(err)
	}
	if len(calls) < 2 {
		t.Fatalf("expected progressive calls, got %q", calls)
	}
	if last := calls[len(calls)-1]; last != Display(text) {
		t.Fatalf("last = %q, want %q", last, Display(text))
	}
	for i := 1; i < len(calls); i++ {
		if !strings.HasPrefix(calls[i], calls[i-1]) {
			t.Fatalf("call %d is not a prefix extension: %q -> %q", i, calls[i-1], calls[i])
		}
	}
}

func TestStream_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Stream(ctx, "a b c", 0, func(string) {}); err == nil {
		t.Fatal("expected context error")
	}
}

func TestSteps_ConcatenateToDisplay(t *testing.T) {
	text := "First paragraph here.\n\nSecond one."
	steps := Steps(text)

	var b strings.Builder
	pauses := 0
	for _, st := range steps {
		b.WriteString(st.Text)
		if st.Pause {
			pauses++
		}
	}
	if got := b.String(); got != Display(text) {
		t.Errorf("steps joined = %q, want %q", got, Display(text))
	}
	if pauses != 1 {
		t.Errorf("pauses = %d, want 1", pauses)
	}
	if steps[3].Text != "\n\nSecond " {
		t.Errorf("steps[3] = %q", steps[3].Text)
	}
}
