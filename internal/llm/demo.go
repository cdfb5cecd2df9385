package llm

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

var demoSubject = regexp.MustCompile(`curriculum for (.+?) with:`)

// NewDemoProvider returns an offline provider that answers the tutor's
// prompts with fixed, well-formed text. It backs the "mock" provider so
// the application can be explored without an API key. Structured
// requests are rejected, which exercises the plain-text fallbacks.
func NewDemoProvider() *MockProvider {
	m := NewMockProvider()
	m.Handler = demoReply
	return m
}

func demoReply(req Request) MockResponse {
	if req.Schema != nil {
		return MockResponse{Err: &ErrRejected{
			StatusCode: http.StatusBadRequest,
			Err:        fmt.Errorf("demo provider does not support structured output"),
		}}
	}
	prompt := ""
	if len(req.Messages) > 0 {
		prompt = req.Messages[len(req.Messages)-1].Content
	}

	switch {
	case strings.Contains(prompt, "Generate a comprehensive curriculum"):
		return TextResponse(demoCurriculum(prompt))
	case strings.Contains(prompt, "multiple choice quiz"):
		return TextResponse(demoQuiz)
	case strings.Contains(prompt, "practical exercises"):
		return TextResponse(demoExercises)
	case strings.Contains(prompt, "project"):
		if strings.HasPrefix(prompt, "Evaluate") {
			return TextResponse(demoFeedback)
		}
		return TextResponse(demoProject)
	case strings.HasPrefix(prompt, "Evaluate"):
		return TextResponse(demoFeedback)
	case strings.Contains(prompt, "in-depth lesson"):
		return TextResponse(demoLesson)
	}
	return TextResponse("That is a good question. In short, start from the definitions and work one example by hand before generalizing.")
}

func demoCurriculum(prompt string) string {
	subject := "the subject"
	if m := demoSubject.FindStringSubmatch(prompt); m != nil {
		subject = m[1]
	}
	var b strings.Builder
	for t := 1; t <= 8; t++ {
		fmt.Fprintf(&b, "%d. %s Part %d\n", t, subject, t)
		for s := 0; s < 4; s++ {
			fmt.Fprintf(&b, "   %c. Concept %d.%d\n", 'a'+s, t, s+1)
		}
	}
	return b.String()
}

const demoLesson = `Definitions: a concept is introduced with its precise meaning.

Example: work through the idea step by step on a small case.

Applications: the idea appears in everyday engineering work.

Pitfalls: confusing similar terms is the most common mistake.

Summary: revisit the definition and the worked example.`

const demoQuiz = `Q1. Which statement best describes the first concept?
a) A precise definition (correct)
b) An unrelated fact
c) A historical note
d) None of the above
Explanation: The lesson opened with the definition.`

const demoExercises = `Exercise 1: Apply the concept
Description: Use the concept on a small input.
Hint: Start from the definition.
Test Case: input 1 -> output 1
Solution:
Apply the definition directly.`

const demoProject = `Title: Capstone Project
Description: Build a small end-to-end artifact using the covered topics.
Requirements:
- Use at least two covered topics
Steps:
- Plan the work
- Build it
Deliverables:
- Source and a short write-up
Resources:
- Your lesson notes`

const demoFeedback = `The solution addresses the main requirement. Mark: 80/100.
A complete solution would also handle the edge cases.`
