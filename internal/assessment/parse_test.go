package assessment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quizText = `Here is your quiz.

**Q1.** What is a goroutine?
a) A thread
b) A lightweight concurrent function (correct)
c) A channel
d) A mutex
Explanation: Goroutines are scheduled by the runtime.

Q2. Which keyword starts one?
a) go (correct)
b) run
c) spawn
d) async
Answer: go`

func TestParseQuiz_Lines(t *testing.T) {
	qs := ParseQuiz(quizText)
	require.Len(t, qs, 2)

	assert.Equal(t, "b", qs[0].Correct)
	assert.Len(t, qs[0].Options, 4)
	assert.Equal(t, "b) A lightweight concurrent function", qs[0].Options[1])
	assert.Equal(t, "Goroutines are scheduled by the runtime.", qs[0].Explanation)

	assert.Equal(t, "Which keyword starts one?", qs[1].Question)
	assert.Equal(t, "a", qs[1].Correct)
	assert.Equal(t, "go", qs[1].Explanation)
}

func TestParseQuiz_JSONFirst(t *testing.T) {
	qs := ParseQuiz("```json\n{\"questions\":[{\"question\":\"2+2?\",\"options\":[\"a) 3\",\"b) 4\"],\"correct\":\"B\",\"explanation\":\"sum\"}]}\n```")
	require.Len(t, qs, 1)
	assert.Equal(t, "b", qs[0].Correct)
}

func TestParseQuiz_GarbageNeverFails(t *testing.T) {
	assert.Empty(t, ParseQuiz("I cannot help with that."))
	assert.Empty(t, ParseQuiz(""))
}

const exerciseText = "```python\n" + `Exercise 1: Reverse a string
Description: Write a function
that reverses its input.
Hint: Use slicing
Hint: Think about unicode
Test Case: "abc" -> "cba"
Test Case: "" -> ""
Solution:
def rev(s):
    return s[::-1]
## Exercise 2: Sum a list
Description: Add numbers.
Solution: sum(xs)
` + "```"

func TestParseExercises_Lines(t *testing.T) {
	exs := ParseExercises(exerciseText)
	require.Len(t, exs, 2)

	e := exs[0]
	assert.Equal(t, "Exercise 1: Reverse a string", e.Title)
	assert.Equal(t, "Write a function that reverses its input.", e.Description)
	assert.Equal(t, []string{"Use slicing", "Think about unicode"}, e.Hints)
	assert.Len(t, e.TestCases, 2)
	assert.Equal(t, "def rev(s):\nreturn s[::-1]", e.SampleSolution)

	assert.Equal(t, "Exercise 2: Sum a list", exs[1].Title)
	assert.Equal(t, "sum(xs)", exs[1].SampleSolution)
}

func TestParseExercises_JSONFirst(t *testing.T) {
	exs := ParseExercises(`{"exercises":[{"title":"T","description":"D","hints":[],"testCases":["x"],"sampleSolution":"s"}]}`)
	require.Len(t, exs, 1)
	assert.Equal(t, "T", exs[0].Title)
}

func TestParseProject_Lines(t *testing.T) {
	p := ParseProject(`Title: Todo API
Description: Build a small REST service.
Requirements:
- CRUD endpoints
* Persistence
Steps:
- Design schema
deliverables:
• Source code
Resources:
- net/http docs
Stray text without a bullet`)

	require.NotNil(t, p)
	assert.Equal(t, "Todo API", p.Title)
	assert.Equal(t, "Build a small REST service.", p.Description)
	assert.Equal(t, []string{"CRUD endpoints", "Persistence"}, p.Requirements)
	assert.Equal(t, []string{"Design schema"}, p.Steps)
	assert.Equal(t, []string{"Source code"}, p.Deliverables)
	assert.Equal(t, []string{"net/http docs"}, p.Resources)
}

func TestParseProject_EmptyIsNotNil(t *testing.T) {
	p := ParseProject("nothing useful")
	require.NotNil(t, p)
	a := &Assessment{Type: TypeProject, Project: p}
	assert.True(t, a.Empty())
	assert.Equal(t, "No project available, please try again.", a.EmptyMessage())
}
