package assessment

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrSubmitted is returned when an attempt is edited after submission.
	ErrSubmitted = errors.New("attempt already submitted")
	// ErrNoSuchItem is returned for work on a question or exercise index
	// the assessment does not have.
	ErrNoSuchItem = errors.New("no such assessment item")
)

// GradingFailed is stored as an item's feedback when grading it failed.
const GradingFailed = "Error evaluating solution."

// Attempt is the learner's work on one Assessment.
type Attempt struct {
	ID         string      `json:"id"`
	Assessment *Assessment `json:"assessment"`

	// Answers maps a quiz question index to the chosen option letter.
	Answers map[int]string `json:"answers,omitempty"`
	// Solutions maps an exercise index to the submitted solution.
	Solutions       map[int]string `json:"solutions,omitempty"`
	ProjectSolution string         `json:"projectSolution,omitempty"`

	Submitted       bool           `json:"submitted"`
	Correct         int            `json:"correct"`
	Score           float64        `json:"score"`
	Feedback        map[int]string `json:"feedback,omitempty"`
	ProjectFeedback string         `json:"projectFeedback,omitempty"`
}

// NewAttempt starts an empty attempt on a.
func NewAttempt(a *Assessment) *Attempt {
	return &Attempt{
		ID:         uuid.NewString(),
		Assessment: a,
		Answers:    map[int]string{},
		Solutions:  map[int]string{},
		Feedback:   map[int]string{},
	}
}

// Answer records option letter for quiz question i.
func (at *Attempt) Answer(i int, letter string) error {
	if at.Submitted {
		return ErrSubmitted
	}
	if at.Answers == nil {
		at.Answers = map[int]string{}
	}
	at.Answers[i] = strings.ToLower(strings.TrimSpace(letter))
	return nil
}

// SetSolution records the solution for exercise i.
func (at *Attempt) SetSolution(i int, text string) error {
	if at.Submitted {
		return ErrSubmitted
	}
	if at.Solutions == nil {
		at.Solutions = map[int]string{}
	}
	at.Solutions[i] = text
	return nil
}

// SetProjectSolution records the project solution.
func (at *Attempt) SetProjectSolution(text string) error {
	if at.Submitted {
		return ErrSubmitted
	}
	at.ProjectSolution = text
	return nil
}

// Submission is learner work recorded in one step right before grading.
type Submission struct {
	Answers         map[int]string `json:"answers"`
	Solutions       map[int]string `json:"solutions"`
	ProjectSolution string         `json:"projectSolution"`
}

// Apply records s on at. Nothing is recorded if any item is invalid.
func (s Submission) Apply(at *Attempt) error {
	if at.Submitted {
		return ErrSubmitted
	}
	for i := range s.Answers {
		if i < 0 || i >= len(at.Assessment.Questions) {
			return fmt.Errorf("question %d: %w", i, ErrNoSuchItem)
		}
	}
	for i := range s.Solutions {
		if i < 0 || i >= len(at.Assessment.Exercises) {
			return fmt.Errorf("exercise %d: %w", i, ErrNoSuchItem)
		}
	}
	if s.ProjectSolution != "" && at.Assessment.Project == nil {
		return fmt.Errorf("project: %w", ErrNoSuchItem)
	}

	for i, a := range s.Answers {
		if err := at.Answer(i, a); err != nil {
			return err
		}
	}
	for i, sol := range s.Solutions {
		if err := at.SetSolution(i, sol); err != nil {
			return err
		}
	}
	if s.ProjectSolution != "" {
		return at.SetProjectSolution(s.ProjectSolution)
	}
	return nil
}

// Trigger is the trigger this attempt resolves.
func (at *Attempt) Trigger() Trigger {
	return Trigger{Type: at.Assessment.Type, N: at.Assessment.N}
}

// scoreQuiz sets Correct and Score from the answers.
func (at *Attempt) scoreQuiz() {
	qs := at.Assessment.Questions
	at.Correct = 0
	for i, q := range qs {
		if q.Correct != "" && at.Answers[i] == q.Correct {
			at.Correct++
		}
	}
	at.Score = 0
	if len(qs) > 0 {
		at.Score = 100 * float64(at.Correct) / float64(len(qs))
	}
}
