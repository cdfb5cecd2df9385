// Package progression is the lesson state machine. It moves a
// curriculum's cursor one subtopic at a time and asks for the lesson at
// the new position.
package progression

import (
	"context"
	"errors"

	"github.com/abhisek/tutorchat/internal/curriculum"
)

// CompletionMessage is shown once the last subtopic has been passed.
const CompletionMessage = "Congratulations! You've completed the entire curriculum! Would you like to review topics or start a new subject?"

// ErrNotStarted is returned by Redo before the first lesson.
var ErrNotStarted = errors.New("progression: curriculum not started")

// Transition describes one cursor step.
type Transition struct {
	From, To      curriculum.State
	TopicIndex    int
	SubtopicIndex int
	Topic         string
	Subtopic      string

	// Lesson is set when the step landed on a position whose lesson
	// must be requested.
	Lesson bool
}

// Step advances c in place:
//
//  1. not started: mark started, cursor stays at (0,0)
//  2. more subtopics in this topic: next subtopic
//  3. more topics: first subtopic of the next topic
//  4. otherwise: complete
//
// The new position is appended to c.Completed. Stepping a complete
// curriculum changes nothing.
func Step(c *curriculum.Curriculum) Transition {
	from := c.State()
	switch {
	case from == curriculum.Complete:
		return Transition{From: from, To: from}
	case from == curriculum.NotStarted:
		c.Started = true
		c.TopicIndex, c.SubtopicIndex = 0, 0
	case c.SubtopicIndex < len(c.Subtopics[c.CurrentTopic()])-1:
		c.SubtopicIndex++
	case c.TopicIndex < len(c.Topics)-1:
		c.TopicIndex++
		c.SubtopicIndex = 0
	default:
		c.Finished = true
		return Transition{From: from, To: curriculum.Complete}
	}

	key := curriculum.PositionKey(c.TopicIndex, c.SubtopicIndex)
	if !c.IsCompleted(c.TopicIndex, c.SubtopicIndex) {
		c.Completed = append(c.Completed, key)
	}
	return Transition{
		From:          from,
		To:            c.State(),
		TopicIndex:    c.TopicIndex,
		SubtopicIndex: c.SubtopicIndex,
		Topic:         c.CurrentTopic(),
		Subtopic:      c.CurrentSubtopic(),
		Lesson:        true,
	}
}

// Lessoner produces lesson text for a position.
type Lessoner interface {
	Lesson(ctx context.Context, topic, subtopic string) (string, error)
	Review(ctx context.Context, topic, subtopic string) (string, error)
}

// Machine couples Step with lesson generation.
type Machine struct {
	lessons Lessoner
}

// NewMachine creates a Machine.
func NewMachine(lessons Lessoner) *Machine {
	return &Machine{lessons: lessons}
}

// Result is the outcome of Advance.
type Result struct {
	Transition
	// Message is the lesson, or CompletionMessage.
	Message string
}

// CommitFunc persists a curriculum after its cursor moved.
type CommitFunc func(ctx context.Context, c *curriculum.Curriculum) error

// Advance steps c and requests the lesson for the new position. The
// cursor is committed before the request, so on a lesson error the
// returned Result still reports the step that was taken.
func (m *Machine) Advance(ctx context.Context, c *curriculum.Curriculum) (*Result, error) {
	return m.AdvanceAndCommit(ctx, c, nil)
}

// AdvanceAndCommit is Advance with commit called between the step and
// the lesson request. A commit error aborts before the request.
func (m *Machine) AdvanceAndCommit(ctx context.Context, c *curriculum.Curriculum, commit CommitFunc) (*Result, error) {
	tr := Step(c)
	res := &Result{Transition: tr}
	if commit != nil && (tr.Lesson || tr.From != tr.To) {
		if err := commit(ctx, c); err != nil {
			return res, err
		}
	}
	if !tr.Lesson {
		res.Message = CompletionMessage
		return res, nil
	}
	text, err := m.lessons.Lesson(ctx, tr.Topic, tr.Subtopic)
	if err != nil {
		return res, err
	}
	res.Message = text
	return res, nil
}

// Redo re-teaches the current position without touching the cursor or
// the completed log.
func (m *Machine) Redo(ctx context.Context, c *curriculum.Curriculum) (string, error) {
	if c.State() == curriculum.NotStarted {
		return "", ErrNotStarted
	}
	return m.lessons.Review(ctx, c.CurrentTopic(), c.CurrentSubtopic())
}
