// Package curriculum holds the per-thread curriculum document and the
// generator that builds one from a free-text subject.
package curriculum

import (
	"fmt"
	"slices"
	"time"
)

// State is the lesson progression state derived from a Curriculum.
type State int

const (
	NotStarted State = iota
	InProgress
	Complete
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case InProgress:
		return "in_progress"
	case Complete:
		return "complete"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Curriculum is a learning plan for one subject plus the learner's
// position in it. Topics and Subtopics are fixed at generation; only the
// cursor fields, Started, Finished and Completed change afterwards.
type Curriculum struct {
	Subject       string              `json:"subject"`
	Content       string              `json:"content,omitempty"`
	Topics        []string            `json:"topics"`
	Subtopics     map[string][]string `json:"subtopics"`
	TopicIndex    int                 `json:"currentTopicIndex"`
	SubtopicIndex int                 `json:"currentSubtopicIndex"`
	Started       bool                `json:"hasStarted"`
	Finished      bool                `json:"isComplete"`
	Completed     []string            `json:"completed"`
	CreatedAt     time.Time           `json:"createdAt"`
}

// New builds an unstarted curriculum with the cursor at (0,0).
func New(subject string, topics []string, subtopics map[string][]string) *Curriculum {
	return &Curriculum{
		Subject:   subject,
		Topics:    topics,
		Subtopics: subtopics,
		Completed: []string{},
		CreatedAt: time.Now().UTC(),
	}
}

// State derives the progression state.
func (c *Curriculum) State() State {
	switch {
	case c.Finished:
		return Complete
	case c.Started:
		return InProgress
	}
	return NotStarted
}

// TotalSubtopics is the number of lessons in the curriculum.
func (c *Curriculum) TotalSubtopics() int {
	n := 0
	for _, t := range c.Topics {
		n += len(c.Subtopics[t])
	}
	return n
}

// Count is the number of subtopics visited so far: the ordinal of the
// cursor plus one once started, zero before. For a uniform shape it
// equals TopicIndex*M + SubtopicIndex + 1.
func (c *Curriculum) Count() int {
	if !c.Started {
		return 0
	}
	n := 0
	for i := 0; i < c.TopicIndex && i < len(c.Topics); i++ {
		n += len(c.Subtopics[c.Topics[i]])
	}
	return n + c.SubtopicIndex + 1
}

// CurrentTopic is the topic under the cursor.
func (c *Curriculum) CurrentTopic() string {
	if c.TopicIndex < 0 || c.TopicIndex >= len(c.Topics) {
		return ""
	}
	return c.Topics[c.TopicIndex]
}

// CurrentSubtopic is the subtopic under the cursor, "Overview" when the
// topic has none.
func (c *Curriculum) CurrentSubtopic() string {
	subs := c.Subtopics[c.CurrentTopic()]
	if c.SubtopicIndex < 0 || c.SubtopicIndex >= len(subs) {
		return Overview
	}
	return subs[c.SubtopicIndex]
}

// Covered returns the topics and subtopics up to and including the
// cursor, in curriculum order.
func (c *Curriculum) Covered() (topics, subtopics []string) {
	if !c.Started {
		return nil, nil
	}
	for i := 0; i <= c.TopicIndex && i < len(c.Topics); i++ {
		t := c.Topics[i]
		topics = append(topics, t)
		subs := c.Subtopics[t]
		if i == c.TopicIndex {
			subs = subs[:min(c.SubtopicIndex+1, len(subs))]
		}
		subtopics = append(subtopics, subs...)
	}
	return topics, subtopics
}

// Progress is the visited fraction in [0,1].
func (c *Curriculum) Progress() float64 {
	total := c.TotalSubtopics()
	if total == 0 {
		return 0
	}
	if c.Finished {
		return 1
	}
	return float64(c.Count()) / float64(total)
}

// IsCompleted reports whether position (t, s) has been visited.
func (c *Curriculum) IsCompleted(t, s int) bool {
	return slices.Contains(c.Completed, PositionKey(t, s))
}

// PositionKey is the completed-log entry for topic t, subtopic s.
func PositionKey(t, s int) string { return fmt.Sprintf("%d-%d", t, s) }

// Validate checks the structural invariants: at least one topic, every
// topic with at least one subtopic, and a cursor inside the bounds.
func (c *Curriculum) Validate() error {
	if len(c.Topics) == 0 {
		return &ParseError{Reason: "no topics"}
	}
	for _, t := range c.Topics {
		if len(c.Subtopics[t]) == 0 {
			return &ParseError{Reason: fmt.Sprintf("topic %q has no subtopics", t)}
		}
	}
	if c.TopicIndex < 0 || c.TopicIndex >= len(c.Topics) {
		return fmt.Errorf("topic index %d out of range", c.TopicIndex)
	}
	if subs := c.Subtopics[c.Topics[c.TopicIndex]]; c.SubtopicIndex < 0 || c.SubtopicIndex >= len(subs) {
		return fmt.Errorf("subtopic index %d out of range", c.SubtopicIndex)
	}
	return nil
}

// Clone returns a deep copy.
func (c *Curriculum) Clone() *Curriculum {
	out := *c
	out.Topics = slices.Clone(c.Topics)
	out.Completed = slices.Clone(c.Completed)
	out.Subtopics = make(map[string][]string, len(c.Subtopics))
	for k, v := range c.Subtopics {
		out.Subtopics[k] = slices.Clone(v)
	}
	return &out
}
