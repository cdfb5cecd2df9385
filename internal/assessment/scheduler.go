package assessment

import (
	"fmt"
	"slices"
)

// Trigger is an assessment of Type due at subtopic count N.
type Trigger struct {
	Type Type `json:"type"`
	N    int  `json:"n"`
}

// Key is the taken-log key "{type}-{n}".
func (t Trigger) Key() string { return fmt.Sprintf("%s-%d", t.Type, t.N) }

// TakenLog records which triggers have fired, keyed by Trigger.Key.
type TakenLog map[string]bool

// Has reports whether t has fired.
func (l TakenLog) Has(t Trigger) bool { return l[t.Key()] }

// Mark records t as fired.
func (l TakenLog) Mark(t Trigger) { l[t.Key()] = true }

// Policy lists, per type, the subtopic counts at which it fires.
type Policy struct {
	QuizAt     []int `json:"quizAt"`
	ExerciseAt []int `json:"exerciseAt"`
	ProjectAt  []int `json:"projectAt"`
}

// DefaultPolicy is the 8×4 schedule with the project at the midpoint and
// the end of a curriculum of total subtopics.
func DefaultPolicy(total int) Policy {
	return NewPolicy([]int{4, 12, 20, 28}, []int{8, 16, 24}, nil, total)
}

// NewPolicy builds a Policy. An empty projectAt means {total/2, total}.
func NewPolicy(quizAt, exerciseAt, projectAt []int, total int) Policy {
	if len(projectAt) == 0 && total > 0 {
		projectAt = []int{total / 2, total}
		if total/2 == 0 {
			projectAt = []int{total}
		}
	}
	return Policy{
		QuizAt:     slices.Clone(quizAt),
		ExerciseAt: slices.Clone(exerciseAt),
		ProjectAt:  slices.Clone(projectAt),
	}
}

func (p Policy) at(t Type) []int {
	switch t {
	case TypeQuiz:
		return p.QuizAt
	case TypeExercise:
		return p.ExerciseAt
	case TypeProject:
		return p.ProjectAt
	}
	return nil
}

// Decide returns the first trigger due at n that has not fired, checking
// quiz, then exercise, then project. It does not modify taken.
func (p Policy) Decide(n int, taken TakenLog) (Trigger, bool) {
	if n <= 0 {
		return Trigger{}, false
	}
	for _, t := range Types {
		if !slices.Contains(p.at(t), n) {
			continue
		}
		tr := Trigger{Type: t, N: n}
		if !taken.Has(tr) {
			return tr, true
		}
	}
	return Trigger{}, false
}

// Requirements reports, per type, whether an untaken trigger is due at n.
func (p Policy) Requirements(n int, taken TakenLog) map[Type]bool {
	out := make(map[Type]bool, len(Types))
	for _, t := range Types {
		tr := Trigger{Type: t, N: n}
		out[t] = n > 0 && slices.Contains(p.at(t), n) && !taken.Has(tr)
	}
	return out
}
