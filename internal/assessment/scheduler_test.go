package assessment

import (
	"reflect"
	"testing"
)

func TestDefaultPolicy_Schedule(t *testing.T) {
	p := DefaultPolicy(32)
	if !reflect.DeepEqual(p.ProjectAt, []int{16, 32}) {
		t.Fatalf("projectAt = %v", p.ProjectAt)
	}

	tests := []struct {
		n    int
		want Trigger
		ok   bool
	}{
		{0, Trigger{}, false},
		{1, Trigger{}, false},
		{4, Trigger{TypeQuiz, 4}, true},
		{8, Trigger{TypeExercise, 8}, true},
		{12, Trigger{TypeQuiz, 12}, true},
		{16, Trigger{TypeExercise, 16}, true},
		{28, Trigger{TypeQuiz, 28}, true},
		{32, Trigger{TypeProject, 32}, true},
		{33, Trigger{}, false},
	}
	for _, tt := range tests {
		got, ok := p.Decide(tt.n, TakenLog{})
		if ok != tt.ok || got != tt.want {
			t.Errorf("Decide(%d) = %v, %v; want %v, %v", tt.n, got, ok, tt.want, tt.ok)
		}
	}
}

func TestDecide_OrderAndTaken(t *testing.T) {
	p := DefaultPolicy(32)
	taken := TakenLog{}

	got, ok := p.Decide(16, taken)
	if !ok || got.Type != TypeExercise {
		t.Fatalf("first at 16 = %v", got)
	}
	taken.Mark(got)

	got, ok = p.Decide(16, taken)
	if !ok || got.Type != TypeProject {
		t.Fatalf("second at 16 = %v", got)
	}
	taken.Mark(got)

	if got, ok := p.Decide(16, taken); ok {
		t.Fatalf("nothing should remain at 16, got %v", got)
	}
	if !taken["exercise-16"] || !taken["project-16"] {
		t.Fatalf("taken keys = %v", taken)
	}
}

func TestDecide_Pure(t *testing.T) {
	p := DefaultPolicy(32)
	taken := TakenLog{"quiz-4": true}
	snapshot := TakenLog{"quiz-4": true}

	a, okA := p.Decide(12, taken)
	b, okB := p.Decide(12, taken)
	if a != b || okA != okB {
		t.Fatalf("Decide not deterministic: %v/%v vs %v/%v", a, okA, b, okB)
	}
	if !reflect.DeepEqual(taken, snapshot) {
		t.Fatalf("Decide mutated taken: %v", taken)
	}
	if _, ok := p.Decide(4, taken); ok {
		t.Fatal("taken trigger fired again")
	}
}

func TestNewPolicy_SmallCurricula(t *testing.T) {
	if p := NewPolicy(nil, nil, nil, 1); !reflect.DeepEqual(p.ProjectAt, []int{1}) {
		t.Fatalf("total 1: %v", p.ProjectAt)
	}
	if p := NewPolicy(nil, nil, nil, 6); !reflect.DeepEqual(p.ProjectAt, []int{3, 6}) {
		t.Fatalf("total 6: %v", p.ProjectAt)
	}
	if p := NewPolicy(nil, nil, []int{5}, 6); !reflect.DeepEqual(p.ProjectAt, []int{5}) {
		t.Fatalf("explicit: %v", p.ProjectAt)
	}
}

func TestRequirements(t *testing.T) {
	p := DefaultPolicy(32)
	req := p.Requirements(16, TakenLog{"exercise-16": true})
	if req[TypeQuiz] || req[TypeExercise] || !req[TypeProject] {
		t.Fatalf("requirements = %v", req)
	}
	for _, v := range p.Requirements(3, TakenLog{}) {
		if v {
			t.Fatal("nothing is due at 3")
		}
	}
}

func TestParseType(t *testing.T) {
	if typ, err := ParseType("project"); err != nil || typ != TypeProject {
		t.Fatalf("ParseType(project) = %v, %v", typ, err)
	}
	if _, err := ParseType("exam"); err == nil {
		t.Fatal("expected error")
	}
}
