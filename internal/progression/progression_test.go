package progression

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/abhisek/tutorchat/internal/curriculum"
)

type fakeLessons struct {
	lessons, reviews int
	fail             error
	positions        []string
}

func (f *fakeLessons) Lesson(_ context.Context, topic, subtopic string) (string, error) {
	f.lessons++
	f.positions = append(f.positions, topic+"/"+subtopic)
	if f.fail != nil {
		return "", f.fail
	}
	return "lesson " + topic + "/" + subtopic, nil
}

func (f *fakeLessons) Review(_ context.Context, topic, subtopic string) (string, error) {
	f.reviews++
	return "review " + topic + "/" + subtopic, nil
}

func build(n, m int) *curriculum.Curriculum {
	topics := make([]string, n)
	subs := make(map[string][]string, n)
	for i := range topics {
		topics[i] = fmt.Sprintf("T%d", i)
		for j := 0; j < m; j++ {
			subs[topics[i]] = append(subs[topics[i]], fmt.Sprintf("S%d.%d", i, j))
		}
	}
	return curriculum.New("x", topics, subs)
}

func TestAdvance_NxMPlusOneReachesComplete(t *testing.T) {
	for _, shape := range [][2]int{{8, 4}, {1, 1}, {3, 2}, {2, 5}} {
		n, m := shape[0], shape[1]
		t.Run(fmt.Sprintf("%dx%d", n, m), func(t *testing.T) {
			c := build(n, m)
			fl := &fakeLessons{}
			machine := NewMachine(fl)
			ctx := context.Background()

			for i := 0; i < n*m; i++ {
				res, err := machine.Advance(ctx, c)
				if err != nil {
					t.Fatalf("advance %d: %v", i, err)
				}
				if !res.Lesson || c.State() != curriculum.InProgress {
					t.Fatalf("advance %d: lesson=%v state=%s", i, res.Lesson, c.State())
				}
				if c.Count() != i+1 {
					t.Fatalf("advance %d: count=%d", i, c.Count())
				}
			}
			res, err := machine.Advance(ctx, c)
			if err != nil {
				t.Fatal(err)
			}
			if c.State() != curriculum.Complete || res.Message != CompletionMessage {
				t.Fatalf("final: state=%s msg=%q", c.State(), res.Message)
			}
			if fl.lessons != n*m {
				t.Fatalf("lesson calls = %d, want %d", fl.lessons, n*m)
			}

			// Further advances are inert.
			if _, err := machine.Advance(ctx, c); err != nil || fl.lessons != n*m {
				t.Fatalf("advance after complete: err=%v lessons=%d", err, fl.lessons)
			}
		})
	}
}

func TestAdvance_FirstStepStaysAtOrigin(t *testing.T) {
	c := build(2, 2)
	fl := &fakeLessons{}
	res, err := NewMachine(fl).Advance(context.Background(), c)
	if err != nil {
		t.Fatal(err)
	}
	if res.From != curriculum.NotStarted || c.TopicIndex != 0 || c.SubtopicIndex != 0 || !c.Started {
		t.Fatalf("unexpected first step %+v", res.Transition)
	}
	if fl.positions[0] != "T0/S0.0" || res.Message != "lesson T0/S0.0" {
		t.Fatalf("first lesson %v %q", fl.positions, res.Message)
	}
}

func TestAdvance_TopicRollover(t *testing.T) {
	c := build(2, 2)
	m := NewMachine(&fakeLessons{})
	for i := 0; i < 3; i++ {
		m.Advance(context.Background(), c)
	}
	if c.TopicIndex != 1 || c.SubtopicIndex != 0 {
		t.Fatalf("cursor (%d,%d)", c.TopicIndex, c.SubtopicIndex)
	}
}

func TestAdvance_CursorCommittedBeforeLessonFailure(t *testing.T) {
	c := build(2, 2)
	fl := &fakeLessons{}
	m := NewMachine(fl)
	m.Advance(context.Background(), c)

	fl.fail = errors.New("network down")
	res, err := m.Advance(context.Background(), c)
	if err == nil {
		t.Fatal("expected error")
	}
	if res == nil || c.SubtopicIndex != 1 || !slices.Contains(c.Completed, "0-1") {
		t.Fatalf("cursor not committed: %+v completed=%v", res, c.Completed)
	}
}

func TestCompleted_MonotonicNoDuplicatesAndRedoDoesNotAppend(t *testing.T) {
	c := build(3, 3)
	fl := &fakeLessons{}
	m := NewMachine(fl)
	ctx := context.Background()

	prev := 0
	for c.State() != curriculum.Complete {
		if _, err := m.Advance(ctx, c); err != nil {
			t.Fatal(err)
		}
		if len(c.Completed) < prev {
			t.Fatal("completed shrank")
		}
		prev = len(c.Completed)

		if c.State() == curriculum.InProgress {
			ti, si := c.TopicIndex, c.SubtopicIndex
			if _, err := m.Redo(ctx, c); err != nil {
				t.Fatal(err)
			}
			if len(c.Completed) != prev || c.TopicIndex != ti || c.SubtopicIndex != si {
				t.Fatal("redo mutated progression")
			}
		}
	}

	seen := map[string]bool{}
	for _, k := range c.Completed {
		if seen[k] {
			t.Fatalf("duplicate %s in %v", k, c.Completed)
		}
		seen[k] = true
	}
	if len(c.Completed) != 9 {
		t.Fatalf("completed = %v", c.Completed)
	}
	if fl.reviews != 9 {
		t.Fatalf("reviews = %d", fl.reviews)
	}
}

func TestRedo_BeforeStart(t *testing.T) {
	_, err := NewMachine(&fakeLessons{}).Redo(context.Background(), build(1, 1))
	if !errors.Is(err, ErrNotStarted) {
		t.Fatalf("err = %v", err)
	}
}

func TestStep_OverviewTopic(t *testing.T) {
	c := curriculum.New("x", []string{"Only"}, map[string][]string{"Only": {curriculum.Overview}})
	tr := Step(c)
	if tr.Subtopic != curriculum.Overview || !tr.Lesson {
		t.Fatalf("unexpected %+v", tr)
	}
	if tr := Step(c); tr.To != curriculum.Complete || tr.Lesson {
		t.Fatalf("unexpected %+v", tr)
	}
}

func TestAdvanceAndCommit_CommitsBeforeLesson(t *testing.T) {
	c := build(1, 2)
	fl := &fakeLessons{}
	m := NewMachine(fl)

	var committed []string
	commit := func(_ context.Context, c *curriculum.Curriculum) error {
		committed = append(committed, fmt.Sprintf("%d-%d lessons=%d", c.TopicIndex, c.SubtopicIndex, fl.lessons))
		return nil
	}
	for i := 0; i < 3; i++ {
		if _, err := m.AdvanceAndCommit(context.Background(), c, commit); err != nil {
			t.Fatal(err)
		}
	}
	want := []string{"0-0 lessons=0", "0-1 lessons=1", "0-1 lessons=2"}
	if !slices.Equal(committed, want) {
		t.Fatalf("commits = %v, want %v", committed, want)
	}
	if !c.Finished {
		t.Fatal("expected complete")
	}

	// Stepping a complete curriculum has nothing to commit.
	m.AdvanceAndCommit(context.Background(), c, commit)
	if len(committed) != 3 {
		t.Fatalf("unexpected commit on complete curriculum: %v", committed)
	}
}

func TestAdvanceAndCommit_CommitErrorSkipsLesson(t *testing.T) {
	c := build(1, 1)
	fl := &fakeLessons{}
	_, err := NewMachine(fl).AdvanceAndCommit(context.Background(), c, func(context.Context, *curriculum.Curriculum) error {
		return errors.New("disk full")
	})
	if err == nil || fl.lessons != 0 {
		t.Fatalf("err=%v lessons=%d", err, fl.lessons)
	}
}
