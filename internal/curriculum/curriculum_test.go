package curriculum

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func sample() *Curriculum {
	return New("Go", []string{"A", "B", "C"}, map[string][]string{
		"A": {"a1", "a2"},
		"B": {"b1", "b2", "b3"},
		"C": {"c1"},
	})
}

func TestCount_OrdinalOfCursor(t *testing.T) {
	c := sample()
	if c.Count() != 0 || c.State() != NotStarted {
		t.Fatalf("fresh: count=%d state=%s", c.Count(), c.State())
	}
	c.Started = true
	if c.Count() != 1 {
		t.Fatalf("started at (0,0): %d", c.Count())
	}
	c.TopicIndex, c.SubtopicIndex = 1, 2
	if c.Count() != 5 {
		t.Fatalf("(1,2): %d", c.Count())
	}
	if c.TotalSubtopics() != 6 {
		t.Fatalf("total = %d", c.TotalSubtopics())
	}
}

func TestCount_UniformShapeMatchesFormula(t *testing.T) {
	topics := []string{"T0", "T1", "T2"}
	subs := map[string][]string{}
	for _, tp := range topics {
		subs[tp] = []string{"s0", "s1", "s2", "s3"}
	}
	c := New("x", topics, subs)
	c.Started = true
	for ti := range topics {
		for si := 0; si < 4; si++ {
			c.TopicIndex, c.SubtopicIndex = ti, si
			if want := ti*4 + si + 1; c.Count() != want {
				t.Fatalf("(%d,%d) count=%d want %d", ti, si, c.Count(), want)
			}
		}
	}
}

func TestCovered_PrefixUpToCursor(t *testing.T) {
	c := sample()
	if tp, sp := c.Covered(); tp != nil || sp != nil {
		t.Fatalf("unstarted coverage: %v %v", tp, sp)
	}
	c.Started = true
	c.TopicIndex, c.SubtopicIndex = 1, 1
	topics, subs := c.Covered()
	if !reflect.DeepEqual(topics, []string{"A", "B"}) || !reflect.DeepEqual(subs, []string{"a1", "a2", "b1", "b2"}) {
		t.Fatalf("covered = %v %v", topics, subs)
	}
}

func TestCurriculum_JSONFieldNames(t *testing.T) {
	c := sample()
	raw, err := json.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{`"subject"`, `"topics"`, `"subtopics"`, `"currentTopicIndex"`, `"currentSubtopicIndex"`, `"hasStarted"`, `"completed"`} {
		if !strings.Contains(string(raw), field) {
			t.Errorf("missing %s in %s", field, raw)
		}
	}
}

func TestValidateAndClone(t *testing.T) {
	c := sample()
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	cp := c.Clone()
	cp.Subtopics["A"][0] = "changed"
	cp.Completed = append(cp.Completed, "0-0")
	if c.Subtopics["A"][0] != "a1" || len(c.Completed) != 0 {
		t.Fatal("clone shares state")
	}
	c.TopicIndex = 5
	if c.Validate() == nil {
		t.Fatal("expected out-of-range error")
	}
}

func TestOutline(t *testing.T) {
	got := Outline(sample())
	want := "1. A\n   a. a1\n   b. a2\n2. B\n   a. b1\n   b. b2\n   c. b3\n3. C\n   a. c1"
	if got != want {
		t.Fatalf("outline:\n%s", got)
	}
	// The rendered outline parses back to the same structure.
	topics, subs, err := Parse(got)
	if err != nil || !reflect.DeepEqual(topics, sample().Topics) || !reflect.DeepEqual(subs, sample().Subtopics) {
		t.Fatalf("reparse: %v %v %v", topics, subs, err)
	}
}
