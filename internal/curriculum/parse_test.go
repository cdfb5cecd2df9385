package curriculum

import (
	"reflect"
	"testing"
)

func TestParse_TopicsAndLetteredSubtopics(t *testing.T) {
	topics, subs, err := Parse("1. Topic A\na. Sub A1\nb. Sub A2\n2. Topic B\na. Sub B1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"Topic A", "Topic B"}; !reflect.DeepEqual(topics, want) {
		t.Fatalf("topics = %v, want %v", topics, want)
	}
	want := map[string][]string{
		"Topic A": {"Sub A1", "Sub A2"},
		"Topic B": {"Sub B1"},
	}
	if !reflect.DeepEqual(subs, want) {
		t.Fatalf("subtopics = %v, want %v", subs, want)
	}
}

func TestParse_OverviewFallback(t *testing.T) {
	topics, subs, err := Parse("1. Lonely Topic\n\n2. Topic B\n   a. Sub B1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(topics) != 2 {
		t.Fatalf("topics = %v", topics)
	}
	if got := subs["Lonely Topic"]; !reflect.DeepEqual(got, []string{Overview}) {
		t.Fatalf("fallback = %v", got)
	}
}

func TestParse_DecoratedAndDottedNumbering(t *testing.T) {
	text := `Here is your curriculum:

## 1. **Foundations**
   1.1 What is Go
   1.2. Tooling
2. [Concurrency]:
   a) Goroutines
   - b. Channels
Some closing remark.`

	topics, subs, err := Parse(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"Foundations", "Concurrency"}; !reflect.DeepEqual(topics, want) {
		t.Fatalf("topics = %v", topics)
	}
	if want := []string{"What is Go", "Tooling"}; !reflect.DeepEqual(subs["Foundations"], want) {
		t.Fatalf("foundations = %v", subs["Foundations"])
	}
	if want := []string{"Goroutines", "Channels"}; !reflect.DeepEqual(subs["Concurrency"], want) {
		t.Fatalf("concurrency = %v", subs["Concurrency"])
	}
}

func TestParse_DuplicateTopicNames(t *testing.T) {
	topics, subs, err := Parse("1. Basics\na. One\n2. Basics\na. Two")
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"Basics", "Basics (2)"}; !reflect.DeepEqual(topics, want) {
		t.Fatalf("topics = %v", topics)
	}
	if subs["Basics (2)"][0] != "Two" {
		t.Fatalf("subs = %v", subs)
	}
}

func TestParse_NoTopics(t *testing.T) {
	for _, in := range []string{"", "Sorry, I can't help with that.", "a. orphan subtopic"} {
		_, _, err := Parse(in)
		if !IsParseError(err) {
			t.Errorf("Parse(%q) err = %v, want ParseError", in, err)
		}
	}
}

func TestParseJSON(t *testing.T) {
	text := "```json\n" + `{"topics":[{"name":"Intro","subtopics":[{"title":"History","content":"x"},{"title":"Setup","content":"y"}]},{"name":"Empty","subtopics":[]}]}` + "\n```"
	topics, subs, err := ParseJSON(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"Intro", "Empty"}; !reflect.DeepEqual(topics, want) {
		t.Fatalf("topics = %v", topics)
	}
	if !reflect.DeepEqual(subs["Intro"], []string{"History", "Setup"}) || !reflect.DeepEqual(subs["Empty"], []string{Overview}) {
		t.Fatalf("subs = %v", subs)
	}

	if _, _, err := ParseJSON("not json at all"); !IsParseError(err) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if _, _, err := ParseJSON(`{"topics": []}`); !IsParseError(err) {
		t.Fatalf("expected ParseError for empty topics, got %v", err)
	}
}
