package curriculum

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Overview is the synthetic subtopic given to a topic that has none.
const Overview = "Overview"

// ParseError reports an oracle reply that does not describe a usable
// curriculum.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "curriculum parse error: " + e.Reason
}

var (
	topicLine    = regexp.MustCompile(`^(\d+)\.\s*(.*)$`)
	subtopicLine = regexp.MustCompile(`^(?:[a-hA-H][.)]|\d+\.\d+\.?)\s*(.*)$`)
	decoration   = strings.NewReplacer("**", "", "__", "", "`", "")
)

// Parse extracts topics and subtopics from the numbered outline format:
//
//	1. Topic
//	   a. Subtopic
//	   b. Subtopic
//
// Subtopic lines may also be numbered "1.1". Blank and unrecognized lines
// are skipped. A topic without subtopics receives [Overview].
func Parse(text string) (topics []string, subtopics map[string][]string, err error) {
	subtopics = make(map[string][]string)
	current := ""

	for _, raw := range strings.Split(text, "\n") {
		line := cleanLine(raw)
		if line == "" {
			continue
		}
		// Subtopic first: "1.1" would otherwise match the topic pattern.
		if m := subtopicLine.FindStringSubmatch(line); m != nil {
			if current != "" {
				if s := cleanName(m[1]); s != "" {
					subtopics[current] = append(subtopics[current], s)
				}
			}
			continue
		}
		if m := topicLine.FindStringSubmatch(line); m != nil {
			name := cleanName(m[2])
			if name == "" {
				continue
			}
			current = uniqueName(name, subtopics)
			topics = append(topics, current)
			subtopics[current] = nil
		}
	}

	return finish(topics, subtopics)
}

// jsonCurriculum is the structured reply shape.
type jsonCurriculum struct {
	Topics []struct {
		Name      string `json:"name"`
		Subtopics []struct {
			Title   string `json:"title"`
			Content string `json:"content"`
		} `json:"subtopics"`
	} `json:"topics"`
}

// ParseJSON extracts topics from {"topics":[{"name","subtopics":[{"title"}]}]}.
// Surrounding prose and code fences are tolerated.
func ParseJSON(text string) (topics []string, subtopics map[string][]string, err error) {
	raw := ExtractJSON(text)
	if raw == "" {
		return nil, nil, &ParseError{Reason: "no JSON object"}
	}
	var doc jsonCurriculum
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, nil, &ParseError{Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}

	subtopics = make(map[string][]string)
	for _, t := range doc.Topics {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			continue
		}
		name = uniqueName(name, subtopics)
		topics = append(topics, name)
		subtopics[name] = nil
		for _, s := range t.Subtopics {
			if title := strings.TrimSpace(s.Title); title != "" {
				subtopics[name] = append(subtopics[name], title)
			}
		}
	}
	return finish(topics, subtopics)
}

// ExtractJSON returns the outermost {...} span of text, or "".
func ExtractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

// finish applies the Overview fallback, then validates.
func finish(topics []string, subtopics map[string][]string) ([]string, map[string][]string, error) {
	for _, t := range topics {
		if len(subtopics[t]) == 0 {
			subtopics[t] = []string{Overview}
		}
	}
	if len(topics) == 0 {
		return nil, nil, &ParseError{Reason: "no topics found"}
	}
	for _, t := range topics {
		if len(subtopics[t]) == 0 {
			return nil, nil, &ParseError{Reason: fmt.Sprintf("topic %q has no subtopics", t)}
		}
	}
	return topics, subtopics, nil
}

func cleanLine(raw string) string {
	line := decoration.Replace(strings.TrimSpace(raw))
	line = strings.TrimLeft(line, "#")
	line = strings.TrimPrefix(strings.TrimSpace(line), "- ")
	return strings.TrimSpace(line)
}

// cleanName strips template brackets and trailing colons.
func cleanName(s string) string {
	s = strings.TrimSuffix(strings.TrimSpace(s), ":")
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		s = s[1 : len(s)-1]
	}
	return strings.TrimSpace(s)
}

// uniqueName disambiguates repeated topic names so the subtopic map
// keeps one entry per topic.
func uniqueName(name string, seen map[string][]string) string {
	if _, ok := seen[name]; !ok {
		return name
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s (%d)", name, i)
		if _, ok := seen[candidate]; !ok {
			return candidate
		}
	}
}
