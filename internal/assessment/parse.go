package assessment

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	questionStart    = regexp.MustCompile(`^Q\d+|Question \d+:|^\d+\.`)
	questionPrefix   = regexp.MustCompile(`^Q\d+[.:)]?|Question \d+:|^\d+\.`)
	optionLine       = regexp.MustCompile(`^[a-dA-D]\)`)
	explanationStart = regexp.MustCompile(`^(?:Explanation|Answer|Why):`)
	exerciseStart    = regexp.MustCompile(`^#*\s*Exercise \d+:`)
	bulletLine       = regexp.MustCompile(`^[-•*]\s`)
	codeFence        = regexp.MustCompile("```[a-zA-Z]*")
)

// ParseQuiz extracts questions from a reply. JSON of the form
// {"questions":[...]} is tried first, then the "Q1. / a) / Explanation:"
// line format. It never fails; unrecognized lines are dropped.
func ParseQuiz(text string) []Question {
	var doc struct {
		Questions []Question `json:"questions"`
	}
	if decodeJSON(text, &doc) && len(doc.Questions) > 0 {
		for i := range doc.Questions {
			doc.Questions[i].Correct = strings.ToLower(strings.TrimSpace(doc.Questions[i].Correct))
		}
		return doc.Questions
	}

	var (
		out     []Question
		current *Question
	)
	for _, line := range lines(strings.ReplaceAll(text, "**", "")) {
		switch {
		case questionStart.MatchString(line):
			if current != nil {
				out = append(out, *current)
			}
			current = &Question{Question: strings.TrimSpace(questionPrefix.ReplaceAllString(line, ""))}
		case current != nil && optionLine.MatchString(line):
			opt := line
			if strings.Contains(opt, "(correct)") {
				current.Correct = strings.ToLower(opt[:1])
				opt = strings.TrimSpace(strings.Replace(opt, "(correct)", "", 1))
			}
			current.Options = append(current.Options, opt)
		case current != nil && explanationStart.MatchString(line):
			current.Explanation = strings.TrimSpace(explanationStart.ReplaceAllString(line, ""))
		}
	}
	if current != nil {
		out = append(out, *current)
	}
	return out
}

// ParseExercises extracts exercises from {"exercises":[...]} or the
// "Exercise N: / Description: / Hint: / Test Case: / Solution:" format.
func ParseExercises(text string) []Exercise {
	var doc struct {
		Exercises []Exercise `json:"exercises"`
	}
	if decodeJSON(text, &doc) && len(doc.Exercises) > 0 {
		return doc.Exercises
	}

	var (
		out     []Exercise
		current *Exercise
		section string
	)
	for _, line := range lines(codeFence.ReplaceAllString(text, "")) {
		switch {
		case exerciseStart.MatchString(line):
			if current != nil {
				out = append(out, finishExercise(*current))
			}
			title := stripHeading(line)
			current = &Exercise{Title: title, Description: title}
			section = ""
		case current == nil:
		case strings.HasPrefix(line, "Description:"):
			section = "description"
			current.Description = stripHeading(strings.TrimPrefix(line, "Description:"))
		case strings.HasPrefix(line, "Hint:"):
			section = "hints"
			current.Hints = append(current.Hints, stripHeading(strings.TrimPrefix(line, "Hint:")))
		case strings.HasPrefix(line, "Test Case:"):
			section = "testCases"
			current.TestCases = append(current.TestCases, stripHeading(strings.TrimPrefix(line, "Test Case:")))
		case strings.HasPrefix(line, "Solution:"):
			section = "solution"
			current.SampleSolution = ""
			if rest := strings.TrimSpace(strings.TrimPrefix(line, "Solution:")); rest != "" {
				current.SampleSolution = rest + "\n"
			}
		case section == "description":
			current.Description += " " + stripHeading(line)
		case section == "solution":
			current.SampleSolution += stripHeading(line) + "\n"
		}
	}
	if current != nil {
		out = append(out, finishExercise(*current))
	}
	return out
}

func finishExercise(e Exercise) Exercise {
	e.SampleSolution = strings.TrimRight(e.SampleSolution, "\n")
	return e
}

// ParseProject extracts a project from {"project":{...}} or the
// "Title: / Description: / Requirements: / Steps: / Deliverables: /
// Resources:" format with "- " bullets. The result is never nil.
func ParseProject(text string) *Project {
	var doc struct {
		Project *Project `json:"project"`
	}
	if decodeJSON(text, &doc) && doc.Project != nil {
		return doc.Project
	}

	p := &Project{}
	var section *[]string
	for _, line := range lines(text) {
		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(line, "Title:"):
			p.Title = strings.TrimSpace(strings.TrimPrefix(line, "Title:"))
		case strings.HasPrefix(line, "Description:"):
			p.Description = strings.TrimSpace(strings.TrimPrefix(line, "Description:"))
		case sectionHeader(lower, "requirement"):
			section = &p.Requirements
		case sectionHeader(lower, "step"):
			section = &p.Steps
		case sectionHeader(lower, "deliverable"):
			section = &p.Deliverables
		case sectionHeader(lower, "resource"):
			section = &p.Resources
		case section != nil && bulletLine.MatchString(line):
			*section = append(*section, strings.TrimSpace(bulletLine.ReplaceAllString(line, "")))
		}
	}
	return p
}

// sectionHeader matches "Name:" and "Names:" case-insensitively.
func sectionHeader(lower, name string) bool {
	return strings.HasPrefix(lower, name+":") || strings.HasPrefix(lower, name+"s:")
}

// decodeJSON unmarshals the outermost JSON object of text into v.
func decodeJSON(text string, v any) bool {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return false
	}
	return json.Unmarshal([]byte(text[start:end+1]), v) == nil
}

// lines splits text into trimmed, non-empty lines.
func lines(text string) []string {
	var out []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

func stripHeading(s string) string {
	return strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(s), "#"))
}
