package curriculum

import (
	"fmt"
	"strings"
)

const curriculumSystemPrompt = `You are an expert curriculum designer. You build learning plans that progress logically from fundamentals to advanced practice.`

// buildPrompt fills the outline template for subject with n topics of
// m subtopics each.
func buildPrompt(subject string, n, m int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate a comprehensive curriculum for %s with:\n", subject)
	fmt.Fprintf(&b, "- %d main topics\n", n)
	fmt.Fprintf(&b, "- %d subtopics for each main topic\n", m)
	b.WriteString("- Ensure logical progression and depth\n")
	b.WriteString("- Include practical applications and industry relevance\n\n")
	b.WriteString("Format:\n")
	for t := 1; t <= min(n, 2); t++ {
		fmt.Fprintf(&b, "%d. [Topic %d]\n", t, t)
		for s := 1; s <= min(m, 26); s++ {
			fmt.Fprintf(&b, "   %c. [Subtopic %d.%d]\n", 'a'+s-1, t, s)
		}
	}
	b.WriteString("...\n\nReturn only the outline.")
	return b.String()
}

func buildStructuredPrompt(subject string, n, m int) string {
	return fmt.Sprintf(`Generate a comprehensive curriculum for %s with exactly %d main topics and %d subtopics for each main topic.
Ensure logical progression and depth, and include practical applications and industry relevance.
For each subtopic give a title and a one-sentence description of its content.`, subject, n, m)
}
