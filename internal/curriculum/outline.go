package curriculum

import (
	"fmt"
	"strings"
)

// Outline renders the numbered outline shown to the learner.
func Outline(c *Curriculum) string {
	var b strings.Builder
	for i, t := range c.Topics {
		fmt.Fprintf(&b, "%d. %s\n", i+1, t)
		for j, s := range c.Subtopics[t] {
			fmt.Fprintf(&b, "   %s. %s\n", letter(j), s)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Introduction is the bot message that presents a fresh curriculum.
func Introduction(c *Curriculum) string {
	return fmt.Sprintf("Here's your curriculum for %s:\n\n%s\n\nPress Next to begin with the first lesson.",
		c.Subject, Outline(c))
}

func letter(i int) string {
	if i < 26 {
		return string(rune('a' + i))
	}
	return fmt.Sprintf("%d", i+1)
}
