package lessons

import (
	"fmt"
	"strings"
)

func buildLessonPrompt(topic, subtopic string) string {
	return fmt.Sprintf(`You are an expert tutor renowned for delivering insightful and detailed lessons. For the topic "%s" specifically about "%s", create an in-depth lesson that includes:
1. Clear definitions of key concepts.
2. Step-by-step examples.
3. Real-world applications.
4. Common pitfalls and how to avoid them.
5. A summary of key takeaways.
Ensure the lesson is well-structured and engaging. Use bullet points or numbered lists where appropriate.`, topic, subtopic)
}

func buildReviewPrompt(topic, subtopic string) string {
	var b strings.Builder
	b.WriteString(buildLessonPrompt(topic, subtopic))
	b.WriteString("\nThe learner has already seen one lesson on this subtopic. Explain it again from a different angle, with different examples.")
	return b.String()
}

func buildAnswerPrompt(topic, subtopic, question string) string {
	return fmt.Sprintf("Context: We are discussing %s, specifically %s.\n\nQuestion: %s\n\nProvide a clear, well-structured answer with natural breaks between points.",
		topic, subtopic, question)
}
