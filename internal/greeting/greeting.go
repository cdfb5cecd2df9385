// Package greeting recognizes salutations so they can be answered
// without an LLM call.
package greeting

import (
	"strings"
	"time"
)

// vocabulary is matched case-insensitively against trimmed input.
var vocabulary = []string{
	"hi", "hello", "hey", "good morning", "good afternoon", "good evening",
	"howdy", "hi there", "hello there", "greetings", "hola", "bonjour",
	"sup", "what's up", "yo", "morning", "evening",
}

// Intro is the first bot message of every new thread.
const Intro = "Hi! I'm your AI tutor. What would you like to learn today?"

// Is reports whether text is a greeting: it equals a vocabulary entry,
// starts with one followed by a space, or ends with a space and one.
func Is(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return false
	}
	for _, g := range vocabulary {
		if t == g || strings.HasPrefix(t, g+" ") || strings.HasSuffix(t, " "+g) {
			return true
		}
	}
	return false
}

// Reply is the canned answer to a greeting at local time now.
func Reply(now time.Time) string {
	return salutation(now) + "! I'm your AI tutor. I can help you learn about any subject " +
		"you're interested in. What would you like to learn about today?"
}

func salutation(now time.Time) string {
	switch h := now.Hour(); {
	case h < 12:
		return "Good morning"
	case h < 17:
		return "Good afternoon"
	default:
		return "Good evening"
	}
}
