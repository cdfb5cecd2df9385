package tutor

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const maxChunkRunes = 500

var blankLines = regexp.MustCompile(`\n\n+`)

// Chunks splits a bot reply into display chunks: paragraphs separated by
// blank lines, with paragraphs over 500 characters regrouped by sentence.
// Lesson and review replies, which carry a Topic/Subtopic header, stay
// whole.
func Chunks(text string) []string {
	if strings.Contains(text, "Topic:") || strings.Contains(text, "Subtopic:") {
		return []string{text}
	}
	var out []string
	for _, para := range blankLines.Split(text, -1) {
		if utf8.RuneCountInString(para) <= maxChunkRunes {
			out = appendNonBlank(out, para)
			continue
		}
		var group []string
		for _, sentence := range sentences(para) {
			if n := len(group); n > 0 && utf8.RuneCountInString(group[n-1])+utf8.RuneCountInString(sentence) < maxChunkRunes {
				group[n-1] += " " + sentence
				continue
			}
			group = append(group, sentence)
		}
		for _, g := range group {
			out = appendNonBlank(out, g)
		}
	}
	return out
}

func appendNonBlank(out []string, s string) []string {
	if strings.TrimSpace(s) == "" {
		return out
	}
	return append(out, s)
}

// sentences splits after '.', '!' or '?' followed by whitespace, dropping
// the whitespace.
func sentences(s string) []string {
	var (
		out   []string
		start int
	)
	runes := []rune(s)
	for i := 0; i < len(runes)-1; i++ {
		if !strings.ContainsRune(".!?", runes[i]) || !unicode.IsSpace(runes[i+1]) {
			continue
		}
		out = append(out, string(runes[start:i+1]))
		j := i + 1
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		start = j
		i = j - 1
	}
	if start < len(runes) {
		out = append(out, string(runes[start:]))
	}
	return out
}

// Display is text as it is shown once typing finishes.
func Display(text string) string {
	return strings.Join(Chunks(text), "\n\n")
}

// Step is one word of the typing animation. A Step that opens a new
// chunk carries the blank-line separator and Pause.
type Step struct {
	Text  string
	Pause bool
}

// Steps is the word-by-word schedule of Display(text). Concatenating
// every Step's Text yields Display(text).
func Steps(text string) []Step {
	var out []Step
	for ci, chunk := range Chunks(text) {
		for wi, word := range words(chunk) {
			st := Step{Text: word}
			if ci > 0 && wi == 0 {
				st.Text = "\n\n" + word
				st.Pause = true
			}
			out = append(out, st)
		}
	}
	return out
}

// Stream replays text as it is displayed, delivering a growing prefix to
// fn one Step at a time, delay apart, with a pause of 50 delays before
// each new chunk. The last call carries the complete display text.
func Stream(ctx context.Context, text string, delay time.Duration, fn func(partial string)) error {
	var shown strings.Builder
	for _, st := range Steps(text) {
		if st.Pause {
			if err := sleep(ctx, 50*delay); err != nil {
				return err
			}
		}
		shown.WriteString(st.Text)
		fn(shown.String())
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
	return nil
}

// words splits s into pieces that each end after a run of whitespace, so
// concatenating them restores s.
func words(s string) []string {
	var (
		out   []string
		start int
		space bool
	)
	for i, r := range s {
		isSpace := unicode.IsSpace(r)
		if space && !isSpace {
			out = append(out, s[start:i])
			start = i
		}
		space = isSpace
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
