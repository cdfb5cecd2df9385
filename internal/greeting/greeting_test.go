package greeting

import (
	"strings"
	"testing"
	"time"
)

func TestIs(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"hi", true},
		{"  Hello  ", true},
		{"HEY", true},
		{"good morning", true},
		{"hi tutor", true},
		{"well hello", true},
		{"what's up", true},
		{"yo", true},
		{"history of rome", false},
		{"hierarchy", false},
		{"python programming", false},
		{"say hi to my friend", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := Is(tt.in); got != tt.want {
			t.Errorf("Is(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestReply_TimeOfDay(t *testing.T) {
	day := func(h int) time.Time { return time.Date(2024, 5, 1, h, 30, 0, 0, time.Local) }
	tests := []struct {
		hour int
		want string
	}{
		{0, "Good morning"},
		{11, "Good morning"},
		{12, "Good afternoon"},
		{16, "Good afternoon"},
		{17, "Good evening"},
		{23, "Good evening"},
	}
	for _, tt := range tests {
		got := Reply(day(tt.hour))
		if !strings.HasPrefix(got, tt.want+"! I'm your AI tutor.") {
			t.Errorf("hour %d: %q", tt.hour, got)
		}
	}
}
