package prompt

import (
	_ "embed"
	"strings"
)

//go:embed template/coach.txt
var coachRaw string

// CoachPrompt returns the trimmed system prompt for the health coach.
// The embed is compile-time; this is safe to call concurrently.
func CoachPrompt() string {
	return strings.TrimSpace(coachRaw)
}
