package narrative

import (
	"regexp"
	"strings"
)

var (
	boldRe      = regexp.MustCompile(`\*\*(.*?)\*\*`)
	headerRe    = regexp.MustCompile(`(?m)^#+\s*`)
	bulletRe    = regexp.MustCompile(`(?m)^[-*]\s*`)
	spaceRe     = regexp.MustCompile(`\s+`)
	symbolsRe   = regexp.MustCompile("[#$%&*+=\\[\\]\\\\^_`|~]")
	doubleAndRe = regexp.MustCompile(`\band\s+and\s+`)
)

// SpeechText prepares a rendered narrative for synthesis: Markdown markup is
// removed and list bullets are read as "and".
func SpeechText(markdown string) string {
	text := boldRe.ReplaceAllString(markdown, "$1")
	text = headerRe.ReplaceAllString(text, "")
	text = bulletRe.ReplaceAllString(text, "and ")
	text = symbolsRe.ReplaceAllString(text, "")
	text = spaceRe.ReplaceAllString(text, " ")
	text = doubleAndRe.ReplaceAllString(text, "and ")
	return strings.TrimSpace(text)
}

// PlainText strips Markdown from free text such as a transcript.
func PlainText(text string) string {
	text = boldRe.ReplaceAllString(text, "$1")
	text = headerRe.ReplaceAllString(text, "")
	text = bulletRe.ReplaceAllString(text, "")
	text = symbolsRe.ReplaceAllString(text, "")
	text = spaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
