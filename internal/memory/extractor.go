// Package memory extracts lightweight user facts from chat messages. The
// extraction is a best-effort heuristic: false negatives are acceptable,
// false positives are limited by a small stop-word filter.
package memory

import (
	"regexp"
	"strings"
	"unicode"
)

// Facts is a partial set of user attributes recognized in an utterance.
// Empty fields mean the corresponding fact was not found.
type Facts struct {
	Name string
	Mood string
}

// Extractor recognizes user facts in free-form text. It is an interface so
// the heuristic can be swapped for a stricter parser without touching the
// chat pipeline.
type Extractor interface {
	Extract(utterance string) Facts
}

var (
	nameRE = regexp.MustCompile(`(?i)\bmy name is (\w+)`)
	moodRE = regexp.MustCompile(`(?i)\bI(?:'m| am) (?:feeling|a bit)?\s*(\w+)`)
)

// moodStopWords are filler words consumed by the optional clause of moodRE.
// Only these exact captures are rejected; any other word is accepted as a
// mood, even when it is not one.
var moodStopWords = map[string]bool{
	"a":       true,
	"bit":     true,
	"feeling": true,
}

// RegexExtractor matches name and mood disclosures with fixed patterns:
// "my name is <word>" and "I'm/I am [feeling|a bit] <word>".
type RegexExtractor struct{}

func NewRegexExtractor() RegexExtractor {
	return RegexExtractor{}
}

func (RegexExtractor) Extract(utterance string) Facts {
	var facts Facts
	if m := nameRE.FindStringSubmatch(utterance); m != nil {
		facts.Name = capitalize(m[1])
	}
	if m := moodRE.FindStringSubmatch(utterance); m != nil {
		mood := strings.ToLower(m[1])
		if !moodStopWords[mood] {
			facts.Mood = mood
		}
	}
	return facts
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
