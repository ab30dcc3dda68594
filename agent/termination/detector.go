// Package termination recognises the reserved phrase that ends a session.
package termination

import (
	"strings"
	"unicode"
)

const DefaultPhrase = "TASK_DONE"

type Detector struct {
	phrase string
	folded string
}

// New returns a detector for phrase. A blank phrase falls back to DefaultPhrase.
func New(phrase string) Detector {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		phrase = DefaultPhrase
	}
	return Detector{phrase: phrase, folded: strings.ToLower(phrase)}
}

func (d Detector) Phrase() string {
	if d.phrase == "" {
		return DefaultPhrase
	}
	return d.phrase
}

// Match reports whether text contains the phrase, ignoring case.
func (d Detector) Match(text string) bool {
	folded := d.folded
	if folded == "" {
		folded = strings.ToLower(DefaultPhrase)
	}
	return strings.Contains(strings.ToLower(text), folded)
}

// StripSentences drops every sentence that contains the phrase and returns the
// rest trimmed. Sentences end at 。！？!? or a newline, and at '.' when it is
// followed by whitespace or the end of text.
func (d Detector) StripSentences(text string) string {
	var kept strings.Builder
	for _, sentence := range splitSentences(text) {
		if d.Match(sentence) {
			continue
		}
		kept.WriteString(sentence)
	}
	return strings.TrimSpace(kept.String())
}

func splitSentences(text string) []string {
	runes := []rune(text)
	var (
		out   []string
		start int
	)
	for i, r := range runes {
		if !isDelimiter(runes, i, r) {
			continue
		}
		out = append(out, string(runes[start:i+1]))
		start = i + 1
	}
	if start < len(runes) {
		out = append(out, string(runes[start:]))
	}
	return out
}

func isDelimiter(runes []rune, i int, r rune) bool {
	switch r {
	case '。', '！', '？', '!', '?', '\n':
		return true
	case '.':
		return i+1 == len(runes) || unicode.IsSpace(runes[i+1])
	default:
		return false
	}
}
