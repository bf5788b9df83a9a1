// Package moderation masks censored words in message bodies before they are
// stored or delivered.
package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// DefaultMask replaces every rune of a censored match.
const DefaultMask = '*'

// Moderator censors message bodies with an Aho-Corasick automaton built over
// a normalized word list. A Moderator with no words leaves text untouched.
type Moderator struct {
	matcher *goahocorasick.Machine
	mask    rune
}

type textMapping struct {
	normalized []rune
	origIdx    []int
}

// New builds a Moderator for words. Words that normalize to nothing
// (pure punctuation, whitespace) are ignored.
func New(words []string, mask rune) (*Moderator, error) {
	if mask == 0 {
		mask = DefaultMask
	}

	patterns := make([][]rune, 0, len(words))
	for _, word := range words {
		if p := normalizeRunes([]rune(word)); len(p) > 0 {
			patterns = append(patterns, p)
		}
	}
	if len(patterns) == 0 {
		return &Moderator{mask: mask}, nil
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{matcher: m, mask: mask}, nil
}

// Censor replaces every censored word in text with the mask rune, keeping
// the surrounding spacing and punctuation.
func (m *Moderator) Censor(text string) string {
	if m == nil || m.matcher == nil {
		return text
	}

	mapping := normalize(text)
	if len(mapping.normalized) == 0 {
		return text
	}

	spans := m.matcher.MultiPatternSearch(mapping.normalized, false)
	if len(spans) == 0 {
		return text
	}

	orig := []rune(text)
	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(mapping.origIdx) {
			continue
		}
		for i := mapping.origIdx[start]; i <= mapping.origIdx[end-1]; i++ {
			orig[i] = m.mask
		}
	}
	return string(orig)
}

func normalize(input string) textMapping {
	orig := []rune(input)
	out := textMapping{
		normalized: make([]rune, 0, len(orig)),
		origIdx:    make([]int, 0, len(orig)),
	}
	for i, r := range orig {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		out.normalized = append(out.normalized, unicode.ToLower(clean))
		out.origIdx = append(out.origIdx, i)
	}
	return out
}

func normalizeRunes(input []rune) []rune {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		out = append(out, unicode.ToLower(clean))
	}
	return out
}

// simplifyRune folds common leet substitutions back to letters.
func simplifyRune(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
