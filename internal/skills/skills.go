// Package skills holds the volunteer skill catalog and the keyword matcher
// that turns a free-text request into one skill.
package skills

import (
	"regexp"
	"strings"
)

const (
	Driving         = "Driving"
	GroceryShopping = "Grocery Shopping"
	TechHelp        = "Tech Help"
	Gardening       = "Gardening"
	Companionship   = "Companionship"
)

// All lists the catalog in seed order.
var All = []string{Driving, GroceryShopping, TechHelp, Gardening, Companionship}

func Valid(name string) bool {
	for _, s := range All {
		if s == name {
			return true
		}
	}
	return false
}

type keyword struct {
	word  string
	skill string
}

// keywords is ordered; the boundary matcher reports the first entry found.
var keywords = []keyword{
	{"groceries", GroceryShopping},
	{"shopping", GroceryShopping},
	{"ride", Driving},
	{"appointment", Driving},
	{"doctor", Driving},
	{"tech", TechHelp},
	{"computer", TechHelp},
	{"phone", TechHelp},
	{"garden", Gardening},
	{"weeding", Gardening},
	{"visit", Companionship},
	{"talk", Companionship},
}

// Matcher maps request text to a single skill.
type Matcher interface {
	Match(text string) (string, bool)
}

// WordMatcher splits on whitespace and returns the skill of the first word
// that is exactly a keyword. Punctuation stays attached, so "ride." is not a
// match.
type WordMatcher struct {
	index map[string]string
}

func NewWordMatcher() WordMatcher {
	idx := make(map[string]string, len(keywords))
	for _, k := range keywords {
		idx[k.word] = k.skill
	}
	return WordMatcher{index: idx}
}

func (m WordMatcher) Match(text string) (string, bool) {
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if s, ok := m.index[w]; ok {
			return s, true
		}
	}
	return "", false
}

// BoundaryMatcher finds keywords on word boundaries anywhere in the text,
// checking them in table order.
type BoundaryMatcher struct {
	patterns []*regexp.Regexp
}

func NewBoundaryMatcher() BoundaryMatcher {
	p := make([]*regexp.Regexp, len(keywords))
	for i, k := range keywords {
		p[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(k.word) + `\b`)
	}
	return BoundaryMatcher{patterns: p}
}

func (m BoundaryMatcher) Match(text string) (string, bool) {
	for i, re := range m.patterns {
		if re.MatchString(text) {
			return keywords[i].skill, true
		}
	}
	return "", false
}

// NewMatcher returns the matcher named by kind ("word" or "boundary").
// Unknown kinds fall back to the word matcher.
func NewMatcher(kind string) Matcher {
	if kind == "boundary" {
		return NewBoundaryMatcher()
	}
	return NewWordMatcher()
}
