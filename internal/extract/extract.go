// Package extract finds absolute URLs embedded in arbitrary text.
//
// Redirect targets sometimes carry surrounding text or wrap the real target
// in another URL; the scan looks for scheme tokens anywhere in the input
// instead of requiring the whole string to be a well-formed URL.
package extract

import (
	"fmt"
	"regexp"
	"strings"

	"mvdan.cc/xurls/v2"
)

func defaultSchemes() []string {
	return []string{"http", "https"}
}

// Matcher is an immutable URL scanner for a fixed set of schemes.
// It holds no mutable state and is safe for concurrent use.
type Matcher struct {
	re *regexp.Regexp
}

// New compiles a Matcher recognizing the given schemes (http and https when
// none are given).
func New(schemes ...string) (*Matcher, error) {
	if len(schemes) == 0 {
		schemes = defaultSchemes()
	}
	alts := make([]string, 0, len(schemes))
	for _, s := range schemes {
		s = strings.TrimSuffix(strings.TrimSpace(s), "://")
		if s == "" {
			return nil, fmt.Errorf("empty scheme")
		}
		alts = append(alts, regexp.QuoteMeta(strings.ToLower(s)))
	}
	re, err := xurls.StrictMatchingScheme(`(?:` + strings.Join(alts, "|") + `)://`)
	if err != nil {
		return nil, fmt.Errorf("compile url matcher: %w", err)
	}
	return &Matcher{re: re}, nil
}

// Find returns every URL found in text, in order of appearance.
// It never fails; no match yields an empty slice.
func (m *Matcher) Find(text string) []string {
	found := m.re.FindAllString(text, -1)
	out := make([]string, 0, len(found))
	return append(out, found...)
}

// URLs scans text for URLs with the given schemes.
func URLs(text string, schemes ...string) []string {
	m, err := New(schemes...)
	if err != nil {
		return []string{}
	}
	return m.Find(text)
}
