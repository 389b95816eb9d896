package redirect

import (
	"fmt"
	"regexp"
)

// InvalidPatternError is raised at snapshot build time when a rule's regex
// pattern does not compile.
type InvalidPatternError struct {
	Pattern string
	Err     error
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %s", e.Pattern, e.Err)
}

func (e *InvalidPatternError) Unwrap() error {
	return e.Err
}

type matchKind int

const (
	matchLiteral matchKind = iota
	matchRegex
)

// Matcher evaluates one rule's path pattern against a request path. A literal
// matcher compares byte-for-byte; a regex matcher is anchored to the entire
// path and reports its capture groups in declaration order.
type Matcher struct {
	kind    matchKind
	literal string
	re      *regexp.Regexp
}

// NewLiteralMatcher builds a matcher requiring byte-exact path equality.
func NewLiteralMatcher(path string) (Matcher, error) {
	if len(path) == 0 {
		return Matcher{}, &InvalidPatternError{Pattern: path, Err: fmt.Errorf("empty literal path")}
	}
	return Matcher{kind: matchLiteral, literal: path}, nil
}

// NewRegexMatcher compiles pattern anchored to the whole request path. The
// wrapping group is non-capturing so declared capture indexes are unchanged.
func NewRegexMatcher(pattern string) (Matcher, error) {
	if len(pattern) == 0 {
		return Matcher{}, &InvalidPatternError{Pattern: pattern, Err: fmt.Errorf("empty pattern")}
	}
	re, err := regexp.Compile(`\A(?:` + pattern + `)\z`)
	if err != nil {
		return Matcher{}, &InvalidPatternError{Pattern: pattern, Err: err}
	}
	return Matcher{kind: matchRegex, re: re}, nil
}

// Match reports whether path satisfies the pattern. On a regex match the
// returned slice holds the captured substrings; literal matches capture
// nothing.
func (m Matcher) Match(path string) ([]string, bool) {
	switch m.kind {
	case matchLiteral:
		if m.literal == path {
			return nil, true
		}
		return nil, false
	case matchRegex:
		sub := m.re.FindStringSubmatch(path)
		if sub == nil {
			return nil, false
		}
		return sub[1:], true
	}
	return nil, false
}

// Captures returns the number of capture groups the pattern declares.
func (m Matcher) Captures() int {
	if m.kind == matchRegex {
		return m.re.NumSubexp()
	}
	return 0
}

func (m Matcher) String() string {
	if m.kind == matchRegex {
		return fmt.Sprintf("regex(%s)", m.re.String())
	}
	return fmt.Sprintf("literal(%s)", m.literal)
}
