package redirect

import (
	"testing"
)

func TestLiteralMatcher(t *testing.T) {
	tests := []struct {
		path  string
		input string
		match bool
	}{
		{path: "/test/foo", input: "/test/foo", match: true},
		{path: "/test/foo", input: "/test/foo/", match: false},
		{path: "/test/foo", input: "/test/fo", match: false},
		{path: "/test/foo", input: "/Test/foo", match: false},
		{path: "/", input: "/", match: true},
	}
	for _, test := range tests {
		m, err := NewLiteralMatcher(test.path)
		if err != nil {
			t.Fatalf("Unexpected error building literal matcher %q: %s", test.path, err)
		}
		captures, ok := m.Match(test.input)
		if ok != test.match {
			t.Errorf("Matching %q against literal %q returned %v, expected %v", test.input, test.path, ok, test.match)
		}
		if len(captures) != 0 {
			t.Errorf("Literal matcher %q produced captures %v", test.path, captures)
		}
	}
}

func TestRegexMatcher(t *testing.T) {
	tests := []struct {
		pattern  string
		input    string
		match    bool
		captures []string
	}{
		{
			pattern: `/blog/(\d{4})/(\d{2})/(\d{2})/([^/]+)/([^/]+)`,
			input:   "/blog/2024/01/01/foo/bar",
			match:   true,
			captures: []string{
				"2024", "01", "01", "foo", "bar",
			},
		},
		{
			// anchored at both ends: a matching prefix is not enough
			pattern: `/blog/(\d{4})`,
			input:   "/blog/2024/extra",
			match:   false,
		},
		{
			pattern: `/blog/(\d{4})`,
			input:   "/old/blog/2024",
			match:   false,
		},
		{
			pattern: `/assets/.*`,
			input:   "/assets/css/site.css",
			match:   true,
		},
	}
	for _, test := range tests {
		m, err := NewRegexMatcher(test.pattern)
		if err != nil {
			t.Fatalf("Unexpected error compiling pattern %q: %s", test.pattern, err)
		}
		captures, ok := m.Match(test.input)
		if ok != test.match {
			t.Errorf("Matching %q against %q returned %v, expected %v", test.input, test.pattern, ok, test.match)
			continue
		}
		if !ok {
			continue
		}
		if len(captures) != len(test.captures) {
			t.Errorf("Pattern %q captured %v, expected %v", test.pattern, captures, test.captures)
			continue
		}
		for i := range captures {
			if captures[i] != test.captures[i] {
				t.Errorf("Pattern %q capture %d was %q, expected %q", test.pattern, i+1, captures[i], test.captures[i])
			}
		}
	}
}

func TestRegexMatcher_invalid_pattern(t *testing.T) {
	_, err := NewRegexMatcher(`/blog/(unclosed`)
	if err == nil {
		t.Fatal("Expected an error compiling an unclosed group")
	}
	if _, ok := err.(*InvalidPatternError); !ok {
		t.Fatalf("Expected *InvalidPatternError, got %T", err)
	}
}

func TestRegexMatcher_capture_count(t *testing.T) {
	m, err := NewRegexMatcher(`/a/(.*)/b/(.*)`)
	if err != nil {
		t.Fatal(err)
	}
	if m.Captures() != 2 {
		t.Errorf("Captures() = %d, expected 2", m.Captures())
	}
	lit, err := NewLiteralMatcher("/a")
	if err != nil {
		t.Fatal(err)
	}
	if lit.Captures() != 0 {
		t.Errorf("literal Captures() = %d, expected 0", lit.Captures())
	}
}
