package redirect

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/richiefi/redirector/util"
)

// InvalidTemplateReferenceError is raised at snapshot build time when a
// destination template references a capture group the matcher never produces.
type InvalidTemplateReferenceError struct {
	Template string
	Index    int
	Captures int
}

func (e *InvalidTemplateReferenceError) Error() string {
	return fmt.Sprintf("destination %q references capture $%d but the pattern declares %d group(s)", e.Template, e.Index, e.Captures)
}

type cachePolicyKind int

const (
	cachePolicyDefault cachePolicyKind = iota
	cachePolicyOverride
	cachePolicyDisabled
)

// CachePolicy is a rule's cache-control decision: use the process default,
// override it with a verbatim directive, or suppress the header entirely.
// Disabled and default are distinct at the type level, not sentinel strings.
type CachePolicy struct {
	kind  cachePolicyKind
	value string
}

// CacheDefault defers to the process-wide default directive.
func CacheDefault() CachePolicy { return CachePolicy{kind: cachePolicyDefault} }

// CacheOverride emits the given directive verbatim.
func CacheOverride(value string) CachePolicy {
	return CachePolicy{kind: cachePolicyOverride, value: value}
}

// CacheDisabled suppresses the Cache-Control header even though a default exists.
func CacheDisabled() CachePolicy { return CachePolicy{kind: cachePolicyDisabled} }

func (p CachePolicy) String() string {
	switch p.kind {
	case cachePolicyOverride:
		return p.value
	case cachePolicyDisabled:
		return "disabled"
	}
	return "default"
}

var knownSchemes = []string{"http", "https"}

// Rule pairs one matcher with the destination template, parameter overrides
// and cache policy to apply when it matches.
type Rule struct {
	matcher   Matcher
	template  string
	overrides []Param
	cache     CachePolicy
}

// NewRule validates the destination template against the matcher's capture
// count and freezes the parameter overrides into a deterministic order.
func NewRule(matcher Matcher, template string, overrides map[string]string, cache CachePolicy) (*Rule, error) {
	if len(template) == 0 {
		return nil, errors.New("empty destination")
	}
	if idx := maxTemplateIndex(template); idx > matcher.Captures() {
		return nil, &InvalidTemplateReferenceError{Template: template, Index: idx, Captures: matcher.Captures()}
	}
	base := template
	if q := strings.Index(base, "?"); q != -1 {
		base = base[:q]
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, errors.Wrapf(err, "destination %q is not a URL", template)
	}
	if !util.StringInSlice(knownSchemes, u.Scheme) || len(u.Host) == 0 {
		return nil, errors.Errorf("destination %q must be an absolute http(s) URL", template)
	}

	// Overrides arrive from an unordered mapping. Sorting the keys keeps the
	// append order of added parameters reproducible across loads.
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ordered := make([]Param, 0, len(keys))
	for _, k := range keys {
		ordered = append(ordered, Param{Key: k, Value: overrides[k]})
	}

	return &Rule{
		matcher:   matcher,
		template:  template,
		overrides: ordered,
		cache:     cache,
	}, nil
}

// CachePolicy returns the rule's cache-control policy.
func (r *Rule) CachePolicy() CachePolicy {
	return r.cache
}

func (r *Rule) String() string {
	return fmt.Sprintf("Rule %s -> %q (cache: %s)", r.matcher, r.template, r.cache)
}

// ResolveCacheControl determines the effective Cache-Control directive for a
// matched rule, or reports that none should be emitted. A nil rule (no match)
// never yields a directive, regardless of the configured default.
func ResolveCacheControl(r *Rule, defaultDirective string) (string, bool) {
	if r == nil {
		return "", false
	}
	switch r.cache.kind {
	case cachePolicyOverride:
		return r.cache.value, true
	case cachePolicyDisabled:
		return "", false
	}
	if len(defaultDirective) == 0 {
		return "", false
	}
	return defaultDirective, true
}
