package redirect

// MatchResult is the winning rule for a request path plus the substrings its
// pattern captured. Literal matches capture nothing.
type MatchResult struct {
	Rule     *Rule
	Captures []string
}

// RuleSet is the ordered rule list bound to one host. Order is preserved from
// configuration and the first matching rule wins.
type RuleSet struct {
	rules []*Rule
}

// NewRuleSet wraps an ordered rule list.
func NewRuleSet(rules []*Rule) *RuleSet {
	return &RuleSet{rules: rules}
}

// Match evaluates rules in declared order and returns the first match.
func (rs *RuleSet) Match(path string) (MatchResult, bool) {
	for _, r := range rs.rules {
		if captures, ok := r.matcher.Match(path); ok {
			return MatchResult{Rule: r, Captures: captures}, true
		}
	}
	return MatchResult{}, false
}

// Rules returns the rules in declared order.
func (rs *RuleSet) Rules() []*Rule {
	return rs.rules
}
