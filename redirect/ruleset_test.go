package redirect

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRuleSet_first_match_wins(t *testing.T) {
	// both rules match /docs/guide; only the earlier-declared one is observed
	first := mustRegexRule(t, `/docs/(.*)`, "https://first.example.com/$1", nil)
	second := mustRegexRule(t, `/docs/guide`, "https://second.example.com/guide", nil)
	rs := NewRuleSet([]*Rule{first, second})

	m, ok := rs.Match("/docs/guide")
	require.True(t, ok)
	require.Equal(t, first, m.Rule)
	require.Equal(t, []string{"guide"}, m.Captures)
}

func TestRuleSet_declared_order_preserved(t *testing.T) {
	literal := mustLiteralRule(t, "/docs/guide", "https://literal.example.com/guide", nil)
	regex := mustRegexRule(t, `/docs/(.*)`, "https://regex.example.com/$1", nil)
	rs := NewRuleSet([]*Rule{literal, regex})

	m, ok := rs.Match("/docs/guide")
	require.True(t, ok)
	require.Equal(t, literal, m.Rule)

	m, ok = rs.Match("/docs/other")
	require.True(t, ok)
	require.Equal(t, regex, m.Rule)
}

func TestRuleSet_no_match(t *testing.T) {
	rs := NewRuleSet([]*Rule{mustLiteralRule(t, "/only", "https://x.example.com/only", nil)})
	_, ok := rs.Match("/other")
	require.False(t, ok)
}
