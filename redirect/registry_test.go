package redirect

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func singleHostSnapshot(t *testing.T, host string, opts Options) *Snapshot {
	t.Helper()
	rs := NewRuleSet([]*Rule{mustLiteralRule(t, "/", "https://landing.example.com/", nil)})
	s, err := NewSnapshot(map[string]*RuleSet{host: rs}, opts)
	require.Nil(t, err)
	return s
}

func TestSnapshot_lookup_normalization(t *testing.T) {
	s := singleHostSnapshot(t, "Example.COM", Options{StripTrailingDot: true})

	for _, host := range []string{"example.com", "EXAMPLE.com", "example.com:8080", "Example.Com:443", "example.com."} {
		_, ok := s.Lookup(host)
		require.True(t, ok, "expected %q to resolve", host)
	}

	_, ok := s.Lookup("other.example.com")
	require.False(t, ok)
}

func TestSnapshot_trailing_dot_configurable(t *testing.T) {
	s := singleHostSnapshot(t, "example.com", Options{})
	_, ok := s.Lookup("example.com.")
	require.False(t, ok, "trailing dot should be significant when stripping is off")
}

func TestSnapshot_ipv6_host(t *testing.T) {
	s := singleHostSnapshot(t, "[::1]", Options{})
	_, ok := s.Lookup("[::1]:8080")
	require.True(t, ok)
}

func TestNewSnapshot_duplicate_host(t *testing.T) {
	rs := NewRuleSet([]*Rule{mustLiteralRule(t, "/", "https://landing.example.com/", nil)})
	_, err := NewSnapshot(map[string]*RuleSet{"a.example.com": rs}, Options{})
	require.Nil(t, err)

	// distinct keys that normalize to the same host
	_, err = NewSnapshotFromSources([]HostSource{
		{Host: "A.example.com", Rules: []RuleSource{literalSource("/", "https://x.example.com/")}},
		{Host: "a.example.com:80", Rules: []RuleSource{literalSource("/", "https://y.example.com/")}},
	}, Options{}, testLogger(t))
	require.NotNil(t, err)
	var dup *DuplicateHostError
	require.ErrorAs(t, err, &dup)
	require.Equal(t, "a.example.com", dup.Host)
}

func TestHolder_atomic_swap(t *testing.T) {
	oldSnap := singleHostSnapshot(t, "old.example.com", Options{})
	newSnap := singleHostSnapshot(t, "new.example.com", Options{})

	h := NewHolder(oldSnap)
	captured := h.Current()

	h.Publish(newSnap)

	// a reader that captured the old snapshot keeps observing it
	_, ok := captured.Lookup("old.example.com")
	require.True(t, ok)

	_, ok = h.Current().Lookup("new.example.com")
	require.True(t, ok)
	_, ok = h.Current().Lookup("old.example.com")
	require.False(t, ok)
}
