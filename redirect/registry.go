package redirect

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
)

// DuplicateHostError is raised at snapshot build time when two host entries
// normalize to the same registry key.
type DuplicateHostError struct {
	Host string
}

func (e *DuplicateHostError) Error() string {
	return fmt.Sprintf("host %q is declared more than once", e.Host)
}

// Options controls host normalization for a snapshot.
type Options struct {
	// StripTrailingDot removes a single trailing dot from host names before
	// lookup ("example.com." == "example.com"). Internationalized domains are
	// compared in whatever encoding the configuration supplied.
	StripTrailingDot bool
}

// Snapshot is an immutable host registry in effect for a window of time. It
// is built once, never mutated, and replaced wholesale on reload, so
// concurrent readers need no synchronization.
type Snapshot struct {
	hosts map[string]*RuleSet
	opts  Options
}

// NewSnapshot builds a snapshot from per-host rule sets. Host keys are
// normalized; a collision after normalization fails the build.
func NewSnapshot(hosts map[string]*RuleSet, opts Options) (*Snapshot, error) {
	s := &Snapshot{
		hosts: make(map[string]*RuleSet, len(hosts)),
		opts:  opts,
	}
	for host, rs := range hosts {
		key := s.NormalizeHost(host)
		if _, dup := s.hosts[key]; dup {
			return nil, &DuplicateHostError{Host: key}
		}
		s.hosts[key] = rs
	}
	return s, nil
}

// NormalizeHost lowercases the host and strips an explicit port suffix.
// Trailing-dot removal follows the snapshot's options.
func (s *Snapshot) NormalizeHost(host string) string {
	host = strings.ToLower(host)
	host = stripPort(host)
	if s.opts.StripTrailingDot {
		host = strings.TrimSuffix(host, ".")
	}
	return host
}

// Lookup resolves an incoming Host header value to its rule set.
func (s *Snapshot) Lookup(host string) (*RuleSet, bool) {
	rs, ok := s.hosts[s.NormalizeHost(host)]
	return rs, ok
}

// Hosts returns the registered host names in sorted order.
func (s *Snapshot) Hosts() []string {
	names := make([]string, 0, len(s.hosts))
	for h := range s.hosts {
		names = append(names, h)
	}
	sort.Strings(names)
	return names
}

func stripPort(host string) string {
	// Bracketed IPv6 literals keep everything inside the brackets.
	if strings.HasPrefix(host, "[") {
		if end := strings.Index(host, "]"); end != -1 {
			return host[1:end]
		}
		return host
	}
	if colon := strings.LastIndex(host, ":"); colon != -1 && !strings.Contains(host[:colon], ":") {
		return host[:colon]
	}
	return host
}

// Holder is the single shared mutable reference to the current snapshot.
// Readers capture a snapshot once per request; reload publishes a new one
// with an atomic pointer swap, so in-flight requests are never torn between
// two snapshots.
type Holder struct {
	current atomic.Pointer[Snapshot]
}

// NewHolder publishes the initial snapshot.
func NewHolder(s *Snapshot) *Holder {
	h := &Holder{}
	h.current.Store(s)
	return h
}

// Current returns the snapshot in effect.
func (h *Holder) Current() *Snapshot {
	return h.current.Load()
}

// Publish atomically replaces the current snapshot.
func (h *Holder) Publish(s *Snapshot) {
	h.current.Store(s)
}
