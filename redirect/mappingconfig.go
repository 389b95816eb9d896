package redirect

import (
	"encoding/json"
	"fmt"

	apexlog "github.com/apex/log"
	"github.com/pkg/errors"

	"github.com/richiefi/redirector/yamlconfig"
)

// MatchSource selects exactly one match kind for a rule.
type MatchSource struct {
	Literal *string `json:"literal"`
	Regex   *string `json:"regex"`
}

// RuleSource is one rule as declared in the mapping.
type RuleSource struct {
	Match          MatchSource       `json:"match"`
	Destination    string            `json:"destination"`
	ParamOverrides map[string]string `json:"paramOverrides"`
	CacheControl   *string           `json:"cacheControl"`
}

// HostSource binds an ordered rule list to one host name.
type HostSource struct {
	Host  string       `json:"host"`
	Rules []RuleSource `json:"rules"`
}

type mappingConfig struct {
	Hosts []HostSource `json:"hosts"`
}

const (
	cacheControlDefaultToken  = "default"
	cacheControlDisabledToken = "disabled"
)

// ParseMapping parses a YAML or JSON mapping into a validated snapshot. A bad
// rule fails the whole build; no partially-usable snapshot is ever returned.
func ParseMapping(data []byte, opts Options, logger *apexlog.Logger) (*Snapshot, error) {
	var mc mappingConfig
	jsonbytes, err := yamlconfig.Convert(data)
	if err != nil {
		err = json.Unmarshal(data, &mc)
	} else {
		err = json.Unmarshal(jsonbytes, &mc)
	}
	if err != nil {
		return nil, fmt.Errorf("error parsing mapping configuration: %s", err)
	}
	if len(mc.Hosts) == 0 {
		return nil, errors.New("error parsing mapping configuration: at least one host is required")
	}
	return NewSnapshotFromSources(mc.Hosts, opts, logger)
}

// NewSnapshotFromSources validates every host and rule and builds the
// snapshot, or fails atomically on the first configuration error.
func NewSnapshotFromSources(sources []HostSource, opts Options, logger *apexlog.Logger) (*Snapshot, error) {
	hosts := make(map[string]*RuleSet, len(sources))
	probe := &Snapshot{opts: opts}

	for _, hsrc := range sources {
		if len(hsrc.Host) == 0 {
			return nil, errors.New("host entry with empty host name")
		}
		key := probe.NormalizeHost(hsrc.Host)
		if _, dup := hosts[key]; dup {
			return nil, &DuplicateHostError{Host: key}
		}
		if len(hsrc.Rules) == 0 {
			return nil, errors.Errorf("host %q has no rules", hsrc.Host)
		}

		rules := make([]*Rule, 0, len(hsrc.Rules))
		for i, rsrc := range hsrc.Rules {
			rule, err := buildRule(rsrc)
			if err != nil {
				return nil, errors.Wrapf(err, "host %q rule %d", hsrc.Host, i)
			}
			rules = append(rules, rule)
		}
		hosts[key] = NewRuleSet(rules)
		logger.WithFields(apexlog.Fields{"host": key, "rules": len(rules)}).Debug("loaded host")
	}

	return NewSnapshot(hosts, opts)
}

func buildRule(rsrc RuleSource) (*Rule, error) {
	var matcher Matcher
	var err error
	switch {
	case rsrc.Match.Literal != nil && rsrc.Match.Regex != nil:
		return nil, errors.New("rule declares both a literal and a regex match")
	case rsrc.Match.Literal != nil:
		matcher, err = NewLiteralMatcher(*rsrc.Match.Literal)
	case rsrc.Match.Regex != nil:
		matcher, err = NewRegexMatcher(*rsrc.Match.Regex)
	default:
		return nil, errors.New("rule declares neither a literal nor a regex match")
	}
	if err != nil {
		return nil, err
	}

	policy := CacheDefault()
	if rsrc.CacheControl != nil {
		switch *rsrc.CacheControl {
		case cacheControlDefaultToken:
			policy = CacheDefault()
		case cacheControlDisabledToken:
			policy = CacheDisabled()
		default:
			policy = CacheOverride(*rsrc.CacheControl)
		}
	}

	return NewRule(matcher, rsrc.Destination, rsrc.ParamOverrides, policy)
}
