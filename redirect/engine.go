package redirect

import (
	"net/http"

	apexlog "github.com/apex/log"
)

// DefaultCacheControl is the process-wide directive applied to redirects
// whose rule carries the default cache policy.
const DefaultCacheControl = "max-age=60"

// Outcome names the terminal state a request reached. The two miss outcomes
// produce observably identical 404s but stay distinct internally.
type Outcome int

const (
	OutcomeRedirect Outcome = iota
	OutcomeNoHost
	OutcomeNoRule
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRedirect:
		return "redirect"
	case OutcomeNoHost:
		return "no_host"
	case OutcomeNoRule:
		return "no_rule"
	}
	return "unknown"
}

// Request is the per-request input the engine consumes from the HTTP layer.
type Request struct {
	Host     string
	Path     string
	RawQuery string
}

// Decision is the response the engine produced: a 301 with a Location and an
// optional Cache-Control directive, or a bare 404.
type Decision struct {
	Status          int
	Location        string
	CacheControl    string
	HasCacheControl bool
	Outcome         Outcome
}

// Engine evaluates requests against a snapshot. It is a pure function of
// (snapshot, host, path, query): it holds no per-request state and performs
// no I/O, so many requests may evaluate concurrently against one snapshot.
type Engine struct {
	defaultCacheControl string
	logger              *apexlog.Logger
}

// NewEngine builds an engine. An empty defaultDirective falls back to
// DefaultCacheControl.
func NewEngine(defaultDirective string, logger *apexlog.Logger) *Engine {
	if len(defaultDirective) == 0 {
		defaultDirective = DefaultCacheControl
	}
	return &Engine{defaultCacheControl: defaultDirective, logger: logger}
}

// Evaluate resolves one request against the snapshot and returns the
// decision. Misses carry no Location and no Cache-Control whatever the
// configured default is.
func (e *Engine) Evaluate(s *Snapshot, req Request) Decision {
	logctx := e.logger.WithFields(apexlog.Fields{"host": req.Host, "path": req.Path, "func": "redirect.Evaluate"})

	rs, ok := s.Lookup(req.Host)
	if !ok {
		logctx.Debug("no rules for host")
		return Decision{Status: http.StatusNotFound, Outcome: OutcomeNoHost}
	}

	match, ok := rs.Match(req.Path)
	if !ok {
		logctx.Debug("no rule matched path")
		return Decision{Status: http.StatusNotFound, Outcome: OutcomeNoRule}
	}

	location := BuildDestination(match.Rule, match.Captures, ParseQuery(req.RawQuery))
	directive, hasDirective := ResolveCacheControl(match.Rule, e.defaultCacheControl)
	logctx.WithField("location", location).Debug("matched rule")

	return Decision{
		Status:          http.StatusMovedPermanently,
		Location:        location,
		CacheControl:    directive,
		HasCacheControl: hasDirective,
		Outcome:         OutcomeRedirect,
	}
}
