//go:build integration
// +build integration

package integrationtest

import (
	"net/http"
	"net/http/httptest"
	"testing"

	apexlog "github.com/apex/log"

	"github.com/richiefi/redirector/caching"
	"github.com/richiefi/redirector/config"
	"github.com/richiefi/redirector/redirect"
	"github.com/richiefi/redirector/server"
	"github.com/richiefi/redirector/testhelp"
)

type ServerHelper struct {
	Test   *testing.T
	Logger *apexlog.Logger
}

func setup(t *testing.T) *ServerHelper {
	logger := &apexlog.Logger{
		Handler: testhelp.NewApexLogBridge(t),
		Level:   apexlog.DebugLevel,
	}
	return &ServerHelper{Test: t, Logger: logger}
}

func (sh *ServerHelper) runRedirector(conf *config.Config, mapping string, cache caching.Cache, reloader *server.Reloader) (*httptest.Server, *redirect.Holder) {
	snapshot, err := redirect.ParseMapping([]byte(mapping), redirect.Options{StripTrailingDot: conf.StripTrailingDot}, sh.Logger)
	if err != nil {
		sh.Test.Fatal("Error parsing mapping:", err)
	}
	holder := redirect.NewHolder(snapshot)
	engine := redirect.NewEngine(conf.DefaultCacheControl, sh.Logger)

	smux := http.NewServeMux()
	server.ConfigureServeMux(smux, conf, holder, engine, sh.Logger, cache, reloader)
	return httptest.NewServer(smux), holder
}

func (sh *ServerHelper) getNoFollow(url string, host string) *http.Response {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		sh.Test.Fatal("Error building request:", err)
	}
	req.Host = host
	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.Do(req)
	if err != nil {
		sh.Test.Fatal("Error performing request:", err)
	}
	return resp
}
