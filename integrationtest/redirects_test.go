//go:build integration
// +build integration

package integrationtest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/richiefi/redirector/caching"
	"github.com/richiefi/redirector/config"
	"github.com/richiefi/redirector/redirect"
	"github.com/richiefi/redirector/server"
)

const mapping = `
hosts:
  - host: example.com
    rules:
      - match:
          literal: /test/foo
        destination: https://foo.com/destination/d
      - match:
          regex: /legacy/(.*)
        destination: https://www.example.com/$1
        cacheControl: disabled
`

func TestEndToEnd_redirect_and_miss(t *testing.T) {
	sh := setup(t)
	conf := &config.Config{DefaultCacheControl: "max-age=60", StripTrailingDot: true}
	ts, _ := sh.runRedirector(conf, mapping, nil, nil)
	defer ts.Close()

	resp := sh.getNoFollow(ts.URL+"/test/foo", "example.com")
	resp.Body.Close()
	require.Equal(t, 301, resp.StatusCode)
	require.Equal(t, "https://foo.com/destination/d", resp.Header.Get("Location"))
	require.Equal(t, "max-age=60", resp.Header.Get("Cache-Control"))

	resp = sh.getNoFollow(ts.URL+"/legacy/pricing?utm=x", "example.com")
	resp.Body.Close()
	require.Equal(t, 301, resp.StatusCode)
	require.Equal(t, "https://www.example.com/pricing?utm=x", resp.Header.Get("Location"))
	require.Equal(t, "", resp.Header.Get("Cache-Control"))

	resp = sh.getNoFollow(ts.URL+"/test/foo", "nobody.example.org")
	resp.Body.Close()
	require.Equal(t, 404, resp.StatusCode)
	require.Equal(t, "", resp.Header.Get("Location"))
}

func TestEndToEnd_file_reload(t *testing.T) {
	sh := setup(t)
	conf := &config.Config{DefaultCacheControl: "max-age=60", StripTrailingDot: true}

	path := filepath.Join(t.TempDir(), "mapping.yaml")
	require.Nil(t, os.WriteFile(path, []byte(mapping), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cache := caching.NewMemoryCache(ctx, sh.Logger, caching.Options{TTL: time.Hour}, nil)
	ts, holder := sh.runRedirector(conf, mapping, cache, nil)
	defer ts.Close()

	build := func() (*redirect.Snapshot, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return redirect.ParseMapping(data, redirect.Options{StripTrailingDot: true}, sh.Logger)
	}
	reloader := server.NewReloader(sh.Logger, holder, cache, build)
	go reloader.WatchFile(ctx, path)

	// warm the decision cache, then change the mapping on disk
	resp := sh.getNoFollow(ts.URL+"/test/foo", "example.com")
	resp.Body.Close()
	require.Equal(t, 301, resp.StatusCode)

	next := `
hosts:
  - host: example.com
    rules:
      - match:
          literal: /test/foo
        destination: https://elsewhere.example.net/moved
`
	require.Nil(t, os.WriteFile(path, []byte(next), 0o644))

	require.Eventually(t, func() bool {
		resp := sh.getNoFollow(ts.URL+"/test/foo", "example.com")
		resp.Body.Close()
		return resp.Header.Get("Location") == "https://elsewhere.example.net/moved"
	}, 5*time.Second, 50*time.Millisecond)
}
