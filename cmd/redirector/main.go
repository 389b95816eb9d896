package main

import (
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"os"

	"github.com/alecthomas/kong"
	apexlog "github.com/apex/log"
	apexlogjson "github.com/apex/log/handlers/json"
	apexlogtext "github.com/apex/log/handlers/text"
	"github.com/getsentry/sentry-go"

	"github.com/richiefi/redirector/caching"
	"github.com/richiefi/redirector/config"
	"github.com/richiefi/redirector/redirect"
	"github.com/richiefi/redirector/server"
	"github.com/richiefi/redirector/util"
)

// StartCmd is the redirector server mode configuration structure
type StartCmd config.Config

type checkMappingCmd struct {
	MappingURL  string `help:"URL to remotely stored mapping" xor:"mappingsource" env:"MAPPING_URL"`
	MappingFile string `type:"existingfile" help:"Path to local mapping" xor:"mappingsource" env:"MAPPING_FILE"`
}

type checkRouteCmd struct {
	MappingURL  string `help:"URL to remotely stored mapping" xor:"mappingsource" env:"MAPPING_URL"`
	MappingFile string `type:"existingfile" help:"Path to local mapping" xor:"mappingsource" env:"MAPPING_FILE"`
	Host        string `kong:"required,help='Host header value'"`
	Path        string `kong:"required,help='Request path'"`
	Query       string `help:"Raw query string"`
}

var cli struct {
	Debug        bool            `help:"Debug mode: colorful, non-JSON logging" env:"REDIRECTOR_DEBUG"`
	Start        StartCmd        `kong:"cmd,help='Start the redirector',default='1'"`
	CheckMapping checkMappingCmd `kong:"cmd,help='Check mapping configuration'"`
	CheckRoute   checkRouteCmd   `kong:"cmd,help='Check the decision for a single request'"`
}

type cliContext struct {
	Debug bool
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("redirector"),
		kong.Description("Multi-host HTTP redirect engine"))
	err := ctx.Run(&cliContext{Debug: cli.Debug || util.EnvBool("REDIRECTOR_DEBUG")})
	ctx.FatalIfErrorf(err)
}

// Run starts the server
func (s *StartCmd) Run(ctx *cliContext) error {
	c := config.Config(*s)

	logger := createLogger(ctx.Debug)

	if c.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: c.SentryDSN}); err != nil {
			return err
		}
	}

	opts := redirect.Options{StripTrailingDot: c.StripTrailingDot}
	buildSnapshot := func() (*redirect.Snapshot, error) {
		mappingData, err := readMapping(c.MappingURL, c.MappingFile)
		if err != nil {
			return nil, err
		}
		return redirect.ParseMapping(mappingData, opts, logger)
	}

	snapshot, err := buildSnapshot()
	if err != nil {
		return err
	}
	logger.WithField("hosts", len(snapshot.Hosts())).Debug("Parsed mapping")

	holder := redirect.NewHolder(snapshot)
	engine := redirect.NewEngine(c.DefaultCacheControl, logger)

	runCtx := context.Background()

	var cache caching.Cache
	if !c.CacheDisabled {
		maxSize, err := c.CacheSize()
		if err != nil {
			return err
		}
		cache = caching.NewMemoryCache(runCtx, logger, caching.Options{
			TTL:             c.CacheTTL(),
			CleanupInterval: c.CacheCleanupInterval(),
			MaxSize:         maxSize,
		}, nil)
	}

	reloader := server.NewReloader(logger, holder, cache, buildSnapshot)
	if c.MappingFile != "" {
		go func() {
			if err := reloader.WatchFile(runCtx, c.MappingFile); err != nil {
				logger.WithField("error", err.Error()).Warn("Mapping watcher stopped")
			}
		}()
	}

	server.Run(&c, holder, engine, logger, cache, reloader)
	return nil
}

func (m *checkMappingCmd) Run(ctx *cliContext) error {
	logger := createLogger(true)

	mappingData, err := readMapping(m.MappingURL, m.MappingFile)
	if err != nil {
		return fmt.Errorf("error reading mapping data: %s", err)
	}

	snapshot, err := redirect.ParseMapping(mappingData, redirect.Options{StripTrailingDot: true}, logger)
	if err != nil {
		return fmt.Errorf("error parsing mapping: %s", err)
	}

	for _, host := range snapshot.Hosts() {
		fmt.Printf("%s:\n", host)
		rs, _ := snapshot.Lookup(host)
		for i, r := range rs.Rules() {
			fmt.Printf("  %d: %s\n", i, r.String())
		}
	}
	return nil
}

func (q *checkRouteCmd) Run(ctx *cliContext) error {
	logger := createLogger(true)

	mappingData, err := readMapping(q.MappingURL, q.MappingFile)
	if err != nil {
		return fmt.Errorf("error reading mapping data: %s", err)
	}

	snapshot, err := redirect.ParseMapping(mappingData, redirect.Options{StripTrailingDot: true}, logger)
	if err != nil {
		return fmt.Errorf("error parsing mapping: %s", err)
	}

	engine := redirect.NewEngine("", logger)
	decision := engine.Evaluate(snapshot, redirect.Request{Host: q.Host, Path: q.Path, RawQuery: q.Query})

	fmt.Printf("Status: %d (%s)\n", decision.Status, decision.Outcome)
	if decision.Location != "" {
		fmt.Printf("Location: %s\n", decision.Location)
	}
	if decision.HasCacheControl {
		fmt.Printf("Cache-Control: %s\n", decision.CacheControl)
	}
	return nil
}

func createLogger(debug bool) *apexlog.Logger {
	if debug {
		return &apexlog.Logger{
			Handler: apexlogtext.New(os.Stderr),
			Level:   apexlog.DebugLevel,
		}
	}
	return &apexlog.Logger{
		Handler: apexlogjson.New(os.Stderr),
		Level:   apexlog.InfoLevel,
	}
}

func readMapping(url string, path string) ([]byte, error) {
	if url != "" {
		req, err := http.NewRequest("GET", url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != 200 {
			return nil, fmt.Errorf("couldn't read mapping from URL %q: %s", url, resp.Status)
		}
		return ioutil.ReadAll(resp.Body)
	} else if path != "" {
		return ioutil.ReadFile(path)
	}
	return nil, errors.New("no URL or path to mapping file")
}
