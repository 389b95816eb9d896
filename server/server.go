package server

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	apexlog "github.com/apex/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	uuid "github.com/satori/go.uuid"

	"github.com/richiefi/redirector/caching"
	"github.com/richiefi/redirector/config"
	"github.com/richiefi/redirector/metrics"
	"github.com/richiefi/redirector/redirect"
	"github.com/richiefi/redirector/usererror"
)

const headerCacheStatus = "X-Redirector-Cache-Status"

// Run is the main entrypoint used to start the server.
func Run(conf *config.Config, holder *redirect.Holder, engine *redirect.Engine, logger *apexlog.Logger, cache caching.Cache, reloader *Reloader) {
	smux := http.NewServeMux()
	ConfigureServeMux(smux, conf, holder, engine, logger, cache, reloader)
	logger.WithFields(apexlog.Fields{"port": conf.Port}).Debug("Starting listener")
	tlsConfigValid, err := conf.TLSConfigIsValid()
	if err != nil {
		logger.WithField("error", err.Error()).Fatal("Error starting HTTP server")
		return
	}
	if tlsConfigValid {
		err = http.ListenAndServeTLS(":"+strconv.Itoa(conf.Port), conf.TLSCertPath, conf.TLSKeyPath, smux)
	} else {
		err = http.ListenAndServe(":"+strconv.Itoa(conf.Port), smux)
	}
	if err != nil {
		logger.WithField("error", err).Fatal("Error starting HTTP server")
	}
}

// ConfigureServeMux configures the main mux with the admin endpoints and a
// catch-all handler that resolves redirects.
func ConfigureServeMux(s *http.ServeMux, conf *config.Config, holder *redirect.Holder, engine *redirect.Engine, logger *apexlog.Logger, cache caching.Cache, reloader *Reloader) {
	s.HandleFunc("/__REDIRECTOR/health", func(w http.ResponseWriter, req *http.Request) {
		fmt.Fprintf(w, "OK")
	})
	s.Handle("/__REDIRECTOR/metrics", basicAuth(promhttp.Handler().ServeHTTP, conf.AdminName, conf.AdminPass, "Restricted"))
	if reloader != nil {
		s.Handle("/__REDIRECTOR/reload", basicAuth(reloadHandler(reloader, logger), conf.AdminName, conf.AdminPass, "Restricted"))
	}
	s.HandleFunc("/", redirectHandler(holder, engine, logger, cache))
}

func redirectHandler(holder *redirect.Holder, engine *redirect.Engine, logger *apexlog.Logger, cache caching.Cache) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		logctx := logger.WithFields(apexlog.Fields{
			"host":           r.Host,
			"path":           r.URL.Path,
			"correlation_id": uuid.NewV4().String(),
			"func":           "server.redirectHandler",
		})
		logctx.Debug("Got request")

		req := redirect.Request{Host: r.Host, Path: r.URL.Path, RawQuery: r.URL.RawQuery}

		// Readers capture the snapshot once; a concurrent reload does not
		// affect this request.
		snapshot := holder.Current()

		if cache != nil {
			key := caching.Key{Host: snapshot.NormalizeHost(req.Host), Path: req.Path, RawQuery: req.RawQuery}
			if decision, ok := cache.Get(key); ok {
				logctx.WithField("location", decision.Location).Debug("decision cache hit")
				writeDecision(w, decision, "hit")
				return
			}
			begin := time.Now()
			decision := engine.Evaluate(snapshot, req)
			metrics.ObserveDecision(decision.Outcome.String(), time.Since(begin))
			cache.Set(key, decision)
			writeDecision(w, decision, "miss")
			return
		}

		begin := time.Now()
		decision := engine.Evaluate(snapshot, req)
		metrics.ObserveDecision(decision.Outcome.String(), time.Since(begin))
		writeDecision(w, decision, "pass")
	}
}

func writeDecision(w http.ResponseWriter, d redirect.Decision, cacheStatus string) {
	if d.Status != http.StatusMovedPermanently {
		// Misses stay bare: no Location, no Cache-Control, nothing that
		// reveals which hosts are configured.
		w.WriteHeader(d.Status)
		return
	}
	w.Header().Set("Location", d.Location)
	if d.HasCacheControl {
		w.Header().Set("Cache-Control", d.CacheControl)
	}
	w.Header().Set(headerCacheStatus, cacheStatus)
	w.WriteHeader(d.Status)
}

func reloadHandler(reloader *Reloader, logger *apexlog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, usererror.CreateError(http.StatusMethodNotAllowed, "POST required"))
			return
		}
		if err := reloader.Reload(); err != nil {
			logger.WithField("error", err.Error()).Warn("Reload failed")
			writeError(w, usererror.CreateErrorWithFields(http.StatusUnprocessableEntity, "mapping rejected", usererror.Fields{"error": err.Error()}))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, "{\"status\":\"ok\"}\n")
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch err := err.(type) {
	case *usererror.UserError:
		jsonmap := err.JSON()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(err.Code)
		if err := json.NewEncoder(w).Encode(jsonmap); err != nil {
			panic(err)
		}
	default:
		w.WriteHeader(500)
	}
}

// https://stackoverflow.com/a/39591234
func basicAuth(handler http.HandlerFunc, username string, password string, realm string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if username == "" || password == "" {
			// Disable authenticated endpoints if the authorized username or password are not set
			w.WriteHeader(500)
			w.Write([]byte("Endpoint unavailable.\n"))
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(user), []byte(username)) != 1 || subtle.ConstantTimeCompare([]byte(pass), []byte(password)) != 1 {
			w.Header().Set("WWW-Authenticate", `Basic realm="`+realm+`"`)
			w.WriteHeader(401)
			w.Write([]byte("Unauthorised.\n"))
			return
		}
		handler(w, r)
	}
}
