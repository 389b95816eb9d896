package server

import (
	"context"

	apexlog "github.com/apex/log"
	"github.com/fsnotify/fsnotify"
	"github.com/getsentry/sentry-go"

	"github.com/richiefi/redirector/caching"
	"github.com/richiefi/redirector/metrics"
	"github.com/richiefi/redirector/redirect"
)

// Reloader rebuilds and publishes snapshots. A rebuild that fails leaves the
// previously published snapshot in effect.
type Reloader struct {
	logger *apexlog.Logger
	holder *redirect.Holder
	cache  caching.Cache
	build  func() (*redirect.Snapshot, error)
}

// NewReloader wires a snapshot builder to the holder. cache may be nil.
func NewReloader(logger *apexlog.Logger, holder *redirect.Holder, cache caching.Cache, build func() (*redirect.Snapshot, error)) *Reloader {
	return &Reloader{
		logger: logger,
		holder: holder,
		cache:  cache,
		build:  build,
	}
}

// Reload builds a fresh snapshot and publishes it atomically. In-flight
// requests keep the snapshot they captured.
func (rl *Reloader) Reload() error {
	snapshot, err := rl.build()
	metrics.ObserveReload(err)
	if err != nil {
		rl.logger.WithField("error", err.Error()).Warn("Mapping rejected, keeping current snapshot")
		sentry.CaptureException(err)
		return err
	}
	rl.holder.Publish(snapshot)
	if rl.cache != nil {
		rl.cache.Clear()
	}
	rl.logger.WithField("hosts", len(snapshot.Hosts())).Info("Published new snapshot")
	return nil
}

// WatchFile reloads whenever the mapping file changes, until ctx is done.
func (rl *Reloader) WatchFile(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}
	logctx := rl.logger.WithField("path", path)
	logctx.Info("Watching mapping file")

	for {
		select {
		case <-ctx.Done():
			logctx.Info("Stopping mapping watcher")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			// Editors often fire several events per save; a failed reload
			// here is logged and the previous snapshot stays published.
			_ = rl.Reload()
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logctx.WithField("error", werr.Error()).Warn("Mapping watcher error")
		}
	}
}
