// Package daemon assembles the dashboard components and supervises them.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"github.com/crosswatch/dashd/internal/analyzer"
	"github.com/crosswatch/dashd/internal/cwsdk"
	"github.com/crosswatch/dashd/internal/dashboard"
	"github.com/crosswatch/dashd/internal/dashboard/handlers"
	"github.com/crosswatch/dashd/internal/history"
	"github.com/crosswatch/dashd/internal/insights"
	"github.com/crosswatch/dashd/internal/logstream"
	"github.com/crosswatch/dashd/internal/pairs"
	"github.com/crosswatch/dashd/internal/runstate"
	"github.com/crosswatch/dashd/internal/store"
	"github.com/crosswatch/dashd/internal/watch"
)

// ErrAlreadyRunning is returned when another daemon holds the lock file.
var ErrAlreadyRunning = errors.New("another dashd instance is already running")

// optimisticTrigger starts a backend run and flips the local snapshot to
// "running" before the next poll confirms it, so the UI reacts instantly.
type optimisticTrigger struct {
	runs interface {
		Trigger(ctx context.Context) error
	}
	recon *runstate.Reconciler
	store *store.Store
}

func (t *optimisticTrigger) Trigger(ctx context.Context) error {
	if err := t.runs.Trigger(ctx); err != nil {
		return err
	}
	t.recon.StartOptimistic()
	t.store.SetRun(t.recon.Snapshot())
	return nil
}

// Config is the assembled daemon configuration.
type Config struct {
	ServerURL string // CrossWatch backend base URL
	Addr      string // dashboard bind address
	AuthToken string // dashboard API token, empty disables auth
	DBPath    string // history sqlite path, empty disables history
	LockPath  string // single-instance lock file
}

// Daemon owns every long-running component.
type Daemon struct {
	config *Config
	sdk    *cwsdk.SDK
	store  *store.Store

	pairsMgr   *pairs.Manager
	analyzer   *analyzer.Manager
	summarizer *insights.Summarizer
	watcher    *watch.Poller
	runPoller  *runstate.Poller
	renderer   *logstream.Renderer
	history    *history.Store
	server     *dashboard.Server

	lock *flock.Flock
}

func New(config *Config) (*Daemon, error) {
	sdk, err := cwsdk.New(config.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("daemon: sdk: %w", err)
	}

	st := store.New(store.NewBus())

	var hist *history.Store
	if config.DBPath != "" {
		db, err := history.NewSqliteDB(history.WithPath(config.DBPath))
		if err != nil {
			return nil, fmt.Errorf("daemon: history db: %w", err)
		}
		hist, err = history.NewStore(db)
		if err != nil {
			return nil, fmt.Errorf("daemon: history: %w", err)
		}
	}

	d := &Daemon{
		config:     config,
		sdk:        sdk,
		store:      st,
		pairsMgr:   pairs.NewManager(sdk.Pairs, st),
		analyzer:   analyzer.NewManager(sdk.Analyzer, sdk.Snapshots),
		summarizer: insights.NewSummarizer(sdk.Insights, sdk.Scheduling, st),
		watcher:    watch.NewPoller(sdk.Watch, st),
		renderer:   logstream.NewRenderer(),
		history:    hist,
	}

	hydrator := &runstate.Hydrator{
		Insights: sdk.Insights,
		LogText:  st.LogText,
	}
	recon := runstate.NewReconciler()
	trigger := &optimisticTrigger{runs: sdk.Runs, recon: recon, store: st}
	d.runPoller = &runstate.Poller{
		Reconciler: recon,
		Source:     sdk.Runs,
		Hydrator:   hydrator,
		OnUpdate:   st.SetRun,
		OnFinished: d.runFinished,
	}

	pages, err := dashboard.NewPages(st, d.watcher)
	if err != nil {
		return nil, fmt.Errorf("daemon: pages: %w", err)
	}

	d.server, err = dashboard.NewServer(
		&dashboard.ServerConfig{Addr: config.Addr, AuthToken: config.AuthToken},
		&dashboard.Deps{
			Pairs:    handlers.NewPairsHandler(d.pairsMgr, st),
			Run:      handlers.NewRunHandler(trigger, st),
			Logs:     handlers.NewLogsHandler(st),
			Insights: handlers.NewInsightsHandler(d.summarizer, hist),
			Watch:    handlers.NewWatchHandler(d.watcher),
			Analyzer: handlers.NewAnalyzerHandler(d.analyzer),
			Config:   handlers.NewConfigHandler(sdk.Config, sdk.Plex, sdk.Scheduling, st),
			Status:   handlers.NewStatusHandler(st, sdk.BaseURL()),
			Pages:    pages,
		})
	if err != nil {
		return nil, fmt.Errorf("daemon: server: %w", err)
	}

	if config.LockPath != "" {
		d.lock = flock.New(config.LockPath)
	}
	return d, nil
}

// Store exposes the shared state, mainly for tests.
func (d *Daemon) Store() *store.Store {
	return d.store
}

// runFinished records the completed run and announces it on the bus.
func (d *Daemon) runFinished(run runstate.FinishedRun) {
	if d.history != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.history.Record(ctx, run); err != nil {
			slog.Warn("history record failed", "run", run.RunID, "error", err)
		}
	}
	d.store.Bus().SyncComplete.Publish(run)
}

// rearmDelay is how long the log pump stays visibly disconnected after the
// SDK gives up on reconnecting, before arming a fresh attempt cycle.
const rearmDelay = 30 * time.Second

// pumpLogs feeds the backend log stream through the renderer into the
// store. The SDK reconnects with bounded backoff; when it exhausts its
// attempts the pump shows the disconnected state for a while and re-arms,
// because the daemon outlives backend restarts.
func (d *Daemon) pumpLogs(ctx context.Context) error {
	opts := &cwsdk.StreamOptions{
		OnStateChange: func(connected bool) {
			d.store.SetStreamState("logs", connected)
		},
	}

	for {
		err := d.sdk.Runs.StreamLogs(ctx, opts, func(data []byte) {
			if blocks := d.renderer.Feed(string(data)); len(blocks) > 0 {
				d.store.AppendBlocks(blocks)
			}
		})
		if ctx.Err() != nil {
			return nil
		}
		if !errors.Is(err, cwsdk.ErrStreamExhausted) {
			return fmt.Errorf("daemon: log stream: %w", err)
		}

		slog.Warn("log stream exhausted, re-arming", "delay", rearmDelay)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(rearmDelay):
		}
	}
}

// Start runs every component until ctx is cancelled or one fails.
func (d *Daemon) Start(ctx context.Context) error {
	if d.lock != nil {
		locked, err := d.lock.TryLock()
		if err != nil {
			return fmt.Errorf("daemon: lock: %w", err)
		}
		if !locked {
			return ErrAlreadyRunning
		}
		defer d.lock.Unlock()
	}

	slog.Info("daemon start", "backend", d.config.ServerURL, "addr", d.config.Addr)

	// first paint before the loops take over
	warmup, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := d.pairsMgr.Refresh(warmup); err != nil {
		slog.Warn("initial pairs fetch failed", "error", err)
	}
	cancel()

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error { return d.runPoller.Run(egCtx) })
	eg.Go(func() error { return d.pumpLogs(egCtx) })
	eg.Go(func() error { return d.summarizer.Run(egCtx) })
	eg.Go(func() error { return d.watcher.Run(egCtx) })
	eg.Go(func() error { return d.server.Start(egCtx) })

	eg.Go(func() error {
		<-egCtx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return d.Stop(shutdownCtx)
	})

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("daemon failure", "error", err)
		return err
	}

	slog.Info("daemon stopped")
	return nil
}

// Stop shuts the HTTP server and storage down.
func (d *Daemon) Stop(ctx context.Context) error {
	if err := d.server.Stop(ctx); err != nil {
		return fmt.Errorf("daemon: stop server: %w", err)
	}
	if d.history != nil {
		if err := d.history.Close(); err != nil {
			slog.Warn("history close failed", "error", err)
		}
	}
	d.sdk.Close()
	return nil
}
