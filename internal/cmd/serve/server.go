package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/cuemap/cuemap/internal/agent"
	"github.com/cuemap/cuemap/internal/config"
	"github.com/cuemap/cuemap/internal/httpapi"
	"github.com/cuemap/cuemap/internal/jobs"
	"github.com/cuemap/cuemap/internal/llm"
	"github.com/cuemap/cuemap/internal/security"
	"github.com/cuemap/cuemap/internal/tenant"
)

// run wires every subsystem together, starts the HTTP listener, and blocks
// until ctx is canceled, at which point it drains and persists state before
// returning.
func run(ctx context.Context, cfg config.Config) error {
	log.Info("Starting cuemap",
		"port", cfg.Listener.Port,
		"dataDir", cfg.DataDir,
		"multiTenant", cfg.MultiTenant,
	)

	metricsLabels, err := security.ParseMetricsLabels(cfg.MetricsLabels)
	if err != nil {
		return fmt.Errorf("invalid --metrics-labels: %w", err)
	}
	security.InitMetrics(metricsLabels)

	dataDir := cfg.DataDir
	readOnly := cfg.LoadStatic != ""
	if readOnly {
		dataDir = cfg.LoadStatic
	}

	dispatcher := tenant.New(dataDir, cfg.MultiTenant)
	if err := dispatcher.LoadAll(); err != nil {
		return fmt.Errorf("failed to load snapshots: %w", err)
	}

	queue := jobs.NewQueue(dispatcher, llm.NewClient(cfg), 1000)
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		// The consumer is stopped by Close (after intake ends), not by ctx,
		// so shutdown can drain whatever is already buffered.
		queue.Run(context.Background())
	}()

	watcherCtx, stopWatcher := context.WithCancel(ctx)
	defer stopWatcher()

	var watcher *agent.Watcher
	if cfg.AgentDir != "" && !readOnly {
		// Ingestion jobs resolve their Project by lookup, so it has to exist
		// before the first file event lands.
		if _, err := dispatcher.GetOrCreate(tenant.DefaultProjectID); err != nil {
			return fmt.Errorf("failed to create agent project: %w", err)
		}
		watcher, err = agent.New(cfg.AgentDir, tenant.DefaultProjectID, cfg.AgentThrottle, queue)
		if err != nil {
			return fmt.Errorf("failed to start agent watcher: %w", err)
		}
		go watcher.Run(watcherCtx)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(security.AccessLogMiddleware("/health", "/ready", "/metrics"))
	router.Use(security.MetricsMiddleware())
	if cfg.MaxBodySize > 0 {
		router.Use(func(c *gin.Context) {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, cfg.MaxBodySize)
			c.Next()
		})
	}

	httpapi.MountRoutes(router, &httpapi.Server{
		Tenant:   dispatcher,
		Jobs:     queue,
		ReadOnly: readOnly,
	}, security.AuthMiddleware(cfg.APIKeys))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Listener.Port),
		Handler:           router,
		ReadHeaderTimeout: cfg.Listener.ReadHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server listening", "port", cfg.Listener.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	stopSnapshots := startSnapshotTimer(ctx, dispatcher, cfg.SnapshotInterval, readOnly)
	defer stopSnapshots()

	stopAliasProposals := startAliasProposalTimer(ctx, dispatcher, queue, readOnly)
	defer stopAliasProposals()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.DrainTimeout)*time.Second)
	defer cancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		log.Warn("graceful shutdown did not complete cleanly", "err", err)
	}

	// Shutdown discipline: stop enqueue, let the consumer finish what's
	// buffered, then snapshot the drained state.
	stopWatcher()
	queue.Close()
	<-consumerDone

	if readOnly {
		return nil
	}
	if err := dispatcher.SaveAll(); err != nil {
		log.Error("final snapshot save failed", "err", err)
	}
	return nil
}

// aliasProposalInterval paces the background near-synonym discovery pass.
// The pairwise comparison is the most CPU-hungry job in the system, so it
// runs far less often than snapshots.
const aliasProposalInterval = 10 * time.Minute

// startAliasProposalTimer periodically enqueues a ProposeAliases job for
// every known project. Read-only hosts serve a frozen corpus and skip it.
func startAliasProposalTimer(ctx context.Context, dispatcher *tenant.Dispatcher, queue *jobs.Queue, readOnly bool) func() {
	if readOnly {
		return func() {}
	}
	ticker := time.NewTicker(aliasProposalInterval)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, id := range dispatcher.List() {
					queue.Enqueue(jobs.ProposeAliases{ProjectID: id})
				}
			}
		}
	}()
	return func() {
		ticker.Stop()
		<-done
	}
}

// startSnapshotTimer runs a periodic SaveAll on its own goroutine until ctx
// is canceled. A zero interval disables periodic saving (save-on-exit only).
// Read-only hosts never write back over the static snapshots they loaded.
func startSnapshotTimer(ctx context.Context, dispatcher *tenant.Dispatcher, interval time.Duration, readOnly bool) func() {
	if interval <= 0 || readOnly {
		return func() {}
	}
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := dispatcher.SaveAll(); err != nil {
					log.Error("periodic snapshot save failed, will retry next tick", "err", err)
				}
			}
		}
	}()
	return func() {
		ticker.Stop()
		<-done
	}
}
