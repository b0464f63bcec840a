// Package app wires the board together from configuration: storage,
// registries, the publish engine, the HTTP API, metrics and the optional
// change broadcaster.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	apiregistry "github.com/forestryvehicleadmin/motorpool/api/registry"
	apischedule "github.com/forestryvehicleadmin/motorpool/api/schedule"
	"github.com/forestryvehicleadmin/motorpool/auth"
	"github.com/forestryvehicleadmin/motorpool/config"
	coremetrics "github.com/forestryvehicleadmin/motorpool/core/metrics"
	"github.com/forestryvehicleadmin/motorpool/core/monitoring"
	corenotify "github.com/forestryvehicleadmin/motorpool/core/notify"
	"github.com/forestryvehicleadmin/motorpool/core/publish"
	"github.com/forestryvehicleadmin/motorpool/core/registry"
	"github.com/forestryvehicleadmin/motorpool/core/schedule"
	"github.com/forestryvehicleadmin/motorpool/core/timeline"
	"github.com/forestryvehicleadmin/motorpool/infra/git"
	"github.com/forestryvehicleadmin/motorpool/infra/logger"
	"github.com/forestryvehicleadmin/motorpool/infra/metrics"
	infmonitoring "github.com/forestryvehicleadmin/motorpool/infra/monitoring"
	"github.com/forestryvehicleadmin/motorpool/infra/notify"
	"github.com/forestryvehicleadmin/motorpool/internal/eventbus"
	"github.com/forestryvehicleadmin/motorpool/jobs"
)

// Service orchestrates the reservation board.
type Service struct {
	Manager *schedule.Manager

	cfg      *config.Config
	remote   *git.CLI
	engine   *publish.Engine
	bus      *eventbus.Bus[any]
	sink     coremetrics.Sink
	notifier corenotify.Notifier
	runner   *jobs.Runner
	handler  http.Handler
	log      logger.Logger
}

// New creates a Service from the configuration. Network-facing pieces are
// constructed here; the boot sequence against the remote runs in Run.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	mon, err := infmonitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	monitoring.Init(mon)

	if err := os.MkdirAll(cfg.Storage.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	var (
		remote *git.CLI
		engine *publish.Engine
		pub    publish.Publisher
	)
	if cfg.Git.URL != "" {
		remote = git.New(cfg.Storage.Dir, cfg.Git, logger.New("git"))
		engine = publish.NewEngine(remote, cfg.Storage.Dir, cfg.Storage.DataFiles(), cfg.Git.Timeout(), logger.New("publish"))
		pub = engine
	} else {
		logg.Infof("no git remote configured, keeping all changes local")
	}

	sink, err := coremetrics.NewSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	gate, err := auth.NewGate(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("auth gate: %w", err)
	}

	bus := eventbus.New[any]()
	regs := registry.NewSet(cfg.Storage.TypesPath(), cfg.Storage.AssigneesPath(), cfg.Storage.DriversPath(), logger.New("registry"))
	mgr, err := schedule.NewManager(schedule.NewStore(), regs, cfg.Storage.SchedulePath(), pub, bus, logger.New("schedule"))
	if err != nil {
		return nil, fmt.Errorf("schedule manager: %w", err)
	}

	var notifier corenotify.Notifier = corenotify.NopNotifier{}
	if cfg.Notify.Broker != "" {
		n, err := notify.NewPahoNotifier(cfg.Notify)
		if err != nil {
			return nil, fmt.Errorf("mqtt notifier: %w", err)
		}
		notifier = n
	}

	var ref jobs.Refresher
	if engine != nil {
		ref = engine
	}
	runner, err := jobs.NewRunner(cfg.Jobs, mgr, ref, logger.New("jobs"))
	if err != nil {
		return nil, fmt.Errorf("jobs: %w", err)
	}

	cache := timeline.NewCache()
	mux := http.NewServeMux()
	mux.Handle("/api/schedule", apischedule.NewScheduleHandler(mgr, gate))
	mux.Handle("/api/schedule/entry", apischedule.NewEntryHandler(mgr, gate))
	mux.Handle("/api/schedule/bulk", apischedule.NewBulkHandler(mgr, gate))
	mux.Handle("/api/schedule/purge", apischedule.NewPurgeHandler(mgr, gate))
	mux.Handle("/api/schedule/timeline", apischedule.NewTimelineHandler(mgr, cache, bus))
	mux.Handle("/api/schedule/report", apischedule.NewReportHandler(mgr))
	mux.Handle("/api/registry", apiregistry.NewRegistryHandler(mgr, gate))

	return &Service{
		Manager:  mgr,
		cfg:      cfg,
		remote:   remote,
		engine:   engine,
		bus:      bus,
		sink:     sink,
		notifier: notifier,
		runner:   runner,
		handler:  mux,
		log:      logg,
	}, nil
}

// Handler returns the board's HTTP surface, for embedding and tests.
func (s *Service) Handler() http.Handler { return s.handler }

// Boot readies the working copy and loads the board: clone or init the
// repository, adopt the remote state, create missing data files and read
// everything into memory. A failed refresh is logged and tolerated so the
// board serves the local copy while the remote is down.
func (s *Service) Boot(ctx context.Context) error {
	if s.remote != nil {
		if err := s.remote.Prepare(ctx); err != nil {
			return fmt.Errorf("prepare repository: %w", err)
		}
		if err := s.engine.Refresh(ctx); err != nil {
			s.log.Warnf("boot refresh failed, serving the local copy: %v", err)
			monitoring.CaptureException(err, map[string]string{"stage": "refresh"})
		}
	}
	if _, err := s.Manager.EnsureInitialized(ctx); err != nil {
		return fmt.Errorf("initialize data files: %w", err)
	}
	if err := s.Manager.Load(); err != nil {
		return fmt.Errorf("load board: %w", err)
	}
	if rec, ok := s.sink.(coremetrics.BoardSizeRecorder); ok {
		_ = rec.RecordBoardSize(s.Manager.Records())
	}
	return nil
}

// Run boots the board and serves it until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	defer monitoring.Recover()
	if err := s.Boot(ctx); err != nil {
		monitoring.CaptureException(err, map[string]string{"stage": "boot"})
		return err
	}

	metrics.StartEventCollector(ctx, s.bus, s.sink)
	notify.StartChangeNotifier(ctx, s.bus, s.notifier)
	s.runner.Start(ctx)
	if port := s.cfg.Metrics.PrometheusPort; port != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, port); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	srv := &http.Server{Addr: s.cfg.Server.Addr, Handler: s.handler}
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", s.cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shctx, cancel := context.WithTimeout(context.Background(), time.Duration(s.cfg.Server.ShutdownSeconds)*time.Second)
		defer cancel()
		return srv.Shutdown(shctx)
	case err := <-errCh:
		monitoring.CaptureException(err, map[string]string{"stage": "serve"})
		return err
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.notifier.Close()
	s.bus.Close()
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	monitoring.Flush(2 * time.Second)
	return nil
}
