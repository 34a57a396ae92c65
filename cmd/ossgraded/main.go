// Command ossgraded serves the grading API. It warms the classifier from
// storage on start, retraining when nothing usable is stored.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ossgrade/ossgrade/internal/api"
	"github.com/ossgrade/ossgrade/internal/blob"
	"github.com/ossgrade/ossgrade/internal/catalog"
	"github.com/ossgrade/ossgrade/internal/platform"
	"github.com/ossgrade/ossgrade/internal/store"
	"github.com/ossgrade/ossgrade/internal/training"
	"github.com/ossgrade/ossgrade/pkg/config"
	"github.com/ossgrade/ossgrade/pkg/dataset"
	"github.com/ossgrade/ossgrade/pkg/grading"
)

var configPath = flag.String("config", "", "Path to the service configuration file")

func main() {
	flag.Parse()

	cfg, err := loadDaemonConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	logger := cfg.newLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("ossgraded failed", "error", err)
		os.Exit(1)
	}
}

// service is the wired set of collaborators behind the HTTP handler.
type service struct {
	handler http.Handler
	trainer *training.Service
	db      *sql.DB
}

func (s *service) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func newService(ctx context.Context, cfg *daemonConfig, logger *slog.Logger) (*service, error) {
	gcfg, err := loadGradingConfig(cfg.Grading.Config)
	if err != nil {
		return nil, err
	}
	specs, err := gcfg.CheckSpecs()
	if err != nil {
		return nil, err
	}

	blobs, err := blob.Open(ctx, blob.Config{
		Backend:   gcfg.Storage.Backend,
		Dir:       gcfg.Storage.Dir,
		Bucket:    gcfg.Storage.Bucket,
		Prefix:    gcfg.Storage.Prefix,
		Region:    gcfg.Storage.Region,
		Endpoint:  gcfg.Storage.Endpoint,
		AccessKey: gcfg.Storage.AccessKey,
		SecretKey: gcfg.Storage.SecretKey,
	})
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	projects := dataset.NewRepository(blobs)

	svc := &service{}
	var classifiers store.Store = store.NewBlobStore(blobs)
	var labels training.LabelSource = training.FileLabels(cfg.Training.Labels)
	var labelAPI api.LabelCatalog
	if cfg.Database.URL != "" {
		db, err := platform.OpenDB(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		svc.db = db
		version, err := platform.AutoMigrate(db)
		if err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("database ready", "schema_version", version)

		cat := catalog.NewService(db)
		classifiers = store.NewPostgresStore(db)
		labels = cat
		labelAPI = cat
	}

	svc.trainer = training.NewService(labels, projects, classifiers, grading.NewRegistry(), gcfg.TrainOptions(), logger)

	h := api.NewHandler(svc.trainer.Registry(), specs, projects, api.Options{
		Trainer: svc.trainer,
		Labels:  labelAPI,
		Cache:   api.NewProjectCache(cfg.Server.CacheSize),
		Logger:  logger,
	})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	svc.handler = api.RequestLogger(logger)(api.CORS(mux))
	return svc, nil
}

func loadGradingConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.DefaultConfig(), nil
	}
	return config.Load(path)
}

func run(ctx context.Context, cfg *daemonConfig, logger *slog.Logger) error {
	svc, err := newService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	if cfg.Training.OnStart {
		// The API answers 503 until a classifier is published, so a failed
		// warm start is not fatal.
		if _, trained, err := svc.trainer.Warm(ctx); err != nil {
			logger.Warn("no classifier available", "error", err)
		} else {
			logger.Info("classifier ready", "retrained", trained)
		}
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           svc.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("starting ossgraded", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
