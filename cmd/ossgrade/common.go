package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ossgrade/ossgrade/internal/blob"
	"github.com/ossgrade/ossgrade/internal/store"
	"github.com/ossgrade/ossgrade/pkg/config"
	"github.com/ossgrade/ossgrade/pkg/dataset"
	"github.com/ossgrade/ossgrade/pkg/grading"
)

type globalOpts struct {
	configPath string
	dataDir    string
}

// env bundles what every command needs once the config is loaded.
type env struct {
	cfg   *config.Config
	blobs blob.Store
	repo  *dataset.Repository
	store *store.BlobStore
}

func loadConfig(g *globalOpts) (*config.Config, error) {
	path := g.configPath
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
		path = config.FindConfigFile(cwd)
	}

	cfg := config.DefaultConfig()
	if path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return nil, err
		}
	}
	if g.dataDir != "" {
		cfg.Storage.Backend = "local"
		cfg.Storage.Dir = g.dataDir
	}
	return cfg, nil
}

func openEnv(ctx context.Context, g *globalOpts) (*env, error) {
	cfg, err := loadConfig(g)
	if err != nil {
		return nil, err
	}
	blobs, err := blob.Open(ctx, blobConfig(cfg.Storage))
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return &env{
		cfg:   cfg,
		blobs: blobs,
		repo:  dataset.NewRepository(blobs),
		store: store.NewBlobStore(blobs),
	}, nil
}

func blobConfig(s config.StorageConfig) blob.Config {
	return blob.Config{
		Backend:   s.Backend,
		Dir:       s.Dir,
		Bucket:    s.Bucket,
		Prefix:    s.Prefix,
		Region:    s.Region,
		Endpoint:  s.Endpoint,
		AccessKey: s.AccessKey,
		SecretKey: s.SecretKey,
	}
}

// checker loads the stored classifier and pairs it with the configured checks.
func (e *env) checker(ctx context.Context) (*grading.Checker, error) {
	ok, err := e.store.ExistsForAll(ctx, grading.SectionKeys())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no trained classifier found, run 'ossgrade train' first: %w", grading.ErrUntrained)
	}
	c, err := store.LoadClassifier(ctx, e.store, e.cfg.TrainOptions().Reversed)
	if err != nil {
		return nil, err
	}
	specs, err := e.cfg.CheckSpecs()
	if err != nil {
		return nil, err
	}
	return grading.NewChecker(c, specs)
}

// project reads a record file when one is given, otherwise the repository.
func (e *env) project(ctx context.Context, name, file string) (*dataset.Record, error) {
	if file != "" {
		return dataset.LoadRecord(file)
	}
	if name == "" {
		return nil, fmt.Errorf("a project name or --file is required")
	}
	return e.repo.Get(ctx, name)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
