package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/showscore/marquee/infrastructure/metrics"
	"github.com/showscore/marquee/infrastructure/models"
	"github.com/showscore/marquee/infrastructure/store"
	"github.com/showscore/marquee/internal/ensemble"
	"github.com/showscore/marquee/internal/identity"
	"github.com/showscore/marquee/internal/pipeline"
	"github.com/showscore/marquee/internal/ports"
	"github.com/showscore/marquee/internal/rebuild"
	"github.com/showscore/marquee/internal/reconcile"
)

// app holds the wired pipeline components for one command invocation.
type app struct {
	store       *store.SQLiteStore
	resolver    *identity.Resolver
	pipeline    *pipeline.Pipeline
	coordinator *rebuild.Coordinator
}

// newApp wires stores and pipeline components from the configuration.
// The ensemble scorer is only constructed when models are configured;
// ingest and reconcile work without one.
func newApp(logger *zap.Logger) (*app, error) {
	db, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, err
	}

	outlets, err := identity.LoadOutlets(cfg.Outlets.Path)
	if err != nil {
		db.Close()
		return nil, err
	}

	resolver, err := identity.NewResolver(outlets, cfg.Identity.DuplicateThreshold)
	if err != nil {
		db.Close()
		return nil, eris.Wrap(err, "build identity resolver")
	}

	collector := metrics.NewPrometheusMetrics()

	scorer, err := buildScorer(collector)
	if err != nil {
		db.Close()
		return nil, err
	}

	engine := reconcile.NewEngine(resolver, cfg.Reconcile.SparseRatio, cfg.Reconcile.SparseAge())

	pipe, err := pipeline.New(resolver, scorer, engine, db, db, db, collector, logger,
		pipeline.Config{Concurrency: cfg.Batch.MaxConcurrentProductions})
	if err != nil {
		db.Close()
		return nil, err
	}

	coordinator, err := rebuild.New(db, db, db, collector, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &app{
		store:       db,
		resolver:    resolver,
		pipeline:    pipe,
		coordinator: coordinator,
	}, nil
}

func (a *app) Close() error { return a.store.Close() }

// buildScorer constructs the classifier ensemble from configuration.
// Returns nil when no models are configured.
func buildScorer(collector ports.MetricsCollector) (*ensemble.Scorer, error) {
	if len(cfg.Ensemble.Models) == 0 {
		return nil, nil
	}

	classifiers := make([]ports.ClassifierModel, 0, len(cfg.Ensemble.Models))
	for _, mc := range cfg.Ensemble.Models {
		classifier, err := models.NewClassifier(models.ClientConfig{
			Provider:          mc.Provider,
			APIKey:            mc.Key,
			Model:             mc.Model,
			BaseURL:           mc.BaseURL,
			RequestsPerSecond: mc.RequestsPerSecond,
			Burst:             mc.Burst,
			MaxRetries:        mc.MaxRetries,
		})
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", mc.Provider, err)
		}
		classifiers = append(classifiers, classifier)
	}

	scorer, err := ensemble.NewScorer(classifiers, ensemble.ScorerConfig{
		MaxConcurrency: cfg.Ensemble.MaxConcurrency,
		ModelTimeout:   time.Duration(cfg.Ensemble.ModelTimeoutSecs) * time.Second,
	}, collector)
	if err != nil {
		return nil, eris.Wrap(err, "build ensemble scorer")
	}
	return scorer, nil
}
