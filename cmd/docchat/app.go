package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/tailored-agentic-units/docchat/corpus"
	"github.com/tailored-agentic-units/docchat/ingest"
	"github.com/tailored-agentic-units/docchat/kernel"
	"github.com/tailored-agentic-units/docchat/observability"
	"github.com/tailored-agentic-units/docchat/retrieval/bleveindex"
)

// app carries state shared by subcommands after flag parsing.
type app struct {
	configFile string
	verbose    bool

	cfg     *kernel.Config
	metrics *observability.MetricsObserver
}

func (a *app) init() error {
	cfg, err := kernel.LoadConfig(a.configFile)
	if err != nil {
		return err
	}
	if a.verbose {
		cfg.LogLevel = "debug"
	}

	level, err := observability.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level.SlogLevel(),
	}))
	slog.SetDefault(logger)

	a.metrics = observability.NewMetricsObserver()
	observability.RegisterObserver("slog", observability.NewSlogObserver(logger))
	observability.RegisterObserver("metrics", a.metrics)

	a.cfg = cfg
	return nil
}

func (a *app) observer() observability.Observer {
	obs, err := observability.ResolveObservers(a.cfg.Observers...)
	if err != nil {
		slog.Warn("falling back to slog observer", "error", err)
		return observability.NewSlogObserver(nil)
	}
	return obs
}

// openIndex opens the configured index. With clean set, or when the index
// is empty, the corpus is ingested first.
func (a *app) openIndex(ctx context.Context, clean bool) (*bleveindex.Index, error) {
	open := bleveindex.New
	if clean {
		open = bleveindex.Recreate
	}

	idx, err := open(a.cfg.Index)
	if err != nil {
		return nil, err
	}

	n, err := idx.Count()
	if err != nil {
		idx.Close()
		return nil, fmt.Errorf("failed to count index: %w", err)
	}
	if n > 0 {
		return idx, nil
	}

	if _, err := a.ingest(ctx, idx); err != nil {
		idx.Close()
		return nil, err
	}
	return idx, nil
}

func (a *app) ingest(ctx context.Context, sink ingest.Sink) (ingest.Stats, error) {
	p, closeStore, err := a.pipeline(ctx, sink)
	if err != nil {
		return ingest.Stats{}, err
	}
	defer closeStore()
	return p.Run(ctx)
}

// pipeline opens the configured corpus and binds it to sink. The returned
// closer releases the corpus connection.
func (a *app) pipeline(ctx context.Context, sink ingest.Sink) (*ingest.Pipeline, func(), error) {
	store, err := corpus.NewStore(ctx, &a.cfg.Corpus)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open corpus: %w", err)
	}
	closeStore := func() {
		if closer, ok := store.(interface{ Close() error }); ok {
			closer.Close()
		}
	}

	p, err := ingest.New(store, sink, a.cfg.Ingest, a.observer())
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return p, closeStore, nil
}

// orchestrator opens the index and builds an Orchestrator over it. The
// caller closes the returned index.
func (a *app) orchestrator(ctx context.Context, clean bool) (*kernel.Orchestrator, *bleveindex.Index, error) {
	k, err := kernel.New(a.cfg, kernel.WithObserver(a.observer()))
	if err != nil {
		return nil, nil, err
	}

	idx, err := a.openIndex(ctx, clean)
	if err != nil {
		return nil, nil, err
	}

	orch, err := k.Build(idx)
	if err != nil {
		idx.Close()
		return nil, nil, err
	}
	return orch, idx, nil
}
