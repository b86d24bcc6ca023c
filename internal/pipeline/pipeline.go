// Package pipeline runs a full build: ingest, resolve, deduplicate, tag and emit.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/compgraph/internal/config"
	"github.com/sells-group/compgraph/internal/emit"
	"github.com/sells-group/compgraph/internal/graph"
	"github.com/sells-group/compgraph/internal/industry"
	"github.com/sells-group/compgraph/internal/ingest"
	"github.com/sells-group/compgraph/internal/model"
	"github.com/sells-group/compgraph/internal/resolve"
)

// Pipeline orchestrates one build of the competitor graph.
type Pipeline struct {
	cfg *config.Config
	now func() time.Time
}

// Result is what a build produced.
type Result struct {
	Graph      *graph.Graph
	Industries map[string][]string
	Summary    *model.RunSummary
}

// New creates a Pipeline for cfg.
func New(cfg *config.Config) *Pipeline {
	return &Pipeline{cfg: cfg, now: time.Now}
}

// Run executes every stage in order. The context is checked between stages;
// nothing is written unless every stage before emit succeeds.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	log := zap.L().With(
		zap.String("snapshots_dir", p.cfg.Input.SnapshotsDir),
		zap.String("output_dir", p.cfg.Output.Dir),
	)
	log.Info("pipeline: starting build")
	started := p.now()

	stage := func(name string, fn func() error) error {
		if err := ctx.Err(); err != nil {
			return eris.Wrapf(err, "pipeline: cancelled before %s", name)
		}
		start := time.Now()
		if err := fn(); err != nil {
			log.Error("pipeline: stage failed",
				zap.String("stage", name),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
				zap.Error(err),
			)
			return err
		}
		log.Info("pipeline: stage complete",
			zap.String("stage", name),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil
	}

	var (
		fin       *resolve.FinancialResolver
		snapshots []model.RawSnapshot
		g         *graph.Graph
		tags      *industry.Table
		result    = &Result{}
	)

	if err := stage("ingest", func() error {
		fin = resolve.NewFinancialResolver(ingest.LoadFinancials(p.cfg.Input.FinancialsPath))
		var err error
		snapshots, err = ingest.LoadSnapshots(p.cfg.Input.SnapshotsDir, p.cfg.Input.Strict)
		if err != nil {
			return eris.Wrap(err, "pipeline: load snapshots")
		}
		tags, err = industry.LoadTable(p.cfg.Industries.Path)
		return eris.Wrap(err, "pipeline: load industries")
	}); err != nil {
		return nil, err
	}

	if err := stage("resolve", func() error {
		var err error
		g, err = graph.NewResolver(fin).Build(snapshots)
		return eris.Wrap(err, "pipeline: resolve")
	}); err != nil {
		return nil, err
	}

	if err := stage("dedupe", func() error {
		graph.Deduplicate(g)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := stage("industries", func() error {
		result.Industries = industry.Assign(g.Sorted(), g, tags)
		return nil
	}); err != nil {
		return nil, err
	}

	result.Graph = g
	result.Summary = summarize(p.cfg, g, fin.Len(), len(result.Industries))

	if err := stage("emit", func() error {
		out := &emit.Output{
			Entities:      g.Sorted(),
			Relationships: g.Relationships,
			Merges:        g.Merges,
			Industries:    result.Industries,
			GeneratedAt:   p.now().UTC().Format(time.RFC3339),
			Summary:       result.Summary,
		}
		result.Summary.Duration = p.now().Sub(started)
		return emit.Write(ctx, emitOptions(p.cfg), out)
	}); err != nil {
		return nil, err
	}

	log.Info("pipeline: build complete",
		zap.Int("entities", result.Summary.Entities),
		zap.Int("public", result.Summary.PublicEntities),
		zap.Int("relationships", result.Summary.Relationships),
		zap.Int("merges", result.Summary.Merges),
		zap.Duration("duration", p.now().Sub(started)),
	)
	return result, nil
}

func emitOptions(cfg *config.Config) emit.Options {
	return emit.Options{
		Dir:          cfg.Output.Dir,
		BundleName:   cfg.Output.BundleName,
		BundleGlobal: cfg.Output.BundleGlobal,
		SQLite:       cfg.Output.SQLite,
		XLSX:         cfg.Output.XLSX,
	}
}

func summarize(cfg *config.Config, g *graph.Graph, financialRecords, industries int) *model.RunSummary {
	s := &model.RunSummary{
		SnapshotsDir:     cfg.Input.SnapshotsDir,
		OutputDir:        cfg.Output.Dir,
		Snapshots:        g.Stats.Snapshots,
		Mentions:         g.Stats.Mentions,
		SkippedMentions:  g.Stats.Skipped,
		SelfMentions:     g.Stats.SelfMentions,
		FinancialRecords: financialRecords,
		Entities:         g.Len(),
		Relationships:    len(g.Relationships),
		Merges:           len(g.Merges),
		Industries:       industries,
		ByStrategy:       make(map[string]int, len(g.Stats.ByStrategy)),
	}
	for k, v := range g.Stats.ByStrategy {
		s.ByStrategy[k] = v
	}
	for _, e := range g.Ordered() {
		if e.IsPublic {
			s.PublicEntities++
		} else {
			s.PrivateEntities++
		}
		if emit.HasFinancials(e) {
			s.WithFinancials++
		}
	}
	return s
}
