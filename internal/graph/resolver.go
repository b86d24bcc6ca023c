package graph

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/compgraph/internal/model"
	"github.com/sells-group/compgraph/internal/resolve"
)

// Resolution strategies, in the order they are tried.
const (
	StrategyVariation = "slug_variation"
	StrategySlug      = "public_slug"
	StrategyFinancial = "financial_ticker"
	StrategyReused    = "reused"
	StrategyMinted    = "minted"
)

// Resolver builds a Graph from snapshots.
type Resolver struct {
	fin *resolve.FinancialResolver
}

// NewResolver creates a resolver that joins names against fin.
func NewResolver(fin *resolve.FinancialResolver) *Resolver {
	if fin == nil {
		fin = resolve.NewFinancialResolver(nil)
	}
	return &Resolver{fin: fin}
}

// Build runs the canonical pass over snapshots and then resolves every
// competitor mention. Snapshots are processed in the order given.
func (r *Resolver) Build(snapshots []model.RawSnapshot) (*Graph, error) {
	g := New()
	g.Stats.Snapshots = len(snapshots)

	sources := make([]*model.Entity, len(snapshots))
	for i := range snapshots {
		e, err := r.indexPublic(g, &snapshots[i])
		if err != nil {
			return nil, eris.Wrapf(err, "graph: index %s", snapshots[i].File)
		}
		sources[i] = e
	}
	r.bindVariations(g)

	zap.L().Info("graph: public companies indexed",
		zap.Int("public", len(g.Public)),
		zap.Int("variations", len(g.Variations)),
	)

	for i := range snapshots {
		for _, m := range snapshots[i].Competitors {
			if err := r.resolveMention(g, sources[i], &snapshots[i], m); err != nil {
				return nil, eris.Wrapf(err, "graph: resolve mentions of %s", snapshots[i].File)
			}
		}
	}

	zap.L().Info("graph: mentions resolved",
		zap.Int("mentions", g.Stats.Mentions),
		zap.Int("minted", g.Stats.Minted),
		zap.Int("skipped", g.Stats.Skipped),
		zap.Int("self", g.Stats.SelfMentions),
		zap.Int("relationships", len(g.Relationships)),
	)

	return g, nil
}

// indexPublic creates or extends the public entity for a snapshot's ticker.
func (r *Resolver) indexPublic(g *Graph, snap *model.RawSnapshot) (*model.Entity, error) {
	ticker := snap.NormalizedTicker()
	name := strings.TrimSpace(snap.Company)

	if e, ok := g.Public[ticker]; ok {
		if name != e.Name && !containsString(e.Aliases, name) {
			e.Aliases = append(e.Aliases, name)
		}
		e.AddYear(int(snap.Year))
		e.Sources = appendDistinct(e.Sources, snap.Sources...)
		g.addContext(e.Slug, snap.Context)
		return e, nil
	}

	slug := resolve.Slugify(name)
	if slug == "" {
		slug = resolve.Slugify(ticker)
	}
	slug = freeSlug(g, slug, resolve.Slugify(ticker))

	e := &model.Entity{
		Slug:       slug,
		Name:       name,
		Ticker:     model.StringPtr(ticker),
		IsPublic:   true,
		EntityType: model.EntityCompany,
		Ownership:  model.StringPtr(model.OwnershipPublic),
	}
	e.AddYear(int(snap.Year))
	e.Sources = appendDistinct(nil, snap.Sources...)

	if rec := r.fin.Lookup(name, slug); rec != nil {
		if t, ok := model.ParseEntityType(rec.Type); ok {
			e.EntityType = t
		}
		applyFinancials(e, rec)
	}

	if err := g.Add(e); err != nil {
		return nil, err
	}
	g.Public[ticker] = e
	g.addContext(slug, snap.Context)

	zap.L().Debug("graph: public company",
		zap.String("ticker", ticker),
		zap.String("slug", slug),
		zap.Bool("financials", e.Financials != nil),
	)
	return e, nil
}

// bindVariations fills the variation index from every public name. Primary
// names are bound before aliases so an alias never claims a variation a
// primary name of another company produces.
func (r *Resolver) bindVariations(g *Graph) {
	public := g.Ordered()
	for _, e := range public {
		ticker := e.TickerValue()
		g.BindVariation(e.Slug, ticker)
		for _, v := range resolve.SlugVariations(e.Name) {
			g.BindVariation(v, ticker)
		}
	}
	for _, e := range public {
		for _, alias := range e.Aliases {
			for _, v := range resolve.SlugVariations(alias) {
				g.BindVariation(v, e.TickerValue())
			}
		}
	}
}

// match runs the resolution cascade against the public index:
//  1. Any slug variation of the mention bound in the variation index
//  2. The mention slug equal to a public entity's slug
//  3. A financial record for the mention whose ticker is a public entity
//
// The financial record, if one was found, is returned for minting.
func (r *Resolver) match(g *Graph, name, slug string) (*model.Entity, string, *resolve.FinancialRecord) {
	for _, v := range resolve.SlugVariations(name) {
		if ticker, ok := g.Variations[v]; ok {
			if e, ok := g.Public[ticker]; ok {
				return e, StrategyVariation, nil
			}
		}
	}

	if e, ok := g.Entity(slug); ok && e.IsPublic {
		return e, StrategySlug, nil
	}

	rec := r.fin.Lookup(name, slug)
	if rec != nil && rec.Ticker != "" {
		if e, ok := g.Public[strings.ToUpper(strings.TrimSpace(rec.Ticker))]; ok {
			return e, StrategyFinancial, rec
		}
	}
	return nil, "", rec
}

func (r *Resolver) resolveMention(g *Graph, src *model.Entity, snap *model.RawSnapshot, m model.Mention) error {
	g.Stats.Mentions++

	name := strings.TrimSpace(m.Name)
	slug := resolve.Slugify(name)
	if slug == "" {
		g.Stats.Skipped++
		zap.L().Warn("graph: skipping mention with empty slug",
			zap.String("file", snap.File),
			zap.String("mention", m.Name),
		)
		return nil
	}

	target, strategy, rec := r.match(g, name, slug)
	if target == nil {
		var err error
		target, strategy, err = r.mint(g, name, slug, rec)
		if err != nil {
			return err
		}
	}
	g.Stats.ByStrategy[strategy]++

	if target.Slug == src.Slug {
		g.Stats.SelfMentions++
		zap.L().Warn("graph: mention resolves to the mentioning company",
			zap.String("file", snap.File),
			zap.String("company", src.Slug),
			zap.String("mention", name),
			zap.String("strategy", strategy),
		)
	}

	zap.L().Debug("graph: mention resolved",
		zap.String("company", src.Slug),
		zap.String("mention", name),
		zap.String("target", target.Slug),
		zap.String("strategy", strategy),
	)

	year := int(snap.Year)
	target.AddMentionedBy(model.Provenance{
		Slug:   src.Slug,
		Name:   src.Name,
		Ticker: src.Ticker,
		Year:   year,
	})
	src.AddCompetitor(target.Ref())
	g.Relationships = append(g.Relationships, model.Relationship{
		Source: src.Slug,
		Target: target.Slug,
		Year:   year,
		Notes:  m.Notes,
	})
	if !target.IsPublic {
		target.AddNote(year, model.Note{From: snap.Company, Note: m.Notes})
	}
	return nil
}

// mint returns the non-public entity for slug, creating it on first use.
// isPublic stays false even when the financial record says "public": only
// snapshot companies are public.
func (r *Resolver) mint(g *Graph, name, slug string, rec *resolve.FinancialRecord) (*model.Entity, string, error) {
	if e, ok := g.Entity(slug); ok {
		return e, StrategyReused, nil
	}

	e := &model.Entity{
		Slug:       slug,
		Name:       name,
		EntityType: model.EntityUnknown,
	}
	if rec != nil {
		if t, ok := model.ParseEntityType(rec.Type); ok {
			e.EntityType = t
		}
		if rec.Ticker != "" {
			e.Ticker = model.StringPtr(strings.ToUpper(strings.TrimSpace(rec.Ticker)))
		}
		switch rec.Ownership {
		case model.OwnershipPublic, model.OwnershipPrivate:
			e.Ownership = model.StringPtr(rec.Ownership)
		}
		applyFinancials(e, rec)
	}

	if err := g.Add(e); err != nil {
		return nil, "", err
	}
	g.Stats.Minted++
	return e, StrategyMinted, nil
}

// freeSlug returns slug if no entity holds it, else slug suffixed with the
// ticker and then a counter until the result is unused.
func freeSlug(g *Graph, slug, ticker string) string {
	if _, taken := g.Entity(slug); !taken {
		return slug
	}
	base := slug
	if ticker != "" {
		base = slug + "-" + ticker
		if _, taken := g.Entity(base); !taken {
			return base
		}
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s-%d", base, n)
		if _, taken := g.Entity(candidate); !taken {
			return candidate
		}
	}
}

func applyFinancials(e *model.Entity, rec *resolve.FinancialRecord) {
	e.Financials = resolve.LatestYearFigures(rec)
	e.FinancialsByYear = resolve.FinancialsByYear(rec)

	parent := rec.ParentSlug
	if parent == "" {
		parent = resolve.Slugify(rec.ParentCompany)
	}
	if parent != "" && parent != e.Slug {
		e.ParentSlug = model.StringPtr(parent)
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func appendDistinct(list []string, values ...string) []string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" && !containsString(list, v) {
			list = append(list, v)
		}
	}
	return list
}
