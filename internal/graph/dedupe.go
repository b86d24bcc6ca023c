package graph

import (
	"go.uber.org/zap"

	"github.com/sells-group/compgraph/internal/model"
	"github.com/sells-group/compgraph/internal/resolve"
)

// Merge reasons recorded in the merge log.
const (
	ReasonPublicTicker  = "public_ticker"
	ReasonSharedTicker  = "shared_ticker"
	ReasonSlugVariation = "slug_variation"
)

// Deduplicate plans and applies merges, returning the plan that was applied.
func Deduplicate(g *Graph) []model.MergeRecord {
	plan := PlanMerges(g)
	ApplyMerges(g, plan)

	zap.L().Info("graph: deduplicated",
		zap.Int("merged", len(plan)),
		zap.Int("entities", g.Len()),
	)
	return plan
}

// PlanMerges decides which entities alias another without modifying g:
//  1. An entity whose ticker belongs to a public entity with a different slug
//  2. Non-public entities sharing a ticker no public entity owns (the first
//     created survives)
//  3. An entity with no ticker whose first indexed slug variation points to a
//     public entity with a different slug
func PlanMerges(g *Graph) []model.MergeRecord {
	var plan []model.MergeRecord
	planned := make(map[string]bool)
	entities := g.Ordered()

	owners := make(map[string]string)
	for _, e := range entities {
		ticker := e.TickerValue()
		if ticker == "" {
			continue
		}
		if pub, ok := g.Public[ticker]; ok {
			if pub.Slug != e.Slug {
				plan = append(plan, model.MergeRecord{From: e.Slug, Into: pub.Slug, Reason: ReasonPublicTicker})
				planned[e.Slug] = true
			}
			continue
		}
		if owner, ok := owners[ticker]; ok {
			plan = append(plan, model.MergeRecord{From: e.Slug, Into: owner, Reason: ReasonSharedTicker})
			planned[e.Slug] = true
			continue
		}
		owners[ticker] = e.Slug
	}

	for _, e := range entities {
		if e.Ticker != nil || planned[e.Slug] {
			continue
		}
		for _, v := range resolve.SlugVariations(e.Name) {
			ticker, ok := g.Variations[v]
			if !ok {
				continue
			}
			if pub, ok := g.Public[ticker]; ok && pub.Slug != e.Slug {
				plan = append(plan, model.MergeRecord{From: e.Slug, Into: pub.Slug, Reason: ReasonSlugVariation})
				planned[e.Slug] = true
			}
			break
		}
	}

	return plan
}

// ApplyMerges folds each planned entity into its survivor, rewrites every
// reference to a merged slug, then deletes the merged entities in one batch.
// Provenance is only ever appended to the survivor.
func ApplyMerges(g *Graph, plan []model.MergeRecord) {
	if len(plan) == 0 {
		return
	}

	redirect := make(map[string]string, len(plan))
	removed := make(map[string]bool, len(plan))
	for _, m := range plan {
		from, ok := g.Entity(m.From)
		if !ok {
			continue
		}
		into, ok := g.Entity(m.Into)
		if !ok {
			continue
		}
		absorb(into, from)
		redirect[m.From] = m.Into
		removed[m.From] = true

		zap.L().Debug("graph: merged entity",
			zap.String("from", m.From),
			zap.String("into", m.Into),
			zap.String("reason", m.Reason),
		)
	}
	g.remove(removed)
	g.Merges = append(g.Merges, plan...)

	target := func(slug string) string {
		if to, ok := redirect[slug]; ok {
			return to
		}
		return slug
	}

	// Edges that become self edges are kept: relationships are never dropped.
	for i := range g.Relationships {
		rel := &g.Relationships[i]
		rel.Source = target(rel.Source)
		rel.Target = target(rel.Target)
		if rel.Source == rel.Target {
			zap.L().Warn("graph: relationship became a self edge after merge",
				zap.String("slug", rel.Source),
				zap.Int("year", rel.Year),
			)
		}
	}

	for _, e := range g.Ordered() {
		mentions := e.MentionedBy
		e.MentionedBy = nil
		for _, p := range mentions {
			p.Slug = target(p.Slug)
			e.AddMentionedBy(p)
		}

		refs := e.Competitors
		e.Competitors = nil
		for _, ref := range refs {
			if current, ok := g.Entity(target(ref.Slug)); ok {
				e.AddCompetitor(current.Ref())
			}
		}
	}
}

// absorb moves from's provenance into into.
func absorb(into, from *model.Entity) {
	for _, p := range from.MentionedBy {
		into.AddMentionedBy(p)
	}
	for _, c := range from.Competitors {
		into.AddCompetitor(c)
	}
	if !into.IsPublic {
		for year, notes := range from.Notes {
			if into.Notes == nil {
				into.Notes = make(map[string][]model.Note)
			}
			into.Notes[year] = append(into.Notes[year], notes...)
		}
	}
	if into.Financials == nil && from.Financials != nil {
		into.Financials = from.Financials
		into.FinancialsByYear = from.FinancialsByYear
	}
}
