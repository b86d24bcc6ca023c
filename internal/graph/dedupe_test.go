package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/compgraph/internal/model"
	"github.com/sells-group/compgraph/internal/resolve"
)

// aliasGraph builds a graph by hand with duplicates the resolver itself
// would not create, so each merge pass has something to do.
func aliasGraph(t *testing.T) *Graph {
	t.Helper()
	g := build(t, nil,
		snapshot("Amazon", "AMZN", 2024),
		snapshot("Walmart", "WMT", 2024, mention("Target", "retail")),
	)

	walmart, _ := g.Entity("walmart")
	link := func(e *model.Entity, year int, notes string) {
		e.AddMentionedBy(model.Provenance{Slug: walmart.Slug, Name: walmart.Name, Ticker: walmart.Ticker, Year: year})
		walmart.AddCompetitor(e.Ref())
		g.Relationships = append(g.Relationships, model.Relationship{Source: walmart.Slug, Target: e.Slug, Year: year, Notes: notes})
		e.AddNote(year, model.Note{From: walmart.Name, Note: notes})
	}

	// Carries AMZN's ticker under another slug.
	aws := &model.Entity{Slug: "amazon-web-services", Name: "Amazon Web Services", Ticker: model.StringPtr("AMZN"), EntityType: model.EntityDivision}
	require.NoError(t, g.Add(aws))
	link(aws, 2023, "cloud")

	// Two private names sharing a ticker nobody public owns.
	kr1 := &model.Entity{Slug: "kroger", Name: "Kroger", Ticker: model.StringPtr("KR"), EntityType: model.EntityUnknown}
	kr2 := &model.Entity{Slug: "the-kroger", Name: "The Kroger", Ticker: model.StringPtr("KR"), EntityType: model.EntityUnknown}
	require.NoError(t, g.Add(kr1))
	require.NoError(t, g.Add(kr2))
	link(kr1, 2024, "grocery")
	link(kr2, 2023, "grocery older")

	// No ticker, but a slug variation points to Amazon.
	amzcom := &model.Entity{Slug: "amazoncom-marketplace", Name: "Amazon.com", EntityType: model.EntityUnknown}
	require.NoError(t, g.Add(amzcom))
	link(amzcom, 2022, "marketplace")

	return g
}

func TestPlanMerges(t *testing.T) {
	g := aliasGraph(t)
	before := g.Len()

	plan := PlanMerges(g)

	assert.Equal(t, []model.MergeRecord{
		{From: "amazon-web-services", Into: "amazon", Reason: ReasonPublicTicker},
		{From: "the-kroger", Into: "kroger", Reason: ReasonSharedTicker},
		{From: "amazoncom-marketplace", Into: "amazon", Reason: ReasonSlugVariation},
	}, plan)

	// Planning never mutates.
	assert.Equal(t, before, g.Len())
}

func TestApplyMerges(t *testing.T) {
	g := aliasGraph(t)
	relsBefore := len(g.Relationships)

	plan := Deduplicate(g)
	require.Len(t, plan, 3)
	assert.Equal(t, plan, g.Merges)

	for _, slug := range []string{"amazon-web-services", "the-kroger", "amazoncom-marketplace"} {
		_, ok := g.Entity(slug)
		assert.False(t, ok, slug)
	}

	amzn := g.Public["AMZN"]
	years := map[int]bool{}
	for _, p := range amzn.MentionedBy {
		assert.Equal(t, "walmart", p.Slug)
		years[p.Year] = true
	}
	assert.Equal(t, map[int]bool{2022: true, 2023: true}, years)
	assert.Empty(t, amzn.Notes)

	kr, _ := g.Entity("kroger")
	assert.Len(t, kr.MentionedBy, 2)
	assert.Len(t, kr.Notes["2023"], 1)
	assert.Len(t, kr.Notes["2024"], 1)

	// Edges are rewritten, never dropped.
	assert.Len(t, g.Relationships, relsBefore)
	for _, rel := range g.Relationships {
		_, ok := g.Entity(rel.Source)
		assert.True(t, ok, rel.Source)
		_, ok = g.Entity(rel.Target)
		assert.True(t, ok, rel.Target)
	}

	walmart, _ := g.Entity("walmart")
	slugs := map[string]bool{}
	for _, c := range walmart.Competitors {
		assert.False(t, slugs[c.Slug], "duplicate competitor %s", c.Slug)
		slugs[c.Slug] = true
		_, ok := g.Entity(c.Slug)
		assert.True(t, ok, c.Slug)
	}
	assert.True(t, slugs["amazon"])
	assert.True(t, slugs["kroger"])
	assert.True(t, slugs["target"])
	for _, c := range walmart.Competitors {
		if c.Slug == "amazon" {
			assert.True(t, c.IsPublic)
		}
	}
}

func TestDeduplicate_NoSharedTickers(t *testing.T) {
	g := aliasGraph(t)
	Deduplicate(g)

	seen := map[string]string{}
	for _, e := range g.Ordered() {
		ticker := e.TickerValue()
		if ticker == "" {
			continue
		}
		other, dup := seen[ticker]
		assert.False(t, dup, "%s and %s share %s", other, e.Slug, ticker)
		seen[ticker] = e.Slug
	}
}

func TestDeduplicate_NothingToDo(t *testing.T) {
	g := build(t, nil, snapshot("Acme Corp", "ACME", 2024, mention("Widgets Inc", "rival")))
	plan := Deduplicate(g)
	assert.Empty(t, plan)
	assert.Equal(t, 2, g.Len())
	assert.Len(t, g.Relationships, 1)
}

func TestApplyMerges_KeepsSelfEdges(t *testing.T) {
	g := build(t, resolve.FinancialTable{}, snapshot("Microsoft", "MSFT", 2024))
	msft := g.Public["MSFT"]

	alias := &model.Entity{Slug: "msft-alias", Name: "Microsoft Alias Group", Ticker: model.StringPtr("MSFT")}
	require.NoError(t, g.Add(alias))
	alias.AddMentionedBy(model.Provenance{Slug: msft.Slug, Name: msft.Name, Ticker: msft.Ticker, Year: 2024})
	msft.AddCompetitor(alias.Ref())
	g.Relationships = append(g.Relationships, model.Relationship{Source: msft.Slug, Target: alias.Slug, Year: 2024, Notes: "cloud"})

	Deduplicate(g)

	assert.Equal(t, []model.Relationship{{Source: "microsoft", Target: "microsoft", Year: 2024, Notes: "cloud"}}, g.Relationships)
	require.Len(t, msft.Competitors, 1)
	assert.Equal(t, "microsoft", msft.Competitors[0].Slug)
	require.Len(t, msft.MentionedBy, 1)
	assert.Equal(t, model.Provenance{Slug: "microsoft", Name: "Microsoft", Ticker: msft.Ticker, Year: 2024}, msft.MentionedBy[0])
	assert.Equal(t, []model.MergeRecord{{From: "msft-alias", Into: "microsoft", Reason: ReasonPublicTicker}}, g.Merges)
}
