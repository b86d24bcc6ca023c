// Package emit renders the resolved graph into the static artifacts the
// front-end reads.
package emit

import (
	"sort"

	"github.com/sells-group/compgraph/internal/model"
)

// Lightweight is the index projection of an entity.
type Lightweight struct {
	Slug       string           `json:"slug"`
	File       string           `json:"file"`
	Name       string           `json:"name"`
	Ticker     *string          `json:"ticker"`
	IsPublic   bool             `json:"isPublic"`
	EntityType model.EntityType `json:"entityType"`
	ParentSlug *string          `json:"parentSlug"`
	MCap       *float64         `json:"mcap"`
	Rev        *float64         `json:"rev"`
	Mentions   int              `json:"mentions"`
}

// Meta carries the aggregate counts of an emitted entity set.
type Meta struct {
	TotalEntities      int                 `json:"totalEntities"`
	PublicEntities     int                 `json:"publicEntities"`
	PrivateEntities    int                 `json:"privateEntities"`
	Companies          int                 `json:"companies"`
	Products           int                 `json:"products"`
	Unknown            int                 `json:"unknown"`
	WithFinancials     int                 `json:"withFinancials"`
	TotalRelationships int                 `json:"totalRelationships"`
	GeneratedAt        string              `json:"generatedAt"`
	Merges             []model.MergeRecord `json:"merges"`
}

// Index is the document written to index.json and index-public.json.
type Index struct {
	Meta       Meta                `json:"meta"`
	Entities   []Lightweight       `json:"entities"`
	Industries map[string][]string `json:"industries"`
}

// Bundle is the legacy combined document.
type Bundle struct {
	Meta          Meta                 `json:"meta"`
	Entities      []*model.Entity      `json:"entities"`
	Relationships []model.Relationship `json:"relationships"`
	Industries    map[string][]string  `json:"industries"`
}

// Output is everything one build emits.
type Output struct {
	Entities      []*model.Entity
	Relationships []model.Relationship
	Merges        []model.MergeRecord
	Industries    map[string][]string
	GeneratedAt   string
	Summary       *model.RunSummary
}

// Project builds the lightweight projection of e.
func Project(e *model.Entity) Lightweight {
	lw := Lightweight{
		Slug:       e.Slug,
		File:       EntitiesDir + "/" + EntityFile(e.Slug),
		Name:       e.Name,
		Ticker:     e.Ticker,
		IsPublic:   e.IsPublic,
		EntityType: e.EntityType,
		ParentSlug: e.ParentSlug,
		Mentions:   len(e.MentionedBy),
	}
	if e.Financials != nil {
		lw.MCap = e.Financials.MarketCapRaw
		lw.Rev = e.Financials.RevenueRaw
	}
	return lw
}

// HasFinancials reports whether any latest-year figure is present.
func HasFinancials(e *model.Entity) bool {
	f := e.Financials
	if f == nil {
		return false
	}
	return f.Revenue != nil || f.MarketCap != nil || f.RevenueRaw != nil || f.MarketCapRaw != nil
}

// ComputeMeta counts entities and relationships.
func ComputeMeta(entities []*model.Entity, relationships int, merges []model.MergeRecord, generatedAt string) Meta {
	m := Meta{
		TotalEntities:      len(entities),
		TotalRelationships: relationships,
		GeneratedAt:        generatedAt,
		Merges:             merges,
	}
	if m.Merges == nil {
		m.Merges = []model.MergeRecord{}
	}
	for _, e := range entities {
		if e.IsPublic {
			m.PublicEntities++
		} else {
			m.PrivateEntities++
		}
		switch e.EntityType {
		case model.EntityCompany:
			m.Companies++
		case model.EntityProduct:
			m.Products++
		case model.EntityUnknown:
			m.Unknown++
		}
		if HasFinancials(e) {
			m.WithFinancials++
		}
	}
	return m
}

// BuildIndex assembles the full index.
func BuildIndex(out *Output) Index {
	entities := sortedEntities(out.Entities)
	return Index{
		Meta:       ComputeMeta(entities, len(out.Relationships), out.Merges, out.GeneratedAt),
		Entities:   projectAll(entities),
		Industries: industriesOrEmpty(out.Industries),
	}
}

// BuildPublicIndex assembles the index restricted to public entities. Counts
// are recomputed over the filtered set; a relationship counts only when both
// ends are public.
func BuildPublicIndex(out *Output) Index {
	public := make(map[string]bool)
	var entities []*model.Entity
	for _, e := range sortedEntities(out.Entities) {
		if e.IsPublic {
			public[e.Slug] = true
			entities = append(entities, e)
		}
	}

	rels := 0
	for _, r := range out.Relationships {
		if public[r.Source] && public[r.Target] {
			rels++
		}
	}

	industries := make(map[string][]string)
	for industry, slugs := range out.Industries {
		var kept []string
		for _, s := range slugs {
			if public[s] {
				kept = append(kept, s)
			}
		}
		if len(kept) > 0 {
			industries[industry] = kept
		}
	}

	return Index{
		Meta:       ComputeMeta(entities, rels, out.Merges, out.GeneratedAt),
		Entities:   projectAll(entities),
		Industries: industries,
	}
}

// BuildBundle assembles the legacy combined document.
func BuildBundle(out *Output) Bundle {
	entities := sortedEntities(out.Entities)
	rels := out.Relationships
	if rels == nil {
		rels = []model.Relationship{}
	}
	return Bundle{
		Meta:          ComputeMeta(entities, len(out.Relationships), out.Merges, out.GeneratedAt),
		Entities:      entities,
		Relationships: rels,
		Industries:    industriesOrEmpty(out.Industries),
	}
}

func projectAll(entities []*model.Entity) []Lightweight {
	out := make([]Lightweight, 0, len(entities))
	for _, e := range entities {
		out = append(out, Project(e))
	}
	return out
}

func sortedEntities(entities []*model.Entity) []*model.Entity {
	out := make([]*model.Entity, len(entities))
	copy(out, entities)
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

func industriesOrEmpty(m map[string][]string) map[string][]string {
	if m == nil {
		return map[string][]string{}
	}
	return m
}
