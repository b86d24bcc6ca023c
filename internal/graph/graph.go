// Package graph resolves competitor mentions into a deduplicated entity graph.
package graph

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/compgraph/internal/model"
)

// Graph is the mutable state threaded through resolution and deduplication.
type Graph struct {
	// Public is the public company index: ticker to canonical entity.
	// It is filled by the canonical pass and never shrinks.
	Public map[string]*model.Entity

	// Variations is the slug variation index: alternate slug to ticker.
	// A variation, once bound, is never rebound.
	Variations map[string]string

	// Relationships holds every mention edge, including repeats across years.
	Relationships []model.Relationship

	// Merges is the log of entities folded into others by Deduplicate.
	Merges []model.MergeRecord

	Stats Stats

	entities map[string]*model.Entity
	order    []string
	contexts map[string][]string
}

// Stats counts how mentions were resolved.
type Stats struct {
	Snapshots    int            `json:"snapshots"`
	Mentions     int            `json:"mentions"`
	ByStrategy   map[string]int `json:"byStrategy"`
	Minted       int            `json:"minted"`
	Skipped      int            `json:"skipped"`
	SelfMentions int            `json:"selfMentions"`
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		Public:     make(map[string]*model.Entity),
		Variations: make(map[string]string),
		Stats:      Stats{ByStrategy: make(map[string]int)},
		entities:   make(map[string]*model.Entity),
		contexts:   make(map[string][]string),
	}
}

// Add inserts e. Slugs are unique across the graph.
func (g *Graph) Add(e *model.Entity) error {
	if e.Slug == "" {
		return eris.New("graph: entity has empty slug")
	}
	if _, ok := g.entities[e.Slug]; ok {
		return eris.Errorf("graph: slug %q already present", e.Slug)
	}
	g.entities[e.Slug] = e
	g.order = append(g.order, e.Slug)
	return nil
}

// Entity returns the entity holding slug.
func (g *Graph) Entity(slug string) (*model.Entity, bool) {
	e, ok := g.entities[slug]
	return e, ok
}

// Len returns the number of entities.
func (g *Graph) Len() int {
	return len(g.entities)
}

// Ordered returns entities in creation order.
func (g *Graph) Ordered() []*model.Entity {
	out := make([]*model.Entity, 0, len(g.order))
	for _, slug := range g.order {
		if e, ok := g.entities[slug]; ok {
			out = append(out, e)
		}
	}
	return out
}

// Sorted returns entities ordered by slug.
func (g *Graph) Sorted() []*model.Entity {
	out := g.Ordered()
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

// BindVariation maps variation to ticker unless it is already bound.
// It reports whether the binding was made.
func (g *Graph) BindVariation(variation, ticker string) bool {
	if variation == "" {
		return false
	}
	if _, ok := g.Variations[variation]; ok {
		return false
	}
	g.Variations[variation] = ticker
	return true
}

// Contexts returns the snapshot context texts recorded for a public entity.
func (g *Graph) Contexts(slug string) []string {
	return g.contexts[slug]
}

func (g *Graph) addContext(slug, text string) {
	if text == "" {
		return
	}
	g.contexts[slug] = append(g.contexts[slug], text)
}

func (g *Graph) remove(slugs map[string]bool) {
	if len(slugs) == 0 {
		return
	}
	for slug := range slugs {
		delete(g.entities, slug)
	}
	kept := g.order[:0]
	for _, slug := range g.order {
		if !slugs[slug] {
			kept = append(kept, slug)
		}
	}
	g.order = kept
}
