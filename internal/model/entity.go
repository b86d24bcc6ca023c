package model

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/rotisserie/eris"
)

// EntityType classifies what an entity is.
type EntityType string

const (
	EntityCompany  EntityType = "company"
	EntityDivision EntityType = "division"
	EntityProduct  EntityType = "product"
	EntityUnknown  EntityType = "unknown"
)

// ParseEntityType maps a financial-facts type string onto a known EntityType.
// The boolean is false for empty or unrecognized values.
func ParseEntityType(s string) (EntityType, bool) {
	switch EntityType(s) {
	case EntityCompany, EntityDivision, EntityProduct, EntityUnknown:
		return EntityType(s), true
	}
	return EntityUnknown, false
}

// Ownership values.
const (
	OwnershipPublic  = "public"
	OwnershipPrivate = "private"
)

// DisplayValue is a human-formatted figure such as "$245.1B". Financial-facts
// files sometimes carry a bare number instead of a string; both decode.
type DisplayValue string

// UnmarshalJSON accepts a JSON string or number.
func (d *DisplayValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return eris.Wrap(err, "model: decode display value")
		}
		*d = DisplayValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return eris.Wrap(err, "model: display value is neither string nor number")
	}
	*d = DisplayValue(n.String())
	return nil
}

// YearFigures is one year of a financial-facts record, as found on disk.
type YearFigures struct {
	Revenue      *DisplayValue `json:"revenue"`
	MarketCap    *DisplayValue `json:"market_cap"`
	RevenueRaw   *float64      `json:"revenue_raw"`
	MarketCapRaw *float64      `json:"market_cap_raw"`
}

// Financials is the emitted form of one year of figures.
type Financials struct {
	Year         int           `json:"year,omitempty"`
	Revenue      *DisplayValue `json:"revenue"`
	MarketCap    *DisplayValue `json:"marketCap"`
	RevenueRaw   *float64      `json:"revenueRaw"`
	MarketCapRaw *float64      `json:"marketCapRaw"`
}

// FromYearFigures converts on-disk figures to the emitted shape.
func FromYearFigures(year int, f YearFigures) Financials {
	return Financials{
		Year:         year,
		Revenue:      f.Revenue,
		MarketCap:    f.MarketCap,
		RevenueRaw:   f.RevenueRaw,
		MarketCapRaw: f.MarketCapRaw,
	}
}

// Provenance records which company mentioned an entity, and in which year.
type Provenance struct {
	Slug   string  `json:"slug"`
	Name   string  `json:"name"`
	Ticker *string `json:"ticker"`
	Year   int     `json:"year"`
}

// EntityRef is a lightweight pointer from one entity to another.
type EntityRef struct {
	Slug     string  `json:"slug"`
	Name     string  `json:"name"`
	Ticker   *string `json:"ticker"`
	IsPublic bool    `json:"isPublic"`
}

// Note is a free-text annotation a mentioning company attached to a competitor.
type Note struct {
	From string `json:"from"`
	Note string `json:"note"`
}

// Entity is a node of the competitor graph.
type Entity struct {
	Slug             string                `json:"slug"`
	Name             string                `json:"name"`
	Ticker           *string               `json:"ticker"`
	IsPublic         bool                  `json:"isPublic"`
	EntityType       EntityType            `json:"entityType"`
	Ownership        *string               `json:"ownership"`
	ParentSlug       *string               `json:"parentSlug"`
	Financials       *Financials           `json:"financials"`
	FinancialsByYear map[string]Financials `json:"financialsByYear"`
	MentionedBy      []Provenance          `json:"mentionedBy"`
	Competitors      []EntityRef           `json:"competitors"`
	Notes            map[string][]Note     `json:"notes,omitempty"`

	// Public entities only.
	Years      []int    `json:"years,omitempty"`
	Aliases    []string `json:"aliases,omitempty"`
	Sources    []string `json:"sources,omitempty"`
	Industries []string `json:"industries,omitempty"`
}

// TickerValue returns the ticker or "" when the entity has none.
func (e *Entity) TickerValue() string {
	if e.Ticker == nil {
		return ""
	}
	return *e.Ticker
}

// Ref builds the lightweight reference other entities store.
func (e *Entity) Ref() EntityRef {
	return EntityRef{Slug: e.Slug, Name: e.Name, Ticker: e.Ticker, IsPublic: e.IsPublic}
}

// AddMentionedBy appends p unless an entry with the same slug and year exists.
// It reports whether p was added.
func (e *Entity) AddMentionedBy(p Provenance) bool {
	for _, m := range e.MentionedBy {
		if m.Slug == p.Slug && m.Year == p.Year {
			return false
		}
	}
	e.MentionedBy = append(e.MentionedBy, p)
	return true
}

// AddCompetitor appends r unless a reference to the same slug exists.
func (e *Entity) AddCompetitor(r EntityRef) bool {
	for _, c := range e.Competitors {
		if c.Slug == r.Slug {
			return false
		}
	}
	e.Competitors = append(e.Competitors, r)
	return true
}

// AddNote records a note under the given year.
func (e *Entity) AddNote(year int, n Note) {
	if e.Notes == nil {
		e.Notes = make(map[string][]Note)
	}
	key := Year(year).String()
	e.Notes[key] = append(e.Notes[key], n)
}

// AddYear inserts year keeping Years sorted and distinct.
func (e *Entity) AddYear(year int) {
	i := sort.SearchInts(e.Years, year)
	if i < len(e.Years) && e.Years[i] == year {
		return
	}
	e.Years = append(e.Years, 0)
	copy(e.Years[i+1:], e.Years[i:])
	e.Years[i] = year
}

// Relationship is a directed "source names target as a competitor" edge.
// The same pair may repeat across years.
type Relationship struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Year   int    `json:"year"`
	Notes  string `json:"notes"`
}

// MergeRecord logs that entity From was folded into entity Into.
type MergeRecord struct {
	From   string `json:"from"`
	Into   string `json:"into"`
	Reason string `json:"reason"`
}

// StringPtr returns nil for "" and &s otherwise.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// FillEmpty replaces nil mentionedBy and competitors lists with empty ones so
// they encode as [] rather than null.
func (e *Entity) FillEmpty() {
	if e.MentionedBy == nil {
		e.MentionedBy = []Provenance{}
	}
	if e.Competitors == nil {
		e.Competitors = []EntityRef{}
	}
}
