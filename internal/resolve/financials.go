package resolve

import (
	"strconv"
	"strings"

	"github.com/sells-group/compgraph/internal/model"
)

// FinancialRecord is one entry of the financial-facts table.
type FinancialRecord struct {
	Type             string                       `json:"type"`
	Ownership        string                       `json:"ownership"`
	ParentCompany    string                       `json:"parent_company"`
	ParentSlug       string                       `json:"parent_slug"`
	Ticker           string                       `json:"ticker"`
	FinancialsByYear map[string]model.YearFigures `json:"financials_by_year"`
}

// FinancialTable maps a lookup key (normally a slug) to its record.
type FinancialTable map[string]*FinancialRecord

// KeyStrategy generates candidate table keys for a name and its slug.
type KeyStrategy func(name, slug string) []string

// ExactSlug tries the slug as given.
func ExactSlug(_, slug string) []string {
	return []string{slug}
}

// NameSlug tries the slug derived from the display name.
func NameSlug(name, _ string) []string {
	return []string{Slugify(name)}
}

// LegalSuffixTrimmed tries the name slug with a trailing -inc, -corp or -llc removed.
func LegalSuffixTrimmed(name, _ string) []string {
	s := Slugify(name)
	var keys []string
	for _, suffix := range []string{"-inc", "-corp", "-llc"} {
		if strings.HasSuffix(s, suffix) {
			keys = append(keys, strings.TrimSuffix(s, suffix))
		}
	}
	return keys
}

// HyphenCollapsed tries the slug with every hyphen removed.
func HyphenCollapsed(_, slug string) []string {
	return []string{strings.ReplaceAll(slug, "-", "")}
}

// DefaultKeyStrategies is the lookup order used unless a caller supplies its own.
var DefaultKeyStrategies = []KeyStrategy{ExactSlug, NameSlug, LegalSuffixTrimmed, HyphenCollapsed}

// FinancialResolver joins names against a FinancialTable. The join is a
// best-effort heuristic: misses are expected and a hit may belong to a
// different company with a similar name.
type FinancialResolver struct {
	table      FinancialTable
	strategies []KeyStrategy
}

// NewFinancialResolver creates a resolver over table. With no strategies it
// uses DefaultKeyStrategies.
func NewFinancialResolver(table FinancialTable, strategies ...KeyStrategy) *FinancialResolver {
	if len(strategies) == 0 {
		strategies = DefaultKeyStrategies
	}
	return &FinancialResolver{table: table, strategies: strategies}
}

// Lookup returns the first record any strategy's key hits, or nil.
func (r *FinancialResolver) Lookup(name, slug string) *FinancialRecord {
	if len(r.table) == 0 {
		return nil
	}
	for _, strategy := range r.strategies {
		for _, key := range strategy(name, slug) {
			if key == "" {
				continue
			}
			if rec, ok := r.table[key]; ok && rec != nil {
				return rec
			}
		}
	}
	return nil
}

// Len returns the number of records in the table.
func (r *FinancialResolver) Len() int {
	return len(r.table)
}

// LookupFinancials is Lookup with DefaultKeyStrategies.
func LookupFinancials(table FinancialTable, name, slug string) *FinancialRecord {
	return NewFinancialResolver(table).Lookup(name, slug)
}

// LatestYearFigures returns the figures of the numerically largest year in
// rec's history, or nil when there is none. Keys that are not numbers are ignored.
func LatestYearFigures(rec *FinancialRecord) *model.Financials {
	if rec == nil || len(rec.FinancialsByYear) == 0 {
		return nil
	}

	bestYear, bestKey := 0, ""
	for key := range rec.FinancialsByYear {
		y, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			continue
		}
		if bestKey == "" || y > bestYear {
			bestYear, bestKey = y, key
		}
	}
	if bestKey == "" {
		return nil
	}

	f := model.FromYearFigures(bestYear, rec.FinancialsByYear[bestKey])
	return &f
}

// FinancialsByYear converts rec's full history to the emitted shape, or nil.
func FinancialsByYear(rec *FinancialRecord) map[string]model.Financials {
	if rec == nil || len(rec.FinancialsByYear) == 0 {
		return nil
	}
	out := make(map[string]model.Financials, len(rec.FinancialsByYear))
	for key, figures := range rec.FinancialsByYear {
		y, _ := strconv.Atoi(strings.TrimSpace(key))
		out[key] = model.FromYearFigures(y, figures)
	}
	return out
}
