// Package industry tags public companies with industries by keyword.
package industry

import (
	_ "embed"
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/compgraph/internal/model"
)

//go:embed industries.yaml
var defaultTable []byte

// Table maps an industry to the keywords that indicate it.
type Table struct {
	Industries map[string][]string `yaml:"industries"`
}

// ContextSource returns the context texts recorded for an entity.
type ContextSource interface {
	Contexts(slug string) []string
}

// Default returns the built-in table.
func Default() (*Table, error) {
	return parse(defaultTable)
}

// LoadTable reads a table from a YAML file, or returns the built-in table
// when path is empty.
func LoadTable(path string) (*Table, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "industry: read table %s", path)
	}
	return parse(data)
}

func parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, eris.Wrap(err, "industry: parse table")
	}
	if len(t.Industries) == 0 {
		return nil, eris.New("industry: table has no industries")
	}
	for name, keywords := range t.Industries {
		lowered := make([]string, 0, len(keywords))
		for _, k := range keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				lowered = append(lowered, k)
			}
		}
		t.Industries[name] = lowered
	}
	return &t, nil
}

// Match returns the sorted industries with a keyword contained in text.
// Containment is a plain substring test, so "chip" also matches "chipset".
func (t *Table) Match(text string) []string {
	text = strings.ToLower(text)
	var out []string
	for name, keywords := range t.Industries {
		for _, k := range keywords {
			if strings.Contains(text, k) {
				out = append(out, name)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

// Assign tags every public entity from its concatenated contexts, sets
// Entity.Industries, and returns industry to sorted member slugs. Industries
// with no members are omitted.
func Assign(entities []*model.Entity, src ContextSource, t *Table) map[string][]string {
	out := make(map[string][]string)
	for _, e := range entities {
		if !e.IsPublic {
			continue
		}
		text := strings.Join(src.Contexts(e.Slug), " ")
		e.Industries = t.Match(text)
		for _, name := range e.Industries {
			out[name] = append(out[name], e.Slug)
		}
	}
	for name := range out {
		sort.Strings(out[name])
	}
	return out
}
