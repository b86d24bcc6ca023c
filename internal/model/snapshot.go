// Package model defines the input snapshots and the entity graph records shared by every stage.
package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Year is a snapshot year. Snapshot files carry it either as a JSON number or
// as a numeric string.
type Year int

// UnmarshalJSON accepts 2024 and "2024".
func (y *Year) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*y = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return eris.Wrap(err, "model: decode year string")
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return eris.Wrapf(err, "model: year %q is not numeric", s)
		}
		*y = Year(n)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return eris.Wrap(err, "model: decode year number")
	}
	*y = Year(int(f))
	return nil
}

// String returns the decimal form used as a notes key.
func (y Year) String() string {
	return strconv.Itoa(int(y))
}

// Mention is a competitor named inside a snapshot.
type Mention struct {
	Name  string `json:"name"`
	Notes string `json:"notes"`
}

// RawSnapshot is one per-company search snapshot file.
type RawSnapshot struct {
	Company     string    `json:"company"`
	Ticker      string    `json:"ticker"`
	Year        Year      `json:"year"`
	SearchQuery string    `json:"search_query,omitempty"`
	SearchDate  string    `json:"search_date,omitempty"`
	Context     string    `json:"context"`
	Sources     []string  `json:"sources"`
	Competitors []Mention `json:"competitors"`

	// File is the base name the snapshot was read from.
	File string `json:"-"`
}

// Validate checks the fields resolution depends on.
func (s *RawSnapshot) Validate() error {
	if strings.TrimSpace(s.Company) == "" {
		return eris.New("model: snapshot missing company")
	}
	if strings.TrimSpace(s.Ticker) == "" {
		return eris.New("model: snapshot missing ticker")
	}
	if s.Year <= 0 {
		return eris.New("model: snapshot missing year")
	}
	return nil
}

// NormalizedTicker is the ticker key used by the public company index.
func (s *RawSnapshot) NormalizedTicker() string {
	return strings.ToUpper(strings.TrimSpace(s.Ticker))
}
