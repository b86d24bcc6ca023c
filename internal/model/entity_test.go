package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYear_Unmarshal(t *testing.T) {
	tests := []struct {
		in      string
		want    Year
		wantErr bool
	}{
		{in: `2024`, want: 2024},
		{in: `"2023"`, want: 2023},
		{in: `" 2022 "`, want: 2022},
		{in: `null`, want: 0},
		{in: `"soon"`, wantErr: true},
		{in: `true`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var y Year
			err := json.Unmarshal([]byte(tt.in), &y)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, y)
		})
	}
}

func TestRawSnapshot_Validate(t *testing.T) {
	ok := RawSnapshot{Company: "Acme", Ticker: "ACME", Year: 2024}
	assert.NoError(t, ok.Validate())

	missing := []RawSnapshot{
		{Ticker: "ACME", Year: 2024},
		{Company: "Acme", Year: 2024},
		{Company: "Acme", Ticker: "ACME"},
		{Company: "  ", Ticker: "ACME", Year: 2024},
	}
	for _, s := range missing {
		assert.Error(t, s.Validate())
	}
}

func TestRawSnapshot_NormalizedTicker(t *testing.T) {
	s := RawSnapshot{Ticker: " msft "}
	assert.Equal(t, "MSFT", s.NormalizedTicker())
}

func TestDisplayValue_Unmarshal(t *testing.T) {
	var f YearFigures
	require.NoError(t, json.Unmarshal([]byte(`{"revenue":"$1.2B","market_cap":42.5,"revenue_raw":1200000000}`), &f))
	assert.Equal(t, DisplayValue("$1.2B"), *f.Revenue)
	assert.Equal(t, DisplayValue("42.5"), *f.MarketCap)
	assert.Equal(t, 1.2e9, *f.RevenueRaw)
	assert.Nil(t, f.MarketCapRaw)

	assert.Error(t, json.Unmarshal([]byte(`{"revenue":{}}`), &f))
}

func TestParseEntityType(t *testing.T) {
	et, ok := ParseEntityType("product")
	assert.True(t, ok)
	assert.Equal(t, EntityProduct, et)

	et, ok = ParseEntityType("conglomerate")
	assert.False(t, ok)
	assert.Equal(t, EntityUnknown, et)

	_, ok = ParseEntityType("")
	assert.False(t, ok)
}

func TestEntity_AddMentionedBy(t *testing.T) {
	e := &Entity{Slug: "widgets"}
	assert.True(t, e.AddMentionedBy(Provenance{Slug: "acme", Year: 2024}))
	assert.False(t, e.AddMentionedBy(Provenance{Slug: "acme", Year: 2024}))
	assert.True(t, e.AddMentionedBy(Provenance{Slug: "acme", Year: 2023}))
	assert.Len(t, e.MentionedBy, 2)
}

func TestEntity_AddCompetitor(t *testing.T) {
	e := &Entity{Slug: "acme"}
	assert.True(t, e.AddCompetitor(EntityRef{Slug: "widgets"}))
	assert.False(t, e.AddCompetitor(EntityRef{Slug: "widgets", Name: "Widgets Inc"}))
	assert.Len(t, e.Competitors, 1)
}

func TestEntity_AddYear(t *testing.T) {
	e := &Entity{}
	for _, y := range []int{2024, 2022, 2024, 2023, 2022} {
		e.AddYear(y)
	}
	assert.Equal(t, []int{2022, 2023, 2024}, e.Years)
}

func TestEntity_AddNote(t *testing.T) {
	e := &Entity{}
	e.AddNote(2024, Note{From: "Acme Corp", Note: "rival"})
	e.AddNote(2024, Note{From: "Globex", Note: ""})
	assert.Equal(t, []Note{{From: "Acme Corp", Note: "rival"}, {From: "Globex"}}, e.Notes["2024"])
}

func TestEntity_RefAndTicker(t *testing.T) {
	e := &Entity{Slug: "acme", Name: "Acme", Ticker: StringPtr("ACME"), IsPublic: true}
	assert.Equal(t, "ACME", e.TickerValue())
	assert.Equal(t, EntityRef{Slug: "acme", Name: "Acme", Ticker: e.Ticker, IsPublic: true}, e.Ref())

	assert.Equal(t, "", (&Entity{}).TickerValue())
	assert.Nil(t, StringPtr(""))
}

func TestEntity_FillEmpty(t *testing.T) {
	e := &Entity{Slug: "x"}
	e.FillEmpty()

	data, err := json.Marshal(e)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"mentionedBy":[]`)
	assert.Contains(t, string(data), `"competitors":[]`)
	assert.NotContains(t, string(data), `"notes"`)
	assert.NotContains(t, string(data), `"years"`)
}
