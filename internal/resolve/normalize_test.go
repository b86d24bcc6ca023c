package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_Empty(t *testing.T) {
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "", Normalize("   "))
	assert.Equal(t, "", Slugify(""))
}

func TestNormalize_Lowercase(t *testing.T) {
	assert.Equal(t, "acme widgets", Normalize("ACME Widgets"))
}

func TestNormalize_StripLegalForms(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Acme Corp", "acme"},
		{"Acme Corporation", "acme"},
		{"Acme, Inc.", "acme"},
		{"Acme Incorporated", "acme"},
		{"Acme Holdings LLC", "acme holdings"},
		{"Acme Ltd", "acme"},
		{"Acme PLC", "acme"},
		{"Siemens AG", "siemens"},
		{"The Walt Disney Company", "the walt disney"},
		{"Inc Acme", "acme"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalize_OnlyLegalForm(t *testing.T) {
	// Nothing would remain, so the tokens are kept.
	assert.Equal(t, "company", Normalize("Company"))
	assert.Equal(t, "co inc", Normalize("Co. Inc."))
}

func TestNormalize_Punctuation(t *testing.T) {
	assert.Equal(t, "att", Normalize("AT&T"))
	assert.Equal(t, "amazoncom", Normalize("Amazon.com"))
	assert.Equal(t, "macys", Normalize("Macy's"))
	assert.Equal(t, "coca-cola", Normalize("Coca-Cola"))
	assert.Equal(t, "alphabet google", Normalize("Alphabet (Google)"))
}

func TestNormalize_CollapseSpaces(t *testing.T) {
	assert.Equal(t, "acme widgets", Normalize("  Acme \t  Widgets  "))
}

func TestNormalize_FoldsDiacritics(t *testing.T) {
	assert.Equal(t, "nestle", Normalize("Nestlé"))
	assert.Equal(t, "l-oreal", Normalize("L-Oréal"))
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Acme Corp", "acme"},
		{"Widgets Inc", "widgets"},
		{"Microsoft Corporation", "microsoft"},
		{"Microsoft", "microsoft"},
		{"Coca-Cola  Co", "coca-cola"},
		{"--Weird -- Name--", "weird-name"},
		{"Hewlett-Packard Co", "hewlett-packard"},
		{"Acme - Widgets", "acme-widgets"},
		{"Salesforce.com, Inc.", "salesforcecom"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.input))
		})
	}
}

func TestSlugify_Deterministic(t *testing.T) {
	names := []string{"Alphabet Inc.", "Meta Platforms", "Nestlé S.A.", "AT&T Inc."}
	for _, n := range names {
		assert.Equal(t, Slugify(n), Slugify(n))
	}
}

func TestSlugVariations_IncludesBase(t *testing.T) {
	for _, name := range []string{"Acme Corp", "Meta Platforms", "Amazon.com", "X", "Shopify"} {
		vars := SlugVariations(name)
		if assert.NotEmpty(t, vars) {
			assert.Equal(t, Slugify(name), vars[0])
		}
		for _, v := range vars {
			assert.NotEmpty(t, v)
		}
	}
}

func TestSlugVariations_Empty(t *testing.T) {
	assert.Empty(t, SlugVariations(""))
	assert.Empty(t, SlugVariations(" ... "))
}

func TestSlugVariations_DomainSuffix(t *testing.T) {
	assert.Equal(t, []string{"amazoncom", "amazon"}, SlugVariations("Amazon.com"))
	assert.Contains(t, SlugVariations("Booking com"), "booking")
	assert.Contains(t, SlugVariations("Monday.io"), "monday")
}

func TestSlugVariations_FirstWord(t *testing.T) {
	vars := SlugVariations("Oracle Cloud Services")
	assert.Contains(t, vars, "oracle")

	// Three characters or fewer is too ambiguous to use alone.
	vars = SlugVariations("IBM Consulting")
	assert.NotContains(t, vars, "ibm")
}

func TestSlugVariations_HyphenatedFirstWord(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		notWant string
	}{
		{"Coca-Cola Bottling", "coca-cola", "coca"},
		{"Hewlett-Packard Enterprise", "hewlett-packard", "hewlett"},
		{"Rolls-Royce Holdings", "rolls-royce", "rolls"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			vars := SlugVariations(tt.input)
			assert.Contains(t, vars, tt.want)
			assert.NotContains(t, vars, tt.notWant)
		})
	}
}

func TestSlugVariations_GenericDescriptors(t *testing.T) {
	assert.Contains(t, SlugVariations("Meta Platforms"), "meta")
	assert.Contains(t, SlugVariations("Marriott International"), "marriott")
	assert.Contains(t, SlugVariations("Acme Global Holdings"), "acme")
}

func TestSlugVariations_Distinct(t *testing.T) {
	vars := SlugVariations("Amazon.com")
	seen := map[string]bool{}
	for _, v := range vars {
		assert.False(t, seen[v], "duplicate variation %q", v)
		seen[v] = true
	}
}
