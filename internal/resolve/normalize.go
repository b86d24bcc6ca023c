// Package resolve turns free-text company names into slugs and joins them
// against the financial-facts table.
package resolve

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// legalForms lists corporate-form tokens removed as whole words.
var legalForms = map[string]bool{
	"inc": true, "incorporated": true,
	"corp": true, "corporation": true,
	"co": true, "company": true,
	"llc": true, "ltd": true, "limited": true,
	"plc": true, "lp": true, "llp": true,
	"gmbh": true, "ag": true, "sa": true, "nv": true, "bv": true,
	"pty": true,
}

// domainSuffixes are stripped when generating slug variations.
var domainSuffixes = []string{"com", "net", "io", "ai"}

// genericDescriptors are stripped when generating slug variations.
var genericDescriptors = []string{"platforms", "holdings", "international", "worldwide", "global"}

var punctuation = strings.NewReplacer(
	".", "", ",", "", "'", "", "’", "", "\"", "",
	"(", "", ")", "", "!", "", "?", "", ":", "", ";", "",
	"&", "", "/", "", "\\", "", "|", "", "@", "", "#", "",
	"*", "", "+", "", "=", "", "[", "", "]", "", "{", "",
	"}", "", "<", "", ">", "", "~", "", "`", "", "^", "",
	"_", " ",
)

var multiHyphenRe = regexp.MustCompile(`-{2,}`)

// fold strips diacritics so "Nestlé" and "Nestle" normalize alike.
func fold(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Normalize standardizes a company name for matching by:
//  1. Folding diacritics and lowercasing
//  2. Stripping punctuation (underscores become spaces; hyphens inside a
//     word are kept, so "Coca-Cola" stays one word)
//  3. Collapsing whitespace
//  4. Removing legal-form tokens (inc, corp, llc, ...) wherever they appear
//
// A name made only of legal-form tokens keeps them, so "Company" does not
// normalize to nothing.
func Normalize(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	name = strings.ToLower(fold(name))
	name = punctuation.Replace(name)

	words := make([]string, 0, 4)
	for _, w := range strings.Fields(name) {
		if w = strings.Trim(w, "-"); w != "" {
			words = append(words, w)
		}
	}
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if !legalForms[w] {
			kept = append(kept, w)
		}
	}
	if len(kept) == 0 {
		kept = words
	}

	return strings.Join(kept, " ")
}

// Slugify returns the hyphenated form of Normalize(name).
func Slugify(name string) string {
	return slugFromText(Normalize(name))
}

func slugFromText(text string) string {
	s := strings.Join(strings.Fields(text), "-")
	s = multiHyphenRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// SlugVariations returns the base slug of name followed by the alternates the
// resolver also accepts: domain suffixes removed, the first word alone when it
// is longer than three characters, generic descriptors removed, and a trailing
// "com" sliced off. Results are distinct and never empty; order is base first.
func SlugVariations(name string) []string {
	text := Normalize(name)
	base := slugFromText(text)
	if base == "" {
		return nil
	}

	out := []string{base}
	seen := map[string]bool{base: true}
	add := func(s string) {
		s = strings.Trim(s, "-")
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}

	add(slugFromText(stripWords(text, domainSuffixes)))

	if words := strings.Fields(text); len(words) > 0 && utf8.RuneCountInString(words[0]) > 3 {
		add(words[0])
	}

	add(slugFromText(stripWords(text, genericDescriptors)))

	if strings.HasSuffix(base, "com") {
		add(strings.TrimSuffix(base, "com"))
	}

	return out
}

// stripWords removes each of words wherever it appears as a whole word, then
// removes the first of them found as a bare trailing suffix of what is left.
func stripWords(text string, words []string) string {
	drop := make(map[string]bool, len(words))
	for _, w := range words {
		drop[w] = true
	}

	var kept []string
	for _, f := range strings.Fields(text) {
		if !drop[f] {
			kept = append(kept, f)
		}
	}
	out := strings.Join(kept, " ")

	for _, w := range words {
		if strings.HasSuffix(out, w) {
			out = strings.TrimSuffix(out, w)
			break
		}
	}
	return strings.TrimSpace(out)
}
