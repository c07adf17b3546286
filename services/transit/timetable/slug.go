package timetable

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const defaultSlug = "route"

var dashReplacer = strings.NewReplacer("–", "-", "—", "-")

// Slug converts a station name into a lowercase ASCII-friendly file name component.
// Accents are stripped, every other non-alphanumeric rune becomes a single '-', and an empty result becomes "route".
func Slug(s string) string {
	s = dashReplacer.Replace(s)

	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	stripped, _, err := transform.String(t, s)
	if err == nil {
		s = stripped
	}
	s = strings.TrimSpace(strings.ToLower(s))

	var b strings.Builder
	lastDash := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			b.WriteByte('-')
			lastDash = true
		}
	}

	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return defaultSlug
	}
	return slug
}

// RouteFileName is the page name of the connections from one station to another.
func RouteFileName(from, to string) string {
	return Slug(from) + "-" + Slug(to) + ".html"
}
