package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type slugTest struct {
	name   string
	text   string
	result string
}

var slugTests = []slugTest{
	{"plain", "Celje", "celje"},
	{"carons", "Šmarje pri Jelšah", "smarje-pri-jelsah"},
	{"dashes", "Ljubljana – Tivoli — Center", "ljubljana-tivoli-center"},
	{"punctuation collapses", "Novo mesto (AP), peron 3", "novo-mesto-ap-peron-3"},
	{"trimmed", "  -Kranj-  ", "kranj"},
	{"underscore", "postaja_1", "postaja-1"},
	{"compatibility forms", "Ｋｏｐｅｒ", "koper"},
	{"nothing left", "–—!?", "route"},
	{"empty", "", "route"},
	{"letters without decomposition", "Łódź", "łodz"},
}

func TestSlug(t *testing.T) {
	for _, tt := range slugTests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.result, Slug(tt.text))
		})
	}
}

func TestRouteFileName(t *testing.T) {
	assert.Equal(t, "celje-zidani-most.html", RouteFileName("Celje", "Zidani Most"))
	assert.Equal(t, "route-route.html", RouteFileName("", "!!"))
}
