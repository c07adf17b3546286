package timetable

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rmrobinson/timetables/services/transit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/net/html"
)

func testIndex() transit.ConnectionIndex {
	return transit.NewConnectionIndex([]*transit.Segment{
		{
			FromStation: "Celje", ToStation: "Zidani Most", TripID: "T2",
			DepartureTime: "07:02:00", ArrivalTime: "07:20:00", AgencyName: "Slovenske železnice",
			Dates: []string{"20250106", "20250107"},
		},
		{
			FromStation: "Celje", ToStation: "Zidani Most", TripID: "T3",
			DepartureTime: "", ArrivalTime: "08:00:00",
			Dates: []string{"20250106"},
		},
		{
			FromStation: "Celje", ToStation: "Zidani Most", TripID: "T4",
			DepartureTime: "07:02:00", ArrivalTime: "07:20:00", AgencyName: "Slovenske železnice",
			Dates: []string{"20250107", "20250108", "20250120"},
		},
		{
			FromStation: "Šentjur", ToStation: "Celje", TripID: "T9",
			DepartureTime: "06:00:00", ArrivalTime: "06:15:00", AgencyName: "Arriva <Štajerska>",
			Dates: []string{"20250110"},
		},
	})
}

func testRenderer(t *testing.T, dir string, mode Mode) *Renderer {
	loc, err := time.LoadLocation("Europe/Ljubljana")
	require.NoError(t, err)

	r, err := NewRenderer(zaptest.NewLogger(t), RenderConfig{
		OutDir:     dir,
		WindowDays: 3,
		Location:   loc,
		Mode:       mode,
		Now: func() time.Time {
			return time.Date(2025, time.January, 6, 8, 0, 0, 0, loc)
		},
	})
	require.NoError(t, err)
	return r
}

func parseHTML(t *testing.T, path string) *html.Node {
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	doc, err := html.Parse(f)
	require.NoError(t, err)
	return doc
}

func findAll(n *html.Node, tag string) []*html.Node {
	var ret []*html.Node
	if n.Type == html.ElementNode && n.Data == tag {
		ret = append(ret, n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		ret = append(ret, findAll(c, tag)...)
	}
	return ret
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func text(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(text(c))
	}
	return b.String()
}

func rowTexts(n *html.Node) [][]string {
	var ret [][]string
	for _, tr := range findAll(n, "tr") {
		var cells []string
		for _, td := range findAll(tr, "td") {
			cells = append(cells, text(td))
		}
		if len(cells) > 0 {
			ret = append(ret, cells)
		}
	}
	return ret
}

func TestRenderDaily(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "stale-route.html"), []byte("old"), 0644))
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, IndexFileName), []byte("old"), 0644))
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep"), 0644))

	pages, err := testRenderer(t, dir, ModeDaily).Render(testIndex())
	require.NoError(t, err)
	assert.Equal(t, []string{"celje-zidani-most.html", "sentjur-celje.html"}, pages)

	_, err = os.Stat(filepath.Join(dir, "stale-route.html"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "notes.txt"))
	assert.NoError(t, err)

	// Every route link on the index resolves to a written page.
	var linked []string
	for _, a := range findAll(parseHTML(t, filepath.Join(dir, IndexFileName)), "a") {
		href, _ := attr(a, "href")
		if href == "./routes.html" || href == "./out.json" {
			continue
		}
		require.True(t, strings.HasPrefix(href, "./"), href)
		_, err := os.Stat(filepath.Join(dir, strings.TrimPrefix(href, "./")))
		assert.NoError(t, err, href)
		linked = append(linked, strings.TrimPrefix(href, "./"))
	}
	assert.Equal(t, pages, linked)

	doc := parseHTML(t, filepath.Join(dir, "celje-zidani-most.html"))
	titles := findAll(doc, "title")
	require.Len(t, titles, 1)
	assert.Equal(t, "Celje – Zidani Most", text(titles[0]))

	details := findAll(doc, "details")
	require.Len(t, details, 3)
	for i, d := range details {
		_, open := attr(d, "open")
		assert.Equal(t, i == 0, open)
	}
	id, _ := attr(details[0], "id")
	assert.Equal(t, "d20250106", id)

	summaries := findAll(details[0], "summary")
	require.Len(t, summaries, 1)
	assert.Equal(t, "pon 06. 01. (2)", text(summaries[0]))

	assert.Equal(t, [][]string{
		{"07:02:00", "07:20:00", "Slovenske železnice"},
		{"—", "08:00:00", "—"},
	}, rowTexts(details[0]))
	// T2 and T4 run on the 7th with the same times and carrier.
	assert.Equal(t, [][]string{
		{"07:02:00", "07:20:00", "Slovenske železnice"},
	}, rowTexts(details[1]))

	// A day without service gets a single placeholder row.
	other := parseHTML(t, filepath.Join(dir, "sentjur-celje.html"))
	for _, d := range findAll(other, "details") {
		assert.Equal(t, [][]string{{"—", "—", "—"}}, rowTexts(d))
	}

	b, err := ioutil.ReadFile(filepath.Join(dir, IndexJSONFileName))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"agency_name": "Arriva <Štajerska>"`)

	ci, err := LoadIndex(filepath.Join(dir, IndexJSONFileName))
	require.NoError(t, err)
	assert.Equal(t, testIndex(), ci)
}

func TestRenderEscapes(t *testing.T) {
	dir := t.TempDir()
	r := testRenderer(t, dir, ModeDaily)
	r.cfg.Now = func() time.Time {
		return time.Date(2025, time.January, 10, 8, 0, 0, 0, r.cfg.Location)
	}
	_, err := r.Render(testIndex())
	require.NoError(t, err)

	b, err := ioutil.ReadFile(filepath.Join(dir, "sentjur-celje.html"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "Arriva &lt;Štajerska&gt;")
	assert.NotContains(t, string(b), "<Štajerska>")
}

func TestRenderCompact(t *testing.T) {
	dir := t.TempDir()
	_, err := testRenderer(t, dir, ModeCompact).Render(testIndex())
	require.NoError(t, err)

	doc := parseHTML(t, filepath.Join(dir, "celje-zidani-most.html"))
	assert.Empty(t, findAll(doc, "details"))
	assert.Equal(t, [][]string{
		{"07:02:00", "07:20:00", "Slovenske železnice", "20250106..20250108,20250120"},
		{"—", "08:00:00", "—", "20250106"},
	}, rowTexts(doc))
}

func TestRenderEmpty(t *testing.T) {
	dir := t.TempDir()
	pages, err := testRenderer(t, dir, ModeDaily).Render(transit.NewConnectionIndex(nil))
	require.NoError(t, err)
	assert.Empty(t, pages)

	for _, name := range []string{IndexFileName, RoutesFileName} {
		items := findAll(parseHTML(t, filepath.Join(dir, name)), "li")
		require.Len(t, items, 1)
		assert.Equal(t, "Ni relacij.", text(items[0]))
	}

	b, err := ioutil.ReadFile(filepath.Join(dir, IndexJSONFileName))
	require.NoError(t, err)
	assert.Equal(t, "{}\n", string(b))
}

func TestNewRendererInvalidMode(t *testing.T) {
	_, err := NewRenderer(zaptest.NewLogger(t), RenderConfig{Mode: "weekly"})
	assert.True(t, errors.Is(err, ErrInvalidMode))
}
