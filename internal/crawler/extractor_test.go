package crawler

import (
	"testing"

	"github.com/bradykim7/bookscraper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractYieldsOneRecordPerEntryInOrder(t *testing.T) {
	page := mustPage(t, "https://books.example/", listing("",
		entry("A Light in the Attic", "£51.77"),
		entry("Tipping the Velvet", "£53.74"),
		entry("Soumission", "£50.10"),
	))

	ext, err := NewExtractor(testProfile())
	require.NoError(t, err)

	got := ext.Extract(page)
	assert.Equal(t, []models.Record{
		record("A Light in the Attic", ptr("£51.77")),
		record("Tipping the Velvet", ptr("£53.74")),
		record("Soumission", ptr("£50.10")),
	}, got)
}

func TestExtractMissingFieldIsNull(t *testing.T) {
	page := mustPage(t, "https://books.example/", listing("",
		entryNoPrice("B"),
		`<article class="product_pod"></article>`,
		`<article class="product_pod"><h3><a title="D">D</a></h3><p class="price_color"></p></article>`,
	))

	ext, err := NewExtractor(testProfile())
	require.NoError(t, err)

	got := ext.Extract(page)
	require.Len(t, got, 3)
	assert.Equal(t, record("B", nil), got[0])
	assert.Equal(t, record("D", nil), got[2], "empty price node")

	assert.Equal(t, []string{"title", "price"}, got[1].Keys(), "all-null record is still emitted")
	_, ok := got[1].Lookup("title")
	assert.False(t, ok)
}

func TestExtractIsRestartable(t *testing.T) {
	page := mustPage(t, "https://books.example/", listing("", entry("A", "$10"), entryNoPrice("B")))

	ext, err := NewExtractor(testProfile())
	require.NoError(t, err)

	first := ext.Extract(page)
	second := ext.Extract(page)
	assert.Equal(t, first, second)
	assert.Equal(t, first[0].String(), second[0].String())
}

func TestRecordsStopsWhenConsumerStops(t *testing.T) {
	page := mustPage(t, "https://books.example/", listing("", entry("A", "1"), entry("B", "2"), entry("C", "3")))

	ext, err := NewExtractor(testProfile())
	require.NoError(t, err)

	var titles []string
	for r := range ext.Records(page) {
		title, _ := r.Lookup("title")
		titles = append(titles, title)
		if len(titles) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"A", "B"}, titles)
}

func TestExtractNoEntries(t *testing.T) {
	page := mustPage(t, "https://books.example/", listing(""))

	ext, err := NewExtractor(testProfile())
	require.NoError(t, err)
	assert.Empty(t, ext.Extract(page))
}

func TestFieldRuleReading(t *testing.T) {
	html := `<html><body><div class="item">
<a class="link">no title here</a>
<a class="link" title="Second">x</a>
<span class="price">
  $12.00
</span>
<p class="empty"></p>
<p class="nested"><span>£</span>10</p>
<p class="markup-only"><b>bold</b></p>
<i class="multi"></i><i class="multi">second</i>
</div></body></html>`

	tests := []struct {
		name   string
		rule   FieldRule
		want   string
		wantOK bool
	}{
		{"first match with attribute", FieldRule{Name: "t", Selector: "a.link", Attr: "title"}, "Second", true},
		{"text of first match", FieldRule{Name: "t", Selector: "a.link"}, "no title here", true},
		{"text is kept raw", FieldRule{Name: "p", Selector: ".price"}, "\n  $12.00\n", true},
		{"trimmed text", FieldRule{Name: "p", Selector: ".price", Trim: true}, "$12.00", true},
		{"empty node is null", FieldRule{Name: "p", Selector: ".empty"}, "", false},
		{"direct text only", FieldRule{Name: "p", Selector: ".nested"}, "10", true},
		{"nested text only is null", FieldRule{Name: "p", Selector: ".markup-only"}, "", false},
		{"first text across matches", FieldRule{Name: "p", Selector: ".multi"}, "second", true},
		{"attribute missing everywhere", FieldRule{Name: "t", Selector: "a.link", Attr: "data-id"}, "", false},
		{"no match", FieldRule{Name: "t", Selector: "h1"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Profile{Entry: "div.item", Fields: []FieldRule{tt.rule}, Next: LinkRule{Selector: "a.next"}}
			ext, err := NewExtractor(p)
			require.NoError(t, err)

			records := ext.Extract(mustPage(t, "https://example.com/", html))
			require.Len(t, records, 1)

			got, ok := records[0].Lookup(tt.rule.Name)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
