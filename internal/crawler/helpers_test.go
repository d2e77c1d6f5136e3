package crawler

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/bradykim7/bookscraper/internal/models"
	"github.com/stretchr/testify/require"
)

func testProfile() *Profile {
	return &Profile{
		Name:  "test",
		Entry: "article.product_pod",
		Fields: []FieldRule{
			{Name: "title", Selector: "h3 > a", Attr: "title"},
			{Name: "price", Selector: ".price_color"},
		},
		Next: LinkRule{Selector: "li.next a"},
	}
}

func entry(title, price string) string {
	return fmt.Sprintf(`<article class="product_pod"><h3><a href="#" title=%q>%s...</a></h3>`+
		`<div class="product_price"><p class="price_color">%s</p></div></article>`, title, title, price)
}

func entryNoPrice(title string) string {
	return fmt.Sprintf(`<article class="product_pod"><h3><a href="#" title=%q>%s...</a></h3></article>`, title, title)
}

func listing(next string, entries ...string) string {
	var b strings.Builder
	b.WriteString("<html><body><ol class=\"row\">")
	for _, e := range entries {
		b.WriteString("<li>" + e + "</li>")
	}
	b.WriteString("</ol>")
	if next != "" {
		fmt.Fprintf(&b, `<ul class="pager"><li class="next"><a href=%q>next</a></li></ul>`, next)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func mustPage(t *testing.T, rawURL, html string) *Page {
	t.Helper()
	page, err := NewPage(rawURL, strings.NewReader(html))
	require.NoError(t, err)
	return page
}

func record(title string, price *string) models.Record {
	if price == nil {
		return models.NewRecord(models.Text("title", title), models.Null("price"))
	}
	return models.NewRecord(models.Text("title", title), models.Text("price", *price))
}

func ptr(s string) *string {
	return &s
}

// fakeFetcher serves canned pages by URL and records every request.
type fakeFetcher struct {
	pages map[string]string
	errs  map[string]error
	calls []string
}

// Fragments are dropped before lookup, as an HTTP client would.
func (f *fakeFetcher) Fetch(_ context.Context, rawURL string) (*Page, error) {
	f.calls = append(f.calls, rawURL)

	key := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		u.Fragment = ""
		key = u.String()
	}

	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	html, ok := f.pages[key]
	if !ok {
		return nil, &FetchError{URL: rawURL, StatusCode: 404, Err: ErrUnexpectedStatus}
	}
	return NewPage(rawURL, strings.NewReader(html))
}

// recordSink keeps accepted records in order.
type recordSink struct {
	records []models.Record
	failAt  int
	err     error
}

func (s *recordSink) Accept(r models.Record) error {
	if s.err != nil && len(s.records) == s.failAt {
		return s.err
	}
	s.records = append(s.records, r)
	return nil
}
