package crawler

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Paginator finds the next-page link of a listing page.
type Paginator struct {
	rule LinkRule
}

// NewPaginator creates a paginator for the given profile.
func NewPaginator(p *Profile) (*Paginator, error) {
	if err := p.Compile(); err != nil {
		return nil, err
	}
	return &Paginator{rule: p.Next}, nil
}

// NextLink returns the absolute URL of the next page. ok is false when the
// page has no next link, which ends the crawl. Relative links are resolved
// against the page's final URL.
func (p *Paginator) NextLink(page *Page) (next string, ok bool, err error) {
	var href string
	page.Doc.FindMatcher(p.rule.matcher).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, ok = s.Attr(p.rule.Attr)
		return !ok
	})
	href = strings.TrimSpace(href)
	if !ok || href == "" {
		return "", false, nil
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false, &ParseError{URL: page.URL.String(), Err: fmt.Errorf("bad next link %q: %w", href, err)}
	}
	return page.URL.ResolveReference(ref).String(), true, nil
}
