package crawler

import (
	"fmt"
	"io"
	"net/url"

	"github.com/PuerkitoBio/goquery"
)

// Page is a fetched and parsed listing page. URL is the final URL after
// redirects and is the base for resolving relative links.
type Page struct {
	URL        *url.URL
	StatusCode int
	Doc        *goquery.Document
}

// NewPage parses an HTML document read from r. It is used by the fetcher and
// by tests that build pages from fixtures.
func NewPage(rawURL string, r io.Reader) (*Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &ParseError{URL: rawURL, Err: fmt.Errorf("%w: %v", ErrInvalidURL, err)}
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, &ParseError{URL: rawURL, Err: err}
	}
	doc.Url = u

	return &Page{URL: u, Doc: doc}, nil
}
