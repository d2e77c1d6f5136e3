package sources

import (
	"github.com/bradykim7/bookscraper/internal/crawler"
)

const (
	booksName    = "books"
	booksBaseURL = "https://books.toscrape.com/"
)

// BooksToScrape reads the books.toscrape.com catalog: one article.product_pod
// per book, with the title in the link's title attribute and the price as
// displayed, currency symbol included.
type BooksToScrape struct {
	profile *crawler.Profile
}

// NewBooksToScrape creates the books.toscrape.com source
func NewBooksToScrape() *BooksToScrape {
	return &BooksToScrape{
		profile: &crawler.Profile{
			Name:    booksName,
			SeedURL: booksBaseURL,
			Entry:   "article.product_pod",
			Fields: []crawler.FieldRule{
				{Name: "title", Selector: "h3 > a", Attr: "title"},
				{Name: "price", Selector: ".price_color"},
			},
			Next: crawler.LinkRule{Selector: "li.next a", Attr: "href"},
		},
	}
}

// Name returns the name of the source
func (s *BooksToScrape) Name() string {
	return booksName
}

// SeedURL returns the catalog's first page
func (s *BooksToScrape) SeedURL() string {
	return booksBaseURL
}

// Profile returns the books.toscrape.com selectors
func (s *BooksToScrape) Profile() *crawler.Profile {
	return s.profile
}
