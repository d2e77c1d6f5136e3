package crawler

import (
	"iter"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/bradykim7/bookscraper/internal/models"
	"golang.org/x/net/html"
)

// Extractor turns catalog entry nodes into records. It holds no per-page
// state, so extracting the same page twice yields equal records.
type Extractor struct {
	profile *Profile
}

// NewExtractor creates an extractor for the given profile.
func NewExtractor(p *Profile) (*Extractor, error) {
	if err := p.Compile(); err != nil {
		return nil, err
	}
	return &Extractor{profile: p}, nil
}

// Records yields one record per catalog entry node, in document order.
// The sequence is lazy and may be ranged over any number of times.
func (e *Extractor) Records(page *Page) iter.Seq[models.Record] {
	return func(yield func(models.Record) bool) {
		entries := page.Doc.FindMatcher(e.profile.entry)
		for i := range entries.Length() {
			if !yield(e.parseRecord(entries.Eq(i))) {
				return
			}
		}
	}
}

// Extract returns all records of the page.
func (e *Extractor) Extract(page *Page) []models.Record {
	return slices.Collect(e.Records(page))
}

// parseRecord reads every field of one entry. A field that cannot be found
// is null; the record is never skipped.
func (e *Extractor) parseRecord(entry *goquery.Selection) models.Record {
	fields := make([]models.Field, 0, len(e.profile.Fields))
	for _, rule := range e.profile.Fields {
		value, ok := rule.read(entry)
		if !ok {
			fields = append(fields, models.Null(rule.Name))
			continue
		}
		fields = append(fields, models.Text(rule.Name, value))
	}
	return models.NewRecord(fields...)
}

func (r FieldRule) read(entry *goquery.Selection) (string, bool) {
	matches := entry.FindMatcher(r.matcher)
	if matches.Length() == 0 {
		return "", false
	}

	var value string
	if r.Attr != "" {
		found := false
		matches.EachWithBreak(func(_ int, s *goquery.Selection) bool {
			value, found = s.Attr(r.Attr)
			return !found
		})
		if !found {
			return "", false
		}
	} else {
		text := matches.Contents().FilterFunction(func(_ int, s *goquery.Selection) bool {
			n := s.Get(0)
			return n.Type == html.TextNode && n.Data != ""
		}).First()
		if text.Length() == 0 {
			return "", false
		}
		value = text.Get(0).Data
	}

	if r.Trim {
		value = strings.TrimSpace(value)
	}
	return value, true
}
