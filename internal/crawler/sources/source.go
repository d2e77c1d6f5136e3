package sources

import (
	"fmt"
	"sort"

	"github.com/bradykim7/bookscraper/internal/crawler"
)

// Source defines a catalog site the crawler knows how to read
type Source interface {
	// Name returns the name of the source
	Name() string

	// SeedURL returns the first listing page
	SeedURL() string

	// Profile returns the selectors used to read the source's pages
	Profile() *crawler.Profile
}

var registry = map[string]func() Source{
	booksName: func() Source { return NewBooksToScrape() },
}

// Lookup returns the built-in source with the given name.
func Lookup(name string) (Source, error) {
	newSource, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown source %q (available: %v)", name, Names())
	}
	return newSource(), nil
}

// Names lists the built-in sources in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// profileSource is a source defined by a profile file.
type profileSource struct {
	profile *crawler.Profile
}

// FromProfile wraps a loaded profile as a source. The profile's name and seed
// URL are used as is.
func FromProfile(p *crawler.Profile) Source {
	return &profileSource{profile: p}
}

func (s *profileSource) Name() string              { return s.profile.Name }
func (s *profileSource) SeedURL() string           { return s.profile.SeedURL }
func (s *profileSource) Profile() *crawler.Profile { return s.profile }
