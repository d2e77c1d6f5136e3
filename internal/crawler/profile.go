package crawler

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"gopkg.in/yaml.v3"
)

// FieldRule locates one record field inside a catalog entry node. When Attr
// is set the field is that attribute of the first matching node that has it;
// otherwise it is the first non-empty text node directly inside a matching
// node. Text of nested elements is not included.
type FieldRule struct {
	Name     string `yaml:"name"`
	Selector string `yaml:"selector"`
	Attr     string `yaml:"attr,omitempty"`
	Trim     bool   `yaml:"trim,omitempty"`

	matcher goquery.Matcher
}

// LinkRule locates the next-page link on a listing page.
type LinkRule struct {
	Selector string `yaml:"selector"`
	Attr     string `yaml:"attr,omitempty"`

	matcher goquery.Matcher
}

// Profile describes how to read one catalog site: which nodes are catalog
// entries, which fields each entry yields, and where the next-page link is.
type Profile struct {
	Name    string      `yaml:"name"`
	SeedURL string      `yaml:"seed_url,omitempty"`
	Entry   string      `yaml:"entry"`
	Fields  []FieldRule `yaml:"fields"`
	Next    LinkRule    `yaml:"next"`

	entry    goquery.Matcher
	compiled bool
}

// LoadProfile reads a profile from a YAML file and compiles it.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file: %w", err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile file: %w", err)
	}

	if err := p.Compile(); err != nil {
		return nil, fmt.Errorf("invalid profile %s: %w", path, err)
	}
	return &p, nil
}

// Compile validates the profile and compiles its selectors. It is safe to
// call more than once.
func (p *Profile) Compile() error {
	if p.compiled {
		return nil
	}
	if strings.TrimSpace(p.Entry) == "" {
		return errors.New("entry selector is required")
	}
	if len(p.Fields) == 0 {
		return errors.New("at least one field is required")
	}
	if strings.TrimSpace(p.Next.Selector) == "" {
		return errors.New("next selector is required")
	}

	entry, err := compileSelector(p.Entry)
	if err != nil {
		return fmt.Errorf("entry: %w", err)
	}

	// Nothing is stored on the profile until every rule has compiled.
	fieldMatchers := make([]goquery.Matcher, len(p.Fields))
	seen := make(map[string]bool, len(p.Fields))
	for i, rule := range p.Fields {
		if rule.Name == "" {
			return fmt.Errorf("field %d: name is required", i)
		}
		if seen[rule.Name] {
			return fmt.Errorf("field %q: duplicate name", rule.Name)
		}
		seen[rule.Name] = true

		fieldMatchers[i], err = compileSelector(rule.Selector)
		if err != nil {
			return fmt.Errorf("field %q: %w", rule.Name, err)
		}
	}

	nextMatcher, err := compileSelector(p.Next.Selector)
	if err != nil {
		return fmt.Errorf("next: %w", err)
	}

	for i := range p.Fields {
		p.Fields[i].matcher = fieldMatchers[i]
	}
	p.Next.matcher = nextMatcher
	if p.Next.Attr == "" {
		p.Next.Attr = "href"
	}
	p.entry = entry
	p.compiled = true
	return nil
}

// FieldNames returns the names of the fields every record will carry.
func (p *Profile) FieldNames() []string {
	names := make([]string, len(p.Fields))
	for i, f := range p.Fields {
		names[i] = f.Name
	}
	return names
}

func compileSelector(selector string) (goquery.Matcher, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return sel, nil
}
