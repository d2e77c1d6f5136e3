package crawler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileCompile(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Profile)
		wantErr string
	}{
		{"valid", func(*Profile) {}, ""},
		{"missing entry", func(p *Profile) { p.Entry = " " }, "entry selector is required"},
		{"no fields", func(p *Profile) { p.Fields = nil }, "at least one field is required"},
		{"missing next", func(p *Profile) { p.Next.Selector = "" }, "next selector is required"},
		{"unnamed field", func(p *Profile) { p.Fields[0].Name = "" }, "name is required"},
		{"duplicate field", func(p *Profile) { p.Fields[1].Name = "title" }, "duplicate name"},
		{"bad entry selector", func(p *Profile) { p.Entry = "article[" }, "invalid selector"},
		{"bad field selector", func(p *Profile) { p.Fields[1].Selector = "p..x" }, "invalid selector"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testProfile()
			tt.mutate(p)

			err := p.Compile()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestProfileCompileDefaultsNextAttr(t *testing.T) {
	p := testProfile()
	require.NoError(t, p.Compile())
	assert.Equal(t, "href", p.Next.Attr)
	assert.Equal(t, []string{"title", "price"}, p.FieldNames())

	// Compiling again is a no-op.
	require.NoError(t, p.Compile())
}

func TestLoadProfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quotes.yaml")
	content := `name: quotes
seed_url: https://quotes.example/
entry: div.quote
fields:
  - name: text
    selector: span.text
    trim: true
  - name: author
    selector: small.author
next:
  selector: li.next > a
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	p, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "quotes", p.Name)
	assert.Equal(t, "https://quotes.example/", p.SeedURL)
	assert.Equal(t, []string{"text", "author"}, p.FieldNames())
	assert.True(t, p.Fields[0].Trim)
	assert.Equal(t, "href", p.Next.Attr)
}

func TestLoadProfileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadProfile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	badYAML := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(badYAML, []byte("fields: [unclosed"), 0o644))
	_, err = LoadProfile(badYAML)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("name: x\nentry: div\n"), 0o644))
	_, err = LoadProfile(invalid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one field is required")
}

func TestProfileCompileFailureLeavesProfileUnchanged(t *testing.T) {
	p := testProfile()
	p.Next.Selector = "li.next a["

	require.Error(t, p.Compile())
	for _, f := range p.Fields {
		assert.Nil(t, f.matcher, "field %q", f.Name)
	}
	assert.Nil(t, p.Next.matcher)
	assert.Empty(t, p.Next.Attr)
	assert.Nil(t, p.entry)
	assert.False(t, p.compiled)

	p.Next.Selector = "li.next a"
	require.NoError(t, p.Compile())
	assert.NotNil(t, p.Next.matcher)
	assert.Equal(t, "href", p.Next.Attr)
}
