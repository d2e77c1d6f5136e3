package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewConsoleRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Name: "test", Level: "warn", Console: &buf})
	require.NoError(t, err)

	log.Info("hidden")
	log.Warn("shown", zap.String("key", "value"))
	require.NoError(t, log.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, `"key": "value"`)
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)
}

func TestNewWritesJSONFile(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer

	log, err := New(Options{Name: "bookscraper", Dir: dir, Console: &buf})
	require.NoError(t, err)
	log.Info("crawl started", zap.Int("pages", 3))
	require.NoError(t, log.Sync())

	matches, err := filepath.Glob(filepath.Join(dir, "bookscraper_*.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)

	line := strings.TrimSpace(string(data))
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "crawl started", entry["msg"])
	assert.Equal(t, "bookscraper", entry["logger"])
	assert.Equal(t, float64(3), entry["pages"])
}

func TestNewDefaultLevelFollowsEnvironment(t *testing.T) {
	tests := []struct {
		name      string
		opts      Options
		wantDebug bool
	}{
		{"development without level", Options{Development: true}, true},
		{"production without level", Options{}, false},
		{"explicit level wins in development", Options{Development: true, Level: "info"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.opts.Console = &buf

			log, err := New(tt.opts)
			require.NoError(t, err)
			log.Debug("fetching page")
			require.NoError(t, log.Sync())

			assert.Equal(t, tt.wantDebug, strings.Contains(buf.String(), "fetching page"))
		})
	}
}
