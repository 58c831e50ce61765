package search

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalog = `
news_sources:
  core:
    enabled: true
    items:
      google_news:
        enabled: true
        match_names: ["Google News"]
      hacker_news:
        search_query: "site:news.ycombinator.com"
        match_names: ["Hacker News"]
      disabled_src:
        enabled: false
        match_names: ["Gone"]
  other:
    items:
      the_verge:
        search_query: "site:theverge.com"
`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCatalogParsesGroupsAndSources(t *testing.T) {
	cat, err := LoadCatalog(writeCatalog(t, sampleCatalog))
	require.NoError(t, err)

	core, ok := cat.Groups["core"]
	require.True(t, ok)
	assert.True(t, core.IsEnabled())
	assert.Len(t, core.Items, 3)

	hn := core.Items["hacker_news"]
	assert.True(t, hn.IsEnabled(), "missing enabled flag defaults to true")
	assert.Equal(t, "site:news.ycombinator.com", hn.SearchQuery)
	assert.Equal(t, "Hacker News", hn.DisplayName("hacker_news"))

	verge := cat.Groups["other"].Items["the_verge"]
	assert.Equal(t, "the_verge", verge.DisplayName("the_verge"), "falls back to map key")

	assert.False(t, core.Items["disabled_src"].IsEnabled())
}

func TestCoreNamesSkipsDisabledSources(t *testing.T) {
	cat, err := LoadCatalog(writeCatalog(t, sampleCatalog))
	require.NoError(t, err)

	names := cat.CoreNames()
	assert.ElementsMatch(t, []string{"Google News", "Hacker News"}, names)
}

func TestLoadCatalogMissingFileYieldsEmptyCatalog(t *testing.T) {
	cat, err := LoadCatalog(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, cat.Groups)
	assert.Nil(t, cat.CoreNames())
}

func TestLoadCatalogMalformedFileErrors(t *testing.T) {
	_, err := LoadCatalog(writeCatalog(t, "news_sources: [not, a, map]"))
	assert.Error(t, err)
}
