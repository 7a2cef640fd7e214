package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFeed(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadArticles_WellFormed(t *testing.T) {
	path := writeFeed(t, "gdpr.json", `[
		{"id": "GDPR_art5", "regulation": "GDPR", "article_number": "5", "title": "Principles", "full_text": "Personal data shall be processed lawfully."},
		{"id": "GDPR_art6", "regulation": "GDPR", "article_number": "6", "title": "Lawfulness", "full_text": "Processing shall be lawful only if permitted."}
	]`)

	articles, err := LoadArticles(path)
	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Equal(t, "GDPR_5", articles[0].NodeID())
}

func TestLoadArticles_MalformedRecordSkipped(t *testing.T) {
	path := writeFeed(t, "feed.json", `[
		{"id": "", "regulation": "GDPR", "article_number": "5", "full_text": "text"},
		{"id": "GDPR_art6", "regulation": "GDPR", "article_number": "", "full_text": "text"},
		{"id": "GDPR_art7", "regulation": "GDPR", "article_number": "7", "full_text": ""},
		{"id": "GDPR_art8", "regulation": "GDPR", "article_number": "8", "full_text": "Valid body."}
	]`)

	articles, err := LoadArticles(path)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "GDPR_art8", articles[0].ID)
}

func TestLoadArticles_MissingRegulationDefaults(t *testing.T) {
	path := writeFeed(t, "feed.json",
		`[{"id": "x_art1", "article_number": "1", "full_text": "Some body text."}]`)

	articles, err := LoadArticles(path)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, RegulationUnknown, articles[0].Regulation)
}

func TestLoadArticles_MissingFileSkipped(t *testing.T) {
	good := writeFeed(t, "good.json",
		`[{"id": "GDPR_art1", "regulation": "GDPR", "article_number": "1", "full_text": "Body."}]`)

	articles, err := LoadArticles(filepath.Join(t.TempDir(), "absent.json"), good)
	require.NoError(t, err)
	assert.Len(t, articles, 1)
}

func TestLoadArticles_UnparseableFileFails(t *testing.T) {
	path := writeFeed(t, "broken.json", `{not json`)

	_, err := LoadArticles(path)
	assert.Error(t, err)
}

func TestLoadArticles_MultipleFeeds(t *testing.T) {
	gdpr := writeFeed(t, "gdpr.json",
		`[{"id": "GDPR_art1", "regulation": "GDPR", "article_number": "1", "full_text": "GDPR body."}]`)
	aiAct := writeFeed(t, "ai_act.json",
		`[{"id": "AIACT_art1", "regulation": "EU_AI_Act", "article_number": "1", "full_text": "AI Act body."}]`)

	articles, err := LoadArticles(gdpr, aiAct)
	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Equal(t, "GDPR_1", articles[0].NodeID())
	assert.Equal(t, "EU_AI_Act_1", articles[1].NodeID())
}
