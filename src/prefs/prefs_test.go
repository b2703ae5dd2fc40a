package prefs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/sofmeright/bravedebloat/src/policy"
)

func editMap(t *testing.T, p *Preferences) map[string]Edit {
	t.Helper()
	edits, err := p.Edits()
	require.NoError(t, err)
	out := map[string]Edit{}
	for _, e := range edits {
		out[string(e.File)+":"+joinPath(e.Path)] = e
	}
	return out
}

func joinPath(path []string) string {
	s := ""
	for i, p := range path {
		if i > 0 {
			s += "."
		}
		s += p
	}
	return s
}

func TestDefaultsEdits(t *testing.T) {
	edits := editMap(t, Defaults())

	assert.Equal(t, "brave", edits["Default/Preferences:default_search_provider_data.keyword"].Value)
	assert.Equal(t, "https://search.brave.com/search?q={searchTerms}", edits["Default/Preferences:default_search_provider_data.search_url"].Value)
	assert.Equal(t, true, edits["Default/Preferences:brave.new_tab_page.show_clock"].Value)
	assert.Equal(t, false, edits["Default/Preferences:brave.stats.enabled"].Value)
	assert.Equal(t, false, edits["Default/Preferences:brave.today.should_show_brave_today_widget"].Value)
	assert.Equal(t, []string{"brave-adblock-experimental-list-default@1"}, edits["Local State:browser.enabled_labs_experiments"].Value)
}

func TestMergeEmptyIsIdentity(t *testing.T) {
	defaults := Defaults()
	merged, err := Merge(defaults, gjson.Parse(`{}`))
	require.NoError(t, err)
	assert.True(t, merged.Settings.Equal(defaults.Settings))
	assert.Equal(t, defaults.Providers, merged.Providers)
}

func TestMergeProviderListDocument(t *testing.T) {
	doc := gjson.Parse(`{
		"search_engines": [
			{"keyword": "ddg", "name": "DuckDuckGo Lite", "search_url": "https://lite.duckduckgo.com/lite/?q={searchTerms}"}
		],
		"dashboard": {"show_clock": false, "show_cards": null},
		"experimental_features": ["a@1", "b@2"]
	}`)

	merged, err := Merge(Defaults(), doc)
	require.NoError(t, err)

	provider, ok := merged.Provider()
	require.True(t, ok)
	assert.Equal(t, "ddg", provider.Keyword, "first listed provider becomes the default")

	edits := editMap(t, merged)
	assert.Equal(t, false, edits["Default/Preferences:brave.new_tab_page.show_clock"].Value)
	assert.Equal(t, false, edits["Default/Preferences:brave.new_tab_page.show_cards"].Value, "null keeps the default")
	assert.Equal(t, []string{"a@1", "b@2"}, edits["Local State:browser.enabled_labs_experiments"].Value)
}

func TestMergeSelectsCatalogueProvider(t *testing.T) {
	merged, err := Merge(Defaults(), gjson.Parse(`{"search_engine": "startpage"}`))
	require.NoError(t, err)
	p, _ := merged.Provider()
	assert.Equal(t, "Startpage", p.Name)

	_, err = Merge(Defaults(), gjson.Parse(`{"search_engine": "bing"}`))
	var se *policy.SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, SearchEngineKey, se.Setting)
}

func TestMergeRejectsBadProviders(t *testing.T) {
	for _, doc := range []string{
		`{"search_engines": [{"keyword": "x", "name": "X"}]}`,
		`{"search_engines": [{"keyword": "x", "name": "X", "search_url": "https://x.example/?q="}]}`,
		`{"search_engines": {"keyword": "x"}}`,
	} {
		_, err := Merge(Defaults(), gjson.Parse(doc))
		var se *policy.SchemaError
		assert.ErrorAs(t, err, &se, "doc %s", doc)
	}
}

func TestMergeKindMismatch(t *testing.T) {
	_, err := Merge(Defaults(), gjson.Parse(`{"dashboard": {"show_clock": "yes"}}`))
	var se *policy.SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "show_clock", se.Setting)
	assert.Equal(t, policy.KindBool, se.Want)
}

func TestPassthroughEdits(t *testing.T) {
	merged, err := Merge(Defaults(), gjson.Parse(`{
		"brave.shields.stats_badge_visible": false,
		"bookmark_bar": {"show_on_all_tabs": true},
		"local_state": {"brave.p3a.enabled": false}
	}`))
	require.NoError(t, err)

	edits := editMap(t, merged)
	assert.Equal(t, false, edits["Default/Preferences:brave.shields.stats_badge_visible"].Value)
	assert.Equal(t, true, edits["Default/Preferences:bookmark_bar.show_on_all_tabs"].Value)
	assert.Equal(t, false, edits["Local State:brave.p3a.enabled"].Value)
}

func TestByFileKeepsOrder(t *testing.T) {
	edits, err := Defaults().Edits()
	require.NoError(t, err)

	batches := ByFile(edits)
	require.Len(t, batches, 2)
	assert.Equal(t, FilePreferences, batches[0].File)
	assert.Equal(t, FileLocalState, batches[1].File)
	assert.Equal(t, []string{"default_search_provider_data", "keyword"}, batches[0].Edits[0].Path)
}
