// Package prefs models the user preferences that Brave keeps in its
// Preferences and Local State JSON files. There is no policy channel for
// these, so every platform edits the files in place.
//
// Preferences reuse the kind-checked leaves of package policy and go through
// the same merge. Each leaf is bound to a file and a JSON path; see Edits.
package prefs

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/sofmeright/bravedebloat/src/policy"
)

// File names a browser state file relative to the user-data directory.
type File string

const (
	FilePreferences File = "Default/Preferences"
	FileLocalState  File = "Local State"
)

// Files lists the editable files in edit order.
var Files = []File{FilePreferences, FileLocalState}

// Preference groups.
const (
	GroupSearch    policy.Group = "search"
	GroupDashboard policy.Group = "dashboard"
	GroupContent   policy.Group = "content"
	GroupLabs      policy.Group = "labs"

	// GroupLocalState is a passthrough group whose members edit Local State
	// instead of Preferences.
	GroupLocalState policy.Group = "local_state"
)

// SearchEngineKey selects the default search provider.
const SearchEngineKey = "search_engine"

const searchEnginesKey = "search_engines"

// Provider is a search engine the browser can be pointed at.
type Provider struct {
	Keyword   string `json:"keyword"`
	Name      string `json:"name"`
	SearchURL string `json:"search_url"`
}

// Providers is the built-in search provider catalogue.
var Providers = []Provider{
	{Keyword: "brave", Name: "Brave Search", SearchURL: "https://search.brave.com/search?q={searchTerms}"},
	{Keyword: "duckduckgo", Name: "DuckDuckGo", SearchURL: "https://duckduckgo.com/?q={searchTerms}"},
	{Keyword: "startpage", Name: "Startpage", SearchURL: "https://www.startpage.com/do/search?q={searchTerms}"},
	{Keyword: "qwant", Name: "Qwant", SearchURL: "https://www.qwant.com/?q={searchTerms}"},
	{Keyword: "mojeek", Name: "Mojeek", SearchURL: "https://www.mojeek.com/search?q={searchTerms}"},
}

// Preferences is the merged preferences model.
type Preferences struct {
	Settings  *policy.Model
	Providers []Provider
}

type target struct {
	file File
	path []string
}

var targets = map[string]target{
	"show_clock":                    {FilePreferences, []string{"brave", "new_tab_page", "show_clock"}},
	"show_background_image":         {FilePreferences, []string{"brave", "new_tab_page", "show_background_image"}},
	"show_stats":                    {FilePreferences, []string{"brave", "new_tab_page", "show_stats"}},
	"show_shortcuts":                {FilePreferences, []string{"brave", "new_tab_page", "show_shortcuts"}},
	"show_branded_background_image": {FilePreferences, []string{"brave", "new_tab_page", "show_branded_background_image"}},
	"show_cards":                    {FilePreferences, []string{"brave", "new_tab_page", "show_cards"}},
	"show_search_widget":            {FilePreferences, []string{"brave", "new_tab_page", "show_search_widget"}},
	"show_brave_news":               {FilePreferences, []string{"brave", "new_tab_page", "show_brave_news"}},
	"show_together":                 {FilePreferences, []string{"brave", "new_tab_page", "show_together"}},
	"stats_enabled":                 {FilePreferences, []string{"brave", "stats", "enabled"}},
	"today_widget":                  {FilePreferences, []string{"brave", "today", "should_show_brave_today_widget"}},
	"experimental_features":         {FileLocalState, []string{"browser", "enabled_labs_experiments"}},
}

// Defaults returns the built-in preferences.
func Defaults() *Preferences {
	dashboard := func(name string, v bool) policy.Setting {
		return policy.Setting{Name: name, Group: GroupDashboard, Value: policy.Bool(v)}
	}
	return &Preferences{
		Settings: policy.MustModel(
			policy.Setting{Name: SearchEngineKey, Group: GroupSearch, Value: policy.Enum("brave"), Allowed: keywords(Providers)},
			dashboard("show_clock", true),
			dashboard("show_background_image", false),
			dashboard("show_stats", false),
			dashboard("show_shortcuts", false),
			dashboard("show_branded_background_image", false),
			dashboard("show_cards", false),
			dashboard("show_search_widget", false),
			dashboard("show_brave_news", false),
			dashboard("show_together", false),
			policy.Setting{Name: "stats_enabled", Group: GroupContent, Value: policy.Bool(false)},
			policy.Setting{Name: "today_widget", Group: GroupContent, Value: policy.Bool(false)},
			policy.Setting{Name: "experimental_features", Group: GroupLabs, Value: policy.StringList("brave-adblock-experimental-list-default@1")},
		),
		Providers: slices.Clone(Providers),
	}
}

// Provider returns the selected search provider.
func (p *Preferences) Provider() (Provider, bool) {
	s, ok := p.Settings.Get(SearchEngineKey)
	if !ok {
		return Provider{}, false
	}
	return findProvider(p.Providers, s.Value.Str())
}

// Merge layers a preferences document on top of defaults.
//
// The document follows the policy merge rules, plus "search_engines": a list
// of providers that extend the catalogue (replacing by keyword). When the
// document lists providers but does not pick one with "search_engine", the
// first listed provider becomes the default.
func Merge(defaults *Preferences, override gjson.Result) (*Preferences, error) {
	out := &Preferences{
		Settings:  defaults.Settings,
		Providers: slices.Clone(defaults.Providers),
	}
	if !override.Exists() || override.Type == gjson.Null {
		return out, nil
	}
	if !override.IsObject() {
		return nil, &policy.SchemaError{Setting: "(root)", Reason: "preferences must be an object"}
	}

	raw := override.Raw
	if engines := override.Get(searchEnginesKey); engines.Exists() {
		listed, err := parseProviders(engines)
		if err != nil {
			return nil, err
		}
		for _, p := range listed {
			out.Providers = mergeProvider(out.Providers, p)
		}
		if len(listed) > 0 && !override.Get(SearchEngineKey).Exists() {
			if raw, err = sjson.Set(raw, SearchEngineKey, listed[0].Keyword); err != nil {
				return nil, fmt.Errorf("selecting search engine: %w", err)
			}
		}
		if raw, err = sjson.Delete(raw, searchEnginesKey); err != nil {
			return nil, fmt.Errorf("reading search engines: %w", err)
		}
	}

	base := out.Settings
	if s, ok := base.Get(SearchEngineKey); ok {
		s.Allowed = keywords(out.Providers)
		base = base.With(s)
	}

	merged, err := policy.Merge(base, gjson.Parse(raw))
	if err != nil {
		return nil, err
	}
	out.Settings = merged
	return out, nil
}

func parseProviders(list gjson.Result) ([]Provider, error) {
	if !list.IsArray() {
		return nil, &policy.SchemaError{Setting: searchEnginesKey, Reason: "expected an array of providers"}
	}
	var (
		out  []Provider
		errs []error
	)
	for i, item := range list.Array() {
		path := fmt.Sprintf("%s[%d]", searchEnginesKey, i)
		p := Provider{
			Keyword:   item.Get("keyword").String(),
			Name:      item.Get("name").String(),
			SearchURL: item.Get("search_url").String(),
		}
		switch {
		case !item.IsObject():
			errs = append(errs, &policy.SchemaError{Setting: path, Reason: "expected an object"})
		case p.Keyword == "" || p.Name == "" || p.SearchURL == "":
			errs = append(errs, &policy.SchemaError{Setting: path, Reason: "keyword, name and search_url are required"})
		case !strings.Contains(p.SearchURL, "{searchTerms}"):
			errs = append(errs, &policy.SchemaError{Setting: path + ".search_url", Reason: "missing {searchTerms} placeholder"})
		default:
			out = append(out, p)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func mergeProvider(list []Provider, p Provider) []Provider {
	for i := range list {
		if list[i].Keyword == p.Keyword {
			list[i] = p
			return list
		}
	}
	return append(list, p)
}

func findProvider(list []Provider, keyword string) (Provider, bool) {
	for _, p := range list {
		if p.Keyword == keyword {
			return p, true
		}
	}
	return Provider{}, false
}

func keywords(list []Provider) []string {
	out := make([]string, len(list))
	for i, p := range list {
		out[i] = p.Keyword
	}
	return out
}
