package prefs

import (
	"fmt"
	"strings"

	"github.com/sofmeright/bravedebloat/src/policy"
)

const searchDataKey = "default_search_provider_data"

// Edit sets one JSON path in one file.
type Edit struct {
	File  File
	Path  []string
	Value any // bool, int64, string or []string
}

// Edits flattens the model into file edits, in model order.
//
// Catalogue leaves use their fixed paths. Passthrough leaves are placed by
// name: dots in the name separate path segments, and unknown groups become
// the leading segment. Members of GroupLocalState edit Local State.
func (p *Preferences) Edits() ([]Edit, error) {
	var out []Edit
	for _, s := range p.Settings.Settings() {
		switch {
		case s.Name == SearchEngineKey:
			provider, ok := findProvider(p.Providers, s.Value.Str())
			if !ok {
				return nil, fmt.Errorf("prefs: unknown search provider %q", s.Value.Str())
			}
			out = append(out,
				Edit{File: FilePreferences, Path: []string{searchDataKey, "keyword"}, Value: provider.Keyword},
				Edit{File: FilePreferences, Path: []string{searchDataKey, "name"}, Value: provider.Name},
				Edit{File: FilePreferences, Path: []string{searchDataKey, "search_url"}, Value: provider.SearchURL},
			)
		case s.Passthrough:
			out = append(out, passthroughEdit(s))
		default:
			t, ok := targets[s.Name]
			if !ok {
				return nil, fmt.Errorf("prefs: setting %q has no file target", s.Name)
			}
			out = append(out, Edit{File: t.file, Path: append([]string(nil), t.path...), Value: s.Value.Interface()})
		}
	}
	return out, nil
}

func passthroughEdit(s policy.Setting) Edit {
	path := strings.Split(s.Name, ".")
	switch s.Group {
	case GroupLocalState:
		return Edit{File: FileLocalState, Path: path, Value: s.Value.Interface()}
	case policy.GroupExtra:
		return Edit{File: FilePreferences, Path: path, Value: s.Value.Interface()}
	default:
		return Edit{File: FilePreferences, Path: append([]string{string(s.Group)}, path...), Value: s.Value.Interface()}
	}
}

// ByFile groups edits per file, keeping Files order and edit order.
// Files without edits are omitted.
func ByFile(edits []Edit) []FileEdits {
	var out []FileEdits
	for _, f := range Files {
		var fe []Edit
		for _, e := range edits {
			if e.File == f {
				fe = append(fe, e)
			}
		}
		if len(fe) > 0 {
			out = append(out, FileEdits{File: f, Edits: fe})
		}
	}
	return out
}

// FileEdits is the edit batch for one file.
type FileEdits struct {
	File  File
	Edits []Edit
}
