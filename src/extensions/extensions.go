// Package extensions models the force-installed extension list.
package extensions

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/tidwall/gjson"

	"github.com/sofmeright/bravedebloat/src/policy"
)

// DefaultUpdateURL is the Chrome Web Store update endpoint Brave uses for
// store-hosted extensions.
const DefaultUpdateURL = "https://clients2.google.com/service/update2/crx"

// idRe matches Chrome Web Store extension identifiers.
var idRe = regexp.MustCompile(`^[a-p]{32}$`)

// Entry is one force-installed extension.
type Entry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	UpdateURL   string `json:"update_url,omitempty"`
}

// ForcelistValue returns the "id;update-url" string used by the
// ExtensionInstallForcelist policy.
func (e Entry) ForcelistValue() string {
	url := e.UpdateURL
	if url == "" {
		url = DefaultUpdateURL
	}
	return e.ID + ";" + url
}

// Forcelist returns forcelist values in list order.
func Forcelist(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ForcelistValue()
	}
	return out
}

// Parse reads an extension document. It accepts either
// {"extensions": [...]} or a bare array. Entries that repeat an ID collapse
// into one, the later entry winning. Malformed entries fail the whole parse.
func Parse(doc gjson.Result) ([]Entry, error) {
	if !doc.Exists() || doc.Type == gjson.Null {
		return nil, nil
	}
	list := doc
	if doc.IsObject() {
		list = doc.Get("extensions")
		if !list.Exists() {
			return nil, nil
		}
	}
	if !list.IsArray() {
		return nil, &policy.SchemaError{Setting: "extensions", Reason: "expected an array of extensions"}
	}

	var (
		entries []Entry
		errs    []error
	)
	for i, item := range list.Array() {
		path := fmt.Sprintf("extensions[%d]", i)
		if !item.IsObject() {
			errs = append(errs, &policy.SchemaError{Setting: path, Reason: "expected an object"})
			continue
		}
		e := Entry{
			ID:          item.Get("id").String(),
			Name:        item.Get("name").String(),
			Description: item.Get("description").String(),
			UpdateURL:   item.Get("update_url").String(),
		}
		if err := validate(path, e, item); err != nil {
			errs = append(errs, err)
			continue
		}
		entries = append(entries, e)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return Merge(nil, entries), nil
}

func validate(path string, e Entry, item gjson.Result) error {
	for _, field := range []string{"id", "name", "description", "update_url"} {
		if v := item.Get(field); v.Exists() && v.Type != gjson.String {
			return &policy.SchemaError{Setting: path + "." + field, Want: policy.KindString, Got: v.Type.String()}
		}
	}
	if !idRe.MatchString(e.ID) {
		return &policy.SchemaError{Setting: path + ".id", Reason: fmt.Sprintf("%q is not a valid extension id (32 letters a-p)", e.ID)}
	}
	return nil
}

// Merge unions two lists by ID. Entries in base keep their position; an
// override entry with the same ID replaces it in place. New IDs are appended
// in override order.
func Merge(base, override []Entry) []Entry {
	out := make([]Entry, 0, len(base)+len(override))
	index := make(map[string]int, len(base)+len(override))
	for _, list := range [][]Entry{base, override} {
		for _, e := range list {
			if i, ok := index[e.ID]; ok {
				out[i] = e
				continue
			}
			index[e.ID] = len(out)
			out = append(out, e)
		}
	}
	return out
}
