// Package catalog enumerates the marketplace categories the crawler knows.
package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCategory is returned when a category filter matches nothing.
var ErrUnknownCategory = errors.New("catalog: no valid categories")

// Category is one marketplace listing root.
type Category int

const (
	Mashups Category = iota
	AddOns
	Worlds
	Textures
	Skins
)

var categories = [...]struct {
	path  string
	label string
}{
	Mashups:  {path: "/mashups", label: "Mashups"},
	AddOns:   {path: "/add-ons", label: "Add-Ons"},
	Worlds:   {path: "/worlds", label: "Worlds"},
	Textures: {path: "/textures", label: "Textures"},
	Skins:    {path: "/skins", label: "Skins"},
}

// All returns every category in listing order.
func All() []Category {
	out := make([]Category, len(categories))
	for i := range categories {
		out[i] = Category(i)
	}
	return out
}

// Path is the listing path relative to the site root, e.g. "/skins".
func (c Category) Path() string {
	if !c.valid() {
		return ""
	}
	return categories[c].path
}

// Label is the display name, e.g. "Add-Ons".
func (c Category) Label() string {
	if !c.valid() {
		return ""
	}
	return categories[c].label
}

func (c Category) String() string {
	if !c.valid() {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categories[c].label
}

func (c Category) valid() bool {
	return c >= 0 && int(c) < len(categories)
}

// Lookup matches one token against a category path, the path without its
// leading slash, or the label. Matching is case-insensitive.
func Lookup(token string) (Category, bool) {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return 0, false
	}
	for _, c := range All() {
		path := strings.ToLower(c.Path())
		if token == path || token == strings.TrimPrefix(path, "/") || token == strings.ToLower(c.Label()) {
			return c, true
		}
	}
	return 0, false
}

// Resolve turns a comma-separated filter into categories, in the order
// they were requested and without repeats. An empty filter selects every
// category. Unrecognized tokens are dropped as long as at least one token
// matches; otherwise ErrUnknownCategory is returned.
func Resolve(filter string) ([]Category, error) {
	var tokens []string
	for _, token := range strings.Split(filter, ",") {
		if token = strings.TrimSpace(token); token != "" {
			tokens = append(tokens, token)
		}
	}
	if len(tokens) == 0 {
		return All(), nil
	}

	var selected []Category
	seen := make(map[Category]struct{}, len(tokens))
	for _, token := range tokens {
		c, ok := Lookup(token)
		if !ok {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		selected = append(selected, c)
	}

	if len(selected) == 0 {
		return nil, fmt.Errorf("%w in %q; accepted values: %s", ErrUnknownCategory, filter, strings.Join(Labels(), ", "))
	}
	return selected, nil
}

// Labels lists every category label in listing order.
func Labels() []string {
	out := make([]string, 0, len(categories))
	for _, c := range All() {
		out = append(out, c.Label())
	}
	return out
}
