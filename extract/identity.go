// Package extract pulls the fields of a product record out of a parsed
// product page. Each extractor reads the document and returns optional
// values; missing or malformed markup yields nil, never an error.
package extract

import (
	"net/url"
	"regexp"
	"strings"
)

var productPathRe = regexp.MustCompile(`^/@[^/?#]+/[^/?#]+$`)

// Identity is the slug information encoded in a product URL.
type Identity struct {
	Slug        string
	CreatorSlug *string
	ProductSlug *string
}

// IdentityFromURL splits the URL path on "/" into a creator handle and a
// product slug. A leading "@" on the handle is dropped.
func IdentityFromURL(u *url.URL) Identity {
	if u == nil {
		return Identity{}
	}
	id := Identity{Slug: u.Path}
	trimmed := strings.Trim(u.Path, "/")
	if trimmed == "" {
		return id
	}

	parts := strings.Split(trimmed, "/")
	if handle := strings.TrimPrefix(parts[0], "@"); handle != "" {
		id.CreatorSlug = &handle
	}
	if len(parts) >= 2 {
		if last := parts[len(parts)-1]; last != "" {
			id.ProductSlug = &last
		}
	}
	return id
}

// ProductPath normalizes a listing href to the "/@creator/product" key used
// for de-duplication. It reports false for links that do not have the
// product path shape.
func ProductPath(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}
	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	path := u.Path
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	if !productPathRe.MatchString(path) {
		return "", false
	}
	return path, true
}
