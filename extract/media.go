package extract

import (
	"html"
	"strings"

	"github.com/aluiziolira/go-scrape-chunk/document"
	"github.com/aluiziolira/go-scrape-chunk/parser"
)

const (
	trailerViewsXPath = `//label-frame[.//p[contains(.,'Trailer Views')]]//p[contains(@class,'label-box__paragraph')]/text()`
	trailerLikesXPath = `//label-frame[.//p[contains(.,'Trailer Likes')]]//p[contains(@class,'label-box__paragraph')]/text()`
)

// Trailer describes the product's video trailer.
type Trailer struct {
	HasTrailer bool
	URL        *string
	Views      *int
	Likes      *int
}

// ExtractTrailer returns nil when the page shows no sign of a trailer. A
// trailer is present when a video container exists, an embed URL was found
// or a view count was found.
func ExtractTrailer(doc document.Document) *Trailer {
	containers := doc.Find("[data-video]")

	var t Trailer
	for _, c := range containers {
		if src, ok := document.FirstAttr(c.Find("iframe"), "src"); ok {
			if embed := strings.TrimRight(strings.TrimSpace(html.UnescapeString(src)), "&"); embed != "" {
				t.URL = &embed
			}
			break
		}
	}
	if text, ok := document.FirstOwnText(doc.XPath(trailerViewsXPath)); ok {
		t.Views = parser.ToIntPtr(text)
	}
	if text, ok := document.FirstOwnText(doc.XPath(trailerLikesXPath)); ok {
		t.Likes = parser.ToIntPtr(text)
	}

	present := len(containers) > 0
	if !present && t.URL == nil && t.Views == nil && t.Likes == nil {
		return nil
	}
	t.HasTrailer = present || t.URL != nil || t.Views != nil
	return &t
}

// ExtractGallery keeps the product images whose path contains the product
// slug as a segment. When none match, the social preview image stands in.
func ExtractGallery(doc document.Document, productSlug string) []string {
	slug := strings.ToLower(strings.TrimSpace(productSlug))

	var images []string
	for _, img := range doc.Find("main product-image picture img") {
		src, ok := img.Attr("src")
		if !ok {
			continue
		}
		src = strings.TrimSpace(src)
		if src == "" {
			continue
		}
		if slug != "" && !strings.Contains(strings.ToLower(src), "/"+slug+"/") {
			continue
		}
		images = append(images, src)
	}
	if images = parser.DedupeStrings(images); images != nil {
		return images
	}

	if og, ok := document.FirstAttr(doc.Find(`meta[property="og:image"]`), "content"); ok {
		if og = strings.TrimSpace(og); og != "" {
			return []string{og}
		}
	}
	return nil
}
