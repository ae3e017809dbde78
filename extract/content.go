package extract

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/aluiziolira/go-scrape-chunk/document"
	"github.com/aluiziolira/go-scrape-chunk/parser"
)

var (
	tagSlashRe  = regexp.MustCompile(`\s*/\s*`)
	uuidRe      = regexp.MustCompile(`UID\s+for\s+this\s+product\s+is\s+([0-9a-fA-F-]{36})`)
	downloadsRe = regexp.MustCompile(`(?i)([0-9][0-9,.]+)\s+downloads`)
)

// Content is the descriptive header of a product page.
type Content struct {
	Title       *string
	Creator     *string
	CreatorURL  *string
	Description *string
}

// ExtractContent reads title, creator and meta description.
func ExtractContent(doc document.Document) Content {
	var c Content
	if title, ok := document.FirstOwnText(doc.Find("h1.product-title")); ok {
		c.Title = parser.CleanTextPtr(title)
	}

	authors := doc.Find("a[rel='author']")
	c.Creator = firstText(authors)
	if href, ok := document.FirstAttr(authors, "href"); ok && strings.TrimSpace(href) != "" {
		abs := doc.AbsoluteURL(href)
		c.CreatorURL = &abs
	}

	if desc, ok := document.FirstAttr(doc.Find("meta[name='description']"), "content"); ok {
		c.Description = parser.CleanTextPtr(desc)
	}
	return c
}

// ExtractTags returns the tag anchors' labels with whitespace collapsed and
// slash separators spaced as " / ", de-duplicated in page order.
func ExtractTags(doc document.Document) []string {
	var tags []string
	for _, anchor := range doc.Find("a[rel='tag']") {
		var parts []string
		for _, label := range anchor.Find("label-text") {
			parts = append(parts, label.OwnTexts()...)
		}
		if len(parts) == 0 {
			parts = anchor.OwnTexts()
		}

		var kept []string
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				kept = append(kept, p)
			}
		}
		text := parser.CleanText(strings.Join(kept, " "))
		text = tagSlashRe.ReplaceAllString(text, " / ")
		text = strings.Trim(text, " /,")
		if text != "" {
			tags = append(tags, text)
		}
	}
	return parser.DedupeStrings(tags)
}

// firstText returns the first non-blank descendant text across nodes.
func firstText(nodes []document.Node) *string {
	for _, n := range nodes {
		for _, t := range n.Texts() {
			if cleaned := parser.CleanTextPtr(t); cleaned != nil {
				return cleaned
			}
		}
	}
	return nil
}

// rawText joins every text node of the product's raw-text block, where the
// marketplace prints prices, downloads and the product UID as prose.
func rawText(doc document.Document) string {
	var parts []string
	for _, block := range doc.Find(".product-raw-text") {
		parts = append(parts, block.Texts()...)
	}
	return strings.Join(parts, " ")
}

// ExtractUUID finds "UID for this product is <uuid>" and returns the
// canonical lowercase form. Strings that are not valid UUIDs are ignored.
func ExtractUUID(doc document.Document) *string {
	m := uuidRe.FindStringSubmatch(rawText(doc))
	if m == nil {
		return nil
	}
	id, err := uuid.Parse(m[1])
	if err != nil {
		return nil
	}
	s := id.String()
	return &s
}

// ExtractDownloads reads "<N> downloads" from the raw-text block.
func ExtractDownloads(doc document.Document) *int {
	m := downloadsRe.FindStringSubmatch(rawText(doc))
	if m == nil {
		return nil
	}
	return parser.ToIntPtr(m[1])
}
