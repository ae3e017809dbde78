package extract

import (
	"regexp"
	"strings"

	"github.com/aluiziolira/go-scrape-chunk/document"
	"github.com/aluiziolira/go-scrape-chunk/parser"
)

var minVersionRe = regexp.MustCompile(`Minimum Version:\s*(.+)`)

// Timeline is the product details card: minimum game version and the
// launch / last update dates, both as displayed and as machine timestamps.
type Timeline struct {
	MinVersion     *string
	Launched       *string
	LaunchedISO    *string
	LastUpdated    *string
	LastUpdatedISO *string
}

// ExtractTimeline reads the details card. The first <time> is the launch
// date and the second the last update.
func ExtractTimeline(doc document.Document) Timeline {
	var tl Timeline
	card := document.First(doc.Find("card-frame.product-details__data"))
	if card == nil {
		return tl
	}

	if text, ok := document.FirstOwnText(card.XPath(".//p[contains(.,'Minimum Version')]/text()")); ok {
		if m := minVersionRe.FindStringSubmatch(text); m != nil {
			tl.MinVersion = parser.CleanTextPtr(m[1])
		}
	}

	times := card.Find("time")
	if len(times) >= 1 {
		tl.Launched, tl.LaunchedISO = readTime(times[0])
	}
	if len(times) >= 2 {
		tl.LastUpdated, tl.LastUpdatedISO = readTime(times[1])
	}
	return tl
}

func readTime(n document.Node) (display, iso *string) {
	display = parser.CleanTextPtr(strings.Join(n.OwnTexts(), " "))
	if v, ok := n.Attr("datetime"); ok {
		iso = parser.CleanTextPtr(v)
	}
	return display, iso
}

// ExtractChangelog joins the non-blank text nodes of the changelog block
// with " | ".
func ExtractChangelog(doc document.Document) *string {
	var lines []string
	for _, block := range doc.Find("card-frame.product-details__changelog .changelog") {
		for _, t := range block.Texts() {
			if t = strings.TrimSpace(t); t != "" {
				lines = append(lines, t)
			}
		}
	}
	if len(lines) == 0 {
		return nil
	}
	return parser.CleanTextPtr(strings.Join(lines, " | "))
}
