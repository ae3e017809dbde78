package extract

import (
	"regexp"

	"github.com/aluiziolira/go-scrape-chunk/document"
	"github.com/aluiziolira/go-scrape-chunk/parser"
)

var (
	usdRe = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)\$\s*\(USD\)`)
	eurRe = regexp.MustCompile(`(?i)([0-9]+(?:[.,][0-9]+)?)\s*(?:€|EUR|EURO|\?)\s*\(EURO\)`)
)

// Pricing holds the native Minecoin price and the real-money equivalents
// the page prints next to it.
type Pricing struct {
	Minecoins *int
	USD       *float64
	EUR       *float64
	IsFree    *bool
}

// ExtractPricing reads the price label and the currency markers of the
// raw-text block. IsFree is set only when the native price is known.
func ExtractPricing(doc document.Document) Pricing {
	var p Pricing
	if text, ok := document.FirstOwnText(doc.Find(".product-intro__details label-text")); ok {
		p.Minecoins = parser.ToIntPtr(text)
	}
	if p.Minecoins != nil {
		free := *p.Minecoins == 0
		p.IsFree = &free
	}

	raw := rawText(doc)
	if m := usdRe.FindStringSubmatch(raw); m != nil {
		p.USD = parser.ToFloatPtr(m[1])
	}
	if m := eurRe.FindStringSubmatch(raw); m != nil {
		p.EUR = parser.ToFloatPtr(m[1])
	}
	return p
}
