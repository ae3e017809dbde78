package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/aluiziolira/go-scrape-chunk/document"
	"github.com/aluiziolira/go-scrape-chunk/models"
	"github.com/aluiziolira/go-scrape-chunk/parser"
)

var (
	totalRatingsRe = regexp.MustCompile(`Total of\s+([0-9.,]+)`)
	outOfRe        = regexp.MustCompile(`/\s*([0-9]+)`)
)

// Ratings is the rating summary card of a product page.
type Ratings struct {
	Value *float64
	// Fraction is the raw "value/outOf" text, e.g. "4.6/5".
	Fraction  *string
	OutOf     *int
	Count     *int
	Breakdown []models.StarRating
}

// ExtractRatings reads the average, the total count, the "value/outOf"
// fraction and the per-star breakdown.
func ExtractRatings(doc document.Document) Ratings {
	var r Ratings
	if text, ok := document.FirstOwnText(doc.Find(".rating__count p")); ok {
		r.Value = parser.ToFloatPtr(text)
	}

	card := document.First(doc.Find("card-frame.product-details__rating"))
	r.Count = ratingCount(doc, card)

	if card != nil {
		if text, ok := document.FirstOwnText(card.XPath(".//p[contains(text(),'/')]/text()")); ok {
			fraction := strings.TrimSpace(text)
			r.Fraction = &fraction
			if m := outOfRe.FindStringSubmatch(fraction); m != nil {
				r.OutOf = parser.ToIntPtr(m[1])
			}
		}
		r.Breakdown = ratingBreakdown(card)
	}
	return r
}

// FractionValue returns the numerator of the "value/outOf" text.
func (r Ratings) FractionValue() *float64 {
	if r.Fraction == nil {
		return nil
	}
	numerator, _, _ := strings.Cut(*r.Fraction, "/")
	return parser.ToFloatPtr(numerator)
}

func ratingCount(doc document.Document, card document.Node) *int {
	if card != nil {
		if text, ok := document.FirstOwnText(card.XPath(".//p[contains(.,'Total of')]/text()")); ok {
			if m := totalRatingsRe.FindStringSubmatch(text); m != nil {
				return parser.ToIntPtr(m[1])
			}
		}
	}

	var parts []string
	for _, n := range doc.Find(".rating__numbers") {
		parts = append(parts, n.Texts()...)
	}
	if len(parts) == 0 {
		return nil
	}
	return parser.ToIntPtr(strings.Join(parts, ""))
}

// ratingBreakdown keeps a star row only when both its count and percent
// parse; rows for missing stars are left out rather than inferred.
func ratingBreakdown(card document.Node) []models.StarRating {
	byStar := make(map[int]models.StarRating)
	for _, wrapper := range card.Find(".rating-bar-wrapper") {
		starText, ok := document.FirstOwnText(wrapper.Find(".rating-bar-placement"))
		if !ok {
			continue
		}
		star, ok := parser.ToInt(starText)
		if !ok || star < 1 || star > 5 {
			continue
		}
		if _, dup := byStar[star]; dup {
			continue
		}

		countText, ok := document.FirstAttr(wrapper.Find("progress-frame"), "value")
		if !ok {
			continue
		}
		count, ok := parser.ToInt(countText)
		if !ok {
			continue
		}
		percentText, ok := document.FirstOwnText(wrapper.XPath(".//p[contains(.,'%')]/text()"))
		if !ok {
			continue
		}
		percent, ok := parser.ToInt(percentText)
		if !ok {
			continue
		}
		byStar[star] = models.StarRating{Star: star, Count: count, Percent: percent}
	}

	if len(byStar) == 0 {
		return nil
	}
	out := make([]models.StarRating, 0, len(byStar))
	for _, row := range byStar {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Star > out[j].Star })
	return out
}
