package extract

import (
	"regexp"
	"strings"

	"github.com/aluiziolira/go-scrape-chunk/document"
	"github.com/aluiziolira/go-scrape-chunk/parser"
)

var (
	skinCountRe   = regexp.MustCompile(`(?i)^(\d+)\s+Skins?`)
	playerRangeRe = regexp.MustCompile(`(?i)^For\s+([0-9\s\-–to]+)\s+Players`)
	rangeWordRe   = regexp.MustCompile(`(?i)to|–`)
	dashSpaceRe   = regexp.MustCompile(`\s*-\s*`)
	digitsRe      = regexp.MustCompile(`\d+`)
)

// Badges are the label fragments printed under the product intro.
type Badges struct {
	SkinCount   *int
	PlayerRange *string
	Labels      []string
	Modifiers   []string
}

// ExtractBadges classifies each label fragment: "<N> Skins" sets the skin
// count, "For <range> Players" sets the player range, "Base (Modifier)"
// splits into a label and a modifier, anything else is a bare label.
func ExtractBadges(doc document.Document) Badges {
	var fragments []string
	for _, p := range doc.Find(".product-intro__content .label-box__paragraph") {
		fragments = append(fragments, p.OwnTexts()...)
	}
	return ClassifyBadges(fragments)
}

// ClassifyBadges is the fragment classifier behind ExtractBadges.
func ClassifyBadges(fragments []string) Badges {
	var b Badges
	for _, raw := range fragments {
		text := parser.CleanText(raw)
		if text == "" {
			continue
		}

		if m := skinCountRe.FindStringSubmatch(text); m != nil {
			b.SkinCount = parser.ToIntPtr(m[1])
			continue
		}
		if m := playerRangeRe.FindStringSubmatch(text); m != nil {
			b.PlayerRange = normalizePlayerRange(m[1])
			continue
		}
		if strings.Contains(text, "(") && strings.HasSuffix(text, ")") {
			base, modifier, _ := strings.Cut(text, "(")
			if base = strings.TrimSpace(base); base != "" {
				b.Labels = append(b.Labels, base)
			}
			if modifier = strings.TrimSpace(strings.TrimRight(modifier, ")")); modifier != "" {
				b.Modifiers = append(b.Modifiers, modifier)
			}
			continue
		}
		b.Labels = append(b.Labels, text)
	}

	b.Labels = parser.DedupeStrings(b.Labels)
	b.Modifiers = parser.DedupeStrings(b.Modifiers)
	return b
}

// normalizePlayerRange maps "to" and en-dash to "-", so "2 to 4" and
// "2–4" both become "2-4".
func normalizePlayerRange(text string) *string {
	text = rangeWordRe.ReplaceAllString(text, "-")
	text = parser.CleanText(text)
	text = dashSpaceRe.ReplaceAllString(text, "-")
	if text == "" {
		return nil
	}
	return &text
}

// SupportFlags derives single/multiplayer support. The numeric player
// range decides first: a 1 means single-player, anything above 1 means
// multiplayer, and a range of only 1s rules multiplayer out. Badge tokens
// mentioning "single" or "multi" only fill flags the range left unknown.
func SupportFlags(playerRange *string, labels, modifiers []string) (single, multi *bool) {
	yes, no := true, false

	if playerRange != nil {
		var numbers []int
		for _, d := range digitsRe.FindAllString(*playerRange, -1) {
			if n, ok := parser.ToInt(d); ok {
				numbers = append(numbers, n)
			}
		}
		if len(numbers) > 0 {
			hasOne, hasMore := false, false
			for _, n := range numbers {
				if n == 1 {
					hasOne = true
				}
				if n > 1 {
					hasMore = true
				}
			}
			if hasOne {
				single = &yes
			}
			if hasMore {
				multi = &yes
			} else if single != nil {
				multi = &no
			}
		}
	}

	tokens := make([]string, 0, len(labels)+len(modifiers))
	tokens = append(tokens, labels...)
	tokens = append(tokens, modifiers...)
	for _, token := range tokens {
		token = strings.ToLower(token)
		if single == nil && strings.Contains(token, "single") {
			single = &yes
		}
		if multi == nil && strings.Contains(token, "multi") {
			multi = &yes
		}
	}
	return single, multi
}
