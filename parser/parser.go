// Package parser holds the loose text and number normalization helpers the
// extractors share, plus record validation.
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/aluiziolira/go-scrape-chunk/models"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	nonDigitRe   = regexp.MustCompile(`[^0-9]`)
	numberRe     = regexp.MustCompile(`[0-9][0-9.,]*`)
)

// ValidateProduct ensures the record carries its identity and that the
// derived free flag agrees with the native price.
func ValidateProduct(p *models.ProductRecord) error {
	if p == nil {
		return fmt.Errorf("product is nil")
	}
	if strings.TrimSpace(p.ProductURL) == "" {
		return fmt.Errorf("product missing url")
	}
	if p.IsFree != nil && p.PriceMinecoins != nil && *p.IsFree != (*p.PriceMinecoins == 0) {
		return fmt.Errorf("product %s: is_free disagrees with price %d", p.ProductURL, *p.PriceMinecoins)
	}
	for _, row := range p.RatingBreakdown {
		if row.Star < 1 || row.Star > 5 {
			return fmt.Errorf("product %s: rating star %d out of range", p.ProductURL, row.Star)
		}
	}
	return nil
}

// CleanText collapses whitespace runs to single spaces and trims the result.
func CleanText(value string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(value, " "))
}

// CleanTextPtr is CleanText for optional values; blank input yields nil.
func CleanTextPtr(value string) *string {
	cleaned := CleanText(value)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

// ToInt keeps only the digits of value and parses them. Thousands
// separators and stray symbols are dropped, so "1,234 downloads" is 1234.
func ToInt(value string) (int, bool) {
	digits := nonDigitRe.ReplaceAllString(value, "")
	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ToIntPtr is ToInt returning nil when nothing parses.
func ToIntPtr(value string) *int {
	n, ok := ToInt(value)
	if !ok {
		return nil
	}
	return &n
}

// ToFloat parses the first number in value. Surrounding symbols are
// ignored, so "4.6 ★" is 4.6. When both separators appear the last one is
// the decimal mark. A lone comma followed by one or two digits is a decimal
// mark ("6,49"); commas followed by groups of three digits separate
// thousands ("1,234"). Any other separator layout is ambiguous and reports
// false.
func ToFloat(value string) (float64, bool) {
	token := strings.TrimRight(numberRe.FindString(value), ".,")
	if token == "" {
		return 0, false
	}

	lastComma := strings.LastIndex(token, ",")
	lastDot := strings.LastIndex(token, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			token = strings.ReplaceAll(token, ".", "")
			token = strings.Replace(token, ",", ".", 1)
		} else {
			token = strings.ReplaceAll(token, ",", "")
		}
	case lastComma >= 0:
		normalized, ok := normalizeSeparators(token, ",")
		if !ok {
			return 0, false
		}
		token = normalized
	case lastDot >= 0 && strings.Count(token, ".") > 1:
		normalized, ok := normalizeSeparators(token, ".")
		if !ok {
			return 0, false
		}
		token = normalized
	}

	f, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// normalizeSeparators rewrites a token that uses only sep into plain
// decimal form.
func normalizeSeparators(token, sep string) (string, bool) {
	groups := strings.Split(token, sep)
	if len(groups) == 2 && len(groups[1]) <= 2 {
		return groups[0] + "." + groups[1], true
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return "", false
		}
	}
	return strings.Join(groups, ""), true
}

// ToFloatPtr is ToFloat returning nil when nothing parses.
func ToFloatPtr(value string) *float64 {
	f, ok := ToFloat(value)
	if !ok {
		return nil
	}
	return &f
}

// DedupeStrings drops blanks and repeats, keeping first-seen order. It
// returns nil rather than an empty slice.
func DedupeStrings(values []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
