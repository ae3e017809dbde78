package parser

import (
	"reflect"
	"testing"

	"github.com/aluiziolira/go-scrape-chunk/models"
)

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func TestValidateProduct(t *testing.T) {
	tests := []struct {
		name    string
		product *models.ProductRecord
		wantErr bool
	}{
		{
			name:    "minimal record",
			product: &models.ProductRecord{ProductURL: "https://chunk.gg/@studio/castle"},
			wantErr: false,
		},
		{
			name:    "nil record",
			product: nil,
			wantErr: true,
		},
		{
			name:    "missing url",
			product: &models.ProductRecord{Slug: "/@studio/castle"},
			wantErr: true,
		},
		{
			name: "free flag agrees with price",
			product: &models.ProductRecord{
				ProductURL:     "https://chunk.gg/@studio/castle",
				PriceMinecoins: intPtr(0),
				IsFree:         boolPtr(true),
			},
			wantErr: false,
		},
		{
			name: "free flag disagrees with price",
			product: &models.ProductRecord{
				ProductURL:     "https://chunk.gg/@studio/castle",
				PriceMinecoins: intPtr(830),
				IsFree:         boolPtr(true),
			},
			wantErr: true,
		},
		{
			name: "star out of range",
			product: &models.ProductRecord{
				ProductURL:      "https://chunk.gg/@studio/castle",
				RatingBreakdown: []models.StarRating{{Star: 6, Count: 1, Percent: 1}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProduct(tt.product)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateProduct() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "  Soul   Seekers\n", expected: "Soul Seekers"},
		{input: "\t\n", expected: ""},
		{input: "plain", expected: "plain"},
	}

	for _, tt := range tests {
		if got := CleanText(tt.input); got != tt.expected {
			t.Errorf("CleanText(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}

	if CleanTextPtr("   ") != nil {
		t.Errorf("CleanTextPtr on blank input should be nil")
	}
}

func TestToInt(t *testing.T) {
	tests := []struct {
		input  string
		want   int
		wantOK bool
	}{
		{input: "830", want: 830, wantOK: true},
		{input: "0", want: 0, wantOK: true},
		{input: "1,234,567", want: 1234567, wantOK: true},
		{input: " 45% ", want: 45, wantOK: true},
		{input: "Free", want: 0, wantOK: false},
		{input: "", want: 0, wantOK: false},
		{input: "99999999999999999999999", want: 0, wantOK: false},
	}

	for _, tt := range tests {
		got, ok := ToInt(tt.input)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ToInt(%q) = (%d, %v), want (%d, %v)", tt.input, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestToFloat(t *testing.T) {
	tests := []struct {
		input  string
		want   float64
		wantOK bool
	}{
		{input: " 4.6 ", want: 4.6, wantOK: true},
		{input: "6,49", want: 6.49, wantOK: true},
		{input: "1,234", want: 1234, wantOK: true},
		{input: "1,234.50", want: 1234.5, wantOK: true},
		{input: "1.234,50", want: 1234.5, wantOK: true},
		{input: "1,234,567", want: 1234567, wantOK: true},
		{input: "4.6 ★", want: 4.6, wantOK: true},
		{input: "$6.49", want: 6.49, wantOK: true},
		{input: "4.6/5", want: 4.6, wantOK: true},
		{input: "1,2345", want: 0, wantOK: false},
		{input: "★", want: 0, wantOK: false},
		{input: "", want: 0, wantOK: false},
	}

	for _, tt := range tests {
		got, ok := ToFloat(tt.input)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ToFloat(%q) = (%v, %v), want (%v, %v)", tt.input, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestDedupeStrings(t *testing.T) {
	got := DedupeStrings([]string{"Adventure", "", "Horror", "Adventure"})
	want := []string{"Adventure", "Horror"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("DedupeStrings = %v, want %v", got, want)
	}
	if DedupeStrings(nil) != nil {
		t.Fatalf("DedupeStrings(nil) should be nil")
	}
}
