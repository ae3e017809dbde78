package pipeline

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/aluiziolira/go-scrape-chunk/models"
)

// analyticsColumns is the layout read by the sales dashboard.
var analyticsColumns = []column{
	{"product_name", func(r *models.ProductRecord) string { return optString(r.Title) }},
	{"publisher", func(r *models.ProductRecord) string { return optString(r.Creator) }},
	{"downloads", func(r *models.ProductRecord) string {
		if r.Downloads == nil {
			return "0"
		}
		return strconv.Itoa(*r.Downloads)
	}},
	{"prices", func(r *models.ProductRecord) string { return priceMap(r) }},
	{"tags", func(r *models.ProductRecord) string { return strings.Join(r.Tags, ",") }},
	{"category", func(r *models.ProductRecord) string { return r.Category }},
	{"product_url", func(r *models.ProductRecord) string { return r.ProductURL }},
}

// NewAnalyticsWriter writes the dashboard CSV: one row per product with
// its known prices serialized as a JSON object keyed by currency.
func NewAnalyticsWriter(filename string) (*CSVWriter, error) {
	return newCSVWriter(filename, analyticsColumns)
}

func priceMap(r *models.ProductRecord) string {
	prices := make(map[string]any, 3)
	if r.PriceMinecoins != nil {
		prices["Minecoins"] = *r.PriceMinecoins
	}
	if r.PriceUSD != nil {
		prices["USD"] = *r.PriceUSD
	}
	if r.PriceEUR != nil {
		prices["EUR"] = *r.PriceEUR
	}
	data, err := json.Marshal(prices)
	if err != nil {
		return "{}"
	}
	return string(data)
}
