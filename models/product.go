// Package models defines data structures for the scraper.
package models

import "time"

// StarRating is one row of a rating breakdown.
type StarRating struct {
	Star    int `json:"star" bson:"star"`
	Count   int `json:"count" bson:"count"`
	Percent int `json:"percent" bson:"percent"`
}

// ProductRecord is the normalized output for one marketplace product.
// Every field except ProductURL is optional; nil means the page did not
// carry a usable value.
type ProductRecord struct {
	ProductURL  string  `csv:"product_url" json:"product_url" bson:"product_url"`
	Slug        string  `csv:"slug" json:"slug,omitempty" bson:"slug,omitempty"`
	ProductSlug *string `csv:"product_slug" json:"product_slug,omitempty" bson:"product_slug,omitempty"`
	CreatorSlug *string `csv:"creator_slug" json:"creator_slug,omitempty" bson:"creator_slug,omitempty"`
	Creator     *string `csv:"creator" json:"creator,omitempty" bson:"creator,omitempty"`
	CreatorURL  *string `csv:"creator_url" json:"creator_url,omitempty" bson:"creator_url,omitempty"`
	UUID        *string `csv:"uuid" json:"uuid,omitempty" bson:"uuid,omitempty"`
	Category    string  `csv:"category" json:"category,omitempty" bson:"category,omitempty"`

	Title                *string  `csv:"title" json:"title,omitempty" bson:"title,omitempty"`
	Description          *string  `csv:"description" json:"description,omitempty" bson:"description,omitempty"`
	Tags                 []string `csv:"tags" json:"tags,omitempty" bson:"tags,omitempty"`
	BadgeLabels          []string `csv:"badge_labels" json:"badge_labels,omitempty" bson:"badge_labels,omitempty"`
	BadgeModifiers       []string `csv:"badge_modifiers" json:"badge_modifiers,omitempty" bson:"badge_modifiers,omitempty"`
	SkinCount            *int     `csv:"skin_count" json:"skin_count,omitempty" bson:"skin_count,omitempty"`
	PlayerRange          *string  `csv:"player_range" json:"player_range,omitempty" bson:"player_range,omitempty"`
	SupportsSingleplayer *bool    `csv:"supports_singleplayer" json:"supports_singleplayer,omitempty" bson:"supports_singleplayer,omitempty"`
	SupportsMultiplayer  *bool    `csv:"supports_multiplayer" json:"supports_multiplayer,omitempty" bson:"supports_multiplayer,omitempty"`

	Gallery []string `csv:"gallery" json:"gallery,omitempty" bson:"gallery,omitempty"`

	PriceMinecoins *int     `csv:"price_minecoins" json:"price_minecoins,omitempty" bson:"price_minecoins,omitempty"`
	PriceUSD       *float64 `csv:"price_usd" json:"price_usd,omitempty" bson:"price_usd,omitempty"`
	PriceEUR       *float64 `csv:"price_eur" json:"price_eur,omitempty" bson:"price_eur,omitempty"`
	IsFree         *bool    `csv:"is_free" json:"is_free,omitempty" bson:"is_free,omitempty"`

	RatingValue     *float64     `csv:"rating_value" json:"rating_value,omitempty" bson:"rating_value,omitempty"`
	RatingOutOf     *int         `csv:"rating_out_of" json:"rating_out_of,omitempty" bson:"rating_out_of,omitempty"`
	RatingCount     *int         `csv:"rating_count" json:"rating_count,omitempty" bson:"rating_count,omitempty"`
	RatingBreakdown []StarRating `csv:"rating_breakdown" json:"rating_breakdown,omitempty" bson:"rating_breakdown,omitempty"`

	Downloads *int `csv:"downloads" json:"downloads,omitempty" bson:"downloads,omitempty"`

	MinVersion     *string `csv:"min_version" json:"min_version,omitempty" bson:"min_version,omitempty"`
	Launched       *string `csv:"launched" json:"launched,omitempty" bson:"launched,omitempty"`
	LaunchedISO    *string `csv:"launched_iso" json:"launched_iso,omitempty" bson:"launched_iso,omitempty"`
	LastUpdated    *string `csv:"last_updated" json:"last_updated,omitempty" bson:"last_updated,omitempty"`
	LastUpdatedISO *string `csv:"last_updated_iso" json:"last_updated_iso,omitempty" bson:"last_updated_iso,omitempty"`
	Changelog      *string `csv:"changelog" json:"changelog,omitempty" bson:"changelog,omitempty"`

	HasTrailer   *bool   `csv:"has_trailer" json:"has_trailer,omitempty" bson:"has_trailer,omitempty"`
	TrailerURL   *string `csv:"trailer_url" json:"trailer_url,omitempty" bson:"trailer_url,omitempty"`
	TrailerViews *int    `csv:"trailer_views" json:"trailer_views,omitempty" bson:"trailer_views,omitempty"`
	TrailerLikes *int    `csv:"trailer_likes" json:"trailer_likes,omitempty" bson:"trailer_likes,omitempty"`

	ScrapedAt time.Time `csv:"scraped_at" json:"scraped_at" bson:"scraped_at"`
}

// Star returns the breakdown row for star (1..5), if the page carried one.
func (r *ProductRecord) Star(star int) (StarRating, bool) {
	for _, row := range r.RatingBreakdown {
		if row.Star == star {
			return row, true
		}
	}
	return StarRating{}, false
}

// CrawlResult holds the overall result of a crawl run.
type CrawlResult struct {
	StartTime          time.Time
	EndTime            time.Time
	TotalCount         int
	ErrorCount         int
	FailedURLs         []string
	ErrorsByType       map[string]int
	RetryCount         int
	RequestCount       int
	PageCount          int
	PagesByCategory    map[string]int
	ProductsDiscovered int
	DuplicateLinks     int
}
