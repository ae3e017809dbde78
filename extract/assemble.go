package extract

import (
	"time"

	"github.com/aluiziolira/go-scrape-chunk/document"
	"github.com/aluiziolira/go-scrape-chunk/models"
)

// Assembler runs every extractor over a product page and merges the
// results into one record.
type Assembler struct {
	now func() time.Time
}

// NewAssembler returns an assembler stamping records with the wall clock.
func NewAssembler() *Assembler {
	return &Assembler{now: time.Now}
}

// Assemble builds the record for doc, attributed to category. It never
// fails: a page without any recognizable markup still yields the URL,
// slug and category.
func (a *Assembler) Assemble(doc document.Document, category string) *models.ProductRecord {
	rec := &models.ProductRecord{
		Category:  category,
		ScrapedAt: a.now().UTC(),
	}
	if u := doc.URL(); u != nil {
		rec.ProductURL = u.String()
	}

	id := IdentityFromURL(doc.URL())
	rec.Slug = id.Slug
	rec.CreatorSlug = id.CreatorSlug
	rec.ProductSlug = id.ProductSlug

	content := ExtractContent(doc)
	rec.Title = content.Title
	rec.Creator = content.Creator
	rec.CreatorURL = content.CreatorURL
	rec.Description = content.Description
	rec.Tags = ExtractTags(doc)
	rec.UUID = ExtractUUID(doc)
	rec.Downloads = ExtractDownloads(doc)

	pricing := ExtractPricing(doc)
	rec.PriceMinecoins = pricing.Minecoins
	rec.IsFree = pricing.IsFree
	rec.PriceUSD = pricing.USD
	rec.PriceEUR = pricing.EUR

	ratings := ExtractRatings(doc)
	rec.RatingValue = ratings.Value
	if rec.RatingValue == nil {
		rec.RatingValue = ratings.FractionValue()
	}
	rec.RatingOutOf = ratings.OutOf
	rec.RatingCount = ratings.Count
	rec.RatingBreakdown = ratings.Breakdown

	tl := ExtractTimeline(doc)
	rec.MinVersion = tl.MinVersion
	rec.Launched = tl.Launched
	rec.LaunchedISO = tl.LaunchedISO
	rec.LastUpdated = tl.LastUpdated
	rec.LastUpdatedISO = tl.LastUpdatedISO
	rec.Changelog = ExtractChangelog(doc)

	badges := ExtractBadges(doc)
	rec.SkinCount = badges.SkinCount
	rec.PlayerRange = badges.PlayerRange
	rec.BadgeLabels = badges.Labels
	rec.BadgeModifiers = badges.Modifiers
	rec.SupportsSingleplayer, rec.SupportsMultiplayer = SupportFlags(badges.PlayerRange, badges.Labels, badges.Modifiers)

	if trailer := ExtractTrailer(doc); trailer != nil {
		has := trailer.HasTrailer
		rec.HasTrailer = &has
		rec.TrailerURL = trailer.URL
		rec.TrailerViews = trailer.Views
		rec.TrailerLikes = trailer.Likes
	}

	productSlug := ""
	if id.ProductSlug != nil {
		productSlug = *id.ProductSlug
	}
	rec.Gallery = ExtractGallery(doc, productSlug)

	return rec
}
