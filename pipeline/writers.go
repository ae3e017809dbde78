package pipeline

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aluiziolira/go-scrape-chunk/models"
)

type column struct {
	name  string
	value func(r *models.ProductRecord) string
}

// productColumns is the CSV layout: one column per record field, with the
// rating breakdown also flattened into rating_<star>_count/percent pairs.
var productColumns = withStarColumns(recordColumns)

var recordColumns = []column{
	{"product_url", func(r *models.ProductRecord) string { return r.ProductURL }},
	{"slug", func(r *models.ProductRecord) string { return r.Slug }},
	{"product_slug", func(r *models.ProductRecord) string { return optString(r.ProductSlug) }},
	{"creator_slug", func(r *models.ProductRecord) string { return optString(r.CreatorSlug) }},
	{"category", func(r *models.ProductRecord) string { return r.Category }},
	{"title", func(r *models.ProductRecord) string { return optString(r.Title) }},
	{"creator", func(r *models.ProductRecord) string { return optString(r.Creator) }},
	{"creator_url", func(r *models.ProductRecord) string { return optString(r.CreatorURL) }},
	{"uuid", func(r *models.ProductRecord) string { return optString(r.UUID) }},
	{"description", func(r *models.ProductRecord) string { return optString(r.Description) }},
	{"tags", func(r *models.ProductRecord) string { return strings.Join(r.Tags, ", ") }},
	{"price_minecoins", func(r *models.ProductRecord) string { return optInt(r.PriceMinecoins) }},
	{"price_usd", func(r *models.ProductRecord) string { return optFloat(r.PriceUSD) }},
	{"price_eur", func(r *models.ProductRecord) string { return optFloat(r.PriceEUR) }},
	{"is_free", func(r *models.ProductRecord) string { return optBool(r.IsFree) }},
	{"rating_value", func(r *models.ProductRecord) string { return optFloat(r.RatingValue) }},
	{"rating_out_of", func(r *models.ProductRecord) string { return optInt(r.RatingOutOf) }},
	{"rating_count", func(r *models.ProductRecord) string { return optInt(r.RatingCount) }},
	{"rating_breakdown", func(r *models.ProductRecord) string { return breakdownJSON(r.RatingBreakdown) }},
	{"downloads", func(r *models.ProductRecord) string { return optInt(r.Downloads) }},
	{"skin_count", func(r *models.ProductRecord) string { return optInt(r.SkinCount) }},
	{"player_range", func(r *models.ProductRecord) string { return optString(r.PlayerRange) }},
	{"supports_singleplayer", func(r *models.ProductRecord) string { return optBool(r.SupportsSingleplayer) }},
	{"supports_multiplayer", func(r *models.ProductRecord) string { return optBool(r.SupportsMultiplayer) }},
	{"badge_labels", func(r *models.ProductRecord) string { return strings.Join(r.BadgeLabels, " | ") }},
	{"badge_modifiers", func(r *models.ProductRecord) string { return strings.Join(r.BadgeModifiers, " | ") }},
	{"min_version", func(r *models.ProductRecord) string { return optString(r.MinVersion) }},
	{"launched", func(r *models.ProductRecord) string { return optString(r.Launched) }},
	{"launched_iso", func(r *models.ProductRecord) string { return optString(r.LaunchedISO) }},
	{"last_updated", func(r *models.ProductRecord) string { return optString(r.LastUpdated) }},
	{"last_updated_iso", func(r *models.ProductRecord) string { return optString(r.LastUpdatedISO) }},
	{"changelog", func(r *models.ProductRecord) string { return optString(r.Changelog) }},
	{"has_trailer", func(r *models.ProductRecord) string { return optBool(r.HasTrailer) }},
	{"trailer_url", func(r *models.ProductRecord) string { return optString(r.TrailerURL) }},
	{"trailer_views", func(r *models.ProductRecord) string { return optInt(r.TrailerViews) }},
	{"trailer_likes", func(r *models.ProductRecord) string { return optInt(r.TrailerLikes) }},
	{"gallery", func(r *models.ProductRecord) string { return strings.Join(r.Gallery, " | ") }},
	{"scraped_at", func(r *models.ProductRecord) string { return r.ScrapedAt.Format(time.RFC3339) }},
}

func withStarColumns(base []column) []column {
	out := make([]column, 0, len(base)+10)
	for _, c := range base {
		out = append(out, c)
		if c.name != "rating_breakdown" {
			continue
		}
		for star := 5; star >= 1; star-- {
			out = append(out, starColumn(star, true), starColumn(star, false))
		}
	}
	return out
}

func starColumn(star int, count bool) column {
	suffix := "percent"
	if count {
		suffix = "count"
	}
	return column{
		name:  fmt.Sprintf("rating_%d_%s", star, suffix),
		value: func(r *models.ProductRecord) string {
			row, ok := r.Star(star)
			if !ok {
				return ""
			}
			if count {
				return strconv.Itoa(row.Count)
			}
			return strconv.Itoa(row.Percent)
		},
	}
}

// CSVWriter writes records to CSV using a fixed column layout.
type CSVWriter struct {
	file    *os.File
	writer  *csv.Writer
	columns []column
	mu      sync.Mutex
}

// NewCSVWriter initialises a CSV writer with every record field as a
// column and writes the header row.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	return newCSVWriter(filename, productColumns)
}

func newCSVWriter(filename string, columns []column) (*CSVWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create csv file: %w", err)
	}

	writer := csv.NewWriter(f)
	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = c.name
	}
	if err := writer.Write(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return nil, fmt.Errorf("flush csv header: %w", err)
	}

	return &CSVWriter{
		file:    f,
		writer:  writer,
		columns: columns,
	}, nil
}

// Write appends records to the CSV output.
func (cw *CSVWriter) Write(records []*models.ProductRecord) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	row := make([]string, len(cw.columns))
	for _, record := range records {
		for i, c := range cw.columns {
			row[i] = c.value(record)
		}
		if err := cw.writer.Write(row); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	return nil
}

// Close flushes and closes the file handle.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv writer: %w", err)
	}
	return cw.file.Close()
}

// Validate ensures the file has content besides the header.
func (cw *CSVWriter) Validate() error {
	info, err := cw.file.Stat()
	if err != nil {
		return fmt.Errorf("stat csv file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("csv file is empty")
	}
	return nil
}

// JSONWriter writes newline-delimited JSON records. Absent fields are
// omitted from each line.
type JSONWriter struct {
	file    *os.File
	writer  *bufio.Writer
	encoder *json.Encoder
	mu      sync.Mutex
}

// NewJSONWriter initialises the JSON writer.
func NewJSONWriter(filename string) (*JSONWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create json file: %w", err)
	}

	buffer := bufio.NewWriter(f)
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	return &JSONWriter{
		file:    f,
		writer:  buffer,
		encoder: encoder,
	}, nil
}

// Write appends records in JSONL format.
func (jw *JSONWriter) Write(records []*models.ProductRecord) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	for _, record := range records {
		if err := jw.encoder.Encode(record); err != nil {
			return fmt.Errorf("encode json record: %w", err)
		}
	}

	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}

	return nil
}

// Close flushes buffers and closes the underlying file.
func (jw *JSONWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}
	return jw.file.Close()
}

// Validate ensures the JSON file has data.
func (jw *JSONWriter) Validate() error {
	info, err := jw.file.Stat()
	if err != nil {
		return fmt.Errorf("stat json file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("json file is empty")
	}
	return nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}

func optString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func optInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func optFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func optBool(v *bool) string {
	if v == nil {
		return ""
	}
	return strconv.FormatBool(*v)
}

func breakdownJSON(rows []models.StarRating) string {
	if len(rows) == 0 {
		return ""
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return ""
	}
	return string(data)
}
