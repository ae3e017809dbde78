package pipeline

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aluiziolira/go-scrape-chunk/models"
)

func sampleRecord() *models.ProductRecord {
	title := "Soul Seekers"
	creator := "Giggle Block Studios"
	price := 830
	usd := 6.99
	eur := 6.49
	free := false
	downloads := 1204500
	return &models.ProductRecord{
		ProductURL:     "https://chunk.gg/@giggle-block-studios/soul-seekers",
		Slug:           "/@giggle-block-studios/soul-seekers",
		Category:       "Add-Ons",
		Title:          &title,
		Creator:        &creator,
		Tags:           []string{"Adventure", "Mini / Game"},
		BadgeLabels:    []string{"Add-On", "Multiplayer"},
		PriceMinecoins: &price,
		PriceUSD:       &usd,
		PriceEUR:       &eur,
		IsFree:         &free,
		Downloads:      &downloads,
		RatingBreakdown: []models.StarRating{
			{Star: 5, Count: 120, Percent: 80},
		},
		ScrapedAt: time.Date(2025, 11, 4, 13, 9, 13, 0, time.UTC),
	}
}

func readCSV(t *testing.T, path string) []map[string]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) == 0 {
		t.Fatalf("csv has no header")
	}
	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(rec))
		for i, name := range records[0] {
			row[name] = rec[i]
		}
		rows = append(rows, row)
	}
	return rows
}

func TestCSVWriterWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "products.csv")

	writer, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("create csv writer: %v", err)
	}

	if err := writer.Write([]*models.ProductRecord{sampleRecord()}); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if err := writer.Validate(); err != nil {
		t.Fatalf("validate csv: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close csv: %v", err)
	}

	rows := readCSV(t, path)
	if len(rows) != 1 {
		t.Fatalf("rows=%d, want 1", len(rows))
	}
	row := rows[0]

	tests := map[string]string{
		"product_url":      "https://chunk.gg/@giggle-block-studios/soul-seekers",
		"title":            "Soul Seekers",
		"tags":             "Adventure, Mini / Game",
		"badge_labels":     "Add-On | Multiplayer",
		"price_minecoins":  "830",
		"price_usd":        "6.99",
		"is_free":          "false",
		"rating_breakdown": `[{"star":5,"count":120,"percent":80}]`,
		"rating_5_count":   "120",
		"rating_5_percent": "80",
		"rating_1_count":   "",
		"rating_value":     "",
		"has_trailer":      "",
		"scraped_at":       "2025-11-04T13:09:13Z",
	}
	for column, want := range tests {
		if got, ok := row[column]; !ok || got != want {
			t.Errorf("%s = %q (present %v), want %q", column, got, ok, want)
		}
	}
	if len(row) != len(productColumns) {
		t.Fatalf("columns=%d, want %d", len(row), len(productColumns))
	}
}

func TestJSONWriterWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "products.jsonl")

	writer, err := NewJSONWriter(path)
	if err != nil {
		t.Fatalf("create json writer: %v", err)
	}

	if err := writer.Write([]*models.ProductRecord{sampleRecord(), {ProductURL: "https://chunk.gg/@a/b"}}); err != nil {
		t.Fatalf("write json: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close json: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open json: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var lines []map[string]any
	for scanner.Scan() {
		var decoded map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid json line: %v", err)
		}
		lines = append(lines, decoded)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan json: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("json lines=%d, want 2", len(lines))
	}
	if lines[0]["title"] != "Soul Seekers" || lines[0]["price_minecoins"] != float64(830) {
		t.Fatalf("unexpected first line: %v", lines[0])
	}
	if _, ok := lines[1]["title"]; ok {
		t.Fatalf("absent title should be omitted: %v", lines[1])
	}
}

func TestDualWriterWrite(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "products.csv")
	jsonPath := filepath.Join(dir, "products.jsonl")

	writer, err := NewDualWriter(csvPath, jsonPath)
	if err != nil {
		t.Fatalf("create dual writer: %v", err)
	}

	if err := writer.Write([]*models.ProductRecord{sampleRecord()}); err != nil {
		t.Fatalf("write dual: %v", err)
	}
	if err := writer.Validate(); err != nil {
		t.Fatalf("validate dual: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close dual: %v", err)
	}

	if info, err := os.Stat(csvPath); err != nil || info.Size() == 0 {
		t.Fatalf("csv file missing or empty")
	}
	if info, err := os.Stat(jsonPath); err != nil || info.Size() == 0 {
		t.Fatalf("json file missing or empty")
	}
}

func TestAnalyticsWriterRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "analytics.csv")

	writer, err := NewAnalyticsWriter(path)
	if err != nil {
		t.Fatalf("create analytics writer: %v", err)
	}
	bare := &models.ProductRecord{ProductURL: "https://chunk.gg/@a/b", Category: "Skins"}
	if err := writer.Write([]*models.ProductRecord{sampleRecord(), bare}); err != nil {
		t.Fatalf("write analytics: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close analytics: %v", err)
	}

	rows := readCSV(t, path)
	if len(rows) != 2 {
		t.Fatalf("rows=%d, want 2", len(rows))
	}

	full := rows[0]
	if full["product_name"] != "Soul Seekers" || full["publisher"] != "Giggle Block Studios" {
		t.Fatalf("identity columns = %q / %q", full["product_name"], full["publisher"])
	}
	if full["downloads"] != "1204500" {
		t.Fatalf("downloads = %q", full["downloads"])
	}
	if full["tags"] != "Adventure,Mini / Game" {
		t.Fatalf("tags = %q", full["tags"])
	}
	var prices map[string]float64
	if err := json.Unmarshal([]byte(full["prices"]), &prices); err != nil {
		t.Fatalf("prices not json: %q: %v", full["prices"], err)
	}
	if prices["Minecoins"] != 830 || prices["USD"] != 6.99 || prices["EUR"] != 6.49 {
		t.Fatalf("prices = %v", prices)
	}

	empty := rows[1]
	if empty["downloads"] != "0" || empty["prices"] != "{}" || empty["product_name"] != "" {
		t.Fatalf("bare row = %v", empty)
	}
}

func TestUpsertModelsKeyedByURL(t *testing.T) {
	ops := upsertModels([]*models.ProductRecord{sampleRecord(), nil, {Category: "Worlds"}})
	if len(ops) != 1 {
		t.Fatalf("ops=%d, want 1", len(ops))
	}

	replace, ok := ops[0].(*mongo.ReplaceOneModel)
	if !ok {
		t.Fatalf("op type = %T", ops[0])
	}
	filter, ok := replace.Filter.(bson.D)
	if !ok || len(filter) != 1 || filter[0].Key != "product_url" || filter[0].Value != "https://chunk.gg/@giggle-block-studios/soul-seekers" {
		t.Fatalf("filter = %#v", replace.Filter)
	}
	if replace.Upsert == nil || !*replace.Upsert {
		t.Fatalf("upsert not set")
	}
}

func TestMongoWriterCountGuardedOnClose(t *testing.T) {
	// Connect does not dial; the client only talks to a server on first use.
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI("mongodb://127.0.0.1:1"))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	mw := &MongoWriter{
		client:     client,
		collection: client.Database("test").Collection("products"),
		count:      3,
		logger:     slog.Default(),
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Same guarded update Write makes after a bulk upsert.
			mw.mu.Lock()
			mw.count++
			mw.mu.Unlock()
			if err := mw.Validate(); err != nil {
				t.Errorf("validate: %v", err)
			}
		}()
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	wg.Wait()
	if got := mw.written(); got != 7 {
		t.Fatalf("written = %d, want 7", got)
	}

	empty := &MongoWriter{logger: slog.Default()}
	if err := empty.Validate(); err == nil {
		t.Fatalf("expected error when nothing was written")
	}
}
