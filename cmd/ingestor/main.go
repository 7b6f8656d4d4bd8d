package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	natsadapter "github.com/aldatxeta/tourkit/internal/adapters/nats"
	"github.com/aldatxeta/tourkit/internal/adapters/postgres"
	"github.com/aldatxeta/tourkit/internal/core/domain"
	"github.com/aldatxeta/tourkit/internal/core/usecases"
	"github.com/aldatxeta/tourkit/internal/pkg/config"
	"github.com/aldatxeta/tourkit/internal/pkg/metrics"
)

// ---------------------------------------------------------------------------
// Manifest types
// ---------------------------------------------------------------------------

type Manifest struct {
	Source string      `json:"source"`
	Cities []CityEntry `json:"cities"`
}

type CityEntry struct {
	Name    string `json:"name"`
	Slug    string `json:"slug"`
	Country string `json:"country"`
	// ExportURL downloads the places export over HTTP; ExportFile reads
	// it from disk. Exactly one should be set.
	ExportURL  string `json:"export_url,omitempty"`
	ExportFile string `json:"export_file,omitempty"`
}

// ---------------------------------------------------------------------------
// Main
// ---------------------------------------------------------------------------

func main() {
	cfg, err := config.Load("tourkit-ingestor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	cityRepo := postgres.NewCityRepo(db)
	placeRepo := postgres.NewPlaceRepo(db)
	placeSvc := usecases.NewPlaceService(placeRepo, nil)

	// Corpus-update broadcasts are best effort; ingestion proceeds
	// without NATS.
	publisher, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Printf("nats unavailable, skipping broadcasts: %v", err)
		publisher = nil
	} else {
		defer publisher.Close()
	}

	// Load manifest
	manifestPath := "manifest.json"
	if len(os.Args) > 1 {
		manifestPath = os.Args[1]
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		log.Fatalf("read manifest: %v", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		log.Fatalf("parse manifest: %v", err)
	}

	log.Printf("TourKit Places Ingestor — %d cities from %s", len(manifest.Cities), manifest.Source)

	// Filter cities (optional CLI arg: slug list)
	slugFilter := map[string]bool{}
	if len(os.Args) > 2 {
		for _, s := range strings.Split(os.Args[2], ",") {
			slugFilter[strings.TrimSpace(s)] = true
		}
	}

	client := &http.Client{Timeout: 120 * time.Second}

	var wg sync.WaitGroup
	sem := make(chan struct{}, 4) // max 4 concurrent cities

	for _, city := range manifest.Cities {
		if len(slugFilter) > 0 && !slugFilter[city.Slug] {
			continue
		}

		wg.Add(1)
		go func(c CityEntry) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := ingestCity(ctx, cityRepo, placeRepo, placeSvc, publisher, client, c); err != nil {
				log.Printf("ERROR [%s]: %v", c.Slug, err)
			}
		}(city)
	}

	wg.Wait()
	log.Println("ingestion complete")
}

// ---------------------------------------------------------------------------
// Per-city ingestion
// ---------------------------------------------------------------------------

func ingestCity(
	ctx context.Context,
	cityRepo *postgres.CityRepo,
	placeRepo *postgres.PlaceRepo,
	placeSvc *usecases.PlaceService,
	publisher *natsadapter.Publisher,
	client *http.Client,
	entry CityEntry,
) error {
	raw, err := openExport(client, entry)
	if err != nil {
		return err
	}
	defer raw.Close()

	places, err := parsePlaces(raw)
	if err != nil {
		return fmt.Errorf("parse export: %w", err)
	}
	log.Printf("[%s] export rows: %d", entry.Slug, len(places))

	// Clean scores every surviving place and drops closed listings,
	// no-coordinate rows, and low-signal entries.
	kept := placeSvc.Clean(places)
	if len(kept) == 0 {
		return fmt.Errorf("no places survived cleaning")
	}
	log.Printf("[%s] kept after cleaning: %d", entry.Slug, len(kept))

	// Upsert the city with the median coordinate of its corpus; the
	// recommender uses it as the proximity reference when a caller
	// supplies no location.
	city := &domain.City{
		Slug:    entry.Slug,
		Name:    entry.Name,
		Country: entry.Country,
		Median:  medianLocation(kept),
	}
	if err := cityRepo.Upsert(ctx, city); err != nil {
		return fmt.Errorf("upsert city: %w", err)
	}
	log.Printf("[%s] city_id=%s median=(%.4f, %.4f)", entry.Slug, city.ID, city.Median.Lat, city.Median.Lon)

	for i := range kept {
		kept[i].CityID = city.ID
	}

	const batchSize = 500
	for start := 0; start < len(kept); start += batchSize {
		end := start + batchSize
		if end > len(kept) {
			end = len(kept)
		}
		if err := placeRepo.UpsertBatch(ctx, kept[start:end]); err != nil {
			return fmt.Errorf("upsert places %d..%d: %w", start, end, err)
		}
	}

	metrics.PlacesIngested.WithLabelValues(entry.Slug).Add(float64(len(kept)))

	if publisher != nil {
		update, _ := json.Marshal(map[string]any{
			"type":   "corpus_updated",
			"city":   entry.Slug,
			"places": len(kept),
		})
		if err := publisher.PublishBroadcast(ctx, update); err != nil {
			log.Printf("[%s] broadcast: %v", entry.Slug, err)
		}
	}

	log.Printf("[%s] done: %d places", entry.Slug, len(kept))
	return nil
}

func openExport(client *http.Client, entry CityEntry) (io.ReadCloser, error) {
	if entry.ExportFile != "" {
		f, err := os.Open(entry.ExportFile)
		if err != nil {
			return nil, fmt.Errorf("open export: %w", err)
		}
		return f, nil
	}
	if entry.ExportURL == "" {
		return nil, fmt.Errorf("city %s has neither export_url nor export_file", entry.Slug)
	}

	log.Printf("[%s] downloading export from %s", entry.Slug, entry.ExportURL)
	resp, err := client.Get(entry.ExportURL)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, entry.ExportURL)
	}
	return resp.Body, nil
}

// ---------------------------------------------------------------------------
// Export parsing
// ---------------------------------------------------------------------------

func parsePlaces(r io.Reader) ([]domain.Place, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	header, err := reader.Read()
	if err != nil {
		return nil, err
	}
	cols := indexColumns(header)

	var places []domain.Place
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		lat, _ := strconv.ParseFloat(getField(record, cols, "lat"), 64)
		lon, _ := strconv.ParseFloat(getField(record, cols, "lon"), 64)
		rating, _ := strconv.ParseFloat(getField(record, cols, "rating"), 64)
		reviews, _ := strconv.Atoi(getField(record, cols, "reviews"))

		p := domain.Place{
			MapsID:           getField(record, cols, "maps_id"),
			Name:             getField(record, cols, "name"),
			Location:         domain.GeoPoint{Lat: lat, Lon: lon},
			Rating:           rating,
			Reviews:          reviews,
			PrimaryType:      getField(record, cols, "primary_type"),
			BusinessStatus:   getField(record, cols, "business_status"),
			EditorialSummary: getField(record, cols, "editorial_summary"),
			GoodForGroups:    getField(record, cols, "good_for_groups") == "true",
			GoodForChildren:  getField(record, cols, "good_for_children") == "true",
		}
		if types := getField(record, cols, "types"); types != "" {
			p.Types = strings.Split(types, "|")
		}
		if p.MapsID == "" || p.Name == "" {
			continue
		}
		places = append(places, p)
	}
	return places, nil
}

// medianLocation returns the coordinate-wise median of the places.
func medianLocation(places []domain.Place) domain.GeoPoint {
	lats := make([]float64, len(places))
	lons := make([]float64, len(places))
	for i, p := range places {
		lats[i] = p.Location.Lat
		lons[i] = p.Location.Lon
	}
	sort.Float64s(lats)
	sort.Float64s(lons)
	return domain.GeoPoint{Lat: median(lats), Lon: median(lons)}
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func indexColumns(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, col := range header {
		// Strip BOM from first column
		col = strings.TrimPrefix(col, "\xef\xbb\xbf")
		m[strings.TrimSpace(col)] = i
	}
	return m
}

func getField(record []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
