package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"os"
	"strconv"

	"go.temporal.io/sdk/client"

	natsadapter "github.com/aldatxeta/tourkit/internal/adapters/nats"
	"github.com/aldatxeta/tourkit/internal/adapters/postgres"
	"github.com/aldatxeta/tourkit/internal/adapters/valkey"
	"github.com/aldatxeta/tourkit/internal/core/domain"
	"github.com/aldatxeta/tourkit/internal/core/ports"
	"github.com/aldatxeta/tourkit/internal/core/usecases"
	"github.com/aldatxeta/tourkit/internal/pkg/config"
	"github.com/aldatxeta/tourkit/internal/workflows"
)

// areasManifest describes a batch coverage run: which areas to tile and
// with what circle parameters.
type areasManifest struct {
	Source        string              `json:"source"`
	RadiusMeters  float64             `json:"radius_meters"`
	SpacingFactor float64             `json:"spacing_factor"`
	Areas         [][]domain.GeoPoint `json:"areas"`
}

func main() {
	manifestPath := flag.String("manifest", "areas.json", "areas manifest file")
	csvOut := flag.String("out", "", "write centers to this CSV file")
	enqueue := flag.Bool("enqueue", false, "hand the run to the Temporal worker instead of computing inline")
	flag.Parse()

	cfg, err := config.Load("tourkit-coverage")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	data, err := os.ReadFile(*manifestPath)
	if err != nil {
		log.Fatalf("read manifest: %v", err)
	}
	var manifest areasManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		log.Fatalf("parse manifest: %v", err)
	}

	log.Printf("TourKit Coverage Planner — %d areas from %s (radius %.0fm, spacing %.2f)",
		len(manifest.Areas), manifest.Source, manifest.RadiusMeters, manifest.SpacingFactor)

	ctx := context.Background()
	input := workflows.CoveragePlanInput{
		Areas:         manifest.Areas,
		RadiusMeters:  manifest.RadiusMeters,
		SpacingFactor: manifest.SpacingFactor,
	}

	if *enqueue {
		enqueueRun(ctx, cfg, input)
		return
	}

	runInline(ctx, cfg, input, *csvOut)
}

// enqueueRun starts the coverage plan workflow; the worker persists and
// announces the plan.
func enqueueRun(ctx context.Context, cfg *config.Config, input workflows.CoveragePlanInput) {
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		TaskQueue: cfg.Temporal.TaskQueue,
	}, workflows.CoveragePlanWorkflow, input)
	if err != nil {
		log.Fatalf("start workflow: %v", err)
	}

	var planID string
	if err := run.Get(ctx, &planID); err != nil {
		log.Fatalf("workflow failed: %v", err)
	}
	log.Printf("plan stored: %s", planID)
}

// runInline computes, persists, and announces the plan in-process.
func runInline(ctx context.Context, cfg *config.Config, input workflows.CoveragePlanInput, csvOut string) {
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	// Cache and publisher are optional for batch runs; a typed nil
	// pointer must not leak into the interface fields.
	var cacheSvc ports.CacheService
	if cache, err := valkey.New(cfg.Valkey.Addr, "tourkit-coverage"); err != nil {
		log.Printf("valkey unavailable: %v", err)
	} else {
		defer cache.Close()
		cacheSvc = cache
	}

	var publisher ports.EventPublisher
	if nc, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		log.Printf("nats unavailable: %v", err)
	} else {
		defer nc.Close()
		publisher = nc
	}

	svc := usecases.NewCoverageService(postgres.NewCoveragePlanRepo(db), cacheSvc, publisher)

	polygons := make([]domain.Polygon, 0, len(input.Areas))
	for i, area := range input.Areas {
		pg, err := domain.NewPolygon(area)
		if err != nil {
			log.Fatalf("area %d: %v", i+1, err)
		}
		polygons = append(polygons, pg)
	}

	plan, err := svc.Plan(ctx, domain.CoverageRequest{
		Polygons:      polygons,
		RadiusMeters:  input.RadiusMeters,
		SpacingFactor: input.SpacingFactor,
	})
	if err != nil && !errors.Is(err, domain.ErrNoAreasProvided) {
		log.Fatalf("plan: %v", err)
	}

	log.Printf("plan %s: %d centers across %d areas", plan.ID, len(plan.Centers), plan.AreaCount)

	if csvOut != "" {
		if err := writeCentersCSV(csvOut, plan.Centers); err != nil {
			log.Fatalf("write csv: %v", err)
		}
		log.Printf("centers written to %s", csvOut)
	}
}

func writeCentersCSV(path string, centers []domain.CircleCenter) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"lat", "lon", "radius_meters", "area_id"}); err != nil {
		return err
	}
	for _, c := range centers {
		record := []string{
			strconv.FormatFloat(c.Location.Lat, 'f', 8, 64),
			strconv.FormatFloat(c.Location.Lon, 'f', 8, 64),
			strconv.FormatFloat(c.RadiusMeters, 'f', 1, 64),
			strconv.Itoa(c.AreaID),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return w.Error()
}
