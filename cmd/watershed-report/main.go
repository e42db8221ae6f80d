// Command watershed-report builds the WRIA boundary report: fetch
// the boundary archive, load and shape the attribute table,
// reproject, derive summary statistics, render the map plots, and
// write the snapshot files.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"github.com/banshee-data/watershed.report/internal/config"
	"github.com/banshee-data/watershed.report/internal/fetch"
	"github.com/banshee-data/watershed.report/internal/fsutil"
	"github.com/banshee-data/watershed.report/internal/geo"
	"github.com/banshee-data/watershed.report/internal/render"
	"github.com/banshee-data/watershed.report/internal/snapshot"
	"github.com/banshee-data/watershed.report/internal/stats"
	"github.com/banshee-data/watershed.report/internal/units"
	"github.com/banshee-data/watershed.report/internal/wria"
)

var (
	configPath = flag.String("config", "", "Path to JSON config file (optional)")
	sourceURL  = flag.String("source", "", "Override archive source URL")
	dataDir    = flag.String("data-dir", "", "Override data directory")
	outputDir  = flag.String("output", "", "Override output directory")
	dbPath     = flag.String("db-path", "", "Override snapshot database path")
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: watershed-report [flags] <command>

Commands:
  fetch     Download and extract the boundary archive
  report    Run the full pipeline: fetch, shape, stats, plots, snapshots
  migrate   Manage the snapshot database schema (up|down|status)
  help      Show this help

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		usage()
		os.Exit(1)
	}

	cfg := loadConfig()

	switch args[0] {
	case "fetch":
		if _, err := runFetch(cfg); err != nil {
			log.Fatalf("Fetch failed: %v", err)
		}
	case "report":
		if err := runReport(cfg); err != nil {
			log.Fatalf("Report failed: %v", err)
		}
	case "migrate":
		runMigrate(cfg, args[1:])
	case "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
		usage()
		os.Exit(1)
	}
}

// loadConfig reads the config file (if given) and applies flag
// overrides on top.
func loadConfig() *config.Config {
	cfg := config.Empty()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	if *sourceURL != "" {
		cfg.SourceURL = sourceURL
	}
	if *dataDir != "" {
		cfg.DataDir = dataDir
	}
	if *outputDir != "" {
		cfg.OutputDir = outputDir
	}
	if *dbPath != "" {
		cfg.SnapshotDB = dbPath
	}
	return cfg
}

func runFetch(cfg *config.Config) (string, error) {
	fetcher := &fetch.Fetcher{}
	path, err := fetcher.Ensure(context.Background(), cfg.GetSourceURL(), cfg.GetDataDir(), cfg.GetShapefileName())
	if err != nil {
		return "", err
	}
	log.Printf("Shapefile ready: %s", path)
	return path, nil
}

func runReport(cfg *config.Config) error {
	started := time.Now()
	runID := uuid.NewString()

	shpPath, err := runFetch(cfg)
	if err != nil {
		return err
	}

	raw, err := wria.Load(shpPath)
	if err != nil {
		return err
	}
	log.Printf("Loaded %d raw features (%d columns)", raw.Len(), len(raw.Columns))

	shaped, err := wria.Shape(raw)
	if err != nil {
		return err
	}
	log.Printf("Shaped table: %d watersheds, columns %v", shaped.Len(), shaped.Columns)

	mercator, err := geo.Reproject(shaped, geo.EPSG3857)
	if err != nil {
		return err
	}

	summary, err := stats.Summarize(shaped, wria.ColArea, wria.ColID, wria.ColName, cfg.GetQuantileProbs())
	if err != nil {
		return err
	}
	centroids, err := stats.Centroids(shaped, wria.ColID, wria.ColName)
	if err != nil {
		return err
	}

	outDir := filepath.Join(cfg.GetOutputDir(), started.Format("20060102_150405"))
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	if err := renderPlots(cfg, shaped, mercator, summary, centroids, outDir); err != nil {
		return err
	}
	if err := writeSnapshots(cfg, shaped, summary, centroids, snapshot.Run{
		ID:           runID,
		SourceURL:    cfg.GetSourceURL(),
		StartedAt:    started,
		FinishedAt:   time.Now(),
		FeatureCount: shaped.Len(),
	}, outDir); err != nil {
		return err
	}

	printSummary(summary, outDir)
	return nil
}

func renderPlots(cfg *config.Config, shaped, mercator *geo.Table, summary *stats.Summary, centroids []stats.Centroid, outDir string) error {
	opts := render.Options{
		WidthIn:  cfg.GetPlotWidthIn(),
		HeightIn: cfg.GetPlotHeightIn(),
	}

	opts.Title = "Washington watershed boundaries (WRIA)"
	if err := render.Boundaries(shaped, opts, filepath.Join(outDir, "boundaries.png")); err != nil {
		return err
	}

	areas, err := shaped.Numeric(wria.ColArea)
	if err != nil {
		return err
	}
	classes := stats.Classify(areas, summary.Thresholds)
	labels := classLabels(summary.Thresholds)
	opts.Title = "Watershed area quantiles"
	if err := render.Choropleth(shaped, classes, labels, opts, filepath.Join(outDir, "choropleth_area.png")); err != nil {
		return err
	}

	pts := make([]orb.Point, len(centroids))
	for i, c := range centroids {
		pts[i] = orb.Point{c.Lon, c.Lat}
	}
	opts.Title = "Watershed centroids"
	if err := render.CentroidOverlay(shaped, pts, opts, filepath.Join(outDir, "centroids.png")); err != nil {
		return err
	}

	opts.Title = fmt.Sprintf("Largest watershed: %s (%s)",
		summary.MaxArea.Name, units.FormatAcres(summary.MaxArea.AreaAcres))
	if err := render.Highlight(shaped, summary.MaxArea.Row, opts, filepath.Join(outDir, "largest.png")); err != nil {
		return err
	}

	opts.Title = "Watershed boundaries (web mercator)"
	if err := render.Boundaries(mercator, opts, filepath.Join(outDir, "boundaries_mercator.png")); err != nil {
		return err
	}

	return writeCompanionPage(cfg, shaped, centroids, filepath.Join(outDir, "report.html"))
}

// classLabels names the choropleth buckets by their upper cut.
func classLabels(thresholds []stats.Threshold) []string {
	labels := make([]string, len(thresholds)+1)
	for i, th := range thresholds {
		labels[i] = fmt.Sprintf("<= %s", units.FormatAcres(th.AreaAcres))
	}
	if len(thresholds) > 0 {
		labels[len(thresholds)] = fmt.Sprintf("> %s", units.FormatAcres(thresholds[len(thresholds)-1].AreaAcres))
	} else {
		labels[0] = "all"
	}
	return labels
}

func writeCompanionPage(cfg *config.Config, shaped *geo.Table, centroids []stats.Centroid, file string) error {
	byArea := shaped.Copy()
	if err := byArea.SortByNumeric(wria.ColArea, true); err != nil {
		return err
	}
	n := cfg.GetTopN()
	if n > byArea.Len() {
		n = byArea.Len()
	}
	areaRows := make([]render.AreaRow, 0, n)
	for _, f := range byArea.Features[:n] {
		name, _ := f.Props[wria.ColName].(string)
		area, _ := f.Props[wria.ColArea].(float64)
		areaRows = append(areaRows, render.AreaRow{Name: name, AreaAcres: area})
	}

	centroidRows := make([]render.CentroidRow, len(centroids))
	for i, c := range centroids {
		centroidRows[i] = render.CentroidRow{Name: c.Name, Lon: c.Lon, Lat: c.Lat}
	}
	return render.CompanionPage(areaRows, centroidRows, file)
}

func writeSnapshots(cfg *config.Config, shaped *geo.Table, summary *stats.Summary, centroids []stats.Centroid, run snapshot.Run, outDir string) error {
	if err := snapshot.WriteGeoJSON(shaped, filepath.Join(outDir, "watersheds.geojson")); err != nil {
		return err
	}

	if err := writeSummaryJSON(summary, filepath.Join(outDir, "summary.json")); err != nil {
		return err
	}

	dbFile := cfg.GetSnapshotDB()
	if err := os.MkdirAll(filepath.Dir(dbFile), 0755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	store, err := snapshot.Open(dbFile)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.MigrateUp(); err != nil {
		return err
	}

	areas, err := shaped.Numeric(wria.ColArea)
	if err != nil {
		return err
	}
	classes := stats.Classify(areas, summary.Thresholds)

	rows := make([]snapshot.WatershedRow, len(centroids))
	for i, c := range centroids {
		rows[i] = snapshot.WatershedRow{
			WRIAID:        c.ID,
			Name:          c.Name,
			AreaAcres:     areas[i],
			QuantileClass: classes[i],
			CentroidLon:   c.Lon,
			CentroidLat:   c.Lat,
		}
	}

	if err := store.RecordRun(run); err != nil {
		return err
	}
	if err := store.RecordWatersheds(run.ID, rows); err != nil {
		return err
	}
	return store.RecordSummary(run.ID, summary)
}

// writeSummaryJSON snapshots the summary through a temp file and
// rename, like the GeoJSON writer, so a failed run never leaves a
// truncated file.
func writeSummaryJSON(s *stats.Summary, path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if err := fsutil.WriteAtomic(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

func printSummary(s *stats.Summary, outDir string) {
	fmt.Println()
	fmt.Println("=== Watershed Report ===")
	fmt.Printf("Watersheds:     %d\n", s.Count)
	fmt.Printf("Largest:        %s (WRIA %d, %s)\n",
		s.MaxArea.Name, s.MaxArea.ID, units.FormatAcres(s.MaxArea.AreaAcres))
	fmt.Printf("Smallest area:  %s\n", units.FormatAcres(s.MinAreaAcres))
	fmt.Printf("Mean area:      %s (%.0f km²)\n",
		units.FormatAcres(s.MeanAreaAcres), units.AcresToSquareKm(s.MeanAreaAcres))
	for _, th := range s.Thresholds {
		fmt.Printf("  q%.0f:          %s\n", th.Prob*100, units.FormatAcres(th.AreaAcres))
	}
	fmt.Printf("Outputs:        %s\n", outDir)
}

func runMigrate(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: watershed-report migrate <up|down|status>")
		os.Exit(1)
	}

	dbFile := cfg.GetSnapshotDB()
	if err := os.MkdirAll(filepath.Dir(dbFile), 0755); err != nil {
		log.Fatalf("Failed to create snapshot dir: %v", err)
	}
	store, err := snapshot.Open(dbFile)
	if err != nil {
		log.Fatalf("Failed to open snapshot database: %v", err)
	}
	defer store.Close()

	switch args[0] {
	case "up":
		if err := store.MigrateUp(); err != nil {
			log.Fatalf("Migration up failed: %v", err)
		}
		log.Println("All migrations applied")
	case "down":
		if err := store.MigrateDown(); err != nil {
			log.Fatalf("Migration down failed: %v", err)
		}
		log.Println("Rolled back one migration")
	case "status":
		version, dirty, err := store.MigrateVersion()
		if err != nil {
			log.Fatalf("Migration status failed: %v", err)
		}
		log.Printf("Schema version: %d (dirty: %v)", version, dirty)
	default:
		fmt.Fprintf(os.Stderr, "Unknown migrate action: %s\n", args[0])
		os.Exit(1)
	}
}
