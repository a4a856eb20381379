package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/feedforge/feedforge_core/internal/config"
	"github.com/feedforge/feedforge_core/internal/db"
	"github.com/feedforge/feedforge_core/internal/gtfs"
	"github.com/feedforge/feedforge_core/internal/logger"
	"github.com/feedforge/feedforge_core/internal/models"
)

func main() {
	ownerID := flag.String("owner", "", "Owner account id for this feed (required)")
	projectID := flag.String("project", "", "Project id to import into (required)")
	gtfsPath := flag.String("gtfs", "", "Path to GTFS ZIP file (required)")

	flag.Parse()

	if *ownerID == "" || *projectID == "" || *gtfsPath == "" {
		fmt.Println("Usage: feedforge-import --owner=<id> --project=<id> --gtfs=<path.zip>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if _, err := os.Stat(*gtfsPath); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "GTFS file not found: %s\n", *gtfsPath)
		os.Exit(1)
	}

	cfg := config.Load()
	log := logger.New(logger.ConsoleWriter())

	pool, err := db.GetDB()
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	store := gtfs.NewPGStore(pool)
	// One-shot CLI runs unguarded; the lock only matters for the API path.
	importer := gtfs.NewImporter(store, log, cfg.Import.WorkDir, nil)

	summary, err := importer.Run(context.Background(), *ownerID, *projectID, *gtfsPath, *gtfsPath)
	if err != nil {
		log.Error("import failed", "error", err)
		os.Exit(1)
	}

	printManifest(summary)
	if !summary.Succeeded() {
		os.Exit(1)
	}
}

func printManifest(summary *models.ImportSummary) {
	fmt.Printf("batch %d: %d rows in %s\n", summary.BatchID, summary.RowsLoaded(), summary.Duration)
	for _, t := range summary.Tables {
		line := fmt.Sprintf("  %-24s %-20s rows=%d", t.File, t.Status, t.RowsLoaded)
		if t.MalformedRows > 0 {
			line += fmt.Sprintf(" malformed=%d", t.MalformedRows)
		}
		if t.Error != "" {
			line += " error=" + t.Error
		}
		fmt.Println(line)
	}
}
