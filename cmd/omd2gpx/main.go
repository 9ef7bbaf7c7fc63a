package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/lucasjlepore/onmove-export/catalog"
	"github.com/lucasjlepore/onmove-export/config"
	"github.com/lucasjlepore/onmove-export/pipeline"
)

func main() {
	var (
		configPath   = flag.String("config", "", "Path to a YAML config file")
		dir          = flag.String("dir", "", "Directory holding .OMD/.OMH files")
		outDir       = flag.String("out", "", "Output directory (defaults to -dir)")
		offset       = flag.String("offset", "", "Fixed UTC offset for timestamps, e.g. +02:00")
		formats      = flag.String("formats", "", "Comma separated outputs: gpx,tsv,parquet,fit,json")
		housekeeping = flag.String("housekeeping", "", "What to do with exported sources: keep|archive|delete")
		catalogPath  = flag.String("catalog", "", "SQLite catalog of exported activities")
		verify       = flag.Bool("verify", true, "Re-read every GPX with an independent parser")
		stats        = flag.Bool("stats", false, "Print an activity report for each exported log")
		printConfig  = flag.Bool("print-config", false, "Print the effective configuration and exit")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s -dir /media/ONMOVE-200 [-out dir] [-offset +02:00] [-formats gpx,tsv] [-housekeeping archive]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "omd2gpx: %v\n", err)
		os.Exit(2)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "dir":
			cfg.InputDir = *dir
		case "out":
			cfg.OutputDir = *outDir
		case "offset":
			cfg.UTCOffset = *offset
		case "formats":
			cfg.Formats = strings.Split(*formats, ",")
		case "housekeeping":
			cfg.Housekeeping = *housekeeping
		case "catalog":
			cfg.CatalogPath = *catalogPath
		case "verify":
			cfg.Verify = *verify
		}
	})

	if *printConfig {
		if err := config.Write(os.Stdout, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "omd2gpx: %v\n", err)
			os.Exit(1)
		}
		return
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	fmts, err := pipeline.ParseFormats(cfg.Formats)
	if err != nil {
		fmt.Fprintf(os.Stderr, "omd2gpx: %v\n", err)
		os.Exit(2)
	}
	hk, err := pipeline.NewHousekeeper(cfg.Housekeeping, cfg.ArchiveDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "omd2gpx: %v\n", err)
		os.Exit(2)
	}

	opts := pipeline.Options{
		InputDir:     cfg.InputDir,
		OutputDir:    cfg.OutputDir,
		UTCOffset:    cfg.UTCOffset,
		Formats:      fmts,
		Creator:      cfg.Creator,
		Verify:       cfg.Verify,
		Housekeeper:  hk,
		SkipExported: cfg.SkipExported,
		Logger:       logger,
	}

	var store *catalog.Store
	if cfg.CatalogPath != "" {
		store, err = catalog.Open(cfg.CatalogPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "omd2gpx: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
		opts.Catalog = store
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, err := pipeline.Run(ctx, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "omd2gpx failed: %v\n", err)
		if result == nil {
			os.Exit(1)
		}
	}

	for _, fr := range result.Files {
		switch {
		case fr.Err != nil:
			fmt.Printf("FAIL  %-16s %v\n", fr.Source.Name, fr.Err)
		case fr.Skipped:
			fmt.Printf("SKIP  %-16s already exported\n", fr.Source.Name)
		default:
			fmt.Printf("OK    %-16s %d samples -> %s\n", fr.Source.Name, fr.Samples, strings.Join(fr.Outputs, ", "))
			if *stats && fr.Analysis != nil {
				fmt.Println()
				fmt.Println(fr.Analysis.Notes)
				fmt.Println()
			}
		}
	}
	fmt.Printf("exported: %d  skipped: %d  failed: %d\n", result.Exported, result.Skipped, result.Failed)

	if store != nil {
		if total, err := store.TotalDistanceKm(); err == nil {
			fmt.Printf("catalog distance:    %.2f km\n", total)
		}
	}
	if err != nil || result.Failed > 0 {
		os.Exit(1)
	}
}
