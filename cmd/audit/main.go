// Command audit runs a one-off account audit against a JSON export file and
// prints the result, without the HTTP server or database.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/adscope/adscope/internal/advisor"
	"github.com/adscope/adscope/internal/analysis"
	"github.com/adscope/adscope/internal/audit"
	"github.com/adscope/adscope/internal/cache"
	"github.com/adscope/adscope/internal/config"
	"github.com/adscope/adscope/internal/ingestion"
	"github.com/adscope/adscope/internal/logging"
	"github.com/adscope/adscope/internal/models"
)

func main() {
	var (
		inputPath  = flag.String("input", "", "path to the JSON account export (required)")
		clientName = flag.String("client", "", "client name (required)")
		agencyName = flag.String("agency", "", "agency name")
		platform   = flag.String("platform", string(models.PlatformFacebook), "ad platform: facebook, instagram, tiktok or generic")
		outputPath = flag.String("output", "", "write the result JSON here instead of stdout")
		cacheDir   = flag.String("cache-dir", "", "override the audit cache directory")
		useCache   = flag.Bool("cache", false, "serve a cached result for the same client and day if one exists")
		lookback   = flag.Int("cache-lookback", 0, "accept cached results up to this many days old")
	)
	flag.Parse()

	if *inputPath == "" || *clientName == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Logs go to stderr so stdout stays clean for the result JSON.
	logger, err := logging.NewWithWriter(os.Stderr, cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}

	raw, err := os.ReadFile(*inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read input: %v\n", err)
		os.Exit(1)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		fmt.Fprintf(os.Stderr, "failed to parse input JSON: %v\n", err)
		os.Exit(1)
	}

	analyzer, err := analysis.NewAnalyzer(cfg.Analysis, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init analyzer: %v\n", err)
		os.Exit(1)
	}

	dir := cfg.Cache.Dir
	if *cacheDir != "" {
		dir = *cacheDir
	}
	store, err := cache.NewStore(dir, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init audit cache: %v\n", err)
		os.Exit(1)
	}

	adv, err := advisor.New(cfg.Advisor, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init advisor: %v\n", err)
		os.Exit(1)
	}

	service := audit.NewService(ingestion.NewNormalizer(logger), analyzer, store, nil, adv, nil, logger)

	result := service.Run(context.Background(), audit.Request{
		ClientName:        *clientName,
		AgencyName:        *agencyName,
		Platform:          models.Platform(*platform),
		Payload:           payload,
		UseCache:          *useCache,
		CacheLookbackDays: *lookback,
	})

	out := os.Stdout
	if *outputPath != "" {
		f, err := os.Create(*outputPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create output file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode result: %v\n", err)
		os.Exit(1)
	}

	if !result.Success {
		os.Exit(1)
	}
}
