package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"imagedupes/cache"
	"imagedupes/decoder"
	"imagedupes/fingerprint"
	"imagedupes/index"
	"imagedupes/logging"
	"imagedupes/report"
	"imagedupes/scanner"
	"imagedupes/signalhandler"
	"imagedupes/utils"
)

func main() {
	args := utils.ParseArguments()
	command, hasCommand := args["command"]

	// Set default cache path
	cachePath := utils.GetDefaultCachePath()
	if customCache, ok := args["cache"]; ok && customCache != "" {
		cachePath = customCache
	}

	// Setup debug logging if enabled
	if _, ok := args["debug"]; ok {
		logPath := "imagedupes.log"
		if customLogPath, ok := args["logfile"]; ok && customLogPath != "" {
			logPath = customLogPath
		}
		if err := logging.SetupLogger(logPath); err != nil {
			fmt.Printf("Warning: Failed to setup logging: %v\n", err)
		} else {
			fmt.Printf("Debug mode enabled. Logging to: %s\n", logPath)
			defer logging.CloseLogger()
		}
	}

	// Check if required arguments are missing
	showUsage := !hasCommand
	if hasCommand && command == "scan" && args["folder"] == "" {
		showUsage = true
	}
	if hasCommand && command == "search" && args["image"] == "" {
		showUsage = true
	}
	if showUsage {
		utils.PrintUsage()
		os.Exit(1)
	}

	switch command {
	case "scan":
		handleScanCommand(args, cachePath)
	case "search":
		handleSearchCommand(args, cachePath)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		utils.PrintUsage()
		os.Exit(1)
	}
}

func handleScanCommand(args map[string]string, cachePath string) {
	opts := scanner.Options{
		FolderPath: args["folder"],
		Algorithm:  args["algorithm"],
		IndexKind:  args["index"],
		CachePath:  cachePath,
	}

	if opts.Algorithm == "" {
		opts.Algorithm = fingerprint.DefaultAlgorithm
	}
	extractor, err := fingerprint.NewExtractor(opts.Algorithm)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	opts.Threshold = scanner.DefaultThreshold
	if thresholdStr, ok := args["threshold"]; ok {
		opts.Threshold, err = utils.ParseThreshold(thresholdStr, extractor.Bits())
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
	}
	opts.ThresholdSet = true

	if workersStr, ok := args["workers"]; ok {
		opts.MaxWorkers, err = utils.ParseWorkers(workersStr)
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
	}

	if _, ok := args["no-cache"]; ok {
		opts.NoCache = true
	}
	if _, ok := args["debug"]; ok {
		opts.DebugMode = true
	}

	fmt.Printf("Scanning %s for duplicates (algorithm: %s, threshold: %d)\n",
		opts.FolderPath, opts.Algorithm, opts.Threshold)

	ctx := signalhandler.WithCancel(context.Background())

	startTime := time.Now()
	rep, err := scanner.Run(ctx, decoder.DefaultChain(), opts)
	if errors.Is(err, context.Canceled) {
		fmt.Println("\nScan cancelled.")
		os.Exit(130)
	}
	if err != nil {
		log.Fatalf("Error scanning folder: %v", err)
	}

	reportOpts := report.Options{}
	if minGroupStr, ok := args["min-group"]; ok {
		minGroup, err := strconv.Atoi(minGroupStr)
		if err != nil || minGroup < 1 {
			log.Fatalf("Error: invalid min-group value '%s'", minGroupStr)
		}
		reportOpts.MinGroupSize = minGroup
	}
	if _, ok := args["show-skipped"]; ok {
		reportOpts.ShowSkipped = true
	}
	if _, ok := args["refine"]; ok {
		rep.Groups = report.Refine(rep.Groups, rep.Records, opts.Threshold)
	}

	fmt.Println()
	report.Write(os.Stdout, rep, reportOpts)
	fmt.Printf("Total execution time: %v\n", time.Since(startTime).Round(time.Millisecond))
}

func handleSearchCommand(args map[string]string, cachePath string) {
	queryPath := args["image"]
	if _, err := os.Stat(queryPath); os.IsNotExist(err) {
		log.Fatalf("Query image does not exist: %s", queryPath)
	}
	if _, err := os.Stat(cachePath); os.IsNotExist(err) {
		log.Fatalf("Cache does not exist: %s. Run scan command first.", cachePath)
	}

	algorithm := args["algorithm"]
	if algorithm == "" {
		algorithm = fingerprint.DefaultAlgorithm
	}
	extractor, err := fingerprint.NewExtractor(algorithm)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	threshold := scanner.DefaultThreshold
	if thresholdStr, ok := args["threshold"]; ok {
		threshold, err = utils.ParseThreshold(thresholdStr, extractor.Bits())
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
	}

	fpCache, err := cache.Open(cachePath, extractor.Name(), extractor.Bits())
	if errors.Is(err, cache.ErrVersionMismatch) {
		log.Fatalf("Cache %s was built with a different fingerprint format. Re-run scan first.", cachePath)
	}
	if err != nil {
		log.Fatalf("Error opening cache: %v", err)
	}
	defer fpCache.Close()

	records, err := fpCache.Records()
	if err != nil {
		log.Fatalf("Error loading cache: %v", err)
	}
	if len(records) == 0 {
		log.Fatalf("Cache %s is empty. Run scan command first.", cachePath)
	}

	grid, err := decoder.DefaultChain().Decode(queryPath)
	if err != nil {
		log.Fatalf("Error decoding query image: %v", err)
	}
	queryFp := extractor.Extract(grid)

	idx, err := index.New(index.DefaultKind, extractor.Bits(), threshold)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	if err := index.Build(idx, records); err != nil {
		log.Fatalf("Error building index: %v", err)
	}

	fmt.Printf("Searching %d cached images within distance %d...\n\n", len(records), threshold)

	matches := idx.Query(queryFp, threshold)
	if len(matches) == 0 {
		fmt.Println("No matches found.")
		return
	}
	for i, match := range matches {
		fmt.Printf("%d. %s (distance %d)\n", i+1, match.ID, match.Distance)
	}
}
