package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ParseArguments converts command-line arguments into a map of flags and values
func ParseArguments() map[string]string {
	args := make(map[string]string)

	// First, identify the command (scan/search)
	command := ""
	commandIndex := -1
	for i := 1; i < len(os.Args); i++ {
		if os.Args[i] == "scan" || os.Args[i] == "search" {
			command = os.Args[i]
			commandIndex = i
			break
		}
	}

	if command != "" {
		args["command"] = command
	}

	// Process all arguments, skipping the command
	for i := 1; i < len(os.Args); i++ {
		if i == commandIndex {
			continue
		}

		arg := os.Args[i]

		// Handle flags with equals sign (--key=value)
		if strings.HasPrefix(arg, "--") && strings.Contains(arg, "=") {
			parts := strings.SplitN(arg, "=", 2)
			flagName := strings.TrimPrefix(parts[0], "--")
			args[flagName] = parts[1]
			continue
		}

		// Handle flags without equals sign (--key value)
		if strings.HasPrefix(arg, "--") {
			flagName := strings.TrimPrefix(arg, "--")

			// Check if this is a boolean flag (no value)
			if i+1 >= len(os.Args) || strings.HasPrefix(os.Args[i+1], "--") {
				args[flagName] = "true"
			} else {
				args[flagName] = os.Args[i+1]
				i++ // Skip the value in the next iteration
			}
		}
	}

	return args
}

// GetDefaultCachePath returns the default path for the fingerprint cache
func GetDefaultCachePath() string {
	exePath, err := os.Executable()
	if err != nil {
		return "imagedupes.db"
	}
	return filepath.Join(filepath.Dir(exePath), "imagedupes.db")
}

// PrintUsage outputs the command-line usage instructions
func PrintUsage() {
	fmt.Printf("Usage:\n")
	fmt.Printf("  %s scan --folder=PATH [--threshold=N] [--algorithm=NAME] [--index=KIND] [--cache=PATH] [--no-cache] [--workers=N] [--min-group=N] [--show-skipped] [--refine] [--debug] [--logfile=PATH]\n", os.Args[0])
	fmt.Printf("  %s search --image=PATH [--cache=PATH] [--threshold=N] [--debug] [--logfile=PATH]\n", os.Args[0])
	fmt.Printf("\nParameters:\n")
	fmt.Printf("  --folder       : Path to folder containing images to scan for duplicates\n")
	fmt.Printf("  --image        : Path to query image for search\n")
	fmt.Printf("  --threshold    : Max Hamming distance to treat images as duplicates (default: 4)\n")
	fmt.Printf("  --algorithm    : Fingerprint algorithm: dhash, dhash256, ahash, phash (default: dhash)\n")
	fmt.Printf("  --index        : Similarity index: multiindex, bktree (default: multiindex)\n")
	fmt.Printf("  --cache        : Path to fingerprint cache file (default: %s)\n", GetDefaultCachePath())
	fmt.Printf("  --no-cache     : Disable the fingerprint cache for this run\n")
	fmt.Printf("  --workers      : Number of parallel fingerprinting workers\n")
	fmt.Printf("  --min-group    : Hide groups with fewer members than this (default: 2)\n")
	fmt.Printf("  --show-skipped : List every skipped file with its reason\n")
	fmt.Printf("  --refine       : Drop group members far from most of their group\n")
	fmt.Printf("  --debug        : Enable debug mode (logs detailed information)\n")
	fmt.Printf("  --logfile      : Specify custom log file path (default: imagedupes.log)\n")
	fmt.Printf("\nExamples:\n")
	fmt.Printf("  %s scan --folder=/path/to/photos --threshold=6 --debug\n", os.Args[0])
	fmt.Printf("  %s search --image=/path/to/query.jpg --cache=photos.db\n", os.Args[0])
}

// ParseThreshold parses and validates a Hamming distance threshold
func ParseThreshold(thresholdStr string, maxBits int) (int, error) {
	threshold, err := strconv.Atoi(thresholdStr)
	if err != nil || threshold < 0 || threshold > maxBits {
		return 0, fmt.Errorf("invalid threshold value '%s' (expected 0-%d)", thresholdStr, maxBits)
	}
	return threshold, nil
}

// ParseWorkers parses and validates a worker count
func ParseWorkers(workersStr string) (int, error) {
	workers, err := strconv.Atoi(workersStr)
	if err != nil || workers < 1 {
		return 0, fmt.Errorf("invalid worker count '%s'", workersStr)
	}
	return workers, nil
}
