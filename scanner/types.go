package scanner

import (
	"time"

	"imagedupes/fingerprint"
	"imagedupes/types"
)

// Options defines the options for a duplicate-finding run
type Options struct {
	FolderPath   string
	Threshold    int    // Hamming distance bound, in bits
	ThresholdSet bool   // true when Threshold was given explicitly; zero is a valid bound
	Algorithm    string // fingerprint algorithm selector
	IndexKind    string // similarity index selector
	CachePath    string // empty means no cache
	NoCache      bool
	MaxWorkers   int
	DebugMode    bool
}

// DefaultThreshold is the Hamming distance bound used when none is given
const DefaultThreshold = 4

// result holds the outcome of fingerprinting one file
type result struct {
	Path        string
	Fingerprint fingerprint.Fingerprint
	Meta        types.FileMeta
	CacheHit    bool
	Err         error
}

// Stats summarizes a completed run
type Stats struct {
	TotalFiles    int
	Fingerprinted int
	CacheHits     int
	Errors        int
	Elapsed       time.Duration
}

// Report is the full output of a run: the duplicate groups, the
// fingerprinted records behind them, the images that had to be skipped,
// run-level warnings, and counters. The groups partition every
// fingerprinted image; skipped images appear only in the skip list.
type Report struct {
	Groups   []types.DuplicateGroup
	Records  []*types.ImageRecord
	Skipped  []types.SkippedImage
	Warnings []string
	Stats    Stats
}
