// Package scanner drives the full duplicate-finding pipeline: discover
// image files, fingerprint them on a worker pool, collect the results
// into the store in a deterministic order, then index and group.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"imagedupes/cache"
	"imagedupes/decoder"
	"imagedupes/fingerprint"
	"imagedupes/grouper"
	"imagedupes/index"
	"imagedupes/logging"
	"imagedupes/store"
	"imagedupes/types"

	"golang.org/x/sync/errgroup"
)

// Run executes a complete duplicate-finding pass over the folder.
// Per-image decode failures never abort the run; they are returned as
// skip warnings alongside the groups. Cancelling the context stops the
// run between images, before grouping starts.
func Run(ctx context.Context, dec decoder.Decoder, opts Options) (*Report, error) {
	applyDefaults(&opts)

	extractor, err := fingerprint.NewExtractor(opts.Algorithm)
	if err != nil {
		return nil, err
	}

	report := &Report{}

	var fpCache *cache.Cache
	if opts.CachePath != "" && !opts.NoCache {
		fpCache, err = cache.Open(opts.CachePath, extractor.Name(), extractor.Bits())
		if errors.Is(err, cache.ErrVersionMismatch) {
			report.Warnings = append(report.Warnings, err.Error())
		} else if err != nil {
			return nil, err
		}
		defer fpCache.Close()
	}

	paths, err := collectImagePaths(opts.FolderPath, dec)
	if err != nil {
		return nil, err
	}
	report.Stats.TotalFiles = len(paths)

	if opts.DebugMode {
		logging.DebugLog("Found %d image files under %s", len(paths), opts.FolderPath)
	}

	startTime := time.Now()
	results, err := extractAll(ctx, dec, extractor, fpCache, paths, opts)
	if err != nil {
		return nil, err
	}

	// Insert in discovery order regardless of worker completion order,
	// so grouping is reproducible across runs.
	st := store.New()
	for _, path := range paths {
		res, ok := results[path]
		if !ok {
			continue
		}
		if res.Err != nil {
			report.Skipped = append(report.Skipped, types.SkippedImage{
				Path:   path,
				Reason: res.Err.Error(),
			})
			continue
		}
		if err := st.Insert(path, res.Fingerprint, res.Meta); err != nil {
			return nil, err
		}
		if res.CacheHit {
			report.Stats.CacheHits++
		}
		if fpCache != nil && !res.CacheHit {
			rec, _ := st.Get(path)
			if err := fpCache.Put(rec); err != nil {
				logging.LogWarning("%v", err)
			}
		}
	}
	report.Stats.Fingerprinted = st.Len()
	report.Stats.Errors = len(report.Skipped)

	idx, err := index.New(opts.IndexKind, extractor.Bits(), opts.Threshold)
	if err != nil {
		return nil, err
	}
	if err := index.Build(idx, st.Records()); err != nil {
		return nil, err
	}

	report.Records = st.Records()
	report.Groups = grouper.Group(report.Records, idx, opts.Threshold)
	report.Stats.Elapsed = time.Since(startTime)

	if opts.DebugMode {
		logging.DebugLog("Run complete: %d fingerprinted, %d skipped, %d groups in %v",
			report.Stats.Fingerprinted, report.Stats.Errors, len(report.Groups), report.Stats.Elapsed)
	}

	return report, nil
}

// applyDefaults fills in unset options. A threshold of zero means exact
// fingerprint matches only, so it is defaulted only when the caller did
// not set it at all.
func applyDefaults(opts *Options) {
	if !opts.ThresholdSet && opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.Algorithm == "" {
		opts.Algorithm = fingerprint.DefaultAlgorithm
	}
	if opts.IndexKind == "" {
		opts.IndexKind = index.DefaultKind
	}
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = OptimalWorkers()
	}
}

// OptimalWorkers returns the worker pool size for this machine
func OptimalWorkers() int {
	n := (runtime.NumCPU() * 3) / 4
	if n < 1 {
		n = 1
	}
	return n
}

// collectImagePaths walks the folder and returns all decodable files in
// lexical walk order. Unreadable subtrees are logged and skipped.
func collectImagePaths(folder string, dec decoder.Decoder) ([]string, error) {
	info, err := os.Stat(folder)
	if err != nil {
		return nil, fmt.Errorf("cannot access folder %s: %v", folder, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", folder)
	}

	var paths []string
	err = filepath.Walk(folder, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			logging.LogError("Error accessing path %s: %v", path, err)
			return nil
		}
		if !info.IsDir() && dec.CanDecode(path) {
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}

// extractAll fingerprints every path on a worker pool and returns the
// results keyed by path. Workers share nothing but the feed channel and
// the results map guarded by a mutex; each finishes or abandons its
// current image when the context is cancelled.
func extractAll(ctx context.Context, dec decoder.Decoder, extractor fingerprint.Extractor,
	fpCache *cache.Cache, paths []string, opts Options) (map[string]result, error) {

	tracker := newProgressTracker(len(paths))
	defer tracker.stop()

	results := make(map[string]result, len(paths))
	var mu sync.Mutex

	group, ctx := errgroup.WithContext(ctx)
	feed := make(chan string)

	group.Go(func() error {
		defer close(feed)
		for _, path := range paths {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case feed <- path:
			}
		}
		return nil
	})

	for i := 0; i < opts.MaxWorkers; i++ {
		group.Go(func() error {
			for path := range feed {
				res := processImage(dec, extractor, fpCache, path)
				tracker.record(res)

				mu.Lock()
				results[path] = res
				mu.Unlock()

				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	fmt.Println()
	return results, nil
}

// processImage fingerprints a single file, consulting the cache first.
// Any failure is captured in the result rather than returned; a bad
// file must not take the run down with it.
func processImage(dec decoder.Decoder, extractor fingerprint.Extractor, fpCache *cache.Cache, path string) result {
	res := result{Path: path}

	fileInfo, err := os.Stat(path)
	if err != nil {
		res.Err = fmt.Errorf("cannot stat file: %v", err)
		return res
	}

	if fpCache != nil {
		fp, meta, hit, err := fpCache.Lookup(path, fileInfo.Size(), fileInfo.ModTime())
		if err != nil {
			logging.LogWarning("%v", err)
		} else if hit {
			res.Fingerprint = fp
			res.Meta = *meta
			res.CacheHit = true
			return res
		}
	}

	grid, err := dec.Decode(path)
	if err != nil {
		res.Err = err
		return res
	}

	res.Fingerprint = extractor.Extract(grid)
	res.Meta = types.FileMeta{
		Size:       fileInfo.Size(),
		ModifiedAt: fileInfo.ModTime(),
		Width:      grid.Width,
		Height:     grid.Height,
		Format:     decoder.FileFormat(path),
	}
	return res
}
