package scanner

import (
	"fmt"
	"sync"
	"time"

	"imagedupes/logging"
)

// progressTracker reports fingerprinting progress on a ticker while the
// worker pool runs
type progressTracker struct {
	mu         sync.Mutex
	processed  int
	cacheHits  int
	errors     int
	totalFiles int
	ticker     *time.Ticker
	done       chan bool
}

// newProgressTracker starts the periodic progress display
func newProgressTracker(totalFiles int) *progressTracker {
	tracker := &progressTracker{
		ticker:     time.NewTicker(500 * time.Millisecond),
		done:       make(chan bool),
		totalFiles: totalFiles,
	}
	go tracker.displayProgress()
	return tracker
}

// displayProgress shows the progress periodically
func (p *progressTracker) displayProgress() {
	for {
		select {
		case <-p.done:
			return
		case <-p.ticker.C:
			p.mu.Lock()
			if p.errors > 0 {
				fmt.Printf("\rProgress: %d/%d (cached: %d, errors: %d)",
					p.processed, p.totalFiles, p.cacheHits, p.errors)
			} else {
				fmt.Printf("\rProgress: %d/%d (cached: %d)",
					p.processed, p.totalFiles, p.cacheHits)
			}
			p.mu.Unlock()
		}
	}
}

// record updates the tracker state for one fingerprinting result
func (p *progressTracker) record(res result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processed++
	if res.CacheHit {
		p.cacheHits++
	}
	if res.Err != nil {
		p.errors++
		logging.LogImageProcessed(res.Path, false, res.Err.Error())
	} else {
		logging.LogImageProcessed(res.Path, true, "")
	}
}

// stop ends the progress tracking
func (p *progressTracker) stop() {
	p.ticker.Stop()
	p.done <- true
}
