// Package index provides threshold-bounded similarity search over
// fingerprints. Both implementations prune candidates before computing
// exact Hamming distances and are guaranteed to return every stored
// fingerprint within the query threshold (no false negatives).
package index

import (
	"fmt"
	"sort"

	"imagedupes/fingerprint"
	"imagedupes/types"
)

// Index answers "which stored fingerprints are within Hamming distance
// threshold of this query" without comparing against every entry. The
// index stores identifiers only; record ownership stays with the store.
type Index interface {
	// Insert adds a fingerprint under the identifier. All fingerprints
	// in one index must have the same bit length.
	Insert(id string, fp fingerprint.Fingerprint) error

	// Query returns every stored entry within Hamming distance
	// threshold of fp, sorted by (distance, identifier) so results are
	// reproducible across runs.
	Query(fp fingerprint.Fingerprint, threshold int) []types.Neighbor

	// Len returns the number of indexed fingerprints
	Len() int
}

// DefaultKind is the index used when no selector is given
const DefaultKind = "multiindex"

// New creates an index of the given kind for fingerprints of bitLen
// bits, tuned for queries at the given threshold.
func New(kind string, bitLen, threshold int) (Index, error) {
	switch kind {
	case "multiindex":
		return NewMultiIndex(bitLen, threshold), nil
	case "bktree":
		return NewBKTree(bitLen), nil
	default:
		return nil, fmt.Errorf("unknown index kind: %s (valid: multiindex, bktree)", kind)
	}
}

// Build populates an index from records in one batch
func Build(idx Index, records []*types.ImageRecord) error {
	for _, rec := range records {
		if err := idx.Insert(rec.ID, rec.Fingerprint); err != nil {
			return fmt.Errorf("indexing %s: %v", rec.ID, err)
		}
	}
	return nil
}

// sortNeighbors orders results by distance, then identifier
func sortNeighbors(ns []types.Neighbor) {
	sort.Slice(ns, func(i, j int) bool {
		if ns[i].Distance != ns[j].Distance {
			return ns[i].Distance < ns[j].Distance
		}
		return ns[i].ID < ns[j].ID
	})
}
