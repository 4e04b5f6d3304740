package index

import (
	"fmt"

	"imagedupes/fingerprint"
	"imagedupes/types"
)

// MultiIndex implements multi-index hashing: each fingerprint is split
// into threshold+1 disjoint bit blocks and bucketed by the exact value
// of every block. Two fingerprints within Hamming distance T differ in
// at most T bits, so with T+1 blocks at least one block must match
// exactly (pigeonhole); scanning only the buckets the query falls into
// therefore finds every true match. Candidates are still verified with
// an exact distance computation.
type MultiIndex struct {
	bitLen    int
	numBlocks int
	bounds    []int // numBlocks+1 block boundaries in bits

	entries []entry
	buckets map[string][]int // block key -> entry ordinals
}

type entry struct {
	id string
	fp fingerprint.Fingerprint
}

// NewMultiIndex creates a multi-index for fingerprints of bitLen bits,
// tuned for queries up to the given threshold. Queries above the tuned
// threshold fall back to a full scan so exactness is preserved.
func NewMultiIndex(bitLen, threshold int) *MultiIndex {
	if threshold < 0 {
		threshold = 0
	}
	numBlocks := threshold + 1
	if numBlocks > bitLen {
		numBlocks = bitLen
	}

	// Distribute bitLen bits over the blocks as evenly as possible
	bounds := make([]int, numBlocks+1)
	for i := 0; i <= numBlocks; i++ {
		bounds[i] = i * bitLen / numBlocks
	}

	return &MultiIndex{
		bitLen:    bitLen,
		numBlocks: numBlocks,
		bounds:    bounds,
		buckets:   make(map[string][]int),
	}
}

// Insert adds a fingerprint to every block bucket it belongs to
func (m *MultiIndex) Insert(id string, fp fingerprint.Fingerprint) error {
	if fp.BitLen() != m.bitLen {
		return fmt.Errorf("fingerprint is %d bits, index expects %d", fp.BitLen(), m.bitLen)
	}

	ord := len(m.entries)
	m.entries = append(m.entries, entry{id: id, fp: fp})

	for b := 0; b < m.numBlocks; b++ {
		key := m.blockKey(fp, b)
		m.buckets[key] = append(m.buckets[key], ord)
	}
	return nil
}

// Len returns the number of indexed fingerprints
func (m *MultiIndex) Len() int {
	return len(m.entries)
}

// Query returns all entries within threshold of fp, sorted by
// (distance, identifier).
func (m *MultiIndex) Query(fp fingerprint.Fingerprint, threshold int) []types.Neighbor {
	if fp.BitLen() != m.bitLen {
		return nil
	}

	var results []types.Neighbor
	if threshold >= m.numBlocks {
		// The pigeonhole guarantee only holds for thresholds below the
		// block count this index was built for; scan everything.
		for _, e := range m.entries {
			if d, _ := fingerprint.Distance(fp, e.fp); d <= threshold {
				results = append(results, types.Neighbor{ID: e.id, Distance: d})
			}
		}
		sortNeighbors(results)
		return results
	}

	seen := make(map[int]struct{})
	for b := 0; b < m.numBlocks; b++ {
		for _, ord := range m.buckets[m.blockKey(fp, b)] {
			if _, ok := seen[ord]; ok {
				continue
			}
			seen[ord] = struct{}{}

			e := m.entries[ord]
			if d, _ := fingerprint.Distance(fp, e.fp); d <= threshold {
				results = append(results, types.Neighbor{ID: e.id, Distance: d})
			}
		}
	}

	sortNeighbors(results)
	return results
}

// blockKey extracts block b of the fingerprint as a bucket key. The key
// embeds the block ordinal so values from different blocks never
// collide in the shared bucket map.
func (m *MultiIndex) blockKey(fp fingerprint.Fingerprint, b int) string {
	start, end := m.bounds[b], m.bounds[b+1]

	key := make([]byte, 1, 1+(end-start+7)/8)
	key[0] = byte(b)

	var cur byte
	var nbit uint
	for i := start; i < end; i++ {
		cur = cur<<1 | byte(fp.Bit(i))
		nbit++
		if nbit == 8 {
			key = append(key, cur)
			cur, nbit = 0, 0
		}
	}
	if nbit > 0 {
		key = append(key, cur)
	}
	return string(key)
}
