// Package grouper collapses pairwise similarity edges into duplicate
// groups. Groups are the connected components of the similarity graph
// at the run threshold: because similarity is not transitive, a group
// may chain together images that are not pairwise within the threshold
// of each other. That is the documented semantics, not a defect;
// callers needing strict pairwise guarantees must post-filter.
package grouper

import (
	"imagedupes/index"
	"imagedupes/types"
)

// Group partitions the records into duplicate groups by querying the
// index for each record's neighbors within threshold and unioning the
// results. The output is deterministic for a fixed record order and
// threshold: records are processed in the order given (insertion
// order), members within a group keep that order, and groups are
// ordered by their first member. Every record lands in exactly one
// group; singleton groups are included.
func Group(records []*types.ImageRecord, idx index.Index, threshold int) []types.DuplicateGroup {
	ordinal := make(map[string]int, len(records))
	for i, rec := range records {
		ordinal[rec.ID] = i
	}

	uf := newUnionFind(len(records))
	var edges []types.Edge

	for i, rec := range records {
		for _, n := range idx.Query(rec.Fingerprint, threshold) {
			j, ok := ordinal[n.ID]
			if !ok || j == i {
				continue
			}
			uf.union(i, j)
			if i < j {
				// Each unordered pair is seen from both ends; keep it once
				edges = append(edges, types.Edge{
					A:        rec.ID,
					B:        n.ID,
					Distance: n.Distance,
				})
			}
		}
	}

	// Collect members per root, walking records in insertion order so
	// both group order and member order are reproducible.
	groupOf := make(map[int]int)
	var groups []types.DuplicateGroup
	for i, rec := range records {
		root := uf.find(i)
		gi, ok := groupOf[root]
		if !ok {
			gi = len(groups)
			groupOf[root] = gi
			groups = append(groups, types.DuplicateGroup{})
		}
		groups[gi].Members = append(groups[gi].Members, rec.ID)
	}

	for _, e := range edges {
		gi := groupOf[uf.find(ordinal[e.A])]
		groups[gi].Edges = append(groups[gi].Edges, e)
	}

	return groups
}
