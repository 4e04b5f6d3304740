package grouper

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imagedupes/fingerprint"
	"imagedupes/index"
	"imagedupes/types"
)

func makeRecords(fps map[string]fingerprint.Fingerprint, order []string) []*types.ImageRecord {
	records := make([]*types.ImageRecord, 0, len(order))
	for _, id := range order {
		records = append(records, &types.ImageRecord{ID: id, Fingerprint: fps[id]})
	}
	return records
}

func buildIndex(t *testing.T, records []*types.ImageRecord, bits, threshold int) index.Index {
	t.Helper()
	idx, err := index.New(index.DefaultKind, bits, threshold)
	require.NoError(t, err)
	require.NoError(t, index.Build(idx, records))
	return idx
}

func TestThreeImageScenario(t *testing.T) {
	// A=00000000, B=00000001, C=11111111 at threshold 1:
	// d(A,B)=1 -> edge; d(B,C)=7, d(A,C)=8 -> no edges.
	records := makeRecords(map[string]fingerprint.Fingerprint{
		"A": {0x00},
		"B": {0x01},
		"C": {0xff},
	}, []string{"A", "B", "C"})

	groups := Group(records, buildIndex(t, records, 8, 1), 1)

	require.Len(t, groups, 2)
	assert.Equal(t, []string{"A", "B"}, groups[0].Members)
	assert.Equal(t, []string{"C"}, groups[1].Members)

	require.Len(t, groups[0].Edges, 1)
	assert.Equal(t, types.Edge{A: "A", B: "B", Distance: 1}, groups[0].Edges[0])
	assert.Empty(t, groups[1].Edges)
}

func TestChainedClustering(t *testing.T) {
	// A-B and B-C are each within threshold 2 but d(A,C)=4 is not.
	// Union-find produces the connected component {A,B,C}: chaining is
	// the documented behavior.
	records := makeRecords(map[string]fingerprint.Fingerprint{
		"A": {0x00},
		"B": {0x03},
		"C": {0x0f},
	}, []string{"A", "B", "C"})

	groups := Group(records, buildIndex(t, records, 8, 2), 2)

	require.Len(t, groups, 1)
	assert.Equal(t, []string{"A", "B", "C"}, groups[0].Members)
}

func TestGroupingPartitionsRecords(t *testing.T) {
	rng := rand.New(rand.NewSource(17))

	var records []*types.ImageRecord
	for i := 0; i < 200; i++ {
		fp := make(fingerprint.Fingerprint, 8)
		rng.Read(fp)
		records = append(records, &types.ImageRecord{
			ID:          fmt.Sprintf("img-%03d", i),
			Fingerprint: fp,
		})
	}

	groups := Group(records, buildIndex(t, records, 64, 6), 6)

	seen := make(map[string]int)
	for _, group := range groups {
		require.NotEmpty(t, group.Members, "no empty groups")
		for _, member := range group.Members {
			seen[member]++
		}
	}
	assert.Len(t, seen, len(records), "every record belongs to a group")
	for id, count := range seen {
		assert.Equal(t, 1, count, "%s must appear in exactly one group", id)
	}
}

func TestGroupingDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(23))

	var records []*types.ImageRecord
	for i := 0; i < 100; i++ {
		fp := make(fingerprint.Fingerprint, 8)
		rng.Read(fp)
		if i%4 == 1 {
			copy(fp, records[i-1].Fingerprint)
			fp[0] ^= 0x01
		}
		records = append(records, &types.ImageRecord{
			ID:          fmt.Sprintf("img-%03d", i),
			Fingerprint: fp,
		})
	}

	first := Group(records, buildIndex(t, records, 64, 4), 4)
	second := Group(records, buildIndex(t, records, 64, 4), 4)
	assert.Equal(t, first, second)

	// The BK-tree index must yield the same partition
	bk, err := index.New("bktree", 64, 4)
	require.NoError(t, err)
	require.NoError(t, index.Build(bk, records))
	third := Group(records, bk, 4)
	assert.Equal(t, first, third)
}

func TestSingletonRun(t *testing.T) {
	records := makeRecords(map[string]fingerprint.Fingerprint{
		"only": {0x42},
	}, []string{"only"})

	groups := Group(records, buildIndex(t, records, 8, 4), 4)
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"only"}, groups[0].Members)
}

func TestEmptyRun(t *testing.T) {
	groups := Group(nil, buildIndex(t, nil, 64, 4), 4)
	assert.Empty(t, groups)
}

func TestUnionFindPathHalving(t *testing.T) {
	// A long chain must resolve without deep recursion and end up fully
	// merged under one root.
	const n = 100000
	uf := newUnionFind(n)
	for i := 1; i < n; i++ {
		uf.union(i-1, i)
	}
	root := uf.find(0)
	assert.Equal(t, root, uf.find(n-1))
	assert.Equal(t, n, uf.size[root])
}
