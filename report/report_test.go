package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imagedupes/fingerprint"
	"imagedupes/grouper"
	"imagedupes/index"
	"imagedupes/scanner"
	"imagedupes/types"
)

func sampleReport() *scanner.Report {
	return &scanner.Report{
		Groups: []types.DuplicateGroup{
			{
				Members: []string{"a.jpg", "b.jpg"},
				Edges:   []types.Edge{{A: "a.jpg", B: "b.jpg", Distance: 2}},
			},
			{Members: []string{"c.jpg"}},
		},
		Skipped: []types.SkippedImage{
			{Path: "broken.jpg", Reason: "unsupported or corrupt image data"},
		},
		Stats: scanner.Stats{TotalFiles: 4, Fingerprinted: 3, CacheHits: 1},
	}
}

func TestWriteShowsGroupsAndSkips(t *testing.T) {
	var sb strings.Builder
	Write(&sb, sampleReport(), Options{})
	out := sb.String()

	assert.Contains(t, out, "Group 1 (2 images):")
	assert.Contains(t, out, "a.jpg")
	assert.Contains(t, out, "distance 2: a.jpg <-> b.jpg")
	assert.NotContains(t, out, "Group 2", "singleton groups are hidden by default")
	assert.Contains(t, out, "Scanned 4 files: 3 fingerprinted (1 from cache), 1 skipped, 1 duplicate groups.")
}

func TestWriteShowSkippedReasons(t *testing.T) {
	var sb strings.Builder
	Write(&sb, sampleReport(), Options{ShowSkipped: true})
	out := sb.String()

	assert.Contains(t, out, "broken.jpg: unsupported or corrupt image data")
}

func TestWriteWarnings(t *testing.T) {
	rep := sampleReport()
	rep.Warnings = append(rep.Warnings, "cache version mismatch: all images will be re-extracted")

	var sb strings.Builder
	Write(&sb, rep, Options{})
	assert.Contains(t, sb.String(), "Warning: cache version mismatch")
}

func TestWriteNoGroups(t *testing.T) {
	rep := &scanner.Report{
		Groups: []types.DuplicateGroup{{Members: []string{"only.jpg"}}},
		Stats:  scanner.Stats{TotalFiles: 1, Fingerprinted: 1},
	}

	var sb strings.Builder
	Write(&sb, rep, Options{})
	assert.Contains(t, sb.String(), "No duplicate groups found.")
}

func TestRefineDropsChainedOutlier(t *testing.T) {
	// x joins the group through c alone; every recorded edge is within
	// the threshold, so only measuring x against a and b from the
	// fingerprints exposes it. The majority rule drops it into a
	// singleton of its own.
	records := []*types.ImageRecord{
		{ID: "a", Fingerprint: fingerprint.Fingerprint{0x00}},
		{ID: "b", Fingerprint: fingerprint.Fingerprint{0x03}},
		{ID: "c", Fingerprint: fingerprint.Fingerprint{0x06}},
		{ID: "x", Fingerprint: fingerprint.Fingerprint{0x0e}},
	}

	idx, err := index.New(index.DefaultKind, 8, 2)
	require.NoError(t, err)
	require.NoError(t, index.Build(idx, records))
	groups := grouper.Group(records, idx, 2)
	require.Len(t, groups, 1)
	require.Equal(t, []string{"a", "b", "c", "x"}, groups[0].Members)
	for _, edge := range groups[0].Edges {
		require.LessOrEqual(t, edge.Distance, 2)
	}

	refined := Refine(groups, records, 2)
	require.Len(t, refined, 2)
	assert.Equal(t, []string{"a", "b", "c"}, refined[0].Members)
	assert.Len(t, refined[0].Edges, 3)
	assert.Equal(t, []string{"x"}, refined[1].Members)
}

func TestRefineKeepsPairs(t *testing.T) {
	records := []*types.ImageRecord{
		{ID: "a", Fingerprint: fingerprint.Fingerprint{0x0f}},
		{ID: "b", Fingerprint: fingerprint.Fingerprint{0x00}},
	}
	groups := []types.DuplicateGroup{
		{Members: []string{"a", "b"}, Edges: []types.Edge{{A: "a", B: "b", Distance: 4}}},
	}
	assert.Equal(t, groups, Refine(groups, records, 4))
}
