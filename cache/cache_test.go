package cache

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imagedupes/fingerprint"
	"imagedupes/types"
)

func testRecord(path string, fp fingerprint.Fingerprint, size int64, mod time.Time) *types.ImageRecord {
	return &types.ImageRecord{
		ID:          path,
		Fingerprint: fp,
		Meta: types.FileMeta{
			Size:       size,
			ModifiedAt: mod,
			Width:      32,
			Height:     32,
			Format:     "jpg",
		},
	}
}

func TestPutAndLookup(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	c, err := Open(dbPath, "dhash", 64)
	require.NoError(t, err)
	defer c.Close()

	mod := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	fp := fingerprint.Fingerprint{0xde, 0xad, 0xbe, 0xef, 0x00, 0x11, 0x22, 0x33}
	require.NoError(t, c.Put(testRecord("a.jpg", fp, 1000, mod)))

	got, meta, hit, err := c.Lookup("a.jpg", 1000, mod)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, fp, got)
	assert.Equal(t, int64(1000), meta.Size)
	assert.Equal(t, "jpg", meta.Format)
}

func TestLookupMissOnChangedFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	c, err := Open(dbPath, "dhash", 64)
	require.NoError(t, err)
	defer c.Close()

	mod := time.Now().UTC().Truncate(time.Second)
	fp := fingerprint.Fingerprint{1, 2, 3, 4, 5, 6, 7, 8}
	require.NoError(t, c.Put(testRecord("a.jpg", fp, 1000, mod)))

	// Same path, different size: the file changed, the entry is stale
	_, _, hit, err := c.Lookup("a.jpg", 2000, mod)
	require.NoError(t, err)
	assert.False(t, hit)

	// Same size, newer mtime
	_, _, hit, err = c.Lookup("a.jpg", 1000, mod.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, hit)

	// Unknown path
	_, _, hit, err = c.Lookup("b.jpg", 1000, mod)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestPersistsAcrossOpens(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	mod := time.Now().UTC()
	fp := fingerprint.Fingerprint{9, 8, 7, 6, 5, 4, 3, 2}

	c, err := Open(dbPath, "dhash", 64)
	require.NoError(t, err)
	require.NoError(t, c.Put(testRecord("keep.jpg", fp, 42, mod)))
	require.NoError(t, c.Close())

	c, err = Open(dbPath, "dhash", 64)
	require.NoError(t, err)
	defer c.Close()

	_, _, hit, err := c.Lookup("keep.jpg", 42, mod)
	require.NoError(t, err)
	assert.True(t, hit)

	records, err := c.Records()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "keep.jpg", records[0].ID)
	assert.Equal(t, fp, records[0].Fingerprint)
}

func TestVersionMismatchDiscardsEntries(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	mod := time.Now().UTC()

	// Build a cache with a 64-bit dhash
	c, err := Open(dbPath, "dhash", 64)
	require.NoError(t, err)
	require.NoError(t, c.Put(testRecord("a.jpg", fingerprint.Fingerprint{1, 2, 3, 4, 5, 6, 7, 8}, 10, mod)))
	require.NoError(t, c.Close())

	// Reopen with a different algorithm: the stale entries must be
	// discarded with a warning, not a crash, and the cache stays usable.
	c, err = Open(dbPath, "dhash256", 256)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrVersionMismatch))
	require.NotNil(t, c)
	defer c.Close()

	total, err := c.Stats()
	require.NoError(t, err)
	assert.Equal(t, 0, total, "all stale entries discarded")

	// The refreshed cache accepts entries in the new format
	fp256 := make(fingerprint.Fingerprint, 32)
	fp256[0] = 0xff
	require.NoError(t, c.Put(testRecord("a.jpg", fp256, 10, mod)))

	got, _, hit, err := c.Lookup("a.jpg", 10, mod)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, fp256, got)
}

func TestReopenSameFormatNoMismatch(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache.db")

	c, err := Open(dbPath, "phash", 64)
	require.NoError(t, err)
	require.NoError(t, c.Close())

	c, err = Open(dbPath, "phash", 64)
	require.NoError(t, err)
	assert.NoError(t, c.Close())
}
