// Package cache persists fingerprints between runs so unchanged files
// skip re-extraction. The schema is versioned together with the active
// hash algorithm: fingerprints produced by a different algorithm or bit
// length are never compared against current ones; the whole cache is
// discarded and rebuilt instead.
package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"imagedupes/fingerprint"
	"imagedupes/logging"
	"imagedupes/types"

	_ "github.com/mattn/go-sqlite3"
)

// SchemaVersion is bumped whenever the table layout changes
const SchemaVersion = 1

// ErrVersionMismatch reports that a cache was built with a different
// schema version or hash algorithm. It is a warning, not a failure:
// the cache has already been discarded and the run proceeds with full
// re-extraction.
var ErrVersionMismatch = errors.New("cache version mismatch")

// Cache is a SQLite-backed fingerprint store keyed by file path. A hit
// requires the stored size and modification time to match the file on
// disk.
type Cache struct {
	db        *sql.DB
	algorithm string
	bits      int
}

// Open opens or creates a cache at path for the given hash algorithm.
// If the existing cache disagrees on schema version, algorithm, or bit
// length, its entries are dropped and the returned error wraps
// ErrVersionMismatch while the cache itself remains usable. Any other
// error means the cache header is unreadable and the cache cannot be
// used.
func Open(path, algorithm string, bits int) (*Cache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("cannot open cache %s: %v", path, err)
	}

	c := &Cache{db: db, algorithm: algorithm, bits: bits}
	mismatch, err := c.ensureSchema()
	if err != nil {
		db.Close()
		return nil, err
	}
	if mismatch {
		return c, fmt.Errorf("%w: cache %s was built with a different fingerprint format, all images will be re-extracted", ErrVersionMismatch, path)
	}
	return c, nil
}

// ensureSchema creates the tables and reconciles the stored format
// header with the active one. Returns true when stale entries were
// discarded.
func (c *Cache) ensureSchema() (bool, error) {
	createSQL := `
	CREATE TABLE IF NOT EXISTS meta (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		schema_version INTEGER NOT NULL,
		algorithm TEXT NOT NULL,
		bits INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS fingerprints (
		path TEXT PRIMARY KEY,
		size INTEGER NOT NULL,
		modified_at TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		width INTEGER,
		height INTEGER,
		format TEXT,
		indexed_at TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_fingerprint ON fingerprints(fingerprint);`

	if _, err := c.db.Exec(createSQL); err != nil {
		return false, fmt.Errorf("cannot create cache schema: %v", err)
	}

	var version, bits int
	var algorithm string
	err := c.db.QueryRow("SELECT schema_version, algorithm, bits FROM meta WHERE id = 1").
		Scan(&version, &algorithm, &bits)
	switch {
	case err == sql.ErrNoRows:
		// Fresh cache; stamp it with the active format
		_, err = c.db.Exec("INSERT INTO meta (id, schema_version, algorithm, bits) VALUES (1, ?, ?, ?)",
			SchemaVersion, c.algorithm, c.bits)
		if err != nil {
			return false, fmt.Errorf("cannot write cache header: %v", err)
		}
		return false, nil
	case err != nil:
		return false, fmt.Errorf("cache header unreadable: %v", err)
	}

	if version == SchemaVersion && algorithm == c.algorithm && bits == c.bits {
		return false, nil
	}

	logging.LogWarning("Discarding cache built with %s/%d bits (schema v%d); active format is %s/%d bits (schema v%d)",
		algorithm, bits, version, c.algorithm, c.bits, SchemaVersion)

	if _, err := c.db.Exec("DELETE FROM fingerprints"); err != nil {
		return false, fmt.Errorf("cannot discard stale cache entries: %v", err)
	}
	if _, err := c.db.Exec("UPDATE meta SET schema_version = ?, algorithm = ?, bits = ? WHERE id = 1",
		SchemaVersion, c.algorithm, c.bits); err != nil {
		return false, fmt.Errorf("cannot update cache header: %v", err)
	}
	return true, nil
}

// Lookup returns the cached fingerprint and metadata for path, hitting
// only when the stored size and modification time match the values
// given.
func (c *Cache) Lookup(path string, size int64, modTime time.Time) (fingerprint.Fingerprint, *types.FileMeta, bool, error) {
	var storedSize int64
	var storedMod, fpHex, format string
	var width, height int

	err := c.db.QueryRow(
		"SELECT size, modified_at, fingerprint, width, height, format FROM fingerprints WHERE path = ?",
		path).Scan(&storedSize, &storedMod, &fpHex, &width, &height, &format)
	if err == sql.ErrNoRows {
		return nil, nil, false, nil
	}
	if err != nil {
		return nil, nil, false, fmt.Errorf("cache lookup for %s: %v", path, err)
	}

	if storedSize != size || storedMod != modTime.UTC().Format(time.RFC3339Nano) {
		return nil, nil, false, nil
	}

	fp, err := fingerprint.FromHex(fpHex)
	if err != nil {
		// A corrupt row is treated as a miss, not a failure
		logging.LogWarning("Ignoring corrupt cache entry for %s: %v", path, err)
		return nil, nil, false, nil
	}

	meta := &types.FileMeta{
		Size:       storedSize,
		ModifiedAt: modTime,
		Width:      width,
		Height:     height,
		Format:     format,
	}
	return fp, meta, true, nil
}

// Put stores or replaces the fingerprint for a record
func (c *Cache) Put(rec *types.ImageRecord) error {
	_, err := c.db.Exec(`
		INSERT OR REPLACE INTO fingerprints (
			path, size, modified_at, fingerprint, width, height, format, indexed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Meta.Size,
		rec.Meta.ModifiedAt.UTC().Format(time.RFC3339Nano),
		rec.Fingerprint.Hex(),
		rec.Meta.Width,
		rec.Meta.Height,
		rec.Meta.Format,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("cannot cache fingerprint for %s: %v", rec.ID, err)
	}
	return nil
}

// Records loads every cached entry in path order. Used by the search
// command to rebuild an index without rescanning the filesystem.
func (c *Cache) Records() ([]*types.ImageRecord, error) {
	rows, err := c.db.Query(
		"SELECT path, size, modified_at, fingerprint, width, height, format FROM fingerprints ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("cannot read cache entries: %v", err)
	}
	defer rows.Close()

	var records []*types.ImageRecord
	for rows.Next() {
		var path, modStr, fpHex, format string
		var size int64
		var width, height int
		if err := rows.Scan(&path, &size, &modStr, &fpHex, &width, &height, &format); err != nil {
			return nil, fmt.Errorf("cannot scan cache row: %v", err)
		}

		fp, err := fingerprint.FromHex(fpHex)
		if err != nil {
			logging.LogWarning("Skipping corrupt cache entry for %s: %v", path, err)
			continue
		}
		modTime, _ := time.Parse(time.RFC3339Nano, modStr)

		records = append(records, &types.ImageRecord{
			ID:          path,
			Fingerprint: fp,
			Meta: types.FileMeta{
				Size:       size,
				ModifiedAt: modTime,
				Width:      width,
				Height:     height,
				Format:     format,
			},
		})
	}
	return records, rows.Err()
}

// Stats reports the number of cached fingerprints
func (c *Cache) Stats() (int, error) {
	var total int
	if err := c.db.QueryRow("SELECT COUNT(*) FROM fingerprints").Scan(&total); err != nil {
		return 0, fmt.Errorf("cannot read cache stats: %v", err)
	}
	return total, nil
}

// Close releases the underlying database handle
func (c *Cache) Close() error {
	return c.db.Close()
}
