// Package store holds the fingerprints collected during a single run.
// The store is append-only: records are inserted once, never mutated,
// and iterated in insertion order so that downstream grouping is
// reproducible for a fixed input ordering.
package store

import (
	"errors"
	"fmt"

	"imagedupes/fingerprint"
	"imagedupes/types"
)

var (
	// ErrDuplicateIdentifier indicates the same identifier was inserted
	// twice in one run. This is a caller contract violation, not an
	// expected runtime condition.
	ErrDuplicateIdentifier = errors.New("duplicate identifier")

	// ErrNotFound indicates a lookup of an identifier that was never inserted
	ErrNotFound = errors.New("identifier not found")
)

// Store is an insertion-ordered collection of image records. It is not
// safe for concurrent use; the scanner funnels all insertions through a
// single coordinator goroutine.
type Store struct {
	byID  map[string]*types.ImageRecord
	order []*types.ImageRecord
}

// New creates an empty store
func New() *Store {
	return &Store{byID: make(map[string]*types.ImageRecord)}
}

// Insert adds a record for the identifier. It fails with
// ErrDuplicateIdentifier if the identifier was already inserted.
func (s *Store) Insert(id string, fp fingerprint.Fingerprint, meta types.FileMeta) error {
	if _, ok := s.byID[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateIdentifier, id)
	}

	rec := &types.ImageRecord{
		ID:          id,
		Fingerprint: fp,
		Meta:        meta,
	}
	s.byID[id] = rec
	s.order = append(s.order, rec)
	return nil
}

// Get returns the record for the identifier, or ErrNotFound
func (s *Store) Get(id string) (*types.ImageRecord, error) {
	rec, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec, nil
}

// Len returns the number of records inserted so far
func (s *Store) Len() int {
	return len(s.order)
}

// Records returns all records in insertion order. The returned slice is
// shared; callers must not modify it.
func (s *Store) Records() []*types.ImageRecord {
	return s.order
}
