package types

import (
	"time"

	"imagedupes/fingerprint"
)

// FileMeta holds filesystem metadata captured when an image is fingerprinted
type FileMeta struct {
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Format     string    `json:"format"`
}

// ImageRecord holds a fingerprinted image and its metadata.
// Records are created once per successfully decoded image and are
// immutable after insertion into the store.
type ImageRecord struct {
	ID          string                  `json:"id"`
	Fingerprint fingerprint.Fingerprint `json:"fingerprint"`
	Meta        FileMeta                `json:"meta"`
}

// Neighbor is a similarity query result: a stored identifier and its
// exact Hamming distance from the query fingerprint.
type Neighbor struct {
	ID       string
	Distance int
}

// Edge records the measured distance between two members of a group
type Edge struct {
	A        string
	B        string
	Distance int
}

// DuplicateGroup is one connected component of the similarity graph at
// the run threshold. Members appear in insertion order. Because
// similarity is not transitive, members may chain: every member is
// within threshold of at least one other member, not necessarily all.
type DuplicateGroup struct {
	Members []string
	Edges   []Edge
}

// SkippedImage records a file that could not be fingerprinted
type SkippedImage struct {
	Path   string
	Reason string
}
