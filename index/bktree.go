package index

import (
	"fmt"

	"imagedupes/fingerprint"
	"imagedupes/types"
)

// BKTree is a metric tree over Hamming distance. Each node's children
// are keyed by their distance from the node; by the triangle
// inequality, a match within threshold T of the query can only live in
// child subtrees whose key is within T of the query's distance to the
// node, so the search skips everything else. Insertion and search are
// iterative to keep stack depth flat on long duplicate chains.
type BKTree struct {
	bitLen int
	root   *bkNode
	size   int
}

type bkNode struct {
	id       string
	fp       fingerprint.Fingerprint
	children map[int]*bkNode
}

// NewBKTree creates an empty tree for fingerprints of bitLen bits
func NewBKTree(bitLen int) *BKTree {
	return &BKTree{bitLen: bitLen}
}

// Insert adds a fingerprint to the tree
func (t *BKTree) Insert(id string, fp fingerprint.Fingerprint) error {
	if fp.BitLen() != t.bitLen {
		return fmt.Errorf("fingerprint is %d bits, index expects %d", fp.BitLen(), t.bitLen)
	}

	node := &bkNode{id: id, fp: fp}
	t.size++

	if t.root == nil {
		t.root = node
		return nil
	}

	cur := t.root
	for {
		d, _ := fingerprint.Distance(fp, cur.fp)
		if cur.children == nil {
			cur.children = make(map[int]*bkNode)
		}
		next, ok := cur.children[d]
		if !ok {
			cur.children[d] = node
			return nil
		}
		cur = next
	}
}

// Len returns the number of indexed fingerprints
func (t *BKTree) Len() int {
	return t.size
}

// Query returns all entries within threshold of fp, sorted by
// (distance, identifier).
func (t *BKTree) Query(fp fingerprint.Fingerprint, threshold int) []types.Neighbor {
	if t.root == nil || fp.BitLen() != t.bitLen {
		return nil
	}

	var results []types.Neighbor
	stack := []*bkNode{t.root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		d, _ := fingerprint.Distance(fp, node.fp)
		if d <= threshold {
			results = append(results, types.Neighbor{ID: node.id, Distance: d})
		}

		// Children outside [d-threshold, d+threshold] cannot contain a
		// match, by the triangle inequality.
		for key, child := range node.children {
			if key >= d-threshold && key <= d+threshold {
				stack = append(stack, child)
			}
		}
	}

	sortNeighbors(results)
	return results
}
