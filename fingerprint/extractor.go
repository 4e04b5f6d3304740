package fingerprint

import (
	"fmt"
	"sort"
)

// Extractor converts a normalized pixel grid into a fingerprint. An
// extractor is a pure function of the grid: identical input always
// yields a bit-identical fingerprint, and the bit emission order is
// fixed per algorithm. The algorithm name and bit length are part of
// the persisted cache contract; changing either invalidates cached
// fingerprints.
type Extractor interface {
	// Name returns the algorithm selector ("dhash", "ahash", ...)
	Name() string

	// Bits returns the fingerprint length in bits
	Bits() int

	// Extract computes the fingerprint for the grid
	Extract(grid *PixelGrid) Fingerprint
}

// DefaultAlgorithm is the extractor used when no selector is given
const DefaultAlgorithm = "dhash"

// NewExtractor returns the extractor registered under the given name
func NewExtractor(name string) (Extractor, error) {
	switch name {
	case "dhash":
		return &DifferenceHash{Size: 8}, nil
	case "dhash256":
		return &DifferenceHash{Size: 16}, nil
	case "ahash":
		return &AverageHash{}, nil
	case "phash":
		return &PerceptualHash{}, nil
	default:
		return nil, fmt.Errorf("unknown hash algorithm: %s (valid: dhash, dhash256, ahash, phash)", name)
	}
}

// DifferenceHash is a gradient-sign hash: the grid is downsampled to
// (Size+1) x Size and each cell is compared to its right neighbor. A
// bit is set when the left cell is brighter. Bits are emitted row-major,
// Size comparisons per row, giving Size*Size bits total.
type DifferenceHash struct {
	Size int
}

func (h *DifferenceHash) Name() string {
	if h.Size == 16 {
		return "dhash256"
	}
	return "dhash"
}

func (h *DifferenceHash) Bits() int { return h.Size * h.Size }

func (h *DifferenceHash) Extract(grid *PixelGrid) Fingerprint {
	small := grid.Downsample(h.Size+1, h.Size)

	w := newBitWriter(h.Bits())
	for row := 0; row < h.Size; row++ {
		for col := 0; col < h.Size; col++ {
			w.writeBit(small.At(col, row) > small.At(col+1, row))
		}
	}
	return w.fingerprint()
}

// AverageHash downsamples the grid to 8x8 and sets a bit for every cell
// at or above the mean intensity. Bits are emitted row-major.
type AverageHash struct{}

func (h *AverageHash) Name() string { return "ahash" }

func (h *AverageHash) Bits() int { return 64 }

func (h *AverageHash) Extract(grid *PixelGrid) Fingerprint {
	small := grid.Downsample(8, 8)
	mean := small.mean()

	w := newBitWriter(h.Bits())
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			w.writeBit(small.At(x, y) >= mean)
		}
	}
	return w.fingerprint()
}

// PerceptualHash is a frequency-domain hash: a 32x32 DCT-II of the grid
// is reduced to its top-left 8x8 low-frequency block and each
// coefficient is compared to the block median. Bits are emitted
// row-major over the 8x8 block.
type PerceptualHash struct{}

func (h *PerceptualHash) Name() string { return "phash" }

func (h *PerceptualHash) Bits() int { return 64 }

func (h *PerceptualHash) Extract(grid *PixelGrid) Fingerprint {
	small := grid.Downsample(GridSize, GridSize)
	coeffs := dct2d(small)

	lowFreq := make([]float64, 0, 64)
	for v := 0; v < 8; v++ {
		for u := 0; u < 8; u++ {
			lowFreq = append(lowFreq, coeffs[v][u])
		}
	}
	m := median(lowFreq)

	w := newBitWriter(h.Bits())
	for _, c := range lowFreq {
		w.writeBit(c >= m)
	}
	return w.fingerprint()
}

// median returns the median of values without modifying the input
func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}
