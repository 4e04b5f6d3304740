package fingerprint

import "math"

// dct2d computes the two-dimensional DCT-II of a square grid with
// orthonormal scaling, returning coefficients indexed as [v][u]. Cosine
// terms are precomputed per frequency so the transform stays O(n^3)
// rather than O(n^4).
func dct2d(grid *PixelGrid) [][]float64 {
	n := grid.Width

	cosTable := make([][]float64, n)
	for u := range cosTable {
		cosTable[u] = make([]float64, n)
		for x := 0; x < n; x++ {
			cosTable[u][x] = math.Cos(math.Pi * float64(u) * (2*float64(x) + 1) / (2 * float64(n)))
		}
	}

	// Transform rows, then columns
	rows := make([][]float64, n)
	for y := 0; y < n; y++ {
		rows[y] = make([]float64, n)
		for u := 0; u < n; u++ {
			var sum float64
			for x := 0; x < n; x++ {
				sum += grid.At(x, y) * cosTable[u][x]
			}
			rows[y][u] = sum * scale(u, n)
		}
	}

	out := make([][]float64, n)
	for v := 0; v < n; v++ {
		out[v] = make([]float64, n)
		for u := 0; u < n; u++ {
			var sum float64
			for y := 0; y < n; y++ {
				sum += rows[y][u] * cosTable[v][y]
			}
			out[v][u] = sum * scale(v, n)
		}
	}

	return out
}

// scale is the orthonormal DCT-II scaling factor for frequency u
func scale(u, n int) float64 {
	if u == 0 {
		return math.Sqrt(1 / float64(n))
	}
	return math.Sqrt(2 / float64(n))
}
