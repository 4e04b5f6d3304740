package fingerprint

// GridSize is the normalized edge length the decoder produces. All
// extractors take a GridSize x GridSize input and downsample from there.
const GridSize = 32

// PixelGrid is a width x height grid of grayscale intensities (0-255).
// It is the sole input to hash extraction; the grid is read-only for
// the duration of an Extract call and not retained afterwards.
type PixelGrid struct {
	Width  int
	Height int
	Pixels []float64 // row-major, len == Width*Height
}

// NewPixelGrid allocates a zeroed grid of the given dimensions
func NewPixelGrid(width, height int) *PixelGrid {
	return &PixelGrid{
		Width:  width,
		Height: height,
		Pixels: make([]float64, width*height),
	}
}

// At returns the intensity at (x, y)
func (g *PixelGrid) At(x, y int) float64 {
	return g.Pixels[y*g.Width+x]
}

// Set stores an intensity at (x, y)
func (g *PixelGrid) Set(x, y int, v float64) {
	g.Pixels[y*g.Width+x] = v
}

// Downsample reduces the grid to width x height using area averaging.
// Each target cell is the mean of the source rectangle it covers, with
// partial source pixels weighted by overlap. Averaging (rather than
// nearest-neighbor sampling) suppresses the high-frequency noise that
// re-compression introduces, which keeps fingerprints stable.
func (g *PixelGrid) Downsample(width, height int) *PixelGrid {
	if width == g.Width && height == g.Height {
		return g
	}

	out := NewPixelGrid(width, height)
	xRatio := float64(g.Width) / float64(width)
	yRatio := float64(g.Height) / float64(height)

	for ty := 0; ty < height; ty++ {
		y0 := float64(ty) * yRatio
		y1 := float64(ty+1) * yRatio

		for tx := 0; tx < width; tx++ {
			x0 := float64(tx) * xRatio
			x1 := float64(tx+1) * xRatio

			var sum, area float64
			for sy := int(y0); sy < g.Height && float64(sy) < y1; sy++ {
				hy := overlap(float64(sy), float64(sy+1), y0, y1)
				if hy <= 0 {
					continue
				}
				for sx := int(x0); sx < g.Width && float64(sx) < x1; sx++ {
					hx := overlap(float64(sx), float64(sx+1), x0, x1)
					if hx <= 0 {
						continue
					}
					w := hx * hy
					sum += g.At(sx, sy) * w
					area += w
				}
			}

			if area > 0 {
				out.Set(tx, ty, sum/area)
			}
		}
	}

	return out
}

// overlap returns the length of the intersection of [a0,a1) and [b0,b1)
func overlap(a0, a1, b0, b1 float64) float64 {
	lo := a0
	if b0 > lo {
		lo = b0
	}
	hi := a1
	if b1 < hi {
		hi = b1
	}
	return hi - lo
}

// mean returns the average intensity over the whole grid
func (g *PixelGrid) mean() float64 {
	if len(g.Pixels) == 0 {
		return 0
	}
	var sum float64
	for _, v := range g.Pixels {
		sum += v
	}
	return sum / float64(len(g.Pixels))
}
