// Package decoder turns image files into the normalized grayscale
// pixel grids the hash extractors consume. The core pipeline depends
// only on the Decoder interface; everything about file formats and
// decoding libraries stays behind it.
package decoder

import (
	"fmt"
	"image"
	"os"

	"imagedupes/fingerprint"

	"github.com/disintegration/imaging"
)

// Decoder converts a file into a normalized pixel grid or fails with a
// *DecodeError. Decode failures are never fatal to a run: the caller
// skips the file, records a warning, and continues.
type Decoder interface {
	// CanDecode reports whether this decoder handles the file
	CanDecode(path string) bool

	// Decode returns a fingerprint.GridSize square grayscale grid
	Decode(path string) (*fingerprint.PixelGrid, error)
}

// DecodeError describes a per-file decode failure
type DecodeError struct {
	Path   string
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot decode %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("cannot decode %s: %s", e.Path, e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// newDecodeError creates a standardized decode failure
func newDecodeError(path, reason string, err error) *DecodeError {
	return &DecodeError{Path: path, Reason: reason, Err: err}
}

// ImageDecoder decodes the standard raster formats (JPEG, PNG, GIF,
// BMP, TIFF, WebP) and normalizes them to a GridSize square grayscale
// grid with a Lanczos resample.
type ImageDecoder struct{}

// NewImageDecoder creates a decoder for standard raster formats
func NewImageDecoder() *ImageDecoder {
	return &ImageDecoder{}
}

// CanDecode checks the file extension against the standard formats
func (d *ImageDecoder) CanDecode(path string) bool {
	return IsStandardFormat(path) && fileExists(path)
}

// Decode loads, orients, and normalizes the image
func (d *ImageDecoder) Decode(path string) (*fingerprint.PixelGrid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newDecodeError(path, "cannot open file", err)
	}
	defer f.Close()

	// AutoOrientation applies the EXIF rotation so a rotated copy of an
	// image normalizes to the same grid as the original.
	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return nil, newDecodeError(path, "unsupported or corrupt image data", err)
	}

	return GridFromImage(img), nil
}

// GridFromImage normalizes a decoded image to a GridSize square
// grayscale grid. The Lanczos filter suppresses resampling artifacts
// that would otherwise flip low-order fingerprint bits between
// re-encodings of the same picture.
func GridFromImage(img image.Image) *fingerprint.PixelGrid {
	small := imaging.Resize(img, fingerprint.GridSize, fingerprint.GridSize, imaging.Lanczos)
	gray := imaging.Grayscale(small)

	grid := fingerprint.NewPixelGrid(fingerprint.GridSize, fingerprint.GridSize)
	for y := 0; y < fingerprint.GridSize; y++ {
		for x := 0; x < fingerprint.GridSize; x++ {
			// Grayscale output has equal channels; any one is the luma
			r, _, _, _ := gray.At(x, y).RGBA()
			grid.Set(x, y, float64(r>>8))
		}
	}
	return grid
}

// fileExists checks if a file exists and is accessible
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
