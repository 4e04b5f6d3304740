package decoder

import (
	"path/filepath"
	"strings"

	// Register the extra raster formats with image.Decode
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

var standardExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tif":  true,
	".tiff": true,
}

var rawExtensions = map[string]bool{
	".dng": true,
	".raf": true,
	".arw": true,
	".nef": true,
	".cr2": true,
	".cr3": true,
	".nrw": true,
	".srf": true,
	".orf": true,
	".rw2": true,
	".pef": true,
}

// IsImageFile checks if a file extension belongs to a supported image file
func IsImageFile(path string) bool {
	return IsStandardFormat(path) || IsRawFormat(path)
}

// IsStandardFormat checks if a file is a standard raster format
func IsStandardFormat(path string) bool {
	return standardExtensions[strings.ToLower(filepath.Ext(path))]
}

// IsRawFormat checks if a file is a camera RAW format
func IsRawFormat(path string) bool {
	return rawExtensions[strings.ToLower(filepath.Ext(path))]
}

// FileFormat returns the lowercase file extension without the dot
func FileFormat(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}
