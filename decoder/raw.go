package decoder

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"imagedupes/fingerprint"
	"imagedupes/logging"

	"github.com/barasher/go-exiftool"
)

// RawDecoder handles camera RAW files (.cr2, .cr3, .nef, .arw, .dng,
// ...) by extracting the embedded preview JPEG with exiftool and
// running it through the standard decoder. Hashing the camera-rendered
// preview rather than the raw sensor data keeps RAW files comparable
// with the JPEGs exported from them.
type RawDecoder struct {
	TempDir  string
	fallback *ImageDecoder
}

// Preview tags tried in order of preference; larger previews first
var previewTags = []string{
	"JpgFromRaw",
	"PreviewImage",
	"OtherImage",
	"ThumbnailImage",
}

// NewRawDecoder creates a decoder for camera RAW formats
func NewRawDecoder() *RawDecoder {
	return &RawDecoder{
		TempDir:  os.TempDir(),
		fallback: NewImageDecoder(),
	}
}

// CanDecode checks the file extension against the known RAW formats
func (d *RawDecoder) CanDecode(path string) bool {
	return IsRawFormat(path) && fileExists(path)
}

// Decode extracts the embedded preview and normalizes it
func (d *RawDecoder) Decode(path string) (*fingerprint.PixelGrid, error) {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, newDecodeError(path, "exiftool unavailable", err)
	}
	defer et.Close()

	// Confirm the file carries readable metadata before shelling out
	// for binary extraction, which go-exiftool does not support.
	infos := et.ExtractMetadata(path)
	if len(infos) == 0 || infos[0].Err != nil {
		var metaErr error
		if len(infos) > 0 {
			metaErr = infos[0].Err
		}
		return nil, newDecodeError(path, "cannot read RAW metadata", metaErr)
	}

	for _, tag := range previewTags {
		tempJpg := filepath.Join(d.TempDir, fmt.Sprintf("imagedupes_preview_%s_%s.jpg",
			tag, filepath.Base(path)))

		if err := extractPreview(path, tempJpg, tag); err != nil {
			continue
		}

		grid, err := d.fallback.Decode(tempJpg)
		os.Remove(tempJpg)
		if err == nil {
			logging.DebugLog("Extracted %s preview from RAW file: %s", tag, path)
			return grid, nil
		}
	}

	return nil, newDecodeError(path, "no usable embedded preview", nil)
}

// extractPreview pulls a binary preview tag out of a RAW file
func extractPreview(path, outputPath, tag string) error {
	// -b = binary output, -w = write to file
	cmd := exec.Command("exiftool", "-b", "-"+tag, "-w", outputPath, path)
	if err := cmd.Run(); err != nil {
		return err
	}

	info, err := os.Stat(outputPath)
	if err != nil || info.Size() == 0 {
		return fmt.Errorf("no %s present in %s", tag, path)
	}
	return nil
}

// Chain tries each decoder in order and uses the first that claims the
// file. Chain itself satisfies Decoder.
type Chain []Decoder

// DefaultChain decodes the standard formats plus camera RAW previews
func DefaultChain() Chain {
	return Chain{NewImageDecoder(), NewRawDecoder()}
}

// CanDecode reports whether any decoder in the chain handles the file
func (c Chain) CanDecode(path string) bool {
	for _, d := range c {
		if d.CanDecode(path) {
			return true
		}
	}
	return false
}

// Decode dispatches to the first decoder that claims the file
func (c Chain) Decode(path string) (*fingerprint.PixelGrid, error) {
	for _, d := range c {
		if d.CanDecode(path) {
			return d.Decode(path)
		}
	}
	return nil, newDecodeError(path, "no decoder for this file type", nil)
}
