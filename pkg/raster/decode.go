package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Extensions lists the file extensions Load understands.
var Extensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp", ".tga"}

// Decode reads an encoded image and converts it to a grayscale raster.
// name is only used to pick the TGA decoder, which has no magic number.
func Decode(name string, r io.Reader) (*Raster, error) {
	if strings.EqualFold(filepath.Ext(name), ".tga") {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		img, err := DecodeTGA(data)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", name, err)
		}
		return FromImage(img)
	}

	img, _, err := image.Decode(r)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
		}
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	return FromImage(img)
}

// DecodeBytes is Decode for in-memory data.
func DecodeBytes(name string, data []byte) (*Raster, error) {
	return Decode(name, bytes.NewReader(data))
}

// Load reads and decodes a raster file from disk.
func Load(path string) (*Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening raster: %w", err)
	}
	defer f.Close()
	return Decode(path, f)
}
