package facerec

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // register WebP decoder
)

var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".bmp":  {},
	".tif":  {},
	".tiff": {},
	".webp": {},
}

// IsImageFile reports whether path has an extension LoadImage can decode.
func IsImageFile(path string) bool {
	_, ok := imageExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// LoadImage opens an image file, applies its EXIF orientation and
// downscales it so neither side exceeds maxSize (0 disables scaling).
func LoadImage(path string, maxSize int) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("opening image %s: %w", path, err)
	}
	return fit(img, maxSize), nil
}

// DecodeImage reads an image from r with the same handling as LoadImage.
func DecodeImage(r io.Reader, maxSize int) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return fit(img, maxSize), nil
}

func fit(img image.Image, maxSize int) image.Image {
	if maxSize <= 0 {
		return img
	}
	b := img.Bounds()
	if b.Dx() <= maxSize && b.Dy() <= maxSize {
		return img
	}
	return imaging.Fit(img, maxSize, maxSize, imaging.Lanczos)
}

// EncodeJPEG returns img as JPEG bytes.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encoding jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
