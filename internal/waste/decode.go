package waste

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxPixels caps decoded image size.
const MaxPixels = 40_000_000

var (
	errEmptyImage      = errors.New("empty image data")
	errImageDimensions = errors.New("image dimensions out of range")
)

// ImageDecodeError reports an upload that is not a readable raster image.
type ImageDecodeError struct {
	Image string
	Err   error
}

func (e *ImageDecodeError) Error() string {
	return fmt.Sprintf("decode %s image: %v", e.Image, e.Err)
}

func (e *ImageDecodeError) Unwrap() error {
	return e.Err
}

// DecodeImage decodes JPEG, PNG, GIF, BMP, TIFF or WebP bytes. name labels
// the image in the returned error.
func DecodeImage(name string, data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, &ImageDecodeError{Image: name, Err: errEmptyImage}
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &ImageDecodeError{Image: name, Err: err}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > MaxPixels {
		return nil, &ImageDecodeError{Image: name, Err: errImageDimensions}
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &ImageDecodeError{Image: name, Err: err}
	}
	return img, nil
}
