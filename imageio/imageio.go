// Package imageio loads, scales and encodes the images that flow into and
// out of a generation run.
//
// Decoding is registered for png, jpeg, gif, bmp, tiff and webp.
package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Image errors
var (
	ErrInvalidImage      = errors.New("imageio: invalid image data")
	ErrEmptyImage        = errors.New("imageio: empty image data")
	ErrInvalidDimensions = errors.New("imageio: invalid dimensions")
)

// Decode decodes image data in any registered format.
// This is a pure function with no side effects.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return img, nil
}

// LoadColor reads the file at path and converts it to 8-bit NRGBA.
func LoadColor(path string) (*image.NRGBA, error) {
	img, err := load(path)
	if err != nil {
		return nil, err
	}
	return ToNRGBA(img), nil
}

// LoadGray reads the file at path and converts it to single-channel grayscale.
func LoadGray(path string) (*image.Gray, error) {
	img, err := load(path)
	if err != nil {
		return nil, err
	}
	return ToGray(img), nil
}

func load(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", path, err)
	}
	img, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", path, err)
	}
	return img, nil
}

// ToNRGBA converts any image to NRGBA with its origin at (0, 0).
// This is a pure function with no side effects.
func ToNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok && b.Min == (image.Point{}) {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// ToGray converts any image to 8-bit grayscale with its origin at (0, 0).
// This is a pure function with no side effects.
func ToGray(img image.Image) *image.Gray {
	b := img.Bounds()
	if g, ok := img.(*image.Gray); ok && b.Min == (image.Point{}) {
		return g
	}
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// Resize scales img to exactly width x height using Catmull-Rom resampling.
// Aspect ratio is not preserved.
func Resize(img image.Image, width, height int) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if b := img.Bounds(); b.Dx() == width && b.Dy() == height {
		return ToNRGBA(img), nil
	}
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst, nil
}

// ResizeGray scales a mask to width x height.
func ResizeGray(mask *image.Gray, width, height int) (*image.Gray, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if b := mask.Bounds(); b.Dx() == width && b.Dy() == height {
		return ToGray(mask), nil
	}
	dst := image.NewGray(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), mask, mask.Bounds(), draw.Src, nil)
	return dst, nil
}

// MaskToAlpha returns a copy of img whose alpha channel is the inverse of
// mask: white mask pixels become fully transparent, black ones opaque.
// The mask is scaled to the image size when they differ.
func MaskToAlpha(img image.Image, mask *image.Gray) (*image.NRGBA, error) {
	out := image.NewNRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
	draw.Draw(out, out.Bounds(), ToNRGBA(img), image.Point{}, draw.Src)

	m, err := ResizeGray(mask, out.Rect.Dx(), out.Rect.Dy())
	if err != nil {
		return nil, err
	}

	for y := 0; y < out.Rect.Dy(); y++ {
		for x := 0; x < out.Rect.Dx(); x++ {
			out.Pix[out.PixOffset(x, y)+3] = 255 - m.GrayAt(x, y).Y
		}
	}
	return out, nil
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile writes data to path, creating missing parent directories.
func WriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
