package sdruntime

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	"sdprompt/imageio"
)

// PNG magic bytes for file identification
var pngMagic = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// Image validation errors
var (
	ErrImageEmpty       = errors.New("sdruntime: image data is empty")
	ErrImageNotPNG      = errors.New("sdruntime: image data is not a valid PNG")
	ErrImageTooSmall    = errors.New("sdruntime: image data too small to be valid")
	ErrImageDecodeFail  = errors.New("sdruntime: failed to decode image")
	ErrImageInvalidSize = errors.New("sdruntime: invalid image dimensions")
)

// IsPNG checks if the given data starts with PNG magic bytes.
// This is a pure function with no side effects.
func IsPNG(data []byte) bool {
	return len(data) >= len(pngMagic) && bytes.Equal(data[:len(pngMagic)], pngMagic)
}

// ValidateImageData checks that data is a decodable PNG.
func ValidateImageData(data []byte) error {
	if len(data) == 0 {
		return ErrImageEmpty
	}

	// signature + IHDR + IEND
	if len(data) < 45 {
		return ErrImageTooSmall
	}

	if !IsPNG(data) {
		return ErrImageNotPNG
	}

	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%w: %v", ErrImageDecodeFail, err)
	}
	return nil
}

// EncodeToPNG encodes interleaved 8-bit pixels with 3 (RGB) or 4 (RGBA)
// channels, the layouts stable-diffusion.cpp hands back.
func EncodeToPNG(pixels []byte, width, height, channels int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: width=%d height=%d", ErrImageInvalidSize, width, height)
	}
	if channels != 3 && channels != 4 {
		return nil, fmt.Errorf("%w: %d channels", ErrImageInvalidSize, channels)
	}

	expectedLen := width * height * channels
	if len(pixels) != expectedLen {
		return nil, fmt.Errorf("%w: expected %d bytes for %dx%dx%d, got %d",
			ErrImageInvalidSize, expectedLen, width, height, channels, len(pixels))
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i, o := 0, 0; i < len(pixels); i, o = i+channels, o+4 {
		img.Pix[o] = pixels[i]
		img.Pix[o+1] = pixels[i+1]
		img.Pix[o+2] = pixels[i+2]
		if channels == 4 {
			img.Pix[o+3] = pixels[i+3]
		} else {
			img.Pix[o+3] = 0xff
		}
	}

	return imageio.EncodePNG(img)
}

// RGBBytes flattens an image to interleaved RGB, dropping alpha.
func RGBBytes(img *image.NRGBA) []byte {
	b := img.Bounds()
	out := make([]byte, 0, b.Dx()*b.Dy()*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]
		for i := 0; i < len(row); i += 4 {
			out = append(out, row[i], row[i+1], row[i+2])
		}
	}
	return out
}

// GrayBytes returns the mask rows without stride padding.
func GrayBytes(mask *image.Gray) []byte {
	b := mask.Bounds()
	out := make([]byte, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		out = append(out, mask.Pix[mask.PixOffset(b.Min.X, y):mask.PixOffset(b.Max.X, y)]...)
	}
	return out
}
