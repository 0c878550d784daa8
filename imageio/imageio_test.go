package imageio

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

// createTestImage creates a gradient image with known pixel values
func createTestImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8((x * 255) / width), uint8((y * 255) / height), 128, 255})
		}
	}
	return img
}

func writeTestPNG(t *testing.T, img image.Image) string {
	t.Helper()
	data, err := EncodePNG(img)
	if err != nil {
		t.Fatalf("EncodePNG() error = %v", err)
	}
	path := filepath.Join(t.TempDir(), "img.png")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"empty data", nil, ErrEmptyImage},
		{"invalid data", []byte{0x00, 0x01, 0x02}, ErrInvalidImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Decode() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	data, _ := EncodePNG(createTestImage(4, 3))
	img, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() valid PNG: %v", err)
	}
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 3 {
		t.Errorf("Decode() bounds = %v, want 4x3", img.Bounds())
	}
}

func TestLoadColor(t *testing.T) {
	path := writeTestPNG(t, createTestImage(10, 6))

	img, err := LoadColor(path)
	if err != nil {
		t.Fatalf("LoadColor() error = %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 10, 6) {
		t.Errorf("bounds = %v", img.Bounds())
	}
	if got := img.NRGBAAt(0, 0); got.B != 128 || got.A != 255 {
		t.Errorf("pixel (0,0) = %v", got)
	}
}

func TestLoadGray(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	src.Set(0, 0, color.White)
	src.Set(1, 0, color.Black)
	path := writeTestPNG(t, src)

	mask, err := LoadGray(path)
	if err != nil {
		t.Fatalf("LoadGray() error = %v", err)
	}
	if mask.GrayAt(0, 0).Y != 255 || mask.GrayAt(1, 0).Y != 0 {
		t.Errorf("mask = %v, %v; want 255, 0", mask.GrayAt(0, 0), mask.GrayAt(1, 0))
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadColor(filepath.Join(dir, "missing.png")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadColor(missing) error = %v, want ErrNotExist", err)
	}

	garbage := filepath.Join(dir, "garbage.png")
	if err := os.WriteFile(garbage, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadGray(garbage); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("LoadGray(garbage) error = %v, want ErrInvalidImage", err)
	}
}

func TestResize(t *testing.T) {
	img, err := Resize(createTestImage(100, 50), 64, 64)
	if err != nil {
		t.Fatalf("Resize() error = %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 64, 64) {
		t.Errorf("Resize() bounds = %v, want 64x64", img.Bounds())
	}

	if _, err := Resize(createTestImage(4, 4), 0, 10); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("Resize(0, 10) error = %v, want ErrInvalidDimensions", err)
	}
}

func TestResizeGray(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 8, 8))
	got, err := ResizeGray(mask, 16, 4)
	if err != nil {
		t.Fatalf("ResizeGray() error = %v", err)
	}
	if got.Bounds() != image.Rect(0, 0, 16, 4) {
		t.Errorf("ResizeGray() bounds = %v", got.Bounds())
	}
}

func TestToNRGBA_OffsetOrigin(t *testing.T) {
	sub := createTestImage(10, 10).SubImage(image.Rect(5, 5, 10, 10))
	got := ToNRGBA(sub)
	if got.Bounds().Min != (image.Point{}) || got.Bounds().Dx() != 5 {
		t.Errorf("ToNRGBA() bounds = %v, want origin at zero", got.Bounds())
	}
}

func TestMaskToAlpha(t *testing.T) {
	img := createTestImage(2, 2)
	mask := image.NewGray(image.Rect(0, 0, 2, 2))
	mask.SetGray(0, 0, color.Gray{Y: 255})

	out, err := MaskToAlpha(img, mask)
	if err != nil {
		t.Fatalf("MaskToAlpha() error = %v", err)
	}
	if a := out.NRGBAAt(0, 0).A; a != 0 {
		t.Errorf("white mask pixel alpha = %d, want 0", a)
	}
	if a := out.NRGBAAt(1, 1).A; a != 255 {
		t.Errorf("black mask pixel alpha = %d, want 255", a)
	}
	if out.NRGBAAt(1, 1).B != 128 {
		t.Errorf("color channels should be preserved, got %v", out.NRGBAAt(1, 1))
	}
}

func TestWriteFile_CreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "out.png")
	if err := WriteFile(path, []byte("x")); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("file not written: %v", err)
	}
}
