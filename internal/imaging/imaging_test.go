package imaging

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func createTestJPEG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{255, 0, 0, 255})
		}
	}
	var buf bytes.Buffer
	jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func createTestPNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{0, 0, 255, 255})
		}
	}
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func TestLoadJPEG(t *testing.T) {
	img, err := Load(bytes.NewReader(createTestJPEG(100, 80)))
	if err != nil {
		t.Fatalf("Load JPEG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 80 {
		t.Errorf("expected 100x80, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestLoadPNG(t *testing.T) {
	if _, err := Load(bytes.NewReader(createTestPNG(100, 100))); err != nil {
		t.Fatalf("Load PNG: %v", err)
	}
}

func TestLoadDownscale(t *testing.T) {
	img, err := Load(bytes.NewReader(createTestJPEG(3200, 1600)))
	if err != nil {
		t.Fatalf("Load large image: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != MaxDimension || b.Dy() != MaxDimension/2 {
		t.Errorf("expected %dx%d, got %dx%d", MaxDimension, MaxDimension/2, b.Dx(), b.Dy())
	}
}

func TestLoadInvalidFormat(t *testing.T) {
	_, err := Load(bytes.NewReader([]byte("not an image")))
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

func TestLoadGIFRejected(t *testing.T) {
	_, err := Load(bytes.NewReader([]byte("GIF89a...")))
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported for GIF, got %v", err)
	}
}

func TestLoadTooLarge(t *testing.T) {
	data := make([]byte, MaxBytes+10)
	copy(data, "\x89PNG")
	if _, err := Load(bytes.NewReader(data)); err == nil {
		t.Error("expected error for oversized upload")
	}
}

// pngWithHeader returns a small valid PNG whose IHDR declares w x h pixels.
func pngWithHeader(w, h uint32) []byte {
	data := createTestPNG(1, 1)
	// Signature (8), chunk length (4), "IHDR" (4), then width and height.
	binary.BigEndian.PutUint32(data[16:20], w)
	binary.BigEndian.PutUint32(data[20:24], h)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}

func TestLoadRejectsHugeDimensions(t *testing.T) {
	_, err := Load(bytes.NewReader(pngWithHeader(20000, 20000)))
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}
