package raster

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/fogleman/gg"
	"github.com/google/go-cmp/cmp"
	"golang.org/x/image/bmp"
)

func TestDecode_PNG(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	src.SetNRGBA(0, 0, color.NRGBA{255, 0, 0, 255})
	src.SetNRGBA(2, 1, color.NRGBA{10, 20, 30, 128})

	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if diff := cmp.Diff(src.Pix, got.Pix); diff != "" {
		t.Errorf("pixels mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_BMP(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	src.Set(1, 1, color.RGBA{1, 2, 3, 255})
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, src); err != nil {
		t.Fatalf("bmp.Encode: %v", err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if c := got.NRGBAAt(1, 1); c != (color.NRGBA{1, 2, 3, 255}) {
		t.Errorf("pixel (1,1) = %v, want {1 2 3 255}", c)
	}
}

func TestDecode_Unknown(t *testing.T) {
	if _, err := Decode(bytes.NewReader([]byte("GIF89a........"))); err == nil {
		t.Error("Decode of a GIF should fail")
	}
}

func TestToNRGBA_OffsetBounds(t *testing.T) {
	src := image.NewNRGBA(image.Rect(5, 5, 8, 7))
	src.SetNRGBA(7, 6, color.NRGBA{9, 8, 7, 6})
	got := ToNRGBA(src)
	if got.Bounds() != image.Rect(0, 0, 3, 2) {
		t.Fatalf("bounds = %v, want (0,0)-(3,2)", got.Bounds())
	}
	if c := got.NRGBAAt(2, 1); c != (color.NRGBA{9, 8, 7, 6}) {
		t.Errorf("pixel (2,1) = %v, want {9 8 7 6}", c)
	}
}

func TestToNRGBA_Premultiplied(t *testing.T) {
	dc := gg.NewContext(8, 8)
	dc.SetRGBA255(255, 0, 0, 255)
	dc.DrawRectangle(0, 0, 4, 8)
	dc.Fill()
	got := ToNRGBA(dc.Image())
	if c := got.NRGBAAt(1, 1); c != (color.NRGBA{255, 0, 0, 255}) {
		t.Errorf("pixel (1,1) = %v, want opaque red", c)
	}
	if c := got.NRGBAAt(6, 1); c.A != 0 {
		t.Errorf("pixel (6,1) alpha = %d, want 0", c.A)
	}
}

func TestEncodePNG(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	var buf bytes.Buffer
	if err := EncodePNG(&buf, img); err != nil {
		t.Fatalf("EncodePNG error: %v", err)
	}
	if !IsPNG(buf.Bytes()) {
		t.Error("EncodePNG did not produce PNG data")
	}
}
