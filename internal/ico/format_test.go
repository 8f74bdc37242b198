package ico

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDirEntry_Layout(t *testing.T) {
	e := DirEntry{
		Width: 16, Height: 32, ColorCount: 2, Reserved: 0,
		Planes: 0x0102, BitCount: 0x0304,
		DIBSize: 0x05060708, DIBOffset: 0x090a0b0c,
	}
	b := make([]byte, DirEntrySize)
	e.Put(b)
	want := []byte{16, 32, 2, 0, 0x02, 0x01, 0x04, 0x03, 0x08, 0x07, 0x06, 0x05, 0x0c, 0x0b, 0x0a, 0x09}
	if diff := cmp.Diff(want, b); diff != "" {
		t.Errorf("DirEntry bytes mismatch (-want +got):\n%s", diff)
	}
	if got := ParseDirEntry(b); got != e {
		t.Errorf("ParseDirEntry = %+v, want %+v", got, e)
	}
	if x, y := e.Hotspot(); x != 0x0102 || y != 0x0304 {
		t.Errorf("Hotspot() = %d,%d", x, y)
	}
}

func TestBitmapInfoHeader_NegativeHeight(t *testing.T) {
	h := BitmapInfoHeader{Size: InfoHeaderSize, Width: 3, Height: -6, Planes: 1, BitCount: 24}
	b := make([]byte, InfoHeaderSize)
	h.Put(b)
	if got := ParseBitmapInfoHeader(b); got != h {
		t.Errorf("ParseBitmapInfoHeader = %+v, want %+v", got, h)
	}
}

func TestBitmapInfoHeader_Check(t *testing.T) {
	rec := &recorder{}
	h := BitmapInfoHeader{Size: InfoHeaderSize, Planes: 2, ClrImportant: 1, YPelsPerMeter: 1}
	if err := h.check(rec); err != nil {
		t.Fatalf("check error: %v", err)
	}
	for _, want := range []string{"y_pels_per_meter", "clr_important", "planes"} {
		if !rec.contains(want) {
			t.Errorf("missing warning about %s, got %q", want, rec.lines)
		}
	}

	short := BitmapInfoHeader{Size: 12, Planes: 1}
	if err := short.check(rec); err == nil {
		t.Error("check should reject a short header")
	}
}

func TestEntryDimension(t *testing.T) {
	tests := []struct {
		w, h         int
		wantW, wantH uint8
	}{
		{16, 16, 16, 16},
		{255, 32, 255, 32},
		{256, 256, 0, 0},
		{256, 32, 0, 0},
		{48, 512, 0, 0},
	}
	for _, tt := range tests {
		w, h := entryDimension(tt.w, tt.h)
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("entryDimension(%d, %d) = %d, %d, want %d, %d", tt.w, tt.h, w, h, tt.wantW, tt.wantH)
		}
	}
}

func TestPNGInfo_BitDepth(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 3, 2))
	pal := image.NewPaletted(image.Rect(0, 0, 4, 4), color.Palette{color.Black, color.White})
	rgb := image.NewNRGBA(image.Rect(0, 0, 7, 1))
	for i := 3; i < len(rgb.Pix); i += 4 {
		rgb.Pix[i] = 255
	}
	rgba := image.NewNRGBA(image.Rect(0, 0, 2, 9))

	tests := []struct {
		name string
		img  image.Image
		w, h int
		bits int
	}{
		{"gray", gray, 3, 2, 8},
		{"paletted", pal, 4, 4, 1},
		{"rgb", rgb, 7, 1, 24},
		{"rgba", rgba, 2, 9, 32},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		if err := png.Encode(&buf, tt.img); err != nil {
			t.Fatalf("%s: png.Encode: %v", tt.name, err)
		}
		w, h, bits, err := PNGInfo(buf.Bytes())
		if err != nil {
			t.Fatalf("%s: PNGInfo error: %v", tt.name, err)
		}
		if w != tt.w || h != tt.h || bits != tt.bits {
			t.Errorf("%s: PNGInfo = %dx%d at %d, want %dx%d at %d", tt.name, w, h, bits, tt.w, tt.h, tt.bits)
		}
	}
}
