package resource

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image/color"
	"testing"

	"golang.org/x/image/bmp"

	"github.com/babs/icoutils/internal/ico"
)

func dib(bits uint16, clrUsed uint32, extra int) []byte {
	b := make([]byte, ico.InfoHeaderSize+extra)
	ico.BitmapInfoHeader{Size: ico.InfoHeaderSize, Width: 2, Height: 2, Planes: 1, BitCount: bits, ClrUsed: clrUsed}.Put(b)
	return b
}

func TestBitmapFile_PixelOffset(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want uint32
	}{
		{"mono", dib(1, 0, 16), 14 + 40 + 8},
		{"16 colors", dib(4, 0, 72), 14 + 40 + 64},
		{"256 colors", dib(8, 0, 1032), 14 + 40 + 1024},
		{"3 used", dib(8, 3, 20), 14 + 40 + 12},
		{"truecolor", dib(24, 0, 16), 14 + 40},
	}
	for _, tt := range tests {
		got, err := BitmapFile(tt.data)
		if err != nil {
			t.Fatalf("%s: BitmapFile error: %v", tt.name, err)
		}
		if got[0] != 'B' || got[1] != 'M' {
			t.Errorf("%s: missing BM signature", tt.name)
		}
		if size := binary.LittleEndian.Uint32(got[2:]); int(size) != len(got) {
			t.Errorf("%s: file size field = %d, want %d", tt.name, size, len(got))
		}
		if off := binary.LittleEndian.Uint32(got[10:]); off != tt.want {
			t.Errorf("%s: pixel offset = %d, want %d", tt.name, off, tt.want)
		}
		if !bytes.Equal(got[14:], tt.data) {
			t.Errorf("%s: resource data not copied", tt.name)
		}
	}
}

func TestBitmapFile_Decodes(t *testing.T) {
	// 2x2 24-bit, bottom-up, rows padded to 8 bytes.
	data := dib(24, 0, 16)
	copy(data[ico.InfoHeaderSize:], []byte{
		0, 0, 255, 0, 255, 0, 0, 0, // bottom: red, green
		255, 0, 0, 255, 255, 255, 0, 0, // top: blue, white
	})
	file, err := BitmapFile(data)
	if err != nil {
		t.Fatalf("BitmapFile error: %v", err)
	}
	img, err := bmp.Decode(bytes.NewReader(file))
	if err != nil {
		t.Fatalf("bmp.Decode error: %v", err)
	}
	tests := []struct {
		x, y int
		want color.RGBA
	}{
		{0, 0, color.RGBA{0, 0, 255, 255}},
		{1, 0, color.RGBA{255, 255, 255, 255}},
		{0, 1, color.RGBA{255, 0, 0, 255}},
		{1, 1, color.RGBA{0, 255, 0, 255}},
	}
	for _, tt := range tests {
		r, g, b, a := img.At(tt.x, tt.y).RGBA()
		got := color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
		if got != tt.want {
			t.Errorf("pixel (%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestBitmapFile_Short(t *testing.T) {
	if _, err := BitmapFile(make([]byte, 10)); err == nil {
		t.Error("BitmapFile of a truncated header should fail")
	}
}

func TestExtension(t *testing.T) {
	tests := []struct {
		typ  ID
		want string
	}{
		{Num(TypeGroupIcon), ".ico"},
		{Num(TypeGroupCursor), ".cur"},
		{Num(TypeBitmap), ".bmp"},
		{Num(TypeIcon), ""},
		{Name("PNG"), ""},
	}
	for _, tt := range tests {
		if got := Extension(tt.typ); got != tt.want {
			t.Errorf("Extension(%v) = %q, want %q", tt.typ, got, tt.want)
		}
	}
}

func TestExtract_Raw(t *testing.T) {
	r := Resource{Type: Num(TypeIcon), Name: Num(1), Data: []byte{1, 2, 3}}
	got, err := Extract(&Library{}, r, true, &recorder{})
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if !bytes.Equal(got, r.Data) {
		t.Errorf("Extract(raw) = %v, want %v", got, r.Data)
	}
}

func TestExtract_Unknown(t *testing.T) {
	r := Resource{Type: Num(TypeIcon), Name: Num(1), Data: []byte{1, 2, 3}}
	if _, err := Extract(&Library{}, r, false, &recorder{}); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Extract error = %v, want ErrUnknownFormat", err)
	}
}

func TestExtract_Bitmap(t *testing.T) {
	r := Resource{Type: Num(TypeBitmap), Name: Num(1), Data: dib(24, 0, 16)}
	got, err := Extract(&Library{}, r, false, &recorder{})
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if len(got) != 14+len(r.Data) {
		t.Errorf("len = %d, want %d", len(got), 14+len(r.Data))
	}
}
