// Package ico reads and writes Windows icon (.ico) and cursor (.cur)
// containers: the directory, the per-image DIB headers, color tables, XOR
// bitmaps and AND masks, and embedded PNG ("Vista") images.
package ico

import (
	"encoding/binary"
	"fmt"
)

// On-disk structure sizes.
const (
	DirSize        = 6
	DirEntrySize   = 16
	InfoHeaderSize = 40
	RGBQuadSize    = 4
)

// Container types stored in Dir.Type.
const (
	TypeIcon   = 1
	TypeCursor = 2
)

// pngMagic is the first four bytes of a PNG signature read as a
// little-endian uint32, as found in the size field of a Vista icon header.
const pngMagic = 0x474e5089

// Dir is the ICONDIR header that starts every .ico and .cur file.
type Dir struct {
	Reserved uint16
	Type     uint16 // TypeIcon or TypeCursor
	Count    uint16
}

// Put writes d into the first DirSize bytes of b.
func (d Dir) Put(b []byte) {
	binary.LittleEndian.PutUint16(b[0:], d.Reserved)
	binary.LittleEndian.PutUint16(b[2:], d.Type)
	binary.LittleEndian.PutUint16(b[4:], d.Count)
}

// ParseDir reads a Dir from the first DirSize bytes of b.
func ParseDir(b []byte) Dir {
	return Dir{
		Reserved: binary.LittleEndian.Uint16(b[0:]),
		Type:     binary.LittleEndian.Uint16(b[2:]),
		Count:    binary.LittleEndian.Uint16(b[4:]),
	}
}

// Validate checks the reserved and type fields.
func (d Dir) Validate() error {
	if d.Reserved != 0 {
		return fmt.Errorf("%w (reserved non-zero)", ErrNotAnIconFile)
	}
	if d.Type != TypeIcon && d.Type != TypeCursor {
		return fmt.Errorf("%w (wrong type %d)", ErrNotAnIconFile, d.Type)
	}
	return nil
}

// DirEntry describes one image of a container. Icons store color planes
// and bit depth in Planes and BitCount; cursors store the hotspot there.
type DirEntry struct {
	Width      uint8 // 0 means 256 or more
	Height     uint8 // 0 means 256 or more
	ColorCount uint8
	Reserved   uint8
	Planes     uint16 // hotspot x for cursors
	BitCount   uint16 // hotspot y for cursors
	DIBSize    uint32
	DIBOffset  uint32
}

// Put writes e into the first DirEntrySize bytes of b.
func (e DirEntry) Put(b []byte) {
	b[0] = e.Width
	b[1] = e.Height
	b[2] = e.ColorCount
	b[3] = e.Reserved
	binary.LittleEndian.PutUint16(b[4:], e.Planes)
	binary.LittleEndian.PutUint16(b[6:], e.BitCount)
	binary.LittleEndian.PutUint32(b[8:], e.DIBSize)
	binary.LittleEndian.PutUint32(b[12:], e.DIBOffset)
}

// ParseDirEntry reads a DirEntry from the first DirEntrySize bytes of b.
func ParseDirEntry(b []byte) DirEntry {
	return DirEntry{
		Width:      b[0],
		Height:     b[1],
		ColorCount: b[2],
		Reserved:   b[3],
		Planes:     binary.LittleEndian.Uint16(b[4:]),
		BitCount:   binary.LittleEndian.Uint16(b[6:]),
		DIBSize:    binary.LittleEndian.Uint32(b[8:]),
		DIBOffset:  binary.LittleEndian.Uint32(b[12:]),
	}
}

// Hotspot returns the cursor hotspot stored in the planes/bit count fields.
func (e DirEntry) Hotspot() (x, y int) {
	return int(e.Planes), int(e.BitCount)
}

// entryDimension maps an image dimension to its directory byte.
func entryDimension(w, h int) (uint8, uint8) {
	if w >= 256 || h >= 256 {
		return 0, 0
	}
	return uint8(w), uint8(h)
}

// BitmapInfoHeader is the BITMAPINFOHEADER preceding every non-PNG image.
// Height covers the XOR and AND bitmaps together, twice the image height.
type BitmapInfoHeader struct {
	Size          uint32
	Width         int32
	Height        int32 // negative for top-down bitmaps
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
}

// Put writes h into the first InfoHeaderSize bytes of b.
func (h BitmapInfoHeader) Put(b []byte) {
	binary.LittleEndian.PutUint32(b[0:], h.Size)
	binary.LittleEndian.PutUint32(b[4:], uint32(h.Width))
	binary.LittleEndian.PutUint32(b[8:], uint32(h.Height))
	binary.LittleEndian.PutUint16(b[12:], h.Planes)
	binary.LittleEndian.PutUint16(b[14:], h.BitCount)
	binary.LittleEndian.PutUint32(b[16:], h.Compression)
	binary.LittleEndian.PutUint32(b[20:], h.SizeImage)
	binary.LittleEndian.PutUint32(b[24:], uint32(h.XPelsPerMeter))
	binary.LittleEndian.PutUint32(b[28:], uint32(h.YPelsPerMeter))
	binary.LittleEndian.PutUint32(b[32:], h.ClrUsed)
	binary.LittleEndian.PutUint32(b[36:], h.ClrImportant)
}

// ParseBitmapInfoHeader reads a header from the first InfoHeaderSize bytes
// of b.
func ParseBitmapInfoHeader(b []byte) BitmapInfoHeader {
	return BitmapInfoHeader{
		Size:          binary.LittleEndian.Uint32(b[0:]),
		Width:         int32(binary.LittleEndian.Uint32(b[4:])),
		Height:        int32(binary.LittleEndian.Uint32(b[8:])),
		Planes:        binary.LittleEndian.Uint16(b[12:]),
		BitCount:      binary.LittleEndian.Uint16(b[14:]),
		Compression:   binary.LittleEndian.Uint32(b[16:]),
		SizeImage:     binary.LittleEndian.Uint32(b[20:]),
		XPelsPerMeter: int32(binary.LittleEndian.Uint32(b[24:])),
		YPelsPerMeter: int32(binary.LittleEndian.Uint32(b[28:])),
		ClrUsed:       binary.LittleEndian.Uint32(b[32:]),
		ClrImportant:  binary.LittleEndian.Uint32(b[36:]),
	}
}

// check reports structural problems. Compression is fatal, the remaining
// checks only produce warnings.
func (h BitmapInfoHeader) check(warn Warner) error {
	if h.Size < InfoHeaderSize {
		return fmt.Errorf("%w: bitmap header is too short (%d bytes)", ErrNotAnIconFile, h.Size)
	}
	if h.Compression != 0 {
		return fmt.Errorf("%w (compression %d)", ErrUnsupportedCompression, h.Compression)
	}
	if h.XPelsPerMeter != 0 {
		warn.Printf("x_pels_per_meter field in bitmap should be zero")
	}
	if h.YPelsPerMeter != 0 {
		warn.Printf("y_pels_per_meter field in bitmap should be zero")
	}
	if h.ClrImportant != 0 {
		warn.Printf("clr_important field in bitmap should be zero")
	}
	if h.Planes != 1 {
		warn.Printf("planes field in bitmap should be one")
	}
	return nil
}

// RGBQuad is one color table entry, stored blue first.
type RGBQuad struct {
	Blue, Green, Red, Reserved uint8
}

// Put writes q into the first RGBQuadSize bytes of b.
func (q RGBQuad) Put(b []byte) {
	b[0], b[1], b[2], b[3] = q.Blue, q.Green, q.Red, q.Reserved
}

// ParseRGBQuad reads a color table entry from b.
func ParseRGBQuad(b []byte) RGBQuad {
	return RGBQuad{Blue: b[0], Green: b[1], Red: b[2], Reserved: b[3]}
}
