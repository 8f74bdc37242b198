package ico

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
	"math"

	"github.com/babs/icoutils/internal/bitpack"
)

// Limits on declared sizes, checked before allocating.
const (
	maxPaletteEntries = 1 << 16
	maxBitmapBytes    = 1 << 28
)

// ImageInfo is the metadata of one image, available before its pixels are
// decoded.
type ImageInfo struct {
	Index       int // 1-based, in the order images are found in the file
	Width       int
	Height      int
	BitCount    int
	PaletteSize int
	Cursor      bool
	HotspotX    int // cursors only
	HotspotY    int // cursors only
}

// ImageFilter selects the images a Decoder hands to its sink.
type ImageFilter interface {
	Match(info ImageInfo) bool
}

// FilterFunc adapts a function to ImageFilter.
type FilterFunc func(info ImageInfo) bool

// Match calls f(info).
func (f FilterFunc) Match(info ImageInfo) bool { return f(info) }

// Image is one decoded image. Exactly one of Raster and PNG is set, except
// in list mode where both are nil.
type Image struct {
	ImageInfo
	Raster *image.NRGBA
	PNG    []byte // embedded PNG stream, unmodified
}

// Decoder extracts images from an icon or cursor container.
type Decoder struct {
	Filter   ImageFilter // nil matches every image
	ListOnly bool        // report metadata without decoding pixels
	Warn     Warner
}

// Decode reads a container from r and calls sink for every image that
// passes the filter. It returns the number of matched images.
//
// Images are located by walking the file from the end of the directory:
// each entry whose offset equals the current position is decoded in turn,
// and gaps before the next entry are skipped with a warning. Overlapping
// or unreachable offsets fail with ErrCorruptOffsets.
func (d *Decoder) Decode(r io.Reader, sink func(*Image) error) (int, error) {
	warn := warnerOrDefault(d.Warn)
	in := &reader{r: bufio.NewReader(r)}

	head, err := in.read(DirSize)
	if err != nil {
		return 0, err
	}
	dir := ParseDir(head)
	if err := dir.Validate(); err != nil {
		return 0, err
	}

	entries := make([]DirEntry, dir.Count)
	for i := range entries {
		b, err := in.read(DirEntrySize)
		if err != nil {
			return 0, err
		}
		entries[i] = ParseDirEntry(b)
		if entries[i].Reserved != 0 {
			warn.Printf("reserved is not zero")
		}
	}

	done := make([]bool, len(entries))
	completed, matched := 0, 0
	for completed < len(entries) {
		previous := completed
		for i, e := range entries {
			if done[i] || int64(e.DIBOffset) != in.off {
				continue
			}
			completed++
			info := ImageInfo{Index: completed, Cursor: dir.Type == TypeCursor}
			if info.Cursor {
				info.HotspotX, info.HotspotY = e.Hotspot()
			}
			ok, err := d.decodeImage(in, e, info, warn, sink)
			if err != nil {
				return matched, fmt.Errorf("image %d: %w", completed, err)
			}
			if ok {
				matched++
			}
			done[i] = true
		}
		if completed != previous {
			continue
		}

		next := int64(math.MaxInt64)
		for i, e := range entries {
			if !done[i] {
				next = min(next, int64(e.DIBOffset))
			}
		}
		switch {
		case next < in.off:
			return matched, fmt.Errorf("%w: offset of bitmap header incorrect (too low)", ErrCorruptOffsets)
		case next == in.off:
			return matched, fmt.Errorf("%w: invalid data at expected offset (unrecoverable)", ErrCorruptOffsets)
		}
		warn.Printf("skipping %d bytes of garbage at %d", next-in.off, in.off)
		if err := in.skip(next - in.off); err != nil {
			return matched, err
		}
	}
	return matched, nil
}

// DecodeAll decodes every image of a container.
func DecodeAll(r io.Reader, warn Warner) ([]*Image, error) {
	var images []*Image
	d := Decoder{Warn: warn}
	_, err := d.Decode(r, func(img *Image) error {
		images = append(images, img)
		return nil
	})
	return images, err
}

// decodeImage reads the image at the current position. It reports whether
// the image matched the filter.
func (d *Decoder) decodeImage(in *reader, e DirEntry, info ImageInfo, warn Warner, sink func(*Image) error) (bool, error) {
	magic, err := in.peek(4)
	if err != nil {
		return false, err
	}
	if binary.LittleEndian.Uint32(magic) == pngMagic {
		return d.decodePNG(in, e, info, sink)
	}

	b, err := in.read(InfoHeaderSize)
	if err != nil {
		return false, err
	}
	hdr := ParseBitmapInfoHeader(b)
	if err := hdr.check(warn); err != nil {
		return false, err
	}
	if hdr.Size > InfoHeaderSize {
		extra := int64(hdr.Size) - InfoHeaderSize
		warn.Printf("skipping %d bytes of extended bitmap header", extra)
		if err := in.skip(extra); err != nil {
			return false, err
		}
	}

	bits := int(hdr.BitCount)
	if !bitpack.Valid(bits) {
		return false, bitDepthError(bits)
	}

	var colors []RGBQuad
	if hdr.ClrUsed != 0 || bits < 24 {
		n := int64(hdr.ClrUsed)
		if n == 0 {
			n = 1 << bits
		}
		if n > maxPaletteEntries {
			return false, fmt.Errorf("%w: palette of %d colors", ErrUnsupportedFeature, n)
		}
		table, err := in.read(int(n) * RGBQuadSize)
		if err != nil {
			return false, err
		}
		colors = make([]RGBQuad, n)
		for i := range colors {
			colors[i] = ParseRGBQuad(table[i*RGBQuadSize:])
		}
	}

	width := int64(hdr.Width)
	height := int64(hdr.Height)
	if height < 0 {
		height = -height
	}
	height /= 2
	if width < 0 {
		return false, fmt.Errorf("%w: negative bitmap width %d", ErrNotAnIconFile, width)
	}
	stride := int64(bitpack.RowBytes(int(width) * bits))
	maskStride := int64(bitpack.RowBytes(int(width)))
	imageSize, maskSize := height*stride, height*maskStride
	if width > math.MaxInt32/32 || imageSize+maskSize > maxBitmapBytes {
		return false, fmt.Errorf("%w: bitmap of %dx%d pixels", ErrUnsupportedFeature, width, height)
	}

	total := int64(hdr.Size) + int64(len(colors))*RGBQuadSize + imageSize + maskSize
	if int64(e.DIBSize) != total {
		warn.Printf("incorrect total size of bitmap (%d specified; %d real)", e.DIBSize, total)
	}

	pixels, err := in.read(int(imageSize))
	if err != nil {
		return false, err
	}
	mask, err := in.read(int(maskSize))
	if err != nil {
		return false, err
	}

	info.Width, info.Height = int(width), int(height)
	info.BitCount = bits
	info.PaletteSize = len(colors)
	if d.Filter != nil && !d.Filter.Match(info) {
		return false, nil
	}

	img := &Image{ImageInfo: info}
	if !d.ListOnly {
		img.Raster, err = buildRaster(info, hdr.Height < 0, colors, pixels, mask)
		if err != nil {
			return false, err
		}
	}
	return true, sink(img)
}

// decodePNG handles a Vista image: the blob is a complete PNG stream.
func (d *Decoder) decodePNG(in *reader, e DirEntry, info ImageInfo, sink func(*Image) error) (bool, error) {
	if int64(e.DIBSize) > maxBitmapBytes {
		return false, fmt.Errorf("%w: embedded PNG of %d bytes", ErrUnsupportedFeature, e.DIBSize)
	}
	data, err := in.read(int(e.DIBSize))
	if err != nil {
		return false, err
	}
	info.Width, info.Height, info.BitCount, err = PNGInfo(data)
	if err != nil {
		return false, err
	}
	if d.Filter != nil && !d.Filter.Match(info) {
		return false, nil
	}
	img := &Image{ImageInfo: info}
	if !d.ListOnly {
		img.PNG = data
	}
	return true, sink(img)
}

// buildRaster converts the stored XOR bitmap and AND mask to a top-down
// raster. Alpha comes from the pixel data for 32-bit images and from the
// mask otherwise.
func buildRaster(info ImageInfo, topDown bool, colors []RGBQuad, pixels, mask []byte) (*image.NRGBA, error) {
	w, h, bits := info.Width, info.Height, info.BitCount
	stride := bitpack.RowBytes(w * bits)
	maskStride := bitpack.RowBytes(w)
	img := image.NewNRGBA(image.Rect(0, 0, w, h))

	for d := 0; d < h; d++ {
		y := h - d - 1
		if topDown {
			y = d
		}
		row := pixels[y*stride:]
		mrow := mask[y*maskStride:]
		out := img.Pix[d*img.Stride:]
		for x := 0; x < w; x++ {
			v, err := bitpack.Unpack(row, x, bits)
			if err != nil {
				return nil, bitDepthError(bits)
			}
			px := out[4*x : 4*x+4]
			if bits <= 16 {
				if int(v) >= len(colors) {
					return nil, fmt.Errorf("%w: index %d, %d colors", ErrPaletteIndexOutOfRange, v, len(colors))
				}
				c := colors[v]
				px[0], px[1], px[2] = c.Red, c.Green, c.Blue
			} else {
				px[0], px[1], px[2] = byte(v>>16), byte(v>>8), byte(v)
			}
			if bits == 32 {
				px[3] = byte(v >> 24)
			} else if m, _ := bitpack.Unpack(mrow, x, 1); m != 0 {
				px[3] = 0
			} else {
				px[3] = 0xff
			}
		}
	}
	return img, nil
}

// reader tracks the absolute stream offset of a buffered container.
type reader struct {
	r   *bufio.Reader
	off int64
}

func (r *reader) read(n int) ([]byte, error) {
	buf := make([]byte, n)
	k, err := io.ReadFull(r.r, buf)
	r.off += int64(k)
	if err != nil {
		return nil, ioError(err)
	}
	return buf, nil
}

func (r *reader) peek(n int) ([]byte, error) {
	b, err := r.r.Peek(n)
	if err != nil {
		return nil, ioError(err)
	}
	return b, nil
}

func (r *reader) skip(n int64) error {
	k, err := io.CopyN(io.Discard, r.r, n)
	r.off += k
	if err != nil {
		return ioError(err)
	}
	return nil
}

func ioError(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: premature end", ErrIO)
	}
	return fmt.Errorf("%w: cannot read file: %v", ErrIO, err)
}
