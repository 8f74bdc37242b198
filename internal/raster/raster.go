// Package raster converts between image files and the 8-bit
// non-alpha-premultiplied RGBA rasters the icon codec works on.
package raster

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// IsPNG reports whether data starts with the PNG signature.
func IsPNG(data []byte) bool {
	return bytes.HasPrefix(data, pngSignature)
}

// Decode reads a PNG, BMP or WebP image and returns it as a top-left
// origin NRGBA raster. Sixteen-bit, gray and paletted sources are expanded
// to 8-bit RGBA.
func Decode(r io.Reader) (*image.NRGBA, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(8)
	if err != nil && len(head) < 2 {
		return nil, fmt.Errorf("read image header: %w", err)
	}

	var img image.Image
	switch {
	case IsPNG(head):
		img, err = png.Decode(br)
	case head[0] == 'B' && head[1] == 'M':
		img, err = bmp.Decode(br)
	case len(head) >= 4 && string(head[:4]) == "RIFF":
		img, err = webp.Decode(br)
	default:
		return nil, fmt.Errorf("not a png, bmp or webp file")
	}
	if err != nil {
		return nil, err
	}
	return ToNRGBA(img), nil
}

// ToNRGBA returns a copy of img as an NRGBA raster whose bounds start at
// the origin. The copy is always fresh so callers may modify it.
func ToNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if src, ok := img.(*image.NRGBA); ok {
		// Copy rows directly; going through premultiplied color would
		// round the RGB of translucent pixels.
		for y := 0; y < b.Dy(); y++ {
			i := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:(y+1)*dst.Stride], src.Pix[i:i+4*b.Dx()])
		}
		return dst
	}
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// EncodePNG writes img as an 8-bit RGBA PNG.
func EncodePNG(w io.Writer, img *image.NRGBA) error {
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	return enc.Encode(w, img)
}
