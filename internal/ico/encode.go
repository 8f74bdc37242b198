package ico

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"math"

	"github.com/babs/icoutils/internal/bitpack"
	"github.com/babs/icoutils/internal/palette"
	"github.com/babs/icoutils/internal/raster"
)

// DefaultAlphaThreshold is the highest alpha value drawn as transparent
// in the AND mask.
const DefaultAlphaThreshold = 127

// Source is one image to store in a container: either a decoded raster or
// a PNG stream stored verbatim.
type Source struct {
	Name  string      // used in diagnostics only
	Image image.Image // ignored when Raw is set
	Raw   []byte      // PNG data for a Vista image
}

// EncodeOptions controls container creation.
type EncodeOptions struct {
	Cursor         bool
	HotspotX       int
	HotspotY       int
	AlphaThreshold int // alpha values <= threshold are masked out
	BitDepth       int // 0 picks the smallest lossless depth
	Warn           Warner
}

// Plan records how one source will be stored.
type Plan struct {
	Width        int
	Height       int
	BitCount     int
	PaletteCount int // color table entries, also written as clr_used
	ImageSize    int
	MaskSize     int

	raster  *image.NRGBA
	palette *palette.Palette
	raw     []byte
}

// DIBSize is the number of bytes the image occupies in the container.
func (p *Plan) DIBSize() int {
	if p.raw != nil {
		return len(p.raw)
	}
	return p.PaletteCount*RGBQuadSize + InfoHeaderSize + p.ImageSize + p.MaskSize
}

// PlanImage picks bit depth and palette size for img. A bitDepth of 0
// selects the depth automatically; a larger requested depth is honored
// and a smaller one is refused with a warning, since it would lose colors
// or transparency.
func PlanImage(img image.Image, bitDepth int, warn Warner) (*Plan, error) {
	warn = warnerOrDefault(warn)
	if img == nil {
		return nil, fmt.Errorf("no image data")
	}
	if bitDepth != 0 && !bitpack.Valid(bitDepth) {
		return nil, bitDepthError(bitDepth)
	}

	p := &Plan{
		raster:  raster.ToNRGBA(img),
		palette: palette.New(),
	}
	p.Width = p.raster.Rect.Dx()
	p.Height = p.raster.Rect.Dy()

	// Count colors and alpha levels. Fully transparent pixels are made
	// black since some consumers do not ignore their RGB values.
	var alphas [256]bool
	pix := p.raster.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		if pix[i+3] == 0 {
			pix[i], pix[i+1], pix[i+2] = 0, 0, 0
		}
		if p.palette.Len() <= palette.MaxSize {
			p.palette.Add(palette.Color{R: pix[i], G: pix[i+1], B: pix[i+2]})
		}
		alphas[pix[i+3]] = true
	}
	levels := 0
	for _, seen := range alphas {
		if seen {
			levels++
		}
	}

	// More than two alpha levels, or two that are not exactly 0 and 255,
	// cannot be expressed by the AND mask.
	needAlpha := levels > 2 || (levels == 2 && (!alphas[0] || !alphas[255]))

	switch {
	case needAlpha:
		if bitDepth != 0 {
			if bitDepth != 32 {
				warn.Printf("decreasing bit depth will discard variable transparency")
			}
			// 24 rather than bitDepth: the color count may still forbid
			// going lower, which the override check below decides.
			p.BitCount = 24
		} else {
			p.BitCount = 32
		}
		p.PaletteCount = 0
	case p.palette.Len() <= palette.MaxSize:
		d := 1
		for p.palette.Len() > 1<<d {
			d <<= 1
		}
		if d == 2 { // four-color bitmaps are not supported
			d = 4
		}
		p.BitCount = d
		p.PaletteCount = 1 << d
	default:
		p.BitCount = 24
		p.PaletteCount = 0
	}

	if bitDepth != 0 {
		switch {
		case p.BitCount == bitDepth:
		case p.BitCount < bitDepth:
			p.BitCount = bitDepth
			p.PaletteCount = 0
			if bitDepth <= 16 {
				p.PaletteCount = 1 << bitDepth
			}
		default:
			warn.Printf("cannot decrease bit depth from %d to %d, bit depth not changed", p.BitCount, bitDepth)
		}
	}

	p.ImageSize = p.Height * bitpack.RowBytes(p.Width*p.BitCount)
	p.MaskSize = p.Height * bitpack.RowBytes(p.Width)
	return p, nil
}

// planRaw describes a PNG stored verbatim.
func planRaw(data []byte) (*Plan, error) {
	w, h, bits, err := PNGInfo(data)
	if err != nil {
		return nil, err
	}
	return &Plan{Width: w, Height: h, BitCount: bits, raw: data}, nil
}

// Encode writes a container holding srcs, in order. Every source is
// planned before anything is written, so invalid input produces no
// output. A write failure aborts the whole container; bytes already
// written are left in w.
func Encode(w io.Writer, srcs []Source, opts EncodeOptions) error {
	warn := warnerOrDefault(opts.Warn)
	if len(srcs) == 0 {
		return fmt.Errorf("no images to encode")
	}
	if len(srcs) > math.MaxUint16 {
		return fmt.Errorf("too many images (%d)", len(srcs))
	}

	plans := make([]*Plan, len(srcs))
	for i, src := range srcs {
		var err error
		if src.Raw != nil {
			plans[i], err = planRaw(src.Raw)
		} else {
			plans[i], err = PlanImage(src.Image, opts.BitDepth, prefixed(warn, src.Name))
		}
		if err != nil {
			return fmt.Errorf("%s: %w", sourceName(src, i), err)
		}
	}

	header := make([]byte, DirSize+len(plans)*DirEntrySize)
	dir := Dir{Type: TypeIcon, Count: uint16(len(plans))}
	if opts.Cursor {
		dir.Type = TypeCursor
	}
	dir.Put(header)

	offset := len(header)
	for i, p := range plans {
		e := DirEntry{
			DIBSize:   uint32(p.DIBSize()),
			DIBOffset: uint32(offset),
		}
		e.Width, e.Height = entryDimension(p.Width, p.Height)
		if p.BitCount < 8 {
			e.ColorCount = uint8(1 << p.BitCount)
		}
		if opts.Cursor {
			e.Planes = uint16(opts.HotspotX)
			e.BitCount = uint16(opts.HotspotY)
		} else {
			e.Planes = 1
			e.BitCount = uint16(p.BitCount)
		}
		if int64(offset)+int64(p.DIBSize()) > math.MaxUint32 {
			return fmt.Errorf("%s: %w: container larger than 4 GiB", sourceName(srcs[i], i), ErrUnsupportedFeature)
		}
		e.Put(header[DirSize+i*DirEntrySize:])
		offset += p.DIBSize()
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.Write(header); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	for i, p := range plans {
		if err := p.write(bw, opts.AlphaThreshold); err != nil {
			return fmt.Errorf("%s: %w", sourceName(srcs[i], i), err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

// write emits the image blob: the raw PNG, or header, color table, XOR
// bitmap and AND mask.
func (p *Plan) write(w io.Writer, alphaThreshold int) error {
	if p.raw != nil {
		if _, err := w.Write(p.raw); err != nil {
			return fmt.Errorf("%w: %v", ErrWrite, err)
		}
		return nil
	}

	blob := make([]byte, InfoHeaderSize, p.DIBSize())
	BitmapInfoHeader{
		Size:      InfoHeaderSize,
		Width:     int32(p.Width),
		Height:    int32(p.Height * 2),
		Planes:    1,
		BitCount:  uint16(p.BitCount),
		SizeImage: uint32(p.ImageSize),
		ClrUsed:   uint32(p.PaletteCount),
	}.Put(blob)

	if p.BitCount <= 16 {
		// Pad the table with black up to the full power-of-two size since
		// clr_used always declares that many entries; many readers assume
		// it.
		p.palette.AssignIndices()
		table := make([]byte, p.PaletteCount*RGBQuadSize)
		for i, c := range p.palette.Colors() {
			RGBQuad{Blue: c.B, Green: c.G, Red: c.R}.Put(table[i*RGBQuadSize:])
		}
		blob = append(blob, table...)
	}

	pixels, err := p.pixels()
	if err != nil {
		return err
	}
	blob = append(blob, pixels...)
	blob = append(blob, p.mask(alphaThreshold)...)

	if _, err := w.Write(blob); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

// pixels packs the XOR bitmap, bottom row first.
func (p *Plan) pixels() ([]byte, error) {
	stride := bitpack.RowBytes(p.Width * p.BitCount)
	data := make([]byte, p.ImageSize)
	for d := 0; d < p.Height; d++ {
		src := p.raster.Pix[(p.Height-d-1)*p.raster.Stride:]
		row := data[d*stride : (d+1)*stride]
		for x := 0; x < p.Width; x++ {
			r, g, b, a := src[4*x], src[4*x+1], src[4*x+2], src[4*x+3]
			var v uint32
			switch {
			case p.BitCount < 24:
				idx, ok := p.palette.Lookup(palette.Color{R: r, G: g, B: b})
				if !ok {
					return nil, fmt.Errorf("%w: #%02x%02x%02x", ErrColorNotFound, r, g, b)
				}
				v = uint32(idx)
			case p.BitCount == 24:
				v = uint32(r)<<16 | uint32(g)<<8 | uint32(b)
			default:
				v = uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
			}
			if err := bitpack.Pack(row, x, p.BitCount, v); err != nil {
				return nil, bitDepthError(p.BitCount)
			}
		}
	}
	return data, nil
}

// mask builds the AND mask, bottom row first. A set bit draws the pixel
// transparent.
func (p *Plan) mask(alphaThreshold int) []byte {
	stride := bitpack.RowBytes(p.Width)
	data := make([]byte, p.MaskSize)
	for d := 0; d < p.Height; d++ {
		src := p.raster.Pix[(p.Height-d-1)*p.raster.Stride:]
		row := data[d*stride : (d+1)*stride]
		for x := 0; x < p.Width; x++ {
			if int(src[4*x+3]) <= alphaThreshold {
				bitpack.Pack(row, x, 1, 1)
			}
		}
	}
	return data
}

func sourceName(src Source, i int) string {
	if src.Name != "" {
		return src.Name
	}
	return fmt.Sprintf("image %d", i+1)
}

type prefixWarner struct {
	w      Warner
	prefix string
}

func (p prefixWarner) Printf(format string, v ...any) {
	p.w.Printf(p.prefix+format, v...)
}

func prefixed(w Warner, name string) Warner {
	if name == "" {
		return w
	}
	return prefixWarner{w: w, prefix: name + ": "}
}
