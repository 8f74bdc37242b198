package resource

import (
	"encoding/binary"
	"fmt"

	"github.com/babs/icoutils/internal/ico"
)

const fileHeaderSize = 14

// BitmapFile turns a bitmap resource, which lacks the BITMAPFILEHEADER,
// into a .bmp file.
func BitmapFile(data []byte) ([]byte, error) {
	if len(data) < ico.InfoHeaderSize {
		return nil, fmt.Errorf("%w: bitmap resource of %d bytes", ico.ErrNotAnIconFile, len(data))
	}
	hdr := ico.ParseBitmapInfoHeader(data)

	pixels := uint32(fileHeaderSize) + hdr.Size
	switch {
	case hdr.ClrUsed != 0:
		pixels += ico.RGBQuadSize * hdr.ClrUsed
	case hdr.BitCount > 0 && hdr.BitCount <= 8:
		pixels += ico.RGBQuadSize << hdr.BitCount
	}

	out := make([]byte, fileHeaderSize, fileHeaderSize+len(data))
	out[0], out[1] = 'B', 'M'
	binary.LittleEndian.PutUint32(out[2:], uint32(fileHeaderSize+len(data)))
	binary.LittleEndian.PutUint32(out[10:], pixels)
	return append(out, data...), nil
}
