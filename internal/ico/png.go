package ico

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image/png"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// IsPNG reports whether data starts with the PNG signature.
func IsPNG(data []byte) bool {
	return bytes.HasPrefix(data, pngSignature)
}

// PNGInfo returns the dimensions of a PNG stream and its bit depth as
// stored: the sample depth times the channel count, or the index depth for
// paletted images.
func PNGInfo(data []byte) (width, height, bitCount int, err error) {
	if !IsPNG(data) {
		return 0, 0, 0, fmt.Errorf("%w: missing PNG signature", ErrInvalidEmbeddedImage)
	}
	if _, err := png.DecodeConfig(bytes.NewReader(data)); err != nil {
		return 0, 0, 0, fmt.Errorf("%w: %v", ErrInvalidEmbeddedImage, err)
	}

	// DecodeConfig succeeded, so the IHDR chunk directly follows the
	// signature: length(4) "IHDR"(4) width(4) height(4) depth(1) type(1).
	ihdr := data[len(pngSignature)+8:]
	width = int(binary.BigEndian.Uint32(ihdr[0:]))
	height = int(binary.BigEndian.Uint32(ihdr[4:]))
	depth := int(ihdr[8])

	var channels int
	switch colorType := ihdr[9]; colorType {
	case 0, 3: // gray, palette
		channels = 1
	case 4: // gray + alpha
		channels = 2
	case 2: // RGB
		channels = 3
	case 6: // RGBA
		channels = 4
	default:
		return 0, 0, 0, fmt.Errorf("%w: color type %d", ErrInvalidEmbeddedImage, colorType)
	}
	return width, height, depth * channels, nil
}
