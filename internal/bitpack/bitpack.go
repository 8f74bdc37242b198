// Package bitpack reads and writes pixel values in packed DIB scan lines.
//
// Depths below 8 share a byte and are stored most significant bits first,
// so pixel 0 occupies the high-order field. Depths of 8, 16, 24 and 32 bits
// occupy 1 to 4 consecutive little-endian bytes.
package bitpack

import (
	"errors"
	"fmt"
)

// ErrInvalidBitDepth is returned for depths outside {1,2,4,8,16,24,32}.
var ErrInvalidBitDepth = errors.New("invalid bit depth")

// Valid reports whether bits is a supported pixel depth.
func Valid(bits int) bool {
	switch bits {
	case 1, 2, 4, 8, 16, 24, 32:
		return true
	}
	return false
}

// RowBytes returns the size of a scan line holding the given number of
// bits, rounded up to a 4-byte boundary.
func RowBytes(bits int) int {
	return ((bits + 31) >> 5) << 2
}

// Pack stores value as pixel i of buf. Bits of value above the pixel
// depth are discarded.
func Pack(buf []byte, i, bits int, value uint32) error {
	switch bits {
	case 1, 2, 4:
		perByte := 8 / bits
		shift := uint(perByte-1-i%perByte) * uint(bits)
		mask := byte(1<<bits-1) << shift
		b := &buf[i/perByte]
		*b = *b&^mask | byte(value<<shift)&mask
	case 8:
		buf[i] = byte(value)
	case 16:
		buf[2*i] = byte(value)
		buf[2*i+1] = byte(value >> 8)
	case 24:
		buf[3*i] = byte(value)
		buf[3*i+1] = byte(value >> 8)
		buf[3*i+2] = byte(value >> 16)
	case 32:
		buf[4*i] = byte(value)
		buf[4*i+1] = byte(value >> 8)
		buf[4*i+2] = byte(value >> 16)
		buf[4*i+3] = byte(value >> 24)
	default:
		return fmt.Errorf("%w: %d", ErrInvalidBitDepth, bits)
	}
	return nil
}

// Unpack returns pixel i of buf.
func Unpack(buf []byte, i, bits int) (uint32, error) {
	switch bits {
	case 1, 2, 4:
		perByte := 8 / bits
		shift := uint(perByte-1-i%perByte) * uint(bits)
		return uint32(buf[i/perByte]>>shift) & (1<<bits - 1), nil
	case 8:
		return uint32(buf[i]), nil
	case 16:
		return uint32(buf[2*i]) | uint32(buf[2*i+1])<<8, nil
	case 24:
		return uint32(buf[3*i]) | uint32(buf[3*i+1])<<8 | uint32(buf[3*i+2])<<16, nil
	case 32:
		return uint32(buf[4*i]) | uint32(buf[4*i+1])<<8 | uint32(buf[4*i+2])<<16 | uint32(buf[4*i+3])<<24, nil
	}
	return 0, fmt.Errorf("%w: %d", ErrInvalidBitDepth, bits)
}
