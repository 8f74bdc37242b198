package ico

import (
	"errors"
	"fmt"
	"log"

	"github.com/babs/icoutils/internal/bitpack"
)

var (
	ErrNotAnIconFile          = errors.New("not an icon or cursor file")
	ErrUnsupportedFeature     = errors.New("unsupported feature")
	ErrUnsupportedCompression = fmt.Errorf("compressed image data: %w", ErrUnsupportedFeature)
	ErrCorruptOffsets         = errors.New("corrupt image offsets")
	ErrPaletteIndexOutOfRange = errors.New("color out of range in image data")
	ErrColorNotFound          = errors.New("color not found in palette")
	ErrInvalidEmbeddedImage   = errors.New("invalid embedded PNG image")
	ErrIO                     = errors.New("i/o failure")
	ErrWrite                  = fmt.Errorf("cannot write to file: %w", ErrIO)
)

// Warner receives non-fatal diagnostics. *log.Logger satisfies it.
type Warner interface {
	Printf(format string, v ...any)
}

func warnerOrDefault(w Warner) Warner {
	if w == nil {
		return log.Default()
	}
	return w
}

// bitDepthError reports a bit depth that no packer supports as an
// unsupported feature while keeping bitpack.ErrInvalidBitDepth matchable.
func bitDepthError(bits int) error {
	return fmt.Errorf("%w: %w %d", ErrUnsupportedFeature, bitpack.ErrInvalidBitDepth, bits)
}
