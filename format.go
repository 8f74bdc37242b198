package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/babs/icoutils/internal/ico"
)

// formatListLine formats one image as the options that would select it.
func formatListLine(info ico.ImageInfo) string {
	kind := "--icon"
	if info.Cursor {
		kind = "--cursor"
	}
	line := fmt.Sprintf("%s --index=%d --width=%d --height=%d --bit-depth=%d --palette-size=%d",
		kind, info.Index, info.Width, info.Height, info.BitCount, info.PaletteSize)
	if info.Cursor {
		line += fmt.Sprintf(" --hotspot-x=%d --hotspot-y=%d", info.HotspotX, info.HotspotY)
	}
	return line
}

// baseName returns the file name of input without its directory and
// without an .ico or .cur extension.
func baseName(input string) string {
	if input == "-" {
		return "stdin"
	}
	base := filepath.Base(input)
	ext := filepath.Ext(base)
	if strings.EqualFold(ext, ".ico") || strings.EqualFold(ext, ".cur") {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// outputNamer decides where each extracted image goes.
type outputNamer struct {
	dir    string // generated names are placed here
	file   string // every image is written to this path
	stdout bool
}

// newOutputNamer interprets the -o value: empty for generated names in
// the current directory, "-" for standard output, a directory for
// generated names in it, anything else a literal file.
func newOutputNamer(output string, isDir bool) outputNamer {
	switch {
	case output == "":
		return outputNamer{}
	case output == "-":
		return outputNamer{stdout: true}
	case isDir:
		return outputNamer{dir: output}
	}
	return outputNamer{file: output}
}

// Path returns the destination of an image of input, or "-" for standard
// output.
func (n outputNamer) Path(input string, info ico.ImageInfo) string {
	switch {
	case n.stdout:
		return "-"
	case n.file != "":
		return n.file
	}
	name := fmt.Sprintf("%s_%d_%dx%dx%d.png", baseName(input), info.Index, info.Width, info.Height, info.BitCount)
	if n.dir == "" {
		return name
	}
	return filepath.Join(n.dir, name)
}

// imageFilter selects images by the filter options. A negative field
// matches anything.
type imageFilter struct {
	Index       int
	Width       int
	Height      int
	BitCount    int
	PaletteSize int
	HotspotX    int
	HotspotY    int
	IconOnly    bool
	CursorOnly  bool
}

func newImageFilter() imageFilter {
	return imageFilter{Index: -1, Width: -1, Height: -1, BitCount: -1, PaletteSize: -1, HotspotX: -1, HotspotY: -1}
}

// Match implements ico.ImageFilter.
func (f imageFilter) Match(info ico.ImageInfo) bool {
	if f.IconOnly && info.Cursor || f.CursorOnly && !info.Cursor {
		return false
	}
	if !matchInt(f.Index, info.Index) || !matchInt(f.Width, info.Width) || !matchInt(f.Height, info.Height) {
		return false
	}
	if !matchInt(f.BitCount, info.BitCount) || !matchInt(f.PaletteSize, info.PaletteSize) {
		return false
	}
	if info.Cursor {
		return matchInt(f.HotspotX, info.HotspotX) && matchInt(f.HotspotY, info.HotspotY)
	}
	return true
}

func matchInt(want, got int) bool {
	return want < 0 || want == got
}
