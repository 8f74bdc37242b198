package resource

import (
	"errors"
	"fmt"

	"github.com/babs/icoutils/internal/ico"
)

var ErrUnknownFormat = errors.New("don't know how to extract resource, try --raw")

// Extension returns the file extension of a converted resource of type
// typ, or "" for types that are only extracted raw.
func Extension(typ ID) string {
	switch typ {
	case Num(TypeBitmap):
		return ".bmp"
	case Num(TypeGroupIcon):
		return ".ico"
	case Num(TypeGroupCursor):
		return ".cur"
	}
	return ""
}

// Extract returns the contents of r as a standalone file. With raw set the
// resource bytes are returned unchanged; otherwise group icons and cursors
// are rebuilt with ExtractGroup and bitmaps get a file header.
func Extract(f Finder, r Resource, raw bool, warn ico.Warner) ([]byte, error) {
	if raw {
		return r.Data, nil
	}
	switch r.Type {
	case Num(TypeBitmap):
		return BitmapFile(r.Data)
	case Num(TypeGroupIcon), Num(TypeGroupCursor):
		return ExtractGroup(f, r, warn)
	}
	return nil, fmt.Errorf("%w (type %s)", ErrUnknownFormat, r.Type)
}
