package resource

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log"

	"github.com/babs/icoutils/internal/ico"
)

var (
	ErrMissingSubresource = errors.New("missing icon or cursor resource")
	ErrMalformedGroup     = errors.New("malformed group resource")
)

const groupEntrySize = 14

// GroupEntry is one GRPICONDIRENTRY of a group icon or cursor resource.
// Icons store width and height in one byte each, cursors in a word; Height
// of a cursor covers both the XOR and AND bitmaps.
type GroupEntry struct {
	Width      uint16
	Height     uint16
	ColorCount uint8 // icons only
	Reserved   uint8 // icons only
	Planes     uint16
	BitCount   uint16
	BytesInRes uint32
	ResID      uint16
}

// ParseGroup decodes the directory of a group resource.
func ParseGroup(data []byte, cursor bool) ([]GroupEntry, error) {
	if len(data) < ico.DirSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrMalformedGroup, len(data))
	}
	count := int(binary.LittleEndian.Uint16(data[4:]))
	if len(data) < ico.DirSize+count*groupEntrySize {
		return nil, fmt.Errorf("%w: %d entries in %d bytes", ErrMalformedGroup, count, len(data))
	}

	entries := make([]GroupEntry, count)
	for i := range entries {
		b := data[ico.DirSize+i*groupEntrySize:]
		e := &entries[i]
		if cursor {
			e.Width = binary.LittleEndian.Uint16(b[0:])
			e.Height = binary.LittleEndian.Uint16(b[2:])
		} else {
			e.Width, e.Height = uint16(b[0]), uint16(b[1])
			e.ColorCount, e.Reserved = b[2], b[3]
		}
		e.Planes = binary.LittleEndian.Uint16(b[4:])
		e.BitCount = binary.LittleEndian.Uint16(b[6:])
		e.BytesInRes = binary.LittleEndian.Uint32(b[8:])
		e.ResID = binary.LittleEndian.Uint16(b[12:])
	}
	return entries, nil
}

// ExtractGroup rebuilds a complete .ico or .cur file from a group icon or
// group cursor resource, fetching each image from f in the group's
// language. Empty images are skipped; any image that cannot be found fails
// the whole group.
func ExtractGroup(f Finder, group Resource, warn ico.Warner) ([]byte, error) {
	cursor := group.Type == Num(TypeGroupCursor)
	if !cursor && group.Type != Num(TypeGroupIcon) {
		return nil, fmt.Errorf("%w: type %s is not a group", ErrMalformedGroup, group.Type)
	}
	if warn == nil {
		warn = log.Default()
	}
	entries, err := ParseGroup(group.Data, cursor)
	if err != nil {
		return nil, err
	}

	subType, groupName := Num(TypeIcon), "group_icon"
	if cursor {
		subType, groupName = Num(TypeCursor), "group_cursor"
	}
	lang := Num(group.Lang)

	type part struct {
		entry GroupEntry
		data  []byte
	}
	var parts []part
	total := 0
	for _, e := range entries {
		res, ok := f.Find(subType, Num(e.ResID), &lang)
		if !ok {
			return nil, fmt.Errorf("%w: could not find %d in %s resource", ErrMissingSubresource, e.ResID, groupName)
		}
		if len(res.Data) == 0 {
			warn.Printf("icon resource %d is empty, skipping", e.ResID)
			continue
		}
		if uint32(len(res.Data)) != e.BytesInRes {
			warn.Printf("mismatch of size in icon resource %d and group (%d vs %d)", e.ResID, len(res.Data), e.BytesInRes)
		}
		if cursor && len(res.Data) < 4 {
			return nil, fmt.Errorf("%w: cursor resource %d is too short", ErrMalformedGroup, e.ResID)
		}
		parts = append(parts, part{entry: e, data: res.Data})
		total += len(res.Data)
	}

	offset := ico.DirSize + len(parts)*ico.DirEntrySize
	if cursor {
		total -= 4 * len(parts)
	}
	out := make([]byte, offset, offset+total)

	dir := ico.Dir{Type: ico.TypeIcon, Count: uint16(len(parts))}
	if cursor {
		dir.Type = ico.TypeCursor
	}
	dir.Put(out)

	for i, p := range parts {
		e := p.entry
		blob := p.data
		d := ico.DirEntry{
			Width:      uint8(e.Width),
			Height:     uint8(e.Height),
			ColorCount: e.ColorCount,
			Reserved:   e.Reserved,
			Planes:     e.Planes,
			BitCount:   e.BitCount,
		}
		if cursor {
			d.Height = uint8(e.Height / 2)
			d.ColorCount, d.Reserved = 0, 0
			d.Planes = binary.LittleEndian.Uint16(blob[0:])
			d.BitCount = binary.LittleEndian.Uint16(blob[2:])
			blob = blob[4:]
		}
		d.DIBOffset = uint32(offset)
		d.DIBSize = uint32(len(blob))
		d.Put(out[ico.DirSize+i*ico.DirEntrySize:])

		out = append(out, blob...)
		offset += len(blob)
	}
	return out, nil
}
