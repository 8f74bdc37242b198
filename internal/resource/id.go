// Package resource reads resources out of Windows PE binaries and turns
// icon, cursor and bitmap resources back into standalone files.
package resource

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Standard resource types.
const (
	TypeCursor      = 1
	TypeBitmap      = 2
	TypeIcon        = 3
	TypeMenu        = 4
	TypeDialog      = 5
	TypeString      = 6
	TypeGroupCursor = 12
	TypeGroupIcon   = 14
	TypeVersion     = 16
	TypeToolbar     = 241
)

// LangEnglishUS is omitted from generated file names.
const LangEnglishUS = 1033

var typeNames = map[uint16]string{
	1:  "cursor",
	2:  "bitmap",
	3:  "icon",
	4:  "menu",
	5:  "dialog",
	6:  "string",
	7:  "fontdir",
	8:  "font",
	9:  "accelerator",
	10: "rcdata",
	11: "messagelist",
	12: "group_cursor",
	14: "group_icon",
	16: "version",
	17: "dlginclude",
	19: "plugplay",
	20: "vxd",
	21: "anicursor",
	22: "aniicon",
}

var ErrInvalidID = errors.New("invalid resource identifier")

// ID identifies a resource type, name or language. It is either a 16-bit
// number or a string.
type ID struct {
	Num  uint16
	Name string // set for string identifiers
}

// Num returns a numeric identifier.
func Num(n uint16) ID { return ID{Num: n} }

// Name returns a string identifier.
func Name(s string) ID { return ID{Name: s} }

// IsName reports whether id is a string identifier.
func (id ID) IsName() bool { return id.Name != "" }

// String returns the identifier without any sigil, as used in file names.
func (id ID) String() string {
	if id.IsName() {
		return id.Name
	}
	return strconv.Itoa(int(id.Num))
}

// Quoted returns the identifier as printed in listings: numbers bare,
// strings in single quotes.
func (id ID) Quoted() string {
	if id.IsName() {
		return "'" + id.Name + "'"
	}
	return id.String()
}

// ParseID parses a command-line identifier. A leading '+' forces a string
// identifier and a leading '-' a numeric one; otherwise anything that
// parses as a 16-bit number is numeric.
func ParseID(s string) (ID, error) {
	switch {
	case s == "":
		return ID{}, fmt.Errorf("%w: empty", ErrInvalidID)
	case s[0] == '+':
		if len(s) == 1 {
			return ID{}, fmt.Errorf("%w: empty name", ErrInvalidID)
		}
		return Name(s[1:]), nil
	case s[0] == '-':
		n, err := strconv.ParseUint(s[1:], 10, 16)
		if err != nil {
			return ID{}, fmt.Errorf("%w: %q is not a number", ErrInvalidID, s)
		}
		return Num(uint16(n)), nil
	}
	if n, err := strconv.ParseUint(s, 10, 16); err == nil {
		return Num(uint16(n)), nil
	}
	return Name(s), nil
}

// ParseType is ParseID that also accepts type names such as "group_icon",
// case-insensitively.
func ParseType(s string) (ID, error) {
	if strings.EqualFold(s, "toolbar") {
		return Num(TypeToolbar), nil
	}
	for n, name := range typeNames {
		if strings.EqualFold(s, name) {
			return Num(n), nil
		}
	}
	return ParseID(s)
}

// TypeName returns the name of a standard resource type, or "" if typ is
// not one.
func TypeName(typ ID) string {
	if typ.IsName() {
		return ""
	}
	if typ.Num == TypeToolbar {
		return "toolbar"
	}
	return typeNames[typ.Num]
}
