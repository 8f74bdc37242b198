package resource

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tc-hib/winres"
)

var ErrNotLibrary = errors.New("not a PE binary with resources")

// Resource is one leaf of the resource tree.
type Resource struct {
	Type ID
	Name ID
	Lang uint16
	Data []byte
}

// Query selects resources. Nil fields match anything.
type Query struct {
	Type *ID
	Name *ID
	Lang *ID
}

// Match reports whether r is selected by q.
func (q Query) Match(r Resource) bool {
	if q.Type != nil && *q.Type != r.Type {
		return false
	}
	if q.Name != nil && *q.Name != r.Name {
		return false
	}
	if q.Lang != nil && (q.Lang.IsName() || q.Lang.Num != r.Lang) {
		return false
	}
	return true
}

// Finder looks up a single resource.
type Finder interface {
	Find(typ, name ID, lang *ID) (Resource, bool)
}

// Library is the resource tree of one binary, flattened in walk order.
type Library struct {
	resources []Resource
}

// Load reads the resource section of a PE binary.
func Load(r io.ReadSeeker) (*Library, error) {
	rs, err := winres.LoadFromEXE(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotLibrary, err)
	}
	return FromResourceSet(rs), nil
}

// Open loads the binary at path.
func Open(path string) (*Library, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("%w: file has a size of 0", ErrNotLibrary)
	}
	return Load(f)
}

// FromResourceSet indexes an already loaded resource set.
func FromResourceSet(rs *winres.ResourceSet) *Library {
	lib := &Library{}
	rs.Walk(func(typeID, resID winres.Identifier, langID uint16, data []byte) bool {
		lib.resources = append(lib.resources, Resource{
			Type: fromIdentifier(typeID),
			Name: fromIdentifier(resID),
			Lang: langID,
			Data: data,
		})
		return true
	})
	return lib
}

func fromIdentifier(id winres.Identifier) ID {
	switch v := id.(type) {
	case winres.ID:
		return Num(uint16(v))
	case winres.Name:
		return Name(string(v))
	}
	return ID{}
}

// Resources returns every resource in walk order.
func (l *Library) Resources() []Resource {
	return l.resources
}

// Walk calls fn for each resource matching q and stops at the first error.
func (l *Library) Walk(q Query, fn func(Resource) error) error {
	for _, r := range l.resources {
		if !q.Match(r) {
			continue
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

// Find returns the first resource with the given type and name. A nil
// lang matches any language.
func (l *Library) Find(typ, name ID, lang *ID) (Resource, bool) {
	q := Query{Type: &typ, Name: &name, Lang: lang}
	for _, r := range l.resources {
		if q.Match(r) {
			return r, true
		}
	}
	return Resource{}, false
}
