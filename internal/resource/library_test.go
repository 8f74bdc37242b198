package resource

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tc-hib/winres"
)

func testLibrary() *Library {
	return &Library{resources: []Resource{
		{Type: Num(TypeGroupIcon), Name: Num(1), Lang: 1033, Data: []byte("a")},
		{Type: Num(TypeGroupIcon), Name: Num(1), Lang: 1031, Data: []byte("b")},
		{Type: Num(TypeIcon), Name: Num(1), Lang: 1033, Data: []byte("c")},
		{Type: Name("PNG"), Name: Name("LOGO"), Lang: 0, Data: []byte("d")},
	}}
}

func TestLibrary_Find(t *testing.T) {
	lib := testLibrary()

	r, ok := lib.Find(Num(TypeGroupIcon), Num(1), nil)
	if !ok || string(r.Data) != "a" {
		t.Errorf("Find(any language) = %q, %v, want first match", r.Data, ok)
	}
	de := Num(1031)
	r, ok = lib.Find(Num(TypeGroupIcon), Num(1), &de)
	if !ok || string(r.Data) != "b" {
		t.Errorf("Find(1031) = %q, %v, want b", r.Data, ok)
	}
	if _, ok := lib.Find(Num(TypeGroupIcon), Num(2), nil); ok {
		t.Error("Find of a missing name should fail")
	}
	if _, ok := lib.Find(Name("PNG"), Name("LOGO"), nil); !ok {
		t.Error("Find by string identifiers failed")
	}
}

func TestLibrary_Walk(t *testing.T) {
	lib := testLibrary()
	typ := Num(TypeGroupIcon)

	var got []string
	err := lib.Walk(Query{Type: &typ}, func(r Resource) error {
		got = append(got, string(r.Data))
		return nil
	})
	if err != nil {
		t.Fatalf("Walk error: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, got); diff != "" {
		t.Errorf("Walk mismatch (-want +got):\n%s", diff)
	}

	stop := errors.New("stop")
	n := 0
	err = lib.Walk(Query{}, func(Resource) error { n++; return stop })
	if !errors.Is(err, stop) || n != 1 {
		t.Errorf("Walk = %v after %d calls, want stop after 1", err, n)
	}
}

func TestQuery_NamedLanguage(t *testing.T) {
	lang := Name("1033")
	if (Query{Lang: &lang}).Match(Resource{Lang: 1033}) {
		t.Error("a string language should never match")
	}
}

func TestFromResourceSet(t *testing.T) {
	rs := &winres.ResourceSet{}
	if err := rs.Set(winres.ID(10), winres.ID(5), 1033, []byte("payload")); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	lib := FromResourceSet(rs)

	r, ok := lib.Find(Num(10), Num(5), nil)
	if !ok {
		t.Fatal("rcdata resource not found")
	}
	if r.Lang != 1033 || string(r.Data) != "payload" {
		t.Errorf("resource = %+v", r)
	}
	if TypeName(r.Type) != "rcdata" {
		t.Errorf("TypeName = %q, want rcdata", TypeName(r.Type))
	}
}

func TestLoad_NotPE(t *testing.T) {
	_, err := Load(bytes.NewReader([]byte("this is not an executable")))
	if !errors.Is(err, ErrNotLibrary) {
		t.Errorf("Load error = %v, want ErrNotLibrary", err)
	}
}

func TestOpen_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.exe")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Open(path)
	if !errors.Is(err, ErrNotLibrary) {
		t.Errorf("Open error = %v, want ErrNotLibrary", err)
	}
}

func TestOpen_Missing(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "nope.exe")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Open error = %v, want not exist", err)
	}
}
