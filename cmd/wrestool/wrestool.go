package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/babs/icoutils/internal/ico"
	"github.com/babs/icoutils/internal/resource"
)

// formatListLine formats r as the options that would select it.
func formatListLine(r resource.Resource) string {
	line := fmt.Sprintf("--type=%s --name=%s --language=%d [", r.Type.Quoted(), r.Name.Quoted(), r.Lang)
	if name := resource.TypeName(r.Type); name != "" {
		line += "type=" + name + " "
	}
	return line + fmt.Sprintf("size=%d]", len(r.Data))
}

// listResources prints one line per resource of lib matching q.
func listResources(lib *resource.Library, q resource.Query, out io.Writer) error {
	return lib.Walk(q, func(r resource.Resource) error {
		_, err := fmt.Fprintln(out, formatListLine(r))
		return err
	})
}

// destination decides where each extracted resource goes.
type destination struct {
	dir  string // generated names are placed here
	file string // every resource is written to this path
}

func newDestination(output string, isDir bool) destination {
	switch {
	case output == "" || output == "-":
		return destination{}
	case isDir:
		return destination{dir: output}
	}
	return destination{file: output}
}

// Path returns the file for r extracted from input, or "" for stdout.
func (d destination) Path(input string, r resource.Resource, raw bool) string {
	if d.file != "" {
		return d.file
	}
	if d.dir == "" {
		return ""
	}
	name := fmt.Sprintf("%s_%s_%s", filepath.Base(input), r.Type, r.Name)
	if r.Lang != resource.LangEnglishUS {
		name += fmt.Sprintf("_%d", r.Lang)
	}
	if !raw {
		name += resource.Extension(r.Type)
	}
	return filepath.Join(d.dir, name)
}

// extractResources writes every resource of lib matching q. A resource
// that cannot be converted is reported and skipped.
func extractResources(input string, lib *resource.Library, q resource.Query, raw bool, dest destination, warn ico.Warner, stdout io.Writer) error {
	var errs []error
	matched := 0
	err := lib.Walk(q, func(r resource.Resource) error {
		matched++
		data, err := resource.Extract(lib, r, raw, warn)
		if err != nil {
			errs = append(errs, fmt.Errorf("--type=%s --name=%s: %w", r.Type.Quoted(), r.Name.Quoted(), err))
			return nil
		}
		path := dest.Path(input, r, raw)
		if path == "" {
			if _, err := stdout.Write(data); err != nil {
				return fmt.Errorf("%w: %v", ico.ErrWrite, err)
			}
			return nil
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("%w: %v", ico.ErrWrite, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if matched == 0 {
		warn.Printf("no resources matched")
	}
	return errors.Join(errs...)
}

// buildQuery parses the --type, --name and --language values. Empty
// values match anything.
func buildQuery(typ, name, lang string) (resource.Query, error) {
	var q resource.Query
	if typ != "" {
		id, err := resource.ParseType(typ)
		if err != nil {
			return q, fmt.Errorf("--type: %w", err)
		}
		q.Type = &id
	}
	if name != "" {
		id, err := resource.ParseID(name)
		if err != nil {
			return q, fmt.Errorf("--name: %w", err)
		}
		q.Name = &id
	}
	if lang != "" {
		id, err := resource.ParseID(lang)
		if err != nil {
			return q, fmt.Errorf("--language: %w", err)
		}
		if id.IsName() {
			return q, fmt.Errorf("--language: %w: %q is not a number", resource.ErrInvalidID, strings.TrimPrefix(lang, "+"))
		}
		q.Lang = &id
	}
	return q, nil
}
