package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/babs/icoutils/internal/batch"
	"github.com/babs/icoutils/internal/ico"
	"github.com/babs/icoutils/internal/raster"
)

// sourceFile is one input of --create.
type sourceFile struct {
	Path string
	Raw  bool // store the PNG verbatim
}

// loadSources reads the inputs concurrently. Sources that fail to load are
// reported and left out; the returned errors line up with files.
func loadSources(ctx context.Context, files []sourceFile, workers int) ([]ico.Source, []error) {
	srcs := make([]ico.Source, len(files))
	errs := batch.Run(ctx, len(files), workers, func(_ context.Context, i int) error {
		src, err := loadSource(files[i])
		if err != nil {
			return fmt.Errorf("%s: %w", files[i].Path, err)
		}
		srcs[i] = src
		return nil
	})

	var ok []ico.Source
	for i, err := range errs {
		if err != nil {
			log.Printf("Skipping image: %v", err)
			continue
		}
		ok = append(ok, srcs[i])
	}
	return ok, errs
}

func loadSource(f sourceFile) (ico.Source, error) {
	src := ico.Source{Name: f.Path}
	if f.Raw {
		data, err := os.ReadFile(f.Path)
		if err != nil {
			return src, fmt.Errorf("%w: %v", ico.ErrIO, err)
		}
		if !raster.IsPNG(data) {
			return src, fmt.Errorf("%w: not a PNG file", ico.ErrInvalidEmbeddedImage)
		}
		src.Raw = data
		return src, nil
	}

	in, err := os.Open(f.Path)
	if err != nil {
		return src, fmt.Errorf("%w: %v", ico.ErrIO, err)
	}
	defer in.Close()
	img, err := raster.Decode(in)
	if err != nil {
		return src, err
	}
	src.Image = img
	return src, nil
}

// createIcon encodes srcs and writes the container to path, or to stdout
// when path is empty. Nothing is written if encoding fails.
func createIcon(srcs []ico.Source, opts ico.EncodeOptions, path string, stdout io.Writer) error {
	var buf bytes.Buffer
	if err := ico.Encode(&buf, srcs, opts); err != nil {
		return err
	}
	if path == "" || path == "-" {
		if _, err := stdout.Write(buf.Bytes()); err != nil {
			return fmt.Errorf("%w: %v", ico.ErrWrite, err)
		}
		return nil
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("%w: %v", ico.ErrWrite, err)
	}
	return nil
}
