package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/babs/icoutils/internal/ico"
	"github.com/babs/icoutils/internal/raster"
)

// listFile writes one line per matching image of r to out.
func listFile(r io.Reader, filter ico.ImageFilter, warn ico.Warner, out io.Writer) error {
	d := ico.Decoder{Filter: filter, ListOnly: true, Warn: warn}
	_, err := d.Decode(r, func(img *ico.Image) error {
		_, err := fmt.Fprintln(out, formatListLine(img.ImageInfo))
		return err
	})
	return err
}

// extractFile writes every matching image of r as a PNG. Images named "-"
// go to stdout.
func extractFile(input string, r io.Reader, filter ico.ImageFilter, namer outputNamer, warn ico.Warner, stdout io.Writer) error {
	d := ico.Decoder{Filter: filter, Warn: warn}
	n, err := d.Decode(r, func(img *ico.Image) error {
		path := namer.Path(input, img.ImageInfo)
		if path == "-" {
			return writeImage(stdout, img)
		}
		return writeImageFile(path, img)
	})
	if err != nil {
		return err
	}
	if n == 0 {
		warn.Printf("no images matched")
	}
	return nil
}

func writeImageFile(path string, img *ico.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ico.ErrWrite, err)
	}
	if err := writeImage(f, img); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %s: %v", ico.ErrWrite, path, err)
	}
	return nil
}

// writeImage writes an embedded PNG verbatim and encodes anything else.
func writeImage(w io.Writer, img *ico.Image) error {
	bw := bufio.NewWriter(w)
	if img.PNG != nil {
		if _, err := bw.Write(img.PNG); err != nil {
			return fmt.Errorf("%w: %v", ico.ErrWrite, err)
		}
	} else if err := raster.EncodePNG(bw, img.Raster); err != nil {
		return fmt.Errorf("%w: %v", ico.ErrWrite, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ico.ErrWrite, err)
	}
	return nil
}
