package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"golang.org/x/term"

	"github.com/babs/icoutils/internal/batch"
	"github.com/babs/icoutils/internal/bitpack"
	"github.com/babs/icoutils/internal/config"
	"github.com/babs/icoutils/internal/ico"
	"github.com/babs/icoutils/internal/selfupdate"
	"github.com/babs/icoutils/internal/version"
)

const program = "icotool"

const logFlags = log.Ldate | log.Ltime | log.Lmsgprefix

// rawFiles collects repeated -r/--raw values.
type rawFiles []string

func (r *rawFiles) String() string { return fmt.Sprint(*r) }

func (r *rawFiles) Set(v string) error {
	*r = append(*r, v)
	return nil
}

func main() {
	log.SetFlags(logFlags)
	log.SetPrefix("[" + program + "] ")

	var (
		extract, list, create bool
		icon, cursor          bool
		raws                  rawFiles
		output                string
		alphaThreshold        int
		workers               int
	)
	filter := newImageFilter()

	boolFlag := func(p *bool, short, long, usage string) {
		flag.BoolVar(p, long, false, usage)
		if short != "" {
			flag.BoolVar(p, short, false, "shorthand for -"+long)
		}
	}
	intFlag := func(p *int, short, long string, value int, usage string) {
		flag.IntVar(p, long, value, usage)
		if short != "" {
			flag.IntVar(p, short, value, "shorthand for -"+long)
		}
	}

	showVersion := flag.Bool("version", false, "show version and exit")
	doUpdate := flag.Bool("update", false, "check and update to latest release")
	boolFlag(&extract, "x", "extract", "extract images from icon and cursor files")
	boolFlag(&list, "l", "list", "print a list of images in icon and cursor files")
	boolFlag(&create, "c", "create", "create an icon or cursor file from PNG, BMP or WebP images")
	boolFlag(&icon, "", "icon", "match icons only, or create an icon")
	boolFlag(&cursor, "", "cursor", "match cursors only, or create a cursor")
	intFlag(&filter.Index, "i", "index", -1, "match index of image (first is 1)")
	intFlag(&filter.Width, "w", "width", -1, "match width of image")
	intFlag(&filter.Height, "h", "height", -1, "match height of image")
	intFlag(&filter.PaletteSize, "p", "palette-size", -1, "match number of colors in palette (or 0)")
	intFlag(&filter.BitCount, "b", "bit-depth", -1, "match or set number of bits per pixel (env: ICOUTILS_BIT_DEPTH)")
	intFlag(&filter.HotspotX, "X", "hotspot-x", -1, "match or set cursor hotspot x-coordinate")
	intFlag(&filter.HotspotY, "Y", "hotspot-y", -1, "match or set cursor hotspot y-coordinate")
	intFlag(&alphaThreshold, "t", "alpha-threshold", -1, "highest alpha value treated as transparent (env: ICOUTILS_ALPHA_THRESHOLD)")
	intFlag(&workers, "", "workers", 0, "number of files processed in parallel (env: ICOUTILS_WORKERS)")
	flag.Var(&raws, "raw", "store PNG file as-is when creating (repeatable)")
	flag.Var(&raws, "r", "shorthand for -raw")
	flag.StringVar(&output, "output", "", "where to place extracted files, or the created file (env: ICOUTILS_OUTPUT)")
	flag.StringVar(&output, "o", "", "shorthand for -output")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, version.Long(program))
		fmt.Fprintf(os.Stderr, "\nUsage: %s -x|-l|-c [options] FILE...\n\nOptions:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Print(version.Long(program))
		return
	}

	if *doUpdate {
		if err := selfupdate.Run(program, os.Stdout); err != nil {
			log.Fatalf("Update: %v", err)
		}
		return
	}

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if err := checkCommand(extract, list, create, icon, cursor); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", program, err)
		flag.Usage()
		os.Exit(2)
	}
	if err := checkValues(set, filter, alphaThreshold, create); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", program, err)
		os.Exit(2)
	}
	filter.IconOnly, filter.CursorOnly = icon, cursor

	cfg := config.Load()
	config.Apply(&cfg, config.Overrides{
		AlphaThreshold:    alphaThreshold,
		AlphaThresholdSet: set["t"] || set["alpha-threshold"],
		BitDepth:          filter.BitCount,
		BitDepthSet:       create && (set["b"] || set["bit-depth"]),
		Workers:           workers,
		Output:            output,
	})

	ctx, cancel := batch.WithSignals(context.Background())
	defer cancel()

	var err error
	switch {
	case create:
		err = runCreate(ctx, cfg, flag.Args(), raws, cursor, filter.HotspotX, filter.HotspotY)
	case list:
		err = runFiles(ctx, cfg, flag.Args(), func(name string, r io.Reader, warn ico.Warner, out io.Writer) error {
			return listFile(r, filter, warn, out)
		})
	default:
		namer, nerr := outputNamerFor(cfg.Output)
		if nerr != nil {
			log.Fatal(nerr)
		}
		err = runExtract(ctx, cfg, flag.Args(), filter, namer)
	}
	if err != nil {
		log.Print(err)
		os.Exit(1)
	}
}

// checkCommand validates the mode options.
func checkCommand(extract, list, create, icon, cursor bool) error {
	n := 0
	for _, b := range []bool{extract, list, create} {
		if b {
			n++
		}
	}
	switch {
	case n == 0:
		return errors.New("missing argument: one of --extract, --list or --create")
	case n > 1:
		return errors.New("only one of --extract, --list or --create may be specified")
	case icon && cursor:
		return errors.New("only one of --icon and --cursor may be specified")
	}
	return nil
}

// checkValues rejects out-of-range values of the options in set, which
// holds the names of flags given on the command line.
func checkValues(set map[string]bool, f imageFilter, alphaThreshold int, create bool) error {
	given := func(short, long string) bool { return set[short] || set[long] }
	for _, o := range []struct {
		short, long string
		value       int
	}{
		{"i", "index", f.Index},
		{"w", "width", f.Width},
		{"h", "height", f.Height},
		{"p", "palette-size", f.PaletteSize},
		{"b", "bit-depth", f.BitCount},
		{"X", "hotspot-x", f.HotspotX},
		{"Y", "hotspot-y", f.HotspotY},
	} {
		if given(o.short, o.long) && o.value < 0 {
			return fmt.Errorf("invalid --%s value %d", o.long, o.value)
		}
	}
	if given("t", "alpha-threshold") && (alphaThreshold < 0 || alphaThreshold > 255) {
		return fmt.Errorf("invalid --alpha-threshold value %d (must be 0-255)", alphaThreshold)
	}
	if create && given("b", "bit-depth") && !bitpack.Valid(f.BitCount) {
		return fmt.Errorf("invalid --bit-depth value %d (must be 1, 2, 4, 8, 16, 24 or 32)", f.BitCount)
	}
	return nil
}

func outputNamerFor(output string) (outputNamer, error) {
	if output == "" || output == "-" {
		return newOutputNamer(output, false), nil
	}
	fi, err := os.Stat(output)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return outputNamer{}, err
	}
	return newOutputNamer(output, err == nil && fi.IsDir()), nil
}

// fileFunc processes one input. Text and image data meant for stdout is
// written to out.
type fileFunc func(name string, r io.Reader, warn ico.Warner, out io.Writer) error

// runFiles applies fn to every input on the worker pool. Output for stdout
// is buffered per file and printed in input order.
func runFiles(ctx context.Context, cfg config.Config, files []string, fn fileFunc) error {
	if len(files) == 0 {
		return errors.New("missing file argument")
	}
	outs := make([]bytes.Buffer, len(files))
	errs := batch.Run(ctx, len(files), cfg.Workers, func(_ context.Context, i int) error {
		name := files[i]
		warn := log.New(os.Stderr, "["+program+"] "+name+": ", logFlags)
		r, closeFn, err := openInput(name)
		if err != nil {
			return err
		}
		defer closeFn()
		return fn(name, r, warn, &outs[i])
	})
	for i := range files {
		os.Stdout.Write(outs[i].Bytes())
		if errs[i] != nil {
			log.Printf("%s: %v", files[i], errs[i])
		}
	}
	if n := batch.Failed(errs); n > 0 {
		return fmt.Errorf("%d of %d files failed", n, len(files))
	}
	return nil
}

// runExtract extracts the images of files. Inputs are processed one at a
// time when every image goes to the same file.
func runExtract(ctx context.Context, cfg config.Config, files []string, filter ico.ImageFilter, namer outputNamer) error {
	if namer.file != "" {
		cfg.Workers = 1
	}
	return runFiles(ctx, cfg, files, func(name string, r io.Reader, warn ico.Warner, out io.Writer) error {
		return extractFile(name, r, filter, namer, warn, out)
	})
}

// openInput opens a file, or stdin for "-".
func openInput(name string) (io.Reader, func() error, error) {
	if name == "-" {
		return os.Stdin, func() error { return nil }, nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ico.ErrIO, err)
	}
	return f, f.Close, nil
}

// sourceFiles orders the inputs of --create: converted images first, then
// the PNG files stored as-is.
func sourceFiles(args, raws []string) []sourceFile {
	var files []sourceFile
	for _, p := range args {
		files = append(files, sourceFile{Path: p})
	}
	for _, p := range raws {
		files = append(files, sourceFile{Path: p, Raw: true})
	}
	return files
}

func runCreate(ctx context.Context, cfg config.Config, args []string, raws []string, cursor bool, hotspotX, hotspotY int) error {
	toStdout := cfg.Output == "" || cfg.Output == "-"
	if toStdout && term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("refusing to write binary data to a terminal, use --output")
	}

	files := sourceFiles(args, raws)
	if len(files) == 0 {
		return errors.New("missing file argument")
	}

	srcs, errs := loadSources(ctx, files, cfg.Workers)
	if len(srcs) == 0 {
		return errors.New("no images to add")
	}
	opts := ico.EncodeOptions{
		Cursor:         cursor,
		HotspotX:       max(hotspotX, 0),
		HotspotY:       max(hotspotY, 0),
		AlphaThreshold: cfg.AlphaThreshold,
		BitDepth:       cfg.BitDepth,
		Warn:           log.Default(),
	}
	if err := createIcon(srcs, opts, cfg.Output, os.Stdout); err != nil {
		return err
	}
	if n := batch.Failed(errs); n > 0 {
		return fmt.Errorf("%d of %d images skipped", n, len(files))
	}
	return nil
}
