// Command wrestool lists and extracts resources of Windows PE binaries.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/babs/icoutils/internal/batch"
	"github.com/babs/icoutils/internal/config"
	"github.com/babs/icoutils/internal/resource"
	"github.com/babs/icoutils/internal/selfupdate"
	"github.com/babs/icoutils/internal/version"
)

const program = "wrestool"

const logFlags = log.Ldate | log.Ltime | log.Lmsgprefix

func main() {
	log.SetFlags(logFlags)
	log.SetPrefix("[" + program + "] ")

	var (
		list, extract, raw bool
		typ, name, lang    string
		output             string
		workers            int
	)
	boolFlag := func(p *bool, short, long, usage string) {
		flag.BoolVar(p, long, false, usage)
		flag.BoolVar(p, short, false, "shorthand for -"+long)
	}
	stringFlag := func(p *string, short, long, usage string) {
		flag.StringVar(p, long, "", usage)
		flag.StringVar(p, short, "", "shorthand for -"+long)
	}

	showVersion := flag.Bool("version", false, "show version and exit")
	doUpdate := flag.Bool("update", false, "check and update to latest release")
	boolFlag(&list, "l", "list", "list resources (default)")
	boolFlag(&extract, "x", "extract", "extract resources")
	boolFlag(&raw, "R", "raw", "extract resources without conversion")
	stringFlag(&typ, "t", "type", "resource type: number, +name or a name such as group_icon")
	stringFlag(&name, "n", "name", "resource name: number or +name")
	stringFlag(&lang, "L", "language", "resource language id")
	stringFlag(&output, "o", "output", "where to place extracted files (env: ICOUTILS_OUTPUT)")
	flag.IntVar(&workers, "workers", 0, "number of files processed in parallel (env: ICOUTILS_WORKERS)")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, version.Long(program))
		fmt.Fprintf(os.Stderr, "\nUsage: %s [-l|-x] [options] FILE...\n\nOptions:\n", os.Args[0])
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

	if list && extract {
		fmt.Fprintf(os.Stderr, "%s: only one of --list and --extract may be specified\n", program)
		os.Exit(2)
	}
	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "%s: missing file argument\n", program)
		flag.Usage()
		os.Exit(2)
	}

	q, err := buildQuery(typ, name, lang)
	if err != nil {
		log.Fatal(err)
	}

	cfg := config.Load()
	config.Apply(&cfg, config.Overrides{Workers: workers, Output: output})

	dest := destination{}
	if extract {
		dest, err = destinationFor(cfg.Output)
		if err != nil {
			log.Fatal(err)
		}
		cfg.Workers = workersFor(dest, cfg.Workers)
	}

	ctx, cancel := batch.WithSignals(context.Background())
	defer cancel()

	files := flag.Args()
	outs := make([]bytes.Buffer, len(files))
	errs := batch.Run(ctx, len(files), cfg.Workers, func(_ context.Context, i int) error {
		warn := log.New(os.Stderr, "["+program+"] "+files[i]+": ", logFlags)
		lib, err := resource.Open(files[i])
		if err != nil {
			return err
		}
		if extract {
			return extractResources(files[i], lib, q, raw, dest, warn, &outs[i])
		}
		return listResources(lib, q, &outs[i])
	})
	for i := range files {
		os.Stdout.Write(outs[i].Bytes())
		if errs[i] != nil {
			log.Printf("%s: %v", files[i], errs[i])
		}
	}
	if batch.Failed(errs) > 0 {
		os.Exit(1)
	}
}

// workersFor returns 1 when every resource goes to the same file, so that
// writes from different inputs never overlap.
func workersFor(dest destination, workers int) int {
	if dest.file != "" {
		return 1
	}
	return workers
}

func destinationFor(output string) (destination, error) {
	if output == "" || output == "-" {
		return newDestination(output, false), nil
	}
	fi, err := os.Stat(output)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return destination{}, err
	}
	return newDestination(output, err == nil && fi.IsDir()), nil
}
