// Command nirc is the nir optimizer CLI.
//
// Usage:
//
//	nirc [options] <input>
//
// Examples:
//
//	nirc shader.nir                              # Optimize with the default pipeline
//	nirc -o out.nir shader.nir                   # Write the result to a file
//	nirc -passes copy_prop,dce shader.nir        # Run selected passes
//	nirc -debug shader.nir                       # Log pass progress to stderr
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/gogpu/nir"
	"github.com/gogpu/nir/irtext"
	"github.com/gogpu/nir/opt"
)

var (
	output     = flag.String("o", "", "output file (default: stdout)")
	passes     = flag.String("passes", strings.Join(opt.DefaultPipeline, ","), "comma-separated pass pipeline")
	shrinkImg  = flag.Bool("shrink-image-store", false, "narrow image stores to the image format")
	validate   = flag.Bool("validate", true, "validate IR before and after optimization")
	debug      = flag.Bool("debug", false, "log pass progress and dump changed functions to stderr")
	version    = flag.Bool("version", false, "print version")
	listPasses = flag.Bool("list", false, "list available passes")
)

const nirVersion = "0.1.0-dev"

func main() {
	flag.Usage = usage
	flag.Parse()

	if *version {
		fmt.Printf("nirc version %s\n", nirVersion)
		return
	}
	if *listPasses {
		for _, name := range opt.Names() {
			fmt.Println(name)
		}
		return
	}

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Error: no input file specified")
		usage()
		os.Exit(1)
	}

	inputPath := args[0]

	// Read input file
	source, err := os.ReadFile(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}

	p, err := nir.Parse(string(source))
	if err != nil {
		var errs irtext.SourceErrors
		if errors.As(err, &errs) {
			fmt.Fprint(os.Stderr, errs.FormatAll())
		} else {
			fmt.Fprintf(os.Stderr, "Parse error: %v\n", err)
		}
		os.Exit(1)
	}

	opts := nir.DefaultOptions()
	opts.Passes = splitPasses(*passes)
	opts.ShrinkImageStore = *shrinkImg
	opts.Validate = *validate
	if *debug {
		opts.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		opts.Dump = os.Stderr
	}

	if _, err := nir.Optimize(p, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Optimization error: %v\n", err)
		os.Exit(1)
	}
	text := nir.Print(p)

	// Write output
	if *output != "" {
		err = os.WriteFile(*output, []byte(text), 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Successfully optimized %s to %s\n", inputPath, *output)
	} else {
		_, err = os.Stdout.WriteString(text)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			os.Exit(1)
		}
	}
}

// splitPasses turns "a, b,,c" into [a b c].
func splitPasses(list string) []string {
	var names []string
	for _, name := range strings.Split(list, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: nirc [options] <input.nir>\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  nirc shader.nir                       Optimize to stdout\n")
	fmt.Fprintf(os.Stderr, "  nirc -o out.nir shader.nir            Optimize to file\n")
	fmt.Fprintf(os.Stderr, "  nirc -passes copy_prop,dce shader.nir Run selected passes\n")
}
