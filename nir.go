// Package nir provides a Pure Go optimizer for SSA shader programs.
//
// Programs are built in memory with the ir package or read from their
// textual form with Parse. Optimize runs a pipeline of rewrite passes from
// the opt package over every function until none of them makes progress:
//
//	p, err := nir.Parse(source)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := nir.Optimize(p, nir.DefaultOptions()); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(nir.Print(p))
//
// The default pipeline lowers booleans to floats, propagates copies,
// removes dead code and narrows vectors to the lanes actually read.
package nir

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/gogpu/nir/ir"
	"github.com/gogpu/nir/irtext"
	"github.com/gogpu/nir/opt"
)

// ErrNoFixedPoint is returned when a function keeps changing after
// MaxIterations rounds of the pipeline.
var ErrNoFixedPoint = errors.New("nir: optimization did not reach a fixed point")

// Options configures optimization.
type Options struct {
	// Passes is the pipeline, by pass name. Empty means opt.DefaultPipeline.
	Passes []string

	// ShrinkImageStore lets shrink_vectors narrow image stores to the
	// components of the image format.
	ShrinkImageStore bool

	// MaxIterations bounds the pipeline rounds per function (default: 16)
	MaxIterations int

	// Validate enables IR validation before and after optimization
	Validate bool

	// Logger receives debug records about pass progress. Nil disables logging.
	Logger *slog.Logger

	// Dump, when set, receives the text of a function after every pass
	// that changed it.
	Dump io.Writer
}

const defaultMaxIterations = 16

// DefaultOptions returns sensible default options.
func DefaultOptions() Options {
	return Options{
		Passes:        append([]string(nil), opt.DefaultPipeline...),
		MaxIterations: defaultMaxIterations,
		Validate:      true,
	}
}

// Optimize runs the configured pipeline over every function of p until a
// fixed point and reports whether anything changed.
//
// The pipeline is:
//  1. Validate the input (if enabled)
//  2. Repeat the passes over each function until a round makes no progress
//  3. Validate the result (if enabled)
func Optimize(p *ir.Program, opts Options) (bool, error) {
	if p == nil {
		return false, errors.New("nir: nil program")
	}

	names := opts.Passes
	if len(names) == 0 {
		names = opt.DefaultPipeline
	}
	pipeline := make([]opt.Pass, 0, len(names))
	for _, name := range names {
		pass, ok := opt.Lookup(name)
		if !ok {
			return false, fmt.Errorf("nir: unknown pass %q", name)
		}
		pipeline = append(pipeline, pass)
	}

	if opts.Validate {
		if err := Validate(p); err != nil {
			return false, fmt.Errorf("input %w", err)
		}
	}

	d := driver{
		pipeline: pipeline,
		opts:     opt.Options{Shrink: opt.ShrinkOptions{ShrinkImageStore: opts.ShrinkImageStore}},
		maxIter:  opts.MaxIterations,
		log:      opts.logger(),
		dump:     opts.Dump,
	}
	if d.maxIter <= 0 {
		d.maxIter = defaultMaxIterations
	}

	progress := false
	for _, impl := range p.Impls() {
		changed, err := d.run(impl)
		if err != nil {
			return progress, err
		}
		progress = progress || changed
	}

	if opts.Validate {
		if err := Validate(p); err != nil {
			return progress, fmt.Errorf("output %w", err)
		}
	}
	return progress, nil
}

// driver iterates one pipeline over functions.
type driver struct {
	pipeline []opt.Pass
	opts     opt.Options
	maxIter  int
	log      *slog.Logger
	dump     io.Writer
}

func (d *driver) run(impl *ir.Impl) (bool, error) {
	name := impl.Function.Name
	progress := false
	for iter := 1; iter <= d.maxIter; iter++ {
		changed := false
		for _, pass := range d.pipeline {
			if !pass.Run(impl, d.opts) {
				continue
			}
			changed = true
			d.log.Debug("nir: pass made progress", "function", name, "pass", pass.Name, "iteration", iter)
			if d.dump != nil {
				if _, err := fmt.Fprintf(d.dump, "// after %s, iteration %d\n", pass.Name, iter); err != nil {
					return progress, err
				}
				if err := irtext.PrintImpl(d.dump, impl); err != nil {
					return progress, err
				}
			}
		}
		if !changed {
			d.log.Debug("nir: fixed point", "function", name, "iterations", iter)
			return progress, nil
		}
		progress = true
	}
	return progress, fmt.Errorf("%w: function %s after %d iterations", ErrNoFixedPoint, name, d.maxIter)
}

// Parse reads a program from its textual form.
//
// Syntax errors are returned as irtext.SourceErrors with line and column.
func Parse(source string) (*ir.Program, error) {
	return irtext.Parse(source)
}

// Print returns the canonical textual form of p.
func Print(p *ir.Program) string {
	return irtext.String(p)
}

// Validate checks p for structural errors. The first problem found is
// returned as a *ir.ValidationError.
func Validate(p *ir.Program) error {
	errs, err := ir.Validate(p)
	if err != nil {
		return err
	}
	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %w", &errs[0])
	}
	return nil
}
