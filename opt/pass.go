// Package opt implements rewrite passes over the nir SSA form.
//
// Each pass has a Program-level entry point that reports whether anything
// changed and an Impl-level variant for drivers that iterate one function
// at a time. Passes are independent and may run in any order; a driver
// repeats them until none makes progress.
//
// Passes keep block indices and dominance valid. Liveness is dropped
// whenever a pass changes something.
package opt

import (
	"sort"

	"github.com/gogpu/nir/ir"
)

// Options carries the settings of passes that take any.
type Options struct {
	Shrink ShrinkOptions
}

// Pass is a named rewrite over one implementation.
type Pass struct {
	Name string
	Run  func(impl *ir.Impl, opts Options) bool
}

var passes = map[string]Pass{
	"lower_bool_to_float": {
		Name: "lower_bool_to_float",
		Run:  func(impl *ir.Impl, _ Options) bool { return LowerBoolToFloatImpl(impl) },
	},
	"copy_prop": {
		Name: "copy_prop",
		Run:  func(impl *ir.Impl, _ Options) bool { return CopyPropImpl(impl) },
	},
	"dce": {
		Name: "dce",
		Run:  func(impl *ir.Impl, _ Options) bool { return DeadCodeImpl(impl) },
	},
	"shrink_vectors": {
		Name: "shrink_vectors",
		Run:  func(impl *ir.Impl, opts Options) bool { return ShrinkVectorsImpl(impl, opts.Shrink) },
	},
}

// Lookup returns the pass registered under name.
func Lookup(name string) (Pass, bool) {
	p, ok := passes[name]
	return p, ok
}

// Names returns the registered pass names in sorted order.
func Names() []string {
	names := make([]string, 0, len(passes))
	for name := range passes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultPipeline is the pass order used when none is configured.
var DefaultPipeline = []string{"lower_bool_to_float", "copy_prop", "dce", "shrink_vectors"}
