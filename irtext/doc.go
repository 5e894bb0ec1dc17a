// Package irtext reads and writes the textual form of nir programs.
//
// The text is line oriented and mirrors the in-memory structure:
//
//	shader fragment
//	var image @img rgba8unorm write
//	decl @helper
//
//	func @main {
//	b0:
//	  %0 = load_const 32x4 (0x3f800000, 0x0, 0x0, 0x3f800000)
//	  %1 = flt 1x1 %0.x, %0.y
//	  %2 = fmul.sat 32x4 wrmask=xy -|%0|, %0.wzyx
//	  %3 = deref_var 32x1 @img
//	  @store_output %2, %3 base=0 wrmask=xy
//	  br %1, b1, b2
//	b1:
//	  jmp b2
//	b2:
//	  %4 = phi 32x4 b0:%0, b1:%2
//	  ret
//	}
//
// Sizes are written BITSxCOMPONENTS. ALU operands print the lanes the
// operation reads; the swizzle is left out when it is the identity over
// the whole def, and a short swizzle repeats its last lane. Intrinsic
// component counts are implied by the dest width for loads and by the
// stored value for stores.
//
// String numbers defs and blocks in program order, so parsing canonical
// text and printing it again reproduces it exactly. Parse reports problems
// as SourceErrors carrying line and column.
package irtext
