// Package ir defines the SSA intermediate representation for nir.
//
// The IR is designed to be:
//   - Arena-based: instructions live in a per-function slice and are
//     addressed by stable handles
//   - Closed: instruction kinds, ALU opcodes and intrinsics come from
//     fixed registries
//   - Mutation-friendly: block iteration walks a snapshot, so passes may
//     insert and remove instructions while visiting them
//
// # Structure
//
// A Program contains:
//   - Stage: the pipeline stage the shader runs in
//   - Variables: program-scope variables (inputs, outputs, buffers, images)
//   - Functions: declarations, optionally with an Impl
//
// An Impl is a control-flow graph of Blocks. A Block ends in a return,
// a jump, or a two-way branch on an SSA condition.
//
// # Values
//
// Every instruction produces at most one SSA def, identified by the
// instruction's handle. A def has 1 to 4 components of 1, 8, 16, 32 or
// 64 bits; 1-bit defs are booleans. ALU sources carry a swizzle and abs
// and negate modifiers; ALU destinations carry a write mask and a
// saturate flag.
//
// # Analyses
//
// Block indices, dominance and liveness are computed on demand with
// Impl.Require and dropped with Impl.Preserve. Use lists are built lazily
// and kept current by the mutation helpers (Insert, Remove, SetSrc,
// RewriteUses).
//
// # References
//
// The instruction set follows Mesa's NIR:
//   - NIR: https://docs.mesa3d.org/nir/index.html
package ir
