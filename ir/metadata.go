package ir

import (
	"math/bits"
	"slices"
	"strings"
)

// Metadata is a set of derived analyses attached to an Impl.
type Metadata uint8

const (
	MetadataBlockIndex Metadata = 1 << iota
	MetadataDominance
	MetadataLiveness

	MetadataNone Metadata = 0
	MetadataAll           = MetadataBlockIndex | MetadataDominance | MetadataLiveness
)

var metadataNames = []struct {
	m    Metadata
	name string
}{
	{MetadataBlockIndex, "block_index"},
	{MetadataDominance, "dominance"},
	{MetadataLiveness, "live_defs"},
}

func (m Metadata) String() string {
	if m == MetadataNone {
		return "none"
	}
	var parts []string
	for _, n := range metadataNames {
		if m&n.m != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// Valid returns the analyses currently valid on impl.
func (impl *Impl) Valid() Metadata {
	return impl.valid
}

// Require computes every analysis in m that is not already valid.
func (impl *Impl) Require(m Metadata) {
	missing := m &^ impl.valid
	if missing != 0 && impl.valid&MetadataBlockIndex == 0 {
		impl.indexBlocks()
	}
	if missing&MetadataDominance != 0 {
		impl.computeDominance()
	}
	if missing&MetadataLiveness != 0 {
		impl.computeLiveness()
	}
	impl.valid |= m
}

// Preserve keeps only the analyses in m; everything else becomes stale.
func (impl *Impl) Preserve(m Metadata) {
	impl.valid &= m
}

func (impl *Impl) check(m Metadata) {
	if impl.valid&m != m {
		panic("ir: " + m.String() + " metadata required but not valid")
	}
}

func (impl *Impl) indexBlocks() {
	for i, b := range impl.Blocks {
		b.Index = i
	}
	impl.valid |= MetadataBlockIndex
}

// domInfo is the per-block dominance record.
type domInfo struct {
	idom      *Block
	children  []*Block
	pre, post int
	reachable bool
}

// reversePostorder returns the blocks reachable from the entry.
func (impl *Impl) reversePostorder() []*Block {
	seen := make([]bool, len(impl.Blocks))
	var post []*Block

	type frame struct {
		b    *Block
		next int
	}
	stack := []frame{{b: impl.Entry()}}
	seen[impl.Entry().Index] = true
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(top.b.Succs) {
			s := top.b.Succs[top.next]
			top.next++
			if !seen[s.Index] {
				seen[s.Index] = true
				stack = append(stack, frame{b: s})
			}
			continue
		}
		post = append(post, top.b)
		stack = stack[:len(stack)-1]
	}
	slices.Reverse(post)
	return post
}

// computeDominance runs the Cooper, Harvey and Kennedy iterative algorithm
// and numbers the resulting tree for constant-time queries.
func (impl *Impl) computeDominance() {
	for _, b := range impl.Blocks {
		b.dom = domInfo{}
	}
	rpo := impl.reversePostorder()
	order := make([]int, len(impl.Blocks))
	for i, b := range rpo {
		order[b.Index] = i
		b.dom.reachable = true
	}

	entry := impl.Entry()
	entry.dom.idom = entry
	intersect := func(a, b *Block) *Block {
		for a != b {
			for order[a.Index] > order[b.Index] {
				a = a.dom.idom
			}
			for order[b.Index] > order[a.Index] {
				b = b.dom.idom
			}
		}
		return a
	}

	for changed := true; changed; {
		changed = false
		for _, b := range rpo[1:] {
			var idom *Block
			for _, p := range b.Preds {
				if p.dom.idom == nil {
					continue
				}
				if idom == nil {
					idom = p
				} else {
					idom = intersect(p, idom)
				}
			}
			if b.dom.idom != idom {
				b.dom.idom = idom
				changed = true
			}
		}
	}
	entry.dom.idom = nil

	for _, b := range rpo[1:] {
		p := b.dom.idom
		p.dom.children = append(p.dom.children, b)
	}

	n := 0
	var number func(b *Block)
	number = func(b *Block) {
		b.dom.pre = n
		n++
		for _, c := range b.dom.children {
			number(c)
		}
		b.dom.post = n
		n++
	}
	number(entry)
}

// Idom returns the immediate dominator of b, or nil for the entry and for
// unreachable blocks. Requires MetadataDominance.
func (b *Block) Idom() *Block {
	b.impl.check(MetadataDominance)
	return b.dom.idom
}

// DomChildren returns the blocks b immediately dominates.
func (b *Block) DomChildren() []*Block {
	b.impl.check(MetadataDominance)
	return b.dom.children
}

// Reachable reports whether b can be reached from the entry.
func (b *Block) Reachable() bool {
	b.impl.check(MetadataDominance)
	return b.dom.reachable
}

// Dominates reports whether every path from the entry to other passes
// through b. A block dominates itself and unreachable blocks are dominated
// by every block. Requires MetadataDominance.
func (b *Block) Dominates(other *Block) bool {
	b.impl.check(MetadataDominance)
	if !other.dom.reachable {
		return true
	}
	if !b.dom.reachable {
		return false
	}
	return b.dom.pre <= other.dom.pre && other.dom.post <= b.dom.post
}

// DefDominates reports whether the def of h is available at use u.
// A phi source is checked at the end of its predecessor block and a
// branch condition at the end of its block.
func (impl *Impl) DefDominates(h InstrHandle, u Use) bool {
	impl.check(MetadataDominance)
	def := impl.instrs[h].block
	var at *Block
	pos := -1
	switch {
	case u.IsCondition():
		at = u.Block
	default:
		user := &impl.instrs[u.User]
		at = user.block
		if phi, ok := user.Kind.(*Phi); ok {
			at = phi.Src[u.Slot].Pred
		} else {
			pos = slices.Index(at.instrs, u.User)
		}
	}
	if def != at {
		return def.Dominates(at)
	}
	if pos < 0 {
		return true
	}
	return slices.Index(at.instrs, h) < pos
}

// defSet is a bitset over instruction handles.
type defSet []uint64

func newDefSet(n int) defSet {
	return make(defSet, (n+63)/64)
}

func (s defSet) add(h InstrHandle) { s[h/64] |= 1 << (h % 64) }
func (s defSet) has(h InstrHandle) bool { return int(h/64) < len(s) && s[h/64]>>(h%64)&1 != 0 }

// union adds o to s and reports whether s grew.
func (s defSet) union(o defSet) bool {
	grew := false
	for i := range s {
		v := s[i] | o[i]
		if v != s[i] {
			s[i] = v
			grew = true
		}
	}
	return grew
}

func (s defSet) handles() []InstrHandle {
	var out []InstrHandle
	for i, w := range s {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			out = append(out, InstrHandle(i*64+b))
			w &^= 1 << b
		}
	}
	return out
}

// liveness holds per-block live-in and live-out def sets, indexed by
// block index.
type liveness struct {
	in, out []defSet
}

// computeLiveness solves the backward dataflow problem
//
//	out(b) = U over successors s: (in(s) + phi sources of s flowing from b)
//	in(b)  = uses(b) + (out(b) - defs(b))
//
// Phi destinations are defined at the top of their block and phi sources
// are used at the end of the predecessor.
func (impl *Impl) computeLiveness() {
	n := len(impl.instrs)
	nb := len(impl.Blocks)
	uses := make([]defSet, nb)
	defs := make([]defSet, nb)
	live := liveness{in: make([]defSet, nb), out: make([]defSet, nb)}

	for i, b := range impl.Blocks {
		uses[i], defs[i] = newDefSet(n), newDefSet(n)
		live.in[i], live.out[i] = newDefSet(n), newDefSet(n)
		for _, h := range b.instrs {
			kind := impl.instrs[h].Kind
			if _, ok := kind.(*Phi); !ok {
				for _, src := range kind.Srcs() {
					if !defs[i].has(src.Def) {
						uses[i].add(src.Def)
					}
				}
			}
			if kind.DestDef() != nil {
				defs[i].add(h)
			}
		}
		if b.Cond != nil && !defs[i].has(b.Cond.Def) {
			uses[i].add(b.Cond.Def)
		}
	}

	scratch := newDefSet(n)
	for changed := true; changed; {
		changed = false
		for i := nb - 1; i >= 0; i-- {
			b := impl.Blocks[i]
			out := live.out[i]
			for _, s := range b.Succs {
				changed = out.union(live.in[s.Index]) || changed
				for _, h := range s.instrs {
					phi, ok := impl.instrs[h].Kind.(*Phi)
					if !ok {
						break
					}
					for _, ps := range phi.Src {
						if ps.Pred == b && !out.has(ps.Def) {
							out.add(ps.Def)
							changed = true
						}
					}
				}
			}
			copy(scratch, out)
			for w := range scratch {
				scratch[w] &^= defs[i][w]
				scratch[w] |= uses[i][w]
			}
			changed = live.in[i].union(scratch) || changed
		}
	}
	impl.live = live
}

// LiveIn returns the defs live on entry to b. Requires MetadataLiveness.
func (impl *Impl) LiveIn(b *Block) []InstrHandle {
	impl.check(MetadataLiveness)
	return impl.live.in[b.Index].handles()
}

// LiveOut returns the defs live on exit from b. Requires MetadataLiveness.
func (impl *Impl) LiveOut(b *Block) []InstrHandle {
	impl.check(MetadataLiveness)
	return impl.live.out[b.Index].handles()
}

// IsLiveOut reports whether the def of h is live on exit from b.
func (impl *Impl) IsLiveOut(b *Block, h InstrHandle) bool {
	impl.check(MetadataLiveness)
	return impl.live.out[b.Index].has(h)
}
