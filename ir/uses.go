package ir

// Use is one reference to a def: either source slot Slot of instruction
// User, or the branch condition of Block (User == NoInstr).
type Use struct {
	User  InstrHandle
	Slot  int
	Block *Block
}

// IsCondition reports whether the use is a branch condition.
func (u Use) IsCondition() bool {
	return u.User == NoInstr
}

// Uses returns the uses of the def produced by h.
// The returned slice must not be modified.
func (impl *Impl) Uses(h InstrHandle) []Use {
	impl.ensureUses()
	return impl.uses[h]
}

// HasUses reports whether anything reads the def produced by h.
func (impl *Impl) HasUses(h InstrHandle) bool {
	return len(impl.Uses(h)) > 0
}

// InvalidateUses discards the use index. Call it after editing sources
// directly instead of through SetSrc.
func (impl *Impl) InvalidateUses() {
	impl.uses = nil
}

func (impl *Impl) ensureUses() {
	if impl.uses != nil {
		impl.growUses()
		return
	}
	impl.uses = make([][]Use, len(impl.instrs))
	for _, b := range impl.Blocks {
		for _, h := range b.instrs {
			for slot, src := range impl.instrs[h].Kind.Srcs() {
				impl.addUse(src.Def, Use{User: h, Slot: slot})
			}
		}
		if b.Cond != nil {
			impl.addUse(b.Cond.Def, Use{User: NoInstr, Block: b})
		}
	}
}

func (impl *Impl) growUses() {
	for len(impl.uses) < len(impl.instrs) {
		impl.uses = append(impl.uses, nil)
	}
}

func (impl *Impl) addUse(def InstrHandle, u Use) {
	if int(def) >= len(impl.uses) {
		impl.growUses()
		if int(def) >= len(impl.uses) {
			// Forward reference to a handle not allocated yet.
			impl.uses = append(impl.uses, make([][]Use, int(def)+1-len(impl.uses))...)
		}
	}
	impl.uses[def] = append(impl.uses[def], u)
}

func (impl *Impl) dropUse(def InstrHandle, u Use) {
	if int(def) >= len(impl.uses) {
		return
	}
	list := impl.uses[def]
	for i, v := range list {
		if v == u {
			impl.uses[def] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// SrcAt returns the source a use refers to.
func (impl *Impl) SrcAt(u Use) *Src {
	if u.IsCondition() {
		return u.Block.Cond
	}
	return impl.instrs[u.User].Kind.Srcs()[u.Slot]
}

// SetSrc points source slot of instruction user at def, keeping the use
// index current.
func (impl *Impl) SetSrc(user InstrHandle, slot int, def InstrHandle) {
	src := impl.instrs[user].Kind.Srcs()[slot]
	if src.Def == def {
		return
	}
	if impl.uses != nil {
		impl.dropUse(src.Def, Use{User: user, Slot: slot})
		impl.addUse(def, Use{User: user, Slot: slot})
	}
	src.Def = def
}

// SetCondition points the branch condition of b at def.
func (impl *Impl) SetCondition(b *Block, def InstrHandle) {
	if b.Cond == nil {
		panic("ir: SetCondition on a block without a branch")
	}
	if b.Cond.Def == def {
		return
	}
	if impl.uses != nil {
		impl.dropUse(b.Cond.Def, Use{User: NoInstr, Block: b})
		impl.addUse(def, Use{User: NoInstr, Block: b})
	}
	b.Cond.Def = def
}

// Rewrite points the source named by u at def.
func (impl *Impl) Rewrite(u Use, def InstrHandle) {
	if u.IsCondition() {
		impl.SetCondition(u.Block, def)
		return
	}
	impl.SetSrc(u.User, u.Slot, def)
}

// RewriteUses redirects every use of old to new.
func (impl *Impl) RewriteUses(old, new InstrHandle) {
	if old == new {
		return
	}
	uses := append([]Use(nil), impl.Uses(old)...)
	for _, u := range uses {
		impl.Rewrite(u, new)
	}
}

// ComponentsRead returns the union of lanes of h's def read by any use.
// ALU uses read the lanes their swizzle selects on used channels; every
// other instruction reads the whole value and a branch condition reads
// lane 0.
func (impl *Impl) ComponentsRead(h InstrHandle) WriteMask {
	def := impl.Def(h)
	var mask WriteMask
	for _, u := range impl.Uses(h) {
		if u.IsCondition() {
			mask |= 1
			continue
		}
		alu, ok := impl.instrs[u.User].Kind.(*ALU)
		if !ok {
			return def.Mask()
		}
		mask |= alu.SrcReadMask(u.Slot)
	}
	return mask
}
