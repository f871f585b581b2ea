package rampart

import "go.uber.org/zap"

// Arena owns every Handle of a scene. Parent/child relationships are stored
// as HandleID references rather than pointers, and freed slots are recycled
// with a bumped generation so stale references resolve to nil.
//
// Arena is not safe for concurrent use; the whole core runs on the render
// thread.
type Arena struct {
	handles []*Handle
	gens    []uint32
	free    []int
	live    int

	// debug enables the tree depth and child count checks.
	debug bool
	log   *zap.Logger
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{
		handles: make([]*Handle, 0, 256),
		gens:    make([]uint32, 0, 256),
		log:     zap.NewNop(),
	}
}

// New allocates a detached handle.
func (a *Arena) New(name string, shape ShapeKind) *Handle {
	var idx int
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		idx = len(a.handles)
		a.handles = append(a.handles, nil)
		a.gens = append(a.gens, 0)
	}
	h := &Handle{Name: name, Shape: shape}
	handleDefaults(h)
	h.id = makeHandleID(idx, a.gens[idx])
	a.handles[idx] = h
	a.live++
	return h
}

// Get resolves a reference. Returns nil for zero, freed, or stale IDs.
func (a *Arena) Get(id HandleID) *Handle {
	if id == 0 {
		return nil
	}
	idx := id.index()
	if idx < 0 || idx >= len(a.handles) || a.gens[idx] != id.gen() {
		return nil
	}
	return a.handles[idx]
}

// Live returns the number of allocated handles (attached, pooled, or
// detached).
func (a *Arena) Live() int {
	return a.live
}

// Parent returns h's parent, or nil when detached.
func (a *Arena) Parent(h *Handle) *Handle {
	return a.Get(h.parent)
}

// AddChild appends child to parent's children. If child already has a parent,
// it is removed from that parent first.
// Panics if either handle is nil or if the link would create a cycle.
func (a *Arena) AddChild(parent, child *Handle) {
	if parent == nil || child == nil {
		panic("rampart: cannot link nil handle")
	}
	if a.isAncestor(child, parent) {
		panic("rampart: adding child would create a cycle")
	}
	if child.parent != 0 {
		if p := a.Get(child.parent); p != nil {
			p.removeChildID(child.id)
		}
	}
	child.parent = parent.id
	parent.children = append(parent.children, child.id)
	if a.debug {
		a.checkTreeDepth(child)
		a.checkChildCount(parent)
	}
}

// RemoveFromParent detaches h from its parent. No-op if h has no parent.
// A slot part detached this way also leaves its slot.
func (a *Arena) RemoveFromParent(h *Handle) {
	if h.parent == 0 {
		return
	}
	if p := a.Get(h.parent); p != nil {
		p.removeChildID(h.id)
		for s := range p.parts {
			if p.parts[s] == h.id {
				p.parts[s] = 0
			}
		}
	}
	h.parent = 0
}

// Attached reports whether h currently has a parent.
func (a *Arena) Attached(h *Handle) bool {
	return h.parent != 0 && a.Get(h.parent) != nil
}

// Part returns the handle stored in h's slot, or nil.
func (a *Arena) Part(h *Handle, s Slot) *Handle {
	return a.Get(h.parts[s])
}

// SetPart attaches part as a child of h and records it in slot s. A handle
// already in the slot is freed.
func (a *Arena) SetPart(h *Handle, s Slot, part *Handle) {
	if old := a.Get(h.parts[s]); old != nil && old != part {
		a.Free(old)
	}
	a.AddChild(h, part)
	h.parts[s] = part.id
}

// EnsurePart returns the part in slot s, building it with build when the
// slot is empty. Handles created by an older code path simply lack the part;
// this is the lazy path that fills it in.
func (a *Arena) EnsurePart(h *Handle, s Slot, build func(*Arena) *Handle) (part *Handle, created bool) {
	if p := a.Get(h.parts[s]); p != nil {
		return p, false
	}
	p := build(a)
	if p == nil {
		return nil, false
	}
	a.SetPart(h, s, p)
	return p, true
}

// StripTemporary frees every child of h that is not held in a slot.
func (a *Arena) StripTemporary(h *Handle) {
	if len(h.children) == 0 {
		return
	}
	var strip []HandleID
	for _, cid := range h.children {
		if !h.isPart(cid) {
			strip = append(strip, cid)
		}
	}
	for _, cid := range strip {
		if c := a.Get(cid); c != nil {
			a.Free(c)
		} else {
			h.removeChildID(cid)
		}
	}
}

// Free detaches h, recursively frees its subtree, and recycles the slots.
// Freeing an already freed handle is a no-op.
func (a *Arena) Free(h *Handle) {
	if h == nil || a.Get(h.id) != h {
		return
	}
	a.RemoveFromParent(h)
	a.free1(h)
}

func (a *Arena) free1(h *Handle) {
	for _, cid := range h.children {
		if c := a.Get(cid); c != nil {
			c.parent = 0
			a.free1(c)
		}
	}
	idx := h.id.index()
	a.handles[idx] = nil
	a.gens[idx] = (a.gens[idx] + 1) & genMask
	a.free = append(a.free, idx)
	a.live--

	h.children = nil
	h.parts = [numSlots]HandleID{}
	h.anims = [numAnimKeys]*animState{}
	h.animCount = 0
	h.parent = 0
	h.owner = owner{}
	h.id = 0
}

// Walk visits h and its descendants depth-first. Returning false from fn
// skips the visited node's children.
func (a *Arena) Walk(h *Handle, fn func(h *Handle, depth int) bool) {
	a.walk(h, 0, fn)
}

func (a *Arena) walk(h *Handle, depth int, fn func(*Handle, int) bool) {
	if !fn(h, depth) {
		return
	}
	for _, cid := range h.children {
		if c := a.Get(cid); c != nil {
			a.walk(c, depth+1, fn)
		}
	}
}

// Reset frees every handle. Used on scene teardown.
func (a *Arena) Reset() {
	for i := range a.handles {
		a.handles[i] = nil
		a.gens[i] = (a.gens[i] + 1) & genMask
	}
	a.free = a.free[:0]
	for i := len(a.handles) - 1; i >= 0; i-- {
		a.free = append(a.free, i)
	}
	a.live = 0
}

// isAncestor reports whether candidate is node or one of its ancestors.
func (a *Arena) isAncestor(candidate, node *Handle) bool {
	for p := node; p != nil; p = a.Get(p.parent) {
		if p == candidate {
			return true
		}
	}
	return false
}

// removeChildID removes id from h.children without touching the child.
func (h *Handle) removeChildID(id HandleID) {
	for i, c := range h.children {
		if c == id {
			copy(h.children[i:], h.children[i+1:])
			h.children[len(h.children)-1] = 0
			h.children = h.children[:len(h.children)-1]
			return
		}
	}
}

func (h *Handle) isPart(id HandleID) bool {
	for _, p := range h.parts {
		if p == id {
			return true
		}
	}
	return false
}
