package rampart

// DefaultMaxPerType bounds each pool free list unless configured otherwise.
const DefaultMaxPerType = 100

// Factory builds a fresh handle for a pool miss.
type Factory func(a *Arena) *Handle

// PoolStats are cumulative pool counters.
type PoolStats struct {
	Hits           int // acquires served from a free list
	Misses         int // acquires that ran the factory
	Released       int // handles appended to a free list
	Discarded      int // releases dropped because the free list was full
	DoubleReleases int // releases of handles already in a free list
	Prewarmed      int // handles built by Prewarm
	EmptyBuilds    int // factory calls that returned nil
}

// Pool is a type-keyed LIFO free list of detached, reset handles. After
// warmup, Acquire/Release are allocation-free. Excess handles are freed in
// the arena rather than held, so memory stays bounded by MaxPerType.
type Pool struct {
	arena      *Arena
	animator   *Animator
	free       map[string][]HandleID
	inUse      map[string]int
	maxPerType int
	stats      PoolStats
}

// NewPool creates a pool over arena. maxPerType <= 0 selects
// DefaultMaxPerType.
func NewPool(arena *Arena, animator *Animator, maxPerType int) *Pool {
	if maxPerType <= 0 {
		maxPerType = DefaultMaxPerType
	}
	return &Pool{
		arena:      arena,
		animator:   animator,
		free:       make(map[string][]HandleID),
		inUse:      make(map[string]int),
		maxPerType: maxPerType,
	}
}

// MaxPerType returns the free-list bound.
func (p *Pool) MaxPerType() int {
	return p.maxPerType
}

// Acquire returns a previously released handle of typeKey (most recently
// released first) reset to its baseline, or builds one with factory. Never
// fails.
func (p *Pool) Acquire(typeKey string, factory Factory) *Handle {
	p.inUse[typeKey]++
	if stack := p.free[typeKey]; len(stack) > 0 {
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if h := p.arena.Get(id); h != nil {
				p.free[typeKey] = stack
				h.pooled = false
				p.reset(h)
				p.stats.Hits++
				return h
			}
		}
		p.free[typeKey] = stack
	}
	p.stats.Misses++
	return p.build(typeKey, factory)
}

// build runs factory, substituting an empty handle when it returns nothing.
func (p *Pool) build(typeKey string, factory Factory) *Handle {
	var h *Handle
	if factory != nil {
		h = factory(p.arena)
	}
	if h == nil {
		p.stats.EmptyBuilds++
		h = p.arena.New(typeKey, ShapeNone)
	}
	h.typeKey = typeKey
	return h
}

// Release detaches h, clears its animations, and either pushes it onto the
// typeKey free list or frees it when the list is at capacity. Releasing a
// handle that is already pooled is tolerated and counted.
func (p *Pool) Release(h *Handle, typeKey string) {
	if h == nil || p.arena.Get(h.id) != h {
		return
	}
	if h.pooled {
		p.stats.DoubleReleases++
		return
	}
	if n := p.inUse[typeKey]; n > 0 {
		p.inUse[typeKey] = n - 1
	}
	p.arena.RemoveFromParent(h)
	p.animator.CancelAll(h)
	h.owner = owner{}
	if len(p.free[typeKey]) >= p.maxPerType {
		p.arena.Free(h)
		p.stats.Discarded++
		return
	}
	h.pooled = true
	h.typeKey = typeKey
	p.free[typeKey] = append(p.free[typeKey], h.id)
	p.stats.Released++
}

// Prewarm tops up the typeKey free list to count (bounded by MaxPerType) so
// the first wave does not pay construction cost. Calling it again with the
// same count is a no-op.
func (p *Pool) Prewarm(typeKey string, count int, factory Factory) {
	if count > p.maxPerType {
		count = p.maxPerType
	}
	for len(p.free[typeKey]) < count {
		h := p.build(typeKey, factory)
		h.pooled = true
		p.free[typeKey] = append(p.free[typeKey], h.id)
		p.stats.Prewarmed++
	}
}

// FreeLen returns the free-list length for typeKey.
func (p *Pool) FreeLen(typeKey string) int {
	return len(p.free[typeKey])
}

// TotalFree returns the free-list length summed over all type keys.
func (p *Pool) TotalFree() int {
	n := 0
	for _, list := range p.free {
		n += len(list)
	}
	return n
}

// InUse returns how many handles of typeKey are out of the pool. The counter
// clamps at zero.
func (p *Pool) InUse(typeKey string) int {
	return p.inUse[typeKey]
}

// Stats returns the cumulative counters.
func (p *Pool) Stats() PoolStats {
	return p.stats
}

// Reset frees every pooled handle and clears the counters. Used on scene
// teardown.
func (p *Pool) Reset() {
	for typeKey, list := range p.free {
		for _, id := range list {
			if h := p.arena.Get(id); h != nil {
				h.pooled = false
				p.arena.Free(h)
			}
		}
		delete(p.free, typeKey)
	}
	clear(p.inUse)
	p.stats = PoolStats{}
}

// reset restores the pooled baseline on h and its slot parts, strips
// temporary children, and clears every animation.
func (p *Pool) reset(h *Handle) {
	p.animator.CancelAll(h)
	p.arena.StripTemporary(h)
	h.resetBaseline()
	for s, pid := range h.parts {
		part := p.arena.Get(pid)
		if part == nil {
			continue
		}
		// Alpha is left alone: parts keep the alpha their look built them
		// with, and only the detail part animates it.
		part.Rotation = 0
		part.ScaleX, part.ScaleY = 1, 1
		part.paused = false
		part.hidden = false
		switch Slot(s) {
		case SlotFill:
			part.Fraction = 1
		case SlotDetail:
			// Kept built but faded out until the LOD pass shows it again.
			part.Alpha = 0
			part.Visible = false
		case SlotGlow:
			part.Visible = false
		}
	}
}
