package rampart

import "go.uber.org/zap"

// debugMaxTreeDepth is the depth above which debug mode warns.
const debugMaxTreeDepth = 32

// debugMaxChildCount is the child count above which debug mode warns.
const debugMaxChildCount = 1000

func (a *Arena) checkTreeDepth(h *Handle) {
	depth := 0
	for p := h; p != nil; p = a.Get(p.parent) {
		depth++
	}
	if depth > debugMaxTreeDepth {
		a.log.Warn("tree depth exceeds threshold",
			zap.Int("depth", depth),
			zap.Int("threshold", debugMaxTreeDepth),
			zap.String("handle", h.Name))
	}
}

func (a *Arena) checkChildCount(h *Handle) {
	if len(h.children) > debugMaxChildCount {
		a.log.Warn("child count exceeds threshold",
			zap.String("handle", h.Name),
			zap.Int("children", len(h.children)),
			zap.Int("threshold", debugMaxChildCount))
	}
}

// checkInvariants verifies the displayed-set and pool invariants. It only
// logs; nothing in the presentation layer is fatal. Returns the number of
// violations found.
func (s *Scene) checkInvariants() int {
	violations := 0
	seen := make(map[HandleID]Category)
	for _, r := range s.reconcilers {
		for key, e := range r.displayed {
			h := s.arena.Get(e.id)
			if h == nil {
				violations++
				s.log.Warn("displayed entry references freed handle",
					zap.Stringer("category", r.category), zap.String("key", key))
				continue
			}
			if !s.arena.Attached(h) && !e.retiring {
				violations++
				s.log.Warn("displayed handle detached outside retirement",
					zap.Stringer("category", r.category), zap.String("key", key))
			}
			if h.pooled {
				violations++
				s.log.Warn("displayed handle is also pooled",
					zap.Stringer("category", r.category), zap.String("key", key))
			}
			if other, dup := seen[h.id]; dup {
				violations++
				s.log.Warn("handle shared between displayed sets",
					zap.Stringer("category", r.category), zap.Stringer("other", other),
					zap.String("key", key))
			}
			seen[h.id] = r.category
		}
	}
	for typeKey, list := range s.pool.free {
		if len(list) > s.pool.maxPerType {
			violations++
			s.log.Warn("pool free list over capacity",
				zap.String("type", typeKey), zap.Int("len", len(list)))
		}
		for _, id := range list {
			if _, displayed := seen[id]; displayed {
				violations++
				s.log.Warn("pooled handle still displayed", zap.String("type", typeKey))
			}
		}
	}
	return violations
}
