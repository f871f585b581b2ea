package rampart

import "testing"

func TestArenaNewDefaults(t *testing.T) {
	a := NewArena()
	h := a.New("body", ShapeCircle)
	if h.ID() == 0 {
		t.Fatal("ID should be non-zero")
	}
	if h.ScaleX != 1 || h.ScaleY != 1 {
		t.Errorf("Scale = (%v, %v), want (1, 1)", h.ScaleX, h.ScaleY)
	}
	if h.Alpha != 1 {
		t.Errorf("Alpha = %v, want 1", h.Alpha)
	}
	if h.Color != ColorWhite {
		t.Errorf("Color = %v, want white", h.Color)
	}
	if !h.Visible {
		t.Error("Visible should be true")
	}
	if h.Fraction != 1 {
		t.Errorf("Fraction = %v, want 1", h.Fraction)
	}
	if a.Live() != 1 {
		t.Errorf("Live = %d, want 1", a.Live())
	}
}

func TestArenaStaleIDResolvesNil(t *testing.T) {
	a := NewArena()
	h := a.New("a", ShapeNone)
	old := h.ID()
	a.Free(h)
	if a.Get(old) != nil {
		t.Fatal("freed ID should resolve to nil")
	}

	h2 := a.New("b", ShapeNone)
	if h2.ID().index() != old.index() {
		t.Fatalf("slot not recycled: index %d, want %d", h2.ID().index(), old.index())
	}
	if h2.ID() == old {
		t.Fatal("recycled slot should carry a new generation")
	}
	if a.Get(old) != nil {
		t.Error("stale ID resolved to the recycled handle")
	}
	if a.Get(0) != nil {
		t.Error("zero ID should resolve to nil")
	}
}

func TestArenaAddChildReparents(t *testing.T) {
	a := NewArena()
	p1 := a.New("p1", ShapeNone)
	p2 := a.New("p2", ShapeNone)
	c := a.New("c", ShapeCircle)

	a.AddChild(p1, c)
	a.AddChild(p2, c)
	if p1.NumChildren() != 0 {
		t.Errorf("p1 children = %d, want 0", p1.NumChildren())
	}
	if p2.NumChildren() != 1 || a.Parent(c) != p2 {
		t.Error("c should be a child of p2")
	}
}

func TestArenaAddChildCyclePanics(t *testing.T) {
	a := NewArena()
	p := a.New("p", ShapeNone)
	c := a.New("c", ShapeNone)
	a.AddChild(p, c)

	defer func() {
		if recover() == nil {
			t.Error("expected panic for cycle")
		}
	}()
	a.AddChild(c, p)
}

func TestArenaFreeSubtree(t *testing.T) {
	a := NewArena()
	root := a.New("root", ShapeNone)
	mid := a.New("mid", ShapeNone)
	leaf := a.New("leaf", ShapeCircle)
	a.AddChild(root, mid)
	a.AddChild(mid, leaf)
	leafID := leaf.ID()

	a.Free(mid)
	if a.Live() != 1 {
		t.Errorf("Live = %d, want 1", a.Live())
	}
	if root.NumChildren() != 0 {
		t.Errorf("root children = %d, want 0", root.NumChildren())
	}
	if a.Get(leafID) != nil {
		t.Error("leaf should be freed with its parent")
	}
	a.Free(mid) // double free is a no-op
	if a.Live() != 1 {
		t.Errorf("Live after double free = %d, want 1", a.Live())
	}
}

func TestArenaStripTemporaryKeepsParts(t *testing.T) {
	a := NewArena()
	h := a.New("h", ShapeNone)
	body := a.New("body", ShapeCircle)
	a.SetPart(h, SlotBody, body)
	tmp := a.New("spark", ShapeCircle)
	a.AddChild(h, tmp)
	tmpID := tmp.ID()

	a.StripTemporary(h)
	if a.Part(h, SlotBody) != body {
		t.Error("body part should survive")
	}
	if a.Get(tmpID) != nil {
		t.Error("temporary child should be freed")
	}
	if h.NumChildren() != 1 {
		t.Errorf("children = %d, want 1", h.NumChildren())
	}
}

func TestArenaEnsurePartBuildsOnce(t *testing.T) {
	a := NewArena()
	h := a.New("h", ShapeNone)
	builds := 0
	build := func(a *Arena) *Handle {
		builds++
		return a.New("detail", ShapeHexagon)
	}

	p1, created := a.EnsurePart(h, SlotDetail, build)
	if !created || p1 == nil {
		t.Fatal("first EnsurePart should build")
	}
	p2, created := a.EnsurePart(h, SlotDetail, build)
	if created || p2 != p1 {
		t.Error("second EnsurePart should return the existing part")
	}
	if builds != 1 {
		t.Errorf("builds = %d, want 1", builds)
	}
}

func TestArenaRemovePartClearsSlot(t *testing.T) {
	a := NewArena()
	h := a.New("h", ShapeNone)
	glow := a.New("glow", ShapeCircle)
	a.SetPart(h, SlotGlow, glow)

	a.RemoveFromParent(glow)
	if a.Part(h, SlotGlow) != nil {
		t.Error("detached part should leave its slot")
	}
	if a.Attached(glow) {
		t.Error("glow should be detached")
	}
}

func TestArenaWalkSkipsChildren(t *testing.T) {
	a := NewArena()
	root := a.New("root", ShapeNone)
	skip := a.New("skip", ShapeNone)
	a.AddChild(root, skip)
	a.AddChild(skip, a.New("hidden", ShapeCircle))
	a.AddChild(root, a.New("leaf", ShapeCircle))

	var names []string
	a.Walk(root, func(h *Handle, _ int) bool {
		names = append(names, h.Name)
		return h.Name != "skip"
	})
	want := []string{"root", "skip", "leaf"}
	if len(names) != len(want) {
		t.Fatalf("visited %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("visited[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}
