package rampart

import (
	"go.uber.org/zap"
)

// Scene is the top-level object that owns the arena, the per-category
// reconcilers, the pool, the LOD and sector passes, the effect scheduler,
// and the camera. Everything runs on the caller's frame thread.
type Scene struct {
	arena    *Arena
	animator *Animator
	pool     *Pool
	geometry *GeometryCache
	camera   *Camera

	root        HandleID
	layers      [NumCategories]HandleID
	ambient     HandleID
	effectLayer HandleID

	looks       [NumCategories]Look
	reconcilers [NumCategories]*Reconciler
	lod         *LODController
	sectors     *SectorVisibility
	effects     *Scheduler
	diag        *Diagnostics

	boss    bossState
	cfg     Config
	log     *zap.Logger
	debug   bool
	time    float64
	tracked []*Handle

	// drawn is the drawn-node count at the last refreshLoad; fragsAt is the
	// scheduler fragment total at that point.
	drawn   int
	fragsAt int
}

// Option customizes a Scene.
type Option func(*Scene)

// WithLogger sets the logger the scene and its arena write to.
func WithLogger(log *zap.Logger) Option {
	return func(s *Scene) {
		if log != nil {
			s.log = log
		}
	}
}

// WithLook replaces the look of one category.
func WithLook(c Category, look Look) Option {
	return func(s *Scene) {
		if c < NumCategories && look != nil {
			s.looks[c] = look
		}
	}
}

// WithPolicies replaces the per-category lifecycle policies.
func WithPolicies(p [NumCategories]CategoryPolicy) Option {
	return func(s *Scene) {
		s.cfg.policies = &p
	}
}

// WithPresets replaces the effect preset table.
func WithPresets(p EffectPresets) Option {
	return func(s *Scene) {
		s.cfg.presets = &p
	}
}

// NewScene creates a scene from cfg. The camera viewport comes from
// cfg.Viewport.
func NewScene(cfg Config, opts ...Option) *Scene {
	s := &Scene{
		cfg:   cfg,
		looks: DefaultLooks(),
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.arena = NewArena()
	s.arena.log = s.log
	s.animator = NewAnimator(s.arena)
	s.pool = NewPool(s.arena, s.animator, cfg.Pool.MaxPerType)
	s.geometry = NewGeometryCache()
	s.camera = NewCamera(cfg.Viewport.rect())
	s.camera.MinZoom = cfg.Camera.MinZoom
	s.camera.MaxZoom = cfg.Camera.MaxZoom
	s.lod = NewLODController(s.arena, s.animator, cfg.LOD, s.buildDetail)
	s.sectors = NewSectorVisibility(s.arena, cfg.Sectors)
	s.diag = newDiagnostics(cfg.Diagnostics.Interval)
	s.debug = cfg.Diagnostics.Debug
	s.arena.debug = s.debug
	s.build()
	return s
}

// build creates the layer handles, the scheduler, and the reconcilers.
func (s *Scene) build() {
	root := s.arena.New("root", ShapeNone)
	s.root = root.id
	for _, c := range Categories {
		layer := s.arena.New("layer:"+c.String(), ShapeNone)
		s.arena.AddChild(root, layer)
		s.layers[c] = layer.id
	}
	ambient := s.arena.New("layer:ambient", ShapeNone)
	s.arena.AddChild(root, ambient)
	s.ambient = ambient.id
	effects := s.arena.New("layer:effects", ShapeNone)
	s.arena.AddChild(root, effects)
	s.effectLayer = effects.id

	s.effects = NewScheduler(s.arena, effects, s.cfg.Effects.Policy(), s.effectLoad)
	if s.cfg.presets != nil {
		s.effects.SetPresets(*s.cfg.presets)
	}

	policies := DefaultPolicies()
	if s.cfg.policies != nil {
		policies = *s.cfg.policies
	}
	for _, c := range Categories {
		s.reconcilers[c] = newReconciler(s, c, s.looks[c], policies[c], s.arena.Get(s.layers[c]))
	}
	s.refreshLoad()
}

// Root returns the scene root handle.
func (s *Scene) Root() *Handle {
	return s.arena.Get(s.root)
}

// Layer returns the container handle of a category.
func (s *Scene) Layer(c Category) *Handle {
	if c >= NumCategories {
		return nil
	}
	return s.arena.Get(s.layers[c])
}

// EffectLayer returns the container transient effects attach to.
func (s *Scene) EffectLayer() *Handle {
	return s.arena.Get(s.effectLayer)
}

// Arena returns the handle arena.
func (s *Scene) Arena() *Arena { return s.arena }

// Animator returns the scene animator.
func (s *Scene) Animator() *Animator { return s.animator }

// Pool returns the handle pool.
func (s *Scene) Pool() *Pool { return s.pool }

// Geometry returns the outline cache used by renderers.
func (s *Scene) Geometry() *GeometryCache { return s.geometry }

// Camera returns the scene camera.
func (s *Scene) Camera() *Camera { return s.camera }

// Effects returns the transient-effect scheduler.
func (s *Scene) Effects() *Scheduler { return s.effects }

// LOD returns the visibility controller.
func (s *Scene) LOD() *LODController { return s.lod }

// Sectors returns the sector visibility grid.
func (s *Scene) Sectors() *SectorVisibility { return s.sectors }

// Reconciler returns the reconciler of category c.
func (s *Scene) Reconciler(c Category) *Reconciler {
	if c >= NumCategories {
		return nil
	}
	return s.reconcilers[c]
}

// Logger returns the scene logger.
func (s *Scene) Logger() *zap.Logger { return s.log }

// Time returns the simulation time of the last synced frame.
func (s *Scene) Time() float64 { return s.time }

// SetDebugMode enables invariant checks and per-sample logging.
func (s *Scene) SetDebugMode(enabled bool) {
	s.debug = enabled
	s.arena.debug = enabled
}

// DebugMode reports whether debug checks are on.
func (s *Scene) DebugMode() bool { return s.debug }

// NodeCount returns the number of handles attached under the root.
func (s *Scene) NodeCount() int {
	root := s.arena.Get(s.root)
	if root == nil {
		return 0
	}
	n := 0
	s.arena.Walk(root, func(*Handle, int) bool {
		n++
		return true
	})
	return n
}

// DrawnCount returns the number of handles the renderer would visit:
// attached, visible, and not hidden by LOD.
func (s *Scene) DrawnCount() int {
	root := s.arena.Get(s.root)
	if root == nil {
		return 0
	}
	n := 0
	s.arena.Walk(root, func(h *Handle, _ int) bool {
		if !h.Visible || h.hidden {
			return false
		}
		n++
		return true
	})
	return n
}

// refreshLoad takes the drawn-node count once per Sync and Update so
// effect load checks do not walk the tree per request.
func (s *Scene) refreshLoad() {
	s.drawn = s.DrawnCount()
	s.fragsAt = s.effects.Stats().Fragments
}

// effectLoad is the drawn-node count plus the fragments spawned since the
// last refreshLoad.
func (s *Scene) effectLoad() int {
	return s.drawn + s.effects.Stats().Fragments - s.fragsAt
}

// Sync reconciles one frame in fixed category order. Enemies run first so
// the boss phase they record is current when boss mechanics are evaluated.
func (s *Scene) Sync(f *Frame) [NumCategories]ReconcileStats {
	var out [NumCategories]ReconcileStats
	if f == nil {
		return out
	}
	if isFinite(f.Time) {
		s.time = f.Time
	}
	s.boss = bossState{}
	s.refreshLoad()
	for _, c := range Categories {
		out[c] = s.reconcilers[c].Reconcile(f.Entities[c], s.time)
	}
	return out
}

// Update advances animations, effects, and the camera by dt seconds, then
// runs the LOD pass, the throttled sector pass, and the throttled
// diagnostics sample.
func (s *Scene) Update(dt float64) {
	if !isFinite(dt) || dt < 0 {
		dt = 0
	}
	s.diag.beginFrame()

	for _, done := range s.animator.Step(dt) {
		s.complete(done)
	}
	s.effects.Update(dt)
	for _, sh := range s.effects.DrainShakes() {
		s.camera.Shake(sh.Intensity, sh.Duration)
	}
	s.camera.Update(dt)

	s.tracked = s.tracked[:0]
	for _, r := range s.reconcilers {
		r.forEach(func(h *Handle) {
			s.tracked = append(s.tracked, h)
		})
	}
	s.lod.Pass(s.camera, s.tracked)
	s.sectors.Update(dt, s.camera)
	s.refreshLoad()

	if s.diag.tick(dt) {
		s.diag.sample(s)
		if s.debug {
			s.diag.log(s.log)
			s.checkInvariants()
		}
	}
}

// complete routes an animation completion to its follow-up.
func (s *Scene) complete(done Completed) {
	if done.Then != CompleteRetire {
		return
	}
	h := s.arena.Get(done.ID)
	if h == nil || !h.owner.set {
		return
	}
	s.reconcilers[h.owner.category].finishRetire(h.owner.key, done.ID)
}

// AddAmbient attaches an ambient handle (background loops, decorations
// keyed by region) and registers it for sector visibility. loop, when its
// Duration is positive, is played on the AnimAmbient slot.
func (s *Scene) AddAmbient(h *Handle, loop Animation) {
	if layer := s.arena.Get(s.ambient); layer != nil {
		s.arena.AddChild(layer, h)
	}
	if loop.Duration > 0 {
		s.animator.Play(h, AnimAmbient, loop)
	}
	s.sectors.Register(h)
}

// RemoveAmbient detaches and frees an ambient handle.
func (s *Scene) RemoveAmbient(h *Handle) {
	s.sectors.Unregister(h.id)
	s.arena.Free(h)
}

// Prewarm fills the pool for the look of category c built from a
// representative snapshot.
func (s *Scene) Prewarm(c Category, sample EntitySnapshot, count int) {
	if c >= NumCategories {
		return
	}
	look := s.looks[c]
	sample.Category = c
	s.pool.Prewarm(look.TypeKey(&sample), count, func(a *Arena) *Handle {
		return look.Build(a, &sample)
	})
}

// Teardown releases every displayed handle, drops the pool, effects, and
// geometry cache, and resets the arena. The scene is reusable afterwards.
func (s *Scene) Teardown() {
	for _, r := range s.reconcilers {
		r.clearAll()
	}
	s.effects.Reset()
	s.pool.Reset()
	s.geometry.Reset()
	s.lod.Reset()
	s.sectors.Reset()
	s.animator.Reset()
	s.arena.Reset()
	s.boss = bossState{}
	s.time = 0
	s.build()
}

// buildDetail dispatches detail construction to the owning category's look.
func (s *Scene) buildDetail(a *Arena, h *Handle) *Handle {
	if !h.owner.set {
		return nil
	}
	return s.looks[h.owner.category].BuildDetail(a, h)
}
