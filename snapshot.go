package rampart

// StatusFlags is a bitmask of discrete entity states the presentation layer
// reacts to. Values can be combined with bitwise OR.
type StatusFlags uint16

const (
	FlagSlowed   StatusFlags = 1 << iota // slowed by a tower effect
	FlagFrozen                           // fully stopped
	FlagShielded                         // damage shield active
	FlagBoss                             // entity is the active boss
	FlagCritical                         // effects for this entity are never dropped
	FlagBreach                           // entity reached the core
)

// Has reports whether all bits of f are set.
func (s StatusFlags) Has(f StatusFlags) bool {
	return s&f == f
}

// EntitySnapshot is an immutable per-tick record produced by the simulation.
// The core reads snapshots and never mutates them.
type EntitySnapshot struct {
	// ID is stable across ticks for one logical entity.
	ID       string
	Category Category
	// Role partitions the key space of one logical entity so heterogeneous
	// sub-elements (body, link, hint) reconcile independently. Empty means
	// the category name.
	Role string
	// Kind selects the look (shape kind, enemy archetype).
	Kind string

	Position Vec2
	Rotation float64
	// Target is the far end of a link or the point a hint aims at.
	Target Vec2

	// Health is the remaining health fraction in [0, 1].
	Health float64
	Phase  int
	// Alpha is an opacity hint. Zero means unset (opaque).
	Alpha float64
	Flags StatusFlags

	Color Color
	Size  float64

	// CreatedAt and Lifetime are simulation seconds; Lifetime drives
	// particle fade.
	CreatedAt float64
	Lifetime  float64
}

// Key returns the displayed-set key for this snapshot.
func (s *EntitySnapshot) Key() string {
	role := s.Role
	if role == "" {
		role = s.Category.String()
	}
	return Key(role, s.ID)
}

// Key builds a cache key of the form "{role}_{id}".
func Key(role, id string) string {
	return role + "_" + id
}

// Frame is one simulation tick worth of snapshots, grouped by category.
type Frame struct {
	Tick uint64
	// Time is the simulation clock in seconds.
	Time     float64
	Entities [NumCategories][]EntitySnapshot
}

// Add appends a snapshot to its category bucket.
func (f *Frame) Add(s EntitySnapshot) {
	if s.Category >= NumCategories {
		return
	}
	f.Entities[s.Category] = append(f.Entities[s.Category], s)
}

// Len returns the total number of snapshots in the frame.
func (f *Frame) Len() int {
	n := 0
	for i := range f.Entities {
		n += len(f.Entities[i])
	}
	return n
}

// Reset empties the frame, keeping the bucket capacity.
func (f *Frame) Reset() {
	f.Tick = 0
	f.Time = 0
	for i := range f.Entities {
		f.Entities[i] = f.Entities[i][:0]
	}
}

// visualState is the subset of a snapshot that drives threshold transitions.
// Stored per displayed entry so updates can compare against the last pass.
type visualState struct {
	position Vec2
	rotation float64
	target   Vec2
	health   float64
	phase    int
	alpha    float64
	flags    StatusFlags
	color    Color
	size     float64
	// healthOK is false when the last health value was not finite and the
	// fill rebuild was skipped.
	healthOK bool
}

// sanitize derives a visualState from a snapshot, clamping non-finite
// numbers. prev supplies fallbacks for fields that cannot be clamped
// meaningfully (positions).
func sanitize(s *EntitySnapshot, prev *visualState) visualState {
	var v visualState
	v.position = s.Position
	if !v.position.Finite() {
		if prev != nil {
			v.position = prev.position
		} else {
			v.position = Vec2{}
		}
	}
	v.target = s.Target
	if !v.target.Finite() {
		v.target = v.position
	}
	v.rotation = s.Rotation
	if !isFinite(v.rotation) {
		if prev != nil {
			v.rotation = prev.rotation
		} else {
			v.rotation = 0
		}
	}
	v.health, v.healthOK = safeFraction(s.Health, 1)
	if !v.healthOK && prev != nil {
		v.health = prev.health
	}
	v.alpha = 1
	if s.Alpha != 0 {
		v.alpha, _ = safeFraction(s.Alpha, 1)
	}
	v.phase = s.Phase
	v.flags = s.Flags
	v.color = s.Color
	if v.color == (Color{}) {
		v.color = ColorWhite
	}
	v.size = s.Size
	if !isFinite(v.size) || v.size <= 0 {
		v.size = defaultEntitySize
	}
	return v
}

const defaultEntitySize = 12
