package rampart

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ScenarioStep is a single action in a scenario script.
type ScenarioStep struct {
	Action   string   `yaml:"action"`
	Category string   `yaml:"category,omitempty"`
	ID       string   `yaml:"id,omitempty"`
	Role     string   `yaml:"role,omitempty"`
	Kind     string   `yaml:"kind,omitempty"`
	X        float64  `yaml:"x,omitempty"`
	Y        float64  `yaml:"y,omitempty"`
	TargetX  float64  `yaml:"target_x,omitempty"`
	TargetY  float64  `yaml:"target_y,omitempty"`
	Size     float64  `yaml:"size,omitempty"`
	Health   *float64 `yaml:"health,omitempty"`
	Lifetime float64  `yaml:"lifetime,omitempty"`
	Flags    []string `yaml:"flags,omitempty"`
	// Count > 1 expands the step over ids "{id}{n}" and, for spawns, lays
	// them out Spacing apart along X.
	Count   int     `yaml:"count,omitempty"`
	Spacing float64 `yaml:"spacing,omitempty"`
	All     bool    `yaml:"all,omitempty"`

	Amount   float64 `yaml:"amount,omitempty"`
	Phase    int     `yaml:"phase,omitempty"`
	Zoom     float64 `yaml:"zoom,omitempty"`
	Duration float64 `yaml:"duration,omitempty"`
	Frames   int     `yaml:"frames,omitempty"`
}

type scenarioScript struct {
	Name  string         `yaml:"name"`
	DT    float64        `yaml:"dt"`
	Steps []ScenarioStep `yaml:"steps"`
}

var flagNames = map[string]StatusFlags{
	"slowed":   FlagSlowed,
	"frozen":   FlagFrozen,
	"shielded": FlagShielded,
	"boss":     FlagBoss,
	"critical": FlagCritical,
	"breach":   FlagBreach,
}

// ParseFlags converts flag names to a StatusFlags mask.
func ParseFlags(names []string) (StatusFlags, error) {
	var f StatusFlags
	for _, n := range names {
		bit, ok := flagNames[n]
		if !ok {
			return 0, fmt.Errorf("unknown flag %q", n)
		}
		f |= bit
	}
	return f, nil
}

// Scenario replays a scripted sequence of simulation changes as successive
// Frames. Actions run in order within a frame until a wait step consumes
// frames; each Step syncs one frame and advances the scene by DT.
//
//	name: churn
//	dt: 0.016
//	steps:
//	  - {action: spawn, category: enemy, id: e, count: 50, x: 100, y: 100, spacing: 20}
//	  - {action: wait, frames: 1}
//	  - {action: despawn, category: enemy, all: true}
type Scenario struct {
	Name string
	DT   float64

	steps  []ScenarioStep
	cursor int
	wait   int
	done   bool

	world [NumCategories][]EntitySnapshot
	frame Frame
	tick  uint64
	time  float64
}

// ParseScenario decodes and validates a YAML scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	var script scenarioScript
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse scenario: no steps")
	}
	for i, st := range script.Steps {
		if err := validateStep(st); err != nil {
			return nil, fmt.Errorf("parse scenario: step %d: %w", i, err)
		}
	}
	dt := script.DT
	if !isFinite(dt) || dt <= 0 {
		dt = 1.0 / 60
	}
	return &Scenario{Name: script.Name, DT: dt, steps: script.Steps}, nil
}

// LoadScenario reads and parses a YAML scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}
	return ParseScenario(data)
}

func validateStep(st ScenarioStep) error {
	switch st.Action {
	case "spawn", "despawn", "damage", "phase", "status":
		if _, ok := ParseCategory(st.Category); !ok {
			return fmt.Errorf("%s: unknown category %q", st.Action, st.Category)
		}
		if st.ID == "" && !(st.Action == "despawn" && st.All) {
			return fmt.Errorf("%s: missing id", st.Action)
		}
		if _, err := ParseFlags(st.Flags); err != nil {
			return fmt.Errorf("%s: %w", st.Action, err)
		}
	case "move":
		if st.ID != "" {
			if _, ok := ParseCategory(st.Category); !ok {
				return fmt.Errorf("move: unknown category %q", st.Category)
			}
		}
	case "zoom":
		if !isFinite(st.Zoom) || st.Zoom <= 0 {
			return fmt.Errorf("zoom: must be positive, got %g", st.Zoom)
		}
	case "wait":
	default:
		return fmt.Errorf("unknown action %q", st.Action)
	}
	return nil
}

// Done reports whether every step has run.
func (sc *Scenario) Done() bool {
	return sc.done
}

// Frame returns the frame built by the last Step.
func (sc *Scenario) Frame() *Frame {
	return &sc.frame
}

// Step runs the actions due this frame, syncs the resulting frame into s,
// and advances s by DT. Returns false once the scenario is done.
func (sc *Scenario) Step(s *Scene) bool {
	if sc.done {
		return false
	}
	if sc.wait > 0 {
		sc.wait--
	} else {
		for sc.cursor < len(sc.steps) {
			st := sc.steps[sc.cursor]
			sc.cursor++
			if st.Action == "wait" {
				if st.Frames > 1 {
					sc.wait = st.Frames - 1 // this frame counts as one
				}
				break
			}
			sc.apply(s, st)
		}
	}

	sc.tick++
	sc.time += sc.DT
	sc.frame.Tick = sc.tick
	sc.frame.Time = sc.time
	for c := range sc.world {
		sc.frame.Entities[c] = append(sc.frame.Entities[c][:0], sc.world[c]...)
	}
	s.Sync(&sc.frame)
	s.Update(sc.DT)

	if sc.cursor >= len(sc.steps) && sc.wait == 0 {
		sc.done = true
	}
	return true
}

// Run steps until the scenario is done or maxFrames have run. Returns the
// number of frames run.
func (sc *Scenario) Run(s *Scene, maxFrames int) int {
	n := 0
	for n < maxFrames && sc.Step(s) {
		n++
	}
	return n
}

func (sc *Scenario) apply(s *Scene, st ScenarioStep) {
	cat, _ := ParseCategory(st.Category)
	flags, _ := ParseFlags(st.Flags)
	switch st.Action {
	case "spawn":
		for i, id := range stepIDs(st) {
			snap := EntitySnapshot{
				ID:        id,
				Category:  cat,
				Role:      st.Role,
				Kind:      st.Kind,
				Position:  Vec2{X: st.X + float64(i)*st.Spacing, Y: st.Y},
				Target:    Vec2{X: st.TargetX, Y: st.TargetY},
				Health:    1,
				Flags:     flags,
				Size:      st.Size,
				CreatedAt: sc.time,
				Lifetime:  st.Lifetime,
			}
			if st.Health != nil {
				snap.Health = *st.Health
			}
			sc.remove(cat, id, st.Role, true)
			sc.world[cat] = append(sc.world[cat], snap)
		}
	case "despawn":
		if st.All {
			sc.world[cat] = sc.world[cat][:0]
			return
		}
		for _, id := range stepIDs(st) {
			sc.remove(cat, id, st.Role, st.Role != "")
		}
	case "damage":
		sc.each(cat, st, func(e *EntitySnapshot) {
			e.Health -= st.Amount
			if e.Health < 0 {
				e.Health = 0
			}
		})
	case "phase":
		sc.each(cat, st, func(e *EntitySnapshot) {
			e.Phase = st.Phase
		})
	case "status":
		sc.each(cat, st, func(e *EntitySnapshot) {
			e.Flags = flags
		})
	case "move":
		if st.ID == "" {
			cam := s.Camera()
			if st.Duration > 0 {
				cam.ScrollTo(st.X, st.Y, st.Duration, EaseInOutSine)
			} else {
				cam.X, cam.Y = st.X, st.Y
			}
			return
		}
		sc.each(cat, st, func(e *EntitySnapshot) {
			e.Position = Vec2{X: st.X, Y: st.Y}
		})
	case "zoom":
		s.Camera().Zoom = st.Zoom
	}
}

// each applies fn to every entity matching the step's ids (and role, when
// given).
func (sc *Scenario) each(cat Category, st ScenarioStep, fn func(*EntitySnapshot)) {
	for _, id := range stepIDs(st) {
		for i := range sc.world[cat] {
			e := &sc.world[cat][i]
			if e.ID == id && (st.Role == "" || e.Role == st.Role) {
				fn(e)
			}
		}
	}
}

// remove deletes entities with id, keeping order. When matchRole is set,
// only the given role is removed.
func (sc *Scenario) remove(cat Category, id, role string, matchRole bool) {
	list := sc.world[cat][:0]
	for _, e := range sc.world[cat] {
		if e.ID == id && (!matchRole || e.Role == role) {
			continue
		}
		list = append(list, e)
	}
	sc.world[cat] = list
}

func stepIDs(st ScenarioStep) []string {
	if st.Count <= 1 {
		return []string{st.ID}
	}
	ids := make([]string, st.Count)
	for i := range ids {
		ids[i] = st.ID + strconv.Itoa(i)
	}
	return ids
}
