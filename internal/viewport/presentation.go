package viewport

// ClassToggler is anything that can switch a presentation class on or off,
// typically the element hosting the map.
type ClassToggler interface {
	ToggleClass(name string, on bool)
}

// ClassSet holds the three mutually exclusive presentation flags.
type ClassSet struct {
	Far    bool `json:"far"`
	Middle bool `json:"middle"`
	Near   bool `json:"near"`
}

// Presentation projects p onto presentation flags. Exactly one flag is set.
func Presentation(p Proximity) ClassSet {
	return ClassSet{
		Far:    p == Far,
		Middle: p == Middle,
		Near:   p == Near,
	}
}

// Apply turns the active class on and the other two off. The active class
// is added before the others are removed.
func (c ClassSet) Apply(t ClassToggler) {
	flags := c.flags()
	for _, p := range All {
		if flags[p] {
			t.ToggleClass(p.String(), true)
		}
	}
	for _, p := range All {
		if !flags[p] {
			t.ToggleClass(p.String(), false)
		}
	}
}

// Active returns the single state that is on.
func (c ClassSet) Active() Proximity {
	switch {
	case c.Near:
		return Near
	case c.Middle:
		return Middle
	default:
		return Far
	}
}

func (c ClassSet) flags() map[Proximity]bool {
	return map[Proximity]bool{Far: c.Far, Middle: c.Middle, Near: c.Near}
}

// Tracker remembers the last classification so callers can tell
// transitions from repeats. It is not safe for concurrent use.
type Tracker struct {
	thresholds Thresholds
	current    Proximity
	set        bool
}

// NewTracker returns a tracker with no state yet.
func NewTracker(t Thresholds) *Tracker {
	return &Tracker{thresholds: t}
}

// Observe classifies zoom and reports whether the state changed. The first
// observation always counts as a change.
func (tr *Tracker) Observe(zoom float64) (Proximity, bool) {
	p := Classify(zoom, tr.thresholds)
	changed := !tr.set || p != tr.current
	tr.current = p
	tr.set = true
	return p, changed
}

// Current returns the last observed state and whether one exists.
func (tr *Tracker) Current() (Proximity, bool) {
	return tr.current, tr.set
}
