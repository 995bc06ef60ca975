// Package location defines the strategic-location domain entities.
// This package is PURE and must NOT import any infrastructure packages (network, events, platform).
package location

// Type classifies what a strategic location is.
type Type string

const (
	TypeCity     Type = "city"
	TypeMilitary Type = "military"
	TypeNuclear  Type = "nuclear"
	TypePower    Type = "power"
	TypeCommand  Type = "command"
)

// Status is the intel/engagement status of a location.
//
// The unknown/detected values exist in the authored vocabulary but the world
// initializes everything to analyzed: the diorama starts from a fully-scanned
// baseline, not fog of war.
type Status string

const (
	StatusUnknown     Status = "unknown"
	StatusDetected    Status = "detected"
	StatusAnalyzed    Status = "analyzed"
	StatusTargeted    Status = "targeted"
	StatusNeutralized Status = "neutralized"
	StatusOccupied    Status = "occupied"
	StatusContested   Status = "contested"
)

// Control says who holds the location.
type Control string

const (
	ControlHuman     Control = "human"
	ControlAlien     Control = "alien"
	ControlContested Control = "contested"
	ControlDestroyed Control = "destroyed"
)

// Definition is the static authored record for a location. Identity fields
// never change at runtime.
type Definition struct {
	ID              string  `yaml:"id" json:"id"`
	Name            string  `yaml:"name" json:"name"`
	Type            Type    `yaml:"type" json:"type"`
	Lat             float64 `yaml:"lat" json:"lat"`
	Lng             float64 `yaml:"lng" json:"lng"`
	Nation          string  `yaml:"nation" json:"nation"`
	Population      int64   `yaml:"population" json:"population,omitempty"`
	DefenseRating   int     `yaml:"defense_rating" json:"defense_rating,omitempty"`
	NuclearCapacity int     `yaml:"nuclear_capacity" json:"nuclear_capacity,omitempty"`
	GridCapacity    int     `yaml:"grid_capacity" json:"grid_capacity,omitempty"`
}

// State is the runtime entity: the authored identity plus the mutable fields
// the scenario mutates. Created once at world initialization, never destroyed
// during a session.
type State struct {
	Definition
	Status       Status  `json:"status"`
	ControlledBy Control `json:"controlled_by"`
	Stability    int     `json:"stability"` // 0-100, clamped
}

// Patch is a partial update for a location. Present fields overwrite, absent
// fields are untouched. Stability sets an absolute value; StabilityDelta is
// additive. Both are clamped to [0,100] on merge.
type Patch struct {
	Status         *Status
	ControlledBy   *Control
	Stability      *int
	StabilityDelta *int
}

// IsEmpty reports whether applying the patch would change nothing.
func (p Patch) IsEmpty() bool {
	return p.Status == nil && p.ControlledBy == nil && p.Stability == nil && p.StabilityDelta == nil
}
