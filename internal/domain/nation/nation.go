// Package nation defines the nation-state domain entities.
// This package is PURE and must NOT import any infrastructure packages.
package nation

// Government is the functional state of a nation's government.
type Government string

const (
	GovernmentFunctional Government = "functional"
	GovernmentDegraded   Government = "degraded"
	GovernmentCollapsed  Government = "collapsed"
	GovernmentOccupied   Government = "occupied"
	GovernmentPuppet     Government = "puppet"
)

// Relations is the nation's stance toward the invaders.
type Relations string

const (
	RelationsHostile       Relations = "hostile"
	RelationsResistant     Relations = "resistant"
	RelationsNeutral       Relations = "neutral"
	RelationsCollaborating Relations = "collaborating"
)

// Definition is the static authored record for a nation.
type Definition struct {
	ID               string `yaml:"id" json:"id"`
	Name             string `yaml:"name" json:"name"`
	Nuclear          bool   `yaml:"nuclear" json:"nuclear"`
	MilitaryStrength int    `yaml:"military_strength" json:"military_strength"`
}

// State is the runtime entity for a nation.
type State struct {
	Definition
	Government       Government `json:"government"`
	MilitaryStrength int        `json:"current_military_strength"`
	Resistance       int        `json:"resistance"`
	Stability        int        `json:"stability"` // 0-100, clamped
	Relations        Relations  `json:"relations"`
}

// Patch is a partial update for a nation. Present fields overwrite, absent
// fields are untouched. StabilityDelta is additive and clamped on merge.
type Patch struct {
	Government       *Government
	MilitaryStrength *int
	Resistance       *int
	Stability        *int
	StabilityDelta   *int
	Relations        *Relations
}

// IsEmpty reports whether applying the patch would change nothing.
func (p Patch) IsEmpty() bool {
	return p.Government == nil && p.MilitaryStrength == nil && p.Resistance == nil &&
		p.Stability == nil && p.StabilityDelta == nil && p.Relations == nil
}
