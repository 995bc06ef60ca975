// Package world holds the authoritative runtime state of every strategic
// location and nation. It is pure data plus accessors and the two mutation
// entry points; it knows nothing about rendering or scenario logic.
//
// All mutation goes through UpdateLocation/UpdateNation. Collaborators never
// reach into entities directly: the partial-merge contract is the only way
// state changes, which is what keeps compounding scenario effects sane.
package world

import (
	"sync"

	"go.uber.org/zap"

	"github.com/MRamiBalles/CieloRoto/server/internal/domain/location"
	"github.com/MRamiBalles/CieloRoto/server/internal/domain/nation"
	"github.com/MRamiBalles/CieloRoto/server/internal/domain/rules"
	"github.com/MRamiBalles/CieloRoto/server/internal/events"
	"github.com/MRamiBalles/CieloRoto/server/internal/platform/logger"
)

// Summary is the aggregate view of the world used by HUD-style consumers.
type Summary struct {
	Locations        int            `json:"locations"`
	Nations          int            `json:"nations"`
	ByControl        map[string]int `json:"by_control"`
	ByStatus         map[string]int `json:"by_status"`
	AverageStability float64        `json:"average_stability"`
}

// NuclearSummary aggregates nuclear capacity by who still controls it.
type NuclearSummary struct {
	Total      int `json:"total"`
	HumanHeld  int `json:"human_held"`
	AlienHeld  int `json:"alien_held"`
	OutOfPlay  int `json:"out_of_play"` // destroyed or contested
}

// Data is the authoritative store. Entities are created once by Initialize
// and never destroyed during a session.
type Data struct {
	mu        sync.RWMutex
	bus       *events.Bus
	log       *logger.Logger
	locations map[string]*location.State
	nations   map[string]*nation.State
}

// New creates an empty store. Call Initialize before use.
func New(bus *events.Bus, log *logger.Logger) *Data {
	return &Data{
		bus:       bus,
		log:       log,
		locations: make(map[string]*location.State),
		nations:   make(map[string]*nation.State),
	}
}

// Initialize (re)populates the store from static definitions and derives the
// default runtime fields. The simulation starts from a known, fully-analyzed
// baseline: every location analyzed, human-held, stability 100; every nation
// functional and hostile at its authored strength.
func (d *Data) Initialize(locations []location.Definition, nations []nation.Definition) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.locations = make(map[string]*location.State, len(locations))
	for _, def := range locations {
		d.locations[def.ID] = &location.State{
			Definition:   def,
			Status:       location.StatusAnalyzed,
			ControlledBy: location.ControlHuman,
			Stability:    100,
		}
	}

	d.nations = make(map[string]*nation.State, len(nations))
	for _, def := range nations {
		d.nations[def.ID] = &nation.State{
			Definition:       def,
			Government:       nation.GovernmentFunctional,
			MilitaryStrength: def.MilitaryStrength,
			Resistance:       0,
			Stability:        100,
			Relations:        nation.RelationsHostile,
		}
	}

	d.log.Info("world initialized",
		zap.Int("locations", len(d.locations)),
		zap.Int("nations", len(d.nations)),
	)
}

// ─── Location reads ─────────────────────────────────────────────────────

// Location returns a copy of one location's state.
func (d *Data) Location(id string) (location.State, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	loc, ok := d.locations[id]
	if !ok {
		return location.State{}, false
	}
	return *loc, true
}

// Locations returns copies of every location.
func (d *Data) Locations() []location.State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]location.State, 0, len(d.locations))
	for _, loc := range d.locations {
		out = append(out, *loc)
	}
	return out
}

func (d *Data) locationsWhere(keep func(*location.State) bool) []location.State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []location.State
	for _, loc := range d.locations {
		if keep(loc) {
			out = append(out, *loc)
		}
	}
	return out
}

// LocationsByType returns copies of all locations of one type.
func (d *Data) LocationsByType(t location.Type) []location.State {
	return d.locationsWhere(func(l *location.State) bool { return l.Type == t })
}

// LocationsByStatus returns copies of all locations in one status.
func (d *Data) LocationsByStatus(s location.Status) []location.State {
	return d.locationsWhere(func(l *location.State) bool { return l.Status == s })
}

// LocationsByNation returns copies of all locations of one nation.
func (d *Data) LocationsByNation(nationID string) []location.State {
	return d.locationsWhere(func(l *location.State) bool { return l.Nation == nationID })
}

// LocationsByControl returns copies of all locations under one controller.
func (d *Data) LocationsByControl(c location.Control) []location.State {
	return d.locationsWhere(func(l *location.State) bool { return l.ControlledBy == c })
}

// LocationsWithinRadius returns copies of all locations within radiusKm of a
// point, by great-circle distance.
func (d *Data) LocationsWithinRadius(lat, lng, radiusKm float64) []location.State {
	return d.locationsWhere(func(l *location.State) bool {
		return rules.HaversineKm(lat, lng, l.Lat, l.Lng) <= radiusKm
	})
}

// NuclearCapacity aggregates authored nuclear capacity by current control.
func (d *Data) NuclearCapacity() NuclearSummary {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var sum NuclearSummary
	for _, loc := range d.locations {
		if loc.NuclearCapacity == 0 {
			continue
		}
		sum.Total += loc.NuclearCapacity
		switch loc.ControlledBy {
		case location.ControlHuman:
			sum.HumanHeld += loc.NuclearCapacity
		case location.ControlAlien:
			sum.AlienHeld += loc.NuclearCapacity
		default:
			sum.OutOfPlay += loc.NuclearCapacity
		}
	}
	return sum
}

// Summarize returns the aggregate world view.
func (d *Data) Summarize() Summary {
	d.mu.RLock()
	defer d.mu.RUnlock()
	sum := Summary{
		Locations: len(d.locations),
		Nations:   len(d.nations),
		ByControl: make(map[string]int),
		ByStatus:  make(map[string]int),
	}
	total := 0
	for _, loc := range d.locations {
		sum.ByControl[string(loc.ControlledBy)]++
		sum.ByStatus[string(loc.Status)]++
		total += loc.Stability
	}
	if len(d.locations) > 0 {
		sum.AverageStability = float64(total) / float64(len(d.locations))
	}
	return sum
}

// ─── Nation reads ───────────────────────────────────────────────────────

// Nation returns a copy of one nation's state.
func (d *Data) Nation(id string) (nation.State, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n, ok := d.nations[id]
	if !ok {
		return nation.State{}, false
	}
	return *n, true
}

// Nations returns copies of every nation.
func (d *Data) Nations() []nation.State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]nation.State, 0, len(d.nations))
	for _, n := range d.nations {
		out = append(out, *n)
	}
	return out
}

// ─── Mutation ───────────────────────────────────────────────────────────

// UpdateLocation applies a partial update to one location: present fields
// overwrite, absent fields are untouched, stability stays clamped to
// [0,100]. Unknown ids are a silent no-op: saves and authored events may
// legitimately reference entities this world does not carry.
func (d *Data) UpdateLocation(id string, patch location.Patch) {
	if patch.IsEmpty() {
		return
	}

	d.mu.Lock()
	loc, ok := d.locations[id]
	if !ok {
		d.mu.Unlock()
		return
	}
	if patch.Status != nil {
		loc.Status = *patch.Status
	}
	if patch.ControlledBy != nil {
		loc.ControlledBy = *patch.ControlledBy
	}
	if patch.Stability != nil {
		loc.Stability = rules.ClampStability(*patch.Stability)
	}
	if patch.StabilityDelta != nil {
		loc.Stability = rules.ClampStability(loc.Stability + *patch.StabilityDelta)
	}
	updated := *loc
	d.mu.Unlock()

	d.bus.Publish(events.TopicLocationUpdated, events.LocationUpdatedPayload{Location: updated})
}

// UpdateNation applies a partial update to one nation, same merge rules as
// UpdateLocation.
func (d *Data) UpdateNation(id string, patch nation.Patch) {
	if patch.IsEmpty() {
		return
	}

	d.mu.Lock()
	n, ok := d.nations[id]
	if !ok {
		d.mu.Unlock()
		return
	}
	if patch.Government != nil {
		n.Government = *patch.Government
	}
	if patch.MilitaryStrength != nil {
		n.MilitaryStrength = *patch.MilitaryStrength
	}
	if patch.Resistance != nil {
		n.Resistance = *patch.Resistance
	}
	if patch.Stability != nil {
		n.Stability = rules.ClampStability(*patch.Stability)
	}
	if patch.StabilityDelta != nil {
		n.Stability = rules.ClampStability(n.Stability + *patch.StabilityDelta)
	}
	if patch.Relations != nil {
		n.Relations = *patch.Relations
	}
	updated := *n
	d.mu.Unlock()

	d.bus.Publish(events.TopicNationUpdated, events.NationUpdatedPayload{Nation: updated})
}
