// Package fx translates abstract strikes into the weapon-effect
// notifications the renderer draws.
package fx

import (
	"go.uber.org/zap"

	"github.com/MRamiBalles/CieloRoto/server/internal/domain/scenario"
	"github.com/MRamiBalles/CieloRoto/server/internal/events"
	"github.com/MRamiBalles/CieloRoto/server/internal/platform/logger"
	"github.com/MRamiBalles/CieloRoto/server/internal/world"
)

// Manager resolves strike targets against the world and publishes the
// renderable effect. It holds no state of its own.
type Manager struct {
	bus   *events.Bus
	log   *logger.Logger
	world *world.Data
}

func NewManager(bus *events.Bus, log *logger.Logger, w *world.Data) *Manager {
	return &Manager{bus: bus, log: log, world: w}
}

// Strike publishes one weapon effect anchored at the location's coordinates.
// An unknown location is logged and dropped; the show goes on.
func (m *Manager) Strike(kind events.StrikeKind, locationID string, importance scenario.Importance, at events.GameTime) {
	loc, ok := m.world.Location(locationID)
	if !ok {
		m.log.Warn("strike against unknown location",
			zap.String("location", locationID),
			zap.String("kind", string(kind)),
		)
		return
	}
	m.bus.Publish(events.TopicWeaponEffect, events.WeaponEffectPayload{
		Kind:       kind,
		LocationID: locationID,
		Lat:        loc.Lat,
		Lng:        loc.Lng,
		Importance: importance,
		Time:       at,
	})
}
