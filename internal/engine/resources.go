package engine

import (
	"sync"

	"go.uber.org/zap"

	"github.com/MRamiBalles/CieloRoto/server/internal/events"
	"github.com/MRamiBalles/CieloRoto/server/internal/platform/logger"
)

// ResourceKind names one fleet resource pool.
type ResourceKind string

const (
	ResourceEnergy      ResourceKind = "energy"
	ResourceKineticRods ResourceKind = "kinetic_rods"
	ResourceDrones      ResourceKind = "drones"
	ResourcePersonnel   ResourceKind = "personnel"
)

// Resource is one regenerating pool. Current never exceeds Max and never
// goes negative.
type Resource struct {
	Current      float64
	Max          float64
	RegenPerHour float64
}

// DefaultPool is the fleet loadout a fresh session starts with.
func DefaultPool() map[ResourceKind]Resource {
	return map[ResourceKind]Resource{
		ResourceEnergy:      {Current: 1000, Max: 1000, RegenPerHour: 50},
		ResourceKineticRods: {Current: 40, Max: 40, RegenPerHour: 1},
		ResourceDrones:      {Current: 120, Max: 200, RegenPerHour: 4},
		ResourcePersonnel:   {Current: 500, Max: 500, RegenPerHour: 0},
	}
}

// ResourceManager holds the fleet resource pools. Regeneration is driven by
// whole game-hours crossed since the last tick, so fast-forwarding the clock
// regenerates exactly as much as playing the same span at 1x.
type ResourceManager struct {
	mu          sync.Mutex
	bus         *events.Bus
	log         *logger.Logger
	pool        map[ResourceKind]Resource
	lastAbsHour int
}

// NewResourceManager creates a manager with the given pool (nil means
// DefaultPool) and subscribes it to clock ticks and time restores.
func NewResourceManager(bus *events.Bus, log *logger.Logger, pool map[ResourceKind]Resource) *ResourceManager {
	if pool == nil {
		pool = DefaultPool()
	}
	rm := &ResourceManager{
		bus:  bus,
		log:  log,
		pool: pool,
	}
	bus.Subscribe(events.TopicTick, rm.onTick)
	bus.Subscribe(events.TopicTimeRestored, rm.onTimeRestored)
	return rm
}

func (rm *ResourceManager) onTick(payload any) {
	tick, ok := payload.(events.TickPayload)
	if !ok {
		return
	}
	abs := tick.Time.AbsoluteHour()

	rm.mu.Lock()
	crossed := abs - rm.lastAbsHour
	if crossed <= 0 {
		rm.mu.Unlock()
		return
	}
	rm.lastAbsHour = abs
	changed := false
	for kind, r := range rm.pool {
		if r.RegenPerHour <= 0 || r.Current >= r.Max {
			continue
		}
		r.Current += r.RegenPerHour * float64(crossed)
		if r.Current > r.Max {
			r.Current = r.Max
		}
		rm.pool[kind] = r
		changed = true
	}
	var snap map[string]events.ResourceLevel
	if changed {
		snap = rm.levelsLocked()
	}
	rm.mu.Unlock()

	if changed {
		rm.bus.Publish(events.TopicResourcesChanged, events.ResourcesChangedPayload{
			Resources: snap,
			Cause:     "regen",
		})
	}
}

// onTimeRestored realigns the regen anchor so the next tick does not count
// the whole jump between the old and restored positions as elapsed hours.
func (rm *ResourceManager) onTimeRestored(payload any) {
	restored, ok := payload.(events.TimeRestoredPayload)
	if !ok {
		return
	}
	rm.mu.Lock()
	rm.lastAbsHour = restored.Time.AbsoluteHour()
	rm.mu.Unlock()
}

// Spend deducts the given costs atomically. Either every cost is affordable
// and all are deducted, or nothing changes and Spend returns false. Unknown
// resource kinds make the whole spend fail.
func (rm *ResourceManager) Spend(costs map[ResourceKind]float64) bool {
	rm.mu.Lock()
	for kind, cost := range costs {
		r, ok := rm.pool[kind]
		if !ok || cost < 0 || r.Current < cost {
			rm.mu.Unlock()
			rm.log.Warn("spend rejected",
				zap.String("resource", string(kind)),
				zap.Float64("cost", cost),
			)
			return false
		}
	}
	for kind, cost := range costs {
		r := rm.pool[kind]
		r.Current -= cost
		rm.pool[kind] = r
	}
	snap := rm.levelsLocked()
	rm.mu.Unlock()

	rm.bus.Publish(events.TopicResourcesChanged, events.ResourcesChangedPayload{
		Resources: snap,
		Cause:     "spend",
	})
	return true
}

// Snapshot returns the current pool keyed by resource name, for saves and
// the HTTP API.
func (rm *ResourceManager) Snapshot() map[string]events.ResourceLevel {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.levelsLocked()
}

// Restore overwrites the pool from a save. Levels are clamped into [0, Max]
// so a tampered save cannot mint resources.
func (rm *ResourceManager) Restore(levels map[string]events.ResourceLevel) {
	rm.mu.Lock()
	for name, lvl := range levels {
		if lvl.Max <= 0 {
			continue
		}
		cur := lvl.Current
		if cur < 0 {
			cur = 0
		}
		if cur > lvl.Max {
			cur = lvl.Max
		}
		rm.pool[ResourceKind(name)] = Resource{
			Current:      cur,
			Max:          lvl.Max,
			RegenPerHour: lvl.RegenPerHour,
		}
	}
	snap := rm.levelsLocked()
	rm.mu.Unlock()

	rm.bus.Publish(events.TopicResourcesChanged, events.ResourcesChangedPayload{
		Resources: snap,
		Cause:     "restore",
	})
}

func (rm *ResourceManager) levelsLocked() map[string]events.ResourceLevel {
	out := make(map[string]events.ResourceLevel, len(rm.pool))
	for kind, r := range rm.pool {
		out[string(kind)] = events.ResourceLevel{
			Current:      r.Current,
			Max:          r.Max,
			RegenPerHour: r.RegenPerHour,
		}
	}
	return out
}
