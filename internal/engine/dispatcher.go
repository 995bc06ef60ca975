package engine

import (
	"go.uber.org/zap"

	"github.com/MRamiBalles/CieloRoto/server/internal/domain/location"
	"github.com/MRamiBalles/CieloRoto/server/internal/domain/scenario"
	"github.com/MRamiBalles/CieloRoto/server/internal/events"
	"github.com/MRamiBalles/CieloRoto/server/internal/platform/logger"
	"github.com/MRamiBalles/CieloRoto/server/internal/world"
)

// WeaponEffects renders a strike against a location. Implemented by fx.Manager.
type WeaponEffects interface {
	Strike(kind events.StrikeKind, locationID string, importance scenario.Importance, at events.GameTime)
}

// Feed receives a triggered event for narration. Implemented by feeds.Feed.
type Feed interface {
	Post(ev scenario.Event, at events.GameTime)
}

// EffectDispatcher turns triggered scenario events into concrete
// consequences: visual strikes, world-state patches and feed entries. It is
// the only engine component allowed to write to WorldData.
type EffectDispatcher struct {
	bus     *events.Bus
	log     *logger.Logger
	world   *world.Data
	weapons WeaponEffects
	feeds   []Feed
}

// NewEffectDispatcher wires a dispatcher to the event-triggered topic.
// weapons may be nil (headless runs); feeds may be empty.
func NewEffectDispatcher(bus *events.Bus, log *logger.Logger, w *world.Data, weapons WeaponEffects, feeds ...Feed) *EffectDispatcher {
	d := &EffectDispatcher{
		bus:     bus,
		log:     log,
		world:   w,
		weapons: weapons,
		feeds:   feeds,
	}
	bus.Subscribe(events.TopicEventTriggered, d.onEventTriggered)
	return d
}

func (d *EffectDispatcher) onEventTriggered(payload any) {
	p, ok := payload.(events.EventTriggeredPayload)
	if !ok {
		return
	}
	ev := p.Event

	d.dispatchStrikes(ev, p.Time)
	d.applyEffect(ev)
	for _, f := range d.feeds {
		f.Post(ev, p.Time)
	}
}

type strike struct {
	kind       events.StrikeKind
	importance scenario.Importance
}

// strikePlan maps an event type to the strikes it triggers. Hacks are always
// rendered as a minor beam regardless of the event's own importance: an
// intrusion has no physical blast to scale.
func strikePlan(ev scenario.Event) []strike {
	imp := ev.Importance
	if imp == "" {
		imp = scenario.ImportanceMajor
	}
	switch ev.Type {
	case scenario.EventAttack:
		return []strike{{events.StrikeKinetic, imp}}
	case scenario.EventDestroy:
		return []strike{{events.StrikePlasma, imp}, {events.StrikeKinetic, imp}}
	case scenario.EventOccupy:
		return []strike{{events.StrikePlasma, imp}}
	case scenario.EventHack:
		return []strike{{events.StrikeBeam, scenario.ImportanceMinor}}
	default:
		return nil
	}
}

func (d *EffectDispatcher) dispatchStrikes(ev scenario.Event, at events.GameTime) {
	if d.weapons == nil || ev.LocationID == "" {
		return
	}
	for _, s := range strikePlan(ev) {
		d.weapons.Strike(s.kind, ev.LocationID, s.importance, at)
	}
}

func (d *EffectDispatcher) applyEffect(ev scenario.Event) {
	if ev.Effect == nil {
		return
	}
	target := ev.Effect.LocationID
	if target == "" {
		target = ev.LocationID
	}
	if target == "" {
		return
	}
	if _, ok := d.world.Location(target); !ok {
		d.log.Warn("event effect targets unknown location",
			zap.String("event", ev.ID),
			zap.String("location", target),
		)
		return
	}
	d.world.UpdateLocation(target, location.Patch{
		Status:         ev.Effect.NewStatus,
		ControlledBy:   ev.Effect.NewControlledBy,
		StabilityDelta: ev.Effect.StabilityChange,
	})
}
