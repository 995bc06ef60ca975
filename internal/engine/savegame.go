package engine

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"io"

	"github.com/pierrec/lz4/v4"
	"go.uber.org/zap"
	"lukechampine.com/blake3"

	"github.com/MRamiBalles/CieloRoto/server/internal/domain/location"
	"github.com/MRamiBalles/CieloRoto/server/internal/domain/nation"
	"github.com/MRamiBalles/CieloRoto/server/internal/events"
	"github.com/MRamiBalles/CieloRoto/server/internal/platform/logger"
	"github.com/MRamiBalles/CieloRoto/server/internal/world"
)

// SessionVersion is bumped whenever SessionState changes shape. Loads of an
// older version are attempted best-effort with a warning.
const SessionVersion = 1

// LocationSave is the per-location slice of a save.
type LocationSave struct {
	Status       location.Status  `json:"status"`
	ControlledBy location.Control `json:"controlled_by"`
	Stability    int              `json:"stability"`
}

// NationSave is the per-nation slice of a save.
type NationSave struct {
	Government       nation.Government `json:"government"`
	MilitaryStrength int               `json:"military_strength"`
	Resistance       int               `json:"resistance"`
	Stability        int               `json:"stability"`
	Relations        nation.Relations  `json:"relations"`
}

// SessionState is the full serialized session. It captures runtime state
// only; static definitions come from the data files at boot.
type SessionState struct {
	Version       int                             `json:"version"`
	Phase         Phase                           `json:"phase"`
	RunState      string                          `json:"run_state"`
	Time          events.GameTime                 `json:"time"`
	Resources     map[string]events.ResourceLevel `json:"resources"`
	Stats         Stats                           `json:"stats"`
	LostLocations []string                        `json:"lost_locations"`
	Locations     map[string]LocationSave         `json:"locations"`
	Nations       map[string]NationSave           `json:"nations"`
}

// SaveStore persists save slots. Implemented by storage.SaveRepo; tests use
// an in-memory map.
type SaveStore interface {
	Put(ctx context.Context, slot string, version int, checksum string, payload []byte) error
	Get(ctx context.Context, slot string) (version int, checksum string, payload []byte, err error)
}

// SaveManager assembles, compresses and verifies session saves. Save and
// Load report success as a bool and never propagate errors to the caller:
// a failed save or load may not take the simulation down.
type SaveManager struct {
	bus       *events.Bus
	log       *logger.Logger
	store     SaveStore
	clock     *Clock
	world     *world.Data
	resources *ResourceManager
	gamestate *GameState
}

func NewSaveManager(bus *events.Bus, log *logger.Logger, store SaveStore, clock *Clock, w *world.Data, rm *ResourceManager, gs *GameState) *SaveManager {
	return &SaveManager{
		bus:       bus,
		log:       log,
		store:     store,
		clock:     clock,
		world:     w,
		resources: rm,
		gamestate: gs,
	}
}

// Save captures the session into the named slot. The JSON body is
// lz4-compressed and checksummed with blake3 over the uncompressed bytes.
func (sm *SaveManager) Save(ctx context.Context, slot string) bool {
	state := sm.capture()

	raw, err := json.Marshal(state)
	if err != nil {
		sm.log.Error("save: marshal failed", zap.String("slot", slot), zap.Error(err))
		sm.publishSaved(slot, false)
		return false
	}
	sum := blake3.Sum256(raw)
	checksum := hex.EncodeToString(sum[:])

	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		sm.log.Error("save: compress failed", zap.String("slot", slot), zap.Error(err))
		sm.publishSaved(slot, false)
		return false
	}
	if err := zw.Close(); err != nil {
		sm.log.Error("save: compress failed", zap.String("slot", slot), zap.Error(err))
		sm.publishSaved(slot, false)
		return false
	}

	if err := sm.store.Put(ctx, slot, SessionVersion, checksum, buf.Bytes()); err != nil {
		sm.log.Error("save: store failed", zap.String("slot", slot), zap.Error(err))
		sm.publishSaved(slot, false)
		return false
	}

	sm.log.Info("session saved",
		zap.String("slot", slot),
		zap.Int("raw_bytes", len(raw)),
		zap.Int("stored_bytes", buf.Len()),
	)
	sm.publishSaved(slot, true)
	return true
}

// Load restores the session from the named slot. The whole payload is
// decoded and validated BEFORE anything is applied: a corrupt or truncated
// save leaves the running session untouched.
func (sm *SaveManager) Load(ctx context.Context, slot string) bool {
	version, checksum, payload, err := sm.store.Get(ctx, slot)
	if err != nil {
		sm.log.Warn("load: slot unavailable", zap.String("slot", slot), zap.Error(err))
		sm.publishLoaded(slot, false, 0, "")
		return false
	}

	zr := lz4.NewReader(bytes.NewReader(payload))
	raw, err := io.ReadAll(zr)
	if err != nil {
		sm.log.Error("load: decompress failed", zap.String("slot", slot), zap.Error(err))
		sm.publishLoaded(slot, false, version, "")
		return false
	}

	sum := blake3.Sum256(raw)
	if hex.EncodeToString(sum[:]) != checksum {
		sm.log.Error("load: checksum mismatch", zap.String("slot", slot))
		sm.publishLoaded(slot, false, version, "")
		return false
	}

	var state SessionState
	if err := json.Unmarshal(raw, &state); err != nil {
		sm.log.Error("load: decode failed", zap.String("slot", slot), zap.Error(err))
		sm.publishLoaded(slot, false, version, "")
		return false
	}

	warning := ""
	if state.Version != SessionVersion {
		warning = "version mismatch, best-effort restore"
		sm.log.Warn("load: version mismatch",
			zap.String("slot", slot),
			zap.Int("saved", state.Version),
			zap.Int("expected", SessionVersion),
		)
	}

	sm.apply(state)

	sm.log.Info("session loaded",
		zap.String("slot", slot),
		zap.Int("day", state.Time.Day),
		zap.Int("hour", state.Time.Hour),
	)
	sm.publishLoaded(slot, true, state.Version, warning)
	return true
}

func (sm *SaveManager) capture() SessionState {
	gsSnap := sm.gamestate.Snapshot()
	state := SessionState{
		Version:       SessionVersion,
		Phase:         gsSnap.Phase,
		RunState:      gsSnap.RunState,
		Time:          sm.clock.Time(),
		Resources:     sm.resources.Snapshot(),
		Stats:         gsSnap.Stats,
		LostLocations: sm.gamestate.LostLocations(),
		Locations:     make(map[string]LocationSave),
		Nations:       make(map[string]NationSave),
	}
	for _, loc := range sm.world.Locations() {
		state.Locations[loc.ID] = LocationSave{
			Status:       loc.Status,
			ControlledBy: loc.ControlledBy,
			Stability:    loc.Stability,
		}
	}
	for _, n := range sm.world.Nations() {
		state.Nations[n.ID] = NationSave{
			Government:       n.Government,
			MilitaryStrength: n.MilitaryStrength,
			Resistance:       n.Resistance,
			Stability:        n.Stability,
			Relations:        n.Relations,
		}
	}
	return state
}

// apply pushes a decoded save into the live components. Time goes first so
// listeners realign before world patches land; world patches go through the
// normal update path so subscribers see the restored entities.
func (sm *SaveManager) apply(state SessionState) {
	sm.clock.RestoreTime(state.Time)
	sm.resources.Restore(state.Resources)
	sm.gamestate.Restore(GameStateSnapshot{
		Phase:    state.Phase,
		RunState: state.RunState,
		Stats:    state.Stats,
	}, state.LostLocations)

	for id, loc := range state.Locations {
		status, control, stability := loc.Status, loc.ControlledBy, loc.Stability
		sm.world.UpdateLocation(id, location.Patch{
			Status:       &status,
			ControlledBy: &control,
			Stability:    &stability,
		})
	}
	for id, n := range state.Nations {
		gov, strength, res, stab, rel := n.Government, n.MilitaryStrength, n.Resistance, n.Stability, n.Relations
		sm.world.UpdateNation(id, nation.Patch{
			Government:       &gov,
			MilitaryStrength: &strength,
			Resistance:       &res,
			Stability:        &stab,
			Relations:        &rel,
		})
	}
}

func (sm *SaveManager) publishSaved(slot string, ok bool) {
	sm.bus.Publish(events.TopicSessionSaved, events.SessionSavedPayload{
		Slot:    slot,
		OK:      ok,
		Version: SessionVersion,
	})
}

func (sm *SaveManager) publishLoaded(slot string, ok bool, version int, warning string) {
	sm.bus.Publish(events.TopicSessionLoaded, events.SessionLoadedPayload{
		Slot:    slot,
		OK:      ok,
		Version: version,
		Warning: warning,
	})
}
