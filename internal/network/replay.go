// The replay API is the after-action viewer: a JSON export of the journaled
// narrative plus live snapshots of the scenario, world and fleet.

package network

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/MRamiBalles/CieloRoto/server/internal/engine"
	"github.com/MRamiBalles/CieloRoto/server/internal/events"
	"github.com/MRamiBalles/CieloRoto/server/internal/feeds"
	"github.com/MRamiBalles/CieloRoto/server/internal/platform/logger"
	"github.com/MRamiBalles/CieloRoto/server/internal/world"
)

// APIHandler serves the read-only JSON endpoints.
type APIHandler struct {
	journal   *events.Journal
	engine    *engine.Engine
	world     *world.Data
	alienFeed *feeds.Feed
	humanFeed *feeds.Feed
	logger    *logger.Logger
}

func NewAPIHandler(j *events.Journal, e *engine.Engine, w *world.Data, alien, human *feeds.Feed, log *logger.Logger) *APIHandler {
	return &APIHandler{
		journal:   j,
		engine:    e,
		world:     w,
		alienFeed: alien,
		humanFeed: human,
		logger:    log,
	}
}

// ReplayResponse is the API response for the journal replay.
type ReplayResponse struct {
	TotalEntries int            `json:"total_entries"`
	FilteredBy   string         `json:"filtered_by,omitempty"`
	GeneratedAt  string         `json:"generated_at"`
	Entries      []events.Entry `json:"entries"`
}

// HandleReplay returns the journaled narrative, optionally filtered.
// GET /api/replay?day=N&topic=scenario.event_triggered
func (ah *APIHandler) HandleReplay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ah.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	dayStr := r.URL.Query().Get("day")
	topic := r.URL.Query().Get("topic")

	all := ah.journal.Replay()
	var filtered []events.Entry
	filterDesc := ""

	for _, e := range all {
		if dayStr != "" {
			day, _ := strconv.Atoi(dayStr)
			if e.GameDay != day {
				continue
			}
			filterDesc = "Day " + dayStr
		}
		if topic != "" && string(e.Topic) != topic {
			continue
		}
		filtered = append(filtered, e)
	}

	ah.logger.Event("REPLAY_EXPORT", r.RemoteAddr, "Entries:"+strconv.Itoa(len(filtered)))
	ah.writeJSON(w, ReplayResponse{
		TotalEntries: len(filtered),
		FilteredBy:   filterDesc,
		GeneratedAt:  time.Now().Format(time.RFC3339),
		Entries:      filtered,
	})
}

// HandleScenarioProgress returns playback progress and the clock position.
// GET /api/scenario/progress
func (ah *APIHandler) HandleScenarioProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ah.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	completed, total := ah.engine.Scenario().Progress()
	snap := ah.engine.Scenario().Snapshot()
	ah.writeJSON(w, map[string]any{
		"scenario_id": snap.ScenarioID,
		"completed":   completed,
		"total":       total,
		"is_complete": snap.IsComplete,
		"time":        ah.engine.Clock().Time(),
		"speed":       ah.engine.Clock().Speed(),
		"state":       ah.engine.Clock().State().String(),
		"phase":       ah.engine.State().Phase(),
	})
}

// HandleWorldSummary returns the aggregate world picture.
// GET /api/world/summary
func (ah *APIHandler) HandleWorldSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ah.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ah.writeJSON(w, map[string]any{
		"summary": ah.world.Summarize(),
		"nuclear": ah.world.NuclearCapacity(),
	})
}

// HandleWorldLocations returns every location's current state.
// GET /api/world/locations
func (ah *APIHandler) HandleWorldLocations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ah.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ah.writeJSON(w, map[string]any{
		"locations": ah.world.Locations(),
		"nations":   ah.world.Nations(),
	})
}

// HandleFeeds returns the latest entries of both narrative feeds.
// GET /api/feeds?limit=N
func (ah *APIHandler) HandleFeeds(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ah.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}
	ah.writeJSON(w, map[string]any{
		"alien": ah.alienFeed.Latest(limit),
		"human": ah.humanFeed.Latest(limit),
	})
}

// HandleResources returns the fleet resource pools.
// GET /api/fleet/resources
func (ah *APIHandler) HandleResources(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ah.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ah.writeJSON(w, map[string]any{
		"resources": ah.engine.Resources().Snapshot(),
		"stats":     ah.engine.State().Snapshot().Stats,
	})
}

// RegisterRoutes sets up the read-only API routes.
func (ah *APIHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/replay", ah.HandleReplay)
	mux.HandleFunc("/api/scenario/progress", ah.HandleScenarioProgress)
	mux.HandleFunc("/api/world/summary", ah.HandleWorldSummary)
	mux.HandleFunc("/api/world/locations", ah.HandleWorldLocations)
	mux.HandleFunc("/api/feeds", ah.HandleFeeds)
	mux.HandleFunc("/api/fleet/resources", ah.HandleResources)
}

func (ah *APIHandler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		ah.logger.Error("failed to encode API response", zap.Error(err))
	}
}

// jsonError sends an error response.
func (ah *APIHandler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
