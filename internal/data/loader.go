// Package data loads the authored world and scenario files. Loaders are
// strict about structure but forgiving about individual records: a malformed
// record is logged and skipped so one typo cannot take the boot down.
package data

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/MRamiBalles/CieloRoto/server/internal/domain/location"
	"github.com/MRamiBalles/CieloRoto/server/internal/domain/nation"
	"github.com/MRamiBalles/CieloRoto/server/internal/domain/rules"
	"github.com/MRamiBalles/CieloRoto/server/internal/domain/scenario"
	"github.com/MRamiBalles/CieloRoto/server/internal/platform/logger"
)

type locationsFile struct {
	Locations []location.Definition `yaml:"locations"`
}

type nationsFile struct {
	Nations []nation.Definition `yaml:"nations"`
}

// LoadLocations reads the location catalogue. Records without an id, with a
// duplicate id, or with out-of-range coordinates are skipped with a warning.
func LoadLocations(path string, log *logger.Logger) ([]location.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read locations %s: %w", path, err)
	}
	var file locationsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse locations %s: %w", path, err)
	}

	seen := make(map[string]bool, len(file.Locations))
	out := make([]location.Definition, 0, len(file.Locations))
	for _, def := range file.Locations {
		switch {
		case def.ID == "" || def.Name == "":
			log.Warn("location record missing id or name, skipped", zap.String("id", def.ID))
		case seen[def.ID]:
			log.Warn("duplicate location id, skipped", zap.String("id", def.ID))
		case !rules.ValidLatLng(def.Lat, def.Lng):
			log.Warn("location has invalid coordinates, skipped",
				zap.String("id", def.ID),
				zap.Float64("lat", def.Lat),
				zap.Float64("lng", def.Lng),
			)
		default:
			seen[def.ID] = true
			out = append(out, def)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("locations %s: no valid records", path)
	}
	return out, nil
}

// LoadNations reads the nation catalogue with the same skip-and-warn policy.
func LoadNations(path string, log *logger.Logger) ([]nation.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read nations %s: %w", path, err)
	}
	var file nationsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse nations %s: %w", path, err)
	}

	seen := make(map[string]bool, len(file.Nations))
	out := make([]nation.Definition, 0, len(file.Nations))
	for _, def := range file.Nations {
		switch {
		case def.ID == "" || def.Name == "":
			log.Warn("nation record missing id or name, skipped", zap.String("id", def.ID))
		case seen[def.ID]:
			log.Warn("duplicate nation id, skipped", zap.String("id", def.ID))
		default:
			seen[def.ID] = true
			out = append(out, def)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("nations %s: no valid records", path)
	}
	return out, nil
}

// LoadScenario reads one authored timeline with the same skip-and-warn
// policy as the catalogues: invalid and duplicate events are dropped with a
// warning. The load fails only when the file itself is unreadable, the
// header is broken, or no valid event survives. scenario-lint is the strict
// pre-ship check; the server plays what it can.
func LoadScenario(path string, log *logger.Logger) (*scenario.Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}
	var s scenario.Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if s.ID == "" || s.Name == "" {
		return nil, fmt.Errorf("scenario %s: missing id or name", path)
	}

	seen := make(map[string]bool, len(s.Events))
	out := make([]scenario.Event, 0, len(s.Events))
	for i := range s.Events {
		ev := s.Events[i]
		if err := ev.Validate(); err != nil {
			log.Warn("invalid scenario event, skipped",
				zap.String("scenario", s.ID),
				zap.String("id", ev.ID),
				zap.Error(err),
			)
			continue
		}
		if seen[ev.ID] {
			log.Warn("duplicate event id, skipped",
				zap.String("scenario", s.ID),
				zap.String("id", ev.ID),
			)
			continue
		}
		seen[ev.ID] = true
		out = append(out, ev)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("scenario %s: no valid events", path)
	}
	if dropped := len(s.Events) - len(out); dropped > 0 {
		log.Warn("scenario loaded with dropped events",
			zap.String("scenario", s.ID),
			zap.Int("dropped", dropped),
		)
	}
	s.Events = out

	log.Info("scenario file loaded",
		zap.String("scenario", s.ID),
		zap.Int("events", len(s.Events)),
		zap.Float64("duration_hours", s.Duration()),
	)
	return &s, nil
}
