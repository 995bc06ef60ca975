// Package main - scenario-lint
// Validates authored scenario files against the world catalogue before they
// ship: structural validation, unknown location references, ordering issues.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/MRamiBalles/CieloRoto/server/internal/data"
	"github.com/MRamiBalles/CieloRoto/server/internal/domain/scenario"
	"github.com/MRamiBalles/CieloRoto/server/internal/platform/logger"
)

func main() {
	dataDir := flag.String("data", "data", "directory holding locations.yaml and nations.yaml")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: scenario-lint [-data DIR] SCENARIO.yaml ...")
		os.Exit(2)
	}

	log := logger.NewNop()

	locations, err := data.LoadLocations(filepath.Join(*dataDir, "locations.yaml"), log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	known := make(map[string]bool, len(locations))
	for _, def := range locations {
		known[def.ID] = true
	}

	failures := 0
	for _, path := range flag.Args() {
		if problems := lint(path, known); len(problems) > 0 {
			failures++
			fmt.Printf("FAIL %s\n", path)
			for _, p := range problems {
				fmt.Printf("  - %s\n", p)
			}
		} else {
			fmt.Printf("OK   %s\n", path)
		}
	}

	if failures > 0 {
		os.Exit(1)
	}
}

// lint validates one scenario file strictly. Unlike the server's loader it
// never drops records: anything scenario.Validate rejects is a failure here.
func lint(path string, knownLocations map[string]bool) []string {
	var problems []string

	raw, err := os.ReadFile(path)
	if err != nil {
		return []string{err.Error()}
	}
	var s scenario.Scenario
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return []string{err.Error()}
	}
	if err := s.Validate(); err != nil {
		problems = append(problems, err.Error())
	}

	lastTime := -1.0
	for _, ev := range s.Events {
		if ev.LocationID != "" && !knownLocations[ev.LocationID] {
			problems = append(problems, fmt.Sprintf("event %s references unknown location %q", ev.ID, ev.LocationID))
		}
		if ev.Effect != nil && ev.Effect.LocationID != "" && !knownLocations[ev.Effect.LocationID] {
			problems = append(problems, fmt.Sprintf("event %s effect targets unknown location %q", ev.ID, ev.Effect.LocationID))
		}
		if ev.Time < lastTime {
			// Out-of-order authoring is legal (the engine sorts) but almost
			// always a typo in the hour column, so flag it.
			problems = append(problems, fmt.Sprintf("event %s is authored out of order (%.2fh after %.2fh)", ev.ID, ev.Time, lastTime))
		}
		lastTime = ev.Time
		problems = append(problems, lintNarration(ev)...)
	}

	return problems
}

// lintNarration flags events that would be invisible: no strike, no effect
// and nothing for either feed.
func lintNarration(ev scenario.Event) []string {
	if ev.AlienMessage == "" && ev.NewsHeadline == "" && ev.Effect == nil && ev.LocationID == "" {
		return []string{fmt.Sprintf("event %s has no observable outcome", ev.ID)}
	}
	return nil
}
