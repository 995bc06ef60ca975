// Package feeds keeps the two narrative streams the diorama shows side by
// side: the invaders' command feed and the human news ticker.
package feeds

import (
	"sync"

	"github.com/google/uuid"

	"github.com/MRamiBalles/CieloRoto/server/internal/domain/scenario"
	"github.com/MRamiBalles/CieloRoto/server/internal/events"
	"github.com/MRamiBalles/CieloRoto/server/internal/platform/logger"
)

// Perspective names which side of the invasion a feed narrates.
type Perspective string

const (
	PerspectiveAlien Perspective = "alien"
	PerspectiveHuman Perspective = "human"
)

// Entry is one line of a feed.
type Entry struct {
	ID         string              `json:"id"`
	EventID    string              `json:"event_id"`
	Headline   string              `json:"headline"`
	Detail     string              `json:"detail,omitempty"`
	Importance scenario.Importance `json:"importance"`
	Time       events.GameTime     `json:"time"`
}

// Feed is a bounded, append-only stream of entries for one perspective.
// When full, the oldest entry falls off. Not every event posts to every
// feed: an event with no text for this perspective is skipped silently.
type Feed struct {
	mu          sync.Mutex
	bus         *events.Bus
	log         *logger.Logger
	perspective Perspective
	capacity    int
	entries     []Entry
}

// New creates an empty feed. Capacity values below 1 fall back to 100.
func New(bus *events.Bus, log *logger.Logger, p Perspective, capacity int) *Feed {
	if capacity < 1 {
		capacity = 100
	}
	return &Feed{
		bus:         bus,
		log:         log,
		perspective: p,
		capacity:    capacity,
	}
}

// Post narrates a triggered event from this feed's perspective. The alien
// feed carries the invaders' message; the human feed carries the headline
// and detail. Events with nothing to say here are dropped.
func (f *Feed) Post(ev scenario.Event, at events.GameTime) {
	var headline, detail string
	switch f.perspective {
	case PerspectiveAlien:
		if ev.AlienMessage == "" {
			return
		}
		headline = ev.AlienMessage
	case PerspectiveHuman:
		if ev.NewsHeadline == "" {
			return
		}
		headline = ev.NewsHeadline
		detail = ev.NewsDetail
	default:
		return
	}

	importance := ev.Importance
	if importance == "" {
		importance = scenario.ImportanceMajor
	}
	entry := Entry{
		ID:         uuid.NewString(),
		EventID:    ev.ID,
		Headline:   headline,
		Detail:     detail,
		Importance: importance,
		Time:       at,
	}

	f.mu.Lock()
	f.entries = append(f.entries, entry)
	if len(f.entries) > f.capacity {
		f.entries = f.entries[len(f.entries)-f.capacity:]
	}
	f.mu.Unlock()

	f.bus.Publish(events.TopicFeedEntry, events.FeedEntryPayload{
		Feed:       string(f.perspective),
		EventID:    entry.EventID,
		Headline:   entry.Headline,
		Detail:     entry.Detail,
		Importance: entry.Importance,
		Time:       at,
	})
}

// Entries returns a copy of the whole feed, oldest first.
func (f *Feed) Entries() []Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Entry, len(f.entries))
	copy(out, f.entries)
	return out
}

// Latest returns a copy of the newest n entries, oldest first.
func (f *Feed) Latest(n int) []Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n > len(f.entries) {
		n = len(f.entries)
	}
	out := make([]Entry, n)
	copy(out, f.entries[len(f.entries)-n:])
	return out
}

// Len returns the number of retained entries.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}
