package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MRamiBalles/CieloRoto/server/internal/platform/logger"
)

// Entry is one journaled notification. The journal is the immutable record
// of the narrative: triggered events, feed lines, scenario lifecycle, phase
// changes and weapon effects. High-frequency clock topics are not journaled.
type Entry struct {
	ID      string    `json:"id"`
	At      time.Time `json:"at"`
	Topic   Topic     `json:"topic"`
	GameDay int       `json:"game_day"`
	Payload any       `json:"payload"`
}

// Persister writes entries through to durable storage.
type Persister interface {
	Append(entry Entry) error
}

// durableTopics are the notifications worth keeping for replay. The set is
// deliberate: everything here is meaningful after the fact, nothing here
// fires per frame.
var durableTopics = []Topic{
	TopicScenarioLoaded,
	TopicEventTriggered,
	TopicScenarioComplete,
	TopicFeedEntry,
	TopicWeaponEffect,
	TopicPhaseChanged,
	TopicSessionSaved,
	TopicSessionLoaded,
}

// Journal is the in-memory append-only log of durable notifications, with
// write-through persistence. Appends happen synchronously on the publish
// path so the on-disk order always matches the dispatch order.
type Journal struct {
	mu        sync.RWMutex
	log       *logger.Logger
	entries   []Entry
	persister Persister
}

// NewJournal creates a journal with an optional persister.
func NewJournal(log *logger.Logger, persister Persister) *Journal {
	return &Journal{
		log:       log,
		entries:   make([]Entry, 0, 256),
		persister: persister,
	}
}

// WireTo subscribes the journal to every durable topic on the bus.
func (j *Journal) WireTo(bus *Bus) {
	for _, topic := range durableTopics {
		t := topic
		bus.Subscribe(t, func(payload any) {
			j.Record(t, payload)
		})
	}
}

// Record appends one entry. The game day is extracted from the payload when
// it carries a GameTime; lifecycle payloads without one record day 0.
func (j *Journal) Record(topic Topic, payload any) {
	entry := Entry{
		ID:      uuid.NewString(),
		At:      time.Now(),
		Topic:   topic,
		GameDay: gameDayOf(payload),
		Payload: payload,
	}

	j.mu.Lock()
	j.entries = append(j.entries, entry)
	j.mu.Unlock()

	if j.persister != nil {
		if err := j.persister.Append(entry); err != nil {
			j.log.Error("journal write failed",
				zap.String("topic", string(topic)),
				zap.Error(err),
			)
		}
	}
}

// gameDayOf switches over the closed payload catalogue.
func gameDayOf(payload any) int {
	switch p := payload.(type) {
	case EventTriggeredPayload:
		return p.Time.Day
	case FeedEntryPayload:
		return p.Time.Day
	case WeaponEffectPayload:
		return p.Time.Day
	case PhaseChangedPayload:
		return p.Time.Day
	default:
		return 0
	}
}

// Replay returns a copy of the full history for state inspection.
func (j *Journal) Replay() []Entry {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]Entry, len(j.entries))
	copy(out, j.entries)
	return out
}

// Tail returns a copy of the most recent n entries (all of them when fewer
// exist). Used to catch up late-joining spectators.
func (j *Journal) Tail(n int) []Entry {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if n > len(j.entries) {
		n = len(j.entries)
	}
	out := make([]Entry, n)
	copy(out, j.entries[len(j.entries)-n:])
	return out
}

// Len returns the number of journaled entries.
func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.entries)
}
