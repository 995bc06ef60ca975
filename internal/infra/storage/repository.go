// Package storage provides the persistence layer for the diorama server.
// This package implements the repository pattern to keep the domain pure.
package storage

import (
	"context"
	"time"
)

// JournalRecord mirrors a journal entry for persistence. The events package
// does NOT import this; the adapter in journal_repo.go converts.
type JournalRecord struct {
	ID      string    `json:"id" db:"id"`
	At      time.Time `json:"at" db:"at"`
	Topic   string    `json:"topic" db:"topic"`
	GameDay int       `json:"game_day" db:"game_day"`
	Payload string    `json:"payload" db:"payload"` // JSON body
}

// JournalRepository is the durable side of the narrative journal.
type JournalRepository interface {
	// Append adds a record to the immutable ledger.
	Append(ctx context.Context, rec JournalRecord) error

	// GetAll retrieves the full ledger in append order (for replay).
	GetAll(ctx context.Context) ([]JournalRecord, error)

	// GetByGameDay retrieves all records from one in-game day.
	GetByGameDay(ctx context.Context, day int) ([]JournalRecord, error)

	// GetByTopic retrieves all records of one topic.
	GetByTopic(ctx context.Context, topic string) ([]JournalRecord, error)
}

// SaveSlot is one persisted session save.
type SaveSlot struct {
	Slot     string    `json:"slot" db:"slot"`
	Version  int       `json:"version" db:"version"`
	Checksum string    `json:"checksum" db:"checksum"`
	Payload  []byte    `json:"-" db:"payload"`
	SavedAt  time.Time `json:"saved_at" db:"saved_at"`
}

// SaveSlotRepository persists session saves keyed by slot name. Put replaces
// any existing save in the slot.
type SaveSlotRepository interface {
	Put(ctx context.Context, slot string, version int, checksum string, payload []byte) error
	Get(ctx context.Context, slot string) (version int, checksum string, payload []byte, err error)
	List(ctx context.Context) ([]SaveSlot, error)
}
