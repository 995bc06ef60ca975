package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLiteSaveRepository implements SaveSlotRepository for SQLite. It also
// satisfies the engine's SaveStore interface, so it plugs straight into the
// save manager.
type SQLiteSaveRepository struct {
	db *sql.DB
}

func NewSQLiteSaveRepository(db *sql.DB) *SQLiteSaveRepository {
	return &SQLiteSaveRepository{db: db}
}

func (r *SQLiteSaveRepository) Put(ctx context.Context, slot string, version int, checksum string, payload []byte) error {
	query := `
		INSERT INTO save_slots (slot, version, checksum, payload, saved_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			version=excluded.version,
			checksum=excluded.checksum,
			payload=excluded.payload,
			saved_at=excluded.saved_at
	`
	_, err := r.db.ExecContext(ctx, query, slot, version, checksum, payload, time.Now())
	if err != nil {
		return fmt.Errorf("failed to write save slot %s: %w", slot, err)
	}
	return nil
}

func (r *SQLiteSaveRepository) Get(ctx context.Context, slot string) (int, string, []byte, error) {
	query := `SELECT version, checksum, payload FROM save_slots WHERE slot = ?`
	var version int
	var checksum string
	var payload []byte
	err := r.db.QueryRowContext(ctx, query, slot).Scan(&version, &checksum, &payload)
	if err != nil {
		return 0, "", nil, fmt.Errorf("failed to read save slot %s: %w", slot, err)
	}
	return version, checksum, payload, nil
}

func (r *SQLiteSaveRepository) List(ctx context.Context) ([]SaveSlot, error) {
	query := `SELECT slot, version, checksum, saved_at FROM save_slots ORDER BY saved_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []SaveSlot
	for rows.Next() {
		var s SaveSlot
		if err := rows.Scan(&s.Slot, &s.Version, &s.Checksum, &s.SavedAt); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}
