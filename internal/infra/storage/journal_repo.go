package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/MRamiBalles/CieloRoto/server/internal/events"
)

// SQLiteJournalRepository implements JournalRepository for SQLite.
type SQLiteJournalRepository struct {
	db *sql.DB
}

func NewSQLiteJournalRepository(db *sql.DB) *SQLiteJournalRepository {
	return &SQLiteJournalRepository{db: db}
}

func (r *SQLiteJournalRepository) Append(ctx context.Context, rec JournalRecord) error {
	query := `
		INSERT INTO journal (id, at, topic, game_day, payload)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, rec.ID, rec.At, rec.Topic, rec.GameDay, rec.Payload)
	if err != nil {
		return fmt.Errorf("failed to append journal record: %w", err)
	}
	return nil
}

func (r *SQLiteJournalRepository) getMany(ctx context.Context, query string, args ...any) ([]JournalRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []JournalRecord
	for rows.Next() {
		var rec JournalRecord
		if err := rows.Scan(&rec.ID, &rec.At, &rec.Topic, &rec.GameDay, &rec.Payload); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *SQLiteJournalRepository) GetAll(ctx context.Context) ([]JournalRecord, error) {
	query := `SELECT id, at, topic, game_day, payload FROM journal ORDER BY at ASC`
	return r.getMany(ctx, query)
}

func (r *SQLiteJournalRepository) GetByGameDay(ctx context.Context, day int) ([]JournalRecord, error) {
	query := `SELECT id, at, topic, game_day, payload FROM journal WHERE game_day = ? ORDER BY at ASC`
	return r.getMany(ctx, query, day)
}

func (r *SQLiteJournalRepository) GetByTopic(ctx context.Context, topic string) ([]JournalRecord, error) {
	query := `SELECT id, at, topic, game_day, payload FROM journal WHERE topic = ? ORDER BY at ASC`
	return r.getMany(ctx, query, topic)
}

// JournalPersister adapts a JournalRepository to the write-through interface
// the in-memory journal expects. Payloads are serialized to JSON here so the
// ledger stores plain text rows.
type JournalPersister struct {
	repo JournalRepository
}

func NewJournalPersister(repo JournalRepository) *JournalPersister {
	return &JournalPersister{repo: repo}
}

func (p *JournalPersister) Append(entry events.Entry) error {
	body, err := json.Marshal(entry.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal journal payload: %w", err)
	}
	return p.repo.Append(context.Background(), JournalRecord{
		ID:      entry.ID,
		At:      entry.At,
		Topic:   string(entry.Topic),
		GameDay: entry.GameDay,
		Payload: string(body),
	})
}
