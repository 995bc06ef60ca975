package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/MRamiBalles/CieloRoto/server/internal/events"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := InitSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("InitSQLite failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestJournalAppendAndQuery(t *testing.T) {
	db := openTestDB(t)
	repo := NewSQLiteJournalRepository(db)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	recs := []JournalRecord{
		{ID: "r1", At: base, Topic: "event.triggered", GameDay: 1, Payload: `{"event":"ev1"}`},
		{ID: "r2", At: base.Add(time.Second), Topic: "feed.entry", GameDay: 1, Payload: `{"headline":"h"}`},
		{ID: "r3", At: base.Add(2 * time.Second), Topic: "event.triggered", GameDay: 2, Payload: `{"event":"ev2"}`},
	}
	for _, rec := range recs {
		if err := repo.Append(ctx, rec); err != nil {
			t.Fatalf("Append(%s) failed: %v", rec.ID, err)
		}
	}

	all, err := repo.GetAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(all))
	}
	if all[0].ID != "r1" || all[2].ID != "r3" {
		t.Errorf("Expected append order, got %v", all)
	}

	day1, err := repo.GetByGameDay(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(day1) != 2 {
		t.Errorf("Expected 2 records on day 1, got %d", len(day1))
	}

	triggered, err := repo.GetByTopic(ctx, "event.triggered")
	if err != nil {
		t.Fatal(err)
	}
	if len(triggered) != 2 || triggered[1].Payload != `{"event":"ev2"}` {
		t.Errorf("Wrong topic query result: %v", triggered)
	}
}

func TestJournalRejectsDuplicateID(t *testing.T) {
	db := openTestDB(t)
	repo := NewSQLiteJournalRepository(db)
	ctx := context.Background()

	rec := JournalRecord{ID: "r1", At: time.Now(), Topic: "event.triggered", GameDay: 1, Payload: `{}`}
	if err := repo.Append(ctx, rec); err != nil {
		t.Fatal(err)
	}
	if err := repo.Append(ctx, rec); err == nil {
		t.Error("Expected a duplicate primary key to fail")
	}
}

func TestJournalPersisterSerializesPayload(t *testing.T) {
	db := openTestDB(t)
	repo := NewSQLiteJournalRepository(db)
	p := NewJournalPersister(repo)

	err := p.Append(events.Entry{
		ID:      "e1",
		At:      time.Now(),
		Topic:   events.TopicFeedEntry,
		GameDay: 2,
		Payload: events.FeedEntryPayload{Feed: "human", EventID: "ev1", Headline: "Breaking"},
	})
	if err != nil {
		t.Fatal(err)
	}

	recs, err := repo.GetByTopic(context.Background(), string(events.TopicFeedEntry))
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(recs))
	}
	if recs[0].GameDay != 2 {
		t.Errorf("Expected game day 2, got %d", recs[0].GameDay)
	}
	var stored events.FeedEntryPayload
	if err := json.Unmarshal([]byte(recs[0].Payload), &stored); err != nil {
		t.Fatalf("Stored payload is not valid JSON: %v", err)
	}
	if stored.Feed != "human" || stored.EventID != "ev1" || stored.Headline != "Breaking" {
		t.Errorf("Wrong stored payload: %+v", stored)
	}
}

func TestSaveSlotPutOverwrites(t *testing.T) {
	db := openTestDB(t)
	repo := NewSQLiteSaveRepository(db)
	ctx := context.Background()

	if err := repo.Put(ctx, "quicksave", 1, "aaa", []byte("first")); err != nil {
		t.Fatal(err)
	}
	if err := repo.Put(ctx, "quicksave", 1, "bbb", []byte("second")); err != nil {
		t.Fatal(err)
	}

	version, checksum, payload, err := repo.Get(ctx, "quicksave")
	if err != nil {
		t.Fatal(err)
	}
	if version != 1 || checksum != "bbb" || string(payload) != "second" {
		t.Errorf("Expected the overwritten save, got v%d %s %q", version, checksum, payload)
	}

	slots, err := repo.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 1 || slots[0].Slot != "quicksave" {
		t.Errorf("Expected a single slot after overwrite, got %v", slots)
	}
}

func TestSaveSlotGetMissing(t *testing.T) {
	db := openTestDB(t)
	repo := NewSQLiteSaveRepository(db)

	if _, _, _, err := repo.Get(context.Background(), "nope"); err == nil {
		t.Error("Expected an error for a missing slot")
	}
}
