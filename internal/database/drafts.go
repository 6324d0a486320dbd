// internal/database/drafts.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mildmongrel/thicket/internal/cache"
	"github.com/mildmongrel/thicket/internal/room"
)

// Draft statuses.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusAbandoned  = "abandoned"
)

// DraftStore persists draft results and history.
type DraftStore struct {
	db Conn
}

func NewDraftStore(db Conn) *DraftStore {
	return &DraftStore{db: db}
}

// RecordDraftDecks marks the draft completed and stores every deck, in one
// transaction.
func (s *DraftStore) RecordDraftDecks(ctx context.Context, roomID uuid.UUID, roomName string, decks []room.DeckRecord) error {
	err := pgx.BeginTxFunc(ctx, s.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			INSERT INTO drafts (id, name, status, end_time)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (id)
			DO UPDATE SET name = EXCLUDED.name, status = EXCLUDED.status, end_time = NOW()
		`
		if _, err := tx.Exec(ctx, q, roomID, roomName, StatusCompleted); err != nil {
			return fmt.Errorf("upsert draft: %w", err)
		}

		deckQ := `
			INSERT INTO draft_decks (draft_id, chair, player_name, deck_hash, main, sideboard, basic_lands)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (draft_id, chair)
			DO UPDATE SET player_name = EXCLUDED.player_name, deck_hash = EXCLUDED.deck_hash,
				main = EXCLUDED.main, sideboard = EXCLUDED.sideboard, basic_lands = EXCLUDED.basic_lands
		`
		for _, d := range decks {
			main, err := json.Marshal(d.Main)
			if err != nil {
				return err
			}
			side, err := json.Marshal(d.Sideboard)
			if err != nil {
				return err
			}
			lands, err := json.Marshal(d.BasicLands)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, deckQ, roomID, d.Chair, d.Name, d.Hash, main, side, lands); err != nil {
				return fmt.Errorf("insert deck for chair %d: %w", d.Chair, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record decks for draft %v: %w", roomID, err)
	}
	return nil
}

// InsertDraftEvents writes a batch of queued events in one transaction,
// creating draft rows as needed. A draft_completed event finalizes its draft.
func (s *DraftStore) InsertDraftEvents(ctx context.Context, records []cache.DraftEventRecord) error {
	return pgx.BeginTxFunc(ctx, s.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range records {
			if err := insertDraftEventTx(ctx, tx, rec); err != nil {
				return fmt.Errorf("insertDraftEventTx: %w", err)
			}
		}
		return nil
	})
}

func insertDraftEventTx(ctx context.Context, tx pgx.Tx, rec cache.DraftEventRecord) error {
	upsertQ := `
		INSERT INTO drafts (id, status)
		VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := tx.Exec(ctx, upsertQ, rec.RoomID, StatusInProgress); err != nil {
		return err
	}

	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return err
	}
	eventQ := `
		INSERT INTO draft_events (draft_id, event_index, chair, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (draft_id, event_index) DO NOTHING
	`
	_, err = tx.Exec(ctx, eventQ, rec.RoomID, rec.EventIndex, rec.Chair, rec.EventType, payload, time.UnixMilli(rec.Timestamp))
	if err != nil {
		return err
	}

	if rec.EventType == room.EventDraftCompleted {
		finalizeQ := `
			UPDATE drafts
			SET status = $2, end_time = NOW()
			WHERE id = $1 AND status = $3
		`
		if _, err := tx.Exec(ctx, finalizeQ, rec.RoomID, StatusCompleted, StatusInProgress); err != nil {
			return err
		}
	}
	return nil
}

// MarkDraftAbandoned marks a draft still in progress as abandoned.
func (s *DraftStore) MarkDraftAbandoned(ctx context.Context, roomID uuid.UUID) error {
	q := `
		UPDATE drafts
		SET status = $2, end_time = NOW()
		WHERE id = $1 AND status = $3
	`
	if _, err := s.db.Exec(ctx, q, roomID, StatusAbandoned, StatusInProgress); err != nil {
		return fmt.Errorf("failed to mark draft %v abandoned: %w", roomID, err)
	}
	return nil
}
