package room

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mildmongrel/thicket/internal/catalog"
)

// Draft event types published to the EventSink.
const (
	EventRoomCreated      = "room_created"
	EventDraftStarted     = "draft_started"
	EventRoundStarted     = "round_started"
	EventCardSelected     = "card_selected"
	EventCardAutoselected = "card_autoselected"
	EventDraftCompleted   = "draft_completed"
	EventDraftError       = "draft_error"
	EventRoomExpired      = "room_expired"
)

// Event is one entry of a room's history. Index increases by one per event
// within a room.
type Event struct {
	RoomID    uuid.UUID
	Index     int
	Chair     int
	Type      string
	Payload   map[string]interface{}
	Timestamp time.Time
}

// EventSink receives room history, typically a queue read by the historian.
type EventSink interface {
	Publish(ctx context.Context, ev Event) error
}

// DeckRecord is the final deck of one human chair.
type DeckRecord struct {
	Chair      int
	Name       string
	Hash       string
	Main       []catalog.Card
	Sideboard  []catalog.Card
	BasicLands map[string]map[string]int
}

// ResultStore persists the decks of a completed draft.
type ResultStore interface {
	RecordDraftDecks(ctx context.Context, roomID uuid.UUID, roomName string, decks []DeckRecord) error
}

// NopEventSink discards events.
type NopEventSink struct{}

func (NopEventSink) Publish(context.Context, Event) error { return nil }

// NopResultStore discards results.
type NopResultStore struct{}

func (NopResultStore) RecordDraftDecks(context.Context, uuid.UUID, string, []DeckRecord) error {
	return nil
}
