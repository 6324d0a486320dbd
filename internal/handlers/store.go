package handlers

import (
	"sync"

	"github.com/google/uuid"
	"github.com/mildmongrel/thicket/internal/room"
)

// RoomStore keeps the live rooms by id.
type RoomStore struct {
	mu    sync.Mutex
	rooms map[uuid.UUID]*room.Room
}

func NewRoomStore() *RoomStore {
	return &RoomStore{rooms: make(map[uuid.UUID]*room.Room)}
}

func (s *RoomStore) Add(r *room.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[r.ID()] = r
}

func (s *RoomStore) Get(id uuid.UUID) (*room.Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, exists := s.rooms[id]
	return r, exists
}

func (s *RoomStore) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, id)
}

func (s *RoomStore) List() []*room.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*room.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r)
	}
	return out
}

func (s *RoomStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}
