package room

import (
	"context"
	"io"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mildmongrel/thicket/internal/catalog"
	"github.com/mildmongrel/thicket/internal/protocol"
	"github.com/mildmongrel/thicket/internal/roomconfig"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func testCatalog() *catalog.Catalog {
	var cards []catalog.SetCard
	for _, n := range []string{"c1", "c2", "c3", "c4", "c5", "c6", "c7", "c8", "c9", "c10"} {
		cards = append(cards, catalog.SetCard{Name: n, Rarity: catalog.RarityCommon})
	}
	return catalog.New(catalog.Set{
		Code:         "TST",
		BoosterSlots: []catalog.Slot{catalog.SlotCommon, catalog.SlotCommon, catalog.SlotCommon, catalog.SlotCommon, catalog.SlotCommon},
		Cards:        cards,
	})
}

func boosterConfig() roomconfig.RoomConfig {
	return roomconfig.RoomConfig{
		Name:       "test room",
		ChairCount: 2,
		BotCount:   1,
		Rounds: []roomconfig.RoundSpec{{Booster: &roomconfig.BoosterSpec{
			TimeSeconds: 3,
			CardBundles: []roomconfig.CardBundle{{SetCode: "TST", Method: roomconfig.MethodBooster}},
		}}},
	}
}

func gridConfig() roomconfig.RoomConfig {
	return roomconfig.RoomConfig{
		Name:       "grid room",
		ChairCount: 2,
		BotCount:   1,
		Rounds: []roomconfig.RoundSpec{{Grid: &roomconfig.GridSpec{
			TimeSeconds: 3,
			CardBundles: []roomconfig.CardBundle{{
				Method:   roomconfig.MethodSingleRandom,
				Quantity: 9,
				CustomCards: []roomconfig.CardQuantity{
					{Name: "Island", SetCode: "TST", Quantity: 20},
				},
			}},
		}}},
	}
}

type fakeTimer struct {
	d       time.Duration
	f       func()
	every   bool
	stopped atomic.Bool
}

func (t *fakeTimer) Stop() bool { return !t.stopped.Swap(true) }

type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) add(t *fakeTimer) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return s.add(&fakeTimer{d: d, f: f})
}

func (s *fakeScheduler) Every(d time.Duration, f func()) Timer {
	return s.add(&fakeTimer{d: d, f: f, every: true})
}

// latest returns the most recently armed timer of the given kind.
func (s *fakeScheduler) latest(t *testing.T, every bool) *fakeTimer {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.timers) - 1; i >= 0; i-- {
		if s.timers[i].every == every {
			return s.timers[i]
		}
	}
	require.FailNow(t, "no timer armed")
	return nil
}

type mockConn struct {
	mu   sync.Mutex
	msgs []protocol.Message
}

func (c *mockConn) Send(msg protocol.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
}

func (c *mockConn) all(typ string) []protocol.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []protocol.Message
	for _, m := range c.msgs {
		if m.Type == typ {
			out = append(out, m)
		}
	}
	return out
}

func (c *mockConn) last(t *testing.T, typ string) protocol.Message {
	t.Helper()
	msgs := c.all(typ)
	require.NotEmpty(t, msgs, "no %s message", typ)
	return msgs[len(msgs)-1]
}

func (c *mockConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = nil
}

type recordingStore struct {
	mu    sync.Mutex
	decks []DeckRecord
	calls int
}

func (s *recordingStore) RecordDraftDecks(_ context.Context, _ uuid.UUID, _ string, decks []DeckRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.decks = decks
	return nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Publish(_ context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *recordingSink) types() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int)
	for _, ev := range s.events {
		out[ev.Type]++
	}
	return out
}

type testRoom struct {
	*Room
	sched   *fakeScheduler
	store   *recordingStore
	sink    *recordingSink
	expired chan uuid.UUID
}

func newTestRoom(t *testing.T, cfg roomconfig.RoomConfig) *testRoom {
	t.Helper()
	proto, err := roomconfig.NewPrototype(testCatalog(), cfg, testLogger())
	require.NoError(t, err)
	require.Equal(t, roomconfig.StatusOK, proto.Status())

	tr := &testRoom{
		sched:   &fakeScheduler{},
		store:   &recordingStore{},
		sink:    &recordingSink{},
		expired: make(chan uuid.UUID, 1),
	}
	r, err := New(uuid.New(), proto, Options{
		Scheduler: tr.sched,
		Events:    tr.sink,
		Results:   tr.store,
		Rand:      rand.New(rand.NewSource(1)),
		OnExpired: func(id uuid.UUID) { tr.expired <- id },
		Logger:    testLogger(),
	})
	require.NoError(t, err)
	tr.Room = r
	t.Cleanup(r.Close)
	return tr
}

// sync waits until every operation posted so far has run.
func (tr *testRoom) sync(t *testing.T) {
	t.Helper()
	require.NoError(t, tr.call(func() {}))
}

func (tr *testRoom) send(t *testing.T, conn Connection, typ string, payload string) error {
	t.Helper()
	env, err := protocol.Decode([]byte(`{"type":"` + typ + `","payload":` + payload + `}`))
	require.NoError(t, err)
	return tr.HandleMessage(conn, env)
}

// inLoop runs fn on the room loop.
func (tr *testRoom) inLoop(t *testing.T, fn func()) {
	t.Helper()
	require.NoError(t, tr.call(fn))
}

func (tr *testRoom) fireTicks(t *testing.T, n int) {
	t.Helper()
	ticker := tr.sched.latest(t, true)
	for i := 0; i < n; i++ {
		ticker.f()
	}
	tr.sync(t)
}
