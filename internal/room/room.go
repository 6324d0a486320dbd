// internal/room/room.go
package room

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mildmongrel/thicket/internal/catalog"
	"github.com/mildmongrel/thicket/internal/draft"
	"github.com/mildmongrel/thicket/internal/protocol"
	"github.com/mildmongrel/thicket/internal/roomconfig"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidPassword = errors.New("invalid room password")
	ErrRoomFull        = errors.New("room is full")
	ErrNotDeparted     = errors.New("chair is not departed")
	ErrNotInRoom       = errors.New("connection is not in the room")
	ErrAlreadyJoined   = errors.New("connection already joined the room")
	ErrUnknownMessage  = errors.New("unknown room message")
	ErrRoomClosed      = errors.New("room is closed")
)

// Timeouts configures the room timers.
type Timeouts struct {
	// Created expires a room nobody ever joined.
	Created time.Duration
	// Abandoned expires a started room once its last connection drops.
	Abandoned time.Duration
	// Empty expires a room that has not started once its last connection
	// drops.
	Empty time.Duration
	// Tick is the draft clock period.
	Tick time.Duration
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		Created:   10 * time.Second,
		Abandoned: 120 * time.Second,
		Empty:     5 * time.Second,
		Tick:      time.Second,
	}
}

// Options are the collaborators of a room. Zero values select the real
// scheduler, no-op sinks and a time-seeded random source.
type Options struct {
	Timeouts  Timeouts
	Scheduler Scheduler
	Events    EventSink
	Results   ResultStore
	Rand      *rand.Rand
	// OnExpired runs on its own goroutine after the room has closed itself.
	OnExpired func(id uuid.UUID)
	Logger    *logrus.Entry
}

// Room hosts one draft. Every operation runs on the room's own goroutine,
// so the draft engine and the players are never touched concurrently.
type Room struct {
	id     uuid.UUID
	proto  *roomconfig.Prototype
	draft  *cardDraft
	logger *logrus.Entry

	players   []Player
	states    []ChairState
	observers []draft.Observer[catalog.Card]
	conns     map[Connection]*Human

	timeouts  Timeouts
	sched     Scheduler
	events    EventSink
	results   ResultStore
	rng       *rand.Rand
	onExpired func(id uuid.UUID)

	expireTimer   Timer
	expireGen     int
	ticker        Timer
	eventIndex    int
	draftComplete bool

	ops       chan func()
	done      chan struct{}
	closed    bool
	closeOnce sync.Once
}

// New builds the draft of a validated prototype, seats the bots and starts
// the room loop. The room expires if nobody joins within Timeouts.Created.
func New(id uuid.UUID, proto *roomconfig.Prototype, opts Options) (*Room, error) {
	if opts.Timeouts == (Timeouts{}) {
		opts.Timeouts = DefaultTimeouts()
	}
	if opts.Scheduler == nil {
		opts.Scheduler = RealScheduler{}
	}
	if opts.Events == nil {
		opts.Events = NopEventSink{}
	}
	if opts.Results == nil {
		opts.Results = NopResultStore{}
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Logger == nil {
		opts.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	logger := opts.Logger.WithField("room", id)

	cfg, err := proto.DraftConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to configure draft: %w", err)
	}
	dispensers, err := proto.Dispensers(opts.Rand)
	if err != nil {
		return nil, fmt.Errorf("failed to create dispensers: %w", err)
	}

	r := &Room{
		id:        id,
		proto:     proto,
		draft:     draft.New(cfg, dispensers, logger.WithField("component", "draft")),
		logger:    logger,
		players:   make([]Player, cfg.ChairCount),
		states:    make([]ChairState, cfg.ChairCount),
		observers: make([]draft.Observer[catalog.Card], cfg.ChairCount),
		conns:     make(map[Connection]*Human),
		timeouts:  opts.Timeouts,
		sched:     opts.Scheduler,
		events:    opts.Events,
		results:   opts.Results,
		rng:       opts.Rand,
		onExpired: opts.OnExpired,
		ops:       make(chan func()),
		done:      make(chan struct{}),
	}
	r.draft.AddObserver(&roomObserver{r: r})

	for i, chair := range botChairs(cfg.ChairCount, proto.BotCount()) {
		bot := NewBot(chair, fmt.Sprintf("bot %d", i+1), r.rng, logger.WithField("chair", chair))
		r.seat(chair, bot)
		r.states[chair] = ChairReady
	}

	r.armExpiration(r.timeouts.Created)
	r.publish(-1, EventRoomCreated, map[string]interface{}{
		"name":       proto.Name(),
		"chairCount": cfg.ChairCount,
		"botCount":   proto.BotCount(),
	})
	logger.Infof("room %q created: chairs=%d bots=%d rounds=%d", proto.Name(), cfg.ChairCount, proto.BotCount(), len(cfg.Rounds))

	go r.run()
	return r, nil
}

func (r *Room) ID() uuid.UUID { return r.id }

func (r *Room) run() {
	for op := range r.ops {
		op()
		if r.closed {
			return
		}
	}
}

// call runs fn on the room loop and waits for it.
func (r *Room) call(fn func()) error {
	finished := make(chan struct{})
	select {
	case r.ops <- func() { fn(); close(finished) }:
	case <-r.done:
		return ErrRoomClosed
	}
	<-finished
	return nil
}

// post queues fn from a timer goroutine. It is dropped once the room closes.
func (r *Room) post(fn func()) {
	select {
	case r.ops <- fn:
	case <-r.done:
	}
}

func (r *Room) seat(chair int, p Player) {
	obs := draft.NewChairObserver[catalog.Card](chair, p)
	r.players[chair] = p
	r.observers[chair] = obs
	r.draft.AddObserver(obs)
}

func (r *Room) unseat(chair int) {
	if obs := r.observers[chair]; obs != nil {
		r.draft.RemoveObserver(obs)
	}
	r.players[chair] = nil
	r.observers[chair] = nil
	r.states[chair] = ChairEmpty
}

// Join seats name in the first empty chair. A name that matches a human
// already in the room rejoins that chair instead.
func (r *Room) Join(conn Connection, name, password string) (chair int, err error) {
	if callErr := r.call(func() { chair, err = r.join(conn, name, password) }); callErr != nil {
		return -1, callErr
	}
	return chair, err
}

// Rejoin binds conn to the departed chair of name.
func (r *Room) Rejoin(conn Connection, name string) (chair int, err error) {
	if callErr := r.call(func() {
		h := r.humanByName(name)
		if h == nil {
			chair, err = -1, ErrNotDeparted
			return
		}
		chair, err = r.rejoin(conn, h)
	}); callErr != nil {
		return -1, callErr
	}
	return chair, err
}

// Leave detaches conn. A chair in a running draft departs and keeps its
// state; before the draft it is emptied.
func (r *Room) Leave(conn Connection) error {
	var err error
	if callErr := r.call(func() { err = r.leave(conn) }); callErr != nil {
		return callErr
	}
	return err
}

// HandleMessage applies an in-room request from conn.
func (r *Room) HandleMessage(conn Connection, env protocol.Envelope) error {
	var err error
	if callErr := r.call(func() { err = r.handle(conn, env) }); callErr != nil {
		return callErr
	}
	return err
}

// Info summarizes the room for room lists.
func (r *Room) Info() (protocol.RoomInfo, error) {
	var info protocol.RoomInfo
	err := r.call(func() {
		occupied := 0
		for _, s := range r.states {
			if s != ChairEmpty {
				occupied++
			}
		}
		info = protocol.RoomInfo{
			RoomID:            r.id.String(),
			Name:              r.proto.Name(),
			ChairCount:        r.proto.ChairCount(),
			BotCount:          r.proto.BotCount(),
			Occupied:          occupied,
			PasswordProtected: r.proto.HasPassword(),
			Stage:             r.stage().Stage,
		}
	})
	return info, err
}

func (r *Room) ChairStates() ([]ChairState, error) {
	var out []ChairState
	err := r.call(func() { out = append(out, r.states...) })
	return out, err
}

// Close shuts the room down without running OnExpired.
func (r *Room) Close() {
	_ = r.call(r.shutdown)
}

// Done is closed once the room loop has stopped.
func (r *Room) Done() <-chan struct{} { return r.done }

func (r *Room) shutdown() {
	r.closeOnce.Do(func() {
		r.stopExpiration()
		r.stopTicker()
		r.closed = true
		close(r.done)
	})
}

func (r *Room) humanByName(name string) *Human {
	for _, p := range r.players {
		if h, ok := p.(*Human); ok && h.name == name {
			return h
		}
	}
	return nil
}

func (r *Room) join(conn Connection, name, password string) (int, error) {
	if _, ok := r.conns[conn]; ok {
		return -1, ErrAlreadyJoined
	}
	if h := r.humanByName(name); h != nil {
		return r.rejoin(conn, h)
	}
	if !r.proto.CheckPassword(password) {
		return -1, ErrInvalidPassword
	}
	chair := -1
	for c, s := range r.states {
		if s == ChairEmpty {
			chair = c
			break
		}
	}
	if chair < 0 {
		return -1, ErrRoomFull
	}

	h := NewHuman(chair, name, conn, r.rng, r.logger.WithFields(logrus.Fields{"chair": chair, "player": name}))
	h.deckChanged = r.deckChanged
	r.seat(chair, h)
	r.states[chair] = ChairStandby
	r.conns[conn] = h
	r.stopExpiration()
	r.logger.Infof("%q joined chair %d", name, chair)

	h.send(protocol.TypeJoinRoomSuccess, protocol.JoinRoomSuccess{
		RoomID: r.id.String(),
		Chair:  chair,
		Config: r.proto.Config(),
	})
	r.broadcastOccupants()
	return chair, nil
}

func (r *Room) rejoin(conn Connection, h *Human) (int, error) {
	if r.states[h.chair] != ChairDeparted {
		return -1, fmt.Errorf("%w: chair %d is %s", ErrNotDeparted, h.chair, r.states[h.chair])
	}
	h.conn = conn
	r.conns[conn] = h
	r.states[h.chair] = ChairActive
	r.stopExpiration()
	r.logger.Infof("%q rejoined chair %d", h.name, h.chair)

	h.send(protocol.TypeJoinRoomSuccess, protocol.JoinRoomSuccess{
		RoomID: r.id.String(),
		Rejoin: true,
		Chair:  h.chair,
		Config: r.proto.Config(),
	})
	r.broadcastOccupants()
	h.sendInventory()
	h.send(protocol.TypeRoomStage, r.stage())
	if r.draft.CurrentRoundKind() == draft.RoundGrid {
		if packID, cells, active, ok := r.draft.PublicState(); ok {
			h.send(protocol.TypePublicState, publicStateMessage(packID, cells, active))
		}
	}
	if packID, cards, ok := r.draft.TopPack(h.chair); ok {
		h.packID, h.pack = packID, cards
		h.send(protocol.TypeCurrentPack, protocol.CurrentPack{PackID: packID, Cards: cards})
	}
	return h.chair, nil
}

func (r *Room) leave(conn Connection) error {
	h, ok := r.conns[conn]
	if !ok {
		return ErrNotInRoom
	}
	delete(r.conns, conn)

	if r.states[h.chair] == ChairActive {
		h.conn = nil
		r.states[h.chair] = ChairDeparted
		r.logger.Infof("%q departed chair %d", h.name, h.chair)
		if len(r.conns) == 0 {
			r.armExpiration(r.timeouts.Abandoned)
		}
	} else {
		r.unseat(h.chair)
		r.logger.Infof("%q left chair %d", h.name, h.chair)
		if len(r.conns) == 0 {
			r.armExpiration(r.timeouts.Empty)
		}
	}
	r.broadcastOccupants()
	return nil
}

func (r *Room) handle(conn Connection, env protocol.Envelope) error {
	h, ok := r.conns[conn]
	if !ok {
		return ErrNotInRoom
	}

	switch env.Type {
	case protocol.TypeDepartRoom:
		return r.leave(conn)
	case protocol.TypeReady:
		var req protocol.ReadyRequest
		if err := env.Into(&req); err != nil {
			return err
		}
		r.ready(h, req.Ready)
	case protocol.TypeNamedCardSelection:
		var req protocol.NamedCardSelection
		if err := env.Into(&req); err != nil {
			return err
		}
		h.SelectNamed(r.draft, req)
	case protocol.TypeIndexedCardSelection:
		var req protocol.IndexedCardSelection
		if err := env.Into(&req); err != nil {
			return err
		}
		h.SelectIndexed(r.draft, req)
	case protocol.TypeNamedCardPreselection:
		var req protocol.NamedCardPreselection
		if err := env.Into(&req); err != nil {
			return err
		}
		h.Preselect(req)
	case protocol.TypeInventoryUpdate:
		var req protocol.InventoryUpdate
		if err := env.Into(&req); err != nil {
			return err
		}
		h.UpdateInventory(req)
	case protocol.TypeChat:
		var req protocol.ChatRequest
		if err := env.Into(&req); err != nil {
			return err
		}
		r.broadcast(protocol.New(protocol.TypeRoomChat, protocol.RoomChat{Sender: h.name, Text: req.Text}))
	default:
		return fmt.Errorf("%w: %s", ErrUnknownMessage, env.Type)
	}
	return nil
}

func (r *Room) ready(h *Human, ready bool) {
	switch s := r.states[h.chair]; {
	case s == ChairReady && !ready:
		r.states[h.chair] = ChairStandby
	case s == ChairStandby && ready:
		r.states[h.chair] = ChairReady
	default:
		return
	}

	for _, s := range r.states {
		if s != ChairReady {
			r.broadcastOccupants()
			return
		}
	}
	r.startDraft()
}

func (r *Room) startDraft() {
	for c := range r.states {
		r.states[c] = ChairActive
	}
	r.broadcastOccupants()
	r.logger.Info("all chairs ready, starting draft")
	r.publish(-1, EventDraftStarted, nil)

	r.ticker = r.sched.Every(r.timeouts.Tick, func() { r.post(r.tick) })
	r.draft.Start()
}

func (r *Room) tick() {
	if r.draft.State() != draft.StateRunning {
		return
	}
	r.draft.Tick()
	r.broadcastChairsInfo()
}

func (r *Room) stopTicker() {
	if r.ticker != nil {
		r.ticker.Stop()
		r.ticker = nil
	}
}

func (r *Room) armExpiration(d time.Duration) {
	r.stopExpiration()
	gen := r.expireGen
	r.expireTimer = r.sched.AfterFunc(d, func() {
		r.post(func() {
			if gen == r.expireGen {
				r.expire()
			}
		})
	})
}

// stopExpiration cancels the timer. The generation bump discards a callback
// that already fired and is waiting to be posted.
func (r *Room) stopExpiration() {
	if r.expireTimer != nil {
		r.expireTimer.Stop()
		r.expireTimer = nil
	}
	r.expireGen++
}

func (r *Room) expire() {
	r.logger.Info("room expired")
	r.publish(-1, EventRoomExpired, nil)
	r.shutdown()
	if r.onExpired != nil {
		go r.onExpired(r.id)
	}
}

func (r *Room) stage() protocol.RoomStage {
	switch r.draft.State() {
	case draft.StateRunning:
		return protocol.RoomStage{Stage: protocol.StageRunning, Round: r.draft.CurrentRound()}
	case draft.StateComplete:
		return protocol.RoomStage{Stage: protocol.StageComplete}
	default:
		return protocol.RoomStage{Stage: protocol.StageNew}
	}
}

func (r *Room) broadcast(msg protocol.Message) {
	for conn := range r.conns {
		conn.Send(msg)
	}
}

func (r *Room) broadcastOccupants() {
	info := protocol.RoomOccupantsInfo{RoomID: r.id.String(), Occupants: make([]protocol.Occupant, len(r.states))}
	for c, s := range r.states {
		occ := protocol.Occupant{Chair: c, State: s.String()}
		if p := r.players[c]; p != nil {
			occ.Name = p.Name()
			occ.IsBot = p.IsBot()
		}
		info.Occupants[c] = occ
	}
	r.broadcast(protocol.New(protocol.TypeRoomOccupantsInfo, info))
}

func (r *Room) broadcastChairsInfo() {
	info := protocol.RoomChairsInfo{Chairs: make([]protocol.ChairInfo, len(r.states))}
	for c := range r.states {
		info.Chairs[c] = protocol.ChairInfo{
			Chair:          c,
			QueuedPacks:    r.draft.PackQueueSize(c),
			TicksRemaining: r.draft.TicksRemaining(c),
		}
	}
	r.broadcast(protocol.New(protocol.TypeRoomChairsInfo, info))
}

func (r *Room) deckInfo(h *Human) protocol.ChairDeckInfo {
	return protocol.ChairDeckInfo{Chair: h.chair, Name: h.name, Hash: DeckHash(h.inv)}
}

// deckChanged re-announces a human's deck hash once the draft is over and
// players are building.
func (r *Room) deckChanged(h *Human) {
	if !r.draftComplete {
		return
	}
	r.broadcast(protocol.New(protocol.TypeRoomChairsDeckInfo, protocol.RoomChairsDeckInfo{
		Chairs: []protocol.ChairDeckInfo{r.deckInfo(h)},
	}))
}

func (r *Room) humans() []*Human {
	var out []*Human
	for _, p := range r.players {
		if h, ok := p.(*Human); ok {
			out = append(out, h)
		}
	}
	return out
}

func (r *Room) completeDraft() {
	r.stopTicker()
	r.draftComplete = true
	r.logger.Info("draft complete")

	var infos []protocol.ChairDeckInfo
	var decks []DeckRecord
	for _, h := range r.humans() {
		info := r.deckInfo(h)
		infos = append(infos, info)
		decks = append(decks, DeckRecord{
			Chair:      h.chair,
			Name:       h.name,
			Hash:       info.Hash,
			Main:       h.inv.Cards(ZoneMain),
			Sideboard:  h.inv.Cards(ZoneSideboard),
			BasicLands: h.inv.Snapshot().BasicLands,
		})
	}
	r.broadcast(protocol.New(protocol.TypeRoomStage, protocol.RoomStage{Stage: protocol.StageComplete}))
	r.broadcast(protocol.New(protocol.TypeRoomChairsDeckInfo, protocol.RoomChairsDeckInfo{Chairs: infos}))
	r.publish(-1, EventDraftCompleted, map[string]interface{}{"decks": len(decks)})

	go func(id uuid.UUID, name string) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := r.results.RecordDraftDecks(ctx, id, name, decks); err != nil {
			r.logger.Errorf("failed to record draft decks: %v", err)
		}
	}(r.id, r.proto.Name())
}

// publish hands an event to the sink without blocking the loop. Indexes
// are assigned here, in loop order.
func (r *Room) publish(chair int, typ string, payload map[string]interface{}) {
	ev := Event{
		RoomID:    r.id,
		Index:     r.eventIndex,
		Chair:     chair,
		Type:      typ,
		Payload:   payload,
		Timestamp: time.Now(),
	}
	r.eventIndex++
	go func(ev Event) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := r.events.Publish(ctx, ev); err != nil {
			r.logger.Warnf("failed to publish %s event: %v", ev.Type, err)
		}
	}(ev)
}

// roomObserver turns draft-wide notifications into room broadcasts and
// history events.
type roomObserver struct {
	draft.NopObserver[catalog.Card]
	r *Room
}

func (o *roomObserver) NotifyPackQueueSizeChanged(*cardDraft, int, int) {
	o.r.broadcastChairsInfo()
}

func (o *roomObserver) NotifyNewRound(d *cardDraft, round int) {
	o.r.broadcast(protocol.New(protocol.TypeRoomStage, protocol.RoomStage{Stage: protocol.StageRunning, Round: round}))
	o.r.publish(-1, EventRoundStarted, map[string]interface{}{"round": round, "kind": d.CurrentRoundKind().String()})
}

func (o *roomObserver) NotifyNamedCardSelectionResult(d *cardDraft, chair int, packID uint32, ok bool, card catalog.Card) {
	if ok {
		o.r.publish(chair, EventCardSelected, map[string]interface{}{"packId": packID, "cards": []catalog.Card{card}})
	}
}

func (o *roomObserver) NotifyIndexedCardSelectionResult(d *cardDraft, chair int, packID uint32, ok bool, indices []int, cards []catalog.Card) {
	if ok {
		o.r.publish(chair, EventCardSelected, map[string]interface{}{"packId": packID, "indices": indices, "cards": cards})
	}
}

func (o *roomObserver) NotifyCardAutoselection(d *cardDraft, chair int, packID uint32, card catalog.Card) {
	o.r.publish(chair, EventCardAutoselected, map[string]interface{}{"packId": packID, "cards": []catalog.Card{card}})
}

func (o *roomObserver) NotifyDraftComplete(*cardDraft) {
	o.r.completeDraft()
}

func (o *roomObserver) NotifyDraftError(d *cardDraft) {
	o.r.stopTicker()
	o.r.logger.Errorf("draft failed: %v", d.Err())
	o.r.broadcast(protocol.New(protocol.TypeError, protocol.Error{Message: "draft failed"}))
	o.r.publish(-1, EventDraftError, map[string]interface{}{"error": fmt.Sprint(d.Err())})
}
