// internal/draft/draft.go
package draft

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// State is the lifecycle state of a Draft. Transitions only move forward:
// New -> Running -> Complete or Error.
type State int

const (
	StateNew State = iota
	StateRunning
	StateComplete
	StateError
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateRunning:
		return "running"
	case StateComplete:
		return "complete"
	case StateError:
		return "error"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var (
	// ErrInvalidConfig marks a configuration the engine cannot run.
	ErrInvalidConfig = errors.New("invalid draft configuration")
	// ErrNotEnoughDispensers marks a round that refers to a missing dispenser.
	ErrNotEnoughDispensers = errors.New("not enough dispensers for draft configuration")
)

// gridState tracks the shared pack of the current grid round.
type gridState struct {
	packID      uint32
	activeChair int
	claims      int
}

// Draft runs one draft over card descriptors of type C.
//
// Every mutating call is funneled through an internal FIFO: the outermost
// call drains the queue before returning, calls made from observer callbacks
// while draining are appended and return immediately. Draft is not safe for
// concurrent use; callers serialize access (the room loop does).
type Draft[C comparable] struct {
	cfg        Config
	dispensers []Dispenser[C]
	logger     *logrus.Entry

	state  State
	err    error
	round  int
	chairs []*chair
	packs  []*pack[C] // arena, pack id N lives at index N-1

	roundPacks        []uint32
	grid              *gridState
	postRoundWaiting  bool
	postRoundTicksRem int

	observers []Observer[C]
	queue     []func()
	draining  bool
}

// New builds a Draft. A configuration the engine cannot run leaves the Draft
// in StateError; Err reports why.
func New[C comparable](cfg Config, dispensers []Dispenser[C], logger *logrus.Entry) *Draft[C] {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = logrus.NewEntry(l)
	}

	d := &Draft[C]{
		cfg:        cfg,
		dispensers: dispensers,
		logger:     logger,
		state:      StateNew,
		round:      -1,
	}
	for i := 0; i < cfg.ChairCount; i++ {
		d.chairs = append(d.chairs, &chair{index: i})
	}

	if err := d.checkConfig(); err != nil {
		d.logger.Errorf("draft configuration rejected: %v", err)
		d.state = StateError
		d.err = err
	}
	return d
}

func (d *Draft[C]) checkConfig() error {
	if d.cfg.ChairCount < 1 {
		return fmt.Errorf("%w: chair count %d", ErrInvalidConfig, d.cfg.ChairCount)
	}
	for r, rc := range d.cfg.Rounds {
		switch rc.Kind() {
		case RoundNone:
			return fmt.Errorf("%w: round %d has no type", ErrInvalidConfig, r)
		case RoundGrid:
			if d.cfg.ChairCount != 2 {
				return fmt.Errorf("%w: grid round %d needs 2 chairs, have %d", ErrInvalidConfig, r, d.cfg.ChairCount)
			}
			if rc.Grid.InitialChair < 0 || rc.Grid.InitialChair >= d.cfg.ChairCount {
				return fmt.Errorf("%w: grid round %d initial chair %d", ErrInvalidConfig, r, rc.Grid.InitialChair)
			}
		}
		for _, disp := range rc.dispensations() {
			for _, c := range disp.Chairs {
				if c < 0 || c >= d.cfg.ChairCount {
					return fmt.Errorf("%w: round %d dispenses to chair %d", ErrInvalidConfig, r, c)
				}
			}
		}
		for _, idx := range rc.dispenserIndices() {
			if idx < 0 || idx >= len(d.dispensers) {
				return fmt.Errorf("%w: round %d uses dispenser %d, have %d", ErrNotEnoughDispensers, r, idx, len(d.dispensers))
			}
		}
	}
	return nil
}

// AddObserver registers o. Notifications go to observers in registration order.
func (d *Draft[C]) AddObserver(o Observer[C]) {
	d.observers = append(d.observers, o)
}

// RemoveObserver unregisters o if present.
func (d *Draft[C]) RemoveObserver(o Observer[C]) {
	for i, obs := range d.observers {
		if obs == o {
			d.observers = append(d.observers[:i:i], d.observers[i+1:]...)
			return
		}
	}
}

func (d *Draft[C]) State() State      { return d.state }
func (d *Draft[C]) Err() error        { return d.err }
func (d *Draft[C]) CurrentRound() int { return d.round }
func (d *Draft[C]) ChairCount() int   { return len(d.chairs) }
func (d *Draft[C]) RoundCount() int   { return len(d.cfg.Rounds) }
func (d *Draft[C]) Config() Config    { return d.cfg }

// CurrentRoundKind returns the archetype of the running round, RoundNone
// when the draft is not running.
func (d *Draft[C]) CurrentRoundKind() RoundKind {
	if d.state != StateRunning || d.round < 0 {
		return RoundNone
	}
	return d.cfg.Rounds[d.round].Kind()
}

// PackQueueSize returns the number of packs waiting at chair.
func (d *Draft[C]) PackQueueSize(chairIdx int) int {
	if !d.validChair(chairIdx) {
		return 0
	}
	return len(d.chairs[chairIdx].queue)
}

// TicksRemaining returns the countdown of chair's top pack.
func (d *Draft[C]) TicksRemaining(chairIdx int) int {
	if !d.validChair(chairIdx) {
		return 0
	}
	return d.chairs[chairIdx].ticksRemaining
}

// TopPack returns the id and unselected cards of chair's top pack.
func (d *Draft[C]) TopPack(chairIdx int) (uint32, []C, bool) {
	if !d.validChair(chairIdx) {
		return 0, nil, false
	}
	id, ok := d.chairs[chairIdx].top()
	if !ok {
		return 0, nil, false
	}
	return id, d.pack(id).unselected(), true
}

// SelectedCards returns every card chair has taken, in selection order.
func (d *Draft[C]) SelectedCards(chairIdx int) []C {
	if !d.validChair(chairIdx) {
		return nil
	}
	refs := d.chairs[chairIdx].selected
	out := make([]C, 0, len(refs))
	for _, ref := range refs {
		out = append(out, d.pack(ref.pack).cards[ref.index].desc)
	}
	return out
}

// PublicState returns the shared pack of the running grid round.
func (d *Draft[C]) PublicState() (uint32, []PublicCardState[C], int, bool) {
	if d.grid == nil || d.CurrentRoundKind() != RoundGrid {
		return 0, nil, -1, false
	}
	return d.grid.packID, d.publicCells(d.pack(d.grid.packID)), d.grid.activeChair, true
}

// Start begins round 0. It only has effect in StateNew.
func (d *Draft[C]) Start() {
	d.post(d.start)
}

// MakeNamedCardSelection takes the first unselected card equal to card from
// chair's top pack, which must have id packID. Calls made while the engine
// is draining are accepted and their outcome arrives through
// NotifyNamedCardSelectionResult.
func (d *Draft[C]) MakeNamedCardSelection(chairIdx int, packID uint32, card C) bool {
	result := true
	d.post(func() { result = d.namedSelection(chairIdx, packID, card) })
	return result
}

// MakeIndexedCardSelection claims cells of the grid round's shared pack.
func (d *Draft[C]) MakeIndexedCardSelection(chairIdx int, packID uint32, indices []int) bool {
	indices = append([]int(nil), indices...)
	result := true
	d.post(func() { result = d.indexedSelection(chairIdx, packID, indices) })
	return result
}

// Tick advances every countdown by one unit.
func (d *Draft[C]) Tick() {
	d.post(d.tick)
}

// post appends msg and drains the queue unless a drain is already running.
func (d *Draft[C]) post(msg func()) {
	d.queue = append(d.queue, msg)
	if d.draining {
		return
	}
	d.draining = true
	for len(d.queue) > 0 {
		next := d.queue[0]
		d.queue[0] = nil
		d.queue = d.queue[1:]
		next()
	}
	d.draining = false
}

func (d *Draft[C]) notify(fn func(o Observer[C])) {
	observers := append([]Observer[C](nil), d.observers...)
	for _, o := range observers {
		fn(o)
	}
}

func (d *Draft[C]) validChair(chairIdx int) bool {
	return chairIdx >= 0 && chairIdx < len(d.chairs)
}

func (d *Draft[C]) pack(id uint32) *pack[C] {
	return d.packs[id-1]
}

func (d *Draft[C]) newPack(descs []C) *pack[C] {
	p := newPack(uint32(len(d.packs)+1), descs)
	d.packs = append(d.packs, p)
	d.roundPacks = append(d.roundPacks, p.id)
	return p
}

func (d *Draft[C]) start() {
	switch d.state {
	case StateNew:
	case StateError:
		d.logger.Warn("draft start requested in error state")
		d.notify(func(o Observer[C]) { o.NotifyDraftError(d) })
		return
	default:
		d.logger.Debugf("draft start ignored in state %s", d.state)
		return
	}

	d.state = StateRunning
	d.logger.Infof("draft started: chairs=%d rounds=%d", len(d.chairs), len(d.cfg.Rounds))
	d.beginRound(0)
}

func (d *Draft[C]) fail(err error) {
	d.logger.Errorf("draft failed: %v", err)
	d.state = StateError
	d.err = err
	d.round = -1
	d.grid = nil
	d.notify(func(o Observer[C]) { o.NotifyDraftError(d) })
}

func (d *Draft[C]) beginRound(r int) {
	if r >= len(d.cfg.Rounds) {
		d.finish()
		return
	}

	d.round = r
	d.grid = nil
	d.roundPacks = nil
	for _, c := range d.chairs {
		c.roundPicks = 0
	}
	rc := d.cfg.Rounds[r]
	d.logger.Debugf("round %d starting: type=%s", r, rc.Kind())
	d.notify(func(o Observer[C]) { o.NotifyNewRound(d, r) })

	switch rc.Kind() {
	case RoundBooster:
		d.dealBooster(rc)
	case RoundSealed:
		d.dealSealed(rc)
	case RoundGrid:
		if err := d.dealGrid(rc); err != nil {
			d.fail(err)
			return
		}
	}
	d.checkRoundComplete()
}

func (d *Draft[C]) finish() {
	d.state = StateComplete
	d.round = -1
	d.grid = nil
	d.logger.Info("draft complete")
	d.notify(func(o Observer[C]) { o.NotifyDraftComplete(d) })
}

// gatherDispensations draws every dispensation of the round and merges the
// cards per chair, in chair order.
func (d *Draft[C]) gatherDispensations(dispensations []Dispensation) [][]C {
	perChair := make([][]C, len(d.chairs))
	for _, disp := range dispensations {
		dispenser := d.dispensers[disp.DispenserIndex]
		for _, c := range disp.Chairs {
			var cards []C
			if disp.DispenseAll {
				cards = dispenser.DispenseAll()
			} else {
				cards = dispenser.Dispense(disp.Quantity)
			}
			perChair[c] = append(perChair[c], cards...)
		}
	}
	return perChair
}

func (d *Draft[C]) dealBooster(rc RoundConfig) {
	for c, cards := range d.gatherDispensations(rc.Booster.Dispensations) {
		if len(cards) == 0 {
			continue
		}
		p := d.newPack(cards)
		if len(cards) == 1 {
			d.autoselect(c, p, 0)
			continue
		}
		d.enqueue(c, p.id)
	}
}

func (d *Draft[C]) dealSealed(rc RoundConfig) {
	for c, cards := range d.gatherDispensations(rc.Sealed.Dispensations) {
		if len(cards) == 0 {
			continue
		}
		p := d.newPack(cards)
		for i := range p.cards {
			d.autoselect(c, p, i)
		}
	}
}

func (d *Draft[C]) dealGrid(rc RoundConfig) error {
	cards := d.dispensers[rc.Grid.DispenserIndex].Dispense(GridPackSize)
	if len(cards) < GridPackSize {
		return fmt.Errorf("grid round %d: dispenser %d supplied %d of %d cards", d.round, rc.Grid.DispenserIndex, len(cards), GridPackSize)
	}
	p := d.newPack(cards[:GridPackSize])
	d.grid = &gridState{packID: p.id, activeChair: rc.Grid.InitialChair}
	d.broadcastPublicState()
	d.enqueue(rc.Grid.InitialChair, p.id)
	return nil
}

// enqueue appends a pack to chair's queue. A pack that becomes the top pack
// restarts the chair's countdown.
func (d *Draft[C]) enqueue(chairIdx int, packID uint32) {
	c := d.chairs[chairIdx]
	c.queue = append(c.queue, packID)
	size := len(c.queue)
	d.notify(func(o Observer[C]) { o.NotifyPackQueueSizeChanged(d, chairIdx, size) })
	if size == 1 {
		d.presentTopPack(c)
	}
}

// popTop removes chair's top pack and presents the next one, if any.
func (d *Draft[C]) popTop(c *chair) {
	c.pop()
	size := len(c.queue)
	d.notify(func(o Observer[C]) { o.NotifyPackQueueSizeChanged(d, c.index, size) })
	if size > 0 {
		d.presentTopPack(c)
	}
}

func (d *Draft[C]) presentTopPack(c *chair) {
	id, _ := c.top()
	c.ticksRemaining = d.cfg.Rounds[d.round].TimeoutTicks()
	unselected := d.pack(id).unselected()
	d.notify(func(o Observer[C]) { o.NotifyNewPack(d, c.index, id, unselected) })
}

// take marks a card selected by chair and records it.
func (d *Draft[C]) take(chairIdx int, p *pack[C], index int, order int) {
	c := d.chairs[chairIdx]
	p.cards[index].selectedChair = chairIdx
	p.cards[index].round = d.round
	p.cards[index].order = order
	c.selected = append(c.selected, cardRef{pack: p.id, index: index})
}

func (d *Draft[C]) autoselect(chairIdx int, p *pack[C], index int) {
	c := d.chairs[chairIdx]
	d.take(chairIdx, p, index, c.roundPicks)
	c.roundPicks++
	desc := p.cards[index].desc
	d.logger.Tracef("chair %d autoselected %v from pack %d", chairIdx, desc, p.id)
	d.notify(func(o Observer[C]) { o.NotifyCardAutoselection(d, chairIdx, p.id, desc) })
}

func (d *Draft[C]) nextChair(chairIdx int, dir PassDirection) int {
	n := len(d.chairs)
	if dir == CounterClockwise {
		return (chairIdx - 1 + n) % n
	}
	return (chairIdx + 1) % n
}

func (d *Draft[C]) selectable() bool {
	return d.state == StateRunning && !d.postRoundWaiting && d.round >= 0
}

func (d *Draft[C]) namedSelection(chairIdx int, packID uint32, desc C) bool {
	reject := func(reason string) bool {
		d.logger.Debugf("chair %d named selection on pack %d rejected: %s", chairIdx, packID, reason)
		d.notify(func(o Observer[C]) { o.NotifyNamedCardSelectionResult(d, chairIdx, packID, false, desc) })
		return false
	}

	if !d.selectable() {
		return reject("draft not accepting selections")
	}
	if !d.validChair(chairIdx) {
		return reject("invalid chair")
	}
	rc := d.cfg.Rounds[d.round]
	if rc.Kind() != RoundBooster {
		return reject("not a booster round")
	}
	c := d.chairs[chairIdx]
	top, ok := c.top()
	if !ok || top != packID {
		return reject("pack is not the top pack")
	}
	p := d.pack(packID)
	index := p.firstUnselected(desc)
	if index < 0 {
		return reject("card not in pack")
	}

	d.take(chairIdx, p, index, c.roundPicks)
	c.roundPicks++
	d.notify(func(o Observer[C]) { o.NotifyNamedCardSelectionResult(d, chairIdx, packID, true, desc) })
	d.popTop(c)

	switch p.unselectedCount() {
	case 0:
	case 1:
		last := p.firstUnselectedIndex()
		d.autoselect(chairIdx, p, last)
	default:
		d.enqueue(d.nextChair(chairIdx, rc.Booster.PassDirection), p.id)
	}

	d.checkRoundComplete()
	return true
}

func (d *Draft[C]) indexedSelection(chairIdx int, packID uint32, indices []int) bool {
	reject := func(reason string) bool {
		d.logger.Debugf("chair %d indexed selection %v on pack %d rejected: %s", chairIdx, indices, packID, reason)
		d.notify(func(o Observer[C]) {
			o.NotifyIndexedCardSelectionResult(d, chairIdx, packID, false, indices, nil)
		})
		return false
	}

	if !d.selectable() {
		return reject("draft not accepting selections")
	}
	if !d.validChair(chairIdx) {
		return reject("invalid chair")
	}
	if d.cfg.Rounds[d.round].Kind() != RoundGrid || d.grid == nil {
		return reject("not a grid round")
	}
	if chairIdx != d.grid.activeChair {
		return reject("chair is not active")
	}
	c := d.chairs[chairIdx]
	top, ok := c.top()
	if !ok || top != packID || packID != d.grid.packID {
		return reject("pack is not the top pack")
	}
	p := d.pack(packID)
	if !IsValidGridSelection(p.selectedIndices(), indices) {
		return reject("invalid grid selection")
	}

	cards := make([]C, 0, len(indices))
	for _, idx := range indices {
		d.take(chairIdx, p, idx, d.grid.claims)
		cards = append(cards, p.cards[idx].desc)
	}
	c.roundPicks++
	d.grid.claims++
	d.notify(func(o Observer[C]) {
		o.NotifyIndexedCardSelectionResult(d, chairIdx, packID, true, indices, cards)
	})
	d.popTop(c)

	if d.grid.claims < len(d.chairs) {
		d.grid.activeChair = d.nextChair(chairIdx, Clockwise)
		d.broadcastPublicState()
		d.enqueue(d.grid.activeChair, p.id)
	} else {
		d.grid.activeChair = -1
		d.broadcastPublicState()
	}

	d.checkRoundComplete()
	return true
}

func (d *Draft[C]) publicCells(p *pack[C]) []PublicCardState[C] {
	cells := make([]PublicCardState[C], len(p.cards))
	for i, c := range p.cards {
		cells[i] = PublicCardState[C]{Card: c.desc, SelectedChair: c.selectedChair, SelectedOrder: c.order}
	}
	return cells
}

func (d *Draft[C]) broadcastPublicState() {
	packID := d.grid.packID
	active := d.grid.activeChair
	cells := d.publicCells(d.pack(packID))
	d.notify(func(o Observer[C]) { o.NotifyPublicState(d, packID, cells, active) })
}

func (d *Draft[C]) roundComplete() bool {
	switch d.cfg.Rounds[d.round].Kind() {
	case RoundGrid:
		return d.grid != nil && d.grid.claims >= len(d.chairs)
	default:
		for _, c := range d.chairs {
			if len(c.queue) > 0 {
				return false
			}
		}
		for _, id := range d.roundPacks {
			if d.pack(id).unselectedCount() > 0 {
				return false
			}
		}
		return true
	}
}

func (d *Draft[C]) checkRoundComplete() {
	if d.state != StateRunning || d.postRoundWaiting || !d.roundComplete() {
		return
	}

	rc := d.cfg.Rounds[d.round]
	d.logger.Debugf("round %d complete", d.round)
	if rc.PostRoundTicks > 0 {
		d.postRoundWaiting = true
		d.postRoundTicksRem = rc.PostRoundTicks
		round, ticks := d.round, rc.PostRoundTicks
		d.notify(func(o Observer[C]) { o.NotifyPostRoundTimerStarted(d, round, ticks) })
		return
	}
	d.beginRound(d.round + 1)
}

func (d *Draft[C]) tick() {
	if d.state != StateRunning {
		return
	}

	if d.postRoundWaiting {
		d.postRoundTicksRem--
		if d.postRoundTicksRem <= 0 {
			d.postRoundWaiting = false
			d.beginRound(d.round + 1)
		}
		return
	}

	for _, c := range d.chairs {
		if len(c.queue) == 0 || c.ticksRemaining <= 0 {
			continue
		}
		c.ticksRemaining--
		if c.ticksRemaining == 0 {
			id, _ := c.top()
			chairIdx := c.index
			unselected := d.pack(id).unselected()
			d.logger.Debugf("chair %d time expired on pack %d", chairIdx, id)
			d.notify(func(o Observer[C]) { o.NotifyTimeExpired(d, chairIdx, id, unselected) })
		}
	}
}
