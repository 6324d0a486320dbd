package draft

import (
	"fmt"
)

// testDispenser hands out "<set>:card0" ... "<set>:card14" in order and
// starts over once all fifteen are gone.
type testDispenser struct {
	setCode string
	cards   []string
}

func newTestDispenser(setCode string) *testDispenser {
	td := &testDispenser{setCode: setCode}
	td.reset()
	return td
}

func (td *testDispenser) reset() {
	td.cards = td.cards[:0]
	for i := 0; i < 15; i++ {
		td.cards = append(td.cards, fmt.Sprintf("%s:card%d", td.setCode, i))
	}
}

func (td *testDispenser) Dispense(qty int) []string {
	out := make([]string, 0, qty)
	for i := 0; i < qty; i++ {
		out = append(out, td.cards[0])
		td.cards = td.cards[1:]
		if len(td.cards) == 0 {
			td.reset()
		}
	}
	return out
}

func (td *testDispenser) DispenseAll() []string {
	out := append([]string(nil), td.cards...)
	td.reset()
	return out
}

func testDispensers(n int) []Dispenser[string] {
	out := make([]Dispenser[string], 0, n)
	for i := 0; i < n; i++ {
		out = append(out, newTestDispenser(fmt.Sprint(i)))
	}
	return out
}

func allChairs(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// boosterConfig alternates pass direction, one full booster per chair per round.
func boosterConfig(rounds, chairs, timeout int) Config {
	cfg := Config{ChairCount: chairs}
	for r := 0; r < rounds; r++ {
		dir := Clockwise
		if r%2 == 1 {
			dir = CounterClockwise
		}
		cfg.Rounds = append(cfg.Rounds, RoundConfig{
			Booster: &BoosterRound{
				PassDirection: dir,
				TimeoutTicks:  timeout,
				Dispensations: []Dispensation{{DispenserIndex: 0, Chairs: allChairs(chairs), DispenseAll: true}},
			},
		})
	}
	return cfg
}

// sealedConfig deals one batch from each of dispensers to every chair.
func sealedConfig(chairs, dispensers, postRoundTicks int) Config {
	round := RoundConfig{PostRoundTicks: postRoundTicks, Sealed: &SealedRound{}}
	for i := 0; i < dispensers; i++ {
		round.Sealed.Dispensations = append(round.Sealed.Dispensations,
			Dispensation{DispenserIndex: i, Chairs: allChairs(chairs), DispenseAll: true})
	}
	return Config{ChairCount: chairs, Rounds: []RoundConfig{round}}
}

func gridConfig(rounds, chairs, timeout int) Config {
	cfg := Config{ChairCount: chairs}
	for r := 0; r < rounds; r++ {
		cfg.Rounds = append(cfg.Rounds, RoundConfig{
			Grid: &GridRound{DispenserIndex: 0, InitialChair: r % chairs, TimeoutTicks: timeout},
		})
	}
	return cfg
}

// recordingObserver counts and remembers what the engine reported.
type recordingObserver struct {
	NopObserver[string]

	events          []string
	newRounds       int
	complete        int
	errors          int
	selectionErrors int
	timeExpired     map[int]int
	autoselected    map[int][]string
	granted         map[int][]string
	postRoundTimers []int

	publicPackID   uint32
	publicCells    []PublicCardState[string]
	publicActive   int
	publicUpdates  int
	indexedResults []bool
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{
		timeExpired:  make(map[int]int),
		autoselected: make(map[int][]string),
		granted:      make(map[int][]string),
		publicActive: -1,
	}
}

func (o *recordingObserver) NotifyNamedCardSelectionResult(d *Draft[string], chair int, packID uint32, ok bool, card string) {
	if !ok {
		o.selectionErrors++
		return
	}
	o.events = append(o.events, "selection")
	o.granted[chair] = append(o.granted[chair], card)
}

func (o *recordingObserver) NotifyIndexedCardSelectionResult(d *Draft[string], chair int, packID uint32, ok bool, indices []int, cards []string) {
	o.indexedResults = append(o.indexedResults, ok)
	if !ok {
		o.selectionErrors++
		return
	}
	o.granted[chair] = append(o.granted[chair], cards...)
}

func (o *recordingObserver) NotifyCardAutoselection(d *Draft[string], chair int, packID uint32, card string) {
	o.events = append(o.events, "selection")
	o.autoselected[chair] = append(o.autoselected[chair], card)
}

func (o *recordingObserver) NotifyPublicState(d *Draft[string], packID uint32, cells []PublicCardState[string], activeChair int) {
	o.publicPackID = packID
	o.publicCells = cells
	o.publicActive = activeChair
	o.publicUpdates++
}

func (o *recordingObserver) NotifyTimeExpired(d *Draft[string], chair int, packID uint32, unselected []string) {
	o.timeExpired[chair]++
}

func (o *recordingObserver) NotifyPostRoundTimerStarted(d *Draft[string], round int, ticks int) {
	o.postRoundTimers = append(o.postRoundTimers, round)
}

func (o *recordingObserver) NotifyNewRound(d *Draft[string], round int) {
	o.events = append(o.events, "new_round")
	o.newRounds++
}

func (o *recordingObserver) NotifyDraftComplete(d *Draft[string]) {
	o.events = append(o.events, "complete")
	o.complete++
}

func (o *recordingObserver) NotifyDraftError(d *Draft[string]) {
	o.errors++
}

func (o *recordingObserver) unclaimedCells() int {
	n := 0
	for _, c := range o.publicCells {
		if c.SelectedChair == -1 {
			n++
		}
	}
	return n
}

// autoDrafter picks the first unselected card of every pack it is handed,
// calling back into the engine from inside the notification.
type autoDrafter struct {
	NopObserver[string]
	requested map[int][]string
	failures  int
}

func newAutoDrafter() *autoDrafter {
	return &autoDrafter{requested: make(map[int][]string)}
}

func (a *autoDrafter) NotifyNewPack(d *Draft[string], chair int, packID uint32, unselected []string) {
	a.requested[chair] = append(a.requested[chair], unselected[0])
	if !d.MakeNamedCardSelection(chair, packID, unselected[0]) {
		a.failures++
	}
}
