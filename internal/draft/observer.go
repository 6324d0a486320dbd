package draft

// PublicCardState is one cell of a grid round's shared pack as seen by
// every participant. SelectedChair and SelectedOrder are -1 while unclaimed.
type PublicCardState[C comparable] struct {
	Card          C   `json:"card"`
	SelectedChair int `json:"selectedChair"`
	SelectedOrder int `json:"selectedOrder"`
}

// Observer receives every notification the engine produces. Callbacks run
// synchronously on the caller's goroutine and may call back into the engine.
type Observer[C comparable] interface {
	NotifyPackQueueSizeChanged(d *Draft[C], chair int, size int)
	NotifyNewPack(d *Draft[C], chair int, packID uint32, unselected []C)
	NotifyPublicState(d *Draft[C], packID uint32, cells []PublicCardState[C], activeChair int)
	NotifyNamedCardSelectionResult(d *Draft[C], chair int, packID uint32, ok bool, card C)
	NotifyIndexedCardSelectionResult(d *Draft[C], chair int, packID uint32, ok bool, indices []int, cards []C)
	NotifyCardAutoselection(d *Draft[C], chair int, packID uint32, card C)
	NotifyTimeExpired(d *Draft[C], chair int, packID uint32, unselected []C)
	NotifyPostRoundTimerStarted(d *Draft[C], round int, ticks int)
	NotifyNewRound(d *Draft[C], round int)
	NotifyDraftComplete(d *Draft[C])
	NotifyDraftError(d *Draft[C])
}

// NopObserver implements Observer with empty methods, for embedding.
type NopObserver[C comparable] struct{}

func (NopObserver[C]) NotifyPackQueueSizeChanged(*Draft[C], int, int) {}
func (NopObserver[C]) NotifyNewPack(*Draft[C], int, uint32, []C) {}
func (NopObserver[C]) NotifyPublicState(*Draft[C], uint32, []PublicCardState[C], int) {}
func (NopObserver[C]) NotifyNamedCardSelectionResult(*Draft[C], int, uint32, bool, C) {}
func (NopObserver[C]) NotifyIndexedCardSelectionResult(*Draft[C], int, uint32, bool, []int, []C) {}
func (NopObserver[C]) NotifyCardAutoselection(*Draft[C], int, uint32, C) {}
func (NopObserver[C]) NotifyTimeExpired(*Draft[C], int, uint32, []C) {}
func (NopObserver[C]) NotifyPostRoundTimerStarted(*Draft[C], int, int) {}
func (NopObserver[C]) NotifyNewRound(*Draft[C], int) {}
func (NopObserver[C]) NotifyDraftComplete(*Draft[C]) {}
func (NopObserver[C]) NotifyDraftError(*Draft[C]) {}

// ChairObserver forwards only the notifications that concern one chair,
// plus the draft-wide ones (public state, rounds, completion, errors).
type ChairObserver[C comparable] struct {
	Chair int
	Next  Observer[C]
}

func NewChairObserver[C comparable](chair int, next Observer[C]) *ChairObserver[C] {
	return &ChairObserver[C]{Chair: chair, Next: next}
}

func (o *ChairObserver[C]) NotifyPackQueueSizeChanged(d *Draft[C], chair int, size int) {
	if chair == o.Chair {
		o.Next.NotifyPackQueueSizeChanged(d, chair, size)
	}
}

func (o *ChairObserver[C]) NotifyNewPack(d *Draft[C], chair int, packID uint32, unselected []C) {
	if chair == o.Chair {
		o.Next.NotifyNewPack(d, chair, packID, unselected)
	}
}

func (o *ChairObserver[C]) NotifyPublicState(d *Draft[C], packID uint32, cells []PublicCardState[C], activeChair int) {
	o.Next.NotifyPublicState(d, packID, cells, activeChair)
}

func (o *ChairObserver[C]) NotifyNamedCardSelectionResult(d *Draft[C], chair int, packID uint32, ok bool, card C) {
	if chair == o.Chair {
		o.Next.NotifyNamedCardSelectionResult(d, chair, packID, ok, card)
	}
}

func (o *ChairObserver[C]) NotifyIndexedCardSelectionResult(d *Draft[C], chair int, packID uint32, ok bool, indices []int, cards []C) {
	if chair == o.Chair {
		o.Next.NotifyIndexedCardSelectionResult(d, chair, packID, ok, indices, cards)
	}
}

func (o *ChairObserver[C]) NotifyCardAutoselection(d *Draft[C], chair int, packID uint32, card C) {
	if chair == o.Chair {
		o.Next.NotifyCardAutoselection(d, chair, packID, card)
	}
}

func (o *ChairObserver[C]) NotifyTimeExpired(d *Draft[C], chair int, packID uint32, unselected []C) {
	if chair == o.Chair {
		o.Next.NotifyTimeExpired(d, chair, packID, unselected)
	}
}

func (o *ChairObserver[C]) NotifyPostRoundTimerStarted(d *Draft[C], round int, ticks int) {
	o.Next.NotifyPostRoundTimerStarted(d, round, ticks)
}

func (o *ChairObserver[C]) NotifyNewRound(d *Draft[C], round int) {
	o.Next.NotifyNewRound(d, round)
}

func (o *ChairObserver[C]) NotifyDraftComplete(d *Draft[C]) {
	o.Next.NotifyDraftComplete(d)
}

func (o *ChairObserver[C]) NotifyDraftError(d *Draft[C]) {
	o.Next.NotifyDraftError(d)
}
